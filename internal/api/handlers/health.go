// health.go — liveness и readiness probes.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/bigkaa/teamchat/file-module/internal/config"
)

// ReadinessChecker — проверка готовности одной зависимости.
type ReadinessChecker interface {
	CheckReady(ctx context.Context) error
}

// ReadinessCheckerFunc — адаптер функции к ReadinessChecker.
type ReadinessCheckerFunc func(ctx context.Context) error

// CheckReady реализует ReadinessChecker.
func (f ReadinessCheckerFunc) CheckReady(ctx context.Context) error {
	return f(ctx)
}

// namedChecker — зарегистрированная проверка.
type namedChecker struct {
	name    string
	checker ReadinessChecker
}

// HealthHandler — обработчики health endpoints.
type HealthHandler struct {
	checkers []namedChecker
	timeout  time.Duration
}

// NewHealthHandler создаёт обработчики health endpoints.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{timeout: 5 * time.Second}
}

// AddChecker регистрирует проверку готовности зависимости.
func (h *HealthHandler) AddChecker(name string, checker ReadinessChecker) {
	h.checkers = append(h.checkers, namedChecker{name: name, checker: checker})
}

// checkStatus — результат одной проверки в ответе readiness.
type checkStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// healthResponse — ответ health endpoints.
type healthResponse struct {
	Status  string                 `json:"status"`
	Version string                 `json:"version"`
	Checks  map[string]checkStatus `json:"checks,omitempty"`
}

// Live обрабатывает GET /health/live — процесс жив и отвечает.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Version: config.Version,
	})
}

// Ready обрабатывает GET /health/ready — опрашивает зависимости.
// Любой отказ переводит ответ в 503: модуль не может обслуживать
// запросы без Metadata Store или session store.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	resp := healthResponse{
		Status:  "ok",
		Version: config.Version,
		Checks:  make(map[string]checkStatus, len(h.checkers)),
	}
	statusCode := http.StatusOK

	for _, c := range h.checkers {
		if err := c.checker.CheckReady(ctx); err != nil {
			resp.Checks[c.name] = checkStatus{Status: "fail", Message: err.Error()}
			resp.Status = "fail"
			statusCode = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[c.name] = checkStatus{Status: "ok"}
	}

	writeJSON(w, statusCode, resp)
}
