// metrics.go — Prometheus HTTP метрики File Module.
// Регистрирует метрики: fm_http_requests_total, fm_http_request_duration_seconds.
// Бизнес-метрики (fm_uploads_total, fm_cache_hits_total и др.) регистрируются
// в соответствующих пакетах и обновляются из сервисного слоя.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP метрики
var (
	// httpRequestsTotal — общее количество HTTP-запросов.
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fm_http_requests_total",
			Help: "Общее количество HTTP-запросов к File Module",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration — гистограмма длительности HTTP-запросов.
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fm_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов к File Module в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// MetricsMiddleware возвращает HTTP middleware для сбора Prometheus метрик.
// Записывает количество запросов и длительность для каждого endpoint.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Нормализуем путь для лейблов метрик
			// (заменяем идентификаторы на {id} для предотвращения кардинальности)
			normalizedPath := normalizePath(r.URL.Path)

			wrapped := newMetricsResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(wrapped.statusCode)

			httpRequestsTotal.WithLabelValues(r.Method, normalizedPath, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, normalizedPath).Observe(duration)
		})
	}
}

// metricsResponseWriter — обёртка для перехвата статус-кода.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newMetricsResponseWriter(w http.ResponseWriter) *metricsResponseWriter {
	return &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *metricsResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Unwrap позволяет http.ResponseController получить доступ к оригинальному ResponseWriter.
func (rw *metricsResponseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// filesPrefix — общий префикс файловых endpoints.
const filesPrefix = "/api/v1/files"

// normalizePath заменяет идентификаторы в сегментах пути на {id}/{userId}
// и т.п. для предотвращения взрывного роста кардинальности метрик.
// /api/v1/files/a1b2.../download → /api/v1/files/{id}/download
func normalizePath(path string) string {
	switch path {
	case "/health/live", "/health/ready", "/metrics",
		filesPrefix + "/upload",
		filesPrefix + "/upload/presigned",
		filesPrefix + "/upload/complete",
		filesPrefix + "/batch",
		filesPrefix + "/stats":
		return path
	}

	rest, ok := strings.CutPrefix(path, filesPrefix+"/")
	if !ok {
		return path
	}

	segments := strings.Split(rest, "/")
	switch segments[0] {
	case "user":
		if len(segments) == 2 {
			return filesPrefix + "/user/{userId}"
		}
		if len(segments) == 3 && segments[2] == "stats" {
			return filesPrefix + "/user/{userId}/stats"
		}
	case "workspace":
		if len(segments) == 2 {
			return filesPrefix + "/workspace/{workspaceId}"
		}
	case "channel":
		if len(segments) == 2 {
			return filesPrefix + "/channel/{channelId}"
		}
	default:
		// /files/{id}[/download|/share[/{userId}]]
		switch {
		case len(segments) == 1:
			return filesPrefix + "/{id}"
		case len(segments) == 2 && segments[1] == "download":
			return filesPrefix + "/{id}/download"
		case len(segments) == 2 && segments[1] == "share":
			return filesPrefix + "/{id}/share"
		case len(segments) == 3 && segments[1] == "share":
			return filesPrefix + "/{id}/share/{userId}"
		}
	}
	return path
}
