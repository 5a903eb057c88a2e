// Пакет handlers — HTTP-обработчики File Module API.
// Обработчики тонкие: разбор запроса, вызов сервиса, сериализация ответа.
// Вся бизнес-логика — в пакете service.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apierrors "github.com/bigkaa/teamchat/file-module/internal/api/errors"
	"github.com/bigkaa/teamchat/file-module/internal/service"
)

// FileHandler — обработчики файловых endpoints.
type FileHandler struct {
	svc                *service.FileService
	logger             *slog.Logger
	maxMultipartMemory int64
}

// NewFileHandler создаёт обработчики файловых endpoints.
func NewFileHandler(svc *service.FileService, maxMultipartMemory int64, logger *slog.Logger) *FileHandler {
	return &FileHandler{
		svc:                svc,
		logger:             logger,
		maxMultipartMemory: maxMultipartMemory,
	}
}

// writeJSON сериализует ответ со статусом.
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

// writeServiceError транслирует ошибку сервиса в HTTP-ответ.
func (h *FileHandler) writeServiceError(w http.ResponseWriter, err error) {
	var serr *service.Error
	if errors.As(err, &serr) {
		apierrors.WriteError(w, serr.StatusCode, serr.Code, serr.Message)
		return
	}
	h.logger.Error("Необработанная ошибка сервиса", slog.String("error", err.Error()))
	apierrors.InternalError(w, "внутренняя ошибка сервера")
}

// decodeJSON разбирает тело запроса; при ошибке пишет 400 и возвращает false.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		apierrors.ValidationError(w, "некорректное тело запроса")
		return false
	}
	return true
}

// userID извлекает идентификатор действующего пользователя:
// заголовок X-User-ID, затем form/query параметр user_id.
// Аутентификация выполняется на внешнем шлюзе, модуль доверяет заголовку.
func userID(r *http.Request) string {
	if id := r.Header.Get("X-User-ID"); id != "" {
		return id
	}
	return r.FormValue("user_id")
}
