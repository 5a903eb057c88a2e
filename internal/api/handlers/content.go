// content.go — отдача содержимого объектов при local backend.
// S3 backend отдаёт содержимое напрямую по presigned URL, этот
// обработчик регистрируется только для local.
package handlers

import (
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/teamchat/file-module/internal/api/errors"
	"github.com/bigkaa/teamchat/file-module/internal/storage/objectstore"
)

// ContentHandler — отдача объектов локального хранилища.
type ContentHandler struct {
	backend *objectstore.LocalBackend
	logger  *slog.Logger
}

// NewContentHandler создаёт обработчик отдачи содержимого.
func NewContentHandler(backend *objectstore.LocalBackend, logger *slog.Logger) *ContentHandler {
	return &ContentHandler{backend: backend, logger: logger}
}

// Serve обрабатывает GET /api/v1/files/content/* — потоковую отдачу
// объекта по ключу хранилища.
func (h *ContentHandler) Serve(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")

	rc, err := h.backend.Open(key)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, objectstore.ErrInvalidKey) {
			apierrors.NotFound(w, "объект не найден")
			return
		}
		h.logger.Error("Ошибка открытия объекта",
			slog.String("key", key),
			slog.String("error", err.Error()))
		apierrors.StorageError(w, "ошибка чтения объекта")
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("Ошибка отдачи объекта",
			slog.String("key", key),
			slog.String("error", err.Error()))
	}
}
