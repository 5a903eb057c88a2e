// files.go — обработчики загрузки, чтения, изменения, удаления
// и доступа к файлам.
package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/teamchat/file-module/internal/api/errors"
	"github.com/bigkaa/teamchat/file-module/internal/domain/model"
	"github.com/bigkaa/teamchat/file-module/internal/service"
)

// fileResponse — стандартный ответ с файловой записью.
type fileResponse struct {
	File      *model.File `json:"file"`
	Duplicate bool        `json:"duplicate,omitempty"`
}

// optional возвращает указатель на значение или nil для пустой строки.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Upload обрабатывает POST /api/v1/files/upload — direct-загрузку
// multipart/form-data. Поля: file, workspace_id, channel_id, message_id.
// Пользователь — X-User-ID или поле user_id.
//
// Новый файл — 201; дубликат по checksum — 200 с duplicate=true.
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.maxMultipartMemory); err != nil {
		apierrors.ValidationError(w, "ожидается multipart/form-data с полем file")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		apierrors.ValidationError(w, "не передано поле file")
		return
	}
	defer file.Close()

	result, err := h.svc.Upload(r.Context(), service.UploadInput{
		Content:     file,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		WorkspaceID: r.FormValue("workspace_id"),
		ChannelID:   optional(r.FormValue("channel_id")),
		MessageID:   optional(r.FormValue("message_id")),
		UserID:      userID(r),
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	status := http.StatusCreated
	if result.Duplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, fileResponse{File: result.File, Duplicate: result.Duplicate})
}

// presignRequest — тело POST /api/v1/files/upload/presigned.
type presignRequest struct {
	Filename    string  `json:"filename"`
	ContentType string  `json:"content_type"`
	Size        int64   `json:"size"`
	WorkspaceID string  `json:"workspace_id"`
	ChannelID   *string `json:"channel_id,omitempty"`
	MessageID   *string `json:"message_id,omitempty"`
	UserID      string  `json:"user_id,omitempty"`
}

// CreatePresigned обрабатывает POST /api/v1/files/upload/presigned —
// выдачу presigned URL загрузки с регистрацией pending-сессии.
func (h *FileHandler) CreatePresigned(w http.ResponseWriter, r *http.Request) {
	var req presignRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	uid := req.UserID
	if uid == "" {
		uid = userID(r)
	}

	result, err := h.svc.CreatePresignedUpload(r.Context(), service.PresignInput{
		Filename:    req.Filename,
		ContentType: req.ContentType,
		Size:        req.Size,
		WorkspaceID: req.WorkspaceID,
		ChannelID:   req.ChannelID,
		MessageID:   req.MessageID,
		UserID:      uid,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// completeRequest — тело POST /api/v1/files/upload/complete.
type completeRequest struct {
	FileID   string `json:"file_id"`
	Checksum string `json:"checksum,omitempty"`
}

// CompletePresigned обрабатывает POST /api/v1/files/upload/complete —
// материализацию pending-сессии в файловую запись.
func (h *FileHandler) CompletePresigned(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.svc.CompletePresignedUpload(r.Context(), req.FileID, req.Checksum)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	status := http.StatusCreated
	if result.Duplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, fileResponse{File: result.File, Duplicate: result.Duplicate})
}

// Get обрабатывает GET /api/v1/files/{id} — метаданные файла.
func (h *FileHandler) Get(w http.ResponseWriter, r *http.Request) {
	file, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fileResponse{File: file})
}

// Download обрабатывает GET /api/v1/files/{id}/download — выдачу
// presigned URL скачивания.
func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.DownloadURL(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// updateRequest — тело PUT/PATCH /api/v1/files/{id}.
type updateRequest struct {
	Name      *string             `json:"name,omitempty"`
	IsPublic  *bool               `json:"is_public,omitempty"`
	ChannelID *string             `json:"channel_id,omitempty"`
	MessageID *string             `json:"message_id,omitempty"`
	Metadata  *model.TypeMetadata `json:"metadata,omitempty"`
}

// Update обрабатывает PUT/PATCH /api/v1/files/{id} — изменение
// разрешённых полей записи: отображаемое имя, публичность, привязка
// к каналу/сообщению, type-specific метаданные.
func (h *FileHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	file, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), service.UpdateInput{
		Name:      req.Name,
		IsPublic:  req.IsPublic,
		ChannelID: req.ChannelID,
		MessageID: req.MessageID,
		Metadata:  req.Metadata,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fileResponse{File: file})
}

// Delete обрабатывает DELETE /api/v1/files/{id} — мягкое удаление.
func (h *FileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id"), userID(r)); err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"deleted":    true,
		"deleted_at": time.Now().UTC(),
	})
}

// shareRequest — тело POST /api/v1/files/{id}/share.
// Основное поле — user_ids; user_id принимается как одиночная форма.
type shareRequest struct {
	UserIDs []string `json:"user_ids"`
	UserID  string   `json:"user_id,omitempty"`
}

// Share обрабатывает POST /api/v1/files/{id}/share — выдачу доступа
// одному или нескольким пользователям за один запрос.
func (h *FileHandler) Share(w http.ResponseWriter, r *http.Request) {
	var req shareRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	userIDs := req.UserIDs
	if len(userIDs) == 0 && req.UserID != "" {
		userIDs = []string{req.UserID}
	}

	file, err := h.svc.Share(r.Context(), chi.URLParam(r, "id"), userIDs)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fileResponse{File: file})
}

// Unshare обрабатывает DELETE /api/v1/files/{id}/share/{userId} —
// отзыв доступа.
func (h *FileHandler) Unshare(w http.ResponseWriter, r *http.Request) {
	file, err := h.svc.Unshare(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "userId"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fileResponse{File: file})
}
