// list.go — листинги файлов по scope и batch-операции.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/teamchat/file-module/internal/api/errors"
	"github.com/bigkaa/teamchat/file-module/internal/domain/model"
	"github.com/bigkaa/teamchat/file-module/internal/repository"
)

// listQuery разбирает общие query-параметры листинга:
// category, limit (по умолчанию 20, максимум 100), offset.
func listQuery(r *http.Request) (model.FileCategory, int64, int64) {
	q := r.URL.Query()
	category := model.FileCategory(q.Get("category"))

	limit, _ := strconv.ParseInt(q.Get("limit"), 10, 64)
	offset, _ := strconv.ParseInt(q.Get("offset"), 10, 64)
	return category, limit, offset
}

// listByScope — общий обработчик листинга.
func (h *FileHandler) listByScope(w http.ResponseWriter, r *http.Request, scope repository.ListScope, scopeID string) {
	category, limit, offset := listQuery(r)

	result, err := h.svc.List(r.Context(), repository.ListParams{
		Scope:    scope,
		ScopeID:  scopeID,
		Category: category,
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ListByUser обрабатывает GET /api/v1/files/user/{userId}.
func (h *FileHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	h.listByScope(w, r, repository.ScopeUser, chi.URLParam(r, "userId"))
}

// ListByWorkspace обрабатывает GET /api/v1/files/workspace/{workspaceId}.
func (h *FileHandler) ListByWorkspace(w http.ResponseWriter, r *http.Request) {
	h.listByScope(w, r, repository.ScopeWorkspace, chi.URLParam(r, "workspaceId"))
}

// ListByChannel обрабатывает GET /api/v1/files/channel/{channelId}.
func (h *FileHandler) ListByChannel(w http.ResponseWriter, r *http.Request) {
	h.listByScope(w, r, repository.ScopeChannel, chi.URLParam(r, "channelId"))
}

// batchGetRequest — тело POST /api/v1/files/batch.
type batchGetRequest struct {
	FileIDs []string `json:"file_ids"`
}

// BatchGet обрабатывает POST /api/v1/files/batch — чтение набора файлов.
// Отсутствующие идентификаторы молча пропускаются.
func (h *FileHandler) BatchGet(w http.ResponseWriter, r *http.Request) {
	var req batchGetRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	files, err := h.svc.BatchGet(r.Context(), req.FileIDs)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if files == nil {
		files = []*model.File{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"files": files})
}

// batchDeleteRequest — тело DELETE /api/v1/files/batch.
type batchDeleteRequest struct {
	FileIDs []string `json:"file_ids"`
	UserID  string   `json:"user_id,omitempty"`
}

// BatchDelete обрабатывает DELETE /api/v1/files/batch — мягкое удаление
// набора файлов с частичным успехом.
func (h *FileHandler) BatchDelete(w http.ResponseWriter, r *http.Request) {
	var req batchDeleteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	uid := req.UserID
	if uid == "" {
		uid = userID(r)
	}
	if uid == "" {
		apierrors.ValidationError(w, "не задан user_id")
		return
	}

	result, err := h.svc.BatchDelete(r.Context(), req.FileIDs, uid)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
