// stats.go — статистика по файлам.
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/teamchat/file-module/internal/domain/model"
)

// Stats обрабатывает GET /api/v1/files/stats.
// С query-параметром workspace_id — агрегат workspace, без него —
// агрегат всей инсталляции.
func (h *FileHandler) Stats(w http.ResponseWriter, r *http.Request) {
	var (
		stats *model.StorageStats
		err   error
	)
	if workspaceID := r.URL.Query().Get("workspace_id"); workspaceID != "" {
		stats, err = h.svc.WorkspaceStats(r.Context(), workspaceID)
	} else {
		stats, err = h.svc.GlobalStats(r.Context())
	}
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// UserStats обрабатывает GET /api/v1/files/user/{userId}/stats.
func (h *FileHandler) UserStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.UserStats(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
