// stats.go — статистика по файлам. Агрегаты считаются по требованию
// из Metadata Store и не кэшируются.
package service

import (
	"context"

	"github.com/bigkaa/teamchat/file-module/internal/domain/model"
)

// GlobalStats возвращает агрегат по всем активным файлам инсталляции.
func (s *FileService) GlobalStats(ctx context.Context) (*model.StorageStats, error) {
	stats, err := s.repo.GlobalStats(ctx)
	if err != nil {
		return nil, errInternal("ошибка подсчёта общей статистики")
	}
	return stats, nil
}

// WorkspaceStats возвращает агрегат по активным файлам workspace.
func (s *FileService) WorkspaceStats(ctx context.Context, workspaceID string) (*model.StorageStats, error) {
	if workspaceID == "" {
		return nil, errValidation("не задан workspace_id")
	}
	stats, err := s.repo.WorkspaceStats(ctx, workspaceID)
	if err != nil {
		return nil, errInternal("ошибка подсчёта статистики workspace")
	}
	return stats, nil
}

// UserStats возвращает агрегат по активным файлам пользователя.
func (s *FileService) UserStats(ctx context.Context, userID string) (*model.StorageStats, error) {
	if userID == "" {
		return nil, errValidation("не задан user_id")
	}
	stats, err := s.repo.UserStats(ctx, userID)
	if err != nil {
		return nil, errInternal("ошибка подсчёта статистики пользователя")
	}
	return stats, nil
}
