// Пакет repository — доступ к метаданным файлов в MongoDB.
// Единица истины: коллекция files. Дедупликация по checksum в пределах
// workspace обеспечивается частичным уникальным индексом.
package repository

import (
	"context"
	"errors"

	"github.com/bigkaa/teamchat/file-module/internal/domain/model"
)

// Ошибки репозитория.
var (
	// ErrNotFound — файл не найден или мягко удалён.
	ErrNotFound = errors.New("файл не найден")
	// ErrDuplicateChecksum — нарушение уникальности (workspace_id, checksum)
	// среди активных записей.
	ErrDuplicateChecksum = errors.New("активный файл с таким checksum уже существует в workspace")
)

// ListScope — измерение выборки файлов.
type ListScope string

// Варианты scope листинга.
const (
	ScopeUser      ListScope = "user"
	ScopeWorkspace ListScope = "workspace"
	ScopeChannel   ListScope = "channel"
)

// ListParams — параметры листинга файлов.
type ListParams struct {
	// Scope — измерение выборки (user, workspace, channel).
	Scope ListScope
	// ScopeID — идентификатор в выбранном измерении.
	ScopeID string
	// Category — фильтр по категории (пустая строка = без фильтра).
	Category model.FileCategory
	// Limit — размер страницы (1..100).
	Limit int64
	// Offset — смещение.
	Offset int64
}

// FileRepository — интерфейс хранилища метаданных файлов.
// Все операции видят только активные записи (deleted_at == nil),
// кроме явно оговорённых.
type FileRepository interface {
	// Insert вставляет новую файловую запись. При нарушении уникальности
	// (workspace_id, checksum) возвращает ErrDuplicateChecksum.
	Insert(ctx context.Context, file *model.File) error

	// GetByID возвращает активный файл по публичному file_id.
	GetByID(ctx context.Context, fileID string) (*model.File, error)

	// GetByChecksum возвращает активный файл с данным checksum в workspace.
	// Используется для дедупликации перед записью в хранилище.
	GetByChecksum(ctx context.Context, workspaceID, checksum string) (*model.File, error)

	// List возвращает страницу активных файлов по параметрам и общее
	// количество подходящих записей.
	List(ctx context.Context, params ListParams) ([]*model.File, int64, error)

	// GetByIDs возвращает активные файлы по списку file_id.
	// Отсутствующие идентификаторы молча пропускаются.
	GetByIDs(ctx context.Context, fileIDs []string) ([]*model.File, error)

	// SoftDelete помечает файл удалённым (deleted_at, active=false).
	// Возвращает удалённую запись для эмиссии события.
	SoftDelete(ctx context.Context, fileID string) (*model.File, error)

	// UpdateFields обновляет разрешённые поля записи и возвращает
	// обновлённый документ.
	UpdateFields(ctx context.Context, fileID string, fields map[string]any) (*model.File, error)

	// AddShared добавляет пользователей в shared_with (идемпотентно).
	AddShared(ctx context.Context, fileID string, userIDs []string) (*model.File, error)

	// RemoveShared убирает пользователя из shared_with (идемпотентно).
	RemoveShared(ctx context.Context, fileID, userID string) (*model.File, error)

	// IncrementDownloads атомарно увеличивает счётчик скачиваний.
	IncrementDownloads(ctx context.Context, fileID string) error

	// GlobalStats считает агрегат по всем активным файлам.
	GlobalStats(ctx context.Context) (*model.StorageStats, error)

	// WorkspaceStats считает агрегат по активным файлам workspace.
	WorkspaceStats(ctx context.Context, workspaceID string) (*model.StorageStats, error)

	// UserStats считает агрегат по активным файлам пользователя.
	UserStats(ctx context.Context, userID string) (*model.StorageStats, error)

	// CheckReady проверяет доступность хранилища (для readiness probe).
	CheckReady(ctx context.Context) error
}
