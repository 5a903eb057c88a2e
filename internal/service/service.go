// Пакет service — бизнес-логика File Module: оркестрация загрузок
// (direct и presigned), выдача и удаление файлов, доступ, листинги,
// batch-операции и статистика.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/bigkaa/teamchat/file-module/internal/config"
	"github.com/bigkaa/teamchat/file-module/internal/domain/model"
	"github.com/bigkaa/teamchat/file-module/internal/repository"
	"github.com/bigkaa/teamchat/file-module/internal/storage/objectstore"
)

// SessionStore — хранилище pending-сессий presigned-загрузок.
type SessionStore interface {
	// Put сохраняет сессию с TTL-backstop.
	Put(ctx context.Context, pending *model.PendingUpload) error
	// Take атомарно читает и удаляет сессию (одноразовое потребление).
	Take(ctx context.Context, fileID string) (*model.PendingUpload, error)
}

// FileService — сервис файловых операций.
type FileService struct {
	repo      repository.FileRepository
	store     objectstore.Backend
	sessions  SessionStore
	cache     MetadataCache
	publisher Publisher
	logger    *slog.Logger

	uploadURLTTL   time.Duration
	downloadURLTTL time.Duration
}

// Publisher — публикация событий жизненного цикла файлов.
// Дублирует events.Publisher, чтобы сервис не зависел от Kafka-пакета.
type Publisher interface {
	Publish(ctx context.Context, event *model.FileEvent)
}

// NewFileService создаёт сервис файловых операций.
func NewFileService(
	repo repository.FileRepository,
	store objectstore.Backend,
	sessions SessionStore,
	cache MetadataCache,
	publisher Publisher,
	cfg *config.Config,
	logger *slog.Logger,
) *FileService {
	return &FileService{
		repo:           repo,
		store:          store,
		sessions:       sessions,
		cache:          cache,
		publisher:      publisher,
		logger:         logger,
		uploadURLTTL:   cfg.UploadURLTTL,
		downloadURLTTL: cfg.DownloadURLTTL,
	}
}
