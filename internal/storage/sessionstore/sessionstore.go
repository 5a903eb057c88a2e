// Пакет sessionstore — эфемерные pending-сессии presigned-загрузок в Redis.
// Сессия живёт с TTL-backstop и потребляется строго один раз (GETDEL):
// повторный completion по тому же file_id получает ErrSessionNotFound.
package sessionstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bigkaa/teamchat/file-module/internal/domain/model"
)

// ErrSessionNotFound — сессия не существует, истекла или уже потреблена.
var ErrSessionNotFound = errors.New("pending-сессия не найдена или истекла")

// pendingKeyPrefix — префикс ключей pending-сессий в Redis.
const pendingKeyPrefix = "pending_upload:"

// pendingKey формирует ключ сессии по file_id.
func pendingKey(fileID string) string {
	return pendingKeyPrefix + fileID
}

// Store — хранилище pending-сессий поверх Redis.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// New создаёт Store. ttl — backstop сессии: если клиент так и не вызвал
// completion, Redis удалит ключ сам.
func New(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// Put сохраняет pending-сессию с TTL.
func (s *Store) Put(ctx context.Context, pending *model.PendingUpload) error {
	if err := pending.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(pending)
	if err != nil {
		return fmt.Errorf("сериализация pending-сессии %s: %w", pending.FileID, err)
	}

	if err := s.client.Set(ctx, pendingKey(pending.FileID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("запись pending-сессии %s: %w", pending.FileID, err)
	}
	return nil
}

// Take атомарно читает и удаляет сессию (GETDEL). Одноразовость
// completion держится на атомарности этой операции: из двух
// конкурентных вызовов сессию получит ровно один.
func (s *Store) Take(ctx context.Context, fileID string) (*model.PendingUpload, error) {
	data, err := s.client.GetDel(ctx, pendingKey(fileID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("чтение pending-сессии %s: %w", fileID, err)
	}

	var pending model.PendingUpload
	if err := json.Unmarshal(data, &pending); err != nil {
		return nil, fmt.Errorf("десериализация pending-сессии %s: %w", fileID, err)
	}
	if err := pending.Validate(); err != nil {
		return nil, fmt.Errorf("pending-сессия %s: %w", fileID, err)
	}
	return &pending, nil
}
