// cache.go — read-through кэш метаданных файлов в Redis.
// Кэш никогда не фатален: любая ошибка Redis трактуется как промах,
// операция продолжается через Metadata Store.
package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bigkaa/teamchat/file-module/internal/domain/model"
)

// cacheKeyPrefix — префикс ключей кэша метаданных.
const cacheKeyPrefix = "file:"

// MetadataCache — интерфейс кэша метаданных файлов.
type MetadataCache interface {
	// Get возвращает файл из кэша; ok == false при промахе.
	Get(ctx context.Context, fileID string) (file *model.File, ok bool)
	// Set записывает файл в кэш с TTL.
	Set(ctx context.Context, file *model.File)
	// Delete инвалидирует запись кэша.
	Delete(ctx context.Context, fileID string)
}

// RedisCache — MetadataCache поверх Redis.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisCache создаёт кэш метаданных с заданным TTL.
func NewRedisCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, logger: logger}
}

func cacheKey(fileID string) string {
	return cacheKeyPrefix + fileID
}

// Get возвращает файл из кэша. Ошибки Redis и десериализации
// логируются и трактуются как промах.
func (c *RedisCache) Get(ctx context.Context, fileID string) (*model.File, bool) {
	data, err := c.client.Get(ctx, cacheKey(fileID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("Ошибка чтения кэша метаданных",
				slog.String("file_id", fileID),
				slog.String("error", err.Error()))
		}
		cacheMisses.Inc()
		return nil, false
	}

	var file model.File
	if err := json.Unmarshal(data, &file); err != nil {
		c.logger.Warn("Повреждённая запись кэша метаданных",
			slog.String("file_id", fileID),
			slog.String("error", err.Error()))
		c.Delete(ctx, fileID)
		cacheMisses.Inc()
		return nil, false
	}

	cacheHits.Inc()
	return &file, true
}

// Set записывает файл в кэш. Сбой записи не влияет на операцию.
func (c *RedisCache) Set(ctx context.Context, file *model.File) {
	data, err := json.Marshal(file)
	if err != nil {
		c.logger.Warn("Ошибка сериализации для кэша метаданных",
			slog.String("file_id", file.FileID),
			slog.String("error", err.Error()))
		return
	}
	if err := c.client.Set(ctx, cacheKey(file.FileID), data, c.ttl).Err(); err != nil {
		c.logger.Warn("Ошибка записи кэша метаданных",
			slog.String("file_id", file.FileID),
			slog.String("error", err.Error()))
	}
}

// Delete инвалидирует запись кэша. Сбой удаления логируется:
// запись досрочно истечёт по TTL.
func (c *RedisCache) Delete(ctx context.Context, fileID string) {
	if err := c.client.Del(ctx, cacheKey(fileID)).Err(); err != nil {
		c.logger.Warn("Ошибка инвалидации кэша метаданных",
			slog.String("file_id", fileID),
			slog.String("error", err.Error()))
	}
}
