// Пакет objectstore — хранилище содержимого файлов.
// Два backend: S3-совместимое хранилище (AWS S3, MinIO) и локальная
// файловая система. Backend выбирается один раз при старте, метаданные
// записей не несут информации о backend.
package objectstore

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrPresignUnavailable — backend не поддерживает presigned URL.
// Local backend возвращает эту ошибку для presign-операций.
var ErrPresignUnavailable = errors.New("presigned URL недоступны для этого storage backend")

// BuildKey формирует ключ объекта: files/{workspaceID}/{uploadedBy}/{name}.
// name — {fileID}{ext}. Структура ключа фиксирована, чтобы объект можно
// было найти без обращения к метаданным.
func BuildKey(workspaceID, uploadedBy, name string) string {
	return "files/" + workspaceID + "/" + uploadedBy + "/" + name
}

// Backend — интерфейс хранилища содержимого файлов.
type Backend interface {
	// Put записывает объект целиком. size — точный размер содержимого.
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error

	// Delete удаляет объект. Отсутствие объекта не считается ошибкой.
	Delete(ctx context.Context, key string) error

	// PresignPut возвращает подписанный URL для прямой загрузки объекта
	// клиентом. ErrPresignUnavailable — если backend не умеет presign.
	PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (string, error)

	// PresignGet возвращает подписанный URL скачивания с TTL.
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)

	// ObjectURL возвращает стабильный URL объекта для записи в метаданные.
	ObjectURL(key string) string

	// Kind возвращает тип backend (s3, local) для логов и health.
	Kind() string
}
