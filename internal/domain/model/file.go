// Пакет model — доменные модели File Module.
// Файловая запись (единица истины в MongoDB), pending-сессия presigned
// загрузки и событие жизненного цикла файла для Kafka.
package model

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FileCategory — логическая категория файла.
type FileCategory string

// Категории файлов.
const (
	CategoryImage    FileCategory = "image"
	CategoryVideo    FileCategory = "video"
	CategoryAudio    FileCategory = "audio"
	CategoryDocument FileCategory = "document"
	CategoryArchive  FileCategory = "archive"
)

// Categories — все известные категории (для статистики и валидации фильтров).
var Categories = []FileCategory{
	CategoryImage, CategoryVideo, CategoryAudio, CategoryDocument, CategoryArchive,
}

// TypeMetadata — type-specific метаданные файла.
// Заполняются downstream-обработчиками (thumbnailing, media probe),
// File Module их не вычисляет.
type TypeMetadata struct {
	Width    *int     `json:"width,omitempty" bson:"width,omitempty"`
	Height   *int     `json:"height,omitempty" bson:"height,omitempty"`
	Duration *float64 `json:"duration,omitempty" bson:"duration,omitempty"`
	Pages    *int     `json:"pages,omitempty" bson:"pages,omitempty"`
}

// File — файловая запись, durable-единица истины.
//
// Инвариант дедупликации: в пределах workspace существует не более одной
// активной (active == true, deleted_at == nil) записи на один checksum.
// Обеспечивается частичным уникальным индексом в MongoDB.
type File struct {
	// ID — внутренний Mongo ObjectID, наружу не отдаётся.
	ID primitive.ObjectID `json:"-" bson:"_id,omitempty"`
	// FileID — публичный стабильный идентификатор файла (UUID).
	FileID string `json:"file_id" bson:"file_id"`
	// Name — имя объекта в хранилище ({file_id}{ext}).
	Name string `json:"name" bson:"name"`
	// OriginalName — оригинальное имя файла от клиента.
	OriginalName string `json:"original_name" bson:"original_name"`
	// ContentType — MIME-тип (заявленный или определённый по расширению).
	ContentType string `json:"content_type" bson:"content_type"`
	// Category — логическая категория (image, video, audio, document, archive).
	Category FileCategory `json:"category" bson:"category"`
	// Size — размер файла в байтах.
	Size int64 `json:"size" bson:"size"`
	// StorageKey — ключ объекта в object storage.
	StorageKey string `json:"storage_key" bson:"storage_key"`
	// URL — публичный или gateway-относительный URL объекта.
	URL string `json:"url" bson:"url"`
	// ThumbnailURL — заполняется downstream-обработчиком превью.
	ThumbnailURL *string `json:"thumbnail_url" bson:"thumbnail_url"`
	// Checksum — hex SHA-256 полного содержимого файла.
	Checksum string `json:"checksum" bson:"checksum"`
	// WorkspaceID — владеющий workspace (обязательный scope).
	WorkspaceID string `json:"workspace_id" bson:"workspace_id"`
	// ChannelID — канал, в котором загружен файл (опционально).
	ChannelID *string `json:"channel_id" bson:"channel_id"`
	// MessageID — сообщение-источник (опционально).
	MessageID *string `json:"message_id" bson:"message_id"`
	// UploadedBy — идентификатор загрузившего пользователя.
	UploadedBy string `json:"uploaded_by" bson:"uploaded_by"`
	// Metadata — type-specific метаданные (width/height/duration/pages).
	Metadata TypeMetadata `json:"metadata" bson:"metadata"`
	// IsPublic — флаг публичной видимости.
	IsPublic bool `json:"is_public" bson:"is_public"`
	// SharedWith — пользователи с явным share-доступом.
	SharedWith []string `json:"shared_with" bson:"shared_with"`
	// Downloads — счётчик скачиваний (монотонный, не exactly-once).
	Downloads int64 `json:"downloads" bson:"downloads"`
	// Active — зеркало deleted_at == nil для частичного уникального индекса.
	Active bool `json:"-" bson:"active"`
	// DeletedAt — timestamp мягкого удаления (nil = активен).
	DeletedAt *time.Time `json:"deleted_at" bson:"deleted_at"`
	// CreatedAt — время создания записи.
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	// UpdatedAt — время последнего изменения.
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// Ошибки валидации pending-сессии.
var (
	// ErrPendingIncomplete — в сессии не заполнены обязательные поля.
	ErrPendingIncomplete = errors.New("pending-сессия: не заполнены обязательные поля")
)

// PendingUpload — эфемерная сессия presigned-загрузки.
// Живёт только в session store (Redis) с TTL; в Metadata Store записи нет
// до вызова completion. Ключ — FileID, сгенерированный при presign.
type PendingUpload struct {
	// FileID — идентификатор будущего файла (UUID, выдан при presign).
	FileID string `json:"file_id"`
	// OriginalName — имя файла, заявленное клиентом.
	OriginalName string `json:"original_name"`
	// ContentType — заявленный MIME-тип.
	ContentType string `json:"content_type"`
	// Category — категория, определённая классификатором при presign.
	Category FileCategory `json:"category"`
	// Size — заявленный размер в байтах.
	Size int64 `json:"size"`
	// StorageKey — ключ объекта, выбранный при presign.
	StorageKey string `json:"storage_key"`
	// WorkspaceID — владеющий workspace.
	WorkspaceID string `json:"workspace_id"`
	// ChannelID — канал (опционально).
	ChannelID *string `json:"channel_id,omitempty"`
	// MessageID — сообщение-источник (опционально).
	MessageID *string `json:"message_id,omitempty"`
	// UploadedBy — идентификатор загружающего пользователя.
	UploadedBy string `json:"uploaded_by"`
	// CreatedAt — время выдачи presigned URL.
	CreatedAt time.Time `json:"created_at"`
}

// Validate проверяет, что все обязательные поля сессии заполнены.
// Вызывается при конструировании и после чтения из session store.
func (p *PendingUpload) Validate() error {
	if p.FileID == "" || p.OriginalName == "" || p.ContentType == "" ||
		p.Category == "" || p.Size <= 0 || p.StorageKey == "" ||
		p.WorkspaceID == "" || p.UploadedBy == "" {
		return ErrPendingIncomplete
	}
	return nil
}

// Типы событий жизненного цикла файла.
const (
	// EventFileUploaded — файл создан (direct или presigned completion).
	EventFileUploaded = "file.uploaded"
	// EventFileDeleted — файл мягко удалён.
	EventFileDeleted = "file.deleted"
)

// FileEvent — неизменяемый факт о переходе жизненного цикла файла.
// Публикуется в Kafka at-least-once; после публикации принадлежит брокеру.
type FileEvent struct {
	// Type — тип события (file.uploaded, file.deleted).
	Type string `json:"type"`
	// FileID — идентификатор файла.
	FileID string `json:"file_id"`
	// WorkspaceID — workspace scope.
	WorkspaceID string `json:"workspace_id"`
	// UserID — действующий пользователь.
	UserID string `json:"user_id"`
	// Data — свободный payload (filename, size, mime_type и т.д.).
	Data map[string]any `json:"data,omitempty"`
	// Timestamp — время эмиссии.
	Timestamp time.Time `json:"timestamp"`
}

// StorageStats — агрегат по файлам: количество и суммарный размер.
// Считается по требованию из Metadata Store, не кэшируется.
type StorageStats struct {
	// TotalFiles — количество активных файлов.
	TotalFiles int64 `json:"total_files"`
	// TotalSize — суммарный размер активных файлов в байтах.
	TotalSize int64 `json:"total_size"`
	// ByCategory — количество активных файлов по категориям.
	ByCategory map[FileCategory]int64 `json:"files_by_category,omitempty"`
}
