// presign.go — двухфазная presigned-загрузка: выдача подписанного URL
// с pending-сессией и последующий completion.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bigkaa/teamchat/file-module/internal/domain/model"
	"github.com/bigkaa/teamchat/file-module/internal/repository"
	"github.com/bigkaa/teamchat/file-module/internal/storage/objectstore"
	"github.com/bigkaa/teamchat/file-module/internal/storage/sessionstore"
)

// PresignInput — параметры запроса presigned-загрузки.
type PresignInput struct {
	// Filename — имя файла, заявленное клиентом.
	Filename string
	// ContentType — заявленный MIME-тип.
	ContentType string
	// Size — заявленный размер в байтах.
	Size int64
	// WorkspaceID — владеющий workspace.
	WorkspaceID string
	// ChannelID, MessageID — контекст загрузки (опционально).
	ChannelID *string
	MessageID *string
	// UserID — загружающий пользователь.
	UserID string
}

// PresignResult — выданный presigned URL загрузки.
type PresignResult struct {
	// FileID — идентификатор будущего файла, ключ completion.
	FileID string `json:"file_id"`
	// UploadURL — подписанный URL для PUT содержимого.
	UploadURL string `json:"upload_url"`
	// StorageKey — ключ объекта в хранилище.
	StorageKey string `json:"storage_key"`
	// ExpiresAt — момент истечения URL.
	ExpiresAt time.Time `json:"expires_at"`
}

// CreatePresignedUpload валидирует заявку, выдаёт presigned PUT URL
// и регистрирует pending-сессию. Записи в Metadata Store на этом этапе
// нет: до completion файл невидим для чтения.
func (s *FileService) CreatePresignedUpload(ctx context.Context, in PresignInput) (*PresignResult, error) {
	category, contentType, verr := validateUploadRequest(in.Filename, in.ContentType, in.Size)
	if verr != nil {
		return nil, verr
	}
	if in.WorkspaceID == "" || in.UserID == "" {
		return nil, errValidation("workspace_id и user_id обязательны")
	}

	fileID := uuid.NewString()
	name := fileID + normalizeExt(in.Filename)
	key := objectstore.BuildKey(in.WorkspaceID, in.UserID, name)

	uploadURL, err := s.store.PresignPut(ctx, key, contentType, s.uploadURLTTL)
	if err != nil {
		if errors.Is(err, objectstore.ErrPresignUnavailable) {
			return nil, errPresignUnavailable("storage backend не поддерживает presigned загрузку")
		}
		s.logger.Error("Ошибка выдачи presigned URL",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return nil, errStorage("ошибка выдачи presigned URL")
	}

	pending := &model.PendingUpload{
		FileID:       fileID,
		OriginalName: in.Filename,
		ContentType:  contentType,
		Category:     category,
		Size:         in.Size,
		StorageKey:   key,
		WorkspaceID:  in.WorkspaceID,
		ChannelID:    in.ChannelID,
		MessageID:    in.MessageID,
		UploadedBy:   in.UserID,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.sessions.Put(ctx, pending); err != nil {
		return nil, errInternal("ошибка регистрации сессии загрузки")
	}

	s.logger.Info("Presigned загрузка зарегистрирована",
		slog.String("file_id", fileID),
		slog.String("workspace_id", in.WorkspaceID),
		slog.String("category", string(category)))

	return &PresignResult{
		FileID:     fileID,
		UploadURL:  uploadURL,
		StorageKey: key,
		ExpiresAt:  time.Now().UTC().Add(s.uploadURLTTL),
	}, nil
}

// CompletePresignedUpload материализует pending-сессию в файловую запись.
//
// Сессия потребляется атомарно (одноразово): повторный completion и
// completion после истечения TTL получают UPLOAD_SESSION_EXPIRED.
// checksum — опциональный hex SHA-256, вычисленный клиентом; модуль
// содержимое не перечитывает. Пустой checksum не участвует в
// дедупликации (частичный индекс исключает пустые значения).
func (s *FileService) CompletePresignedUpload(ctx context.Context, fileID, checksum string) (*UploadResult, error) {
	if fileID == "" {
		return nil, errValidation("не задан file_id")
	}

	pending, err := s.sessions.Take(ctx, fileID)
	if err != nil {
		if errors.Is(err, sessionstore.ErrSessionNotFound) {
			return nil, errSessionExpired("сессия загрузки не найдена, истекла или уже завершена")
		}
		return nil, errInternal("ошибка чтения сессии загрузки")
	}

	now := time.Now().UTC()
	file := &model.File{
		FileID:       pending.FileID,
		Name:         pending.FileID + normalizeExt(pending.OriginalName),
		OriginalName: pending.OriginalName,
		ContentType:  pending.ContentType,
		Category:     pending.Category,
		Size:         pending.Size,
		StorageKey:   pending.StorageKey,
		URL:          s.store.ObjectURL(pending.StorageKey),
		Checksum:     checksum,
		WorkspaceID:  pending.WorkspaceID,
		ChannelID:    pending.ChannelID,
		MessageID:    pending.MessageID,
		UploadedBy:   pending.UploadedBy,
		SharedWith:   []string{},
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Insert(ctx, file); err != nil {
		if errors.Is(err, repository.ErrDuplicateChecksum) {
			// Пока клиент заливал объект, тот же checksum зафиксировала
			// другая загрузка. Убираем залитый объект, возвращаем победившую
			// запись как дубликат.
			s.cleanupObject(ctx, pending.StorageKey)
			existing, gerr := s.repo.GetByChecksum(ctx, pending.WorkspaceID, checksum)
			if gerr != nil {
				return nil, errInternal("ошибка чтения записи-дубликата")
			}
			duplicatesTotal.Inc()
			return &UploadResult{File: existing, Duplicate: true}, nil
		}
		return nil, errInternal("ошибка записи метаданных файла")
	}

	s.cache.Set(ctx, file)
	uploadsTotal.WithLabelValues(string(file.Category), "presigned").Inc()
	uploadBytesTotal.WithLabelValues(string(file.Category)).Add(float64(file.Size))

	s.publisher.Publish(ctx, &model.FileEvent{
		Type:        model.EventFileUploaded,
		FileID:      file.FileID,
		WorkspaceID: file.WorkspaceID,
		UserID:      file.UploadedBy,
		Data: map[string]any{
			"filename":  file.OriginalName,
			"size":      file.Size,
			"mime_type": file.ContentType,
			"category":  file.Category,
		},
	})

	s.logger.Info("Presigned загрузка завершена",
		slog.String("file_id", file.FileID),
		slog.String("workspace_id", file.WorkspaceID))

	return &UploadResult{File: file}, nil
}
