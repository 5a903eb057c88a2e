// upload.go — direct-загрузка: содержимое проходит через модуль.
// Последовательность: классификация → хэширование → дедупликация →
// запись в хранилище → запись метаданных → событие.
package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bigkaa/teamchat/file-module/internal/domain/filetype"
	"github.com/bigkaa/teamchat/file-module/internal/domain/model"
	"github.com/bigkaa/teamchat/file-module/internal/repository"
	"github.com/bigkaa/teamchat/file-module/internal/storage/objectstore"
)

// UploadInput — параметры direct-загрузки.
type UploadInput struct {
	// Content — содержимое файла.
	Content io.Reader
	// Filename — оригинальное имя файла.
	Filename string
	// ContentType — заявленный MIME-тип; при пустом значении
	// определяется по расширению имени.
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

// UploadResult — результат загрузки.
type UploadResult struct {
	// File — созданная или найденная по checksum запись.
	File *model.File
	// Duplicate — true, если вернулась существующая запись.
	Duplicate bool
}

// validateUploadRequest классифицирует файл и проверяет лимит размера.
// Выполняется до любого IO.
func validateUploadRequest(filename, contentType string, size int64) (model.FileCategory, string, *Error) {
	if filename == "" {
		return "", "", errValidation("не задано имя файла")
	}
	if size <= 0 {
		return "", "", errValidation("размер файла должен быть положительным")
	}

	if contentType == "" {
		contentType = filetype.DetectContentType(filename)
	}

	category, err := filetype.Classify(contentType)
	if err != nil {
		rejectedTotal.WithLabelValues("type").Inc()
		return "", "", errTypeNotAllowed("тип файла не разрешён: " + contentType)
	}
	if err := filetype.CheckSize(category, size); err != nil {
		rejectedTotal.WithLabelValues("size").Inc()
		return "", "", errFileTooLarge(err.Error())
	}
	return category, contentType, nil
}

// Upload выполняет direct-загрузку файла.
//
// Дедупликация: если в workspace уже есть активный файл с тем же
// checksum, возвращается существующая запись с Duplicate=true, запись
// в хранилище не выполняется. Гонка двух конкурентных загрузок
// закрывается уникальным индексом: проигравший Insert получает
// ErrDuplicateChecksum, убирает свой объект из хранилища и также
// возвращает существующую запись.
func (s *FileService) Upload(ctx context.Context, in UploadInput) (*UploadResult, error) {
	category, contentType, verr := validateUploadRequest(in.Filename, in.ContentType, in.Size)
	if verr != nil {
		return nil, verr
	}
	if in.WorkspaceID == "" || in.UserID == "" {
		return nil, errValidation("workspace_id и user_id обязательны")
	}

	// Содержимое читается целиком: SHA-256 нужен до записи в хранилище,
	// лимиты категорий удерживают объём в разумных пределах.
	content, err := io.ReadAll(io.LimitReader(in.Content, in.Size+1))
	if err != nil {
		return nil, errInternal("ошибка чтения содержимого файла")
	}
	if int64(len(content)) != in.Size {
		return nil, errValidation("фактический размер не совпадает с заявленным")
	}

	sum := sha256.Sum256(content)
	checksum := hex.EncodeToString(sum[:])

	// Дедупликация до записи в хранилище
	if existing, err := s.repo.GetByChecksum(ctx, in.WorkspaceID, checksum); err == nil {
		duplicatesTotal.Inc()
		s.logger.Info("Дубликат по checksum, хранилище не тронуто",
			slog.String("workspace_id", in.WorkspaceID),
			slog.String("file_id", existing.FileID))
		return &UploadResult{File: existing, Duplicate: true}, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, errInternal("ошибка проверки дубликата")
	}

	fileID := uuid.NewString()
	name := fileID + normalizeExt(in.Filename)
	key := objectstore.BuildKey(in.WorkspaceID, in.UserID, name)

	if err := s.store.Put(ctx, key, bytes.NewReader(content), in.Size, contentType); err != nil {
		s.logger.Error("Ошибка записи в объектное хранилище",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return nil, errStorage("ошибка записи файла в хранилище")
	}

	now := time.Now().UTC()
	file := &model.File{
		FileID:       fileID,
		Name:         name,
		OriginalName: in.Filename,
		ContentType:  contentType,
		Category:     category,
		Size:         in.Size,
		StorageKey:   key,
		URL:          s.store.ObjectURL(key),
		Checksum:     checksum,
		WorkspaceID:  in.WorkspaceID,
		ChannelID:    in.ChannelID,
		MessageID:    in.MessageID,
		UploadedBy:   in.UserID,
		SharedWith:   []string{},
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Insert(ctx, file); err != nil {
		if errors.Is(err, repository.ErrDuplicateChecksum) {
			// Проиграли гонку конкурентной загрузке: убираем свой объект
			// и возвращаем победившую запись.
			s.cleanupObject(ctx, key)
			existing, gerr := s.repo.GetByChecksum(ctx, in.WorkspaceID, checksum)
			if gerr != nil {
				return nil, errInternal("ошибка чтения записи-дубликата")
			}
			duplicatesTotal.Inc()
			return &UploadResult{File: existing, Duplicate: true}, nil
		}
		s.cleanupObject(ctx, key)
		return nil, errInternal("ошибка записи метаданных файла")
	}

	s.cache.Set(ctx, file)
	uploadsTotal.WithLabelValues(string(category), "direct").Inc()
	uploadBytesTotal.WithLabelValues(string(category)).Add(float64(in.Size))

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

	s.logger.Info("Файл загружен",
		slog.String("file_id", file.FileID),
		slog.String("workspace_id", file.WorkspaceID),
		slog.String("category", string(category)),
		slog.Int64("size", file.Size))

	return &UploadResult{File: file}, nil
}

// cleanupObject удаляет объект из хранилища best-effort: метаданных
// на него нет, оставшийся объект — мусор, а не нарушение инварианта.
func (s *FileService) cleanupObject(ctx context.Context, key string) {
	if err := s.store.Delete(ctx, key); err != nil {
		s.logger.Warn("Не удалось убрать осиротевший объект",
			slog.String("key", key),
			slog.String("error", err.Error()))
	}
}

// normalizeExt возвращает расширение файла в нижнем регистре
// (включая точку) или пустую строку.
func normalizeExt(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}
