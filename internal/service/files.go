// files.go — чтение, изменение, удаление, доступ, листинги и
// batch-операции над файлами.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bigkaa/teamchat/file-module/internal/domain/model"
	"github.com/bigkaa/teamchat/file-module/internal/repository"
	"github.com/bigkaa/teamchat/file-module/internal/storage/objectstore"
)

// maxBatchSize — предел размера batch-операций.
const maxBatchSize = 100

// Get возвращает метаданные файла (cache-aside: Redis → MongoDB).
func (s *FileService) Get(ctx context.Context, fileID string) (*model.File, error) {
	if fileID == "" {
		return nil, errValidation("не задан file_id")
	}

	if file, ok := s.cache.Get(ctx, fileID); ok {
		return file, nil
	}

	file, err := s.repo.GetByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errNotFound("файл не найден")
		}
		return nil, errInternal("ошибка чтения метаданных файла")
	}

	s.cache.Set(ctx, file)
	return file, nil
}

// DownloadURLResult — выданный URL скачивания.
type DownloadURLResult struct {
	// URL — подписанный URL скачивания.
	URL string `json:"download_url"`
	// ExpiresAt — момент истечения URL.
	ExpiresAt time.Time `json:"expires_at"`
}

// DownloadURL выдаёт presigned URL скачивания и инкрементирует счётчик
// скачиваний. Счётчик best-effort: его сбой не отменяет выдачу URL.
func (s *FileService) DownloadURL(ctx context.Context, fileID string) (*DownloadURLResult, error) {
	file, err := s.Get(ctx, fileID)
	if err != nil {
		return nil, err
	}

	url, perr := s.store.PresignGet(ctx, file.StorageKey, s.downloadURLTTL)
	if perr != nil {
		if errors.Is(perr, objectstore.ErrPresignUnavailable) {
			return nil, errPresignUnavailable("storage backend не поддерживает presigned скачивание")
		}
		s.logger.Error("Ошибка выдачи URL скачивания",
			slog.String("file_id", fileID),
			slog.String("error", perr.Error()))
		return nil, errStorage("ошибка выдачи URL скачивания")
	}

	if err := s.repo.IncrementDownloads(ctx, fileID); err != nil {
		s.logger.Warn("Не удалось увеличить счётчик скачиваний",
			slog.String("file_id", fileID),
			slog.String("error", err.Error()))
	} else {
		// Кэш хранит устаревший счётчик до инвалидации
		s.cache.Delete(ctx, fileID)
	}

	return &DownloadURLResult{
		URL:       url,
		ExpiresAt: time.Now().UTC().Add(s.downloadURLTTL),
	}, nil
}

// UpdateInput — изменяемые поля файловой записи.
// Nil-поля не трогаются.
type UpdateInput struct {
	// Name — отображаемое имя файла (original_name).
	Name      *string
	IsPublic  *bool
	ChannelID *string
	MessageID *string
	Metadata  *model.TypeMetadata
}

// Update изменяет разрешённые поля записи и инвалидирует кэш.
func (s *FileService) Update(ctx context.Context, fileID string, in UpdateInput) (*model.File, error) {
	if fileID == "" {
		return nil, errValidation("не задан file_id")
	}

	fields := map[string]any{}
	if in.Name != nil {
		if *in.Name == "" {
			return nil, errValidation("имя файла не может быть пустым")
		}
		fields["original_name"] = *in.Name
	}
	if in.IsPublic != nil {
		fields["is_public"] = *in.IsPublic
	}
	if in.ChannelID != nil {
		fields["channel_id"] = *in.ChannelID
	}
	if in.MessageID != nil {
		fields["message_id"] = *in.MessageID
	}
	if in.Metadata != nil {
		fields["metadata"] = *in.Metadata
	}
	if len(fields) == 0 {
		return nil, errValidation("не задано ни одного изменяемого поля")
	}

	file, err := s.repo.UpdateFields(ctx, fileID, fields)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errNotFound("файл не найден")
		}
		return nil, errInternal("ошибка обновления метаданных файла")
	}

	s.cache.Delete(ctx, fileID)
	return file, nil
}

// Delete мягко удаляет файл: запись помечается deleted_at, кэш
// инвалидируется, публикуется событие file.deleted. Объект в хранилище
// не трогается: его жизненным циклом управляет внешний reaper по
// событиям. Повторное удаление возвращает NOT_FOUND.
func (s *FileService) Delete(ctx context.Context, fileID, userID string) error {
	if fileID == "" {
		return errValidation("не задан file_id")
	}

	file, err := s.repo.SoftDelete(ctx, fileID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errNotFound("файл не найден")
		}
		return errInternal("ошибка удаления файла")
	}

	s.cache.Delete(ctx, fileID)
	deletesTotal.Inc()

	s.publisher.Publish(ctx, &model.FileEvent{
		Type:        model.EventFileDeleted,
		FileID:      file.FileID,
		WorkspaceID: file.WorkspaceID,
		UserID:      userID,
		Data: map[string]any{
			"filename": file.OriginalName,
		},
	})

	s.logger.Info("Файл удалён",
		slog.String("file_id", fileID),
		slog.String("workspace_id", file.WorkspaceID),
		slog.String("user_id", userID))
	return nil
}

// Share выдаёт явный доступ к файлу списку пользователей
// (идемпотентно: уже имеющие доступ не дублируются).
func (s *FileService) Share(ctx context.Context, fileID string, userIDs []string) (*model.File, error) {
	if fileID == "" {
		return nil, errValidation("не задан file_id")
	}
	if len(userIDs) == 0 {
		return nil, errValidation("пустой список user_ids")
	}
	for _, id := range userIDs {
		if id == "" {
			return nil, errValidation("пустой user_id в списке user_ids")
		}
	}

	file, err := s.repo.AddShared(ctx, fileID, userIDs)
	if err != nil {
		return nil, s.shareError(err)
	}

	s.cache.Delete(ctx, fileID)
	return file, nil
}

// Unshare отзывает явный доступ пользователя (идемпотентно).
func (s *FileService) Unshare(ctx context.Context, fileID, userID string) (*model.File, error) {
	if fileID == "" || userID == "" {
		return nil, errValidation("file_id и user_id обязательны")
	}

	file, err := s.repo.RemoveShared(ctx, fileID, userID)
	if err != nil {
		return nil, s.shareError(err)
	}

	s.cache.Delete(ctx, fileID)
	return file, nil
}

func (s *FileService) shareError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return errNotFound("файл не найден")
	}
	return errInternal("ошибка изменения доступа к файлу")
}

// ListResult — страница листинга файлов.
type ListResult struct {
	Files []*model.File `json:"files"`
	Total int64         `json:"total"`
}

// List возвращает страницу активных файлов по scope.
// Limit нормализуется в диапазон 1..100 (по умолчанию 20).
func (s *FileService) List(ctx context.Context, params repository.ListParams) (*ListResult, error) {
	if params.ScopeID == "" {
		return nil, errValidation("не задан идентификатор scope")
	}
	if params.Category != "" && !validCategory(params.Category) {
		return nil, errValidation("неизвестная категория: " + string(params.Category))
	}
	if params.Limit <= 0 {
		params.Limit = 20
	}
	if params.Limit > maxBatchSize {
		params.Limit = maxBatchSize
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	files, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, errInternal("ошибка листинга файлов")
	}
	return &ListResult{Files: files, Total: total}, nil
}

// BatchGet возвращает активные файлы по списку идентификаторов.
// Отсутствующие файлы молча пропускаются.
func (s *FileService) BatchGet(ctx context.Context, fileIDs []string) ([]*model.File, error) {
	if len(fileIDs) == 0 {
		return nil, errValidation("пустой список file_ids")
	}
	if len(fileIDs) > maxBatchSize {
		return nil, errValidation("размер batch-запроса превышает 100")
	}

	files, err := s.repo.GetByIDs(ctx, fileIDs)
	if err != nil {
		return nil, errInternal("ошибка batch-чтения файлов")
	}
	return files, nil
}

// BatchDeleteResult — результат batch-удаления.
type BatchDeleteResult struct {
	// Deleted — успешно удалённые file_id.
	Deleted []string `json:"deleted"`
	// Failed — file_id, которые не удалось удалить (не найдены или ошибка).
	Failed []string `json:"failed"`
}

// BatchDelete мягко удаляет набор файлов. Операция не атомарна:
// каждый файл удаляется отдельно, события публикуются per-file.
func (s *FileService) BatchDelete(ctx context.Context, fileIDs []string, userID string) (*BatchDeleteResult, error) {
	if len(fileIDs) == 0 {
		return nil, errValidation("пустой список file_ids")
	}
	if len(fileIDs) > maxBatchSize {
		return nil, errValidation("размер batch-запроса превышает 100")
	}

	result := &BatchDeleteResult{
		Deleted: []string{},
		Failed:  []string{},
	}
	for _, fileID := range fileIDs {
		if err := s.Delete(ctx, fileID, userID); err != nil {
			result.Failed = append(result.Failed, fileID)
			continue
		}
		result.Deleted = append(result.Deleted, fileID)
	}
	return result, nil
}

// validCategory проверяет, что категория известна.
func validCategory(c model.FileCategory) bool {
	for _, known := range model.Categories {
		if c == known {
			return true
		}
	}
	return false
}
