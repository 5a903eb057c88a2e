// Пакет filetype — классификация контента по MIME-типу и контроль
// лимитов размера по категориям. Чистые функции без side effects:
// все отказы — клиентские ошибки валидации, не server faults.
package filetype

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bigkaa/teamchat/file-module/internal/domain/model"
)

// Ошибки классификации. Проверяются через errors.Is.
var (
	// ErrTypeNotAllowed — MIME-тип отсутствует в allow-list.
	// Permissive default отсутствует намеренно: неизвестный тип отклоняется.
	ErrTypeNotAllowed = errors.New("тип файла не разрешён")
	// ErrFileTooLarge — заявленный размер превышает лимит категории.
	ErrFileTooLarge = errors.New("файл превышает лимит размера категории")
)

// allowedTypes — allow-list MIME-типов и их категорий.
var allowedTypes = map[string]model.FileCategory{
	// Изображения
	"image/jpeg":    model.CategoryImage,
	"image/png":     model.CategoryImage,
	"image/gif":     model.CategoryImage,
	"image/webp":    model.CategoryImage,
	"image/svg+xml": model.CategoryImage,
	// Видео
	"video/mp4":       model.CategoryVideo,
	"video/webm":      model.CategoryVideo,
	"video/quicktime": model.CategoryVideo,
	// Аудио
	"audio/mpeg": model.CategoryAudio,
	"audio/wav":  model.CategoryAudio,
	"audio/ogg":  model.CategoryAudio,
	"audio/webm": model.CategoryAudio,
	// Документы
	"application/pdf":    model.CategoryDocument,
	"application/msword": model.CategoryDocument,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   model.CategoryDocument,
	"application/vnd.ms-excel": model.CategoryDocument,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         model.CategoryDocument,
	"application/vnd.ms-powerpoint": model.CategoryDocument,
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": model.CategoryDocument,
	"text/plain":       model.CategoryDocument,
	"text/csv":         model.CategoryDocument,
	"application/json": model.CategoryDocument,
	// Архивы
	"application/zip":              model.CategoryArchive,
	"application/x-rar-compressed": model.CategoryArchive,
	"application/x-7z-compressed":  model.CategoryArchive,
}

// maxSizes — лимиты размера по категориям (в байтах).
var maxSizes = map[model.FileCategory]int64{
	model.CategoryImage:    10 * 1024 * 1024,
	model.CategoryVideo:    100 * 1024 * 1024,
	model.CategoryAudio:    50 * 1024 * 1024,
	model.CategoryDocument: 25 * 1024 * 1024,
	model.CategoryArchive:  50 * 1024 * 1024,
}

// extTypes — fallback-таблица расширение → MIME-тип.
// Используется, когда клиент не передал Content-Type.
var extTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".mov":  "video/quicktime",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".ppt":  "application/vnd.ms-powerpoint",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".txt":  "text/plain",
	".csv":  "text/csv",
	".json": "application/json",
	".zip":  "application/zip",
	".rar":  "application/x-rar-compressed",
	".7z":   "application/x-7z-compressed",
}

// Classify возвращает категорию для MIME-типа.
// Параметры после ';' (charset и т.д.) отбрасываются.
// Неизвестный тип — ErrTypeNotAllowed.
func Classify(contentType string) (model.FileCategory, error) {
	ct := normalize(contentType)
	category, ok := allowedTypes[ct]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrTypeNotAllowed, ct)
	}
	return category, nil
}

// CheckSize проверяет размер против лимита категории.
func CheckSize(category model.FileCategory, size int64) error {
	limit, ok := maxSizes[category]
	if !ok {
		return fmt.Errorf("%w: неизвестная категория %s", ErrTypeNotAllowed, category)
	}
	if size > limit {
		return fmt.Errorf("%w: %d байт при лимите %d МБ",
			ErrFileTooLarge, size, limit/(1024*1024))
	}
	return nil
}

// MaxSize возвращает лимит размера категории в байтах.
// Для неизвестной категории возвращает 0.
func MaxSize(category model.FileCategory) int64 {
	return maxSizes[category]
}

// DetectContentType определяет MIME-тип по расширению имени файла.
// Для неизвестного расширения возвращает application/octet-stream
// (который не входит в allow-list и будет отклонён классификатором).
func DetectContentType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ct, ok := extTypes[ext]; ok {
		return ct
	}
	return "application/octet-stream"
}

// normalize отбрасывает параметры MIME-типа и приводит к нижнему регистру.
func normalize(contentType string) string {
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = contentType[:idx]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}
