// local.go — backend поверх локальной файловой системы.
// Используется в dev-окружении и для инсталляций без S3.
// Запись атомарная: временный файл, fsync, rename.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrInvalidKey — ключ содержит недопустимые элементы пути.
var ErrInvalidKey = errors.New("недопустимый ключ объекта")

// LocalBackend — Backend поверх директории на диске.
// Ключи объектов отображаются в относительные пути под dataDir.
type LocalBackend struct {
	dataDir string
	logger  *slog.Logger
}

// NewLocalBackend создаёт local backend, при необходимости создавая dataDir.
func NewLocalBackend(dataDir string, logger *slog.Logger) (*LocalBackend, error) {
	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return nil, fmt.Errorf("создание директории данных %s: %w", dataDir, err)
	}
	logger.Info("Local backend инициализирован", slog.String("data_dir", dataDir))
	return &LocalBackend{dataDir: dataDir, logger: logger}, nil
}

// keyPath преобразует ключ объекта в абсолютный путь под dataDir.
// Отклоняет ключи, выводящие за пределы dataDir.
func (b *LocalBackend) keyPath(key string) (string, error) {
	if key == "" || strings.Contains(key, "..") || strings.HasPrefix(key, "/") {
		return "", ErrInvalidKey
	}
	path := filepath.Join(b.dataDir, filepath.FromSlash(key))
	if !strings.HasPrefix(path, b.dataDir+string(filepath.Separator)) {
		return "", ErrInvalidKey
	}
	return path, nil
}

// Put записывает объект атомарно: временный файл в той же директории,
// fsync, затем rename на целевое имя.
func (b *LocalBackend) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	path, err := b.keyPath(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("создание директории объекта: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return fmt.Errorf("создание временного файла: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	written, err := io.Copy(tmp, body)
	if err != nil {
		tmp.Close()
		return fmt.Errorf("запись объекта %s: %w", key, err)
	}
	if size >= 0 && written != size {
		tmp.Close()
		return fmt.Errorf("запись объекта %s: записано %d байт, ожидалось %d", key, written, size)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("fsync объекта %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("закрытие временного файла: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename объекта %s: %w", key, err)
	}
	return nil
}

// Delete удаляет объект. Отсутствие файла не считается ошибкой.
func (b *LocalBackend) Delete(ctx context.Context, key string) error {
	path, err := b.keyPath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("удаление объекта %s: %w", key, err)
	}
	return nil
}

// Open открывает объект на чтение. Используется HTTP-обработчиком
// отдачи содержимого при local backend.
func (b *LocalBackend) Open(key string) (io.ReadCloser, error) {
	path, err := b.keyPath(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fs.ErrNotExist
		}
		return nil, fmt.Errorf("открытие объекта %s: %w", key, err)
	}
	return f, nil
}

// PresignPut не поддерживается local backend.
func (b *LocalBackend) PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	return "", ErrPresignUnavailable
}

// PresignGet не поддерживается local backend.
func (b *LocalBackend) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "", ErrPresignUnavailable
}

// ObjectURL возвращает gateway-относительный URL: объект отдаётся
// через сам модуль, а не напрямую из хранилища.
func (b *LocalBackend) ObjectURL(key string) string {
	return "/api/v1/files/content/" + key
}

// Kind возвращает тип backend.
func (b *LocalBackend) Kind() string {
	return "local"
}
