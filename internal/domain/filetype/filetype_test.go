package filetype

import (
	"errors"
	"testing"

	"github.com/bigkaa/teamchat/file-module/internal/domain/model"
)

// TestClassify_KnownTypes проверяет классификацию разрешённых MIME-типов.
func TestClassify_KnownTypes(t *testing.T) {
	tests := []struct {
		contentType string
		want        model.FileCategory
	}{
		{"image/jpeg", model.CategoryImage},
		{"image/png", model.CategoryImage},
		{"video/mp4", model.CategoryVideo},
		{"audio/mpeg", model.CategoryAudio},
		{"application/pdf", model.CategoryDocument},
		{"text/plain", model.CategoryDocument},
		{"application/zip", model.CategoryArchive},
		// Параметры MIME отбрасываются
		{"text/plain; charset=utf-8", model.CategoryDocument},
		// Регистр нормализуется
		{"IMAGE/JPEG", model.CategoryImage},
	}

	for _, tt := range tests {
		got, err := Classify(tt.contentType)
		if err != nil {
			t.Errorf("Classify(%q): неожиданная ошибка %v", tt.contentType, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Classify(%q) = %s, ожидалась %s", tt.contentType, got, tt.want)
		}
	}
}

// TestClassify_Rejected проверяет, что неизвестные типы отклоняются
// без permissive default.
func TestClassify_Rejected(t *testing.T) {
	rejected := []string{
		"application/octet-stream",
		"application/x-msdownload",
		"text/html",
		"",
	}

	for _, ct := range rejected {
		_, err := Classify(ct)
		if !errors.Is(err, ErrTypeNotAllowed) {
			t.Errorf("Classify(%q): ожидалась ErrTypeNotAllowed, получено %v", ct, err)
		}
	}
}

// TestCheckSize проверяет лимиты размера по категориям.
func TestCheckSize(t *testing.T) {
	tests := []struct {
		category model.FileCategory
		size     int64
		wantErr  bool
	}{
		{model.CategoryImage, 10 * 1024 * 1024, false},   // ровно на лимите
		{model.CategoryImage, 10*1024*1024 + 1, true},    // чуть выше
		{model.CategoryVideo, 100 * 1024 * 1024, false},  // 100 МБ видео
		{model.CategoryVideo, 200 * 1024 * 1024, true},   // превышение
		{model.CategoryDocument, 1024, false},            // маленький документ
		{model.CategoryArchive, 60 * 1024 * 1024, true},  // архив > 50 МБ
	}

	for _, tt := range tests {
		err := CheckSize(tt.category, tt.size)
		if tt.wantErr && !errors.Is(err, ErrFileTooLarge) {
			t.Errorf("CheckSize(%s, %d): ожидалась ErrFileTooLarge, получено %v",
				tt.category, tt.size, err)
		}
		if !tt.wantErr && err != nil {
			t.Errorf("CheckSize(%s, %d): неожиданная ошибка %v", tt.category, tt.size, err)
		}
	}
}

// TestDetectContentType проверяет fallback определения MIME по расширению.
func TestDetectContentType(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"photo.jpg", "image/jpeg"},
		{"PHOTO.JPG", "image/jpeg"},
		{"clip.mp4", "video/mp4"},
		{"report.pdf", "application/pdf"},
		{"archive.zip", "application/zip"},
		{"unknown.bin", "application/octet-stream"},
		{"noextension", "application/octet-stream"},
	}

	for _, tt := range tests {
		if got := DetectContentType(tt.filename); got != tt.want {
			t.Errorf("DetectContentType(%q) = %q, ожидался %q", tt.filename, got, tt.want)
		}
	}
}

// TestMaxSize проверяет, что все категории имеют ненулевой лимит.
func TestMaxSize(t *testing.T) {
	for _, c := range model.Categories {
		if MaxSize(c) <= 0 {
			t.Errorf("MaxSize(%s) = %d, ожидался положительный лимит", c, MaxSize(c))
		}
	}
	if MaxSize("unknown") != 0 {
		t.Errorf("MaxSize(unknown) = %d, ожидался 0", MaxSize("unknown"))
	}
}
