package service

import (
	"context"
	"strings"
	"testing"

	"github.com/bigkaa/teamchat/file-module/internal/domain/model"
	"github.com/bigkaa/teamchat/file-module/internal/repository"
)

// seedFile загружает файл через сервис и возвращает запись.
func seedFile(t *testing.T, env *testEnv, content, workspace, user string) *model.File {
	t.Helper()
	in := UploadInput{
		Content:     strings.NewReader(content),
		Filename:    "seed.txt",
		ContentType: "text/plain",
		Size:        int64(len(content)),
		WorkspaceID: workspace,
		UserID:      user,
	}
	res, err := env.svc.Upload(context.Background(), in)
	if err != nil {
		t.Fatalf("подготовка файла: %v", err)
	}
	return res.File
}

// TestGet_CacheAside проверяет работу кэша: загрузка пишет запись
// насквозь, после инвалидации промах идёт в Metadata Store и
// заполняет кэш заново.
func TestGet_CacheAside(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	f := seedFile(t, env, "данные", "ws-1", "user-1")

	// Загрузка записала файл в кэш насквозь
	if env.cache.sets != 1 {
		t.Errorf("записей в кэш после загрузки: %d, ожидалась 1", env.cache.sets)
	}

	got, err := env.svc.Get(ctx, f.FileID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.FileID != f.FileID {
		t.Errorf("file_id %q != %q", got.FileID, f.FileID)
	}
	// Чтение из кэша — записей не прибавилось
	if env.cache.sets != 1 {
		t.Errorf("записей в кэш после чтения: %d, ожидалась 1", env.cache.sets)
	}

	// После инвалидации промах репопулирует кэш из Metadata Store
	env.cache.Delete(ctx, f.FileID)
	if _, err := env.svc.Get(ctx, f.FileID); err != nil {
		t.Fatalf("Get после инвалидации: %v", err)
	}
	if env.cache.sets != 2 {
		t.Errorf("записей в кэш после промаха: %d, ожидалось 2", env.cache.sets)
	}
}

// TestGet_NotFound проверяет 404 для неизвестного файла.
func TestGet_NotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Get(context.Background(), "неизвестный-id")
	var serr *Error
	if !asServiceError(err, &serr) || serr.Code != "NOT_FOUND" {
		t.Fatalf("ожидалась NOT_FOUND, получено %v", err)
	}
}

// TestDownloadURL проверяет выдачу presigned URL скачивания и
// инкремент счётчика.
func TestDownloadURL(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	f := seedFile(t, env, "скачиваемое", "ws-1", "user-1")

	res, err := env.svc.DownloadURL(ctx, f.FileID)
	if err != nil {
		t.Fatalf("DownloadURL: %v", err)
	}
	if !strings.Contains(res.URL, f.StorageKey) {
		t.Errorf("URL %q не содержит storage key", res.URL)
	}
	if res.ExpiresAt.IsZero() {
		t.Error("не задан expires_at")
	}

	stored := env.repo.files[f.FileID]
	if stored.Downloads != 1 {
		t.Errorf("Downloads = %d, ожидался 1", stored.Downloads)
	}
}

// TestDownloadURL_PresignUnavailable проверяет 503 для backend
// без поддержки presign.
func TestDownloadURL_PresignUnavailable(t *testing.T) {
	env := newTestEnv(t)
	f := seedFile(t, env, "локальное", "ws-1", "user-1")
	env.store.noPresign = true

	_, err := env.svc.DownloadURL(context.Background(), f.FileID)
	var serr *Error
	if !asServiceError(err, &serr) || serr.Code != "PRESIGN_UNAVAILABLE" {
		t.Fatalf("ожидалась PRESIGN_UNAVAILABLE, получено %v", err)
	}
}

// TestUpdate проверяет изменение полей и инвалидацию кэша.
func TestUpdate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	f := seedFile(t, env, "изменяемое", "ws-1", "user-1")

	// Прогреваем кэш
	if _, err := env.svc.Get(ctx, f.FileID); err != nil {
		t.Fatalf("Get: %v", err)
	}

	isPublic := true
	width := 800
	name := "отчёт-2026.txt"
	updated, err := env.svc.Update(ctx, f.FileID, UpdateInput{
		Name:     &name,
		IsPublic: &isPublic,
		Metadata: &model.TypeMetadata{Width: &width},
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.OriginalName != name {
		t.Errorf("OriginalName = %q, ожидалось %q", updated.OriginalName, name)
	}
	if !updated.IsPublic {
		t.Error("IsPublic не обновился")
	}
	if updated.Metadata.Width == nil || *updated.Metadata.Width != 800 {
		t.Error("Metadata.Width не обновился")
	}
	if env.cache.deletes == 0 {
		t.Error("кэш должен быть инвалидирован после обновления")
	}
}

// TestUpdate_NoFields проверяет отклонение пустого обновления.
func TestUpdate_NoFields(t *testing.T) {
	env := newTestEnv(t)
	f := seedFile(t, env, "x", "ws-1", "user-1")

	_, err := env.svc.Update(context.Background(), f.FileID, UpdateInput{})
	var serr *Error
	if !asServiceError(err, &serr) || serr.Code != "VALIDATION_ERROR" {
		t.Fatalf("ожидалась VALIDATION_ERROR, получено %v", err)
	}
}

// TestDelete проверяет мягкое удаление: запись невидима, объект в
// хранилище сохраняется, событие опубликовано, повторное удаление — 404.
func TestDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	f := seedFile(t, env, "удаляемое", "ws-1", "user-1")

	if err := env.svc.Delete(ctx, f.FileID, "user-2"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	// Запись невидима для чтения
	if _, err := env.svc.Get(ctx, f.FileID); err == nil {
		t.Error("удалённый файл не должен читаться")
	}
	// Удаление мягкое: объект остаётся в хранилище, его забирает
	// внешний reaper по событиям
	if _, ok := env.store.objects[f.StorageKey]; !ok {
		t.Errorf("мягкое удаление не должно трогать объект %s в хранилище", f.StorageKey)
	}
	if env.store.deletes != 0 {
		t.Errorf("обращений к Delete хранилища: %d, ожидалось 0", env.store.deletes)
	}
	// Событие file.deleted от имени инициатора
	events := env.publisher.byType(model.EventFileDeleted)
	if len(events) != 1 {
		t.Fatalf("событий file.deleted: %d, ожидалось 1", len(events))
	}
	if events[0].UserID != "user-2" {
		t.Errorf("событие от user %q, ожидался user-2", events[0].UserID)
	}

	// Повторное удаление — 404
	err := env.svc.Delete(ctx, f.FileID, "user-2")
	var serr *Error
	if !asServiceError(err, &serr) || serr.Code != "NOT_FOUND" {
		t.Fatalf("повторное удаление: ожидалась NOT_FOUND, получено %v", err)
	}
}

// TestDelete_FreesChecksum проверяет, что после удаления checksum
// освобождается: то же содержимое можно загрузить заново.
func TestDelete_FreesChecksum(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	content := "переиспользуемое содержимое"
	f := seedFile(t, env, content, "ws-1", "user-1")

	if err := env.svc.Delete(ctx, f.FileID, "user-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	in := UploadInput{
		Content:     strings.NewReader(content),
		Filename:    "seed.txt",
		ContentType: "text/plain",
		Size:        int64(len(content)),
		WorkspaceID: "ws-1",
		UserID:      "user-1",
	}
	res, err := env.svc.Upload(ctx, in)
	if err != nil {
		t.Fatalf("повторная загрузка: %v", err)
	}
	if res.Duplicate {
		t.Error("после удаления повторная загрузка не должна быть дубликатом")
	}
}

// TestShareUnshare проверяет идемпотентные share-операции,
// включая выдачу доступа нескольким пользователям за один вызов.
func TestShareUnshare(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	f := seedFile(t, env, "общее", "ws-1", "user-1")

	shared, err := env.svc.Share(ctx, f.FileID, []string{"user-9"})
	if err != nil {
		t.Fatalf("Share: %v", err)
	}
	if len(shared.SharedWith) != 1 || shared.SharedWith[0] != "user-9" {
		t.Errorf("SharedWith = %v, ожидался [user-9]", shared.SharedWith)
	}

	// Несколько пользователей за один вызов; уже имеющий доступ
	// user-9 не дублируется
	shared, err = env.svc.Share(ctx, f.FileID, []string{"user-9", "user-10", "user-11"})
	if err != nil {
		t.Fatalf("Share списка: %v", err)
	}
	if len(shared.SharedWith) != 3 {
		t.Errorf("SharedWith = %v, ожидались 3 пользователя", shared.SharedWith)
	}

	// Повторный share — идемпотентен
	shared, err = env.svc.Share(ctx, f.FileID, []string{"user-9"})
	if err != nil {
		t.Fatalf("повторный Share: %v", err)
	}
	if len(shared.SharedWith) != 3 {
		t.Errorf("SharedWith = %v после повторного share", shared.SharedWith)
	}

	// Пустой список отклоняется
	_, err = env.svc.Share(ctx, f.FileID, nil)
	var serr *Error
	if !asServiceError(err, &serr) || serr.Code != "VALIDATION_ERROR" {
		t.Fatalf("ожидалась VALIDATION_ERROR, получено %v", err)
	}

	unshared, err := env.svc.Unshare(ctx, f.FileID, "user-9")
	if err != nil {
		t.Fatalf("Unshare: %v", err)
	}
	if len(unshared.SharedWith) != 2 {
		t.Errorf("SharedWith = %v, ожидались 2 пользователя", unshared.SharedWith)
	}

	// Unshare отсутствующего пользователя — идемпотентен
	if _, err := env.svc.Unshare(ctx, f.FileID, "user-9"); err != nil {
		t.Fatalf("повторный Unshare: %v", err)
	}
}

// TestList проверяет листинг по scope с фильтром по категории
// и нормализацию limit.
func TestList(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedFile(t, env, "первый", "ws-1", "user-1")
	seedFile(t, env, "второй", "ws-1", "user-2")
	seedFile(t, env, "чужой", "ws-2", "user-1")

	res, err := env.svc.List(ctx, repository.ListParams{
		Scope:   repository.ScopeWorkspace,
		ScopeID: "ws-1",
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if res.Total != 2 {
		t.Errorf("Total = %d, ожидалось 2", res.Total)
	}

	// Фильтр по категории
	res, err = env.svc.List(ctx, repository.ListParams{
		Scope:    repository.ScopeWorkspace,
		ScopeID:  "ws-1",
		Category: model.CategoryImage,
	})
	if err != nil {
		t.Fatalf("List с фильтром: %v", err)
	}
	if res.Total != 0 {
		t.Errorf("Total = %d для категории image, ожидалось 0", res.Total)
	}

	// Неизвестная категория — ошибка валидации
	_, err = env.svc.List(ctx, repository.ListParams{
		Scope:    repository.ScopeWorkspace,
		ScopeID:  "ws-1",
		Category: "executable",
	})
	var serr *Error
	if !asServiceError(err, &serr) || serr.Code != "VALIDATION_ERROR" {
		t.Fatalf("ожидалась VALIDATION_ERROR, получено %v", err)
	}
}

// TestBatchGet проверяет batch-чтение с молчаливым пропуском
// отсутствующих и лимитом размера.
func TestBatchGet(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	f1 := seedFile(t, env, "раз", "ws-1", "user-1")
	f2 := seedFile(t, env, "два", "ws-1", "user-1")

	files, err := env.svc.BatchGet(ctx, []string{f1.FileID, "нет-такого", f2.FileID})
	if err != nil {
		t.Fatalf("BatchGet: %v", err)
	}
	if len(files) != 2 {
		t.Errorf("файлов: %d, ожидалось 2", len(files))
	}

	// Превышение лимита
	big := make([]string, maxBatchSize+1)
	for i := range big {
		big[i] = "id"
	}
	_, err = env.svc.BatchGet(ctx, big)
	var serr *Error
	if !asServiceError(err, &serr) || serr.Code != "VALIDATION_ERROR" {
		t.Fatalf("ожидалась VALIDATION_ERROR, получено %v", err)
	}
}

// TestBatchDelete проверяет частичный успех batch-удаления
// и per-file события.
func TestBatchDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	f1 := seedFile(t, env, "раз", "ws-1", "user-1")
	f2 := seedFile(t, env, "два", "ws-1", "user-1")

	res, err := env.svc.BatchDelete(ctx, []string{f1.FileID, "нет-такого", f2.FileID}, "user-1")
	if err != nil {
		t.Fatalf("BatchDelete: %v", err)
	}
	if len(res.Deleted) != 2 {
		t.Errorf("Deleted = %v, ожидалось 2 файла", res.Deleted)
	}
	if len(res.Failed) != 1 || res.Failed[0] != "нет-такого" {
		t.Errorf("Failed = %v, ожидался [нет-такого]", res.Failed)
	}
	if events := env.publisher.byType(model.EventFileDeleted); len(events) != 2 {
		t.Errorf("событий file.deleted: %d, ожидалось 2", len(events))
	}
	// Объекты удалённых файлов остаются в хранилище
	if env.store.deletes != 0 {
		t.Errorf("обращений к Delete хранилища: %d, ожидалось 0", env.store.deletes)
	}
}

// TestStats проверяет агрегаты workspace и пользователя.
func TestStats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedFile(t, env, "раз", "ws-1", "user-1")
	seedFile(t, env, "два-два", "ws-1", "user-2")
	deleted := seedFile(t, env, "три", "ws-1", "user-1")
	if err := env.svc.Delete(ctx, deleted.FileID, "user-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	ws, err := env.svc.WorkspaceStats(ctx, "ws-1")
	if err != nil {
		t.Fatalf("WorkspaceStats: %v", err)
	}
	if ws.TotalFiles != 2 {
		t.Errorf("TotalFiles = %d, ожидалось 2 (удалённые не считаются)", ws.TotalFiles)
	}
	if ws.TotalSize != int64(len("раз")+len("два-два")) {
		t.Errorf("TotalSize = %d", ws.TotalSize)
	}
	if ws.ByCategory[model.CategoryDocument] != 2 {
		t.Errorf("ByCategory[document] = %d, ожидалось 2", ws.ByCategory[model.CategoryDocument])
	}

	user, err := env.svc.UserStats(ctx, "user-1")
	if err != nil {
		t.Fatalf("UserStats: %v", err)
	}
	if user.TotalFiles != 1 {
		t.Errorf("TotalFiles пользователя = %d, ожидался 1", user.TotalFiles)
	}

	global, err := env.svc.GlobalStats(ctx)
	if err != nil {
		t.Fatalf("GlobalStats: %v", err)
	}
	if global.TotalFiles != 2 {
		t.Errorf("TotalFiles глобально = %d, ожидалось 2", global.TotalFiles)
	}
}
