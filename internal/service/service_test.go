package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/bigkaa/teamchat/file-module/internal/config"
	"github.com/bigkaa/teamchat/file-module/internal/domain/model"
	"github.com/bigkaa/teamchat/file-module/internal/repository"
	"github.com/bigkaa/teamchat/file-module/internal/storage/objectstore"
	"github.com/bigkaa/teamchat/file-module/internal/storage/sessionstore"
)

// --- Фейки зависимостей сервиса ---

// fakeRepo — in-memory реализация FileRepository.
type fakeRepo struct {
	mu    sync.Mutex
	files map[string]*model.File // file_id → запись

	insertErr error
	failReady bool
	// insertHook вызывается в начале Insert (эмуляция конкурентной записи)
	insertHook func(r *fakeRepo)
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{files: map[string]*model.File{}}
}

func (r *fakeRepo) Insert(ctx context.Context, file *model.File) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertHook != nil {
		hook := r.insertHook
		r.insertHook = nil
		hook(r)
	}
	if r.insertErr != nil {
		return r.insertErr
	}
	// Эмуляция частичного уникального индекса
	if file.Checksum != "" {
		for _, f := range r.files {
			if f.DeletedAt == nil && f.WorkspaceID == file.WorkspaceID && f.Checksum == file.Checksum {
				return repository.ErrDuplicateChecksum
			}
		}
	}
	cp := *file
	r.files[file.FileID] = &cp
	return nil
}

func (r *fakeRepo) GetByID(ctx context.Context, fileID string) (*model.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.files[fileID]
	if !ok || f.DeletedAt != nil {
		return nil, repository.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (r *fakeRepo) GetByChecksum(ctx context.Context, workspaceID, checksum string) (*model.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.files {
		if f.DeletedAt == nil && f.WorkspaceID == workspaceID && f.Checksum == checksum {
			cp := *f
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeRepo) List(ctx context.Context, params repository.ListParams) ([]*model.File, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.File
	for _, f := range r.files {
		if f.DeletedAt != nil {
			continue
		}
		match := false
		switch params.Scope {
		case repository.ScopeUser:
			match = f.UploadedBy == params.ScopeID
		case repository.ScopeWorkspace:
			match = f.WorkspaceID == params.ScopeID
		case repository.ScopeChannel:
			match = f.ChannelID != nil && *f.ChannelID == params.ScopeID
		}
		if match && (params.Category == "" || f.Category == params.Category) {
			cp := *f
			out = append(out, &cp)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeRepo) GetByIDs(ctx context.Context, fileIDs []string) ([]*model.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.File
	for _, id := range fileIDs {
		if f, ok := r.files[id]; ok && f.DeletedAt == nil {
			cp := *f
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeRepo) SoftDelete(ctx context.Context, fileID string) (*model.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.files[fileID]
	if !ok || f.DeletedAt != nil {
		return nil, repository.ErrNotFound
	}
	now := time.Now().UTC()
	f.DeletedAt = &now
	f.Active = false
	cp := *f
	return &cp, nil
}

func (r *fakeRepo) UpdateFields(ctx context.Context, fileID string, fields map[string]any) (*model.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.files[fileID]
	if !ok || f.DeletedAt != nil {
		return nil, repository.ErrNotFound
	}
	if v, ok := fields["original_name"]; ok {
		f.OriginalName = v.(string)
	}
	if v, ok := fields["is_public"]; ok {
		f.IsPublic = v.(bool)
	}
	if v, ok := fields["channel_id"]; ok {
		s := v.(string)
		f.ChannelID = &s
	}
	if v, ok := fields["message_id"]; ok {
		s := v.(string)
		f.MessageID = &s
	}
	if v, ok := fields["metadata"]; ok {
		f.Metadata = v.(model.TypeMetadata)
	}
	cp := *f
	return &cp, nil
}

func (r *fakeRepo) AddShared(ctx context.Context, fileID string, userIDs []string) (*model.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.files[fileID]
	if !ok || f.DeletedAt != nil {
		return nil, repository.ErrNotFound
	}
	for _, userID := range userIDs {
		known := false
		for _, u := range f.SharedWith {
			if u == userID {
				known = true
				break
			}
		}
		if !known {
			f.SharedWith = append(f.SharedWith, userID)
		}
	}
	cp := *f
	return &cp, nil
}

func (r *fakeRepo) RemoveShared(ctx context.Context, fileID, userID string) (*model.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.files[fileID]
	if !ok || f.DeletedAt != nil {
		return nil, repository.ErrNotFound
	}
	out := f.SharedWith[:0]
	for _, u := range f.SharedWith {
		if u != userID {
			out = append(out, u)
		}
	}
	f.SharedWith = out
	cp := *f
	return &cp, nil
}

func (r *fakeRepo) IncrementDownloads(ctx context.Context, fileID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.files[fileID]
	if !ok || f.DeletedAt != nil {
		return repository.ErrNotFound
	}
	f.Downloads++
	return nil
}

func (r *fakeRepo) GlobalStats(ctx context.Context) (*model.StorageStats, error) {
	return r.statsBy(func(f *model.File) bool { return true })
}

func (r *fakeRepo) WorkspaceStats(ctx context.Context, workspaceID string) (*model.StorageStats, error) {
	return r.statsBy(func(f *model.File) bool { return f.WorkspaceID == workspaceID })
}

func (r *fakeRepo) UserStats(ctx context.Context, userID string) (*model.StorageStats, error) {
	return r.statsBy(func(f *model.File) bool { return f.UploadedBy == userID })
}

func (r *fakeRepo) statsBy(match func(*model.File) bool) (*model.StorageStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &model.StorageStats{ByCategory: map[model.FileCategory]int64{}}
	for _, f := range r.files {
		if f.DeletedAt == nil && match(f) {
			stats.TotalFiles++
			stats.TotalSize += f.Size
			stats.ByCategory[f.Category]++
		}
	}
	return stats, nil
}

func (r *fakeRepo) CheckReady(ctx context.Context) error {
	if r.failReady {
		return repository.ErrNotFound
	}
	return nil
}

// fakeStore — in-memory Backend со счётчиками вызовов.
type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte

	puts       int
	deletes    int
	noPresign  bool
	putErr     error
	presignErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}}
}

func (s *fakeStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts++
	if s.putErr != nil {
		return s.putErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.objects[key] = data
	return nil
}

func (s *fakeStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes++
	delete(s.objects, key)
	return nil
}

func (s *fakeStore) PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	if s.noPresign {
		return "", objectstore.ErrPresignUnavailable
	}
	if s.presignErr != nil {
		return "", s.presignErr
	}
	return "https://storage.test/upload/" + key, nil
}

func (s *fakeStore) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if s.noPresign {
		return "", objectstore.ErrPresignUnavailable
	}
	return "https://storage.test/download/" + key, nil
}

func (s *fakeStore) ObjectURL(key string) string {
	return "https://storage.test/" + key
}

func (s *fakeStore) Kind() string { return "fake" }

// fakeSessions — in-memory SessionStore с одноразовым Take.
type fakeSessions struct {
	mu       sync.Mutex
	sessions map[string]*model.PendingUpload
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{sessions: map[string]*model.PendingUpload{}}
}

func (s *fakeSessions) Put(ctx context.Context, pending *model.PendingUpload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *pending
	s.sessions[pending.FileID] = &cp
	return nil
}

func (s *fakeSessions) Take(ctx context.Context, fileID string) (*model.PendingUpload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.sessions[fileID]
	if !ok {
		return nil, sessionstore.ErrSessionNotFound
	}
	delete(s.sessions, fileID)
	return p, nil
}

// fakeCache — in-memory MetadataCache со счётчиками.
type fakeCache struct {
	mu      sync.Mutex
	entries map[string]*model.File

	gets, sets, deletes int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]*model.File{}}
}

func (c *fakeCache) Get(ctx context.Context, fileID string) (*model.File, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	f, ok := c.entries[fileID]
	if !ok {
		return nil, false
	}
	cp := *f
	return &cp, true
}

func (c *fakeCache) Set(ctx context.Context, file *model.File) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	cp := *file
	c.entries[file.FileID] = &cp
}

func (c *fakeCache) Delete(ctx context.Context, fileID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deletes++
	delete(c.entries, fileID)
}

// fakePublisher — собирает опубликованные события.
type fakePublisher struct {
	mu     sync.Mutex
	events []*model.FileEvent
}

func (p *fakePublisher) Publish(ctx context.Context, event *model.FileEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *fakePublisher) byType(eventType string) []*model.FileEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []*model.FileEvent
	for _, e := range p.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// testEnv — собранный сервис с фейками.
type testEnv struct {
	svc       *FileService
	repo      *fakeRepo
	store     *fakeStore
	sessions  *fakeSessions
	cache     *fakeCache
	publisher *fakePublisher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		repo:      newFakeRepo(),
		store:     newFakeStore(),
		sessions:  newFakeSessions(),
		cache:     newFakeCache(),
		publisher: &fakePublisher{},
	}
	cfg := &config.Config{
		UploadURLTTL:   15 * time.Minute,
		DownloadURLTTL: time.Hour,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	env.svc = NewFileService(env.repo, env.store, env.sessions, env.cache, env.publisher, cfg, logger)
	return env
}
