package store

import (
	"context"
	"sort"
	"sync"

	"github.com/scholarshare/scholarshare/pkg/errors"
)

// MemoryStore is the in-process backend for tests and offline CLI runs.
type MemoryStore struct {
	mu      sync.RWMutex
	papers  map[string]PaperRecord
	content map[string]ContentRecord
	publish map[string]PublishRecord
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		papers:  make(map[string]PaperRecord),
		content: make(map[string]ContentRecord),
		publish: make(map[string]PublishRecord),
	}
}

// SavePaper implements Store.
func (s *MemoryStore) SavePaper(_ context.Context, rec *PaperRecord) error {
	ensureID(&rec.ID)
	ensureTime(&rec.CreatedAt)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.papers[rec.ID] = *rec
	return nil
}

// GetPaper implements Store.
func (s *MemoryStore) GetPaper(_ context.Context, id string) (PaperRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.papers[id]
	if !ok {
		return PaperRecord{}, errors.New(errors.ErrCodeNotFound, "paper %s not found", id)
	}
	return rec, nil
}

// ListPapers implements Store.
func (s *MemoryStore) ListPapers(_ context.Context, limit int) ([]PaperRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]PaperRecord, 0, len(s.papers))
	for _, rec := range s.papers {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// SaveContent implements Store.
func (s *MemoryStore) SaveContent(_ context.Context, rec *ContentRecord) error {
	ensureID(&rec.ID)
	ensureTime(&rec.CreatedAt)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.content[rec.ID] = *rec
	return nil
}

// ListContent implements Store.
func (s *MemoryStore) ListContent(_ context.Context, paperID string) ([]ContentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []ContentRecord
	for _, rec := range s.content {
		if rec.PaperID == paperID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// LogPublish implements Store.
func (s *MemoryStore) LogPublish(_ context.Context, rec *PublishRecord) error {
	ensureID(&rec.ID)
	ensureTime(&rec.PublishedAt)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.publish[rec.ID] = *rec
	return nil
}

// ListPublishLog implements Store.
func (s *MemoryStore) ListPublishLog(_ context.Context, contentID string) ([]PublishRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []PublishRecord
	for _, rec := range s.publish {
		if rec.ContentID == contentID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PublishedAt.After(out[j].PublishedAt) })
	return out, nil
}

// Close implements Store.
func (s *MemoryStore) Close(context.Context) error { return nil }

var _ Store = (*MemoryStore)(nil)
