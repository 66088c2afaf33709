package idempotency

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps records in process, for local runs and tests.
type MemoryStore struct {
	mu        sync.Mutex
	records   map[string]Record
	ttlWindow time.Duration
	nowFunc   func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore(ttlWindow time.Duration) *MemoryStore {
	return &MemoryStore{
		records:   map[string]Record{},
		ttlWindow: ttlWindow,
		nowFunc:   time.Now,
	}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) CreateIfNotExists(ctx context.Context, key, contextID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFunc()
	if rec, ok := s.records[key]; ok && !rec.Expired(now) && rec.Status != StatusFailed {
		return false, nil
	}
	s.records[key] = Record{
		IdempotencyKey: key,
		Status:         StatusInProgress,
		ContextID:      contextID,
		CreatedAt:      now,
		UpdatedAt:      now,
		ExpiresAt:      now.Add(s.ttlWindow).Unix(),
	}
	return true, nil
}

func (s *MemoryStore) Get(ctx context.Context, key string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if !ok {
		return nil, nil
	}
	if rec.Expired(s.nowFunc()) {
		delete(s.records, key)
		return nil, nil
	}
	return &rec, nil
}

func (s *MemoryStore) MarkDone(ctx context.Context, key, responseBody string, responseStatus int) error {
	return s.update(key, func(r *Record) {
		r.Status = StatusDone
		r.ResponseBody = responseBody
		r.ResponseStatus = responseStatus
	})
}

func (s *MemoryStore) MarkFailed(ctx context.Context, key, note string) error {
	return s.update(key, func(r *Record) {
		r.Status = StatusFailed
		r.Note = note
	})
}

func (s *MemoryStore) update(key string, fn func(*Record)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if !ok {
		return ErrNotFound
	}
	fn(&rec)
	rec.UpdatedAt = s.nowFunc()
	s.records[key] = rec
	return nil
}
