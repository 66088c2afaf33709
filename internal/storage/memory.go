package storage

import (
	"context"
	"sync"
)

// Memory is an in-process backend. Scopes opened from the same Memory share
// its maps, so a page rebuilt for a context sees what the previous one wrote.
type Memory struct {
	mu     sync.Mutex
	quota  int // bytes per scope, 0 = unlimited
	scopes map[string]map[string]string
}

// NewMemory returns a Memory backend with a per-scope byte quota counted
// over keys and values. quota <= 0 disables the check.
func NewMemory(quota int) *Memory {
	return &Memory{
		quota:  quota,
		scopes: map[string]map[string]string{},
	}
}

// Scope returns the Storage of one browsing context.
func (m *Memory) Scope(contextID string) Storage {
	return &memoryScope{m: m, id: contextID}
}

// Factory adapts Scope to a Factory.
func (m *Memory) Factory() Factory { return m.Scope }

type memoryScope struct {
	m  *Memory
	id string
}

func (s *memoryScope) GetItem(_ context.Context, key string) (string, bool, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	v, ok := s.m.scopes[s.id][key]
	return v, ok, nil
}

func (s *memoryScope) SetItem(_ context.Context, key, value string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	area := s.m.scopes[s.id]
	if s.m.quota > 0 {
		used := len(key) + len(value)
		for k, v := range area {
			if k != key {
				used += len(k) + len(v)
			}
		}
		if used > s.m.quota {
			return ErrQuotaExceeded
		}
	}
	if area == nil {
		area = map[string]string{}
		s.m.scopes[s.id] = area
	}
	area[key] = value
	return nil
}

func (s *memoryScope) RemoveItem(_ context.Context, key string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	delete(s.m.scopes[s.id], key)
	return nil
}
