package store

import (
	"context"
	"sort"
	"sync"
)

// memoryStore is the in-memory LocalStore used in tests and as a fallback
// when no database path is configured. It mirrors the quota and atomicity
// semantics of the SQLite implementation.
type memoryStore struct {
	maxBytes int64

	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemoryStore returns an in-memory LocalStore bounded by maxBytes.
// maxBytes <= 0 means unbounded.
func NewMemoryStore(maxBytes int64) LocalStore {
	return &memoryStore{
		maxBytes: maxBytes,
		values:   make(map[string][]byte),
	}
}

func (s *memoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[key]
	if !ok {
		return nil, ErrKeyNotFound
	}

	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (s *memoryStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.maxBytes > 0 {
		var used int64
		for k, v := range s.values {
			if k == key {
				continue
			}
			used += int64(len(v))
		}
		if used+int64(len(value)) > s.maxBytes {
			return ErrQuotaExceeded
		}
	}

	stored := make([]byte, len(value))
	copy(stored, value)
	s.values[key] = stored

	return nil
}

func (s *memoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
	return nil
}

func (s *memoryStore) Keys(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys, nil
}

func (s *memoryStore) Close() error {
	return nil
}
