// Package memory provides an in-memory Store for tests and local runs.
package memory

import (
	"context"
	"sync"
	"time"
)

type cacheEntry struct {
	value     []byte
	expiresAt time.Time
}

// InMemoryStore implements store.Store with plain maps. The cache tier
// honors TTLs; expired entries read as misses.
type InMemoryStore struct {
	mu    sync.RWMutex
	data  map[string][]byte
	cache map[string]cacheEntry
	now   func() time.Time
}

// New builds an empty store. A nil clock means time.Now.
func New(now func() time.Time) *InMemoryStore {
	if now == nil {
		now = time.Now
	}
	return &InMemoryStore{
		data:  make(map[string][]byte),
		cache: make(map[string]cacheEntry),
		now:   now,
	}
}

func (s *InMemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.data[key]
	if !ok {
		return nil, nil
	}
	return value, nil
}

func (s *InMemoryStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *InMemoryStore) GetCache(_ context.Context, key string) []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.cache[key]
	if !ok || s.now().After(entry.expiresAt) {
		return nil
	}
	return entry.value
}

func (s *InMemoryStore) SetCache(_ context.Context, key string, value []byte, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[key] = cacheEntry{value: value, expiresAt: s.now().Add(ttl)}
}
