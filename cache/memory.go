package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value    string
	lastUsed time.Time
}

// MemoryStore is a non-persistent Store.
type MemoryStore struct {
	mu   sync.Mutex
	data map[Key]*memoryEntry
	now  func() time.Time
	counters
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[Key]*memoryEntry),
		now:  time.Now,
	}
}

// Get returns the cached translation.
func (s *MemoryStore) Get(_ context.Context, k Key) (string, bool, error) {
	if s.closed.Load() {
		return "", false, ErrClosed
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.data[k.Normalize()]
	if !ok {
		s.misses.Add(1)
		return "", false, nil
	}
	e.lastUsed = s.now()
	s.hits.Add(1)
	return e.value, true, nil
}

// Put stores a translation.
func (s *MemoryStore) Put(_ context.Context, k Key, translated string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[k.Normalize()] = &memoryEntry{value: translated, lastUsed: s.now()}
	s.writes.Add(1)
	return nil
}

// Stats returns the entry count and session counters.
func (s *MemoryStore) Stats(_ context.Context) (Stats, error) {
	s.mu.Lock()
	n := int64(len(s.data))
	s.mu.Unlock()
	return s.stats("memory", n), nil
}

// Prune removes entries unused for longer than olderThan.
func (s *MemoryStore) Prune(_ context.Context, olderThan time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-olderThan)
	var removed int64
	for k, e := range s.data {
		if e.lastUsed.Before(cutoff) {
			delete(s.data, k)
			removed++
		}
	}
	return removed, nil
}

// Clear removes every entry.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[Key]*memoryEntry)
	return nil
}

// Close marks the store closed.
func (s *MemoryStore) Close() error {
	s.closed.Store(true)
	return nil
}

var _ Store = (*MemoryStore)(nil)
