package archive

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps entries in process. Useful for tests and throwaway runs.
type MemoryStore struct {
	mu      sync.RWMutex
	cap     int
	lastID  int64
	entries []Entry
}

func NewMemoryStore(cap int) *MemoryStore {
	return &MemoryStore{cap: normalizeCap(cap)}
}

func (s *MemoryStore) Append(_ context.Context, e Entry) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastID++
	e.ID = s.lastID
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	s.entries = append(s.entries, e)
	if over := len(s.entries) - s.cap; over > 0 {
		s.entries = append([]Entry(nil), s.entries[over:]...)
	}
	return e, nil
}

func (s *MemoryStore) List(_ context.Context) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Entry(nil), s.entries...), nil
}

func (s *MemoryStore) Stats(ctx context.Context, now time.Time) (Stats, error) {
	entries, _ := s.List(ctx)
	return ComputeStats(entries, now), nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	return nil
}

func (s *MemoryStore) Close() error { return nil }
