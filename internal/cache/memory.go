package cache

import (
	"context"
	"net/http"
	"slices"
	"sync"
	"time"
)

// MemoryStore is a process-local Store. Expired entries are evicted lazily
// on lookup.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	entry     Entry
	expiresAt time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store. A nil clock means time.Now.
func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     now,
	}
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, key string) (*Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	me, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !s.now().Before(me.expiresAt) {
		delete(s.entries, key)
		return nil, false, nil
	}
	return cloneEntry(&me.entry), true, nil
}

// Set implements Store. A non-positive ttl is ignored.
func (s *MemoryStore) Set(_ context.Context, key string, entry *Entry, ttl time.Duration) error {
	if entry == nil || ttl <= 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = memoryEntry{
		entry:     *cloneEntry(entry),
		expiresAt: s.now().Add(ttl),
	}
	return nil
}

// Len returns the number of entries held, including expired ones not yet evicted.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func cloneEntry(e *Entry) *Entry {
	header := make(http.Header, len(e.Header))
	for k, v := range e.Header {
		header[k] = slices.Clone(v)
	}
	return &Entry{
		Status: e.Status,
		Header: header,
		Body:   slices.Clone(e.Body),
	}
}
