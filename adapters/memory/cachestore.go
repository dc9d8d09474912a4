// Package memory provides in-memory implementations of storage ports.
package memory

import (
	"context"
	"sync"

	"github.com/artpar/relay/domain/cache"
	"github.com/artpar/relay/ports"
)

// CacheStore is an in-memory implementation of ports.CacheStore.
type CacheStore struct {
	mu      sync.RWMutex
	entries map[string]cache.Entry
}

// NewCacheStore creates a new in-memory cache store.
func NewCacheStore() *CacheStore {
	return &CacheStore{
		entries: make(map[string]cache.Entry),
	}
}

// Get retrieves an entry by signature.
func (s *CacheStore) Get(ctx context.Context, signature string) (cache.Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[signature]
	return entry, ok, nil
}

// Set stores or replaces an entry.
func (s *CacheStore) Set(ctx context.Context, entry cache.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.Signature] = entry
	return nil
}

// Delete removes an entry.
func (s *CacheStore) Delete(ctx context.Context, signature string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, signature)
	return nil
}

// Clear removes all entries (for testing).
func (s *CacheStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]cache.Entry)
}

// Len returns the number of stored entries.
func (s *CacheStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Ensure interface compliance.
var _ ports.CacheStore = (*CacheStore)(nil)
