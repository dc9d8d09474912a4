package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/artpar/relay/domain/queue"
	"github.com/artpar/relay/ports"
)

// QueueStore is an in-memory FIFO implementation of ports.QueueStore.
// Multiple concurrent producers may enqueue; mutation is serialized.
type QueueStore struct {
	mu      sync.Mutex
	entries []queue.Entry
}

// NewQueueStore creates a new in-memory queue store.
func NewQueueStore() *QueueStore {
	return &QueueStore{}
}

// Enqueue appends an entry in arrival order.
func (s *QueueStore) Enqueue(ctx context.Context, entry queue.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

// List returns all entries in enqueue order.
func (s *QueueStore) List(ctx context.Context) ([]queue.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]queue.Entry, len(s.entries))
	copy(out, s.entries)
	return out, nil
}

// Remove deletes an entry by ID.
func (s *QueueStore) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.entries {
		if e.ID == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("queue entry %s not found", id)
}

// Touch increments the attempt counter for an entry.
func (s *QueueStore) Touch(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		if s.entries[i].ID == id {
			s.entries[i].Attempts++
			return nil
		}
	}
	return fmt.Errorf("queue entry %s not found", id)
}

// Len returns the number of queued entries.
func (s *QueueStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Clear removes all entries (for testing).
func (s *QueueStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
}

// Ensure interface compliance.
var _ ports.QueueStore = (*QueueStore)(nil)
