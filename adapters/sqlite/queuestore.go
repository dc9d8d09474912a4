package sqlite

import (
	"context"
	"fmt"
	"sync"

	"github.com/artpar/relay/domain/queue"
	"github.com/artpar/relay/ports"
)

// QueueStore implements ports.QueueStore using SQLite, so offline-queued
// requests survive process restarts. Enqueue order is preserved by a
// monotonic sequence column.
type QueueStore struct {
	db *DB

	// seq assignment is serialized so concurrent producers never race on
	// the FIFO order.
	mu sync.Mutex
}

// NewQueueStore creates a new SQLite queue store.
func NewQueueStore(db *DB) *QueueStore {
	return &QueueStore{db: db}
}

// Enqueue appends an entry.
func (s *QueueStore) Enqueue(ctx context.Context, entry queue.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var next int64
	row := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM queue_entries`)
	if err := row.Scan(&next); err != nil {
		return fmt.Errorf("next seq: %w", err)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO queue_entries (id, contract, payload, enqueued_at, attempts, seq)
		VALUES (?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.Contract, entry.Payload, entry.EnqueuedAt, entry.Attempts, next)
	return err
}

// List returns all entries in enqueue order.
func (s *QueueStore) List(ctx context.Context) ([]queue.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, contract, payload, enqueued_at, attempts
		FROM queue_entries
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []queue.Entry
	for rows.Next() {
		var e queue.Entry
		if err := rows.Scan(&e.ID, &e.Contract, &e.Payload, &e.EnqueuedAt, &e.Attempts); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Remove deletes an entry by ID.
func (s *QueueStore) Remove(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM queue_entries WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("queue entry %s not found", id)
	}
	return nil
}

// Touch increments the attempt counter for an entry.
func (s *QueueStore) Touch(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE queue_entries SET attempts = attempts + 1 WHERE id = ?
	`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("queue entry %s not found", id)
	}
	return nil
}

// Ensure interface compliance.
var _ ports.QueueStore = (*QueueStore)(nil)
