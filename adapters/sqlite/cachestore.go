package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/artpar/relay/domain/cache"
	"github.com/artpar/relay/ports"
)

// CacheStore implements ports.CacheStore using SQLite, so cached results
// survive process restarts.
type CacheStore struct {
	db *DB
}

// NewCacheStore creates a new SQLite cache store.
func NewCacheStore(db *DB) *CacheStore {
	return &CacheStore{db: db}
}

// Get retrieves an entry by signature.
func (s *CacheStore) Get(ctx context.Context, signature string) (cache.Entry, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT signature, payload, stored_at, ttl_ns
		FROM cache_entries
		WHERE signature = ?
	`, signature)

	var entry cache.Entry
	var ttlNs int64
	err := row.Scan(&entry.Signature, &entry.Payload, &entry.StoredAt, &ttlNs)
	if errors.Is(err, sql.ErrNoRows) {
		return cache.Entry{}, false, nil
	}
	if err != nil {
		return cache.Entry{}, false, err
	}
	entry.TTL = time.Duration(ttlNs)
	return entry, true, nil
}

// Set stores or replaces an entry.
func (s *CacheStore) Set(ctx context.Context, entry cache.Entry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cache_entries (signature, payload, stored_at, ttl_ns)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(signature) DO UPDATE SET
			payload = excluded.payload,
			stored_at = excluded.stored_at,
			ttl_ns = excluded.ttl_ns
	`, entry.Signature, entry.Payload, entry.StoredAt, int64(entry.TTL))
	return err
}

// Delete removes an entry.
func (s *CacheStore) Delete(ctx context.Context, signature string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE signature = ?`, signature)
	return err
}

// Ensure interface compliance.
var _ ports.CacheStore = (*CacheStore)(nil)
