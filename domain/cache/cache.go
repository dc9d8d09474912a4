// Package cache provides request signatures and cache entry value types.
// Storage policy (in-memory or persistent) lives in adapters.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// Entry is a cached dispatch result keyed by request signature.
type Entry struct {
	Signature string
	// Payload is the JSON-encoded result.
	Payload  []byte
	StoredAt time.Time
	// TTL of zero means the entry never expires.
	TTL time.Duration
}

// Expired reports whether the entry's TTL has elapsed at the given time.
func (e Entry) Expired(now time.Time) bool {
	if e.TTL <= 0 {
		return false
	}
	return now.After(e.StoredAt.Add(e.TTL))
}

// Signature computes a deterministic digest of a request's contract
// identity and field values. encoding/json sorts map keys, so equal
// parameter sets always produce equal signatures.
func Signature(contract string, params any) (string, error) {
	encoded, err := json.Marshal(params)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(append([]byte(contract+"\x00"), encoded...))
	return hex.EncodeToString(sum[:]), nil
}
