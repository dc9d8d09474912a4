// Package queue provides offline queue entries and replay failure
// classification.
package queue

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/artpar/relay/domain/dispatch"
)

// Entry is a request held for replay while disconnected. Payload is the
// encoded request (see ports.RequestCodec) so persistent stores can
// rehydrate it after a restart.
type Entry struct {
	ID         string
	Contract   string
	Payload    []byte
	EnqueuedAt time.Time
	Attempts   int
}

// Disposition classifies a replay failure.
type Disposition int

const (
	// Retriable failures keep the entry queued for the next replay pass.
	Retriable Disposition = iota
	// Permanent failures remove the entry from the queue; the failure is
	// reported, not retried.
	Permanent
)

// Classify maps a dispatch error to a replay disposition. Timeouts and
// server-side (5xx) failures are retriable; client errors (4xx) and
// malformed payloads are permanent. Plain transport errors are treated as
// retriable since they usually mean connectivity flapped again.
func Classify(err error) Disposition {
	var httpErr *dispatch.HTTPError
	if errors.As(err, &httpErr) {
		switch {
		case httpErr.StatusCode >= 500:
			return Retriable
		case httpErr.StatusCode == 408 || httpErr.StatusCode == 429:
			return Retriable
		default:
			return Permanent
		}
	}

	if errors.Is(err, dispatch.ErrRequestTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return Retriable
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return Retriable
	}

	var serErr *dispatch.SerializationError
	if errors.As(err, &serErr) {
		return Permanent
	}

	return Permanent
}
