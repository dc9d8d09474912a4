// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/ and app/.
package ports

import (
	"context"
	"net/http"
	"time"

	"github.com/artpar/relay/domain/cache"
	"github.com/artpar/relay/domain/dispatch"
	"github.com/artpar/relay/domain/queue"
	"github.com/artpar/relay/domain/scope"
)

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// IDGenerator generates unique identifiers (trace IDs, queue entry IDs).
type IDGenerator interface {
	New() string
}

// -----------------------------------------------------------------------------
// Dispatch Ports
// -----------------------------------------------------------------------------

// Handler is a unit of logic bound to one request contract (or a
// supertype it is compatible with).
type Handler interface {
	Handle(ctx context.Context, dctx *dispatch.Context, req dispatch.Request) (any, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, dctx *dispatch.Context, req dispatch.Request) (any, error)

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx context.Context, dctx *dispatch.Context, req dispatch.Request) (any, error) {
	return f(ctx, dctx, req)
}

// Next delegates to the remainder of the middleware pipeline.
type Next func(ctx context.Context) (any, error)

// Middleware is an onion-style pipeline stage wrapped around every
// dispatch. Stages run in registration order on entry and reverse order on
// the way out; a stage may short-circuit by not calling next.
type Middleware interface {
	Name() string
	Execute(ctx context.Context, dctx *dispatch.Context, req dispatch.Request, next Next) (any, error)
}

// Decorator mutates an outgoing HTTP message before it is sent. Decorators
// run in registration order, may block (e.g. to refresh a token), and must
// not change the route or body shape. A decorator failure aborts the send.
type Decorator interface {
	Name() string
	Decorate(ctx context.Context, msg *http.Request, dctx *dispatch.Context) error
}

// SettingsSource provides the current configuration snapshot. Hot reload
// swaps snapshots atomically; an in-flight dispatch keeps the snapshot it
// started with.
type SettingsSource interface {
	HTTPSettings() scope.Settings
}

// RequestCodec encodes requests for queue persistence and rehydrates them
// for replay.
type RequestCodec interface {
	Encode(req dispatch.Request) ([]byte, error)
	Decode(contract string, payload []byte) (dispatch.Request, error)
}

// Connectivity reports the current link state to the offline stage.
type Connectivity interface {
	Connected() bool
}

// -----------------------------------------------------------------------------
// Store Ports
// -----------------------------------------------------------------------------

// CacheStore persists cache entries keyed by request signature.
type CacheStore interface {
	// Get retrieves an entry. The second return is false when no entry
	// exists for the signature.
	Get(ctx context.Context, signature string) (cache.Entry, bool, error)
	// Set stores or replaces an entry.
	Set(ctx context.Context, entry cache.Entry) error
	// Delete removes an entry.
	Delete(ctx context.Context, signature string) error
}

// QueueStore persists offline queue entries in FIFO order.
type QueueStore interface {
	// Enqueue appends an entry.
	Enqueue(ctx context.Context, entry queue.Entry) error
	// List returns all entries in enqueue order.
	List(ctx context.Context) ([]queue.Entry, error)
	// Remove deletes an entry by ID.
	Remove(ctx context.Context, id string) error
	// Touch increments the attempt counter for an entry.
	Touch(ctx context.Context, id string) error
}
