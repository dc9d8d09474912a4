package dispatch

import "sync"

// Metadata keys set by the built-in pipeline stages.
const (
	// MetaServedFromCache is set to true by the cache stage when the
	// result was served without invoking the inner handler.
	MetaServedFromCache = "served_from_cache"

	// MetaQueued is set to true by the offline stage when the request was
	// enqueued instead of dispatched.
	MetaQueued = "queued"

	// MetaReplay is set to true when a dispatch is a replay of a
	// previously queued request.
	MetaReplay = "replay"

	// MetaEvent is set to true on every subscriber dispatch of a
	// published event. Events fan out to all subscribers, so stages that
	// would collapse identical dispatches (the cache) must let each one
	// through.
	MetaEvent = "event"
)

// Context carries per-dispatch state through every pipeline stage: the
// originating request, a trace ID, and a metadata bag for stage-to-stage
// signaling. Cancellation travels on the caller's context.Context, not
// here.
//
// The metadata bag is synchronized; stages may read and write it from the
// goroutine executing the dispatch as well as from decorators running
// concurrently with it.
type Context struct {
	TraceID string
	Request Request

	mu   sync.RWMutex
	meta map[string]any
}

// NewContext creates a dispatch context for a request.
func NewContext(traceID string, req Request) *Context {
	return &Context{
		TraceID: traceID,
		Request: req,
		meta:    make(map[string]any),
	}
}

// Set stores a metadata value.
func (c *Context) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.meta[key] = value
}

// Get returns a metadata value.
func (c *Context) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.meta[key]
	return v, ok
}

// GetBool returns a metadata value as a bool, false when absent or not a
// bool.
func (c *Context) GetBool(key string) bool {
	v, ok := c.Get(key)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// GetString returns a metadata value as a string.
func (c *Context) GetString(key string) string {
	v, ok := c.Get(key)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}
