package dispatch

import (
	"errors"
	"fmt"
)

// Registration-time errors. These are fatal at startup: the dispatcher
// refuses to build rather than silently skipping a registration.
var (
	// ErrDuplicateHandler is returned when two handlers register for the
	// identical concrete contract in a single-result context.
	ErrDuplicateHandler = errors.New("duplicate handler registration")
)

// Per-dispatch errors.
var (
	// ErrNoHandlerFound is returned when resolution finds zero handlers
	// for a request expecting exactly one.
	ErrNoHandlerFound = errors.New("no handler found")

	// ErrAmbiguousHandler is returned when more than one handler matches
	// at the same specificity level for a single-result request.
	ErrAmbiguousHandler = errors.New("ambiguous handler")

	// ErrConfigurationMissing is returned when no configuration entry
	// matches a required lookup at any wildcard level.
	ErrConfigurationMissing = errors.New("configuration missing")

	// ErrRequestTimeout is returned when the resolved timeout elapses
	// before the transport call completes. The underlying call is
	// cancelled.
	ErrRequestTimeout = errors.New("request timeout")

	// ErrQueued signals that the offline stage accepted the request into
	// its queue instead of dispatching it. The accompanying result is a
	// QueuedResult.
	ErrQueued = errors.New("request queued for replay")
)

// DecoratorError wraps a failure from a message decorator. The send is
// aborted and not retried.
type DecoratorError struct {
	Decorator string
	Err       error
}

func (e *DecoratorError) Error() string {
	return fmt.Sprintf("decorator %s failed: %v", e.Decorator, e.Err)
}

func (e *DecoratorError) Unwrap() error { return e.Err }

// HTTPError reports a non-success status code from an executed HTTP
// request. The body is returned verbatim rather than partially parsed.
type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http request failed: status %d", e.StatusCode)
}

// SerializationError reports a malformed body on either side of the wire.
type SerializationError struct {
	Op  string // "encode" or "decode"
	Err error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("serialization error (%s): %v", e.Op, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }
