package http

import (
	"context"
	"net/http"

	"github.com/artpar/relay/domain/dispatch"
	"github.com/artpar/relay/ports"
)

// HeaderDecorator appends fixed headers to every outgoing message, e.g.
// device or client identification.
type HeaderDecorator struct {
	DecoratorName string
	Headers       map[string]string
}

// Name returns the decorator name.
func (d *HeaderDecorator) Name() string {
	if d.DecoratorName != "" {
		return d.DecoratorName
	}
	return "headers"
}

// Decorate sets the configured headers.
func (d *HeaderDecorator) Decorate(ctx context.Context, msg *http.Request, dctx *dispatch.Context) error {
	for k, v := range d.Headers {
		msg.Header.Set(k, v)
	}
	return nil
}

// BearerTokenDecorator sets an Authorization header from a token source.
// The source may block, e.g. to refresh an expired token; the executor
// waits for it before sending.
type BearerTokenDecorator struct {
	// Token returns the current bearer token.
	Token func(ctx context.Context) (string, error)
}

// Name returns the decorator name.
func (d *BearerTokenDecorator) Name() string { return "bearer_token" }

// Decorate sets the Authorization header. A token source failure aborts
// the send.
func (d *BearerTokenDecorator) Decorate(ctx context.Context, msg *http.Request, dctx *dispatch.Context) error {
	token, err := d.Token(ctx)
	if err != nil {
		return err
	}
	msg.Header.Set("Authorization", "Bearer "+token)
	return nil
}

// Ensure interface compliance.
var (
	_ ports.Decorator = (*HeaderDecorator)(nil)
	_ ports.Decorator = (*BearerTokenDecorator)(nil)
)
