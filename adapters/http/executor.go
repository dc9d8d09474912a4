// Package http executes HTTP-backed requests: it turns a declarative
// descriptor plus a resolved base URI into a transport call, applying the
// decorator chain and the configured timeout.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/artpar/relay/domain/contract"
	"github.com/artpar/relay/domain/dispatch"
	"github.com/artpar/relay/ports"
)

// responseLimit caps how much of a response body is read.
const responseLimit = 50 << 20 // 50MB

// Executor sends HTTP-backed requests. It implements ports.Handler and is
// registered with the dispatcher for every contract that carries a
// descriptor.
type Executor struct {
	client      *http.Client
	source      ports.SettingsSource
	logger      zerolog.Logger
	decorators  []ports.Decorator
	descriptors map[string]*contract.Descriptor
}

// Config contains configuration for the executor.
type Config struct {
	Source ports.SettingsSource
	Logger zerolog.Logger

	MaxIdleConns    int
	IdleConnTimeout time.Duration
}

// NewExecutor creates a new HTTP executor.
func NewExecutor(cfg Config) *Executor {
	maxIdleConns := cfg.MaxIdleConns
	if maxIdleConns == 0 {
		maxIdleConns = 100
	}
	idleConnTimeout := cfg.IdleConnTimeout
	if idleConnTimeout == 0 {
		idleConnTimeout = 90 * time.Second
	}

	transport := &http.Transport{
		MaxIdleConns:        maxIdleConns,
		MaxIdleConnsPerHost: maxIdleConns,
		IdleConnTimeout:     idleConnTimeout,
	}

	return &Executor{
		// Per-request deadlines come from the dispatch context, so the
		// client itself carries no timeout.
		client:      &http.Client{Transport: transport},
		source:      cfg.Source,
		logger:      cfg.Logger,
		descriptors: make(map[string]*contract.Descriptor),
	}
}

// Use appends a decorator to the chain. The chain is the same for all
// HTTP requests and runs in registration order.
func (e *Executor) Use(d ports.Decorator) {
	e.decorators = append(e.decorators, d)
}

// RegisterDescriptor validates and registers a descriptor. Invalid
// metadata and duplicate contracts fail here, at configuration time.
func (e *Executor) RegisterDescriptor(d *contract.Descriptor) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if _, exists := e.descriptors[d.Contract]; exists {
		return fmt.Errorf("%w: descriptor for %s", dispatch.ErrDuplicateHandler, d.Contract)
	}
	e.descriptors[d.Contract] = d
	return nil
}

// Contracts returns the registered descriptor contracts, for wiring the
// executor into the handler registry.
func (e *Executor) Contracts() []string {
	out := make([]string, 0, len(e.descriptors))
	for c := range e.descriptors {
		out = append(out, c)
	}
	return out
}

// Close releases idle transport connections.
func (e *Executor) Close() error {
	e.client.CloseIdleConnections()
	return nil
}

// Handle executes an HTTP-backed request.
func (e *Executor) Handle(ctx context.Context, dctx *dispatch.Context, req dispatch.Request) (any, error) {
	switch direct := req.(type) {
	case dispatch.DirectRequest:
		return e.executeDirect(ctx, dctx, direct)
	case *dispatch.DirectRequest:
		return e.executeDirect(ctx, dctx, *direct)
	}

	desc, ok := e.descriptors[req.Contract()]
	if !ok {
		return nil, fmt.Errorf("%w: no descriptor for %s", dispatch.ErrNoHandlerFound, req.Contract())
	}

	settings := e.source.HTTPSettings()

	baseURI, found := settings.BaseURI(req.Contract())
	if !found {
		return nil, fmt.Errorf("%w: no base uri for %s", dispatch.ErrConfigurationMissing, req.Contract())
	}

	var params map[string]any
	if carrier, ok := req.(contract.Carrier); ok {
		params = carrier.Params()
	}

	finalURL, err := desc.BuildURL(baseURI, params)
	if err != nil {
		return nil, err
	}

	var body []byte
	if binding, ok := desc.BodyBinding(); ok {
		if v, ok := params[binding.Name]; ok && v != nil {
			body, err = json.Marshal(v)
			if err != nil {
				return nil, &dispatch.SerializationError{Op: "encode", Err: err}
			}
		}
	}

	raw, err := e.send(ctx, dctx, settings.ResolvedTimeout(), settings.Debug, desc.Method, finalURL, desc.Headers(params), body)
	if err != nil {
		return nil, err
	}

	if desc.NewResult == nil {
		return raw, nil
	}
	result := desc.NewResult()
	if err := json.Unmarshal(raw.Body, result); err != nil {
		return nil, &dispatch.SerializationError{Op: "decode", Err: err}
	}
	return result, nil
}

// executeDirect resolves a direct request by lookup name or absolute URI.
func (e *Executor) executeDirect(ctx context.Context, dctx *dispatch.Context, req dispatch.DirectRequest) (any, error) {
	settings := e.source.HTTPSettings()

	method := strings.ToUpper(req.Method)
	target := ""

	switch {
	case isAbsoluteURI(req.Name):
		target = req.Name
	default:
		entry, ok := settings.Direct[req.Name]
		if !ok {
			return nil, fmt.Errorf("%w: no direct entry for %q", dispatch.ErrConfigurationMissing, req.Name)
		}
		target = entry.URL
		if !isAbsoluteURI(target) {
			if settings.DirectBaseURL == "" {
				return nil, fmt.Errorf("%w: direct entry %q is relative and no direct base url is set", dispatch.ErrConfigurationMissing, req.Name)
			}
			target = strings.TrimSuffix(settings.DirectBaseURL, "/") + "/" + strings.TrimPrefix(target, "/")
		}
		if method == "" {
			method = entry.Method
		}
	}
	if method == "" {
		method = http.MethodGet
	}

	var body []byte
	if req.Body != nil {
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return nil, &dispatch.SerializationError{Op: "encode", Err: err}
		}
		body = encoded
	}

	raw, err := e.send(ctx, dctx, settings.ResolvedTimeout(), settings.Debug, method, target, nil, body)
	if err != nil {
		return nil, err
	}

	// The caller declared no concrete result type; decode JSON bodies to
	// an untyped value and hand anything else back raw.
	if len(raw.Body) > 0 && strings.Contains(raw.Headers["Content-Type"], "json") {
		var result any
		if err := json.Unmarshal(raw.Body, &result); err != nil {
			return nil, &dispatch.SerializationError{Op: "decode", Err: err}
		}
		return result, nil
	}
	return raw, nil
}

// send builds the outgoing message, runs the decorator chain, and
// executes the call under the resolved timeout.
func (e *Executor) send(ctx context.Context, dctx *dispatch.Context, timeout time.Duration, debug bool, method, url string, headers map[string]string, body []byte) (dispatch.RawResponse, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(callCtx, method, url, reader)
	if err != nil {
		return dispatch.RawResponse{}, fmt.Errorf("create request: %w", err)
	}

	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}
	if len(body) > 0 && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if dctx != nil && dctx.TraceID != "" {
		httpReq.Header.Set("X-Request-ID", dctx.TraceID)
	}

	// Decorators run to completion before the send. They may block (e.g.
	// token refresh); the call deadline covers them too.
	for _, d := range e.decorators {
		if err := d.Decorate(callCtx, httpReq, dctx); err != nil {
			return dispatch.RawResponse{}, &dispatch.DecoratorError{Decorator: d.Name(), Err: err}
		}
	}

	if debug {
		e.logger.Debug().
			Str("method", method).
			Str("url", url).
			Interface("headers", httpReq.Header).
			Bytes("body", body).
			Msg("outgoing request")
	}

	resp, err := e.client.Do(httpReq)
	if err != nil {
		// The caller's cancellation wins over our deadline.
		if ctx.Err() != nil {
			return dispatch.RawResponse{}, ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) || callCtx.Err() == context.DeadlineExceeded {
			return dispatch.RawResponse{}, fmt.Errorf("%w after %s: %s %s", dispatch.ErrRequestTimeout, timeout, method, url)
		}
		return dispatch.RawResponse{}, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, responseLimit))
	if err != nil {
		if ctx.Err() != nil {
			return dispatch.RawResponse{}, ctx.Err()
		}
		if callCtx.Err() == context.DeadlineExceeded {
			return dispatch.RawResponse{}, fmt.Errorf("%w after %s: %s %s", dispatch.ErrRequestTimeout, timeout, method, url)
		}
		return dispatch.RawResponse{}, fmt.Errorf("read response: %w", err)
	}

	respHeaders := make(map[string]string)
	for k, v := range resp.Header {
		if len(v) > 0 {
			respHeaders[k] = v[0]
		}
	}

	if debug {
		e.logger.Debug().
			Int("status", resp.StatusCode).
			Bytes("body", respBody).
			Msg("raw response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return dispatch.RawResponse{}, &dispatch.HTTPError{StatusCode: resp.StatusCode, Body: respBody}
	}

	return dispatch.RawResponse{
		Status:  resp.StatusCode,
		Headers: respHeaders,
		Body:    respBody,
	}, nil
}

func isAbsoluteURI(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Ensure interface compliance.
var _ ports.Handler = (*Executor)(nil)
