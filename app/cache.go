package app

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/artpar/relay/domain/cache"
	"github.com/artpar/relay/domain/dispatch"
	"github.com/artpar/relay/ports"
)

// resultFactory is implemented by requests that declare the concrete type
// a cached payload decodes into. Requests without it get their cached
// result back as raw JSON.
type resultFactory interface {
	NewResult() any
}

// CacheStage serves repeated requests from a store instead of invoking
// the inner handler. The signature is a digest of the request contract and
// field values; a non-expired entry short-circuits the dispatch and marks
// the context as served from cache.
type CacheStage struct {
	store ports.CacheStore
	clock ports.Clock
	ttl   time.Duration
	log   zerolog.Logger

	// ServeStaleOnError serves an expired entry when the inner dispatch
	// fails with an upstream HTTP error. Off by default.
	ServeStaleOnError bool

	// Skip exempts a request from caching entirely. Nil caches everything.
	Skip func(req dispatch.Request) bool
}

var _ ports.Middleware = (*CacheStage)(nil)

// CacheStageDeps contains dependencies for CacheStage.
type CacheStageDeps struct {
	Store  ports.CacheStore
	Clock  ports.Clock
	TTL    time.Duration
	Logger zerolog.Logger
}

func NewCacheStage(deps CacheStageDeps) *CacheStage {
	return &CacheStage{
		store: deps.Store,
		clock: deps.Clock,
		ttl:   deps.TTL,
		log:   deps.Logger,
	}
}

func (s *CacheStage) Name() string { return "cache" }

func (s *CacheStage) Execute(ctx context.Context, dctx *dispatch.Context, req dispatch.Request, next ports.Next) (any, error) {
	// Event subscribers share one request, so a cached first result would
	// short-circuit every later subscriber of the same fan-out.
	if dctx.GetBool(dispatch.MetaEvent) {
		return next(ctx)
	}
	if s.Skip != nil && s.Skip(req) {
		return next(ctx)
	}

	sig, err := cache.Signature(req.Contract(), req)
	if err != nil {
		// An unsignable request is dispatched uncached rather than failed.
		s.log.Debug().
			Str("contract", req.Contract()).
			Err(err).
			Msg("request not signable, bypassing cache")
		return next(ctx)
	}

	entry, found, err := s.store.Get(ctx, sig)
	if err != nil {
		s.log.Warn().Str("signature", sig).Err(err).Msg("cache lookup failed")
	}
	now := s.clock.Now()
	if found && err == nil && !entry.Expired(now) {
		result, derr := s.decode(req, entry)
		if derr == nil {
			dctx.Set(dispatch.MetaServedFromCache, true)
			return result, nil
		}
		s.log.Warn().Str("signature", sig).Err(derr).Msg("cached payload undecodable, evicting")
		_ = s.store.Delete(ctx, sig)
		found = false
	}

	result, err := next(ctx)
	if err != nil {
		var httpErr *dispatch.HTTPError
		if s.ServeStaleOnError && found && errors.As(err, &httpErr) {
			if stale, derr := s.decode(req, entry); derr == nil {
				s.log.Info().
					Str("contract", req.Contract()).
					Str("trace_id", dctx.TraceID).
					Int("status", httpErr.StatusCode).
					Msg("upstream failed, serving stale cache entry")
				dctx.Set(dispatch.MetaServedFromCache, true)
				return stale, nil
			}
		}
		// Failures are not cached, but the inner result still travels:
		// the offline stage pairs QueuedResult with ErrQueued.
		return result, err
	}

	// A cancelled dispatch may carry a truncated result; never store it.
	if ctx.Err() != nil {
		return result, nil
	}

	payload, merr := json.Marshal(result)
	if merr != nil {
		s.log.Warn().
			Str("contract", req.Contract()).
			Err(merr).
			Msg("result not serializable, skipping cache store")
		return result, nil
	}
	if serr := s.store.Set(ctx, cache.Entry{
		Signature: sig,
		Payload:   payload,
		StoredAt:  now,
		TTL:       s.ttl,
	}); serr != nil {
		s.log.Warn().Str("signature", sig).Err(serr).Msg("cache store failed")
	}
	return result, nil
}

func (s *CacheStage) decode(req dispatch.Request, entry cache.Entry) (any, error) {
	if f, ok := req.(resultFactory); ok {
		result := f.NewResult()
		if err := json.Unmarshal(entry.Payload, result); err != nil {
			return nil, err
		}
		return result, nil
	}
	return json.RawMessage(entry.Payload), nil
}
