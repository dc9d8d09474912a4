package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/artpar/relay/domain/dispatch"
	"github.com/artpar/relay/ports"
)

// Dispatcher is the engine's entry point. Send routes a request to its
// single handler through the middleware pipeline; Publish fans an event
// out to every subscriber, isolating their failures from one another.
type Dispatcher struct {
	registry *Registry
	pipeline *Pipeline
	idGen    ports.IDGenerator
	clock    ports.Clock
	log      zerolog.Logger
}

// DispatcherDeps contains dependencies for Dispatcher.
type DispatcherDeps struct {
	Registry *Registry
	Pipeline *Pipeline
	IDGen    ports.IDGenerator
	Clock    ports.Clock
	Logger   zerolog.Logger
}

// NewDispatcher creates a dispatcher. A nil pipeline runs handlers bare.
func NewDispatcher(deps DispatcherDeps) *Dispatcher {
	d := &Dispatcher{
		registry: deps.Registry,
		pipeline: deps.Pipeline,
		idGen:    deps.IDGen,
		clock:    deps.Clock,
		log:      deps.Logger,
	}
	if d.pipeline == nil {
		d.pipeline = NewPipeline()
	}
	return d
}

// Send dispatches a request to its single handler and returns the result.
// The handler is resolved by exact contract first, then by the request's
// covariant supertypes.
func (d *Dispatcher) Send(ctx context.Context, req dispatch.Request) (any, error) {
	if req == nil {
		return nil, fmt.Errorf("send: nil request")
	}

	h, err := d.registry.Resolve(req)
	if err != nil {
		d.log.Debug().
			Str("contract", req.Contract()).
			Err(err).
			Msg("handler resolution failed")
		return nil, err
	}

	dctx := dispatch.NewContext(d.idGen.New(), req)
	return d.run(ctx, dctx, req, h)
}

// Publish dispatches an event to every subscriber of its contract and
// covariant supertypes. Each subscriber runs through the full pipeline
// with its own dispatch context; one subscriber failing or panicking does
// not stop the others. The returned error joins all subscriber errors.
// Zero subscribers is not an error.
func (d *Dispatcher) Publish(ctx context.Context, req dispatch.Request) error {
	if req == nil {
		return fmt.Errorf("publish: nil request")
	}

	subs := d.registry.ResolveAll(req)
	if len(subs) == 0 {
		d.log.Debug().
			Str("contract", req.Contract()).
			Msg("event with no subscribers")
		return nil
	}

	var errs []error
	for _, h := range subs {
		dctx := dispatch.NewContext(d.idGen.New(), req)
		dctx.Set(dispatch.MetaEvent, true)
		if _, err := d.run(ctx, dctx, req, h); err != nil {
			d.log.Warn().
				Str("contract", req.Contract()).
				Str("trace_id", dctx.TraceID).
				Err(err).
				Msg("event subscriber failed")
			errs = append(errs, fmt.Errorf("subscriber for %q: %w", req.Contract(), err))
		}
	}
	return errors.Join(errs...)
}

// Replay re-dispatches a previously queued request, marking the dispatch
// context so stages can tell a replay from a fresh send.
func (d *Dispatcher) Replay(ctx context.Context, req dispatch.Request) (any, error) {
	h, err := d.registry.Resolve(req)
	if err != nil {
		return nil, err
	}
	dctx := dispatch.NewContext(d.idGen.New(), req)
	dctx.Set(dispatch.MetaReplay, true)
	return d.run(ctx, dctx, req, h)
}

func (d *Dispatcher) run(ctx context.Context, dctx *dispatch.Context, req dispatch.Request, h ports.Handler) (any, error) {
	return d.pipeline.Run(ctx, dctx, req, h)
}
