package app_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"

	"github.com/artpar/relay/adapters/clock"
	"github.com/artpar/relay/adapters/idgen"
	"github.com/artpar/relay/app"
	"github.com/artpar/relay/domain/dispatch"
	"github.com/artpar/relay/ports"
)

func newDispatcher(registry *app.Registry, stages ...ports.Middleware) *app.Dispatcher {
	return app.NewDispatcher(app.DispatcherDeps{
		Registry: registry,
		Pipeline: app.NewPipeline(stages...),
		IDGen:    idgen.NewSequential("t"),
		Clock:    clock.Real{},
		Logger:   zerolog.Nop(),
	})
}

func TestSend_RoutesToHandler(t *testing.T) {
	registry := app.NewRegistry()
	registry.Register("Orders.Create", ports.HandlerFunc(func(ctx context.Context, dctx *dispatch.Context, req dispatch.Request) (any, error) {
		if dctx.TraceID == "" {
			t.Error("dispatch context has no trace ID")
		}
		return "created", nil
	}))

	d := newDispatcher(registry)
	result, err := d.Send(context.Background(), covariantReq{contract: "Orders.Create"})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if result != "created" {
		t.Errorf("Send() = %v, want created", result)
	}
}

func TestSend_NoHandler(t *testing.T) {
	d := newDispatcher(app.NewRegistry())
	_, err := d.Send(context.Background(), covariantReq{contract: "Nothing"})
	if !errors.Is(err, dispatch.ErrNoHandlerFound) {
		t.Errorf("Send() = %v, want ErrNoHandlerFound", err)
	}
}

func TestPublish_IsolatesSubscriberFailures(t *testing.T) {
	registry := app.NewRegistry()

	var ran atomic.Int32
	failing := errors.New("subscriber exploded")
	registry.Subscribe("Orders.Created", ports.HandlerFunc(func(ctx context.Context, dctx *dispatch.Context, req dispatch.Request) (any, error) {
		return nil, failing
	}))
	registry.Subscribe("Orders.Created", ports.HandlerFunc(func(ctx context.Context, dctx *dispatch.Context, req dispatch.Request) (any, error) {
		ran.Add(1)
		return nil, nil
	}))

	d := newDispatcher(registry)
	err := d.Publish(context.Background(), covariantReq{contract: "Orders.Created"})

	if ran.Load() != 1 {
		t.Error("second subscriber did not run after first failed")
	}
	if !errors.Is(err, failing) {
		t.Errorf("Publish() = %v, want joined subscriber error", err)
	}
}

func TestPublish_PanickingSubscriberIsContained(t *testing.T) {
	registry := app.NewRegistry()

	var ran atomic.Int32
	registry.Subscribe("Orders.Created", ports.HandlerFunc(func(ctx context.Context, dctx *dispatch.Context, req dispatch.Request) (any, error) {
		panic("boom")
	}))
	registry.Subscribe("Orders.Created", ports.HandlerFunc(func(ctx context.Context, dctx *dispatch.Context, req dispatch.Request) (any, error) {
		ran.Add(1)
		return nil, nil
	}))

	d := newDispatcher(registry, app.NewRecoveryStage(zerolog.Nop()))
	err := d.Publish(context.Background(), covariantReq{contract: "Orders.Created"})

	if ran.Load() != 1 {
		t.Error("second subscriber did not run after first panicked")
	}
	if err == nil {
		t.Error("Publish() = nil error, want panic surfaced as error")
	}
}

func TestPublish_ZeroSubscribers(t *testing.T) {
	d := newDispatcher(app.NewRegistry())
	if err := d.Publish(context.Background(), covariantReq{contract: "Nothing"}); err != nil {
		t.Errorf("Publish() with no subscribers = %v, want nil", err)
	}
}

func TestReplay_MarksContext(t *testing.T) {
	registry := app.NewRegistry()

	var sawReplay bool
	registry.Register("Orders.Create", ports.HandlerFunc(func(ctx context.Context, dctx *dispatch.Context, req dispatch.Request) (any, error) {
		sawReplay = dctx.GetBool(dispatch.MetaReplay)
		return nil, nil
	}))

	d := newDispatcher(registry)
	if _, err := d.Replay(context.Background(), covariantReq{contract: "Orders.Create"}); err != nil {
		t.Fatalf("Replay() error = %v", err)
	}
	if !sawReplay {
		t.Error("handler did not observe the replay marker")
	}
}

func TestRecoveryStage_TurnsPanicIntoError(t *testing.T) {
	registry := app.NewRegistry()
	registry.Register("Orders.Create", ports.HandlerFunc(func(ctx context.Context, dctx *dispatch.Context, req dispatch.Request) (any, error) {
		panic("kaboom")
	}))

	d := newDispatcher(registry, app.NewRecoveryStage(zerolog.Nop()))
	_, err := d.Send(context.Background(), covariantReq{contract: "Orders.Create"})
	if err == nil {
		t.Fatal("Send() = nil error, want recovered panic")
	}
}
