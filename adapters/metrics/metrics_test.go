package metrics_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/artpar/relay/adapters/clock"
	"github.com/artpar/relay/adapters/metrics"
	"github.com/artpar/relay/domain/dispatch"
)

func TestNewWith(t *testing.T) {
	// Use a fresh registry to avoid conflicts with other tests
	reg := prometheus.NewRegistry()
	m := metrics.NewWith(reg)

	if m == nil {
		t.Fatal("NewWith returned nil")
	}

	// Verify all metrics are initialized
	if m.DispatchTotal == nil {
		t.Error("DispatchTotal is nil")
	}
	if m.DispatchDuration == nil {
		t.Error("DispatchDuration is nil")
	}
	if m.DispatchInFlight == nil {
		t.Error("DispatchInFlight is nil")
	}
	if m.CacheHits == nil {
		t.Error("CacheHits is nil")
	}
	if m.CacheMisses == nil {
		t.Error("CacheMisses is nil")
	}
	if m.QueueDepth == nil {
		t.Error("QueueDepth is nil")
	}
	if m.QueuedTotal == nil {
		t.Error("QueuedTotal is nil")
	}
	if m.ReplayedTotal == nil {
		t.Error("ReplayedTotal is nil")
	}
	if m.ConfigReloads == nil {
		t.Error("ConfigReloads is nil")
	}
	if m.ConfigReloadErrors == nil {
		t.Error("ConfigReloadErrors is nil")
	}
}

func TestDispatchTotal(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWith(reg)

	m.DispatchTotal.WithLabelValues("Billing.GetInvoice", "ok").Inc()
	m.DispatchTotal.WithLabelValues("Billing.GetInvoice", "error").Add(3)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather error: %v", err)
	}

	found := false
	for _, f := range families {
		if f.GetName() == "relay_dispatch_total" {
			found = true
			if len(f.GetMetric()) != 2 {
				t.Errorf("expected 2 metric series, got %d", len(f.GetMetric()))
			}
		}
	}
	if !found {
		t.Error("relay_dispatch_total metric not found")
	}
}

type stageReq struct{ contract string }

func (r stageReq) Contract() string { return r.contract }

func gauge(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather error: %v", err)
	}
	for _, f := range families {
		if f.GetName() == name {
			return f.GetMetric()[0].GetGauge().GetValue()
		}
	}
	t.Fatalf("%s metric not found", name)
	return 0
}

func TestStage_QueuedOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWith(reg)
	stage := metrics.NewStage(m, clock.NewFake(time.Now()))

	req := stageReq{contract: "Billing.GetInvoice"}
	dctx := dispatch.NewContext("trace-1", req)

	_, err := stage.Execute(context.Background(), dctx, req, func(ctx context.Context) (any, error) {
		dctx.Set(dispatch.MetaQueued, true)
		return dispatch.QueuedResult{EntryID: "q1"}, dispatch.ErrQueued
	})
	if !errors.Is(err, dispatch.ErrQueued) {
		t.Fatalf("Execute() error = %v, want ErrQueued", err)
	}

	if got := gauge(t, reg, "relay_queue_depth"); got != 1 {
		t.Errorf("queue depth = %v, want 1", got)
	}
}

func TestStage_ReplaySuccessDrainsDepth(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWith(reg)
	stage := metrics.NewStage(m, clock.NewFake(time.Now()))
	m.QueueDepth.Inc()

	req := stageReq{contract: "Billing.GetInvoice"}
	dctx := dispatch.NewContext("trace-2", req)
	dctx.Set(dispatch.MetaReplay, true)

	_, err := stage.Execute(context.Background(), dctx, req, func(ctx context.Context) (any, error) {
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if got := gauge(t, reg, "relay_queue_depth"); got != 0 {
		t.Errorf("queue depth = %v, want 0", got)
	}
}

func TestStage_ReplayPermanentFailureDrainsDepth(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWith(reg)
	stage := metrics.NewStage(m, clock.NewFake(time.Now()))
	m.QueueDepth.Inc()

	req := stageReq{contract: "Billing.GetInvoice"}
	dctx := dispatch.NewContext("trace-3", req)
	dctx.Set(dispatch.MetaReplay, true)

	_, err := stage.Execute(context.Background(), dctx, req, func(ctx context.Context) (any, error) {
		return nil, &dispatch.HTTPError{StatusCode: 404}
	})
	if err == nil {
		t.Fatal("Execute() error = nil, want HTTPError")
	}

	// The replayer drops a permanently failed entry.
	if got := gauge(t, reg, "relay_queue_depth"); got != 0 {
		t.Errorf("queue depth = %v, want 0", got)
	}
}
