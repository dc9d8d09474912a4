package metrics

import (
	"context"

	"github.com/artpar/relay/domain/dispatch"
	"github.com/artpar/relay/domain/queue"
	"github.com/artpar/relay/ports"
)

// Stage records dispatch counts, durations and cache/queue outcomes as
// requests pass through the pipeline.
type Stage struct {
	collector *Collector
	clock     ports.Clock
}

var _ ports.Middleware = (*Stage)(nil)

func NewStage(collector *Collector, clock ports.Clock) *Stage {
	return &Stage{collector: collector, clock: clock}
}

func (s *Stage) Name() string { return "metrics" }

func (s *Stage) Execute(ctx context.Context, dctx *dispatch.Context, req dispatch.Request, next ports.Next) (any, error) {
	contract := req.Contract()
	s.collector.DispatchInFlight.Inc()
	start := s.clock.Now()

	result, err := next(ctx)

	s.collector.DispatchInFlight.Dec()
	s.collector.DispatchDuration.WithLabelValues(contract).
		Observe(s.clock.Now().Sub(start).Seconds())

	outcome := "ok"
	switch {
	case err == nil:
	case dctx.GetBool(dispatch.MetaQueued):
		outcome = "queued"
		s.collector.QueuedTotal.WithLabelValues(contract).Inc()
		s.collector.QueueDepth.Inc()
	default:
		outcome = "error"
	}
	s.collector.DispatchTotal.WithLabelValues(contract, outcome).Inc()

	if dctx.GetBool(dispatch.MetaServedFromCache) {
		s.collector.CacheHits.WithLabelValues(contract).Inc()
	} else {
		s.collector.CacheMisses.WithLabelValues(contract).Inc()
	}
	if dctx.GetBool(dispatch.MetaReplay) {
		if err == nil {
			s.collector.ReplayedTotal.WithLabelValues(contract).Inc()
			s.collector.QueueDepth.Dec()
		} else if queue.Classify(err) == queue.Permanent {
			// The replayer drops the entry, so the gauge follows.
			s.collector.QueueDepth.Dec()
		}
	}

	return result, err
}
