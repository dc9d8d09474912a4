package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/artpar/relay/domain/dispatch"
	"github.com/artpar/relay/ports"
)

// LoggingStage logs every dispatch with its contract, trace ID, outcome
// and duration. Cache hits and queued requests are tagged from the
// dispatch context metadata the inner stages set.
type LoggingStage struct {
	log   zerolog.Logger
	clock ports.Clock
}

var _ ports.Middleware = (*LoggingStage)(nil)

func NewLoggingStage(log zerolog.Logger, clock ports.Clock) *LoggingStage {
	return &LoggingStage{log: log, clock: clock}
}

func (s *LoggingStage) Name() string { return "logging" }

func (s *LoggingStage) Execute(ctx context.Context, dctx *dispatch.Context, req dispatch.Request, next ports.Next) (any, error) {
	start := s.clock.Now()
	s.log.Debug().
		Str("contract", req.Contract()).
		Str("trace_id", dctx.TraceID).
		Msg("dispatch started")

	result, err := next(ctx)

	evt := s.log.Info()
	if err != nil {
		evt = s.log.Warn().Err(err)
	}
	evt.
		Str("contract", req.Contract()).
		Str("trace_id", dctx.TraceID).
		Dur("duration", s.clock.Now().Sub(start).Round(time.Microsecond)).
		Bool("cached", dctx.GetBool(dispatch.MetaServedFromCache)).
		Bool("queued", dctx.GetBool(dispatch.MetaQueued)).
		Bool("replay", dctx.GetBool(dispatch.MetaReplay)).
		Msg("dispatch finished")

	return result, err
}
