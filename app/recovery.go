package app

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/rs/zerolog"

	"github.com/artpar/relay/domain/dispatch"
	"github.com/artpar/relay/ports"
)

// RecoveryStage converts panics in inner stages and handlers into
// errors, so one misbehaving handler cannot take down the caller or, on
// event dispatch, the remaining subscribers.
type RecoveryStage struct {
	log zerolog.Logger
}

var _ ports.Middleware = (*RecoveryStage)(nil)

func NewRecoveryStage(log zerolog.Logger) *RecoveryStage {
	return &RecoveryStage{log: log}
}

func (s *RecoveryStage) Name() string { return "recovery" }

func (s *RecoveryStage) Execute(ctx context.Context, dctx *dispatch.Context, req dispatch.Request, next ports.Next) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().
				Str("contract", req.Contract()).
				Str("trace_id", dctx.TraceID).
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("handler panicked")
			result = nil
			err = fmt.Errorf("handler for %q panicked: %v", req.Contract(), r)
		}
	}()
	return next(ctx)
}
