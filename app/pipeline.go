package app

import (
	"context"

	"github.com/artpar/relay/domain/dispatch"
	"github.com/artpar/relay/ports"
)

// Pipeline composes middleware stages around a terminal handler. Stages
// are fixed at construction: the first stage added is the outermost layer,
// so it sees the request first and the result last.
type Pipeline struct {
	stages []ports.Middleware
}

func NewPipeline(stages ...ports.Middleware) *Pipeline {
	return &Pipeline{stages: stages}
}

// Stages returns the stage names in execution order, for introspection
// and logging.
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}

// Run executes the request through every stage and finally the handler.
// A stage that returns without calling next short-circuits the stages
// beneath it; the stages above it still observe the result on the way out.
func (p *Pipeline) Run(ctx context.Context, dctx *dispatch.Context, req dispatch.Request, h ports.Handler) (any, error) {
	next := ports.Next(func(ctx context.Context) (any, error) {
		return h.Handle(ctx, dctx, req)
	})
	for i := len(p.stages) - 1; i >= 0; i-- {
		stage := p.stages[i]
		inner := next
		next = func(ctx context.Context) (any, error) {
			return stage.Execute(ctx, dctx, req, inner)
		}
	}
	return next(ctx)
}
