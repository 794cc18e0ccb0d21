package tripflow

import (
	"context"
)

// StageHandler performs the work of a single pipeline stage. Handlers receive
// read-only access to the planning state and return a description of their
// update; the executor applies it. Handlers must tolerate missing upstream
// data, since an earlier stage may have failed and left its field empty.
type StageHandler interface {

	// Stage returns the stage this handler owns.
	Stage() Stage

	// Handle produces the payload for the handler's owned field plus an
	// AgentOutcome describing the attempt. A returned error marks the
	// stage as failed; the run continues with the next stage.
	Handle(ctx context.Context, state StateView) (map[string]any, *AgentOutcome, error)
}

// HandlerRegistry maps stage names to their handlers.
type HandlerRegistry map[Stage]StageHandler

// HandlerFunc adapts a function to the StageHandler interface.
type HandlerFunc struct {
	stage Stage
	fn    func(ctx context.Context, state StateView) (map[string]any, *AgentOutcome, error)
}

// NewHandlerFunc creates a new HandlerFunc for the given stage.
func NewHandlerFunc(stage Stage, fn func(ctx context.Context, state StateView) (map[string]any, *AgentOutcome, error)) *HandlerFunc {
	return &HandlerFunc{stage: stage, fn: fn}
}

func (h *HandlerFunc) Stage() Stage {
	return h.stage
}

func (h *HandlerFunc) Handle(ctx context.Context, state StateView) (map[string]any, *AgentOutcome, error) {
	return h.fn(ctx, state)
}
