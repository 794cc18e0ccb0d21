package tripflow

import "time"

// OutcomeStatus is the domain-level status a stage handler reports. It is
// informational to callers and never used for control flow.
type OutcomeStatus string

const (
	// StatusCompleted indicates normal success.
	StatusCompleted OutcomeStatus = "completed"

	// StatusSkipped indicates the handler determined its work was not
	// applicable, e.g. a rail search for a route with no rail link.
	StatusSkipped OutcomeStatus = "skipped"

	// StatusWarning indicates partial success, e.g. a calendar sync that
	// wrote some but not all reminders.
	StatusWarning OutcomeStatus = "warning"

	// StatusPartial indicates a result that covers part of the requested
	// work but is still usable downstream.
	StatusPartial OutcomeStatus = "partial"

	// StatusError indicates the handler failed.
	StatusError OutcomeStatus = "error"
)

// AgentOutcome records one stage attempt: which stage ran, how it finished,
// and the payload it produced. Successful attempts append exactly one outcome
// to the planning state in execution order.
type AgentOutcome struct {
	Stage     Stage          `json:"stage"`
	Status    OutcomeStatus  `json:"status"`
	Data      map[string]any `json:"data"`
	Timestamp time.Time      `json:"timestamp"`

	// NextStages is an informational suggestion from the handler. The
	// executor ignores it: the pipeline order is fixed.
	NextStages []Stage `json:"next_stages,omitempty"`
}

// NewOutcome returns an AgentOutcome for the given stage and status, stamped
// with the current time.
func NewOutcome(stage Stage, status OutcomeStatus, data map[string]any) *AgentOutcome {
	return &AgentOutcome{
		Stage:     stage,
		Status:    status,
		Data:      data,
		Timestamp: time.Now(),
	}
}

// Copy returns a shallow copy of the outcome.
func (o *AgentOutcome) Copy() *AgentOutcome {
	out := &AgentOutcome{
		Stage:     o.Stage,
		Status:    o.Status,
		Data:      copyMap(o.Data),
		Timestamp: o.Timestamp,
	}
	if len(o.NextStages) > 0 {
		out.NextStages = make([]Stage, len(o.NextStages))
		copy(out.NextStages, o.NextStages)
	}
	return out
}
