package tripflow

import "time"

// Checkpoint is a persisted snapshot of one run's planning state, keyed by
// the run's thread ID. Seq orders the checkpoints of a single run.
type Checkpoint struct {
	ID       string         `json:"id"`
	ThreadID string         `json:"thread_id"`
	Seq      int            `json:"seq"`
	State    *StateSnapshot `json:"state"`
	SavedAt  time.Time      `json:"saved_at"`
}

// RunSummary provides a summary view of a persisted run.
type RunSummary struct {
	ThreadID    string    `json:"thread_id"`
	Destination string    `json:"destination"`
	CurrentStep string    `json:"current_step"`
	Completed   int       `json:"completed"`
	Errors      int       `json:"errors"`
	SavedAt     time.Time `json:"saved_at"`
}
