package tripflow

import (
	"context"
	"time"
)

// ErrorRecord is an append-only audit entry for one failed stage attempt,
// persisted separately from the planning state's error list so failures can
// be searched across runs.
type ErrorRecord struct {
	ThreadID  string    `json:"thread_id"`
	Stage     Stage     `json:"stage"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// AuditLog records stage attempts as they settle. Outcome records and error
// records are append-only and tagged with the run's thread ID.
type AuditLog interface {

	// RecordOutcome appends a successful stage outcome.
	RecordOutcome(ctx context.Context, threadID string, outcome *AgentOutcome) error

	// RecordError appends a failed stage attempt.
	RecordError(ctx context.Context, record *ErrorRecord) error

	// OutcomeHistory returns a run's outcome records in insertion order.
	OutcomeHistory(ctx context.Context, threadID string) ([]*AgentOutcome, error)

	// ErrorHistory returns a run's error records in insertion order.
	ErrorHistory(ctx context.Context, threadID string) ([]*ErrorRecord, error)
}

// NullAuditLog is a no-op implementation of AuditLog.
type NullAuditLog struct{}

func NewNullAuditLog() *NullAuditLog {
	return &NullAuditLog{}
}

func (l *NullAuditLog) RecordOutcome(ctx context.Context, threadID string, outcome *AgentOutcome) error {
	return nil
}

func (l *NullAuditLog) RecordError(ctx context.Context, record *ErrorRecord) error {
	return nil
}

func (l *NullAuditLog) OutcomeHistory(ctx context.Context, threadID string) ([]*AgentOutcome, error) {
	return nil, nil
}

func (l *NullAuditLog) ErrorHistory(ctx context.Context, threadID string) ([]*ErrorRecord, error) {
	return nil, nil
}
