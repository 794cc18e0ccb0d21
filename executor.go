package tripflow

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// ExecutorOptions configures a new Executor.
type ExecutorOptions struct {
	Pipeline    *Pipeline
	Handlers    []StageHandler
	Checkpoints CheckpointStore
	Audit       AuditLog
	Logger      *slog.Logger
	Callbacks   RunCallbacks
}

// Executor walks the pipeline for one run at a time, merging each stage's
// result into the planning state. The pipeline is fail-soft: a stage error is
// recorded and the walk continues, so every run reaches the terminal stage.
// An Executor holds no per-run state and may drive many concurrent runs.
type Executor struct {
	pipeline    *Pipeline
	handlers    HandlerRegistry
	checkpoints CheckpointStore
	audit       AuditLog
	logger      *slog.Logger
	callbacks   RunCallbacks
}

// NewExecutor creates a new Executor.
func NewExecutor(opts ExecutorOptions) (*Executor, error) {
	if len(opts.Handlers) == 0 {
		return nil, fmt.Errorf("handlers are required")
	}
	if opts.Pipeline == nil {
		opts.Pipeline = DefaultPipeline()
	}
	if opts.Checkpoints == nil {
		opts.Checkpoints = NewNullCheckpointStore()
	}
	if opts.Audit == nil {
		opts.Audit = NewNullAuditLog()
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Callbacks == nil {
		opts.Callbacks = &BaseRunCallbacks{}
	}

	handlers := make(HandlerRegistry, len(opts.Handlers))
	for _, handler := range opts.Handlers {
		stage := handler.Stage()
		if !opts.Pipeline.Contains(stage) {
			return nil, fmt.Errorf("handler for unknown stage %q", stage)
		}
		if _, ok := handlers[stage]; ok {
			return nil, fmt.Errorf("duplicate handler for stage %q", stage)
		}
		handlers[stage] = handler
	}
	for _, stage := range opts.Pipeline.Stages() {
		if _, ok := handlers[stage]; !ok {
			return nil, fmt.Errorf("no handler for stage %q", stage)
		}
	}

	return &Executor{
		pipeline:    opts.Pipeline,
		handlers:    handlers,
		checkpoints: opts.Checkpoints,
		audit:       opts.Audit,
		logger:      opts.Logger,
		callbacks:   opts.Callbacks,
	}, nil
}

// Pipeline returns the pipeline this executor walks.
func (e *Executor) Pipeline() *Pipeline {
	return e.pipeline
}

// run holds the bookkeeping for one in-flight run. Runs never share state, so
// concurrent runs with distinct thread IDs cannot observe each other.
type run struct {
	threadID string
	state    *PlanningState
	logger   *slog.Logger
	seq      int
	warnings []string
}

// Run drives the planning state through every pipeline stage in order and
// returns the final report. The only error returned is context cancellation
// between stages; stage failures are folded into the state instead.
func (e *Executor) Run(ctx context.Context, threadID string, state *PlanningState) (*FinalReport, error) {
	if threadID == "" {
		return nil, fmt.Errorf("thread ID is required")
	}
	if state == nil {
		return nil, fmt.Errorf("planning state is required")
	}

	r := &run{
		threadID: threadID,
		state:    state,
		logger:   e.logger.With("thread_id", threadID),
	}
	startTime := time.Now()

	e.callbacks.BeforeRun(ctx, &RunEvent{
		ThreadID:    threadID,
		Destination: state.Request().Destination,
		Status:      "running",
		StartTime:   startTime,
	})
	r.logger.Info("planning run started",
		"destination", state.Request().Destination,
		"stages", e.pipeline.Len())

	// Initial snapshot, then one per settled stage.
	e.saveCheckpoint(ctx, r)

	for _, stage := range e.pipeline.Stages() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		e.runStage(ctx, r, stage)
		e.saveCheckpoint(ctx, r)
	}

	endTime := time.Now()
	report := buildReport(threadID, state.Snapshot(), startTime, endTime, r.warnings)

	e.callbacks.AfterRun(ctx, &RunEvent{
		ThreadID:    threadID,
		Destination: state.Request().Destination,
		Status:      report.Status,
		StartTime:   startTime,
		EndTime:     endTime,
		Duration:    report.Duration,
		Completed:   report.CompletedStages,
		Errors:      report.Errors,
	})
	r.logger.Info("planning run completed",
		"completed_stages", len(report.CompletedStages),
		"errors", len(report.Errors))

	return report, nil
}

// runStage invokes one stage handler and merges its result. Success
// overwrites the stage's owned field and appends an outcome; failure appends
// a formatted error string and leaves the field untouched. Either way the
// walk advances.
func (e *Executor) runStage(ctx context.Context, r *run, stage Stage) {
	startTime := time.Now()
	e.callbacks.BeforeStage(ctx, &StageEvent{
		ThreadID:  r.threadID,
		Stage:     stage,
		StartTime: startTime,
	})

	payload, outcome, err := e.invoke(ctx, e.handlers[stage], r.state)
	endTime := time.Now()

	event := &StageEvent{
		ThreadID:  r.threadID,
		Stage:     stage,
		StartTime: startTime,
		EndTime:   endTime,
		Duration:  endTime.Sub(startTime),
	}

	if err != nil {
		r.state.applyFailure(stage, err)
		r.logger.Warn("stage failed", "stage", stage, "error", err)

		record := &ErrorRecord{
			ThreadID:  r.threadID,
			Stage:     stage,
			Message:   err.Error(),
			Timestamp: endTime,
		}
		if auditErr := e.audit.RecordError(ctx, record); auditErr != nil {
			r.warn(&PersistenceError{Op: "audit error record", Err: auditErr})
			r.logger.Error("failed to record error", "stage", stage, "error", auditErr)
		}

		event.Status = StatusError
		event.Error = err
	} else {
		if outcome == nil {
			outcome = NewOutcome(stage, StatusCompleted, payload)
		}
		if outcome.Timestamp.IsZero() {
			outcome.Timestamp = endTime
		}
		r.state.applySuccess(stage, payload, outcome)
		r.logger.Info("stage completed", "stage", stage, "status", outcome.Status)

		if auditErr := e.audit.RecordOutcome(ctx, r.threadID, outcome); auditErr != nil {
			r.warn(&PersistenceError{Op: "audit outcome record", Err: auditErr})
			r.logger.Error("failed to record outcome", "stage", stage, "error", auditErr)
		}

		event.Status = outcome.Status
		event.Payload = payload
	}

	e.callbacks.AfterStage(ctx, event)
}

// invoke calls a handler, converting a panic into a returned error so a
// misbehaving handler is isolated like any other stage failure.
func (e *Executor) invoke(ctx context.Context, handler StageHandler, state StateView) (payload map[string]any, outcome *AgentOutcome, err error) {
	defer func() {
		if p := recover(); p != nil {
			payload, outcome = nil, nil
			err = fmt.Errorf("handler panicked: %v", p)
		}
	}()
	return handler.Handle(ctx, state)
}

// saveCheckpoint persists the current state. A failed save is reported as a
// warning on the final report and never aborts the run.
func (e *Executor) saveCheckpoint(ctx context.Context, r *run) {
	checkpoint := &Checkpoint{
		ID:       fmt.Sprintf("%s-%d", r.threadID, r.seq),
		ThreadID: r.threadID,
		Seq:      r.seq,
		State:    r.state.Snapshot(),
		SavedAt:  time.Now(),
	}
	r.seq++
	if err := e.checkpoints.Save(ctx, checkpoint); err != nil {
		r.warn(&PersistenceError{Op: "checkpoint save", Err: err})
		r.logger.Error("failed to save checkpoint", "seq", checkpoint.Seq, "error", err)
	}
}

func (r *run) warn(err error) {
	r.warnings = append(r.warnings, err.Error())
}
