package tripflow

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.jetify.com/typeid"
)

// NewThreadID returns a new collision-resistant run identifier.
func NewThreadID() string {
	id, err := typeid.WithPrefix("trip")
	if err != nil {
		panic(err)
	}
	return id.String()
}

// CoordinatorOptions configures a new Coordinator.
type CoordinatorOptions struct {
	Pipeline    *Pipeline
	Handlers    []StageHandler
	Checkpoints CheckpointStore
	Audit       AuditLog
	Logger      *slog.Logger
	Callbacks   RunCallbacks
}

// Coordinator is the public entry point for planning runs. Each Plan call is
// one independent run; arbitrarily many may execute concurrently, each with
// its own thread ID and planning state. The checkpoint store is the only
// state shared between runs.
type Coordinator struct {
	executor    *Executor
	checkpoints CheckpointStore
	pipeline    *Pipeline
	logger      *slog.Logger
}

// NewCoordinator creates a new Coordinator.
func NewCoordinator(opts CoordinatorOptions) (*Coordinator, error) {
	if opts.Checkpoints == nil {
		opts.Checkpoints = NewMemoryCheckpointStore()
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	executor, err := NewExecutor(ExecutorOptions{
		Pipeline:    opts.Pipeline,
		Handlers:    opts.Handlers,
		Checkpoints: opts.Checkpoints,
		Audit:       opts.Audit,
		Logger:      opts.Logger,
		Callbacks:   opts.Callbacks,
	})
	if err != nil {
		return nil, err
	}
	return &Coordinator{
		executor:    executor,
		checkpoints: opts.Checkpoints,
		pipeline:    executor.Pipeline(),
		logger:      opts.Logger,
	}, nil
}

// Plan runs the full pipeline for one trip request. A zero threadID gets a
// fresh identifier. The returned error is non-nil only when the initial
// state cannot be constructed or the context is cancelled; per-stage failures
// are reported inside the FinalReport instead.
func (c *Coordinator) Plan(ctx context.Context, request TripRequest, threadID string) (*FinalReport, error) {
	if threadID == "" {
		threadID = NewThreadID()
	}
	state, err := NewPlanningState(request)
	if err != nil {
		c.logger.Error("planning run rejected", "thread_id", threadID, "error", err)
		return nil, err
	}
	return c.executor.Run(ctx, threadID, state)
}

// RunState is what GetState returns for one thread: the latest persisted
// snapshot, the stages not yet attempted, and bookkeeping metadata.
type RunState struct {
	ThreadID   string         `json:"thread_id"`
	State      *StateSnapshot `json:"state"`
	NextStages []Stage        `json:"next_stages"`
	Metadata   RunMetadata    `json:"metadata"`
}

// RunMetadata carries bookkeeping about a persisted run.
type RunMetadata struct {
	LastUpdated      time.Time `json:"last_updated"`
	CheckpointCount  int       `json:"checkpoint_count"`
	LatestCheckpoint string    `json:"latest_checkpoint"`
}

// GetState returns the latest checkpointed state for a thread. NextStages is
// empty once the run has reached the terminal stage.
func (c *Coordinator) GetState(ctx context.Context, threadID string) (*RunState, error) {
	checkpoint, err := c.checkpoints.Latest(ctx, threadID)
	if err != nil {
		return nil, &PersistenceError{Op: "checkpoint load", Err: err}
	}
	if checkpoint == nil {
		return nil, fmt.Errorf("no checkpoints for thread %q", threadID)
	}
	history, err := c.checkpoints.History(ctx, threadID)
	if err != nil {
		return nil, &PersistenceError{Op: "checkpoint history", Err: err}
	}
	return &RunState{
		ThreadID:   threadID,
		State:      checkpoint.State,
		NextStages: c.pipeline.Remaining(checkpoint.State.CurrentStep),
		Metadata: RunMetadata{
			LastUpdated:      checkpoint.SavedAt,
			CheckpointCount:  len(history),
			LatestCheckpoint: checkpoint.ID,
		},
	}, nil
}
