package tripflow

import (
	"context"
	"time"
)

// RunCallbacks defines the callback interface for run execution events.
type RunCallbacks interface {

	// Run-level callbacks
	BeforeRun(ctx context.Context, event *RunEvent)
	AfterRun(ctx context.Context, event *RunEvent)

	// Stage-level callbacks
	BeforeStage(ctx context.Context, event *StageEvent)
	AfterStage(ctx context.Context, event *StageEvent)
}

// RunEvent provides context for run-level execution events.
type RunEvent struct {
	ThreadID    string
	Destination string
	Status      string
	StartTime   time.Time
	EndTime     time.Time
	Duration    time.Duration
	Completed   []Stage
	Errors      []string
}

// StageEvent provides context for stage-level execution events.
type StageEvent struct {
	ThreadID  string
	Stage     Stage
	Status    OutcomeStatus
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
	Payload   map[string]any
	Error     error
}

// BaseRunCallbacks provides a default implementation that does nothing.
// Embed it to implement only the callbacks you care about.
type BaseRunCallbacks struct{}

func (n *BaseRunCallbacks) BeforeRun(ctx context.Context, event *RunEvent) {
	// noop
}

func (n *BaseRunCallbacks) AfterRun(ctx context.Context, event *RunEvent) {
	// noop
}

func (n *BaseRunCallbacks) BeforeStage(ctx context.Context, event *StageEvent) {
	// noop
}

func (n *BaseRunCallbacks) AfterStage(ctx context.Context, event *StageEvent) {
	// noop
}

// CallbackChain fans events out to multiple callback implementations.
type CallbackChain struct {
	callbacks []RunCallbacks
}

// NewCallbackChain creates a new callback chain.
func NewCallbackChain(callbacks ...RunCallbacks) *CallbackChain {
	return &CallbackChain{callbacks: callbacks}
}

// Add adds a callback to the chain.
func (c *CallbackChain) Add(callback RunCallbacks) {
	c.callbacks = append(c.callbacks, callback)
}

func (c *CallbackChain) BeforeRun(ctx context.Context, event *RunEvent) {
	for _, callback := range c.callbacks {
		callback.BeforeRun(ctx, event)
	}
}

func (c *CallbackChain) AfterRun(ctx context.Context, event *RunEvent) {
	for _, callback := range c.callbacks {
		callback.AfterRun(ctx, event)
	}
}

func (c *CallbackChain) BeforeStage(ctx context.Context, event *StageEvent) {
	for _, callback := range c.callbacks {
		callback.BeforeStage(ctx, event)
	}
}

func (c *CallbackChain) AfterStage(ctx context.Context, event *StageEvent) {
	for _, callback := range c.callbacks {
		callback.AfterStage(ctx, event)
	}
}
