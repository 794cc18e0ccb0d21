package tripflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func okHandler(stage Stage) StageHandler {
	return NewHandlerFunc(stage, func(ctx context.Context, state StateView) (map[string]any, *AgentOutcome, error) {
		payload := map[string]any{"stage": stage.String()}
		return payload, NewOutcome(stage, StatusCompleted, payload), nil
	})
}

func failHandler(stage Stage, message string) StageHandler {
	return NewHandlerFunc(stage, func(ctx context.Context, state StateView) (map[string]any, *AgentOutcome, error) {
		return nil, nil, errors.New(message)
	})
}

// passingHandlers returns an all-success handler set, with overrides applied
// by stage.
func passingHandlers(overrides ...StageHandler) []StageHandler {
	byStage := map[Stage]StageHandler{}
	for _, handler := range overrides {
		byStage[handler.Stage()] = handler
	}
	var handlers []StageHandler
	for _, stage := range Stages() {
		if handler, ok := byStage[stage]; ok {
			handlers = append(handlers, handler)
		} else {
			handlers = append(handlers, okHandler(stage))
		}
	}
	return handlers
}

func newTestState(t *testing.T) *PlanningState {
	t.Helper()
	state, err := NewPlanningState(testRequest())
	require.NoError(t, err)
	return state
}

func TestNewExecutorValidation(t *testing.T) {
	t.Run("missing handlers returns error", func(t *testing.T) {
		_, err := NewExecutor(ExecutorOptions{})
		require.Error(t, err)
		require.Contains(t, err.Error(), "handlers are required")
	})

	t.Run("handler for unknown stage is rejected", func(t *testing.T) {
		handlers := append(passingHandlers(), okHandler(Stage("teleport")))
		_, err := NewExecutor(ExecutorOptions{Handlers: handlers})
		require.Error(t, err)
		require.Contains(t, err.Error(), "unknown stage")
	})

	t.Run("duplicate handler is rejected", func(t *testing.T) {
		handlers := append(passingHandlers(), okHandler(StageWeather))
		_, err := NewExecutor(ExecutorOptions{Handlers: handlers})
		require.Error(t, err)
		require.Contains(t, err.Error(), "duplicate handler")
	})

	t.Run("uncovered stage is rejected", func(t *testing.T) {
		_, err := NewExecutor(ExecutorOptions{Handlers: []StageHandler{okHandler(StageWeather)}})
		require.Error(t, err)
		require.Contains(t, err.Error(), "no handler for stage")
	})
}

func TestExecutorAllStagesSucceed(t *testing.T) {
	executor, err := NewExecutor(ExecutorOptions{Handlers: passingHandlers()})
	require.NoError(t, err)

	report, err := executor.Run(context.Background(), "thread-1", newTestState(t))
	require.NoError(t, err)

	require.Equal(t, ReportStatusCompleted, report.Status)
	require.Equal(t, Stages(), report.CompletedStages)
	require.Empty(t, report.Errors)
	require.Equal(t, 9, report.OutcomeCount)
	require.Equal(t, "summary_completed", report.State.CurrentStep)
}

func TestExecutorStageFailureIsIsolated(t *testing.T) {
	executor, err := NewExecutor(ExecutorOptions{
		Handlers: passingHandlers(failHandler(StageWeather, "rate limited")),
	})
	require.NoError(t, err)

	report, err := executor.Run(context.Background(), "thread-1", newTestState(t))
	require.NoError(t, err)

	require.Equal(t, ReportStatusCompleted, report.Status)
	require.Equal(t, []string{"weather error: rate limited"}, report.Errors)
	require.Empty(t, report.State.WeatherData)
	require.Len(t, report.CompletedStages, 8)
	require.NotContains(t, report.CompletedStages, StageWeather)
	require.Equal(t, "summary_completed", report.State.CurrentStep)
}

func TestExecutorStageCountInvariant(t *testing.T) {
	// Every stage contributes exactly one record to exactly one of
	// agent_outcomes and errors, whatever the mix of failures.
	for _, failures := range [][]StageHandler{
		nil,
		{failHandler(StageWeather, "boom")},
		{failHandler(StageRoute, "boom"), failHandler(StageTrains, "boom")},
		{
			failHandler(StageWeather, "boom"), failHandler(StageRoute, "boom"),
			failHandler(StageEvents, "boom"), failHandler(StageBudget, "boom"),
			failHandler(StageItinerary, "boom"), failHandler(StageFlights, "boom"),
			failHandler(StageTrains, "boom"), failHandler(StageCalendar, "boom"),
			failHandler(StageSummary, "boom"),
		},
	} {
		executor, err := NewExecutor(ExecutorOptions{Handlers: passingHandlers(failures...)})
		require.NoError(t, err)

		report, err := executor.Run(context.Background(), "thread-1", newTestState(t))
		require.NoError(t, err)
		require.Equal(t, 9, report.OutcomeCount+len(report.Errors))
	}
}

func TestExecutorAllStagesFailStillCompletes(t *testing.T) {
	var failures []StageHandler
	for _, stage := range Stages() {
		failures = append(failures, failHandler(stage, "down"))
	}
	executor, err := NewExecutor(ExecutorOptions{Handlers: failures})
	require.NoError(t, err)

	report, err := executor.Run(context.Background(), "thread-1", newTestState(t))
	require.NoError(t, err)

	require.Equal(t, ReportStatusCompleted, report.Status)
	require.Empty(t, report.CompletedStages)
	require.Len(t, report.Errors, 9)
	require.Equal(t, "summary_error", report.State.CurrentStep)
}

func TestExecutorNonHalting(t *testing.T) {
	var attempted []Stage
	var mutex sync.Mutex
	record := func(stage Stage) {
		mutex.Lock()
		defer mutex.Unlock()
		attempted = append(attempted, stage)
	}

	var handlers []StageHandler
	for _, stage := range Stages() {
		stage := stage
		handlers = append(handlers, NewHandlerFunc(stage, func(ctx context.Context, state StateView) (map[string]any, *AgentOutcome, error) {
			record(stage)
			if stage == StageWeather || stage == StageBudget {
				return nil, nil, errors.New("down")
			}
			payload := map[string]any{"stage": stage.String()}
			return payload, NewOutcome(stage, StatusCompleted, payload), nil
		}))
	}

	executor, err := NewExecutor(ExecutorOptions{Handlers: handlers})
	require.NoError(t, err)
	_, err = executor.Run(context.Background(), "thread-1", newTestState(t))
	require.NoError(t, err)

	// Every stage was attempted despite the failures, in pipeline order.
	require.Equal(t, Stages(), attempted)
}

func TestExecutorPanicIsIsolated(t *testing.T) {
	panicking := NewHandlerFunc(StageEvents, func(ctx context.Context, state StateView) (map[string]any, *AgentOutcome, error) {
		panic("ticketmaster exploded")
	})
	executor, err := NewExecutor(ExecutorOptions{Handlers: passingHandlers(panicking)})
	require.NoError(t, err)

	report, err := executor.Run(context.Background(), "thread-1", newTestState(t))
	require.NoError(t, err)

	require.Len(t, report.Errors, 1)
	require.Contains(t, report.Errors[0], "events error: handler panicked")
	require.Len(t, report.CompletedStages, 8)
	require.Equal(t, "summary_completed", report.State.CurrentStep)
}

func TestExecutorOutcomeOrder(t *testing.T) {
	executor, err := NewExecutor(ExecutorOptions{Handlers: passingHandlers()})
	require.NoError(t, err)

	report, err := executor.Run(context.Background(), "thread-1", newTestState(t))
	require.NoError(t, err)

	outcomes := report.State.AgentOutcomes
	require.Len(t, outcomes, 9)
	for i, stage := range Stages() {
		require.Equal(t, stage, outcomes[i].Stage)
		if i > 0 {
			require.False(t, outcomes[i].Timestamp.Before(outcomes[i-1].Timestamp))
		}
	}
}

func TestExecutorDefaultsOutcomeWhenHandlerOmitsIt(t *testing.T) {
	silent := NewHandlerFunc(StageWeather, func(ctx context.Context, state StateView) (map[string]any, *AgentOutcome, error) {
		return map[string]any{"conditions": "sunny"}, nil, nil
	})
	executor, err := NewExecutor(ExecutorOptions{Handlers: passingHandlers(silent)})
	require.NoError(t, err)

	report, err := executor.Run(context.Background(), "thread-1", newTestState(t))
	require.NoError(t, err)

	require.Equal(t, StatusCompleted, report.State.AgentOutcomes[0].Status)
	require.Equal(t, StageWeather, report.State.AgentOutcomes[0].Stage)
	require.False(t, report.State.AgentOutcomes[0].Timestamp.IsZero())
}

func TestExecutorCheckpointsEveryStage(t *testing.T) {
	store := NewMemoryCheckpointStore()
	executor, err := NewExecutor(ExecutorOptions{
		Handlers:    passingHandlers(),
		Checkpoints: store,
	})
	require.NoError(t, err)

	_, err = executor.Run(context.Background(), "thread-1", newTestState(t))
	require.NoError(t, err)

	// One initial snapshot plus one per stage.
	history, err := store.History(context.Background(), "thread-1")
	require.NoError(t, err)
	require.Len(t, history, 10)
	require.Equal(t, "starting", history[0].State.CurrentStep)
	require.Equal(t, "summary_completed", history[9].State.CurrentStep)
	for i, checkpoint := range history {
		require.Equal(t, i, checkpoint.Seq)
		require.Equal(t, "thread-1", checkpoint.ThreadID)
		require.Equal(t, fmt.Sprintf("thread-1-%d", i), checkpoint.ID)
	}
}

func TestExecutorCancellationBetweenStages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancelling := NewHandlerFunc(StageEvents, func(ctx context.Context, state StateView) (map[string]any, *AgentOutcome, error) {
		cancel()
		payload := map[string]any{"stage": "events"}
		return payload, NewOutcome(StageEvents, StatusCompleted, payload), nil
	})

	store := NewMemoryCheckpointStore()
	executor, err := NewExecutor(ExecutorOptions{
		Handlers:    passingHandlers(cancelling),
		Checkpoints: store,
	})
	require.NoError(t, err)

	_, err = executor.Run(ctx, "thread-1", newTestState(t))
	require.ErrorIs(t, err, context.Canceled)

	// The run stopped after the stage that cancelled; its merge survived.
	latest, err := store.Latest(context.Background(), "thread-1")
	require.NoError(t, err)
	require.Equal(t, "events_completed", latest.State.CurrentStep)
	require.Equal(t, []Stage{StageWeather, StageRoute, StageEvents}, latest.State.CompletedStages)
}

type failingStore struct {
	NullCheckpointStore
}

func (s *failingStore) Save(ctx context.Context, checkpoint *Checkpoint) error {
	return errors.New("disk full")
}

func TestExecutorPersistenceFailureIsAWarning(t *testing.T) {
	executor, err := NewExecutor(ExecutorOptions{
		Handlers:    passingHandlers(),
		Checkpoints: &failingStore{},
	})
	require.NoError(t, err)

	report, err := executor.Run(context.Background(), "thread-1", newTestState(t))
	require.NoError(t, err)

	// The computed plan is intact; the persistence failures surface as
	// warnings instead of masking it.
	require.Equal(t, ReportStatusCompleted, report.Status)
	require.Len(t, report.CompletedStages, 9)
	require.NotEmpty(t, report.Warnings)
	require.Contains(t, report.Warnings[0], "checkpoint save")
}

type capturingAudit struct {
	NullAuditLog
	mutex    sync.Mutex
	outcomes []*AgentOutcome
	errors   []*ErrorRecord
}

func (l *capturingAudit) RecordOutcome(ctx context.Context, threadID string, outcome *AgentOutcome) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.outcomes = append(l.outcomes, outcome)
	return nil
}

func (l *capturingAudit) RecordError(ctx context.Context, record *ErrorRecord) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.errors = append(l.errors, record)
	return nil
}

func TestExecutorWritesAuditTrail(t *testing.T) {
	audit := &capturingAudit{}
	executor, err := NewExecutor(ExecutorOptions{
		Handlers: passingHandlers(failHandler(StageTrains, "no rail data")),
		Audit:    audit,
	})
	require.NoError(t, err)

	_, err = executor.Run(context.Background(), "thread-1", newTestState(t))
	require.NoError(t, err)

	require.Len(t, audit.outcomes, 8)
	require.Len(t, audit.errors, 1)
	require.Equal(t, StageTrains, audit.errors[0].Stage)
	require.Equal(t, "no rail data", audit.errors[0].Message)
	require.Equal(t, "thread-1", audit.errors[0].ThreadID)
}

type stageRecorder struct {
	BaseRunCallbacks
	mutex  sync.Mutex
	stages []Stage
	runs   int
}

func (r *stageRecorder) BeforeRun(ctx context.Context, event *RunEvent) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.runs++
}

func (r *stageRecorder) AfterRun(ctx context.Context, event *RunEvent) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.runs++
}

func (r *stageRecorder) AfterStage(ctx context.Context, event *StageEvent) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.stages = append(r.stages, event.Stage)
}

func TestExecutorCallbacks(t *testing.T) {
	recorder := &stageRecorder{}
	executor, err := NewExecutor(ExecutorOptions{
		Handlers:  passingHandlers(),
		Callbacks: NewCallbackChain(recorder),
	})
	require.NoError(t, err)

	_, err = executor.Run(context.Background(), "thread-1", newTestState(t))
	require.NoError(t, err)

	require.Equal(t, Stages(), recorder.stages)
	require.Equal(t, 2, recorder.runs) // before + after
}

func TestExecutorRunValidation(t *testing.T) {
	executor, err := NewExecutor(ExecutorOptions{Handlers: passingHandlers()})
	require.NoError(t, err)

	t.Run("empty thread ID", func(t *testing.T) {
		_, err := executor.Run(context.Background(), "", newTestState(t))
		require.Error(t, err)
		require.Contains(t, err.Error(), "thread ID is required")
	})

	t.Run("nil state", func(t *testing.T) {
		_, err := executor.Run(context.Background(), "thread-1", nil)
		require.Error(t, err)
		require.Contains(t, err.Error(), "planning state is required")
	})
}

func TestExecutorReportTiming(t *testing.T) {
	executor, err := NewExecutor(ExecutorOptions{Handlers: passingHandlers()})
	require.NoError(t, err)

	before := time.Now()
	report, err := executor.Run(context.Background(), "thread-1", newTestState(t))
	require.NoError(t, err)

	require.False(t, report.StartTime.Before(before))
	require.False(t, report.EndTime.Before(report.StartTime))
	require.Equal(t, report.EndTime.Sub(report.StartTime), report.Duration)
}
