package tripflow

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestAuditLog(t *testing.T) *SQLiteAuditLog {
	t.Helper()
	log, err := NewSQLiteAuditLog(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { log.Close() })
	return log
}

func TestSQLiteAuditLogOutcomes(t *testing.T) {
	ctx := context.Background()
	log := newTestAuditLog(t)

	t.Run("empty history", func(t *testing.T) {
		outcomes, err := log.OutcomeHistory(ctx, "thread-1")
		require.NoError(t, err)
		require.Empty(t, outcomes)
	})

	first := &AgentOutcome{
		Stage:     StageWeather,
		Status:    StatusCompleted,
		Data:      map[string]any{"conditions": "sunny", "high_c": 28.0},
		Timestamp: time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC),
	}
	second := &AgentOutcome{
		Stage:     StageTrains,
		Status:    StatusSkipped,
		Data:      map[string]any{"reason": "no rail link"},
		Timestamp: time.Date(2026, 9, 1, 10, 0, 5, 0, time.UTC),
	}
	require.NoError(t, log.RecordOutcome(ctx, "thread-1", first))
	require.NoError(t, log.RecordOutcome(ctx, "thread-1", second))
	require.NoError(t, log.RecordOutcome(ctx, "thread-2", first))

	outcomes, err := log.OutcomeHistory(ctx, "thread-1")
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	require.Equal(t, StageWeather, outcomes[0].Stage)
	require.Equal(t, StatusCompleted, outcomes[0].Status)
	require.Equal(t, first.Data, outcomes[0].Data)
	require.True(t, first.Timestamp.Equal(outcomes[0].Timestamp))

	require.Equal(t, StageTrains, outcomes[1].Stage)
	require.Equal(t, StatusSkipped, outcomes[1].Status)
}

func TestSQLiteAuditLogErrors(t *testing.T) {
	ctx := context.Background()
	log := newTestAuditLog(t)

	record := &ErrorRecord{
		ThreadID:  "thread-1",
		Stage:     StageRoute,
		Message:   "maps unavailable",
		Timestamp: time.Date(2026, 9, 1, 10, 0, 1, 0, time.UTC),
	}
	require.NoError(t, log.RecordError(ctx, record))

	records, err := log.ErrorHistory(ctx, "thread-1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "thread-1", records[0].ThreadID)
	require.Equal(t, StageRoute, records[0].Stage)
	require.Equal(t, "maps unavailable", records[0].Message)
	require.True(t, record.Timestamp.Equal(records[0].Timestamp))

	t.Run("other threads see nothing", func(t *testing.T) {
		records, err := log.ErrorHistory(ctx, "thread-2")
		require.NoError(t, err)
		require.Empty(t, records)
	})
}

func TestSQLiteAuditLogDuringRun(t *testing.T) {
	ctx := context.Background()
	log := newTestAuditLog(t)

	executor, err := NewExecutor(ExecutorOptions{
		Handlers: passingHandlers(failHandler(StageFlights, "amadeus timeout")),
		Audit:    log,
	})
	require.NoError(t, err)

	_, err = executor.Run(ctx, "thread-1", newTestState(t))
	require.NoError(t, err)

	outcomes, err := log.OutcomeHistory(ctx, "thread-1")
	require.NoError(t, err)
	require.Len(t, outcomes, 8)

	records, err := log.ErrorHistory(ctx, "thread-1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, StageFlights, records[0].Stage)
	require.Equal(t, "amadeus timeout", records[0].Message)
}
