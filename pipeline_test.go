package tripflow

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultPipelineOrder(t *testing.T) {
	p := DefaultPipeline()
	require.Equal(t, []Stage{
		StageWeather,
		StageRoute,
		StageEvents,
		StageBudget,
		StageItinerary,
		StageFlights,
		StageTrains,
		StageCalendar,
		StageSummary,
	}, p.Stages())
	require.Equal(t, StageWeather, p.First())
	require.Equal(t, StageSummary, p.Terminal())
	require.Equal(t, 9, p.Len())
}

func TestPipelineNext(t *testing.T) {
	p := DefaultPipeline()

	next, ok := p.Next(StageWeather)
	require.True(t, ok)
	require.Equal(t, StageRoute, next)

	next, ok = p.Next(StageCalendar)
	require.True(t, ok)
	require.Equal(t, StageSummary, next)

	t.Run("terminal stage has no successor", func(t *testing.T) {
		_, ok := p.Next(StageSummary)
		require.False(t, ok)
	})

	t.Run("unknown stage has no successor", func(t *testing.T) {
		_, ok := p.Next(Stage("bogus"))
		require.False(t, ok)
	})
}

func TestPipelineRemaining(t *testing.T) {
	p := DefaultPipeline()

	t.Run("before any stage", func(t *testing.T) {
		require.Equal(t, p.Stages(), p.Remaining("starting"))
		require.Equal(t, p.Stages(), p.Remaining(""))
	})

	t.Run("after a completed stage", func(t *testing.T) {
		remaining := p.Remaining("route_completed")
		require.Equal(t, []Stage{
			StageEvents, StageBudget, StageItinerary, StageFlights,
			StageTrains, StageCalendar, StageSummary,
		}, remaining)
	})

	t.Run("errors advance the same way", func(t *testing.T) {
		require.Equal(t, p.Remaining("route_completed"), p.Remaining("route_error"))
	})

	t.Run("terminal stage leaves nothing", func(t *testing.T) {
		require.Empty(t, p.Remaining("summary_completed"))
		require.Empty(t, p.Remaining("summary_error"))
	})
}

func TestInvalidPipelines(t *testing.T) {
	t.Run("no stages", func(t *testing.T) {
		_, err := NewPipeline()
		require.Error(t, err)
		require.Contains(t, err.Error(), "at least one stage")
	})

	t.Run("empty stage name", func(t *testing.T) {
		_, err := NewPipeline(StageWeather, Stage(""))
		require.Error(t, err)
		require.Contains(t, err.Error(), "stage name required")
	})

	t.Run("duplicate stage", func(t *testing.T) {
		_, err := NewPipeline(StageWeather, StageWeather)
		require.Error(t, err)
		require.Contains(t, err.Error(), "duplicate stage")
	})
}

func TestStageStepTokens(t *testing.T) {
	require.Equal(t, "weather_completed", StageWeather.CompletedStep())
	require.Equal(t, "weather_error", StageWeather.ErrorStep())
}
