package agents

import (
	"context"
	"fmt"
	"time"

	"github.com/tripweaver-ai/tripflow"
)

// SummaryHandler is the terminal stage: it folds every accumulated field into
// one trip summary. It performs no external calls, so in the base design it
// does not fail independently.
type SummaryHandler struct{}

func NewSummaryHandler() *SummaryHandler {
	return &SummaryHandler{}
}

func (h *SummaryHandler) Stage() tripflow.Stage {
	return tripflow.StageSummary
}

func (h *SummaryHandler) Handle(ctx context.Context, state tripflow.StateView) (map[string]any, *tripflow.AgentOutcome, error) {
	req := state.Request()

	completed := state.CompletedStages()
	completedNames := make([]string, len(completed))
	for i, stage := range completed {
		completedNames[i] = stage.String()
	}

	payload := map[string]any{
		"trip_overview": map[string]any{
			"destination": req.Destination,
			"dates": fmt.Sprintf("%s to %s",
				req.StartDate.Format(time.DateOnly), req.EndDate.Format(time.DateOnly)),
			"budget": req.Budget,
			"nights": req.Nights(),
		},
		"weather_summary":   state.StageData(tripflow.StageWeather),
		"route_summary":     state.StageData(tripflow.StageRoute),
		"events_summary":    state.StageData(tripflow.StageEvents),
		"budget_summary":    state.StageData(tripflow.StageBudget),
		"itinerary_summary": state.StageData(tripflow.StageItinerary),
		"flight_summary":    state.StageData(tripflow.StageFlights),
		"train_summary":     state.StageData(tripflow.StageTrains),
		"calendar_summary":  state.StageData(tripflow.StageCalendar),
		"agent_count":       len(state.Outcomes()),
		"completed_stages":  completedNames,
		"error_count":       len(state.Errors()),
		"status":            "completed",
	}

	outcome := tripflow.NewOutcome(tripflow.StageSummary, tripflow.StatusCompleted, payload)
	return payload, outcome, nil
}
