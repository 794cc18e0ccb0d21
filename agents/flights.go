package agents

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tripweaver-ai/tripflow"
)

// drivingDistanceKM is the route distance below which a flight search is not
// worth attempting.
const drivingDistanceKM = 300

// FlightsHandler recommends flights to the destination. Short routes are
// skipped rather than searched.
type FlightsHandler struct {
	searcher FlightSearcher
	model    llms.Model
}

func NewFlightsHandler(searcher FlightSearcher, model llms.Model) *FlightsHandler {
	return &FlightsHandler{searcher: searcher, model: model}
}

func (h *FlightsHandler) Stage() tripflow.Stage {
	return tripflow.StageFlights
}

func (h *FlightsHandler) Handle(ctx context.Context, state tripflow.StateView) (map[string]any, *tripflow.AgentOutcome, error) {
	req := state.Request()

	// The route stage may have failed; in that case the distance is unknown
	// and the search proceeds.
	if route := state.StageData(tripflow.StageRoute); len(route) > 0 {
		if distance, ok := route["distance_km"].(float64); ok && distance < drivingDistanceKM {
			payload := map[string]any{
				"reason":      fmt.Sprintf("route is %.0f km, within driving distance", distance),
				"flights":     []map[string]any{},
				"search_done": false,
			}
			outcome := tripflow.NewOutcome(tripflow.StageFlights, tripflow.StatusSkipped, payload)
			outcome.NextStages = []tripflow.Stage{tripflow.StageTrains}
			return payload, outcome, nil
		}
	}

	options, err := h.searcher.SearchFlights(ctx, DefaultOrigin, req.Destination, req.StartDate)
	if err != nil {
		return nil, nil, fmt.Errorf("flight search: %w", err)
	}

	flights := make([]map[string]any, len(options))
	for i, option := range options {
		flights[i] = map[string]any{
			"airline":   option.Airline,
			"departure": option.Departure,
			"price":     option.Price,
			"stops":     option.Stops,
		}
	}

	payload := map[string]any{
		"flights":     flights,
		"search_done": true,
	}

	prompt := fmt.Sprintf(
		"These flights to %s are available: %v. "+
			"In one sentence, recommend the best value option.",
		req.Destination, flights)
	rec, err := recommend(ctx, h.model, prompt)
	if err != nil {
		return nil, nil, fmt.Errorf("flight recommendations: %w", err)
	}
	if rec != "" {
		payload["recommendations"] = rec
	}

	outcome := tripflow.NewOutcome(tripflow.StageFlights, tripflow.StatusCompleted, payload)
	outcome.NextStages = []tripflow.Stage{tripflow.StageTrains}
	return payload, outcome, nil
}
