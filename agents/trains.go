package agents

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tripweaver-ai/tripflow"
)

// TrainsHandler recommends rail connections. Routes without a rail link are
// skipped.
type TrainsHandler struct {
	searcher TrainSearcher
	model    llms.Model
}

func NewTrainsHandler(searcher TrainSearcher, model llms.Model) *TrainsHandler {
	return &TrainsHandler{searcher: searcher, model: model}
}

func (h *TrainsHandler) Stage() tripflow.Stage {
	return tripflow.StageTrains
}

func (h *TrainsHandler) Handle(ctx context.Context, state tripflow.StateView) (map[string]any, *tripflow.AgentOutcome, error) {
	req := state.Request()

	// An unknown rail link (route stage failed) is treated as searchable.
	if route := state.StageData(tripflow.StageRoute); len(route) > 0 {
		if railLink, ok := route["rail_link"].(bool); ok && !railLink {
			payload := map[string]any{
				"reason":      "no rail link to destination",
				"trains":      []map[string]any{},
				"search_done": false,
			}
			outcome := tripflow.NewOutcome(tripflow.StageTrains, tripflow.StatusSkipped, payload)
			outcome.NextStages = []tripflow.Stage{tripflow.StageCalendar}
			return payload, outcome, nil
		}
	}

	options, err := h.searcher.SearchTrains(ctx, DefaultOrigin, req.Destination, req.StartDate)
	if err != nil {
		return nil, nil, fmt.Errorf("train search: %w", err)
	}

	trains := make([]map[string]any, len(options))
	for i, option := range options {
		trains[i] = map[string]any{
			"operator":  option.Operator,
			"departure": option.Departure,
			"price":     option.Price,
			"duration":  option.Duration,
		}
	}

	payload := map[string]any{
		"trains":      trains,
		"search_done": true,
	}

	prompt := fmt.Sprintf(
		"These trains to %s are available: %v. "+
			"In one sentence, recommend one considering price and duration.",
		req.Destination, trains)
	rec, err := recommend(ctx, h.model, prompt)
	if err != nil {
		return nil, nil, fmt.Errorf("train recommendations: %w", err)
	}
	if rec != "" {
		payload["recommendations"] = rec
	}

	outcome := tripflow.NewOutcome(tripflow.StageTrains, tripflow.StatusCompleted, payload)
	outcome.NextStages = []tripflow.Stage{tripflow.StageCalendar}
	return payload, outcome, nil
}
