package agents

import (
	"context"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tripweaver-ai/tripflow"
)

// ItineraryHandler builds a day-by-day plan from the trip window and whatever
// the earlier stages produced.
type ItineraryHandler struct {
	model llms.Model
}

func NewItineraryHandler(model llms.Model) *ItineraryHandler {
	return &ItineraryHandler{model: model}
}

func (h *ItineraryHandler) Stage() tripflow.Stage {
	return tripflow.StageItinerary
}

func (h *ItineraryHandler) Handle(ctx context.Context, state tripflow.StateView) (map[string]any, *tripflow.AgentOutcome, error) {
	req := state.Request()
	days := req.Nights() + 1

	eventNames := upstreamEventNames(state)

	var plan []map[string]any
	for day := 1; day <= days; day++ {
		date := req.StartDate.AddDate(0, 0, day-1)
		entry := map[string]any{
			"day":     day,
			"date":    date.Format(time.DateOnly),
			"morning": fmt.Sprintf("Explore %s", req.Destination),
			"evening": "Dinner near accommodation",
		}
		switch {
		case day == 1:
			entry["morning"] = "Arrival and check-in"
		case day == days:
			entry["evening"] = "Pack and depart"
		}
		if len(eventNames) > 0 {
			entry["afternoon"] = eventNames[(day-1)%len(eventNames)]
		} else {
			entry["afternoon"] = "Free time"
		}
		plan = append(plan, entry)
	}

	payload := map[string]any{
		"days": days,
		"plan": plan,
	}

	prompt := fmt.Sprintf(
		"A traveler spends %d days in %s with these activities available: %v. "+
			"In two sentences, suggest how to pace the trip.",
		days, req.Destination, eventNames)
	rec, err := recommend(ctx, h.model, prompt)
	if err != nil {
		return nil, nil, fmt.Errorf("itinerary recommendations: %w", err)
	}
	if rec != "" {
		payload["recommendations"] = rec
	}

	outcome := tripflow.NewOutcome(tripflow.StageItinerary, tripflow.StatusCompleted, payload)
	outcome.NextStages = []tripflow.Stage{tripflow.StageFlights}
	return payload, outcome, nil
}

// upstreamEventNames pulls event names from the events stage data, tolerating
// an empty field after an events failure.
func upstreamEventNames(state tripflow.StateView) []string {
	events := state.StageData(tripflow.StageEvents)
	if len(events) == 0 {
		return nil
	}
	switch names := events["event_names"].(type) {
	case []string:
		return names
	case []any:
		var out []string
		for _, name := range names {
			if s, ok := name.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
