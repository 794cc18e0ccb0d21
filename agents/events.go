package agents

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tripweaver-ai/tripflow"
)

// EventsHandler discovers events and activities at the destination, filtered
// by the user's activity-type preferences.
type EventsHandler struct {
	finder EventFinder
	model  llms.Model
}

func NewEventsHandler(finder EventFinder, model llms.Model) *EventsHandler {
	return &EventsHandler{finder: finder, model: model}
}

func (h *EventsHandler) Stage() tripflow.Stage {
	return tripflow.StageEvents
}

func (h *EventsHandler) Handle(ctx context.Context, state tripflow.StateView) (map[string]any, *tripflow.AgentOutcome, error) {
	req := state.Request()
	categories := preferenceStrings(req, "activity_types")

	events, err := h.finder.FindEvents(ctx, req.Destination, req.StartDate, req.EndDate, categories)
	if err != nil {
		return nil, nil, fmt.Errorf("event discovery: %w", err)
	}

	items := make([]map[string]any, len(events))
	names := make([]string, len(events))
	for i, event := range events {
		items[i] = map[string]any{
			"name":     event.Name,
			"category": event.Category,
			"venue":    event.Venue,
			"price":    event.Price,
		}
		names[i] = event.Name
	}

	payload := map[string]any{
		"events":      items,
		"event_names": names,
		"count":       len(events),
	}

	prompt := fmt.Sprintf(
		"A traveler visiting %s can choose between these activities: %v. "+
			"In two sentences, suggest which ones to prioritize.",
		req.Destination, names)
	rec, err := recommend(ctx, h.model, prompt)
	if err != nil {
		return nil, nil, fmt.Errorf("event recommendations: %w", err)
	}
	if rec != "" {
		payload["recommendations"] = rec
	}

	outcome := tripflow.NewOutcome(tripflow.StageEvents, tripflow.StatusCompleted, payload)
	outcome.NextStages = []tripflow.Stage{tripflow.StageBudget}
	return payload, outcome, nil
}
