package agents

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tripweaver-ai/tripflow"
)

// RouteHandler plans how to reach the destination.
type RouteHandler struct {
	router Router
	model  llms.Model
}

func NewRouteHandler(router Router, model llms.Model) *RouteHandler {
	return &RouteHandler{router: router, model: model}
}

func (h *RouteHandler) Stage() tripflow.Stage {
	return tripflow.StageRoute
}

func (h *RouteHandler) Handle(ctx context.Context, state tripflow.StateView) (map[string]any, *tripflow.AgentOutcome, error) {
	req := state.Request()

	route, err := h.router.Route(ctx, DefaultOrigin, req.Destination)
	if err != nil {
		return nil, nil, fmt.Errorf("route planning: %w", err)
	}

	payload := map[string]any{
		"origin":      route.Origin,
		"destination": req.Destination,
		"distance_km": route.Distance,
		"travel_time": route.TravelTime,
		"modes":       route.Modes,
		"rail_link":   route.RailLink,
	}

	// Weather is advisory only; the route is planned either way.
	if weather := state.StageData(tripflow.StageWeather); len(weather) > 0 {
		payload["conditions_note"] = weather["conditions"]
	}

	prompt := fmt.Sprintf(
		"A traveler is going from %s to %s (%.0f km, %s). "+
			"In two sentences, recommend the best transport mode among %v.",
		route.Origin, req.Destination, route.Distance, route.TravelTime, route.Modes)
	rec, err := recommend(ctx, h.model, prompt)
	if err != nil {
		return nil, nil, fmt.Errorf("route recommendations: %w", err)
	}
	if rec != "" {
		payload["recommendations"] = rec
	}

	outcome := tripflow.NewOutcome(tripflow.StageRoute, tripflow.StatusCompleted, payload)
	outcome.NextStages = []tripflow.Stage{tripflow.StageEvents}
	return payload, outcome, nil
}
