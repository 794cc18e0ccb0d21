package agents

import (
	"context"

	"github.com/tmc/langchaingo/llms"
	"github.com/tripweaver-ai/tripflow"
)

// DefaultOrigin is used when no user origin is known.
// TODO: derive the origin from user profile data once the request carries it.
const DefaultOrigin = "Current Location"

// Default returns handlers for all nine pipeline stages, backed by the
// in-process static services. The model may be nil, in which case handlers
// produce their payloads without natural-language recommendations.
func Default(model llms.Model) []tripflow.StageHandler {
	calendar := &MemoryCalendar{}
	return []tripflow.StageHandler{
		NewWeatherHandler(&StaticForecaster{}, model),
		NewRouteHandler(NewStaticRouter(), model),
		NewEventsHandler(&StaticEventFinder{}, model),
		NewBudgetHandler(model),
		NewItineraryHandler(model),
		NewFlightsHandler(&StaticFlightSearcher{}, model),
		NewTrainsHandler(&StaticTrainSearcher{}, model),
		NewCalendarHandler(calendar),
		NewSummaryHandler(),
	}
}

// recommend asks the model for a short recommendation. A nil model yields an
// empty string; a model error fails the stage.
func recommend(ctx context.Context, model llms.Model, prompt string) (string, error) {
	if model == nil {
		return "", nil
	}
	return llms.GenerateFromSinglePrompt(ctx, model, prompt)
}

// preferenceStrings extracts a string-list preference from the request,
// tolerating both []string and []any shapes.
func preferenceStrings(req tripflow.TripRequest, key string) []string {
	if req.Preferences == nil {
		return nil
	}
	switch v := req.Preferences[key].(type) {
	case []string:
		return v
	case []any:
		var out []string
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
