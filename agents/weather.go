package agents

import (
	"context"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tripweaver-ai/tripflow"
)

// WeatherHandler analyzes expected weather for the trip window.
type WeatherHandler struct {
	forecaster Forecaster
	model      llms.Model
}

func NewWeatherHandler(forecaster Forecaster, model llms.Model) *WeatherHandler {
	return &WeatherHandler{forecaster: forecaster, model: model}
}

func (h *WeatherHandler) Stage() tripflow.Stage {
	return tripflow.StageWeather
}

func (h *WeatherHandler) Handle(ctx context.Context, state tripflow.StateView) (map[string]any, *tripflow.AgentOutcome, error) {
	req := state.Request()

	forecast, err := h.forecaster.Forecast(ctx, req.Destination, req.StartDate, req.EndDate)
	if err != nil {
		return nil, nil, fmt.Errorf("forecast lookup: %w", err)
	}

	payload := map[string]any{
		"location":             forecast.Location,
		"conditions":           forecast.Conditions,
		"temperature_range":    map[string]any{"min": forecast.TempMin, "max": forecast.TempMax},
		"precipitation_chance": forecast.PrecipitationChance,
	}

	prompt := fmt.Sprintf(
		"The forecast for %s between %s and %s is %s with temperatures %.0f-%.0f C. "+
			"In two sentences, suggest what to pack and which days suit outdoor plans.",
		req.Destination,
		req.StartDate.Format(time.DateOnly), req.EndDate.Format(time.DateOnly),
		forecast.Conditions, forecast.TempMin, forecast.TempMax)
	rec, err := recommend(ctx, h.model, prompt)
	if err != nil {
		return nil, nil, fmt.Errorf("weather recommendations: %w", err)
	}
	if rec != "" {
		payload["recommendations"] = rec
	}

	outcome := tripflow.NewOutcome(tripflow.StageWeather, tripflow.StatusCompleted, payload)
	outcome.NextStages = []tripflow.Stage{tripflow.StageRoute}
	return payload, outcome, nil
}
