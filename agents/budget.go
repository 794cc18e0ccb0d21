package agents

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tripweaver-ai/tripflow"
)

// Budget allocation shares across spending categories.
const (
	shareAccommodation  = 0.40
	shareTransportation = 0.25
	shareFood           = 0.20
	shareActivities     = 0.10
	shareMiscellaneous  = 0.05
)

// BudgetHandler breaks the trip budget down across spending categories.
type BudgetHandler struct {
	model llms.Model
}

func NewBudgetHandler(model llms.Model) *BudgetHandler {
	return &BudgetHandler{model: model}
}

func (h *BudgetHandler) Stage() tripflow.Stage {
	return tripflow.StageBudget
}

func (h *BudgetHandler) Handle(ctx context.Context, state tripflow.StateView) (map[string]any, *tripflow.AgentOutcome, error) {
	req := state.Request()

	breakdown := map[string]any{
		"accommodation":  req.Budget * shareAccommodation,
		"transportation": req.Budget * shareTransportation,
		"food":           req.Budget * shareFood,
		"activities":     req.Budget * shareActivities,
		"miscellaneous":  req.Budget * shareMiscellaneous,
	}

	payload := map[string]any{
		"total_budget": req.Budget,
		"breakdown":    breakdown,
		"nights":       req.Nights(),
	}
	if nights := req.Nights(); nights > 0 {
		payload["per_night_accommodation"] = req.Budget * shareAccommodation / float64(nights)
	}

	// Fold in known activity prices when the events stage produced any.
	if events := state.StageData(tripflow.StageEvents); len(events) > 0 {
		if items, ok := events["events"].([]map[string]any); ok {
			var total float64
			for _, item := range items {
				if price, ok := item["price"].(float64); ok {
					total += price
				}
			}
			payload["known_activity_cost"] = total
		}
	}

	prompt := fmt.Sprintf(
		"A traveler has %.0f total for a %d-night trip to %s. "+
			"In two sentences, comment on whether the budget is comfortable and where to save.",
		req.Budget, req.Nights(), req.Destination)
	rec, err := recommend(ctx, h.model, prompt)
	if err != nil {
		return nil, nil, fmt.Errorf("budget recommendations: %w", err)
	}
	if rec != "" {
		payload["recommendations"] = rec
	}

	outcome := tripflow.NewOutcome(tripflow.StageBudget, tripflow.StatusCompleted, payload)
	outcome.NextStages = []tripflow.Stage{tripflow.StageItinerary}
	return payload, outcome, nil
}
