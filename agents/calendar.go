package agents

import (
	"context"
	"fmt"

	"github.com/tripweaver-ai/tripflow"
)

// CalendarHandler writes trip reminders to the user's calendar: one departure
// reminder plus one entry per itinerary day. Partial writes degrade to a
// warning outcome instead of failing the stage.
type CalendarHandler struct {
	client CalendarClient
}

func NewCalendarHandler(client CalendarClient) *CalendarHandler {
	return &CalendarHandler{client: client}
}

func (h *CalendarHandler) Stage() tripflow.Stage {
	return tripflow.StageCalendar
}

func (h *CalendarHandler) Handle(ctx context.Context, state tripflow.StateView) (map[string]any, *tripflow.AgentOutcome, error) {
	req := state.Request()

	titles := []string{fmt.Sprintf("Depart for %s", req.Destination)}
	days := req.Nights() + 1
	for day := 1; day <= days; day++ {
		titles = append(titles, fmt.Sprintf("%s trip - day %d", req.Destination, day))
	}

	var created []string
	var failed []string
	for i, title := range titles {
		id, err := h.client.CreateEvent(ctx, title, req.StartDate.AddDate(0, 0, i-1))
		if err != nil {
			failed = append(failed, title)
			continue
		}
		created = append(created, id)
	}

	if len(created) == 0 {
		return nil, nil, fmt.Errorf("calendar sync: no reminders could be created")
	}

	payload := map[string]any{
		"created": created,
		"synced":  len(created),
		"total":   len(titles),
	}

	status := tripflow.StatusCompleted
	if len(failed) > 0 {
		status = tripflow.StatusWarning
		payload["failed"] = failed
	}

	outcome := tripflow.NewOutcome(tripflow.StageCalendar, status, payload)
	outcome.NextStages = []tripflow.Stage{tripflow.StageSummary}
	return payload, outcome, nil
}
