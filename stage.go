package tripflow

// Stage names a single unit of work in the planning pipeline.
type Stage string

const (
	StageWeather   Stage = "weather"
	StageRoute     Stage = "route"
	StageEvents    Stage = "events"
	StageBudget    Stage = "budget"
	StageItinerary Stage = "itinerary"
	StageFlights   Stage = "flights"
	StageTrains    Stage = "trains"
	StageCalendar  Stage = "calendar"
	StageSummary   Stage = "summary"
)

// Stages returns the canonical planning stages in execution order.
func Stages() []Stage {
	return []Stage{
		StageWeather,
		StageRoute,
		StageEvents,
		StageBudget,
		StageItinerary,
		StageFlights,
		StageTrains,
		StageCalendar,
		StageSummary,
	}
}

func (s Stage) String() string {
	return string(s)
}

// CompletedStep returns the current_step token recorded when the stage succeeds.
func (s Stage) CompletedStep() string {
	return string(s) + "_completed"
}

// ErrorStep returns the current_step token recorded when the stage fails.
func (s Stage) ErrorStep() string {
	return string(s) + "_error"
}
