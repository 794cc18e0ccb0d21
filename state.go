package tripflow

import (
	"fmt"
	"sync"
	"time"
)

// TripRequest is the immutable input to a planning run.
type TripRequest struct {
	UserID      string         `json:"user_id"`
	Destination string         `json:"destination"`
	StartDate   time.Time      `json:"start_date"`
	EndDate     time.Time      `json:"end_date"`
	Budget      float64        `json:"budget"`
	Preferences map[string]any `json:"preferences,omitempty"`
}

// Validate checks that the request can seed a planning run.
func (r TripRequest) Validate() error {
	if r.Destination == "" {
		return fmt.Errorf("destination is required")
	}
	if r.StartDate.IsZero() || r.EndDate.IsZero() {
		return fmt.Errorf("start and end dates are required")
	}
	if r.EndDate.Before(r.StartDate) {
		return fmt.Errorf("end date %s is before start date %s",
			r.EndDate.Format(time.DateOnly), r.StartDate.Format(time.DateOnly))
	}
	if r.Budget < 0 {
		return fmt.Errorf("budget must not be negative")
	}
	return nil
}

// Nights returns the number of nights between the start and end dates.
func (r TripRequest) Nights() int {
	return int(r.EndDate.Sub(r.StartDate).Hours() / 24)
}

// StateView provides read-only access to the planning state. Handlers see
// everything populated by prior stages plus the original request, but can
// only describe updates, never apply them.
type StateView interface {

	// Request returns the trip request that seeded the run.
	Request() TripRequest

	// StageData returns a copy of the named stage's owned field. The map
	// is empty if the stage has not run or failed.
	StageData(stage Stage) map[string]any

	// CurrentStep returns the last attempted stage token, e.g.
	// "weather_completed" or "weather_error".
	CurrentStep() string

	// CompletedStages returns the stages that succeeded so far, in order.
	CompletedStages() []Stage

	// Outcomes returns the outcome records accumulated so far, in order.
	Outcomes() []*AgentOutcome

	// Errors returns the formatted stage error strings accumulated so far.
	Errors() []string
}

// PlanningState is the mutable aggregate threaded through every stage of one
// run. Scalar fields are overwritten by their owning stage; accumulating
// fields are append-only. All mutation goes through the executor.
type PlanningState struct {
	request     TripRequest
	stageData   map[Stage]map[string]any
	currentStep string
	outcomes    []*AgentOutcome
	completed   []Stage
	errs        []string
	mutex       sync.RWMutex
}

// NewPlanningState creates an empty planning state for the given request.
func NewPlanningState(request TripRequest) (*PlanningState, error) {
	if err := request.Validate(); err != nil {
		return nil, &InitializationError{Err: err}
	}
	return &PlanningState{
		request:     request,
		stageData:   map[Stage]map[string]any{},
		currentStep: "starting",
	}, nil
}

// Request returns the trip request that seeded the run.
func (s *PlanningState) Request() TripRequest {
	return s.request
}

// StageData returns a copy of the named stage's owned field.
func (s *PlanningState) StageData(stage Stage) map[string]any {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return copyMap(s.stageData[stage])
}

// CurrentStep returns the last attempted stage token.
func (s *PlanningState) CurrentStep() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.currentStep
}

// CompletedStages returns the stages that succeeded so far, in order.
func (s *PlanningState) CompletedStages() []Stage {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := make([]Stage, len(s.completed))
	copy(out, s.completed)
	return out
}

// Outcomes returns copies of the outcome records accumulated so far.
func (s *PlanningState) Outcomes() []*AgentOutcome {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := make([]*AgentOutcome, len(s.outcomes))
	for i, o := range s.outcomes {
		out[i] = o.Copy()
	}
	return out
}

// Errors returns the formatted stage error strings accumulated so far.
func (s *PlanningState) Errors() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := make([]string, len(s.errs))
	copy(out, s.errs)
	return out
}

// applySuccess merges a successful stage attempt: the payload overwrites the
// stage's owned field, the outcome and stage name are appended, and
// current_step advances to "<stage>_completed".
func (s *PlanningState) applySuccess(stage Stage, payload map[string]any, outcome *AgentOutcome) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.stageData[stage] = copyMap(payload)
	s.outcomes = append(s.outcomes, outcome.Copy())
	s.completed = append(s.completed, stage)
	s.currentStep = stage.CompletedStep()
}

// applyFailure records a failed stage attempt: a formatted error string is
// appended and current_step advances to "<stage>_error". The stage's owned
// field keeps its previous value and no outcome is recorded.
func (s *PlanningState) applyFailure(stage Stage, err error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.errs = append(s.errs, fmt.Sprintf("%s error: %s", stage, err.Error()))
	s.currentStep = stage.ErrorStep()
}

// Snapshot returns a fully serializable copy of the state.
func (s *PlanningState) Snapshot() *StateSnapshot {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	snapshot := &StateSnapshot{
		Request:         s.request,
		WeatherData:     copyMap(s.stageData[StageWeather]),
		RouteDetails:    copyMap(s.stageData[StageRoute]),
		EventsData:      copyMap(s.stageData[StageEvents]),
		BudgetAnalysis:  copyMap(s.stageData[StageBudget]),
		Itinerary:       copyMap(s.stageData[StageItinerary]),
		FlightDetails:   copyMap(s.stageData[StageFlights]),
		TrainDetails:    copyMap(s.stageData[StageTrains]),
		CalendarData:    copyMap(s.stageData[StageCalendar]),
		TripSummary:     copyMap(s.stageData[StageSummary]),
		CurrentStep:     s.currentStep,
		AgentOutcomes:   make([]*AgentOutcome, len(s.outcomes)),
		CompletedStages: make([]Stage, len(s.completed)),
		Errors:          make([]string, len(s.errs)),
	}
	for i, o := range s.outcomes {
		snapshot.AgentOutcomes[i] = o.Copy()
	}
	copy(snapshot.CompletedStages, s.completed)
	copy(snapshot.Errors, s.errs)
	return snapshot
}

// StateSnapshot is the JSON-serializable form of a PlanningState, persisted
// inside checkpoints and returned to callers.
type StateSnapshot struct {
	Request         TripRequest     `json:"trip_request"`
	WeatherData     map[string]any  `json:"weather_data"`
	RouteDetails    map[string]any  `json:"route_details"`
	EventsData      map[string]any  `json:"events_data"`
	BudgetAnalysis  map[string]any  `json:"budget_analysis"`
	Itinerary       map[string]any  `json:"itinerary"`
	FlightDetails   map[string]any  `json:"flight_details"`
	TrainDetails    map[string]any  `json:"train_details"`
	CalendarData    map[string]any  `json:"calendar_data"`
	TripSummary     map[string]any  `json:"trip_summary"`
	CurrentStep     string          `json:"current_step"`
	AgentOutcomes   []*AgentOutcome `json:"agent_outcomes"`
	CompletedStages []Stage         `json:"completed_stages"`
	Errors          []string        `json:"errors"`
}

// StageData returns the snapshot field owned by the given stage.
func (s *StateSnapshot) StageData(stage Stage) map[string]any {
	switch stage {
	case StageWeather:
		return s.WeatherData
	case StageRoute:
		return s.RouteDetails
	case StageEvents:
		return s.EventsData
	case StageBudget:
		return s.BudgetAnalysis
	case StageItinerary:
		return s.Itinerary
	case StageFlights:
		return s.FlightDetails
	case StageTrains:
		return s.TrainDetails
	case StageCalendar:
		return s.CalendarData
	case StageSummary:
		return s.TripSummary
	default:
		return nil
	}
}

// copyMap creates a shallow copy of a map. A nil input yields an empty map so
// handlers never observe nil stage data.
func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
