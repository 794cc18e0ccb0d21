// Package agents provides the stage handlers for the trip planning pipeline.
// Each handler wraps one external collaborator behind a small service
// interface and optionally consults a language model for natural-language
// recommendations. Handlers tolerate missing upstream data: an earlier
// stage's failure leaves its field empty, never breaks a later handler.
package agents

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"
)

// Forecast describes expected weather at a destination over a date range.
type Forecast struct {
	Location            string  `json:"location"`
	Conditions          string  `json:"conditions"`
	TempMin             float64 `json:"temp_min"`
	TempMax             float64 `json:"temp_max"`
	PrecipitationChance float64 `json:"precipitation_chance"`
}

// Forecaster looks up a weather forecast.
type Forecaster interface {
	Forecast(ctx context.Context, destination string, start, end time.Time) (*Forecast, error)
}

// RouteOptions describes how to get from an origin to a destination.
type RouteOptions struct {
	Origin     string   `json:"origin"`
	Distance   float64  `json:"distance_km"`
	TravelTime string   `json:"travel_time"`
	Modes      []string `json:"modes"`
	RailLink   bool     `json:"rail_link"`
}

// Router plans routes between locations.
type Router interface {
	Route(ctx context.Context, origin, destination string) (*RouteOptions, error)
}

// Event is a single activity available at the destination.
type Event struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Venue    string  `json:"venue"`
	Price    float64 `json:"price"`
}

// EventFinder discovers events and activities at a destination.
type EventFinder interface {
	FindEvents(ctx context.Context, destination string, start, end time.Time, categories []string) ([]Event, error)
}

// FlightOption is one flight recommendation.
type FlightOption struct {
	Airline   string  `json:"airline"`
	Departure string  `json:"departure"`
	Price     float64 `json:"price"`
	Stops     int     `json:"stops"`
}

// FlightSearcher finds flights to a destination.
type FlightSearcher interface {
	SearchFlights(ctx context.Context, origin, destination string, date time.Time) ([]FlightOption, error)
}

// TrainOption is one rail recommendation.
type TrainOption struct {
	Operator  string  `json:"operator"`
	Departure string  `json:"departure"`
	Price     float64 `json:"price"`
	Duration  string  `json:"duration"`
}

// TrainSearcher finds rail connections to a destination.
type TrainSearcher interface {
	SearchTrains(ctx context.Context, origin, destination string, date time.Time) ([]TrainOption, error)
}

// CalendarClient writes trip reminders to the user's calendar.
type CalendarClient interface {
	CreateEvent(ctx context.Context, title string, start time.Time) (string, error)
}

// destinationSeed derives a stable small number from a destination name so
// the static services produce varied but deterministic data.
func destinationSeed(destination string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(destination))
	return h.Sum32()
}

// StaticForecaster is an in-process Forecaster producing deterministic
// forecasts derived from the destination name.
type StaticForecaster struct{}

func (f *StaticForecaster) Forecast(ctx context.Context, destination string, start, end time.Time) (*Forecast, error) {
	seed := destinationSeed(destination)
	conditions := []string{"sunny", "partly cloudy", "overcast", "light rain"}
	min := 8 + float64(seed%12)
	return &Forecast{
		Location:            destination,
		Conditions:          conditions[seed%uint32(len(conditions))],
		TempMin:             min,
		TempMax:             min + 9,
		PrecipitationChance: float64(seed%60) / 100,
	}, nil
}

// StaticRouter is an in-process Router with configurable distance and rail
// availability. The zero value describes a mid-range trip reachable by rail.
type StaticRouter struct {
	Distance float64
	RailLink bool
}

func NewStaticRouter() *StaticRouter {
	return &StaticRouter{Distance: 450, RailLink: true}
}

func (r *StaticRouter) Route(ctx context.Context, origin, destination string) (*RouteOptions, error) {
	modes := []string{"driving", "flight"}
	if r.RailLink {
		modes = append(modes, "rail")
	}
	hours := r.Distance / 80
	return &RouteOptions{
		Origin:     origin,
		Distance:   r.Distance,
		TravelTime: fmt.Sprintf("%.1f hours by car", hours),
		Modes:      modes,
		RailLink:   r.RailLink,
	}, nil
}

// StaticEventFinder is an in-process EventFinder producing a deterministic
// event list for the requested categories.
type StaticEventFinder struct{}

func (f *StaticEventFinder) FindEvents(ctx context.Context, destination string, start, end time.Time, categories []string) ([]Event, error) {
	if len(categories) == 0 {
		categories = []string{"entertainment", "sightseeing"}
	}
	seed := destinationSeed(destination)
	var events []Event
	for i, category := range categories {
		events = append(events, Event{
			Name:     fmt.Sprintf("%s highlight #%d", category, i+1),
			Category: category,
			Venue:    fmt.Sprintf("%s center", destination),
			Price:    float64(10 + (seed+uint32(i)*7)%40),
		})
	}
	return events, nil
}

// StaticFlightSearcher is an in-process FlightSearcher.
type StaticFlightSearcher struct{}

func (s *StaticFlightSearcher) SearchFlights(ctx context.Context, origin, destination string, date time.Time) ([]FlightOption, error) {
	seed := destinationSeed(destination)
	base := float64(90 + seed%160)
	return []FlightOption{
		{Airline: "AeroLink", Departure: "08:15", Price: base, Stops: 0},
		{Airline: "SkyBound", Departure: "13:40", Price: base * 0.8, Stops: 1},
	}, nil
}

// StaticTrainSearcher is an in-process TrainSearcher.
type StaticTrainSearcher struct{}

func (s *StaticTrainSearcher) SearchTrains(ctx context.Context, origin, destination string, date time.Time) ([]TrainOption, error) {
	seed := destinationSeed(destination)
	base := float64(40 + seed%60)
	return []TrainOption{
		{Operator: "InterCity Express", Departure: "07:02", Price: base, Duration: "4h 10m"},
		{Operator: "Regional", Departure: "10:31", Price: base * 0.6, Duration: "6h 45m"},
	}, nil
}

// MemoryCalendar is an in-process CalendarClient that records created events.
// FailAfter, when positive, makes every create beyond that count fail, which
// exercises the partial-sync path.
type MemoryCalendar struct {
	FailAfter int

	mutex  sync.Mutex
	events []string
}

func (c *MemoryCalendar) CreateEvent(ctx context.Context, title string, start time.Time) (string, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.FailAfter > 0 && len(c.events) >= c.FailAfter {
		return "", fmt.Errorf("calendar quota exceeded")
	}
	id := fmt.Sprintf("evt-%d", len(c.events)+1)
	c.events = append(c.events, title)
	return id, nil
}

// Events returns the titles of all created events.
func (c *MemoryCalendar) Events() []string {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	out := make([]string, len(c.events))
	copy(out, c.events)
	return out
}
