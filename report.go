package tripflow

import "time"

// FinalReport is the result of a planning run. Status is "completed" whenever
// the terminal stage was reached, even with a non-empty Errors list: callers
// must inspect Errors and CompletedStages to know what is missing.
type FinalReport struct {
	ThreadID        string         `json:"thread_id"`
	Status          string         `json:"status"`
	TripSummary     map[string]any `json:"trip_summary"`
	State           *StateSnapshot `json:"state"`
	OutcomeCount    int            `json:"outcome_count"`
	CompletedStages []Stage        `json:"completed_stages"`
	Errors          []string       `json:"errors"`
	Warnings        []string       `json:"warnings,omitempty"`
	StartTime       time.Time      `json:"start_time"`
	EndTime         time.Time      `json:"end_time"`
	Duration        time.Duration  `json:"duration"`
}

// ReportStatusCompleted is the terminal status of every run that reached the
// summary stage, regardless of how many stages failed along the way.
const ReportStatusCompleted = "completed"

// buildReport assembles the final report from a terminal state snapshot.
func buildReport(threadID string, snapshot *StateSnapshot, startTime, endTime time.Time, warnings []string) *FinalReport {
	return &FinalReport{
		ThreadID:        threadID,
		Status:          ReportStatusCompleted,
		TripSummary:     snapshot.TripSummary,
		State:           snapshot,
		OutcomeCount:    len(snapshot.AgentOutcomes),
		CompletedStages: snapshot.CompletedStages,
		Errors:          snapshot.Errors,
		Warnings:        warnings,
		StartTime:       startTime,
		EndTime:         endTime,
		Duration:        endTime.Sub(startTime),
	}
}
