package domain

import "time"

// RunStatus enumerates terminal states of one pipeline run.
type RunStatus string

const (
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// RunRecord is the audit entry written after each pipeline run.
type RunRecord struct {
	ID         string
	Day        DayNumber
	VideoID    string
	PostID     int
	Status     RunStatus
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}
