package history

import (
	"time"

	"q7z/internal/extract"
)

// Status is the lifecycle state of a recorded job.
type Status string

const (
	StatusRunning     Status = "running"
	StatusSucceeded   Status = "succeeded"
	StatusFailed      Status = "failed"
	StatusInterrupted Status = "interrupted"
)

// Record is one row of job history.
type Record struct {
	ID          int64
	JobID       string
	Request     extract.Request
	Status      Status
	Error       string
	ExitCode    *int
	LastPercent int
	Files       int
	StartedAt   time.Time
	FinishedAt  *time.Time
}

// Duration returns the job runtime, or zero while it is still running.
func (r Record) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Outcome is what Finish records about a completed job.
type Outcome struct {
	Err         error
	ExitCode    int
	LastPercent int
	Files       int
}
