package domain

import "time"

// JobKind enumerates supported generation job categories.
type JobKind string

const (
	JobKindLogo      JobKind = "logo"
	JobKindAnimation JobKind = "animation"
)

// JobStatus enumerates job lifecycle states.
type JobStatus string

const (
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
	JobStatusTimedOut  JobStatus = "timed_out"
	JobStatusAbandoned JobStatus = "abandoned"
)

// Job is the audit record of a single generation request. Sessions are never
// persisted; only the outcome of the jobs they issued.
type Job struct {
	ID           string     `json:"id"`
	SessionID    string     `json:"session_id"`
	Kind         JobKind    `json:"kind"`
	Status       JobStatus  `json:"status"`
	AspectRatio  string     `json:"aspect_ratio,omitempty"`
	Backend      string     `json:"backend"`
	PollAttempts int        `json:"poll_attempts"`
	ErrorDetail  string     `json:"-"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}
