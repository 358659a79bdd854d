package model

import "time"

// Run statuses
const (
	RunStatusPending   = "pending"
	RunStatusLoading   = "loading"
	RunStatusDeriving  = "deriving"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Run records one load of the registration collection
type Run struct {
	ID         string     `json:"id"`
	Collection string     `json:"collection"`
	Status     string     `json:"status"`
	Loaded     int        `json:"loaded"`
	Accepted   int        `json:"accepted"`
	Rejected   int        `json:"rejected"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Duration returns how long the run took, or zero while it is running
func (r Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// RunError is a record rejected during a run
type RunError struct {
	RunID       string    `json:"run_id"`
	RecordIndex int       `json:"record_index"`
	RecordID    string    `json:"record_id,omitempty"`
	Field       string    `json:"field,omitempty"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"created_at"`
}

// RetryConfig defines retry behavior for loading the collection
type RetryConfig struct {
	MaxRetries    int           `json:"max_retries"`
	InitialDelay  time.Duration `json:"initial_delay"`
	MaxDelay      time.Duration `json:"max_delay"`
	BackoffFactor float64       `json:"backoff_factor"`
}

// DefaultRetryConfig is used when no retry settings are configured
var DefaultRetryConfig = RetryConfig{
	MaxRetries:    3,
	InitialDelay:  1 * time.Second,
	MaxDelay:      30 * time.Second,
	BackoffFactor: 2.0,
}
