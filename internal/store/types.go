package store

import "errors"

// End reasons recorded on a session row.
const (
	EndCleanup       = "cleanup"
	EndEngine        = "ended"
	EndReinitialized = "reinitialized"
)

// ErrNotFound is returned when a session id has no row.
var ErrNotFound = errors.New("session not found")

// Session is one journaled Initialize..teardown span.
type Session struct {
	ID          string
	Seq         int64
	Fingerprint string
	ModelPath   string
	InputCount  int
	OutputCount int

	// EndReason is empty while the session is running.
	EndReason string

	// StepCount is filled in by reads.
	StepCount int
}

// Step is one journaled exchange.
type Step struct {
	SessionID string
	Step      int64
	Phase     string
	Elapsed   float64
	Inputs    []float64
	Outputs   []float64
}
