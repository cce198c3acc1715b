package bridge

import "sync/atomic"

// StepClock numbers the exchanges of a session.
//
// Journal steps are ordered by this counter, never by wall time, so a
// journal reads back in exchange order regardless of how fast the engine
// ran.
type StepClock struct {
	seq atomic.Int64
}

// NewStepClock creates a clock starting at 0.
func NewStepClock() *StepClock {
	return &StepClock{}
}

// Next returns the next step number and increments the clock.
func (c *StepClock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last step number handed out.
func (c *StepClock) Current() int64 {
	return c.seq.Load()
}

// Reset rewinds the clock to 0 for a new session.
func (c *StepClock) Reset() {
	c.seq.Store(0)
}
