package testutil

import (
	"sync"
	"time"
)

// FixedClock provides a thread-safe deterministic wall clock for tests.
//
// Each call to Now returns the start time advanced by one step per prior
// call, so a run stamped with StartedAt then FinishedAt gets start and
// start+step.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type FixedClock struct {
	mu    sync.Mutex
	start time.Time
	step  time.Duration
	calls int64
}

// NewFixedClock creates a clock starting at start with a one-second step.
func NewFixedClock(start time.Time) *FixedClock {
	return &FixedClock{start: start, step: time.Second}
}

// NewSteppingClock creates a clock starting at start that advances by step.
// A zero step freezes the clock.
func NewSteppingClock(start time.Time, step time.Duration) *FixedClock {
	return &FixedClock{start: start, step: step}
}

// Now returns the next timestamp.
func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.start.Add(time.Duration(c.calls) * c.step)
	c.calls++
	return t
}

// Calls returns how many times Now has been called.
func (c *FixedClock) Calls() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// Reset rewinds the clock so the next call to Now returns the start time.
func (c *FixedClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = 0
}
