// Package clock lets components read the current time through an
// interface so tests can pin it.
package clock

import (
	"sync"
	"time"
)

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

type clock struct{}

// New returns the wall clock.
func New() Clock {
	return clock{}
}

func (clock) Now() time.Time {
	return time.Now()
}

// Managed is a hand-driven clock for tests. Safe for concurrent use.
type Managed struct {
	mu     sync.Mutex
	start  time.Time
	offset time.Duration
}

// NewManaged returns a Managed clock frozen at start.
func NewManaged(start time.Time) *Managed {
	return &Managed{start: start}
}

func (c *Managed) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.start.Add(c.offset)
}

// WarpForward advances the clock and returns the new time. There is no
// WarpBackward: administration times only move forward.
func (c *Managed) WarpForward(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offset += d
	return c.start.Add(c.offset)
}
