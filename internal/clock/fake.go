package clock

import (
	"sync"
	"time"
)

// Stepped is a deterministic clock for tests. Every Now call advances
// the clock by a fixed step, which models a constant per-call overhead
// with zero transfer cost.
type Stepped struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewStepped creates a stepped clock starting at an arbitrary epoch.
func NewStepped(step time.Duration) *Stepped {
	return &Stepped{
		now:  time.Unix(0, 0),
		step: step,
	}
}

func (c *Stepped) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(c.step)
	return c.now
}

// Advance moves the clock forward without counting as a call.
func (c *Stepped) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
