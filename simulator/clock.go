package simulator

import "time"

// Clock is a manual time base implementing core.Clock. Sleep advances the
// clock instantly, so bus timing is exact and tests run without waiting.
type Clock struct {
	now   time.Time
	Slept time.Duration // Total time passed to Sleep
}

// NewClock creates a clock starting at a fixed instant
func NewClock() *Clock {
	return &Clock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

// Now implements core.Clock
func (c *Clock) Now() time.Time {
	return c.now
}

// Sleep implements core.Clock
func (c *Clock) Sleep(d time.Duration) {
	if d > 0 {
		c.now = c.now.Add(d)
		c.Slept += d
	}
}

// Advance moves the clock without counting it as sleep
func (c *Clock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}
