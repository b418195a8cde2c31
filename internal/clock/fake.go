package clock

import "time"

// FakeClock is a manually driven Clock for tests. It never ticks on its own.
type FakeClock struct {
	now time.Time
}

// NewFakeClock pins the clock at t.
func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{now: t.UTC()}
}

func (c *FakeClock) Now() time.Time {
	return c.now
}

// Advance moves the clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}
