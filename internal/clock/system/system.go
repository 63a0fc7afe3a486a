// Package system provides a time source backed by the process monotonic clock.
package system

import "time"

// Clock implements eta.TimeSource by counting units elapsed since the clock
// was created. Readings come from the monotonic clock and never go backwards.
type Clock struct {
	start time.Time
	unit  time.Duration
	now   func() time.Time
}

// New creates a Clock reporting whole units since now. A non-positive unit
// falls back to time.Millisecond.
func New(unit time.Duration) *Clock {
	return newClock(unit, time.Now)
}

func newClock(unit time.Duration, now func() time.Time) *Clock {
	if unit <= 0 {
		unit = time.Millisecond
	}
	return &Clock{start: now(), unit: unit, now: now}
}

// Timestamp returns the number of whole units elapsed since New.
func (c *Clock) Timestamp() uint64 {
	elapsed := c.now().Sub(c.start)
	if elapsed < 0 {
		return 0
	}
	return uint64(elapsed / c.unit)
}

// Unit reports the duration of one timestamp unit.
func (c *Clock) Unit() time.Duration {
	return c.unit
}

// Duration converts a count of units into a time.Duration.
func (c *Clock) Duration(units int64) time.Duration {
	return time.Duration(units) * c.unit
}
