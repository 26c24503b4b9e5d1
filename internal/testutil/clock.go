// Package testutil provides deterministic fixtures for scheduler tests.
package testutil

import (
	"sync"
	"time"

	"github.com/roach88/cadence/internal/task"
)

// FixedClock is an engine.Clock pinned to a settable day.
//
// Unlike engine.SystemClock it never consults the wall clock, so tests
// can replay any calendar scenario - leap days, DST boundaries, year
// rollovers - and advance time explicitly.
//
// Thread-safety: all methods are safe for concurrent use via internal
// mutex.
type FixedClock struct {
	mu    sync.Mutex
	today task.Date
}

// NewFixedClock creates a clock pinned to the given day.
func NewFixedClock(today task.Date) *FixedClock {
	return &FixedClock{today: today}
}

// Today returns the pinned day.
func (c *FixedClock) Today() task.Date {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.today
}

// Now returns noon UTC on the pinned day. A mid-day instant keeps
// completion timestamps unambiguous regardless of timezone math in
// assertions.
func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.Date(c.today.Year, c.today.Month, c.today.Day, 12, 0, 0, 0, time.UTC)
}

// SetToday re-pins the clock.
func (c *FixedClock) SetToday(d task.Date) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.today = d
}

// Advance moves the pinned day forward by n days.
func (c *FixedClock) Advance(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.today = c.today.AddDays(n)
}
