package engine

import (
	"time"

	"github.com/roach88/cadence/internal/task"
)

// Clock supplies the scheduler's notion of "today" in the single
// configured timezone. Injected rather than read from the environment so
// tests can pin arbitrary dates and day boundaries stay stable across DST
// transitions.
//
// Implemented by SystemClock (production) and testutil.FixedClock (tests).
type Clock interface {
	// Today returns the current calendar day in the configured location.
	Today() task.Date

	// Now returns the current instant, used for completion timestamps.
	Now() time.Time
}

// SystemClock reads the wall clock in a fixed location.
type SystemClock struct {
	loc *time.Location
}

// NewSystemClock creates a clock for the given location.
// A nil location defaults to UTC.
func NewSystemClock(loc *time.Location) SystemClock {
	if loc == nil {
		loc = time.UTC
	}
	return SystemClock{loc: loc}
}

// Today returns the current calendar day in the clock's location.
func (c SystemClock) Today() task.Date {
	return task.DateOf(time.Now().In(c.loc))
}

// Now returns the current instant in the clock's location.
func (c SystemClock) Now() time.Time {
	return time.Now().In(c.loc)
}
