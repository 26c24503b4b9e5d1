package testutil

import (
	"time"

	"github.com/roach88/cadence/internal/task"
)

// Template builders for common schedule shapes. Every builder returns an
// active template with FAIL_ON_MISS carry; chain the With helpers to vary.

// Daily returns an active DAILY template.
func Daily(id string) *task.Template {
	return base(id, task.KindDaily)
}

// Once returns an active ONCE template anchored on the given day.
func Once(id string, anchor task.Date) *task.Template {
	t := base(id, task.KindOnce)
	t.AnchorDate = anchor
	return t
}

// Weekly returns an active WEEKLY template for the given weekdays.
func Weekly(id string, days ...time.Weekday) *task.Template {
	t := base(id, task.KindWeekly)
	t.Weekdays = task.NewWeekdaySet(days...)
	return t
}

// MonthlyOn returns an active MONTHLY SPECIFIC_DAY template.
func MonthlyOn(id string, day int) *task.Template {
	t := base(id, task.KindMonthly)
	t.MonthlyMode = task.MonthlySpecificDay
	t.MonthlyDay = day
	return t
}

// Interval returns an active INTERVAL template.
func Interval(id string, anchor task.Date, unit task.IntervalUnit, value int) *task.Template {
	t := base(id, task.KindInterval)
	t.AnchorDate = anchor
	t.IntervalUnit = unit
	t.IntervalValue = value
	return t
}

// WithCarry sets the carry policy.
func WithCarry(t *task.Template, carry task.CarryPolicy) *task.Template {
	t.Carry = carry
	return t
}

// WithStartDate sets the generation floor.
func WithStartDate(t *task.Template, start task.Date) *task.Template {
	t.StartDate = start
	return t
}

func base(id string, kind task.ScheduleKind) *task.Template {
	return &task.Template{
		ID:        id,
		Title:     "template " + id,
		Kind:      kind,
		Carry:     task.FailOnMiss,
		Active:    true,
		CreatedAt: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
}
