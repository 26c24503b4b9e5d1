// Package schedule evaluates recurrence rules against calendar days.
//
// Everything in this package is pure: no I/O, no clock access, fully
// deterministic for a given template and date. The engine layers
// persistence and "today" on top.
package schedule

import (
	"github.com/roach88/cadence/internal/task"
)

// MaxIntervalSteps caps how many steps an INTERVAL evaluation will take
// from its anchor. Occurrences further out than this are treated as
// non-occurrences; a misconfigured interval fails closed instead of
// spinning. DAY and WEEK units are computed in closed form, so the cap
// only governs MONTH/YEAR stepping and keeps a uniform horizon across
// all four units.
const MaxIntervalSteps = 10000

// OccursOn reports whether the template produces an occurrence on date.
//
// The template's StartDate (when set) is a hard floor for every kind,
// including ONCE and INTERVAL anchors that predate it.
func OccursOn(t *task.Template, date task.Date) bool {
	if !t.StartDate.IsZero() && date.Before(t.StartDate) {
		return false
	}

	switch t.Kind {
	case task.KindOnce:
		return date == t.AnchorDate

	case task.KindDaily:
		return true

	case task.KindWeekly:
		return t.Weekdays.Has(date.Weekday())

	case task.KindMonthly:
		switch t.MonthlyMode {
		case task.MonthlyFirstDay:
			return date.Day == 1
		case task.MonthlyLastDay:
			return date.Day == date.DaysInMonth()
		case task.MonthlySpecificDay:
			return date.Day == clipDay(t.MonthlyDay, date.DaysInMonth())
		}
		return false

	case task.KindYearly:
		return date.Month == t.YearlyMonth &&
			date.Day == clipDay(t.YearlyDay, date.DaysInMonth())

	case task.KindInterval:
		return intervalOccursOn(t, date)
	}

	return false
}

// OccurrencesInRange enumerates every date in [start, end] on which the
// template occurs, in ascending order. Returns an empty slice (not nil)
// when there are none.
func OccurrencesInRange(t *task.Template, start, end task.Date) []task.Date {
	dates := []task.Date{}

	if !t.StartDate.IsZero() {
		start = task.MaxDate(start, t.StartDate)
	}
	if start.After(end) {
		return dates
	}

	switch t.Kind {
	case task.KindOnce:
		if !t.AnchorDate.Before(start) && !t.AnchorDate.After(end) {
			dates = append(dates, t.AnchorDate)
		}

	case task.KindInterval:
		for _, d := range intervalOccurrences(t, start, end) {
			dates = append(dates, d)
		}

	default:
		// DAILY/WEEKLY/MONTHLY/YEARLY: the window is caller-bounded
		// (typically days to months), so a per-day scan is fine.
		for d := start; !d.After(end); d = d.Next() {
			if OccursOn(t, d) {
				dates = append(dates, d)
			}
		}
	}

	return dates
}

// clipDay clamps a configured day-of-month to the month's actual length,
// so "the 31st" lands on Feb 28/29 rather than never occurring.
func clipDay(day, daysInMonth int) int {
	if day > daysInMonth {
		return daysInMonth
	}
	return day
}

// intervalOccursOn reports whether stepping from the anchor by
// IntervalUnit x IntervalValue lands exactly on date.
func intervalOccursOn(t *task.Template, date task.Date) bool {
	if t.IntervalValue < 1 {
		// Misconfiguration: fail closed rather than loop.
		return false
	}
	anchor := t.AnchorDate
	if date.Before(anchor) {
		return false
	}

	switch t.IntervalUnit {
	case task.UnitDay, task.UnitWeek:
		period := t.IntervalValue
		if t.IntervalUnit == task.UnitWeek {
			period *= 7
		}
		gap := task.DaysBetween(anchor, date)
		return gap%period == 0 && gap/period <= MaxIntervalSteps

	case task.UnitMonth, task.UnitYear:
		// Month and year lengths vary, so step the calendar. Each step is
		// computed from the anchor, not the previous step, so the anchor's
		// day of month survives shorter intermediate months
		// (Jan 31 -> Feb 28 -> Mar 31, not Mar 28).
		for step := 0; step <= MaxIntervalSteps; step++ {
			cur := intervalStep(t, step)
			if cur == date {
				return true
			}
			if cur.After(date) {
				return false
			}
		}
	}
	return false
}

// intervalOccurrences collects interval occurrences within [start, end],
// both already clipped by the caller.
func intervalOccurrences(t *task.Template, start, end task.Date) []task.Date {
	var dates []task.Date
	if t.IntervalValue < 1 {
		return dates
	}

	first := 0
	if t.IntervalUnit == task.UnitDay || t.IntervalUnit == task.UnitWeek {
		// Closed form: jump straight to the first step >= start.
		period := t.IntervalValue
		if t.IntervalUnit == task.UnitWeek {
			period *= 7
		}
		if gap := task.DaysBetween(t.AnchorDate, start); gap > 0 {
			first = (gap + period - 1) / period
		}
	}

	for step := first; step <= MaxIntervalSteps; step++ {
		cur := intervalStep(t, step)
		if cur.After(end) {
			break
		}
		if !cur.Before(start) {
			dates = append(dates, cur)
		}
	}
	return dates
}

// intervalStep returns the template's occurrence n steps from its anchor.
func intervalStep(t *task.Template, n int) task.Date {
	offset := n * t.IntervalValue
	switch t.IntervalUnit {
	case task.UnitDay:
		return t.AnchorDate.AddDays(offset)
	case task.UnitWeek:
		return t.AnchorDate.AddDays(offset * 7)
	case task.UnitMonth:
		return t.AnchorDate.AddMonthsClipped(offset)
	case task.UnitYear:
		return t.AnchorDate.AddYearsClipped(offset)
	}
	return t.AnchorDate
}
