package task

import (
	"fmt"
	"time"
)

// DateLayout is the wire and storage format for calendar days.
// Lexicographic order of the encoded form matches chronological order,
// which the store relies on for range queries.
const DateLayout = "2006-01-02"

// Date is a calendar day with no time-of-day component.
//
// All scheduling arithmetic operates on Date values that have already been
// normalized into the scheduler's single configured timezone (see
// engine.Clock). Date itself is timezone-free: two Dates are equal iff they
// name the same calendar day.
//
// Date is comparable; the zero value is the zero date (reported by IsZero).
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate constructs a Date from its components.
// The components are normalized the way time.Date normalizes them, so
// NewDate(2024, time.January, 32) is 2024-02-01.
func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf truncates t to the calendar day it falls on, in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a day in DateLayout form ("2024-01-31").
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// MustParseDate is ParseDate for compile-time-known literals. Panics on error.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// String returns the day in DateLayout form.
func (d Date) String() string {
	return d.time().Format(DateLayout)
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d == Date{}
}

// time returns the day as midnight UTC. Internal anchor for arithmetic;
// the UTC location is arbitrary and never observable through the API.
func (d Date) time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// Before reports whether d is an earlier calendar day than other.
func (d Date) Before(other Date) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// After reports whether d is a later calendar day than other.
func (d Date) After(other Date) bool {
	return other.Before(d)
}

// AddDays returns the day n days after d (n may be negative).
func (d Date) AddDays(n int) Date {
	return DateOf(d.time().AddDate(0, 0, n))
}

// Next returns the day after d.
func (d Date) Next() Date {
	return d.AddDays(1)
}

// AddMonthsClipped returns the day n months after d, clipping the day of
// month to the target month's length: Jan 31 + 1 month is Feb 28 (or 29),
// never Mar 2. This differs from time.Time.AddDate, which normalizes
// overflow forward into the next month.
func (d Date) AddMonthsClipped(n int) Date {
	// Work in zero-based months to keep the division arithmetic simple.
	months := d.Year*12 + int(d.Month) - 1 + n
	year := months / 12
	month := time.Month(months%12 + 1)
	if months < 0 && months%12 != 0 {
		year--
		month += 12
	}
	day := d.Day
	if last := daysInMonth(year, month); day > last {
		day = last
	}
	return Date{Year: year, Month: month, Day: day}
}

// AddYearsClipped returns the day n years after d, clipping Feb 29 to
// Feb 28 in non-leap target years.
func (d Date) AddYearsClipped(n int) Date {
	return d.AddMonthsClipped(n * 12)
}

// Weekday returns the day of week (time.Sunday == 0).
func (d Date) Weekday() time.Weekday {
	return d.time().Weekday()
}

// DaysInMonth returns the number of days in d's month.
func (d Date) DaysInMonth() int {
	return daysInMonth(d.Year, d.Month)
}

// DaysBetween returns the number of calendar days from a to b
// (negative when b is before a).
func DaysBetween(a, b Date) int {
	return int(b.time().Sub(a.time()) / (24 * time.Hour))
}

// MinDate returns the earlier of a and b.
func MinDate(a, b Date) Date {
	if a.Before(b) {
		return a
	}
	return b
}

// MaxDate returns the later of a and b.
func MaxDate(a, b Date) Date {
	if a.After(b) {
		return a
	}
	return b
}

func daysInMonth(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this month.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
