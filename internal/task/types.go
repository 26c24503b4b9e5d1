package task

import (
	"fmt"
	"strings"
	"time"
)

// ScheduleKind selects which recurrence rule a template follows.
type ScheduleKind string

const (
	KindOnce     ScheduleKind = "ONCE"
	KindDaily    ScheduleKind = "DAILY"
	KindWeekly   ScheduleKind = "WEEKLY"
	KindMonthly  ScheduleKind = "MONTHLY"
	KindYearly   ScheduleKind = "YEARLY"
	KindInterval ScheduleKind = "INTERVAL"
)

// ValidScheduleKinds defines the allowed schedule kinds.
var ValidScheduleKinds = map[ScheduleKind]bool{
	KindOnce:     true,
	KindDaily:    true,
	KindWeekly:   true,
	KindMonthly:  true,
	KindYearly:   true,
	KindInterval: true,
}

// CarryPolicy governs what happens to an OPEN instance once its date passes.
type CarryPolicy string

const (
	// FailOnMiss: the overdue sweep transitions the instance to FAILED.
	FailOnMiss CarryPolicy = "FAIL_ON_MISS"

	// CarryOverStack: the instance stays OPEN and readers classify it as
	// overdue by comparing its date against today. Never stored as a flag.
	CarryOverStack CarryPolicy = "CARRY_OVER_STACK"
)

// ValidCarryPolicies defines the allowed carry policies.
var ValidCarryPolicies = map[CarryPolicy]bool{
	FailOnMiss:     true,
	CarryOverStack: true,
}

// IntervalUnit is the stepping unit for INTERVAL templates.
type IntervalUnit string

const (
	UnitDay   IntervalUnit = "DAY"
	UnitWeek  IntervalUnit = "WEEK"
	UnitMonth IntervalUnit = "MONTH"
	UnitYear  IntervalUnit = "YEAR"
)

// ValidIntervalUnits defines the allowed interval units.
var ValidIntervalUnits = map[IntervalUnit]bool{
	UnitDay:   true,
	UnitWeek:  true,
	UnitMonth: true,
	UnitYear:  true,
}

// MonthlyMode selects how a MONTHLY template picks its day of month.
type MonthlyMode string

const (
	MonthlyFirstDay    MonthlyMode = "FIRST_DAY"
	MonthlyLastDay     MonthlyMode = "LAST_DAY"
	MonthlySpecificDay MonthlyMode = "SPECIFIC_DAY"
)

// ValidMonthlyModes defines the allowed monthly modes.
var ValidMonthlyModes = map[MonthlyMode]bool{
	MonthlyFirstDay:    true,
	MonthlyLastDay:     true,
	MonthlySpecificDay: true,
}

// Status is the lifecycle state of an Instance.
//
// Transitions (enforced by the engine, never by the store):
//
//	OPEN  -> DONE     complete
//	DONE  -> OPEN     uncomplete
//	OPEN  -> FAILED   overdue sweep, FAIL_ON_MISS templates only
//	OPEN/DONE/FAILED -> DELETED   delete (terminal)
//
// DELETED is permanent and doubles as the tombstone that blocks the
// materializer from recreating an occurrence at that (template, date) slot.
type Status string

const (
	StatusOpen    Status = "OPEN"
	StatusDone    Status = "DONE"
	StatusFailed  Status = "FAILED"
	StatusDeleted Status = "DELETED"
)

// WeekdaySet is a set of days of week, stored as a bitmask
// (bit 0 = Sunday, matching time.Weekday).
type WeekdaySet uint8

// NewWeekdaySet builds a set from the given weekdays.
func NewWeekdaySet(days ...time.Weekday) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		s = s.Add(d)
	}
	return s
}

// Add returns the set with d included.
func (s WeekdaySet) Add(d time.Weekday) WeekdaySet {
	return s | 1<<uint(d)
}

// Has reports whether d is in the set.
func (s WeekdaySet) Has(d time.Weekday) bool {
	return s&(1<<uint(d)) != 0
}

// IsEmpty reports whether the set contains no weekdays.
func (s WeekdaySet) IsEmpty() bool {
	return s == 0
}

// Weekdays returns the members in Sunday-first order.
func (s WeekdaySet) Weekdays() []time.Weekday {
	var days []time.Weekday
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s.Has(d) {
			days = append(days, d)
		}
	}
	return days
}

// String renders the set like "Mon,Wed,Fri".
func (s WeekdaySet) String() string {
	var parts []string
	for _, d := range s.Weekdays() {
		parts = append(parts, d.String()[:3])
	}
	return strings.Join(parts, ",")
}

// Template is a recurring-task definition: the source of truth for when
// occurrences happen. Templates are never mutated by the scheduling engine;
// schedule edits go through the store's UpdateTemplateSchedule, which also
// invalidates future OPEN instances.
type Template struct {
	ID    string
	Title string
	Notes string

	Kind  ScheduleKind
	Carry CarryPolicy

	// StartDate, when set, is a floor: no occurrence is generated before it.
	StartDate Date

	// AnchorDate is the reference date for ONCE and INTERVAL kinds.
	AnchorDate Date

	// IntervalUnit/IntervalValue apply to INTERVAL only.
	IntervalUnit  IntervalUnit
	IntervalValue int

	// Weekdays applies to WEEKLY only.
	Weekdays WeekdaySet

	// MonthlyMode/MonthlyDay apply to MONTHLY only; MonthlyDay is only
	// consulted for SPECIFIC_DAY and is clipped to the month's length at
	// evaluation time.
	MonthlyMode MonthlyMode
	MonthlyDay  int

	// YearlyMonth/YearlyDay apply to YEARLY only; YearlyDay is clipped the
	// same way (day 29+ in February).
	YearlyMonth time.Month
	YearlyDay   int

	// Active templates generate occurrences; archived templates keep their
	// instance history but stop generating.
	Active bool

	CreatedAt time.Time
}

// Recurring reports whether the template can produce more than one
// occurrence. ONCE templates are not recurring; rescheduling their single
// instance needs no tombstone because nothing will regenerate it.
func (t *Template) Recurring() bool {
	return t.Kind != KindOnce
}

// Validate checks that the kind-specific fields are complete and
// consistent. Returns a *ConfigError listing every problem found.
//
// The engine assumes templates it receives have passed Validate; the
// template import path (templatedef) and the store's create/update methods
// call it before persisting.
func (t *Template) Validate() error {
	var problems []string

	if strings.TrimSpace(t.Title) == "" {
		problems = append(problems, "title is required")
	}
	if !ValidScheduleKinds[t.Kind] {
		problems = append(problems, fmt.Sprintf("unknown schedule kind %q", t.Kind))
	}
	if !ValidCarryPolicies[t.Carry] {
		problems = append(problems, fmt.Sprintf("unknown carry policy %q", t.Carry))
	}

	switch t.Kind {
	case KindOnce:
		if t.AnchorDate.IsZero() {
			problems = append(problems, "ONCE requires anchor_date")
		}
	case KindWeekly:
		if t.Weekdays.IsEmpty() {
			problems = append(problems, "WEEKLY requires a non-empty weekday set")
		}
	case KindMonthly:
		if !ValidMonthlyModes[t.MonthlyMode] {
			problems = append(problems, fmt.Sprintf("unknown monthly mode %q", t.MonthlyMode))
		}
		if t.MonthlyMode == MonthlySpecificDay && (t.MonthlyDay < 1 || t.MonthlyDay > 31) {
			problems = append(problems, fmt.Sprintf("monthly_day %d out of range 1..31", t.MonthlyDay))
		}
	case KindYearly:
		if t.YearlyMonth < time.January || t.YearlyMonth > time.December {
			problems = append(problems, fmt.Sprintf("yearly_month %d out of range 1..12", t.YearlyMonth))
		}
		if t.YearlyDay < 1 || t.YearlyDay > 31 {
			problems = append(problems, fmt.Sprintf("yearly_day %d out of range 1..31", t.YearlyDay))
		}
	case KindInterval:
		if t.AnchorDate.IsZero() {
			problems = append(problems, "INTERVAL requires anchor_date")
		}
		if !ValidIntervalUnits[t.IntervalUnit] {
			problems = append(problems, fmt.Sprintf("unknown interval unit %q", t.IntervalUnit))
		}
		if t.IntervalValue < 1 {
			problems = append(problems, fmt.Sprintf("interval_value %d must be >= 1", t.IntervalValue))
		}
	}

	if len(problems) > 0 {
		return &ConfigError{Template: t.ID, Problems: problems}
	}
	return nil
}

// ConfigError reports an invalid schedule configuration. Templates that
// fail validation never reach the evaluator.
type ConfigError struct {
	Template string
	Problems []string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Template != "" {
		return fmt.Sprintf("invalid schedule config for template %s: %s",
			e.Template, strings.Join(e.Problems, "; "))
	}
	return fmt.Sprintf("invalid schedule config: %s", strings.Join(e.Problems, "; "))
}

// Instance is one materialized occurrence of a template on a specific
// calendar day. Instances are created by the materializer, mutated through
// status transitions, and never physically deleted - "deletion" is the
// terminal DELETED status, which keeps the (TemplateID, Date) slot occupied
// so regeneration stays unambiguous.
type Instance struct {
	ID         string
	TemplateID string
	Date       Date
	Status     Status

	// CompletedAt is set on complete and cleared on uncomplete.
	CompletedAt *time.Time

	// CustomTitle/CustomNotes are per-occurrence display overrides.
	// They never affect scheduling.
	CustomTitle string
	CustomNotes string
}

// Live reports whether the instance occupies its slot from the user's
// point of view. Tombstones (DELETED) hold the slot for regeneration
// purposes but do not count as live for conflict checks.
func (i *Instance) Live() bool {
	return i.Status != StatusDeleted
}
