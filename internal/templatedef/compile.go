// Package templatedef compiles CUE template definition files into task
// templates.
//
// Definitions are declarative CUE like:
//
//	template: water_plants: {
//		title: "Water the plants"
//		schedule: {
//			kind:        "INTERVAL"
//			anchor_date: "2024-01-01"
//			interval: {unit: "WEEK", value: 2}
//		}
//		carry_policy: "CARRY_OVER_STACK"
//	}
//
// The field label becomes the template ID, so re-importing a file is a
// stable operation. Every compiled template passes task.Validate before it
// leaves this package, which is where the invalid-schedule-config taxonomy
// is enforced - the engine never sees an unvalidated template.
package templatedef

import (
	"fmt"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/cadence/internal/task"
)

// CompileError represents a CUE compilation or field-level parse error.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

// Error implements the error interface with CUE position info when available.
func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Field, e.Message)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// formatCUEError converts a CUE error into a CompileError with position.
func formatCUEError(err error) error {
	if cueErr, ok := err.(errors.Error); ok {
		return &CompileError{
			Message: cueErr.Error(),
			Pos:     cueErr.Position(),
		}
	}
	return &CompileError{Message: err.Error()}
}

// CompileTemplate parses a single CUE template struct into a task.Template.
// The CUE value should be the template body; its path label supplies the ID.
//
// Display strings are NFC-normalized so that visually identical titles
// compare equal regardless of how the source file encoded them.
func CompileTemplate(v cue.Value) (*task.Template, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	tmpl := &task.Template{
		Carry:  task.FailOnMiss,
		Active: true,
	}

	// Template ID from the struct label.
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		tmpl.ID = labels[len(labels)-1].Unquoted()
	}

	title, err := requiredString(v, "title")
	if err != nil {
		return nil, err
	}
	tmpl.Title = norm.NFC.String(title)

	if notes, ok, err := optionalString(v, "notes"); err != nil {
		return nil, err
	} else if ok {
		tmpl.Notes = norm.NFC.String(notes)
	}

	if carry, ok, err := optionalString(v, "carry_policy"); err != nil {
		return nil, err
	} else if ok {
		tmpl.Carry = task.CarryPolicy(carry)
	}

	scheduleVal := v.LookupPath(cue.ParsePath("schedule"))
	if !scheduleVal.Exists() {
		return nil, &CompileError{Field: "schedule", Message: "schedule is required", Pos: v.Pos()}
	}
	if err := parseSchedule(scheduleVal, tmpl); err != nil {
		return nil, err
	}

	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	return tmpl, nil
}

// parseSchedule fills the kind-specific schedule fields.
func parseSchedule(v cue.Value, tmpl *task.Template) error {
	kind, err := requiredString(v, "kind")
	if err != nil {
		return err
	}
	tmpl.Kind = task.ScheduleKind(kind)

	if s, ok, err := optionalString(v, "start_date"); err != nil {
		return err
	} else if ok {
		if tmpl.StartDate, err = parseDateField(v, "start_date", s); err != nil {
			return err
		}
	}

	if s, ok, err := optionalString(v, "anchor_date"); err != nil {
		return err
	} else if ok {
		if tmpl.AnchorDate, err = parseDateField(v, "anchor_date", s); err != nil {
			return err
		}
	}

	if wd := v.LookupPath(cue.ParsePath("weekdays")); wd.Exists() {
		set, err := parseWeekdays(wd)
		if err != nil {
			return err
		}
		tmpl.Weekdays = set
	}

	if iv := v.LookupPath(cue.ParsePath("interval")); iv.Exists() {
		unit, err := requiredString(iv, "unit")
		if err != nil {
			return err
		}
		tmpl.IntervalUnit = task.IntervalUnit(unit)

		value, err := iv.LookupPath(cue.ParsePath("value")).Int64()
		if err != nil {
			return &CompileError{Field: "schedule.interval.value", Message: "integer value is required", Pos: iv.Pos()}
		}
		tmpl.IntervalValue = int(value)
	}

	if mv := v.LookupPath(cue.ParsePath("monthly")); mv.Exists() {
		mode, err := requiredString(mv, "mode")
		if err != nil {
			return err
		}
		tmpl.MonthlyMode = task.MonthlyMode(mode)

		if dayVal := mv.LookupPath(cue.ParsePath("day")); dayVal.Exists() {
			day, err := dayVal.Int64()
			if err != nil {
				return &CompileError{Field: "schedule.monthly.day", Message: "day must be an integer", Pos: mv.Pos()}
			}
			tmpl.MonthlyDay = int(day)
		}
	}

	if yv := v.LookupPath(cue.ParsePath("yearly")); yv.Exists() {
		month, err := yv.LookupPath(cue.ParsePath("month")).Int64()
		if err != nil {
			return &CompileError{Field: "schedule.yearly.month", Message: "integer month is required", Pos: yv.Pos()}
		}
		day, err := yv.LookupPath(cue.ParsePath("day")).Int64()
		if err != nil {
			return &CompileError{Field: "schedule.yearly.day", Message: "integer day is required", Pos: yv.Pos()}
		}
		tmpl.YearlyMonth = time.Month(month)
		tmpl.YearlyDay = int(day)
	}

	return nil
}

// weekdayNames maps accepted spellings (upper-cased) to weekdays.
var weekdayNames = map[string]time.Weekday{
	"SUN": time.Sunday, "SUNDAY": time.Sunday,
	"MON": time.Monday, "MONDAY": time.Monday,
	"TUE": time.Tuesday, "TUESDAY": time.Tuesday,
	"WED": time.Wednesday, "WEDNESDAY": time.Wednesday,
	"THU": time.Thursday, "THURSDAY": time.Thursday,
	"FRI": time.Friday, "FRIDAY": time.Friday,
	"SAT": time.Saturday, "SATURDAY": time.Saturday,
}

// parseWeekdays accepts a list of day names ("MON") or numbers (0=Sunday).
func parseWeekdays(v cue.Value) (task.WeekdaySet, error) {
	var set task.WeekdaySet

	iter, err := v.List()
	if err != nil {
		return 0, formatCUEError(err)
	}
	for iter.Next() {
		item := iter.Value()
		if s, err := item.String(); err == nil {
			day, ok := weekdayNames[strings.ToUpper(s)]
			if !ok {
				return 0, &CompileError{
					Field:   "schedule.weekdays",
					Message: fmt.Sprintf("unknown weekday %q", s),
					Pos:     item.Pos(),
				}
			}
			set = set.Add(day)
			continue
		}
		if n, err := item.Int64(); err == nil {
			if n < 0 || n > 6 {
				return 0, &CompileError{
					Field:   "schedule.weekdays",
					Message: fmt.Sprintf("weekday %d out of range 0..6", n),
					Pos:     item.Pos(),
				}
			}
			set = set.Add(time.Weekday(n))
			continue
		}
		return 0, &CompileError{
			Field:   "schedule.weekdays",
			Message: "weekday must be a name or 0..6",
			Pos:     item.Pos(),
		}
	}
	return set, nil
}

func parseDateField(v cue.Value, field, s string) (task.Date, error) {
	d, err := task.ParseDate(s)
	if err != nil {
		return task.Date{}, &CompileError{
			Field:   "schedule." + field,
			Message: fmt.Sprintf("expected YYYY-MM-DD, got %q", s),
			Pos:     v.Pos(),
		}
	}
	return d, nil
}

func requiredString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", &CompileError{Field: field, Message: field + " is required", Pos: v.Pos()}
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func optionalString(v cue.Value, field string) (string, bool, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", false, nil
	}
	s, err := fv.String()
	if err != nil {
		return "", false, formatCUEError(err)
	}
	return s, true, nil
}
