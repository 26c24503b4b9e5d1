package harness

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/cadence/internal/task"
)

// Scenario is a declarative scheduler test: seed templates, run a flow of
// operations against a pinned clock, snapshot the resulting rows.
type Scenario struct {
	// Name identifies the scenario and its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario verifies.
	Description string `yaml:"description,omitempty"`

	// Today pins the clock's starting day (YYYY-MM-DD).
	Today string `yaml:"today"`

	// Templates are created before the flow runs.
	Templates []TemplateSpec `yaml:"templates"`

	// Flow is the ordered list of operations to execute.
	Flow []FlowStep `yaml:"flow"`

	// Snapshot is the date range captured after the flow completes.
	Snapshot SnapshotRange `yaml:"snapshot"`
}

// TemplateSpec is the YAML shape of a template seed.
type TemplateSpec struct {
	ID            string   `yaml:"id"`
	Title         string   `yaml:"title"`
	Kind          string   `yaml:"kind"`
	Carry         string   `yaml:"carry_policy,omitempty"`
	StartDate     string   `yaml:"start_date,omitempty"`
	AnchorDate    string   `yaml:"anchor_date,omitempty"`
	Weekdays      []string `yaml:"weekdays,omitempty"`
	IntervalUnit  string   `yaml:"interval_unit,omitempty"`
	IntervalValue int      `yaml:"interval_value,omitempty"`
	MonthlyMode   string   `yaml:"monthly_mode,omitempty"`
	MonthlyDay    int      `yaml:"monthly_day,omitempty"`
	YearlyMonth   int      `yaml:"yearly_month,omitempty"`
	YearlyDay     int      `yaml:"yearly_day,omitempty"`
}

// FlowStep is one operation in a scenario flow.
//
// Actions and their arguments:
//
//	materialize  from, to
//	complete     template, date
//	uncomplete   template, date
//	delete       template, date
//	reschedule   template, date, to
//	sweep        (none)
//	advance      days
type FlowStep struct {
	Action   string `yaml:"action"`
	Template string `yaml:"template,omitempty"`
	Date     string `yaml:"date,omitempty"`
	From     string `yaml:"from,omitempty"`
	To       string `yaml:"to,omitempty"`
	Days     int    `yaml:"days,omitempty"`
}

// SnapshotRange bounds the rows captured at the end of a scenario.
type SnapshotRange struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// LoadScenario reads and validates a scenario YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}

	if s.Name == "" {
		return nil, fmt.Errorf("scenario %s: name is required", path)
	}
	if _, err := task.ParseDate(s.Today); err != nil {
		return nil, fmt.Errorf("scenario %s: invalid today: %w", s.Name, err)
	}
	return &s, nil
}

// toTemplate converts the YAML spec into a validated task.Template.
func (ts *TemplateSpec) toTemplate() (*task.Template, error) {
	tmpl := &task.Template{
		ID:            ts.ID,
		Title:         ts.Title,
		Kind:          task.ScheduleKind(ts.Kind),
		Carry:         task.FailOnMiss,
		IntervalUnit:  task.IntervalUnit(ts.IntervalUnit),
		IntervalValue: ts.IntervalValue,
		MonthlyMode:   task.MonthlyMode(ts.MonthlyMode),
		MonthlyDay:    ts.MonthlyDay,
		YearlyMonth:   time.Month(ts.YearlyMonth),
		YearlyDay:     ts.YearlyDay,
		Active:        true,
	}
	if ts.Carry != "" {
		tmpl.Carry = task.CarryPolicy(ts.Carry)
	}

	var err error
	if ts.StartDate != "" {
		if tmpl.StartDate, err = task.ParseDate(ts.StartDate); err != nil {
			return nil, fmt.Errorf("template %s: %w", ts.ID, err)
		}
	}
	if ts.AnchorDate != "" {
		if tmpl.AnchorDate, err = task.ParseDate(ts.AnchorDate); err != nil {
			return nil, fmt.Errorf("template %s: %w", ts.ID, err)
		}
	}
	for _, name := range ts.Weekdays {
		day, ok := weekdayByName[strings.ToUpper(name)]
		if !ok {
			return nil, fmt.Errorf("template %s: unknown weekday %q", ts.ID, name)
		}
		tmpl.Weekdays = tmpl.Weekdays.Add(day)
	}

	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	return tmpl, nil
}

var weekdayByName = map[string]time.Weekday{
	"SUN": time.Sunday,
	"MON": time.Monday,
	"TUE": time.Tuesday,
	"WED": time.Wednesday,
	"THU": time.Thursday,
	"FRI": time.Friday,
	"SAT": time.Saturday,
}
