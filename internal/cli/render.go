package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/roach88/cadence/internal/engine"
	"github.com/roach88/cadence/internal/task"
)

// instancePayload is the JSON shape for a task instance.
type instancePayload struct {
	ID          string `json:"id"`
	TemplateID  string `json:"template_id"`
	Title       string `json:"title"`
	Date        string `json:"date"`
	Status      string `json:"status"`
	CompletedAt string `json:"completed_at,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

// templatePayload is the JSON shape for a template.
type templatePayload struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Kind     string `json:"kind"`
	Carry    string `json:"carry_policy"`
	Active   bool   `json:"active"`
	Schedule string `json:"schedule"`
}

// dashboardPayload is the JSON shape for the dashboard view.
type dashboardPayload struct {
	Today    dayPayload `json:"today"`
	Tomorrow dayPayload `json:"tomorrow"`
}

type dayPayload struct {
	Date    string            `json:"date"`
	Overdue []instancePayload `json:"overdue"`
	Open    []instancePayload `json:"open"`
	Done    []instancePayload `json:"done"`
	Failed  []instancePayload `json:"failed"`
}

// titleIndex maps template IDs to display titles.
type titleIndex map[string]string

func makeTitleIndex(templates []*task.Template) titleIndex {
	idx := make(titleIndex, len(templates))
	for _, t := range templates {
		idx[t.ID] = t.Title
	}
	return idx
}

// titleFor resolves the display title: per-instance override first, then
// the template title, then the template ID as a last resort.
func (idx titleIndex) titleFor(inst *task.Instance) string {
	if inst.CustomTitle != "" {
		return inst.CustomTitle
	}
	if title, ok := idx[inst.TemplateID]; ok {
		return title
	}
	return inst.TemplateID
}

func instanceToPayload(inst *task.Instance, titles titleIndex) instancePayload {
	p := instancePayload{
		ID:         inst.ID,
		TemplateID: inst.TemplateID,
		Title:      titles.titleFor(inst),
		Date:       inst.Date.String(),
		Status:     string(inst.Status),
		Notes:      inst.CustomNotes,
	}
	if inst.CompletedAt != nil {
		p.CompletedAt = inst.CompletedAt.Format(time.RFC3339)
	}
	return p
}

func instancesToPayload(instances []*task.Instance, titles titleIndex) []instancePayload {
	out := make([]instancePayload, 0, len(instances))
	for _, inst := range instances {
		out = append(out, instanceToPayload(inst, titles))
	}
	return out
}

func templateToPayload(t *task.Template) templatePayload {
	return templatePayload{
		ID:       t.ID,
		Title:    t.Title,
		Kind:     string(t.Kind),
		Carry:    string(t.Carry),
		Active:   t.Active,
		Schedule: describeSchedule(t),
	}
}

func dashboardToPayload(view *engine.DashboardView, titles titleIndex) dashboardPayload {
	return dashboardPayload{
		Today:    dayToPayload(view.Today, titles),
		Tomorrow: dayToPayload(view.Tomorrow, titles),
	}
}

func dayToPayload(day engine.DaySection, titles titleIndex) dayPayload {
	return dayPayload{
		Date:    day.Date.String(),
		Overdue: instancesToPayload(day.Overdue, titles),
		Open:    instancesToPayload(day.Open, titles),
		Done:    instancesToPayload(day.Done, titles),
		Failed:  instancesToPayload(day.Failed, titles),
	}
}

// describeSchedule renders a template's recurrence rule as one line.
func describeSchedule(t *task.Template) string {
	switch t.Kind {
	case task.KindOnce:
		return fmt.Sprintf("once on %s", t.AnchorDate)
	case task.KindDaily:
		return "every day"
	case task.KindWeekly:
		return fmt.Sprintf("weekly on %s", t.Weekdays)
	case task.KindMonthly:
		switch t.MonthlyMode {
		case task.MonthlyFirstDay:
			return "monthly on the 1st"
		case task.MonthlyLastDay:
			return "monthly on the last day"
		default:
			return fmt.Sprintf("monthly on day %d", t.MonthlyDay)
		}
	case task.KindYearly:
		return fmt.Sprintf("yearly on %s %d", t.YearlyMonth, t.YearlyDay)
	case task.KindInterval:
		unit := map[task.IntervalUnit]string{
			task.UnitDay:   "days",
			task.UnitWeek:  "weeks",
			task.UnitMonth: "months",
			task.UnitYear:  "years",
		}[t.IntervalUnit]
		return fmt.Sprintf("every %d %s from %s", t.IntervalValue, unit, t.AnchorDate)
	}
	return string(t.Kind)
}

// statusMark is the one-character marker used in text lists.
func statusMark(s task.Status) string {
	switch s {
	case task.StatusDone:
		return "x"
	case task.StatusFailed:
		return "!"
	default:
		return " "
	}
}

// renderDashboard writes the two-day dashboard as text.
func renderDashboard(w io.Writer, view *engine.DashboardView, titles titleIndex) error {
	renderDay(w, "Today", view.Today, titles)
	fmt.Fprintln(w)
	renderDay(w, "Tomorrow", view.Tomorrow, titles)
	return nil
}

func renderDay(w io.Writer, label string, day engine.DaySection, titles titleIndex) {
	fmt.Fprintf(w, "%s (%s)\n", label, day.Date)

	for _, inst := range day.Overdue {
		fmt.Fprintf(w, "  [ ] %s  (overdue since %s)  %s\n",
			titles.titleFor(inst), inst.Date, inst.ID)
	}
	for _, inst := range day.Open {
		fmt.Fprintf(w, "  [ ] %s  %s\n", titles.titleFor(inst), inst.ID)
	}
	for _, inst := range day.Done {
		fmt.Fprintf(w, "  [x] %s  %s\n", titles.titleFor(inst), inst.ID)
	}
	for _, inst := range day.Failed {
		fmt.Fprintf(w, "  [!] %s  %s\n", titles.titleFor(inst), inst.ID)
	}
	if len(day.Overdue)+len(day.Open)+len(day.Done)+len(day.Failed) == 0 {
		fmt.Fprintln(w, "  nothing scheduled")
	}
}

// renderInstanceList writes a date-grouped task list as text.
func renderInstanceList(w io.Writer, instances []*task.Instance, titles titleIndex) error {
	if len(instances) == 0 {
		fmt.Fprintln(w, "no tasks in range")
		return nil
	}

	var current task.Date
	for _, inst := range instances {
		if inst.Date != current {
			current = inst.Date
			fmt.Fprintf(w, "%s\n", current)
		}
		fmt.Fprintf(w, "  [%s] %s  %s\n", statusMark(inst.Status), titles.titleFor(inst), inst.ID)
	}
	return nil
}

// renderInstance writes a single instance after a mutation.
func renderInstance(w io.Writer, inst *task.Instance, titles titleIndex) error {
	fmt.Fprintf(w, "[%s] %s  %s  %s\n",
		statusMark(inst.Status), titles.titleFor(inst), inst.Date, inst.Status)
	return nil
}

// renderTemplateList writes the template table as text.
func renderTemplateList(w io.Writer, templates []*task.Template) error {
	if len(templates) == 0 {
		fmt.Fprintln(w, "no templates")
		return nil
	}
	for _, t := range templates {
		state := ""
		if !t.Active {
			state = "  (archived)"
		}
		fmt.Fprintf(w, "%s: %s - %s [%s]%s\n", t.ID, t.Title, describeSchedule(t), t.Carry, state)
	}
	return nil
}
