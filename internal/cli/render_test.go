package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cadence/internal/engine"
	"github.com/roach88/cadence/internal/task"
)

func newGoldie(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func fixtureTitles() titleIndex {
	return titleIndex{
		"standup": "Standup notes",
		"rent":    "Pay rent",
		"water":   "Water the plants",
		"trash":   "Take out trash",
		"journal": "Journal",
	}
}

func inst(id, templateID, date string, status task.Status) *task.Instance {
	return &task.Instance{
		ID:         id,
		TemplateID: templateID,
		Date:       task.MustParseDate(date),
		Status:     status,
	}
}

func TestRenderDashboard(t *testing.T) {
	view := &engine.DashboardView{
		Today: engine.DaySection{
			Date: task.MustParseDate("2024-01-10"),
			Overdue: []*task.Instance{
				inst("inst-over-1", "water", "2024-01-08", task.StatusOpen),
			},
			Open: []*task.Instance{
				inst("inst-open-1", "standup", "2024-01-10", task.StatusOpen),
				inst("inst-open-2", "journal", "2024-01-10", task.StatusOpen),
			},
			Done: []*task.Instance{
				inst("inst-done-1", "rent", "2024-01-10", task.StatusDone),
			},
			Failed: []*task.Instance{
				inst("inst-fail-1", "trash", "2024-01-10", task.StatusFailed),
			},
		},
		Tomorrow: engine.DaySection{
			Date: task.MustParseDate("2024-01-11"),
			Open: []*task.Instance{
				inst("inst-tmrw-1", "standup", "2024-01-11", task.StatusOpen),
			},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, renderDashboard(&buf, view, fixtureTitles()))
	newGoldie(t).Assert(t, "dashboard", buf.Bytes())
}

func TestRenderDashboard_Empty(t *testing.T) {
	view := &engine.DashboardView{
		Today:    engine.DaySection{Date: task.MustParseDate("2024-01-10")},
		Tomorrow: engine.DaySection{Date: task.MustParseDate("2024-01-11")},
	}

	var buf bytes.Buffer
	require.NoError(t, renderDashboard(&buf, view, fixtureTitles()))
	newGoldie(t).Assert(t, "dashboard_empty", buf.Bytes())
}

func TestRenderInstanceList(t *testing.T) {
	instances := []*task.Instance{
		inst("inst-open-1", "standup", "2024-01-10", task.StatusOpen),
		inst("inst-done-1", "rent", "2024-01-10", task.StatusDone),
		inst("inst-open-2", "journal", "2024-01-11", task.StatusOpen),
	}

	var buf bytes.Buffer
	require.NoError(t, renderInstanceList(&buf, instances, fixtureTitles()))
	newGoldie(t).Assert(t, "list", buf.Bytes())
}

func TestRenderInstanceList_CustomTitleWins(t *testing.T) {
	custom := inst("inst-open-1", "standup", "2024-01-10", task.StatusOpen)
	custom.CustomTitle = "Standup notes (cover for Dana)"

	var buf bytes.Buffer
	require.NoError(t, renderInstanceList(&buf, []*task.Instance{custom}, fixtureTitles()))
	newGoldie(t).Assert(t, "list_override", buf.Bytes())
}

func TestRenderTemplateList(t *testing.T) {
	templates := []*task.Template{
		{
			ID: "rent", Title: "Pay rent", Kind: task.KindMonthly,
			Carry: task.FailOnMiss, Active: true,
			MonthlyMode: task.MonthlySpecificDay, MonthlyDay: 1,
		},
		{
			ID: "standup", Title: "Standup notes", Kind: task.KindWeekly,
			Carry: task.FailOnMiss, Active: true,
			Weekdays: task.NewWeekdaySet(time.Monday, time.Wednesday, time.Friday),
		},
		{
			ID: "taxes", Title: "File taxes", Kind: task.KindYearly,
			Carry: task.FailOnMiss, Active: true,
			YearlyMonth: time.April, YearlyDay: 15,
		},
		{
			ID: "water", Title: "Water the plants", Kind: task.KindInterval,
			Carry: task.CarryOverStack, Active: false,
			IntervalUnit: task.UnitWeek, IntervalValue: 2,
			AnchorDate: task.MustParseDate("2024-01-01"),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, renderTemplateList(&buf, templates))
	newGoldie(t).Assert(t, "template_list", buf.Bytes())
}
