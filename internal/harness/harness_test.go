package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarios_Golden(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths, "no scenario files found")

	for _, path := range paths {
		scenario, err := LoadScenario(path)
		require.NoError(t, err, "loading %s", path)

		t.Run(scenario.Name, func(t *testing.T) {
			RunWithGolden(t, scenario)
		})
	}
}

func TestRun_UnknownAction(t *testing.T) {
	scenario := &Scenario{
		Name:  "bad",
		Today: "2024-01-01",
		Flow:  []FlowStep{{Action: "explode"}},
	}
	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown action "explode"`)
}

func TestRun_StepTargetsMissingInstance(t *testing.T) {
	scenario := &Scenario{
		Name:  "missing",
		Today: "2024-01-01",
		Templates: []TemplateSpec{
			{ID: "chores", Title: "Chores", Kind: "DAILY"},
		},
		Flow: []FlowStep{
			{Action: "complete", Template: "chores", Date: "2024-01-01"},
		},
	}
	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no instance of chores")
}

func TestRun_InvalidTemplateRejected(t *testing.T) {
	scenario := &Scenario{
		Name:  "invalid",
		Today: "2024-01-01",
		Templates: []TemplateSpec{
			{ID: "w", Title: "W", Kind: "WEEKLY"}, // no weekdays
		},
	}
	_, err := Run(scenario)
	assert.Error(t, err)
}

func TestLoadScenario_Errors(t *testing.T) {
	_, err := LoadScenario("testdata/scenarios/absent.yaml")
	assert.Error(t, err)
}

func TestTemplateSpec_UnknownWeekday(t *testing.T) {
	ts := &TemplateSpec{ID: "x", Title: "X", Kind: "WEEKLY", Weekdays: []string{"FUNDAY"}}
	_, err := ts.toTemplate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown weekday "FUNDAY"`)
}
