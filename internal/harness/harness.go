// Package harness runs declarative scheduler scenarios for conformance
// testing.
//
// A scenario seeds templates, executes a flow of scheduler operations
// against an in-memory database with a pinned clock and sequential IDs,
// then snapshots every row - tombstones included - over a date range. The
// snapshot serializes deterministically, so golden files lock in the exact
// row-level behavior of a flow: which occurrences exist, their statuses,
// and which slots are held by tombstones.
package harness

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/cadence/internal/engine"
	"github.com/roach88/cadence/internal/store"
	"github.com/roach88/cadence/internal/task"
	"github.com/roach88/cadence/internal/testutil"
)

// Snapshot is the captured end state of a scenario run.
type Snapshot struct {
	Scenario string        `json:"scenario"`
	Today    string        `json:"today"` // the clock's final day
	Rows     []SnapshotRow `json:"rows"`
}

// SnapshotRow is one instance row, tombstones included.
type SnapshotRow struct {
	ID          string `json:"id"`
	Template    string `json:"template"`
	Date        string `json:"date"`
	Status      string `json:"status"`
	CompletedAt string `json:"completed_at,omitempty"`
}

// Run executes a scenario in a fresh in-memory database and returns the
// snapshot. The clock starts at scenario.Today and only moves via advance
// steps; instance IDs are sequential ("fixed-1", "fixed-2", ...), so a
// flow always produces identical rows.
func Run(scenario *Scenario) (*Snapshot, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("open in-memory store: %w", err)
	}
	defer st.Close()

	clock := testutil.NewFixedClock(task.MustParseDate(scenario.Today))
	sched := engine.New(st, clock,
		engine.WithIDGenerator(task.NewFixedIDGenerator()))

	ctx := context.Background()

	for _, ts := range scenario.Templates {
		tmpl, err := ts.toTemplate()
		if err != nil {
			return nil, err
		}
		if err := st.CreateTemplate(ctx, tmpl); err != nil {
			return nil, fmt.Errorf("seed template %s: %w", ts.ID, err)
		}
	}

	for i, step := range scenario.Flow {
		if err := executeStep(ctx, st, sched, clock, step); err != nil {
			return nil, fmt.Errorf("flow step %d (%s): %w", i+1, step.Action, err)
		}
	}

	return capture(ctx, st, clock, scenario)
}

func executeStep(ctx context.Context, st *store.Store, sched *engine.Scheduler, clock *testutil.FixedClock, step FlowStep) error {
	switch step.Action {
	case "materialize":
		from, err := task.ParseDate(step.From)
		if err != nil {
			return err
		}
		to, err := task.ParseDate(step.To)
		if err != nil {
			return err
		}
		_, err = sched.MaterializeRange(ctx, from, to)
		return err

	case "complete":
		inst, err := resolveInstance(ctx, st, step)
		if err != nil {
			return err
		}
		_, err = sched.Complete(ctx, inst.ID)
		return err

	case "uncomplete":
		inst, err := resolveInstance(ctx, st, step)
		if err != nil {
			return err
		}
		_, err = sched.Uncomplete(ctx, inst.ID)
		return err

	case "delete":
		inst, err := resolveInstance(ctx, st, step)
		if err != nil {
			return err
		}
		_, err = sched.Delete(ctx, inst.ID)
		return err

	case "reschedule":
		inst, err := resolveInstance(ctx, st, step)
		if err != nil {
			return err
		}
		to, err := task.ParseDate(step.To)
		if err != nil {
			return err
		}
		_, err = sched.Reschedule(ctx, inst.ID, to)
		return err

	case "sweep":
		_, err := sched.SweepOverdue(ctx)
		return err

	case "advance":
		if step.Days < 1 {
			return fmt.Errorf("advance requires days >= 1")
		}
		clock.Advance(step.Days)
		return nil

	default:
		return fmt.Errorf("unknown action %q", step.Action)
	}
}

// resolveInstance finds the instance a step refers to by (template, date).
func resolveInstance(ctx context.Context, st *store.Store, step FlowStep) (*task.Instance, error) {
	date, err := task.ParseDate(step.Date)
	if err != nil {
		return nil, err
	}
	inst, err := st.InstanceAt(ctx, step.Template, date)
	if err != nil {
		return nil, fmt.Errorf("no instance of %s on %s: %w", step.Template, date, err)
	}
	return inst, nil
}

func capture(ctx context.Context, st *store.Store, clock *testutil.FixedClock, scenario *Scenario) (*Snapshot, error) {
	from, err := task.ParseDate(scenario.Snapshot.From)
	if err != nil {
		return nil, fmt.Errorf("snapshot range: %w", err)
	}
	to, err := task.ParseDate(scenario.Snapshot.To)
	if err != nil {
		return nil, fmt.Errorf("snapshot range: %w", err)
	}

	rows, err := st.InstancesInRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("snapshot read: %w", err)
	}

	snap := &Snapshot{
		Scenario: scenario.Name,
		Today:    clock.Today().String(),
		Rows:     []SnapshotRow{},
	}
	for _, inst := range rows {
		row := SnapshotRow{
			ID:       inst.ID,
			Template: inst.TemplateID,
			Date:     inst.Date.String(),
			Status:   string(inst.Status),
		}
		if inst.CompletedAt != nil {
			row.CompletedAt = inst.CompletedAt.UTC().Format(time.RFC3339)
		}
		snap.Rows = append(snap.Rows, row)
	}
	return snap, nil
}
