package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cadence/internal/task"
	"github.com/roach88/cadence/internal/testutil"
)

func TestMaterialize_CreatesOneInstancePerOccurrence(t *testing.T) {
	sched, st, _ := newTestScheduler(t, "2024-01-01")
	ctx := context.Background()

	tmpl := testutil.Weekly("tmpl-gym", time.Monday, time.Thursday)
	mustCreateTemplate(t, st, tmpl)

	created, err := sched.Materialize(ctx, tmpl, date("2024-01-01"), date("2024-01-14"))
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-01", "2024-01-04", "2024-01-08", "2024-01-11"},
		instanceDates(created))

	for _, inst := range created {
		assert.Equal(t, task.StatusOpen, inst.Status)
		assert.Equal(t, "tmpl-gym", inst.TemplateID)
	}
}

func TestMaterialize_Idempotent(t *testing.T) {
	sched, st, _ := newTestScheduler(t, "2024-01-01")
	ctx := context.Background()

	tmpl := testutil.Daily("tmpl-daily")
	mustCreateTemplate(t, st, tmpl)

	first, err := sched.Materialize(ctx, tmpl, date("2024-01-01"), date("2024-01-07"))
	require.NoError(t, err)
	assert.Len(t, first, 7)

	// Second pass over the same range creates nothing.
	second, err := sched.Materialize(ctx, tmpl, date("2024-01-01"), date("2024-01-07"))
	require.NoError(t, err)
	assert.Empty(t, second)

	// Overlapping range only fills the uncovered tail.
	third, err := sched.Materialize(ctx, tmpl, date("2024-01-05"), date("2024-01-09"))
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-08", "2024-01-09"}, instanceDates(third))
}

func TestMaterialize_ResolvedSlotsNotOverwritten(t *testing.T) {
	sched, st, _ := newTestScheduler(t, "2024-01-01")
	ctx := context.Background()

	tmpl := testutil.Daily("tmpl-daily")
	mustCreateTemplate(t, st, tmpl)

	created, err := sched.Materialize(ctx, tmpl, date("2024-01-01"), date("2024-01-03"))
	require.NoError(t, err)
	require.Len(t, created, 3)

	// Resolve one slot, tombstone another.
	_, err = sched.Complete(ctx, created[0].ID)
	require.NoError(t, err)
	_, err = sched.Delete(ctx, created[1].ID)
	require.NoError(t, err)

	again, err := sched.Materialize(ctx, tmpl, date("2024-01-01"), date("2024-01-03"))
	require.NoError(t, err)
	assert.Empty(t, again, "resolved and tombstoned slots must not regenerate")

	done, err := st.GetInstance(ctx, created[0].ID)
	require.NoError(t, err)
	assert.Equal(t, task.StatusDone, done.Status)
}

func TestMaterialize_ArchivedTemplateGeneratesNothing(t *testing.T) {
	sched, st, _ := newTestScheduler(t, "2024-01-01")
	ctx := context.Background()

	tmpl := testutil.Daily("tmpl-archived")
	tmpl.Active = false
	mustCreateTemplate(t, st, tmpl)

	created, err := sched.Materialize(ctx, tmpl, date("2024-01-01"), date("2024-01-07"))
	require.NoError(t, err)
	assert.Empty(t, created)
}

func TestMaterialize_ZeroIntervalFailsClosed(t *testing.T) {
	sched, _, _ := newTestScheduler(t, "2024-01-01")

	// Bypasses template validation on purpose: a misconfigured row must
	// yield zero occurrences, not a hang.
	tmpl := testutil.Interval("tmpl-broken", date("2024-01-01"), task.UnitDay, 1)
	tmpl.IntervalValue = 0

	created, err := sched.Materialize(context.Background(), tmpl, date("2024-01-01"), date("2024-12-31"))
	require.NoError(t, err)
	assert.Empty(t, created)
}

func TestMaterialize_StartDateFloor(t *testing.T) {
	sched, st, _ := newTestScheduler(t, "2024-01-01")

	tmpl := testutil.WithStartDate(testutil.Daily("tmpl-floor"), date("2024-01-05"))
	mustCreateTemplate(t, st, tmpl)

	created, err := sched.Materialize(context.Background(), tmpl, date("2024-01-01"), date("2024-01-07"))
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-05", "2024-01-06", "2024-01-07"}, instanceDates(created))
}

func TestMaterializeRange_CoversAllActiveTemplates(t *testing.T) {
	sched, st, _ := newTestScheduler(t, "2024-01-01")
	ctx := context.Background()

	mustCreateTemplate(t, st, testutil.Daily("tmpl-a"))
	mustCreateTemplate(t, st, testutil.Weekly("tmpl-b", time.Monday))
	archived := testutil.Daily("tmpl-c")
	archived.Active = false
	mustCreateTemplate(t, st, archived)

	// Jan 1 2024 is a Monday: daily yields 2, weekly yields 1.
	created, err := sched.MaterializeRange(ctx, date("2024-01-01"), date("2024-01-02"))
	require.NoError(t, err)
	assert.Len(t, created, 3)

	byTemplate := map[string]int{}
	for _, inst := range created {
		byTemplate[inst.TemplateID]++
	}
	assert.Equal(t, map[string]int{"tmpl-a": 2, "tmpl-b": 1}, byTemplate)
}

func TestMaterialize_ConcurrentPassesNoDuplicates(t *testing.T) {
	sched, st, _ := newTestScheduler(t, "2024-01-01")
	ctx := context.Background()

	tmpl := testutil.Daily("tmpl-race")
	mustCreateTemplate(t, st, tmpl)

	// Two goroutines materialize the same window; the unique slot index
	// arbitrates. Total created across both must equal the window size.
	results := make(chan int, 2)
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			created, err := sched.Materialize(ctx, tmpl, date("2024-01-01"), date("2024-01-31"))
			results <- len(created)
			errs <- err
		}()
	}

	total := 0
	for i := 0; i < 2; i++ {
		require.NoError(t, <-errs)
		total += <-results
	}
	assert.Equal(t, 31, total)

	rows, err := st.InstancesInRange(ctx, date("2024-01-01"), date("2024-01-31"))
	require.NoError(t, err)
	assert.Len(t, rows, 31)
}
