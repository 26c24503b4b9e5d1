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

func TestReschedule_NoResurrection(t *testing.T) {
	sched, st, _ := newTestScheduler(t, "2024-01-08")
	ctx := context.Background()

	// Mondays. 2024-01-08 is a Monday.
	tmpl := testutil.Weekly("tmpl-mon", time.Monday)
	mustCreateTemplate(t, st, tmpl)

	created, err := sched.Materialize(ctx, tmpl, date("2024-01-08"), date("2024-01-08"))
	require.NoError(t, err)
	require.Len(t, created, 1)

	// Snooze Monday's task to Wednesday.
	moved, err := sched.Reschedule(ctx, created[0].ID, date("2024-01-10"))
	require.NoError(t, err)
	assert.Equal(t, date("2024-01-10"), moved.Date)

	// A subsequent materialization over the week must NOT recreate the
	// Monday occurrence: the vacated slot holds a tombstone.
	again, err := sched.Materialize(ctx, tmpl, date("2024-01-08"), date("2024-01-14"))
	require.NoError(t, err)
	assert.Empty(t, again)

	tomb, err := st.InstanceAt(ctx, "tmpl-mon", date("2024-01-08"))
	require.NoError(t, err)
	assert.Equal(t, task.StatusDeleted, tomb.Status)

	// The moved instance is still the one and only live row.
	rows, err := sched.InstancesForRange(ctx, date("2024-01-08"), date("2024-01-14"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, created[0].ID, rows[0].ID)
	assert.Equal(t, date("2024-01-10"), rows[0].Date)
}

func TestReschedule_OnceTemplateNoTombstone(t *testing.T) {
	sched, st, _ := newTestScheduler(t, "2024-03-01")
	ctx := context.Background()

	tmpl := testutil.Once("tmpl-once", date("2024-03-15"))
	mustCreateTemplate(t, st, tmpl)

	created, err := sched.Materialize(ctx, tmpl, date("2024-03-01"), date("2024-03-31"))
	require.NoError(t, err)
	require.Len(t, created, 1)

	moved, err := sched.Reschedule(ctx, created[0].ID, date("2024-03-20"))
	require.NoError(t, err)
	assert.Equal(t, date("2024-03-20"), moved.Date)

	// No tombstone at the vacated anchor.
	_, err = st.InstanceAt(ctx, "tmpl-once", date("2024-03-15"))
	assert.Error(t, err, "ONCE reschedule leaves no tombstone behind")

	// One-shot semantics still prevent resurrection at the anchor.
	again, err := sched.Materialize(ctx, tmpl, date("2024-03-01"), date("2024-03-31"))
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestReschedule_DateConflict(t *testing.T) {
	sched, st, _ := newTestScheduler(t, "2024-01-08")
	ctx := context.Background()

	tmpl := testutil.Daily("tmpl-daily")
	mustCreateTemplate(t, st, tmpl)

	created, err := sched.Materialize(ctx, tmpl, date("2024-01-08"), date("2024-01-09"))
	require.NoError(t, err)
	require.Len(t, created, 2)

	// Moving Monday's instance onto Tuesday's occupied slot is rejected.
	_, err = sched.Reschedule(ctx, created[0].ID, date("2024-01-09"))
	require.Error(t, err)
	assert.True(t, IsDateConflict(err))

	// Both instances are unchanged.
	a, err := st.GetInstance(ctx, created[0].ID)
	require.NoError(t, err)
	assert.Equal(t, date("2024-01-08"), a.Date)
	assert.Equal(t, task.StatusOpen, a.Status)

	b, err := st.GetInstance(ctx, created[1].ID)
	require.NoError(t, err)
	assert.Equal(t, date("2024-01-09"), b.Date)
}

func TestReschedule_TombstoneAtTargetConflicts(t *testing.T) {
	sched, st, _ := newTestScheduler(t, "2024-01-08")
	ctx := context.Background()

	tmpl := testutil.Daily("tmpl-daily")
	mustCreateTemplate(t, st, tmpl)

	created, err := sched.Materialize(ctx, tmpl, date("2024-01-08"), date("2024-01-09"))
	require.NoError(t, err)

	// Delete Tuesday's instance: its slot stays claimed by the tombstone.
	_, err = sched.Delete(ctx, created[1].ID)
	require.NoError(t, err)

	_, err = sched.Reschedule(ctx, created[0].ID, date("2024-01-09"))
	require.Error(t, err)
	assert.True(t, IsDateConflict(err))
}

func TestReschedule_SameDateIsNoop(t *testing.T) {
	sched, st, _ := newTestScheduler(t, "2024-01-08")
	ctx := context.Background()

	tmpl := testutil.Daily("tmpl-daily")
	mustCreateTemplate(t, st, tmpl)
	created, err := sched.Materialize(ctx, tmpl, date("2024-01-08"), date("2024-01-08"))
	require.NoError(t, err)

	moved, err := sched.Reschedule(ctx, created[0].ID, date("2024-01-08"))
	require.NoError(t, err)
	assert.Equal(t, date("2024-01-08"), moved.Date)

	// No tombstone appeared at the (unchanged) date.
	row, err := st.InstanceAt(ctx, "tmpl-daily", date("2024-01-08"))
	require.NoError(t, err)
	assert.Equal(t, created[0].ID, row.ID)
	assert.Equal(t, task.StatusOpen, row.Status)
}

func TestReschedule_DoneInstanceMoves(t *testing.T) {
	// Direct date edit is allowed for any non-DELETED status, not just OPEN.
	sched, st, _ := newTestScheduler(t, "2024-01-08")
	ctx := context.Background()

	tmpl := testutil.Daily("tmpl-daily")
	mustCreateTemplate(t, st, tmpl)
	created, err := sched.Materialize(ctx, tmpl, date("2024-01-08"), date("2024-01-08"))
	require.NoError(t, err)

	_, err = sched.Complete(ctx, created[0].ID)
	require.NoError(t, err)

	moved, err := sched.Reschedule(ctx, created[0].ID, date("2024-01-12"))
	require.NoError(t, err)
	assert.Equal(t, date("2024-01-12"), moved.Date)
	assert.Equal(t, task.StatusDone, moved.Status)

	tomb, err := st.InstanceAt(ctx, "tmpl-daily", date("2024-01-08"))
	require.NoError(t, err)
	assert.Equal(t, task.StatusDeleted, tomb.Status)
}

func TestReschedule_RepeatedMovesLeaveTombstoneTrail(t *testing.T) {
	sched, st, _ := newTestScheduler(t, "2024-01-08")
	ctx := context.Background()

	tmpl := testutil.Daily("tmpl-daily")
	mustCreateTemplate(t, st, tmpl)
	created, err := sched.Materialize(ctx, tmpl, date("2024-01-08"), date("2024-01-08"))
	require.NoError(t, err)

	_, err = sched.Reschedule(ctx, created[0].ID, date("2024-01-20"))
	require.NoError(t, err)
	_, err = sched.Reschedule(ctx, created[0].ID, date("2024-01-25"))
	require.NoError(t, err)

	// Both vacated dates hold tombstones; materializing the window
	// regenerates only the genuinely unclaimed days.
	for _, day := range []string{"2024-01-08", "2024-01-20"} {
		tomb, err := st.InstanceAt(ctx, "tmpl-daily", date(day))
		require.NoError(t, err, "tombstone expected at %s", day)
		assert.Equal(t, task.StatusDeleted, tomb.Status)
	}

	inst, err := st.GetInstance(ctx, created[0].ID)
	require.NoError(t, err)
	assert.Equal(t, date("2024-01-25"), inst.Date)
}
