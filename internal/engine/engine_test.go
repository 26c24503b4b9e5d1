package engine

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/cadence/internal/store"
	"github.com/roach88/cadence/internal/task"
	"github.com/roach88/cadence/internal/testutil"
)

func date(s string) task.Date { return task.MustParseDate(s) }

// newTestScheduler wires a Scheduler over a fresh temp-dir store with a
// pinned clock and sequential IDs.
func newTestScheduler(t *testing.T, today string) (*Scheduler, *store.Store, *testutil.FixedClock) {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	clock := testutil.NewFixedClock(date(today))
	sched := New(st, clock, WithIDGenerator(task.NewFixedIDGenerator()))
	return sched, st, clock
}

func mustCreateTemplate(t *testing.T, st *store.Store, tmpl *task.Template) {
	t.Helper()
	require.NoError(t, st.CreateTemplate(context.Background(), tmpl))
}

func instanceDates(instances []*task.Instance) []string {
	out := make([]string, len(instances))
	for i, inst := range instances {
		out[i] = inst.Date.String()
	}
	return out
}
