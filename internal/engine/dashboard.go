package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/roach88/cadence/internal/task"
)

// DashboardView is the composed today/tomorrow read model.
type DashboardView struct {
	Today    DaySection
	Tomorrow DaySection
}

// DaySection groups one day's instances by lifecycle bucket.
//
// Overdue holds OPEN carry-over instances from earlier days - it is only
// populated for today, and "overdue" is derived from the date comparison,
// never stored. Tomorrow's section can only ever hold Open and Done
// (completed ahead of time); its Overdue and Failed stay empty.
type DaySection struct {
	Date    task.Date
	Overdue []*task.Instance
	Open    []*task.Instance
	Done    []*task.Instance
	Failed  []*task.Instance
}

// Dashboard builds the today/tomorrow view: materialize through tomorrow,
// sweep overdue, then read and bucket. Lazy generation means the first
// read of a day creates its instances; repeat reads are no-ops.
func (s *Scheduler) Dashboard(ctx context.Context) (*DashboardView, error) {
	today := s.clock.Today()
	tomorrow := today.Next()

	if _, err := s.MaterializeRange(ctx, today, tomorrow); err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}
	if _, err := s.SweepOverdue(ctx); err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}

	view := &DashboardView{
		Today:    DaySection{Date: today},
		Tomorrow: DaySection{Date: tomorrow},
	}

	overdue, err := s.store.OverdueCarryOver(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}
	view.Today.Overdue = overdue

	todayRows, err := s.store.InstancesOnDate(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}
	for _, inst := range todayRows {
		switch inst.Status {
		case task.StatusOpen:
			view.Today.Open = append(view.Today.Open, inst)
		case task.StatusDone:
			view.Today.Done = append(view.Today.Done, inst)
		case task.StatusFailed:
			view.Today.Failed = append(view.Today.Failed, inst)
		}
		// DELETED rows are tombstones, invisible to readers.
	}

	tomorrowRows, err := s.store.InstancesOnDate(ctx, tomorrow)
	if err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}
	for _, inst := range tomorrowRows {
		switch inst.Status {
		case task.StatusOpen:
			view.Tomorrow.Open = append(view.Tomorrow.Open, inst)
		case task.StatusDone:
			view.Tomorrow.Done = append(view.Tomorrow.Done, inst)
		}
	}

	return view, nil
}

// InstancesForRange is the generate-then-sweep-then-read pattern over an
// arbitrary window. Results exclude tombstones and are ordered date
// ascending, OPEN before resolved statuses within a day, then by id.
func (s *Scheduler) InstancesForRange(ctx context.Context, from, to task.Date) ([]*task.Instance, error) {
	if _, err := s.MaterializeRange(ctx, from, to); err != nil {
		return nil, fmt.Errorf("instances for range: %w", err)
	}
	if _, err := s.SweepOverdue(ctx); err != nil {
		return nil, fmt.Errorf("instances for range: %w", err)
	}

	rows, err := s.store.InstancesInRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("instances for range: %w", err)
	}

	instances := []*task.Instance{}
	for _, inst := range rows {
		if inst.Status != task.StatusDeleted {
			instances = append(instances, inst)
		}
	}

	sort.SliceStable(instances, func(i, j int) bool {
		a, b := instances[i], instances[j]
		if a.Date != b.Date {
			return a.Date.Before(b.Date)
		}
		if ra, rb := statusRank(a.Status), statusRank(b.Status); ra != rb {
			return ra < rb
		}
		return a.ID < b.ID
	})
	return instances, nil
}

// statusRank orders OPEN ahead of resolved statuses in range reads.
func statusRank(s task.Status) int {
	switch s {
	case task.StatusOpen:
		return 0
	case task.StatusDone:
		return 1
	case task.StatusFailed:
		return 2
	}
	return 3
}
