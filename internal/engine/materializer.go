package engine

import (
	"context"
	"fmt"

	"github.com/roach88/cadence/internal/schedule"
	"github.com/roach88/cadence/internal/task"
)

// Materialize evaluates one template over [start, end] and inserts an OPEN
// instance for every occurrence whose (template, date) slot is empty.
// Returns the instances this call created; slots already occupied in any
// status are skipped silently.
//
// Idempotent and safe to call repeatedly or concurrently for overlapping
// ranges: the store's unique slot index arbitrates, and a conflicting
// concurrent insert is indistinguishable from "already exists". Only
// storage-level failures propagate, aborting the remainder of the batch.
//
// Archived templates generate nothing; their history stays readable.
func (s *Scheduler) Materialize(ctx context.Context, tmpl *task.Template, start, end task.Date) ([]*task.Instance, error) {
	created := []*task.Instance{}

	if !tmpl.Active {
		s.log.Debug("skipping archived template", "template", tmpl.ID)
		return created, nil
	}
	if tmpl.Kind == task.KindInterval && tmpl.IntervalValue < 1 {
		// Fails closed in the evaluator; worth surfacing because it means
		// a template slipped past config validation.
		s.log.Warn("interval template with non-positive interval value generates nothing",
			"template", tmpl.ID, "interval_value", tmpl.IntervalValue)
		return created, nil
	}

	if tmpl.Kind == task.KindOnce {
		// One-shot: once the single occurrence has a row anywhere - even
		// rescheduled off the anchor, which vacates the anchor slot -
		// nothing regenerates. Recurring templates get this guarantee
		// from reschedule tombstones instead.
		exists, err := s.store.HasInstances(ctx, tmpl.ID)
		if err != nil {
			return nil, fmt.Errorf("materialize template %s: %w", tmpl.ID, err)
		}
		if exists {
			return created, nil
		}
	}

	for _, date := range schedule.OccurrencesInRange(tmpl, start, end) {
		inst := &task.Instance{
			ID:         s.ids.NewID(),
			TemplateID: tmpl.ID,
			Date:       date,
			Status:     task.StatusOpen,
		}
		inserted, err := s.store.CreateInstance(ctx, inst)
		if err != nil {
			return nil, fmt.Errorf("materialize template %s: %w", tmpl.ID, err)
		}
		if inserted {
			created = append(created, inst)
		}
	}

	s.log.Debug("materialized template",
		"template", tmpl.ID, "start", start, "end", end, "created", len(created))
	return created, nil
}

// MaterializeRange materializes every active template over [start, end].
// Returns all instances created across templates, in template iteration
// order (templates sorted by id, dates ascending within each).
func (s *Scheduler) MaterializeRange(ctx context.Context, start, end task.Date) ([]*task.Instance, error) {
	templates, err := s.store.ListActiveTemplates(ctx)
	if err != nil {
		return nil, fmt.Errorf("materialize range: %w", err)
	}

	created := []*task.Instance{}
	for _, tmpl := range templates {
		instances, err := s.Materialize(ctx, tmpl, start, end)
		if err != nil {
			return nil, err
		}
		created = append(created, instances...)
	}
	return created, nil
}
