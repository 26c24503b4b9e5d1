package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/cadence/internal/store"
	"github.com/roach88/cadence/internal/task"
)

// Reschedule moves an instance to a new calendar day.
//
// Preconditions: the instance exists and is not DELETED; the target slot
// holds no other row for the same template (a live instance there is a
// DATE_CONFLICT; so is a tombstone, since the slot stays claimed in any
// status).
//
// For recurring templates the vacated date receives a DELETED tombstone in
// the same transaction as the date update, so a concurrent materialization
// pass can never resurrect an occurrence at the date the user moved away
// from. ONCE templates need no tombstone - nothing regenerates them.
//
// Rescheduling an instance onto its current date is a no-op that returns
// the instance unchanged.
func (s *Scheduler) Reschedule(ctx context.Context, instanceID string, newDate task.Date) (*task.Instance, error) {
	inst, err := s.getInstance(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	if inst.Status == task.StatusDeleted {
		return nil, newInvalidTransition(instanceID, inst.Status, "reschedule")
	}
	if inst.Date == newDate {
		return inst, nil
	}

	tmpl, err := s.store.GetTemplate(ctx, inst.TemplateID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, newNotFound("template", inst.TemplateID)
		}
		return nil, fmt.Errorf("reschedule instance %s: %w", instanceID, err)
	}

	var tombstone *task.Instance
	if tmpl.Recurring() {
		tombstone = &task.Instance{
			ID:         s.ids.NewID(),
			TemplateID: inst.TemplateID,
			Date:       inst.Date,
			Status:     task.StatusDeleted,
		}
	}

	originalDate := inst.Date
	if err := s.store.MoveInstance(ctx, inst, newDate, tombstone); err != nil {
		if errors.Is(err, store.ErrSlotConflict) {
			return nil, newDateConflict(instanceID, inst.TemplateID, newDate)
		}
		return nil, fmt.Errorf("reschedule instance %s: %w", instanceID, err)
	}

	s.log.Info("rescheduled instance",
		"instance", instanceID, "from", originalDate, "to", newDate,
		"tombstoned", tombstone != nil)

	inst.Date = newDate
	return inst, nil
}
