package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/cadence/internal/task"
)

// SweepOverdue transitions every OPEN instance dated before today to
// FAILED, for FAIL_ON_MISS templates only. CARRY_OVER_STACK instances are
// untouched: they remain OPEN and readers classify them as overdue by date
// comparison. Returns the number of instances transitioned.
//
// Safe to run repeatedly - already-FAILED rows no longer match the filter.
func (s *Scheduler) SweepOverdue(ctx context.Context) (int64, error) {
	today := s.clock.Today()
	n, err := s.store.FailOverdue(ctx, today)
	if err != nil {
		return 0, fmt.Errorf("sweep overdue: %w", err)
	}
	if n > 0 {
		s.log.Info("swept overdue instances", "today", today, "failed", n)
	}
	return n, nil
}

// Complete transitions an OPEN instance to DONE, stamping CompletedAt.
func (s *Scheduler) Complete(ctx context.Context, instanceID string) (*task.Instance, error) {
	inst, err := s.getInstance(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	if inst.Status != task.StatusOpen {
		return nil, newInvalidTransition(instanceID, inst.Status, "complete")
	}

	now := s.clock.Now()
	if err := s.store.SetInstanceStatus(ctx, instanceID, task.StatusDone, &now); err != nil {
		return nil, fmt.Errorf("complete instance %s: %w", instanceID, err)
	}

	inst.Status = task.StatusDone
	inst.CompletedAt = &now
	return inst, nil
}

// Uncomplete transitions a DONE instance back to OPEN, clearing
// CompletedAt.
func (s *Scheduler) Uncomplete(ctx context.Context, instanceID string) (*task.Instance, error) {
	inst, err := s.getInstance(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	if inst.Status != task.StatusDone {
		return nil, newInvalidTransition(instanceID, inst.Status, "uncomplete")
	}

	if err := s.store.SetInstanceStatus(ctx, instanceID, task.StatusOpen, nil); err != nil {
		return nil, fmt.Errorf("uncomplete instance %s: %w", instanceID, err)
	}

	inst.Status = task.StatusOpen
	inst.CompletedAt = nil
	return inst, nil
}

// Delete transitions an instance to DELETED. Terminal and permanent: the
// row stays in place as a tombstone, keeping its (template, date) slot
// claimed so regeneration can never recreate the occurrence.
func (s *Scheduler) Delete(ctx context.Context, instanceID string) (*task.Instance, error) {
	inst, err := s.getInstance(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	if inst.Status == task.StatusDeleted {
		return nil, newInvalidTransition(instanceID, inst.Status, "delete")
	}

	if err := s.store.SetInstanceStatus(ctx, instanceID, task.StatusDeleted, nil); err != nil {
		return nil, fmt.Errorf("delete instance %s: %w", instanceID, err)
	}

	inst.Status = task.StatusDeleted
	inst.CompletedAt = nil
	return inst, nil
}

// SetOverride updates an instance's per-occurrence display overrides.
// Overrides never affect scheduling, so any non-DELETED status accepts
// them.
func (s *Scheduler) SetOverride(ctx context.Context, instanceID, customTitle, customNotes string) (*task.Instance, error) {
	inst, err := s.getInstance(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	if inst.Status == task.StatusDeleted {
		return nil, newInvalidTransition(instanceID, inst.Status, "override")
	}

	if err := s.store.SetInstanceOverride(ctx, instanceID, customTitle, customNotes); err != nil {
		return nil, fmt.Errorf("override instance %s: %w", instanceID, err)
	}

	inst.CustomTitle = customTitle
	inst.CustomNotes = customNotes
	return inst, nil
}

// getInstance loads an instance, mapping a missing row to NOT_FOUND.
func (s *Scheduler) getInstance(ctx context.Context, instanceID string) (*task.Instance, error) {
	inst, err := s.store.GetInstance(ctx, instanceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, newNotFound("instance", instanceID)
		}
		return nil, fmt.Errorf("get instance %s: %w", instanceID, err)
	}
	return inst, nil
}
