package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/cadence/internal/task"
)

// CreateInstance inserts an instance row, claiming its (template_id, date)
// slot. Uses ON CONFLICT DO NOTHING against the unique slot index: a slot
// already occupied in ANY status - including a DELETED tombstone - means
// the occurrence is resolved and must not be recreated.
//
// Returns inserted=false when the slot was already claimed. This is the
// expected signal during overlapping or concurrent materialization, not an
// error.
func (s *Store) CreateInstance(ctx context.Context, inst *task.Instance) (inserted bool, err error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO instances
		(id, template_id, date, status, completed_at, custom_title, custom_notes)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(template_id, date) DO NOTHING
	`,
		inst.ID,
		inst.TemplateID,
		inst.Date.String(),
		string(inst.Status),
		nullableTime(inst.CompletedAt),
		inst.CustomTitle,
		inst.CustomNotes,
	)
	if err != nil {
		return false, fmt.Errorf("create instance: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("create instance: rows affected: %w", err)
	}
	return n > 0, nil
}

// HasInstances reports whether any instance row exists for the template,
// in any status and on any date. The materializer uses this to treat ONCE
// templates as one-shot: once their single occurrence is materialized (or
// later moved), nothing regenerates at the anchor.
func (s *Store) HasInstances(ctx context.Context, templateID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM instances WHERE template_id = ?
	`, templateID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("has instances: %w", err)
	}
	return count > 0, nil
}

// GetInstance retrieves a single instance by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) GetInstance(ctx context.Context, id string) (*task.Instance, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+instanceColumns+`
		FROM instances
		WHERE id = ?
	`, id)
	return scanInstance(row)
}

// InstanceAt retrieves the instance occupying a (template, date) slot,
// in any status. Returns sql.ErrNoRows if the slot is empty.
func (s *Store) InstanceAt(ctx context.Context, templateID string, date task.Date) (*task.Instance, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+instanceColumns+`
		FROM instances
		WHERE template_id = ? AND date = ?
	`, templateID, date.String())
	return scanInstance(row)
}

// InstancesInRange returns all instances with from <= date <= to, ordered
// deterministically: date ASC, status ASC, id ASC COLLATE BINARY.
// Returns an empty slice (not nil) when there are none.
func (s *Store) InstancesInRange(ctx context.Context, from, to task.Date) ([]*task.Instance, error) {
	return s.queryInstances(ctx, `
		SELECT `+instanceColumns+`
		FROM instances
		WHERE date >= ? AND date <= ?
		ORDER BY date ASC, status ASC, id COLLATE BINARY ASC
	`, from.String(), to.String())
}

// InstancesOnDate returns all instances dated exactly on date.
func (s *Store) InstancesOnDate(ctx context.Context, date task.Date) ([]*task.Instance, error) {
	return s.queryInstances(ctx, `
		SELECT `+instanceColumns+`
		FROM instances
		WHERE date = ?
		ORDER BY status ASC, id COLLATE BINARY ASC
	`, date.String())
}

// OverdueCarryOver returns OPEN instances dated before the given day whose
// template carries missed work forward. These stay OPEN in the store;
// "overdue" is derived here, never written back as state.
func (s *Store) OverdueCarryOver(ctx context.Context, before task.Date) ([]*task.Instance, error) {
	return s.queryInstances(ctx, `
		SELECT `+instanceColumnsQualified("i")+`
		FROM instances i
		JOIN templates t ON i.template_id = t.id
		WHERE i.status = 'OPEN' AND i.date < ? AND t.carry_policy = ?
		ORDER BY i.date ASC, i.id COLLATE BINARY ASC
	`, before.String(), string(task.CarryOverStack))
}

// FailOverdue transitions every OPEN instance dated before the given day to
// FAILED, for templates with the FAIL_ON_MISS carry policy. Returns the
// number of rows transitioned. Re-running is a no-op by filter: already
// FAILED rows no longer match.
func (s *Store) FailOverdue(ctx context.Context, before task.Date) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE instances
		SET status = 'FAILED'
		WHERE status = 'OPEN' AND date < ?
		  AND template_id IN (SELECT id FROM templates WHERE carry_policy = ?)
	`, before.String(), string(task.FailOnMiss))
	if err != nil {
		return 0, fmt.Errorf("fail overdue: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("fail overdue: rows affected: %w", err)
	}
	return n, nil
}

// SetInstanceStatus updates an instance's lifecycle status and completion
// time. Transition legality is the engine's responsibility; the store only
// persists. Returns sql.ErrNoRows if the instance doesn't exist.
func (s *Store) SetInstanceStatus(ctx context.Context, id string, status task.Status, completedAt *time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE instances
		SET status = ?, completed_at = ?
		WHERE id = ?
	`, string(status), nullableTime(completedAt), id)
	if err != nil {
		return fmt.Errorf("set instance status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set instance status: rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetInstanceOverride updates an instance's per-occurrence display fields.
// Overrides never affect scheduling. Returns sql.ErrNoRows if missing.
func (s *Store) SetInstanceOverride(ctx context.Context, id, customTitle, customNotes string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE instances
		SET custom_title = ?, custom_notes = ?
		WHERE id = ?
	`, customTitle, customNotes, id)
	if err != nil {
		return fmt.Errorf("set instance override: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set instance override: rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ErrSlotConflict is returned by MoveInstance when the target slot already
// holds a live (non-DELETED) instance. The engine maps it to its
// DateConflict error.
var ErrSlotConflict = fmt.Errorf("target slot holds a live instance")

// MoveInstance reschedules an instance to a new date as one atomic
// transaction:
//
//  1. Verify the target slot is empty. A DELETED row at the target also
//     blocks the move: the slot is claimed by the unique index regardless
//     of status, so moving onto it would violate one-row-per-slot. Both
//     cases yield ErrSlotConflict.
//  2. Update the instance's date.
//  3. If tombstone is non-nil, insert a DELETED placeholder at the vacated
//     date so a later materialization pass cannot observe the slot as
//     empty and recreate the occurrence there.
//
// Inside the transaction the date update must precede the tombstone
// insert: until the update lands, the instance's own row still claims the
// vacated slot and the tombstone insert would no-op against the unique
// index. The transaction makes the pair atomic, so no reader ever observes
// the vacated slot empty.
//
// The tombstone insert uses ON CONFLICT DO NOTHING: if a row already sits
// at the vacated date (possible when the caller retries after a partial
// failure), it is reused, never duplicated.
func (s *Store) MoveInstance(ctx context.Context, inst *task.Instance, newDate task.Date, tombstone *task.Instance) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("move instance: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	// Step 1: the target slot must be free. Any row there - live or
	// tombstone - blocks the move.
	var occupied int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM instances
		WHERE template_id = ? AND date = ? AND id != ?
	`, inst.TemplateID, newDate.String(), inst.ID).Scan(&occupied)
	if err != nil {
		return fmt.Errorf("move instance: check target slot: %w", err)
	}
	if occupied > 0 {
		return ErrSlotConflict
	}

	// Step 2: move the instance, freeing the vacated slot within the
	// transaction.
	result, err := tx.ExecContext(ctx, `
		UPDATE instances SET date = ? WHERE id = ?
	`, newDate.String(), inst.ID)
	if err != nil {
		return fmt.Errorf("move instance: update date: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("move instance: rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}

	// Step 3: tombstone the vacated date. Committed together with the
	// move, so the slot is never observably empty.
	if tombstone != nil {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO instances
			(id, template_id, date, status, completed_at, custom_title, custom_notes)
			VALUES (?, ?, ?, 'DELETED', NULL, '', '')
			ON CONFLICT(template_id, date) DO NOTHING
		`, tombstone.ID, tombstone.TemplateID, tombstone.Date.String())
		if err != nil {
			return fmt.Errorf("move instance: write tombstone: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("move instance: commit: %w", err)
	}
	return nil
}

const instanceColumns = `id, template_id, date, status, completed_at, custom_title, custom_notes`

func instanceColumnsQualified(alias string) string {
	return alias + `.id, ` + alias + `.template_id, ` + alias + `.date, ` +
		alias + `.status, ` + alias + `.completed_at, ` +
		alias + `.custom_title, ` + alias + `.custom_notes`
}

func (s *Store) queryInstances(ctx context.Context, query string, args ...any) ([]*task.Instance, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query instances: %w", err)
	}
	defer rows.Close()

	instances := []*task.Instance{}
	for rows.Next() {
		inst, err := scanInstance(rows)
		if err != nil {
			return nil, err
		}
		instances = append(instances, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate instances: %w", err)
	}
	return instances, nil
}

func scanInstance(row rowScanner) (*task.Instance, error) {
	var (
		inst        task.Instance
		dateStr     string
		status      string
		completedAt sql.NullString
	)

	err := row.Scan(&inst.ID, &inst.TemplateID, &dateStr, &status,
		&completedAt, &inst.CustomTitle, &inst.CustomNotes)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scan instance: %w", err)
	}

	if inst.Date, err = task.ParseDate(dateStr); err != nil {
		return nil, fmt.Errorf("scan instance %s: %w", inst.ID, err)
	}
	inst.Status = task.Status(status)

	if completedAt.Valid {
		t, err := time.Parse(time.RFC3339Nano, completedAt.String)
		if err != nil {
			return nil, fmt.Errorf("scan instance %s: completed_at: %w", inst.ID, err)
		}
		inst.CompletedAt = &t
	}

	return &inst, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}
