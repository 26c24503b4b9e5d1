package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/cadence/internal/task"
)

// CreateTemplate inserts a template row. The template must already have an
// ID and pass Validate; the store does not invent identity.
func (s *Store) CreateTemplate(ctx context.Context, t *task.Template) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("create template: %w", err)
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO templates
		(id, title, notes, schedule_kind, carry_policy, start_date, anchor_date,
		 interval_unit, interval_value, weekday_set, monthly_mode, monthly_day,
		 yearly_month, yearly_day, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		t.ID,
		t.Title,
		t.Notes,
		string(t.Kind),
		string(t.Carry),
		nullableDate(t.StartDate),
		nullableDate(t.AnchorDate),
		nullableString(string(t.IntervalUnit)),
		t.IntervalValue,
		int(t.Weekdays),
		nullableString(string(t.MonthlyMode)),
		t.MonthlyDay,
		int(t.YearlyMonth),
		t.YearlyDay,
		boolToInt(t.Active),
		t.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("create template: %w", err)
	}
	return nil
}

// GetTemplate retrieves a template by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) GetTemplate(ctx context.Context, id string) (*task.Template, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+templateColumns+`
		FROM templates
		WHERE id = ?
	`, id)
	return scanTemplate(row)
}

// ListActiveTemplates returns every template still generating occurrences,
// ordered deterministically by id. Returns an empty slice, not nil, when
// there are none.
func (s *Store) ListActiveTemplates(ctx context.Context) ([]*task.Template, error) {
	return s.listTemplates(ctx, `WHERE is_active = 1`)
}

// ListTemplates returns all templates, archived included.
func (s *Store) ListTemplates(ctx context.Context) ([]*task.Template, error) {
	return s.listTemplates(ctx, ``)
}

func (s *Store) listTemplates(ctx context.Context, where string) ([]*task.Template, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+templateColumns+`
		FROM templates
		`+where+`
		ORDER BY id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query templates: %w", err)
	}
	defer rows.Close()

	templates := []*task.Template{}
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate templates: %w", err)
	}
	return templates, nil
}

// ArchiveTemplate marks a template inactive. Archived templates stop
// generating occurrences but keep their instance history.
// Returns sql.ErrNoRows if the template doesn't exist.
func (s *Store) ArchiveTemplate(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE templates SET is_active = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("archive template: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("archive template: rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateTemplateSchedule replaces a template's display and schedule fields
// and, in the same transaction, physically removes its future OPEN
// instances so the
// next materialization regenerates them under the new rule. The cutoff is
// exclusive of from itself: instances dated >= from are invalidated.
//
// Resolved slots (DONE/FAILED) and tombstones (DELETED) are never touched;
// their dates stay claimed regardless of the schedule change.
func (s *Store) UpdateTemplateSchedule(ctx context.Context, t *task.Template, from task.Date) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("update template schedule: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("update template schedule: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	result, err := tx.ExecContext(ctx, `
		UPDATE templates
		SET title = ?, notes = ?,
		    schedule_kind = ?, carry_policy = ?, start_date = ?, anchor_date = ?,
		    interval_unit = ?, interval_value = ?, weekday_set = ?,
		    monthly_mode = ?, monthly_day = ?, yearly_month = ?, yearly_day = ?
		WHERE id = ?
	`,
		t.Title,
		t.Notes,
		string(t.Kind),
		string(t.Carry),
		nullableDate(t.StartDate),
		nullableDate(t.AnchorDate),
		nullableString(string(t.IntervalUnit)),
		t.IntervalValue,
		int(t.Weekdays),
		nullableString(string(t.MonthlyMode)),
		t.MonthlyDay,
		int(t.YearlyMonth),
		t.YearlyDay,
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("update template schedule: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update template schedule: rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM instances
		WHERE template_id = ? AND status = 'OPEN' AND date >= ?
	`, t.ID, from.String())
	if err != nil {
		return fmt.Errorf("update template schedule: invalidate open instances: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("update template schedule: commit: %w", err)
	}
	return nil
}

const templateColumns = `id, title, notes, schedule_kind, carry_policy,
	start_date, anchor_date, interval_unit, interval_value, weekday_set,
	monthly_mode, monthly_day, yearly_month, yearly_day, is_active, created_at`

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTemplate(row rowScanner) (*task.Template, error) {
	var (
		t                                  task.Template
		kind, carry                        string
		startDate, anchorDate              sql.NullString
		intervalUnit, monthlyMode          sql.NullString
		weekdaySet, yearlyMonth, activeInt int
		createdAt                          string
	)

	err := row.Scan(
		&t.ID, &t.Title, &t.Notes, &kind, &carry,
		&startDate, &anchorDate, &intervalUnit, &t.IntervalValue, &weekdaySet,
		&monthlyMode, &t.MonthlyDay, &yearlyMonth, &t.YearlyDay, &activeInt, &createdAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scan template: %w", err)
	}

	t.Kind = task.ScheduleKind(kind)
	t.Carry = task.CarryPolicy(carry)
	t.IntervalUnit = task.IntervalUnit(intervalUnit.String)
	t.Weekdays = task.WeekdaySet(weekdaySet)
	t.MonthlyMode = task.MonthlyMode(monthlyMode.String)
	t.YearlyMonth = time.Month(yearlyMonth)
	t.Active = activeInt != 0

	if t.StartDate, err = parseNullableDate(startDate); err != nil {
		return nil, fmt.Errorf("scan template %s: start_date: %w", t.ID, err)
	}
	if t.AnchorDate, err = parseNullableDate(anchorDate); err != nil {
		return nil, fmt.Errorf("scan template %s: anchor_date: %w", t.ID, err)
	}
	if t.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("scan template %s: created_at: %w", t.ID, err)
	}

	return &t, nil
}

func nullableDate(d task.Date) any {
	if d.IsZero() {
		return nil
	}
	return d.String()
}

func parseNullableDate(ns sql.NullString) (task.Date, error) {
	if !ns.Valid || ns.String == "" {
		return task.Date{}, nil
	}
	return task.ParseDate(ns.String)
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
