// Package store provides SQLite persistence for templates and instances.
//
// The central invariant lives here: at most one instance row exists per
// (template_id, date) slot, in any status, enforced by a unique index.
// Materialization relies on that index for concurrency control - inserts
// use ON CONFLICT DO NOTHING and treat a conflict as "slot already
// resolved", so overlapping or concurrent materialization passes are
// idempotent without locks.
//
// The one place that needs an explicit transaction is MoveInstance: the
// tombstone at the vacated date and the date update must land together,
// otherwise a concurrent materializer could recreate the occurrence the
// user just moved away from.
//
// Status transition rules are NOT enforced here - the engine owns the
// lifecycle state machine. The store persists what it is told and reports
// not-found as sql.ErrNoRows.
package store
