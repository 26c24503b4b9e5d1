// Package engine materializes recurrence rules into instance rows and
// drives the instance lifecycle.
//
// ARCHITECTURE:
//
// Request-driven, no background actor. Every read path that needs fresh
// data performs the same idempotent sequence:
//
//  1. Materialize: evaluate active templates over the window and insert an
//     OPEN instance per occurrence whose (template, date) slot is empty.
//  2. Sweep: transition overdue OPEN instances of FAIL_ON_MISS templates
//     to FAILED. CARRY_OVER_STACK instances stay OPEN; readers derive
//     "overdue" from the date, it is never stored.
//  3. Read and shape.
//
// Materialize-before-sweep within one read path matters (sweeping first
// could miss instances created for today); between independent calls the
// operations commute, so a periodic sweep trigger and on-demand reads can
// interleave freely.
//
// Concurrency control is optimistic: the store's unique (template_id,
// date) index arbitrates racing materializers, and a conflict simply means
// another pass got there first. The single pessimistic piece is
// Reschedule, where the tombstone at the vacated date and the date update
// commit as one transaction so a racing materializer can never resurrect
// the moved occurrence.
//
// "Today" is never read from the ambient environment - a Clock is injected
// so tests pin arbitrary dates and all day boundaries resolve in the one
// configured timezone.
package engine
