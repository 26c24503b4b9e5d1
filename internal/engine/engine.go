package engine

import (
	"io"
	"log/slog"

	"github.com/roach88/cadence/internal/store"
	"github.com/roach88/cadence/internal/task"
)

// Scheduler composes the store, clock, and recurrence evaluator into the
// operations the outer layers call: materialize, sweep, dashboard, range
// reads, and the instance mutations.
//
// Scheduler holds no mutable state of its own; all state lives in the
// store, so a Scheduler is safe for concurrent use and cheap to construct
// per process.
type Scheduler struct {
	store *store.Store
	clock Clock
	ids   task.IDGenerator
	log   *slog.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the structured logger. Default: a discard logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Scheduler) {
		s.log = log
	}
}

// WithIDGenerator sets the instance ID source. Default: UUIDv7.
// Tests use task.FixedIDGenerator for deterministic rows.
func WithIDGenerator(ids task.IDGenerator) Option {
	return func(s *Scheduler) {
		s.ids = ids
	}
}

// Today exposes the clock's current civil date, so callers computing
// default date ranges agree with the scheduler about what "today" means.
func (s *Scheduler) Today() task.Date {
	return s.clock.Today()
}

// New creates a Scheduler over the given store and clock.
func New(st *store.Store, clock Clock, opts ...Option) *Scheduler {
	s := &Scheduler{
		store: st,
		clock: clock,
		ids:   task.UUIDv7Generator{},
		log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
