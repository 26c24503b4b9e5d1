package cli

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/cadence/internal/config"
	"github.com/roach88/cadence/internal/engine"
	"github.com/roach88/cadence/internal/store"
)

// app bundles the per-invocation wiring: config, open store, scheduler,
// and the output formatter for the command's streams.
type app struct {
	cfg       *config.Config
	store     *store.Store
	sched     *engine.Scheduler
	formatter *OutputFormatter
}

// openApp loads config, opens the store, and builds a scheduler whose clock
// runs in the configured timezone. Callers must defer a.close().
func openApp(opts *RootOptions, cmd *cobra.Command) (*app, error) {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, &ExitError{Code: ExitCommandError, Message: "load config", Err: err}
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, &ExitError{Code: ExitCommandError, Message: "resolve timezone", Err: err}
	}

	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return nil, &ExitError{Code: ExitCommandError, Message: "open database", Err: err}
	}

	logHandler := slog.NewTextHandler(io.Discard, nil)
	if opts.Verbose {
		logHandler = slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug})
	}

	sched := engine.New(st, engine.NewSystemClock(loc),
		engine.WithLogger(slog.New(logHandler)))

	return &app{
		cfg:       cfg,
		store:     st,
		sched:     sched,
		formatter: formatter,
	}, nil
}

func (a *app) close() {
	a.store.Close()
}
