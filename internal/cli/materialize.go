package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/cadence/internal/task"
)

// NewMaterializeCommand creates the materialize command.
func NewMaterializeCommand(rootOpts *RootOptions) *cobra.Command {
	var fromFlag, toFlag string

	cmd := &cobra.Command{
		Use:   "materialize",
		Short: "Generate task instances ahead of time",
		Long: `Generate OPEN task instances for every active template over a date
range. Idempotent: occurrences that already have a row, in any status,
are left alone. Reads materialize lazily; this command pre-populates a
window, for example before going offline.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMaterialize(rootOpts, cmd, fromFlag, toFlag)
		},
	}

	cmd.Flags().StringVar(&fromFlag, "from", "", "range start (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&toFlag, "to", "", "range end (YYYY-MM-DD, default today+horizon)")
	return cmd
}

func runMaterialize(opts *RootOptions, cmd *cobra.Command, fromFlag, toFlag string) error {
	a, err := openApp(opts, cmd)
	if err != nil {
		return err
	}
	defer a.close()

	today := a.sched.Today()
	from := today
	if fromFlag != "" {
		if from, err = task.ParseDate(fromFlag); err != nil {
			return &ExitError{Code: ExitCommandError, Message: "invalid --from date", Err: err}
		}
	}
	to := today.AddDays(a.cfg.HorizonDays)
	if toFlag != "" {
		if to, err = task.ParseDate(toFlag); err != nil {
			return &ExitError{Code: ExitCommandError, Message: "invalid --to date", Err: err}
		}
	}
	if to.Before(from) {
		return &ExitError{Code: ExitCommandError,
			Message: fmt.Sprintf("range end %s precedes start %s", to, from)}
	}

	ctx := cmd.Context()
	created, err := a.sched.MaterializeRange(ctx, from, to)
	if err != nil {
		return a.formatter.Error(err)
	}

	titles, err := titleIndexFor(ctx, a)
	if err != nil {
		return a.formatter.Error(err)
	}
	return a.formatter.Success(instancesToPayload(created, titles), func(w io.Writer) error {
		fmt.Fprintf(w, "created %d instance(s) for %s..%s\n", len(created), from, to)
		return nil
	})
}
