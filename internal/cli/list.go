package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/cadence/internal/task"
)

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	var fromFlag, toFlag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks over a date range",
		Long: `List task instances over a date range, grouped by date. The range
defaults to today through today plus the configured horizon. Missing
occurrences are materialized and overdue tasks swept before reading.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(rootOpts, cmd, fromFlag, toFlag)
		},
	}

	cmd.Flags().StringVar(&fromFlag, "from", "", "range start (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&toFlag, "to", "", "range end (YYYY-MM-DD, default today+horizon)")
	return cmd
}

func runList(opts *RootOptions, cmd *cobra.Command, fromFlag, toFlag string) error {
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
	a.formatter.VerboseLog("listing %s..%s", from, to)

	instances, err := a.sched.InstancesForRange(ctx, from, to)
	if err != nil {
		return a.formatter.Error(err)
	}
	templates, err := a.store.ListTemplates(ctx)
	if err != nil {
		return a.formatter.Error(err)
	}
	titles := makeTitleIndex(templates)

	return a.formatter.Success(instancesToPayload(instances, titles), func(w io.Writer) error {
		return renderInstanceList(w, instances, titles)
	})
}
