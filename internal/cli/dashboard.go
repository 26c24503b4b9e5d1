package cli

import (
	"io"

	"github.com/spf13/cobra"
)

// NewDashboardCommand creates the dashboard command.
func NewDashboardCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show today's and tomorrow's tasks",
		Long: `Show the two-day dashboard: overdue carry-over tasks, then today's and
tomorrow's tasks bucketed by status. Materializes any missing occurrences
and sweeps overdue tasks first, so the view is always current.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDashboard(rootOpts, cmd)
		},
	}
}

func runDashboard(opts *RootOptions, cmd *cobra.Command) error {
	a, err := openApp(opts, cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	view, err := a.sched.Dashboard(ctx)
	if err != nil {
		return a.formatter.Error(err)
	}

	templates, err := a.store.ListTemplates(ctx)
	if err != nil {
		return a.formatter.Error(err)
	}
	titles := makeTitleIndex(templates)

	return a.formatter.Success(dashboardToPayload(view, titles), func(w io.Writer) error {
		return renderDashboard(w, view, titles)
	})
}
