package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// sweepResult is the JSON shape for a sweep run.
type sweepResult struct {
	Failed int64 `json:"failed"`
}

// NewSweepCommand creates the sweep command.
func NewSweepCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Fail overdue tasks",
		Long: `Transition overdue OPEN tasks of FAIL_ON_MISS templates to FAILED.
Carry-over tasks are left open. Reads run this implicitly; the command
exists for cron-style maintenance.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer a.close()

			n, err := a.sched.SweepOverdue(cmd.Context())
			if err != nil {
				return a.formatter.Error(err)
			}

			return a.formatter.Success(sweepResult{Failed: n}, func(w io.Writer) error {
				fmt.Fprintf(w, "failed %d overdue task(s)\n", n)
				return nil
			})
		},
	}
}
