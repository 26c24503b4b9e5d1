package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/cadence/internal/task"
)

// NewRescheduleCommand creates the reschedule command.
func NewRescheduleCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reschedule <instance-id> <date>",
		Short: "Move a task to another date",
		Long: `Move a task occurrence to another calendar date. For recurring
templates the vacated date keeps a tombstone so the occurrence is not
regenerated there. Fails if the target date already holds an occurrence
of the same template.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer a.close()

			newDate, err := task.ParseDate(args[1])
			if err != nil {
				return &ExitError{Code: ExitCommandError, Message: "invalid date", Err: err}
			}

			ctx := cmd.Context()
			inst, err := a.sched.Reschedule(ctx, args[0], newDate)
			if err != nil {
				return a.formatter.Error(err)
			}

			titles, err := titleIndexFor(ctx, a)
			if err != nil {
				return a.formatter.Error(err)
			}
			return a.formatter.Success(instanceToPayload(inst, titles), func(w io.Writer) error {
				return renderInstance(w, inst, titles)
			})
		},
	}
}
