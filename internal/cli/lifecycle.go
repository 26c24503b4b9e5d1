package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/cadence/internal/task"
)

// mutateFunc applies a single-instance mutation through the scheduler.
type mutateFunc func(ctx context.Context, a *app, instanceID string) (*task.Instance, error)

// newMutationCommand builds a command that mutates one instance by ID and
// prints the result. The state-machine rules live in the engine; here we
// only shape the output.
func newMutationCommand(rootOpts *RootOptions, use, short, long string, mutate mutateFunc) *cobra.Command {
	return &cobra.Command{
		Use:           use + " <instance-id>",
		Short:         short,
		Long:          long,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			inst, err := mutate(ctx, a, args[0])
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

func titleIndexFor(ctx context.Context, a *app) (titleIndex, error) {
	templates, err := a.store.ListTemplates(ctx)
	if err != nil {
		return nil, err
	}
	return makeTitleIndex(templates), nil
}

// NewCompleteCommand creates the complete command.
func NewCompleteCommand(rootOpts *RootOptions) *cobra.Command {
	return newMutationCommand(rootOpts, "complete",
		"Mark an open task done",
		"Mark an OPEN task instance DONE, recording the completion time.",
		func(ctx context.Context, a *app, id string) (*task.Instance, error) {
			return a.sched.Complete(ctx, id)
		})
}

// NewUncompleteCommand creates the uncomplete command.
func NewUncompleteCommand(rootOpts *RootOptions) *cobra.Command {
	return newMutationCommand(rootOpts, "uncomplete",
		"Reopen a done task",
		"Transition a DONE task instance back to OPEN, clearing the completion time.",
		func(ctx context.Context, a *app, id string) (*task.Instance, error) {
			return a.sched.Uncomplete(ctx, id)
		})
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return newMutationCommand(rootOpts, "delete",
		"Delete a task occurrence",
		`Delete a task occurrence. Deletion is permanent and leaves a tombstone,
so the occurrence will not be regenerated on that date.`,
		func(ctx context.Context, a *app, id string) (*task.Instance, error) {
			return a.sched.Delete(ctx, id)
		})
}

// NewOverrideCommand creates the override command.
func NewOverrideCommand(rootOpts *RootOptions) *cobra.Command {
	var title, notes string

	cmd := &cobra.Command{
		Use:   "override <instance-id>",
		Short: "Set a per-occurrence title or notes",
		Long: `Set a display title or notes on one occurrence without touching the
template. Overrides never affect scheduling.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			inst, err := a.sched.SetOverride(ctx, args[0], title, notes)
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

	cmd.Flags().StringVar(&title, "title", "", "override title for this occurrence")
	cmd.Flags().StringVar(&notes, "notes", "", "override notes for this occurrence")
	return cmd
}
