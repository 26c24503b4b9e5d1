package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/cadence/internal/templatedef"
)

// NewTemplateCommand creates the template command group.
func NewTemplateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Manage task templates",
	}
	cmd.AddCommand(newTemplateImportCommand(rootOpts))
	cmd.AddCommand(newTemplateListCommand(rootOpts))
	cmd.AddCommand(newTemplateArchiveCommand(rootOpts))
	return cmd
}

// importResult is the JSON shape for a template import.
type importResult struct {
	Created []string `json:"created"`
	Updated []string `json:"updated"`
}

func newTemplateImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.cue>",
		Short: "Import templates from a CUE definition file",
		Long: `Import task templates from a CUE definition file. Template IDs come
from the CUE field labels, so re-importing the same file updates in
place. A schedule change on an existing template removes its future OPEN
instances; the new schedule regenerates them on the next read. Past
instances and completions are untouched.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTemplateImport(rootOpts, cmd, args[0])
		},
	}
}

func runTemplateImport(opts *RootOptions, cmd *cobra.Command, path string) error {
	a, err := openApp(opts, cmd)
	if err != nil {
		return err
	}
	defer a.close()

	templates, err := templatedef.LoadFile(path)
	if err != nil {
		return a.formatter.Error(&ExitError{Code: ExitCommandError, Message: "compile templates", Err: err})
	}

	ctx := cmd.Context()
	today := a.sched.Today()
	result := importResult{Created: []string{}, Updated: []string{}}

	for _, tmpl := range templates {
		_, err := a.store.GetTemplate(ctx, tmpl.ID)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			if err := a.store.CreateTemplate(ctx, tmpl); err != nil {
				return a.formatter.Error(err)
			}
			result.Created = append(result.Created, tmpl.ID)
		case err != nil:
			return a.formatter.Error(err)
		default:
			if err := a.store.UpdateTemplateSchedule(ctx, tmpl, today); err != nil {
				return a.formatter.Error(err)
			}
			result.Updated = append(result.Updated, tmpl.ID)
		}
		a.formatter.VerboseLog("imported template %s", tmpl.ID)
	}

	return a.formatter.Success(result, func(w io.Writer) error {
		fmt.Fprintf(w, "imported %d template(s): %d created, %d updated\n",
			len(templates), len(result.Created), len(result.Updated))
		return nil
	})
}

func newTemplateListCommand(rootOpts *RootOptions) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List templates",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			list := a.store.ListActiveTemplates
			if all {
				list = a.store.ListTemplates
			}
			templates, err := list(ctx)
			if err != nil {
				return a.formatter.Error(err)
			}

			payload := make([]templatePayload, 0, len(templates))
			for _, t := range templates {
				payload = append(payload, templateToPayload(t))
			}
			return a.formatter.Success(payload, func(w io.Writer) error {
				return renderTemplateList(w, templates)
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "include archived templates")
	return cmd
}

func newTemplateArchiveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "archive <template-id>",
		Short: "Archive a template",
		Long: `Archive a template so it stops generating occurrences. Existing
instances and their history remain readable.`,
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
			if err := a.store.ArchiveTemplate(ctx, args[0]); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return a.formatter.Error(&ExitError{Code: ExitFailure,
						Message: fmt.Sprintf("template %s not found", args[0])})
				}
				return a.formatter.Error(err)
			}

			return a.formatter.Success(map[string]string{"archived": args[0]}, func(w io.Writer) error {
				fmt.Fprintf(w, "archived template %s\n", args[0])
				return nil
			})
		},
	}
}
