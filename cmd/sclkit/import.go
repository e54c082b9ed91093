// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/sclkit/sclkit/internal/issue"
	"github.com/sclkit/sclkit/internal/platform"
	"github.com/sclkit/sclkit/internal/sclxml"
	"github.com/sclkit/sclkit/pkg/engine"
	"github.com/sclkit/sclkit/pkg/scl/history"
	"github.com/sclkit/sclkit/pkg/store"

	"github.com/spf13/cobra"
)

type importOptions struct {
	name      string
	customIDs bool
	force     bool
}

func newImportCommand(app *App) *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import <file>...",
		Short: "Import SCL files into document databases",
		Long: `Import SCL files into document databases.

Each file becomes a document named after the file: 'Station 1.scd' is
imported as 'station_1'. Existing documents are only replaced with --force.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.name != "" && len(args) > 1 {
				return errors.New("--name can only be used when importing a single file")
			}
			s, err := app.session()
			if err != nil {
				return err
			}

			if len(args) == 1 {
				return app.importFile(cmd.Context(), s, args[0], opts)
			}
			failed := 0
			for _, file := range args {
				if err := app.importFile(cmd.Context(), s, file, opts); err != nil {
					fmt.Fprintln(app.stderr, ErrorStyle.Render("✗ ")+formatErrorForDisplay(err, app.flags.verbose))
					failed++
				}
			}
			if failed > 0 {
				return &ExitError{
					Code: exitPartialFailure,
					Err:  fmt.Errorf("%d of %d files failed to import", failed, len(args)),
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.name, "name", "", "document name (default derived from the file name)")
	cmd.Flags().BoolVar(&opts.customIDs, "custom-ids", false, "take element ids from dev:id attributes")
	cmd.Flags().BoolVarP(&opts.force, "force", "f", false, "replace an existing document")

	return cmd
}

func (a *App) importFile(ctx context.Context, s *session, file string, opts importOptions) (err error) {
	res, err := sclxml.ImportFile(file, s.dialect, sclxml.Options{UseCustomIDs: opts.customIDs, IDs: s.ids})
	if err != nil {
		return importError(file, err)
	}

	name := opts.name
	if name == "" {
		name = history.HeaderID(file)
	}
	path, err := a.documentPath(name)
	if err != nil {
		return err
	}
	if err := platform.ValidateFileName(documentName(path)); err != nil {
		return issue.NewErrorContext().
			WithOperation("import document").
			WithResource(file).
			WithSuggestion("Pass --name to import under another name").
			Wrap(err).
			BuildError()
	}
	if fileExists(path) {
		if !opts.force {
			return issue.NewErrorContext().
				WithOperation("import document").
				WithResource(name).
				WithSuggestion("Pass --force to replace it").
				WithSuggestion("Pass --name to import under another name").
				Wrap(fs.ErrExist).
				BuildError()
		}
		if err := removeDatabase(path); err != nil {
			return err
		}
	}

	st, err := store.OpenSQLite(ctx, path, s.dialect.Database)
	if err != nil {
		return err
	}
	doc, err := engine.Import(ctx, s.dialect, st, res.Records, s.documentOptions(a, path)...)
	if err != nil {
		return errors.Join(importError(file, err), st.Close())
	}
	defer closeDocument(doc, &err)

	a.logger.Debug("imported", "file", file, "path", path, "namespaces", len(res.Namespaces))
	fmt.Fprintf(a.stdout, "%s %s → %s (%d elements)\n",
		SuccessStyle.Render("✓"), file, CmdStyle.Render(doc.Name()), len(doc.Records()))
	return nil
}

// removeDatabase deletes a database file with its journal files.
func removeDatabase(path string) error {
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", p, err)
		}
	}
	return nil
}

func importError(file string, err error) error {
	ctx := issue.NewErrorContext().
		WithOperation("import document").
		WithResource(file)
	switch {
	case errors.Is(err, sclxml.ErrUnsupportedExtension):
		ctx.WithIssue(issue.UnsupportedFileExtensionId)
	case errors.Is(err, fs.ErrNotExist):
		ctx.WithSuggestion("Verify the file path is correct")
	default:
		ctx.WithIssue(issue.InvalidDocumentId)
	}
	return ctx.Wrap(err).BuildError()
}
