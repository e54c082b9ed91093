// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"

	"github.com/sclkit/sclkit/internal/issue"
	"github.com/sclkit/sclkit/internal/sclxml"

	"github.com/spf13/cobra"
)

func newExportCommand(app *App) *cobra.Command {
	var (
		output  string
		withIDs bool
	)

	cmd := &cobra.Command{
		Use:   "export <document>",
		Short: "Write a document as an SCL file",
		Long: `Write a document as an SCL file, to stdout unless --output is given.

With --with-ids every element carries its id as a dev:id attribute so that
'sclkit import --custom-ids' restores the same ids.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			s, err := app.session()
			if err != nil {
				return err
			}
			if output != "" {
				if err := sclxml.CheckExtension(s.dialect, output); err != nil {
					return issue.NewErrorContext().
						WithOperation("export document").
						WithResource(output).
						WithIssue(issue.UnsupportedFileExtensionId).
						Wrap(err).
						BuildError()
				}
			}

			doc, err := app.openDocument(cmd.Context(), s, args[0])
			if err != nil {
				return err
			}
			defer closeDocument(doc, &err)

			w := app.stdout
			if output != "" {
				var f *os.File
				if f, err = os.Create(output); err != nil {
					return err
				}
				defer func() {
					if closeErr := f.Close(); closeErr != nil && err == nil {
						err = closeErr
					}
				}()
				w = f
			}

			if err := sclxml.Export(w, doc.Records(), s.dialect, sclxml.ExportOptions{WithIDs: withIDs, Indent: "\t"}); err != nil {
				return fmt.Errorf("export %s: %w", doc.Name(), err)
			}
			if output != "" {
				fmt.Fprintf(app.stderr, "%s %s → %s\n", SuccessStyle.Render("✓"), CmdStyle.Render(doc.Name()), output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write (default stdout)")
	cmd.Flags().BoolVar(&withIDs, "with-ids", false, "write element ids as dev:id attributes")

	return cmd
}
