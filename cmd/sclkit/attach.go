// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sclkit/sclkit/internal/issue"
	"github.com/sclkit/sclkit/pkg/store"

	"github.com/spf13/cobra"
)

func newAttachCommand(app *App) *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "attach <document> <file>",
		Short: "Store a file alongside a document",
		Long: `Store a file alongside a document, such as a drawing or an ICD the
document was built from. The attachment id is printed; passing an existing
id with --id replaces that attachment.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			data, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}
			s, err := app.session()
			if err != nil {
				return err
			}
			doc, err := app.openDocument(cmd.Context(), s, args[0])
			if err != nil {
				return err
			}
			defer closeDocument(doc, &err)

			if id == "" {
				id = s.ids()
			}
			att := store.Attachment{ID: id, Filename: filepath.Base(args[1]), Data: data}
			if err := doc.Store().PutAttachment(cmd.Context(), att); err != nil {
				return attachmentError("attach file", args[1], err)
			}
			fmt.Fprintf(app.stdout, "%s %s → %s (%s)\n", SuccessStyle.Render("✓"), att.Filename, CmdStyle.Render(doc.Name()), att.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "attachment id (default generated)")

	return cmd
}

func newAttachmentCommand(app *App) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "attachment <document> <id>",
		Short: "Retrieve a file stored with attach",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			s, err := app.session()
			if err != nil {
				return err
			}
			doc, err := app.openDocument(cmd.Context(), s, args[0])
			if err != nil {
				return err
			}
			defer closeDocument(doc, &err)

			att, err := doc.Store().Attachment(cmd.Context(), args[1])
			if err != nil {
				return attachmentError("read attachment", args[1], err)
			}
			if output == "" {
				_, err = app.stdout.Write(att.Data)
				return err
			}
			if err := os.WriteFile(output, att.Data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(app.stderr, "%s %s → %s\n", SuccessStyle.Render("✓"), att.Filename, output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write (default stdout)")

	return cmd
}

func attachmentError(operation, resource string, err error) error {
	ctx := issue.NewErrorContext().
		WithOperation(operation).
		WithResource(resource)
	switch {
	case errors.Is(err, store.ErrAttachmentNotFound):
		ctx.WithSuggestion("Attachment ids are printed by 'sclkit attach'")
	case errors.Is(err, store.ErrAttachmentsUnsupported):
		ctx.WithSuggestion("The document dialect declares no attachment table")
	}
	return ctx.Wrap(err).BuildError()
}
