// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/sclkit/sclkit/pkg/engine"
	"github.com/sclkit/sclkit/pkg/scl/history"

	"github.com/spf13/cobra"
)

type (
	historyAddOptions struct {
		who      string
		what     string
		version  string
		fileType string
		tool     string
		filename string
		headerID string
	}

	// hitemRow is one History item as listed.
	hitemRow struct {
		When     string `json:"when" toml:"when"`
		Who      string `json:"who" toml:"who"`
		What     string `json:"what" toml:"what"`
		Version  string `json:"version" toml:"version"`
		Revision string `json:"revision" toml:"revision"`
	}

	hitemList struct {
		Document string     `json:"document" toml:"document"`
		Items    []hitemRow `json:"items" toml:"hitem"`
	}
)

func newHistoryCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Record and list History entries",
	}
	cmd.AddCommand(newHistoryAddCommand(app), newHistoryListCommand(app))
	return cmd
}

func newHistoryAddCommand(app *App) *cobra.Command {
	var opts historyAddOptions

	cmd := &cobra.Command{
		Use:   "add <document>",
		Short: "Append a Hitem to the document History",
		Long: `Append a Hitem to the document History.

The Header and History are created when missing. With the 'keep' version
policy the new item keeps the latest version and bumps the revision; with
'increment' it bumps the version.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			policy := app.cfg.History.VersionPolicy
			if opts.version != "" {
				if policy, err = history.ParseVersionPolicy(opts.version); err != nil {
					return err
				}
			}
			if !cmd.Flags().Changed("who") {
				opts.who = app.cfg.History.Who
			}
			if !cmd.Flags().Changed("tool") {
				opts.tool = app.cfg.History.Tool
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

			filename := opts.filename
			if filename == "" {
				filename = doc.Name()
			}
			root, err := history.AddEntry(doc.FromRoot(), history.Entry{
				Filename: filename,
				Header: history.Header{
					ID:       opts.headerID,
					FileType: opts.fileType,
					Version:  policy,
					Tool:     opts.tool,
				},
				Item: history.Item{Who: opts.who, What: opts.what},
			}, history.WithClock(app.clock))
			if err != nil {
				return elementError("add history entry", doc.Name(), err)
			}
			if _, err := root.Commit(cmd.Context()); err != nil {
				return fmt.Errorf("commit %s: %w", doc.Name(), err)
			}

			latest, _, err := history.LatestHitem(doc.FromRoot())
			if err != nil {
				return err
			}
			fmt.Fprintf(app.stdout, "%s %s version %s revision %s\n", SuccessStyle.Render("✓"),
				CmdStyle.Render(doc.Name()), latest.AttrValue("version"), latest.AttrValue("revision"))
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.who, "who", "", "author of the change (default from config)")
	cmd.Flags().StringVar(&opts.what, "what", "", "description of the change")
	cmd.Flags().StringVar(&opts.version, "version-policy", "", "keep or increment (default from config)")
	cmd.Flags().StringVar(&opts.fileType, "file-type", "", "Header fileType of a new Header")
	cmd.Flags().StringVar(&opts.tool, "tool", "", "Header toolID of a new Header (default from config)")
	cmd.Flags().StringVar(&opts.filename, "filename", "", "file name the Header id is derived from (default the document name)")
	cmd.Flags().StringVar(&opts.headerID, "header-id", "", "Header id of a new Header")

	return cmd
}

func newHistoryListCommand(app *App) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "list <document>",
		Short: "List History items ordered by version and revision",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			f, err := parseOutputFormat(format)
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

			items, err := history.SortedHitems(doc.FromRoot())
			if err != nil && !errors.Is(err, engine.ErrElementNotFound) {
				return err
			}

			list := hitemList{Document: doc.Name(), Items: make([]hitemRow, 0, len(items))}
			rows := make([][]string, 0, len(items))
			for _, it := range items {
				row := hitemRow{
					When:     it.AttrValue("when"),
					Who:      it.AttrValue("who"),
					What:     it.AttrValue("what"),
					Version:  it.AttrValue("version"),
					Revision: it.AttrValue("revision"),
				}
				list.Items = append(list.Items, row)
				rows = append(rows, []string{row.Version, row.Revision, row.When, row.Who, row.What})
			}
			return write(app.stdout, f, list, []string{"Version", "Revision", "When", "Who", "What"}, rows)
		},
	}
	addFormatFlag(cmd, &format)

	return cmd
}
