// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"strconv"

	"github.com/sclkit/sclkit/pkg/element"
	"github.com/sclkit/sclkit/pkg/engine"
	"github.com/sclkit/sclkit/pkg/scl"
	"github.com/sclkit/sclkit/pkg/scl/datatypes"

	"github.com/spf13/cobra"
)

type (
	// dataTypeRow is one resolved template entry.
	dataTypeRow struct {
		Catalog  string `json:"catalog" toml:"catalog"`
		ID       string `json:"id" toml:"id"`
		Children int    `json:"children" toml:"children"`
	}

	dataTypeList struct {
		Document string        `json:"document" toml:"document"`
		LnTypes  []string      `json:"lnTypes" toml:"ln_types"`
		Entries  []dataTypeRow `json:"entries" toml:"entry"`
	}
)

func newDataTypesCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "datatypes",
		Short: "Inspect DataTypeTemplates",
	}
	cmd.AddCommand(newDataTypesResolveCommand(app))
	return cmd
}

func newDataTypesResolveCommand(app *App) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "resolve <document> [lnType]...",
		Short: "List the template entries a set of LNodeTypes depends on",
		Long: `List the LNodeType, DOType, DAType and EnumType entries the given
LNodeTypes reach. Without lnType arguments every lnType referenced by an
LNode of the document is resolved.`,
		Args: cobra.MinimumNArgs(1),
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

			root := doc.FromRoot()
			lnTypes := args[1:]
			if len(lnTypes) == 0 {
				tree, err := root.GetTree(engine.TreeOptions{})
				if err != nil {
					return err
				}
				lnTypes = datatypes.LnTypes(tree)
			}

			model, err := datatypes.ResolveDataModel(root, lnTypes)
			if errors.Is(err, engine.ErrElementNotFound) {
				model, err = &datatypes.DataModel{}, nil
			}
			if err != nil {
				return err
			}

			list := dataTypeList{Document: doc.Name(), LnTypes: lnTypes, Entries: dataTypeRows(model.All())}
			rows := make([][]string, 0, len(list.Entries))
			for _, e := range list.Entries {
				rows = append(rows, []string{e.Catalog, e.ID, strconv.Itoa(e.Children)})
			}
			return write(app.stdout, f, list, []string{"Catalog", "ID", "Children"}, rows)
		},
	}
	addFormatFlag(cmd, &format)

	return cmd
}

func dataTypeRows(entries []element.TreeRecord) []dataTypeRow {
	rows := make([]dataTypeRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, dataTypeRow{Catalog: e.TagName, ID: e.AttrValue(scl.AttrID), Children: len(e.Tree)})
	}
	return rows
}
