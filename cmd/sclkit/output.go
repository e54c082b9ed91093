// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
)

// Output formats of listing commands.
const (
	formatTable outputFormat = "table"
	formatJSON  outputFormat = "json"
	formatTOML  outputFormat = "toml"
)

var outputFormats = []outputFormat{formatTable, formatJSON, formatTOML}

type outputFormat string

// parseOutputFormat validates a --format value.
func parseOutputFormat(s string) (outputFormat, error) {
	for _, f := range outputFormats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown output format %q (expected one of %v)", s, outputFormats)
}

func addFormatFlag(cmd *cobra.Command, format *string) {
	cmd.Flags().StringVarP(format, "format", "f", string(formatTable), "output format: table, json or toml")
}

// write renders v in format. Tables are built from headers and rows; the
// other formats encode v.
func write(w io.Writer, format outputFormat, v any, headers []string, rows [][]string) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatTOML:
		return toml.NewEncoder(w).Encode(v)
	default:
		if len(rows) == 0 {
			_, err := fmt.Fprintln(w, SubtitleStyle.Render("(none)"))
			return err
		}
		t := table.New().
			Border(lipgloss.NormalBorder()).
			BorderStyle(lipgloss.NewStyle().Foreground(ColorMuted)).
			StyleFunc(func(row, _ int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle
				}
				return cellStyle
			}).
			Headers(headers...).
			Rows(rows...)
		_, err := fmt.Fprintln(w, t.String())
		return err
	}
}
