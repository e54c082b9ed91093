// SPDX-License-Identifier: MPL-2.0

package cmd

import "github.com/charmbracelet/lipgloss"

// Color palette for CLI output.
const (
	ColorPrimary   = lipgloss.Color("#7C3AED") // Purple - titles, headers
	ColorMuted     = lipgloss.Color("#6B7280") // Gray - subtitles, secondary info
	ColorSuccess   = lipgloss.Color("#10B981") // Green - success states
	ColorError     = lipgloss.Color("#EF4444") // Red - errors
	ColorWarning   = lipgloss.Color("#F59E0B") // Amber - warnings
	ColorHighlight = lipgloss.Color("#3B82F6") // Blue - commands, documents
	ColorVerbose   = lipgloss.Color("#9CA3AF") // Light gray - verbose output
)

var (
	// TitleStyle is used for main titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			MarginBottom(1)

	// SubtitleStyle is used for subtitles and section labels.
	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Italic(true)

	// SuccessStyle is used for success messages.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	// ErrorStyle is used for error messages.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)

	// WarningStyle is used for warning messages.
	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	// CmdStyle is used for document and element names.
	CmdStyle = lipgloss.NewStyle().
			Foreground(ColorHighlight).
			Bold(true)

	// VerboseStyle is used for secondary details.
	VerboseStyle = lipgloss.NewStyle().
			Foreground(ColorVerbose)

	// headerStyle styles table headers.
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			Padding(0, 1)

	// cellStyle styles table cells.
	cellStyle = lipgloss.NewStyle().Padding(0, 1)
)
