// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sclkit/sclkit/internal/config"
	"github.com/sclkit/sclkit/internal/issue"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sclkit",
		Short: "Edit, extract and version SCL substation configuration files",
		Long: TitleStyle.Render("sclkit") + SubtitleStyle.Render(" - SCL documents as versioned element databases") + `

sclkit imports IEC 61850 SCL files (.scd, .ssd, .fsd, ...) into document
databases, records History entries, extracts Functions and SubFunctions
into specification files and resolves the data type templates they use.

` + SubtitleStyle.Render("Examples:") + `
  sclkit import station.scd                  Import a file as document 'station'
  sclkit history add station --what "Bay 2"  Record a change in the History
  sclkit extract function station f1 spec    Copy Function f1 into document 'spec'
  sclkit export spec -o spec.fsd             Write a document back to SCL
  sclkit config show                         Show current configuration`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.prepare(cmd.Context())
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&app.flags.verbose, "verbose", "v", false, "enable verbose output")
	flags.StringVar(&app.flags.configPath, "config", "", "config file (default is $HOME/.config/sclkit/config.cue)")
	flags.StringVar(&app.flags.dataDir, "data-dir", "", "directory document databases are kept in")

	rootCmd.AddCommand(
		newImportCommand(app),
		newExportCommand(app),
		newHistoryCommand(app),
		newExtractCommand(app),
		newDataTypesCommand(app),
		newAttachCommand(app),
		newAttachmentCommand(app),
		newWatchCommand(app),
		newConfigCommand(app),
	)

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the sclkit command line. This is called by main.main().
func Execute() {
	app := NewApp(Dependencies{
		Config: config.NewProvider(),
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	})

	// fang overrides rootCmd.Version, so the version is passed to it.
	err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	)
	if err == nil {
		return
	}

	app.printGuidance(err)

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		os.Exit(exitErr.Code)
	}
	os.Exit(1)
}

// printGuidance renders the suggestions and the Markdown guidance linked to
// err, if any, on stderr.
func (a *App) printGuidance(err error) {
	var ae *issue.ActionableError
	if errors.As(err, &ae) && (ae.HasSuggestions() || a.flags.verbose) {
		fmt.Fprintln(a.stderr, formatErrorForDisplay(err, a.flags.verbose))
	}

	iss, ok := issue.Guidance(err)
	if !ok {
		return
	}
	rendered, renderErr := iss.Render("dark")
	if renderErr != nil {
		a.logger.Debug("render guidance", "err", renderErr)
		return
	}
	fmt.Fprint(a.stderr, rendered)
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
