// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/sclkit/sclkit/internal/watch"

	"github.com/spf13/cobra"
)

func newWatchCommand(app *App) *cobra.Command {
	var (
		debounce  time.Duration
		patterns  []string
		ignore    []string
		customIDs bool
	)

	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Re-import SCL files whenever they change",
		Long: `Watch a directory and re-import every SCL file that changes into the
document named after it, replacing the previous import.

By default every file with an SCL extension is watched; --pattern takes
doublestar globs such as 'substations/**/*.scd' instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.session()
			if err != nil {
				return err
			}
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			if len(patterns) == 0 {
				patterns = watch.ExtensionPatterns(s.dialect.IO.SupportedFileExtensions)
			}

			var w *watch.Watcher
			onChange := func(ctx context.Context, changed []string) error {
				var errs []error
				for _, rel := range changed {
					path := filepath.Join(w.BaseDir(), rel)
					if !fileExists(path) {
						app.logger.Info("file removed, keeping its document", "file", rel)
						continue
					}
					opts := importOptions{customIDs: customIDs, force: true}
					if err := app.importFile(ctx, s, path, opts); err != nil {
						fmt.Fprintln(app.stderr, ErrorStyle.Render("✗ ")+formatErrorForDisplay(err, app.flags.verbose))
						errs = append(errs, err)
					}
				}
				return errors.Join(errs...)
			}

			w, err = watch.New(watch.Config{
				BaseDir:  dir,
				Patterns: patterns,
				Ignore:   ignore,
				Debounce: debounce,
				OnChange: onChange,
				Logger:   app.logger,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(app.stderr, "%s %s %s\n", SubtitleStyle.Render("Watching"), w.BaseDir(), VerboseStyle.Render("(Ctrl+C to stop)"))
			return w.Run(cmd.Context())
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "quiet period before re-importing")
	cmd.Flags().StringSliceVar(&patterns, "pattern", nil, "glob of files to watch (default every SCL extension)")
	cmd.Flags().StringSliceVar(&ignore, "ignore", nil, "glob of files to ignore")
	cmd.Flags().BoolVar(&customIDs, "custom-ids", false, "take element ids from dev:id attributes")

	return cmd
}
