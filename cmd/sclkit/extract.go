// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sclkit/sclkit/internal/config"
	"github.com/sclkit/sclkit/internal/issue"
	"github.com/sclkit/sclkit/pkg/engine"
	"github.com/sclkit/sclkit/pkg/scl"
	"github.com/sclkit/sclkit/pkg/scl/extract"
	"github.com/sclkit/sclkit/pkg/scl/structure"

	"github.com/spf13/cobra"
)

type extractOptions struct {
	ext        string
	level      string
	dataTypes  bool
	names      structure.Names
	sourceTag  string
	targetPath string
}

func newExtractCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Copy Functions and SubFunctions into another document",
		Long: `Copy a Function or SubFunction into another document, under a Substation,
VoltageLevel or Bay that is found by name or created.

The target document is created when it does not exist. Copied elements get
fresh ids; with --with-data-types the DataTypeTemplates entries their LNodes
use are copied too.`,
	}
	cmd.AddCommand(newExtractFunctionCommand(app), newExtractSubFunctionCommand(app))
	return cmd
}

func newExtractFunctionCommand(app *App) *cobra.Command {
	opts := extractOptions{sourceTag: scl.TagFunction}

	cmd := &cobra.Command{
		Use:   "function <source> <function-id> <target>",
		Short: "Copy a Function into a specification document",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ext := extract.Extension(strings.ToUpper(opts.ext))
			return app.extract(cmd, args, opts, func(src *engine.Cursor, target extract.Target, extraOpts ...extract.Option) (*extract.Result, error) {
				return extract.Function(src, target, ext, extraOpts...)
			})
		},
	}
	cmd.Flags().StringVar(&opts.ext, "ext", string(extract.ExtFSD), "target flavor: FSD, ASD or ISD")
	addExtractFlags(cmd, &opts)

	return cmd
}

func newExtractSubFunctionCommand(app *App) *cobra.Command {
	opts := extractOptions{sourceTag: scl.TagSubFunction}

	cmd := &cobra.Command{
		Use:   "subfunction <source> <subfunction-id> <target>",
		Short: "Copy a SubFunction into a document as a Function",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.extract(cmd, args, opts, extract.SubFunction)
		},
	}
	addExtractFlags(cmd, &opts)

	return cmd
}

func addExtractFlags(cmd *cobra.Command, opts *extractOptions) {
	cmd.Flags().StringVar(&opts.level, "level", "", "anchor level: Substation, VoltageLevel or Bay (default from config)")
	cmd.Flags().BoolVar(&opts.dataTypes, "with-data-types", false, "also copy the data type templates (default from config)")
	cmd.Flags().StringVar(&opts.names.Substation, "substation", "", "name of the target Substation")
	cmd.Flags().StringVar(&opts.names.VoltageLevel, "voltage-level", "", "name of the target VoltageLevel")
	cmd.Flags().StringVar(&opts.names.Bay, "bay", "", "name of the target Bay")
}

type extractFunc func(*engine.Cursor, extract.Target, ...extract.Option) (*extract.Result, error)

func (a *App) extract(cmd *cobra.Command, args []string, opts extractOptions, run extractFunc) error {
	level := config.ExtractLevel(opts.level)
	if opts.level == "" {
		level = a.cfg.Extract.Level
	}
	if valid, errs := level.IsValid(); !valid {
		return issue.NewErrorContext().
			WithOperation("extract " + strings.ToLower(opts.sourceTag)).
			WithResource(args[1]).
			WithIssue(issue.InvalidExtractLevelId).
			Wrap(errors.Join(errs...)).
			BuildError()
	}
	if !cmd.Flags().Changed("with-data-types") {
		opts.dataTypes = a.cfg.Extract.ResolveDataTypes
	}
	var extraOpts []extract.Option
	if opts.dataTypes {
		extraOpts = append(extraOpts, extract.WithDataTypes())
	}

	s, err := a.session()
	if err != nil {
		return err
	}
	res, err := a.runExtract(cmd.Context(), s, args, string(level), opts, run, extraOpts)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.stdout, "%s %s %s → %s (%s %s", SuccessStyle.Render("✓"), opts.sourceTag, args[1],
		CmdStyle.Render(documentName(res.path)), scl.TagFunction, res.Target.FocusRef().ID)
	if opts.dataTypes {
		fmt.Fprintf(a.stdout, ", %d data types", res.DataTypes)
	}
	fmt.Fprintln(a.stdout, ")")
	return nil
}

type extractResult struct {
	*extract.Result
	path string
}

func (a *App) runExtract(ctx context.Context, s *session, args []string, level string, opts extractOptions, run extractFunc, extraOpts []extract.Option) (res *extractResult, err error) {
	operation := "extract " + strings.ToLower(opts.sourceTag)

	src, err := a.openDocument(ctx, s, args[0])
	if err != nil {
		return nil, err
	}
	defer closeDocument(src, &err)

	srcPath, err := a.documentPath(args[0])
	if err != nil {
		return nil, err
	}
	dstPath, err := a.documentPath(args[2])
	if err != nil {
		return nil, err
	}
	dst := src
	if dstPath != srcPath {
		if dst, err = a.openOrCreateDocument(ctx, s, args[2]); err != nil {
			return nil, err
		}
		defer closeDocument(dst, &err)
	}

	source, err := src.FromElement(engine.Selector{TagName: opts.sourceTag, ID: args[1]})
	if err != nil {
		return nil, elementError(operation, args[1], err)
	}

	out, err := run(source, extract.Target{Root: dst.FromRoot(), Level: level, Names: opts.names}, extraOpts...)
	if err != nil {
		if errors.Is(err, extract.ErrInvalidLevel) {
			return nil, issue.NewErrorContext().
				WithOperation(operation).
				WithResource(args[1]).
				WithIssue(issue.InvalidExtractLevelId).
				Wrap(err).
				BuildError()
		}
		return nil, elementError(operation, args[1], err)
	}
	if _, err := out.Target.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit %s: %w", dst.Name(), err)
	}
	return &extractResult{Result: out, path: dstPath}, nil
}
