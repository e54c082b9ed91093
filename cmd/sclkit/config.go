// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/sclkit/sclkit/internal/config"
	"github.com/sclkit/sclkit/pkg/idgen"
	"github.com/sclkit/sclkit/pkg/scl/history"

	"github.com/spf13/cobra"
)

var configKeys = []string{
	"data_dir", "id_strategy", "log_level",
	"history.who", "history.tool", "history.version_policy",
	"extract.level", "extract.resolve_data_types",
}

// newConfigCommand creates the `sclkit config` command tree. Its commands
// load the configuration themselves, so a broken file can still be shown
// the path of and replaced.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage sclkit configuration",
		Long: `Manage sclkit configuration.

Configuration is stored in:
  - Linux: ~/.config/sclkit/config.cue
  - macOS: ~/Library/Application Support/sclkit/config.cue
  - Windows: %APPDATA%\sclkit\config.cue

SCLKIT_* environment variables override the file, e.g. SCLKIT_LOG_LEVEL or
SCLKIT_HISTORY_WHO.`,
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.showConfig(cmd.Context())
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(*cobra.Command, []string) error {
			path, err := config.CreateDefaultConfig("")
			if err != nil {
				return fmt.Errorf("failed to create config: %w", err)
			}
			fmt.Fprintf(app.stdout, "%s Configuration at %s\n", SuccessStyle.Render("✓"), path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(*cobra.Command, []string) error {
			path, err := app.configFilePath()
			if err != nil {
				return err
			}
			fmt.Fprintf(app.stdout, "Config file: %s\n", path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.setConfigValue(cmd.Context(), args[0], args[1])
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output raw configuration as CUE",
		RunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := app.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(loaded.Config))
			return nil
		},
	})

	return cfgCmd
}

func (a *App) loadConfig(ctx context.Context) (*config.Loaded, error) {
	return config.LoadWithPath(ctx, config.LoadOptions{ConfigFilePath: a.flags.configPath})
}

// configFilePath is the file config set writes to.
func (a *App) configFilePath() (string, error) {
	if a.flags.configPath != "" {
		return a.flags.configPath, nil
	}
	dir, err := config.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, config.ConfigFileName+"."+config.ConfigFileExt), nil
}

func (a *App) showConfig(ctx context.Context) error {
	loaded, err := a.loadConfig(ctx)
	if err != nil {
		return err
	}
	cfg := loaded.Config
	if a.flags.dataDir != "" {
		cfg.DataDir = config.DataDirPath(a.flags.dataDir)
	}

	keyStyle := CmdStyle
	valueStyle := SuccessStyle
	w := a.stdout

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	if loaded.Path != "" {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), loaded.Path)
	} else {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	dataDir, err := cfg.ResolveDataDir()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Documents"), dataDir)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("id_strategy"), valueStyle.Render(string(cfg.IDStrategy)))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("log_level"), valueStyle.Render(string(cfg.LogLevel)))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("history"))
	who := cfg.History.Who
	if who == "" {
		who = SubtitleStyle.Render("(not set)")
	}
	fmt.Fprintf(w, "  who: %s\n", who)
	fmt.Fprintf(w, "  tool: %s\n", valueStyle.Render(cfg.History.Tool))
	fmt.Fprintf(w, "  version_policy: %s\n", valueStyle.Render(string(cfg.History.VersionPolicy)))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("extract"))
	fmt.Fprintf(w, "  level: %s\n", valueStyle.Render(string(cfg.Extract.Level)))
	fmt.Fprintf(w, "  resolve_data_types: %s\n", valueStyle.Render(strconv.FormatBool(cfg.Extract.ResolveDataTypes)))

	return nil
}

func (a *App) setConfigValue(ctx context.Context, key, value string) error {
	loaded, err := a.loadConfig(ctx)
	if err != nil {
		return err
	}
	cfg := loaded.Config

	switch key {
	case "data_dir":
		cfg.DataDir = config.DataDirPath(value)
	case "id_strategy":
		cfg.IDStrategy = idgen.Strategy(value)
	case "log_level":
		cfg.LogLevel = config.LogLevel(value)
	case "history.who":
		cfg.History.Who = value
	case "history.tool":
		cfg.History.Tool = value
	case "history.version_policy":
		cfg.History.VersionPolicy = history.VersionPolicy(value)
	case "extract.level":
		cfg.Extract.Level = config.ExtractLevel(value)
	case "extract.resolve_data_types":
		cfg.Extract.ResolveDataTypes = value == "true" || value == "1"
	default:
		return fmt.Errorf("unknown configuration key: %s\nValid keys: %v", key, configKeys)
	}

	if valid, errs := cfg.IsValid(); !valid {
		return fmt.Errorf("invalid %s: %w", key, errs[0])
	}

	path := loaded.Path
	if path == "" {
		if path, err = a.configFilePath(); err != nil {
			return err
		}
	}
	if err := config.Save(path, cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Fprintf(a.stdout, "%s Set %s = %s\n", SuccessStyle.Render("✓"), key, value)
	return nil
}
