// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"atomos-cli/internal/config"
)

// newConfigCommand creates the `atomos config` command tree. These commands
// skip the global config load so they stay usable with a broken file.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage atomos configuration",
		Long: `Manage atomos configuration.

Configuration is read from --config, then from the user config directory,
then from ./config.cue:
  - Linux: ~/.config/atomos/config.cue
  - macOS: ~/Library/Application Support/atomos/config.cue
  - Windows: %APPDATA%\atomos\config.cue

Every setting can also be set with an ATOMOS_ environment variable, for
example ATOMOS_OUTPUT_DIR or ATOMOS_SUBSTRATE_MODE.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := showConfig(cmd.Context(), app); err != nil {
				return renderError(cmd, app, err)
			}
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.Config.Load(cmd.Context(), config.LoadOptions{ConfigFilePath: app.cfgFile})
			if err != nil {
				return renderError(cmd, app, err)
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration file in use",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := config.ResolvePath(config.LoadOptions{ConfigFilePath: app.cfgFile})
			if err != nil {
				return renderError(cmd, app, err)
			}
			if p == "" {
				fmt.Fprintln(app.stdout, SubtitleStyle.Render("(no config file, using defaults)"))
				return nil
			}
			fmt.Fprintln(app.stdout, p)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(app); err != nil {
				return renderError(cmd, app, err)
			}
			return nil
		},
	})

	return cfgCmd
}

func showConfig(ctx context.Context, app *App) error {
	cfg, err := app.Config.Load(ctx, config.LoadOptions{ConfigFilePath: app.cfgFile})
	if err != nil {
		return err
	}
	p, err := config.ResolvePath(config.LoadOptions{ConfigFilePath: app.cfgFile})
	if err != nil {
		return err
	}
	if p == "" {
		p = "(defaults)"
	}

	out := app.stdout
	fmt.Fprintln(out, TitleStyle.Render("Configuration"))
	fmt.Fprintln(out, SubtitleStyle.Render("  source: ")+KeyStyle.Render(p))
	fmt.Fprintln(out)

	row := func(key string, value any) {
		fmt.Fprintf(out, "  %-28s %v\n", KeyStyle.Render(key), value)
	}
	list := func(values []string) string {
		if len(values) == 0 {
			return SubtitleStyle.Render("(none)")
		}
		return strings.Join(values, ", ")
	}
	row("output_dir", cfg.OutputDir)
	row("classpath_dir", cfg.ClasspathDir)
	row("main_class", cfg.MainClass)
	row("image_name", cfg.ImageName)
	row("native_image_executable", cfg.NativeImageExecutable)
	row("initialize_at_build_time", list(cfg.InitializeAtBuildTime))
	row("resource_config_files", list(cfg.ResourceConfigFiles))
	row("debug", cfg.Debug)
	row("substrate.mode", cfg.Substrate.Mode)
	row("substrate.file_name", cfg.Substrate.FileName)
	row("exclude.suffixes", list(cfg.Exclude.Suffixes))
	row("exclude.prefixes", list(cfg.Exclude.Prefixes))
	row("resolver.class_cache_size", cfg.Resolver.ClassCacheSize)
	row("ui.verbose", cfg.UI.Verbose)
	row("ui.color_scheme", cfg.UI.ColorScheme)
	return nil
}

func initConfig(app *App) error {
	dir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	p := filepath.Join(dir, config.ConfigFileName+"."+config.ConfigFileExt)
	created, err := config.CreateDefaultConfig(p)
	if err != nil {
		return outputError(p, err)
	}
	if !created {
		fmt.Fprintln(app.stdout, WarningStyle.Render("Config already exists: ")+KeyStyle.Render(p))
		return nil
	}
	fmt.Fprintln(app.stdout, SuccessStyle.Render("✓")+" Created "+KeyStyle.Render(p))
	return nil
}
