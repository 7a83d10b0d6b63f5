// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is set via ldflags at build time.
	Version = "dev"
	// Commit is set via ldflags at build time.
	Commit = "unknown"
	// BuildDate is set via ldflags at build time.
	BuildDate = "unknown"
)

// NewRootCommand creates the atomos command tree bound to app.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "atomos",
		Short: "Ahead-of-time packaging for OSGi bundles",
		Long: TitleStyle.Render("atomos") + SubtitleStyle.Render(" - native-image packaging for OSGi bundle sets") + `

atomos inspects a set of bundle archives and produces what a native-image
build needs to run them without a class loader: a reflection configuration
for the declarative services components, a resource configuration and a
substrate that keeps every retained bundle entry under its bundle id.

Quick start:
  atomos build target/classpath_lib/*.jar --main-class org.example.Main
  atomos build --dry-run
  atomos index target/atomos/atomos.substrate.jar`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if skipsConfigLoad(cmd) {
				return nil
			}
			if err := app.load(cmd.Context()); err != nil {
				return renderError(cmd, app, err)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&app.cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/atomos/config.cue)")
	rootCmd.PersistentFlags().StringArrayVar(&app.envFiles, "env-file", nil, "load environment variables from a dotenv file (repeatable)")

	rootCmd.AddCommand(
		newBuildCommand(app),
		newReflectCommand(app),
		newResourcesCommand(app),
		newSubstrateCommand(app),
		newIndexCommand(app),
		newConfigCommand(app),
	)
	return rootCmd
}

// Execute runs the root command. Called by main.main().
func Execute() {
	app := NewApp(Dependencies{})
	rootCmd := NewRootCommand(app)

	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// skipsConfigLoad reports whether cmd must work with a broken config file.
func skipsConfigLoad(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "config", "help", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
			return true
		}
	}
	return false
}

func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}
