// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"atomos-cli/internal/reflectcfg"
	"atomos-cli/internal/resourcecfg"
	"atomos-cli/internal/substrate"
)

func newReflectCommand(app *App) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "reflect [archives...]",
		Short: "Generate the reflection configuration for declarative services components",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := func() error {
				archives, err := app.archives(args)
				if err != nil {
					return err
				}
				res, err := reflectcfg.Resolve(archives,
					reflectcfg.WithLogger(app.logger("reflect")),
					reflectcfg.WithClassCacheSize(app.cfg.Resolver.ClassCacheSize))
				if err != nil {
					return err
				}
				for _, w := range res.Warnings {
					fmt.Fprintln(app.stderr, WarningStyle.Render("warning: ")+w.String())
				}
				return writeOutput(app, output, func(w io.Writer) error {
					return reflectcfg.Encode(w, res.Classes)
				})
			}()
			if err != nil {
				return renderError(cmd, app, err)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
	return cmd
}

func newResourcesCommand(app *App) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "resources [archives...]",
		Short: "Generate the resource configuration of a bundle set",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := func() error {
				archives, err := app.archives(args)
				if err != nil {
					return err
				}
				res, err := resourcecfg.Classify(archives,
					resourcecfg.WithLogger(app.logger("resources")),
					resourcecfg.WithRules(app.rules()))
				if err != nil {
					return err
				}
				return writeOutput(app, output, func(w io.Writer) error {
					return resourcecfg.Encode(w, res.Bundles, res.Patterns)
				})
			}()
			if err != nil {
				return renderError(cmd, app, err)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
	return cmd
}

func newSubstrateCommand(app *App) *cobra.Command {
	var (
		outputDir string
		mode      string
	)
	cmd := &cobra.Command{
		Use:   "substrate [archives...]",
		Short: "Package the retained bundle entries into the substrate",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := func() error {
				archives, err := app.archives(args)
				if err != nil {
					return err
				}
				if mode == "" {
					mode = string(app.cfg.Substrate.Mode)
				}
				m, err := substrate.ParseMode(mode)
				if err != nil {
					return err
				}
				if outputDir == "" {
					outputDir = app.cfg.OutputDir
				}
				res, err := substrate.Merge(archives, outputDir,
					substrate.WithLogger(app.logger("substrate")),
					substrate.WithRules(app.substrateRules()),
					substrate.WithMode(m),
					substrate.WithFileName(app.cfg.Substrate.FileName))
				if err != nil {
					return err
				}
				fmt.Fprintf(app.stdout, "%s Packaged %d archive(s) into %s\n",
					SuccessStyle.Render("✓"), len(res.Infos), KeyStyle.Render(res.Path))
				return nil
			}()
			if err != nil {
				return renderError(cmd, app, err)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory (default from config)")
	cmd.Flags().StringVar(&mode, "mode", "", "substrate layout: jar or dir")
	return cmd
}

func newIndexCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "index <substrate>",
		Short: "List the bundles recorded in a merged jar or extraction directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			infos, err := substrate.ReadMergedIndex(args[0])
			if err != nil {
				return renderError(cmd, app, fmt.Errorf("read index of %s: %w", args[0], err))
			}
			for _, info := range infos {
				bsn := info.SymbolicName
				if bsn == "" {
					bsn = SubtitleStyle.Render("(no symbolic name)")
				}
				fmt.Fprintf(app.stdout, "%s %s %s\n", KeyStyle.Render(fmt.Sprintf("%3d", info.ID)), bsn, SubtitleStyle.Render(info.Version))
				if app.verbose {
					for _, f := range info.Files {
						fmt.Fprintln(app.stdout, "      "+f)
					}
				} else {
					fmt.Fprintf(app.stdout, "      %d file(s)\n", len(info.Files))
				}
			}
			return nil
		},
	}
}

// writeOutput runs fill against p, or against stdout when p is empty.
func writeOutput(app *App, p string, fill func(io.Writer) error) error {
	if p == "" {
		return fill(app.stdout)
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return outputError(p, err)
	}
	f, err := os.Create(p)
	if err != nil {
		return outputError(p, err)
	}
	if err := fill(f); err != nil {
		_ = f.Close()
		return outputError(p, err)
	}
	if err := f.Close(); err != nil {
		return outputError(p, err)
	}
	return nil
}
