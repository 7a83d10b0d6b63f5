// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"atomos-cli/internal/buildargs"
	"atomos-cli/internal/issue"
	"atomos-cli/internal/nativeimage"
	"atomos-cli/internal/pipeline"
	"atomos-cli/internal/report"
	"atomos-cli/internal/substrate"
	"atomos-cli/internal/watch"
)

type buildFlags struct {
	outputDir     string
	classpathDir  string
	mainClass     string
	imageName     string
	debug         bool
	substrateMode string
	initPackages  []string
	reportFile    string
	nativeImage   string
	exec          bool
	dryRun        bool
	watch         bool
}

func newBuildCommand(app *App) *cobra.Command {
	var f buildFlags
	cmd := &cobra.Command{
		Use:   "build [archives...]",
		Short: "Generate native-image configuration and substrate for a bundle set",
		Long: `Run the reflection, resource and substrate passes over the given archives
and assemble the native-image arguments.

Without arguments the archives of the classpath directory are used, in
lexical order. The order fixes the bundle ids in the substrate.`,
		Example: `  atomos build target/classpath_lib/*.jar --main-class org.example.Main
  atomos build --substrate-mode dir --report target/atomos/report.toml
  atomos build --exec --native-image /opt/graalvm/bin/native-image
  atomos build --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.watch {
				if err := runWatch(cmd, app, f, args); err != nil {
					return renderError(cmd, app, err)
				}
				return nil
			}
			if err := runBuild(cmd, app, f, args); err != nil {
				return renderError(cmd, app, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&f.outputDir, "output", "o", "", "output directory (default from config)")
	cmd.Flags().StringVar(&f.classpathDir, "classpath", "", "directory scanned for archives when none are given")
	cmd.Flags().StringVar(&f.mainClass, "main-class", "", "main class of the image")
	cmd.Flags().StringVar(&f.imageName, "image-name", "", "image name (default is the working directory name)")
	cmd.Flags().BoolVar(&f.debug, "debug", false, "pass debug flags to native-image")
	cmd.Flags().StringVar(&f.substrateMode, "substrate-mode", "", "substrate layout: jar or dir")
	cmd.Flags().StringArrayVar(&f.initPackages, "init-at-build-time", nil, "package initialized at build time (repeatable)")
	cmd.Flags().StringVar(&f.reportFile, "report", "", "write a TOML run report to this file")
	cmd.Flags().StringVar(&f.nativeImage, "native-image", "", "native-image executable or GraalVM home (overrides native_image_executable)")
	cmd.Flags().BoolVar(&f.exec, "exec", false, "run native-image after generating")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "print the native-image command line instead of running it")
	cmd.Flags().BoolVarP(&f.watch, "watch", "w", false, "rebuild when archives in the classpath directory change")
	cmd.MarkFlagsMutuallyExclusive("exec", "dry-run")
	return cmd
}

// runWatch builds once and then again after every change to the archives
// of the classpath directory, until the command context ends.
func runWatch(cmd *cobra.Command, app *App, f buildFlags, args []string) error {
	if f.classpathDir != "" {
		app.cfg.ClasspathDir = f.classpathDir
	}
	if err := runBuild(cmd, app, f, args); err != nil {
		app.printError(err)
	}

	w, err := watch.New(watch.Config{
		Dir:    app.cfg.ClasspathDir,
		Logger: app.logger("watch"),
		OnChange: func(ctx context.Context, changed []string) error {
			fmt.Fprintln(app.stdout, SubtitleStyle.Render("Changed: "+strings.Join(changed, ", ")))
			if err := runBuild(cmd, app, f, args); err != nil {
				app.printError(err)
			}
			return nil
		},
	})
	if err != nil {
		return issue.Wrap(err, "watch classpath directory", app.cfg.ClasspathDir)
	}
	fmt.Fprintln(app.stdout, SubtitleStyle.Render("Watching ")+KeyStyle.Render(app.cfg.ClasspathDir)+SubtitleStyle.Render(" (Ctrl+C to stop)"))
	return w.Run(cmd.Context())
}

func runBuild(cmd *cobra.Command, app *App, f buildFlags, args []string) error {
	cfg := app.cfg
	if f.classpathDir != "" {
		cfg.ClasspathDir = f.classpathDir
	}
	archives, err := app.archives(args)
	if err != nil {
		return err
	}

	opts, err := app.pipelineOptions(archives, f)
	if err != nil {
		return err
	}
	res, err := pipeline.Run(cmd.Context(), opts)
	if err != nil {
		return err
	}

	out := app.stdout
	fmt.Fprintln(out, SuccessStyle.Render("✓")+" Generated "+TitleStyle.Render(res.OutputDir))
	fmt.Fprintf(out, "  %s %s\n", SubtitleStyle.Render("substrate:  "), KeyStyle.Render(res.Substrate.Path))
	fmt.Fprintf(out, "  %s %s\n", SubtitleStyle.Render("reflection: "), KeyStyle.Render(res.ReflectionConfigPath))
	fmt.Fprintf(out, "  %s %s\n", SubtitleStyle.Render("resources:  "), KeyStyle.Render(res.ResourceConfigPath))
	if n := len(res.Reflection.Warnings); n > 0 {
		fmt.Fprintln(out, WarningStyle.Render(fmt.Sprintf("  %d member(s) could not be resolved", n)))
		if app.verbose {
			for _, w := range res.Reflection.Warnings {
				fmt.Fprintln(out, "    "+SubtitleStyle.Render(w.String()))
			}
		}
	}

	if f.reportFile != "" {
		if err := writeReport(f.reportFile, res.Report()); err != nil {
			return err
		}
		fmt.Fprintf(out, "  %s %s\n", SubtitleStyle.Render("report:     "), KeyStyle.Render(f.reportFile))
	}

	if !f.exec && !f.dryRun {
		return nil
	}
	classpath, err := buildargs.Classpath(res.Classpath)
	if err != nil {
		return issue.Wrap(err, "assemble classpath", "")
	}

	if f.dryRun {
		line, err := buildargs.CommandLine(nativeimage.ExecutableName, classpath, res.BuildArgs)
		if err != nil {
			return issue.Wrap(err, "quote command line", "")
		}
		fmt.Fprintln(out, line)
		return nil
	}

	configured := cfg.NativeImageExecutable
	if f.nativeImage != "" {
		configured = f.nativeImage
	}
	exe, err := nativeimage.Find(cmd.Context(), configured)
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("find native-image").
			WithResource(configured).
			WithIssue(issue.NativeImageNotFoundId).
			WithSuggestion("Pass --native-image, or set native_image_executable, GRAAL_HOME or JAVA_HOME").
			Wrap(err).
			BuildError()
	}
	err = nativeimage.Run(cmd.Context(), nativeimage.RunOptions{
		Exec:      exe,
		Classpath: classpath,
		Args:      res.BuildArgs,
		Dir:       res.OutputDir,
		Stdout:    app.stdout,
		Stderr:    app.stderr,
		Logger:    app.logger("native-image"),
	})
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("run native-image").
			WithResource(exe).
			WithIssue(issue.NativeImageFailedId).
			Wrap(err).
			BuildError()
	}
	fmt.Fprintln(out, SuccessStyle.Render("✓")+" native-image finished")
	return nil
}

// pipelineOptions merges flags over the loaded configuration.
func (a *App) pipelineOptions(archives []string, f buildFlags) (pipeline.Options, error) {
	cfg := a.cfg
	mode := string(cfg.Substrate.Mode)
	if f.substrateMode != "" {
		mode = f.substrateMode
	}
	m, err := substrate.ParseMode(mode)
	if err != nil {
		return pipeline.Options{}, err
	}

	outDir := cfg.OutputDir
	if f.outputDir != "" {
		outDir = f.outputDir
	}
	mainClass := cfg.MainClass
	if f.mainClass != "" {
		mainClass = f.mainClass
	}
	imageName := cfg.ImageName
	if f.imageName != "" {
		imageName = f.imageName
	}
	if imageName == "" {
		if wd, err := os.Getwd(); err == nil {
			imageName = filepath.Base(wd)
		}
	}

	rules, subRules := a.rules(), a.substrateRules()
	return pipeline.Options{
		Archives:             archives,
		OutputDir:            outDir,
		SubstrateMode:        m,
		SubstrateFileName:    cfg.Substrate.FileName,
		Rules:                &rules,
		SubstrateRules:       &subRules,
		ClassCacheSize:       cfg.Resolver.ClassCacheSize,
		ExtraInitPackages:    append(append([]string(nil), cfg.InitializeAtBuildTime...), f.initPackages...),
		ExtraResourceConfigs: cfg.ResourceConfigFiles,
		MainClass:            mainClass,
		ImageName:            imageName,
		Debug:                cfg.Debug || f.debug,
		Logger:               a.logger("atomos"),
	}, nil
}

func writeReport(p string, r *report.Report) error {
	if dir := filepath.Dir(p); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return outputError(p, err)
		}
	}
	f, err := os.Create(p)
	if err != nil {
		return outputError(p, err)
	}
	if err := report.Write(f, r); err != nil {
		_ = f.Close()
		return outputError(p, err)
	}
	if err := f.Close(); err != nil {
		return outputError(p, err)
	}
	return nil
}

func outputError(p string, err error) error {
	return issue.NewErrorContext().
		WithOperation("write output").
		WithResource(p).
		WithIssue(issue.OutputNotWritableId).
		Wrap(err).
		BuildError()
}
