// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"atomos-cli/internal/config"
	"atomos-cli/internal/discovery"
	"atomos-cli/internal/issue"
	"atomos-cli/pkg/archive"
)

type (
	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// App wires CLI services and shared state. Every command handler
	// receives the same App.
	App struct {
		Config ConfigProvider
		stdout io.Writer
		stderr io.Writer

		// Set from global flags.
		verbose  bool
		cfgFile  string
		envFiles []string

		cfg *config.Config
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults.
	Dependencies struct {
		Config ConfigProvider
		Stdout io.Writer
		Stderr io.Writer
	}
)

// NewApp creates an App from deps.
func NewApp(deps Dependencies) *App {
	app := &App{
		Config: deps.Config,
		stdout: deps.Stdout,
		stderr: deps.Stderr,
	}
	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	return app
}

// load reads --env-file files and the configuration. It runs before every
// command.
func (a *App) load(ctx context.Context) error {
	if len(a.envFiles) > 0 {
		if err := godotenv.Load(a.envFiles...); err != nil {
			return issue.NewErrorContext().
				WithOperation("load environment file").
				WithIssue(issue.ConfigLoadFailedId).
				WithSuggestion("Check the --env-file paths").
				Wrap(err).
				BuildError()
		}
	}
	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: a.cfgFile})
	if err != nil {
		return err
	}
	a.cfg = cfg
	if cfg.UI.Verbose {
		a.verbose = true
	}
	return nil
}

// logger returns a logger writing to stderr, at debug level when verbose.
func (a *App) logger(prefix string) *log.Logger {
	l := log.NewWithOptions(a.stderr, log.Options{Prefix: prefix})
	if a.verbose {
		l.SetLevel(log.DebugLevel)
	}
	return l
}

// rules returns the exclusion rules extended by the configuration.
func (a *App) rules() archive.Rules {
	return archive.DefaultRules().With(a.cfg.Exclude.Suffixes, a.cfg.Exclude.Prefixes)
}

// substrateRules are the resource rules unless substrate.keep_metadata asks
// for the narrower set. User exclusions apply to both.
func (a *App) substrateRules() archive.Rules {
	if !a.cfg.Substrate.KeepMetadata {
		return a.rules()
	}
	return archive.SubstrateRules().With(a.cfg.Exclude.Suffixes, a.cfg.Exclude.Prefixes)
}

// archives returns args when given, else the archives of the configured
// classpath directory. Skipped files are reported on stderr.
func (a *App) archives(args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	dir := a.cfg.ClasspathDir
	if dir == "" {
		return nil, noArchivesError(dir, nil)
	}
	res, err := discovery.Archives(dir)
	if err != nil {
		return nil, noArchivesError(dir, err)
	}
	for _, d := range res.Diagnostics {
		if d.Severity == discovery.SeverityError || a.verbose {
			fmt.Fprintln(a.stderr, WarningStyle.Render(d.String()))
		}
	}
	if len(res.Archives) == 0 {
		return nil, noArchivesError(dir, fmt.Errorf("no archives in %s", dir))
	}
	return res.Archives, nil
}

func noArchivesError(dir string, err error) error {
	if err == nil {
		err = fmt.Errorf("no archives given and no classpath directory configured")
	}
	return issue.NewErrorContext().
		WithOperation("collect archives").
		WithResource(dir).
		WithIssue(issue.NoArchivesId).
		WithSuggestion("Pass archives as arguments or set classpath_dir").
		Wrap(err).
		BuildError()
}
