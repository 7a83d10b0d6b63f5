// SPDX-License-Identifier: MPL-2.0

// Package pipeline drives the three packaging passes over one archive list
// and writes the configuration artifacts native-image consumes.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"atomos-cli/internal/buildargs"
	"atomos-cli/internal/issue"
	"atomos-cli/internal/reflectcfg"
	"atomos-cli/internal/report"
	"atomos-cli/internal/resourcecfg"
	"atomos-cli/internal/substrate"
	"atomos-cli/pkg/archive"
	"atomos-cli/pkg/classfile"
)

const (
	// ReflectionConfigName is the reflection configuration file name.
	ReflectionConfigName = "graal_reflect_config.json"
	// ResourceConfigName is the resource configuration file name.
	ResourceConfigName = "graal_resource_config.json"
)

type (
	// Options configure one run.
	Options struct {
		// Archives are processed in order; the order fixes substrate ids.
		Archives  []string
		OutputDir string

		SubstrateMode     substrate.Mode
		SubstrateFileName string
		// Rules default to archive.DefaultRules when nil.
		Rules *archive.Rules
		// SubstrateRules default to Rules when nil.
		SubstrateRules *archive.Rules
		ClassCacheSize int

		ExtraInitPackages    []string
		ExtraResourceConfigs []string
		MainClass            string
		ImageName            string
		Debug                bool

		Logger *log.Logger
	}

	// Result holds the outputs of a successful run.
	Result struct {
		Substrate  *substrate.Result
		Reflection *reflectcfg.Result
		Resources  *resourcecfg.Result

		OutputDir            string
		ReflectionConfigPath string
		ResourceConfigPath   string
		// Classpath is the input archives followed by the merged jar.
		Classpath []string
		BuildArgs []string
		Finished  time.Time
	}
)

// Run executes the substrate, reflection and resource passes over
// o.Archives, writes both configuration files to o.OutputDir and assembles
// the native-image arguments. The passes share no state and run
// concurrently; the first fatal error cancels the run and nothing is
// returned.
func Run(ctx context.Context, o Options) (*Result, error) {
	logger := o.Logger
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "atomos"})
	}
	rules := archive.DefaultRules()
	if o.Rules != nil {
		rules = *o.Rules
	}
	subRules := rules
	if o.SubstrateRules != nil {
		subRules = *o.SubstrateRules
	}
	cacheSize := o.ClassCacheSize
	if cacheSize <= 0 {
		cacheSize = classfile.DefaultCacheSize
	}
	outDir, err := filepath.Abs(o.OutputDir)
	if err != nil {
		return nil, issue.Wrap(err, "resolve output directory", o.OutputDir)
	}

	res := &Result{OutputDir: outDir}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		subOpts := []substrate.Option{
			substrate.WithLogger(logger.WithPrefix("substrate")),
			substrate.WithRules(subRules),
		}
		if o.SubstrateMode != "" {
			subOpts = append(subOpts, substrate.WithMode(o.SubstrateMode))
		}
		if o.SubstrateFileName != "" {
			subOpts = append(subOpts, substrate.WithFileName(o.SubstrateFileName))
		}
		r, err := substrate.Merge(o.Archives, outDir, subOpts...)
		if err != nil {
			return err
		}
		res.Substrate = r
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		r, err := reflectcfg.Resolve(o.Archives,
			reflectcfg.WithLogger(logger.WithPrefix("reflect")),
			reflectcfg.WithClassCacheSize(cacheSize),
		)
		if err != nil {
			return err
		}
		res.Reflection = r
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		r, err := resourcecfg.Classify(o.Archives,
			resourcecfg.WithLogger(logger.WithPrefix("resources")),
			resourcecfg.WithRules(rules),
		)
		if err != nil {
			return err
		}
		res.Resources = r
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res.ReflectionConfigPath = filepath.Join(outDir, ReflectionConfigName)
	if err := writeFile(res.ReflectionConfigPath, func(f *os.File) error {
		return reflectcfg.Encode(f, res.Reflection.Classes)
	}); err != nil {
		return nil, err
	}
	res.ResourceConfigPath = filepath.Join(outDir, ResourceConfigName)
	if err := writeFile(res.ResourceConfigPath, func(f *os.File) error {
		return resourcecfg.Encode(f, res.Resources.Bundles, res.Resources.Patterns)
	}); err != nil {
		return nil, err
	}

	res.Classpath = append(append([]string{}, o.Archives...), res.Substrate.Path)
	res.BuildArgs, err = buildargs.Create(buildargs.Options{
		ReflectionConfig:     res.ReflectionConfigPath,
		ResourceConfig:       res.ResourceConfigPath,
		ExtraResourceConfigs: o.ExtraResourceConfigs,
		Packages:             res.Resources.Packages.Sorted(),
		ExtraPackages:        o.ExtraInitPackages,
		Debug:                o.Debug,
		MainClass:            o.MainClass,
		ImageName:            o.ImageName,
	})
	if err != nil {
		return nil, fmt.Errorf("assemble build arguments: %w", err)
	}
	res.Finished = time.Now().UTC()

	logger.Info("artifacts written",
		"dir", outDir,
		"archives", len(o.Archives),
		"classes", len(res.Reflection.Classes),
		"bundles", len(res.Resources.Bundles),
		"patterns", len(res.Resources.Patterns),
		"warnings", len(res.Reflection.Warnings),
	)
	return res, nil
}

// Report summarizes r for the run report.
func (r *Result) Report() *report.Report {
	rep := &report.Report{
		Generated: r.Finished,
		OutputDir: r.OutputDir,
		Artifacts: report.Artifacts{
			Substrate:        r.Substrate.Path,
			SubstrateMode:    string(r.Substrate.Mode),
			ReflectionConfig: r.ReflectionConfigPath,
			ResourceConfig:   r.ResourceConfigPath,
			BuildArgs:        r.BuildArgs,
		},
		Reflection: report.Reflection{
			Classes:     len(r.Reflection.Classes),
			Descriptors: r.Reflection.Descriptors,
			Components:  r.Reflection.Components,
		},
		Resources: report.Resources{
			Bundles:               len(r.Resources.Bundles),
			Patterns:              len(r.Resources.Patterns),
			Dropped:               r.Resources.Dropped,
			InitializeAtBuildTime: buildargs.InitializeAtBuildTime(r.Resources.Packages.Sorted()),
		},
	}
	for _, info := range r.Substrate.Infos {
		rep.Archives = append(rep.Archives, report.Archive{
			ID:           info.ID,
			Path:         info.Path,
			SymbolicName: info.SymbolicName,
			Version:      info.Version,
			Retained:     len(info.Files),
		})
	}
	for _, w := range r.Reflection.Warnings {
		rep.Warnings = append(rep.Warnings, w.String())
	}
	return rep
}

func writeFile(p string, fill func(*os.File) error) error {
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

func outputError(p string, err error) error {
	return issue.NewErrorContext().
		WithOperation("write configuration").
		WithResource(p).
		WithIssue(issue.OutputNotWritableId).
		Wrap(err).
		BuildError()
}
