// SPDX-License-Identifier: MPL-2.0

// Package buildargs assembles the native-image argument list from the
// generated configuration artifacts.
package buildargs

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// ErrImageNameRequired is returned when no image name is configured.
var ErrImageNameRequired = errors.New("image name is required")

// Flags passed on every build.
var fixedFlags = []string{
	"-H:+ReportUnsupportedElementsAtRuntime",
	"-H:+ReportExceptionStackTraces",
	"-H:+TraceClassInitialization",
	"-H:+PrintClassInitialization",
	"--no-fallback",
}

// Options are the inputs of Create.
type Options struct {
	// ReflectionConfig and ResourceConfig are the generated configuration
	// files. Empty paths omit the flag.
	ReflectionConfig string
	ResourceConfig   string
	// ExtraResourceConfigs are appended to the generated resource config.
	ExtraResourceConfigs []string
	// Packages are the build-time initialized packages found by resource
	// classification; ExtraPackages are supplied by the user.
	Packages      []string
	ExtraPackages []string
	Debug         bool
	MainClass     string
	ImageName     string
}

// Create returns the native-image arguments for o, in the order native-image
// documents them: classpath leniency, class initialization, configuration
// files, diagnostics, then the entry point and image name.
func Create(o Options) ([]string, error) {
	if strings.TrimSpace(o.ImageName) == "" {
		return nil, ErrImageNameRequired
	}

	args := []string{"--allow-incomplete-classpath"}
	if pkgs := InitializeAtBuildTime(o.Packages, o.ExtraPackages); len(pkgs) > 0 {
		args = append(args, "--initialize-at-build-time="+strings.Join(pkgs, ","))
	}
	if o.ReflectionConfig != "" {
		args = append(args, "-H:ReflectionConfigurationFiles="+o.ReflectionConfig)
	}
	resources := slices.DeleteFunc(
		append([]string{o.ResourceConfig}, o.ExtraResourceConfigs...),
		func(s string) bool { return s == "" },
	)
	if len(resources) > 0 {
		args = append(args, "-H:ResourceConfigurationFiles="+strings.Join(resources, ","))
	}
	args = append(args, fixedFlags...)
	if o.Debug {
		args = append(args, "--debug-attach")
	}
	if o.MainClass != "" {
		args = append(args, "-H:Class="+o.MainClass)
	}
	args = append(args, "-H:Name="+o.ImageName)
	return args, nil
}

// InitializeAtBuildTime returns the sorted, deduplicated union of the given
// package lists, ignoring blanks.
func InitializeAtBuildTime(lists ...[]string) []string {
	var out []string
	for _, l := range lists {
		for _, p := range l {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Classpath joins the absolute forms of paths with the platform list
// separator.
func Classpath(paths []string) (string, error) {
	abs := make([]string, len(paths))
	for i, p := range paths {
		a, err := filepath.Abs(p)
		if err != nil {
			return "", fmt.Errorf("resolve %s: %w", p, err)
		}
		abs[i] = a
	}
	return strings.Join(abs, string(filepath.ListSeparator)), nil
}

// CommandLine renders the full native-image invocation as a shell-quoted
// bash command line.
func CommandLine(exec, classpath string, args []string) (string, error) {
	words := append([]string{exec, "-cp", classpath}, args...)
	quoted := make([]string, len(words))
	for i, w := range words {
		q, err := syntax.Quote(w, syntax.LangBash)
		if err != nil {
			return "", fmt.Errorf("quote %q: %w", w, err)
		}
		quoted[i] = q
	}
	return strings.Join(quoted, " "), nil
}
