// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

const (
	// SubstrateModeJar merges retained entries into one jar.
	SubstrateModeJar SubstrateMode = "jar"
	// SubstrateModeDir extracts retained entries into a directory tree.
	SubstrateModeDir SubstrateMode = "dir"

	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"
)

var (
	// ErrInvalidSubstrateMode is returned when a SubstrateMode value is not recognized.
	ErrInvalidSubstrateMode = errors.New("invalid substrate mode")
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidFileName is returned for a substrate file name that is empty
	// or contains a path separator.
	ErrInvalidFileName = errors.New("invalid file name")
	// ErrInvalidCacheSize is returned for a non-positive class cache size.
	ErrInvalidCacheSize = errors.New("invalid class cache size")
	// ErrInvalidOutputDir is returned for an empty output directory.
	ErrInvalidOutputDir = errors.New("invalid output directory")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// SubstrateMode selects the substrate output layout. Defined locally so
	// the config package does not depend on the packager.
	SubstrateMode string

	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// FieldError reports one invalid setting. It wraps the sentinel of the
	// failed check for errors.Is.
	FieldError struct {
		Key   string
		Value any
		Err   error
	}

	// InvalidConfigError collects the field errors of a Config.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// OutputDir receives the substrate and configuration artifacts.
		OutputDir string `json:"output_dir" mapstructure:"output_dir"`
		// ClasspathDir is scanned for archives when none are given on the
		// command line.
		ClasspathDir string `json:"classpath_dir" mapstructure:"classpath_dir"`
		MainClass    string `json:"main_class" mapstructure:"main_class"`
		// ImageName defaults to the working directory name when empty.
		ImageName             string `json:"image_name" mapstructure:"image_name"`
		NativeImageExecutable string `json:"native_image_executable" mapstructure:"native_image_executable"`
		// InitializeAtBuildTime adds packages to the detected ones.
		InitializeAtBuildTime []string `json:"initialize_at_build_time" mapstructure:"initialize_at_build_time"`
		// ResourceConfigFiles are passed to native-image after the
		// generated resource configuration.
		ResourceConfigFiles []string        `json:"resource_config_files" mapstructure:"resource_config_files"`
		Debug               bool            `json:"debug" mapstructure:"debug"`
		Substrate           SubstrateConfig `json:"substrate" mapstructure:"substrate"`
		Exclude             ExcludeConfig   `json:"exclude" mapstructure:"exclude"`
		Resolver            ResolverConfig  `json:"resolver" mapstructure:"resolver"`
		UI                  UIConfig        `json:"ui" mapstructure:"ui"`
	}

	// SubstrateConfig configures the substrate packager.
	SubstrateConfig struct {
		Mode     SubstrateMode `json:"mode" mapstructure:"mode"`
		FileName string        `json:"file_name" mapstructure:"file_name"`
		// KeepMetadata packages META-INF and OSGI-INF entries instead of
		// applying the resource exclusion rules to the substrate.
		KeepMetadata bool `json:"keep_metadata" mapstructure:"keep_metadata"`
	}

	// ExcludeConfig extends the built-in entry exclusion rules.
	ExcludeConfig struct {
		Suffixes []string `json:"suffixes" mapstructure:"suffixes"`
		Prefixes []string `json:"prefixes" mapstructure:"prefixes"`
	}

	// ResolverConfig tunes the reflection resolver.
	ResolverConfig struct {
		// ClassCacheSize bounds the number of parsed classes kept per pass.
		ClassCacheSize int `json:"class_cache_size" mapstructure:"class_cache_size"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		Verbose     bool        `json:"verbose" mapstructure:"verbose"`
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
	}
)

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		OutputDir:    filepath.Join("target", "atomos"),
		ClasspathDir: filepath.Join("target", "classpath_lib"),
		Substrate: SubstrateConfig{
			Mode:     SubstrateModeJar,
			FileName: "atomos.substrate.jar",
		},
		Resolver: ResolverConfig{ClassCacheSize: 512},
		UI:       UIConfig{ColorScheme: ColorSchemeAuto},
	}
}

// String returns the string representation of the SubstrateMode.
func (m SubstrateMode) String() string { return string(m) }

// IsValid returns whether the SubstrateMode is one of the defined modes.
func (m SubstrateMode) IsValid() (bool, []error) {
	switch m {
	case SubstrateModeJar, SubstrateModeDir:
		return true, nil
	default:
		return false, []error{&FieldError{Key: "substrate.mode", Value: string(m), Err: ErrInvalidSubstrateMode}}
	}
}

// String returns the string representation of the ColorScheme.
func (c ColorScheme) String() string { return string(c) }

// IsValid returns whether the ColorScheme is one of the defined schemes.
func (c ColorScheme) IsValid() (bool, []error) {
	switch c {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&FieldError{Key: "ui.color_scheme", Value: string(c), Err: ErrInvalidColorScheme}}
	}
}

// IsValid returns whether the SubstrateConfig has valid fields.
func (c SubstrateConfig) IsValid() (bool, []error) {
	var errs []error
	if ok, fieldErrs := c.Mode.IsValid(); !ok {
		errs = append(errs, fieldErrs...)
	}
	name := strings.TrimSpace(c.FileName)
	if name == "" || strings.ContainsAny(name, `/\`) {
		errs = append(errs, &FieldError{Key: "substrate.file_name", Value: c.FileName, Err: ErrInvalidFileName})
	}
	return len(errs) == 0, errs
}

// IsValid returns whether the Config has valid fields. Field errors are
// collected into one *InvalidConfigError.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if strings.TrimSpace(c.OutputDir) == "" {
		errs = append(errs, &FieldError{Key: "output_dir", Value: c.OutputDir, Err: ErrInvalidOutputDir})
	}
	if ok, fieldErrs := c.Substrate.IsValid(); !ok {
		errs = append(errs, fieldErrs...)
	}
	if c.Resolver.ClassCacheSize <= 0 {
		errs = append(errs, &FieldError{Key: "resolver.class_cache_size", Value: c.Resolver.ClassCacheSize, Err: ErrInvalidCacheSize})
	}
	if ok, fieldErrs := c.UI.ColorScheme.IsValid(); !ok {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for FieldError.
func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v: %q", e.Key, e.Err, fmt.Sprint(e.Value))
}

// Unwrap returns the sentinel of the failed check.
func (e *FieldError) Unwrap() error { return e.Err }

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig together with the field errors.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}
