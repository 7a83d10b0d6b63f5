// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"atomos-cli/internal/issue"
	"atomos-cli/pkg/cueutil"
)

const (
	// AppName is the application name.
	AppName = "atomos"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes environment overrides.
	EnvPrefix = "ATOMOS"
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the atomos configuration directory using platform
// conventions: %APPDATA% on Windows, ~/Library/Application Support on macOS
// and $XDG_CONFIG_HOME (defaulting to ~/.config) elsewhere.
//
//nolint:revive // ConfigDir reads better than Dir at call sites
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("APPDATA")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		base = filepath.Join(home, "Library", "Application Support")
	default:
		base = os.Getenv("XDG_CONFIG_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			base = filepath.Join(home, ".config")
		}
	}
	return filepath.Join(base, AppName), nil
}

// ResolvePath returns the config file Load would read, or "" when none
// exists and defaults apply.
func ResolvePath(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithIssue(issue.ConfigLoadFailedId).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Use 'atomos config show' to see the default configuration").
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		return opts.ConfigFilePath, nil
	}

	dir := opts.ConfigDirPath
	if dir == "" {
		d, err := ConfigDir()
		if err != nil {
			return "", err
		}
		dir = d
	}
	for _, p := range []string{
		filepath.Join(dir, ConfigFileName+"."+ConfigFileExt),
		ConfigFileName + "." + ConfigFileExt,
	} {
		if fileExists(p) {
			return p, nil
		}
	}
	return "", nil
}

// loadWithOptions reads defaults, the resolved config file and environment
// overrides, in increasing precedence.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := newViper()
	path, err := ResolvePath(opts)
	if err != nil {
		return nil, "", err
	}
	if path != "" {
		if err := loadCUEIntoViper(v, path); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(path).
				WithIssue(issue.ConfigLoadFailedId).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	if ok, errs := cfg.IsValid(); !ok {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(path).
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(errs[0]).
			BuildError()
	}
	return &cfg, path, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	d := DefaultConfig()
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("classpath_dir", d.ClasspathDir)
	v.SetDefault("main_class", d.MainClass)
	v.SetDefault("image_name", d.ImageName)
	v.SetDefault("native_image_executable", d.NativeImageExecutable)
	v.SetDefault("initialize_at_build_time", d.InitializeAtBuildTime)
	v.SetDefault("resource_config_files", d.ResourceConfigFiles)
	v.SetDefault("debug", d.Debug)
	v.SetDefault("substrate.mode", string(d.Substrate.Mode))
	v.SetDefault("substrate.file_name", d.Substrate.FileName)
	v.SetDefault("substrate.keep_metadata", d.Substrate.KeepMetadata)
	v.SetDefault("exclude.suffixes", d.Exclude.Suffixes)
	v.SetDefault("exclude.prefixes", d.Exclude.Prefixes)
	v.SetDefault("resolver.class_cache_size", d.Resolver.ClassCacheSize)
	v.SetDefault("ui.verbose", d.UI.Verbose)
	v.SetDefault("ui.color_scheme", string(d.UI.ColorScheme))

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// loadCUEIntoViper validates a CUE file against #Config and merges it into
// v. Fields are optional in files, so values need not be concrete.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	res, err := cueutil.DecodeString[map[string]any](configSchema, data, "#Config",
		cueutil.WithFilename(path),
		cueutil.WithConcrete(false),
	)
	if err != nil {
		return err
	}
	if err := v.MergeConfigMap(res.Value); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// CreateDefaultConfig writes the defaults to path unless a file exists
// there. It reports whether a file was written.
func CreateDefaultConfig(path string) (bool, error) {
	if fileExists(path) {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return false, fmt.Errorf("failed to write config file: %w", err)
	}
	return true, nil
}

// GenerateCUE renders cfg as a config file.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// Atomos configuration file.\n\n")
	fmt.Fprintf(&sb, "output_dir: %q\n", cfg.OutputDir)
	fmt.Fprintf(&sb, "classpath_dir: %q\n", cfg.ClasspathDir)
	if cfg.MainClass != "" {
		fmt.Fprintf(&sb, "main_class: %q\n", cfg.MainClass)
	}
	if cfg.ImageName != "" {
		fmt.Fprintf(&sb, "image_name: %q\n", cfg.ImageName)
	}
	if cfg.NativeImageExecutable != "" {
		fmt.Fprintf(&sb, "native_image_executable: %q\n", cfg.NativeImageExecutable)
	}
	writeList(&sb, "", "initialize_at_build_time", cfg.InitializeAtBuildTime)
	writeList(&sb, "", "resource_config_files", cfg.ResourceConfigFiles)
	fmt.Fprintf(&sb, "debug: %v\n", cfg.Debug)

	sb.WriteString("\nsubstrate: {\n")
	fmt.Fprintf(&sb, "\tmode: %q\n", cfg.Substrate.Mode)
	fmt.Fprintf(&sb, "\tfile_name: %q\n", cfg.Substrate.FileName)
	fmt.Fprintf(&sb, "\tkeep_metadata: %v\n", cfg.Substrate.KeepMetadata)
	sb.WriteString("}\n")

	if len(cfg.Exclude.Suffixes) > 0 || len(cfg.Exclude.Prefixes) > 0 {
		sb.WriteString("\nexclude: {\n")
		writeList(&sb, "\t", "suffixes", cfg.Exclude.Suffixes)
		writeList(&sb, "\t", "prefixes", cfg.Exclude.Prefixes)
		sb.WriteString("}\n")
	}

	sb.WriteString("\nresolver: {\n")
	fmt.Fprintf(&sb, "\tclass_cache_size: %d\n", cfg.Resolver.ClassCacheSize)
	sb.WriteString("}\n")

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tverbose: %v\n", cfg.UI.Verbose)
	fmt.Fprintf(&sb, "\tcolor_scheme: %q\n", cfg.UI.ColorScheme)
	sb.WriteString("}\n")

	return sb.String()
}

func writeList(sb *strings.Builder, indent, key string, values []string) {
	if len(values) == 0 {
		return
	}
	quoted := make([]string, len(values))
	for i, s := range values {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	fmt.Fprintf(sb, "%s%s: [%s]\n", indent, key, strings.Join(quoted, ", "))
}
