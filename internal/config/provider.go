// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"slices"
)

// LoadOptions selects where atomos settings come from.
type LoadOptions struct {
	// ConfigFilePath is the --config flag. When set the file must exist and
	// the directory lookup is skipped.
	ConfigFilePath string
	// ConfigDirPath replaces the platform directory searched for config.cue.
	ConfigDirPath string
}

// Provider yields the settings a command runs with. The CLI uses the
// file-backed provider; Static serves fixed settings.
type Provider interface {
	Load(ctx context.Context, opts LoadOptions) (*Config, error)
}

type (
	// cueProvider reads config.cue through Viper with ATOMOS_ overrides.
	cueProvider struct{}

	staticProvider struct {
		cfg Config
	}
)

// NewProvider returns the provider that resolves config.cue as described in
// the package documentation.
func NewProvider() Provider {
	return cueProvider{}
}

// Static returns a provider that ignores LoadOptions and hands out a copy of
// cfg on every call, so callers may mutate the result freely.
func Static(cfg *Config) Provider {
	return staticProvider{cfg: *cfg}
}

func (cueProvider) Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	cfg, _, err := loadWithOptions(ctx, opts)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func (p staticProvider) Load(ctx context.Context, _ LoadOptions) (*Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c := p.cfg
	c.InitializeAtBuildTime = slices.Clone(c.InitializeAtBuildTime)
	c.ResourceConfigFiles = slices.Clone(c.ResourceConfigFiles)
	c.Exclude.Suffixes = slices.Clone(c.Exclude.Suffixes)
	c.Exclude.Prefixes = slices.Clone(c.Exclude.Prefixes)
	return &c, nil
}
