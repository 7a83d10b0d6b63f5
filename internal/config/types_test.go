// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"testing"
)

func TestConfig_IsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		want   []error
	}{
		{"defaults", func(*Config) {}, nil},
		{"blank output dir", func(c *Config) { c.OutputDir = " " }, []error{ErrInvalidOutputDir}},
		{"bad mode", func(c *Config) { c.Substrate.Mode = "zip" }, []error{ErrInvalidSubstrateMode}},
		{"nested file name", func(c *Config) { c.Substrate.FileName = "a/b.jar" }, []error{ErrInvalidFileName}},
		{"zero cache", func(c *Config) { c.Resolver.ClassCacheSize = 0 }, []error{ErrInvalidCacheSize}},
		{
			"several",
			func(c *Config) {
				c.UI.ColorScheme = "neon"
				c.Substrate.FileName = ""
			},
			[]error{ErrInvalidColorScheme, ErrInvalidFileName},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			tt.mutate(cfg)

			ok, errs := cfg.IsValid()
			if ok != (len(tt.want) == 0) {
				t.Fatalf("IsValid() = %v, %v", ok, errs)
			}
			if len(tt.want) == 0 {
				return
			}
			if len(errs) != 1 || !errors.Is(errs[0], ErrInvalidConfig) {
				t.Fatalf("errs = %v, want one InvalidConfigError", errs)
			}
			var ice *InvalidConfigError
			if !errors.As(errs[0], &ice) || len(ice.FieldErrors) != len(tt.want) {
				t.Fatalf("field errors = %v", errs[0])
			}
			for _, w := range tt.want {
				if !errors.Is(errs[0], w) {
					t.Errorf("error should wrap %v: %v", w, errs[0])
				}
			}
		})
	}
}

func TestSubstrateMode_IsValid(t *testing.T) {
	t.Parallel()

	for _, m := range []SubstrateMode{SubstrateModeJar, SubstrateModeDir} {
		if ok, _ := m.IsValid(); !ok {
			t.Errorf("%q should be valid", m)
		}
	}
	ok, errs := SubstrateMode("JAR").IsValid()
	var fe *FieldError
	if ok || len(errs) != 1 || !errors.As(errs[0], &fe) || fe.Key != "substrate.mode" {
		t.Errorf("IsValid() = %v, %v", ok, errs)
	}
}

func TestColorScheme_IsValid(t *testing.T) {
	t.Parallel()

	for _, c := range []ColorScheme{ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight} {
		if ok, _ := c.IsValid(); !ok {
			t.Errorf("%q should be valid", c)
		}
	}
	if ok, errs := ColorScheme("").IsValid(); ok || !errors.Is(errs[0], ErrInvalidColorScheme) {
		t.Errorf("IsValid() = %v, %v", ok, errs)
	}
}
