// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"strings"
	"testing"
)

func TestGetVersionString(t *testing.T) {
	// Not parallel: subtests mutate package-level Version/Commit/BuildDate vars.

	t.Run("ldflags version", func(t *testing.T) {
		origVersion, origCommit, origBuildDate := Version, Commit, BuildDate
		t.Cleanup(func() {
			Version, Commit, BuildDate = origVersion, origCommit, origBuildDate
		})

		Version = "v1.2.3"
		Commit = "abc1234"
		BuildDate = "2026-06-15T10:00:00Z"

		got := getVersionString()
		want := "v1.2.3 (commit: abc1234, built: 2026-06-15T10:00:00Z)"
		if got != want {
			t.Errorf("getVersionString() = %q, want %q", got, want)
		}
	})

	t.Run("dev build", func(t *testing.T) {
		origVersion := Version
		t.Cleanup(func() { Version = origVersion })

		Version = "dev"
		if got, want := getVersionString(), "dev (built from source)"; got != want {
			t.Errorf("getVersionString() = %q, want %q", got, want)
		}
	})
}

func TestRootCommand_Tree(t *testing.T) {
	root := NewRootCommand(NewApp(Dependencies{}))
	for _, name := range []string{"build", "reflect", "resources", "substrate", "index", "config"} {
		c, _, err := root.Find([]string{name})
		if err != nil || c.Name() != name {
			t.Errorf("Find(%q) = %v, %v", name, c, err)
		}
	}
	for _, flag := range []string{"verbose", "config", "env-file"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("missing global flag --%s", flag)
		}
	}
}

func TestSkipsConfigLoad(t *testing.T) {
	root := NewRootCommand(NewApp(Dependencies{}))
	tests := map[string]bool{
		"build":       false,
		"index":       false,
		"config":      true,
		"config path": true,
	}
	for args, want := range tests {
		c, _, err := root.Find(strings.Fields(args))
		if err != nil {
			t.Fatalf("Find(%q) error = %v", args, err)
		}
		if got := skipsConfigLoad(c); got != want {
			t.Errorf("skipsConfigLoad(%q) = %v, want %v", args, got, want)
		}
	}
}
