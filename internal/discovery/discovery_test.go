// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"atomos-cli/internal/testutil"
)

func TestArchives(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	b := testutil.WriteArchive(t, dir, "b.jar", testutil.ArchiveSpec{})
	a := testutil.WriteArchive(t, dir, "a.zip", testutil.ArchiveSpec{})
	testutil.MustWriteFile(t, filepath.Join(dir, "notes.txt"), []byte("hello"))
	testutil.MustWriteFile(t, filepath.Join(dir, "empty.jar"), nil)
	if err := os.Mkdir(filepath.Join(dir, "nested"), 0o755); err != nil {
		t.Fatal(err)
	}
	testutil.WriteArchive(t, filepath.Join(dir, "nested"), "c.jar", testutil.ArchiveSpec{})

	res, err := Archives(dir)
	if err != nil {
		t.Fatalf("Archives() error = %v", err)
	}
	want := []string{a, b}
	if len(res.Archives) != len(want) {
		t.Fatalf("Archives = %v, want %v", res.Archives, want)
	}
	for i := range want {
		if res.Archives[i] != want[i] {
			t.Errorf("Archives[%d] = %q, want %q", i, res.Archives[i], want[i])
		}
	}

	if len(res.Diagnostics) != 2 {
		t.Fatalf("Diagnostics = %v, want 2 entries", res.Diagnostics)
	}
	for _, d := range res.Diagnostics {
		if d.Code != CodeNotArchive || d.Severity != SeverityWarning {
			t.Errorf("unexpected diagnostic %s", d)
		}
	}
}

func TestArchives_Symlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	t.Parallel()

	dir := t.TempDir()
	src := testutil.WriteArchive(t, t.TempDir(), "real.jar", testutil.ArchiveSpec{})
	if err := os.Symlink(src, filepath.Join(dir, "link.jar")); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(filepath.Join(dir, "missing.jar"), filepath.Join(dir, "dangling.jar")); err != nil {
		t.Fatal(err)
	}

	res, err := Archives(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Archives) != 1 || filepath.Base(res.Archives[0]) != "link.jar" {
		t.Errorf("Archives = %v, want [link.jar]", res.Archives)
	}
	if len(res.Diagnostics) != 1 || res.Diagnostics[0].Code != CodeSymlinkSkipped {
		t.Errorf("Diagnostics = %v", res.Diagnostics)
	}
}

func TestArchives_NotDirectory(t *testing.T) {
	t.Parallel()

	p := filepath.Join(t.TempDir(), "file")
	testutil.MustWriteFile(t, p, []byte("x"))
	if _, err := Archives(p); !errors.Is(err, ErrNotDirectory) {
		t.Errorf("Archives() error = %v, want ErrNotDirectory", err)
	}
	if _, err := Archives(filepath.Join(t.TempDir(), "missing")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Archives() error = %v, want ErrNotExist", err)
	}
}

func TestIsArchive(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	jar := testutil.WriteArchive(t, dir, "x.jar", testutil.ArchiveSpec{})
	short := filepath.Join(dir, "short")
	testutil.MustWriteFile(t, short, []byte("PK"))

	tests := []struct {
		path string
		want bool
	}{
		{jar, true},
		{short, false},
	}
	for _, tt := range tests {
		got, err := IsArchive(tt.path)
		if err != nil {
			t.Fatalf("IsArchive(%q) error = %v", tt.path, err)
		}
		if got != tt.want {
			t.Errorf("IsArchive(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
