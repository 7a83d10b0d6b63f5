// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"atomos-cli/internal/testutil"
)

func TestOpen_NotArchive(t *testing.T) {
	p := filepath.Join(t.TempDir(), "plain.jar")
	testutil.MustWriteFile(t, p, []byte("definitely not a zip"))

	_, err := Open(p)
	if !errors.Is(err, ErrNotArchive) {
		t.Fatalf("Open() error = %v, want ErrNotArchive", err)
	}
}

func TestArchive_EntriesInStoredOrder(t *testing.T) {
	dir := t.TempDir()
	p := testutil.WriteArchive(t, dir, "a.jar", testutil.ArchiveSpec{
		Manifest: map[string]string{HeaderBundleSymbolicName: "svc.a"},
		Entries: []testutil.Entry{
			testutil.DirEntry("resources"),
			testutil.TextEntry("resources/b.txt", "b"),
			testutil.TextEntry("resources/a.txt", "a"),
		},
	})

	var names []string
	var dirs []bool
	err := With(p, func(a *Archive) error {
		for e := range a.Entries() {
			names = append(names, e.Name)
			dirs = append(dirs, e.Dir)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("With() error = %v", err)
	}

	wantNames := []string{ManifestPath, "resources/", "resources/b.txt", "resources/a.txt"}
	if !slices.Equal(names, wantNames) {
		t.Errorf("entries = %v, want %v", names, wantNames)
	}
	wantDirs := []bool{false, true, false, false}
	if !slices.Equal(dirs, wantDirs) {
		t.Errorf("dir flags = %v, want %v", dirs, wantDirs)
	}
}

func TestArchive_ManifestAbsent(t *testing.T) {
	p := testutil.WriteArchive(t, t.TempDir(), "bare.jar", testutil.ArchiveSpec{
		Entries: []testutil.Entry{testutil.TextEntry("x/y.txt", "y")},
	})
	err := With(p, func(a *Archive) error {
		m, err := a.Manifest()
		if err != nil {
			return err
		}
		if m.Len() != 0 {
			t.Errorf("Len() = %d, want 0", m.Len())
		}
		if _, ok := m.Activator(); ok {
			t.Error("Activator() reported a value for an archive without manifest")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("With() error = %v", err)
	}
}

func TestArchive_ManifestMalformed(t *testing.T) {
	p := testutil.WriteArchive(t, t.TempDir(), "broken.jar", testutil.ArchiveSpec{
		RawManifest: "Manifest-Version: 1.0\r\nthis line has no colon\r\n",
	})
	err := With(p, func(a *Archive) error {
		_, err := a.Manifest()
		return err
	})
	if !errors.Is(err, ErrMalformedManifest) {
		t.Fatalf("error = %v, want ErrMalformedManifest", err)
	}
}

func TestArchive_Glob(t *testing.T) {
	p := testutil.WriteArchive(t, t.TempDir(), "g.jar", testutil.ArchiveSpec{
		Entries: []testutil.Entry{
			testutil.DirEntry("OSGI-INF"),
			testutil.TextEntry("OSGI-INF/b.xml", "<b/>"),
			testutil.TextEntry("OSGI-INF/a.xml", "<a/>"),
			testutil.TextEntry("OSGI-INF/nested/c.xml", "<c/>"),
			testutil.TextEntry("OSGI-INF/readme.txt", "r"),
		},
	})
	err := With(p, func(a *Archive) error {
		got, err := a.Glob("OSGI-INF/*.xml")
		if err != nil {
			return err
		}
		want := []string{"OSGI-INF/a.xml", "OSGI-INF/b.xml"}
		if !slices.Equal(got, want) {
			t.Errorf("Glob() = %v, want %v", got, want)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("With() error = %v", err)
	}
}

func TestArchive_ReadEntryMissing(t *testing.T) {
	p := testutil.WriteArchive(t, t.TempDir(), "m.jar", testutil.ArchiveSpec{})
	err := With(p, func(a *Archive) error {
		_, err := a.ReadEntry("OSGI-INF/missing.xml")
		return err
	})
	if !errors.Is(err, ErrEntryNotFound) {
		t.Fatalf("error = %v, want ErrEntryNotFound", err)
	}
}

func TestEntry_CopyToPreservesBytesAndMetadata(t *testing.T) {
	mod := time.Date(2021, 6, 15, 8, 30, 0, 0, time.UTC)
	p := testutil.WriteArchive(t, t.TempDir(), "c.jar", testutil.ArchiveSpec{
		Entries: []testutil.Entry{{
			Name:     "res/data.bin",
			Data:     []byte{0, 1, 2, 3, 0xFF},
			Modified: mod,
			Comment:  "keep me",
		}},
	})

	var out bytes.Buffer
	zw := zip.NewWriter(&out)
	err := With(p, func(a *Archive) error {
		e, ok := a.Entry("res/data.bin")
		if !ok {
			t.Fatal("entry not found")
		}
		return e.CopyTo(zw, "7/res/data.bin")
	})
	if err != nil {
		t.Fatalf("CopyTo() error = %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	zr, err := zip.NewReader(bytes.NewReader(out.Bytes()), int64(out.Len()))
	if err != nil {
		t.Fatal(err)
	}
	if len(zr.File) != 1 {
		t.Fatalf("got %d entries, want 1", len(zr.File))
	}
	f := zr.File[0]
	if f.Name != "7/res/data.bin" {
		t.Errorf("Name = %q", f.Name)
	}
	if f.Comment != "keep me" {
		t.Errorf("Comment = %q, want %q", f.Comment, "keep me")
	}
	if !f.Modified.Equal(mod) {
		t.Errorf("Modified = %v, want %v", f.Modified, mod)
	}
	rc, err := f.Open()
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	var got bytes.Buffer
	if _, err := got.ReadFrom(rc); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got.Bytes(), []byte{0, 1, 2, 3, 0xFF}) {
		t.Errorf("content = %v", got.Bytes())
	}
}

func TestWith_ClosesOnError(t *testing.T) {
	p := testutil.WriteArchive(t, t.TempDir(), "e.jar", testutil.ArchiveSpec{})
	sentinel := errors.New("stop")
	var held *Archive
	err := With(p, func(a *Archive) error {
		held = a
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("error = %v, want sentinel", err)
	}
	if held.Len() != 0 {
		t.Error("archive still readable after With returned")
	}
	// The file must be removable once released (matters on Windows).
	if err := os.Remove(p); err != nil {
		t.Errorf("Remove() error = %v", err)
	}
}
