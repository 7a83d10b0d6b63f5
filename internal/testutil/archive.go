// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"archive/zip"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"
)

type (
	// Entry is a single member written into a fixture archive.
	// Names ending in "/" become directory entries.
	Entry struct {
		Name     string
		Data     []byte
		Modified time.Time
		Comment  string
	}

	// ArchiveSpec describes a fixture bundle archive.
	ArchiveSpec struct {
		// Manifest holds main-section headers. Nil means no manifest entry
		// unless RawManifest is set.
		Manifest map[string]string
		// RawManifest, when non-empty, is written verbatim as the manifest.
		RawManifest string
		// Entries are written after the manifest in the given order.
		Entries []Entry
	}
)

// FixedTime is the modification time stamped on fixture entries that do not
// carry their own.
var FixedTime = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

// TextEntry is shorthand for an entry with string content.
func TextEntry(name, content string) Entry {
	return Entry{Name: name, Data: []byte(content)}
}

// DirEntry is shorthand for a directory entry.
func DirEntry(name string) Entry {
	if !strings.HasSuffix(name, "/") {
		name += "/"
	}
	return Entry{Name: name}
}

// WriteArchive writes a zip archive named name into dir and returns its path.
// The test fails immediately on any I/O error.
func WriteArchive(t testing.TB, dir, name string, spec ArchiveSpec) string {
	t.Helper()

	p := filepath.Join(dir, name)
	f, err := os.Create(p)
	if err != nil {
		t.Fatalf("failed to create archive %s: %v", p, err)
	}
	defer MustClose(t, f)

	zw := zip.NewWriter(f)
	if mf := manifestText(spec); mf != "" {
		writeEntry(t, zw, Entry{Name: "META-INF/MANIFEST.MF", Data: []byte(mf)})
	}
	for _, e := range spec.Entries {
		writeEntry(t, zw, e)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to finish archive %s: %v", p, err)
	}
	return p
}

func writeEntry(t testing.TB, zw *zip.Writer, e Entry) {
	t.Helper()
	fh := &zip.FileHeader{
		Name:     e.Name,
		Method:   zip.Deflate,
		Modified: e.Modified,
		Comment:  e.Comment,
	}
	if fh.Modified.IsZero() {
		fh.Modified = FixedTime
	}
	if strings.HasSuffix(e.Name, "/") {
		fh.Method = zip.Store
	}
	w, err := zw.CreateHeader(fh)
	if err != nil {
		t.Fatalf("failed to create entry %s: %v", e.Name, err)
	}
	if len(e.Data) == 0 {
		return
	}
	if _, err := w.Write(e.Data); err != nil {
		t.Fatalf("failed to write entry %s: %v", e.Name, err)
	}
}

func manifestText(spec ArchiveSpec) string {
	if spec.RawManifest != "" {
		return spec.RawManifest
	}
	if spec.Manifest == nil {
		return ""
	}
	keys := make([]string, 0, len(spec.Manifest))
	for k := range spec.Manifest {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString("Manifest-Version: 1.0\r\n")
	for _, k := range keys {
		sb.WriteString(k)
		sb.WriteString(": ")
		sb.WriteString(spec.Manifest[k])
		sb.WriteString("\r\n")
	}
	sb.WriteString("\r\n")
	return sb.String()
}
