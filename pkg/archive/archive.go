// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"iter"
	"path"
	"sort"
	"strings"
	"time"
)

// ManifestPath is the archive-relative location of the JAR manifest.
const ManifestPath = "META-INF/MANIFEST.MF"

var (
	// ErrNotArchive is returned when a path cannot be opened as a zip-format archive.
	ErrNotArchive = errors.New("not a valid archive")
	// ErrEntryNotFound is returned when a named entry is absent from an archive.
	ErrEntryNotFound = errors.New("archive entry not found")
)

type (
	// Archive is an opened bundle archive. It is an immutable view owned by
	// a single pass and must be closed when the pass is done with it.
	Archive struct {
		path     string
		zr       *zip.ReadCloser
		byName   map[string]*zip.File
		manifest *Manifest
		mfErr    error
		mfRead   bool
	}

	// Entry is a single archive member.
	Entry struct {
		// Name is the archive-relative path, always using forward slashes.
		Name string
		// Dir reports whether the entry is a directory entry.
		Dir bool
		// Modified is the stored modification time (zero when absent).
		Modified time.Time
		// Comment is the per-entry comment (empty when absent).
		Comment string

		file *zip.File
	}
)

// Open opens the archive at p. A file that is not a readable zip archive
// yields an error wrapping ErrNotArchive.
func Open(p string) (*Archive, error) {
	zr, err := zip.OpenReader(p)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", p, ErrNotArchive, err)
	}
	a := &Archive{
		path:   p,
		zr:     zr,
		byName: make(map[string]*zip.File, len(zr.File)),
	}
	for _, f := range zr.File {
		// First occurrence wins, matching JarFile.getEntry.
		if _, dup := a.byName[f.Name]; !dup {
			a.byName[f.Name] = f
		}
	}
	return a, nil
}

// With opens the archive at p, hands it to fn, and closes it on every
// return path. The close error is reported only when fn succeeded.
func With(p string, fn func(*Archive) error) (err error) {
	a, err := Open(p)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", p, cerr)
		}
	}()
	return fn(a)
}

// Path returns the filesystem path the archive was opened from.
func (a *Archive) Path() string {
	return a.path
}

// Close releases the underlying file.
func (a *Archive) Close() error {
	if a.zr == nil {
		return nil
	}
	err := a.zr.Close()
	a.zr = nil
	return err
}

// Manifest returns the parsed main attributes of the archive manifest.
// An archive without a manifest yields an empty Manifest. A manifest that
// cannot be read or parsed yields an error wrapping ErrMalformedManifest.
func (a *Archive) Manifest() (*Manifest, error) {
	if a.mfRead {
		return a.manifest, a.mfErr
	}
	a.mfRead = true

	f, ok := a.byName[ManifestPath]
	if !ok {
		a.manifest = &Manifest{attrs: map[string]attribute{}}
		return a.manifest, nil
	}
	rc, err := f.Open()
	if err != nil {
		a.mfErr = fmt.Errorf("%s: %w: %w", a.path, ErrMalformedManifest, err)
		return nil, a.mfErr
	}
	defer rc.Close()

	m, err := ParseManifest(rc)
	if err != nil {
		a.mfErr = fmt.Errorf("%s: %w", a.path, err)
		return nil, a.mfErr
	}
	a.manifest = m
	return m, nil
}

// Entries yields every entry in stored order.
func (a *Archive) Entries() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		if a.zr == nil {
			return
		}
		for _, f := range a.zr.File {
			if !yield(newEntry(f)) {
				return
			}
		}
	}
}

// Len returns the number of stored entries.
func (a *Archive) Len() int {
	if a.zr == nil {
		return 0
	}
	return len(a.zr.File)
}

// Entry looks up an entry by exact name.
func (a *Archive) Entry(name string) (Entry, bool) {
	f, ok := a.byName[name]
	if !ok {
		return Entry{}, false
	}
	return newEntry(f), true
}

// ReadEntry returns the full content of the named entry.
func (a *Archive) ReadEntry(name string) ([]byte, error) {
	e, ok := a.Entry(name)
	if !ok {
		return nil, fmt.Errorf("%s: %s: %w", a.path, name, ErrEntryNotFound)
	}
	return e.ReadAll()
}

// Glob returns the sorted names of non-directory entries matching pattern.
// The pattern syntax is that of path.Match and is applied to the full
// entry name, so "OSGI-INF/*.xml" does not descend into subdirectories.
func (a *Archive) Glob(pattern string) ([]string, error) {
	if _, err := path.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
	}
	var names []string
	for name, f := range a.byName {
		if isDirName(f.Name) {
			continue
		}
		if ok, _ := path.Match(pattern, name); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func newEntry(f *zip.File) Entry {
	return Entry{
		Name:     f.Name,
		Dir:      isDirName(f.Name),
		Modified: f.Modified,
		Comment:  f.Comment,
		file:     f,
	}
}

func isDirName(name string) bool {
	return strings.HasSuffix(name, "/")
}

// Open returns a reader over the entry's uncompressed content.
func (e Entry) Open() (io.ReadCloser, error) {
	if e.file == nil {
		return nil, fmt.Errorf("%s: %w", e.Name, ErrEntryNotFound)
	}
	return e.file.Open()
}

// ReadAll returns the entry's uncompressed content.
func (e Entry) ReadAll() ([]byte, error) {
	rc, err := e.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", e.Name, err)
	}
	return data, nil
}

// CopyTo writes the entry into w under name. The stored bytes are copied
// without recompression, so content, CRC, modification time, comment and
// extra fields (including extended timestamps) are preserved.
func (e Entry) CopyTo(w *zip.Writer, name string) error {
	if e.file == nil {
		return fmt.Errorf("%s: %w", e.Name, ErrEntryNotFound)
	}
	fh := e.file.FileHeader
	fh.Name = name

	raw, err := e.file.OpenRaw()
	if err != nil {
		return fmt.Errorf("open %s: %w", e.Name, err)
	}
	dst, err := w.CreateRaw(&fh)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := io.Copy(dst, raw); err != nil {
		return fmt.Errorf("copy %s: %w", e.Name, err)
	}
	return nil
}
