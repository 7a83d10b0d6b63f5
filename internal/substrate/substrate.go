// SPDX-License-Identifier: MPL-2.0

package substrate

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"atomos-cli/internal/issue"
	"atomos-cli/internal/platform"
	"atomos-cli/internal/resourcecfg"
	"atomos-cli/pkg/archive"
)

const (
	// ModeJar merges the bundles into one jar.
	ModeJar Mode = "jar"
	// ModeDir extracts the bundles into per-id directories.
	ModeDir Mode = "dir"

	// DefaultFileName is the merged jar name inside the output directory.
	DefaultFileName = "atomos.substrate.jar"
	// DirName is the extraction directory inside the output directory.
	DirName = "substrate"
	// ResourceDescriptorPath is where a merged jar embeds its resource
	// configuration.
	ResourceDescriptorPath = "META-INF/native-image/resource-config.json"

	manifestText = "Manifest-Version: 1.0\r\n\r\n"
)

var (
	// ErrInvalidMode is returned for an unknown output mode.
	ErrInvalidMode = errors.New("invalid substrate mode")
	// ErrUnsafeEntryName is returned for entry names the index cannot
	// carry, and in directory mode for names that would escape the
	// extraction directory.
	ErrUnsafeEntryName = errors.New("unsafe entry name")
)

type (
	// Mode selects the substrate output layout.
	Mode string

	// Info describes one input archive in the substrate.
	Info struct {
		ID           int
		Path         string
		SymbolicName string
		Version      string
		// Files are the retained original entry names in archive order.
		Files []string
	}

	// Result is the outcome of Merge.
	Result struct {
		// Path is the merged jar in ModeJar and the extraction directory
		// in ModeDir.
		Path  string
		Mode  Mode
		Infos []Info
	}

	// Option configures Merge.
	Option func(*options)

	options struct {
		logger   *log.Logger
		rules    archive.Rules
		mode     Mode
		fileName string
	}

	// sink receives retained entries.
	sink interface {
		add(id int, e archive.Entry) error
	}
)

// ParseMode validates s as a Mode. The empty string selects ModeJar.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeJar:
		return ModeJar, nil
	case ModeDir:
		return ModeDir, nil
	default:
		return "", fmt.Errorf("%w: %q (expected %q or %q)", ErrInvalidMode, s, ModeJar, ModeDir)
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithRules replaces the default exclusion rules. Pass
// archive.SubstrateRules to keep META-INF and OSGI-INF entries.
func WithRules(r archive.Rules) Option {
	return func(o *options) {
		o.rules = r
	}
}

// WithMode selects the output layout.
func WithMode(m Mode) Option {
	return func(o *options) {
		o.mode = m
	}
}

// WithFileName sets the merged jar name used in ModeJar.
func WithFileName(name string) Option {
	return func(o *options) {
		o.fileName = name
	}
}

// NamespacedPath returns the location of an original entry name in the
// substrate.
func NamespacedPath(id int, name string) string {
	return strconv.Itoa(id) + "/" + name
}

// Retained reports whether an entry is carried into the substrate. With
// archive.DefaultRules, the rules the resource classifier applies, every
// META-INF and OSGI-INF entry is dropped, manifests and component
// descriptors included.
func Retained(name string, dir bool, rules archive.Rules) bool {
	return !dir && !archive.IsClass(name) && !rules.Excluded(name)
}

// Merge repackages the archives in paths into outDir. Ids follow the order
// of paths. Any archive or manifest that cannot be read aborts the merge
// and no output is left behind.
func Merge(paths []string, outDir string, opts ...Option) (*Result, error) {
	o := options{
		rules:    archive.DefaultRules(),
		mode:     ModeJar,
		fileName: DefaultFileName,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "substrate"})
	}
	if _, err := ParseMode(string(o.mode)); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, outputError(outDir, err)
	}

	if o.mode == ModeDir {
		return mergeDir(paths, outDir, o)
	}
	return mergeJar(paths, outDir, o)
}

func mergeJar(paths []string, outDir string, o options) (res *Result, err error) {
	final := filepath.Join(outDir, o.fileName)
	tmp, err := os.CreateTemp(outDir, ".atomos-substrate-*.tmp")
	if err != nil {
		return nil, outputError(outDir, err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	zw := zip.NewWriter(tmp)
	if err := writeEntry(zw, archive.ManifestPath, func(w io.Writer) error {
		_, err := io.WriteString(w, manifestText)
		return err
	}); err != nil {
		return nil, outputError(tmp.Name(), err)
	}

	js := &jarSink{zw: zw}
	infos, err := collect(paths, js, o)
	if err != nil {
		return nil, err
	}

	if err := writeEntry(zw, IndexPath, func(w io.Writer) error {
		return WriteIndex(w, infos)
	}); err != nil {
		return nil, outputError(tmp.Name(), err)
	}

	patterns := resourcecfg.Set{}
	for _, p := range js.stored {
		patterns.Add(p)
	}
	patterns.Add(IndexPath)
	if err := writeEntry(zw, ResourceDescriptorPath, func(w io.Writer) error {
		return resourcecfg.Encode(w, nil, patterns)
	}); err != nil {
		return nil, outputError(tmp.Name(), err)
	}

	if err := zw.Close(); err != nil {
		return nil, outputError(tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return nil, outputError(tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), final); err != nil {
		return nil, outputError(final, err)
	}

	o.logger.Debug("merged", "path", final, "archives", len(infos), "entries", len(js.stored))
	return &Result{Path: final, Mode: ModeJar, Infos: infos}, nil
}

func mergeDir(paths []string, outDir string, o options) (res *Result, err error) {
	final := filepath.Join(outDir, DirName)
	tmp, err := os.MkdirTemp(outDir, ".atomos-substrate-*")
	if err != nil {
		return nil, outputError(outDir, err)
	}
	defer func() {
		if err != nil {
			_ = os.RemoveAll(tmp)
		}
	}()

	infos, err := collect(paths, &dirSink{root: tmp}, o)
	if err != nil {
		return nil, err
	}

	f, err := os.Create(filepath.Join(tmp, IndexFileName))
	if err != nil {
		return nil, outputError(tmp, err)
	}
	if err := WriteIndex(f, infos); err != nil {
		_ = f.Close()
		return nil, outputError(f.Name(), err)
	}
	if err := f.Close(); err != nil {
		return nil, outputError(f.Name(), err)
	}

	if err := os.RemoveAll(final); err != nil {
		return nil, outputError(final, err)
	}
	if err := os.Rename(tmp, final); err != nil {
		return nil, outputError(final, err)
	}

	o.logger.Debug("extracted", "path", final, "archives", len(infos))
	return &Result{Path: final, Mode: ModeDir, Infos: infos}, nil
}

// collect walks every archive in order, hands retained entries to s and
// returns the per-archive infos.
func collect(paths []string, s sink, o options) ([]Info, error) {
	infos := make([]Info, 0, len(paths))
	for id, p := range paths {
		info := Info{ID: id, Path: p}
		err := archive.With(p, func(a *archive.Archive) error {
			m, err := a.Manifest()
			if err != nil {
				return issue.NewErrorContext().
					WithOperation("read manifest").
					WithResource(p).
					WithIssue(issue.ManifestUnreadableId).
					Wrap(err).
					BuildError()
			}
			info.SymbolicName = m.Value(archive.HeaderBundleSymbolicName)
			info.Version = m.Value(archive.HeaderBundleVersion)

			seen := make(map[string]bool)
			for e := range a.Entries() {
				if !Retained(e.Name, e.Dir, o.rules) || seen[e.Name] {
					continue
				}
				seen[e.Name] = true
				if err := checkIndexable(e.Name); err != nil {
					return err
				}
				if err := s.add(id, e); err != nil {
					return err
				}
				info.Files = append(info.Files, e.Name)
			}
			return nil
		})
		if err != nil {
			if _, ok := issue.As(err); ok {
				return nil, err
			}
			return nil, issue.NewErrorContext().
				WithOperation("merge archive").
				WithResource(p).
				WithIssue(issue.ArchiveOpenFailedId).
				Wrap(err).
				BuildError()
		}
		o.logger.Debug("archive", "id", id, "path", p, "bsn", info.SymbolicName, "version", info.Version, "files", len(info.Files))
		infos = append(infos, info)
	}
	return infos, nil
}

// checkIndexable rejects names that would not survive an index round trip:
// the separator line itself, or anything spanning more than one line.
func checkIndexable(name string) error {
	if name == IndexSeparator {
		return fmt.Errorf("%s: collides with the index separator: %w", name, ErrUnsafeEntryName)
	}
	if strings.ContainsAny(name, "\r\n") {
		return fmt.Errorf("%q: line break in name: %w", name, ErrUnsafeEntryName)
	}
	return nil
}

type jarSink struct {
	zw     *zip.Writer
	stored []string
}

func (s *jarSink) add(id int, e archive.Entry) error {
	name := NamespacedPath(id, e.Name)
	if err := e.CopyTo(s.zw, name); err != nil {
		return err
	}
	s.stored = append(s.stored, name)
	return nil
}

type dirSink struct {
	root string
}

func (s *dirSink) add(id int, e archive.Entry) error {
	rel := filepath.FromSlash(e.Name)
	if !filepath.IsLocal(rel) {
		return fmt.Errorf("%s: %w", e.Name, ErrUnsafeEntryName)
	}
	if seg, bad := platform.ReservedSegmentHere(e.Name); bad {
		return fmt.Errorf("%s: reserved name %q: %w", e.Name, seg, ErrUnsafeEntryName)
	}
	target := filepath.Join(s.root, strconv.Itoa(id), rel)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	rc, err := e.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", e.Name, err)
	}
	defer rc.Close()

	f, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, rc); err != nil {
		_ = f.Close()
		return fmt.Errorf("extract %s: %w", e.Name, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	if !e.Modified.IsZero() {
		if err := os.Chtimes(target, e.Modified, e.Modified); err != nil {
			return err
		}
	}
	return nil
}

// writeEntry adds a deflated synthetic entry produced by fill.
func writeEntry(zw *zip.Writer, name string, fill func(io.Writer) error) error {
	w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
	if err != nil {
		return err
	}
	return fill(w)
}

func outputError(p string, err error) error {
	return issue.NewErrorContext().
		WithOperation("write substrate").
		WithResource(p).
		WithIssue(issue.OutputNotWritableId).
		Wrap(err).
		BuildError()
}
