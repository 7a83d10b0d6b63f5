// SPDX-License-Identifier: MPL-2.0

package classfile

import (
	"errors"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"atomos-cli/pkg/archive"
)

// DefaultCacheSize is the number of parsed classes a Loader keeps by default.
const DefaultCacheSize = 512

// ErrLoaderClosed is returned by Load after Close.
var ErrLoaderClosed = errors.New("class loader closed")

type (
	// Loader is a Model over the classes stored in a set of archives. When
	// several archives contain the same class, the first one in path order
	// wins. A Loader holds its archives open until Close.
	Loader struct {
		archives []*archive.Archive
		index    map[string]location
		cache    *lru.Cache[string, *Class]
		closed   bool
	}

	// LoaderOption configures a Loader.
	LoaderOption func(*loaderOptions)

	loaderOptions struct {
		cacheSize int
	}

	location struct {
		archive string
		entry   archive.Entry
	}
)

// WithCacheSize bounds the number of parsed classes kept in memory.
// Non-positive sizes select DefaultCacheSize.
func WithCacheSize(n int) LoaderOption {
	return func(o *loaderOptions) {
		o.cacheSize = n
	}
}

// NewLoader opens every archive in paths and indexes their class entries.
// If any archive cannot be opened, the ones already opened are closed and
// the error is returned.
func NewLoader(paths []string, opts ...LoaderOption) (*Loader, error) {
	o := loaderOptions{cacheSize: DefaultCacheSize}
	for _, opt := range opts {
		opt(&o)
	}
	if o.cacheSize <= 0 {
		o.cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, *Class](o.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create class cache: %w", err)
	}

	l := &Loader{
		index: make(map[string]location),
		cache: cache,
	}
	for _, p := range paths {
		a, err := archive.Open(p)
		if err != nil {
			return nil, errors.Join(err, l.Close())
		}
		l.archives = append(l.archives, a)
		for e := range a.Entries() {
			name, ok := entryClassName(e)
			if !ok {
				continue
			}
			if _, dup := l.index[name]; !dup {
				l.index[name] = location{archive: p, entry: e}
			}
		}
	}
	return l, nil
}

// Load returns the parsed class with the given dotted binary name.
func (l *Loader) Load(name string) (Type, error) {
	if l.closed {
		return nil, ErrLoaderClosed
	}
	if c, ok := l.cache.Get(name); ok {
		return c, nil
	}
	loc, ok := l.index[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrClassNotFound)
	}
	data, err := loc.entry.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", loc.archive, loc.entry.Name, err)
	}
	c, err := ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", loc.archive, loc.entry.Name, err)
	}
	if c.Name() != name {
		return nil, fmt.Errorf("%s: %s: %w: declares %s", loc.archive, loc.entry.Name, ErrMalformedClass, c.Name())
	}
	l.cache.Add(name, c)
	return c, nil
}

// Len returns the number of indexed classes.
func (l *Loader) Len() int {
	return len(l.index)
}

// Close releases every archive. It is safe to call more than once.
func (l *Loader) Close() error {
	if l.closed {
		return nil
	}
	l.closed = true
	var errs []error
	for _, a := range l.archives {
		if err := a.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", a.Path(), err))
		}
	}
	l.archives = nil
	l.index = nil
	l.cache.Purge()
	return errors.Join(errs...)
}

// entryClassName maps a class entry to its dotted binary name. Module and
// package descriptors and multi-release variants are not loadable classes.
func entryClassName(e archive.Entry) (string, bool) {
	if e.Dir || !archive.IsClass(e.Name) || strings.HasPrefix(e.Name, "META-INF/") {
		return "", false
	}
	base := strings.TrimSuffix(e.Name, archive.ClassSuffix)
	if strings.HasSuffix(base, "module-info") || strings.HasSuffix(base, "package-info") {
		return "", false
	}
	return strings.ReplaceAll(base, "/", "."), true
}
