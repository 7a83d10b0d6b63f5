// SPDX-License-Identifier: MPL-2.0

package resourcecfg

import (
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"maps"

	"atomos-cli/internal/issue"
	"atomos-cli/pkg/archive"
)

const (
	// LocaleTag marks the locale variant used to detect resource bundles.
	LocaleTag = "_fr"

	bundleClassSuffix      = LocaleTag + archive.ClassSuffix
	bundlePropertiesSuffix = LocaleTag + ".properties"
)

// Buckets an entry can be classified into.
const (
	BucketDropped Bucket = iota
	BucketBundle
	BucketPattern
)

type (
	// Bucket is the classification outcome of one entry.
	Bucket int

	// Decision records how one entry was classified.
	Decision struct {
		Bucket Bucket
		// Value is the bundle base name or the pattern. Empty when dropped.
		Value string
		// Package is the owning package of a bundle, collected for
		// build-time initialization.
		Package string
		// Reason names the rule that decided.
		Reason string
	}

	// Set is a set of strings that serializes in sorted order.
	Set map[string]struct{}

	// Result is the resource configuration of a bundle set.
	Result struct {
		Bundles  Set
		Patterns Set
		Packages Set
		// Entries counts the entries examined, Dropped those discarded.
		Entries int
		Dropped int
	}

	// Option configures Classify.
	Option func(*options)

	options struct {
		logger *log.Logger
		rules  archive.Rules
	}
)

// String returns the bucket name.
func (b Bucket) String() string {
	switch b {
	case BucketBundle:
		return "bundle"
	case BucketPattern:
		return "pattern"
	default:
		return "dropped"
	}
}

// WithLogger sets the logger for per-entry tracing.
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithRules replaces the default exclusion rules.
func WithRules(r archive.Rules) Option {
	return func(o *options) {
		o.rules = r
	}
}

// Add inserts v.
func (s Set) Add(v string) {
	s[v] = struct{}{}
}

// Has reports whether v is present.
func (s Set) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// Sorted returns the members in sorted order.
func (s Set) Sorted() []string {
	return slices.Sorted(maps.Keys(s))
}

// NewResult returns an empty result.
func NewResult() *Result {
	return &Result{Bundles: Set{}, Patterns: Set{}, Packages: Set{}}
}

// Add records d.
func (r *Result) Add(d Decision) {
	r.Entries++
	switch d.Bucket {
	case BucketBundle:
		r.Bundles.Add(d.Value)
		if d.Package != "" {
			r.Packages.Add(d.Package)
		}
	case BucketPattern:
		r.Patterns.Add(d.Value)
	default:
		r.Dropped++
	}
}

// ClassifyEntry applies the classification rules to one entry. The first
// matching rule wins:
//
//  1. directories are dropped
//  2. entries at the archive root are dropped
//  3. service registrations are patterns
//  4. entries matching an excluded suffix are dropped
//  5. entries under an excluded prefix are dropped
//  6. classes are dropped, except localized bundle classes
//  7. localized bundle properties are bundles
//  8. everything else is a pattern
func ClassifyEntry(name string, dir bool, rules archive.Rules) Decision {
	switch {
	case dir:
		return Decision{Reason: "directory"}
	case !strings.Contains(name, "/"):
		return Decision{Reason: "root entry"}
	case strings.HasPrefix(name, archive.ServicesPrefix):
		return Decision{Bucket: BucketPattern, Value: name, Reason: "service registration"}
	case rules.ExcludedBySuffix(name):
		return Decision{Reason: "excluded suffix"}
	case rules.ExcludedByPrefix(name):
		return Decision{Reason: "excluded prefix"}
	case archive.IsClass(name):
		if !strings.HasSuffix(name, bundleClassSuffix) {
			return Decision{Reason: "class"}
		}
		base := bundleName(name, bundleClassSuffix)
		return Decision{Bucket: BucketBundle, Value: base, Package: packageOf(base), Reason: "bundle class"}
	case strings.HasSuffix(name, bundlePropertiesSuffix):
		base := bundleName(name, bundlePropertiesSuffix)
		return Decision{Bucket: BucketBundle, Value: base, Package: packageOf(base), Reason: "bundle properties"}
	default:
		return Decision{Bucket: BucketPattern, Value: name, Reason: "resource"}
	}
}

// Classify classifies every entry of every archive in paths.
func Classify(paths []string, opts ...Option) (*Result, error) {
	o := options{rules: archive.DefaultRules()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "resources"})
	}

	res := NewResult()
	for _, p := range paths {
		err := archive.With(p, func(a *archive.Archive) error {
			for e := range a.Entries() {
				d := ClassifyEntry(e.Name, e.Dir, o.rules)
				res.Add(d)
				o.logger.Debug("entry", "archive", p, "name", e.Name, "bucket", d.Bucket, "reason", d.Reason)
			}
			return nil
		})
		if err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("classify resources").
				WithResource(p).
				WithIssue(issue.ArchiveOpenFailedId).
				Wrap(err).
				BuildError()
		}
	}
	return res, nil
}

func bundleName(entry, suffix string) string {
	return strings.ReplaceAll(strings.TrimSuffix(entry, suffix), "/", ".")
}

func packageOf(bundle string) string {
	i := strings.LastIndexByte(bundle, '.')
	if i < 0 {
		return ""
	}
	return bundle[:i]
}
