// SPDX-License-Identifier: MPL-2.0

package archive

import "strings"

const (
	// ClassSuffix marks compiled class entries.
	ClassSuffix = ".class"
	// ServicesPrefix is the directory of service-loader registrations.
	ServicesPrefix = "META-INF/services/"
)

// Rules are the entry exclusion rules shared by resource classification and
// substrate packaging. An entry is excluded when its name ends with one of
// ExcludeSuffixes or starts with one of ExcludePrefixes.
type Rules struct {
	ExcludeSuffixes []string
	ExcludePrefixes []string
}

// DefaultRules returns the built-in exclusions: package metadata and
// legal/notice files by suffix, metadata directories by prefix.
func DefaultRules() Rules {
	return Rules{
		ExcludeSuffixes: []string{
			"/packageinfo",
			"about.html",
			"DEPENDENCIES",
			"LICENSE",
			"NOTICE",
			"changelog.txt",
			"LICENSE.txt",
		},
		ExcludePrefixes: []string{
			"META-INF/",
			"OSGI-INF/",
			"OSGI-OPT/",
		},
	}
}

// SubstrateRules returns the narrower set the substrate packager can use to
// keep bundle metadata: only Maven build metadata and optional sources are
// dropped by prefix, so manifests, services and OSGI-INF descriptors stay.
func SubstrateRules() Rules {
	return Rules{
		ExcludeSuffixes: []string{
			"about.html",
			"DEPENDENCIES",
			"LICENSE",
			"NOTICE",
			"changelog.txt",
			"LICENSE.txt",
		},
		ExcludePrefixes: []string{
			"META-INF/maven/",
			"OSGI-OPT/",
		},
	}
}

// With returns a copy of r extended by the given suffixes and prefixes.
func (r Rules) With(suffixes, prefixes []string) Rules {
	out := Rules{
		ExcludeSuffixes: make([]string, 0, len(r.ExcludeSuffixes)+len(suffixes)),
		ExcludePrefixes: make([]string, 0, len(r.ExcludePrefixes)+len(prefixes)),
	}
	out.ExcludeSuffixes = append(append(out.ExcludeSuffixes, r.ExcludeSuffixes...), suffixes...)
	out.ExcludePrefixes = append(append(out.ExcludePrefixes, r.ExcludePrefixes...), prefixes...)
	return out
}

// ExcludedBySuffix reports whether name ends with an excluded suffix.
func (r Rules) ExcludedBySuffix(name string) bool {
	for _, s := range r.ExcludeSuffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}

// ExcludedByPrefix reports whether name starts with an excluded prefix.
func (r Rules) ExcludedByPrefix(name string) bool {
	for _, p := range r.ExcludePrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// Excluded reports whether either rule matches name.
func (r Rules) Excluded(name string) bool {
	return r.ExcludedBySuffix(name) || r.ExcludedByPrefix(name)
}

// IsClass reports whether name is a compiled class entry.
func IsClass(name string) bool {
	return strings.HasSuffix(name, ClassSuffix)
}
