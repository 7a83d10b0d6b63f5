// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
)

// OSGi manifest headers read by the analysis passes.
const (
	HeaderBundleActivator          = "Bundle-Activator"
	HeaderExtensionBundleActivator = "ExtensionBundle-Activator"
	HeaderServiceComponent         = "Service-Component"
	HeaderBundleSymbolicName       = "Bundle-SymbolicName"
	HeaderBundleVersion            = "Bundle-Version"
)

// ErrMalformedManifest is returned when a manifest does not follow the JAR
// manifest syntax.
var ErrMalformedManifest = errors.New("malformed manifest")

type (
	// Manifest holds the main-section attributes of a JAR manifest.
	// Attribute names are matched case-insensitively.
	Manifest struct {
		attrs map[string]attribute
		order []string
	}

	attribute struct {
		name  string
		value string
	}
)

// ParseManifest reads the main section of a JAR manifest. Continuation
// lines (starting with a single space) are joined onto the preceding
// header, and parsing stops at the first blank line.
func ParseManifest(r io.Reader) (*Manifest, error) {
	m := &Manifest{attrs: map[string]attribute{}}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), 1<<20)
	sc.Split(scanManifestLines)

	var (
		cur    *attribute
		lineNo int
	)
	flush := func() {
		if cur == nil {
			return
		}
		key := strings.ToLower(cur.name)
		if _, seen := m.attrs[key]; !seen {
			m.order = append(m.order, cur.name)
		}
		m.attrs[key] = *cur
		cur = nil
	}

	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if line == "" {
			break
		}
		if line[0] == ' ' {
			if cur == nil {
				return nil, fmt.Errorf("%w: line %d: continuation without header", ErrMalformedManifest, lineNo)
			}
			cur.value += line[1:]
			continue
		}
		flush()

		name, value, ok := strings.Cut(line, ":")
		if !ok || !validHeaderName(name) {
			return nil, fmt.Errorf("%w: line %d: invalid header %q", ErrMalformedManifest, lineNo, line)
		}
		cur = &attribute{name: name, value: strings.TrimPrefix(value, " ")}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedManifest, err)
	}
	flush()
	return m, nil
}

// Lookup returns the raw value of the named attribute.
func (m *Manifest) Lookup(name string) (string, bool) {
	if m == nil {
		return "", false
	}
	a, ok := m.attrs[strings.ToLower(name)]
	return a.value, ok
}

// Value returns the trimmed value of the named attribute, or "" if absent.
func (m *Manifest) Value(name string) string {
	v, _ := m.Lookup(name)
	return strings.TrimSpace(v)
}

// Names returns the attribute names in first-seen order.
func (m *Manifest) Names() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Len returns the number of attributes.
func (m *Manifest) Len() int {
	if m == nil {
		return 0
	}
	return len(m.attrs)
}

// Activator returns the bundle activator class name, falling back to the
// extension bundle activator.
func (m *Manifest) Activator() (string, bool) {
	for _, h := range []string{HeaderBundleActivator, HeaderExtensionBundleActivator} {
		if v := m.Value(h); v != "" {
			return v, true
		}
	}
	return "", false
}

// ServiceComponents returns the descriptor locations named by the
// Service-Component header, split on commas and whitespace.
func (m *Manifest) ServiceComponents() []string {
	return strings.FieldsFunc(m.Value(HeaderServiceComponent), func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
}

func validHeaderName(name string) bool {
	if name == "" || len(name) > 70 {
		return false
	}
	for _, c := range name {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}

// scanManifestLines splits on CRLF, LF or a lone CR.
func scanManifestLines(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}
		// CR: need one more byte to tell CRLF from a lone CR.
		if i+1 < len(data) {
			if data[i+1] == '\n' {
				return i + 2, data[:i], nil
			}
			return i + 1, data[:i], nil
		}
		if atEOF {
			return i + 1, data[:i], nil
		}
		return 0, nil, nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
