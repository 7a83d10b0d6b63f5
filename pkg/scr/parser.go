// SPDX-License-Identifier: MPL-2.0

package scr

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/jacoelho/xsd/pkg/xmlstream"
	"github.com/jacoelho/xsd/pkg/xmltext"
	"golang.org/x/net/html/charset"
)

const (
	// NamespacePrefix is the common prefix of the OSGi SCR namespace URIs.
	NamespacePrefix = "http://www.osgi.org/xmlns/scr/"
	// FelixNamespacePrefix is the common prefix of the Apache Felix SCR
	// extension namespace URIs.
	FelixNamespacePrefix = "http://felix.apache.org/xmlns/scr/"

	// DefaultActivate is the activate method assumed when none is declared.
	DefaultActivate = "activate"
	// DefaultDeactivate is the deactivate method assumed when none is declared.
	DefaultDeactivate = "deactivate"

	elemComponent      = "component"
	elemImplementation = "implementation"
	elemReference      = "reference"
)

// ErrMalformedDescriptor is returned for descriptors that are not well-formed
// XML or whose component structure is unusable.
var ErrMalformedDescriptor = errors.New("malformed component descriptor")

type (
	// Component is one declared component.
	Component struct {
		// Name is the component name. It defaults to the implementation class.
		Name           string
		Implementation string
		// Activate, Modified and Deactivate hold the declared lifecycle method
		// names, empty when not declared.
		Activate   string
		Modified   string
		Deactivate string
		// ActivationFields is ordered by first declaration and deduplicated.
		ActivationFields []string
		// Init is the number of constructor parameters (DS 1.4).
		Init             int
		ConfigurationPID []string
		References       []Reference
		// Namespace is the namespace URI the component element was declared in.
		Namespace string
	}

	// Reference is a dependency declared by a component.
	Reference struct {
		Name        string
		Interface   string
		Cardinality string
		Policy      string
		Target      string
		Field       string
		Bind        string
		Updated     string
		Unbind      string
	}

	// LifecycleMethod is a method the runtime may invoke reflectively during
	// the component lifecycle.
	LifecycleMethod struct {
		Name string
		// Declared is false for a default probed by the runtime.
		Declared bool
	}

	// element is the part of a start event the parser keeps. Event names
	// and attribute values are only valid until the next read.
	element struct {
		space string
		local string
		attrs map[string]string
	}

	parser struct {
		rd    *xmlstream.Reader
		line  int
		comps []Component
		cur   *Component
		// depth of the open element stack, and the depth of cur.
		depth     int
		compDepth int
		sawRoot   bool
	}
)

// Parse reads every component declared in the descriptor read from r.
// A document without any element, malformed XML, a nested component or a
// component without an implementation class yields an error wrapping
// ErrMalformedDescriptor.
func Parse(r io.Reader) ([]Component, error) {
	rd, err := xmlstream.NewReader(r, xmltext.WithCharsetReader(charset.NewReaderLabel))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedDescriptor, err)
	}
	p := &parser{rd: rd}
	if err := p.run(); err != nil {
		return nil, err
	}
	return p.comps, nil
}

// ParseBytes is Parse over an in-memory document.
func ParseBytes(data []byte) ([]Component, error) {
	return Parse(bytes.NewReader(data))
}

// LifecycleMethods returns the activate, modified and deactivate methods of
// c in that order. Undeclared activate and deactivate methods are reported
// with their default names and Declared set to false.
func (c Component) LifecycleMethods() []LifecycleMethod {
	var out []LifecycleMethod
	if c.Activate != "" {
		out = append(out, LifecycleMethod{Name: c.Activate, Declared: true})
	} else {
		out = append(out, LifecycleMethod{Name: DefaultActivate})
	}
	if c.Modified != "" {
		out = append(out, LifecycleMethod{Name: c.Modified, Declared: true})
	}
	if c.Deactivate != "" {
		out = append(out, LifecycleMethod{Name: c.Deactivate, Declared: true})
	} else {
		out = append(out, LifecycleMethod{Name: DefaultDeactivate})
	}
	return out
}

// IsSCRNamespace reports whether uri names an OSGi SCR or Felix SCR namespace.
func IsSCRNamespace(uri string) bool {
	return strings.HasPrefix(uri, NamespacePrefix) || strings.HasPrefix(uri, FelixNamespacePrefix)
}

func (p *parser) run() error {
	for {
		ev, err := p.rd.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("%w: %w", ErrMalformedDescriptor, err)
		}
		p.line = ev.Line

		switch ev.Kind {
		case xmlstream.EventStartElement:
			if err := p.start(newElement(ev)); err != nil {
				return err
			}
		case xmlstream.EventEndElement:
			if err := p.end(); err != nil {
				return err
			}
		}
	}
	if !p.sawRoot {
		return fmt.Errorf("%w: no root element", ErrMalformedDescriptor)
	}
	if p.depth != 0 {
		return fmt.Errorf("%w: unexpected end of document", ErrMalformedDescriptor)
	}
	return nil
}

func newElement(ev xmlstream.Event) element {
	el := element{space: ev.Name.Namespace, local: ev.Name.Local}
	for _, a := range ev.Attrs {
		if a.Name.Namespace != "" {
			continue
		}
		if el.attrs == nil {
			el.attrs = make(map[string]string, len(ev.Attrs))
		}
		el.attrs[a.Name.Local] = string(a.Value)
	}
	return el
}

func (p *parser) start(el element) error {
	first := !p.sawRoot
	p.sawRoot = true
	p.depth++

	if p.cur == nil {
		if isComponent(el, first) {
			return p.openComponent(el)
		}
		return nil
	}

	if el.local == elemComponent && IsSCRNamespace(el.space) {
		return p.errorf("component %q contains a nested component", p.cur.Name)
	}
	// Only direct children in the component's namespace (or unqualified,
	// as most descriptors write them) carry structure.
	if p.depth != p.compDepth+1 {
		return nil
	}
	if el.space != "" && el.space != p.cur.Namespace {
		return nil
	}
	switch el.local {
	case elemImplementation:
		if p.cur.Implementation != "" {
			return p.errorf("component %q declares more than one implementation", p.cur.Name)
		}
		class := strings.TrimSpace(attr(el, "class"))
		if class == "" {
			return p.errorf("implementation element without class attribute")
		}
		p.cur.Implementation = class
	case elemReference:
		ref := Reference{
			Name:        attr(el, "name"),
			Interface:   strings.TrimSpace(attr(el, "interface")),
			Cardinality: attr(el, "cardinality"),
			Policy:      attr(el, "policy"),
			Target:      attr(el, "target"),
			Field:       attr(el, "field"),
			Bind:        attr(el, "bind"),
			Updated:     attr(el, "updated"),
			Unbind:      attr(el, "unbind"),
		}
		if ref.Interface == "" {
			return p.errorf("reference %q declares no interface", ref.Name)
		}
		if ref.Name == "" {
			ref.Name = ref.Interface
		}
		p.cur.References = append(p.cur.References, ref)
	}
	return nil
}

func (p *parser) end() error {
	defer func() { p.depth-- }()
	if p.cur == nil || p.depth != p.compDepth {
		return nil
	}
	c := p.cur
	p.cur = nil
	if c.Implementation == "" {
		return p.errorf("component %q has no implementation class", c.Name)
	}
	if c.Name == "" {
		c.Name = c.Implementation
	}
	p.comps = append(p.comps, *c)
	return nil
}

func (p *parser) openComponent(el element) error {
	c := &Component{
		Name:       attr(el, "name"),
		Activate:   attr(el, "activate"),
		Modified:   attr(el, "modified"),
		Deactivate: attr(el, "deactivate"),
		Namespace:  el.space,
	}
	for _, f := range strings.Fields(attr(el, "activation-fields")) {
		if !slices.Contains(c.ActivationFields, f) {
			c.ActivationFields = append(c.ActivationFields, f)
		}
	}
	if pids := strings.Fields(attr(el, "configuration-pid")); len(pids) > 0 {
		c.ConfigurationPID = pids
	}
	if v := strings.TrimSpace(attr(el, "init")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return p.errorf("component %q: invalid init value %q", c.Name, v)
		}
		c.Init = n
	}
	p.cur = c
	p.compDepth = p.depth
	return nil
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: line %d: %s", ErrMalformedDescriptor, p.line, fmt.Sprintf(format, args...))
}

// isComponent reports whether el opens a component. Unqualified component
// elements are accepted only as the document root.
func isComponent(el element, root bool) bool {
	if el.local != elemComponent {
		return false
	}
	if el.space == "" {
		return root
	}
	return IsSCRNamespace(el.space)
}

// attr returns the value of the unqualified attribute local, or "".
func attr(el element, local string) string {
	return el.attrs[local]
}
