// SPDX-License-Identifier: MPL-2.0

package reflectcfg

import (
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/charmbracelet/log"

	"atomos-cli/internal/issue"
	"atomos-cli/pkg/archive"
	"atomos-cli/pkg/classfile"
	"atomos-cli/pkg/scr"
)

// ErrDescriptorMissing is returned when a manifest names a descriptor that
// the archive does not contain.
var ErrDescriptorMissing = errors.New("declared component descriptor missing")

type (
	// Warning is a recovered resolution failure. The member is left out of
	// the configuration and resolution continues.
	Warning struct {
		Archive   string
		Component string
		Class     string
		// Member is empty when the class itself could not be loaded.
		Member string
		Kind   classfile.MemberKind
		Err    error
	}

	// Result is the outcome of a resolution pass.
	Result struct {
		Classes     Configs
		Descriptors int
		Components  int
		Warnings    []Warning
	}

	// Option configures Resolve.
	Option func(*options)

	options struct {
		logger    *log.Logger
		cacheSize int
		model     classfile.Model
	}

	resolver struct {
		opts    options
		model   classfile.Model
		classes Configs
		result  *Result
	}

	// probe is one member name a component asks the runtime to reach.
	probe struct {
		name     string
		kind     classfile.MemberKind
		declared bool
	}
)

// WithLogger sets the logger for progress and warnings.
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithClassCacheSize bounds the parsed-class cache of the pass.
func WithClassCacheSize(n int) Option {
	return func(o *options) {
		o.cacheSize = n
	}
}

// WithModel resolves members against m instead of the classes stored in the
// archives. The caller keeps ownership of m.
func WithModel(m classfile.Model) Option {
	return func(o *options) {
		o.model = m
	}
}

// String formats the warning for logs and reports.
func (w Warning) String() string {
	if w.Member == "" {
		return fmt.Sprintf("%s: component %s: class %s: %v", w.Archive, w.Component, w.Class, w.Err)
	}
	return fmt.Sprintf("%s: component %s: %s %s of %s: %v", w.Archive, w.Component, w.Kind, w.Member, w.Class, w.Err)
}

// Resolve computes the reflection configuration for the archives in paths,
// processed in order. The class model built over paths lives only for the
// duration of the call.
func Resolve(paths []string, opts ...Option) (res *Result, err error) {
	o := options{cacheSize: classfile.DefaultCacheSize}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "reflect"})
	}

	r := &resolver{
		opts:    o,
		model:   o.model,
		classes: Configs{},
		result:  &Result{},
	}
	if r.model == nil {
		loader, lerr := classfile.NewLoader(paths, classfile.WithCacheSize(o.cacheSize))
		if lerr != nil {
			return nil, issue.NewErrorContext().
				WithOperation("index classes").
				WithIssue(issue.ArchiveOpenFailedId).
				Wrap(lerr).
				BuildError()
		}
		defer func() {
			if cerr := loader.Close(); cerr != nil && err == nil {
				res, err = nil, issue.Wrap(cerr, "release class loader", "")
			}
		}()
		o.logger.Debug("indexed classes", "archives", len(paths), "classes", loader.Len())
		r.model = loader
	}

	for _, p := range paths {
		if err := archive.With(p, r.scanArchive); err != nil {
			return nil, asActionable(err, p)
		}
	}
	r.result.Classes = r.classes
	return r.result, nil
}

func (r *resolver) scanArchive(a *archive.Archive) error {
	m, err := a.Manifest()
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("read manifest").
			WithResource(a.Path()).
			WithIssue(issue.ManifestUnreadableId).
			Wrap(err).
			BuildError()
	}

	if activator, ok := m.Activator(); ok {
		r.classes.Ensure(activator).RequireConstructor(ConstructorNoArg)
		r.opts.logger.Debug("activator", "archive", a.Path(), "class", activator)
	}

	for _, loc := range m.ServiceComponents() {
		names, err := descriptorEntries(a, loc)
		if err != nil {
			return err
		}
		for _, name := range names {
			if err := r.descriptor(a, name); err != nil {
				return err
			}
		}
	}
	return nil
}

// descriptorEntries expands a Service-Component token. A token whose last
// segment is a pattern may match nothing; a literal must exist.
func descriptorEntries(a *archive.Archive, loc string) ([]string, error) {
	if strings.ContainsAny(path.Base(loc), "*?[") {
		names, err := a.Glob(loc)
		if err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("expand component descriptor pattern").
				WithResource(a.Path() + "!/" + loc).
				WithIssue(issue.DescriptorMissingId).
				Wrap(err).
				BuildError()
		}
		return names, nil
	}
	if _, ok := a.Entry(loc); !ok {
		return nil, issue.NewErrorContext().
			WithOperation("read component descriptor").
			WithResource(a.Path() + "!/" + loc).
			WithIssue(issue.DescriptorMissingId).
			WithSuggestion("Check the Service-Component header against the archive entries").
			Wrap(ErrDescriptorMissing).
			BuildError()
	}
	return []string{loc}, nil
}

func (r *resolver) descriptor(a *archive.Archive, name string) error {
	resource := a.Path() + "!/" + name
	data, err := a.ReadEntry(name)
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("read component descriptor").
			WithResource(resource).
			WithIssue(issue.DescriptorMissingId).
			Wrap(errors.Join(ErrDescriptorMissing, err)).
			BuildError()
	}
	comps, err := scr.ParseBytes(data)
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("parse component descriptor").
			WithResource(resource).
			WithIssue(issue.DescriptorMalformedId).
			Wrap(err).
			BuildError()
	}

	r.result.Descriptors++
	r.opts.logger.Debug("descriptor", "resource", resource, "components", len(comps))
	for _, c := range comps {
		r.component(a.Path(), c)
	}
	return nil
}

func (r *resolver) component(archivePath string, c scr.Component) {
	r.result.Components++
	impl := c.Implementation
	r.classes.Ensure(impl).RequireConstructor(ConstructorAllPublic)

	if _, err := r.model.Load(impl); err != nil {
		r.warn(Warning{Archive: archivePath, Component: c.Name, Class: impl, Err: err})
	} else {
		for _, p := range probes(c) {
			r.resolveMember(archivePath, c, p)
		}
	}

	for _, ref := range c.References {
		r.classes.Ensure(ref.Interface)
	}
}

func (r *resolver) resolveMember(archivePath string, c scr.Component, p probe) {
	owner, err := classfile.DeclaringClass(r.model, c.Implementation, p.name, p.kind)
	if err != nil {
		if !p.declared {
			r.opts.logger.Debug("default lifecycle method absent", "class", c.Implementation, "method", p.name)
			return
		}
		r.warn(Warning{
			Archive:   archivePath,
			Component: c.Name,
			Class:     c.Implementation,
			Member:    p.name,
			Kind:      p.kind,
			Err:       err,
		})
		return
	}

	cfg := r.classes.Ensure(owner)
	if p.kind == classfile.MemberMethod {
		cfg.AddMethod(p.name)
	} else {
		cfg.AddField(p.name)
	}
	r.opts.logger.Debug("resolved", "component", c.Name, p.kind.String(), p.name, "class", owner)
}

func (r *resolver) warn(w Warning) {
	r.result.Warnings = append(r.result.Warnings, w)
	if w.Member == "" {
		r.opts.logger.Warn("component class not loadable", "archive", w.Archive, "component", w.Component, "class", w.Class, "err", w.Err)
		return
	}
	r.opts.logger.Warn("member not resolved", "archive", w.Archive, "component", w.Component,
		"class", w.Class, w.Kind.String(), w.Member, "err", w.Err)
}

// probes lists the members of c in the order the runtime looks them up:
// lifecycle methods, activation fields, then per reference the field and the
// bind, updated and unbind methods.
func probes(c scr.Component) []probe {
	var out []probe
	for _, m := range c.LifecycleMethods() {
		out = append(out, probe{name: m.Name, kind: classfile.MemberMethod, declared: m.Declared})
	}
	for _, f := range c.ActivationFields {
		out = append(out, probe{name: f, kind: classfile.MemberField, declared: true})
	}
	for _, ref := range c.References {
		if ref.Field != "" {
			out = append(out, probe{name: ref.Field, kind: classfile.MemberField, declared: true})
		}
		for _, m := range []string{ref.Bind, ref.Updated, ref.Unbind} {
			if m != "" {
				out = append(out, probe{name: m, kind: classfile.MemberMethod, declared: true})
			}
		}
	}
	return out
}

// asActionable makes sure a fatal error names the archive it came from.
func asActionable(err error, archivePath string) error {
	if _, ok := issue.As(err); ok {
		return err
	}
	id := issue.Id(0)
	if errors.Is(err, archive.ErrNotArchive) {
		id = issue.ArchiveOpenFailedId
	}
	return issue.NewErrorContext().
		WithOperation("resolve reflection configuration").
		WithResource(archivePath).
		WithIssue(id).
		Wrap(err).
		BuildError()
}
