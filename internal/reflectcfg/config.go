// SPDX-License-Identifier: MPL-2.0

package reflectcfg

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"maps"
)

const (
	// ConstructorNone records no constructor requirement.
	ConstructorNone Constructor = iota
	// ConstructorNoArg keeps the public no-arg constructor (activators).
	ConstructorNoArg
	// ConstructorAllPublic keeps every public constructor (components).
	ConstructorAllPublic
)

// constructorName is the JVM name of instance initializers.
const constructorName = "<init>"

type (
	// Constructor is a constructor requirement. Larger values are strictly
	// broader, so merging keeps the maximum.
	Constructor int

	// ClassConfig is the reflection requirement of a single class.
	ClassConfig struct {
		Name        string
		Constructor Constructor
		fields      map[string]struct{}
		methods     map[string]struct{}
	}

	// Configs maps class names to their requirements.
	Configs map[string]*ClassConfig

	jsonClass struct {
		Name                  string       `json:"name"`
		AllPublicConstructors bool         `json:"allPublicConstructors,omitempty"`
		Fields                []jsonMember `json:"fields,omitempty"`
		Methods               []jsonMember `json:"methods,omitempty"`
	}

	jsonMember struct {
		Name           string    `json:"name"`
		ParameterTypes *[]string `json:"parameterTypes,omitempty"`
	}
)

// String returns the configuration vocabulary for c.
func (c Constructor) String() string {
	switch c {
	case ConstructorNoArg:
		return "no-arg"
	case ConstructorAllPublic:
		return "all-public"
	default:
		return "none"
	}
}

// NewClassConfig returns an empty requirement for name.
func NewClassConfig(name string) *ClassConfig {
	return &ClassConfig{
		Name:    name,
		fields:  map[string]struct{}{},
		methods: map[string]struct{}{},
	}
}

// RequireConstructor raises the constructor requirement to k. A weaker k
// never replaces a stronger requirement.
func (c *ClassConfig) RequireConstructor(k Constructor) {
	c.Constructor = max(c.Constructor, k)
}

// AddField records a declared field.
func (c *ClassConfig) AddField(name string) {
	if c.fields == nil {
		c.fields = map[string]struct{}{}
	}
	c.fields[name] = struct{}{}
}

// AddMethod records a declared method.
func (c *ClassConfig) AddMethod(name string) {
	if c.methods == nil {
		c.methods = map[string]struct{}{}
	}
	c.methods[name] = struct{}{}
}

// Fields returns the recorded fields in sorted order.
func (c *ClassConfig) Fields() []string {
	return slices.Sorted(maps.Keys(c.fields))
}

// Methods returns the recorded methods in sorted order.
func (c *ClassConfig) Methods() []string {
	return slices.Sorted(maps.Keys(c.methods))
}

// Empty reports whether c carries no requirement beyond the class itself.
func (c *ClassConfig) Empty() bool {
	return c.Constructor == ConstructorNone && len(c.fields) == 0 && len(c.methods) == 0
}

// Merge folds o into c: the broader constructor requirement and the union
// of members.
func (c *ClassConfig) Merge(o *ClassConfig) {
	c.RequireConstructor(o.Constructor)
	for f := range o.fields {
		c.AddField(f)
	}
	for m := range o.methods {
		c.AddMethod(m)
	}
}

// Ensure returns the requirement for name, creating an empty one if needed.
func (cs Configs) Ensure(name string) *ClassConfig {
	c, ok := cs[name]
	if !ok {
		c = NewClassConfig(name)
		cs[name] = c
	}
	return c
}

// Names returns the class names in sorted order.
func (cs Configs) Names() []string {
	return slices.Sorted(maps.Keys(cs))
}

// Merge folds every requirement of o into cs.
func (cs Configs) Merge(o Configs) {
	for name, c := range o {
		cs.Ensure(name).Merge(c)
	}
}

// Encode writes cs as a reflection configuration document: a JSON array of
// class objects sorted by name, with fields and methods sorted by name. A
// no-arg constructor requirement is written as an "<init>" method with no
// parameter types ahead of the other methods.
func Encode(w io.Writer, cs Configs) error {
	out := make([]jsonClass, 0, len(cs))
	for _, name := range cs.Names() {
		c := cs[name]
		jc := jsonClass{
			Name:                  name,
			AllPublicConstructors: c.Constructor == ConstructorAllPublic,
		}
		for _, f := range c.Fields() {
			jc.Fields = append(jc.Fields, jsonMember{Name: f})
		}
		if c.Constructor == ConstructorNoArg {
			jc.Methods = append(jc.Methods, jsonMember{Name: constructorName, ParameterTypes: &[]string{}})
		}
		for _, m := range c.Methods() {
			jc.Methods = append(jc.Methods, jsonMember{Name: m})
		}
		out = append(out, jc)
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode reflection configuration: %w", err)
	}
	return nil
}

// Marshal returns the document written by Encode.
func Marshal(cs Configs) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, cs); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
