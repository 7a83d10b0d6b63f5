// SPDX-License-Identifier: MPL-2.0

package classfile

import (
	"errors"
	"fmt"
	"slices"
)

const (
	// MemberField selects declared fields.
	MemberField MemberKind = iota
	// MemberMethod selects declared methods.
	MemberMethod
)

var (
	// ErrClassNotFound is returned when a class is not present in a Model.
	ErrClassNotFound = errors.New("class not found")
	// ErrMemberNotFound is returned when no class in a superclass chain
	// declares the requested member.
	ErrMemberNotFound = errors.New("member not found in class hierarchy")
)

type (
	// Type is the structural view of a class needed for member resolution.
	Type interface {
		Name() string
		// Superclass returns the direct superclass name, or "" at the root.
		Superclass() string
		DeclaredFields() []string
		DeclaredMethods() []string
	}

	// Model looks up classes by dotted binary name. Implementations return
	// an error wrapping ErrClassNotFound for unknown classes.
	Model interface {
		Load(name string) (Type, error)
	}

	// MemberKind distinguishes fields from methods.
	MemberKind int

	// Static is an in-memory Type.
	Static struct {
		ClassName string
		Super     string
		Fields    []string
		Methods   []string
	}

	// MapModel is a Model over a fixed set of types keyed by name.
	MapModel map[string]Type
)

// String returns "field" or "method".
func (k MemberKind) String() string {
	if k == MemberMethod {
		return "method"
	}
	return "field"
}

// Name implements Type.
func (s Static) Name() string { return s.ClassName }

// Superclass implements Type. An empty Super on any class other than
// java.lang.Object means java.lang.Object.
func (s Static) Superclass() string {
	if s.Super == "" && s.ClassName != ObjectClass {
		return ObjectClass
	}
	return s.Super
}

// DeclaredFields implements Type.
func (s Static) DeclaredFields() []string { return s.Fields }

// DeclaredMethods implements Type.
func (s Static) DeclaredMethods() []string { return s.Methods }

// Load implements Model.
func (m MapModel) Load(name string) (Type, error) {
	t, ok := m[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrClassNotFound)
	}
	return t, nil
}

// NewMapModel indexes types by their names.
func NewMapModel(types ...Type) MapModel {
	m := make(MapModel, len(types))
	for _, t := range types {
		m[t.Name()] = t
	}
	return m
}

// DeclaringClass walks from class up its superclass chain and returns the
// name of the first class that declares member. The walk stops before
// java.lang.Object. A class in the chain that cannot be loaded yields an
// error wrapping ErrClassNotFound; an exhausted chain yields one wrapping
// ErrMemberNotFound.
func DeclaringClass(m Model, class, member string, kind MemberKind) (string, error) {
	seen := make(map[string]bool)
	for name := class; name != "" && name != ObjectClass; {
		if seen[name] {
			break
		}
		seen[name] = true

		t, err := m.Load(name)
		if err != nil {
			return "", err
		}
		if slices.Contains(declared(t, kind), member) {
			return t.Name(), nil
		}
		name = t.Superclass()
	}
	return "", fmt.Errorf("%s %s in %s: %w", kind, member, class, ErrMemberNotFound)
}

func declared(t Type, kind MemberKind) []string {
	if kind == MemberMethod {
		return t.DeclaredMethods()
	}
	return t.DeclaredFields()
}
