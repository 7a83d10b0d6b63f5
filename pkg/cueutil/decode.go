// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// Result is a decoded document and the unified value it came from.
type Result[T any] struct {
	Value   T
	Unified cue.Value
}

// Decode compiles schema, unifies data with the definition at schemaPath,
// validates the result and decodes it into T.
func Decode[T any](schema, data []byte, schemaPath string, opts ...Option) (*Result[T], error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := CheckFileSize(data, o.maxFileSize, o.filename); err != nil {
		return nil, err
	}

	ctx := cuecontext.New()
	schemaValue := ctx.CompileBytes(schema)
	if err := schemaValue.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	def := schemaValue.LookupPath(cue.ParsePath(schemaPath))
	if err := def.Err(); err != nil {
		return nil, fmt.Errorf("schema definition %s: %w", schemaPath, err)
	}

	userValue := ctx.CompileBytes(data, cue.Filename(o.filename))
	if err := userValue.Err(); err != nil {
		return nil, FormatError(err, o.filename)
	}

	unified := def.Unify(userValue)
	if err := unified.Validate(cue.Concrete(o.concrete)); err != nil {
		return nil, FormatError(err, o.filename)
	}

	res := &Result[T]{Unified: unified}
	if err := unified.Decode(&res.Value); err != nil {
		return nil, FormatError(err, o.filename)
	}
	return res, nil
}

// DecodeString is Decode with a string schema, as produced by go:embed.
func DecodeString[T any](schema string, data []byte, schemaPath string, opts ...Option) (*Result[T], error) {
	return Decode[T]([]byte(schema), data, schemaPath, opts...)
}
