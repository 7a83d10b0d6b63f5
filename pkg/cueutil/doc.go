// SPDX-License-Identifier: MPL-2.0

// Package cueutil validates CUE documents against an embedded schema and
// decodes them into Go values.
//
//	//go:embed config_schema.cue
//	var schema string
//
//	res, err := cueutil.DecodeString[map[string]any](schema, data, "#Config",
//	    cueutil.WithFilename(path),
//	    cueutil.WithConcrete(false),
//	)
//
// Errors name the offending field as a JSON-style path prefixed with the
// file name, for example "config.cue: substrate.mode: 2 errors in empty
// disjunction".
package cueutil
