// SPDX-License-Identifier: MPL-2.0

package config

import (
	"reflect"
	"strings"
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// These tests keep the Go struct JSON tags and the CUE schema field names
// aligned, so a renamed key fails here rather than being silently ignored.

func cueFields(t *testing.T, def string) map[string]bool {
	t.Helper()

	schema := cuecontext.New().CompileString(configSchema)
	if err := schema.Err(); err != nil {
		t.Fatalf("compile schema: %v", err)
	}
	val := schema.LookupPath(cue.ParsePath(def))
	if err := val.Err(); err != nil {
		t.Fatalf("lookup %s: %v", def, err)
	}

	iter, err := val.Fields(cue.Definitions(false), cue.Optional(true))
	if err != nil {
		t.Fatalf("iterate %s: %v", def, err)
	}
	fields := make(map[string]bool)
	for iter.Next() {
		sel := iter.Selector()
		if sel.LabelType().IsHidden() || sel.IsDefinition() {
			continue
		}
		fields[strings.TrimSuffix(sel.String(), "?")] = true
	}
	return fields
}

func jsonFields(typ reflect.Type) map[string]bool {
	fields := make(map[string]bool)
	for i := range typ.NumField() {
		name, _, _ := strings.Cut(typ.Field(i).Tag.Get("json"), ",")
		if name != "" && name != "-" {
			fields[name] = true
		}
	}
	return fields
}

func TestSchemaSync(t *testing.T) {
	tests := []struct {
		def string
		typ reflect.Type
	}{
		{"#Config", reflect.TypeFor[Config]()},
		{"#SubstrateConfig", reflect.TypeFor[SubstrateConfig]()},
		{"#ExcludeConfig", reflect.TypeFor[ExcludeConfig]()},
		{"#ResolverConfig", reflect.TypeFor[ResolverConfig]()},
		{"#UIConfig", reflect.TypeFor[UIConfig]()},
	}
	for _, tt := range tests {
		t.Run(tt.def, func(t *testing.T) {
			fromCUE := cueFields(t, tt.def)
			fromGo := jsonFields(tt.typ)
			for f := range fromCUE {
				if !fromGo[f] {
					t.Errorf("CUE field %q has no Go JSON tag", f)
				}
			}
			for f := range fromGo {
				if !fromCUE[f] {
					t.Errorf("Go JSON tag %q has no CUE field", f)
				}
			}
		})
	}
}
