// SPDX-License-Identifier: MPL-2.0

package report

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
	"time"
)

func sample() *Report {
	return &Report{
		Generated: time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC),
		OutputDir: "/out",
		Artifacts: Artifacts{
			Substrate:        "/out/atomos.substrate.jar",
			SubstrateMode:    "jar",
			ReflectionConfig: "/out/graal_reflect_config.json",
			ResourceConfig:   "/out/graal_resource_config.json",
			BuildArgs:        []string{"--no-fallback", "-H:Name=app"},
		},
		Reflection: Reflection{Classes: 3, Descriptors: 1, Components: 1},
		Resources: Resources{
			Bundles:               1,
			Patterns:              2,
			Dropped:               4,
			InitializeAtBuildTime: []string{"resources"},
		},
		Archives: []Archive{
			{ID: 0, Path: "/cp/a.jar", SymbolicName: "svc.a", Version: "1.0.0", Retained: 2},
			{ID: 1, Path: "/cp/b.jar", Retained: 0},
		},
		Warnings: []string{"a.jar: component c: method bind of x.Y: member not found"},
	}
}

func TestWrite(t *testing.T) {
	out, err := Marshal(sample())
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	text := string(out)
	for _, want := range []string{
		"output_dir = '/out'",
		"[artifacts]",
		"substrate_mode = 'jar'",
		"[[archive]]",
		"symbolic_name = 'svc.a'",
		"initialize_at_build_time = ['resources']",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("report missing %q:\n%s", want, text)
		}
	}
	if strings.Count(text, "[[archive]]") != 2 {
		t.Errorf("want one table per archive:\n%s", text)
	}
}

func TestRead_RoundTrip(t *testing.T) {
	want := sample()
	out, err := Marshal(want)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Read(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if !got.Generated.Equal(want.Generated) {
		t.Errorf("Generated = %v, want %v", got.Generated, want.Generated)
	}
	got.Generated = want.Generated
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Read() = %+v\nwant %+v", got, want)
	}
}

func TestRead_UnknownField(t *testing.T) {
	if _, err := Read(strings.NewReader("bogus = 1\n")); err == nil {
		t.Error("Read() should reject unknown keys")
	}
}
