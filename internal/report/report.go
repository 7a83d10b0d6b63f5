// SPDX-License-Identifier: MPL-2.0

// Package report serializes the summary of a packaging run as TOML.
package report

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type (
	// Report summarizes one pipeline run.
	Report struct {
		Generated  time.Time  `toml:"generated"`
		OutputDir  string     `toml:"output_dir"`
		Artifacts  Artifacts  `toml:"artifacts"`
		Reflection Reflection `toml:"reflection"`
		Resources  Resources  `toml:"resources"`
		Archives   []Archive  `toml:"archive,omitempty"`
		Warnings   []string   `toml:"warnings,omitempty"`
	}

	// Artifacts are the files written by the run.
	Artifacts struct {
		Substrate        string   `toml:"substrate"`
		SubstrateMode    string   `toml:"substrate_mode"`
		ReflectionConfig string   `toml:"reflection_config"`
		ResourceConfig   string   `toml:"resource_config"`
		BuildArgs        []string `toml:"build_args,omitempty"`
	}

	// Reflection counts the reflection pass.
	Reflection struct {
		Classes     int `toml:"classes"`
		Descriptors int `toml:"descriptors"`
		Components  int `toml:"components"`
	}

	// Resources counts the classification pass.
	Resources struct {
		Bundles               int      `toml:"bundles"`
		Patterns              int      `toml:"patterns"`
		Dropped               int      `toml:"dropped"`
		InitializeAtBuildTime []string `toml:"initialize_at_build_time,omitempty"`
	}

	// Archive is one input archive and its substrate id.
	Archive struct {
		ID           int    `toml:"id"`
		Path         string `toml:"path"`
		SymbolicName string `toml:"symbolic_name,omitempty"`
		Version      string `toml:"version,omitempty"`
		Retained     int    `toml:"retained"`
	}
)

// Write encodes r to w.
func Write(w io.Writer, r *Report) error {
	enc := toml.NewEncoder(w)
	enc.SetIndentTables(true)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// Marshal returns the encoded form of r.
func Marshal(r *Report) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Read decodes a report written by Write.
func Read(rd io.Reader) (*Report, error) {
	var r Report
	if err := toml.NewDecoder(rd).DisallowUnknownFields().Decode(&r); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &r, nil
}
