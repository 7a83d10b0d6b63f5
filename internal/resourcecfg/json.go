// SPDX-License-Identifier: MPL-2.0

package resourcecfg

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

type (
	document struct {
		Bundles   []bundleRef `json:"bundles,omitempty"`
		Resources []pattern   `json:"resources,omitempty"`
	}

	bundleRef struct {
		Name string `json:"name"`
	}

	pattern struct {
		Pattern string `json:"pattern"`
	}
)

// Encode writes the resource configuration document for bundles and
// patterns, each sorted. Empty sets are omitted.
func Encode(w io.Writer, bundles, patterns Set) error {
	var doc document
	for _, b := range bundles.Sorted() {
		doc.Bundles = append(doc.Bundles, bundleRef{Name: b})
	}
	for _, p := range patterns.Sorted() {
		doc.Resources = append(doc.Resources, pattern{Pattern: p})
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode resource configuration: %w", err)
	}
	return nil
}

// Marshal returns the document Encode writes for r.
func (r *Result) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, r.Bundles, r.Patterns); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
