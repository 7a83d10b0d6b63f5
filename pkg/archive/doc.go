// SPDX-License-Identifier: MPL-2.0

// Package archive provides read access to bundle archives.
//
// A bundle archive is a zip-format file with a JAR manifest at
// META-INF/MANIFEST.MF. The package exposes the manifest main attributes,
// the archive entries in their stored order, and the exclusion rules shared
// by the resource classifier and the substrate packager.
//
// Archives are scoped resources. Callers either pair Open with Close, or use
// With, which releases the archive on every return path:
//
//	err := archive.With(path, func(a *archive.Archive) error {
//		m, err := a.Manifest()
//		if err != nil {
//			return err
//		}
//		for e := range a.Entries() {
//			// ...
//		}
//		return nil
//	})
package archive
