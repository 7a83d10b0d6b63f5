// SPDX-License-Identifier: MPL-2.0

// Package substrate repackages the resources of a bundle set into a single
// artifact for native images.
//
// Each input archive gets an id from its position in the input list. Every
// retained entry (not a directory, not a class, not excluded) is stored
// under "<id>/<name>" with its original bytes and metadata, and an index
// records which names came from which archive:
//
//	ATOMOS_BUNDLE
//	<id>
//	<symbolic name>
//	<version>
//	<entry name>
//	...
//
// ModeJar writes one merged jar that also embeds the index at
// atomos/bundles.index and a resource configuration listing every stored
// path. ModeDir extracts the entries into per-id directories next to a
// plain index file and writes no resource configuration.
package substrate
