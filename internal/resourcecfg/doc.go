// SPDX-License-Identifier: MPL-2.0

// Package resourcecfg classifies archive entries into the resource
// configuration of a native image.
//
// Every entry lands in exactly one bucket: dropped, a resource bundle base
// name, or an exact-match resource pattern. Localized resource bundles are
// detected from their French variant (a "_fr.class" or "_fr.properties"
// entry); the owning package of such a bundle is collected for build-time
// initialization.
package resourcecfg
