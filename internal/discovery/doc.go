// SPDX-License-Identifier: MPL-2.0

// Package discovery locates the bundle archives of a classpath directory.
//
// Non-fatal problems, such as files that are not zip archives, are returned
// as diagnostics rather than logged so the CLI layer controls rendering.
package discovery
