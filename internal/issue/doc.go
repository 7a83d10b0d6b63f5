// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable errors and a catalog of rendered guidance.
//
// Fatal failures of the packaging passes are returned as ActionableError so
// the CLI can name the archive or descriptor at fault and, when an Issue id
// is attached, render the matching Markdown guidance with glamour.
package issue
