// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the atomos command tree.
//
// Handlers receive an *App, the composition root holding the config
// provider and output streams, and delegate the work to the pipeline and
// pass packages under internal/.
package cmd
