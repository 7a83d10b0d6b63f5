// SPDX-License-Identifier: MPL-2.0

// Package testutil provides fixture builders and fail-fast helpers for tests.
//
// WriteArchive builds bundle archives with a manifest and arbitrary entries,
// and ClassFile assembles minimal but structurally valid class files, so the
// analysis passes can be exercised end to end without prebuilt jars. The
// Must* helpers wrap environment and filesystem operations and fail the test
// immediately on error.
package testutil
