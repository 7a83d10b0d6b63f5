// SPDX-License-Identifier: MPL-2.0

// Package reflectcfg computes the reflection configuration of a bundle set.
//
// Resolve registers bundle activators (no-arg constructor) and declarative
// services components (all public constructors), then resolves every
// lifecycle method, activation field and reference member a component names
// against the superclass chain of its implementation class. Members are
// recorded on the class that declares them. Classes are loaded from the full
// archive set, so implementations may extend classes packaged elsewhere.
//
// Unresolvable members are recovered: they are logged, reported as Warning
// values and left out of the configuration. Unreadable archives, manifests
// and descriptors are fatal.
package reflectcfg
