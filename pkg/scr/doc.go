// SPDX-License-Identifier: MPL-2.0

// Package scr parses Declarative Services component descriptors.
//
// A descriptor is an XML document holding one or more component elements,
// either as the root element or nested in an arbitrary wrapper. Components
// are recognized in the OSGi SCR namespaces (http://www.osgi.org/xmlns/scr/v1.x.0),
// the Felix extension namespace, and, for root-level components, without a
// namespace. Only the structure needed to compute reflection requirements is
// read: the implementation class, lifecycle method names, activation fields
// and references. Schema validation is not performed.
package scr
