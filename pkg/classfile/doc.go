// SPDX-License-Identifier: MPL-2.0

// Package classfile reads the structure of compiled Java classes without a
// JVM.
//
// Parse decodes the parts of a class file needed for member resolution: the
// class and superclass names, the implemented interfaces and the names of
// declared fields and methods. Code and other attributes are skipped.
//
// Model is the lookup abstraction used by member resolution. Loader
// implements it over a set of archives and is scoped to a single pass: it
// holds the archives open until Close. DeclaringClass walks a superclass
// chain in any Model to find the class that declares a named member.
//
// All class names are binary names in dotted form ("a.b.Outer$Inner").
package classfile
