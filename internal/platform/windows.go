// SPDX-License-Identifier: MPL-2.0

// Package platform holds file system rules that differ between operating
// systems.
package platform

import (
	"runtime"
	"strings"
)

// windowsReservedNames cannot be used as a path segment on Windows, with or
// without an extension.
var windowsReservedNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true,
	"COM5": true, "COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true,
	"LPT5": true, "LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// IsWindowsReservedName reports whether a single path segment is reserved on
// Windows. Only the part before the first dot is compared.
func IsWindowsReservedName(segment string) bool {
	base, _, _ := strings.Cut(segment, ".")
	return windowsReservedNames[strings.ToUpper(strings.TrimRight(base, " "))]
}

// ReservedSegment returns the first segment of the slash-separated entry
// name that cannot be created as a file on goos: reserved device names and
// names ending in a dot or space on Windows. Other systems accept every
// segment.
func ReservedSegment(goos, name string) (string, bool) {
	if goos != "windows" {
		return "", false
	}
	for seg := range strings.SplitSeq(name, "/") {
		if seg == "" {
			continue
		}
		if IsWindowsReservedName(seg) || strings.HasSuffix(seg, ".") || strings.HasSuffix(seg, " ") {
			return seg, true
		}
	}
	return "", false
}

// ReservedSegmentHere is ReservedSegment for the running system.
func ReservedSegmentHere(name string) (string, bool) {
	return ReservedSegment(runtime.GOOS, name)
}
