// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"errors"
	"fmt"
)

const (
	// SeverityWarning indicates a skipped input.
	SeverityWarning Severity = "warning"
	// SeverityError indicates an input that could not be inspected.
	SeverityError Severity = "error"

	// CodeNotArchive marks a regular file without a zip signature.
	CodeNotArchive DiagnosticCode = "not_archive"
	// CodeUnreadable marks a file whose signature could not be read.
	CodeUnreadable DiagnosticCode = "unreadable"
	// CodeSymlinkSkipped marks a symbolic link that does not resolve to a
	// regular file.
	CodeSymlinkSkipped DiagnosticCode = "symlink_skipped"
)

var (
	// ErrInvalidSeverity is returned by Severity.IsValid.
	ErrInvalidSeverity = errors.New("invalid diagnostic severity")
	// ErrInvalidDiagnosticCode is returned by DiagnosticCode.IsValid.
	ErrInvalidDiagnosticCode = errors.New("invalid diagnostic code")
)

type (
	// Severity represents diagnostic severity.
	Severity string

	// DiagnosticCode is a machine-readable diagnostic identifier.
	DiagnosticCode string

	// Diagnostic is a non-fatal discovery finding.
	Diagnostic struct {
		Severity Severity
		Code     DiagnosticCode
		Message  string
		// Path is the file the diagnostic is about.
		Path string
		// Cause is the underlying error, if any.
		Cause error
	}
)

// IsValid reports whether s is a known severity.
func (s Severity) IsValid() (bool, []error) {
	switch s {
	case SeverityWarning, SeverityError:
		return true, nil
	default:
		return false, []error{fmt.Errorf("%w: %q", ErrInvalidSeverity, string(s))}
	}
}

// IsValid reports whether c is a known diagnostic code.
func (c DiagnosticCode) IsValid() (bool, []error) {
	switch c {
	case CodeNotArchive, CodeUnreadable, CodeSymlinkSkipped:
		return true, nil
	default:
		return false, []error{fmt.Errorf("%w: %q", ErrInvalidDiagnosticCode, string(c))}
	}
}

// NewDiagnostic returns a diagnostic without path or cause.
func NewDiagnostic(sev Severity, code DiagnosticCode, msg string) Diagnostic {
	return Diagnostic{Severity: sev, Code: code, Message: msg}
}

// NewDiagnosticWithCause returns a diagnostic for path caused by err.
func NewDiagnosticWithCause(sev Severity, code DiagnosticCode, msg, path string, err error) Diagnostic {
	return Diagnostic{Severity: sev, Code: code, Message: msg, Path: path, Cause: err}
}

// String renders the diagnostic on one line.
func (d Diagnostic) String() string {
	s := fmt.Sprintf("%s: %s", d.Severity, d.Message)
	if d.Path != "" {
		s += " (" + d.Path + ")"
	}
	if d.Cause != nil {
		s += ": " + d.Cause.Error()
	}
	return s
}
