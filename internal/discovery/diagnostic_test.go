// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"errors"
	"strings"
	"testing"
)

func TestSeverity_IsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		severity Severity
		want     bool
	}{
		{SeverityWarning, true},
		{SeverityError, true},
		{"", false},
		{"WARNING", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.severity), func(t *testing.T) {
			t.Parallel()
			ok, errs := tt.severity.IsValid()
			if ok != tt.want {
				t.Errorf("Severity(%q).IsValid() = %v, want %v", tt.severity, ok, tt.want)
			}
			if !tt.want && (len(errs) == 0 || !errors.Is(errs[0], ErrInvalidSeverity)) {
				t.Errorf("errors = %v, want ErrInvalidSeverity", errs)
			}
		})
	}
}

func TestDiagnosticCode_IsValid(t *testing.T) {
	t.Parallel()

	for _, c := range []DiagnosticCode{CodeNotArchive, CodeUnreadable, CodeSymlinkSkipped} {
		if ok, errs := c.IsValid(); !ok || len(errs) > 0 {
			t.Errorf("DiagnosticCode(%q).IsValid() = %v, %v", c, ok, errs)
		}
	}
	ok, errs := DiagnosticCode("NOT_ARCHIVE").IsValid()
	if ok || len(errs) == 0 || !errors.Is(errs[0], ErrInvalidDiagnosticCode) {
		t.Errorf("IsValid() = %v, %v", ok, errs)
	}
}

func TestDiagnostic_String(t *testing.T) {
	t.Parallel()

	d := NewDiagnosticWithCause(SeverityError, CodeUnreadable, "cannot read file", "/x.jar", errors.New("denied"))
	if got := d.String(); got != "error: cannot read file (/x.jar): denied" {
		t.Errorf("String() = %q", got)
	}
	if got := NewDiagnostic(SeverityWarning, CodeNotArchive, "skip").String(); !strings.HasPrefix(got, "warning: skip") {
		t.Errorf("String() = %q", got)
	}
}
