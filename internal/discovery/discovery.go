// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
)

// zipSignatures are the leading bytes of a local file header and of an
// empty archive's end record.
var zipSignatures = [][]byte{
	[]byte("PK\x03\x04"),
	[]byte("PK\x05\x06"),
}

// ErrNotDirectory is returned when the classpath location is not a directory.
var ErrNotDirectory = errors.New("not a directory")

// Result lists the archives of a classpath directory.
type Result struct {
	// Archives are absolute paths sorted by file name.
	Archives    []string
	Diagnostics []Diagnostic
}

// Archives lists the zip archives directly inside dir. Subdirectories are
// not descended into. Regular files without a zip signature are reported as
// warnings.
func Archives(dir string) (*Result, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", dir, err)
	}
	st, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("%s: %w", abs, ErrNotDirectory)
	}

	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", abs, err)
	}

	res := &Result{}
	for _, e := range entries {
		p := filepath.Join(abs, e.Name())
		if e.IsDir() {
			continue
		}
		if e.Type()&os.ModeSymlink != 0 {
			target, err := os.Stat(p)
			if err != nil || !target.Mode().IsRegular() {
				res.Diagnostics = append(res.Diagnostics, NewDiagnosticWithCause(
					SeverityWarning, CodeSymlinkSkipped, "symbolic link does not point to a file", p, err))
				continue
			}
		} else if !e.Type().IsRegular() {
			continue
		}

		ok, err := IsArchive(p)
		switch {
		case err != nil:
			res.Diagnostics = append(res.Diagnostics, NewDiagnosticWithCause(
				SeverityError, CodeUnreadable, "cannot read file", p, err))
		case !ok:
			res.Diagnostics = append(res.Diagnostics, NewDiagnosticWithCause(
				SeverityWarning, CodeNotArchive, "skipping file that is not a zip archive", p, nil))
		default:
			res.Archives = append(res.Archives, p)
		}
	}
	slices.Sort(res.Archives)
	return res, nil
}

// IsArchive reports whether the file at p starts with a zip signature.
func IsArchive(p string) (bool, error) {
	f, err := os.Open(p)
	if err != nil {
		return false, err
	}
	defer f.Close()

	head := make([]byte, 4)
	if _, err := io.ReadFull(f, head); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return false, nil
		}
		return false, err
	}
	return slices.ContainsFunc(zipSignatures, func(sig []byte) bool {
		return bytes.Equal(head, sig)
	}), nil
}
