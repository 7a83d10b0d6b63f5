// SPDX-License-Identifier: MPL-2.0

package substrate

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"atomos-cli/pkg/archive"
)

const (
	// IndexSeparator opens the block of each archive in the index.
	IndexSeparator = "ATOMOS_BUNDLE"
	// IndexPath is the location of the index inside a merged jar.
	IndexPath = "atomos/bundles.index"
	// IndexFileName is the name of the index in directory mode.
	IndexFileName = "bundles.index"
)

// ErrMalformedIndex is returned for index text that does not follow the
// block layout.
var ErrMalformedIndex = errors.New("malformed substrate index")

// WriteIndex writes the index blocks of infos in order. Absent symbolic
// names and versions are written as empty lines.
func WriteIndex(w io.Writer, infos []Info) error {
	bw := bufio.NewWriter(w)
	for _, info := range infos {
		lines := append([]string{
			IndexSeparator,
			strconv.Itoa(info.ID),
			info.SymbolicName,
			info.Version,
		}, info.Files...)
		for _, l := range lines {
			if _, err := bw.WriteString(l + "\n"); err != nil {
				return fmt.Errorf("write index: %w", err)
			}
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	return nil
}

// ReadIndex parses index text back into per-archive tuples. Path is left
// empty because the index does not record source locations.
func ReadIndex(r io.Reader) ([]Info, error) {
	var (
		infos  []Info
		header []string
		lineNo int
	)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for sc.Scan() {
		line := sc.Text()
		lineNo++

		if line == IndexSeparator {
			if header != nil {
				return nil, fmt.Errorf("%w: line %d: block header incomplete", ErrMalformedIndex, lineNo)
			}
			header = []string{}
			continue
		}
		if header == nil {
			if len(infos) == 0 {
				return nil, fmt.Errorf("%w: line %d: expected %s", ErrMalformedIndex, lineNo, IndexSeparator)
			}
			last := &infos[len(infos)-1]
			last.Files = append(last.Files, line)
			continue
		}

		header = append(header, line)
		if len(header) < 3 {
			continue
		}
		id, err := strconv.Atoi(header[0])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: bad id %q", ErrMalformedIndex, lineNo-2, header[0])
		}
		if id != len(infos) {
			return nil, fmt.Errorf("%w: line %d: id %d out of sequence", ErrMalformedIndex, lineNo-2, id)
		}
		infos = append(infos, Info{ID: id, SymbolicName: header[1], Version: header[2]})
		header = nil
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}
	if header != nil {
		return nil, fmt.Errorf("%w: truncated block header", ErrMalformedIndex)
	}
	return infos, nil
}

// ReadMergedIndex reads the index of substrate output at p: either a merged
// jar or an extraction directory.
func ReadMergedIndex(p string) ([]Info, error) {
	st, err := os.Stat(p)
	if err != nil {
		return nil, err
	}
	if st.IsDir() {
		f, err := os.Open(filepath.Join(p, IndexFileName))
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return ReadIndex(f)
	}

	var infos []Info
	err = archive.With(p, func(a *archive.Archive) error {
		data, err := a.ReadEntry(IndexPath)
		if err != nil {
			return err
		}
		infos, err = ReadIndex(bytes.NewReader(data))
		return err
	})
	if err != nil {
		return nil, err
	}
	return infos, nil
}
