// SPDX-License-Identifier: MPL-2.0

// Package nativeimage locates and runs the GraalVM native-image compiler.
package nativeimage

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

const (
	// ExecutableName is the compiler's file name.
	ExecutableName = "native-image"
	// VersionMarker must appear in the output of --version.
	VersionMarker = "GraalVM"

	// EnvGraalHome and EnvJavaHome are consulted when no executable is
	// configured or on PATH.
	EnvGraalHome = "GRAAL_HOME"
	EnvJavaHome  = "JAVA_HOME"

	versionTimeout = 30 * time.Second
)

// ErrExecutableNotFound is returned when no candidate qualifies.
var ErrExecutableNotFound = errors.New("native-image executable not found")

type (
	// RunOptions describe one compiler invocation.
	RunOptions struct {
		Exec      string
		Classpath string
		Args      []string
		// Dir is the working directory, normally the output directory.
		Dir    string
		Stdout io.Writer
		Stderr io.Writer
		Logger *log.Logger
	}

	// ExitError reports a non-zero compiler exit.
	ExitError struct {
		Code int
	}
)

func (e *ExitError) Error() string {
	return fmt.Sprintf("native-image exited with code %d", e.Code)
}

// Find returns the first qualifying executable among the configured path,
// native-image on PATH, $GRAAL_HOME and $JAVA_HOME. Directories are searched
// for native-image and then bin/native-image.
func Find(ctx context.Context, configured string) (string, error) {
	var candidates []string
	if configured != "" {
		candidates = append(candidates, configured)
	}
	if p, err := exec.LookPath(ExecutableName); err == nil {
		candidates = append(candidates, p)
	}
	for _, env := range []string{EnvGraalHome, EnvJavaHome} {
		if v := os.Getenv(env); v != "" {
			candidates = append(candidates, v)
		}
	}

	for _, c := range candidates {
		if p, ok := probe(ctx, c); ok {
			abs, err := filepath.Abs(p)
			if err != nil {
				return p, nil
			}
			return abs, nil
		}
	}
	return "", fmt.Errorf("%w (searched %s)", ErrExecutableNotFound, strings.Join(candidates, ", "))
}

// probe resolves a candidate path to a qualifying executable.
func probe(ctx context.Context, p string) (string, bool) {
	st, err := os.Stat(p)
	if err != nil {
		return "", false
	}
	if st.IsDir() {
		if found, ok := probe(ctx, filepath.Join(p, ExecutableName)); ok {
			return found, true
		}
		return probe(ctx, filepath.Join(p, "bin"))
	}
	return p, IsGraalVM(ctx, p)
}

// IsGraalVM reports whether running p --version prints the GraalVM marker.
func IsGraalVM(ctx context.Context, p string) bool {
	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, p, "--version").Output()
	if err != nil && len(out) == 0 {
		return false
	}
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		if strings.Contains(sc.Text(), VersionMarker) {
			return true
		}
	}
	return false
}

// Command returns the configured but unstarted invocation.
func Command(ctx context.Context, o RunOptions) *exec.Cmd {
	args := append([]string{"-cp", o.Classpath}, o.Args...)
	cmd := exec.CommandContext(ctx, o.Exec, args...)
	cmd.Dir = o.Dir
	cmd.Stdin = os.Stdin
	cmd.Stdout = o.Stdout
	cmd.Stderr = o.Stderr
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	return cmd
}

// Run executes native-image and waits for it. A non-zero exit is returned
// as *ExitError.
func Run(ctx context.Context, o RunOptions) error {
	logger := o.Logger
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "native-image"})
	}
	cmd := Command(ctx, o)
	logger.Info("running", "exec", o.Exec, "dir", o.Dir, "args", len(o.Args))

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ExitError{Code: exitErr.ExitCode()}
		}
		return fmt.Errorf("run %s: %w", o.Exec, err)
	}
	return nil
}
