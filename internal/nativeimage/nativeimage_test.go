// SPDX-License-Identifier: MPL-2.0

package nativeimage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

const (
	graalScript = `#!/bin/sh
if [ "$1" = "--version" ]; then
  echo "native-image 21.0.2 2024-01-16"
  echo "GraalVM Runtime Environment GraalVM CE 21.0.2+13.1"
  exit 0
fi
echo "cwd=$(pwd)"
for a in "$@"; do echo "arg=$a"; done
exit ${FAKE_EXIT:-0}
`
	otherScript = `#!/bin/sh
echo "openjdk 21"
`
)

func writeScript(t *testing.T, p, body string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(body), 0o755); err != nil {
		t.Fatal(err)
	}
	return p
}

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fixtures need a POSIX shell")
	}
}

func TestFind(t *testing.T) {
	skipOnWindows(t)

	home := t.TempDir()
	exe := writeScript(t, filepath.Join(home, "bin", ExecutableName), graalScript)
	notGraal := writeScript(t, filepath.Join(t.TempDir(), ExecutableName), otherScript)

	tests := []struct {
		name       string
		configured string
		graalHome  string
		javaHome   string
		want       string
		wantErr    bool
	}{
		{name: "configured file", configured: exe, want: exe},
		{name: "configured home", configured: home, want: exe},
		{name: "graal home", graalHome: home, want: exe},
		{name: "java home", javaHome: home, want: exe},
		{name: "non graal falls through", configured: notGraal, javaHome: home, want: exe},
		{name: "nothing", configured: notGraal, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("PATH", t.TempDir())
			t.Setenv(EnvGraalHome, tt.graalHome)
			t.Setenv(EnvJavaHome, tt.javaHome)

			got, err := Find(context.Background(), tt.configured)
			if tt.wantErr {
				if !errors.Is(err, ErrExecutableNotFound) {
					t.Fatalf("Find() error = %v, want ErrExecutableNotFound", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Find() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Find() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFind_OnPath(t *testing.T) {
	skipOnWindows(t)

	dir := t.TempDir()
	exe := writeScript(t, filepath.Join(dir, ExecutableName), graalScript)
	t.Setenv("PATH", dir)
	t.Setenv(EnvGraalHome, "")
	t.Setenv(EnvJavaHome, "")

	got, err := Find(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if got != exe {
		t.Errorf("Find() = %q, want %q", got, exe)
	}
}

func TestRun(t *testing.T) {
	skipOnWindows(t)

	exe := writeScript(t, filepath.Join(t.TempDir(), ExecutableName), graalScript)
	work := t.TempDir()
	var stdout bytes.Buffer

	err := Run(context.Background(), RunOptions{
		Exec:      exe,
		Classpath: "/a.jar:/b.jar",
		Args:      []string{"--no-fallback", "-H:Name=app"},
		Dir:       work,
		Stdout:    &stdout,
		Stderr:    io.Discard,
		Logger:    log.New(io.Discard),
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	out := stdout.String()
	for _, want := range []string{"arg=-cp", "arg=/a.jar:/b.jar", "arg=--no-fallback", "arg=-H:Name=app"} {
		if !strings.Contains(out, want+"\n") {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	resolved, _ := filepath.EvalSymlinks(work)
	if !strings.Contains(out, "cwd="+work) && !strings.Contains(out, "cwd="+resolved) {
		t.Errorf("working directory not set:\n%s", out)
	}
}

func TestRun_NonZeroExit(t *testing.T) {
	skipOnWindows(t)

	exe := writeScript(t, filepath.Join(t.TempDir(), ExecutableName), graalScript)
	t.Setenv("FAKE_EXIT", "3")

	err := Run(context.Background(), RunOptions{
		Exec:   exe,
		Dir:    t.TempDir(),
		Stdout: io.Discard,
		Stderr: io.Discard,
		Logger: log.New(io.Discard),
	})
	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 3 {
		t.Fatalf("Run() error = %v, want exit code 3", err)
	}
}
