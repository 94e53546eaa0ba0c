// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"

	"github.com/invowk/loadremote/internal/config"
	"github.com/invowk/loadremote/internal/issue"
	"github.com/invowk/loadremote/pkg/loadremote"
	"github.com/invowk/loadremote/pkg/nuget"
)

func TestMain(m *testing.M) {
	testscript.Main(m, map[string]func(){
		"loadremote": Execute,
	})
}

// TestCLI runs the scenarios in testdata against the in-process binary.
func TestCLI(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir: "testdata",
		Setup: func(env *testscript.Env) error {
			env.Setenv("NO_COLOR", "1")
			env.Setenv("HOME", env.WorkDir)
			env.Setenv("XDG_CONFIG_HOME", filepath.Join(env.WorkDir, ".config"))
			env.Setenv(config.PackagesPathEnv, filepath.Join(env.WorkDir, "packages"))
			return nil
		},
	})
}

func TestRenderError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		err   error
		want  []string
		empty bool
	}{
		{
			name: "classified",
			err:  wrapFailure(&loadremote.ImportCycleError{Chain: []string{"A", "B", "A"}}, "compose script", "build.cake"),
			want: []string{"failed to compose script: build.cake", "A -> B -> A", "Import cycle"},
		},
		{
			name: "plain",
			err:  errors.New("boom"),
			want: []string{"Error: boom"},
		},
		{
			name:  "silent exit",
			err:   &ExitError{Code: 2},
			empty: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			renderError(&buf, tt.err, false)
			if tt.empty {
				if buf.Len() != 0 {
					t.Errorf("renderError() wrote %q, want nothing", buf.String())
				}
				return
			}
			for _, want := range tt.want {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("renderError() output missing %q:\n%s", want, buf.String())
				}
			}
		})
	}
}

func TestWrapFailureKeepsContext(t *testing.T) {
	t.Parallel()

	inner := wrapFailure(os.ErrNotExist, "read script", "a.cake")
	if got := wrapFailure(inner, "compose script", "b.cake"); got != inner {
		t.Errorf("wrapFailure() rewrapped an actionable error: %v", got)
	}
	if wrapFailure(nil, "x", "y") != nil {
		t.Error("wrapFailure(nil) should be nil")
	}
	if !errors.Is(inner, os.ErrNotExist) {
		t.Error("wrapFailure() should keep the cause")
	}
}

func TestExitError(t *testing.T) {
	t.Parallel()

	cause := errors.New("bad")
	if (&ExitError{Code: 3}).Error() != "exit status 3" {
		t.Error("ExitError without cause should report the code")
	}
	if err := (&ExitError{Code: 1, Err: cause}); err.Error() != "bad" || !errors.Is(err, cause) {
		t.Error("ExitError should report and unwrap its cause")
	}
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"explicit", &ExitError{Code: 7}, 7},
		{"wrapped explicit", fmt.Errorf("run: %w", &ExitError{Code: 4}), 4},
		{"malformed reference", &loadremote.MalformedReferenceError{Value: "nuget:", Reason: "missing package"}, exitUsage},
		{"configuration", issue.NewErrorContext().
			WithOperation("load configuration").
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(config.ErrInvalidConfig).
			BuildError(), exitUsage},
		{"feed unavailable", fmt.Errorf("fetch index: %w", nuget.ErrNetwork), exitUnavailable},
		{"other", errors.New("boom"), exitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
