// SPDX-License-Identifier: MPL-2.0

package script

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func writeScript(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func marker(n int, path string) string {
	return NewMarker(n, path).String()
}

func TestAnalyze_PlainScript(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeScript(t, dir, "build.cake", "var target = \"Default\";\r\nRunTarget(target);\n")

	res, err := NewAnalyzer().Analyze(context.Background(), path)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	want := []string{marker(1, path), `var target = "Default";`, "RunTarget(target);"}
	if !slices.Equal(res.Lines, want) {
		t.Errorf("Lines = %q, want %q", res.Lines, want)
	}
}

func TestAnalyze_EmptyFileHasNoMarker(t *testing.T) {
	t.Parallel()

	path := writeScript(t, t.TempDir(), "empty.cake", "")
	res, err := NewAnalyzer().Analyze(context.Background(), path)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(res.Lines) != 0 {
		t.Errorf("Lines = %q, want none", res.Lines)
	}
}

func TestAnalyze_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := NewAnalyzer().Analyze(context.Background(), filepath.Join(t.TempDir(), "nope.cake"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Analyze() error = %v, want os.ErrNotExist", err)
	}
}

func TestAnalyze_SideTables(t *testing.T) {
	t.Parallel()

	path := writeScript(t, t.TempDir(), "build.cake", strings.Join([]string{
		`#tool "nuget:?package=GitVersion.CommandLine"`,
		`#addin nuget:?package=Cake.Git`,
		`#tool "nuget:?package=GitVersion.CommandLine"`,
		`#r "System.Net.Http.dll"`,
		`#reference "System.Net.Http.dll"`,
		`using System.Text;`,
		`using Json = Newtonsoft.Json;`,
		`using System.Text;`,
		`using (var s = Open()) { }`,
		`Information("done");`,
	}, "\n"))

	res, err := NewAnalyzer().Analyze(context.Background(), path)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if want := []string{"nuget:?package=GitVersion.CommandLine", "nuget:?package=GitVersion.CommandLine"}; !slices.Equal(res.Tools, want) {
		t.Errorf("Tools = %q, want %q", res.Tools, want)
	}
	if want := []string{"nuget:?package=Cake.Git"}; !slices.Equal(res.Addins, want) {
		t.Errorf("Addins = %q, want %q", res.Addins, want)
	}
	if want := []string{"System.Net.Http.dll"}; !slices.Equal(res.References, want) {
		t.Errorf("References = %q, want %q", res.References, want)
	}
	if want := []string{"System.Text"}; !slices.Equal(res.Namespaces, want) {
		t.Errorf("Namespaces = %q, want %q", res.Namespaces, want)
	}
	if want := []string{"Json = Newtonsoft.Json"}; !slices.Equal(res.UsingAliases, want) {
		t.Errorf("UsingAliases = %q, want %q", res.UsingAliases, want)
	}

	// One output line per input line plus the leading marker.
	if len(res.Lines) != 11 {
		t.Fatalf("len(Lines) = %d, want 11: %q", len(res.Lines), res.Lines)
	}
	if res.Lines[6] != "" {
		t.Errorf("hoisted using line = %q, want blank", res.Lines[6])
	}
	if res.Lines[9] != `using (var s = Open()) { }` {
		t.Errorf("using statement was rewritten: %q", res.Lines[9])
	}
	if res.Lines[1] != `// #tool "nuget:?package=GitVersion.CommandLine"` {
		t.Errorf("tool directive replacement = %q", res.Lines[1])
	}
}

func TestAnalyze_LocalLoadInline(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	helper := writeScript(t, dir, "lib/helper.cake", "void Help() {}\nvoid More() {}\n")
	root := writeScript(t, dir, "build.cake", "#load \"lib/helper.cake\"\nHelp();\n#l lib/helper.cake\nMore();\n")

	res, err := NewAnalyzer().Analyze(context.Background(), root)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	want := []string{
		marker(1, root),
		`// #load "lib/helper.cake"`,
		marker(1, helper),
		"void Help() {}",
		"void More() {}",
		marker(2, root),
		"Help();",
		"// #l lib/helper.cake",
		"More();",
	}
	if !slices.Equal(res.Lines, want) {
		t.Errorf("Lines =\n%s\nwant\n%s", strings.Join(res.Lines, "\n"), strings.Join(want, "\n"))
	}
}

func TestAnalyzeWith_SharedLoadedSet(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := writeScript(t, dir, "a.cake", "#load \"b.cake\"\nvoid A() {}\n")
	b := writeScript(t, dir, "b.cake", "void B() {}\n")
	c := writeScript(t, dir, "c.cake", "#load b.cake\nvoid C() {}\n")

	loaded := NewLoadedSet()
	first, err := NewAnalyzer().AnalyzeWith(context.Background(), a, loaded)
	if err != nil {
		t.Fatalf("AnalyzeWith(a) error = %v", err)
	}
	wantFirst := []string{marker(1, a), `// #load "b.cake"`, marker(1, b), "void B() {}", marker(2, a), "void A() {}"}
	if !slices.Equal(first.Lines, wantFirst) {
		t.Errorf("a Lines = %q, want %q", first.Lines, wantFirst)
	}
	if !loaded.Has(a) || !loaded.Has(filepath.Join(dir, ".", "b.cake")) {
		t.Errorf("loaded = %v, want a and b", loaded)
	}

	second, err := NewAnalyzer().AnalyzeWith(context.Background(), c, loaded)
	if err != nil {
		t.Fatalf("AnalyzeWith(c) error = %v", err)
	}
	wantSecond := []string{marker(1, c), "// #load b.cake", "void C() {}"}
	if !slices.Equal(second.Lines, wantSecond) {
		t.Errorf("c Lines = %q, want %q", second.Lines, wantSecond)
	}

	// Without a shared set every analysis expands b again.
	third, err := NewAnalyzer().Analyze(context.Background(), c)
	if err != nil {
		t.Fatalf("Analyze(c) error = %v", err)
	}
	if !slices.Contains(third.Lines, "void B() {}") {
		t.Errorf("Lines = %q, want b expanded", third.Lines)
	}
}

func TestAnalyze_LocalLoadAtEndHasNoResumeMarker(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	helper := writeScript(t, dir, "helper.cake", "Help();")
	root := writeScript(t, dir, "build.cake", "var x = 1;\n#load local:?path=helper.cake\n")

	res, err := NewAnalyzer().Analyze(context.Background(), root)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	want := []string{marker(1, root), "var x = 1;", "// #load local:?path=helper.cake", marker(1, helper), "Help();"}
	if !slices.Equal(res.Lines, want) {
		t.Errorf("Lines = %q, want %q", res.Lines, want)
	}
}

func TestAnalyze_MissingLocalLoadIsRecorded(t *testing.T) {
	t.Parallel()

	root := writeScript(t, t.TempDir(), "build.cake", "#load missing.cake\nInformation(1);\n")
	res, err := NewAnalyzer().Analyze(context.Background(), root)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(res.Errors) != 1 {
		t.Fatalf("Errors = %v, want one", res.Errors)
	}
	var de *DirectiveError
	if !errors.As(res.Errors[0], &de) || de.Line != 1 {
		t.Errorf("Errors[0] = %v, want DirectiveError at line 1", res.Errors[0])
	}
	if got := res.Lines[len(res.Lines)-1]; got != "Information(1);" {
		t.Errorf("analysis did not continue past the failure, last line %q", got)
	}
}

func TestAnalyze_RemoteLoadLeftToOtherProcessors(t *testing.T) {
	t.Parallel()

	root := writeScript(t, t.TempDir(), "build.cake", "#load nuget:?package=Acme.Build\n")

	var seen []string
	remote := ProcessorFunc(func(c *Context, line string) (string, bool, error) {
		if !strings.Contains(line, "nuget:") {
			return "", false, nil
		}
		seen = append(seen, line)
		c.Result().Values.Add("remote", line)
		return "// remote", true, nil
	})

	res, err := NewAnalyzer(WithProcessors(remote)).Analyze(context.Background(), root)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(seen) != 1 || len(res.Values.Get("remote")) != 1 {
		t.Errorf("remote processor saw %q, values %v", seen, res.Values)
	}
	if res.Lines[1] != "// remote" {
		t.Errorf("Lines[1] = %q, want processor replacement", res.Lines[1])
	}

	// Without a remote processor the line passes through untouched.
	res, err = NewAnalyzer().Analyze(context.Background(), root)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if res.Lines[1] != "#load nuget:?package=Acme.Build" {
		t.Errorf("Lines[1] = %q, want untouched directive", res.Lines[1])
	}
}

func TestAnalyze_Canceled(t *testing.T) {
	t.Parallel()

	root := writeScript(t, t.TempDir(), "build.cake", "x\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewAnalyzer().Analyze(ctx, root); !errors.Is(err, context.Canceled) {
		t.Errorf("Analyze() error = %v, want context.Canceled", err)
	}
}

func TestHasScheme(t *testing.T) {
	t.Parallel()

	tests := []struct {
		target string
		want   bool
	}{
		{"nuget:?package=A", true},
		{"local:?path=a.cake", true},
		{`C:\scripts\a.cake`, false},
		{"scripts/a.cake", false},
		{"a.cake", false},
		{"git+https://host/repo.git", true},
	}
	for _, tt := range tests {
		if got := HasScheme(tt.target); got != tt.want {
			t.Errorf("HasScheme(%q) = %v, want %v", tt.target, got, tt.want)
		}
	}
}
