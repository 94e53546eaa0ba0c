// SPDX-License-Identifier: MPL-2.0

package loadremote

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"
)

func TestLockFile_WriteRead(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	build := mustRef(t, "nuget:?package=Acme.Build&version=1.0.0")
	common := mustRef(t, "nuget:?package=Acme.Common")
	packages := []InstalledPackage{
		{Reference: build, Version: "1.0.0", Files: []string{filepath.Join(root, "acme.build.1.0.0", "content", "a.cake")}},
		{Reference: common, Version: "2.3.0", Files: []string{filepath.Join(root, "acme.common.2.3.0", "common.cake")}, Parent: build.Original, Depth: 1},
	}
	generated := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	path := filepath.Join(t.TempDir(), "loadremote.lock")
	if err := WriteLockFile(path, NewLockFile(root, packages, generated)); err != nil {
		t.Fatalf("WriteLockFile() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "[[package]]") {
		t.Errorf("lock file lacks package tables:\n%s", data)
	}

	lf, err := ReadLockFile(path)
	if err != nil {
		t.Fatalf("ReadLockFile() error = %v", err)
	}
	if !lf.Generated.Equal(generated) || len(lf.Packages) != 2 {
		t.Fatalf("ReadLockFile() = %+v", lf)
	}
	if p := lf.Packages[1]; p.ID != "Acme.Common" || p.Version != "2.3.0" || p.Parent != build.Original {
		t.Errorf("Packages[1] = %+v", p)
	}
	if want := []string{"acme.build.1.0.0/content/a.cake"}; !slices.Equal(lf.Packages[0].Files, want) {
		t.Errorf("Files = %q, want %q", lf.Packages[0].Files, want)
	}
}

func TestReadLockFile_UnsupportedVersion(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "loadremote.lock")
	if err := os.WriteFile(path, []byte("version = 9\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadLockFile(path); err == nil {
		t.Fatal("ReadLockFile() error = nil, want unsupported version")
	}
}
