// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/invowk/loadremote/pkg/nuget"
)

// Feed is a directory feed built in a temporary directory.
type Feed struct {
	t   testing.TB
	Dir string
}

// NewFeed creates an empty Feed.
func NewFeed(t testing.TB) *Feed {
	t.Helper()
	return &Feed{t: t, Dir: t.TempDir()}
}

// AddPackage publishes id at version as `<id>.<version>.nupkg`.
func (f *Feed) AddPackage(id, version string, files map[string]string) string {
	f.t.Helper()
	content := filepath.Join(f.t.TempDir(), id)
	WriteFiles(f.t, content, files)

	path := filepath.Join(f.Dir, id+"."+version+nuget.PackageExtension)
	out, err := os.Create(path)
	if err != nil {
		f.t.Fatalf("failed to create package %s: %v", path, err)
	}
	defer DeferClose(f.t, out)()
	if err := nuget.WritePackage(out, content, id, version); err != nil {
		f.t.Fatalf("failed to pack %s %s: %v", id, version, err)
	}
	return path
}

// AddUnpacked publishes id at version as a `<id>/<version>/` directory.
func (f *Feed) AddUnpacked(id, version string, files map[string]string) string {
	f.t.Helper()
	dir := filepath.Join(f.Dir, id, version)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		f.t.Fatalf("failed to create %s: %v", dir, err)
	}
	WriteFiles(f.t, dir, files)
	return dir
}

// Source returns a DirSource over the feed.
func (f *Feed) Source() *nuget.DirSource {
	return nuget.NewDirSource(f.Dir)
}
