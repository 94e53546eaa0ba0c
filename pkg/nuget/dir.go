// SPDX-License-Identifier: MPL-2.0

package nuget

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

type (
	// DirSource reads packages from a local directory. A package version
	// is either a `<id>.<version>.nupkg` file or a `<id>/<version>/`
	// directory holding unpacked content or a nupkg.
	DirSource struct {
		root string
	}

	// dirEntry locates one package version inside a DirSource.
	dirEntry struct {
		version string
		path    string
		// packed is set when path is a nupkg file.
		packed bool
	}
)

// NewDirSource creates a DirSource over root.
func NewDirSource(root string) *DirSource {
	return &DirSource{root: root}
}

// Root returns the feed directory.
func (s *DirSource) Root() string { return s.root }

// Versions implements Source.
func (s *DirSource) Versions(ctx context.Context, id string) ([]string, error) {
	entries, err := s.entries(ctx, id)
	if err != nil {
		return nil, err
	}
	versions := make([]string, 0, len(entries))
	for _, e := range entries {
		versions = append(versions, e.version)
	}
	return versions, nil
}

// Fetch implements Source.
func (s *DirSource) Fetch(ctx context.Context, id, version, dest string) error {
	e, err := s.find(ctx, id, version)
	if err != nil {
		return err
	}
	if e.packed {
		return ExtractFile(e.path, dest)
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}
	if err := os.CopyFS(dest, os.DirFS(e.path)); err != nil {
		return fmt.Errorf("failed to copy %s: %w", e.path, err)
	}
	return nil
}

// Pack writes one version of id as a nupkg to w, packing unpacked
// directories on the fly.
func (s *DirSource) Pack(ctx context.Context, id, version string, w io.Writer) error {
	e, err := s.find(ctx, id, version)
	if err != nil {
		return err
	}
	if !e.packed {
		return WritePackage(w, e.path, id, e.version)
	}
	f, err := os.Open(e.path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return err
}

func (s *DirSource) find(ctx context.Context, id, version string) (dirEntry, error) {
	entries, err := s.entries(ctx, id)
	if err != nil {
		return dirEntry{}, err
	}
	want := NormalizeVersion(version)
	for _, e := range entries {
		if NormalizeVersion(e.version) == want {
			return e, nil
		}
	}
	return dirEntry{}, fmt.Errorf("%w: %s %s in %s", ErrPackageNotFound, id, version, s.root)
}

func (s *DirSource) entries(ctx context.Context, id string) ([]dirEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	items, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("reading feed directory: %w", err)
	}

	prefix := strings.ToLower(id) + "."
	var entries []dirEntry
	for _, item := range items {
		name := item.Name()
		lower := strings.ToLower(name)
		switch {
		case item.IsDir() && lower == strings.ToLower(id):
			versions, err := s.versionDirs(filepath.Join(s.root, name))
			if err != nil {
				return nil, err
			}
			entries = append(entries, versions...)
		case !item.IsDir() && strings.HasPrefix(lower, prefix) && strings.HasSuffix(lower, PackageExtension):
			version := name[len(prefix) : len(name)-len(PackageExtension)]
			if version == "" || version[0] < '0' || version[0] > '9' {
				continue
			}
			entries = append(entries, dirEntry{version: version, path: filepath.Join(s.root, name), packed: true})
		}
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s in %s", ErrPackageNotFound, id, s.root)
	}
	return entries, nil
}

// versionDirs lists the version directories of one package directory. A
// version directory holding a nupkg is served from that file.
func (s *DirSource) versionDirs(dir string) ([]dirEntry, error) {
	items, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading package directory: %w", err)
	}
	var entries []dirEntry
	for _, item := range items {
		if !item.IsDir() {
			continue
		}
		path := filepath.Join(dir, item.Name())
		entry := dirEntry{version: item.Name(), path: path}
		if nupkgs, _ := filepath.Glob(filepath.Join(path, "*"+PackageExtension)); len(nupkgs) == 1 {
			entry.path, entry.packed = nupkgs[0], true
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
