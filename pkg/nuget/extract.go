// SPDX-License-Identifier: MPL-2.0

package nuget

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// PackageExtension is the file extension of NuGet packages.
const PackageExtension = ".nupkg"

// ExtractFile extracts the nupkg at src into dest.
func ExtractFile(src, dest string) (err error) {
	zr, err := zip.OpenReader(src)
	if err != nil {
		return fmt.Errorf("%w: failed to open %s: %v", ErrInvalidPackage, src, err)
	}
	defer func() {
		if closeErr := zr.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return extract(&zr.Reader, dest)
}

// Extract extracts a nupkg read from r into dest.
func Extract(r io.ReaderAt, size int64, dest string) error {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPackage, err)
	}
	return extract(zr, dest)
}

func extract(zr *zip.Reader, dest string) error {
	absDest, err := filepath.Abs(dest)
	if err != nil {
		return fmt.Errorf("failed to resolve destination directory: %w", err)
	}
	if err := os.MkdirAll(absDest, 0o755); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}

	for _, file := range zr.File {
		name, err := url.PathUnescape(file.Name)
		if err != nil {
			name = file.Name
		}
		name = strings.ReplaceAll(name, `\`, "/")
		if isPackageMetadata(name) {
			continue
		}

		destPath := filepath.Join(absDest, filepath.FromSlash(name))
		relPath, relErr := filepath.Rel(absDest, destPath)
		if relErr != nil || relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) {
			return fmt.Errorf("%w: entry %s escapes the package root", ErrInvalidPackage, file.Name)
		}

		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(destPath, 0o755); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
			return fmt.Errorf("failed to create parent directory: %w", err)
		}
		if err := extractEntry(file, destPath); err != nil {
			return fmt.Errorf("failed to extract %s: %w", name, err)
		}
	}
	return nil
}

// isPackageMetadata reports whether name is packaging metadata rather than
// package content.
func isPackageMetadata(name string) bool {
	lower := strings.ToLower(strings.TrimPrefix(name, "/"))
	switch {
	case strings.HasPrefix(lower, "_rels/"), strings.HasPrefix(lower, "package/"):
		return true
	case lower == "[content_types].xml":
		return true
	case !strings.Contains(lower, "/") && strings.HasSuffix(lower, ".nuspec"):
		return true
	}
	return false
}

func extractEntry(file *zip.File, destPath string) (err error) {
	rc, err := file.Open()
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := rc.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	out, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	//nolint:gosec // G110: packages come from feeds the user configured
	_, err = io.Copy(out, rc)
	return err
}

// WritePackage packs the files under dir into a nupkg written to w. A
// minimal nuspec is generated for id and version.
func WritePackage(w io.Writer, dir, id, version string) (err error) {
	zw := zip.NewWriter(w)
	defer func() {
		if closeErr := zw.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	nuspec, err := zw.Create(id + ".nuspec")
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(nuspec, nuspecTemplate, id, version); err != nil {
		return err
	}

	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return fmt.Errorf("failed to get relative path: %w", err)
		}
		name := filepath.ToSlash(rel)
		if isPackageMetadata(name) {
			return nil
		}

		entry, err := zw.CreateHeader(&zip.FileHeader{Name: escapeEntryName(name), Method: zip.Deflate})
		if err != nil {
			return fmt.Errorf("failed to create zip entry: %w", err)
		}
		f, err := os.Open(p)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(entry, f)
		return err
	})
}

// escapeEntryName percent-encodes each segment of name the way NuGet
// writes entry names.
func escapeEntryName(name string) string {
	segments := strings.Split(name, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return path.Join(segments...)
}

const nuspecTemplate = `<?xml version="1.0" encoding="utf-8"?>
<package xmlns="http://schemas.microsoft.com/packaging/2013/05/nuspec.xsd">
  <metadata>
    <id>%s</id>
    <version>%s</version>
    <authors>loadremote</authors>
    <description>Script package</description>
  </metadata>
</package>
`
