// SPDX-License-Identifier: MPL-2.0

package loadremote

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// LockFileVersion is the format version written to lock files.
const LockFileVersion = 1

type (
	// LockFile pins the packages a composition installed.
	LockFile struct {
		Version   int           `toml:"version"`
		Generated time.Time     `toml:"generated"`
		Packages  []LockPackage `toml:"package"`
	}

	// LockPackage is one installed package in a LockFile.
	LockPackage struct {
		Reference string `toml:"reference"`
		ID        string `toml:"id"`
		Version   string `toml:"version"`
		Parent    string `toml:"parent,omitempty"`
		// Files are slash paths relative to the install root.
		Files []string `toml:"files"`
	}
)

// NewLockFile records packages installed under root.
func NewLockFile(root string, packages []InstalledPackage, generated time.Time) *LockFile {
	lf := &LockFile{Version: LockFileVersion, Generated: generated.UTC()}
	for _, p := range packages {
		files := make([]string, 0, len(p.Files))
		for _, f := range p.Files {
			if rel, err := filepath.Rel(root, f); err == nil {
				f = rel
			}
			files = append(files, filepath.ToSlash(f))
		}
		lf.Packages = append(lf.Packages, LockPackage{
			Reference: p.Reference.Original,
			ID:        p.Reference.Name,
			Version:   p.Version,
			Parent:    p.Parent,
			Files:     files,
		})
	}
	return lf
}

// WriteLockFile writes lf to path as TOML.
func WriteLockFile(path string, lf *LockFile) error {
	data, err := toml.Marshal(lf)
	if err != nil {
		return fmt.Errorf("encoding lock file: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing lock file: %w", err)
	}
	return nil
}

// ReadLockFile parses the lock file at path.
func ReadLockFile(path string) (*LockFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading lock file: %w", err)
	}
	var lf LockFile
	if err := toml.Unmarshal(data, &lf); err != nil {
		return nil, fmt.Errorf("parsing lock file %s: %w", path, err)
	}
	if lf.Version != LockFileVersion {
		return nil, fmt.Errorf("unsupported lock file version %d", lf.Version)
	}
	return &lf, nil
}
