// SPDX-License-Identifier: MPL-2.0

package loadremote

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ConfigFileName is the package sidecar that declares file order.
const ConfigFileName = "config.json"

// FileOrderConfig is the content of a package's config.json.
type FileOrderConfig struct {
	// FileOrder lists file name suffixes in processing order.
	FileOrder []string `json:"FileOrder"`
}

// LoadFileOrder reads config.json from dir. A missing or blank file yields
// an empty config.
func LoadFileOrder(dir string) (FileOrderConfig, error) {
	path := filepath.Join(dir, ConfigFileName)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return FileOrderConfig{}, nil
	}
	if err != nil {
		return FileOrderConfig{}, &InvalidConfigError{Path: path, Reason: "config.json file could not be read", Cause: err}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return FileOrderConfig{}, nil
	}

	var cfg FileOrderConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return FileOrderConfig{}, &InvalidConfigError{Path: path, Reason: "config.json file is not in a valid json format", Cause: err}
	}
	return cfg, nil
}

// Bind maps every declared suffix to exactly one of files and returns the
// processing order: bound files in declared order, then the remaining
// files in their original order. path names config.json in errors.
func (c FileOrderConfig) Bind(path string, files []string) ([]string, error) {
	if len(c.FileOrder) == 0 {
		return files, nil
	}

	bound := make(map[int]string, len(c.FileOrder))
	ordered := make([]string, 0, len(files))
	for _, entry := range c.FileOrder {
		suffix := strings.ToLower(filepath.ToSlash(strings.TrimSpace(entry)))
		if suffix == "" {
			return nil, &InvalidConfigError{Path: path, Reason: "FileOrder contains an empty entry"}
		}

		match := -1
		for i, f := range files {
			if !strings.HasSuffix(strings.ToLower(filepath.ToSlash(f)), suffix) {
				continue
			}
			if match >= 0 {
				return nil, &InvalidConfigError{
					Path:   path,
					Reason: fmt.Sprintf("FileOrder entry %q is ambiguous: matches %s and %s", entry, files[match], f),
				}
			}
			match = i
		}
		if match < 0 {
			return nil, &InvalidConfigError{Path: path, Reason: fmt.Sprintf("FileOrder entry %q matches no installed file", entry)}
		}
		if prev, dup := bound[match]; dup {
			return nil, &InvalidConfigError{
				Path:   path,
				Reason: fmt.Sprintf("FileOrder entries %q and %q both match %s", prev, entry, files[match]),
			}
		}
		bound[match] = entry
		ordered = append(ordered, files[match])
	}

	for i, f := range files {
		if _, ok := bound[i]; !ok {
			ordered = append(ordered, f)
		}
	}
	return ordered, nil
}

// OrderFiles loads the file order declared next to the first file and
// applies it.
func OrderFiles(files []string) ([]string, error) {
	if len(files) == 0 {
		return files, nil
	}
	dir := filepath.Dir(files[0])
	cfg, err := LoadFileOrder(dir)
	if err != nil {
		return nil, err
	}
	return cfg.Bind(filepath.Join(dir, ConfigFileName), files)
}
