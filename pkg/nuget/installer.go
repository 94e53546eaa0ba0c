// SPDX-License-Identifier: MPL-2.0

package nuget

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/invowk/loadremote/pkg/loadremote"
)

// completeMarker is written into a package directory after extraction
// succeeded.
const completeMarker = ".loadremote-complete"

type (
	// Installer installs package references from their sources into an
	// install root. It implements loadremote.Installer.
	Installer struct {
		defaultSource string
		config        SourceConfig
		cache         IndexCache
		cacheTTL      time.Duration
		logger        *log.Logger

		mu      sync.Mutex
		sources map[string]Source
	}

	// InstallerOption configures an Installer.
	InstallerOption func(*Installer)
)

// WithDefaultSource sets the source used by references without one.
func WithDefaultSource(location string) InstallerOption {
	return func(i *Installer) {
		if location != "" {
			i.defaultSource = location
		}
	}
}

// WithSourceConfig sets the settings for sources the installer opens.
func WithSourceConfig(cfg SourceConfig) InstallerOption {
	return func(i *Installer) {
		i.config = cfg
	}
}

// WithIndexCache caches version indexes in c for ttl.
func WithIndexCache(c IndexCache, ttl time.Duration) InstallerOption {
	return func(i *Installer) {
		if c != nil {
			i.cache = c
			i.cacheTTL = ttl
		}
	}
}

// WithSource registers src for location instead of opening it.
func WithSource(location string, src Source) InstallerOption {
	return func(i *Installer) {
		i.sources[location] = src
	}
}

// WithInstallerLogger sets the logger for install progress.
func WithInstallerLogger(logger *log.Logger) InstallerOption {
	return func(i *Installer) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// NewInstaller creates an Installer.
func NewInstaller(opts ...InstallerOption) *Installer {
	i := &Installer{
		defaultSource: DefaultSource,
		cache:         NullCache{},
		cacheTTL:      DefaultCacheTTL,
		logger:        log.New(io.Discard),
		sources:       make(map[string]Source),
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.config.Logger == nil {
		i.config.Logger = i.logger
	}
	return i
}

// Install implements loadremote.Installer. The selected version is
// extracted to `<root>/<id>.<version>/` unless a completed extraction is
// already there, and the files with extension are returned in lexical
// order.
func (i *Installer) Install(ctx context.Context, ref loadremote.PackageReference, extension, root string) ([]loadremote.InstalledFile, error) {
	location := ref.Source
	if location == "" {
		location = i.defaultSource
	}
	src, err := i.source(location)
	if err != nil {
		return nil, err
	}

	version, err := i.Resolve(ctx, src, location, ref)
	if err != nil {
		return nil, err
	}

	dir := filepath.Join(root, strings.ToLower(ref.Name)+"."+NormalizeVersion(version))
	if !isComplete(dir) {
		if err := i.extract(ctx, src, ref.Name, version, root, dir); err != nil {
			return nil, err
		}
	} else {
		i.logger.Debug("reusing installed package", "package", ref.Name, "version", version, "dir", dir)
	}

	paths, err := ScriptFiles(dir, extension)
	if err != nil {
		return nil, err
	}
	files := make([]loadremote.InstalledFile, 0, len(paths))
	for _, p := range paths {
		files = append(files, loadremote.InstalledFile{Path: p, Owner: ref, Version: version})
	}
	return files, nil
}

// Resolve selects the version of ref to install from src.
func (i *Installer) Resolve(ctx context.Context, src Source, location string, ref loadremote.PackageReference) (string, error) {
	key := location + "|" + strings.ToLower(ref.Name)

	var versions []string
	if data, hit, err := i.cache.Get(ctx, key); err == nil && hit {
		versions = strings.Split(string(data), "\n")
	} else {
		versions, err = src.Versions(ctx, ref.Name)
		if err != nil {
			return "", err
		}
		if err := i.cache.Set(ctx, key, []byte(strings.Join(versions, "\n")), i.cacheTTL); err != nil {
			i.logger.Warn("failed to cache version index", "package", ref.Name, "error", err)
		}
	}

	version, err := SelectVersion(ref.Name, versions, ref.Version, ref.Prerelease)
	if err != nil {
		return "", err
	}
	i.logger.Debug("selected package version", "package", ref.Name, "version", version, "available", len(versions))
	return version, nil
}

// extract fetches a package into a staging directory and renames it into
// place.
func (i *Installer) extract(ctx context.Context, src Source, id, version, root, dir string) error {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("failed to create install root: %w", err)
	}
	stage := filepath.Join(root, ".staging-"+uuid.NewString())
	defer func() { _ = os.RemoveAll(stage) }()

	i.logger.Info("fetching package", "package", id, "version", version)
	if err := src.Fetch(ctx, id, version, stage); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(stage, completeMarker), []byte(version+"\n"), 0o644); err != nil {
		return err
	}

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove incomplete package: %w", err)
	}
	if err := os.Rename(stage, dir); err != nil {
		// Another process finished the same package first.
		if isComplete(dir) {
			return nil
		}
		return fmt.Errorf("failed to move package into place: %w", err)
	}
	return nil
}

func (i *Installer) source(location string) (Source, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if src, ok := i.sources[location]; ok {
		return src, nil
	}
	src, err := OpenSource(location, i.config)
	if err != nil {
		return nil, err
	}
	i.sources[location] = src
	return src, nil
}

func isComplete(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, completeMarker))
	return err == nil
}

// ScriptFiles returns the files under dir whose extension matches ext
// case-insensitively, in lexical path order.
func ScriptFiles(dir, ext string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ext) {
			files = append(files, path)
		}
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	slices.Sort(files)
	return files, err
}
