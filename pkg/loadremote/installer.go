// SPDX-License-Identifier: MPL-2.0

package loadremote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/invowk/loadremote/internal/dag"
	"github.com/invowk/loadremote/pkg/script"
)

const (
	// DefaultExtension is the script file extension packages are filtered by.
	DefaultExtension = ".cake"
	// DefaultMaxDepth bounds package nesting.
	DefaultMaxDepth = 32
	// DefaultRootNode names the root script in the import graph.
	DefaultRootNode = "script"
)

type (
	// Installer fetches a package and returns its files that carry the
	// given extension, in installer order. An empty result means failure.
	Installer interface {
		Install(ctx context.Context, ref PackageReference, extension, root string) ([]InstalledFile, error)
	}

	// Analyzer produces a fresh analysis result for a script file.
	Analyzer interface {
		Analyze(ctx context.Context, path string) (*script.Result, error)
	}

	// loadedAnalyzer is an Analyzer whose local loads can be checked
	// against a set shared across analyses.
	loadedAnalyzer interface {
		AnalyzeWith(ctx context.Context, path string, loaded script.LoadedSet) (*script.Result, error)
	}

	// InstalledFile is one file produced by installing a package.
	InstalledFile struct {
		Path string
		// Owner is the reference the file was installed for.
		Owner PackageReference
		// Version is the package version the installer resolved.
		Version string
	}

	// InstalledPackage records a package composed into the result.
	InstalledPackage struct {
		Reference PackageReference
		Version   string
		// Files are the installed files in processing order.
		Files []string
		// Parent is the Original of the importing package, empty for
		// packages loaded by the root script.
		Parent string
		Depth  int
	}

	// Option configures a RecursiveInstaller or a Composer.
	Option func(*options)

	options struct {
		extension string
		maxDepth  int
		rootNode  string
		logger    *log.Logger
		analyzer  Analyzer
	}

	// RecursiveInstaller installs package references depth-first, merging
	// every installed file into one composed Result.
	RecursiveInstaller struct {
		installer Installer
		analyzer  Analyzer
		root      string
		opts      options

		composed map[string]bool
		loaded   script.LoadedSet
		packages []InstalledPackage
		graph    *dag.Graph
	}
)

// WithExtension sets the script extension installed files are filtered by.
func WithExtension(ext string) Option {
	return func(o *options) {
		if ext != "" {
			o.extension = ext
		}
	}
}

// WithMaxDepth bounds package nesting. Values below 1 are ignored.
func WithMaxDepth(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxDepth = n
		}
	}
}

// WithRootNode names the root script in the import graph.
func WithRootNode(name string) Option {
	return func(o *options) {
		if name != "" {
			o.rootNode = name
		}
	}
}

// WithLogger sets the logger for installation progress.
func WithLogger(logger *log.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithAnalyzer replaces the analyzer a Composer builds by default.
func WithAnalyzer(a Analyzer) Option {
	return func(o *options) {
		o.analyzer = a
	}
}

func newOptions(opts []Option) options {
	o := options{
		extension: DefaultExtension,
		maxDepth:  DefaultMaxDepth,
		rootNode:  DefaultRootNode,
		logger:    log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewRecursiveInstaller creates a RecursiveInstaller that installs into root.
func NewRecursiveInstaller(installer Installer, analyzer Analyzer, root string, opts ...Option) *RecursiveInstaller {
	o := newOptions(opts)
	g := dag.New()
	g.AddNode(o.rootNode)
	return &RecursiveInstaller{
		installer: installer,
		analyzer:  analyzer,
		root:      root,
		opts:      o,
		composed:  make(map[string]bool),
		loaded:    script.NewLoadedSet(),
		graph:     g,
	}
}

// Install composes refs, found in the script whose lines start at index 0
// of res, into res.
func (ri *RecursiveInstaller) Install(ctx context.Context, refs []PackageReference, res *script.Result) error {
	return ri.install(ctx, directivesOf(refs), res, 0, nil)
}

// analyze runs the analyzer on path and records every file the result
// draws lines from, so that no file is expanded twice in one composition.
func (ri *RecursiveInstaller) analyze(ctx context.Context, path string) (*script.Result, error) {
	var (
		res *script.Result
		err error
	)
	if la, ok := ri.analyzer.(loadedAnalyzer); ok {
		res, err = la.AnalyzeWith(ctx, path, ri.loaded)
	} else {
		res, err = ri.analyzer.Analyze(ctx, path)
	}
	if err != nil {
		return nil, err
	}
	for _, line := range res.Lines {
		if m, ok := script.ParseMarker(line); ok {
			ri.loaded.Add(filepath.FromSlash(m.Path))
		}
	}
	return res, nil
}

// Packages returns the packages composed so far in installation order.
func (ri *RecursiveInstaller) Packages() []InstalledPackage {
	return slices.Clone(ri.packages)
}

// Graph returns the import graph recorded so far.
func (ri *RecursiveInstaller) Graph() *dag.Graph {
	return ri.graph
}

func (ri *RecursiveInstaller) install(ctx context.Context, dirs []Directive, res *script.Result, window int, chain []PackageReference) error {
	parentNode, parent := ri.opts.rootNode, ""
	if len(chain) > 0 {
		parentNode, parent = chain[len(chain)-1].Key(), chain[len(chain)-1].Original
	}

	for _, dir := range dirs {
		if err := ctx.Err(); err != nil {
			return err
		}
		ref := dir.Reference

		ri.graph.AddEdge(parentNode, ref.Key())
		if _, err := ri.graph.TopologicalSort(); err != nil {
			names := make([]string, 0, len(chain)+1)
			for _, c := range chain {
				names = append(names, c.Name)
			}
			return &ImportCycleError{Chain: append(names, ref.Name)}
		}

		if ri.composed[ref.Original] {
			ri.opts.logger.Debug("package already composed", "reference", ref.Original)
			continue
		}
		if len(chain) >= ri.opts.maxDepth {
			return &MaxDepthExceededError{Reference: ref, Limit: ri.opts.maxDepth}
		}
		ri.composed[ref.Original] = true

		ri.opts.logger.Info("installing package", "package", ref.Name, "version", ref.Version, "depth", len(chain))
		installed, err := ri.installer.Install(ctx, ref, ri.opts.extension, ri.root)
		if err != nil {
			return &InstallationFailedError{Reference: ref, Cause: err}
		}
		if len(installed) == 0 {
			return &InstallationFailedError{Reference: ref}
		}

		files := make([]string, 0, len(installed))
		for _, f := range installed {
			abs, err := filepath.Abs(f.Path)
			if err != nil {
				return &InstallationFailedError{Reference: ref, Cause: err}
			}
			files = append(files, abs)
		}
		ordered, err := OrderFiles(files)
		if err != nil {
			return err
		}
		ri.packages = append(ri.packages, InstalledPackage{
			Reference: ref,
			Version:   installed[0].Version,
			Files:     ordered,
			Parent:    parent,
			Depth:     len(chain),
		})

		from := len(res.Lines)
		nestedChain := append(slices.Clone(chain), ref)
		for _, file := range ordered {
			if ri.loaded.Has(file) {
				ri.opts.logger.Debug("file already loaded", "package", ref.Name, "path", file)
				continue
			}
			child, err := ri.analyze(ctx, file)
			if err != nil {
				return fmt.Errorf("failed to analyze %s: %w", file, err)
			}
			if len(child.Errors) > 0 {
				return errors.Join(child.Errors...)
			}

			start := len(res.Lines)
			res.Merge(child)
			if nested := Directives(child); len(nested) > 0 {
				if err := ri.install(ctx, nested, res, start, nestedChain); err != nil {
					return err
				}
			}
		}

		if err := Rearrange(res, Batch{
			Reference: ref,
			Files:     ordered,
			From:      from,
			Window:    window,
			Path:      dir.Path,
			Line:      dir.Line,
		}); err != nil {
			return err
		}
		ri.opts.logger.Debug("package composed", "package", ref.Name, "files", len(ordered))
	}
	return nil
}
