// SPDX-License-Identifier: MPL-2.0

package loadremote

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/invowk/loadremote/internal/dag"
	"github.com/invowk/loadremote/pkg/script"
)

type (
	// Composition is a fully expanded root script.
	Composition struct {
		Result   *script.Result
		Packages []InstalledPackage
		Graph    *dag.Graph
	}

	// Composer expands the remote loads of root scripts.
	Composer struct {
		installer Installer
		root      string
		opts      []Option
		analyzer  Analyzer
	}
)

// NewComposer creates a Composer that installs packages into root. Unless
// WithAnalyzer is given, it analyzes scripts with the built-in processors
// preceded by a DirectiveMatcher.
func NewComposer(installer Installer, root string, opts ...Option) *Composer {
	o := newOptions(opts)
	analyzer := o.analyzer
	if analyzer == nil {
		analyzer = script.NewAnalyzer(
			script.WithProcessors(NewDirectiveMatcher()),
			script.WithLogger(o.logger),
		)
	}
	return &Composer{installer: installer, root: root, opts: opts, analyzer: analyzer}
}

// Compose analyzes the script at path and installs every package it loads,
// directly or through other packages.
func (c *Composer) Compose(ctx context.Context, path string) (*Composition, error) {
	opts := append([]Option{WithRootNode("script:" + filepath.Base(path))}, c.opts...)
	ri := NewRecursiveInstaller(c.installer, c.analyzer, c.root, opts...)

	res, err := ri.analyze(ctx, path)
	if err != nil {
		return nil, err
	}
	if len(res.Errors) > 0 {
		return nil, errors.Join(res.Errors...)
	}
	if err := ri.install(ctx, Directives(res), res, 0, nil); err != nil {
		return nil, err
	}
	return &Composition{Result: res, Packages: ri.Packages(), Graph: ri.Graph()}, nil
}
