// SPDX-License-Identifier: MPL-2.0

package dag

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/goccy/go-graphviz"
)

// Output formats accepted by Render.
const (
	FormatDOT = "dot"
	FormatSVG = "svg"
	FormatPNG = "png"
)

// FormatFor returns the render format implied by a file extension.
func FormatFor(path string) (string, error) {
	switch ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")); ext {
	case FormatDOT, "gv":
		return FormatDOT, nil
	case FormatSVG, FormatPNG:
		return ext, nil
	default:
		return "", fmt.Errorf("unsupported graph format %q (want .dot, .svg or .png)", filepath.Ext(path))
	}
}

// Render writes the graph named name to w. DOT is written directly; SVG
// and PNG go through the embedded Graphviz renderer.
func (g *Graph) Render(ctx context.Context, name, format string, w io.Writer) error {
	dot := g.DOT(name)
	if format == FormatDOT {
		_, err := io.WriteString(w, dot)
		return err
	}

	var gvFormat graphviz.Format
	switch format {
	case FormatSVG:
		gvFormat = graphviz.SVG
	case FormatPNG:
		gvFormat = graphviz.PNG
	default:
		return fmt.Errorf("unsupported graph format %q", format)
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	parsed, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return fmt.Errorf("parse DOT: %w", err)
	}
	defer parsed.Close()

	if err := gv.Render(ctx, parsed, gvFormat, w); err != nil {
		return fmt.Errorf("render %s: %w", format, err)
	}
	return nil
}
