// SPDX-License-Identifier: MPL-2.0

package script

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

type (
	// Processor handles directive lines. A processor that recognizes line
	// returns the text to emit in its place and handled=true. A non-nil
	// error is recorded on the Result; the replacement is still emitted
	// when handled is true.
	Processor interface {
		Process(c *Context, line string) (replacement string, handled bool, err error)
	}

	// ProcessorFunc adapts a function to the Processor interface.
	ProcessorFunc func(c *Context, line string) (string, bool, error)

	// Option configures an Analyzer.
	Option func(*Analyzer)

	// Analyzer turns script files into Results.
	Analyzer struct {
		processors []Processor
		logger     *log.Logger
	}

	// Context is the per-analysis state handed to processors.
	Context struct {
		ctx      context.Context
		analyzer *Analyzer
		result   *Result
		stack    []string
		line     int
		loaded   LoadedSet
		pending  []string
	}

	// LoadedSet holds the cleaned paths of the files expanded so far.
	// Analyses that share one set expand every file at most once between
	// them.
	LoadedSet map[string]bool

	// DirectiveError locates a directive failure in its source file.
	DirectiveError struct {
		Path string
		Line int
		Err  error
	}
)

// Process implements Processor.
func (f ProcessorFunc) Process(c *Context, line string) (string, bool, error) {
	return f(c, line)
}

func (e *DirectiveError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.Path, e.Line, e.Err)
}

func (e *DirectiveError) Unwrap() error { return e.Err }

// WithProcessors registers processors that run before the built-in ones,
// in the order given.
func WithProcessors(p ...Processor) Option {
	return func(a *Analyzer) {
		a.processors = append(a.processors, p...)
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *log.Logger) Option {
	return func(a *Analyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAnalyzer creates an Analyzer with the built-in processors appended
// after any supplied through WithProcessors.
func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{logger: log.New(io.Discard)}
	for _, opt := range opts {
		opt(a)
	}
	a.processors = append(a.processors, DefaultProcessors()...)
	return a
}

// Analyze reads the script at path and returns a fresh Result. Directive
// failures are collected in Result.Errors; the returned error is reserved
// for failures to read path itself and for cancellation.
func (a *Analyzer) Analyze(ctx context.Context, path string) (*Result, error) {
	return a.AnalyzeWith(ctx, path, nil)
}

// AnalyzeWith is Analyze with local loads checked against, and recorded in,
// loaded. A nil set behaves like a fresh one. The file at path is analyzed
// even when loaded already holds it.
func (a *Analyzer) AnalyzeWith(ctx context.Context, path string, loaded LoadedSet) (*Result, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve script path %s: %w", path, err)
	}
	if loaded == nil {
		loaded = NewLoadedSet()
	}

	c := &Context{
		ctx:      ctx,
		analyzer: a,
		result:   NewResult(),
		loaded:   loaded,
	}
	a.logger.Debug("analyzing script", "path", abs)
	if err := c.analyzeFile(abs); err != nil {
		return nil, err
	}
	return c.result, nil
}

// Context returns the context of the running analysis.
func (c *Context) Context() context.Context { return c.ctx }

// Result returns the Result being built.
func (c *Context) Result() *Result { return c.result }

// Script returns the path of the file whose line is being processed.
func (c *Context) Script() string {
	if len(c.stack) == 0 {
		return ""
	}
	return c.stack[len(c.stack)-1]
}

// Line returns the 1-based number of the line being processed.
func (c *Context) Line() int { return c.line }

// Load schedules path, relative to the current script, to be expanded
// right after the current line. It returns false when the file was
// already in the analysis' LoadedSet.
func (c *Context) Load(path string) bool {
	if !filepath.IsAbs(path) {
		path = filepath.Join(filepath.Dir(c.Script()), path)
	}
	path = filepath.Clean(path)
	if c.loaded.Has(path) {
		return false
	}
	c.loaded.Add(path)
	c.pending = append(c.pending, path)
	return true
}

// NewLoadedSet creates an empty LoadedSet.
func NewLoadedSet() LoadedSet {
	return make(LoadedSet)
}

// Has reports whether path was recorded.
func (s LoadedSet) Has(path string) bool {
	return s[filepath.Clean(path)]
}

// Add records path.
func (s LoadedSet) Add(path string) {
	s[filepath.Clean(path)] = true
}

func (c *Context) analyzeFile(path string) error {
	if err := c.ctx.Err(); err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read script: %w", err)
	}
	c.loaded.Add(path)

	c.stack = append(c.stack, path)
	defer func() { c.stack = c.stack[:len(c.stack)-1] }()

	lines := SplitLines(string(data))
	if len(lines) == 0 {
		return nil
	}

	c.result.AddLine(NewMarker(1, path).String())
	for i, line := range lines {
		c.line = i + 1
		c.result.AddLine(c.process(path, line))

		pending := c.pending
		c.pending = nil
		if len(pending) == 0 {
			continue
		}

		before := len(c.result.Lines)
		for _, p := range pending {
			if err := c.analyzeFile(p); err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				c.result.Errors = append(c.result.Errors, &DirectiveError{Path: path, Line: i + 1, Err: err})
			}
		}
		if len(c.result.Lines) > before && i+1 < len(lines) {
			c.result.AddLine(NewMarker(i+2, path).String())
		}
	}
	return nil
}

func (c *Context) process(path, line string) string {
	for _, p := range c.analyzer.processors {
		replacement, handled, err := p.Process(c, line)
		if err != nil {
			c.result.Errors = append(c.result.Errors, &DirectiveError{Path: path, Line: c.line, Err: err})
		}
		if handled {
			return replacement
		}
	}
	return line
}

// SplitLines splits script text into lines. CRLF endings and a UTF-8 byte
// order mark are dropped, and a single trailing newline does not produce
// an extra empty line.
func SplitLines(text string) []string {
	text = strings.TrimPrefix(text, "\ufeff")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}
