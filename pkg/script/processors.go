// SPDX-License-Identifier: MPL-2.0

package script

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"unicode"
)

// Directive names handled by the built-in processors.
const (
	LoadDirective      = "#load"
	LoadAlias          = "#l"
	ToolDirective      = "#tool"
	AddinDirective     = "#addin"
	ReferenceDirective = "#reference"
	ReferenceAlias     = "#r"
)

var errMissingArgument = errors.New("directive has no argument")

// DefaultProcessors returns the built-in processors in evaluation order.
func DefaultProcessors() []Processor {
	return []Processor{
		ProcessorFunc(processLoad),
		valueDirective((*Result).AddTool, ToolDirective),
		valueDirective((*Result).AddAddin, AddinDirective),
		valueDirective((*Result).AddReference, ReferenceDirective, ReferenceAlias),
		ProcessorFunc(processUsing),
	}
}

// SplitDirective splits a directive line into its name and argument. The
// name ends at the first blank or double quote.
func SplitDirective(line string) (name, arg string, ok bool) {
	t := strings.TrimSpace(line)
	if !strings.HasPrefix(t, "#") {
		return "", "", false
	}
	i := strings.IndexAny(t, " \t\"")
	if i < 0 {
		return t, "", true
	}
	return t[:i], strings.TrimSpace(t[i:]), true
}

// Unquote strips one pair of surrounding double quotes.
func Unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// Comment returns the commented form of a directive line.
func Comment(line string) string {
	return "// " + strings.TrimSpace(line)
}

// HasScheme reports whether target starts with a URI scheme. Single-letter
// prefixes are treated as Windows drive letters.
func HasScheme(target string) bool {
	i := strings.IndexByte(target, ':')
	if i < 2 {
		return false
	}
	for _, r := range target[:i] {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '-' && r != '.' {
			return false
		}
	}
	return unicode.IsLetter(rune(target[0]))
}

func processLoad(c *Context, line string) (string, bool, error) {
	name, arg, ok := SplitDirective(line)
	if !ok || (name != LoadDirective && name != LoadAlias) {
		return "", false, nil
	}

	target := Unquote(arg)
	switch {
	case target == "":
		return Comment(line), true, errMissingArgument
	case strings.HasPrefix(target, "local:"):
		u, err := url.Parse(target)
		if err != nil {
			return Comment(line), true, fmt.Errorf("invalid local load %q: %w", target, err)
		}
		target = u.Query().Get("path")
		if target == "" {
			return Comment(line), true, fmt.Errorf("local load %q has no path parameter", arg)
		}
	case HasScheme(target):
		// Remote loads belong to other processors.
		return "", false, nil
	}

	c.Load(target)
	return Comment(line), true, nil
}

// valueDirective records the unquoted argument of any of the given
// directives through add.
func valueDirective(add func(*Result, string), names ...string) Processor {
	return ProcessorFunc(func(c *Context, line string) (string, bool, error) {
		name, arg, ok := SplitDirective(line)
		if !ok || !slices.Contains(names, name) {
			return "", false, nil
		}
		value := Unquote(arg)
		if value == "" {
			return Comment(line), true, fmt.Errorf("%s: %w", name, errMissingArgument)
		}
		add(c.Result(), value)
		return Comment(line), true, nil
	})
}

// processUsing hoists namespace imports and aliases. The line is blanked so
// that line numbering is unaffected. Using statements and declarations are
// left alone.
func processUsing(c *Context, line string) (string, bool, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(line), "using ")
	if !ok || !strings.HasSuffix(rest, ";") {
		return "", false, nil
	}
	body := strings.TrimSpace(strings.TrimSuffix(rest, ";"))
	if body == "" || strings.HasPrefix(body, "var ") || strings.Contains(body, "(") {
		return "", false, nil
	}

	if lhs, rhs, isAlias := strings.Cut(body, "="); isAlias {
		lhs, rhs = strings.TrimSpace(lhs), strings.TrimSpace(rhs)
		if lhs == "" || rhs == "" || strings.ContainsAny(lhs, " \t") {
			return "", false, nil
		}
		c.Result().AddUsingAlias(lhs + " = " + rhs)
		return "", true, nil
	}

	c.Result().AddNamespace(strings.Join(strings.Fields(body), " "))
	return "", true, nil
}
