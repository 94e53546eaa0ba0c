// SPDX-License-Identifier: MPL-2.0

package loadremote

import (
	"regexp"
	"strings"

	"github.com/invowk/loadremote/pkg/script"
)

const (
	// ProcessorName keys the Directives this package stores in
	// script.Result.Values.
	ProcessorName = "loadremote"

	// SchemeMarker must appear in a load directive for it to be remote.
	SchemeMarker = Scheme + ":"
)

// aliasPattern matches the directive spellings at the start of a trimmed
// line. The alias must end at a blank or a quote.
var aliasPattern = regexp.MustCompile(`^(#load|#l)([ \t"]|$)`)

type (
	// DirectiveMatcher recognizes remote load directives. It implements
	// script.Processor.
	DirectiveMatcher struct{}

	// Directive is a remote load together with where it was written.
	Directive struct {
		Reference PackageReference
		// Path is the script holding the directive. Line is 1-based; zero
		// means the location is unknown.
		Path string
		Line int
	}
)

// NewDirectiveMatcher creates a DirectiveMatcher.
func NewDirectiveMatcher() *DirectiveMatcher {
	return &DirectiveMatcher{}
}

// Match tests line. When it is a remote load, it returns the directive in
// canonical `#load` spelling and the commented replacement to leave in the
// script.
func (m *DirectiveMatcher) Match(line string) (canonical, replacement string, ok bool) {
	trimmed := strings.TrimSpace(line)
	loc := aliasPattern.FindStringSubmatchIndex(trimmed)
	if loc == nil || !strings.Contains(trimmed[loc[3]:], SchemeMarker) {
		return "", "", false
	}
	canonical = script.LoadDirective + trimmed[loc[3]:]
	return canonical, script.Comment(canonical), true
}

// Process implements script.Processor. The canonical directive is resolved
// into a Directive stored under ProcessorName; a malformed reference
// is returned as the error while the commented line is still emitted.
func (m *DirectiveMatcher) Process(c *script.Context, line string) (string, bool, error) {
	canonical, replacement, ok := m.Match(line)
	if !ok {
		return "", false, nil
	}
	ref, err := Resolve(canonical)
	if err != nil {
		return replacement, true, err
	}
	c.Result().Values.Add(ProcessorName, Directive{Reference: ref, Path: c.Script(), Line: c.Line()})
	return replacement, true, nil
}

// Resolve parses the argument of a canonical `#load` directive.
func Resolve(directive string) (PackageReference, error) {
	arg, ok := directiveArgument(directive)
	if !ok {
		return PackageReference{}, &MalformedReferenceError{Value: directive, Reason: "not a load directive"}
	}
	return ParseReference(arg)
}

// Directives returns the remote loads recorded on res, in the order they
// were seen.
func Directives(res *script.Result) []Directive {
	values := res.Values.Get(ProcessorName)
	dirs := make([]Directive, 0, len(values))
	for _, v := range values {
		switch v := v.(type) {
		case Directive:
			dirs = append(dirs, v)
		case PackageReference:
			dirs = append(dirs, Directive{Reference: v})
		}
	}
	return dirs
}

// References returns the package references recorded on res, in the order
// the directives were seen.
func References(res *script.Result) []PackageReference {
	dirs := Directives(res)
	refs := make([]PackageReference, len(dirs))
	for i, d := range dirs {
		refs[i] = d.Reference
	}
	return refs
}

func directivesOf(refs []PackageReference) []Directive {
	dirs := make([]Directive, len(refs))
	for i, ref := range refs {
		dirs[i] = Directive{Reference: ref}
	}
	return dirs
}

// directiveArgument extracts the unquoted argument of a `#load` line.
func directiveArgument(line string) (string, bool) {
	name, arg, ok := script.SplitDirective(line)
	if !ok || name != script.LoadDirective {
		return "", false
	}
	return script.Unquote(arg), true
}

// isImportOf reports whether line is the commented directive that imported
// ref.
func isImportOf(line string, ref PackageReference) bool {
	rest, ok := strings.CutPrefix(strings.TrimSpace(line), "//")
	if !ok {
		return false
	}
	arg, ok := directiveArgument(rest)
	return ok && arg == ref.Original
}
