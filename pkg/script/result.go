// SPDX-License-Identifier: MPL-2.0

package script

import (
	"slices"
	"strconv"
	"strings"
)

type (
	// Values is the keyed side channel processors use to hand data to
	// whoever consumes a Result. Keys are processor names.
	Values map[string][]any

	// Result is the outcome of analyzing one script file.
	Result struct {
		// Lines is the output line sequence, markers included.
		Lines []string

		// Tools and Addins accumulate every declaration in encounter order.
		Tools  []string
		Addins []string

		// Namespaces, UsingAliases and References keep the first occurrence
		// of each entry.
		Namespaces   []string
		UsingAliases []string
		References   []string

		// Values holds processor-specific findings.
		Values Values

		// Errors collects directive failures. Analysis continues past them.
		Errors []error
	}
)

// Add appends v under key.
func (v Values) Add(key string, value any) {
	v[key] = append(v[key], value)
}

// Get returns the values stored under key.
func (v Values) Get(key string) []any {
	return v[key]
}

// NewResult creates an empty Result.
func NewResult() *Result {
	return &Result{Values: make(Values)}
}

// AddLine appends a line to the output sequence.
func (r *Result) AddLine(line string) {
	r.Lines = append(r.Lines, line)
}

// AddTool records a #tool declaration.
func (r *Result) AddTool(tool string) { r.Tools = append(r.Tools, tool) }

// AddAddin records an #addin declaration.
func (r *Result) AddAddin(addin string) { r.Addins = append(r.Addins, addin) }

// AddNamespace records a namespace import.
func (r *Result) AddNamespace(ns string) { r.Namespaces = appendUnique(r.Namespaces, ns) }

// AddUsingAlias records a using alias declaration such as `Foo = Bar.Baz`.
func (r *Result) AddUsingAlias(alias string) { r.UsingAliases = appendUnique(r.UsingAliases, alias) }

// AddReference records an assembly reference.
func (r *Result) AddReference(ref string) { r.References = appendUnique(r.References, ref) }

// Merge appends the child's lines to r and folds the child's side tables
// into r's. Values and Errors are left to the caller.
func (r *Result) Merge(child *Result) {
	r.Lines = append(r.Lines, child.Lines...)
	r.Tools = append(r.Tools, child.Tools...)
	r.Addins = append(r.Addins, child.Addins...)
	for _, ns := range child.Namespaces {
		r.AddNamespace(ns)
	}
	for _, alias := range child.UsingAliases {
		r.AddUsingAlias(alias)
	}
	for _, ref := range child.References {
		r.AddReference(ref)
	}
}

// Script renders the composed script: hoisted references, namespaces and
// aliases first, then the line sequence.
func (r *Result) Script() string {
	var sb strings.Builder
	for _, ref := range r.References {
		sb.WriteString("#r " + strconv.Quote(ref) + "\n")
	}
	for _, ns := range r.Namespaces {
		sb.WriteString("using " + ns + ";\n")
	}
	for _, alias := range r.UsingAliases {
		sb.WriteString("using " + alias + ";\n")
	}
	for _, line := range r.Lines {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}

func appendUnique(list []string, s string) []string {
	if slices.Contains(list, s) {
		return list
	}
	return append(list, s)
}
