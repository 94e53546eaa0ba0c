// SPDX-License-Identifier: MPL-2.0

// Package script implements the line-oriented analysis of build scripts.
//
// An Analyzer reads a script file, runs every line through a chain of
// directive processors and produces a Result: the output line sequence
// (with `#line` markers that record where each run of lines came from)
// plus the side tables collected by the processors (tools, addins,
// namespaces, using aliases, assembly references and arbitrary
// processor values).
//
// Local `#load` directives are expanded inline. Directives that reference
// remote packages are left to caller-supplied processors which record
// their findings in Result.Values.
package script
