// SPDX-License-Identifier: MPL-2.0

package loadremote

import (
	"slices"

	"github.com/invowk/loadremote/pkg/script"
)

// Batch describes one installed package's contribution to a composed
// Result.
type Batch struct {
	// Reference is the package the batch was installed for.
	Reference PackageReference
	// Files are the installed files in processing order.
	Files []string
	// From is the length of the line sequence before the batch's first
	// file was appended.
	From int
	// Window is the index where the importing file's lines begin. The
	// importing directive is searched from there.
	Window int
	// Path and Line locate the importing directive in its source file.
	// When Line is set, a matching comment line only anchors the batch if
	// the markers attribute it to that location.
	Path string
	Line int
}

// owns reports whether m refers to one of the batch's files.
func (b Batch) owns(m script.Marker) bool {
	return slices.ContainsFunc(b.Files, m.Refers)
}

// writtenAt reports whether a line attributed to at, valid when known, is
// where the importing directive was written.
func (b Batch) writtenAt(at script.Marker, known bool) bool {
	if b.Line <= 0 {
		return true
	}
	return known && at.Line == b.Line && at.Refers(b.Path)
}

// Rearrange moves the lines appended for b to just after the directive
// that imported b.Reference and re-synchronizes the importing file's
// marker after them. A batch whose files produced no lines is left alone.
func Rearrange(res *script.Result, b Batch) error {
	lines := res.Lines

	start, item := -1, ""
	for i := max(b.From, 0); i < len(lines); i++ {
		m, ok := script.ParseMarker(lines[i])
		if ok && b.owns(m) {
			start, item = i, m.Path
			break
		}
	}
	if start < 0 {
		return nil
	}

	block := slices.Clone(lines[start:])
	rest := lines[:start:start]

	anchor := -1
	var at script.Marker
	known := false
	for i, line := range rest {
		if m, ok := script.ParseMarker(line); ok {
			at, known = m, true
			continue
		}
		if i >= b.Window && isImportOf(line, b.Reference) && b.writtenAt(at, known) {
			anchor = i
			break
		}
		at.Line++
	}
	if anchor < 0 {
		return &RearrangementInconsistencyError{Reference: b.Reference, File: item}
	}

	// The importing file's marker is the nearest one before the directive
	// that belongs to neither this file nor a sibling.
	resumeAt := -1
	var resume script.Marker
	for j := anchor - 1; j >= 0; j-- {
		m, ok := script.ParseMarker(rest[j])
		if !ok || b.owns(m) {
			continue
		}
		resumeAt, resume = j, m
		break
	}

	tail := rest[anchor+1:]
	out := make([]string, 0, len(lines)+1)
	out = append(out, rest[:anchor+1]...)
	out = append(out, block...)
	if resumeAt >= 0 && len(tail) > 0 {
		corrected, _ := script.SetMarkerLine(rest[resumeAt], max(resume.Line+anchor-resumeAt, 1))
		out = append(out, corrected)
	}
	out = append(out, tail...)

	res.Lines = out
	return nil
}
