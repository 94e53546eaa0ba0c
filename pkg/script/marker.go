// SPDX-License-Identifier: MPL-2.0

package script

import (
	"path/filepath"
	"strconv"
	"strings"
)

// MarkerKeyword starts every line-directive marker.
const MarkerKeyword = "#line"

// Marker declares that the lines following it originate from Path,
// starting at line Line.
type Marker struct {
	Line int
	Path string
}

// NewMarker creates a marker for path, normalizing the path to the slash
// form used in marker text.
func NewMarker(line int, path string) Marker {
	return Marker{Line: line, Path: MarkerPath(path)}
}

// MarkerPath returns the form of path that markers carry.
func MarkerPath(path string) string {
	return filepath.ToSlash(filepath.Clean(path))
}

// String renders the marker as it appears in a script.
func (m Marker) String() string {
	return MarkerKeyword + " " + strconv.Itoa(m.Line) + " " + strconv.Quote(m.Path)
}

// Refers reports whether the marker points at the given file.
func (m Marker) Refers(path string) bool {
	return m.Path == MarkerPath(path)
}

// IsMarker reports whether line is a line-directive marker.
func IsMarker(line string) bool {
	_, ok := ParseMarker(line)
	return ok
}

// ParseMarker parses a `#line <N> "<path>"` marker. The path may be quoted
// or bare. Markers without a path are not recognized because nothing in a
// composed script can be attributed to them.
func ParseMarker(line string) (Marker, bool) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(line), MarkerKeyword)
	if !ok || rest == "" || (rest[0] != ' ' && rest[0] != '\t') {
		return Marker{}, false
	}
	fields := strings.Fields(rest)
	if len(fields) < 2 {
		return Marker{}, false
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return Marker{}, false
	}

	raw := strings.TrimSpace(strings.TrimSpace(rest)[len(fields[0]):])
	path := raw
	if strings.HasPrefix(raw, `"`) {
		unquoted, err := strconv.Unquote(raw)
		if err != nil {
			// Unbalanced quotes: take what is between them.
			unquoted = strings.Trim(raw, `"`)
		}
		path = unquoted
	}
	if path == "" {
		return Marker{}, false
	}
	return Marker{Line: n, Path: filepath.ToSlash(path)}, true
}

// SetMarkerLine rewrites the numeric field of a marker line, keeping the
// remaining fields and joining them with single spaces.
func SetMarkerLine(line string, n int) (string, bool) {
	if !IsMarker(line) {
		return line, false
	}
	fields := strings.Fields(line)
	fields[1] = strconv.Itoa(n)
	return strings.Join(fields, " "), true
}
