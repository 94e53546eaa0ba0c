// SPDX-License-Identifier: MPL-2.0

package script

import "testing"

func TestParseMarker(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		line   string
		want   Marker
		wantOK bool
	}{
		{name: "quoted path", line: `#line 12 "/src/build.cake"`, want: Marker{Line: 12, Path: "/src/build.cake"}, wantOK: true},
		{name: "bare path", line: `#line 3 /src/a.cake`, want: Marker{Line: 3, Path: "/src/a.cake"}, wantOK: true},
		{name: "leading whitespace", line: "  #line 1 \"x.cake\"", want: Marker{Line: 1, Path: "x.cake"}, wantOK: true},
		{name: "path with spaces", line: `#line 7 "/my dir/a.cake"`, want: Marker{Line: 7, Path: "/my dir/a.cake"}, wantOK: true},
		{name: "tab separated", line: "#line\t4\t\"a.cake\"", want: Marker{Line: 4, Path: "a.cake"}, wantOK: true},
		{name: "no path", line: `#line 3`, wantOK: false},
		{name: "not a number", line: `#line x "a.cake"`, wantOK: false},
		{name: "default keyword", line: `#line default`, wantOK: false},
		{name: "other directive", line: `#linefoo 1 "a"`, wantOK: false},
		{name: "commented", line: `// #line 1 "a.cake"`, wantOK: false},
		{name: "plain text", line: `Information("hi");`, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := ParseMarker(tt.line)
			if ok != tt.wantOK {
				t.Fatalf("ParseMarker(%q) ok = %v, want %v", tt.line, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("ParseMarker(%q) = %+v, want %+v", tt.line, got, tt.want)
			}
		})
	}
}

func TestMarkerStringRoundTrip(t *testing.T) {
	t.Parallel()

	m := NewMarker(42, "/work/scripts/build.cake")
	if got := m.String(); got != `#line 42 "/work/scripts/build.cake"` {
		t.Fatalf("String() = %q", got)
	}
	parsed, ok := ParseMarker(m.String())
	if !ok || parsed != m {
		t.Errorf("ParseMarker(String()) = %+v, %v, want %+v", parsed, ok, m)
	}
}

func TestMarkerRefers(t *testing.T) {
	t.Parallel()

	m := NewMarker(1, "/pkgs/acme/content/a.cake")
	if !m.Refers("/pkgs/acme/content/./a.cake") {
		t.Error("Refers() should match a cleaned equivalent path")
	}
	if m.Refers("/pkgs/acme/content/data.cake") {
		t.Error("Refers() must not match a different file")
	}
	if m.Refers("a.cake") {
		t.Error("Refers() must not match on suffix")
	}
}

func TestSetMarkerLine(t *testing.T) {
	t.Parallel()

	got, ok := SetMarkerLine(`#line   10    "/a b/c.cake"`, 3)
	if !ok {
		t.Fatal("SetMarkerLine() did not recognize marker")
	}
	if want := `#line 3 "/a b/c.cake"`; got != want {
		t.Errorf("SetMarkerLine() = %q, want %q", got, want)
	}

	if _, ok := SetMarkerLine("var x = 1;", 3); ok {
		t.Error("SetMarkerLine() accepted a non-marker line")
	}
}
