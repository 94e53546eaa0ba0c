// SPDX-License-Identifier: MPL-2.0

package loadremote

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

const (
	// Scheme is the URI scheme of remote package references.
	Scheme = "nuget"

	maxPackageIDLength = 100
)

var (
	packageIDPattern = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_.\-]*$`)
	versionPattern   = regexp.MustCompile(`^\d+(\.\d+){0,3}(-[0-9A-Za-z.\-]+)?(\+[0-9A-Za-z.\-]+)?$`)
)

// PackageReference identifies a remote package named by a load directive.
// It is immutable once parsed.
type PackageReference struct {
	// Scheme is the registry scheme, always "nuget" for parsed references.
	Scheme string
	// Source is the feed address given in the reference; empty selects the
	// default source.
	Source string
	// Name is the package id.
	Name string
	// Version is the requested version; empty selects the latest.
	Version string
	// Prerelease allows prerelease versions when Version is empty.
	Prerelease bool
	// Parameters holds every query parameter with lower-cased keys.
	Parameters url.Values
	// Original is the directive argument exactly as written.
	Original string
}

// ParseReference parses a directive argument of the form
// `nuget:[source]?package=<id>[&version=<v>][&prerelease]`.
func ParseReference(arg string) (PackageReference, error) {
	original := arg
	malformed := func(format string, args ...any) error {
		return &MalformedReferenceError{Value: original, Reason: fmt.Sprintf(format, args...)}
	}

	u, err := url.Parse(strings.TrimSpace(arg))
	if err != nil {
		return PackageReference{}, malformed("not a valid URI: %v", err)
	}
	if u.Scheme == "" {
		return PackageReference{}, malformed("missing scheme")
	}
	if !strings.EqualFold(u.Scheme, Scheme) {
		return PackageReference{}, malformed("unsupported scheme %q", u.Scheme)
	}

	params := make(url.Values)
	for k, vs := range u.Query() {
		key := strings.ToLower(k)
		params[key] = append(params[key], vs...)
	}

	names := params["package"]
	switch {
	case len(names) == 0 || strings.TrimSpace(names[0]) == "":
		return PackageReference{}, malformed("missing package parameter")
	case len(names) > 1:
		return PackageReference{}, malformed("package parameter given %d times", len(names))
	}
	name := strings.TrimSpace(names[0])
	if len(name) > maxPackageIDLength || !packageIDPattern.MatchString(name) {
		return PackageReference{}, malformed("invalid package id %q", name)
	}

	version := strings.TrimSpace(params.Get("version"))
	if version != "" && !versionPattern.MatchString(version) {
		return PackageReference{}, malformed("invalid version %q", version)
	}

	prerelease := false
	if vs, ok := params["prerelease"]; ok {
		v := strings.ToLower(strings.TrimSpace(vs[0]))
		prerelease = v == "" || v == "true"
	}

	return PackageReference{
		Scheme:     strings.ToLower(u.Scheme),
		Source:     source(u),
		Name:       name,
		Version:    version,
		Prerelease: prerelease,
		Parameters: params,
		Original:   original,
	}, nil
}

// Key identifies the package independently of version and spelling.
func (r PackageReference) Key() string {
	return strings.ToLower(r.Name)
}

// String returns the reference as written in the script.
func (r PackageReference) String() string {
	return r.Original
}

func source(u *url.URL) string {
	switch {
	case u.Opaque != "":
		return u.Opaque
	case u.Host != "":
		return "https://" + u.Host + u.Path
	default:
		return u.Path
	}
}
