// SPDX-License-Identifier: MPL-2.0

package nuget

import (
	"slices"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

// NormalizeVersion returns the canonical NuGet form of v: build metadata
// dropped, a fourth component of zero removed, missing minor and patch
// components filled with zero, and the result lower-cased.
func NormalizeVersion(v string) string {
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	v, _, _ = strings.Cut(v, "+")
	core, pre, hasPre := strings.Cut(v, "-")

	parts := strings.Split(core, ".")
	for len(parts) < 3 {
		parts = append(parts, "0")
	}
	for i, p := range parts {
		if n, err := strconv.Atoi(p); err == nil {
			parts[i] = strconv.Itoa(n)
		}
	}
	if len(parts) == 4 && parts[3] == "0" {
		parts = parts[:3]
	}

	out := strings.Join(parts, ".")
	if hasPre {
		out += "-" + pre
	}
	return strings.ToLower(out)
}

// IsPrerelease reports whether v carries a prerelease label.
func IsPrerelease(v string) bool {
	core, _, _ := strings.Cut(v, "+")
	return strings.Contains(core, "-")
}

// CompareVersions orders NuGet versions. Four-component versions compare
// on their revision after the first three components.
func CompareVersions(a, b string) int {
	na, nb := NormalizeVersion(a), NormalizeVersion(b)
	sa, ra := semverOf(na)
	sb, rb := semverOf(nb)
	if sa != "" && sb != "" {
		if c := semver.Compare(sa, sb); c != 0 {
			return c
		}
		if c := ra - rb; c != 0 {
			if c < 0 {
				return -1
			}
			return 1
		}
		return 0
	}
	return strings.Compare(na, nb)
}

// SelectVersion picks the version to install for id from available. An
// explicit request must be present in normalized form. Otherwise the
// highest stable version wins, or the highest of all versions when
// prerelease is set.
func SelectVersion(id string, available []string, requested string, prerelease bool) (string, error) {
	if requested != "" {
		want := NormalizeVersion(requested)
		for _, v := range available {
			if NormalizeVersion(v) == want {
				return v, nil
			}
		}
		return "", &VersionNotFoundError{ID: id, Requested: requested, Available: available}
	}

	candidates := make([]string, 0, len(available))
	for _, v := range available {
		if prerelease || !IsPrerelease(v) {
			candidates = append(candidates, v)
		}
	}
	if len(candidates) == 0 {
		return "", &VersionNotFoundError{ID: id, Prerelease: prerelease, Available: available}
	}
	return slices.MaxFunc(candidates, CompareVersions), nil
}

// SortVersions orders versions from newest to oldest.
func SortVersions(versions []string) []string {
	sorted := slices.Clone(versions)
	slices.SortStableFunc(sorted, func(a, b string) int { return CompareVersions(b, a) })
	return sorted
}

// semverOf converts a normalized NuGet version to semver, splitting off a
// fourth component as the revision.
func semverOf(v string) (string, int) {
	core, pre, hasPre := strings.Cut(v, "-")
	parts := strings.Split(core, ".")
	revision := 0
	if len(parts) == 4 {
		n, err := strconv.Atoi(parts[3])
		if err != nil {
			return "", 0
		}
		revision = n
		parts = parts[:3]
	}
	s := "v" + strings.Join(parts, ".")
	if hasPre {
		s += "-" + pre
	}
	if !semver.IsValid(s) {
		return "", 0
	}
	return s, revision
}
