// SPDX-License-Identifier: MPL-2.0

package nuget

import (
	"errors"
	"fmt"
)

var (
	// ErrPackageNotFound is returned when a source has no package with the requested id.
	ErrPackageNotFound = errors.New("package not found")
	// ErrVersionNotFound is returned when no version of a package satisfies the request.
	ErrVersionNotFound = errors.New("version not found")
	// ErrNetwork is returned for transport failures and unexpected HTTP statuses.
	ErrNetwork = errors.New("network error")
	// ErrInvalidPackage is returned when package content cannot be extracted.
	ErrInvalidPackage = errors.New("invalid package")
)

type (
	// RetryableError marks a transient failure that Retry attempts again.
	RetryableError struct{ Err error }

	// VersionNotFoundError describes a failed version selection.
	VersionNotFoundError struct {
		ID         string
		Requested  string
		Prerelease bool
		Available  []string
	}
)

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

func (e *VersionNotFoundError) Error() string {
	switch {
	case e.Requested != "":
		return fmt.Sprintf("package %s has no version %s (available: %d)", e.ID, e.Requested, len(e.Available))
	case e.Prerelease:
		return fmt.Sprintf("package %s has no versions", e.ID)
	default:
		return fmt.Sprintf("package %s has no stable versions", e.ID)
	}
}

// Unwrap returns ErrVersionNotFound for errors.Is() compatibility.
func (e *VersionNotFoundError) Unwrap() error { return ErrVersionNotFound }
