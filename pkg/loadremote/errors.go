// SPDX-License-Identifier: MPL-2.0

package loadremote

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedReference is the sentinel error wrapped by MalformedReferenceError.
	ErrMalformedReference = errors.New("malformed package reference")
	// ErrInstallationFailed is the sentinel error wrapped by InstallationFailedError.
	ErrInstallationFailed = errors.New("package installation failed")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid package config")
	// ErrRearrangementInconsistency is the sentinel error wrapped by RearrangementInconsistencyError.
	ErrRearrangementInconsistency = errors.New("composed script is inconsistent")
	// ErrImportCycle is the sentinel error wrapped by ImportCycleError.
	ErrImportCycle = errors.New("package import cycle")
	// ErrMaxDepthExceeded is the sentinel error wrapped by MaxDepthExceededError.
	ErrMaxDepthExceeded = errors.New("package nesting too deep")
)

type (
	// MalformedReferenceError is returned when a directive argument is not a
	// usable package reference.
	MalformedReferenceError struct {
		Value  string
		Reason string
	}

	// InstallationFailedError is returned when a package could not be
	// installed or produced no script files.
	InstallationFailedError struct {
		Reference PackageReference
		Cause     error
	}

	// InvalidConfigError is returned when a package's config.json cannot be
	// parsed or its file order does not bind to the installed files.
	InvalidConfigError struct {
		Path   string
		Reason string
		Cause  error
	}

	// RearrangementInconsistencyError is returned when the directive that
	// imported a package cannot be found in the composed script. It signals a
	// defect, not bad input.
	RearrangementInconsistencyError struct {
		Reference PackageReference
		File      string
	}

	// ImportCycleError is returned when a package imports one of its own
	// ancestors.
	ImportCycleError struct {
		Chain []string
	}

	// MaxDepthExceededError is returned when package nesting exceeds the
	// configured limit.
	MaxDepthExceededError struct {
		Reference PackageReference
		Limit     int
	}
)

func (e *MalformedReferenceError) Error() string {
	return fmt.Sprintf("malformed package reference %q: %s", e.Value, e.Reason)
}

// Unwrap returns ErrMalformedReference for errors.Is() compatibility.
func (e *MalformedReferenceError) Unwrap() error { return ErrMalformedReference }

func (e *InstallationFailedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to install package %q: %v", e.Reference.Original, e.Cause)
	}
	return fmt.Sprintf("failed to install package %q: no script files installed", e.Reference.Original)
}

// Unwrap returns ErrInstallationFailed and the underlying cause, if any.
func (e *InstallationFailedError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrInstallationFailed, e.Cause}
	}
	return []error{ErrInstallationFailed}
}

func (e *InvalidConfigError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Path, e.Reason, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Path, e.Reason)
}

// Unwrap returns ErrInvalidConfig and the underlying cause, if any.
func (e *InvalidConfigError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrInvalidConfig, e.Cause}
	}
	return []error{ErrInvalidConfig}
}

func (e *RearrangementInconsistencyError) Error() string {
	return fmt.Sprintf("no directive importing %q found for %s", e.Reference.Original, e.File)
}

// Unwrap returns ErrRearrangementInconsistency for errors.Is() compatibility.
func (e *RearrangementInconsistencyError) Unwrap() error { return ErrRearrangementInconsistency }

func (e *ImportCycleError) Error() string {
	return "package import cycle: " + strings.Join(e.Chain, " -> ")
}

// Unwrap returns ErrImportCycle for errors.Is() compatibility.
func (e *ImportCycleError) Unwrap() error { return ErrImportCycle }

func (e *MaxDepthExceededError) Error() string {
	return fmt.Sprintf("package %q exceeds the maximum nesting depth of %d", e.Reference.Original, e.Limit)
}

// Unwrap returns ErrMaxDepthExceeded for errors.Is() compatibility.
func (e *MaxDepthExceededError) Unwrap() error { return ErrMaxDepthExceeded }
