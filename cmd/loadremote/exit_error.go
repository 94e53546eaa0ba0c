// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"strconv"

	"github.com/invowk/loadremote/internal/issue"
)

// Process exit codes.
const (
	exitFailure     = 1
	exitUsage       = 2 // malformed reference or configuration
	exitUnavailable = 3 // the package feed could not be reached
)

// ExitError carries an explicit exit code out of a RunE handler. A nil Err
// means the failure was already reported.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return "exit status " + strconv.Itoa(e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// exitCode maps a command failure to the process exit code.
func exitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	switch issue.Classify(err) {
	case issue.MalformedReferenceId, issue.ConfigLoadFailedId:
		return exitUsage
	case issue.FeedUnavailableId:
		return exitUnavailable
	default:
		return exitFailure
	}
}
