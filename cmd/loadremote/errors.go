// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/invowk/loadremote/internal/issue"
)

// renderError prints err and, when its kind is known, the catalog guidance
// for it.
func renderError(w io.Writer, err error, verboseMode bool) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Err == nil {
		return
	}

	fmt.Fprintln(w, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verboseMode))

	id := issue.Classify(err)
	if id == 0 {
		return
	}
	if entry := issue.Get(id); entry != nil {
		rendered, renderErr := entry.Render(issueStyle())
		if renderErr != nil {
			logger.Warn("failed to render issue guidance", "issue", int(id), "error", renderErr)
			return
		}
		fmt.Fprint(w, rendered)
	}
}

// formatErrorForDisplay uses ActionableError formatting when available.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

// issueStyle picks the glamour style for issue guidance.
func issueStyle() string {
	if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		return "notty"
	}
	return "auto"
}

// wrapFailure attaches operation context and suggestions to a command
// failure. Errors that already carry context pass through.
func wrapFailure(err error, operation, resource string, suggestions ...string) error {
	if err == nil {
		return nil
	}
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return err
	}
	ec := issue.NewErrorContext().WithOperation(operation).WithResource(resource)
	for _, s := range suggestions {
		ec.WithSuggestion(s)
	}
	return ec.Wrap(err).BuildError()
}
