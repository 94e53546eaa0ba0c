// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"io/fs"

	"github.com/invowk/loadremote/pkg/loadremote"
	"github.com/invowk/loadremote/pkg/nuget"
)

// classification is checked in order; the most specific cause wins because
// InstallationFailedError wraps the feed errors.
var classification = []struct {
	target error
	id     Id
}{
	{loadremote.ErrImportCycle, ImportCycleId},
	{loadremote.ErrMaxDepthExceeded, MaxDepthExceededId},
	{loadremote.ErrMalformedReference, MalformedReferenceId},
	{loadremote.ErrInvalidConfig, InvalidPackageConfigId},
	{loadremote.ErrRearrangementInconsistency, RearrangementFailedId},
	{nuget.ErrPackageNotFound, PackageNotFoundId},
	{nuget.ErrVersionNotFound, VersionNotFoundId},
	{nuget.ErrNetwork, FeedUnavailableId},
	{loadremote.ErrInstallationFailed, InstallationFailedId},
	{fs.ErrPermission, PermissionDeniedId},
	{fs.ErrNotExist, ScriptNotFoundId},
}

// Classify maps err to the catalog entry that best explains it. An
// ActionableError carrying an explicit issue wins over its cause. It
// returns 0 when nothing matches.
func Classify(err error) Id {
	if err == nil {
		return 0
	}
	var ae *ActionableError
	if errors.As(err, &ae) && ae.Issue != 0 {
		return ae.Issue
	}
	for _, c := range classification {
		if errors.Is(err, c.target) {
			return c.id
		}
	}
	return 0
}
