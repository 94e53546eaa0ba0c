// SPDX-License-Identifier: MPL-2.0

// Package nuget installs script packages from NuGet v3 feeds, local
// directory feeds and git repositories.
//
// A Source lists the versions of a package and fetches one version's
// content into a directory. The Installer resolves a loadremote
// PackageReference against a Source, extracts the selected version under
// the install root and reports the script files it contains.
package nuget
