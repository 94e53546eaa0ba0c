// SPDX-License-Identifier: MPL-2.0

// Package feedserver serves a local directory feed over the NuGet v3
// flat container protocol, so that CI agents and tests can install
// packages from a directory through the HTTP source.
package feedserver
