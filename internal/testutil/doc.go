// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helpers shared by tests: file trees
// (WriteFiles), package feeds (Feed) built in temporary directories and a
// slot limit for container-backed tests.
package testutil
