// SPDX-License-Identifier: MPL-2.0

// Package command holds side tasks that run before a composition, such as
// purging the package cache, and the registry that sequences them.
package command
