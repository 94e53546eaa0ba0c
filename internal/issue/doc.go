// SPDX-License-Identifier: MPL-2.0

// Package issue turns composition failures into user-facing messages: an
// ActionableError carries the failed operation, the resource involved and
// remediation hints, and the Issue catalog holds Markdown guidance rendered
// with glamour for each failure class.
package issue
