// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable errors for the sclkit CLI.
//
// An ActionableError carries the failed operation, the document or file it
// concerned, remediation hints and optionally the id of a well-known Issue
// whose Markdown guidance is rendered with glamour.
package issue
