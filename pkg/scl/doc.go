// SPDX-License-Identifier: MPL-2.0

// Package scl is the IEC 61850 SCL 2019C1 dialect: the embedded element
// vocabulary, its namespaces and the hook pipeline enforcing uuid identity
// and Private wrapping of IEC 61850-6-100 elements.
//
// The algorithms built on it live in the sub-packages structure, datatypes,
// extract and history.
package scl
