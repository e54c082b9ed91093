// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the sclkit command line interface.
//
// Every command works on document databases: SQLite files named after the
// document and kept in the configured data directory. A document argument
// is either such a name or the path of a .db file.
package cmd
