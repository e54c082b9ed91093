// SPDX-License-Identifier: MPL-2.0

// Package dialect holds the schema table that teaches the generic document
// engine one element vocabulary.
//
// A dialect is written in CUE and validated against the embedded #Dialect
// schema (dialect_schema.cue). It lists every element tag with its ordered
// attribute details (including which attribute is the UUID-bearing
// identity) and allowed children. Parent, ancestor and descendant tables are
// derived once in New. The dialect also carries the hook pipeline the engine
// invokes at its three extension points.
package dialect
