// SPDX-License-Identifier: MPL-2.0

// Package element defines the data model shared by the document engine, the
// dialect layer and the SCL algorithms.
//
// An element is exposed through three projections of the same data:
//
//   - Record: the raw, flat snapshot used as the unit of a staged mutation.
//   - ChainRecord: a Record annotated with its lifecycle Status.
//   - TreeRecord: a Record with its (filtered) subtree materialized.
//
// Parent and child links are weak Ref values (id + tag) so documents are
// arenas keyed by id rather than pointer graphs.
package element
