// SPDX-License-Identifier: MPL-2.0

// Package engine is the document engine: an arena of element records keyed
// by id, transactional staging and cursor navigation over one document.
//
// A Document owns the committed arena and its Store. Every mutation goes
// through a Cursor, which is bound to a Txn (the staging context). Reads
// through a cursor see the transaction's own staged operations first, so a
// multi-step sequence observes its earlier steps before anything commits.
// Commit reduces the staged operations to net changes, orders creations
// parent first and applies them to the Store as one atomic unit.
//
// The dialect hooks run inside AddChild and DeepCloneChild; callers never
// invoke them directly.
package engine
