// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"slices"

	"github.com/sclkit/sclkit/pkg/dialect"
	"github.com/sclkit/sclkit/pkg/element"
)

var _ dialect.HookContext = (*Txn)(nil)

// Txn is a staging context. It belongs to one goroutine; every cursor
// derived from it shares its staged operations.
type Txn struct {
	doc *Document
	ops []element.Operation
}

// Document returns the document the transaction stages against.
func (t *Txn) Document() *Document { return t.doc }

// StagedOperations returns a copy of the operations staged so far.
func (t *Txn) StagedOperations() []element.Operation {
	return slices.Clone(t.ops)
}

// Lookup returns the latest version of a record: staged if the transaction
// touched it, committed otherwise. Staged deletions are reported with
// StatusDeleted.
func (t *Txn) Lookup(id string) (element.Record, element.Status, bool) {
	if rec, status, ok := element.LatestStaged(t.ops, id); ok {
		return rec, status, true
	}
	rec, ok := t.doc.committed(id)
	if !ok {
		return element.Record{}, "", false
	}
	return rec, element.StatusUnchanged, true
}

// NewID returns a fresh element id from the document's generator.
func (t *Txn) NewID() string { return t.doc.ids() }

// get returns the visible record with the given id; deleted records are
// not visible.
func (t *Txn) get(id string) (element.ChainRecord, bool) {
	rec, status, ok := t.Lookup(id)
	if !ok || status == element.StatusDeleted {
		return element.ChainRecord{}, false
	}
	return element.ChainRecord{Record: rec, Status: status}, true
}

func (t *Txn) stage(ops ...element.Operation) {
	t.ops = append(t.ops, ops...)
}

func (t *Txn) stageUpdate(oldRec, newRec element.Record) {
	t.stage(element.Operation{Status: element.StatusUpdated, OldRecord: &oldRec, NewRecord: &newRec})
}

// children returns the visible children of rec in order.
func (t *Txn) children(rec element.Record) []element.ChainRecord {
	out := make([]element.ChainRecord, 0, len(rec.Children))
	for _, ref := range rec.Children {
		if child, ok := t.get(ref.ID); ok {
			out = append(out, child)
		}
	}
	return out
}

// walk visits the visible subtree below rec in pre-order. fn returning false
// prunes the visited node's subtree.
func (t *Txn) walk(rec element.Record, fn func(element.ChainRecord) bool) {
	for _, child := range t.children(rec) {
		if fn(child) {
			t.walk(child.Record, fn)
		}
	}
}

func (t *Txn) root() (element.ChainRecord, bool) {
	t.doc.mu.RLock()
	rootID := t.doc.rootID
	t.doc.mu.RUnlock()
	return t.get(rootID)
}

// Discard drops every staged operation.
func (t *Txn) Discard() {
	t.ops = nil
}
