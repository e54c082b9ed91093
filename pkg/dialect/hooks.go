// SPDX-License-Identifier: MPL-2.0

package dialect

import "github.com/sclkit/sclkit/pkg/element"

type (
	// HookContext is the view of the pending transaction handed to hooks.
	// Hooks must resolve records through it rather than trusting the record
	// arguments they receive, which may be stale within a transaction.
	HookContext interface {
		// StagedOperations returns the operations staged so far, oldest first.
		StagedOperations() []element.Operation
		// Lookup returns the latest version of a record: staged if the
		// transaction touched it, committed otherwise.
		Lookup(id string) (element.Record, element.Status, bool)
		// NewID returns a fresh element identifier.
		NewID() string
	}

	// AfterCreatedHook runs after the engine built a new child record and
	// before it links it to its parent. The returned operations are staged
	// in order; when non-empty they replace the engine's own parent link.
	AfterCreatedHook func(child, parent element.Record, hc HookContext) []element.Operation

	// BeforeCloneHook runs on every node of a tree about to be deep-cloned.
	// Returning false skips the node and its whole subtree.
	BeforeCloneHook func(rec element.TreeRecord) (bool, element.TreeRecord)

	// AfterStandardizedRecordHook runs on every record the engine builds
	// before staging it.
	AfterStandardizedRecordHook func(rec element.Record, hc HookContext) element.Record

	// Hooks is the ordered set of callbacks installed at each extension
	// point. Callbacks at one point run in slice order.
	Hooks struct {
		AfterCreated            []AfterCreatedHook
		BeforeClone             []BeforeCloneHook
		AfterStandardizedRecord []AfterStandardizedRecordHook
	}
)

// RunAfterCreated runs every AfterCreated hook and concatenates their
// operations.
func (h Hooks) RunAfterCreated(child, parent element.Record, hc HookContext) []element.Operation {
	var ops []element.Operation
	for _, hook := range h.AfterCreated {
		ops = append(ops, hook(child, parent, hc)...)
	}
	return ops
}

// RunBeforeClone pipes rec through every BeforeClone hook. The node is cloned
// only if every hook agrees.
func (h Hooks) RunBeforeClone(rec element.TreeRecord) (bool, element.TreeRecord) {
	clone := true
	for _, hook := range h.BeforeClone {
		var ok bool
		ok, rec = hook(rec)
		clone = clone && ok
	}
	return clone, rec
}

// RunAfterStandardizedRecord pipes rec through every AfterStandardizedRecord
// hook.
func (h Hooks) RunAfterStandardizedRecord(rec element.Record, hc HookContext) element.Record {
	for _, hook := range h.AfterStandardizedRecord {
		rec = hook(rec, hc)
	}
	return rec
}
