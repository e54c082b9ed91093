// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"context"
	"fmt"

	"github.com/sclkit/sclkit/pkg/element"
)

type (
	// Cursor is a navigation and mutation handle focused on one element of
	// its transaction. Navigation returns new cursors sharing the same Txn.
	Cursor struct {
		txn   *Txn
		focus element.Ref
	}

	// Selector identifies an element. An empty ID selects the first element
	// of TagName in document order; an empty TagName accepts any tag.
	Selector struct {
		TagName string
		ID      string
	}

	// Child describes an element to add under the cursor focus.
	Child struct {
		// ID is generated when empty.
		ID      string
		TagName string
		// Namespace defaults to the dialect namespace of TagName.
		Namespace  *element.Namespace
		Attributes []element.Attribute
		Value      string
		// SetFocus moves the returned cursor to the new child.
		SetFocus bool
	}

	// Context is the state of a cursor: its focus and the pending operations
	// of its transaction.
	Context struct {
		CurrentFocus     element.ChainRecord
		StagedOperations []element.Operation
	}
)

// Txn returns the cursor's transaction.
func (c *Cursor) Txn() *Txn { return c.txn }

// FocusRef returns the reference of the focused element.
func (c *Cursor) FocusRef() element.Ref { return c.focus }

func (c *Cursor) at(ref element.Ref) *Cursor {
	return &Cursor{txn: c.txn, focus: ref}
}

// current returns the focused record as the transaction sees it.
func (c *Cursor) current() (element.ChainRecord, error) {
	rec, ok := c.txn.get(c.focus.ID)
	if !ok {
		return element.ChainRecord{}, &NotFoundError{Selector: Selector{TagName: c.focus.TagName, ID: c.focus.ID}}
	}
	return rec, nil
}

// Context returns the focused record and a copy of the staged operations.
func (c *Cursor) Context() (Context, error) {
	rec, err := c.current()
	if err != nil {
		return Context{}, err
	}
	rec.Record = rec.Clone()
	return Context{CurrentFocus: rec, StagedOperations: c.txn.StagedOperations()}, nil
}

// GoToElement moves the focus to the selected element anywhere in the
// document.
func (c *Cursor) GoToElement(sel Selector) (*Cursor, error) {
	if sel.ID != "" {
		rec, ok := c.txn.get(sel.ID)
		if !ok || (sel.TagName != "" && rec.TagName != sel.TagName) {
			return nil, &NotFoundError{Selector: sel}
		}
		return c.at(rec.Ref()), nil
	}

	root, ok := c.txn.root()
	if !ok {
		return nil, &NotFoundError{Selector: sel}
	}
	if root.TagName == sel.TagName {
		return c.at(root.Ref()), nil
	}
	var found *element.Ref
	c.txn.walk(root.Record, func(rec element.ChainRecord) bool {
		if found != nil {
			return false
		}
		if rec.TagName == sel.TagName {
			ref := rec.Ref()
			found = &ref
			return false
		}
		return true
	})
	if found == nil {
		return nil, &NotFoundError{Selector: sel}
	}
	return c.at(*found), nil
}

// GoToParent moves the focus to the parent of the focused element.
func (c *Cursor) GoToParent() (*Cursor, error) {
	rec, err := c.current()
	if err != nil {
		return nil, err
	}
	if rec.Parent == nil {
		return nil, fmt.Errorf("%s %q: %w", rec.TagName, rec.ID, ErrNoParent)
	}
	return c.at(*rec.Parent), nil
}

// AttributesValues returns the focused element's attributes by name.
func (c *Cursor) AttributesValues() (map[string]string, error) {
	rec, err := c.current()
	if err != nil {
		return nil, err
	}
	return rec.AttributeValues(), nil
}

// AddChild stages a new element under the focus. The record passes the
// AfterStandardizedRecord hooks, is staged as created, then the
// AfterCreated hooks may relocate it; when they return nothing the engine
// links it to the focus itself.
func (c *Cursor) AddChild(ch Child) (*Cursor, error) {
	parent, err := c.current()
	if err != nil {
		return nil, err
	}

	cfg := c.txn.doc.dialect
	if !cfg.AllowsChild(parent.TagName, ch.TagName) {
		return nil, fmt.Errorf("%w: %s under %s", ErrChildNotAllowed, ch.TagName, parent.TagName)
	}
	if cfg.IsSingleton(ch.TagName) {
		if _, err := c.GoToElement(Selector{TagName: ch.TagName}); err == nil {
			return nil, fmt.Errorf("%w: %s", ErrSingletonExists, ch.TagName)
		}
	}

	id := ch.ID
	if id == "" {
		id = c.txn.NewID()
	} else if _, _, exists := c.txn.Lookup(id); exists {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateID, id)
	}

	ns := cfg.ElementNamespace(ch.TagName)
	if ch.Namespace != nil {
		ns = *ch.Namespace
	}
	parentRef := parent.Ref()
	rec := element.Record{
		ID:         id,
		TagName:    ch.TagName,
		Namespace:  ns,
		Attributes: element.Record{Attributes: ch.Attributes}.Clone().Attributes,
		Value:      ch.Value,
		Parent:     &parentRef,
	}

	hooks := cfg.Hooks
	rec = hooks.RunAfterStandardizedRecord(rec, c.txn)
	c.txn.stage(element.Operation{Status: element.StatusCreated, NewRecord: &rec})

	if ops := hooks.RunAfterCreated(rec, parent.Record, c.txn); len(ops) > 0 {
		c.txn.stage(ops...)
	} else {
		linked := parent.Clone()
		linked.Children = append(linked.Children, rec.Ref())
		c.txn.stageUpdate(parent.Record, linked)
	}

	if ch.SetFocus {
		return c.at(rec.Ref()), nil
	}
	return c, nil
}

// Update merges attrs into the focused element: existing names are replaced
// in place, new ones appended.
func (c *Cursor) Update(attrs ...element.Attribute) (*Cursor, error) {
	rec, err := c.current()
	if err != nil {
		return nil, err
	}
	c.txn.stageUpdate(rec.Record, rec.WithAttributes(attrs...))
	return c, nil
}

// SetValue replaces the text content of the focused element.
func (c *Cursor) SetValue(value string) (*Cursor, error) {
	rec, err := c.current()
	if err != nil {
		return nil, err
	}
	out := rec.Clone()
	out.Value = value
	c.txn.stageUpdate(rec.Record, out)
	return c, nil
}

// Delete stages the removal of the focused element and its subtree and
// returns a cursor on its parent.
func (c *Cursor) Delete() (*Cursor, error) {
	rec, err := c.current()
	if err != nil {
		return nil, err
	}
	if rec.Parent == nil {
		return nil, ErrRootDeletion
	}
	parent, ok := c.txn.get(rec.Parent.ID)
	if !ok {
		return nil, &NotFoundError{Selector: Selector{TagName: rec.Parent.TagName, ID: rec.Parent.ID}}
	}

	doomed := []element.Record{rec.Record}
	c.txn.walk(rec.Record, func(child element.ChainRecord) bool {
		doomed = append(doomed, child.Record)
		return true
	})
	for _, r := range doomed {
		c.txn.stage(element.Operation{Status: element.StatusDeleted, OldRecord: &r})
	}

	unlinked := parent.Clone()
	ref := rec.Ref()
	unlinked.Children = deleteRef(unlinked.Children, ref)
	c.txn.stageUpdate(parent.Record, unlinked)

	return c.at(parent.Ref()), nil
}

func deleteRef(refs []element.Ref, ref element.Ref) []element.Ref {
	out := refs[:0]
	for _, r := range refs {
		if r != ref {
			out = append(out, r)
		}
	}
	return out
}

// DeepCloneChild stages a copy of tree under the focus. Every node passes
// the BeforeClone hooks first; a vetoed node is skipped with its subtree.
// All copies get fresh ids. With setFocus the returned cursor is on the
// copy of the tree root; if the root itself was vetoed the focus is kept.
func (c *Cursor) DeepCloneChild(tree element.TreeRecord, setFocus bool) (*Cursor, error) {
	hooks := c.txn.doc.dialect.Hooks

	var clone func(at *Cursor, node element.TreeRecord) (*Cursor, error)
	clone = func(at *Cursor, node element.TreeRecord) (*Cursor, error) {
		ok, node := hooks.RunBeforeClone(node)
		if !ok {
			return nil, nil
		}
		ns := node.Namespace
		child, err := at.AddChild(Child{
			TagName:    node.TagName,
			Namespace:  &ns,
			Attributes: node.Attributes,
			Value:      node.Value,
			SetFocus:   true,
		})
		if err != nil {
			return nil, err
		}
		for _, sub := range node.Tree {
			if _, err := clone(child, sub); err != nil {
				return nil, err
			}
		}
		return child, nil
	}

	copied, err := clone(c, tree)
	if err != nil {
		return nil, err
	}
	if setFocus && copied != nil {
		return copied, nil
	}
	return c, nil
}

// Commit applies the transaction to the document and clears it. The
// returned cursor keeps the focus.
func (c *Cursor) Commit(ctx context.Context) (*Cursor, error) {
	if err := c.txn.doc.commit(ctx, c.txn.ops); err != nil {
		return nil, err
	}
	c.txn.ops = nil
	return c, nil
}
