// SPDX-License-Identifier: MPL-2.0

package scl

import (
	"github.com/sclkit/sclkit/pkg/dialect"
	"github.com/sclkit/sclkit/pkg/element"
	"github.com/sclkit/sclkit/pkg/idgen"
)

// AttributeSchema is the part of the dialect the uuid hook consults.
type AttributeSchema interface {
	Attribute(tag, name string) (dialect.AttributeDetail, bool)
}

// NewHooks returns the SCL hook pipeline: Private wrapping of non-default
// namespace children, uuid stripping on clone and uuid enforcement on every
// standardized record.
func NewHooks(schema AttributeSchema, uuids idgen.Generator) dialect.Hooks {
	return dialect.Hooks{
		AfterCreated:            []dialect.AfterCreatedHook{WrapInPrivate},
		BeforeClone:             []dialect.BeforeCloneHook{StripUUID},
		AfterStandardizedRecord: []dialect.AfterStandardizedRecordHook{EnsureUUID(schema, uuids)},
	}
}

// WrapInPrivate nests a child created in a non-default namespace inside a
// Private element whose type is the child's namespace prefix. It reuses the
// parent itself when it is a Private, then a matching Private sibling, and
// creates one otherwise. Returned operations are ordered create first, then
// the child, then the ancestor.
func WrapInPrivate(child, parent element.Record, hc dialect.HookContext) []element.Operation {
	if child.Namespace.Prefix == DefaultNamespace.Prefix {
		return nil
	}
	prefix := child.Namespace.Prefix

	if parent.TagName == TagPrivate {
		// Re-entrant during cloning: the child was built under this Private.
		if child.Parent != nil && *child.Parent == parent.Ref() {
			return nil
		}
		private := parent
		if rec, status, ok := hc.Lookup(parent.ID); ok && status != element.StatusDeleted {
			private = rec
		}
		return appendToPrivate(latest(child, hc), private)
	}

	parent = latest(parent, hc)
	for _, ref := range parent.Children {
		if ref.TagName != TagPrivate {
			continue
		}
		rec, status, ok := hc.Lookup(ref.ID)
		if !ok || status == element.StatusDeleted {
			continue
		}
		if rec.AttrValue(AttrType) == prefix {
			return appendToPrivate(latest(child, hc), rec)
		}
	}

	parentRef := parent.Ref()
	private := element.Record{
		ID:         hc.NewID(),
		TagName:    TagPrivate,
		Namespace:  DefaultNamespace,
		Attributes: []element.Attribute{{Name: AttrType, Value: prefix}},
		Parent:     &parentRef,
		Children:   []element.Ref{child.Ref()},
	}

	child = latest(child, hc)
	movedChild := child.Clone()
	privateRef := private.Ref()
	movedChild.Parent = &privateRef

	newParent := parent.Clone()
	newParent.Children = append(newParent.Children, privateRef)

	return []element.Operation{
		{Status: element.StatusCreated, NewRecord: &private},
		updated(child, movedChild),
		updated(parent, newParent),
	}
}

func appendToPrivate(child, private element.Record) []element.Operation {
	privateRef := private.Ref()
	movedChild := child.Clone()
	movedChild.Parent = &privateRef

	newPrivate := private.Clone()
	if !newPrivate.HasChild(child.Ref()) {
		newPrivate.Children = append(newPrivate.Children, child.Ref())
	}

	return []element.Operation{
		updated(child, movedChild),
		updated(private, newPrivate),
	}
}

// latest resolves rec through the transaction, falling back to rec itself
// when the transaction has never seen it or staged it deleted.
func latest(rec element.Record, hc dialect.HookContext) element.Record {
	if found, status, ok := hc.Lookup(rec.ID); ok && status != element.StatusDeleted {
		return found
	}
	return rec
}

func updated(oldRec, newRec element.Record) element.Operation {
	return element.Operation{Status: element.StatusUpdated, OldRecord: &oldRec, NewRecord: &newRec}
}

// StripUUID removes every uuid attribute from a node about to be cloned, and
// vetoes cloning of an empty Private.
func StripUUID(rec element.TreeRecord) (bool, element.TreeRecord) {
	clone := rec.TagName != TagPrivate || len(rec.Tree) > 0
	rec.Record = rec.WithoutAttribute(AttrUUID)
	return clone, rec
}

// EnsureUUID returns a hook that gives every record whose tag declares a uuid
// attribute a non-empty uuid. A generated uuid carries the declared
// namespace and is appended after the other attributes.
func EnsureUUID(schema AttributeSchema, uuids idgen.Generator) dialect.AfterStandardizedRecordHook {
	return func(rec element.Record, _ dialect.HookContext) element.Record {
		detail, ok := schema.Attribute(rec.TagName, AttrUUID)
		if !ok {
			return rec
		}
		if v, _ := rec.Attr(AttrUUID); v != "" {
			return rec
		}

		out := rec.WithoutAttribute(AttrUUID)
		attr := element.Attribute{Name: AttrUUID, Value: uuids()}
		if detail.Namespace != nil {
			ns := *detail.Namespace
			attr.Namespace = &ns
		}
		out.Attributes = append(out.Attributes, attr)
		return out
	}
}
