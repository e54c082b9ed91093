// SPDX-License-Identifier: MPL-2.0

package element

import "slices"

const (
	// StatusCreated marks a record that did not exist before the transaction.
	StatusCreated Status = "created"
	// StatusUpdated marks a record whose committed version was modified.
	StatusUpdated Status = "updated"
	// StatusDeleted marks a record removed by the transaction.
	StatusDeleted Status = "deleted"
	// StatusUnchanged marks a committed record untouched by the transaction.
	StatusUnchanged Status = "unchanged"
)

type (
	// Status is the lifecycle state of a record inside a staging context.
	Status string

	// Namespace is a uri+prefix pair. The dialect default namespace carries
	// an empty prefix.
	Namespace struct {
		URI    string `json:"uri"`
		Prefix string `json:"prefix"`
	}

	// Attribute is a single name/value pair. Namespace is nil for attributes
	// in no namespace, which is the common case for SCL.
	Attribute struct {
		Name      string     `json:"name"`
		Value     string     `json:"value"`
		Namespace *Namespace `json:"namespace,omitempty"`
	}

	// Ref is a weak reference to an element: identity plus tag, never an
	// owning pointer.
	Ref struct {
		ID      string `json:"id"`
		TagName string `json:"tagName"`
	}

	// Record is the raw, flat projection of one element. It is the unit of a
	// staged mutation.
	Record struct {
		ID         string      `json:"id"`
		TagName    string      `json:"tagName"`
		Namespace  Namespace   `json:"namespace"`
		Attributes []Attribute `json:"attributes"`
		Value      string      `json:"value"`
		Parent     *Ref        `json:"parent"`
		Children   []Ref       `json:"children"`
	}

	// ChainRecord is a Record annotated with its status in the staging
	// context it was read from.
	ChainRecord struct {
		Record
		Status Status `json:"status"`
	}

	// TreeRecord is a Record plus its materialized (possibly filtered)
	// subtree.
	TreeRecord struct {
		Record
		Tree []TreeRecord `json:"tree"`
	}

	// Operation is one pending mutation. OldRecord is nil for creations,
	// NewRecord is nil for deletions.
	Operation struct {
		Status    Status  `json:"status"`
		OldRecord *Record `json:"oldRecord,omitempty"`
		NewRecord *Record `json:"newRecord,omitempty"`
	}
)

// String returns the status name.
func (s Status) String() string { return string(s) }

// IsDefault reports whether the namespace is the unprefixed default one.
func (n Namespace) IsDefault() bool { return n.Prefix == "" }

// Ref returns a weak reference to the record.
func (r Record) Ref() Ref {
	return Ref{ID: r.ID, TagName: r.TagName}
}

// Clone returns a deep copy of the record. Mutating the copy's slices or
// pointers never affects the original.
func (r Record) Clone() Record {
	out := r
	if r.Attributes != nil {
		out.Attributes = make([]Attribute, len(r.Attributes))
		for i, attr := range r.Attributes {
			out.Attributes[i] = attr
			if attr.Namespace != nil {
				ns := *attr.Namespace
				out.Attributes[i].Namespace = &ns
			}
		}
	}
	if r.Parent != nil {
		parent := *r.Parent
		out.Parent = &parent
	}
	out.Children = slices.Clone(r.Children)
	return out
}

// Attr returns the value of the named attribute and whether it is present.
func (r Record) Attr(name string) (string, bool) {
	for _, attr := range r.Attributes {
		if attr.Name == name {
			return attr.Value, true
		}
	}
	return "", false
}

// AttrValue returns the value of the named attribute, or "" when absent.
func (r Record) AttrValue(name string) string {
	v, _ := r.Attr(name)
	return v
}

// AttributeValues returns the attributes as a name -> value map. When an
// attribute name repeats (different namespaces), the last one wins.
func (r Record) AttributeValues() map[string]string {
	values := make(map[string]string, len(r.Attributes))
	for _, attr := range r.Attributes {
		values[attr.Name] = attr.Value
	}
	return values
}

// HasChild reports whether ref is listed among the record's children.
func (r Record) HasChild(ref Ref) bool {
	return slices.Contains(r.Children, ref)
}

// WithAttributes returns a copy of the record with attrs merged in: existing
// attributes with the same name are replaced in place, new ones are appended.
func (r Record) WithAttributes(attrs ...Attribute) Record {
	out := r.Clone()
	for _, attr := range attrs {
		idx := slices.IndexFunc(out.Attributes, func(a Attribute) bool { return a.Name == attr.Name })
		if idx >= 0 {
			if attr.Namespace == nil {
				attr.Namespace = out.Attributes[idx].Namespace
			}
			out.Attributes[idx] = attr
			continue
		}
		out.Attributes = append(out.Attributes, attr)
	}
	return out
}

// WithoutAttribute returns a copy of the record with every attribute called
// name removed, preserving the order of the others.
func (r Record) WithoutAttribute(name string) Record {
	out := r.Clone()
	out.Attributes = slices.DeleteFunc(out.Attributes, func(a Attribute) bool { return a.Name == name })
	return out
}

// Flatten returns the tree's records in depth-first pre-order.
func (t TreeRecord) Flatten() []Record {
	out := []Record{t.Record}
	for _, child := range t.Tree {
		out = append(out, child.Flatten()...)
	}
	return out
}

// Walk calls fn for the tree root and every descendant in pre-order.
func (t TreeRecord) Walk(fn func(TreeRecord)) {
	fn(t)
	for _, child := range t.Tree {
		child.Walk(fn)
	}
}

// Count returns the number of descendants of t (t included) whose tag is
// tagName.
func (t TreeRecord) Count(tagName string) int {
	n := 0
	t.Walk(func(node TreeRecord) {
		if node.TagName == tagName {
			n++
		}
	})
	return n
}
