// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"slices"

	"github.com/sclkit/sclkit/pkg/element"
)

// Exclusion scopes.
const (
	// ScopeSelf drops every matching node, with its subtree, at any depth.
	ScopeSelf Scope = "self"
	// ScopeChildren keeps matching nodes but drops their subtrees.
	ScopeChildren Scope = "children"
)

type (
	// Scope selects what an Exclude rule removes.
	Scope string

	// Filter matches descendants by tag and attribute values. An empty
	// attribute value in Attributes matches any value, including absence.
	// Children are nested filters evaluated below each match: a match is
	// kept only if every nested filter finds at least one descendant.
	Filter struct {
		TagName    string
		Attributes map[string]string
		Children   []Filter
	}

	// Descendants groups matched records by tag, each group in document
	// order.
	Descendants map[string][]element.ChainRecord

	// Include restricts a tree to matching descendants. Without Children
	// each match keeps its whole subtree; with Children each match keeps
	// only descendants matching the nested includes.
	Include struct {
		TagName    string
		Attributes map[string]string
		Children   []Include
	}

	// Exclude removes nodes of TagName from a tree according to Scope.
	Exclude struct {
		TagName string
		Scope   Scope
	}

	// TreeOptions shapes the tree returned by GetTree.
	TreeOptions struct {
		Include *Include
		Exclude []Exclude
	}
)

func attributesMatch(rec element.Record, want map[string]string) bool {
	for name, value := range want {
		if value == "" {
			continue
		}
		if got, ok := rec.Attr(name); !ok || got != value {
			return false
		}
	}
	return true
}

func (f Filter) matches(rec element.Record) bool {
	return (f.TagName == "" || rec.TagName == f.TagName) && attributesMatch(rec, f.Attributes)
}

// FindDescendants returns the descendants of the focus matching f, grouped
// by tag. Records matched by nested filters are included in their own
// groups. A nil filter returns every descendant.
func (c *Cursor) FindDescendants(f *Filter) (Descendants, error) {
	rec, err := c.current()
	if err != nil {
		return nil, err
	}

	out := Descendants{}
	if f == nil {
		c.txn.walk(rec.Record, func(d element.ChainRecord) bool {
			out[d.TagName] = append(out[d.TagName], cloneChain(d))
			return true
		})
		return out, nil
	}

	c.findInto(rec.Record, *f, out)
	return out, nil
}

// findInto collects matches of f below rec into out and reports whether
// anything matched.
func (c *Cursor) findInto(rec element.Record, f Filter, out Descendants) bool {
	found := false
	c.txn.walk(rec, func(d element.ChainRecord) bool {
		if !f.matches(d.Record) {
			return true
		}
		nested := Descendants{}
		for _, child := range f.Children {
			if !c.findInto(d.Record, child, nested) {
				return true
			}
		}
		found = true
		out[d.TagName] = append(out[d.TagName], cloneChain(d))
		for tag, recs := range nested {
			for _, r := range recs {
				if !slices.ContainsFunc(out[tag], func(x element.ChainRecord) bool { return x.ID == r.ID }) {
					out[tag] = append(out[tag], r)
				}
			}
		}
		return true
	})
	return found
}

func cloneChain(rec element.ChainRecord) element.ChainRecord {
	rec.Record = rec.Clone()
	return rec
}

// GetTree materializes the focused element and its subtree, filtered by
// opts. Exclusions apply below the focus.
func (c *Cursor) GetTree(opts TreeOptions) (element.TreeRecord, error) {
	rec, err := c.current()
	if err != nil {
		return element.TreeRecord{}, err
	}

	root := element.TreeRecord{Record: rec.Clone()}
	if opts.Include == nil {
		root.Tree = c.subtree(rec.Record, opts.Exclude)
		return root, nil
	}
	root.Tree = c.included(rec.Record, []Include{*opts.Include}, opts.Exclude)
	return root, nil
}

func excludedScope(tag string, rules []Exclude) (Scope, bool) {
	for _, rule := range rules {
		if rule.TagName == tag {
			return rule.Scope, true
		}
	}
	return "", false
}

// subtree returns the full tree below rec minus exclusions.
func (c *Cursor) subtree(rec element.Record, exclude []Exclude) []element.TreeRecord {
	var out []element.TreeRecord
	for _, child := range c.txn.children(rec) {
		node := element.TreeRecord{Record: child.Clone()}
		scope, excluded := excludedScope(child.TagName, exclude)
		switch {
		case excluded && scope == ScopeSelf:
			continue
		case excluded && scope == ScopeChildren:
		default:
			node.Tree = c.subtree(child.Record, exclude)
		}
		out = append(out, node)
	}
	return out
}

// included returns, for each include, the descendants of rec matching it
// in document order. The search does not descend into a match.
func (c *Cursor) included(rec element.Record, includes []Include, exclude []Exclude) []element.TreeRecord {
	var out []element.TreeRecord
	for _, child := range c.txn.children(rec) {
		if scope, excluded := excludedScope(child.TagName, exclude); excluded && scope == ScopeSelf {
			continue
		}
		idx := slices.IndexFunc(includes, func(inc Include) bool {
			return inc.TagName == child.TagName && attributesMatch(child.Record, inc.Attributes)
		})
		if idx < 0 {
			out = append(out, c.included(child.Record, includes, exclude)...)
			continue
		}

		inc := includes[idx]
		node := element.TreeRecord{Record: child.Clone()}
		if scope, excluded := excludedScope(child.TagName, exclude); !excluded || scope != ScopeChildren {
			if len(inc.Children) > 0 {
				node.Tree = c.included(child.Record, inc.Children, exclude)
			} else {
				node.Tree = c.subtree(child.Record, exclude)
			}
		}
		out = append(out, node)
	}
	return out
}
