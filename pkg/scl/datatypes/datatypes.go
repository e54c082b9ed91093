// SPDX-License-Identifier: MPL-2.0

// Package datatypes resolves the DataTypeTemplates entries a set of logical
// node types depends on.
//
// The four catalogs reference each other by id: LNodeType/DO points at a
// DOType, DOType/DA and DAType/BDA point at a DAType (or at an EnumType when
// bType is Enum) and DOType/SDO points back at a DOType. References can form
// cycles; every catalog keeps a seen set and an entry is only explored the
// first time it is added, so resolution always terminates.
package datatypes

import (
	"github.com/sclkit/sclkit/pkg/element"
	"github.com/sclkit/sclkit/pkg/engine"
	"github.com/sclkit/sclkit/pkg/scl"
)

// DataModel is the closure of a set of LNodeTypes. Every collection is in
// discovery order and holds each id at most once.
type DataModel struct {
	LNodeTypes []element.TreeRecord
	DOTypes    []element.TreeRecord
	DATypes    []element.TreeRecord
	EnumTypes  []element.TreeRecord
}

// All returns every entry, LNodeTypes first, then DOTypes, DATypes and
// EnumTypes.
func (m *DataModel) All() []element.TreeRecord {
	out := make([]element.TreeRecord, 0, m.Len())
	out = append(out, m.LNodeTypes...)
	out = append(out, m.DOTypes...)
	out = append(out, m.DATypes...)
	return append(out, m.EnumTypes...)
}

// Len returns the number of entries.
func (m *DataModel) Len() int {
	return len(m.LNodeTypes) + len(m.DOTypes) + len(m.DATypes) + len(m.EnumTypes)
}

type resolver struct {
	templates *engine.Cursor
	seen      map[string]map[string]bool
	model     *DataModel
}

// ResolveDataModel returns the LNodeTypes named by lnTypes and every DOType,
// DAType and EnumType they reach. The cursor should be on DataTypeTemplates;
// from anywhere else the document's DataTypeTemplates is used. LNodeTypes
// are fetched with their DO children only. Ids and type references that
// resolve to nothing are skipped.
func ResolveDataModel(c *engine.Cursor, lnTypes []string) (*DataModel, error) {
	templates := c
	if c.FocusRef().TagName != scl.TagDataTypeTemplates {
		var err error
		if templates, err = c.GoToElement(engine.Selector{TagName: scl.TagDataTypeTemplates}); err != nil {
			return nil, err
		}
	}

	r := &resolver{
		templates: templates,
		seen: map[string]map[string]bool{
			scl.TagLNodeType: {},
			scl.TagDOType:    {},
			scl.TagDAType:    {},
			scl.TagEnumType:  {},
		},
		model: &DataModel{},
	}

	for _, id := range lnTypes {
		lnType, added, err := r.add(scl.TagLNodeType, id, scl.TagDO)
		if err != nil {
			return nil, err
		}
		if !added {
			continue
		}
		for _, do := range lnType.Tree {
			if err := r.doType(do.AttrValue(scl.AttrType)); err != nil {
				return nil, err
			}
		}
	}
	return r.model, nil
}

// add fetches the catalog entry tag/id and registers it. It reports false
// when the entry was seen before or does not exist.
func (r *resolver) add(tag, id string, children ...string) (element.TreeRecord, bool, error) {
	if id == "" || r.seen[tag][id] {
		return element.TreeRecord{}, false, nil
	}

	include := &engine.Include{TagName: tag, Attributes: map[string]string{scl.AttrID: id}}
	for _, child := range children {
		include.Children = append(include.Children, engine.Include{TagName: child})
	}
	tree, err := r.templates.GetTree(engine.TreeOptions{Include: include})
	if err != nil {
		return element.TreeRecord{}, false, err
	}
	if len(tree.Tree) == 0 {
		return element.TreeRecord{}, false, nil
	}

	entry := tree.Tree[0]
	r.seen[tag][id] = true
	switch tag {
	case scl.TagLNodeType:
		r.model.LNodeTypes = append(r.model.LNodeTypes, entry)
	case scl.TagDOType:
		r.model.DOTypes = append(r.model.DOTypes, entry)
	case scl.TagDAType:
		r.model.DATypes = append(r.model.DATypes, entry)
	case scl.TagEnumType:
		r.model.EnumTypes = append(r.model.EnumTypes, entry)
	}
	return entry, true, nil
}

func (r *resolver) doType(id string) error {
	entry, added, err := r.add(scl.TagDOType, id)
	if err != nil || !added {
		return err
	}
	for _, child := range entry.Tree {
		switch child.TagName {
		case scl.TagSDO:
			err = r.doType(child.AttrValue(scl.AttrType))
		case scl.TagDA:
			err = r.attribute(child)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *resolver) daType(id string) error {
	entry, added, err := r.add(scl.TagDAType, id)
	if err != nil || !added {
		return err
	}
	for _, child := range entry.Tree {
		if child.TagName != scl.TagBDA {
			continue
		}
		if err := r.attribute(child); err != nil {
			return err
		}
	}
	return nil
}

// attribute follows the type reference of a DA or BDA.
func (r *resolver) attribute(attr element.TreeRecord) error {
	id := attr.AttrValue(scl.AttrType)
	if id == "" {
		return nil
	}
	if attr.AttrValue(scl.AttrBType) == scl.BTypeEnum {
		_, _, err := r.add(scl.TagEnumType, id)
		return err
	}
	return r.daType(id)
}

// LnTypes returns the distinct lnType values of the LNodes in tree, in
// document order.
func LnTypes(tree element.TreeRecord) []string {
	var out []string
	seen := map[string]bool{}
	tree.Walk(func(node element.TreeRecord) {
		if node.TagName != scl.TagLNode {
			return
		}
		if id := node.AttrValue(scl.AttrLnType); id != "" && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	})
	return out
}
