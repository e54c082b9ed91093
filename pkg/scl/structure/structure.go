// SPDX-License-Identifier: MPL-2.0

// Package structure finds or creates the fixed ancestor chains SCL content
// hangs from.
package structure

import (
	"errors"
	"fmt"
	"slices"

	"github.com/sclkit/sclkit/pkg/element"
	"github.com/sclkit/sclkit/pkg/engine"
	"github.com/sclkit/sclkit/pkg/scl"
)

// DefaultName names levels created without an explicit name.
const DefaultName = "TEMPLATE"

// ErrInvalidFocus is returned when the requested focus is not on the path.
var ErrInvalidFocus = errors.New("focus is not on the ancestor path")

type (
	// Level is one step of an ancestor path. An empty Name matches any
	// existing element of TagName and creates one named DefaultName.
	Level struct {
		TagName string
		Name    string
	}

	// Path is the outcome of EnsureAncestorPath.
	Path struct {
		// Cursor is focused on the requested level.
		Cursor *engine.Cursor
		// IDs holds the resolved id of every level, in level order.
		IDs []string
	}

	// Names selects the Substation, VoltageLevel and Bay of a section.
	Names struct {
		Substation   string
		VoltageLevel string
		Bay          string
	}

	// Section is the outcome of EnsureSubstationSection.
	Section struct {
		Cursor         *engine.Cursor
		SubstationID   string
		VoltageLevelID string
		BayID          string
	}
)

// EnsureAncestorPath walks levels from the cursor focus, descending into the
// first direct child matching each level and creating it when none does.
// The returned cursor is then moved up to the element tagged focus, which
// is either the starting element or one of the levels.
//
// Calling it twice with the same levels resolves the same ids and stages
// nothing the second time.
func EnsureAncestorPath(c *engine.Cursor, levels []Level, focus string) (*Path, error) {
	start := c.FocusRef().TagName
	if focus != start && !slices.ContainsFunc(levels, func(l Level) bool { return l.TagName == focus }) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFocus, focus)
	}

	path := &Path{IDs: make([]string, 0, len(levels))}
	cur := c
	for _, level := range levels {
		next, err := descend(cur, level)
		if err != nil {
			return nil, err
		}
		cur = next
		path.IDs = append(path.IDs, cur.FocusRef().ID)
	}

	for cur.FocusRef().TagName != focus {
		parent, err := cur.GoToParent()
		if err != nil {
			return nil, fmt.Errorf("ascend to %s: %w", focus, err)
		}
		cur = parent
	}
	path.Cursor = cur
	return path, nil
}

// descend moves to the first direct child matching level, creating it when
// none does.
func descend(c *engine.Cursor, level Level) (*engine.Cursor, error) {
	state, err := c.Context()
	if err != nil {
		return nil, err
	}
	for _, ref := range state.CurrentFocus.Children {
		if ref.TagName != level.TagName {
			continue
		}
		child, err := c.GoToElement(engine.Selector{TagName: ref.TagName, ID: ref.ID})
		if err != nil {
			// Staged for deletion.
			continue
		}
		if level.Name == "" {
			return child, nil
		}
		values, err := child.AttributesValues()
		if err != nil {
			return nil, err
		}
		if values[scl.AttrName] == level.Name {
			return child, nil
		}
	}

	name := level.Name
	if name == "" {
		name = DefaultName
	}
	return c.AddChild(engine.Child{
		TagName:    level.TagName,
		Attributes: []element.Attribute{{Name: scl.AttrName, Value: name}},
		SetFocus:   true,
	})
}

// EnsureSubstationSection makes sure SCL holds a Substation, VoltageLevel
// and Bay matching names and returns a cursor focused on focus, one of SCL,
// Substation, VoltageLevel or Bay. The cursor may be anywhere in the
// document.
func EnsureSubstationSection(c *engine.Cursor, focus string, names Names) (*Section, error) {
	root, err := c.GoToElement(engine.Selector{TagName: scl.TagSCL})
	if err != nil {
		return nil, err
	}
	path, err := EnsureAncestorPath(root, []Level{
		{TagName: scl.TagSubstation, Name: names.Substation},
		{TagName: scl.TagVoltageLevel, Name: names.VoltageLevel},
		{TagName: scl.TagBay, Name: names.Bay},
	}, focus)
	if err != nil {
		return nil, err
	}
	return &Section{
		Cursor:         path.Cursor,
		SubstationID:   path.IDs[0],
		VoltageLevelID: path.IDs[1],
		BayID:          path.IDs[2],
	}, nil
}
