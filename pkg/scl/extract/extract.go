// SPDX-License-Identifier: MPL-2.0

// Package extract copies a subtree of one SCL document into another,
// optionally promoting its root and carrying the data type templates it
// uses.
package extract

import (
	"errors"
	"fmt"
	"slices"

	"github.com/sclkit/sclkit/pkg/engine"
	"github.com/sclkit/sclkit/pkg/scl"
	"github.com/sclkit/sclkit/pkg/scl/datatypes"
	"github.com/sclkit/sclkit/pkg/scl/structure"
)

// Extension is a target file flavor of a Function extraction.
type Extension string

// Function extraction flavors.
const (
	// ExtFSD is a function specification: LNodes lose their content.
	ExtFSD Extension = "FSD"
	// ExtASD is an application specification.
	ExtASD Extension = "ASD"
	// ExtISD is an IED specification.
	ExtISD Extension = "ISD"
)

// ErrInvalidLevel is returned for an anchor level other than Substation,
// VoltageLevel or Bay.
var ErrInvalidLevel = errors.New("invalid anchor level")

var (
	// FSD keeps LNode elements but drops their children.
	FSD = Profile{
		Name:    string(ExtFSD),
		Exclude: []engine.Exclude{{TagName: scl.TagLNode, Scope: engine.ScopeChildren}},
	}
	// ASD copies the subtree unfiltered.
	ASD = Profile{Name: string(ExtASD)}
	// ISD copies the subtree unfiltered.
	ISD = Profile{Name: string(ExtISD)}
	// SubFunctionProfile promotes a SubFunction to a Function, dropping the
	// content that only makes sense inside its original Function.
	SubFunctionProfile = Profile{
		Name:      scl.TagSubFunction,
		PromoteTo: scl.TagFunction,
		Exclude: excludeSelf(
			scl.TagLNodeInputs, scl.TagLNodeOutputs, scl.TagDOS,
			scl.TagFunctionSclRef, scl.TagVariable, scl.TagGeneralEquipment, scl.TagConductingEquipment,
			scl.TagProcessResources, scl.TagPowerSystemRelations,
			scl.TagLabels, scl.TagBehaviorDescription,
		),
	}

	anchorLevels = []string{scl.TagSubstation, scl.TagVoltageLevel, scl.TagBay}
)

type (
	// Profile is a named extraction recipe.
	Profile struct {
		Name    string
		Exclude []engine.Exclude
		// PromoteTo retags the copied root when set.
		PromoteTo string
		// ResolveDataTypes also copies the data type templates the copied
		// LNodes refer to.
		ResolveDataTypes bool
	}

	// Target is where an extraction lands.
	Target struct {
		// Root is any cursor of the target document.
		Root *engine.Cursor
		// Level is the anchor the copy is added under; Substation when
		// empty.
		Level string
		// Names selects or names the anchor section.
		Names structure.Names
	}

	// Result holds the cursors an extraction leaves behind. Nothing is
	// committed.
	Result struct {
		// Source is the source cursor, unchanged and with nothing staged.
		Source *engine.Cursor
		// Target is focused on the copied root.
		Target *engine.Cursor
		// DataTypes counts the template entries copied into the target.
		DataTypes int
	}

	// Option adjusts the profile of a convenience extraction.
	Option func(*Profile)
)

func excludeSelf(tags ...string) []engine.Exclude {
	out := make([]engine.Exclude, 0, len(tags))
	for _, tag := range tags {
		out = append(out, engine.Exclude{TagName: tag, Scope: engine.ScopeSelf})
	}
	return out
}

// WithDataTypes makes the extraction copy the data type templates used by
// the copied LNodes.
func WithDataTypes() Option {
	return func(p *Profile) { p.ResolveDataTypes = true }
}

// ProfileFor returns the built-in profile of a Function extraction flavor.
func ProfileFor(ext Extension) (Profile, error) {
	switch ext {
	case ExtFSD:
		return FSD, nil
	case ExtASD:
		return ASD, nil
	case ExtISD:
		return ISD, nil
	default:
		return Profile{}, fmt.Errorf("unknown extension %q", ext)
	}
}

// Function copies the Function under the source cursor into target.
func Function(source *engine.Cursor, target Target, ext Extension, opts ...Option) (*Result, error) {
	profile, err := ProfileFor(ext)
	if err != nil {
		return nil, err
	}
	for _, opt := range opts {
		opt(&profile)
	}
	return Subtree(source, target, profile)
}

// SubFunction copies the SubFunction under the source cursor into target as
// a Function.
func SubFunction(source *engine.Cursor, target Target, opts ...Option) (*Result, error) {
	profile := SubFunctionProfile
	for _, opt := range opts {
		opt(&profile)
	}
	return Subtree(source, target, profile)
}

// Subtree copies the element under the source cursor, filtered by profile,
// under the target anchor. The anchor section is found or created first.
// Every copied element gets a fresh id and passes the clone hooks.
func Subtree(source *engine.Cursor, target Target, profile Profile) (*Result, error) {
	level := target.Level
	if level == "" {
		level = scl.TagSubstation
	}
	if !slices.Contains(anchorLevels, level) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidLevel, level)
	}

	tree, err := source.GetTree(engine.TreeOptions{Exclude: profile.Exclude})
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", source.FocusRef().TagName, err)
	}

	section, err := structure.EnsureSubstationSection(target.Root, level, target.Names)
	if err != nil {
		return nil, fmt.Errorf("prepare %s: %w", level, err)
	}

	if profile.PromoteTo != "" {
		tree.TagName = profile.PromoteTo
	}
	copied, err := section.Cursor.DeepCloneChild(tree, true)
	if err != nil {
		return nil, fmt.Errorf("copy %s: %w", tree.TagName, err)
	}

	res := &Result{Source: source, Target: copied}
	if !profile.ResolveDataTypes {
		return res, nil
	}

	copiedTree, err := copied.GetTree(engine.TreeOptions{})
	if err != nil {
		return nil, err
	}
	res.DataTypes, err = copyDataTypes(source, copied, datatypes.LnTypes(copiedTree))
	if err != nil {
		return nil, fmt.Errorf("copy data types: %w", err)
	}
	return res, nil
}

// copyDataTypes resolves lnTypes in the source templates and copies every
// entry the target templates lack, creating them when needed.
func copyDataTypes(source, target *engine.Cursor, lnTypes []string) (int, error) {
	if len(lnTypes) == 0 {
		return 0, nil
	}
	srcTemplates, err := source.GoToElement(engine.Selector{TagName: scl.TagDataTypeTemplates})
	if errors.Is(err, engine.ErrElementNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	model, err := datatypes.ResolveDataModel(srcTemplates, lnTypes)
	if err != nil {
		return 0, err
	}
	if model.Len() == 0 {
		return 0, nil
	}

	templates, err := target.GoToElement(engine.Selector{TagName: scl.TagDataTypeTemplates})
	if errors.Is(err, engine.ErrElementNotFound) {
		root, rootErr := target.GoToElement(engine.Selector{TagName: scl.TagSCL})
		if rootErr != nil {
			return 0, rootErr
		}
		templates, err = root.AddChild(engine.Child{TagName: scl.TagDataTypeTemplates, SetFocus: true})
	}
	if err != nil {
		return 0, err
	}

	copied := 0
	for _, entry := range model.All() {
		id := entry.AttrValue(scl.AttrID)
		existing, err := templates.FindDescendants(&engine.Filter{TagName: entry.TagName, Attributes: map[string]string{scl.AttrID: id}})
		if err != nil {
			return copied, err
		}
		if len(existing[entry.TagName]) > 0 {
			continue
		}
		if _, err := templates.DeepCloneChild(entry, false); err != nil {
			return copied, err
		}
		copied++
	}
	return copied, nil
}
