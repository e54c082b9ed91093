// SPDX-License-Identifier: MPL-2.0

// Package history maintains the Header/History/Hitem revision log of an SCL
// document.
package history

import (
	"cmp"
	"fmt"
	"math"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/sclkit/sclkit/pkg/element"
	"github.com/sclkit/sclkit/pkg/engine"
	"github.com/sclkit/sclkit/pkg/scl"
)

// WhenLayout is the time layout of Hitem/@when.
const WhenLayout = "Mon Jan 02 15:04:05 MST 2006"

// Version policies.
const (
	// VersionKeep reuses the version of the latest item.
	VersionKeep VersionPolicy = "keep"
	// VersionIncrement bumps the version of the latest item by one.
	VersionIncrement VersionPolicy = "increment"
)

var whitespace = regexp.MustCompile(`\s+`)

type (
	// VersionPolicy selects how a new item's version follows the latest one.
	VersionPolicy string

	// Header holds the Header attributes used when the document has none.
	Header struct {
		// ID defaults to a normalized form of the entry filename.
		ID       string
		FileType string
		// NameStructure defaults to the dialect default.
		NameStructure string
		Version       VersionPolicy
		Tool          string
	}

	// Item is the description of one change.
	Item struct {
		Who  string
		What string
	}

	// Entry is one AddEntry request.
	Entry struct {
		Filename string
		Header   Header
		Item     Item
	}

	// Option configures AddEntry.
	Option func(*options)

	options struct {
		now func() time.Time
	}
)

// WithClock sets the clock Hitem/@when is read from.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// ParseVersionPolicy validates a policy name.
func ParseVersionPolicy(s string) (VersionPolicy, error) {
	switch p := VersionPolicy(s); p {
	case VersionKeep, VersionIncrement:
		return p, nil
	default:
		return "", fmt.Errorf("unknown version policy %q (want %s or %s)", s, VersionKeep, VersionIncrement)
	}
}

// number reads a version or revision, counting missing and non-numeric
// values as 0.
func number(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func format(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func compareItems(a, b element.ChainRecord) int {
	return cmp.Or(
		cmp.Compare(number(a.AttrValue("version")), number(b.AttrValue("version"))),
		cmp.Compare(number(a.AttrValue("revision")), number(b.AttrValue("revision"))),
	)
}

// SortedHitems returns the Hitems of the History under the cursor, ordered
// by version then revision. Items with equal keys keep their document order.
// A cursor that is not on a History uses the document's first History.
func SortedHitems(c *engine.Cursor) ([]element.ChainRecord, error) {
	historyCursor := c
	if c.FocusRef().TagName != scl.TagHistory {
		var err error
		if historyCursor, err = c.GoToElement(engine.Selector{TagName: scl.TagHistory}); err != nil {
			return nil, err
		}
	}
	found, err := historyCursor.FindDescendants(&engine.Filter{TagName: scl.TagHitem})
	if err != nil {
		return nil, err
	}
	items := found[scl.TagHitem]
	slices.SortStableFunc(items, compareItems)
	return items, nil
}

// LatestHitem returns the greatest Hitem by (version, revision), if any.
func LatestHitem(c *engine.Cursor) (element.ChainRecord, bool, error) {
	items, err := SortedHitems(c)
	if err != nil || len(items) == 0 {
		return element.ChainRecord{}, false, err
	}
	return items[len(items)-1], true, nil
}

// HeaderID derives a Header id from a filename: the base name without its
// extension, lower-cased, with whitespace runs replaced by underscores.
func HeaderID(filename string) string {
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return whitespace.ReplaceAllString(strings.ToLower(base), "_")
}

// next computes the version and revision following latest.
func next(latest element.ChainRecord, found bool, policy VersionPolicy) (version, revision string) {
	if !found {
		return "0", "1"
	}
	v := number(latest.AttrValue("version"))
	if policy == VersionIncrement {
		v++
	}
	return format(v), format(number(latest.AttrValue("revision")) + 1)
}

// AddEntry appends a Hitem describing e to the document history, creating
// the Header and History when missing, and updates History's version and
// revision to match. Everything is staged on the cursor's transaction and
// the returned cursor is on SCL.
func AddEntry(c *engine.Cursor, e Entry, opts ...Option) (*engine.Cursor, error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if e.Header.Version == "" {
		e.Header.Version = VersionKeep
	}

	root, err := c.GoToElement(engine.Selector{TagName: scl.TagSCL})
	if err != nil {
		return nil, err
	}

	header, err := findOrAdd(root, scl.TagHeader, func() []element.Attribute {
		return headerAttributes(root, e)
	})
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	historyCursor, err := findOrAdd(header, scl.TagHistory, func() []element.Attribute { return nil })
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}

	latest, found, err := LatestHitem(historyCursor)
	if err != nil {
		return nil, err
	}
	version, revision := next(latest, found, e.Header.Version)

	if _, err := historyCursor.Update(
		element.Attribute{Name: "version", Value: version},
		element.Attribute{Name: "revision", Value: revision},
	); err != nil {
		return nil, err
	}
	if _, err := historyCursor.AddChild(engine.Child{
		TagName: scl.TagHitem,
		Attributes: []element.Attribute{
			{Name: "when", Value: o.now().Format(WhenLayout)},
			{Name: "who", Value: e.Item.Who},
			{Name: "what", Value: e.Item.What},
			{Name: "version", Value: version},
			{Name: "revision", Value: revision},
		},
	}); err != nil {
		return nil, err
	}
	return root, nil
}

// findOrAdd moves to the first direct child of tag, adding it with attrs()
// when there is none.
func findOrAdd(c *engine.Cursor, tag string, attrs func() []element.Attribute) (*engine.Cursor, error) {
	state, err := c.Context()
	if err != nil {
		return nil, err
	}
	for _, ref := range state.CurrentFocus.Children {
		if ref.TagName != tag {
			continue
		}
		if child, err := c.GoToElement(engine.Selector{TagName: tag, ID: ref.ID}); err == nil {
			return child, nil
		}
	}
	return c.AddChild(engine.Child{TagName: tag, Attributes: attrs(), SetFocus: true})
}

func headerAttributes(root *engine.Cursor, e Entry) []element.Attribute {
	id := e.Header.ID
	if id == "" {
		id = HeaderID(e.Filename)
	}
	nameStructure := e.Header.NameStructure
	if nameStructure == "" {
		if detail, ok := root.Txn().Document().Dialect().Attribute(scl.TagHeader, "nameStructure"); ok {
			nameStructure = detail.Default
		}
	}
	return []element.Attribute{
		{Name: scl.AttrID, Value: id},
		{Name: "toolID", Value: e.Header.Tool},
		{Name: "nameStructure", Value: nameStructure},
		{Name: "fileType", Value: e.Header.FileType},
		{Name: "version", Value: "0"},
		{Name: "revision", Value: "1"},
	}
}
