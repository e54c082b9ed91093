// SPDX-License-Identifier: MPL-2.0

package sclxml

import (
	"encoding/xml"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/sclkit/sclkit/pkg/dialect"
	"github.com/sclkit/sclkit/pkg/element"
)

// ExportOptions tunes Export.
type ExportOptions struct {
	// WithIDs writes every element id as a dev:id attribute, so that a
	// later import with UseCustomIDs restores them.
	WithIDs bool
	// Indent is the per-level indentation; a tab when empty.
	Indent string
}

// Export writes the tree formed by records as an indented XML document.
// The root declares the default namespace and every prefixed namespace in
// use.
func Export(w io.Writer, records []element.Record, cfg *dialect.Config, opts ExportOptions) error {
	byID := make(map[string]element.Record, len(records))
	var roots []string
	for _, rec := range records {
		byID[rec.ID] = rec
		if rec.Parent == nil {
			roots = append(roots, rec.ID)
		}
	}
	if len(roots) != 1 {
		return fmt.Errorf("%w: found %d", ErrNoRoot, len(roots))
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	indent := opts.Indent
	if indent == "" {
		indent = "\t"
	}
	enc.Indent("", indent)

	ex := &exporter{enc: enc, byID: byID, opts: opts}
	if err := ex.element(byID[roots[0]], rootDeclarations(records, cfg, opts)); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := enc.Flush(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

type exporter struct {
	enc  *xml.Encoder
	byID map[string]element.Record
	opts ExportOptions
}

func (ex *exporter) element(rec element.Record, extra []xml.Attr) error {
	start := xml.StartElement{Name: xml.Name{Local: qualified(rec.Namespace.Prefix, rec.TagName)}}
	start.Attr = append(start.Attr, extra...)
	if ex.opts.WithIDs {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: qualified(DevPrefix, DevIDAttribute)}, Value: rec.ID})
	}
	for _, attr := range rec.Attributes {
		prefix := ""
		if attr.Namespace != nil {
			prefix = attr.Namespace.Prefix
		}
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: qualified(prefix, attr.Name)}, Value: attr.Value})
	}

	if err := ex.enc.EncodeToken(start); err != nil {
		return err
	}
	if rec.Value != "" {
		if err := ex.enc.EncodeToken(xml.CharData(rec.Value)); err != nil {
			return err
		}
	}
	for _, ref := range rec.Children {
		child, ok := ex.byID[ref.ID]
		if !ok {
			return fmt.Errorf("%s %q: missing child %s %q", rec.TagName, rec.ID, ref.TagName, ref.ID)
		}
		if err := ex.element(child, nil); err != nil {
			return err
		}
	}
	return ex.enc.EncodeToken(start.End())
}

// rootDeclarations returns the xmlns attributes of the root: the default
// namespace first, then every prefixed namespace in use sorted by prefix.
func rootDeclarations(records []element.Record, cfg *dialect.Config, opts ExportOptions) []xml.Attr {
	byPrefix := map[string]string{}
	add := func(ns element.Namespace) {
		if ns.Prefix != "" {
			byPrefix[ns.Prefix] = ns.URI
		}
	}
	for _, rec := range records {
		add(rec.Namespace)
		for _, attr := range rec.Attributes {
			if attr.Namespace != nil {
				add(*attr.Namespace)
			}
		}
	}
	if opts.WithIDs {
		byPrefix[DevPrefix] = DevNamespace
	}

	attrs := []xml.Attr{{Name: xml.Name{Local: "xmlns"}, Value: cfg.DefaultNamespace().URI}}
	for _, prefix := range slices.Sorted(maps.Keys(byPrefix)) {
		attrs = append(attrs, xml.Attr{Name: xml.Name{Local: "xmlns:" + prefix}, Value: byPrefix[prefix]})
	}
	return attrs
}

func qualified(prefix, local string) string {
	if prefix == "" {
		return local
	}
	return prefix + ":" + local
}
