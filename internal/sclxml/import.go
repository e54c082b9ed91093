// SPDX-License-Identifier: MPL-2.0

package sclxml

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sclkit/sclkit/pkg/dialect"
	"github.com/sclkit/sclkit/pkg/element"
	"github.com/sclkit/sclkit/pkg/idgen"
)

type (
	// Options tunes Import.
	Options struct {
		// UseCustomIDs takes element ids from dev:id attributes when present.
		UseCustomIDs bool
		// IDs generates the remaining ids; idgen.Default when nil.
		IDs idgen.Generator
	}

	// Result is an imported document in document order, root first.
	Result struct {
		Records []element.Record
		// Namespaces lists every namespace declared in the document, keyed
		// by URI, with dialect prefixes taking precedence.
		Namespaces map[string]element.Namespace
	}

	importer struct {
		cfg   *dialect.Config
		opts  Options
		ns    map[string]element.Namespace
		seen  map[string]bool
		out   []element.Record
		stack []int
		text  []*strings.Builder
	}
)

// Import decodes an XML document into flat records. Element and attribute
// namespaces are mapped to the dialect namespaces; foreign namespaces keep
// the prefix the document declares them with. Whitespace-only text is
// dropped; other text becomes the element value, trimmed.
func Import(r io.Reader, cfg *dialect.Config, opts Options) (*Result, error) {
	if opts.IDs == nil {
		opts.IDs = idgen.Default
	}
	imp := &importer{
		cfg:  cfg,
		opts: opts,
		ns:   make(map[string]element.Namespace),
		seen: make(map[string]bool),
	}

	decoder := xml.NewDecoder(r)
	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if err := imp.start(t); err != nil {
				return nil, err
			}
		case xml.CharData:
			if n := len(imp.text); n > 0 {
				imp.text[n-1].Write(t)
			}
		case xml.EndElement:
			imp.end()
		}
	}

	if len(imp.out) == 0 {
		return nil, ErrNoRoot
	}
	return &Result{Records: imp.out, Namespaces: imp.ns}, nil
}

func (imp *importer) start(t xml.StartElement) error {
	imp.declare(t.Attr)

	if len(imp.out) > 0 && len(imp.stack) == 0 {
		return fmt.Errorf("%w: second root %s", ErrNoRoot, t.Name.Local)
	}
	if len(imp.stack) == 0 && t.Name.Local != imp.cfg.RootElementName {
		return fmt.Errorf("%w: %s, want %s", ErrUnexpectedRoot, t.Name.Local, imp.cfg.RootElementName)
	}

	rec := element.Record{
		TagName:   t.Name.Local,
		Namespace: imp.namespace(t.Name.Space),
	}
	for _, attr := range t.Attr {
		switch {
		case attr.Name.Space == "xmlns" || (attr.Name.Space == "" && attr.Name.Local == "xmlns"):
			continue
		case attr.Name.Space == DevNamespace:
			if attr.Name.Local == DevIDAttribute && imp.opts.UseCustomIDs {
				rec.ID = attr.Value
			}
			continue
		}
		out := element.Attribute{Name: attr.Name.Local, Value: attr.Value}
		if attr.Name.Space != "" {
			ns := imp.namespace(attr.Name.Space)
			out.Namespace = &ns
		}
		rec.Attributes = append(rec.Attributes, out)
	}

	if rec.ID == "" {
		rec.ID = imp.opts.IDs()
	}
	if imp.seen[rec.ID] {
		return fmt.Errorf("%w: %q", ErrDuplicateID, rec.ID)
	}
	imp.seen[rec.ID] = true

	if n := len(imp.stack); n > 0 {
		parent := &imp.out[imp.stack[n-1]]
		ref := parent.Ref()
		rec.Parent = &ref
		parent.Children = append(parent.Children, rec.Ref())
	}

	imp.out = append(imp.out, rec)
	imp.stack = append(imp.stack, len(imp.out)-1)
	imp.text = append(imp.text, &strings.Builder{})
	return nil
}

func (imp *importer) end() {
	n := len(imp.stack)
	if n == 0 {
		return
	}
	imp.out[imp.stack[n-1]].Value = strings.TrimSpace(imp.text[n-1].String())
	imp.stack = imp.stack[:n-1]
	imp.text = imp.text[:n-1]
}

// declare records the namespaces declared by attrs.
func (imp *importer) declare(attrs []xml.Attr) {
	for _, attr := range attrs {
		var prefix string
		switch {
		case attr.Name.Space == "xmlns":
			prefix = attr.Name.Local
		case attr.Name.Space == "" && attr.Name.Local == "xmlns":
		default:
			continue
		}
		if _, known := imp.ns[attr.Value]; known {
			continue
		}
		if ns, ok := imp.cfg.NamespaceByURI(attr.Value); ok {
			imp.ns[attr.Value] = ns
			continue
		}
		imp.ns[attr.Value] = element.Namespace{URI: attr.Value, Prefix: prefix}
	}
}

// namespace maps a resolved namespace URI to its element namespace. Names
// without a namespace fall in the dialect default.
func (imp *importer) namespace(uri string) element.Namespace {
	if uri == "" {
		return imp.cfg.DefaultNamespace()
	}
	if ns, ok := imp.ns[uri]; ok {
		return ns
	}
	if ns, ok := imp.cfg.NamespaceByURI(uri); ok {
		return ns
	}
	return element.Namespace{URI: uri}
}
