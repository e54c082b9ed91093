// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/sclkit/sclkit/internal/dag"
	"github.com/sclkit/sclkit/pkg/dialect"
	"github.com/sclkit/sclkit/pkg/element"
	"github.com/sclkit/sclkit/pkg/idgen"
	"github.com/sclkit/sclkit/pkg/store"
)

type (
	// Document is one open element tree. Its committed arena is guarded by
	// an RWMutex, so readers never observe a half-applied commit.
	Document struct {
		name    string
		dialect *dialect.Config
		store   store.Store
		ids     idgen.Generator
		logger  *log.Logger

		mu      sync.RWMutex
		records map[string]element.Record
		rootID  string
	}

	// Option configures a Document.
	Option func(*Document)
)

// WithLogger sets the logger commits are reported to.
func WithLogger(logger *log.Logger) Option {
	return func(d *Document) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithIDGenerator sets the generator for element ids.
func WithIDGenerator(gen idgen.Generator) Option {
	return func(d *Document) {
		if gen != nil {
			d.ids = gen
		}
	}
}

// WithName sets the document name used in logs.
func WithName(name string) Option {
	return func(d *Document) { d.name = name }
}

func newDocument(cfg *dialect.Config, s store.Store, opts []Option) *Document {
	d := &Document{
		name:    "document",
		dialect: cfg,
		store:   s,
		ids:     idgen.Default,
		logger:  log.New(io.Discard),
		records: make(map[string]element.Record),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Open loads the document persisted in s. An empty store gets a fresh root
// element, committed immediately, carrying the root's attribute defaults.
func Open(ctx context.Context, cfg *dialect.Config, s store.Store, opts ...Option) (*Document, error) {
	d := newDocument(cfg, s, opts)

	records, err := s.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", d.name, err)
	}
	if len(records) == 0 {
		if err := d.commit(ctx, []element.Operation{{Status: element.StatusCreated, NewRecord: d.newRoot()}}); err != nil {
			return nil, err
		}
		return d, nil
	}

	if err := d.install(records); err != nil {
		return nil, fmt.Errorf("load %s: %w", d.name, err)
	}
	return d, nil
}

// Import writes records, which must form one rooted tree, into the empty
// store s and opens the resulting document.
func Import(ctx context.Context, cfg *dialect.Config, s store.Store, records []element.Record, opts ...Option) (*Document, error) {
	d := newDocument(cfg, s, opts)

	existing, err := s.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", d.name, err)
	}
	if len(existing) > 0 {
		return nil, fmt.Errorf("import %s: %w: store is not empty", d.name, ErrInvalidDocument)
	}
	if err := d.install(records); err != nil {
		return nil, fmt.Errorf("import %s: %w", d.name, err)
	}

	ops := make([]element.Operation, 0, len(records))
	for _, rec := range d.preOrder(d.rootID) {
		ops = append(ops, element.Operation{Status: element.StatusCreated, NewRecord: &rec})
	}
	d.records = make(map[string]element.Record)
	d.rootID = ""
	if err := d.commit(ctx, ops); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Document) newRoot() *element.Record {
	tag := d.dialect.RootElementName
	root := element.Record{
		ID:        d.ids(),
		TagName:   tag,
		Namespace: d.dialect.ElementNamespace(tag),
	}
	if def, ok := d.dialect.Element(tag); ok {
		for _, attr := range def.Attributes {
			if attr.Default != "" {
				root.Attributes = append(root.Attributes, element.Attribute{Name: attr.Name, Value: attr.Default})
			}
		}
	}
	return &root
}

// install validates records as a single rooted tree and makes them the
// committed arena.
func (d *Document) install(records []element.Record) error {
	arena := make(map[string]element.Record, len(records))
	rootID := ""
	for _, rec := range records {
		if _, dup := arena[rec.ID]; dup {
			return fmt.Errorf("%w: duplicate id %q", ErrInvalidDocument, rec.ID)
		}
		arena[rec.ID] = rec
		if rec.Parent == nil {
			if rootID != "" {
				return fmt.Errorf("%w: more than one root", ErrInvalidDocument)
			}
			rootID = rec.ID
		}
	}
	if rootID == "" {
		return fmt.Errorf("%w: no root element", ErrInvalidDocument)
	}
	for _, rec := range records {
		if rec.Parent == nil {
			continue
		}
		parent, ok := arena[rec.Parent.ID]
		if !ok || !parent.HasChild(rec.Ref()) {
			return fmt.Errorf("%w: %s %q is not listed by its parent", ErrInvalidDocument, rec.TagName, rec.ID)
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.records = arena
	d.rootID = rootID
	return nil
}

// commit applies the net effect of ops to the store, then to the arena.
func (d *Document) commit(ctx context.Context, ops []element.Operation) error {
	changes := element.Reduce(ops)
	if len(changes) == 0 {
		return nil
	}

	ordered, err := orderChanges(changes)
	if err != nil {
		return fmt.Errorf("commit %s: %w", d.name, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.store.Apply(ctx, ordered); err != nil {
		return fmt.Errorf("commit %s: %w", d.name, err)
	}

	var created, updated, deleted int
	for _, change := range ordered {
		switch change.Status {
		case element.StatusDeleted:
			delete(d.records, change.Record.ID)
			deleted++
		case element.StatusCreated:
			d.records[change.Record.ID] = change.Record
			created++
		default:
			d.records[change.Record.ID] = change.Record
			updated++
		}
		if change.Status != element.StatusDeleted && change.Record.Parent == nil {
			d.rootID = change.Record.ID
		}
	}

	d.logger.Debug("committed", "document", d.name, "created", created, "updated", updated, "deleted", deleted)
	return nil
}

// orderChanges puts creations first, parents before children, followed by
// updates and deletions in staging order.
func orderChanges(changes []element.Change) ([]element.Change, error) {
	byID := make(map[string]element.Change, len(changes))
	var createdIDs []string
	var rest []element.Change
	for _, change := range changes {
		if change.Status == element.StatusCreated {
			byID[change.Record.ID] = change
			createdIDs = append(createdIDs, change.Record.ID)
			continue
		}
		rest = append(rest, change)
	}

	order, err := dag.ParentFirst(createdIDs, func(id string) (string, bool) {
		parent := byID[id].Record.Parent
		if parent == nil {
			return "", false
		}
		return parent.ID, true
	})
	if err != nil {
		return nil, err
	}

	out := make([]element.Change, 0, len(changes))
	for _, id := range order {
		out = append(out, byID[id])
	}
	return append(out, rest...), nil
}

// committed returns the committed record with the given id.
func (d *Document) committed(id string) (element.Record, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	rec, ok := d.records[id]
	return rec, ok
}

// preOrder returns the committed subtree of id in document order. The caller
// holds d.mu or has exclusive use of the document.
func (d *Document) preOrder(id string) []element.Record {
	var out []element.Record
	var walk func(string)
	walk = func(id string) {
		rec, ok := d.records[id]
		if !ok {
			return
		}
		out = append(out, rec)
		for _, child := range rec.Children {
			walk(child.ID)
		}
	}
	walk(id)
	return out
}

// Records returns a snapshot of the committed tree in document order.
func (d *Document) Records() []element.Record {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.preOrder(d.rootID)
}

// Root returns the committed root record.
func (d *Document) Root() element.Record {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.records[d.rootID]
}

// Name returns the document name.
func (d *Document) Name() string { return d.name }

// Dialect returns the dialect the document was opened with.
func (d *Document) Dialect() *dialect.Config { return d.dialect }

// Store returns the backing store.
func (d *Document) Store() store.Store { return d.store }

// Close closes the backing store.
func (d *Document) Close() error { return d.store.Close() }

// FromRoot starts a transaction with its cursor on the root element.
func (d *Document) FromRoot() *Cursor {
	txn := &Txn{doc: d}
	return &Cursor{txn: txn, focus: d.Root().Ref()}
}

// FromElement starts a transaction with its cursor on the selected element.
func (d *Document) FromElement(sel Selector) (*Cursor, error) {
	return d.FromRoot().GoToElement(sel)
}
