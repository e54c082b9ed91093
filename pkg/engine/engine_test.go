// SPDX-License-Identifier: MPL-2.0

package engine_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/sclkit/sclkit/pkg/element"
	"github.com/sclkit/sclkit/pkg/engine"
	"github.com/sclkit/sclkit/pkg/idgen"
	"github.com/sclkit/sclkit/pkg/scl"
	"github.com/sclkit/sclkit/pkg/store"
)

// newDoc opens a document whose ids and uuids are drawn from sequences
// prefixed with prefix.
func newDoc(t *testing.T, s store.Store, prefix string) *engine.Document {
	t.Helper()

	cfg, err := scl.NewDialect(idgen.Sequence(prefix + "uuid-"))
	if err != nil {
		t.Fatalf("NewDialect() error: %v", err)
	}
	if s == nil {
		s = store.NewMemory()
	}
	doc, err := engine.Open(context.Background(), cfg, s, engine.WithIDGenerator(idgen.Sequence(prefix + "id-")))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	return doc
}

func mustAdd(t *testing.T, c *engine.Cursor, ch engine.Child) *engine.Cursor {
	t.Helper()
	next, err := c.AddChild(ch)
	if err != nil {
		t.Fatalf("AddChild(%s) error: %v", ch.TagName, err)
	}
	return next
}

func attr(name, value string) element.Attribute {
	return element.Attribute{Name: name, Value: value}
}

// buildSubstation stages SCL/Substation(S1)/VoltageLevel(V1)/Bay(B1)/Function(F1)/LNode.
func buildSubstation(t *testing.T, doc *engine.Document) *engine.Cursor {
	t.Helper()
	c := doc.FromRoot()
	sub := mustAdd(t, c, engine.Child{ID: "sub1", TagName: scl.TagSubstation, Attributes: []element.Attribute{attr("name", "S1")}, SetFocus: true})
	vl := mustAdd(t, sub, engine.Child{ID: "vl1", TagName: scl.TagVoltageLevel, Attributes: []element.Attribute{attr("name", "V1")}, SetFocus: true})
	bay := mustAdd(t, vl, engine.Child{ID: "bay1", TagName: scl.TagBay, Attributes: []element.Attribute{attr("name", "B1")}, SetFocus: true})
	fn := mustAdd(t, bay, engine.Child{ID: "f1", TagName: scl.TagFunction, Attributes: []element.Attribute{attr("name", "F1")}, SetFocus: true})
	mustAdd(t, fn, engine.Child{ID: "ln1", TagName: scl.TagLNode, Attributes: []element.Attribute{attr("lnClass", "XCBR"), attr("lnType", "LN_XCBR")}, SetFocus: true})
	return c
}

func TestOpen_CreatesRoot(t *testing.T) {
	t.Parallel()

	s := store.NewMemory()
	doc := newDoc(t, s, "")

	root := doc.Root()
	if root.TagName != scl.TagSCL || root.Parent != nil {
		t.Fatalf("root = %+v", root)
	}
	if root.AttrValue("version") != "2007" {
		t.Errorf("root defaults not applied: %v", root.Attributes)
	}
	persisted, _ := s.Load(context.Background())
	if len(persisted) != 1 {
		t.Errorf("root should be committed, store has %d records", len(persisted))
	}
}

func TestAddChild_StagesAndCommits(t *testing.T) {
	t.Parallel()

	s := store.NewMemory()
	doc := newDoc(t, s, "")
	c := buildSubstation(t, doc)

	// Read-your-writes before commit.
	ln, err := c.GoToElement(engine.Selector{TagName: scl.TagLNode, ID: "ln1"})
	if err != nil {
		t.Fatalf("staged element not visible: %v", err)
	}
	if len(doc.Records()) != 1 {
		t.Fatal("nothing may be committed before Commit")
	}

	state, err := ln.Context()
	if err != nil {
		t.Fatal(err)
	}
	if state.CurrentFocus.Status != element.StatusCreated {
		t.Errorf("lnode status = %s", state.CurrentFocus.Status)
	}
	if _, ok := state.CurrentFocus.Attr(scl.AttrUUID); !ok {
		t.Error("LNode supports uuid, expected one to be generated")
	}

	if _, err := c.Commit(context.Background()); err != nil {
		t.Fatalf("Commit() error: %v", err)
	}
	if ops := c.Txn().StagedOperations(); len(ops) != 0 {
		t.Errorf("staged operations not cleared: %d", len(ops))
	}

	records := doc.Records()
	if len(records) != 6 {
		t.Fatalf("expected 6 committed records, got %d", len(records))
	}
	wantOrder := []string{scl.TagSCL, scl.TagSubstation, scl.TagVoltageLevel, scl.TagBay, scl.TagFunction, scl.TagLNode}
	for i, rec := range records {
		if rec.TagName != wantOrder[i] {
			t.Errorf("record %d = %s, want %s", i, rec.TagName, wantOrder[i])
		}
	}
	persisted, _ := s.Load(context.Background())
	if len(persisted) != 6 {
		t.Errorf("store has %d records", len(persisted))
	}
}

func TestAddChild_Errors(t *testing.T) {
	t.Parallel()

	doc := newDoc(t, nil, "")
	c := buildSubstation(t, doc)

	tests := []struct {
		name string
		at   engine.Selector
		ch   engine.Child
		want error
	}{
		{
			name: "child not allowed",
			at:   engine.Selector{TagName: scl.TagSCL},
			ch:   engine.Child{TagName: scl.TagBay},
			want: engine.ErrChildNotAllowed,
		},
		{
			name: "singleton exists",
			at:   engine.Selector{TagName: scl.TagSCL},
			ch:   engine.Child{TagName: scl.TagSubstation},
			want: engine.ErrSingletonExists,
		},
		{
			name: "duplicate id",
			at:   engine.Selector{TagName: scl.TagBay},
			ch:   engine.Child{ID: "f1", TagName: scl.TagFunction},
			want: engine.ErrDuplicateID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			at, err := c.GoToElement(tt.at)
			if err != nil {
				t.Fatal(err)
			}
			if _, err := at.AddChild(tt.ch); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestAddChild_WrapsForeignNamespace(t *testing.T) {
	t.Parallel()

	doc := newDoc(t, nil, "")
	c := buildSubstation(t, doc)
	ln, err := c.GoToElement(engine.Selector{TagName: scl.TagLNode, ID: "ln1"})
	if err != nil {
		t.Fatal(err)
	}

	naming := mustAdd(t, ln, engine.Child{TagName: "LNodeSpecNaming", Attributes: []element.Attribute{attr("sIedName", "IED1")}, SetFocus: true})
	mustAdd(t, ln, engine.Child{TagName: "LNodeInputs"})

	parent, err := naming.GoToParent()
	if err != nil {
		t.Fatal(err)
	}
	if parent.FocusRef().TagName != scl.TagPrivate {
		t.Fatalf("LNodeSpecNaming should be wrapped in Private, parent is %s", parent.FocusRef().TagName)
	}

	tree, err := ln.GetTree(engine.TreeOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(tree.Tree) != 1 || tree.Tree[0].TagName != scl.TagPrivate {
		t.Fatalf("LNode children = %+v", tree.Tree)
	}
	private := tree.Tree[0]
	if private.AttrValue(scl.AttrType) != scl.Namespace6100.Prefix {
		t.Errorf("Private type = %q", private.AttrValue(scl.AttrType))
	}
	if len(private.Tree) != 2 {
		t.Errorf("second foreign child should reuse the Private, got %d children", len(private.Tree))
	}

	if _, err := c.Commit(context.Background()); err != nil {
		t.Fatalf("Commit() error: %v", err)
	}
	if n := len(doc.Records()); n != 9 {
		t.Errorf("expected 9 records after commit, got %d", n)
	}
}

func TestNavigation(t *testing.T) {
	t.Parallel()

	doc := newDoc(t, nil, "")
	c := buildSubstation(t, doc)

	fn, err := c.GoToElement(engine.Selector{TagName: scl.TagFunction})
	if err != nil || fn.FocusRef().ID != "f1" {
		t.Fatalf("GoToElement by tag = %v, %v", fn, err)
	}

	_, err = c.GoToElement(engine.Selector{TagName: scl.TagBay, ID: "missing"})
	var nf *engine.NotFoundError
	if !errors.As(err, &nf) || !errors.Is(err, engine.ErrElementNotFound) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
	if _, err := c.GoToElement(engine.Selector{TagName: scl.TagBay, ID: "f1"}); !errors.Is(err, engine.ErrElementNotFound) {
		t.Errorf("tag mismatch should not match, got %v", err)
	}

	if _, err := c.GoToParent(); !errors.Is(err, engine.ErrNoParent) {
		t.Errorf("expected ErrNoParent at root, got %v", err)
	}

	values, err := fn.AttributesValues()
	if err != nil || values["name"] != "F1" {
		t.Errorf("AttributesValues() = %v, %v", values, err)
	}
}

func TestUpdateAndDelete(t *testing.T) {
	t.Parallel()

	doc := newDoc(t, nil, "")
	c := buildSubstation(t, doc)
	if _, err := c.Commit(context.Background()); err != nil {
		t.Fatal(err)
	}

	fn, _ := c.GoToElement(engine.Selector{TagName: scl.TagFunction, ID: "f1"})
	if _, err := fn.Update(attr("name", "F2"), attr("desc", "renamed")); err != nil {
		t.Fatal(err)
	}
	values, _ := fn.AttributesValues()
	if values["name"] != "F2" || values["desc"] != "renamed" {
		t.Errorf("update not visible: %v", values)
	}

	vl, _ := c.GoToElement(engine.Selector{TagName: scl.TagVoltageLevel, ID: "vl1"})
	sub, err := vl.Delete()
	if err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if sub.FocusRef().ID != "sub1" {
		t.Errorf("Delete should return the parent, got %v", sub.FocusRef())
	}
	if _, err := c.GoToElement(engine.Selector{ID: "ln1"}); !errors.Is(err, engine.ErrElementNotFound) {
		t.Error("descendants of a deleted element must disappear")
	}

	if _, err := c.Delete(); !errors.Is(err, engine.ErrRootDeletion) {
		t.Errorf("expected ErrRootDeletion, got %v", err)
	}

	if _, err := c.Commit(context.Background()); err != nil {
		t.Fatal(err)
	}
	records := doc.Records()
	if len(records) != 2 || len(records[1].Children) != 0 {
		t.Errorf("expected SCL/Substation only, got %+v", records)
	}
}

func TestGetTree(t *testing.T) {
	t.Parallel()

	doc := newDoc(t, nil, "")
	c := buildSubstation(t, doc)
	ln, _ := c.GoToElement(engine.Selector{ID: "ln1"})
	mustAdd(t, ln, engine.Child{TagName: "Text", Value: "note"})
	mustAdd(t, ln, engine.Child{TagName: "LNodeOutputs"})

	sub, _ := c.GoToElement(engine.Selector{ID: "sub1"})

	full, err := sub.GetTree(engine.TreeOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if n := full.Count(scl.TagLNode); n != 1 {
		t.Errorf("LNode count = %d", n)
	}
	if n := len(full.Flatten()); n != 8 {
		t.Errorf("full tree has %d nodes, want 8", n)
	}

	childless, _ := sub.GetTree(engine.TreeOptions{Exclude: []engine.Exclude{{TagName: scl.TagLNode, Scope: engine.ScopeChildren}}})
	if childless.Count(scl.TagLNode) != 1 || childless.Count("Text") != 0 {
		t.Error("children scope must keep the node and drop its subtree")
	}

	noFunction, _ := sub.GetTree(engine.TreeOptions{Exclude: []engine.Exclude{{TagName: scl.TagFunction, Scope: engine.ScopeSelf}}})
	if noFunction.Count(scl.TagFunction) != 0 || noFunction.Count(scl.TagLNode) != 0 {
		t.Error("self scope must drop the node and its subtree")
	}

	included, _ := sub.GetTree(engine.TreeOptions{Include: &engine.Include{
		TagName:  scl.TagFunction,
		Children: []engine.Include{{TagName: scl.TagLNode}},
	}})
	if len(included.Tree) != 1 || included.Tree[0].TagName != scl.TagFunction {
		t.Fatalf("include should surface the Function directly, got %+v", included.Tree)
	}
	if lnodes := included.Tree[0].Tree; len(lnodes) != 1 || len(lnodes[0].Tree) != 2 {
		t.Errorf("nested include without children keeps the full subtree, got %+v", lnodes)
	}

	none, _ := sub.GetTree(engine.TreeOptions{Include: &engine.Include{TagName: scl.TagFunction, Attributes: map[string]string{"name": "nope"}}})
	if len(none.Tree) != 0 {
		t.Error("attribute mismatch must not include")
	}
}

func TestFindDescendants(t *testing.T) {
	t.Parallel()

	doc := newDoc(t, nil, "")
	c := buildSubstation(t, doc)
	bay, _ := c.GoToElement(engine.Selector{ID: "bay1"})
	mustAdd(t, bay, engine.Child{ID: "f2", TagName: scl.TagFunction, Attributes: []element.Attribute{attr("name", "F2")}})

	all, err := c.FindDescendants(&engine.Filter{TagName: scl.TagFunction})
	if err != nil {
		t.Fatal(err)
	}
	if len(all[scl.TagFunction]) != 2 || all[scl.TagFunction][0].ID != "f1" {
		t.Errorf("functions = %+v", all[scl.TagFunction])
	}

	named, _ := c.FindDescendants(&engine.Filter{TagName: scl.TagFunction, Attributes: map[string]string{"name": "F2"}})
	if len(named[scl.TagFunction]) != 1 || named[scl.TagFunction][0].ID != "f2" {
		t.Errorf("named = %+v", named)
	}

	wildcard, _ := c.FindDescendants(&engine.Filter{TagName: scl.TagFunction, Attributes: map[string]string{"name": ""}})
	if len(wildcard[scl.TagFunction]) != 2 {
		t.Error("empty attribute value must match any")
	}

	withLNode, _ := c.FindDescendants(&engine.Filter{TagName: scl.TagFunction, Children: []engine.Filter{{TagName: scl.TagLNode}}})
	if len(withLNode[scl.TagFunction]) != 1 || len(withLNode[scl.TagLNode]) != 1 {
		t.Errorf("nested filter result = %+v", withLNode)
	}

	everything, _ := c.FindDescendants(nil)
	if len(everything[scl.TagBay]) != 1 || len(everything[scl.TagSCL]) != 0 {
		t.Error("nil filter returns all descendants, focus excluded")
	}
}

func TestDeepCloneChild(t *testing.T) {
	t.Parallel()

	source := newDoc(t, nil, "src-")
	src := buildSubstation(t, source)
	ln, _ := src.GoToElement(engine.Selector{ID: "ln1"})
	mustAdd(t, ln, engine.Child{TagName: "LNodeSpecNaming"})
	if _, err := src.Commit(context.Background()); err != nil {
		t.Fatal(err)
	}
	fnSrc, _ := source.FromElement(engine.Selector{ID: "f1"})
	tree, err := fnSrc.GetTree(engine.TreeOptions{})
	if err != nil {
		t.Fatal(err)
	}
	sourceUUID := tree.AttrValue(scl.AttrUUID)

	target := newDoc(t, nil, "dst-")
	tc := target.FromRoot()
	sub := mustAdd(t, tc, engine.Child{TagName: scl.TagSubstation, Attributes: []element.Attribute{attr("name", "T")}, SetFocus: true})

	cloned, err := sub.DeepCloneChild(tree, true)
	if err != nil {
		t.Fatalf("DeepCloneChild() error: %v", err)
	}
	copyTree, _ := cloned.GetTree(engine.TreeOptions{})
	if copyTree.TagName != scl.TagFunction || copyTree.ID == "f1" {
		t.Errorf("clone root = %s %q", copyTree.TagName, copyTree.ID)
	}
	if got := copyTree.AttrValue(scl.AttrUUID); got == "" || got == sourceUUID {
		t.Errorf("clone uuid %q must be regenerated (source %q)", got, sourceUUID)
	}
	if copyTree.Count(scl.TagPrivate) != 1 || copyTree.Count("LNodeSpecNaming") != 1 {
		t.Error("non-empty Private must be cloned with its content")
	}
	for _, rec := range copyTree.Flatten() {
		if _, err := fnSrc.GoToElement(engine.Selector{ID: rec.ID}); err == nil {
			t.Errorf("clone id %q collides with the source", rec.ID)
		}
	}

	emptyPrivate := element.TreeRecord{Record: element.Record{TagName: scl.TagPrivate, Attributes: []element.Attribute{attr("type", "x")}}}
	unchanged, err := sub.DeepCloneChild(emptyPrivate, true)
	if err != nil || unchanged.FocusRef() != sub.FocusRef() {
		t.Errorf("vetoed root should keep focus, got %v, %v", unchanged, err)
	}
}

func TestCommit_SQLiteRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "doc.db")
	cfg, _ := scl.Dialect()

	s, err := store.OpenSQLite(ctx, path, cfg.Database)
	if err != nil {
		t.Fatal(err)
	}
	doc := newDoc(t, s, "")
	c := buildSubstation(t, doc)
	ln, _ := c.GoToElement(engine.Selector{ID: "ln1"})
	mustAdd(t, ln, engine.Child{TagName: "LNodeSpecNaming"})
	if _, err := c.Commit(ctx); err != nil {
		t.Fatalf("Commit() error: %v", err)
	}
	want := len(doc.Records())
	doc.Close()

	s, err = store.OpenSQLite(ctx, path, cfg.Database)
	if err != nil {
		t.Fatal(err)
	}
	reopened, err := engine.Open(ctx, cfg, s)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer reopened.Close()
	if got := len(reopened.Records()); got != want {
		t.Errorf("reopened document has %d records, want %d", got, want)
	}
}

func TestImport(t *testing.T) {
	t.Parallel()

	cfg, _ := scl.Dialect()
	root := element.Record{ID: "r", TagName: scl.TagSCL, Children: []element.Ref{{ID: "h", TagName: scl.TagHeader}}}
	header := element.Record{ID: "h", TagName: scl.TagHeader, Parent: &element.Ref{ID: "r", TagName: scl.TagSCL}}

	// Children listed before their parent still import.
	doc, err := engine.Import(context.Background(), cfg, store.NewMemory(), []element.Record{header, root})
	if err != nil {
		t.Fatalf("Import() error: %v", err)
	}
	if doc.Root().ID != "r" || len(doc.Records()) != 2 {
		t.Errorf("imported = %+v", doc.Records())
	}

	orphan := element.Record{ID: "x", TagName: scl.TagHeader, Parent: &element.Ref{ID: "r", TagName: scl.TagSCL}}
	_, err = engine.Import(context.Background(), cfg, store.NewMemory(), []element.Record{{ID: "r", TagName: scl.TagSCL}, orphan})
	if !errors.Is(err, engine.ErrInvalidDocument) {
		t.Errorf("expected ErrInvalidDocument, got %v", err)
	}
}
