// SPDX-License-Identifier: MPL-2.0

package dialect

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/sclkit/sclkit/pkg/element"
)

const testDefinition = `
rootElementName: "Root"
singletonElements: ["Root", "Header"]
namespaces: {
	default: {uri: "urn:test", prefix: ""}
	ext: {uri: "urn:test:ext", prefix: "ext"}
}
container: {tagName: "Wrap", identityAttribute: "type"}
database: {
	elements: {name: "testElements", schema: "id, tagName"}
}
io: supportedFileExtensions: [".tst"]
elements: {
	Root: children: ["Header", "Group", "Wrap"]
	Header: attributes: [{name: "id"}, {name: "uuid"}]
	Group: {
		attributes: [{name: "name", required: true}, {name: "uuid", namespace: {uri: "urn:test:ext", prefix: "ext"}}]
		children: ["Group", "Item", "Wrap"]
	}
	Item: {
		namespace: {uri: "urn:test:ext", prefix: "ext"}
		attributes: [{name: "kind", default: "plain"}]
	}
	Wrap: {
		attributes: [{name: "type"}]
		children: ["Item"]
	}
}
`

func loadTestDialect(t *testing.T) *Config {
	t.Helper()
	cfg, err := Load([]byte(testDefinition), "test.cue", Hooks{})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	return cfg
}

func TestLoad(t *testing.T) {
	t.Parallel()

	cfg := loadTestDialect(t)

	if cfg.RootElementName != "Root" {
		t.Errorf("root = %q, want Root", cfg.RootElementName)
	}
	if cfg.UUIDAttribute != "uuid" {
		t.Errorf("uuid attribute default = %q, want uuid", cfg.UUIDAttribute)
	}
	if got := cfg.DefaultNamespace(); got != (element.Namespace{URI: "urn:test"}) {
		t.Errorf("default namespace = %+v", got)
	}
	if ns, ok := cfg.NamespaceByURI("urn:test:ext"); !ok || ns.Prefix != "ext" {
		t.Errorf("NamespaceByURI(ext) = %+v, %v", ns, ok)
	}
	if !cfg.IsSingleton("Header") || cfg.IsSingleton("Group") {
		t.Error("singleton table mismatch")
	}
	if !cfg.IsContainer("Wrap") {
		t.Error("Wrap should be the container")
	}
	if !cfg.SupportsExtension(".TST") {
		t.Error("extension check should be case-insensitive")
	}
}

func TestRelations(t *testing.T) {
	t.Parallel()

	cfg := loadTestDialect(t)

	if !cfg.AllowsChild("Group", "Group") {
		t.Error("Group should allow nested Group")
	}
	if cfg.AllowsChild("Item", "Group") {
		t.Error("Item has no children")
	}

	parents := cfg.Parents("Item")
	slices.Sort(parents)
	if !slices.Equal(parents, []string{"Group", "Wrap"}) {
		t.Errorf("Parents(Item) = %v", parents)
	}

	// Group is self-nesting; the closure must still terminate and list each tag once.
	desc := cfg.Descendants("Root")
	slices.Sort(desc)
	if !slices.Equal(desc, []string{"Group", "Header", "Item", "Wrap"}) {
		t.Errorf("Descendants(Root) = %v", desc)
	}

	anc := cfg.Ancestors("Item")
	slices.Sort(anc)
	if !slices.Equal(anc, []string{"Group", "Root", "Wrap"}) {
		t.Errorf("Ancestors(Item) = %v", anc)
	}
}

func TestAttributeDetails(t *testing.T) {
	t.Parallel()

	cfg := loadTestDialect(t)

	if !cfg.SupportsUUID("Group") || cfg.SupportsUUID("Item") {
		t.Error("uuid support mismatch")
	}
	detail, ok := cfg.Attribute("Group", "uuid")
	if !ok || detail.Namespace == nil || detail.Namespace.Prefix != "ext" {
		t.Errorf("Group uuid detail = %+v", detail)
	}
	if detail, _ := cfg.Attribute("Item", "kind"); detail.Default != "plain" {
		t.Errorf("Item kind default = %q", detail.Default)
	}
	if ns := cfg.ElementNamespace("Item"); ns.Prefix != "ext" {
		t.Errorf("Item namespace = %+v", ns)
	}
	if ns := cfg.ElementNamespace("Group"); !ns.IsDefault() {
		t.Errorf("Group namespace = %+v, want default", ns)
	}
}

func TestLoad_SchemaViolation(t *testing.T) {
	t.Parallel()

	bad := strings.Replace(testDefinition, `rootElementName: "Root"`, `rootElementName: ""`, 1)
	if _, err := Load([]byte(bad), "bad.cue", Hooks{}); err == nil {
		t.Fatal("expected schema error for empty root element name")
	}
}

func TestNew_ReferentialProblems(t *testing.T) {
	t.Parallel()

	def := Definition{
		RootElementName: "Root",
		Namespaces:      map[string]element.Namespace{DefaultNamespaceKey: {URI: "urn:x"}},
		Container:       ContainerConfig{TagName: "Wrap", IdentityAttribute: "type"},
		Elements: map[string]ElementDefinition{
			"Root": {Children: []string{"Ghost"}},
		},
	}

	_, err := New(def, Hooks{})
	if !errors.Is(err, ErrInvalidDefinition) {
		t.Fatalf("expected ErrInvalidDefinition, got %v", err)
	}
	var defErr *InvalidDefinitionError
	if !errors.As(err, &defErr) || len(defErr.Problems) != 2 {
		t.Errorf("expected container and child problems, got %v", err)
	}
}

func TestHooksRunInOrder(t *testing.T) {
	t.Parallel()

	var calls []string
	hooks := Hooks{
		BeforeClone: []BeforeCloneHook{
			func(rec element.TreeRecord) (bool, element.TreeRecord) {
				calls = append(calls, "first")
				rec.Value = "seen"
				return true, rec
			},
			func(rec element.TreeRecord) (bool, element.TreeRecord) {
				calls = append(calls, "second:"+rec.Value)
				return false, rec
			},
		},
	}

	clone, out := hooks.RunBeforeClone(element.TreeRecord{})
	if clone {
		t.Error("a single veto must suppress cloning")
	}
	if out.Value != "seen" {
		t.Errorf("transform not piped, got %q", out.Value)
	}
	if !slices.Equal(calls, []string{"first", "second:seen"}) {
		t.Errorf("calls = %v", calls)
	}
}
