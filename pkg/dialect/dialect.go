// SPDX-License-Identifier: MPL-2.0

package dialect

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/sclkit/sclkit/pkg/element"
)

// DefaultNamespaceKey is the key of the distinguished namespace in
// Definition.Namespaces.
const DefaultNamespaceKey = "default"

var (
	// ErrInvalidDefinition is the sentinel wrapped by InvalidDefinitionError.
	ErrInvalidDefinition = errors.New("invalid dialect definition")
	// ErrUnknownElement is returned when a tag is not part of the vocabulary.
	ErrUnknownElement = errors.New("unknown element")
)

type (
	// AttributeDetail describes one attribute an element may carry.
	AttributeDetail struct {
		Name      string             `json:"name"`
		Namespace *element.Namespace `json:"namespace,omitempty"`
		Default   string             `json:"default,omitempty"`
		Required  bool               `json:"required,omitempty"`
	}

	// ElementDefinition is the schema entry of one tag.
	ElementDefinition struct {
		// Namespace is the namespace new elements of this tag are created
		// in; nil means the dialect default.
		Namespace *element.Namespace `json:"namespace,omitempty"`
		// Attributes lists the attributes in their canonical order.
		Attributes []AttributeDetail `json:"attributes"`
		// Children lists the tags allowed as direct children, in canonical order.
		Children []string `json:"children"`
	}

	// ContainerConfig names the namespace-wrapping element. Children in a
	// non-default namespace are nested in a container whose identity
	// attribute holds their namespace prefix.
	ContainerConfig struct {
		TagName           string `json:"tagName"`
		IdentityAttribute string `json:"identityAttribute"`
	}

	// Table is one persistence table layout.
	Table struct {
		Name   string `json:"name"`
		Schema string `json:"schema"`
	}

	// DatabaseConfig is the catalog-table layout used by persistent stores.
	DatabaseConfig struct {
		Elements         Table   `json:"elements"`
		AdditionalTables []Table `json:"additionalTables"`
	}

	// IOConfig configures file import/export.
	IOConfig struct {
		SupportedFileExtensions []string `json:"supportedFileExtensions"`
	}

	// Definition is the declarative part of a dialect, as decoded from CUE.
	Definition struct {
		RootElementName   string                       `json:"rootElementName"`
		SingletonElements []string                     `json:"singletonElements"`
		Namespaces        map[string]element.Namespace `json:"namespaces"`
		Container         ContainerConfig              `json:"container"`
		UUIDAttribute     string                       `json:"uuidAttribute"`
		Database          DatabaseConfig               `json:"database"`
		IO                IOConfig                     `json:"io"`
		Elements          map[string]ElementDefinition `json:"elements"`
	}

	// Config is a ready-to-use dialect: the Definition plus derived relation
	// tables and the installed hooks. It is immutable after New.
	Config struct {
		Definition
		Hooks Hooks

		parents     map[string][]string
		descendants map[string][]string
		ancestors   map[string][]string
	}

	// InvalidDefinitionError collects every referential problem found in a
	// Definition. It wraps ErrInvalidDefinition for errors.Is().
	InvalidDefinitionError struct {
		Problems []string
	}
)

// Error implements the error interface.
func (e *InvalidDefinitionError) Error() string {
	return fmt.Sprintf("invalid dialect definition: %s", strings.Join(e.Problems, "; "))
}

// Unwrap returns ErrInvalidDefinition for errors.Is() compatibility.
func (e *InvalidDefinitionError) Unwrap() error { return ErrInvalidDefinition }

// New validates def and derives the parent, ancestor and descendant tables.
func New(def Definition, hooks Hooks) (*Config, error) {
	var problems []string

	if _, ok := def.Elements[def.RootElementName]; !ok {
		problems = append(problems, fmt.Sprintf("root element %q is not defined", def.RootElementName))
	}
	if _, ok := def.Namespaces[DefaultNamespaceKey]; !ok {
		problems = append(problems, "no default namespace")
	}
	if _, ok := def.Elements[def.Container.TagName]; !ok {
		problems = append(problems, fmt.Sprintf("container element %q is not defined", def.Container.TagName))
	}
	for _, tag := range def.SingletonElements {
		if _, ok := def.Elements[tag]; !ok {
			problems = append(problems, fmt.Sprintf("singleton %q is not defined", tag))
		}
	}

	parents := make(map[string][]string)
	for _, tag := range sortedKeys(def.Elements) {
		for _, child := range def.Elements[tag].Children {
			if _, ok := def.Elements[child]; !ok {
				problems = append(problems, fmt.Sprintf("%s: child %q is not defined", tag, child))
				continue
			}
			if !slices.Contains(parents[child], tag) {
				parents[child] = append(parents[child], tag)
			}
		}
	}

	if len(problems) > 0 {
		return nil, &InvalidDefinitionError{Problems: problems}
	}

	if def.UUIDAttribute == "" {
		def.UUIDAttribute = "uuid"
	}

	cfg := &Config{
		Definition:  def,
		Hooks:       hooks,
		parents:     parents,
		descendants: make(map[string][]string, len(def.Elements)),
		ancestors:   make(map[string][]string, len(def.Elements)),
	}
	for tag := range def.Elements {
		cfg.descendants[tag] = closure(tag, func(t string) []string { return def.Elements[t].Children })
		cfg.ancestors[tag] = closure(tag, func(t string) []string { return parents[t] })
	}
	return cfg, nil
}

// closure is a breadth-first transitive walk from start over next. The
// relation tables of real dialects are cyclic (SubFunction nests
// SubFunction), so the walk is guarded by a seen set, never by depth.
func closure(start string, next func(string) []string) []string {
	seen := map[string]bool{}
	var out []string
	queue := slices.Clone(next(start))
	for len(queue) > 0 {
		tag := queue[0]
		queue = queue[1:]
		if seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
		queue = append(queue, next(tag)...)
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// WithHooks returns a copy of the config with hooks installed. Hooks that
// consult the schema are typically built from the config they are installed on.
func (c *Config) WithHooks(hooks Hooks) *Config {
	out := *c
	out.Hooks = hooks
	return &out
}

// DefaultNamespace returns the distinguished namespace of the dialect.
func (c *Config) DefaultNamespace() element.Namespace {
	return c.Namespaces[DefaultNamespaceKey]
}

// NamespaceByURI returns the dialect namespace with the given uri.
func (c *Config) NamespaceByURI(uri string) (element.Namespace, bool) {
	for _, key := range sortedKeys(c.Namespaces) {
		if ns := c.Namespaces[key]; ns.URI == uri {
			return ns, true
		}
	}
	return element.Namespace{}, false
}

// Element returns the definition of tag.
func (c *Config) Element(tag string) (ElementDefinition, bool) {
	def, ok := c.Elements[tag]
	return def, ok
}

// ElementNamespace returns the namespace new elements of tag are created in.
func (c *Config) ElementNamespace(tag string) element.Namespace {
	if def, ok := c.Elements[tag]; ok && def.Namespace != nil {
		return *def.Namespace
	}
	return c.DefaultNamespace()
}

// Attribute returns the detail of attribute name on tag, if declared.
func (c *Config) Attribute(tag, name string) (AttributeDetail, bool) {
	def, ok := c.Elements[tag]
	if !ok {
		return AttributeDetail{}, false
	}
	for _, detail := range def.Attributes {
		if detail.Name == name {
			return detail, true
		}
	}
	return AttributeDetail{}, false
}

// SupportsUUID reports whether tag declares the dialect's uuid attribute.
func (c *Config) SupportsUUID(tag string) bool {
	_, ok := c.Attribute(tag, c.UUIDAttribute)
	return ok
}

// AllowsChild reports whether child may be a direct child of parent.
func (c *Config) AllowsChild(parent, child string) bool {
	def, ok := c.Elements[parent]
	return ok && slices.Contains(def.Children, child)
}

// IsSingleton reports whether at most one element of tag may exist.
func (c *Config) IsSingleton(tag string) bool {
	return slices.Contains(c.SingletonElements, tag)
}

// IsContainer reports whether tag is the namespace-wrapping container.
func (c *Config) IsContainer(tag string) bool {
	return tag == c.Container.TagName
}

// Children returns the tags allowed directly under tag.
func (c *Config) Children(tag string) []string {
	return slices.Clone(c.Elements[tag].Children)
}

// Parents returns the tags that may directly contain tag.
func (c *Config) Parents(tag string) []string {
	return slices.Clone(c.parents[tag])
}

// Descendants returns every tag that may appear anywhere below tag.
func (c *Config) Descendants(tag string) []string {
	return slices.Clone(c.descendants[tag])
}

// Ancestors returns every tag that may appear anywhere above tag.
func (c *Config) Ancestors(tag string) []string {
	return slices.Clone(c.ancestors[tag])
}

// SupportsExtension reports whether ext (with leading dot, any case) is a
// supported file extension.
func (c *Config) SupportsExtension(ext string) bool {
	return slices.Contains(c.IO.SupportedFileExtensions, strings.ToLower(ext))
}
