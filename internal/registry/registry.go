// Package registry holds the read-only snapshot of declared MFTF entities,
// grouped by module and keyed by entity name.
package registry

import (
	"fmt"
	"sort"

	ckerrors "mftfcheck/internal/errors"
)

// DefaultIdentityKey is the attribute elements are matched by when neither the
// caller nor the element names one.
const DefaultIdentityKey = "name"

// Element is a nested structural node within an Entity.
type Element struct {
	Tag         string            `json:"tag" yaml:"tag" toml:"tag"`
	Attributes  map[string]string `json:"attributes,omitempty" yaml:"attributes,omitempty" toml:"attributes,omitempty"`
	IdentityKey string            `json:"identityKey,omitempty" yaml:"identityKey,omitempty" toml:"identityKey,omitempty"`
	Text        string            `json:"text,omitempty" yaml:"text,omitempty" toml:"text,omitempty"`
	Children    []Element         `json:"children,omitempty" yaml:"children,omitempty" toml:"children,omitempty"`
}

// Attr returns the named attribute and whether it is declared.
func (e Element) Attr(name string) (string, bool) {
	v, ok := e.Attributes[name]
	return v, ok
}

// Identity returns the element's identity value. attr wins over the element's
// own IdentityKey, which wins over DefaultIdentityKey. ok is false when the
// attribute is not declared at all.
func (e Element) Identity(attr string) (string, bool) {
	if attr == "" {
		attr = e.IdentityKey
	}
	if attr == "" {
		attr = DefaultIdentityKey
	}
	return e.Attr(attr)
}

// ChildrenByTag returns the direct children with the given tag, in order.
func (e Element) ChildrenByTag(tag string) []Element {
	return filterTag(e.Children, tag)
}

// Entity is one declared artifact such as a page or a suite.
type Entity struct {
	Name            string            `json:"name" yaml:"name" toml:"name"`
	Kind            string            `json:"kind" yaml:"kind" toml:"kind"`
	SourceLocations []string          `json:"sourceLocations,omitempty" yaml:"sourceLocations,omitempty" toml:"sourceLocations,omitempty"`
	Attributes      map[string]string `json:"attributes,omitempty" yaml:"attributes,omitempty" toml:"attributes,omitempty"`
	Children        []Element         `json:"children,omitempty" yaml:"children,omitempty" toml:"children,omitempty"`
}

// ChildrenByTag returns the entity's direct children with the given tag, in order.
func (e Entity) ChildrenByTag(tag string) []Element {
	return filterTag(e.Children, tag)
}

func filterTag(elems []Element, tag string) []Element {
	var out []Element
	for _, el := range elems {
		if el.Tag == tag {
			out = append(out, el)
		}
	}
	return out
}

// Registry is an immutable module -> name -> Entity snapshot.
// Values returned from a Registry share backing storage and must not be modified.
type Registry struct {
	modules map[string]map[string]Entity
}

// Empty returns a registry with no modules.
func Empty() *Registry {
	return &Registry{modules: map[string]map[string]Entity{}}
}

// New validates and builds a registry from module -> name -> Entity. An entity's
// Name is taken from its map key when empty.
func New(modules map[string]map[string]Entity) (*Registry, error) {
	b := NewBuilder()
	for _, module := range sortedKeys(modules) {
		entities := modules[module]
		for _, name := range sortedKeys(entities) {
			e := entities[name]
			if e.Name == "" {
				e.Name = name
			}
			if e.Name != name {
				return nil, ckerrors.Newf(ckerrors.InvalidRegistry,
					"entity %s/%s is registered under name %q", module, e.Name, name)
			}
			if err := b.Add(module, e); err != nil {
				return nil, err
			}
		}
	}
	return b.Build(), nil
}

// EntitiesOf returns the entities declared in module. Unknown modules yield an
// empty map.
func (r *Registry) EntitiesOf(module string) map[string]Entity {
	entities := r.modules[module]
	out := make(map[string]Entity, len(entities))
	for name, e := range entities {
		out[name] = e
	}
	return out
}

// Lookup returns a single entity.
func (r *Registry) Lookup(module, name string) (Entity, bool) {
	e, ok := r.modules[module][name]
	return e, ok
}

// HasModule reports whether module is present in the snapshot.
func (r *Registry) HasModule(module string) bool {
	_, ok := r.modules[module]
	return ok
}

// Modules returns module names in ascending order.
func (r *Registry) Modules() []string {
	return sortedKeys(r.modules)
}

// Names returns the entity names of module in ascending order.
func (r *Registry) Names(module string) []string {
	return sortedKeys(r.modules[module])
}

// Len returns the total number of entities.
func (r *Registry) Len() int {
	n := 0
	for _, entities := range r.modules {
		n += len(entities)
	}
	return n
}

// Walk calls fn for every entity ordered by module then name.
func (r *Registry) Walk(fn func(module string, e Entity)) {
	for _, module := range r.Modules() {
		for _, name := range r.Names(module) {
			fn(module, r.modules[module][name])
		}
	}
}

// Builder collects entities and validates them before a Registry is sealed.
type Builder struct {
	modules map[string]map[string]Entity
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{modules: make(map[string]map[string]Entity)}
}

// Add registers an entity under module. Entities without a kind, without a name,
// or colliding with an existing (module, name) are rejected.
func (b *Builder) Add(module string, e Entity) error {
	if err := validate(module, e); err != nil {
		return err
	}
	entities, ok := b.modules[module]
	if !ok {
		entities = make(map[string]Entity)
		b.modules[module] = entities
	}
	if prev, exists := entities[e.Name]; exists {
		return ckerrors.Newf(ckerrors.DuplicateEntity,
			"%s %s/%s is already registered as %s", e.Kind, module, e.Name, prev.Kind).
			WithDetails(map[string]interface{}{
				"module":   module,
				"name":     e.Name,
				"existing": prev.SourceLocations,
				"incoming": e.SourceLocations,
			})
	}
	entities[e.Name] = e
	return nil
}

// Build seals the collected entities into a Registry. The builder is reset and
// may be reused.
func (b *Builder) Build() *Registry {
	r := &Registry{modules: b.modules}
	b.modules = make(map[string]map[string]Entity)
	return r
}

func validate(module string, e Entity) error {
	switch {
	case module == "":
		return ckerrors.Newf(ckerrors.InvalidRegistry, "entity %q has no module", e.Name)
	case e.Name == "":
		return ckerrors.Newf(ckerrors.InvalidRegistry, "entity in module %s has no name (%v)", module, e.SourceLocations)
	case e.Kind == "":
		return ckerrors.New(ckerrors.InvalidRegistry,
			fmt.Sprintf("entity %s/%s has no kind", module, e.Name), nil)
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
