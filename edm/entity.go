package edm

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/syssam/edmx"
)

// EntityType represents one entity type of a model, its primitive
// properties, its identity and its navigation properties. In the store
// space an entity type describes a table.
type EntityType struct {
	// Name holds the type name.
	Name string
	// Namespace holds the namespace of the type.
	Namespace string
	// GoType is the reflected Go struct type. Nil for declared types.
	GoType reflect.Type

	properties  []*Property
	props       map[string]*Property
	keys        []*Property
	navigations []*NavigationProperty
	model       *EdmModel
}

// NewEntityType returns a new entity type.
func NewEntityType(name, namespace string) *EntityType {
	return &EntityType{
		Name:      name,
		Namespace: namespace,
		props:     make(map[string]*Property),
	}
}

// FullName returns the namespace qualified name of the type.
func (t *EntityType) FullName() string {
	if t.Namespace == "" {
		return t.Name
	}
	return t.Namespace + "." + t.Name
}

// Model returns the model that owns the type, or nil.
func (t *EntityType) Model() *EdmModel { return t.model }

// Properties returns the primitive properties in declaration order.
func (t *EntityType) Properties() []*Property { return t.properties }

// NavigationProperties returns the navigation properties in declaration order.
func (t *EntityType) NavigationProperties() []*NavigationProperty { return t.navigations }

// Property returns the property with the given name.
func (t *EntityType) Property(name string) (*Property, bool) {
	p, ok := t.props[name]
	return p, ok
}

// PropertyByIndex returns the property reflected from the Go struct field
// with the given index path.
func (t *EntityType) PropertyByIndex(index []int) (*Property, bool) {
	for _, p := range t.properties {
		if p.Index != nil && slices.Equal(p.Index, index) {
			return p, true
		}
	}
	return nil, false
}

// NavigationProperty returns the navigation property with the given name.
func (t *EntityType) NavigationProperty(name string) (*NavigationProperty, bool) {
	for _, n := range t.navigations {
		if n.Name == name {
			return n, true
		}
	}
	return nil, false
}

// AddProperty adds a primitive property to the type.
func (t *EntityType) AddProperty(p *Property) error {
	switch {
	case p == nil:
		return edmx.Nil("property")
	case p.Name == "":
		return edmx.Empty("property.Name")
	case t.hasMember(p.Name):
		return edmx.NewModelError(t.FullName(), fmt.Sprintf("member %q redeclared", p.Name), nil)
	}
	if err := t.checkMutable("AddProperty"); err != nil {
		return err
	}
	p.declaring = t
	t.properties = append(t.properties, p)
	t.props[p.Name] = p
	return nil
}

// RemoveProperty removes a primitive property and drops it from the key.
func (t *EntityType) RemoveProperty(name string) bool {
	p, ok := t.props[name]
	if !ok {
		return false
	}
	delete(t.props, name)
	t.properties = slices.DeleteFunc(t.properties, func(x *Property) bool { return x == p })
	t.keys = slices.DeleteFunc(t.keys, func(x *Property) bool { return x == p })
	p.declaring = nil
	return true
}

// AddNavigationProperty adds a navigation property to the type.
func (t *EntityType) AddNavigationProperty(n *NavigationProperty) error {
	switch {
	case n == nil:
		return edmx.Nil("navigation")
	case n.Name == "":
		return edmx.Empty("navigation.Name")
	case t.hasMember(n.Name):
		return edmx.NewModelError(t.FullName(), fmt.Sprintf("member %q redeclared", n.Name), nil)
	}
	if err := t.checkMutable("AddNavigationProperty"); err != nil {
		return err
	}
	n.declaring = t
	t.navigations = append(t.navigations, n)
	return nil
}

// Key returns the key properties of the type.
func (t *EntityType) Key() []*Property { return t.keys }

// HasKey reports whether the type has key properties.
func (t *EntityType) HasKey() bool { return len(t.keys) > 0 }

// KeyNames returns the names of the key properties.
func (t *EntityType) KeyNames() []string {
	names := make([]string, len(t.keys))
	for i, k := range t.keys {
		names[i] = k.Name
	}
	return names
}

// SetKey sets the key properties of the type. Key properties become
// non-nullable.
func (t *EntityType) SetKey(names ...string) error {
	if len(names) == 0 {
		return edmx.Empty("names")
	}
	if err := t.checkMutable("SetKey"); err != nil {
		return err
	}
	keys := make([]*Property, 0, len(names))
	for _, name := range names {
		p, ok := t.props[name]
		if !ok {
			return edmx.NewModelError(t.FullName(), fmt.Sprintf("key property %q was not found", name), nil)
		}
		keys = append(keys, p)
	}
	for _, k := range keys {
		k.Nullable = false
	}
	t.keys = keys
	return nil
}

// IsKey reports whether p is part of the key of the type.
func (t *EntityType) IsKey(p *Property) bool {
	return slices.Contains(t.keys, p)
}

func (t *EntityType) hasMember(name string) bool {
	if _, ok := t.props[name]; ok {
		return true
	}
	_, ok := t.NavigationProperty(name)
	return ok
}

func (t *EntityType) checkMutable(op string) error {
	if t.model != nil && t.model.Frozen() {
		return edmx.NewLockedError(op)
	}
	return nil
}

// EntitySet is the container set of an entity type. In the store space the
// set names the table and schema of the type.
type EntitySet struct {
	// Name of the set.
	Name string
	// ElementType holds the entity type of the set.
	ElementType *EntityType
	// Table is the store table name. Store space only.
	Table string
	// Schema is the store schema name. Store space only.
	Schema string
	// TableConfigured indicates the table name was set explicitly and
	// must not be changed by conventions.
	TableConfigured bool
}

// QualifiedTable returns the schema qualified table name.
func (s *EntitySet) QualifiedTable() string {
	if s.Schema == "" {
		return s.Table
	}
	return s.Schema + "." + s.Table
}
