package edm

import (
	"fmt"
	"slices"

	"github.com/syssam/edmx"
)

// EdmModel holds the elements of one data space: entity types, association
// types, their container sets and, in the store space, functions.
type EdmModel struct {
	// Space is the data space of the model.
	Space DataSpace
	// Namespace is the default namespace of the model elements.
	Namespace string

	entityTypes  []*EntityType
	associations []*AssociationType
	entitySets   []*EntitySet
	assocSets    []*AssociationSet
	functions    []*EdmFunction
	names        map[string]any
	frozen       bool
}

// NewModel returns an empty model for the given space.
func NewModel(space DataSpace, namespace string) *EdmModel {
	if namespace == "" {
		namespace = DefaultConceptualNamespace
		if space == SSpace {
			namespace = DefaultStoreNamespace
		}
	}
	return &EdmModel{Space: space, Namespace: namespace, names: make(map[string]any)}
}

// Frozen reports whether the model is read-only.
func (m *EdmModel) Frozen() bool { return m.frozen }

func (m *EdmModel) freeze() { m.frozen = true }

// EntityTypes returns the entity types in insertion order.
func (m *EdmModel) EntityTypes() []*EntityType { return m.entityTypes }

// AssociationTypes returns the association types in insertion order.
func (m *EdmModel) AssociationTypes() []*AssociationType { return m.associations }

// EntitySets returns the entity sets in insertion order.
func (m *EdmModel) EntitySets() []*EntitySet { return m.entitySets }

// AssociationSets returns the association sets in insertion order.
func (m *EdmModel) AssociationSets() []*AssociationSet { return m.assocSets }

// Functions returns the functions in insertion order.
func (m *EdmModel) Functions() []*EdmFunction { return m.functions }

// AddEntityType adds an entity type to the model. Type names share one
// case-sensitive scope with association names.
func (m *EdmModel) AddEntityType(t *EntityType) error {
	if t == nil {
		return edmx.Nil("entityType")
	}
	if err := edmx.CheckNotEmpty("entityType.Name", t.Name); err != nil {
		return err
	}
	if err := m.reserve("AddEntityType", t.Name, t); err != nil {
		return err
	}
	if t.Namespace == "" {
		t.Namespace = m.Namespace
	}
	t.model = m
	m.entityTypes = append(m.entityTypes, t)
	return nil
}

// EntityType returns the entity type with the given name.
func (m *EdmModel) EntityType(name string) (*EntityType, bool) {
	t, ok := m.names[name].(*EntityType)
	return t, ok
}

// AddAssociationType adds an association type to the model.
func (m *EdmModel) AddAssociationType(a *AssociationType) error {
	if a == nil {
		return edmx.Nil("associationType")
	}
	if err := edmx.CheckNotEmpty("associationType.Name", a.Name); err != nil {
		return err
	}
	if err := a.Check(); err != nil {
		return err
	}
	if err := m.reserve("AddAssociationType", a.Name, a); err != nil {
		return err
	}
	if a.Namespace == "" {
		a.Namespace = m.Namespace
	}
	a.model = m
	m.associations = append(m.associations, a)
	return nil
}

// AssociationType returns the association type with the given name.
func (m *EdmModel) AssociationType(name string) (*AssociationType, bool) {
	a, ok := m.names[name].(*AssociationType)
	return a, ok
}

// RemoveAssociationType removes an association type and its set.
func (m *EdmModel) RemoveAssociationType(a *AssociationType) error {
	if m.frozen {
		return edmx.NewLockedError("RemoveAssociationType")
	}
	if a == nil || m.names[a.Name] != a {
		return edmx.NewModelError(m.Namespace, "association is not part of the model", nil)
	}
	delete(m.names, a.Name)
	m.associations = slices.DeleteFunc(m.associations, func(x *AssociationType) bool { return x == a })
	m.assocSets = slices.DeleteFunc(m.assocSets, func(s *AssociationSet) bool { return s.ElementType == a })
	a.model = nil
	return nil
}

// AddEntitySet adds an entity set. Set names must be unique among sets.
func (m *EdmModel) AddEntitySet(s *EntitySet) error {
	if s == nil || s.ElementType == nil {
		return edmx.Nil("entitySet.ElementType")
	}
	if err := edmx.CheckNotEmpty("entitySet.Name", s.Name); err != nil {
		return err
	}
	if m.frozen {
		return edmx.NewLockedError("AddEntitySet")
	}
	if _, ok := m.EntitySet(s.Name); ok {
		return edmx.NewModelError(m.Namespace, fmt.Sprintf("entity set %q redeclared", s.Name), nil)
	}
	if _, ok := m.EntitySetFor(s.ElementType); ok {
		return edmx.NewModelError(s.ElementType.FullName(), "entity type already has an entity set", nil)
	}
	m.entitySets = append(m.entitySets, s)
	return nil
}

// EntitySet returns the entity set with the given name.
func (m *EdmModel) EntitySet(name string) (*EntitySet, bool) {
	for _, s := range m.entitySets {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}

// EntitySetFor returns the entity set of an entity type.
func (m *EdmModel) EntitySetFor(t *EntityType) (*EntitySet, bool) {
	for _, s := range m.entitySets {
		if s.ElementType == t {
			return s, true
		}
	}
	return nil, false
}

// AddAssociationSet adds an association set.
func (m *EdmModel) AddAssociationSet(s *AssociationSet) error {
	if s == nil || s.ElementType == nil {
		return edmx.Nil("associationSet.ElementType")
	}
	if err := edmx.CheckNotEmpty("associationSet.Name", s.Name); err != nil {
		return err
	}
	if m.frozen {
		return edmx.NewLockedError("AddAssociationSet")
	}
	for _, x := range m.assocSets {
		if x.Name == s.Name {
			return edmx.NewModelError(m.Namespace, fmt.Sprintf("association set %q redeclared", s.Name), nil)
		}
	}
	m.assocSets = append(m.assocSets, s)
	return nil
}

// AssociationSetFor returns the association set of an association type.
func (m *EdmModel) AssociationSetFor(a *AssociationType) (*AssociationSet, bool) {
	for _, s := range m.assocSets {
		if s.ElementType == a {
			return s, true
		}
	}
	return nil, false
}

// AddFunction adds a function. Function names are unique per schema.
func (m *EdmModel) AddFunction(f *EdmFunction) error {
	if f == nil {
		return edmx.Nil("function")
	}
	if err := edmx.CheckNotEmpty("function.Name", f.Name); err != nil {
		return err
	}
	if m.frozen {
		return edmx.NewLockedError("AddFunction")
	}
	if _, ok := m.Function(f.Schema, f.Name); ok {
		return edmx.NewModelError(f.FullName(), "function redeclared", nil)
	}
	m.functions = append(m.functions, f)
	return nil
}

// Function returns the function with the given schema and name.
func (m *EdmModel) Function(schema, name string) (*EdmFunction, bool) {
	for _, f := range m.functions {
		if f.Schema == schema && f.Name == name {
			return f, true
		}
	}
	return nil, false
}

func (m *EdmModel) reserve(op, name string, v any) error {
	if m.frozen {
		return edmx.NewLockedError(op)
	}
	if _, ok := m.names[name]; ok {
		return edmx.NewModelError(m.Namespace+"."+name, "name redeclared", nil)
	}
	m.names[name] = v
	return nil
}
