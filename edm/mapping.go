package edm

import (
	"github.com/syssam/edmx"
)

// PropertyMapping maps a conceptual property to a store column.
type PropertyMapping struct {
	Property *Property
	Column   *Property
}

// EntitySetMapping maps an entity set to a store table.
type EntitySetMapping struct {
	// EntitySet is the conceptual set.
	EntitySet *EntitySet
	// Table is the store set.
	Table *EntitySet
	// Properties holds one mapping per conceptual property.
	Properties []*PropertyMapping
}

// ColumnFor returns the column mapped to the given conceptual property name.
func (m *EntitySetMapping) ColumnFor(name string) (*Property, bool) {
	for _, pm := range m.Properties {
		if pm.Property.Name == name {
			return pm.Column, true
		}
	}
	return nil, false
}

// EndMapping maps the key of one association end to columns of the table
// of an association set mapping.
type EndMapping struct {
	End        *AssociationEndMember
	Properties []*PropertyMapping
}

// AssociationSetMapping maps an association to the table that stores it:
// the dependent table for foreign key associations or a link table for
// many-to-many associations.
type AssociationSetMapping struct {
	Association *AssociationType
	Table       *EntitySet
	SourceEnd   *EndMapping
	TargetEnd   *EndMapping
	// StoreAssociations are the foreign keys that realize the association.
	StoreAssociations []*AssociationType
}

// ParameterBinding binds a function parameter to a property value.
type ParameterBinding struct {
	Parameter *FunctionParameter
	Property  *Property
	// Current is false when the parameter receives the original value.
	Current bool
}

// ResultBinding binds a result column of a function to a property.
type ResultBinding struct {
	Column   string
	Property *Property
}

// FunctionMapping maps one modification operation to a store function.
type FunctionMapping struct {
	Function          *EdmFunction
	ParameterBindings []*ParameterBinding
	ResultBindings    []*ResultBinding
	RowsAffected      *FunctionParameter
}

// Binding returns the binding of the named parameter.
func (m *FunctionMapping) Binding(parameter string) (*ParameterBinding, bool) {
	for _, b := range m.ParameterBindings {
		if b.Parameter.Name == parameter {
			return b, true
		}
	}
	return nil, false
}

// ModificationFunctionMapping maps the insert, update and delete operations
// of an entity type to store functions.
type ModificationFunctionMapping struct {
	EntityType *EntityType
	EntitySet  *EntitySet
	Insert     *FunctionMapping
	Update     *FunctionMapping
	Delete     *FunctionMapping
}

// Mapping holds the mapping between the conceptual and the store model.
type Mapping struct {
	entitySets   []*EntitySetMapping
	associations []*AssociationSetMapping
	functions    []*ModificationFunctionMapping
	frozen       bool
}

// NewMapping returns an empty mapping.
func NewMapping() *Mapping { return &Mapping{} }

// EntitySetMappings returns the entity set mappings.
func (m *Mapping) EntitySetMappings() []*EntitySetMapping { return m.entitySets }

// AssociationSetMappings returns the association set mappings.
func (m *Mapping) AssociationSetMappings() []*AssociationSetMapping { return m.associations }

// FunctionMappings returns the modification function mappings.
func (m *Mapping) FunctionMappings() []*ModificationFunctionMapping { return m.functions }

// AddEntitySetMapping adds an entity set mapping.
func (m *Mapping) AddEntitySetMapping(esm *EntitySetMapping) error {
	if esm == nil || esm.EntitySet == nil || esm.Table == nil {
		return edmx.Nil("entitySetMapping")
	}
	if m.frozen {
		return edmx.NewLockedError("AddEntitySetMapping")
	}
	if _, ok := m.EntitySetMappingFor(esm.EntitySet.ElementType); ok {
		return edmx.NewModelError(esm.EntitySet.ElementType.FullName(), "entity type already mapped", nil)
	}
	m.entitySets = append(m.entitySets, esm)
	return nil
}

// EntitySetMappingFor returns the mapping of a conceptual entity type.
func (m *Mapping) EntitySetMappingFor(t *EntityType) (*EntitySetMapping, bool) {
	for _, esm := range m.entitySets {
		if esm.EntitySet.ElementType == t {
			return esm, true
		}
	}
	return nil, false
}

// AddAssociationSetMapping adds an association set mapping.
func (m *Mapping) AddAssociationSetMapping(asm *AssociationSetMapping) error {
	if asm == nil || asm.Association == nil || asm.Table == nil {
		return edmx.Nil("associationSetMapping")
	}
	if m.frozen {
		return edmx.NewLockedError("AddAssociationSetMapping")
	}
	m.associations = append(m.associations, asm)
	return nil
}

// AssociationSetMappingFor returns the mapping of a conceptual association.
func (m *Mapping) AssociationSetMappingFor(a *AssociationType) (*AssociationSetMapping, bool) {
	for _, asm := range m.associations {
		if asm.Association == a {
			return asm, true
		}
	}
	return nil, false
}

// AddFunctionMapping adds a modification function mapping.
func (m *Mapping) AddFunctionMapping(fm *ModificationFunctionMapping) error {
	if fm == nil || fm.EntityType == nil {
		return edmx.Nil("functionMapping")
	}
	if m.frozen {
		return edmx.NewLockedError("AddFunctionMapping")
	}
	if _, ok := m.FunctionMappingFor(fm.EntityType); ok {
		return edmx.NewModelError(fm.EntityType.FullName(), "stored procedures already mapped", nil)
	}
	m.functions = append(m.functions, fm)
	return nil
}

// FunctionMappingFor returns the modification function mapping of an
// entity type.
func (m *Mapping) FunctionMappingFor(t *EntityType) (*ModificationFunctionMapping, bool) {
	for _, fm := range m.functions {
		if fm.EntityType == t {
			return fm, true
		}
	}
	return nil, false
}
