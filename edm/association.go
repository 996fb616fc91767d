package edm

import (
	"fmt"
	"strings"

	"github.com/syssam/edmx"
)

// RelationshipMultiplicity is the cardinality of an association end.
type RelationshipMultiplicity int

// Relationship multiplicities.
const (
	ZeroOrOne RelationshipMultiplicity = iota
	One
	Many
)

// String returns the multiplicity in EDM notation.
func (m RelationshipMultiplicity) String() string {
	switch m {
	case ZeroOrOne:
		return "0..1"
	case One:
		return "1"
	case Many:
		return "*"
	default:
		return fmt.Sprintf("RelationshipMultiplicity(%d)", int(m))
	}
}

// ParseMultiplicity parses a multiplicity from its EDM notation or its name.
func ParseMultiplicity(s string) (RelationshipMultiplicity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "0..1", "zeroorone", "optional":
		return ZeroOrOne, nil
	case "1", "one", "required":
		return One, nil
	case "*", "many":
		return Many, nil
	}
	return 0, fmt.Errorf("edm: unknown multiplicity %q", s)
}

// OperationAction is the action taken on an end when the other end is deleted.
type OperationAction int

// Operation actions.
const (
	None OperationAction = iota
	Cascade
)

// String returns the action name.
func (a OperationAction) String() string {
	switch a {
	case None:
		return "None"
	case Cascade:
		return "Cascade"
	default:
		return fmt.Sprintf("OperationAction(%d)", int(a))
	}
}

// ParseOperationAction parses an action name.
func ParseOperationAction(s string) (OperationAction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return None, nil
	case "cascade":
		return Cascade, nil
	}
	return 0, fmt.Errorf("edm: unknown operation action %q", s)
}

// AssociationEndMember is one of the two named roles of an association.
type AssociationEndMember struct {
	// Name of the role.
	Name string
	// EntityType referenced by the end.
	EntityType *EntityType
	// Multiplicity of the end.
	Multiplicity RelationshipMultiplicity
	// DeleteBehavior is applied to the other end when an entity of this
	// end is deleted.
	DeleteBehavior OperationAction
}

// NewEnd returns a new association end.
func NewEnd(name string, t *EntityType, m RelationshipMultiplicity) *AssociationEndMember {
	return &AssociationEndMember{Name: name, EntityType: t, Multiplicity: m}
}

// IsMany reports whether the end multiplicity is Many.
func (e *AssociationEndMember) IsMany() bool { return e != nil && e.Multiplicity == Many }

// IsRequired reports whether the end multiplicity is One.
func (e *AssociationEndMember) IsRequired() bool { return e != nil && e.Multiplicity == One }

// IsOptional reports whether the end multiplicity is ZeroOrOne.
func (e *AssociationEndMember) IsOptional() bool { return e != nil && e.Multiplicity == ZeroOrOne }

// String returns a short description of the end.
func (e *AssociationEndMember) String() string {
	if e == nil {
		return "<nil>"
	}
	typ := "<nil>"
	if e.EntityType != nil {
		typ = e.EntityType.Name
	}
	return fmt.Sprintf("%s(%s %s)", e.Name, typ, e.Multiplicity)
}

// ReferentialConstraint ties the dependent properties of one end to the key
// of the principal end.
type ReferentialConstraint struct {
	// Principal is the end whose key is referenced.
	Principal *AssociationEndMember
	// Dependent is the end holding the foreign key.
	Dependent *AssociationEndMember
	// DependentProperties are the foreign key properties of the dependent type.
	DependentProperties []*Property
}

// AssociationType is a relationship between two entity types.
type AssociationType struct {
	// Name of the association.
	Name string
	// Namespace of the association.
	Namespace string
	// SourceEnd is the end that declares the relationship.
	SourceEnd *AssociationEndMember
	// TargetEnd is the other end.
	TargetEnd *AssociationEndMember
	// Constraint is the optional referential constraint.
	Constraint *ReferentialConstraint
	// Configured indicates the multiplicities were set explicitly and
	// must not be changed by conventions.
	Configured bool

	model *EdmModel
}

// NewAssociationType returns a new association between two ends.
func NewAssociationType(name string, source, target *AssociationEndMember) *AssociationType {
	return &AssociationType{Name: name, SourceEnd: source, TargetEnd: target}
}

// FullName returns the namespace qualified name of the association.
func (a *AssociationType) FullName() string {
	if a.Namespace == "" {
		return a.Name
	}
	return a.Namespace + "." + a.Name
}

// Model returns the model that owns the association, or nil.
func (a *AssociationType) Model() *EdmModel { return a.model }

// Check reports a model error if an end or its entity type is missing.
func (a *AssociationType) Check() error {
	switch {
	case a.SourceEnd == nil:
		return edmx.NewModelError(a.FullName(), "missing source end", nil)
	case a.TargetEnd == nil:
		return edmx.NewModelError(a.FullName(), "missing target end", nil)
	case a.SourceEnd.EntityType == nil:
		return edmx.NewModelError(a.FullName(), fmt.Sprintf("end %q has no entity type", a.SourceEnd.Name), nil)
	case a.TargetEnd.EntityType == nil:
		return edmx.NewModelError(a.FullName(), fmt.Sprintf("end %q has no entity type", a.TargetEnd.Name), nil)
	}
	return nil
}

// IsSelfReferencing reports whether both ends reference the same entity
// type instance.
func (a *AssociationType) IsSelfReferencing() bool {
	return a.SourceEnd != nil && a.TargetEnd != nil &&
		a.SourceEnd.EntityType != nil &&
		a.SourceEnd.EntityType == a.TargetEnd.EntityType
}

// IsManyToMany reports whether both ends are Many.
func (a *AssociationType) IsManyToMany() bool {
	return a.SourceEnd.IsMany() && a.TargetEnd.IsMany()
}

// IsRequiredToMany reports whether one end is One and the other is Many.
func (a *AssociationType) IsRequiredToMany() bool {
	return a.SourceEnd.IsRequired() && a.TargetEnd.IsMany() ||
		a.SourceEnd.IsMany() && a.TargetEnd.IsRequired()
}

// OtherEnd returns the end opposite to e, or nil if e is not an end of a.
func (a *AssociationType) OtherEnd(e *AssociationEndMember) *AssociationEndMember {
	switch e {
	case a.SourceEnd:
		return a.TargetEnd
	case a.TargetEnd:
		return a.SourceEnd
	}
	return nil
}

// End returns the end with the given role name.
func (a *AssociationType) End(name string) (*AssociationEndMember, bool) {
	for _, e := range []*AssociationEndMember{a.SourceEnd, a.TargetEnd} {
		if e != nil && e.Name == name {
			return e, true
		}
	}
	return nil, false
}

// PrincipalEnd returns the principal end. The referential constraint takes
// precedence; otherwise the non-Many end of a one-to-many association, or the
// One end of a one to zero-or-one association. Ambiguous cases pick the
// source end.
func (a *AssociationType) PrincipalEnd() *AssociationEndMember {
	if a.Constraint != nil && a.Constraint.Principal != nil {
		return a.Constraint.Principal
	}
	src, tgt := a.SourceEnd, a.TargetEnd
	switch {
	case src.IsMany() && !tgt.IsMany():
		return tgt
	case tgt.IsMany() && !src.IsMany():
		return src
	case src.IsOptional() && tgt.IsRequired():
		return tgt
	}
	return src
}

// DependentEnd returns the end opposite to the principal end.
func (a *AssociationType) DependentEnd() *AssociationEndMember {
	return a.OtherEnd(a.PrincipalEnd())
}

// AssociationSet is the container set of an association.
type AssociationSet struct {
	// Name of the set.
	Name string
	// ElementType is the association of the set.
	ElementType *AssociationType
	// SourceSet is the entity set of the source end.
	SourceSet *EntitySet
	// TargetSet is the entity set of the target end.
	TargetSet *EntitySet
}
