package conventions

import (
	"context"

	"github.com/syssam/edmx/edm"
)

// OneToManyCascadeDelete enables cascade delete on the required end of
// one-to-many associations: when the principal of a required relationship
// is deleted, its dependents are deleted with it.
type OneToManyCascadeDelete struct{}

// Name implements Convention.
func (OneToManyCascadeDelete) Name() string { return "OneToManyCascadeDelete" }

// ApplyAssociationType sets Cascade on the One end of a (One, Many) or
// (Many, One) association. Self-referencing associations and associations
// with an explicit delete behavior on either end are left untouched, as are
// all other multiplicity combinations.
func (OneToManyCascadeDelete) ApplyAssociationType(_ context.Context, a *edm.AssociationType, _ *edm.EdmModel) error {
	if a.IsSelfReferencing() {
		return nil
	}
	src, tgt := a.SourceEnd, a.TargetEnd
	if src.DeleteBehavior != edm.None || tgt.DeleteBehavior != edm.None {
		return nil
	}
	switch {
	case src.Multiplicity == edm.One && tgt.Multiplicity == edm.Many:
		src.DeleteBehavior = edm.Cascade
	case src.Multiplicity == edm.Many && tgt.Multiplicity == edm.One:
		tgt.DeleteBehavior = edm.Cascade
	}
	return nil
}

// ManyToManyCascadeDelete enables cascade delete on both foreign keys of
// the link table of every many-to-many association. Deleting either side
// removes its link rows.
type ManyToManyCascadeDelete struct{}

// Name implements Convention.
func (ManyToManyCascadeDelete) Name() string { return "ManyToManyCascadeDelete" }

// Space implements SpaceConvention.
func (ManyToManyCascadeDelete) Space() edm.DataSpace { return edm.SSpace }

// ApplyModel implements ModelConvention.
func (ManyToManyCascadeDelete) ApplyModel(_ context.Context, m *edm.DbModel) error {
	for _, asm := range m.Mapping.AssociationSetMappings() {
		if !asm.Association.IsManyToMany() {
			continue
		}
		for _, fk := range asm.StoreAssociations {
			if fk.Constraint != nil && fk.Constraint.Principal != nil {
				fk.Constraint.Principal.DeleteBehavior = edm.Cascade
			}
		}
	}
	return nil
}
