package conventions

import (
	"context"
	"slices"

	"github.com/syssam/edmx/edm"
)

// AssociationInverseDiscovery pairs navigation properties that are each
// other's inverse. When type A has exactly one unpaired navigation to type B
// and B has exactly one unpaired navigation to A, both navigations are
// merged into the association created first and the other association is
// removed. A self-referencing type pairs when it has exactly two unpaired
// navigations to itself.
type AssociationInverseDiscovery struct{}

// Name implements Convention.
func (AssociationInverseDiscovery) Name() string { return "AssociationInverseDiscovery" }

// ApplyModel implements ModelConvention.
func (AssociationInverseDiscovery) ApplyModel(_ context.Context, m *edm.DbModel) error {
	em := m.Conceptual
	for _, t := range em.EntityTypes() {
		for _, n1 := range t.NavigationProperties() {
			if !unpaired(em, n1) {
				continue
			}
			var n2 *edm.NavigationProperty
			if n1.Target == t {
				self := unpairedTo(em, t, t)
				if len(self) != 2 {
					continue
				}
				n2 = self[1]
				if self[1] == n1 {
					n2 = self[0]
				}
			} else {
				fwd, inv := unpairedTo(em, t, n1.Target), unpairedTo(em, n1.Target, t)
				if len(fwd) != 1 || len(inv) != 1 {
					continue
				}
				n2 = inv[0]
			}
			if err := merge(em, n1, n2); err != nil {
				return err
			}
		}
	}
	return nil
}

// merge moves n2 onto the association of n1, or the reverse, keeping the
// association that was added to the model first.
func merge(em *edm.EdmModel, n1, n2 *edm.NavigationProperty) error {
	all := em.AssociationTypes()
	if slices.Index(all, n2.Association) < slices.Index(all, n1.Association) {
		n1, n2 = n2, n1
	}
	keep, drop := n1.Association, n2.Association
	// The end of n1's declaring type takes the multiplicity n2 implies.
	keep.SourceEnd.Multiplicity = edm.ZeroOrOne
	if n2.Collection {
		keep.SourceEnd.Multiplicity = edm.Many
	}
	if err := em.RemoveAssociationType(drop); err != nil {
		return err
	}
	n2.Association = keep
	n2.FromEnd = keep.TargetEnd
	n2.ToEnd = keep.SourceEnd
	return nil
}

// unpaired reports whether n is the only navigation over its association
// and the association was not configured explicitly.
func unpaired(em *edm.EdmModel, n *edm.NavigationProperty) bool {
	a := n.Association
	if a == nil || a.Configured || a.Model() != em {
		return false
	}
	count := 0
	for _, t := range []*edm.EntityType{a.SourceEnd.EntityType, a.TargetEnd.EntityType} {
		for _, x := range t.NavigationProperties() {
			if x.Association == a {
				count++
			}
		}
		if a.IsSelfReferencing() {
			break
		}
	}
	return count == 1
}

// unpairedTo returns the unpaired navigations of from that target to.
func unpairedTo(em *edm.EdmModel, from, to *edm.EntityType) []*edm.NavigationProperty {
	var navs []*edm.NavigationProperty
	for _, n := range from.NavigationProperties() {
		if n.Target == to && unpaired(em, n) {
			navs = append(navs, n)
		}
	}
	return navs
}

// RequiredNavigationMultiplicity sets the multiplicity of the target end of
// required reference navigations to One.
type RequiredNavigationMultiplicity struct{}

// Name implements Convention.
func (RequiredNavigationMultiplicity) Name() string { return "RequiredNavigationMultiplicity" }

// ApplyEntityType implements EntityTypeConvention.
func (RequiredNavigationMultiplicity) ApplyEntityType(_ context.Context, t *edm.EntityType, _ *edm.EdmModel) error {
	for _, n := range t.NavigationProperties() {
		if !n.Required || n.Collection || n.Association == nil || n.Association.Configured {
			continue
		}
		n.ToEnd.Multiplicity = edm.One
	}
	return nil
}
