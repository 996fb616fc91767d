package conventions

import (
	"context"
	"slices"
	"strings"

	"github.com/syssam/edmx/edm"
)

// IDKeyDiscovery sets the key of entity types without one to the property
// named "ID", or else "<Type>ID", compared case-insensitively.
type IDKeyDiscovery struct{}

// Name implements Convention.
func (IDKeyDiscovery) Name() string { return "IDKeyDiscovery" }

// ApplyEntityType implements EntityTypeConvention.
func (IDKeyDiscovery) ApplyEntityType(_ context.Context, t *edm.EntityType, _ *edm.EdmModel) error {
	if t.HasKey() {
		return nil
	}
	for _, name := range []string{"id", t.Name + "id"} {
		var found []*edm.Property
		for _, p := range t.Properties() {
			if keyKind(p.Kind) && strings.EqualFold(p.Name, name) {
				found = append(found, p)
			}
		}
		switch len(found) {
		case 0:
			continue
		case 1:
			found[0].Nullable = false
			return t.SetKey(found[0].Name)
		}
		// Ambiguous, e.g. "Id" and "ID".
		return nil
	}
	return nil
}

func keyKind(k edm.PrimitiveKind) bool {
	switch k {
	case edm.KindInt32, edm.KindInt64, edm.KindString, edm.KindGUID, edm.KindDecimal, edm.KindBinary:
		return true
	}
	return false
}

// StoreGeneratedIdentityKey marks the single integer key of an entity type
// as store generated, unless the key is also a foreign key.
type StoreGeneratedIdentityKey struct{}

// Name implements Convention.
func (StoreGeneratedIdentityKey) Name() string { return "StoreGeneratedIdentityKey" }

// ApplyEntityType implements EntityTypeConvention.
func (StoreGeneratedIdentityKey) ApplyEntityType(_ context.Context, t *edm.EntityType, m *edm.EdmModel) error {
	keys := t.Key()
	if len(keys) != 1 {
		return nil
	}
	k := keys[0]
	if !k.Kind.Integer() || k.StoreGenerated != edm.StoreGeneratedUnspecified {
		return nil
	}
	for _, a := range m.AssociationTypes() {
		if c := a.Constraint; c != nil && slices.Contains(c.DependentProperties, k) {
			return nil
		}
	}
	k.StoreGenerated = edm.StoreGeneratedIdentity
	return nil
}
