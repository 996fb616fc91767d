package conventions

import (
	"github.com/syssam/edmx/pluralization"
)

// DefaultSet returns the default conventions in order. Conceptual:
// IDKeyDiscovery, StoreGeneratedIdentityKey, AssociationInverseDiscovery,
// RequiredNavigationMultiplicity, OneToManyCascadeDelete. Store:
// PluralizingTableName, ManyToManyCascadeDelete.
func DefaultSet(p pluralization.Service) (*Set, error) {
	tables, err := NewPluralizingTableName(p)
	if err != nil {
		return nil, err
	}
	return NewSet(
		IDKeyDiscovery{},
		StoreGeneratedIdentityKey{},
		AssociationInverseDiscovery{},
		RequiredNavigationMultiplicity{},
		OneToManyCascadeDelete{},
		tables,
		ManyToManyCascadeDelete{},
	)
}
