package conventions

import (
	"context"

	"github.com/syssam/edmx"
	"github.com/syssam/edmx/edm"
	"github.com/syssam/edmx/pluralization"
)

// PluralizingTableName names store tables after the plural of their entity
// type name. Tables named explicitly are left untouched.
type PluralizingTableName struct {
	service pluralization.Service
}

// NewPluralizingTableName returns the convention backed by s.
func NewPluralizingTableName(s pluralization.Service) (*PluralizingTableName, error) {
	if s == nil {
		return nil, edmx.Nil("pluralization")
	}
	return &PluralizingTableName{service: s}, nil
}

// Name implements Convention.
func (*PluralizingTableName) Name() string { return "PluralizingTableName" }

// Space implements SpaceConvention.
func (*PluralizingTableName) Space() edm.DataSpace { return edm.SSpace }

// ApplyEntityType implements EntityTypeConvention.
func (c *PluralizingTableName) ApplyEntityType(_ context.Context, t *edm.EntityType, m *edm.EdmModel) error {
	set, ok := m.EntitySetFor(t)
	if !ok || set.TableConfigured {
		return nil
	}
	set.Table = c.service.Pluralize(t.Name)
	return nil
}
