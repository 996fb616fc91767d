package provider

import (
	"context"
	"fmt"
	"strings"

	"ariga.io/atlas/sql/migrate"
	"ariga.io/atlas/sql/schema"

	"github.com/syssam/edmx"
	"github.com/syssam/edmx/edm"
)

// CreateDatabaseScript renders the CREATE TABLE statements of the store
// model of m, including foreign keys and their delete actions.
func (s *atlasServices) CreateDatabaseScript(ctx context.Context, m *edm.DbModel) (string, error) {
	changes, err := s.Changes(m)
	if err != nil {
		return "", err
	}
	var opts []migrate.PlanOption
	if !s.qualifySchema {
		opts = append(opts, func(o *migrate.PlanOptions) {
			o.SchemaQualifier = new(string)
		})
	}
	plan, err := s.plan.PlanChanges(ctx, "create", changes, opts...)
	if err != nil {
		return "", fmt.Errorf("provider: plan %s script: %w", s.name, err)
	}
	var b strings.Builder
	for _, c := range plan.Changes {
		b.WriteString(c.Cmd)
		b.WriteString(";\n")
	}
	return b.String(), nil
}

// Changes converts the store model of m to atlas schema changes.
func (s *atlasServices) Changes(m *edm.DbModel) ([]schema.Change, error) {
	if m == nil || m.Store == nil {
		return nil, edmx.Nil("model")
	}
	var (
		schemas = make(map[string]*schema.Schema)
		tables  = make(map[*edm.EntityType]*schema.Table)
		changes []schema.Change
	)
	for _, set := range m.Store.EntitySets() {
		name := set.Schema
		if name == "" {
			name = s.schema
		}
		sch, ok := schemas[name]
		if !ok {
			sch = schema.New(name)
			schemas[name] = sch
		}
		t, err := s.table(set)
		if err != nil {
			return nil, err
		}
		sch.AddTables(t)
		tables[set.ElementType] = t
		changes = append(changes, &schema.AddTable{T: t})
	}
	for _, a := range m.Store.AssociationTypes() {
		c := a.Constraint
		if c == nil || c.Principal == nil || c.Dependent == nil {
			continue
		}
		child, ok1 := tables[c.Dependent.EntityType]
		parent, ok2 := tables[c.Principal.EntityType]
		if !ok1 || !ok2 {
			return nil, edmx.NewModelError(a.FullName(), "foreign key references a table without entity set", nil)
		}
		fk := schema.NewForeignKey(a.Name).SetRefTable(parent)
		for _, p := range c.DependentProperties {
			col, ok := child.Column(p.Name)
			if !ok {
				return nil, edmx.NewModelError(a.FullName(), fmt.Sprintf("column %q was not found", p.Name), nil)
			}
			fk.AddColumns(col)
		}
		for _, k := range c.Principal.EntityType.Key() {
			col, _ := parent.Column(k.Name)
			fk.AddRefColumns(col)
		}
		if c.Principal.DeleteBehavior == edm.Cascade {
			fk.SetOnDelete(schema.Cascade)
		} else {
			fk.SetOnDelete(schema.NoAction)
		}
		child.AddForeignKeys(fk)
	}
	return changes, nil
}

func (s *atlasServices) table(set *edm.EntitySet) (*schema.Table, error) {
	et := set.ElementType
	t := schema.NewTable(set.Table)
	for _, p := range et.Properties() {
		c, err := s.column(p)
		if err != nil {
			return nil, fmt.Errorf("provider: table %q: %w", set.Table, err)
		}
		if p.StoreGenerated == edm.StoreGeneratedIdentity && p.Kind.Integer() && len(et.Key()) == 1 && et.IsKey(p) {
			s.identity(c)
		}
		t.AddColumns(c)
	}
	if keys := et.Key(); len(keys) > 0 {
		cols := make([]*schema.Column, len(keys))
		for i, k := range keys {
			cols[i], _ = t.Column(k.Name)
		}
		t.SetPrimaryKey(schema.NewPrimaryKey(cols...))
	}
	return t, nil
}

func (s *atlasServices) column(p *edm.Property) (*schema.Column, error) {
	typ := p.StoreType
	if typ == "" {
		typ = s.StoreType(p.Kind, p.MaxLength)
	}
	var c *schema.Column
	switch p.Kind {
	case edm.KindBool:
		c = schema.NewBoolColumn(p.Name, typ)
	case edm.KindInt32, edm.KindInt64:
		c = schema.NewIntColumn(p.Name, typ)
	case edm.KindDecimal:
		c = schema.NewDecimalColumn(p.Name, typ, schema.DecimalPrecision(18), schema.DecimalScale(2))
	case edm.KindFloat64:
		c = schema.NewFloatColumn(p.Name, typ)
	case edm.KindString:
		var opts []schema.StringOption
		if p.MaxLength > 0 {
			opts = append(opts, schema.StringSize(p.MaxLength))
		}
		c = schema.NewStringColumn(p.Name, typ, opts...)
	case edm.KindDateTime:
		c = schema.NewTimeColumn(p.Name, typ)
	case edm.KindGUID:
		if typ == "char" {
			c = schema.NewStringColumn(p.Name, typ, schema.StringSize(36))
		} else {
			c = schema.NewColumn(p.Name).SetType(&schema.UUIDType{T: typ})
		}
	case edm.KindBinary:
		var opts []schema.BinaryOption
		if p.MaxLength > 0 {
			opts = append(opts, schema.BinarySize(p.MaxLength))
		}
		c = schema.NewBinaryColumn(p.Name, typ, opts...)
	default:
		return nil, fmt.Errorf("column %q has unsupported kind %s", p.Name, p.Kind)
	}
	return c.SetNull(p.Nullable), nil
}
