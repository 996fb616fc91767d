package builder

import (
	"fmt"
	"strconv"

	"github.com/syssam/edmx"
	"github.com/syssam/edmx/edm"
	"github.com/syssam/edmx/provider"
)

// tableConfig is the explicit table of an entity type.
type tableConfig struct {
	name   string
	schema string
}

// storeBuilder derives the store model and the mapping from the conceptual
// model.
type storeBuilder struct {
	model    *edm.DbModel
	services provider.Services
	schema   string
	tables   map[*edm.EntityType]tableConfig
	// sets maps conceptual entity types to their entity set mapping.
	sets map[*edm.EntityType]*edm.EntitySetMapping
}

func (s *storeBuilder) build() error {
	s.sets = make(map[*edm.EntityType]*edm.EntitySetMapping)
	cm := s.model.Conceptual
	for _, t := range cm.EntityTypes() {
		if err := s.table(t); err != nil {
			return err
		}
	}
	for _, a := range cm.AssociationTypes() {
		var err error
		if a.IsManyToMany() {
			err = s.link(a)
		} else {
			err = s.foreignKey(a)
		}
		if err != nil {
			return err
		}
		src, _ := cm.EntitySetFor(a.SourceEnd.EntityType)
		tgt, _ := cm.EntitySetFor(a.TargetEnd.EntityType)
		if err := cm.AddAssociationSet(&edm.AssociationSet{Name: a.Name, ElementType: a, SourceSet: src, TargetSet: tgt}); err != nil {
			return err
		}
	}
	return nil
}

// table adds the table of the conceptual type t and maps its properties.
func (s *storeBuilder) table(t *edm.EntityType) error {
	set, ok := s.model.Conceptual.EntitySetFor(t)
	if !ok {
		return edmx.NewModelError(t.FullName(), "entity type has no entity set", nil)
	}
	st := edm.NewEntityType(t.Name, "")
	esm := &edm.EntitySetMapping{EntitySet: set}
	for _, p := range t.Properties() {
		col := s.column(p)
		if err := st.AddProperty(col); err != nil {
			return err
		}
		esm.Properties = append(esm.Properties, &edm.PropertyMapping{Property: p, Column: col})
	}
	keys := make([]string, 0, len(t.Key()))
	for _, k := range t.Key() {
		keys = append(keys, k.Column())
	}
	if err := st.SetKey(keys...); err != nil {
		return err
	}
	table, err := s.addTable(st, s.tables[t])
	if err != nil {
		return err
	}
	esm.Table = table
	s.sets[t] = esm
	return s.model.Mapping.AddEntitySetMapping(esm)
}

func (s *storeBuilder) addTable(st *edm.EntityType, cfg tableConfig) (*edm.EntitySet, error) {
	table := &edm.EntitySet{Name: st.Name, ElementType: st, Table: st.Name, Schema: s.schema}
	if cfg.name != "" {
		table.Table, table.TableConfigured = cfg.name, true
	}
	if cfg.schema != "" {
		table.Schema = cfg.schema
	}
	if err := s.model.Store.AddEntityType(st); err != nil {
		return nil, err
	}
	if err := s.model.Store.AddEntitySet(table); err != nil {
		return nil, err
	}
	return table, nil
}

// column returns the store column of the conceptual property p.
func (s *storeBuilder) column(p *edm.Property) *edm.Property {
	col := p.Clone()
	col.Name, col.ColumnName, col.Index = p.Column(), "", nil
	if col.StoreType == "" {
		col.StoreType = s.services.StoreType(p.Kind, p.MaxLength)
	}
	return col
}

// foreignKey maps a one-to-many or one-to-one association to foreign key
// columns of the dependent table.
func (s *storeBuilder) foreignKey(a *edm.AssociationType) error {
	principal := a.PrincipalEnd()
	dependent := a.OtherEnd(principal)
	pesm, desm := s.sets[principal.EntityType], s.sets[dependent.EntityType]
	if pesm == nil || desm == nil {
		return edmx.NewModelError(a.FullName(), "association end is not mapped to a table", nil)
	}
	dt := desm.Table.ElementType
	keys := principal.EntityType.Key()
	if len(keys) == 0 {
		return edmx.NewModelError(a.FullName(), fmt.Sprintf("principal %q has no key", principal.EntityType.Name), nil)
	}
	fks := make([]*edm.Property, len(keys))
	if c := a.Constraint; c != nil {
		for i, p := range c.DependentProperties {
			col, ok := desm.ColumnFor(p.Name)
			if !ok {
				return edmx.NewModelError(a.FullName(), fmt.Sprintf("foreign key property %q is not mapped", p.Name), nil)
			}
			fks[i] = col
		}
	} else {
		prefix := principal.EntityType.Name
		if nav := navigationTo(dependent.EntityType, a, principal); nav != nil {
			prefix = nav.Name
		}
		for i, k := range keys {
			col := s.column(k)
			col.Name = uniqueColumn(dt, prefix+"_"+k.Column())
			col.Nullable = !principal.IsRequired()
			col.StoreGenerated = edm.StoreGeneratedNone
			col.ConcurrencyToken = false
			if err := dt.AddProperty(col); err != nil {
				return err
			}
			fks[i] = col
		}
	}

	fk, err := s.storeAssociation(a.Name, pesm.Table.ElementType, dt, principal, dependent, fks)
	if err != nil {
		return err
	}
	pm := &edm.EndMapping{End: principal}
	for i, k := range keys {
		pm.Properties = append(pm.Properties, &edm.PropertyMapping{Property: k, Column: fks[i]})
	}
	dm := &edm.EndMapping{End: dependent}
	for _, k := range dependent.EntityType.Key() {
		col, _ := desm.ColumnFor(k.Name)
		dm.Properties = append(dm.Properties, &edm.PropertyMapping{Property: k, Column: col})
	}
	asm := &edm.AssociationSetMapping{Association: a, Table: desm.Table, StoreAssociations: []*edm.AssociationType{fk}}
	asm.SourceEnd, asm.TargetEnd = pm, dm
	if principal != a.SourceEnd {
		asm.SourceEnd, asm.TargetEnd = dm, pm
	}
	return s.model.Mapping.AddAssociationSetMapping(asm)
}

// link maps a many-to-many association to a link table holding the keys of
// both ends.
func (s *storeBuilder) link(a *edm.AssociationType) error {
	src, tgt := s.sets[a.SourceEnd.EntityType], s.sets[a.TargetEnd.EntityType]
	if src == nil || tgt == nil {
		return edmx.NewModelError(a.FullName(), "association end is not mapped to a table", nil)
	}
	lt := edm.NewEntityType(a.SourceEnd.EntityType.Name+a.TargetEnd.EntityType.Name, "")
	ends := [2]*edm.EndMapping{{End: a.SourceEnd}, {End: a.TargetEnd}}
	cols := [2][]*edm.Property{}
	var keys []string
	for i, end := range []*edm.AssociationEndMember{a.SourceEnd, a.TargetEnd} {
		for _, k := range end.EntityType.Key() {
			col := s.column(k)
			col.Name = uniqueColumn(lt, end.EntityType.Name+"_"+k.Column())
			col.Nullable, col.StoreGenerated, col.ConcurrencyToken = false, edm.StoreGeneratedNone, false
			if err := lt.AddProperty(col); err != nil {
				return err
			}
			keys = append(keys, col.Name)
			cols[i] = append(cols[i], col)
			ends[i].Properties = append(ends[i].Properties, &edm.PropertyMapping{Property: k, Column: col})
		}
	}
	if err := lt.SetKey(keys...); err != nil {
		return err
	}
	table, err := s.addTable(lt, tableConfig{})
	if err != nil {
		return err
	}
	asm := &edm.AssociationSetMapping{Association: a, Table: table, SourceEnd: ends[0], TargetEnd: ends[1]}
	for i, set := range []*edm.EntitySetMapping{src, tgt} {
		name := a.Name + "_Source"
		if i == 1 {
			name = a.Name + "_Target"
		}
		fk, err := s.storeAssociation(name, set.Table.ElementType, lt, linkPrincipal, linkDependent, cols[i])
		if err != nil {
			return err
		}
		asm.StoreAssociations = append(asm.StoreAssociations, fk)
	}
	return s.model.Mapping.AddAssociationSetMapping(asm)
}

// storeAssociation adds the foreign key from the dependent table to the
// principal table. The delete behavior of the ends is carried over.
func (s *storeBuilder) storeAssociation(name string, pt, dt *edm.EntityType, principal, dependent *edm.AssociationEndMember, fks []*edm.Property) (*edm.AssociationType, error) {
	pname, dname := pt.Name, dt.Name
	if pt == dt {
		pname, dname = pname+"Principal", dname+"Dependent"
	}
	pe := edm.NewEnd(pname, pt, principal.Multiplicity)
	pe.DeleteBehavior = principal.DeleteBehavior
	de := edm.NewEnd(dname, dt, edm.Many)
	if dependent.Multiplicity != edm.Many {
		de.Multiplicity = edm.ZeroOrOne
	}
	de.DeleteBehavior = dependent.DeleteBehavior
	fk := edm.NewAssociationType(name, pe, de)
	fk.Constraint = &edm.ReferentialConstraint{Principal: pe, Dependent: de, DependentProperties: fks}
	if err := s.model.Store.AddAssociationType(fk); err != nil {
		return nil, err
	}
	pset, _ := s.model.Store.EntitySetFor(pt)
	dset, _ := s.model.Store.EntitySetFor(dt)
	if err := s.model.Store.AddAssociationSet(&edm.AssociationSet{Name: name, ElementType: fk, SourceSet: pset, TargetSet: dset}); err != nil {
		return nil, err
	}
	return fk, nil
}

var (
	linkPrincipal = &edm.AssociationEndMember{Multiplicity: edm.One}
	linkDependent = &edm.AssociationEndMember{Multiplicity: edm.Many}
)

// navigationTo returns the navigation of t that reaches the end to of a.
func navigationTo(t *edm.EntityType, a *edm.AssociationType, to *edm.AssociationEndMember) *edm.NavigationProperty {
	for _, n := range t.NavigationProperties() {
		if n.Association == a && n.ToEnd == to {
			return n
		}
	}
	return nil
}

// uniqueColumn returns name, or name with the smallest numeric suffix that
// is not a column of t.
func uniqueColumn(t *edm.EntityType, name string) string {
	if _, ok := t.Property(name); !ok {
		return name
	}
	for i := 1; ; i++ {
		n := name + strconv.Itoa(i)
		if _, ok := t.Property(n); !ok {
			return n
		}
	}
}
