package mapping

import (
	"fmt"
	"strings"

	"github.com/syssam/edmx"
	"github.com/syssam/edmx/edm"
	"github.com/syssam/edmx/provider"
)

// OriginalSuffix is appended to the column name of default original value
// parameters.
const OriginalSuffix = "_Original"

// Build adds one store function per operation to the store model of m and
// maps the entity type to them. The entity type must already be mapped to
// a table. m is left unchanged when Build fails.
func (s *ModificationStoredProcedures) Build(m *edm.DbModel) error {
	if m == nil {
		return edmx.Nil("model")
	}
	if err := s.Err(); err != nil {
		return err
	}
	if err := m.CheckMutable("MapToStoredProcedures"); err != nil {
		return err
	}
	esm, ok := m.Mapping.EntitySetMappingFor(s.entity)
	if !ok {
		return edmx.NewModelError(s.entity.FullName(), "entity type is not mapped to a table", nil)
	}
	if _, ok := m.Mapping.FunctionMappingFor(s.entity); ok {
		return edmx.NewModelError(s.entity.FullName(), "stored procedures already mapped", nil)
	}
	b := &functionBuilder{model: m, esm: esm, entity: s.entity}
	fm := &edm.ModificationFunctionMapping{EntityType: s.entity, EntitySet: esm.EntitySet}
	var fns []*edm.EdmFunction
	for _, dst := range []struct {
		op Op
		fm **edm.FunctionMapping
	}{{OpInsert, &fm.Insert}, {OpUpdate, &fm.Update}, {OpDelete, &fm.Delete}} {
		f, err := b.build(s.procs[dst.op].record)
		if err != nil {
			return err
		}
		fn := f.Function
		if _, ok := m.Store.Function(fn.Schema, fn.Name); ok {
			return edmx.NewModelError(fn.FullName(), "function redeclared", nil)
		}
		for _, prev := range fns {
			if prev.Schema == fn.Schema && prev.Name == fn.Name {
				return edmx.NewModelError(fn.FullName(), "function redeclared", nil)
			}
		}
		fns = append(fns, fn)
		*dst.fm = f
	}
	for _, fn := range fns {
		if err := m.Store.AddFunction(fn); err != nil {
			return err
		}
	}
	return m.Mapping.AddFunctionMapping(fm)
}

// binding is a parameter or result bound to a column of the table.
type binding struct {
	path    string
	prop    *edm.Property
	col     *edm.Property
	current bool
	name    string
}

type functionBuilder struct {
	model  *edm.DbModel
	esm    *edm.EntitySetMapping
	entity *edm.EntityType
}

func (b *functionBuilder) build(sp StoredProcedure) (*edm.FunctionMapping, error) {
	fn := &edm.EdmFunction{Name: sp.Name, Schema: sp.Schema}
	if fn.Name == "" {
		fn.Name = b.entity.Name + "_" + sp.Op.String()
	}
	if fn.Schema == "" {
		fn.Schema = b.esm.Table.Schema
	}
	params, err := b.parameters(sp)
	if err != nil {
		return nil, err
	}
	results, err := b.results(sp)
	if err != nil {
		return nil, err
	}
	f := &edm.FunctionMapping{Function: fn}
	for _, pb := range params {
		if _, ok := fn.Parameter(pb.name); ok {
			return nil, edmx.NewModelError(fn.FullName(), fmt.Sprintf("parameter %q bound twice", pb.name), nil)
		}
		p := fn.AddParameter(pb.name, pb.col.Kind, edm.In)
		p.StoreType, p.MaxLength = pb.col.StoreType, pb.col.MaxLength
		f.ParameterBindings = append(f.ParameterBindings, &edm.ParameterBinding{Parameter: p, Property: pb.prop, Current: pb.current})
	}
	for _, rb := range results {
		f.ResultBindings = append(f.ResultBindings, &edm.ResultBinding{Column: rb.name, Property: rb.prop})
	}
	if sp.RowsAffected != "" {
		if _, ok := fn.Parameter(sp.RowsAffected); ok {
			return nil, edmx.NewModelError(fn.FullName(), fmt.Sprintf("parameter %q bound twice", sp.RowsAffected), nil)
		}
		p := fn.AddParameter(sp.RowsAffected, edm.KindInt32, edm.Out)
		if svc, err := provider.Lookup(b.model.ProviderInfo.Provider); err == nil {
			p.StoreType = svc.StoreType(edm.KindInt32, 0)
		}
		f.RowsAffected = p
	}
	return f, nil
}

// parameters returns the default parameters of the operation with the
// configured names applied. Inserts bind every column the store does not
// generate, updates every non-computed column and deletes the key. All
// operations bind independent foreign keys and concurrency tokens are
// checked against their original values on update and delete.
func (b *functionBuilder) parameters(sp StoredProcedure) ([]*binding, error) {
	var bs []*binding
	for _, pm := range b.esm.Properties {
		var include bool
		switch sp.Op {
		case OpInsert:
			include = !pm.Column.StoreGenerated.Generated()
		case OpUpdate:
			include = pm.Column.StoreGenerated != edm.StoreGeneratedComputed
		case OpDelete:
			include = b.entity.IsKey(pm.Property)
		}
		if include {
			bs = append(bs, &binding{path: pm.Property.Name, prop: pm.Property, col: pm.Column, current: true, name: pm.Column.Name})
		}
	}
	bs = append(bs, b.foreignKeys()...)
	if sp.Op != OpInsert {
		for _, pm := range b.esm.Properties {
			if pm.Property.ConcurrencyToken {
				bs = append(bs, original(&binding{path: pm.Property.Name, prop: pm.Property, col: pm.Column}))
			}
		}
	}
	for _, p := range sp.Parameters {
		cur := find(bs, p.Property, true)
		if cur == nil {
			prop, col, err := b.column(p.Property)
			if err != nil {
				return nil, err
			}
			cur = &binding{path: p.Property, prop: prop, col: col, current: true, name: col.Name}
			bs = append(bs, cur)
		}
		if p.Name != "" {
			cur.name = p.Name
		}
		if p.Original == "" {
			continue
		}
		orig := find(bs, p.Property, false)
		if orig == nil {
			orig = original(cur)
			bs = append(bs, orig)
		}
		orig.name = p.Original
	}
	return bs, nil
}

// results returns the default result bindings of the operation with the
// configured columns applied. Inserts read back every store generated
// column and updates every computed column.
func (b *functionBuilder) results(sp StoredProcedure) ([]*binding, error) {
	var bs []*binding
	for _, pm := range b.esm.Properties {
		g := pm.Column.StoreGenerated
		if sp.Op == OpInsert && g.Generated() || sp.Op == OpUpdate && g == edm.StoreGeneratedComputed {
			bs = append(bs, &binding{path: pm.Property.Name, prop: pm.Property, col: pm.Column, name: pm.Column.Name})
		}
	}
	for _, r := range sp.Results {
		rb := find(bs, r.Property, false)
		if rb == nil {
			prop, col, err := b.column(r.Property)
			if err != nil {
				return nil, err
			}
			rb = &binding{path: r.Property, prop: prop, col: col}
			bs = append(bs, rb)
		}
		rb.name = r.Column
	}
	return bs, nil
}

// foreignKeys returns the foreign key columns of the independent
// associations stored in the table of the entity type.
func (b *functionBuilder) foreignKeys() []*binding {
	var bs []*binding
	for _, asm := range b.model.Mapping.AssociationSetMappings() {
		a := asm.Association
		if asm.Table != b.esm.Table || a.Constraint != nil || a.IsManyToMany() {
			continue
		}
		principal := a.PrincipalEnd()
		em := endMapping(asm, principal)
		if em == nil {
			continue
		}
		prefix := ""
		for _, n := range b.entity.NavigationProperties() {
			if n.Association == a && n.ToEnd == principal {
				prefix = n.Name + "."
			}
		}
		for _, pm := range em.Properties {
			bs = append(bs, &binding{path: prefix + pm.Property.Name, prop: pm.Property, col: pm.Column, current: true, name: pm.Column.Name})
		}
	}
	return bs
}

// column resolves a property path to the conceptual property and the
// column it is stored in.
func (b *functionBuilder) column(path string) (*edm.Property, *edm.Property, error) {
	notFound := func(msg string) error {
		return edmx.NewModelError(b.entity.FullName(), fmt.Sprintf("property %q %s", path, msg), nil)
	}
	if prop, ok := b.entity.Property(path); ok {
		col, ok := b.esm.ColumnFor(path)
		if !ok || col == nil {
			return nil, nil, notFound("is not mapped to a column")
		}
		return prop, col, nil
	}
	nav, key, ok := strings.Cut(path, ".")
	if !ok {
		return nil, nil, notFound("was not found")
	}
	n, ok := b.entity.NavigationProperty(nav)
	if !ok || n.Collection {
		return nil, nil, notFound("does not name a reference navigation")
	}
	kp, ok := n.Target.Property(key)
	if !ok || !n.Target.IsKey(kp) {
		return nil, nil, notFound("does not name a key of the navigation target")
	}
	asm, ok := b.model.Mapping.AssociationSetMappingFor(n.Association)
	if !ok || asm.Table != b.esm.Table {
		return nil, nil, notFound("is not a foreign key of the table")
	}
	if em := endMapping(asm, n.ToEnd); em != nil {
		for _, pm := range em.Properties {
			if pm.Property == kp {
				return kp, pm.Column, nil
			}
		}
	}
	return nil, nil, notFound("is not a foreign key of the table")
}

func endMapping(asm *edm.AssociationSetMapping, e *edm.AssociationEndMember) *edm.EndMapping {
	for _, em := range []*edm.EndMapping{asm.SourceEnd, asm.TargetEnd} {
		if em != nil && em.End == e {
			return em
		}
	}
	return nil
}

func original(cur *binding) *binding {
	return &binding{path: cur.path, prop: cur.prop, col: cur.col, name: cur.col.Name + OriginalSuffix}
}

func find(bs []*binding, path string, current bool) *binding {
	for _, b := range bs {
		if b.path == path && b.current == current {
			return b
		}
	}
	return nil
}
