package edm

// Snapshot is a serializable summary of a DbModel.
type Snapshot struct {
	Name          string              `yaml:"name,omitempty" msgpack:"name"`
	Provider      string              `yaml:"provider" msgpack:"provider"`
	ManifestToken string              `yaml:"manifestToken,omitempty" msgpack:"manifest_token"`
	Entities      []EntitySnapshot    `yaml:"entities" msgpack:"entities"`
	Associations  []AssocSnapshot     `yaml:"associations,omitempty" msgpack:"associations"`
	Tables        []TableSnapshot     `yaml:"tables" msgpack:"tables"`
	Procedures    []ProcedureSnapshot `yaml:"procedures,omitempty" msgpack:"procedures"`
}

// EntitySnapshot describes a conceptual entity type.
type EntitySnapshot struct {
	Name        string             `yaml:"name" msgpack:"name"`
	Set         string             `yaml:"set" msgpack:"set"`
	Key         []string           `yaml:"key" msgpack:"key"`
	Properties  []PropertySnapshot `yaml:"properties" msgpack:"properties"`
	Navigations []string           `yaml:"navigations,omitempty" msgpack:"navigations"`
}

// PropertySnapshot describes a property or a column.
type PropertySnapshot struct {
	Name           string `yaml:"name" msgpack:"name"`
	Kind           string `yaml:"kind" msgpack:"kind"`
	Nullable       bool   `yaml:"nullable,omitempty" msgpack:"nullable"`
	MaxLength      int    `yaml:"maxLength,omitempty" msgpack:"max_length"`
	StoreGenerated string `yaml:"storeGenerated,omitempty" msgpack:"store_generated"`
	StoreType      string `yaml:"storeType,omitempty" msgpack:"store_type"`
}

// EndSnapshot describes an association end.
type EndSnapshot struct {
	Role         string `yaml:"role" msgpack:"role"`
	Type         string `yaml:"type" msgpack:"type"`
	Multiplicity string `yaml:"multiplicity" msgpack:"multiplicity"`
	OnDelete     string `yaml:"onDelete" msgpack:"on_delete"`
}

// AssocSnapshot describes an association type.
type AssocSnapshot struct {
	Name   string      `yaml:"name" msgpack:"name"`
	Source EndSnapshot `yaml:"source" msgpack:"source"`
	Target EndSnapshot `yaml:"target" msgpack:"target"`
}

// ForeignKeySnapshot describes a store foreign key.
type ForeignKeySnapshot struct {
	Name       string   `yaml:"name" msgpack:"name"`
	Columns    []string `yaml:"columns" msgpack:"columns"`
	RefTable   string   `yaml:"refTable" msgpack:"ref_table"`
	RefColumns []string `yaml:"refColumns" msgpack:"ref_columns"`
	OnDelete   string   `yaml:"onDelete" msgpack:"on_delete"`
}

// TableSnapshot describes a store table.
type TableSnapshot struct {
	Name        string               `yaml:"name" msgpack:"name"`
	Schema      string               `yaml:"schema,omitempty" msgpack:"schema"`
	Entity      string               `yaml:"entity" msgpack:"entity"`
	PrimaryKey  []string             `yaml:"primaryKey" msgpack:"primary_key"`
	Columns     []PropertySnapshot   `yaml:"columns" msgpack:"columns"`
	ForeignKeys []ForeignKeySnapshot `yaml:"foreignKeys,omitempty" msgpack:"foreign_keys"`
}

// ProcedureSnapshot describes a stored procedure and the operation it maps.
type ProcedureSnapshot struct {
	Entity       string   `yaml:"entity" msgpack:"entity"`
	Operation    string   `yaml:"operation" msgpack:"operation"`
	Name         string   `yaml:"name" msgpack:"name"`
	Schema       string   `yaml:"schema,omitempty" msgpack:"schema"`
	Parameters   []string `yaml:"parameters" msgpack:"parameters"`
	Results      []string `yaml:"results,omitempty" msgpack:"results"`
	RowsAffected string   `yaml:"rowsAffected,omitempty" msgpack:"rows_affected"`
}

// Snapshot returns a serializable summary of the model.
func (m *DbModel) Snapshot(name string) *Snapshot {
	s := &Snapshot{
		Name:          name,
		Provider:      m.ProviderInfo.Provider,
		ManifestToken: m.ProviderInfo.ManifestToken,
	}
	for _, t := range m.Conceptual.entityTypes {
		es := EntitySnapshot{Name: t.Name, Key: t.KeyNames()}
		if set, ok := m.Conceptual.EntitySetFor(t); ok {
			es.Set = set.Name
		}
		for _, p := range t.properties {
			es.Properties = append(es.Properties, propertySnapshot(p))
		}
		for _, n := range t.navigations {
			es.Navigations = append(es.Navigations, n.Name)
		}
		s.Entities = append(s.Entities, es)
	}
	for _, a := range m.Conceptual.associations {
		if a.Check() != nil {
			continue
		}
		s.Associations = append(s.Associations, AssocSnapshot{
			Name:   a.Name,
			Source: endSnapshot(a.SourceEnd),
			Target: endSnapshot(a.TargetEnd),
		})
	}
	for _, set := range m.Store.entitySets {
		t := set.ElementType
		ts := TableSnapshot{Name: set.Table, Schema: set.Schema, PrimaryKey: t.KeyNames()}
		for _, esm := range m.Mapping.entitySets {
			if esm.Table == set {
				ts.Entity = esm.EntitySet.ElementType.Name
			}
		}
		for _, p := range t.properties {
			ts.Columns = append(ts.Columns, propertySnapshot(p))
		}
		for _, a := range m.Store.associations {
			if fk, ok := foreignKeySnapshot(m.Store, a, t); ok {
				ts.ForeignKeys = append(ts.ForeignKeys, fk)
			}
		}
		s.Tables = append(s.Tables, ts)
	}
	for _, fm := range m.Mapping.functions {
		for _, op := range []struct {
			name string
			fm   *FunctionMapping
		}{{"Insert", fm.Insert}, {"Update", fm.Update}, {"Delete", fm.Delete}} {
			if op.fm == nil {
				continue
			}
			ps := ProcedureSnapshot{
				Entity:    fm.EntityType.Name,
				Operation: op.name,
				Name:      op.fm.Function.Name,
				Schema:    op.fm.Function.Schema,
			}
			for _, p := range op.fm.Function.Parameters {
				ps.Parameters = append(ps.Parameters, p.Name)
			}
			for _, rb := range op.fm.ResultBindings {
				ps.Results = append(ps.Results, rb.Column)
			}
			if op.fm.RowsAffected != nil {
				ps.RowsAffected = op.fm.RowsAffected.Name
			}
			s.Procedures = append(s.Procedures, ps)
		}
	}
	return s
}

func propertySnapshot(p *Property) PropertySnapshot {
	ps := PropertySnapshot{
		Name:      p.Name,
		Kind:      p.Kind.String(),
		Nullable:  p.Nullable,
		MaxLength: p.MaxLength,
		StoreType: p.StoreType,
	}
	if p.StoreGenerated.Generated() {
		ps.StoreGenerated = p.StoreGenerated.String()
	}
	return ps
}

func endSnapshot(e *AssociationEndMember) EndSnapshot {
	return EndSnapshot{
		Role:         e.Name,
		Type:         e.EntityType.Name,
		Multiplicity: e.Multiplicity.String(),
		OnDelete:     e.DeleteBehavior.String(),
	}
}

// foreignKeySnapshot describes the store association a as a foreign key of
// table t, if t is its dependent end.
func foreignKeySnapshot(store *EdmModel, a *AssociationType, t *EntityType) (ForeignKeySnapshot, bool) {
	c := a.Constraint
	if c == nil || c.Dependent == nil || c.Dependent.EntityType != t || c.Principal == nil {
		return ForeignKeySnapshot{}, false
	}
	fk := ForeignKeySnapshot{
		Name:       a.Name,
		RefColumns: c.Principal.EntityType.KeyNames(),
		OnDelete:   c.Principal.DeleteBehavior.String(),
	}
	if set, ok := store.EntitySetFor(c.Principal.EntityType); ok {
		fk.RefTable = set.Table
	}
	for _, p := range c.DependentProperties {
		fk.Columns = append(fk.Columns, p.Name)
	}
	return fk, true
}
