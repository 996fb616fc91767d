package builder

import (
	"fmt"
	"reflect"

	"github.com/syssam/edmx"
	"github.com/syssam/edmx/edm"
	"github.com/syssam/edmx/mapping"
)

// EntityConfiguration declares an entity type. Methods record their errors
// on the builder, where they are reported by Err and Build.
type EntityConfiguration struct {
	b      *Builder
	typ    *edm.EntityType
	table  string
	schema string
	keys   []string
	// navs are navigation fields discovered by reflection.
	navs  []*navField
	procs *mapping.ModificationStoredProcedures
}

// navField is a navigation property declared by a struct field.
type navField struct {
	name       string
	index      []int
	target     reflect.Type
	collection bool
	required   bool
	// claimed is set when an explicit relationship declares the field.
	claimed bool
}

// Name returns the entity type name.
func (e *EntityConfiguration) Name() string { return e.typ.Name }

// EntityType returns the conceptual entity type being declared.
func (e *EntityConfiguration) EntityType() *edm.EntityType { return e.typ }

// Property declares a primitive property, or returns the existing one.
func (e *EntityConfiguration) Property(name string, kind edm.PrimitiveKind) *PropertyConfiguration {
	pc := &PropertyConfiguration{e: e}
	if err := edmx.CheckNotEmpty("property", name); err != nil {
		e.b.fail(err)
		pc.p = edm.NewProperty(name, kind)
		return pc
	}
	if p, ok := e.typ.Property(name); ok {
		if p.Kind != kind {
			e.b.fail(edmx.NewModelError(e.typ.FullName(), fmt.Sprintf("property %q redeclared as %s, was %s", name, kind, p.Kind), nil))
		}
		pc.p = p
		return pc
	}
	if kind == edm.KindInvalid {
		e.b.fail(edmx.NewArgumentError("kind", fmt.Sprintf("invalid kind for property %q", name)))
	}
	pc.p = edm.NewProperty(name, kind)
	pc.p.Nullable = kind == edm.KindString || kind == edm.KindBinary
	if err := e.typ.AddProperty(pc.p); err != nil {
		e.b.fail(err)
	}
	return pc
}

// HasKey sets the key properties. The properties must be declared by the
// time the model is built.
func (e *EntityConfiguration) HasKey(names ...string) *EntityConfiguration {
	if len(names) == 0 {
		e.b.fail(edmx.Empty("names"))
		return e
	}
	for _, name := range names {
		if err := edmx.CheckNotEmpty("names", name); err != nil {
			e.b.fail(err)
			return e
		}
	}
	e.keys = names
	return e
}

// ToTable names the table of the entity type and optionally its schema.
func (e *EntityConfiguration) ToTable(name string, schema ...string) *EntityConfiguration {
	if err := edmx.CheckNotEmpty("table", name); err != nil {
		e.b.fail(err)
		return e
	}
	e.table = name
	if len(schema) > 0 {
		if err := edmx.CheckNotEmpty("schema", schema[0]); err != nil {
			e.b.fail(err)
			return e
		}
		e.schema = schema[0]
	}
	return e
}

// Ignore removes a declared property or a reflected navigation.
func (e *EntityConfiguration) Ignore(name string) *EntityConfiguration {
	if e.typ.RemoveProperty(name) {
		return e
	}
	for i, n := range e.navs {
		if n.name == name {
			e.navs = append(e.navs[:i], e.navs[i+1:]...)
			return e
		}
	}
	e.b.fail(edmx.NewModelError(e.typ.FullName(), fmt.Sprintf("member %q was not found", name), nil))
	return e
}

// MapToStoredProcedures maps insert, update and delete of the entity type
// to stored procedures. A nil fn maps them with the default configuration.
// Repeated calls configure the same procedures.
func (e *EntityConfiguration) MapToStoredProcedures(fn func(*mapping.ModificationStoredProcedures)) *EntityConfiguration {
	if e.procs == nil {
		procs, err := mapping.New(e.typ)
		if err != nil {
			e.b.fail(err)
			return e
		}
		e.procs = procs
	}
	if fn != nil {
		fn(e.procs)
	}
	return e
}

// HasRequired declares a reference navigation to a required target.
func (e *EntityConfiguration) HasRequired(nav, target string) *RelationshipConfiguration {
	return e.relationship("HasRequired", nav, target, edm.One, false)
}

// HasOptional declares a reference navigation to an optional target.
func (e *EntityConfiguration) HasOptional(nav, target string) *RelationshipConfiguration {
	return e.relationship("HasOptional", nav, target, edm.ZeroOrOne, false)
}

// HasMany declares a collection navigation.
func (e *EntityConfiguration) HasMany(nav, target string) *RelationshipConfiguration {
	return e.relationship("HasMany", nav, target, edm.Many, true)
}

func (e *EntityConfiguration) relationship(op, nav, target string, m edm.RelationshipMultiplicity, collection bool) *RelationshipConfiguration {
	r := &RelationshipConfiguration{b: e.b, op: op, source: e, nav: nav, target: target, targetMult: m, collection: collection}
	switch {
	case nav == "":
		e.b.fail(edmx.Empty("navigation"))
	case target == "":
		e.b.fail(edmx.Empty("target"))
	default:
		e.b.relationships = append(e.b.relationships, r)
	}
	return r
}

// err returns the first error recorded by the stored procedure builders.
func (e *EntityConfiguration) err() error {
	if e.procs == nil {
		return nil
	}
	return e.procs.Err()
}

// PropertyConfiguration configures a primitive property.
type PropertyConfiguration struct {
	e *EntityConfiguration
	p *edm.Property
}

// Property returns the configured property.
func (c *PropertyConfiguration) Property() *edm.Property { return c.p }

// IsRequired makes the property non-nullable.
func (c *PropertyConfiguration) IsRequired() *PropertyConfiguration {
	c.p.Nullable = false
	return c
}

// IsOptional makes the property nullable.
func (c *PropertyConfiguration) IsOptional() *PropertyConfiguration {
	c.p.Nullable = true
	return c
}

// HasMaxLength bounds the length of string and binary values.
func (c *PropertyConfiguration) HasMaxLength(n int) *PropertyConfiguration {
	switch {
	case n <= 0:
		c.e.b.fail(edmx.NewArgumentError("maxLength", fmt.Sprintf("must be positive, got %d", n)))
	case c.p.Kind != edm.KindString && c.p.Kind != edm.KindBinary:
		c.e.b.fail(edmx.NewModelError(c.e.typ.FullName(), fmt.Sprintf("max length on %s property %q", c.p.Kind, c.p.Name), nil))
	default:
		c.p.MaxLength = n
	}
	return c
}

// HasColumnName sets the store column name.
func (c *PropertyConfiguration) HasColumnName(name string) *PropertyConfiguration {
	if err := edmx.CheckNotEmpty("column", name); err != nil {
		c.e.b.fail(err)
		return c
	}
	c.p.ColumnName = name
	return c
}

// IsConcurrencyToken marks the property as a concurrency token.
func (c *PropertyConfiguration) IsConcurrencyToken() *PropertyConfiguration {
	c.p.ConcurrencyToken = true
	return c
}

// HasStoreGeneratedPattern sets how the store generates the value.
func (c *PropertyConfiguration) HasStoreGeneratedPattern(p edm.StoreGeneratedPattern) *PropertyConfiguration {
	c.p.StoreGenerated = p
	return c
}

// RelationshipConfiguration declares an association between two entity
// types. The declaring entity is the source end and the navigation target
// is the target end.
type RelationshipConfiguration struct {
	b          *Builder
	op         string
	source     *EntityConfiguration
	nav        string
	target     string
	targetMult edm.RelationshipMultiplicity
	collection bool
	// sourceMult is set by the With methods.
	sourceMult *edm.RelationshipMultiplicity
	inverse    string
	cascade    *bool
	foreignKey []string
	// association is created when the model is built.
	association *edm.AssociationType
}

// WithMany declares the source end as many. The inverse navigation is
// optional.
func (r *RelationshipConfiguration) WithMany(inverse string) *RelationshipConfiguration {
	return r.with(edm.Many, inverse)
}

// WithRequired declares the source end as required.
func (r *RelationshipConfiguration) WithRequired(inverse string) *RelationshipConfiguration {
	return r.with(edm.One, inverse)
}

// WithOptional declares the source end as optional.
func (r *RelationshipConfiguration) WithOptional(inverse string) *RelationshipConfiguration {
	return r.with(edm.ZeroOrOne, inverse)
}

func (r *RelationshipConfiguration) with(m edm.RelationshipMultiplicity, inverse string) *RelationshipConfiguration {
	if r.sourceMult != nil {
		r.b.fail(edmx.NewConfigError("Relationship", r.nav, "inverse end already configured"))
		return r
	}
	r.sourceMult = &m
	r.inverse = inverse
	return r
}

// WillCascadeOnDelete sets whether deleting the principal deletes its
// dependents. It overrides the conventions.
func (r *RelationshipConfiguration) WillCascadeOnDelete(cascade bool) *RelationshipConfiguration {
	r.cascade = &cascade
	return r
}

// HasForeignKey names the dependent properties holding the key of the
// principal end.
func (r *RelationshipConfiguration) HasForeignKey(props ...string) *RelationshipConfiguration {
	if len(props) == 0 {
		r.b.fail(edmx.Empty("foreignKey"))
		return r
	}
	for _, p := range props {
		if err := edmx.CheckNotEmpty("foreignKey", p); err != nil {
			r.b.fail(err)
			return r
		}
	}
	r.foreignKey = props
	return r
}
