package builder

import (
	"fmt"

	"github.com/syssam/edmx"
	"github.com/syssam/edmx/edm"
	"github.com/syssam/edmx/pluralization"
)

// conceptual adds the declared entity types, their sets and their
// associations to the conceptual model of m.
func (b *Builder) conceptual(m *edm.DbModel, plural pluralization.Service) error {
	cm := m.Conceptual
	for _, e := range b.entities {
		if len(e.keys) > 0 {
			if err := e.typ.SetKey(e.keys...); err != nil {
				return err
			}
			for _, k := range e.typ.Key() {
				k.Nullable = false
			}
		}
		if err := cm.AddEntityType(e.typ); err != nil {
			return err
		}
		if err := cm.AddEntitySet(&edm.EntitySet{Name: plural.Pluralize(e.typ.Name), ElementType: e.typ}); err != nil {
			return err
		}
	}
	for _, r := range b.relationships {
		if err := b.relationship(cm, r); err != nil {
			return err
		}
	}
	for _, e := range b.entities {
		for _, n := range e.navs {
			if n.claimed {
				continue
			}
			if err := b.navigation(cm, e, n); err != nil {
				return err
			}
		}
	}
	return nil
}

// relationship adds the association declared by r.
func (b *Builder) relationship(cm *edm.EdmModel, r *RelationshipConfiguration) error {
	source := r.source.typ
	target, ok := b.byName[r.target]
	if !ok {
		return edmx.NewModelError(source.FullName(), fmt.Sprintf("%s(%q): unknown entity type %q", r.op, r.nav, r.target), nil)
	}
	sm := edm.Many
	if r.collection {
		sm = edm.ZeroOrOne
	}
	if r.sourceMult != nil {
		sm = *r.sourceMult
	}
	name := source.Name + "_" + r.nav
	a := edm.NewAssociationType(name, edm.NewEnd(name+"_Source", source, sm), edm.NewEnd(name+"_Target", target.typ, r.targetMult))
	a.Configured = true
	if err := cm.AddAssociationType(a); err != nil {
		return err
	}
	fwd := &edm.NavigationProperty{
		Name:        r.nav,
		Association: a,
		FromEnd:     a.SourceEnd,
		ToEnd:       a.TargetEnd,
		Target:      target.typ,
		Collection:  r.collection,
		Required:    r.targetMult == edm.One,
	}
	if err := r.source.claim(fwd); err != nil {
		return err
	}
	if r.inverse != "" {
		inv := &edm.NavigationProperty{
			Name:        r.inverse,
			Association: a,
			FromEnd:     a.TargetEnd,
			ToEnd:       a.SourceEnd,
			Target:      source,
			Collection:  sm == edm.Many,
			Required:    sm == edm.One,
		}
		if err := target.claim(inv); err != nil {
			return err
		}
	}
	if len(r.foreignKey) > 0 {
		if a.IsManyToMany() {
			return edmx.NewModelError(a.FullName(), "many-to-many association cannot have a foreign key", nil)
		}
		principal := a.PrincipalEnd()
		dependent := a.OtherEnd(principal)
		c := &edm.ReferentialConstraint{Principal: principal, Dependent: dependent}
		for _, name := range r.foreignKey {
			p, ok := dependent.EntityType.Property(name)
			if !ok {
				return edmx.NewModelError(a.FullName(), fmt.Sprintf("foreign key property %q was not found on %q", name, dependent.EntityType.Name), nil)
			}
			if principal.IsRequired() {
				p.Nullable = false
			}
			c.DependentProperties = append(c.DependentProperties, p)
		}
		a.Constraint = c
	}
	r.association = a
	return nil
}

// navigation adds a unidirectional association for a reflected navigation
// field. Inverse navigations are paired by the conventions.
func (b *Builder) navigation(cm *edm.EdmModel, e *EntityConfiguration, n *navField) error {
	target, ok := b.byType[n.target]
	if !ok {
		return edmx.NewModelError(e.typ.FullName(), fmt.Sprintf("navigation %q targets undeclared type %s", n.name, n.target), nil)
	}
	sm, tm := edm.Many, edm.ZeroOrOne
	if n.collection {
		sm, tm = edm.ZeroOrOne, edm.Many
	}
	name := e.typ.Name + "_" + n.name
	a := edm.NewAssociationType(name, edm.NewEnd(name+"_Source", e.typ, sm), edm.NewEnd(name+"_Target", target.typ, tm))
	if err := cm.AddAssociationType(a); err != nil {
		return err
	}
	return e.typ.AddNavigationProperty(&edm.NavigationProperty{
		Name:        n.name,
		Association: a,
		FromEnd:     a.SourceEnd,
		ToEnd:       a.TargetEnd,
		Target:      target.typ,
		Collection:  n.collection,
		Required:    n.required,
		Index:       n.index,
	})
}

// claim adds an explicitly declared navigation, taking over the reflected
// field of the same name.
func (e *EntityConfiguration) claim(nav *edm.NavigationProperty) error {
	for _, n := range e.navs {
		if n.name != nav.Name {
			continue
		}
		if n.claimed {
			return edmx.NewModelError(e.typ.FullName(), fmt.Sprintf("navigation %q declared by two relationships", nav.Name), nil)
		}
		if n.collection != nav.Collection || n.target != nav.Target.GoType {
			return edmx.NewModelError(e.typ.FullName(), fmt.Sprintf("navigation %q does not match its field", nav.Name), nil)
		}
		n.claimed = true
		nav.Index = n.index
		nav.Required = nav.Required || n.required
	}
	return e.typ.AddNavigationProperty(nav)
}

// configure applies the explicit relationship configuration that takes
// precedence over the conventions.
func (b *Builder) configure(m *edm.DbModel) error {
	for _, r := range b.relationships {
		a := r.association
		if c := a.Constraint; c != nil {
			keys := c.Principal.EntityType.Key()
			if len(keys) != len(c.DependentProperties) {
				return edmx.NewModelError(a.FullName(), fmt.Sprintf("foreign key has %d properties, the key of %q has %d", len(c.DependentProperties), c.Principal.EntityType.Name, len(keys)), nil)
			}
			for i, p := range c.DependentProperties {
				if p.Kind != keys[i].Kind {
					return edmx.NewModelError(a.FullName(), fmt.Sprintf("foreign key property %q is %s, key %q is %s", p.Name, p.Kind, keys[i].Name, keys[i].Kind), nil)
				}
			}
		}
		if r.cascade == nil {
			continue
		}
		if a.IsManyToMany() {
			return edmx.NewModelError(a.FullName(), "cascade delete of a many-to-many association is configured by the link table", nil)
		}
		principal := a.PrincipalEnd()
		principal.DeleteBehavior = edm.None
		if *r.cascade {
			principal.DeleteBehavior = edm.Cascade
		}
		a.OtherEnd(principal).DeleteBehavior = edm.None
	}
	return nil
}
