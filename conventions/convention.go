// Package conventions implements the ordered, replaceable conventions that
// infer model configuration absent explicit user input, and the pipeline
// that applies them to an EDM model.
package conventions

import (
	"context"
	"fmt"

	"github.com/syssam/edmx"
	"github.com/syssam/edmx/edm"
)

type (
	// Convention is a named rule applied by a Set. A convention implements
	// one or more of the capability interfaces below; the pipeline dispatches
	// each element of the model to the capabilities it implements.
	Convention interface {
		Name() string
	}

	// ModelConvention is applied once per model.
	ModelConvention interface {
		Convention
		ApplyModel(ctx context.Context, m *edm.DbModel) error
	}

	// EntityTypeConvention is applied to every entity type of a model.
	EntityTypeConvention interface {
		Convention
		ApplyEntityType(ctx context.Context, t *edm.EntityType, m *edm.EdmModel) error
	}

	// PropertyConvention is applied to every primitive property of every
	// entity type of a model.
	PropertyConvention interface {
		Convention
		ApplyProperty(ctx context.Context, p *edm.Property, m *edm.EdmModel) error
	}

	// AssociationTypeConvention is applied to every association type of a
	// model. Both ends of the association are populated when it is invoked.
	AssociationTypeConvention interface {
		Convention
		ApplyAssociationType(ctx context.Context, a *edm.AssociationType, m *edm.EdmModel) error
	}

	// SpaceConvention is implemented by conventions that apply to a data
	// space other than the conceptual one.
	SpaceConvention interface {
		Space() edm.DataSpace
	}
)

// SpaceOf returns the data space a convention applies to.
func SpaceOf(c Convention) edm.DataSpace {
	if s, ok := c.(SpaceConvention); ok {
		return s.Space()
	}
	return edm.CSpace
}

// Error wraps an error returned by a convention.
type Error struct {
	Convention string
	Err        error
}

// Error returns the error string.
func (e *Error) Error() string {
	return fmt.Sprintf("conventions: %s: %v", e.Convention, e.Err)
}

// Unwrap returns the convention error.
func (e *Error) Unwrap() error { return e.Err }

// Apply applies the conventions of the set registered for the given space
// to the model of that space, in order. Every convention is dispatched to the
// model, then to each entity type, each property and each association type.
// The first error stops the pipeline and is returned wrapped in an *Error.
func (s *Set) Apply(ctx context.Context, m *edm.DbModel, space edm.DataSpace) error {
	if m == nil {
		return edmx.Nil("model")
	}
	if err := m.CheckMutable("ApplyConventions"); err != nil {
		return err
	}
	em := m.Model(space)
	for _, c := range s.list() {
		if SpaceOf(c) != space {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := apply(ctx, c, m, em); err != nil {
			return &Error{Convention: c.Name(), Err: err}
		}
	}
	return nil
}

func apply(ctx context.Context, c Convention, m *edm.DbModel, em *edm.EdmModel) error {
	if mc, ok := c.(ModelConvention); ok {
		if err := mc.ApplyModel(ctx, m); err != nil {
			return err
		}
	}
	if ec, ok := c.(EntityTypeConvention); ok {
		for _, t := range em.EntityTypes() {
			if err := ec.ApplyEntityType(ctx, t, em); err != nil {
				return err
			}
		}
	}
	if pc, ok := c.(PropertyConvention); ok {
		for _, t := range em.EntityTypes() {
			for _, p := range t.Properties() {
				if err := pc.ApplyProperty(ctx, p, em); err != nil {
					return err
				}
			}
		}
	}
	if ac, ok := c.(AssociationTypeConvention); ok {
		// Copy, conventions may remove associations.
		for _, a := range append([]*edm.AssociationType(nil), em.AssociationTypes()...) {
			if err := a.Check(); err != nil {
				return err
			}
			if err := ac.ApplyAssociationType(ctx, a, em); err != nil {
				return err
			}
		}
	}
	return nil
}
