package mapping

import (
	"reflect"

	"github.com/syssam/edmx"
)

// InsertBuilder configures the insert procedure of an entity type.
type InsertBuilder struct{ p *procedure }

// HasName sets the procedure name.
func (b *InsertBuilder) HasName(name string) *InsertBuilder {
	b.p.hasName(name)
	return b
}

// HasSchema sets the procedure schema.
func (b *InsertBuilder) HasSchema(schema string) *InsertBuilder {
	b.p.hasSchema(schema)
	return b
}

// Parameter names the parameter bound to a property.
func (b *InsertBuilder) Parameter(property, name string) *InsertBuilder {
	if err := edmx.CheckNotEmpty("parameterName", name); err != nil {
		b.p.fail(err)
		return b
	}
	b.p.parameter(property, name, "")
	return b
}

// ParameterField names the parameter bound to the property reflected from
// f. A nil f is ignored.
func (b *InsertBuilder) ParameterField(f *reflect.StructField, name string) *InsertBuilder {
	if f == nil {
		return b
	}
	if prop, ok := b.p.field(f); ok {
		b.Parameter(prop, name)
	}
	return b
}

// Result binds a result column to a store generated property.
func (b *InsertBuilder) Result(property, column string) *InsertBuilder {
	b.p.result(property, column)
	return b
}

// ResultField binds a result column to the property reflected from f. A nil
// f is ignored.
func (b *InsertBuilder) ResultField(f *reflect.StructField, column string) *InsertBuilder {
	if f == nil {
		return b
	}
	if prop, ok := b.p.field(f); ok {
		b.p.result(prop, column)
	}
	return b
}

// RowsAffectedParameter adds an output parameter receiving the number of
// affected rows.
func (b *InsertBuilder) RowsAffectedParameter(name string) *InsertBuilder {
	b.p.rowsAffected(name)
	return b
}

// Err returns the configuration errors recorded so far.
func (b *InsertBuilder) Err() error { return b.p.err() }

// UpdateBuilder configures the update procedure of an entity type.
type UpdateBuilder struct{ p *procedure }

// HasName sets the procedure name.
func (b *UpdateBuilder) HasName(name string) *UpdateBuilder {
	b.p.hasName(name)
	return b
}

// HasSchema sets the procedure schema.
func (b *UpdateBuilder) HasSchema(schema string) *UpdateBuilder {
	b.p.hasSchema(schema)
	return b
}

// Parameter names the current value parameter bound to a property.
func (b *UpdateBuilder) Parameter(property, name string) *UpdateBuilder {
	if err := edmx.CheckNotEmpty("parameterName", name); err != nil {
		b.p.fail(err)
		return b
	}
	b.p.parameter(property, name, "")
	return b
}

// ParameterOriginal names both the current and the original value
// parameters bound to a property.
func (b *UpdateBuilder) ParameterOriginal(property, current, original string) *UpdateBuilder {
	if err := edmx.CheckNotEmpty("currentValueParameterName", current); err != nil {
		b.p.fail(err)
		return b
	}
	if err := edmx.CheckNotEmpty("originalValueParameterName", original); err != nil {
		b.p.fail(err)
		return b
	}
	b.p.parameter(property, current, original)
	return b
}

// ParameterField names the current value parameter bound to the property
// reflected from f. A nil f is ignored.
func (b *UpdateBuilder) ParameterField(f *reflect.StructField, name string) *UpdateBuilder {
	if f == nil {
		return b
	}
	if prop, ok := b.p.field(f); ok {
		b.Parameter(prop, name)
	}
	return b
}

// Result binds a result column to a computed property.
func (b *UpdateBuilder) Result(property, column string) *UpdateBuilder {
	b.p.result(property, column)
	return b
}

// ResultField binds a result column to the property reflected from f. A nil
// f is ignored.
func (b *UpdateBuilder) ResultField(f *reflect.StructField, column string) *UpdateBuilder {
	if f == nil {
		return b
	}
	if prop, ok := b.p.field(f); ok {
		b.p.result(prop, column)
	}
	return b
}

// RowsAffectedParameter adds an output parameter receiving the number of
// affected rows.
func (b *UpdateBuilder) RowsAffectedParameter(name string) *UpdateBuilder {
	b.p.rowsAffected(name)
	return b
}

// Err returns the configuration errors recorded so far.
func (b *UpdateBuilder) Err() error { return b.p.err() }

// DeleteBuilder configures the delete procedure of an entity type.
type DeleteBuilder struct{ p *procedure }

// HasName sets the procedure name.
func (b *DeleteBuilder) HasName(name string) *DeleteBuilder {
	b.p.hasName(name)
	return b
}

// HasSchema sets the procedure schema.
func (b *DeleteBuilder) HasSchema(schema string) *DeleteBuilder {
	b.p.hasSchema(schema)
	return b
}

// Parameter names the parameter bound to a property.
func (b *DeleteBuilder) Parameter(property, name string) *DeleteBuilder {
	if err := edmx.CheckNotEmpty("parameterName", name); err != nil {
		b.p.fail(err)
		return b
	}
	b.p.parameter(property, name, "")
	return b
}

// ParameterField names the parameter bound to the property reflected from
// f. A nil f is ignored.
func (b *DeleteBuilder) ParameterField(f *reflect.StructField, name string) *DeleteBuilder {
	if f == nil {
		return b
	}
	if prop, ok := b.p.field(f); ok {
		b.Parameter(prop, name)
	}
	return b
}

// RowsAffectedParameter adds an output parameter receiving the number of
// affected rows.
func (b *DeleteBuilder) RowsAffectedParameter(name string) *DeleteBuilder {
	b.p.rowsAffected(name)
	return b
}

// Err returns the configuration errors recorded so far.
func (b *DeleteBuilder) Err() error { return b.p.err() }
