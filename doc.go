// Package edmx is the model-building core of an object-relational mapper.
//
// It turns entity declarations into an Entity Data Model (EDM): a conceptual
// model, a store model and the mapping between them. Relationship semantics
// such as multiplicities and cascade-delete behavior are inferred by an
// ordered, replaceable set of conventions.
//
// # Packages
//
//   - edm: the model graph (entity types, associations, models, mapping)
//   - conventions: convention interfaces, the ordered convention set and the
//     built-in conventions
//   - builder: the model builder that runs the whole pipeline
//   - resolver: the dependency resolver chain supplying pluggable services
//   - mapping: stored-procedure mapping configuration
//   - provider: connection factory, manifest tokens and DDL generation
//   - interception: command interception hooks
//   - load: YAML model declarations
//   - modelstore: persisted model snapshots
//   - gen: Go constants for the names of the store model
//
// The edmx command in cmd/edmx wraps load, provider and gen.
//
// # Usage
//
//	b, err := builder.New(builder.WithNamespace("Blogging"))
//	if err != nil {
//	    return err
//	}
//	builder.EntityOf[Blog](b)
//	builder.EntityOf[Post](b)
//	model, err := b.Build(ctx, dialect.Postgres)
//	if err != nil {
//	    return err
//	}
//
// # Errors
//
// All packages report failures with the typed errors of this package:
// ArgumentError, LockedError, ModelError and ConfigError. Each matches its
// sentinel with errors.Is:
//
//	if errors.Is(err, edmx.ErrLocked) {
//	    // mutation after lock
//	}
package edmx
