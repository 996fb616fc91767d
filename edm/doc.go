// Package edm provides the in-memory Entity Data Model graph.
//
// A DbModel aggregates two EdmModel instances, one per DataSpace, and the
// mapping between them:
//
//	DbModel
//	├── Conceptual (CSpace): entity types, navigation properties, associations
//	├── Store (SSpace): tables, columns, foreign keys, stored procedures
//	└── Mapping: entity set, association set and modification function mappings
//
// The graph is built incrementally by the model builder, mutated in place by
// conventions during a single pipeline pass, then frozen. A frozen model is
// read-only and safe to share between goroutines; attempts to add elements to
// it return an edmx.LockedError.
//
// # Associations
//
// An AssociationType has a source and a target AssociationEndMember. Each end
// references exactly one EntityType and carries a multiplicity and a delete
// behavior:
//
//	a := edm.NewAssociationType("Blog_Posts",
//	    edm.NewEnd("Blog", blog, edm.One),
//	    edm.NewEnd("Post", post, edm.Many),
//	)
//	a.IsRequiredToMany() // true
//
// # Validation
//
// Validate reports structural errors (missing keys, dangling ends, unmapped
// columns) and warnings (cascade cycles) of a DbModel.
package edm
