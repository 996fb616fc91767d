// Package dialect names the database providers known to edmx.
//
// A provider is identified by its invariant name. The name keys provider
// services in the dependency resolver and selects the DDL backend:
//
//	dialect.Postgres = "postgres"
//	dialect.MySQL    = "mysql"
//	dialect.SQLite   = "sqlite"
//
// Driver names wrapped by telemetry or instrumentation packages are
// normalized by prefix, so "postgres-otel" resolves to Postgres:
//
//	name, err := dialect.Normalize("postgres-otel")
package dialect
