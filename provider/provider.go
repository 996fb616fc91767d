// Package provider implements the store provider services consumed by the
// model builder: store type mapping, DDL generation, connection factories
// and manifest token resolution.
package provider

import (
	"context"
	"fmt"

	"ariga.io/atlas/sql/migrate"
	"ariga.io/atlas/sql/mysql"
	"ariga.io/atlas/sql/postgres"
	"ariga.io/atlas/sql/schema"
	"ariga.io/atlas/sql/sqlite"

	"github.com/syssam/edmx/dialect"
	"github.com/syssam/edmx/edm"
)

// Services are the services of one store provider.
type Services interface {
	// ProviderName returns the provider invariant name.
	ProviderName() string
	// DefaultSchema returns the schema used for tables without an
	// explicit schema.
	DefaultSchema() string
	// DefaultManifestToken returns the manifest token used when no
	// connection is available.
	DefaultManifestToken() string
	// StoreType returns the store type name for a primitive kind.
	StoreType(kind edm.PrimitiveKind, maxLength int) string
	// CreateDatabaseScript renders the DDL of the store model.
	CreateDatabaseScript(ctx context.Context, m *edm.DbModel) (string, error)
}

// Lookup returns the services of the named provider.
func Lookup(name string) (Services, error) {
	name, err := dialect.Normalize(name)
	if err != nil {
		return nil, err
	}
	switch name {
	case dialect.Postgres:
		return &atlasServices{
			name:          dialect.Postgres,
			schema:        "public",
			token:         "16",
			plan:          postgres.DefaultPlan,
			storeType:     postgresType,
			identity:      func(c *schema.Column) { c.AddAttrs(&postgres.Identity{Generation: "BY DEFAULT"}) },
			qualifySchema: true,
		}, nil
	case dialect.MySQL:
		return &atlasServices{
			name:      dialect.MySQL,
			token:     "8.0",
			plan:      mysql.DefaultPlan,
			storeType: mysqlType,
			identity:  func(c *schema.Column) { c.AddAttrs(&mysql.AutoIncrement{}) },
		}, nil
	case dialect.SQLite:
		return &atlasServices{
			name:      dialect.SQLite,
			schema:    "main",
			token:     "3",
			plan:      sqlite.DefaultPlan,
			storeType: sqliteType,
			identity:  func(c *schema.Column) { c.AddAttrs(&sqlite.AutoIncrement{}) },
		}, nil
	}
	return nil, fmt.Errorf("provider: no services for %q", name)
}

// versionQueries holds the server version query of each provider.
var versionQueries = map[string]string{
	dialect.Postgres: "SHOW server_version",
	dialect.MySQL:    "SELECT VERSION()",
	dialect.SQLite:   "SELECT sqlite_version()",
}

// atlasServices implements Services on top of the atlas planners.
type atlasServices struct {
	name          string
	schema        string
	token         string
	plan          migrate.PlanApplier
	storeType     func(edm.PrimitiveKind, int) string
	identity      func(*schema.Column)
	qualifySchema bool
}

func (s *atlasServices) ProviderName() string         { return s.name }
func (s *atlasServices) DefaultSchema() string        { return s.schema }
func (s *atlasServices) DefaultManifestToken() string { return s.token }

func (s *atlasServices) StoreType(kind edm.PrimitiveKind, maxLength int) string {
	return s.storeType(kind, maxLength)
}

func postgresType(kind edm.PrimitiveKind, maxLength int) string {
	switch kind {
	case edm.KindBool:
		return "boolean"
	case edm.KindInt32:
		return "integer"
	case edm.KindInt64:
		return "bigint"
	case edm.KindDecimal:
		return "numeric"
	case edm.KindFloat64:
		return "double precision"
	case edm.KindString:
		if maxLength > 0 {
			return "character varying"
		}
		return "text"
	case edm.KindDateTime:
		return "timestamp with time zone"
	case edm.KindGUID:
		return "uuid"
	case edm.KindBinary:
		return "bytea"
	}
	return ""
}

func mysqlType(kind edm.PrimitiveKind, maxLength int) string {
	switch kind {
	case edm.KindBool:
		return "bool"
	case edm.KindInt32:
		return "int"
	case edm.KindInt64:
		return "bigint"
	case edm.KindDecimal:
		return "decimal"
	case edm.KindFloat64:
		return "double"
	case edm.KindString:
		if maxLength > 0 {
			return "varchar"
		}
		return "longtext"
	case edm.KindDateTime:
		return "timestamp"
	case edm.KindGUID:
		return "char"
	case edm.KindBinary:
		if maxLength > 0 {
			return "varbinary"
		}
		return "longblob"
	}
	return ""
}

func sqliteType(kind edm.PrimitiveKind, _ int) string {
	switch kind {
	case edm.KindBool:
		return "bool"
	case edm.KindInt32, edm.KindInt64:
		return "integer"
	case edm.KindDecimal:
		return "decimal"
	case edm.KindFloat64:
		return "real"
	case edm.KindString:
		return "text"
	case edm.KindDateTime:
		return "datetime"
	case edm.KindGUID:
		return "uuid"
	case edm.KindBinary:
		return "blob"
	}
	return ""
}
