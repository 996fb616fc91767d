package dialect

import (
	"slices"
	"strings"

	"github.com/syssam/edmx"
)

// Provider invariant names.
const (
	MySQL    = "mysql"
	SQLite   = "sqlite"
	Postgres = "postgres"
)

// All holds all known provider names in a fixed order.
var All = []string{Postgres, MySQL, SQLite}

// Valid reports whether name is a known provider name.
func Valid(name string) bool {
	return slices.Contains(All, name)
}

// Normalize maps a driver name to a known provider name. Driver names that
// are wrapped by instrumentation packages are matched by prefix.
func Normalize(name string) (string, error) {
	if name == "" {
		return "", edmx.Empty("provider")
	}
	for _, d := range All {
		if strings.HasPrefix(strings.ToLower(name), d) {
			return d, nil
		}
	}
	// database/sql driver name of modernc.org/sqlite and mattn/go-sqlite3.
	if name == "sqlite3" {
		return SQLite, nil
	}
	return "", edmx.NewConfigError("Provider", name, "unsupported provider; use postgres, mysql, or sqlite")
}

// DriverName returns the database/sql driver name registered for a provider.
func DriverName(provider string) string {
	return provider
}
