package provider

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/syssam/edmx"
	"github.com/syssam/edmx/dialect"
)

// ConnectionFactory opens database handles for a provider.
type ConnectionFactory interface {
	Open(ctx context.Context, providerName, dataSource string) (*sql.DB, error)
}

// ConnectionFactoryFunc is an adapter to allow the use of ordinary functions
// as connection factories.
type ConnectionFactoryFunc func(ctx context.Context, providerName, dataSource string) (*sql.DB, error)

// Open returns f(ctx, providerName, dataSource).
func (f ConnectionFactoryFunc) Open(ctx context.Context, providerName, dataSource string) (*sql.DB, error) {
	return f(ctx, providerName, dataSource)
}

// DriverConnectionFactory opens handles with database/sql using the drivers
// registered by this package: lib/pq, go-sql-driver/mysql and
// modernc.org/sqlite.
type DriverConnectionFactory struct {
	// Ping verifies the connection after opening it.
	Ping bool
}

// NewConnectionFactory returns the default connection factory.
func NewConnectionFactory() *DriverConnectionFactory {
	return &DriverConnectionFactory{}
}

// Open opens a handle for the data source. The handle is not connected
// unless Ping is set.
func (f *DriverConnectionFactory) Open(ctx context.Context, providerName, dataSource string) (*sql.DB, error) {
	name, err := dialect.Normalize(providerName)
	if err != nil {
		return nil, err
	}
	if err := edmx.CheckNotEmpty("dataSource", dataSource); err != nil {
		return nil, err
	}
	db, err := sql.Open(dialect.DriverName(name), dataSource)
	if err != nil {
		return nil, fmt.Errorf("provider: open %s: %w", name, err)
	}
	if f.Ping {
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("provider: ping %s: %w", name, err)
		}
	}
	return db, nil
}
