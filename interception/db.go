package interception

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/syssam/edmx"
	"github.com/syssam/edmx/resolver"
)

// ExecQuerier wraps the standard Exec and Query methods.
type ExecQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// DB is an ExecQuerier that reports its commands to interceptors.
type DB struct {
	eq           ExecQuerier
	interceptors []Interceptor
}

// New wraps eq with the interceptors supplied by r. Interceptors are
// resolved once, keyed by key.
//
//	cfg.AddDependencyResolver(resolver.Singleton[interception.Interceptor](stats, nil), false)
//	db, err := interception.New(sqlDB, cfg, "postgres")
func New(eq ExecQuerier, r resolver.Resolver, key any) (*DB, error) {
	if eq == nil {
		return nil, edmx.Nil("eq")
	}
	if r == nil {
		return nil, edmx.Nil("resolver")
	}
	return &DB{eq: eq, interceptors: resolver.GetAll[Interceptor](r, key)}, nil
}

// Wrap wraps eq with the given interceptors.
func Wrap(eq ExecQuerier, interceptors ...Interceptor) *DB {
	return &DB{eq: eq, interceptors: interceptors}
}

// Interceptors returns the interceptors of the DB in dispatch order.
func (d *DB) Interceptors() []Interceptor { return d.interceptors }

// ExecContext executes a statement.
func (d *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	cmd := d.executing(ctx, Exec, query, args)
	res, err := d.eq.ExecContext(ctx, query, args...)
	d.executed(ctx, cmd, err)
	return res, err
}

// QueryContext executes a query.
func (d *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	cmd := d.executing(ctx, Query, query, args)
	rows, err := d.eq.QueryContext(ctx, query, args...)
	d.executed(ctx, cmd, err)
	return rows, err
}

// BeginTx starts a transaction whose commands are reported to the same
// interceptors. The wrapped ExecQuerier must be a *sql.DB.
func (d *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*Tx, error) {
	db, ok := d.eq.(*sql.DB)
	if !ok {
		return nil, fmt.Errorf("interception: begin transaction on %T", d.eq)
	}
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Tx{DB: &DB{eq: tx, interceptors: d.interceptors}, tx: tx}, nil
}

func (d *DB) executing(ctx context.Context, kind Kind, query string, args []any) *Command {
	cmd := &Command{ID: uuid.New(), Kind: kind, Text: query, Args: args, Start: time.Now()}
	for _, i := range d.interceptors {
		i.Executing(ctx, cmd)
	}
	return cmd
}

func (d *DB) executed(ctx context.Context, cmd *Command, err error) {
	cmd.Duration = time.Since(cmd.Start)
	cmd.Outcome = outcome(err)
	cmd.Err = err
	for _, i := range d.interceptors {
		i.Executed(ctx, cmd)
	}
}

// Tx is a transaction that reports its commands to interceptors.
type Tx struct {
	*DB
	tx *sql.Tx
}

// Commit commits the transaction.
func (t *Tx) Commit() error { return t.tx.Commit() }

// Rollback aborts the transaction.
func (t *Tx) Rollback() error { return t.tx.Rollback() }

var (
	_ ExecQuerier = (*DB)(nil)
	_ ExecQuerier = (*Tx)(nil)
)
