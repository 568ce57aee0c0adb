// Package dbx holds the small database/sql abstractions the repositories
// share: the DBTX handle interface, a transaction helper, and a Provider
// that scopes a connection to a single unit of work.
package dbx

import (
	"context"
	"database/sql"

	"github.com/geocoder89/authcore/internal/apperr"
)

// DBTX is the subset of database/sql used by the repos.
// *sql.DB, *sql.Conn and *sql.Tx all satisfy it.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type beginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// WithTx begins a transaction, runs fn with it, and commits on success or
// rolls back on error/panic. Panics are rethrown.
func WithTx(ctx context.Context, db beginner, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(ctx, tx)
	return err
}

// Provider hands out one connection per unit of work. The connection is
// returned to the pool when fn returns, whatever the outcome.
type Provider struct {
	db *sql.DB
}

func NewProvider(db *sql.DB) *Provider {
	return &Provider{db: db}
}

func (p *Provider) DB() *sql.DB {
	return p.db
}

// Session runs fn on a dedicated connection.
func (p *Provider) Session(ctx context.Context, fn func(ctx context.Context, db DBTX) error) error {
	conn, err := p.db.Conn(ctx)
	if err != nil {
		return apperr.New("dbx.session", apperr.ErrStorageUnavailable, err)
	}
	defer conn.Close()

	return fn(ctx, conn)
}

// Tx runs fn inside a transaction on a dedicated connection.
func (p *Provider) Tx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error {
	conn, err := p.db.Conn(ctx)
	if err != nil {
		return apperr.New("dbx.tx", apperr.ErrStorageUnavailable, err)
	}
	defer conn.Close()

	err = WithTx(ctx, conn, nil, fn)
	if err != nil && apperr.KindOf(err) == nil {
		return apperr.New("dbx.tx", apperr.ErrStorageUnavailable, err)
	}
	return err
}

// Ping reports whether the database is reachable.
func (p *Provider) Ping(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return apperr.New("dbx.ping", apperr.ErrStorageUnavailable, err)
	}
	return nil
}
