// Package postgres implements the storage interfaces on PostgreSQL using
// pgx. Ledger operations run inside transactions with row-level locks so
// account balances never drift from the transaction history.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"spendsight/internal/core"
	"spendsight/internal/storage"
)

const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
)

type Store struct {
	pool *pgxpool.Pool
}

var _ storage.Store = (*Store)(nil)

func New(ctx context.Context, databaseURL string) (*Store, error) {
	if err := RunMigrations(databaseURL); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// withTx runs fn inside a transaction, rolling back on error.
func (s *Store) withTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func scanDecimal(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("scan decimal %q: %w", s, err)
	}
	return d, nil
}

// mapPgError converts constraint violations to the shared error taxonomy.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgForeignKeyViolation:
			return fmt.Errorf("%w: %s", core.ErrReferentialConflict, pgErr.ConstraintName)
		case pgUniqueViolation:
			return core.Validationf("duplicate value for %s", pgErr.ConstraintName)
		}
	}
	return err
}

type accountRow struct {
	id        int64
	userID    int64
	name      string
	typ       string
	balance   string
	createdAt time.Time
	updatedAt time.Time
}

func (r accountRow) toAccount() (core.Account, error) {
	balance, err := scanDecimal(r.balance)
	if err != nil {
		return core.Account{}, err
	}
	return core.Account{
		ID:        r.id,
		UserID:    r.userID,
		Name:      r.name,
		Type:      r.typ,
		Balance:   balance,
		CreatedAt: r.createdAt,
		UpdatedAt: r.updatedAt,
	}, nil
}
