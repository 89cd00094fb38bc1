// Package sqlite implements the storage interfaces on an embedded SQLite
// database. Amounts are stored as integer cents and dates as ISO strings.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"spendsight/internal/core"
	"spendsight/internal/storage"
)

const dateLayout = "2006-01-02"

type Store struct {
	db *sql.DB
}

var _ storage.Store = (*Store)(nil)

// dsn builds the connection string. The foreign_keys pragma must travel in
// the DSN: database/sql pools connections, and a pragma set with Exec only
// reaches the one connection that ran it.
func dsn(dbPath string) string {
	return "file:" + dbPath + "?_pragma=foreign_keys(1)"
}

func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func toCents(d decimal.Decimal) int64 {
	return d.Shift(2).IntPart()
}

func fromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

func formatDate(t time.Time) string {
	return t.Format(dateLayout)
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// mapSQLiteError converts constraint failures to the shared error taxonomy.
func mapSQLiteError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return fmt.Errorf("%w: %v", core.ErrReferentialConflict, err)
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return core.Validationf("duplicate value: %v", err)
	}
	return err
}
