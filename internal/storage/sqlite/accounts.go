package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"spendsight/internal/core"
	"spendsight/internal/storage"
)

const accountColumns = "id, user_id, name, type, balance_cents, created_at, updated_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (core.Account, error) {
	var (
		a                    core.Account
		cents                int64
		createdAt, updatedAt time.Time
	)
	if err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.Type, &cents, &createdAt, &updatedAt); err != nil {
		return core.Account{}, err
	}
	a.Balance = fromCents(cents)
	a.CreatedAt = createdAt
	a.UpdatedAt = updatedAt
	return a, nil
}

func (s *Store) CreateAccount(ctx context.Context, params storage.CreateAccountParams) (core.Account, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO accounts (user_id, name, type, balance_cents)
		VALUES (?, ?, ?, ?)
		RETURNING `+accountColumns,
		params.UserID, params.Name, params.Type, toCents(params.InitialBalance))
	a, err := scanAccount(row)
	if err != nil {
		return core.Account{}, fmt.Errorf("create account: %w", mapSQLiteError(err))
	}
	return a, nil
}

func (s *Store) GetAccount(ctx context.Context, id int64) (core.Account, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, core.NotFoundf("account", id)
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

func (s *Store) ListAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) UpdateAccount(ctx context.Context, id int64, params storage.UpdateAccountParams) (core.Account, error) {
	sets := []string{"updated_at = datetime('now')"}
	var args []any
	if params.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *params.Name)
	}
	if params.Type != nil {
		sets = append(sets, "type = ?")
		args = append(args, *params.Type)
	}
	if params.Balance != nil {
		sets = append(sets, "balance_cents = ?")
		args = append(args, toCents(*params.Balance))
	}
	args = append(args, id)

	row := s.db.QueryRowContext(ctx, `
		UPDATE accounts SET `+strings.Join(sets, ", ")+`
		WHERE id = ?
		RETURNING `+accountColumns, args...)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, core.NotFoundf("account", id)
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("update account: %w", err)
	}
	return a, nil
}

func (s *Store) DeleteAccount(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", mapSQLiteError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if n == 0 {
		return core.NotFoundf("account", id)
	}
	return nil
}
