package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"spendsight/internal/core"
	"spendsight/internal/storage"
)

const accountColumns = "id, user_id, name, type, balance::text, created_at, updated_at"

func scanAccount(row pgx.Row) (core.Account, error) {
	var r accountRow
	if err := row.Scan(&r.id, &r.userID, &r.name, &r.typ, &r.balance, &r.createdAt, &r.updatedAt); err != nil {
		return core.Account{}, err
	}
	return r.toAccount()
}

func (s *Store) CreateAccount(ctx context.Context, params storage.CreateAccountParams) (core.Account, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO accounts (user_id, name, type, balance)
		VALUES ($1, $2, $3, $4)
		RETURNING `+accountColumns,
		params.UserID, params.Name, params.Type, params.InitialBalance.String())
	a, err := scanAccount(row)
	if err != nil {
		return core.Account{}, fmt.Errorf("create account: %w", mapPgError(err))
	}
	return a, nil
}

func (s *Store) GetAccount(ctx context.Context, id int64) (core.Account, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	a, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Account{}, core.NotFoundf("account", id)
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

func (s *Store) ListAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY id`)
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
	sets := []string{"updated_at = now()"}
	args := []any{id}
	if params.Name != nil {
		args = append(args, *params.Name)
		sets = append(sets, fmt.Sprintf("name = $%d", len(args)))
	}
	if params.Type != nil {
		args = append(args, *params.Type)
		sets = append(sets, fmt.Sprintf("type = $%d", len(args)))
	}
	if params.Balance != nil {
		args = append(args, params.Balance.StringFixed(2))
		sets = append(sets, fmt.Sprintf("balance = $%d", len(args)))
	}

	row := s.pool.QueryRow(ctx, `
		UPDATE accounts SET `+strings.Join(sets, ", ")+`
		WHERE id = $1
		RETURNING `+accountColumns, args...)
	a, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Account{}, core.NotFoundf("account", id)
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("update account: %w", err)
	}
	return a, nil
}

func (s *Store) DeleteAccount(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", mapPgError(err))
	}
	if tag.RowsAffected() == 0 {
		return core.NotFoundf("account", id)
	}
	return nil
}
