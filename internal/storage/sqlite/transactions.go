package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"spendsight/internal/core"
	"spendsight/internal/storage"
)

func tableFor(kind core.TransactionKind) string {
	if kind == core.KindExpense {
		return "expenses"
	}
	return "incomes"
}

func transactionQuery(table string) string {
	return `SELECT t.id, t.user_id, t.account_id, t.category_id, t.amount_cents,
		t.description, t.date, t.created_at, t.updated_at, a.name, c.name
		FROM ` + table + ` t
		JOIN accounts a ON a.id = t.account_id
		JOIN categories c ON c.id = t.category_id`
}

func scanTransaction(row rowScanner, kind core.TransactionKind) (core.Transaction, error) {
	var (
		t     core.Transaction
		cents int64
		date  string
	)
	err := row.Scan(&t.ID, &t.UserID, &t.AccountID, &t.CategoryID, &cents,
		&t.Description, &date, &t.CreatedAt, &t.UpdatedAt, &t.AccountName, &t.CategoryName)
	if err != nil {
		return core.Transaction{}, err
	}
	t.Kind = kind
	t.Amount = fromCents(cents)
	t.Date, err = parseDate(date)
	return t, err
}

func (s *Store) GetTransaction(ctx context.Context, kind core.TransactionKind, id int64) (core.Transaction, error) {
	row := s.db.QueryRowContext(ctx, transactionQuery(tableFor(kind))+` WHERE t.id = ?`, id)
	t, err := scanTransaction(row, kind)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.NotFoundf(kind.String(), id)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get %s: %w", kind, err)
	}
	return t, nil
}

func (s *Store) ListTransactions(ctx context.Context, kind core.TransactionKind, filter storage.TransactionFilter) ([]core.Transaction, error) {
	query := transactionQuery(tableFor(kind))
	var (
		conds []string
		args  []any
	)
	if filter.AccountID != 0 {
		conds = append(conds, "t.account_id = ?")
		args = append(args, filter.AccountID)
	}
	if filter.CategoryID != 0 {
		conds = append(conds, "t.category_id = ?")
		args = append(args, filter.CategoryID)
	}
	if !filter.From.IsZero() {
		conds = append(conds, "t.date >= ?")
		args = append(args, formatDate(filter.From))
	}
	if !filter.To.IsZero() {
		conds = append(conds, "t.date <= ?")
		args = append(args, formatDate(filter.To))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY t.date DESC, t.id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", tableFor(kind), err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows, kind)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", kind, err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func checkAccountExists(ctx context.Context, tx *sql.Tx, id int64) error {
	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE id = ?)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check account: %w", err)
	}
	if !exists {
		return core.NotFoundf("account", id)
	}
	return nil
}

func checkCategoryKind(ctx context.Context, tx *sql.Tx, categoryID int64, kind core.TransactionKind) error {
	var got string
	err := tx.QueryRowContext(ctx, `SELECT kind FROM categories WHERE id = ?`, categoryID).Scan(&got)
	if errors.Is(err, sql.ErrNoRows) {
		return core.NotFoundf("category", categoryID)
	}
	if err != nil {
		return fmt.Errorf("get category kind: %w", err)
	}
	if got != kind.String() {
		return core.Validationf("category %d is not an %s category", categoryID, kind)
	}
	return nil
}

func applyBalance(ctx context.Context, tx *sql.Tx, accountID int64, deltaCents int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE accounts SET balance_cents = balance_cents + ?, updated_at = datetime('now')
		WHERE id = ?`, deltaCents, accountID)
	if err != nil {
		return fmt.Errorf("update balance for account %d: %w", accountID, err)
	}
	return nil
}

func (s *Store) CreateTransaction(ctx context.Context, params storage.CreateTransactionParams) (core.Transaction, error) {
	table := tableFor(params.Kind)
	var id int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := checkAccountExists(ctx, tx, params.AccountID); err != nil {
			return err
		}
		if err := checkCategoryKind(ctx, tx, params.CategoryID, params.Kind); err != nil {
			return err
		}
		err := tx.QueryRowContext(ctx, `
			INSERT INTO `+table+` (user_id, account_id, category_id, amount_cents, description, date)
			VALUES (?, ?, ?, ?, ?, ?)
			RETURNING id`,
			params.UserID, params.AccountID, params.CategoryID,
			toCents(params.Amount), params.Description, formatDate(params.Date)).Scan(&id)
		if err != nil {
			return fmt.Errorf("insert %s: %w", params.Kind, mapSQLiteError(err))
		}
		return applyBalance(ctx, tx, params.AccountID, toCents(params.Kind.SignedAmount(params.Amount)))
	})
	if err != nil {
		return core.Transaction{}, err
	}
	return s.GetTransaction(ctx, params.Kind, id)
}

func (s *Store) UpdateTransaction(ctx context.Context, kind core.TransactionKind, id int64, params storage.UpdateTransactionParams) (core.Transaction, error) {
	table := tableFor(kind)
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var (
			oldAccountID int64
			oldCents     int64
		)
		err := tx.QueryRowContext(ctx,
			`SELECT account_id, amount_cents FROM `+table+` WHERE id = ?`, id).
			Scan(&oldAccountID, &oldCents)
		if errors.Is(err, sql.ErrNoRows) {
			return core.NotFoundf(kind.String(), id)
		}
		if err != nil {
			return fmt.Errorf("get %s %d: %w", kind, id, err)
		}

		newAccountID := oldAccountID
		if params.AccountID != nil {
			newAccountID = *params.AccountID
			if err := checkAccountExists(ctx, tx, newAccountID); err != nil {
				return err
			}
		}
		newCents := oldCents
		if params.Amount != nil {
			newCents = toCents(*params.Amount)
		}
		if params.CategoryID != nil {
			if err := checkCategoryKind(ctx, tx, *params.CategoryID, kind); err != nil {
				return err
			}
		}

		sets := []string{"updated_at = datetime('now')"}
		var args []any
		if params.AccountID != nil {
			sets = append(sets, "account_id = ?")
			args = append(args, *params.AccountID)
		}
		if params.CategoryID != nil {
			sets = append(sets, "category_id = ?")
			args = append(args, *params.CategoryID)
		}
		if params.Amount != nil {
			sets = append(sets, "amount_cents = ?")
			args = append(args, newCents)
		}
		if params.Description != nil {
			sets = append(sets, "description = ?")
			args = append(args, *params.Description)
		}
		if params.Date != nil {
			sets = append(sets, "date = ?")
			args = append(args, formatDate(*params.Date))
		}
		args = append(args, id)
		if _, err := tx.ExecContext(ctx,
			`UPDATE `+table+` SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...); err != nil {
			return fmt.Errorf("update %s: %w", kind, mapSQLiteError(err))
		}

		sign := int64(1)
		if kind == core.KindExpense {
			sign = -1
		}
		// Reverse the old effect, apply the new one.
		if err := applyBalance(ctx, tx, oldAccountID, -sign*oldCents); err != nil {
			return err
		}
		return applyBalance(ctx, tx, newAccountID, sign*newCents)
	})
	if err != nil {
		return core.Transaction{}, err
	}
	return s.GetTransaction(ctx, kind, id)
}

func (s *Store) DeleteTransaction(ctx context.Context, kind core.TransactionKind, id int64) error {
	table := tableFor(kind)
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var (
			accountID int64
			cents     int64
		)
		err := tx.QueryRowContext(ctx,
			`SELECT account_id, amount_cents FROM `+table+` WHERE id = ?`, id).
			Scan(&accountID, &cents)
		if errors.Is(err, sql.ErrNoRows) {
			return core.NotFoundf(kind.String(), id)
		}
		if err != nil {
			return fmt.Errorf("get %s %d: %w", kind, id, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete %s: %w", kind, err)
		}
		delta := cents
		if kind == core.KindIncome {
			delta = -cents
		}
		return applyBalance(ctx, tx, accountID, delta)
	})
}

func (s *Store) Transfer(ctx context.Context, params storage.TransferParams) (storage.TransferResult, error) {
	var result storage.TransferResult
	amountCents := toCents(params.Amount)
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var fromCentsBal, toCentsBal int64
		err := tx.QueryRowContext(ctx,
			`SELECT balance_cents FROM accounts WHERE id = ?`, params.FromAccountID).Scan(&fromCentsBal)
		if errors.Is(err, sql.ErrNoRows) {
			return core.NotFoundf("account", params.FromAccountID)
		}
		if err != nil {
			return fmt.Errorf("get source balance: %w", err)
		}
		err = tx.QueryRowContext(ctx,
			`SELECT balance_cents FROM accounts WHERE id = ?`, params.ToAccountID).Scan(&toCentsBal)
		if errors.Is(err, sql.ErrNoRows) {
			return core.NotFoundf("account", params.ToAccountID)
		}
		if err != nil {
			return fmt.Errorf("get destination balance: %w", err)
		}
		if !params.AllowOverdraft && fromCentsBal < amountCents {
			return core.ErrInsufficientFunds
		}
		if err := applyBalance(ctx, tx, params.FromAccountID, -amountCents); err != nil {
			return err
		}
		if err := applyBalance(ctx, tx, params.ToAccountID, amountCents); err != nil {
			return err
		}
		result = storage.TransferResult{
			FromAccountID: params.FromAccountID,
			ToAccountID:   params.ToAccountID,
			Amount:        params.Amount,
			FromBalance:   fromCents(fromCentsBal - amountCents),
			ToBalance:     fromCents(toCentsBal + amountCents),
		}
		return nil
	})
	if err != nil {
		return storage.TransferResult{}, err
	}
	return result, nil
}
