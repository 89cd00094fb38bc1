package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"spendsight/internal/core"
	"spendsight/internal/storage"
)

func tableFor(kind core.TransactionKind) string {
	if kind == core.KindExpense {
		return "expenses"
	}
	return "incomes"
}

func transactionColumns(table string) string {
	return `t.id, t.user_id, t.account_id, t.category_id, t.amount::text,
		t.description, t.date, t.created_at, t.updated_at, a.name, c.name` + transactionJoins(table)
}

func transactionJoins(table string) string {
	return fmt.Sprintf(`
		FROM %s t
		JOIN accounts a ON a.id = t.account_id
		JOIN categories c ON c.id = t.category_id`, table)
}

func scanTransaction(row pgx.Row, kind core.TransactionKind) (core.Transaction, error) {
	var (
		t      core.Transaction
		amount string
	)
	err := row.Scan(&t.ID, &t.UserID, &t.AccountID, &t.CategoryID, &amount,
		&t.Description, &t.Date, &t.CreatedAt, &t.UpdatedAt, &t.AccountName, &t.CategoryName)
	if err != nil {
		return core.Transaction{}, err
	}
	t.Kind = kind
	t.Amount, err = scanDecimal(amount)
	return t, err
}

func (s *Store) GetTransaction(ctx context.Context, kind core.TransactionKind, id int64) (core.Transaction, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+transactionColumns(tableFor(kind))+` WHERE t.id = $1`, id)
	t, err := scanTransaction(row, kind)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Transaction{}, core.NotFoundf(kind.String(), id)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get %s: %w", kind, err)
	}
	return t, nil
}

func (s *Store) ListTransactions(ctx context.Context, kind core.TransactionKind, filter storage.TransactionFilter) ([]core.Transaction, error) {
	query := `SELECT ` + transactionColumns(tableFor(kind))
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.AccountID != 0 {
		conds = append(conds, "t.account_id = "+arg(filter.AccountID))
	}
	if filter.CategoryID != 0 {
		conds = append(conds, "t.category_id = "+arg(filter.CategoryID))
	}
	if !filter.From.IsZero() {
		conds = append(conds, "t.date >= "+arg(filter.From))
	}
	if !filter.To.IsZero() {
		conds = append(conds, "t.date <= "+arg(filter.To))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY t.date DESC, t.id DESC"
	if filter.Limit > 0 {
		query += " LIMIT " + arg(filter.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
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

// lockBalance reads an account balance under FOR UPDATE so concurrent ledger
// operations on the same account serialize.
func lockBalance(ctx context.Context, tx pgx.Tx, accountID int64) (decimal.Decimal, error) {
	var balance string
	err := tx.QueryRow(ctx,
		`SELECT balance::text FROM accounts WHERE id = $1 FOR UPDATE`, accountID).
		Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, core.NotFoundf("account", accountID)
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("lock account %d: %w", accountID, err)
	}
	return scanDecimal(balance)
}

func applyBalance(ctx context.Context, tx pgx.Tx, accountID int64, delta decimal.Decimal) error {
	_, err := tx.Exec(ctx,
		`UPDATE accounts SET balance = balance + $2, updated_at = now() WHERE id = $1`,
		accountID, delta.String())
	if err != nil {
		return fmt.Errorf("update balance for account %d: %w", accountID, err)
	}
	return nil
}

func (s *Store) checkCategoryKind(ctx context.Context, tx pgx.Tx, categoryID int64, kind core.TransactionKind) error {
	var got string
	err := tx.QueryRow(ctx, `SELECT kind FROM categories WHERE id = $1`, categoryID).Scan(&got)
	if errors.Is(err, pgx.ErrNoRows) {
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

func (s *Store) CreateTransaction(ctx context.Context, params storage.CreateTransactionParams) (core.Transaction, error) {
	table := tableFor(params.Kind)
	var id int64
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		if _, err := lockBalance(ctx, tx, params.AccountID); err != nil {
			return err
		}
		if err := s.checkCategoryKind(ctx, tx, params.CategoryID, params.Kind); err != nil {
			return err
		}
		err := tx.QueryRow(ctx, `
			INSERT INTO `+table+` (user_id, account_id, category_id, amount, description, date)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`,
			params.UserID, params.AccountID, params.CategoryID,
			params.Amount.String(), params.Description, params.Date).Scan(&id)
		if err != nil {
			return fmt.Errorf("insert %s: %w", params.Kind, mapPgError(err))
		}
		return applyBalance(ctx, tx, params.AccountID, params.Kind.SignedAmount(params.Amount))
	})
	if err != nil {
		return core.Transaction{}, err
	}
	return s.GetTransaction(ctx, params.Kind, id)
}

func (s *Store) UpdateTransaction(ctx context.Context, kind core.TransactionKind, id int64, params storage.UpdateTransactionParams) (core.Transaction, error) {
	table := tableFor(kind)
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		var (
			oldAccountID int64
			oldAmountStr string
		)
		err := tx.QueryRow(ctx,
			`SELECT account_id, amount::text FROM `+table+` WHERE id = $1 FOR UPDATE`, id).
			Scan(&oldAccountID, &oldAmountStr)
		if errors.Is(err, pgx.ErrNoRows) {
			return core.NotFoundf(kind.String(), id)
		}
		if err != nil {
			return fmt.Errorf("lock %s %d: %w", kind, id, err)
		}
		oldAmount, err := scanDecimal(oldAmountStr)
		if err != nil {
			return err
		}

		newAccountID := oldAccountID
		if params.AccountID != nil {
			newAccountID = *params.AccountID
		}
		newAmount := oldAmount
		if params.Amount != nil {
			newAmount = *params.Amount
		}

		// Lock in id order to avoid deadlocks when two updates move
		// transactions between the same pair of accounts.
		for _, accountID := range lockOrder(oldAccountID, newAccountID) {
			if _, err := lockBalance(ctx, tx, accountID); err != nil {
				return err
			}
		}
		if params.CategoryID != nil {
			if err := s.checkCategoryKind(ctx, tx, *params.CategoryID, kind); err != nil {
				return err
			}
		}

		sets := []string{"updated_at = now()"}
		args := []any{id}
		set := func(column string, v any) {
			args = append(args, v)
			sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
		}
		if params.AccountID != nil {
			set("account_id", *params.AccountID)
		}
		if params.CategoryID != nil {
			set("category_id", *params.CategoryID)
		}
		if params.Amount != nil {
			set("amount", params.Amount.String())
		}
		if params.Description != nil {
			set("description", *params.Description)
		}
		if params.Date != nil {
			set("date", *params.Date)
		}
		if _, err := tx.Exec(ctx,
			`UPDATE `+table+` SET `+strings.Join(sets, ", ")+` WHERE id = $1`, args...); err != nil {
			return fmt.Errorf("update %s: %w", kind, mapPgError(err))
		}

		// Reverse the old effect, apply the new one.
		if err := applyBalance(ctx, tx, oldAccountID, kind.SignedAmount(oldAmount).Neg()); err != nil {
			return err
		}
		return applyBalance(ctx, tx, newAccountID, kind.SignedAmount(newAmount))
	})
	if err != nil {
		return core.Transaction{}, err
	}
	return s.GetTransaction(ctx, kind, id)
}

func (s *Store) DeleteTransaction(ctx context.Context, kind core.TransactionKind, id int64) error {
	table := tableFor(kind)
	return s.withTx(ctx, func(tx pgx.Tx) error {
		var (
			accountID int64
			amountStr string
		)
		err := tx.QueryRow(ctx,
			`SELECT account_id, amount::text FROM `+table+` WHERE id = $1 FOR UPDATE`, id).
			Scan(&accountID, &amountStr)
		if errors.Is(err, pgx.ErrNoRows) {
			return core.NotFoundf(kind.String(), id)
		}
		if err != nil {
			return fmt.Errorf("lock %s %d: %w", kind, id, err)
		}
		amount, err := scanDecimal(amountStr)
		if err != nil {
			return err
		}
		if _, err := lockBalance(ctx, tx, accountID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM `+table+` WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete %s: %w", kind, err)
		}
		return applyBalance(ctx, tx, accountID, kind.SignedAmount(amount).Neg())
	})
}

func (s *Store) Transfer(ctx context.Context, params storage.TransferParams) (storage.TransferResult, error) {
	var result storage.TransferResult
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		balances := make(map[int64]decimal.Decimal, 2)
		for _, accountID := range lockOrder(params.FromAccountID, params.ToAccountID) {
			balance, err := lockBalance(ctx, tx, accountID)
			if err != nil {
				return err
			}
			balances[accountID] = balance
		}
		if !params.AllowOverdraft && balances[params.FromAccountID].LessThan(params.Amount) {
			return core.ErrInsufficientFunds
		}
		if err := applyBalance(ctx, tx, params.FromAccountID, params.Amount.Neg()); err != nil {
			return err
		}
		if err := applyBalance(ctx, tx, params.ToAccountID, params.Amount); err != nil {
			return err
		}
		result = storage.TransferResult{
			FromAccountID: params.FromAccountID,
			ToAccountID:   params.ToAccountID,
			Amount:        params.Amount,
			FromBalance:   balances[params.FromAccountID].Sub(params.Amount),
			ToBalance:     balances[params.ToAccountID].Add(params.Amount),
		}
		return nil
	})
	if err != nil {
		return storage.TransferResult{}, err
	}
	return result, nil
}

func lockOrder(a, b int64) []int64 {
	if a == b {
		return []int64{a}
	}
	if a < b {
		return []int64{a, b}
	}
	return []int64{b, a}
}
