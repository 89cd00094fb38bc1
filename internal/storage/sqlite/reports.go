package sqlite

import (
	"context"
	"fmt"
	"time"

	"spendsight/internal/storage"
)

// Month and day series are generated in Go rather than SQL so the reports
// do not depend on the generate_series extension being compiled in.

func (s *Store) ExpensesByCategory(ctx context.Context, from, to time.Time) ([]storage.CategoryTotal, error) {
	query := `
		SELECT c.name, COALESCE(SUM(e.amount_cents), 0), COUNT(e.id)
		FROM expenses e
		JOIN categories c ON c.id = e.category_id`
	var (
		conds string
		args  []any
	)
	if !from.IsZero() {
		conds += " AND e.date >= ?"
		args = append(args, formatDate(from))
	}
	if !to.IsZero() {
		conds += " AND e.date <= ?"
		args = append(args, formatDate(to))
	}
	if conds != "" {
		query += " WHERE 1=1" + conds
	}
	query += `
		GROUP BY c.name
		ORDER BY SUM(e.amount_cents) DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("expenses by category: %w", err)
	}
	defer rows.Close()

	var out []storage.CategoryTotal
	for rows.Next() {
		var (
			row   storage.CategoryTotal
			cents int64
		)
		if err := rows.Scan(&row.Category, &cents, &row.Count); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		row.Total = fromCents(cents)
		out = append(out, row)
	}
	return out, rows.Err()
}

// periodCents returns per-bucket cent totals for the given table. Dates are
// stored as YYYY-MM-DD, so a prefix of the right length is the bucket key.
func (s *Store) periodCents(ctx context.Context, table string, period storage.Period) (map[string]int64, error) {
	prefix := len(period.Layout())
	rows, err := s.db.QueryContext(ctx,
		`SELECT substr(date, 1, ?), SUM(amount_cents) FROM `+table+` GROUP BY substr(date, 1, ?)`,
		prefix, prefix)
	if err != nil {
		return nil, fmt.Errorf("%s totals for %s: %w", period, table, err)
	}
	defer rows.Close()

	totals := make(map[string]int64)
	for rows.Next() {
		var (
			bucket string
			cents  int64
		)
		if err := rows.Scan(&bucket, &cents); err != nil {
			return nil, fmt.Errorf("scan %s total: %w", period, err)
		}
		totals[bucket] = cents
	}
	return totals, rows.Err()
}

func (s *Store) MonthlyExpenses(ctx context.Context, months int) ([]storage.MonthlyTotal, error) {
	totals, err := s.periodCents(ctx, "expenses", storage.PeriodMonthly)
	if err != nil {
		return nil, err
	}
	out := make([]storage.MonthlyTotal, 0, months)
	for _, key := range storage.PeriodMonthly.Buckets(time.Now(), months) {
		out = append(out, storage.MonthlyTotal{Month: key, Total: fromCents(totals[key])})
	}
	return out, nil
}

func (s *Store) CashFlow(ctx context.Context, period storage.Period, span int) ([]storage.CashFlowRow, error) {
	income, err := s.periodCents(ctx, "incomes", period)
	if err != nil {
		return nil, err
	}
	expenses, err := s.periodCents(ctx, "expenses", period)
	if err != nil {
		return nil, err
	}
	out := make([]storage.CashFlowRow, 0, span)
	for _, key := range period.Buckets(time.Now(), span) {
		row := storage.CashFlowRow{
			Period:   key,
			Income:   fromCents(income[key]),
			Expenses: fromCents(expenses[key]),
			Net:      fromCents(income[key] - expenses[key]),
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *Store) BalanceHistory(ctx context.Context, accountID int64, days int) ([]storage.BalancePoint, error) {
	account, err := s.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT day, SUM(delta) FROM (
			SELECT date AS day, -SUM(amount_cents) AS delta
			FROM expenses WHERE account_id = ? GROUP BY date
			UNION ALL
			SELECT date AS day, SUM(amount_cents) AS delta
			FROM incomes WHERE account_id = ? GROUP BY date
		) GROUP BY day`, accountID, accountID)
	if err != nil {
		return nil, fmt.Errorf("balance history: %w", err)
	}
	defer rows.Close()

	activity := make(map[string]int64)
	for rows.Next() {
		var (
			day   string
			cents int64
		)
		if err := rows.Scan(&day, &cents); err != nil {
			return nil, fmt.Errorf("scan daily activity: %w", err)
		}
		activity[day] = cents
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Walk backwards from the current balance, undoing each day's activity.
	today := time.Now().UTC().Truncate(24 * time.Hour)
	out := make([]storage.BalancePoint, days)
	balance := toCents(account.Balance)
	for i := days - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, i-(days-1))
		key := day.Format(dateLayout)
		out[i] = storage.BalancePoint{Date: key, Balance: fromCents(balance)}
		balance -= activity[key]
	}
	return out, nil
}
