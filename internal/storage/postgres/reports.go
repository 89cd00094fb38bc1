package postgres

import (
	"context"
	"fmt"
	"time"

	"spendsight/internal/storage"
)

func (s *Store) ExpensesByCategory(ctx context.Context, from, to time.Time) ([]storage.CategoryTotal, error) {
	query := `
		SELECT c.name, COALESCE(SUM(e.amount), 0)::text, COUNT(e.id)
		FROM expenses e
		JOIN categories c ON c.id = e.category_id`
	var (
		conds string
		args  []any
	)
	if !from.IsZero() {
		args = append(args, from)
		conds += fmt.Sprintf(" AND e.date >= $%d", len(args))
	}
	if !to.IsZero() {
		args = append(args, to)
		conds += fmt.Sprintf(" AND e.date <= $%d", len(args))
	}
	if conds != "" {
		query += " WHERE true" + conds
	}
	query += `
		GROUP BY c.name
		ORDER BY SUM(e.amount) DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("expenses by category: %w", err)
	}
	defer rows.Close()

	var out []storage.CategoryTotal
	for rows.Next() {
		var (
			row   storage.CategoryTotal
			total string
		)
		if err := rows.Scan(&row.Category, &total, &row.Count); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		if row.Total, err = scanDecimal(total); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// MonthlyExpenses returns one row per month for the last n months, zero
// rows included, newest month last.
func (s *Store) MonthlyExpenses(ctx context.Context, months int) ([]storage.MonthlyTotal, error) {
	rows, err := s.pool.Query(ctx, `
		WITH months AS (
			SELECT to_char(date_trunc('month', now()) - (interval '1 month' * g), 'YYYY-MM') AS month
			FROM generate_series($1::int - 1, 0, -1) AS g
		)
		SELECT m.month, COALESCE(SUM(e.amount), 0)::text
		FROM months m
		LEFT JOIN expenses e ON to_char(e.date, 'YYYY-MM') = m.month
		GROUP BY m.month
		ORDER BY m.month`, months)
	if err != nil {
		return nil, fmt.Errorf("monthly expenses: %w", err)
	}
	defer rows.Close()

	var out []storage.MonthlyTotal
	for rows.Next() {
		var (
			row   storage.MonthlyTotal
			total string
		)
		if err := rows.Scan(&row.Month, &total); err != nil {
			return nil, fmt.Errorf("scan monthly total: %w", err)
		}
		if row.Total, err = scanDecimal(total); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (s *Store) CashFlow(ctx context.Context, period storage.Period, span int) ([]storage.CashFlowRow, error) {
	var seriesExpr, bucketFormat string
	switch period {
	case storage.PeriodDaily:
		seriesExpr = `to_char(current_date - g, 'YYYY-MM-DD')`
		bucketFormat = "YYYY-MM-DD"
	case storage.PeriodYearly:
		seriesExpr = `to_char(date_trunc('year', now()) - (interval '1 year' * g), 'YYYY')`
		bucketFormat = "YYYY"
	default:
		seriesExpr = `to_char(date_trunc('month', now()) - (interval '1 month' * g), 'YYYY-MM')`
		bucketFormat = "YYYY-MM"
	}

	query := fmt.Sprintf(`
		WITH buckets AS (
			SELECT %s AS bucket
			FROM generate_series($1::int - 1, 0, -1) AS g
		),
		inc AS (
			SELECT to_char(date, '%s') AS bucket, SUM(amount) AS total
			FROM incomes GROUP BY 1
		),
		exp AS (
			SELECT to_char(date, '%s') AS bucket, SUM(amount) AS total
			FROM expenses GROUP BY 1
		)
		SELECT b.bucket,
		       COALESCE(inc.total, 0)::text,
		       COALESCE(exp.total, 0)::text,
		       (COALESCE(inc.total, 0) - COALESCE(exp.total, 0))::text
		FROM buckets b
		LEFT JOIN inc ON inc.bucket = b.bucket
		LEFT JOIN exp ON exp.bucket = b.bucket
		ORDER BY b.bucket`, seriesExpr, bucketFormat, bucketFormat)

	rows, err := s.pool.Query(ctx, query, span)
	if err != nil {
		return nil, fmt.Errorf("cash flow: %w", err)
	}
	defer rows.Close()

	var out []storage.CashFlowRow
	for rows.Next() {
		var (
			row                   storage.CashFlowRow
			income, expenses, net string
		)
		if err := rows.Scan(&row.Period, &income, &expenses, &net); err != nil {
			return nil, fmt.Errorf("scan cash flow row: %w", err)
		}
		if row.Income, err = scanDecimal(income); err != nil {
			return nil, err
		}
		if row.Expenses, err = scanDecimal(expenses); err != nil {
			return nil, err
		}
		if row.Net, err = scanDecimal(net); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// BalanceHistory reconstructs a daily end-of-day balance series by walking
// backwards from the current balance: the balance on day d equals the
// current balance minus all signed activity after d.
func (s *Store) BalanceHistory(ctx context.Context, accountID int64, days int) ([]storage.BalancePoint, error) {
	if _, err := s.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		WITH days AS (
			SELECT (current_date - g) AS day
			FROM generate_series($2::int - 1, 0, -1) AS g
		),
		activity AS (
			SELECT date AS day, SUM(-amount) AS delta
			FROM expenses WHERE account_id = $1 GROUP BY date
			UNION ALL
			SELECT date AS day, SUM(amount) AS delta
			FROM incomes WHERE account_id = $1 GROUP BY date
		),
		daily AS (
			SELECT day, SUM(delta) AS delta FROM activity GROUP BY day
		)
		SELECT to_char(d.day, 'YYYY-MM-DD'),
		       ((SELECT balance FROM accounts WHERE id = $1)
		        - COALESCE(SUM(daily.delta) FILTER (WHERE daily.day > d.day), 0))::text
		FROM days d
		LEFT JOIN daily ON daily.day > d.day
		GROUP BY d.day
		ORDER BY d.day`, accountID, days)
	if err != nil {
		return nil, fmt.Errorf("balance history: %w", err)
	}
	defer rows.Close()

	var out []storage.BalancePoint
	for rows.Next() {
		var (
			point   storage.BalancePoint
			balance string
		)
		if err := rows.Scan(&point.Date, &balance); err != nil {
			return nil, fmt.Errorf("scan balance point: %w", err)
		}
		if point.Balance, err = scanDecimal(balance); err != nil {
			return nil, err
		}
		out = append(out, point)
	}
	return out, rows.Err()
}
