package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"spendsight/internal/core"
	"spendsight/internal/storage"
)

func monthKey(t time.Time) string {
	return t.Format("2006-01")
}

// lastMonths returns the month keys for the last n months, oldest first,
// ending with the current month.
func lastMonths(now time.Time, n int) []string {
	keys := make([]string, 0, n)
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	for i := n - 1; i >= 0; i-- {
		keys = append(keys, monthKey(first.AddDate(0, -i, 0)))
	}
	return keys
}

func (s *Store) ExpensesByCategory(_ context.Context, from, to time.Time) ([]storage.CategoryTotal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	totals := make(map[int64]*storage.CategoryTotal)
	for _, t := range s.expenses {
		if !from.IsZero() && t.Date.Before(from) {
			continue
		}
		if !to.IsZero() && t.Date.After(to) {
			continue
		}
		ct, ok := totals[t.CategoryID]
		if !ok {
			name := "Uncategorized"
			if c, ok := s.categories[t.CategoryID]; ok {
				name = c.Name
			}
			ct = &storage.CategoryTotal{Category: name}
			totals[t.CategoryID] = ct
		}
		ct.Total = ct.Total.Add(t.Amount)
		ct.Count++
	}

	out := make([]storage.CategoryTotal, 0, len(totals))
	for _, ct := range totals {
		out = append(out, *ct)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Total.GreaterThan(out[j].Total) })
	return out, nil
}

func (s *Store) MonthlyExpenses(_ context.Context, months int) ([]storage.MonthlyTotal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byMonth := make(map[string]decimal.Decimal)
	for _, t := range s.expenses {
		key := monthKey(t.Date)
		byMonth[key] = byMonth[key].Add(t.Amount)
	}

	out := make([]storage.MonthlyTotal, 0, months)
	for _, key := range lastMonths(s.now(), months) {
		out = append(out, storage.MonthlyTotal{Month: key, Total: byMonth[key]})
	}
	return out, nil
}

func (s *Store) CashFlow(_ context.Context, period storage.Period, span int) ([]storage.CashFlowRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	layout := period.Layout()
	income := make(map[string]decimal.Decimal)
	expenses := make(map[string]decimal.Decimal)
	for _, t := range s.incomes {
		key := t.Date.Format(layout)
		income[key] = income[key].Add(t.Amount)
	}
	for _, t := range s.expenses {
		key := t.Date.Format(layout)
		expenses[key] = expenses[key].Add(t.Amount)
	}

	out := make([]storage.CashFlowRow, 0, span)
	for _, key := range period.Buckets(s.now(), span) {
		row := storage.CashFlowRow{
			Period:   key,
			Income:   income[key],
			Expenses: expenses[key],
		}
		row.Net = row.Income.Sub(row.Expenses)
		out = append(out, row)
	}
	return out, nil
}

// BalanceHistory reconstructs one end-of-day balance per day by walking
// backwards from the current balance, undoing each day's signed activity.
func (s *Store) BalanceHistory(_ context.Context, accountID int64, days int) ([]storage.BalancePoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[accountID]
	if !ok {
		return nil, core.NotFoundf("account", accountID)
	}

	// Net signed activity per day for this account.
	activity := make(map[string]decimal.Decimal)
	add := func(t core.Transaction) {
		if t.AccountID != accountID {
			return
		}
		key := t.Date.Format("2006-01-02")
		activity[key] = activity[key].Add(t.Kind.SignedAmount(t.Amount))
	}
	for _, t := range s.expenses {
		add(t)
	}
	for _, t := range s.incomes {
		add(t)
	}

	today := s.now().UTC().Truncate(24 * time.Hour)
	out := make([]storage.BalancePoint, days)
	balance := a.Balance
	for i := days - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, i-(days-1))
		key := day.Format("2006-01-02")
		out[i] = storage.BalancePoint{Date: key, Balance: balance}
		balance = balance.Sub(activity[key])
	}
	return out, nil
}
