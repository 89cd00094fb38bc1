package sqlite

import (
	"context"
	"testing"
	"time"

	"spendsight/internal/core"
	"spendsight/internal/storage"
)

func TestExpensesByCategoryGroupsAndOrders(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seed := []struct {
		categoryID int64
		amount     string
	}{
		{1, "30.00"},
		{1, "20.00"},
		{2, "80.00"},
	}
	for _, s := range seed {
		if _, err := store.CreateTransaction(ctx, storage.CreateTransactionParams{
			Kind:       core.KindExpense,
			UserID:     1,
			AccountID:  1,
			CategoryID: s.categoryID,
			Amount:     dec(s.amount),
			Date:       time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
		}); err != nil {
			t.Fatalf("create expense: %v", err)
		}
	}

	rows, err := store.ExpensesByCategory(ctx,
		time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("expenses by category: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].Category != "Dining" || !rows[0].Total.Equal(dec("80.00")) {
		t.Errorf("top row = %+v, want Dining 80.00", rows[0])
	}
	if rows[1].Category != "Groceries" || rows[1].Count != 2 {
		t.Errorf("second row = %+v, want Groceries with 2 entries", rows[1])
	}

	// A window with no activity reports nothing.
	rows, err = store.ExpensesByCategory(ctx,
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("empty window: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("empty window rows = %d, want 0", len(rows))
	}
}

func TestMonthlyExpensesReturnsFullSeries(t *testing.T) {
	store := newTestStore(t)

	rows, err := store.MonthlyExpenses(context.Background(), 6)
	if err != nil {
		t.Fatalf("monthly expenses: %v", err)
	}
	if len(rows) != 6 {
		t.Fatalf("rows = %d, want 6", len(rows))
	}
	for _, row := range rows {
		if !row.Total.IsZero() {
			t.Errorf("month %s total = %s, want 0 with no data", row.Month, row.Total)
		}
	}
	if last := rows[5].Month; last != time.Now().Format("2006-01") {
		t.Errorf("last month = %s, want current month", last)
	}
}

func TestCashFlowGroupsByPeriod(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	today := time.Now().UTC().Truncate(24 * time.Hour)
	if _, err := store.CreateTransaction(ctx, storage.CreateTransactionParams{
		Kind:       core.KindExpense,
		UserID:     1,
		AccountID:  1,
		CategoryID: 1,
		Amount:     dec("25.00"),
		Date:       today,
	}); err != nil {
		t.Fatalf("create expense: %v", err)
	}
	if _, err := store.CreateTransaction(ctx, storage.CreateTransactionParams{
		Kind:       core.KindIncome,
		UserID:     1,
		AccountID:  1,
		CategoryID: 5,
		Amount:     dec("100.00"),
		Date:       today.AddDate(-1, 0, 0),
	}); err != nil {
		t.Fatalf("create income: %v", err)
	}

	daily, err := store.CashFlow(ctx, storage.PeriodDaily, 2)
	if err != nil {
		t.Fatalf("daily cash flow: %v", err)
	}
	if len(daily) != 2 {
		t.Fatalf("daily rows = %d, want 2", len(daily))
	}
	if got := daily[1].Period; got != today.Format("2006-01-02") {
		t.Errorf("last daily period = %s, want today", got)
	}
	if !daily[1].Expenses.Equal(dec("25.00")) || !daily[1].Net.Equal(dec("-25.00")) {
		t.Errorf("today's row = %+v, want 25.00 expenses, -25.00 net", daily[1])
	}

	yearly, err := store.CashFlow(ctx, storage.PeriodYearly, 2)
	if err != nil {
		t.Fatalf("yearly cash flow: %v", err)
	}
	if len(yearly) != 2 {
		t.Fatalf("yearly rows = %d, want 2", len(yearly))
	}
	if !yearly[0].Income.Equal(dec("100.00")) {
		t.Errorf("last year's income = %s, want 100.00", yearly[0].Income)
	}
	if !yearly[1].Expenses.Equal(dec("25.00")) {
		t.Errorf("this year's expenses = %s, want 25.00", yearly[1].Expenses)
	}
}

func TestBalanceHistoryWalksBackwards(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	today := time.Now().UTC().Truncate(24 * time.Hour)
	if _, err := store.CreateTransaction(ctx, storage.CreateTransactionParams{
		Kind:       core.KindExpense,
		UserID:     1,
		AccountID:  1,
		CategoryID: 1,
		Amount:     dec("100.00"),
		Date:       today,
	}); err != nil {
		t.Fatalf("create expense: %v", err)
	}

	points, err := store.BalanceHistory(ctx, 1, 3)
	if err != nil {
		t.Fatalf("balance history: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("points = %d, want 3", len(points))
	}
	if !points[2].Balance.Equal(dec("900.00")) {
		t.Errorf("today's balance = %s, want 900.00", points[2].Balance)
	}
	if !points[1].Balance.Equal(dec("1000.00")) {
		t.Errorf("yesterday's balance = %s, want 1000.00", points[1].Balance)
	}
}
