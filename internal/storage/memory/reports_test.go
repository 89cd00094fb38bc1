package memory

import (
	"context"
	"testing"
	"time"

	"spendsight/internal/core"
	"spendsight/internal/storage"
)

// fixedNow pins the store clock so month and day bucketing is stable.
func fixedNow(f fixture, t time.Time) {
	f.store.now = func() time.Time { return t }
}

func TestExpensesByCategory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	dining, err := f.store.CreateCategory(ctx, "Dining", core.KindExpense)
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	f.expense(t, f.checking.ID, "30.00")
	f.expense(t, f.checking.ID, "20.00")
	if _, err := f.store.CreateTransaction(ctx, storage.CreateTransactionParams{
		Kind: core.KindExpense, UserID: f.user.ID, AccountID: f.checking.ID,
		CategoryID: dining.ID, Amount: dec("15.00"), Description: "lunch",
		Date: time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
	}); err != nil {
		t.Fatalf("create expense: %v", err)
	}

	rows, err := f.store.ExpensesByCategory(ctx, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].Category != "Groceries" || !rows[0].Total.Equal(dec("50.00")) || rows[0].Count != 2 {
		t.Errorf("top row = %+v, want Groceries 50.00 x2", rows[0])
	}
	if rows[1].Category != "Dining" || !rows[1].Total.Equal(dec("15.00")) {
		t.Errorf("second row = %+v, want Dining 15.00", rows[1])
	}

	// Date window excludes the June 15 groceries rows.
	windowed, err := f.store.ExpensesByCategory(ctx,
		time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("windowed report: %v", err)
	}
	if len(windowed) != 1 || windowed[0].Category != "Dining" {
		t.Errorf("windowed rows = %+v, want only Dining", windowed)
	}
}

func TestMonthlyExpensesFillsEmptyMonths(t *testing.T) {
	f := newFixture(t)
	fixedNow(f, time.Date(2025, 7, 20, 12, 0, 0, 0, time.UTC))

	f.expense(t, f.checking.ID, "10.00") // dated 2025-06-15 by the helper

	rows, err := f.store.MonthlyExpenses(context.Background(), 3)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	want := []string{"2025-05", "2025-06", "2025-07"}
	for i, row := range rows {
		if row.Month != want[i] {
			t.Errorf("row %d month = %s, want %s", i, row.Month, want[i])
		}
	}
	if !rows[0].Total.IsZero() || !rows[1].Total.Equal(dec("10.00")) || !rows[2].Total.IsZero() {
		t.Errorf("totals = %s/%s/%s, want 0/10.00/0", rows[0].Total, rows[1].Total, rows[2].Total)
	}
}

func TestCashFlow(t *testing.T) {
	f := newFixture(t)
	fixedNow(f, time.Date(2025, 6, 25, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()

	f.expense(t, f.checking.ID, "400.00")
	if _, err := f.store.CreateTransaction(ctx, storage.CreateTransactionParams{
		Kind: core.KindIncome, UserID: f.user.ID, AccountID: f.checking.ID,
		CategoryID: f.salary.ID, Amount: dec("2500.00"), Description: "paycheck",
		Date: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}); err != nil {
		t.Fatalf("create income: %v", err)
	}

	rows, err := f.store.CashFlow(ctx, storage.PeriodMonthly, 1)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	row := rows[0]
	if row.Period != "2025-06" {
		t.Errorf("period = %s, want 2025-06", row.Period)
	}
	if !row.Income.Equal(dec("2500.00")) || !row.Expenses.Equal(dec("400.00")) || !row.Net.Equal(dec("2100.00")) {
		t.Errorf("row = %+v, want income 2500 expenses 400 net 2100", row)
	}
}

func TestCashFlowPeriodGrouping(t *testing.T) {
	f := newFixture(t)
	fixedNow(f, time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()

	// Helper expenses land on 2025-06-15; add one dated a year earlier.
	f.expense(t, f.checking.ID, "100.00")
	if _, err := f.store.CreateTransaction(ctx, storage.CreateTransactionParams{
		Kind: core.KindExpense, UserID: f.user.ID, AccountID: f.checking.ID,
		CategoryID: f.grocery.ID, Amount: dec("40.00"), Description: "old",
		Date: time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC),
	}); err != nil {
		t.Fatalf("create expense: %v", err)
	}

	daily, err := f.store.CashFlow(ctx, storage.PeriodDaily, 2)
	if err != nil {
		t.Fatalf("daily report: %v", err)
	}
	if len(daily) != 2 {
		t.Fatalf("daily rows = %d, want 2", len(daily))
	}
	if daily[0].Period != "2025-06-15" || daily[1].Period != "2025-06-16" {
		t.Errorf("daily periods = %s/%s, want 2025-06-15/2025-06-16", daily[0].Period, daily[1].Period)
	}
	if !daily[0].Expenses.Equal(dec("100.00")) || !daily[1].Expenses.IsZero() {
		t.Errorf("daily expenses = %s/%s, want 100.00/0", daily[0].Expenses, daily[1].Expenses)
	}

	yearly, err := f.store.CashFlow(ctx, storage.PeriodYearly, 2)
	if err != nil {
		t.Fatalf("yearly report: %v", err)
	}
	if len(yearly) != 2 {
		t.Fatalf("yearly rows = %d, want 2", len(yearly))
	}
	if yearly[0].Period != "2024" || yearly[1].Period != "2025" {
		t.Errorf("yearly periods = %s/%s, want 2024/2025", yearly[0].Period, yearly[1].Period)
	}
	if !yearly[0].Expenses.Equal(dec("40.00")) || !yearly[1].Expenses.Equal(dec("100.00")) {
		t.Errorf("yearly expenses = %s/%s, want 40.00/100.00", yearly[0].Expenses, yearly[1].Expenses)
	}
	if !yearly[0].Net.Equal(dec("-40.00")) {
		t.Errorf("yearly net = %s, want -40.00", yearly[0].Net)
	}
}

func TestBalanceHistory(t *testing.T) {
	f := newFixture(t)
	now := time.Date(2025, 6, 17, 10, 0, 0, 0, time.UTC)
	fixedNow(f, now)
	ctx := context.Background()

	// 75.50 expense on June 15 leaves the balance at 924.50 from that day on.
	f.expense(t, f.checking.ID, "75.50")

	points, err := f.store.BalanceHistory(ctx, f.checking.ID, 5)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if len(points) != 5 {
		t.Fatalf("points = %d, want 5", len(points))
	}
	// Days 13-14 predate the expense; 15-17 follow it.
	wantBalances := []string{"1000", "1000", "924.50", "924.50", "924.50"}
	wantDates := []string{"2025-06-13", "2025-06-14", "2025-06-15", "2025-06-16", "2025-06-17"}
	for i, p := range points {
		if p.Date != wantDates[i] {
			t.Errorf("point %d date = %s, want %s", i, p.Date, wantDates[i])
		}
		if !p.Balance.Equal(dec(wantBalances[i])) {
			t.Errorf("point %d balance = %s, want %s", i, p.Balance, wantBalances[i])
		}
	}
}
