package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"spendsight/internal/core"
	"spendsight/internal/storage"
)

// The seed migration creates account 1 "Checking" (1000.00), account 2
// "Savings" (5000.00) and categories 1-4 (expense) plus 5 "Salary" (income).

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func mustBalance(t *testing.T, store *Store, id int64, want string) {
	t.Helper()
	a, err := store.GetAccount(context.Background(), id)
	if err != nil {
		t.Fatalf("get account %d: %v", id, err)
	}
	if !a.Balance.Equal(dec(want)) {
		t.Errorf("account %d balance = %s, want %s", id, a.Balance, want)
	}
}

func createExpense(t *testing.T, store *Store, amount string) core.Transaction {
	t.Helper()
	txn, err := store.CreateTransaction(context.Background(), storage.CreateTransactionParams{
		Kind:        core.KindExpense,
		UserID:      1,
		AccountID:   1,
		CategoryID:  1,
		Amount:      dec(amount),
		Description: "test expense",
		Date:        time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}
	return txn
}

func TestMigrationsSeedDemoData(t *testing.T) {
	store := newTestStore(t)

	accounts, err := store.ListAccounts(context.Background())
	if err != nil {
		t.Fatalf("list accounts: %v", err)
	}
	if len(accounts) != 2 {
		t.Fatalf("seeded accounts = %d, want 2", len(accounts))
	}
	mustBalance(t, store, 1, "1000.00")
	mustBalance(t, store, 2, "5000.00")

	cats, err := store.ListCategories(context.Background(), "")
	if err != nil {
		t.Fatalf("list categories: %v", err)
	}
	if len(cats) != 5 {
		t.Errorf("seeded categories = %d, want 5", len(cats))
	}
}

func TestExpenseLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	txn := createExpense(t, store, "120.50")
	if txn.AccountName != "Checking" || txn.CategoryName != "Groceries" {
		t.Errorf("denormalized names = %q/%q", txn.AccountName, txn.CategoryName)
	}
	mustBalance(t, store, 1, "879.50")

	amount := dec("100.00")
	if _, err := store.UpdateTransaction(ctx, core.KindExpense, txn.ID, storage.UpdateTransactionParams{
		Amount: &amount,
	}); err != nil {
		t.Fatalf("update expense: %v", err)
	}
	mustBalance(t, store, 1, "900.00")

	if err := store.DeleteTransaction(ctx, core.KindExpense, txn.ID); err != nil {
		t.Fatalf("delete expense: %v", err)
	}
	mustBalance(t, store, 1, "1000.00")
}

func TestIncomeCreditsAccount(t *testing.T) {
	store := newTestStore(t)

	_, err := store.CreateTransaction(context.Background(), storage.CreateTransactionParams{
		Kind:       core.KindIncome,
		UserID:     1,
		AccountID:  2,
		CategoryID: 5,
		Amount:     dec("1500.00"),
		Date:       time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create income: %v", err)
	}
	mustBalance(t, store, 2, "6500.00")
}

func TestUpdateMovesBetweenAccounts(t *testing.T) {
	store := newTestStore(t)

	txn := createExpense(t, store, "50.00")
	account := int64(2)
	if _, err := store.UpdateTransaction(context.Background(), core.KindExpense, txn.ID, storage.UpdateTransactionParams{
		AccountID: &account,
	}); err != nil {
		t.Fatalf("move expense: %v", err)
	}
	mustBalance(t, store, 1, "1000.00")
	mustBalance(t, store, 2, "4950.00")
}

func TestUpdateAccountOverwritesBalance(t *testing.T) {
	store := newTestStore(t)

	corrected := dec("-42.33")
	a, err := store.UpdateAccount(context.Background(), 1, storage.UpdateAccountParams{
		Balance: &corrected,
	})
	if err != nil {
		t.Fatalf("update account: %v", err)
	}
	if !a.Balance.Equal(corrected) {
		t.Errorf("returned balance = %s, want -42.33", a.Balance)
	}
	mustBalance(t, store, 1, "-42.33")

	// Name stays untouched when only the balance is corrected.
	if a.Name != "Checking" {
		t.Errorf("name = %q, want Checking", a.Name)
	}
}

func TestCategoryKindEnforced(t *testing.T) {
	store := newTestStore(t)

	_, err := store.CreateTransaction(context.Background(), storage.CreateTransactionParams{
		Kind:       core.KindExpense,
		UserID:     1,
		AccountID:  1,
		CategoryID: 5, // Salary, an income category
		Amount:     dec("10.00"),
		Date:       time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC),
	})
	if !errors.Is(err, core.ErrValidation) {
		t.Errorf("err = %v, want validation error", err)
	}
}

func TestForeignKeysOnEveryConnection(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	createExpense(t, store, "10.00")

	// Pin one pooled connection so the delete below must use another.
	held, err := store.db.Conn(ctx)
	if err != nil {
		t.Fatalf("hold connection: %v", err)
	}
	defer held.Close()

	err = store.DeleteAccount(ctx, 1)
	if !errors.Is(err, core.ErrReferentialConflict) {
		t.Errorf("delete on second connection: err = %v, want referential conflict", err)
	}

	// Every connection must report the pragma enabled, not just the first.
	// Hold them all open so the pool cannot hand back the same one.
	conns := []*sql.Conn{held}
	defer func() {
		for _, conn := range conns[1:] {
			conn.Close()
		}
	}()
	for i := 0; i < 3; i++ {
		conn, err := store.db.Conn(ctx)
		if err != nil {
			t.Fatalf("get connection %d: %v", i, err)
		}
		conns = append(conns, conn)
	}
	for i, conn := range conns {
		var enabled int
		if err := conn.QueryRowContext(ctx, `PRAGMA foreign_keys`).Scan(&enabled); err != nil {
			t.Fatalf("read pragma on connection %d: %v", i, err)
		}
		if enabled != 1 {
			t.Errorf("foreign_keys = %d on connection %d, want 1", enabled, i)
		}
	}
}

func TestDeleteReferencedAccountConflicts(t *testing.T) {
	store := newTestStore(t)

	createExpense(t, store, "10.00")
	err := store.DeleteAccount(context.Background(), 1)
	if !errors.Is(err, core.ErrReferentialConflict) {
		t.Errorf("err = %v, want referential conflict", err)
	}
	err = store.DeleteCategory(context.Background(), 1)
	if !errors.Is(err, core.ErrReferentialConflict) {
		t.Errorf("delete category: err = %v, want referential conflict", err)
	}
}

func TestTransfer(t *testing.T) {
	store := newTestStore(t)

	result, err := store.Transfer(context.Background(), storage.TransferParams{
		FromAccountID: 2,
		ToAccountID:   1,
		Amount:        dec("500.00"),
	})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if !result.FromBalance.Equal(dec("4500.00")) || !result.ToBalance.Equal(dec("1500.00")) {
		t.Errorf("result balances = %s/%s", result.FromBalance, result.ToBalance)
	}
	mustBalance(t, store, 1, "1500.00")
	mustBalance(t, store, 2, "4500.00")
}

func TestTransferInsufficientFunds(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Transfer(context.Background(), storage.TransferParams{
		FromAccountID: 1,
		ToAccountID:   2,
		Amount:        dec("2000.00"),
	})
	if !errors.Is(err, core.ErrInsufficientFunds) {
		t.Errorf("err = %v, want insufficient funds", err)
	}
	mustBalance(t, store, 1, "1000.00")
}

func TestTransferOverdraftAllowed(t *testing.T) {
	store := newTestStore(t)

	result, err := store.Transfer(context.Background(), storage.TransferParams{
		FromAccountID:  1,
		ToAccountID:    2,
		Amount:         dec("1500.00"),
		AllowOverdraft: true,
	})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if !result.FromBalance.Equal(dec("-500.00")) {
		t.Errorf("from balance = %s, want -500.00", result.FromBalance)
	}
}

func TestListTransactionsFilter(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, day := range []int{10, 15, 20} {
		if _, err := store.CreateTransaction(ctx, storage.CreateTransactionParams{
			Kind:       core.KindExpense,
			UserID:     1,
			AccountID:  1,
			CategoryID: 1,
			Amount:     dec("5.00"),
			Date:       time.Date(2026, 8, day, 0, 0, 0, 0, time.UTC),
		}); err != nil {
			t.Fatalf("create expense: %v", err)
		}
	}

	txns, err := store.ListTransactions(ctx, core.KindExpense, storage.TransactionFilter{
		From: time.Date(2026, 8, 12, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 8, 18, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(txns) != 1 || txns[0].Date.Day() != 15 {
		t.Errorf("filtered result = %+v, want single txn on day 15", txns)
	}

	txns, err = store.ListTransactions(ctx, core.KindExpense, storage.TransactionFilter{Limit: 2})
	if err != nil {
		t.Fatalf("list with limit: %v", err)
	}
	if len(txns) != 2 {
		t.Errorf("limited result = %d rows, want 2", len(txns))
	}
	if !txns[0].Date.After(txns[1].Date) {
		t.Errorf("expected newest first, got %s then %s", txns[0].Date, txns[1].Date)
	}
}
