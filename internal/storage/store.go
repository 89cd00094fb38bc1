// Package storage defines the repository interfaces the application is
// programmed against and the parameter types shared by all backends.
package storage

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"spendsight/internal/core"
)

// Store aggregates all repositories a backend must provide.
type Store interface {
	AccountStore
	CategoryStore
	TransactionStore
	LedgerStore
	ReportStore

	Close() error
}

// AccountStore manages accounts. Balance changes go through LedgerStore;
// UpdateAccount touches name and type only.
type AccountStore interface {
	CreateAccount(ctx context.Context, params CreateAccountParams) (core.Account, error)
	GetAccount(ctx context.Context, id int64) (core.Account, error)
	ListAccounts(ctx context.Context) ([]core.Account, error)
	UpdateAccount(ctx context.Context, id int64, params UpdateAccountParams) (core.Account, error)
	DeleteAccount(ctx context.Context, id int64) error
}

type CategoryStore interface {
	CreateCategory(ctx context.Context, name string, kind core.TransactionKind) (core.Category, error)
	GetCategory(ctx context.Context, id int64) (core.Category, error)
	ListCategories(ctx context.Context, kind core.TransactionKind) ([]core.Category, error)
	UpdateCategory(ctx context.Context, id int64, name string, kind core.TransactionKind) (core.Category, error)
	DeleteCategory(ctx context.Context, id int64) error
}

// TransactionStore reads expenses and incomes. Writes go through LedgerStore
// so balance updates stay atomic with the transaction rows.
type TransactionStore interface {
	GetTransaction(ctx context.Context, kind core.TransactionKind, id int64) (core.Transaction, error)
	ListTransactions(ctx context.Context, kind core.TransactionKind, filter TransactionFilter) ([]core.Transaction, error)
}

// LedgerStore performs the balance-mutating operations. Each method is a
// single atomic unit: either the transaction rows and every touched account
// balance change together, or nothing changes.
type LedgerStore interface {
	CreateTransaction(ctx context.Context, params CreateTransactionParams) (core.Transaction, error)
	UpdateTransaction(ctx context.Context, kind core.TransactionKind, id int64, params UpdateTransactionParams) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, kind core.TransactionKind, id int64) error
	Transfer(ctx context.Context, params TransferParams) (TransferResult, error)
}

type ReportStore interface {
	ExpensesByCategory(ctx context.Context, from, to time.Time) ([]CategoryTotal, error)
	MonthlyExpenses(ctx context.Context, months int) ([]MonthlyTotal, error)
	CashFlow(ctx context.Context, period Period, span int) ([]CashFlowRow, error)
	BalanceHistory(ctx context.Context, accountID int64, days int) ([]BalancePoint, error)
}

// Period selects the bucket size for the cash-flow report.
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodMonthly Period = "monthly"
	PeriodYearly  Period = "yearly"
)

func (p Period) Valid() bool {
	switch p {
	case PeriodDaily, PeriodMonthly, PeriodYearly:
		return true
	}
	return false
}

// Layout returns the time format producing the bucket key for the period.
func (p Period) Layout() string {
	switch p {
	case PeriodDaily:
		return "2006-01-02"
	case PeriodYearly:
		return "2006"
	default:
		return "2006-01"
	}
}

// Buckets returns the period keys for the last n buckets ending with the
// one containing now, oldest first.
func (p Period) Buckets(now time.Time, n int) []string {
	keys := make([]string, 0, n)
	switch p {
	case PeriodDaily:
		day := now.UTC().Truncate(24 * time.Hour)
		for i := n - 1; i >= 0; i-- {
			keys = append(keys, day.AddDate(0, 0, -i).Format(p.Layout()))
		}
	case PeriodYearly:
		first := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
		for i := n - 1; i >= 0; i-- {
			keys = append(keys, first.AddDate(-i, 0, 0).Format(p.Layout()))
		}
	default:
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		for i := n - 1; i >= 0; i-- {
			keys = append(keys, first.AddDate(0, -i, 0).Format(p.Layout()))
		}
	}
	return keys
}

type CreateAccountParams struct {
	UserID         int64
	Name           string
	Type           string
	InitialBalance decimal.Decimal
}

// UpdateAccountParams carries the mutable account fields. Nil means leave
// the field unchanged. Balance overwrites the computed balance directly and
// is meant for administrative corrections, not regular bookkeeping.
type UpdateAccountParams struct {
	Name    *string
	Type    *string
	Balance *decimal.Decimal
}

type CreateTransactionParams struct {
	Kind        core.TransactionKind
	UserID      int64
	AccountID   int64
	CategoryID  int64
	Amount      decimal.Decimal
	Description string
	Date        time.Time
}

// UpdateTransactionParams carries the mutable transaction fields. Nil means
// leave the field unchanged. Changing AccountID moves the balance effect
// from the old account to the new one.
type UpdateTransactionParams struct {
	AccountID   *int64
	CategoryID  *int64
	Amount      *decimal.Decimal
	Description *string
	Date        *time.Time
}

type TransferParams struct {
	FromAccountID int64
	ToAccountID   int64
	Amount        decimal.Decimal
	Description   string
	// AllowOverdraft skips the source balance check.
	AllowOverdraft bool
}

// TransferResult reports both post-transfer balances.
type TransferResult struct {
	FromAccountID int64
	ToAccountID   int64
	Amount        decimal.Decimal
	FromBalance   decimal.Decimal
	ToBalance     decimal.Decimal
}

// TransactionFilter narrows ListTransactions. Zero values mean no filter.
type TransactionFilter struct {
	AccountID  int64
	CategoryID int64
	From       time.Time
	To         time.Time
	Limit      int
}

type CategoryTotal struct {
	Category string
	Total    decimal.Decimal
	Count    int
}

type MonthlyTotal struct {
	Month string
	Total decimal.Decimal
}

type CashFlowRow struct {
	Period   string
	Income   decimal.Decimal
	Expenses decimal.Decimal
	Net      decimal.Decimal
}

type BalancePoint struct {
	Date    string
	Balance decimal.Decimal
}
