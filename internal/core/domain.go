package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	KindExpense TransactionKind = "expense"
	KindIncome  TransactionKind = "income"
)

type (
	// TransactionKind distinguishes expenses from incomes. Categories carry
	// the same kind; a transaction may only reference a category of its kind.
	TransactionKind string

	User struct {
		ID        int64
		Name      string
		Email     string
		CreatedAt time.Time
	}

	// Account is a named store of funds. Balance is mutated only through
	// ledger operations and must equal the signed sum of the account's
	// transaction history.
	Account struct {
		ID        int64
		UserID    int64
		Name      string
		Type      string
		Balance   decimal.Decimal
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	Category struct {
		ID   int64
		Name string
		Kind TransactionKind
	}

	// Transaction is an expense or income affecting one account's balance.
	// AccountName and CategoryName are denormalized for listings.
	Transaction struct {
		ID           int64
		Kind         TransactionKind
		UserID       int64
		AccountID    int64
		CategoryID   int64
		Amount       decimal.Decimal
		Description  string
		Date         time.Time
		CreatedAt    time.Time
		UpdatedAt    time.Time
		AccountName  string
		CategoryName string
	}
)

func (k TransactionKind) Valid() bool {
	return k == KindExpense || k == KindIncome
}

func (k TransactionKind) String() string {
	return string(k)
}

// SignedAmount returns the balance delta a transaction of this kind applies:
// negative for expenses, positive for incomes.
func (k TransactionKind) SignedAmount(amount decimal.Decimal) decimal.Decimal {
	if k == KindExpense {
		return amount.Neg()
	}
	return amount
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if !c.Kind.Valid() {
		return ErrInvalidKind
	}
	return nil
}

func (a Account) Validate() error {
	if a.UserID <= 0 {
		return ErrMissingUser
	}
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(a.Type) == "" {
		return ErrEmptyAccountType
	}
	return nil
}

func (t Transaction) Validate() error {
	if !t.Kind.Valid() {
		return ErrInvalidKind
	}
	if t.AccountID <= 0 {
		return ErrMissingAccount
	}
	if t.CategoryID <= 0 {
		return ErrMissingCategory
	}
	if err := ValidateAmount(t.Amount); err != nil {
		return err
	}
	if len(t.Description) > 200 {
		return ErrDescriptionTooLong
	}
	if t.Date.IsZero() {
		return ErrMissingDate
	}
	return nil
}
