// Package memory implements the storage interfaces with in-process maps.
// It backs the demo mode when no database is configured and doubles as the
// store used by handler and service tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"spendsight/internal/core"
	"spendsight/internal/storage"
)

type Store struct {
	mu sync.RWMutex

	users      map[int64]core.User
	accounts   map[int64]core.Account
	categories map[int64]core.Category
	expenses   map[int64]core.Transaction
	incomes    map[int64]core.Transaction

	nextUserID     int64
	nextAccountID  int64
	nextCategoryID int64
	nextExpenseID  int64
	nextIncomeID   int64

	now func() time.Time
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		users:      make(map[int64]core.User),
		accounts:   make(map[int64]core.Account),
		categories: make(map[int64]core.Category),
		expenses:   make(map[int64]core.Transaction),
		incomes:    make(map[int64]core.Transaction),
		now:        time.Now,
	}
}

func (s *Store) Close() error { return nil }

func (s *Store) txns(kind core.TransactionKind) (map[int64]core.Transaction, *int64) {
	if kind == core.KindExpense {
		return s.expenses, &s.nextExpenseID
	}
	return s.incomes, &s.nextIncomeID
}

// Seed loads the demo data set: one user, two accounts and a starter set of
// categories.
func (s *Store) Seed(ctx context.Context) error {
	user, err := s.CreateUser(ctx, "Demo User", "demo@spendsight.local")
	if err != nil {
		return err
	}
	if _, err := s.CreateAccount(ctx, storage.CreateAccountParams{
		UserID: user.ID, Name: "Checking", Type: "checking",
		InitialBalance: decimal.NewFromInt(1000),
	}); err != nil {
		return err
	}
	if _, err := s.CreateAccount(ctx, storage.CreateAccountParams{
		UserID: user.ID, Name: "Savings", Type: "savings",
		InitialBalance: decimal.NewFromInt(5000),
	}); err != nil {
		return err
	}
	seed := []core.Category{
		{Name: "Groceries", Kind: core.KindExpense},
		{Name: "Dining", Kind: core.KindExpense},
		{Name: "Transportation", Kind: core.KindExpense},
		{Name: "Utilities", Kind: core.KindExpense},
		{Name: "Salary", Kind: core.KindIncome},
	}
	for _, c := range seed {
		if _, err := s.CreateCategory(ctx, c.Name, c.Kind); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) CreateUser(_ context.Context, name, email string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextUserID++
	u := core.User{ID: s.nextUserID, Name: name, Email: email, CreatedAt: s.now()}
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) CreateAccount(_ context.Context, params storage.CreateAccountParams) (core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[params.UserID]; !ok {
		return core.Account{}, core.NotFoundf("user", params.UserID)
	}
	s.nextAccountID++
	now := s.now()
	a := core.Account{
		ID:        s.nextAccountID,
		UserID:    params.UserID,
		Name:      params.Name,
		Type:      params.Type,
		Balance:   params.InitialBalance,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.accounts[a.ID] = a
	return a, nil
}

func (s *Store) GetAccount(_ context.Context, id int64) (core.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[id]
	if !ok {
		return core.Account{}, core.NotFoundf("account", id)
	}
	return a, nil
}

func (s *Store) ListAccounts(_ context.Context) ([]core.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) UpdateAccount(_ context.Context, id int64, params storage.UpdateAccountParams) (core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return core.Account{}, core.NotFoundf("account", id)
	}
	if params.Name != nil {
		a.Name = *params.Name
	}
	if params.Type != nil {
		a.Type = *params.Type
	}
	if params.Balance != nil {
		a.Balance = *params.Balance
	}
	a.UpdatedAt = s.now()
	s.accounts[id] = a
	return a, nil
}

func (s *Store) DeleteAccount(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[id]; !ok {
		return core.NotFoundf("account", id)
	}
	for _, t := range s.expenses {
		if t.AccountID == id {
			return core.ErrReferentialConflict
		}
	}
	for _, t := range s.incomes {
		if t.AccountID == id {
			return core.ErrReferentialConflict
		}
	}
	delete(s.accounts, id)
	return nil
}

func (s *Store) CreateCategory(_ context.Context, name string, kind core.TransactionKind) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.categories {
		if c.Kind == kind && strings.EqualFold(c.Name, name) {
			return core.Category{}, core.Validationf("category %q already exists", name)
		}
	}
	s.nextCategoryID++
	c := core.Category{ID: s.nextCategoryID, Name: name, Kind: kind}
	s.categories[c.ID] = c
	return c, nil
}

func (s *Store) GetCategory(_ context.Context, id int64) (core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.categories[id]
	if !ok {
		return core.Category{}, core.NotFoundf("category", id)
	}
	return c, nil
}

func (s *Store) ListCategories(_ context.Context, kind core.TransactionKind) ([]core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.Category, 0, len(s.categories))
	for _, c := range s.categories {
		if kind != "" && c.Kind != kind {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) UpdateCategory(_ context.Context, id int64, name string, kind core.TransactionKind) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.categories[id]
	if !ok {
		return core.Category{}, core.NotFoundf("category", id)
	}
	if kind != c.Kind {
		// Changing kind would orphan existing transactions of the old kind.
		txns, _ := s.txns(c.Kind)
		for _, t := range txns {
			if t.CategoryID == id {
				return core.Category{}, core.ErrReferentialConflict
			}
		}
	}
	c.Name = name
	c.Kind = kind
	s.categories[id] = c
	return c, nil
}

func (s *Store) DeleteCategory(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.categories[id]
	if !ok {
		return core.NotFoundf("category", id)
	}
	txns, _ := s.txns(c.Kind)
	for _, t := range txns {
		if t.CategoryID == id {
			return core.ErrReferentialConflict
		}
	}
	delete(s.categories, id)
	return nil
}

func (s *Store) GetTransaction(_ context.Context, kind core.TransactionKind, id int64) (core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	txns, _ := s.txns(kind)
	t, ok := txns[id]
	if !ok {
		return core.Transaction{}, core.NotFoundf(kind.String(), id)
	}
	return s.annotate(t), nil
}

func (s *Store) ListTransactions(_ context.Context, kind core.TransactionKind, filter storage.TransactionFilter) ([]core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	txns, _ := s.txns(kind)
	out := make([]core.Transaction, 0, len(txns))
	for _, t := range txns {
		if filter.AccountID != 0 && t.AccountID != filter.AccountID {
			continue
		}
		if filter.CategoryID != 0 && t.CategoryID != filter.CategoryID {
			continue
		}
		if !filter.From.IsZero() && t.Date.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && t.Date.After(filter.To) {
			continue
		}
		out = append(out, s.annotate(t))
	}
	// Newest first, ties broken by id descending like the SQL backends.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// annotate fills the denormalized account and category names. Callers hold
// at least the read lock.
func (s *Store) annotate(t core.Transaction) core.Transaction {
	if a, ok := s.accounts[t.AccountID]; ok {
		t.AccountName = a.Name
	}
	if c, ok := s.categories[t.CategoryID]; ok {
		t.CategoryName = c.Name
	}
	return t
}

func (s *Store) CreateTransaction(_ context.Context, params storage.CreateTransactionParams) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[params.AccountID]
	if !ok {
		return core.Transaction{}, core.NotFoundf("account", params.AccountID)
	}
	c, ok := s.categories[params.CategoryID]
	if !ok {
		return core.Transaction{}, core.NotFoundf("category", params.CategoryID)
	}
	if c.Kind != params.Kind {
		return core.Transaction{}, core.Validationf("category %q is not an %s category", c.Name, params.Kind)
	}

	txns, nextID := s.txns(params.Kind)
	*nextID++
	now := s.now()
	t := core.Transaction{
		ID:          *nextID,
		Kind:        params.Kind,
		UserID:      params.UserID,
		AccountID:   params.AccountID,
		CategoryID:  params.CategoryID,
		Amount:      params.Amount,
		Description: params.Description,
		Date:        params.Date,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	txns[t.ID] = t

	a.Balance = a.Balance.Add(params.Kind.SignedAmount(params.Amount))
	a.UpdatedAt = now
	s.accounts[a.ID] = a

	return s.annotate(t), nil
}

func (s *Store) UpdateTransaction(_ context.Context, kind core.TransactionKind, id int64, params storage.UpdateTransactionParams) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	txns, _ := s.txns(kind)
	t, ok := txns[id]
	if !ok {
		return core.Transaction{}, core.NotFoundf(kind.String(), id)
	}

	next := t
	if params.AccountID != nil {
		next.AccountID = *params.AccountID
	}
	if params.CategoryID != nil {
		next.CategoryID = *params.CategoryID
	}
	if params.Amount != nil {
		next.Amount = *params.Amount
	}
	if params.Description != nil {
		next.Description = *params.Description
	}
	if params.Date != nil {
		next.Date = *params.Date
	}

	newAcct, ok := s.accounts[next.AccountID]
	if !ok {
		return core.Transaction{}, core.NotFoundf("account", next.AccountID)
	}
	c, ok := s.categories[next.CategoryID]
	if !ok {
		return core.Transaction{}, core.NotFoundf("category", next.CategoryID)
	}
	if c.Kind != kind {
		return core.Transaction{}, core.Validationf("category %q is not an %s category", c.Name, kind)
	}

	now := s.now()
	// Reverse the old effect on the old account, apply the new effect on
	// the (possibly different) new account.
	oldAcct := s.accounts[t.AccountID]
	oldAcct.Balance = oldAcct.Balance.Sub(kind.SignedAmount(t.Amount))
	oldAcct.UpdatedAt = now
	s.accounts[oldAcct.ID] = oldAcct

	newAcct = s.accounts[next.AccountID]
	newAcct.Balance = newAcct.Balance.Add(kind.SignedAmount(next.Amount))
	newAcct.UpdatedAt = now
	s.accounts[newAcct.ID] = newAcct

	next.UpdatedAt = now
	txns[id] = next
	return s.annotate(next), nil
}

func (s *Store) DeleteTransaction(_ context.Context, kind core.TransactionKind, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	txns, _ := s.txns(kind)
	t, ok := txns[id]
	if !ok {
		return core.NotFoundf(kind.String(), id)
	}
	if a, ok := s.accounts[t.AccountID]; ok {
		a.Balance = a.Balance.Sub(kind.SignedAmount(t.Amount))
		a.UpdatedAt = s.now()
		s.accounts[a.ID] = a
	}
	delete(txns, id)
	return nil
}

func (s *Store) Transfer(_ context.Context, params storage.TransferParams) (storage.TransferResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	from, ok := s.accounts[params.FromAccountID]
	if !ok {
		return storage.TransferResult{}, core.NotFoundf("account", params.FromAccountID)
	}
	to, ok := s.accounts[params.ToAccountID]
	if !ok {
		return storage.TransferResult{}, core.NotFoundf("account", params.ToAccountID)
	}
	if !params.AllowOverdraft && from.Balance.LessThan(params.Amount) {
		return storage.TransferResult{}, core.ErrInsufficientFunds
	}

	now := s.now()
	from.Balance = from.Balance.Sub(params.Amount)
	from.UpdatedAt = now
	to.Balance = to.Balance.Add(params.Amount)
	to.UpdatedAt = now
	s.accounts[from.ID] = from
	s.accounts[to.ID] = to

	return storage.TransferResult{
		FromAccountID: from.ID,
		ToAccountID:   to.ID,
		Amount:        params.Amount,
		FromBalance:   from.Balance,
		ToBalance:     to.Balance,
	}, nil
}
