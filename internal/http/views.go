package http

import (
	"spendsight/internal/core"
	"spendsight/internal/storage"
)

// JSON views. Monetary values travel as fixed two-decimal strings.

type accountView struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"user_id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Balance   string `json:"balance"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toAccountView(a core.Account) accountView {
	return accountView{
		ID:        a.ID,
		UserID:    a.UserID,
		Name:      a.Name,
		Type:      a.Type,
		Balance:   core.FormatAmount(a.Balance),
		CreatedAt: a.CreatedAt.Format(timestampLayout),
		UpdatedAt: a.UpdatedAt.Format(timestampLayout),
	}
}

type categoryView struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Kind string `json:"kind"`
}

func toCategoryView(c core.Category) categoryView {
	return categoryView{ID: c.ID, Name: c.Name, Kind: c.Kind.String()}
}

type transactionView struct {
	ID           int64  `json:"id"`
	Kind         string `json:"kind"`
	AccountID    int64  `json:"account_id"`
	AccountName  string `json:"account_name,omitempty"`
	CategoryID   int64  `json:"category_id"`
	CategoryName string `json:"category_name,omitempty"`
	Amount       string `json:"amount"`
	Description  string `json:"description"`
	Date         string `json:"date"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

func toTransactionView(t core.Transaction) transactionView {
	return transactionView{
		ID:           t.ID,
		Kind:         t.Kind.String(),
		AccountID:    t.AccountID,
		AccountName:  t.AccountName,
		CategoryID:   t.CategoryID,
		CategoryName: t.CategoryName,
		Amount:       core.FormatAmount(t.Amount),
		Description:  t.Description,
		Date:         t.Date.Format(dateLayout),
		CreatedAt:    t.CreatedAt.Format(timestampLayout),
		UpdatedAt:    t.UpdatedAt.Format(timestampLayout),
	}
}

func toTransactionViews(txns []core.Transaction) []transactionView {
	out := make([]transactionView, len(txns))
	for i, t := range txns {
		out[i] = toTransactionView(t)
	}
	return out
}

type transferView struct {
	FromAccountID int64  `json:"from_account_id"`
	ToAccountID   int64  `json:"to_account_id"`
	Amount        string `json:"amount"`
	FromBalance   string `json:"from_balance"`
	ToBalance     string `json:"to_balance"`
}

func toTransferView(r storage.TransferResult) transferView {
	return transferView{
		FromAccountID: r.FromAccountID,
		ToAccountID:   r.ToAccountID,
		Amount:        core.FormatAmount(r.Amount),
		FromBalance:   core.FormatAmount(r.FromBalance),
		ToBalance:     core.FormatAmount(r.ToBalance),
	}
}

type categoryTotalView struct {
	Category string `json:"category"`
	Total    string `json:"total"`
	Count    int    `json:"count"`
}

type monthlyTotalView struct {
	Month string `json:"month"`
	Total string `json:"total"`
}

type cashFlowView struct {
	Period   string `json:"period"`
	Income   string `json:"income"`
	Expenses string `json:"expenses"`
	Net      string `json:"net"`
}

type balancePointView struct {
	Date    string `json:"date"`
	Balance string `json:"balance"`
}
