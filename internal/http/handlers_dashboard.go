package http

import (
	"net/http"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"spendsight/internal/core"
	"spendsight/internal/storage"
)

// overviewData feeds the dashboard partial. It is cached briefly and
// invalidated on every write, so the HTMX polling stays cheap.
type overviewData struct {
	Accounts     []accountView
	TotalBalance string
	MonthIncome  string
	MonthExpense string
	MonthNet     string
	Recent       []transactionView
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	data := struct {
		Today string
	}{
		Today: time.Now().Format(dateLayout),
	}
	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleOverviewPartial(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	data, ok := s.overviewCache.Get(overviewCacheKey)
	if !ok {
		built, err := s.buildOverview(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		s.overviewCache.Set(overviewCacheKey, built)
		data = built
	}

	if err := s.templates.ExecuteTemplate(w, "overview.html", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) buildOverview(r *http.Request) (overviewData, error) {
	ctx := r.Context()

	accounts, err := s.store.ListAccounts(ctx)
	if err != nil {
		return overviewData{}, err
	}
	total := decimal.Zero
	accountViews := make([]accountView, len(accounts))
	for i, a := range accounts {
		total = total.Add(a.Balance)
		accountViews[i] = toAccountView(a)
	}

	flows, err := s.store.CashFlow(ctx, storage.PeriodMonthly, 1)
	if err != nil {
		return overviewData{}, err
	}
	var income, expenses, net decimal.Decimal
	if len(flows) > 0 {
		current := flows[len(flows)-1]
		income = current.Income
		expenses = current.Expenses
		net = current.Net
	}

	recent, err := s.recentTransactions(r)
	if err != nil {
		return overviewData{}, err
	}

	return overviewData{
		Accounts:     accountViews,
		TotalBalance: core.FormatAmount(total),
		MonthIncome:  core.FormatAmount(income),
		MonthExpense: core.FormatAmount(expenses),
		MonthNet:     core.FormatAmount(net),
		Recent:       recent,
	}, nil
}

// recentTransactions merges the latest expenses and incomes, newest first.
func (s *Server) recentTransactions(r *http.Request) ([]transactionView, error) {
	const limit = 10

	var merged []core.Transaction
	for _, kind := range []core.TransactionKind{core.KindExpense, core.KindIncome} {
		txns, err := s.store.ListTransactions(r.Context(), kind, storage.TransactionFilter{Limit: limit})
		if err != nil {
			return nil, err
		}
		merged = append(merged, txns...)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Date.After(merged[j].Date)
	})
	if len(merged) > limit {
		merged = merged[:limit]
	}
	return toTransactionViews(merged), nil
}
