package http

import (
	"net/http"
	"strconv"
	"time"

	"spendsight/internal/core"
	"spendsight/internal/storage"
)

const (
	defaultReportMonths = 6
	defaultHistoryDays  = 30
	maxReportMonths     = 60
	maxHistoryDays      = 365
)

// dateRange reads from/to query parameters, defaulting to the last 30 days.
func dateRange(r *http.Request) (time.Time, time.Time, error) {
	now := time.Now()
	from := now.AddDate(0, 0, -30)
	to := now

	if raw := r.URL.Query().Get("from"); raw != "" {
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			return time.Time{}, time.Time{}, core.Validationf("invalid from date %q", raw)
		}
		from = t
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			return time.Time{}, time.Time{}, core.Validationf("invalid to date %q", raw)
		}
		to = t
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, core.Validationf("to date precedes from date")
	}
	return from, to, nil
}

// spanParam reads a positive integer query parameter with a default and cap.
func spanParam(r *http.Request, name string, fallback, max int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 || n > max {
		return 0, core.Validationf("invalid %s %q", name, raw)
	}
	return n, nil
}

func (s *Server) handleExpensesByCategory(w http.ResponseWriter, r *http.Request) {
	from, to, err := dateRange(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rows, err := s.store.ExpensesByCategory(r.Context(), from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	views := make([]categoryTotalView, len(rows))
	for i, row := range rows {
		views[i] = categoryTotalView{
			Category: row.Category,
			Total:    core.FormatAmount(row.Total),
			Count:    row.Count,
		}
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleMonthlyExpenses(w http.ResponseWriter, r *http.Request) {
	months, err := spanParam(r, "months", defaultReportMonths, maxReportMonths)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rows, err := s.store.MonthlyExpenses(r.Context(), months)
	if err != nil {
		writeError(w, r, err)
		return
	}
	views := make([]monthlyTotalView, len(rows))
	for i, row := range rows {
		views[i] = monthlyTotalView{Month: row.Month, Total: core.FormatAmount(row.Total)}
	}
	writeJSON(w, http.StatusOK, views)
}

// periodSpan maps each grouping period to its default and maximum span.
func periodSpan(period storage.Period) (fallback, max int) {
	switch period {
	case storage.PeriodDaily:
		return defaultHistoryDays, maxHistoryDays
	case storage.PeriodYearly:
		return 3, 20
	default:
		return defaultReportMonths, maxReportMonths
	}
}

func (s *Server) handleCashFlow(w http.ResponseWriter, r *http.Request) {
	period := storage.PeriodMonthly
	if raw := r.URL.Query().Get("period"); raw != "" {
		period = storage.Period(raw)
		if !period.Valid() {
			writeError(w, r, core.Validationf("invalid period %q", raw))
			return
		}
	}
	fallback, max := periodSpan(period)
	span, err := spanParam(r, "span", fallback, max)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rows, err := s.store.CashFlow(r.Context(), period, span)
	if err != nil {
		writeError(w, r, err)
		return
	}
	views := make([]cashFlowView, len(rows))
	for i, row := range rows {
		views[i] = cashFlowView{
			Period:   row.Period,
			Income:   core.FormatAmount(row.Income),
			Expenses: core.FormatAmount(row.Expenses),
			Net:      core.FormatAmount(row.Net),
		}
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleBalanceHistory(w http.ResponseWriter, r *http.Request) {
	accountID, err := idParam(r, "accountID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	days, err := spanParam(r, "days", defaultHistoryDays, maxHistoryDays)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rows, err := s.store.BalanceHistory(r.Context(), accountID, days)
	if err != nil {
		writeError(w, r, err)
		return
	}
	views := make([]balancePointView, len(rows))
	for i, row := range rows {
		views[i] = balancePointView{Date: row.Date, Balance: core.FormatAmount(row.Balance)}
	}
	writeJSON(w, http.StatusOK, views)
}
