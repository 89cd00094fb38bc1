package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"spendsight/internal/core"
	"spendsight/internal/storage"
)

type createTransactionRequest struct {
	AccountID   int64  `json:"account_id"`
	CategoryID  int64  `json:"category_id"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	Date        string `json:"date"`
}

type updateTransactionRequest struct {
	AccountID   *int64  `json:"account_id"`
	CategoryID  *int64  `json:"category_id"`
	Amount      *string `json:"amount"`
	Description *string `json:"description"`
	Date        *string `json:"date"`
}

// mountTransactionRoutes registers the expense and income resources, which
// share handlers parametrized by transaction kind.
func (s *Server) mountTransactionRoutes(r chi.Router) {
	for path, kind := range map[string]core.TransactionKind{
		"/expenses": core.KindExpense,
		"/incomes":  core.KindIncome,
	} {
		kind := kind
		r.Route(path, func(r chi.Router) {
			r.Get("/", s.handleListTransactions(kind))
			r.Post("/", s.handleCreateTransaction(kind))
			r.Get("/{id}", s.handleGetTransaction(kind))
			r.Put("/{id}", s.handleUpdateTransaction(kind))
			r.Delete("/{id}", s.handleDeleteTransaction(kind))
		})
	}
}

// parseFilter reads the optional list filters from query parameters.
func parseFilter(r *http.Request) (storage.TransactionFilter, error) {
	var filter storage.TransactionFilter
	q := r.URL.Query()

	for name, dst := range map[string]*int64{
		"account_id":  &filter.AccountID,
		"category_id": &filter.CategoryID,
	} {
		if raw := q.Get(name); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id <= 0 {
				return filter, core.Validationf("invalid %s %q", name, raw)
			}
			*dst = id
		}
	}
	for name, dst := range map[string]*time.Time{
		"from": &filter.From,
		"to":   &filter.To,
	} {
		if raw := q.Get(name); raw != "" {
			t, err := time.Parse(dateLayout, raw)
			if err != nil {
				return filter, core.Validationf("invalid %s date %q", name, raw)
			}
			*dst = t
		}
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return filter, core.Validationf("invalid limit %q", raw)
		}
		filter.Limit = limit
	}
	return filter, nil
}

func (s *Server) handleListTransactions(kind core.TransactionKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := parseFilter(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		txns, err := s.store.ListTransactions(r.Context(), kind, filter)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toTransactionViews(txns))
	}
}

func (s *Server) handleGetTransaction(kind core.TransactionKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			writeError(w, r, err)
			return
		}
		txn, err := s.store.GetTransaction(r.Context(), kind, id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toTransactionView(txn))
	}
}

func (s *Server) handleCreateTransaction(kind core.TransactionKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createTransactionRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		amount, err := core.ParseAmount(req.Amount)
		if err != nil {
			writeError(w, r, err)
			return
		}
		date, err := time.Parse(dateLayout, req.Date)
		if err != nil {
			writeError(w, r, core.Validationf("invalid date %q", req.Date))
			return
		}

		txn, err := s.ledger.CreateTransaction(r.Context(), storage.CreateTransactionParams{
			Kind:        kind,
			UserID:      defaultUserID,
			AccountID:   req.AccountID,
			CategoryID:  req.CategoryID,
			Amount:      amount,
			Description: req.Description,
			Date:        date,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		s.invalidateOverview()
		writeJSON(w, http.StatusCreated, toTransactionView(txn))
	}
}

func (s *Server) handleUpdateTransaction(kind core.TransactionKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			writeError(w, r, err)
			return
		}
		var req updateTransactionRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		params := storage.UpdateTransactionParams{
			AccountID:   req.AccountID,
			CategoryID:  req.CategoryID,
			Description: req.Description,
		}
		if req.Amount != nil {
			amount, err := core.ParseAmount(*req.Amount)
			if err != nil {
				writeError(w, r, err)
				return
			}
			params.Amount = &amount
		}
		if req.Date != nil {
			date, err := time.Parse(dateLayout, *req.Date)
			if err != nil {
				writeError(w, r, core.Validationf("invalid date %q", *req.Date))
				return
			}
			params.Date = &date
		}
		txn, err := s.ledger.UpdateTransaction(r.Context(), kind, id, params)
		if err != nil {
			writeError(w, r, err)
			return
		}
		s.invalidateOverview()
		writeJSON(w, http.StatusOK, toTransactionView(txn))
	}
}

func (s *Server) handleDeleteTransaction(kind core.TransactionKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			writeError(w, r, err)
			return
		}
		if err := s.ledger.DeleteTransaction(r.Context(), kind, id); err != nil {
			writeError(w, r, err)
			return
		}
		s.invalidateOverview()
		w.WriteHeader(http.StatusNoContent)
	}
}
