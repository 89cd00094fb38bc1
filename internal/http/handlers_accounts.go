package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"spendsight/internal/core"
	"spendsight/internal/storage"
)

type createAccountRequest struct {
	Name           string `json:"name"`
	Type           string `json:"type"`
	InitialBalance string `json:"initial_balance"`
}

type updateAccountRequest struct {
	Name    *string `json:"name"`
	Type    *string `json:"type"`
	Balance *string `json:"balance"`
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.store.ListAccounts(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	views := make([]accountView, len(accounts))
	for i, a := range accounts {
		views[i] = toAccountView(a)
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	account, err := s.store.GetAccount(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountView(account))
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	balance := decimal.Zero
	if req.InitialBalance != "" {
		parsed, err := decimal.NewFromString(req.InitialBalance)
		if err != nil {
			writeError(w, r, core.Validationf("initial balance %q is not a number", req.InitialBalance))
			return
		}
		balance = parsed
	}

	shape := core.Account{UserID: defaultUserID, Name: req.Name, Type: req.Type}
	if err := shape.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	account, err := s.store.CreateAccount(r.Context(), storage.CreateAccountParams{
		UserID:         defaultUserID,
		Name:           req.Name,
		Type:           req.Type,
		InitialBalance: balance,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateOverview()
	writeJSON(w, http.StatusCreated, toAccountView(account))
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req updateAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Name == nil && req.Type == nil && req.Balance == nil {
		writeError(w, r, core.Validationf("no fields to update"))
		return
	}
	if req.Name != nil && *req.Name == "" {
		writeError(w, r, core.ErrEmptyName)
		return
	}
	if req.Type != nil && *req.Type == "" {
		writeError(w, r, core.ErrEmptyAccountType)
		return
	}

	// Setting the balance directly is an administrative correction; it may be
	// negative but keeps the two-decimal precision rule.
	var balance *decimal.Decimal
	if req.Balance != nil {
		parsed, err := decimal.NewFromString(*req.Balance)
		if err != nil {
			writeError(w, r, core.Validationf("balance %q is not a number", *req.Balance))
			return
		}
		if !parsed.Equal(parsed.Round(2)) {
			writeError(w, r, core.ErrAmountPrecision)
			return
		}
		balance = &parsed
	}

	account, err := s.store.UpdateAccount(r.Context(), id, storage.UpdateAccountParams{
		Name:    req.Name,
		Type:    req.Type,
		Balance: balance,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateOverview()
	writeJSON(w, http.StatusOK, toAccountView(account))
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.store.DeleteAccount(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateOverview()
	w.WriteHeader(http.StatusNoContent)
}
