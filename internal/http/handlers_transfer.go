package http

import (
	"net/http"

	"spendsight/internal/core"
)

type transferRequest struct {
	FromAccountID int64  `json:"from_account_id"`
	ToAccountID   int64  `json:"to_account_id"`
	Amount        string `json:"amount"`
	Description   string `json:"description"`
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.FromAccountID <= 0 || req.ToAccountID <= 0 {
		writeError(w, r, core.Validationf("both account ids are required"))
		return
	}
	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	result, err := s.ledger.Transfer(r.Context(), req.FromAccountID, req.ToAccountID, amount, req.Description)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateOverview()
	writeJSON(w, http.StatusOK, toTransferView(result))
}
