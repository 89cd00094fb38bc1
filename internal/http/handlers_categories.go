package http

import (
	"net/http"

	"spendsight/internal/core"
)

type categoryRequest struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	kind := core.TransactionKind(r.URL.Query().Get("kind"))
	if kind != "" && !kind.Valid() {
		writeError(w, r, core.ErrInvalidKind)
		return
	}
	categories, err := s.store.ListCategories(r.Context(), kind)
	if err != nil {
		writeError(w, r, err)
		return
	}
	views := make([]categoryView, len(categories))
	for i, c := range categories {
		views[i] = toCategoryView(c)
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	category, err := s.store.GetCategory(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryView(category))
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	shape := core.Category{Name: req.Name, Kind: core.TransactionKind(req.Kind)}
	if err := shape.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	category, err := s.store.CreateCategory(r.Context(), req.Name, shape.Kind)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCategoryView(category))
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	shape := core.Category{Name: req.Name, Kind: core.TransactionKind(req.Kind)}
	if err := shape.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	category, err := s.store.UpdateCategory(r.Context(), id, req.Name, shape.Kind)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryView(category))
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.store.DeleteCategory(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
