package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"finboard/internal/ledger"
)

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	in, err := parseTransaction(w, r)
	if err != nil {
		s.writeError(w, r, "add_transaction", err)
		return
	}
	s.apply(w, r, ledger.AddTransaction{Input: in}, http.StatusCreated)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := s.service.Find(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, "get_transaction", err)
		return
	}
	NewJSONResponse().Body(t).Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	in, err := parseTransaction(w, r)
	if err != nil {
		s.writeError(w, r, "edit_transaction", err)
		return
	}
	s.apply(w, r, ledger.EditTransaction{ID: chi.URLParam(r, "id"), Input: in}, http.StatusOK)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	s.apply(w, r, ledger.DeleteTransactions{IDs: []string{chi.URLParam(r, "id")}}, http.StatusOK)
}

func (s *Server) handleDeleteTransactions(w http.ResponseWriter, r *http.Request) {
	ids, err := parseDelete(w, r)
	if err != nil {
		s.writeError(w, r, "delete_transactions", err)
		return
	}
	s.apply(w, r, ledger.DeleteTransactions{IDs: ids}, http.StatusOK)
}
