package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"finboard/internal/core"
	"finboard/internal/ledger"
	"finboard/internal/log"
	"finboard/internal/pipeline"
	"finboard/internal/transfer"
)

// importFailedMessage is shown for any rejected import file.
const importFailedMessage = "Import failed. Ensure the file is valid JSON or CSV."

// viewResponse is a View plus preformatted strings for display.
type viewResponse struct {
	pipeline.View
	Currency string      `json:"currency"`
	Display  viewDisplay `json:"display"`
	// ID is set when the request created a transaction.
	ID string `json:"id,omitempty"`
}

type viewDisplay struct {
	Income   string `json:"totalIncome"`
	Expenses string `json:"totalExpenses"`
	Balance  string `json:"balance"`
	Footer   string `json:"footer"`
}

func (s *Server) present(v pipeline.View) viewResponse {
	return viewResponse{
		View:     v,
		Currency: s.currency,
		Display: viewDisplay{
			Income:   v.Summary.Income.Format(s.currency),
			Expenses: v.Summary.Expenses.Format(s.currency),
			Balance:  v.Summary.Balance.Format(s.currency),
			Footer:   footer(v.Count, v.Net, s.currency),
		},
	}
}

// handleHealth performs a basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	}).Write(w)
}

// handleReady checks the storage backend and that the ledger has loaded
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]string{"storage": "ok", "ledger": "ok"}
	status, code := "ready", http.StatusOK

	if s.ready != nil {
		if err := s.ready(ctx); err != nil {
			checks["storage"] = "failed: " + err.Error()
			status, code = "not_ready", http.StatusServiceUnavailable
		}
	}
	if s.service.Revision() == 0 {
		checks["ledger"] = "not loaded"
		status, code = "not_ready", http.StatusServiceUnavailable
	}

	NewJSONResponse().Status(code).Body(map[string]any{
		"status": status,
		"checks": checks,
	}).Write(w)
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	v := s.service.View(r.Context(), filterFromQuery(r))
	NewJSONResponse().Body(s.present(v)).Write(w)
}

// apply runs cmd and writes the resulting view with status on success.
func (s *Server) apply(w http.ResponseWriter, r *http.Request, cmd ledger.Command, status int) {
	v, out, err := s.service.Apply(r.Context(), cmd, filterFromQuery(r))
	if err != nil {
		s.writeError(w, r, cmd.Name(), err)
		return
	}
	resp := s.present(v)
	resp.ID = out.ID
	NewJSONResponse().Status(status).Body(resp).Write(w)
}

// writeError maps domain and request errors onto HTTP responses.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var (
		reqErr *RequestError
		verr   *core.ValidationError
	)
	switch {
	case errors.Is(err, errMalformedBody):
		BadRequestError(errMalformedBody.Error()).Write(w)
	case errors.As(err, &reqErr):
		UnprocessableEntityError(reqErr.Message, reqErr.Fields...).Write(w)
	case errors.As(err, &verr):
		fields := make([]FieldIssue, 0, len(verr.Fields))
		for _, f := range verr.Fields {
			fields = append(fields, FieldIssue{Field: f.Field, Message: f.Err.Error()})
		}
		UnprocessableEntityError("invalid transaction", fields...).Write(w)
	case errors.Is(err, ledger.ErrNotFound):
		NotFoundError("transaction not found").Write(w)
	case errors.Is(err, transfer.ErrInvalidImport):
		BadRequestError(importFailedMessage).Write(w)
	case errors.Is(err, core.ErrInvalidTheme), errors.Is(err, core.ErrInvalidAmount):
		UnprocessableEntityError(err.Error()).Write(w)
	default:
		log.LogError(r.Context(), log.FromContext(r.Context()), "Request failed", err, op, nil)
		InternalServerError("internal error").Write(w)
	}
}
