package http

import (
	"net/http"
	"strings"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

func (s *Server) handleListDebts(w http.ResponseWriter, r *http.Request) {
	summary, err := s.debts.Summary(r.Context())
	if err != nil {
		s.writeError(w, r, applog.OpList, err)
		return
	}
	writeJSON(w, s.views.debtSummary(summary))
}

func (s *Server) handleAddDebt(w http.ResponseWriter, r *http.Request) {
	var req debtRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}
	due, err := core.ParseDate(req.RepaymentDate)
	if err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}

	d, err := s.debts.Add(r.Context(), core.Debt{
		Direction:     core.Direction(strings.ToLower(strings.TrimSpace(req.Direction))),
		Counterparty:  sanitizeInput(req.Counterparty),
		Description:   sanitizeInput(req.Description),
		Amount:        core.Money{Cents: cents},
		RepaymentDate: due,
	})
	if err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}
	writeCreated(w, s.views.debt(d))
}

func (s *Server) handleDeleteDebt(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, applog.OpDelete, err)
		return
	}
	if err := s.debts.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, applog.OpDelete, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
