package http

import (
	"net/http"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

func (s *Server) handleBudgetStatus(w http.ResponseWriter, r *http.Request) {
	month, err := parseYearMonth(r.URL.Query().Get("month"), today(s.now))
	if err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}
	summary, err := s.budgets.MonthStatus(r.Context(), month)
	if err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, s.views.budgetSummary(summary))
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}
	limit, err := core.ParseDecimalToCents(req.Limit)
	if err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}
	month, err := parseYearMonth(req.Month, today(s.now))
	if err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}

	b, err := s.budgets.SetBudget(r.Context(), sanitizeInput(req.Category), core.Money{Cents: limit}, month)
	if err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}
	writeCreated(w, s.views.budget(b))
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	limit, err := core.ParseDecimalToCents(req.Limit)
	if err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}

	b, err := s.budgets.UpdateLimit(r.Context(), id, core.Money{Cents: limit})
	if err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	writeJSON(w, s.views.budget(b))
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, applog.OpDelete, err)
		return
	}
	if err := s.budgets.DeleteBudget(r.Context(), id); err != nil {
		s.writeError(w, r, applog.OpDelete, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
