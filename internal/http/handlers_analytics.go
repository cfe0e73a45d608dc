package http

import (
	"net/http"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

// handleBreakdown serves ?kind=&period=&date=. Defaults are expenses of
// the current month.
func (s *Server) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	kind, err := parseKind(q.Get("kind"), core.Expense)
	if err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}
	period, err := parsePeriod(q.Get("period"), core.Monthly)
	if err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}
	anchor, err := parseDateOr(q.Get("date"), today(s.now))
	if err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}

	b, err := s.analytics.Breakdown(r.Context(), kind, period, anchor)
	if err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, s.views.breakdown(b))
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	period, err := parsePeriod(q.Get("period"), core.Monthly)
	if err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}
	anchor, err := parseDateOr(q.Get("date"), today(s.now))
	if err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}

	b, err := s.analytics.Balance(r.Context(), period, anchor)
	if err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, s.views.balance(b))
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	params, err := ParseMonthParams(r.URL.Query(), today(s.now))
	if err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}
	ov, err := s.analytics.MonthOverview(r.Context(), params.Year, params.Month)
	if err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, s.views.overview(ov))
}
