package http

import (
	"net/http"
	"strings"
	"sync/atomic"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
)

// transactionFromRequest builds the transaction described by req. The
// amount is either a decimal string or a calculator expression; a date
// left empty means today.
func (s *Server) transactionFromRequest(req transactionRequest) (core.Transaction, error) {
	amount, err := parseAmount(req.Amount, req.AmountExpression, services.EvaluateAmount)
	if err != nil {
		return core.Transaction{}, err
	}
	date, err := parseDateOr(req.Date, today(s.now))
	if err != nil {
		return core.Transaction{}, err
	}
	account, err := core.ParseAccountType(req.Account)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		Kind:     core.Kind(strings.ToLower(strings.TrimSpace(req.Kind))),
		Account:  account,
		Category: sanitizeInput(req.Category),
		Amount:   amount,
		Date:     date,
		Notes:    sanitizeInput(req.Notes),
	}, nil
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}
	t, err := s.transactionFromRequest(req)
	if err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}

	saved, err := s.transactions.Create(r.Context(), t)
	if err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}
	atomic.AddInt64(&s.appMetrics.transactionsCreated, 1)
	s.logs.LogTransactionCreated(r.Context(), saved.ID, string(saved.Kind), saved.Category, saved.Amount.Cents)
	writeCreated(w, s.views.transaction(saved))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}
	t, err := s.transactions.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, s.views.transaction(t))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	t, err := s.transactionFromRequest(req)
	if err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	t.ID = id

	saved, err := s.transactions.Update(r.Context(), t)
	if err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	writeJSON(w, s.views.transaction(saved))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, applog.OpDelete, err)
		return
	}
	if err := s.transactions.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, applog.OpDelete, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

// handleListTransactions filters by ?from=&to=&kind=&category= and, with
// ?q=, narrows further to account or category matches.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	filter, query, err := parseTransactionQuery(r.URL.Query())
	if err != nil {
		s.writeError(w, r, applog.OpList, err)
		return
	}

	var txs []core.Transaction
	if query != "" {
		txs, err = s.transactions.Search(r.Context(), query, filter)
	} else {
		txs, err = s.transactions.List(r.Context(), filter)
	}
	if err != nil {
		s.writeError(w, r, applog.OpList, err)
		return
	}
	writeJSON(w, map[string]any{
		"transactions": s.views.transactions(txs),
		"count":        len(txs),
	})
}
