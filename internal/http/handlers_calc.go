package http

import (
	"errors"
	"net/http"
	"strings"
	"sync/atomic"

	"fintrack/internal/calc"
	applog "fintrack/internal/log"
)

const maxSessionIDLen = 64

type evaluateRequest struct {
	Expression string `json:"expression"`
}

type evaluateResponse struct {
	Expression string  `json:"expression"`
	Result     float64 `json:"result"`
}

type keyRequest struct {
	Key string `json:"key"`
}

type keyResponse struct {
	Display string   `json:"display"`
	Amount  *float64 `json:"amount,omitempty"`
	Error   string   `json:"error,omitempty"`
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, applog.OpEvaluate, err)
		return
	}

	atomic.AddInt64(&s.appMetrics.evaluations, 1)
	result, err := calc.Evaluate(req.Expression)
	if err != nil {
		atomic.AddInt64(&s.appMetrics.evaluationErrors, 1)
		s.writeError(w, r, applog.OpEvaluate, err)
		return
	}
	writeJSON(w, evaluateResponse{Expression: req.Expression, Result: result})
}

// handlePressKey drives a keypad session. A failed "=" is not an HTTP
// error: the keypad shows "Error" and the response carries the reason.
// Keys that are not on the keypad are rejected with 422.
func (s *Server) handlePressKey(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" || len(id) > maxSessionIDLen {
		s.writeError(w, r, applog.OpPress, errBadParam)
		return
	}
	var req keyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, applog.OpPress, err)
		return
	}

	atomic.AddInt64(&s.appMetrics.keyPresses, 1)
	res, err := s.sessions.Press(id, req.Key)
	if errors.Is(err, calc.ErrUnknownKey) {
		s.writeError(w, r, applog.OpPress, err)
		return
	}

	out := keyResponse{Display: res.Display, Amount: res.Amount}
	if err != nil {
		atomic.AddInt64(&s.appMetrics.evaluationErrors, 1)
		out.Error = err.Error()
	}
	writeJSON(w, out)
}

func (s *Server) handleDropSession(w http.ResponseWriter, r *http.Request) {
	s.sessions.Drop(r.PathValue("id"))
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
