package http

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status":    "ok",
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).Round(time.Second).String(),
	})
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.transactions == nil {
		checks["services"] = "not_configured"
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["services"] = "ok"
	}

	if s.ready == nil {
		checks["store"] = "ok"
	} else if err := s.ready.Ping(ctx); err != nil {
		checks["store"] = fmt.Sprintf("failed: %v", err)
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["store"] = "ok"
	}

	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}

	NewJSONResponse().Status(httpStatus).Body(map[string]any{
		"status":    status,
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	security := s.securityDetector.GetMetrics()
	limits := s.rateLimiter.GetMetrics()
	traffic := s.traceMiddleware.GetMetrics()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	metric := func(name, kind, help string, value int64) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %d\n\n", name, help, name, kind, name, value)
	}
	metric("http_requests_total", "counter", "Total number of HTTP requests", traffic.TotalRequests)
	metric("http_response_time_avg_microseconds", "gauge", "Average response time", traffic.AverageResponseTime)
	metric("transactions_created_total", "counter", "Transactions created through the API", atomic.LoadInt64(&s.appMetrics.transactionsCreated))
	metric("calc_evaluations_total", "counter", "Expressions evaluated", atomic.LoadInt64(&s.appMetrics.evaluations))
	metric("calc_evaluation_errors_total", "counter", "Expressions rejected by the evaluator", atomic.LoadInt64(&s.appMetrics.evaluationErrors))
	metric("calc_key_presses_total", "counter", "Keypad presses across sessions", atomic.LoadInt64(&s.appMetrics.keyPresses))
	metric("rate_limit_hits_total", "counter", "Requests rejected by the rate limiter", limits.TotalHits)
	metric("rate_limit_active_clients", "gauge", "Clients tracked by the rate limiter", limits.ClientCount)
	metric("security_suspicious_requests_total", "counter", "Requests matching a suspicious pattern", security.SuspiciousRequests)
	metric("security_invalid_ip_attempts_total", "counter", "Forwarded headers with an unusable address", security.InvalidIPAttempts)
	metric("uptime_seconds", "gauge", "Seconds since the server started", int64(time.Since(s.appMetrics.uptime).Seconds()))
}
