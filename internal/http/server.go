package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/calc"
	applog "fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/ports"
	"fintrack/internal/services"
)

const (
	defaultSessionCacheSize = 1000
	defaultSessionTTL       = 30 * time.Minute
	cacheCleanupInterval    = 10 * time.Minute
)

// Pinger is a dependency that can report whether it is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options carries the collaborators of a Server. Ready is optional; when
// nil readiness only reflects the server itself.
type Options struct {
	Transactions *services.TransactionService
	Budgets      *services.BudgetService
	Analytics    *services.AnalyticsService
	Debts        *services.DebtService
	Taxonomy     ports.TaxonomyReader
	Ready        Pinger
	Logger       *applog.Logger

	RateLimitPerMinute int
	CurrencySymbol     string
}

type appMetrics struct {
	uptime              time.Time
	transactionsCreated int64
	evaluations         int64
	evaluationErrors    int64
	keyPresses          int64
}

type Server struct {
	http.Server

	transactions *services.TransactionService
	budgets      *services.BudgetService
	analytics    *services.AnalyticsService
	debts        *services.DebtService
	taxonomy     ports.TaxonomyReader
	ready        Pinger
	sessions     *calc.Sessions
	views        views
	now          func() time.Time

	caches           *cache.Manager
	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	logs             *applog.StructuredLogger
	appMetrics       *appMetrics

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	currency := opts.CurrencySymbol
	if currency == "" {
		currency = "€"
	}

	detector := security.NewDetector()
	logs := applog.NewStructuredLogger(logger)
	s := &Server{
		transactions:     opts.Transactions,
		budgets:          opts.Budgets,
		analytics:        opts.Analytics,
		debts:            opts.Debts,
		taxonomy:         opts.Taxonomy,
		ready:            opts.Ready,
		sessions:         calc.NewSessions(defaultSessionCacheSize, defaultSessionTTL),
		views:            views{currency: currency},
		now:              time.Now,
		caches:           cache.NewManager(),
		securityDetector: detector,
		traceMiddleware:  trace.NewMiddleware(detector.ExtractClientIP, logs),
		logs:             logs,
		appMetrics:       &appMetrics{uptime: time.Now()},
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.RateLimitPerMinute,
			Exempt:            ratelimit.SafeMethods,
		}),
	}

	s.caches.Register(s.sessions.Cleaner())
	if s.analytics != nil {
		s.caches.Register(s.analytics.Cleaner())
	}
	s.caches.StartCleanup(cacheCleanupInterval)

	mux := http.NewServeMux()
	s.routes(mux)

	var handler http.Handler = mux
	handler = s.rateLimiter.Middleware(detector.ExtractClientIP, s.handleRateLimited)(handler)
	handler = detector.Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = applog.RequestIDMiddleware(trace.RequestID)(handler)
	handler = applog.Middleware(logger.WithComponent(applog.ComponentHTTP))(handler)
	handler = s.traceMiddleware.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("POST /api/calc/evaluate", s.handleEvaluate)
	mux.HandleFunc("POST /api/calc/sessions/{id}/keys", s.handlePressKey)
	mux.HandleFunc("DELETE /api/calc/sessions/{id}", s.handleDropSession)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("GET /api/transactions/{id}", s.handleGetTransaction)
	mux.HandleFunc("PUT /api/transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("GET /api/budgets", s.handleBudgetStatus)
	mux.HandleFunc("POST /api/budgets", s.handleSetBudget)
	mux.HandleFunc("PUT /api/budgets/{id}", s.handleUpdateBudget)
	mux.HandleFunc("DELETE /api/budgets/{id}", s.handleDeleteBudget)

	mux.HandleFunc("GET /api/analytics/breakdown", s.handleBreakdown)
	mux.HandleFunc("GET /api/analytics/balance", s.handleBalance)
	mux.HandleFunc("GET /api/analytics/overview", s.handleOverview)

	mux.HandleFunc("GET /api/debts", s.handleListDebts)
	mux.HandleFunc("POST /api/debts", s.handleAddDebt)
	mux.HandleFunc("DELETE /api/debts/{id}", s.handleDeleteDebt)

	mux.HandleFunc("GET /api/categories", s.handleCategories)
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.securityDetector.ExtractClientIP(r),
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, try again later").Write(w)
}

// Shutdown stops background cleanup and then the HTTP server. Only the
// first call has any effect.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
