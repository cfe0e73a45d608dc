package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fintrack/internal/calc"
	"fintrack/internal/categories"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/memory"
	"fintrack/internal/services"
)

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	store := memory.New()
	tax := categories.Default()

	txs := services.NewTransactionService(store, tax, nil)
	analytics := services.NewAnalyticsService(store)
	txs.OnChange(analytics.Invalidate)

	opts.Transactions = txs
	opts.Budgets = services.NewBudgetService(store, store, tax)
	opts.Analytics = analytics
	opts.Debts = services.NewDebtService(store)
	opts.Taxonomy = tax
	opts.Logger = applog.New(applog.Config{Output: io.Discard, Component: applog.ComponentApp})
	if opts.RateLimitPerMinute == 0 {
		opts.RateLimitPerMinute = 1000
	}

	srv := NewServer(":0", opts)
	srv.now = func() time.Time { return time.Date(2024, 5, 17, 15, 4, 5, 0, time.UTC) }
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("status = %d, want %d; body: %s", rr.Code, want, rr.Body.String())
	}
}

func TestOpsEndpoints(t *testing.T) {
	srv := newTestServer(t, Options{Ready: fakePinger{}})

	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		rr := do(t, srv, http.MethodGet, path, "")
		expectStatus(t, rr, http.StatusOK)
	}

	rr := do(t, srv, http.MethodGet, "/metrics", "")
	for _, name := range []string{"http_requests_total", "calc_evaluations_total", "rate_limit_hits_total"} {
		if !strings.Contains(rr.Body.String(), name) {
			t.Errorf("metrics missing %s", name)
		}
	}

	down := newTestServer(t, Options{Ready: fakePinger{err: errors.New("database is locked")}})
	rr = do(t, down, http.MethodGet, "/readyz", "")
	expectStatus(t, rr, http.StatusServiceUnavailable)
	if !strings.Contains(rr.Body.String(), "database is locked") {
		t.Errorf("readyz body = %s", rr.Body.String())
	}
}

func TestMiddlewareChain(t *testing.T) {
	srv := newTestServer(t, Options{})
	rr := do(t, srv, http.MethodGet, "/healthz", "")

	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing security headers")
	}

	rr = do(t, srv, http.MethodGet, "/api/calc/evaluate", "")
	expectStatus(t, rr, http.StatusMethodNotAllowed)
}

func TestEvaluate(t *testing.T) {
	srv := newTestServer(t, Options{})

	rr := do(t, srv, http.MethodPost, "/api/calc/evaluate", `{"expression":"(2+3)*4"}`)
	expectStatus(t, rr, http.StatusOK)
	if got := decode[evaluateResponse](t, rr); got.Result != 20 {
		t.Errorf("result = %v, want 20", got.Result)
	}

	tests := []struct {
		name   string
		body   string
		status int
		errMsg string
	}{
		{"division by zero", `{"expression":"5/0"}`, http.StatusUnprocessableEntity, "division by zero"},
		{"dangling operator", `{"expression":"2+"}`, http.StatusUnprocessableEntity, "invalid expression"},
		{"empty", `{"expression":""}`, http.StatusUnprocessableEntity, "invalid expression"},
		{"malformed json", `{"expression":`, http.StatusBadRequest, "malformed request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, srv, http.MethodPost, "/api/calc/evaluate", tt.body)
			expectStatus(t, rr, tt.status)
			if got := decode[errorBody](t, rr).Error; !strings.Contains(got, tt.errMsg) {
				t.Errorf("error = %q, want it to contain %q", got, tt.errMsg)
			}
		})
	}
}

func TestKeypadSession(t *testing.T) {
	srv := newTestServer(t, Options{})
	press := func(session, key string) *httptest.ResponseRecorder {
		return do(t, srv, http.MethodPost, "/api/calc/sessions/"+session+"/keys", fmt.Sprintf(`{"key":%q}`, key))
	}

	var last keyResponse
	for _, key := range []string{"1", "2", "+", "3", "="} {
		rr := press("s1", key)
		expectStatus(t, rr, http.StatusOK)
		last = decode[keyResponse](t, rr)
	}
	if last.Display != "15" || last.Amount == nil || *last.Amount != 15 {
		t.Fatalf("after 12+3= got %+v", last)
	}

	// Sessions are independent.
	rr := press("s2", "7")
	if got := decode[keyResponse](t, rr); got.Display != "7" {
		t.Errorf("s2 display = %q", got.Display)
	}

	for _, key := range []string{"AC", "5", "/", "0"} {
		expectStatus(t, press("s1", key), http.StatusOK)
	}
	rr = press("s1", "=")
	expectStatus(t, rr, http.StatusOK)
	failed := decode[keyResponse](t, rr)
	if failed.Display != calc.ErrorDisplay || failed.Amount != nil || failed.Error == "" {
		t.Errorf("failed evaluation = %+v", failed)
	}

	expectStatus(t, press("s1", "sqrt"), http.StatusUnprocessableEntity)
	expectStatus(t, do(t, srv, http.MethodDelete, "/api/calc/sessions/s1", ""), http.StatusNoContent)
}

func TestTransactionsCRUD(t *testing.T) {
	srv := newTestServer(t, Options{})

	rr := do(t, srv, http.MethodPost, "/api/transactions",
		`{"kind":"expense","account":"card","category":"food","amount_expression":"(12.5+7.5)*2","notes":"groceries"}`)
	expectStatus(t, rr, http.StatusCreated)
	created := decode[transactionJSON](t, rr)
	if created.Category != "Food" || created.Account != "Card" || created.Amount.Cents != 4000 {
		t.Fatalf("created = %+v", created)
	}
	if created.Date != "2024-05-17" {
		t.Errorf("date defaults to today, got %s", created.Date)
	}
	if created.Amount.Display != "€40,00" || created.Amount.Amount != "40.00" {
		t.Errorf("amount = %+v", created.Amount)
	}

	path := fmt.Sprintf("/api/transactions/%d", created.ID)
	expectStatus(t, do(t, srv, http.MethodGet, path, ""), http.StatusOK)

	rr = do(t, srv, http.MethodPut, path,
		`{"kind":"expense","account":"Cash","category":"Food","amount":"10,5","date":"2024-05-02"}`)
	expectStatus(t, rr, http.StatusOK)
	if got := decode[transactionJSON](t, rr); got.Amount.Cents != 1050 || got.Account != "Cash" {
		t.Errorf("updated = %+v", got)
	}

	type listBody struct {
		Transactions []transactionJSON `json:"transactions"`
		Count        int               `json:"count"`
	}
	for _, tt := range []struct {
		query string
		want  int
	}{
		{"?kind=expense", 1},
		{"?kind=income", 0},
		{"?q=cash", 1},
		{"?q=card", 0},
		{"?from=2024-05-01&to=2024-05-02", 1},
		{"?from=2024-05-03", 0},
		{"?kind=expense&category=FOOD", 1},
		{"", 1},
	} {
		rr := do(t, srv, http.MethodGet, "/api/transactions"+tt.query, "")
		expectStatus(t, rr, http.StatusOK)
		if got := decode[listBody](t, rr).Count; got != tt.want {
			t.Errorf("list %q count = %d, want %d", tt.query, got, tt.want)
		}
	}

	expectStatus(t, do(t, srv, http.MethodDelete, path, ""), http.StatusNoContent)
	expectStatus(t, do(t, srv, http.MethodGet, path, ""), http.StatusNotFound)
	expectStatus(t, do(t, srv, http.MethodDelete, path, ""), http.StatusNotFound)
}

func TestTransactionsRejected(t *testing.T) {
	srv := newTestServer(t, Options{})

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"evaluator error", `{"kind":"expense","account":"Card","category":"Food","amount_expression":"5/0"}`, http.StatusUnprocessableEntity},
		{"negative result", `{"kind":"expense","account":"Card","category":"Food","amount_expression":"2-5"}`, http.StatusUnprocessableEntity},
		{"bad decimal", `{"kind":"expense","account":"Card","category":"Food","amount":"abc"}`, http.StatusUnprocessableEntity},
		{"unknown category", `{"kind":"expense","account":"Card","category":"Yachts","amount":"1"}`, http.StatusUnprocessableEntity},
		{"income category as expense", `{"kind":"expense","account":"Card","category":"Salary","amount":"1"}`, http.StatusUnprocessableEntity},
		{"bad account", `{"kind":"expense","account":"Crypto","category":"Food","amount":"1"}`, http.StatusUnprocessableEntity},
		{"bad kind", `{"kind":"transfer","account":"Card","category":"Food","amount":"1"}`, http.StatusUnprocessableEntity},
		{"bad date", `{"kind":"expense","account":"Card","category":"Food","amount":"1","date":"17/05/2024"}`, http.StatusUnprocessableEntity},
		{"malformed", `{"kind":`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectStatus(t, do(t, srv, http.MethodPost, "/api/transactions", tt.body), tt.status)
		})
	}

	rr := do(t, srv, http.MethodGet, "/api/transactions", "")
	if !strings.Contains(rr.Body.String(), `"count":0`) {
		t.Errorf("rejected requests stored something: %s", rr.Body.String())
	}

	expectStatus(t, do(t, srv, http.MethodGet, "/api/transactions/abc", ""), http.StatusBadRequest)
	expectStatus(t, do(t, srv, http.MethodGet, "/api/transactions?kind=loan", ""), http.StatusUnprocessableEntity)
}

func TestBudgets(t *testing.T) {
	srv := newTestServer(t, Options{})

	// No income yet.
	expectStatus(t, do(t, srv, http.MethodPost, "/api/budgets", `{"category":"Food","limit":"300","month":"2024-05"}`), http.StatusUnprocessableEntity)

	expectStatus(t, do(t, srv, http.MethodPost, "/api/transactions",
		`{"kind":"income","account":"Savings","category":"Salary","amount":"1000","date":"2024-05-01"}`), http.StatusCreated)
	expectStatus(t, do(t, srv, http.MethodPost, "/api/transactions",
		`{"kind":"expense","account":"Card","category":"Food","amount":"120","date":"2024-05-03"}`), http.StatusCreated)

	rr := do(t, srv, http.MethodPost, "/api/budgets", `{"category":"food","limit":"300","month":"2024-05"}`)
	expectStatus(t, rr, http.StatusCreated)
	b := decode[budgetJSON](t, rr)
	if b.Category != "Food" || b.Month != "2024-05" {
		t.Fatalf("budget = %+v", b)
	}

	expectStatus(t, do(t, srv, http.MethodPost, "/api/budgets", `{"category":"Food","limit":"50","month":"2024-05"}`), http.StatusConflict)
	expectStatus(t, do(t, srv, http.MethodPost, "/api/budgets", `{"category":"Salary","limit":"50","month":"2024-05"}`), http.StatusUnprocessableEntity)
	expectStatus(t, do(t, srv, http.MethodPost, "/api/budgets", `{"category":"Car","limit":"50","month":"May"}`), http.StatusUnprocessableEntity)

	// Month defaults to today's.
	rr = do(t, srv, http.MethodGet, "/api/budgets", "")
	expectStatus(t, rr, http.StatusOK)
	summary := decode[budgetSummaryJSON](t, rr)
	if len(summary.Budgets) != 1 || summary.Budgets[0].Spent.Cents != 12000 || summary.Budgets[0].Remaining.Cents != 18000 {
		t.Fatalf("summary = %+v", summary)
	}
	if summary.RemainingIncome.Cents != 70000 || len(summary.Available) != 15 {
		t.Errorf("remaining income = %d, available = %d", summary.RemainingIncome.Cents, len(summary.Available))
	}

	path := fmt.Sprintf("/api/budgets/%d", b.ID)
	expectStatus(t, do(t, srv, http.MethodPut, path, `{"limit":"2000"}`), http.StatusUnprocessableEntity)
	rr = do(t, srv, http.MethodPut, path, `{"limit":"100"}`)
	expectStatus(t, rr, http.StatusOK)
	if got := decode[budgetJSON](t, rr); got.Limit.Cents != 10000 {
		t.Errorf("limit = %d", got.Limit.Cents)
	}

	expectStatus(t, do(t, srv, http.MethodDelete, path, ""), http.StatusNoContent)
	expectStatus(t, do(t, srv, http.MethodDelete, path, ""), http.StatusNotFound)
}

func TestAnalytics(t *testing.T) {
	srv := newTestServer(t, Options{})
	for _, body := range []string{
		`{"kind":"expense","account":"Card","category":"Food","amount":"30","date":"2024-05-06"}`,
		`{"kind":"expense","account":"Card","category":"Car","amount":"90","date":"2024-05-08"}`,
		`{"kind":"expense","account":"Cash","category":"Food","amount":"30","date":"2024-05-20"}`,
		`{"kind":"income","account":"Savings","category":"Salary","amount":"500","date":"2024-05-01"}`,
	} {
		expectStatus(t, do(t, srv, http.MethodPost, "/api/transactions", body), http.StatusCreated)
	}

	rr := do(t, srv, http.MethodGet, "/api/analytics/breakdown?kind=expense&period=weekly&date=2024-05-08", "")
	expectStatus(t, rr, http.StatusOK)
	weekly := decode[breakdownJSON](t, rr)
	if weekly.From != "2024-05-06" || weekly.To != "2024-05-12" || weekly.Total.Cents != 12000 {
		t.Fatalf("weekly = %+v", weekly)
	}
	if len(weekly.ByCategory) != 2 || weekly.ByCategory[0].Name != "Car" || weekly.ByCategory[0].Percent != 75 {
		t.Errorf("by category = %+v", weekly.ByCategory)
	}

	// Defaults: expenses, monthly, today.
	rr = do(t, srv, http.MethodGet, "/api/analytics/breakdown", "")
	expectStatus(t, rr, http.StatusOK)
	if got := decode[breakdownJSON](t, rr); got.Total.Cents != 15000 || got.From != "2024-05-01" {
		t.Errorf("monthly = %+v", got)
	}

	rr = do(t, srv, http.MethodGet, "/api/analytics/balance?period=monthly&date=2024-05-31", "")
	expectStatus(t, rr, http.StatusOK)
	if got := decode[balanceJSON](t, rr); got.Net.Cents != 35000 {
		t.Errorf("balance = %+v", got)
	}

	rr = do(t, srv, http.MethodGet, "/api/analytics/overview?year=2024&month=5", "")
	expectStatus(t, rr, http.StatusOK)
	if got := decode[overviewJSON](t, rr); got.Total.Cents != 15000 || len(got.ByCategory) != 2 {
		t.Errorf("overview = %+v", got)
	}

	expectStatus(t, do(t, srv, http.MethodGet, "/api/analytics/breakdown?period=yearly", ""), http.StatusUnprocessableEntity)
	expectStatus(t, do(t, srv, http.MethodGet, "/api/analytics/overview?month=13", ""), http.StatusUnprocessableEntity)
	expectStatus(t, do(t, srv, http.MethodGet, "/api/analytics/overview?month=abc", ""), http.StatusBadRequest)
}

func TestDebts(t *testing.T) {
	srv := newTestServer(t, Options{})

	rr := do(t, srv, http.MethodPost, "/api/debts",
		`{"direction":"owed_by_me","counterparty":"Anna","amount":"50","repayment_date":"2024-06-01"}`)
	expectStatus(t, rr, http.StatusCreated)
	d := decode[debtJSON](t, rr)

	expectStatus(t, do(t, srv, http.MethodPost, "/api/debts",
		`{"direction":"owed_to_me","counterparty":"Marco","amount":"20","repayment_date":"2024-05-20"}`), http.StatusCreated)

	rr = do(t, srv, http.MethodGet, "/api/debts", "")
	expectStatus(t, rr, http.StatusOK)
	sum := decode[debtSummaryJSON](t, rr)
	if len(sum.Debts) != 1 || len(sum.Credits) != 1 || sum.TotalDebt.Cents != 5000 || sum.TotalCredit.Cents != 2000 {
		t.Fatalf("summary = %+v", sum)
	}

	for _, body := range []string{
		`{"direction":"sideways","counterparty":"Anna","amount":"50","repayment_date":"2024-06-01"}`,
		`{"direction":"owed_by_me","counterparty":" ","amount":"50","repayment_date":"2024-06-01"}`,
		`{"direction":"owed_by_me","counterparty":"Anna","amount":"50"}`,
	} {
		expectStatus(t, do(t, srv, http.MethodPost, "/api/debts", body), http.StatusUnprocessableEntity)
	}

	path := fmt.Sprintf("/api/debts/%d", d.ID)
	expectStatus(t, do(t, srv, http.MethodDelete, path, ""), http.StatusNoContent)
	expectStatus(t, do(t, srv, http.MethodDelete, path, ""), http.StatusNotFound)
}

func TestCategories(t *testing.T) {
	srv := newTestServer(t, Options{})

	rr := do(t, srv, http.MethodGet, "/api/categories", "")
	expectStatus(t, rr, http.StatusOK)
	all := decode[map[string][]string](t, rr)
	if len(all["income"]) != 8 || len(all["expense"]) != 16 {
		t.Errorf("categories = %v", all)
	}

	rr = do(t, srv, http.MethodGet, "/api/categories?kind=Income", "")
	expectStatus(t, rr, http.StatusOK)
	if !strings.Contains(rr.Body.String(), `"Salary"`) {
		t.Errorf("income categories = %s", rr.Body.String())
	}

	expectStatus(t, do(t, srv, http.MethodGet, "/api/categories?kind=loan", ""), http.StatusUnprocessableEntity)
}

func TestRateLimitOnlyMutating(t *testing.T) {
	srv := newTestServer(t, Options{RateLimitPerMinute: 2})

	for i := 0; i < 2; i++ {
		expectStatus(t, do(t, srv, http.MethodPost, "/api/calc/evaluate", `{"expression":"1+1"}`), http.StatusOK)
	}
	rr := do(t, srv, http.MethodPost, "/api/calc/evaluate", `{"expression":"1+1"}`)
	expectStatus(t, rr, http.StatusTooManyRequests)
	if rr.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}

	for i := 0; i < 5; i++ {
		expectStatus(t, do(t, srv, http.MethodGet, "/api/categories", ""), http.StatusOK)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("decode: %w", errMalformedBody), http.StatusBadRequest},
		{fmt.Errorf("get transaction: %w", core.ErrNotFound), http.StatusNotFound},
		{core.ErrBudgetExists, http.StatusConflict},
		{fmt.Errorf("check: %w", core.ErrInsufficientIncome), http.StatusUnprocessableEntity},
		{&services.ValidationError{Entity: "debt", Err: errors.New("too long")}, http.StatusUnprocessableEntity},
		{calc.ErrDivisionByZero, http.StatusUnprocessableEntity},
		{fmt.Errorf("evaluate: %w", calc.ErrInvalidExpression), http.StatusUnprocessableEntity},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got, _ := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
