package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"fintrack/internal/core"
)

func TestParseMonthParams(t *testing.T) {
	today := core.NewDate(2024, 5, 17)
	tests := []struct {
		name      string
		query     url.Values
		wantYear  int
		wantMonth int
		wantErr   bool
	}{
		{"both values provided", url.Values{"year": {"2023"}, "month": {"12"}}, 2023, 12, false},
		{"only month", url.Values{"month": {"3"}}, 2024, 3, false},
		{"empty query uses today", url.Values{}, 2024, 5, false},
		{"out of range passes through", url.Values{"month": {"13"}}, 2024, 13, false},
		{"non-numeric month", url.Values{"month": {"abc"}}, 0, 0, true},
		{"non-numeric year", url.Values{"year": {"20x4"}}, 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMonthParams(tt.query, today)
			if tt.wantErr {
				if !errors.Is(err, errBadParam) {
					t.Fatalf("err = %v, want errBadParam", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Year != tt.wantYear || got.Month != tt.wantMonth {
				t.Errorf("got %d-%d, want %d-%d", got.Year, got.Month, tt.wantYear, tt.wantMonth)
			}
		})
	}
}

func TestParseTransactionQuery(t *testing.T) {
	q := url.Values{
		"from":     {"2024-01-01"},
		"to":       {"2024-01-31"},
		"kind":     {"EXPENSE"},
		"category": {" Food\x00 "},
		"q":        {"card"},
	}
	f, search, err := parseTransactionQuery(q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Kind != core.Expense || f.Category != "Food" || search != "card" {
		t.Errorf("filter = %+v, search = %q", f, search)
	}
	if !f.From.Equal(core.NewDate(2024, 1, 1).Time) || !f.To.Equal(core.NewDate(2024, 1, 31).Time) {
		t.Errorf("range = %s..%s", f.From, f.To)
	}

	bad := []url.Values{
		{"from": {"01/01/2024"}},
		{"kind": {"transfer"}},
		{"from": {"2024-02-01"}, "to": {"2024-01-01"}},
	}
	for _, q := range bad {
		if _, _, err := parseTransactionQuery(q); err == nil {
			t.Errorf("query %v: expected error", q)
		}
	}
}

func TestParseID(t *testing.T) {
	tests := []struct {
		raw     string
		want    int64
		wantErr bool
	}{
		{"42", 42, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.SetPathValue("id", tt.raw)
		got, err := parseID(r)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("parseID(%q) = %d, %v", tt.raw, got, err)
		}
	}
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Key string `json:"key"`
	}
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"key":"7"}`, false},
		{"empty", ``, true},
		{"broken", `{"key":`, true},
		{"trailing", `{"key":"7"} {"key":"8"}`, true},
		{"wrong type", `{"key":7}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			err := decodeJSON(httptest.NewRecorder(), r, &dst)
			if tt.wantErr != (err != nil) {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errMalformedBody) {
				t.Errorf("err = %v, want errMalformedBody", err)
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	evaluate := func(string) (core.Money, error) { return core.Money{Cents: 999}, nil }

	m, err := parseAmount("12,50", "", evaluate)
	if err != nil || m.Cents != 1250 {
		t.Errorf("decimal: %v, %v", m, err)
	}
	m, err = parseAmount("12,50", "4+5", evaluate)
	if err != nil || m.Cents != 999 {
		t.Errorf("expression takes precedence: %v, %v", m, err)
	}
	if _, err := parseAmount("", "", evaluate); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("missing amount: %v", err)
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"  hello  ", "hello"},
		{"hello\x00world", "helloworld"},
		{"tab\there", "tab\there"},
		{"line\nbreak", "line\nbreak"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := sanitizeInput(tt.input); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
