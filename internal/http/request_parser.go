// This file implements utilities for parsing and validating request data:
// JSON bodies, path IDs, dates and month selectors in query strings.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/ports"
)

const maxBodyBytes = 1 << 20

var (
	// errMalformedBody marks requests whose body is not the expected JSON.
	errMalformedBody = errors.New("malformed request body")
	// errBadParam marks unusable path or query parameters.
	errBadParam = errors.New("invalid parameter")
)

// decodeJSON reads one JSON value from the body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errMalformedBody)
		}
		return fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data", errMalformedBody)
	}
	return nil
}

// parseID reads the {id} path segment.
func parseID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: id %q", errBadParam, raw)
	}
	return id, nil
}

// MonthParams holds parsed year/month values from request parameters.
type MonthParams struct {
	Year  int
	Month int
}

// ParseMonthParams extracts year and month from the query, defaulting each
// to today's. Non-numeric values are an error; ranges are checked later by
// the domain.
func ParseMonthParams(query url.Values, today core.Date) (MonthParams, error) {
	params := MonthParams{Year: today.Year(), Month: today.Month()}

	if v := strings.TrimSpace(query.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return MonthParams{}, fmt.Errorf("%w: year %q", errBadParam, v)
		}
		params.Year = y
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			return MonthParams{}, fmt.Errorf("%w: month %q", errBadParam, v)
		}
		params.Month = m
	}
	return params, nil
}

// parseYearMonth reads a YYYY-MM value, defaulting to today's month.
func parseYearMonth(raw string, today core.Date) (core.YearMonth, error) {
	if strings.TrimSpace(raw) == "" {
		return today.YearMonth(), nil
	}
	return core.ParseYearMonth(raw)
}

// parseDateOr reads a YYYY-MM-DD value, returning def when raw is empty.
func parseDateOr(raw string, def core.Date) (core.Date, error) {
	if strings.TrimSpace(raw) == "" {
		return def, nil
	}
	return core.ParseDate(raw)
}

// parseTransactionQuery builds the list filter and the free-text search
// term from ?from=&to=&kind=&category=&q=.
func parseTransactionQuery(query url.Values) (ports.TransactionFilter, string, error) {
	var f ports.TransactionFilter
	var err error

	if f.From, err = parseDateOr(query.Get("from"), core.Date{}); err != nil {
		return f, "", err
	}
	if f.To, err = parseDateOr(query.Get("to"), core.Date{}); err != nil {
		return f, "", err
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From.Time) {
		return f, "", fmt.Errorf("%w: to before from", errBadParam)
	}
	if k := strings.TrimSpace(query.Get("kind")); k != "" {
		f.Kind = core.Kind(strings.ToLower(k))
		if err := f.Kind.Validate(); err != nil {
			return f, "", err
		}
	}
	f.Category = sanitizeInput(query.Get("category"))
	return f, sanitizeInput(query.Get("q")), nil
}

// parseKind reads an optional kind, returning def when raw is empty.
func parseKind(raw string, def core.Kind) (core.Kind, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	k := core.Kind(strings.ToLower(raw))
	return k, k.Validate()
}

// parsePeriod reads an optional period, returning def when raw is empty.
func parsePeriod(raw string, def core.Period) (core.Period, error) {
	if strings.TrimSpace(raw) == "" {
		return def, nil
	}
	return core.ParsePeriod(raw)
}

// parseAmount accepts either a decimal string or, when expr is set, a
// calculator expression evaluated by evaluate.
func parseAmount(decimal, expr string, evaluate func(string) (core.Money, error)) (core.Money, error) {
	if strings.TrimSpace(expr) != "" {
		return evaluate(expr)
	}
	cents, err := core.ParseDecimalToCents(decimal)
	if err != nil {
		return core.Money{}, err
	}
	return core.Money{Cents: cents}, nil
}

// sanitizeInput removes control characters except tab, newline and
// carriage return, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// today is the current calendar day in UTC.
func today(now func() time.Time) core.Date {
	return core.DateOf(now().UTC())
}
