package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/ports"
)

const (
	defaultBreakdownCacheSize = 128
	defaultBreakdownCacheTTL  = 10 * time.Minute
)

// AnalyticsService aggregates transactions into the chart and summary
// views. Breakdowns are cached until a transaction inside their range
// changes.
type AnalyticsService struct {
	transactions ports.TransactionStore
	breakdowns   *cache.LRUCache[core.Breakdown]

	// mu orders cache fills against invalidations. generation counts
	// invalidations; a breakdown computed across one is not cached.
	mu         sync.Mutex
	generation uint64
}

func NewAnalyticsService(transactions ports.TransactionStore) *AnalyticsService {
	return &AnalyticsService{
		transactions: transactions,
		breakdowns:   cache.NewLRUCache[core.Breakdown](defaultBreakdownCacheSize, defaultBreakdownCacheTTL),
	}
}

// Cleaner exposes the breakdown cache to a cache.Manager.
func (s *AnalyticsService) Cleaner() cache.Cleaner {
	return s.breakdowns
}

// Breakdown groups the kind's transactions in the period containing anchor
// by category, largest first.
func (s *AnalyticsService) Breakdown(ctx context.Context, kind core.Kind, period core.Period, anchor core.Date) (core.Breakdown, error) {
	if err := kind.Validate(); err != nil {
		return core.Breakdown{}, invalid("breakdown", err)
	}
	r, err := period.Range(anchor)
	if err != nil {
		return core.Breakdown{}, invalid("breakdown", err)
	}

	key := breakdownKey(kind, r)
	if b, ok := s.breakdowns.Get(key); ok {
		slog.DebugContext(ctx, "Breakdown cache hit", "key", key)
		b.ByCategory = slices.Clone(b.ByCategory)
		return b, nil
	}

	s.mu.Lock()
	gen := s.generation
	s.mu.Unlock()

	txs, err := s.transactions.ListTransactions(ctx, ports.TransactionFilter{From: r.From, To: r.To, Kind: kind})
	if err != nil {
		return core.Breakdown{}, fmt.Errorf("list transactions: %w", err)
	}

	total, byCategory := groupByCategory(txs)
	b := core.Breakdown{Kind: kind, Range: r, Total: total, ByCategory: byCategory}

	s.mu.Lock()
	if s.generation == gen {
		cached := b
		cached.ByCategory = slices.Clone(byCategory)
		s.breakdowns.Set(key, cached)
	} else {
		slog.DebugContext(ctx, "Transactions changed during breakdown, not caching", "key", key)
	}
	s.mu.Unlock()
	return b, nil
}

// Invalidate drops cached breakdowns whose range contains any of dates.
// It has the ChangeFunc signature so it can be registered on a
// TransactionService.
func (s *AnalyticsService) Invalidate(dates ...core.Date) {
	if len(dates) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	n := s.breakdowns.DeleteFunc(func(key string) bool {
		r, ok := parseBreakdownKey(key)
		if !ok {
			return true
		}
		for _, d := range dates {
			if r.Contains(d) {
				return true
			}
		}
		return false
	})
	if n > 0 {
		slog.Debug("Invalidated cached breakdowns", "count", n)
	}
}

// Balance totals income and expenses in the period containing anchor.
func (s *AnalyticsService) Balance(ctx context.Context, period core.Period, anchor core.Date) (core.Balance, error) {
	r, err := period.Range(anchor)
	if err != nil {
		return core.Balance{}, invalid("balance", err)
	}
	txs, err := s.transactions.ListTransactions(ctx, ports.TransactionFilter{From: r.From, To: r.To})
	if err != nil {
		return core.Balance{}, fmt.Errorf("list transactions: %w", err)
	}

	b := core.Balance{Range: r}
	for _, t := range txs {
		switch t.Kind {
		case core.Income:
			b.Income = b.Income.Add(t.Amount)
		case core.Expense:
			b.Expense = b.Expense.Add(t.Amount)
		}
	}
	b.Net = b.Income.Sub(b.Expense)
	return b, nil
}

// MonthOverview summarises a month's expenses by category.
func (s *AnalyticsService) MonthOverview(ctx context.Context, year, month int) (core.MonthOverview, error) {
	ym := core.YearMonth{Year: year, Month: time.Month(month)}
	if err := ym.Validate(); err != nil {
		return core.MonthOverview{}, invalid("month", err)
	}
	r := ym.Range()
	txs, err := s.transactions.ListTransactions(ctx, ports.TransactionFilter{From: r.From, To: r.To, Kind: core.Expense})
	if err != nil {
		return core.MonthOverview{}, fmt.Errorf("list transactions: %w", err)
	}

	total, byCategory := groupByCategory(txs)
	return core.MonthOverview{Year: year, Month: month, Total: total, ByCategory: byCategory}, nil
}

func groupByCategory(txs []core.Transaction) (core.Money, []core.CategoryAmount) {
	var total core.Money
	sums := make(map[string]core.Money)
	for _, t := range txs {
		total = total.Add(t.Amount)
		sums[t.Category] = sums[t.Category].Add(t.Amount)
	}

	out := make([]core.CategoryAmount, 0, len(sums))
	for name, amount := range sums {
		out = append(out, core.CategoryAmount{
			Name:    name,
			Amount:  amount,
			Percent: core.Percent(amount, total),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount.Cents != out[j].Amount.Cents {
			return out[i].Amount.Cents > out[j].Amount.Cents
		}
		return out[i].Name < out[j].Name
	})
	return total, out
}

func breakdownKey(kind core.Kind, r core.DateRange) string {
	return string(kind) + "|" + r.From.String() + "|" + r.To.String()
}

func parseBreakdownKey(key string) (core.DateRange, bool) {
	parts := strings.Split(key, "|")
	if len(parts) != 3 {
		return core.DateRange{}, false
	}
	from, err := core.ParseDate(parts[1])
	if err != nil {
		return core.DateRange{}, false
	}
	to, err := core.ParseDate(parts[2])
	if err != nil {
		return core.DateRange{}, false
	}
	return core.DateRange{From: from, To: to}, true
}
