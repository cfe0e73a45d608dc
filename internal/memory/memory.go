// Package memory is an in-process Store, used by default and in tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/ports"
)

type Store struct {
	mu           sync.Mutex
	nextID       int64
	transactions map[int64]core.Transaction
	budgets      map[int64]core.Budget
	debts        map[int64]core.Debt
	pending      map[int64]ports.PendingSync
	now          func() time.Time
}

var _ ports.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		transactions: make(map[int64]core.Transaction),
		budgets:      make(map[int64]core.Budget),
		debts:        make(map[int64]core.Debt),
		pending:      make(map[int64]ports.PendingSync),
		now:          time.Now,
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) markPending(id int64, op ports.SyncOp) {
	s.pending[id] = ports.PendingSync{TransactionID: id, Op: op, Since: s.now()}
}

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = s.id()
	s.transactions[t.ID] = t
	s.markPending(t.ID, ports.SyncUpsert)
	return t, nil
}

func (s *Store) UpdateTransaction(_ context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transactions[t.ID]; !ok {
		return fmt.Errorf("transaction %d: %w", t.ID, core.ErrNotFound)
	}
	s.transactions[t.ID] = t
	s.markPending(t.ID, ports.SyncUpsert)
	return nil
}

func (s *Store) DeleteTransaction(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transactions[id]; !ok {
		return fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}
	delete(s.transactions, id)
	s.markPending(id, ports.SyncDelete)
	return nil
}

func (s *Store) GetTransaction(_ context.Context, id int64) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[id]
	if !ok {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}
	return t, nil
}

func (s *Store) ListTransactions(_ context.Context, f ports.TransactionFilter) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, 0, len(s.transactions))
	for _, t := range s.transactions {
		if f.Matches(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) CreateBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.budgets {
		if existing.Month == b.Month && strings.EqualFold(existing.Category, b.Category) {
			return core.Budget{}, fmt.Errorf("%s %s: %w", b.Category, b.Month, core.ErrBudgetExists)
		}
	}
	b.ID = s.id()
	s.budgets[b.ID] = b
	return b, nil
}

func (s *Store) UpdateBudget(_ context.Context, b core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.budgets[b.ID]; !ok {
		return fmt.Errorf("budget %d: %w", b.ID, core.ErrNotFound)
	}
	s.budgets[b.ID] = b
	return nil
}

func (s *Store) DeleteBudget(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.budgets[id]; !ok {
		return fmt.Errorf("budget %d: %w", id, core.ErrNotFound)
	}
	delete(s.budgets, id)
	return nil
}

func (s *Store) GetBudget(_ context.Context, id int64) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[id]
	if !ok {
		return core.Budget{}, fmt.Errorf("budget %d: %w", id, core.ErrNotFound)
	}
	return b, nil
}

func (s *Store) ListBudgets(_ context.Context, month core.YearMonth) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Budget
	for _, b := range s.budgets {
		if b.Month == month {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, nil
}

func (s *Store) CreateDebt(_ context.Context, d core.Debt) (core.Debt, error) {
	if err := d.Validate(); err != nil {
		return core.Debt{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d.ID = s.id()
	s.debts[d.ID] = d
	return d, nil
}

func (s *Store) DeleteDebt(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.debts[id]; !ok {
		return fmt.Errorf("debt %d: %w", id, core.ErrNotFound)
	}
	delete(s.debts, id)
	return nil
}

func (s *Store) GetDebt(_ context.Context, id int64) (core.Debt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.debts[id]
	if !ok {
		return core.Debt{}, fmt.Errorf("debt %d: %w", id, core.ErrNotFound)
	}
	return d, nil
}

// ListDebts returns debts ordered by repayment date, then ID.
func (s *Store) ListDebts(_ context.Context) ([]core.Debt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Debt, 0, len(s.debts))
	for _, d := range s.debts {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].RepaymentDate.Equal(out[j].RepaymentDate.Time) {
			return out[i].RepaymentDate.Before(out[j].RepaymentDate.Time)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) MarkReminded(_ context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.debts[id]
	if !ok {
		return fmt.Errorf("debt %d: %w", id, core.ErrNotFound)
	}
	d.RemindedAt = at
	s.debts[id] = d
	return nil
}

// PendingSync returns the oldest pending exports first.
func (s *Store) PendingSync(_ context.Context, limit int) ([]ports.PendingSync, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ports.PendingSync, 0, len(s.pending))
	for _, p := range s.pending {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Since.Equal(out[j].Since) {
			return out[i].Since.Before(out[j].Since)
		}
		return out[i].TransactionID < out[j].TransactionID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MarkSynced clears p unless a newer change replaced it meanwhile.
func (s *Store) MarkSynced(_ context.Context, p ports.PendingSync) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.pending[p.TransactionID]; ok && cur.Op == p.Op && !cur.Since.After(p.Since) {
		delete(s.pending, p.TransactionID)
	}
	return nil
}

// MarkSyncError keeps p pending; the next sweep retries it.
func (s *Store) MarkSyncError(_ context.Context, _ ports.PendingSync, _ error) error {
	return nil
}

func (s *Store) Close() error { return nil }
