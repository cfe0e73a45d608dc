package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"fintrack/internal/categories"
	"fintrack/internal/core"
	"fintrack/internal/memory"
)

type publishedEvent struct {
	ID     int64
	Action string
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *recordingPublisher) TransactionChanged(_ context.Context, id int64, action string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{ID: id, Action: action})
	return p.err
}

type recordingSender struct {
	sent []int64
	fail map[int64]bool
}

func (s *recordingSender) DebtDue(_ context.Context, d core.Debt) error {
	if s.fail[d.ID] {
		return errors.New("broker down")
	}
	s.sent = append(s.sent, d.ID)
	return nil
}

func expense(category string, cents int64, date core.Date) core.Transaction {
	return core.Transaction{Kind: core.Expense, Account: core.Card, Category: category, Amount: core.Money{Cents: cents}, Date: date}
}

func income(category string, cents int64, date core.Date) core.Transaction {
	return core.Transaction{Kind: core.Income, Account: core.Savings, Category: category, Amount: core.Money{Cents: cents}, Date: date}
}

func seed(t *testing.T, svc *TransactionService, txs ...core.Transaction) []core.Transaction {
	t.Helper()
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		saved, err := svc.Create(context.Background(), tx)
		require.NoError(t, err)
		out = append(out, saved)
	}
	return out
}

func newFixture() (*memory.Store, *categories.Taxonomy, *recordingPublisher) {
	return memory.New(), categories.Default(), &recordingPublisher{}
}
