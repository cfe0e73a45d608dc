// Package services orchestrates the domain operations over the stores and
// the message publisher.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"fintrack/internal/amqp"
	"fintrack/internal/calc"
	"fintrack/internal/core"
	"fintrack/internal/ports"
)

// TransactionPublisher announces stored changes. amqp.Publisher implements it.
type TransactionPublisher interface {
	TransactionChanged(ctx context.Context, id int64, action string) error
}

// ChangeFunc is told the dates touched by a create, update or delete.
type ChangeFunc func(dates ...core.Date)

// TransactionService saves transactions locally, then publishes the change.
type TransactionService struct {
	store     ports.TransactionStore
	taxonomy  ports.TaxonomyReader
	publisher TransactionPublisher
	onChange  []ChangeFunc
}

// NewTransactionService wires the service. taxonomy and publisher may be nil.
func NewTransactionService(store ports.TransactionStore, taxonomy ports.TaxonomyReader, publisher TransactionPublisher) *TransactionService {
	return &TransactionService{
		store:     store,
		taxonomy:  taxonomy,
		publisher: publisher,
	}
}

// OnChange registers fn to run after every successful write.
func (s *TransactionService) OnChange(fn ChangeFunc) {
	s.onChange = append(s.onChange, fn)
}

// EvaluateAmount runs a keypad expression and converts the result to money.
// Evaluator errors are returned unchanged so callers can match calc errors.
func EvaluateAmount(expr string) (core.Money, error) {
	v, err := calc.Evaluate(expr)
	if err != nil {
		return core.Money{}, err
	}
	m, err := core.MoneyFromFloat(v)
	if err != nil {
		return core.Money{}, invalid("amount", fmt.Errorf("%q evaluates to %v: %w", expr, v, err))
	}
	return m, nil
}

func (s *TransactionService) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := s.prepare(&t); err != nil {
		return core.Transaction{}, err
	}

	saved, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	s.changed(ctx, saved.ID, amqp.ActionCreated, saved.Date)
	return saved, nil
}

func (s *TransactionService) Update(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := s.prepare(&t); err != nil {
		return core.Transaction{}, err
	}

	old, err := s.store.GetTransaction(ctx, t.ID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	if err := s.store.UpdateTransaction(ctx, t); err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}

	s.changed(ctx, t.ID, amqp.ActionUpdated, old.Date, t.Date)
	return t, nil
}

func (s *TransactionService) Delete(ctx context.Context, id int64) error {
	old, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return fmt.Errorf("get transaction: %w", err)
	}
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	s.changed(ctx, id, amqp.ActionDeleted, old.Date)
	return nil
}

func (s *TransactionService) Get(ctx context.Context, id int64) (core.Transaction, error) {
	t, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

// List returns the transactions matching f, newest first.
func (s *TransactionService) List(ctx context.Context, f ports.TransactionFilter) ([]core.Transaction, error) {
	if f.Category != "" && f.Kind != "" && s.taxonomy != nil {
		if name, ok := s.taxonomy.Canonical(f.Kind, f.Category); ok {
			f.Category = name
		}
	}
	list, err := s.store.ListTransactions(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return list, nil
}

// Search returns the transactions in f whose account type or category
// contains query, ignoring case. An empty query matches everything.
func (s *TransactionService) Search(ctx context.Context, query string, f ports.TransactionFilter) ([]core.Transaction, error) {
	list, err := s.List(ctx, f)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return list, nil
	}

	out := list[:0]
	for _, t := range list {
		if strings.Contains(strings.ToLower(string(t.Account)), q) ||
			strings.Contains(strings.ToLower(t.Category), q) {
			out = append(out, t)
		}
	}
	return out, nil
}

// prepare validates t and replaces its category with the taxonomy spelling.
func (s *TransactionService) prepare(t *core.Transaction) error {
	t.Category = strings.TrimSpace(t.Category)
	t.Notes = strings.TrimSpace(t.Notes)
	if err := t.Validate(); err != nil {
		return invalid("transaction", err)
	}
	if s.taxonomy == nil {
		return nil
	}
	name, ok := s.taxonomy.Canonical(t.Kind, t.Category)
	if !ok {
		return invalid("transaction", fmt.Errorf("%w: %q is not a %s category", core.ErrUnknownCategory, t.Category, t.Kind))
	}
	t.Category = name
	return nil
}

func (s *TransactionService) changed(ctx context.Context, id int64, action string, dates ...core.Date) {
	for _, fn := range s.onChange {
		fn(dates...)
	}

	if s.publisher == nil {
		slog.WarnContext(ctx, "Publisher not available, skipping transaction event", "id", id, "action", action)
		return
	}
	// The row is stored; export catches up from the sync queue.
	if err := s.publisher.TransactionChanged(ctx, id, action); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"id", id, "action", action, "error", err)
	}
}
