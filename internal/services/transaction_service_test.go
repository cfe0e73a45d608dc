package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/amqp"
	"fintrack/internal/calc"
	"fintrack/internal/core"
	"fintrack/internal/ports"
)

func TestTransactionService_CreatePublishesAndCanonicalizes(t *testing.T) {
	store, tax, pub := newFixture()
	svc := NewTransactionService(store, tax, pub)

	saved, err := svc.Create(context.Background(), expense(" food ", 1250, core.NewDate(2024, 4, 2)))
	require.NoError(t, err)

	assert.NotZero(t, saved.ID)
	assert.Equal(t, "Food", saved.Category)
	assert.Equal(t, []publishedEvent{{ID: saved.ID, Action: amqp.ActionCreated}}, pub.events)
}

func TestTransactionService_Validation(t *testing.T) {
	store, tax, pub := newFixture()
	svc := NewTransactionService(store, tax, pub)
	day := core.NewDate(2024, 4, 2)

	tests := []struct {
		name string
		tx   core.Transaction
		want error
	}{
		{"zero amount", expense("Food", 0, day), core.ErrInvalidAmount},
		{"unknown category", expense("Racing", 100, day), core.ErrUnknownCategory},
		{"income category on expense", expense("Salary", 100, day), core.ErrUnknownCategory},
		{"empty category", expense("  ", 100, day), core.ErrEmptyCategory},
		{"bad account", core.Transaction{Kind: core.Expense, Account: "Crypto", Category: "Food", Amount: core.Money{Cents: 1}, Date: day}, core.ErrInvalidAccount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.tx)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			var verr *ValidationError
			assert.True(t, errors.As(err, &verr), "expected ValidationError, got %T", err)
		})
	}
	assert.Empty(t, pub.events, "nothing stored, nothing published")
}

func TestTransactionService_PublishFailureDoesNotFail(t *testing.T) {
	store, tax, pub := newFixture()
	pub.err = errors.New("broker unreachable")
	svc := NewTransactionService(store, tax, pub)

	saved, err := svc.Create(context.Background(), expense("Food", 100, core.NewDate(2024, 1, 1)))
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved, got)
}

func TestTransactionService_NilPublisher(t *testing.T) {
	store, tax, _ := newFixture()
	svc := NewTransactionService(store, tax, nil)

	_, err := svc.Create(context.Background(), expense("Food", 100, core.NewDate(2024, 1, 1)))
	assert.NoError(t, err)
}

func TestTransactionService_UpdateAndDelete(t *testing.T) {
	store, tax, pub := newFixture()
	svc := NewTransactionService(store, tax, pub)
	ctx := context.Background()

	var touched []core.Date
	svc.OnChange(func(dates ...core.Date) { touched = append(touched, dates...) })

	saved := seed(t, svc, expense("Food", 100, core.NewDate(2024, 1, 1)))[0]
	saved.Date = core.NewDate(2024, 2, 1)
	saved.Amount = core.Money{Cents: 300}

	updated, err := svc.Update(ctx, saved)
	require.NoError(t, err)
	assert.Equal(t, int64(300), updated.Amount.Cents)

	require.NoError(t, svc.Delete(ctx, saved.ID))
	_, err = svc.Get(ctx, saved.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, saved.ID), core.ErrNotFound)

	assert.Equal(t, []core.Date{
		core.NewDate(2024, 1, 1),
		core.NewDate(2024, 1, 1), core.NewDate(2024, 2, 1),
		core.NewDate(2024, 2, 1),
	}, touched)

	actions := make([]string, 0, len(pub.events))
	for _, e := range pub.events {
		actions = append(actions, e.Action)
	}
	assert.Equal(t, []string{amqp.ActionCreated, amqp.ActionUpdated, amqp.ActionDeleted}, actions)
}

func TestTransactionService_ListAndSearch(t *testing.T) {
	store, tax, pub := newFixture()
	svc := NewTransactionService(store, tax, pub)
	ctx := context.Background()

	seed(t, svc,
		expense("Food", 100, core.NewDate(2024, 3, 1)),
		expense("Transportation", 200, core.NewDate(2024, 3, 5)),
		income("Salary", 5000, core.NewDate(2024, 3, 10)),
		expense("Food", 300, core.NewDate(2024, 4, 1)),
	)

	march, err := svc.List(ctx, ports.TransactionFilter{From: core.NewDate(2024, 3, 1), To: core.NewDate(2024, 3, 31)})
	require.NoError(t, err)
	require.Len(t, march, 3)
	assert.Equal(t, core.NewDate(2024, 3, 10), march[0].Date, "newest first")

	food, err := svc.List(ctx, ports.TransactionFilter{Kind: core.Expense, Category: "food"})
	require.NoError(t, err)
	assert.Len(t, food, 2)

	bySavings, err := svc.Search(ctx, "SAV", ports.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, bySavings, 1)
	assert.Equal(t, "Salary", bySavings[0].Category)

	byCategory, err := svc.Search(ctx, "trans", ports.TransactionFilter{})
	require.NoError(t, err)
	assert.Len(t, byCategory, 1)

	all, err := svc.Search(ctx, "  ", ports.TransactionFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestEvaluateAmount(t *testing.T) {
	m, err := EvaluateAmount("(12.5+7.5)*2")
	require.NoError(t, err)
	assert.Equal(t, int64(4000), m.Cents)

	m, err = EvaluateAmount("0.1+0.2")
	require.NoError(t, err)
	assert.Equal(t, int64(30), m.Cents)

	_, err = EvaluateAmount("5/0")
	assert.ErrorIs(t, err, calc.ErrDivisionByZero)

	_, err = EvaluateAmount("2+")
	assert.ErrorIs(t, err, calc.ErrInvalidExpression)

	_, err = EvaluateAmount("2-5")
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
}
