// Package porttest holds a behaviour suite every ports.Store must pass.
package porttest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/ports"
)

// RunStoreTests exercises a fresh store from newStore in each subtest.
func RunStoreTests(t *testing.T, newStore func(t *testing.T) ports.Store) {
	t.Run("TransactionCRUD", func(t *testing.T) { testTransactionCRUD(t, newStore(t)) })
	t.Run("TransactionFilter", func(t *testing.T) { testTransactionFilter(t, newStore(t)) })
	t.Run("Budgets", func(t *testing.T) { testBudgets(t, newStore(t)) })
	t.Run("Debts", func(t *testing.T) { testDebts(t, newStore(t)) })
	t.Run("SyncTracking", func(t *testing.T) { testSyncTracking(t, newStore(t)) })
}

func tx(kind core.Kind, category string, cents int64, d core.Date) core.Transaction {
	return core.Transaction{
		Kind:     kind,
		Account:  core.Card,
		Category: category,
		Amount:   core.Money{Cents: cents},
		Date:     d,
	}
}

func testTransactionCRUD(t *testing.T, s ports.Store) {
	ctx := context.Background()
	created, err := s.CreateTransaction(ctx, tx(core.Expense, "Food", 1250, core.NewDate(2024, 5, 10)))
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	got, err := s.GetTransaction(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Food", got.Category)
	assert.Equal(t, int64(1250), got.Amount.Cents)
	assert.Equal(t, "2024-05-10", got.Date.String())

	got.Notes = "dinner"
	got.Account = core.Cash
	require.NoError(t, s.UpdateTransaction(ctx, got))
	got, err = s.GetTransaction(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "dinner", got.Notes)
	assert.Equal(t, core.Cash, got.Account)

	require.NoError(t, s.DeleteTransaction(ctx, created.ID))
	_, err = s.GetTransaction(ctx, created.ID)
	require.ErrorIs(t, err, core.ErrNotFound)
	require.ErrorIs(t, s.DeleteTransaction(ctx, created.ID), core.ErrNotFound)
	require.ErrorIs(t, s.UpdateTransaction(ctx, got), core.ErrNotFound)

	_, err = s.CreateTransaction(ctx, tx(core.Expense, "Food", 0, core.NewDate(2024, 5, 10)))
	require.ErrorIs(t, err, core.ErrInvalidAmount)
}

func testTransactionFilter(t *testing.T, s ports.Store) {
	ctx := context.Background()
	for _, in := range []core.Transaction{
		tx(core.Income, "Salary", 300000, core.NewDate(2024, 5, 1)),
		tx(core.Expense, "Food", 2000, core.NewDate(2024, 5, 2)),
		tx(core.Expense, "Bills", 8000, core.NewDate(2024, 5, 31)),
		tx(core.Expense, "Food", 1500, core.NewDate(2024, 6, 1)),
	} {
		_, err := s.CreateTransaction(ctx, in)
		require.NoError(t, err)
	}

	all, err := s.ListTransactions(ctx, ports.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "2024-06-01", all[0].Date.String(), "newest first")

	may, err := s.ListTransactions(ctx, ports.TransactionFilter{
		From: core.NewDate(2024, 5, 1),
		To:   core.NewDate(2024, 5, 31),
		Kind: core.Expense,
	})
	require.NoError(t, err)
	require.Len(t, may, 2)
	assert.Equal(t, "Bills", may[0].Category)

	food, err := s.ListTransactions(ctx, ports.TransactionFilter{Category: "Food"})
	require.NoError(t, err)
	assert.Len(t, food, 2)
}

func testBudgets(t *testing.T, s ports.Store) {
	ctx := context.Background()
	may := core.YearMonth{Year: 2024, Month: time.May}

	b, err := s.CreateBudget(ctx, core.Budget{Category: "Food", Limit: core.Money{Cents: 20000}, Month: may})
	require.NoError(t, err)
	require.NotZero(t, b.ID)

	_, err = s.CreateBudget(ctx, core.Budget{Category: "Food", Limit: core.Money{Cents: 100}, Month: may})
	require.ErrorIs(t, err, core.ErrBudgetExists)

	_, err = s.CreateBudget(ctx, core.Budget{Category: "Food", Limit: core.Money{Cents: 100}, Month: core.YearMonth{Year: 2024, Month: time.June}})
	require.NoError(t, err)
	_, err = s.CreateBudget(ctx, core.Budget{Category: "Bills", Limit: core.Money{Cents: 5000}, Month: may})
	require.NoError(t, err)

	list, err := s.ListBudgets(ctx, may)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Bills", list[0].Category)

	b.Limit = core.Money{Cents: 25000}
	require.NoError(t, s.UpdateBudget(ctx, b))
	got, err := s.GetBudget(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(25000), got.Limit.Cents)
	assert.Equal(t, may, got.Month)

	require.NoError(t, s.DeleteBudget(ctx, b.ID))
	_, err = s.GetBudget(ctx, b.ID)
	require.ErrorIs(t, err, core.ErrNotFound)
}

func testDebts(t *testing.T, s ports.Store) {
	ctx := context.Background()
	later, err := s.CreateDebt(ctx, core.Debt{
		Direction: core.OwedToMe, Counterparty: "Anna", Amount: core.Money{Cents: 1000},
		RepaymentDate: core.NewDate(2024, 7, 1),
	})
	require.NoError(t, err)
	sooner, err := s.CreateDebt(ctx, core.Debt{
		Direction: core.OwedByMe, Counterparty: "Bob", Description: "concert", Amount: core.Money{Cents: 4500},
		RepaymentDate: core.NewDate(2024, 6, 15),
	})
	require.NoError(t, err)

	list, err := s.ListDebts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, sooner.ID, list[0].ID)
	assert.Equal(t, later.ID, list[1].ID)
	assert.False(t, list[0].Reminded())

	at := time.Date(2024, 6, 15, 8, 0, 0, 0, time.UTC)
	require.NoError(t, s.MarkReminded(ctx, sooner.ID, at))
	got, err := s.GetDebt(ctx, sooner.ID)
	require.NoError(t, err)
	assert.True(t, got.RemindedAt.Equal(at))
	assert.Equal(t, "concert", got.Description)

	require.NoError(t, s.DeleteDebt(ctx, later.ID))
	require.ErrorIs(t, s.DeleteDebt(ctx, later.ID), core.ErrNotFound)
	require.ErrorIs(t, s.MarkReminded(ctx, later.ID, at), core.ErrNotFound)
}

func testSyncTracking(t *testing.T, s ports.Store) {
	ctx := context.Background()
	a, err := s.CreateTransaction(ctx, tx(core.Expense, "Food", 100, core.NewDate(2024, 5, 1)))
	require.NoError(t, err)
	b, err := s.CreateTransaction(ctx, tx(core.Expense, "Car", 200, core.NewDate(2024, 5, 2)))
	require.NoError(t, err)

	pending, err := s.PendingSync(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, ports.SyncUpsert, pending[0].Op)

	require.NoError(t, s.MarkSynced(ctx, pending[0]))
	require.NoError(t, s.MarkSyncError(ctx, pending[1], assert.AnError))

	require.NoError(t, s.DeleteTransaction(ctx, a.ID))
	pending, err = s.PendingSync(ctx, 10)
	require.NoError(t, err)

	ops := map[int64]ports.SyncOp{}
	for _, p := range pending {
		ops[p.TransactionID] = p.Op
	}
	assert.Equal(t, ports.SyncDelete, ops[a.ID])
	assert.Equal(t, ports.SyncUpsert, ops[b.ID], "failed export stays pending")

	for _, p := range pending {
		require.NoError(t, s.MarkSynced(ctx, p))
	}
	pending, err = s.PendingSync(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
