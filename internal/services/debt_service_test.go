package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/memory"
)

func debt(dir core.Direction, who string, cents int64, due core.Date) core.Debt {
	return core.Debt{Direction: dir, Counterparty: who, Amount: core.Money{Cents: cents}, RepaymentDate: due}
}

func TestDebtService_AddListSummary(t *testing.T) {
	svc := NewDebtService(memory.New())
	ctx := context.Background()

	for _, d := range []core.Debt{
		debt(core.OwedByMe, "Anna", 5000, core.NewDate(2024, 9, 1)),
		debt(core.OwedToMe, "Marco", 2000, core.NewDate(2024, 8, 15)),
		debt(core.OwedByMe, " Luca ", 1000, core.NewDate(2024, 8, 15)),
	} {
		_, err := svc.Add(ctx, d)
		require.NoError(t, err)
	}

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"Marco", "Luca", "Anna"},
		[]string{list[0].Counterparty, list[1].Counterparty, list[2].Counterparty},
		"by repayment date, then insertion order")

	sum, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Len(t, sum.Debts, 2)
	assert.Len(t, sum.Credits, 1)
	assert.Equal(t, int64(6000), sum.TotalDebt.Cents)
	assert.Equal(t, int64(2000), sum.TotalCredit.Cents)
}

func TestDebtService_Validation(t *testing.T) {
	svc := NewDebtService(memory.New())
	ctx := context.Background()
	due := core.NewDate(2024, 1, 1)

	_, err := svc.Add(ctx, debt(core.OwedByMe, "  ", 100, due))
	assert.ErrorIs(t, err, core.ErrEmptyCounterparty)

	_, err = svc.Add(ctx, debt("sideways", "Anna", 100, due))
	assert.ErrorIs(t, err, core.ErrInvalidDirection)

	_, err = svc.Add(ctx, debt(core.OwedToMe, "Anna", -5, due))
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
}

func TestDebtService_Delete(t *testing.T) {
	svc := NewDebtService(memory.New())
	ctx := context.Background()

	d, err := svc.Add(ctx, debt(core.OwedByMe, "Anna", 100, core.NewDate(2024, 1, 1)))
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, d.ID))
	assert.ErrorIs(t, svc.Delete(ctx, d.ID), core.ErrNotFound)
}
