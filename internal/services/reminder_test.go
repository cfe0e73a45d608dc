package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/memory"
)

func TestReminderPolicies(t *testing.T) {
	d := core.Debt{RepaymentDate: core.NewDate(2024, 3, 10)}

	tests := []struct {
		name   string
		policy ReminderPolicy
		now    time.Time
		want   bool
	}{
		{"on day - day before", OnDay{}, time.Date(2024, 3, 9, 23, 59, 0, 0, time.UTC), false},
		{"on day - start of day", OnDay{}, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), true},
		{"on day - overdue", OnDay{}, time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC), true},
		{"two days before - too early", DaysBefore{N: 2}, time.Date(2024, 3, 7, 18, 0, 0, 0, time.UTC), false},
		{"two days before - due", DaysBefore{N: 2}, time.Date(2024, 3, 8, 0, 1, 0, 0, time.UTC), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.policy.IsDue(d, tt.now); got != tt.want {
				t.Errorf("IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReminderPolicyRegistry(t *testing.T) {
	assert.Equal(t, OnDay{}, PolicyForLeadDays(0))
	assert.Equal(t, DaysBefore{N: 3}, PolicyForLeadDays(3))

	_, err := GetReminderPolicy("weekly_nag", 0)
	assert.Error(t, err)

	RegisterReminderPolicy("always", func(int) ReminderPolicy { return DaysBefore{N: 36500} })
	p, err := GetReminderPolicy("always", 0)
	require.NoError(t, err)
	assert.True(t, p.IsDue(core.Debt{RepaymentDate: core.NewDate(2099, 1, 1)}, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestReminderProcessor_ProcessDue(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

	due, err := store.CreateDebt(ctx, debt(core.OwedByMe, "Anna", 100, core.NewDate(2024, 3, 10)))
	require.NoError(t, err)
	overdue, err := store.CreateDebt(ctx, debt(core.OwedToMe, "Marco", 100, core.NewDate(2024, 3, 1)))
	require.NoError(t, err)
	_, err = store.CreateDebt(ctx, debt(core.OwedByMe, "Luca", 100, core.NewDate(2024, 3, 11)))
	require.NoError(t, err)

	sender := &recordingSender{}
	p := NewReminderProcessor(store, sender, OnDay{})

	n, err := p.ProcessDue(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.ElementsMatch(t, []int64{due.ID, overdue.ID}, sender.sent)

	got, err := store.GetDebt(ctx, due.ID)
	require.NoError(t, err)
	assert.True(t, got.Reminded())

	n, err = p.ProcessDue(ctx, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n, "reminders are sent once")
}

func TestReminderProcessor_FailedSendRetries(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

	d, err := store.CreateDebt(ctx, debt(core.OwedByMe, "Anna", 100, core.NewDate(2024, 3, 10)))
	require.NoError(t, err)

	sender := &recordingSender{fail: map[int64]bool{d.ID: true}}
	p := NewReminderProcessor(store, sender, nil)

	n, err := p.ProcessDue(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, n)

	delete(sender.fail, d.ID)
	n, err = p.ProcessDue(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestReminderProcessor_NotInitialized(t *testing.T) {
	_, err := NewReminderProcessor(memory.New(), nil, nil).ProcessDue(context.Background(), time.Now())
	assert.Error(t, err)
}
