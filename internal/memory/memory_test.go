package memory

import (
	"context"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/ports"
	"fintrack/internal/ports/porttest"
)

func TestStore(t *testing.T) {
	porttest.RunStoreTests(t, func(t *testing.T) ports.Store { return New() })
}

func TestMarkSyncedKeepsNewerChange(t *testing.T) {
	s := New()
	clock := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }
	ctx := context.Background()

	created, err := s.CreateTransaction(ctx, core.Transaction{
		Kind: core.Expense, Account: core.Card, Category: "Food",
		Amount: core.Money{Cents: 100}, Date: core.NewDate(2024, 5, 1),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	pending, _ := s.PendingSync(ctx, 0)
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending, got %d", len(pending))
	}

	// The transaction changes while the export is in flight.
	clock = clock.Add(time.Minute)
	created.Notes = "edited"
	if err := s.UpdateTransaction(ctx, created); err != nil {
		t.Fatalf("update: %v", err)
	}

	if err := s.MarkSynced(ctx, pending[0]); err != nil {
		t.Fatalf("mark synced: %v", err)
	}
	after, _ := s.PendingSync(ctx, 0)
	if len(after) != 1 {
		t.Fatalf("newer change must stay pending, got %v", after)
	}
}
