package storage

import (
	"context"
	"path/filepath"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/ports"
	"fintrack/internal/ports/porttest"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "fintrack.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteStore(t *testing.T) {
	porttest.RunStoreTests(t, func(t *testing.T) ports.Store { return newTestRepo(t) })
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fintrack.db")
	for i := 0; i < 2; i++ {
		repo, err := NewSQLiteRepository(path)
		if err != nil {
			t.Fatalf("open #%d: %v", i+1, err)
		}
		if err := repo.Ping(context.Background()); err != nil {
			t.Fatalf("ping: %v", err)
		}
		repo.Close()
	}
}

func TestBudgetUniquenessIgnoresCase(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	month := core.YearMonth{Year: 2024, Month: 3}

	if _, err := repo.CreateBudget(ctx, core.Budget{Category: "Food", Limit: core.Money{Cents: 100}, Month: month}); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := repo.CreateBudget(ctx, core.Budget{Category: "food", Limit: core.Money{Cents: 100}, Month: month})
	if err == nil {
		t.Fatal("expected duplicate budget error")
	}
}
