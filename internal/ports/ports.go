// Package ports declares the storage and export collaborators the services
// depend on.
package ports

import (
	"context"
	"time"

	"fintrack/internal/core"
)

// TransactionFilter narrows ListTransactions. Zero fields match everything.
type TransactionFilter struct {
	From     core.Date // inclusive
	To       core.Date // inclusive
	Kind     core.Kind
	Category string
}

// Matches reports whether t passes the filter.
func (f TransactionFilter) Matches(t core.Transaction) bool {
	if !f.From.IsZero() && t.Date.Before(f.From.Time) {
		return false
	}
	if !f.To.IsZero() && t.Date.After(f.To.Time) {
		return false
	}
	if f.Kind != "" && t.Kind != f.Kind {
		return false
	}
	if f.Category != "" && t.Category != f.Category {
		return false
	}
	return true
}

// SyncOp is the export operation pending for a transaction.
type SyncOp string

const (
	SyncUpsert SyncOp = "upsert"
	SyncDelete SyncOp = "delete"
)

// PendingSync is a transaction whose export has not been confirmed.
type PendingSync struct {
	TransactionID int64
	Op            SyncOp
	Since         time.Time
}

type (
	TransactionStore interface {
		CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		UpdateTransaction(ctx context.Context, t core.Transaction) error
		DeleteTransaction(ctx context.Context, id int64) error
		GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
		// ListTransactions returns matches newest first.
		ListTransactions(ctx context.Context, f TransactionFilter) ([]core.Transaction, error)
	}

	BudgetStore interface {
		// CreateBudget fails with core.ErrBudgetExists when the category
		// already has a budget for the month.
		CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
		UpdateBudget(ctx context.Context, b core.Budget) error
		DeleteBudget(ctx context.Context, id int64) error
		GetBudget(ctx context.Context, id int64) (core.Budget, error)
		ListBudgets(ctx context.Context, month core.YearMonth) ([]core.Budget, error)
	}

	DebtStore interface {
		CreateDebt(ctx context.Context, d core.Debt) (core.Debt, error)
		DeleteDebt(ctx context.Context, id int64) error
		GetDebt(ctx context.Context, id int64) (core.Debt, error)
		ListDebts(ctx context.Context) ([]core.Debt, error)
		MarkReminded(ctx context.Context, id int64, at time.Time) error
	}

	// SyncTracker records which transactions still need exporting.
	SyncTracker interface {
		PendingSync(ctx context.Context, limit int) ([]PendingSync, error)
		MarkSynced(ctx context.Context, p PendingSync) error
		MarkSyncError(ctx context.Context, p PendingSync, cause error) error
	}

	// Store is everything a backend provides.
	Store interface {
		TransactionStore
		BudgetStore
		DebtStore
		SyncTracker
		Close() error
	}

	// TaxonomyReader lists category names per kind.
	TaxonomyReader interface {
		List(kind core.Kind) []string
		Canonical(kind core.Kind, name string) (string, bool)
	}

	// Exporter mirrors transactions to an external ledger.
	Exporter interface {
		UpsertTransaction(ctx context.Context, t core.Transaction) error
		DeleteTransaction(ctx context.Context, id int64) error
	}
)
