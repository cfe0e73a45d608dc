package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/ports"
)

// BudgetService enforces that a month's budgets never exceed its income.
// Budget writes are serialised so the income check and the write it guards
// see the same budgets.
type BudgetService struct {
	budgets      ports.BudgetStore
	transactions ports.TransactionStore
	taxonomy     ports.TaxonomyReader

	mu sync.Mutex
}

func NewBudgetService(budgets ports.BudgetStore, transactions ports.TransactionStore, taxonomy ports.TaxonomyReader) *BudgetService {
	return &BudgetService{
		budgets:      budgets,
		transactions: transactions,
		taxonomy:     taxonomy,
	}
}

// SetBudget creates the spending limit for an expense category in month.
func (s *BudgetService) SetBudget(ctx context.Context, category string, limit core.Money, month core.YearMonth) (core.Budget, error) {
	b := core.Budget{Category: strings.TrimSpace(category), Limit: limit, Month: month}
	if err := b.Validate(); err != nil {
		return core.Budget{}, invalid("budget", err)
	}
	if s.taxonomy != nil {
		name, ok := s.taxonomy.Canonical(core.Expense, b.Category)
		if !ok {
			return core.Budget{}, invalid("budget", fmt.Errorf("%w: %q is not an expense category", core.ErrUnknownCategory, b.Category))
		}
		b.Category = name
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.budgets.ListBudgets(ctx, month)
	if err != nil {
		return core.Budget{}, fmt.Errorf("list budgets: %w", err)
	}
	var budgeted core.Money
	for _, e := range existing {
		if strings.EqualFold(e.Category, b.Category) {
			return core.Budget{}, fmt.Errorf("set budget %s %s: %w", b.Category, month, core.ErrBudgetExists)
		}
		budgeted = budgeted.Add(e.Limit)
	}

	if err := s.checkIncome(ctx, month, budgeted.Add(limit)); err != nil {
		return core.Budget{}, err
	}

	saved, err := s.budgets.CreateBudget(ctx, b)
	if err != nil {
		return core.Budget{}, fmt.Errorf("save budget: %w", err)
	}
	return saved, nil
}

// UpdateLimit changes a budget's limit. The new limit may use the income
// not already taken by the month's other budgets.
func (s *BudgetService) UpdateLimit(ctx context.Context, id int64, limit core.Money) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.budgets.GetBudget(ctx, id)
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	b.Limit = limit
	if err := b.Validate(); err != nil {
		return core.Budget{}, invalid("budget", err)
	}

	existing, err := s.budgets.ListBudgets(ctx, b.Month)
	if err != nil {
		return core.Budget{}, fmt.Errorf("list budgets: %w", err)
	}
	var others core.Money
	for _, e := range existing {
		if e.ID != id {
			others = others.Add(e.Limit)
		}
	}

	if err := s.checkIncome(ctx, b.Month, others.Add(limit)); err != nil {
		return core.Budget{}, err
	}

	if err := s.budgets.UpdateBudget(ctx, b); err != nil {
		return core.Budget{}, fmt.Errorf("update budget: %w", err)
	}
	return b, nil
}

func (s *BudgetService) DeleteBudget(ctx context.Context, id int64) error {
	if err := s.budgets.DeleteBudget(ctx, id); err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return nil
}

// MonthStatus reports spending against every budget of month. Exhausted
// budgets sort first, then by category.
func (s *BudgetService) MonthStatus(ctx context.Context, month core.YearMonth) (core.BudgetSummary, error) {
	if err := month.Validate(); err != nil {
		return core.BudgetSummary{}, invalid("month", err)
	}

	budgets, err := s.budgets.ListBudgets(ctx, month)
	if err != nil {
		return core.BudgetSummary{}, fmt.Errorf("list budgets: %w", err)
	}
	r := month.Range()
	txs, err := s.transactions.ListTransactions(ctx, ports.TransactionFilter{From: r.From, To: r.To})
	if err != nil {
		return core.BudgetSummary{}, fmt.Errorf("list transactions: %w", err)
	}

	summary := core.BudgetSummary{Month: month}
	spentBy := make(map[string]core.Money)
	for _, t := range txs {
		switch t.Kind {
		case core.Income:
			summary.Income = summary.Income.Add(t.Amount)
		case core.Expense:
			key := strings.ToLower(t.Category)
			spentBy[key] = spentBy[key].Add(t.Amount)
		}
	}

	budgeted := make(map[string]bool, len(budgets))
	for _, b := range budgets {
		spent := spentBy[strings.ToLower(b.Category)]
		summary.Budgets = append(summary.Budgets, core.BudgetStatus{
			Budget:    b,
			Spent:     spent,
			Remaining: b.Limit.Sub(spent),
			OverLimit: spent.Cents > b.Limit.Cents,
		})
		summary.Budgeted = summary.Budgeted.Add(b.Limit)
		summary.Spent = summary.Spent.Add(spent)
		budgeted[strings.ToLower(b.Category)] = true
	}

	sort.SliceStable(summary.Budgets, func(i, j int) bool {
		a, b := summary.Budgets[i], summary.Budgets[j]
		if a.Exhausted() != b.Exhausted() {
			return a.Exhausted()
		}
		return a.Budget.Category < b.Budget.Category
	})

	if summary.Budgeted.Cents > 0 {
		summary.Utilization = float64(summary.Spent.Cents) / float64(summary.Budgeted.Cents)
	}
	summary.RemainingIncome = summary.Income.Sub(summary.Budgeted)

	if s.taxonomy != nil {
		for _, name := range s.taxonomy.List(core.Expense) {
			if !budgeted[strings.ToLower(name)] {
				summary.Available = append(summary.Available, name)
			}
		}
	}
	return summary, nil
}

func (s *BudgetService) checkIncome(ctx context.Context, month core.YearMonth, total core.Money) error {
	income, err := s.monthIncome(ctx, month)
	if err != nil {
		return err
	}
	if total.Cents > income.Cents {
		return fmt.Errorf("budgets total %s exceed income %s for %s: %w",
			total, income, month, core.ErrInsufficientIncome)
	}
	return nil
}

func (s *BudgetService) monthIncome(ctx context.Context, month core.YearMonth) (core.Money, error) {
	r := month.Range()
	txs, err := s.transactions.ListTransactions(ctx, ports.TransactionFilter{
		From: r.From,
		To:   r.To,
		Kind: core.Income,
	})
	if err != nil {
		return core.Money{}, fmt.Errorf("list income: %w", err)
	}
	var total core.Money
	for _, t := range txs {
		total = total.Add(t.Amount)
	}
	return total, nil
}
