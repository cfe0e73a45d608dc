package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/ports"
)

// DebtService manages money owed by or to the user.
type DebtService struct {
	store ports.DebtStore
}

func NewDebtService(store ports.DebtStore) *DebtService {
	return &DebtService{store: store}
}

func (s *DebtService) Add(ctx context.Context, d core.Debt) (core.Debt, error) {
	d.Counterparty = strings.TrimSpace(d.Counterparty)
	d.Description = strings.TrimSpace(d.Description)
	if err := d.Validate(); err != nil {
		return core.Debt{}, invalid("debt", err)
	}
	saved, err := s.store.CreateDebt(ctx, d)
	if err != nil {
		return core.Debt{}, fmt.Errorf("save debt: %w", err)
	}
	return saved, nil
}

func (s *DebtService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteDebt(ctx, id); err != nil {
		return fmt.Errorf("delete debt: %w", err)
	}
	return nil
}

// List returns all debts and credits by repayment date, earliest first.
func (s *DebtService) List(ctx context.Context) ([]core.Debt, error) {
	debts, err := s.store.ListDebts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list debts: %w", err)
	}
	sort.SliceStable(debts, func(i, j int) bool {
		a, b := debts[i].RepaymentDate, debts[j].RepaymentDate
		if !a.Equal(b.Time) {
			return a.Before(b.Time)
		}
		return debts[i].ID < debts[j].ID
	})
	return debts, nil
}

// Summary splits List into debts and credits with their totals.
func (s *DebtService) Summary(ctx context.Context) (core.DebtSummary, error) {
	all, err := s.List(ctx)
	if err != nil {
		return core.DebtSummary{}, err
	}
	var sum core.DebtSummary
	for _, d := range all {
		if d.IsDebt() {
			sum.Debts = append(sum.Debts, d)
			sum.TotalDebt = sum.TotalDebt.Add(d.Amount)
		} else {
			sum.Credits = append(sum.Credits, d)
			sum.TotalCredit = sum.TotalCredit.Add(d.Amount)
		}
	}
	return sum, nil
}
