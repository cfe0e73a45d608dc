package core

// CategoryAmount is an amount aggregated by category name.
type CategoryAmount struct {
	Name    string
	Amount  Money
	Percent float64 // share of the grand total, one decimal
}

// Breakdown groups one kind of transaction by category over a range.
type Breakdown struct {
	Kind       Kind
	Range      DateRange
	Total      Money
	ByCategory []CategoryAmount
}

// MonthOverview is a compact expense summary for a year+month.
type MonthOverview struct {
	Year       int
	Month      int // 1-12
	Total      Money
	ByCategory []CategoryAmount
}

// Balance totals income and expenses over a range.
type Balance struct {
	Range   DateRange
	Income  Money
	Expense Money
	Net     Money // Income - Expense, may be negative
}

// BudgetStatus is a budget together with what was spent against it.
type BudgetStatus struct {
	Budget    Budget
	Spent     Money
	Remaining Money // Limit - Spent, negative when over
	OverLimit bool
}

// Exhausted reports whether spending reached the limit.
func (s BudgetStatus) Exhausted() bool {
	return s.Spent.Cents >= s.Budget.Limit.Cents
}

// BudgetSummary is the month view of all budgets.
type BudgetSummary struct {
	Month           YearMonth
	Income          Money
	Budgeted        Money
	Spent           Money
	Utilization     float64 // Spent / Budgeted, 0 without budgets
	RemainingIncome Money   // Income - Budgeted
	Budgets         []BudgetStatus
	Available       []string // expense categories without a budget
}

// DebtSummary splits debts from credits.
type DebtSummary struct {
	Debts       []Debt
	Credits     []Debt
	TotalDebt   Money
	TotalCredit Money
}
