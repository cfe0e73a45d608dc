package http

import (
	"fintrack/internal/core"
)

// JSON views of the domain types. Amounts travel both as a decimal string
// and as integer cents; Display is formatted with the configured currency.

type moneyJSON struct {
	Amount  string `json:"amount"`
	Cents   int64  `json:"cents"`
	Display string `json:"display"`
}

type transactionJSON struct {
	ID       int64     `json:"id"`
	Kind     string    `json:"kind"`
	Account  string    `json:"account"`
	Category string    `json:"category"`
	Amount   moneyJSON `json:"amount"`
	Date     string    `json:"date"`
	Notes    string    `json:"notes,omitempty"`
}

type transactionRequest struct {
	Kind             string `json:"kind"`
	Account          string `json:"account"`
	Category         string `json:"category"`
	Amount           string `json:"amount"`
	AmountExpression string `json:"amount_expression"`
	Date             string `json:"date"`
	Notes            string `json:"notes"`
}

type budgetRequest struct {
	Category string `json:"category"`
	Limit    string `json:"limit"`
	Month    string `json:"month"`
}

type budgetJSON struct {
	ID       int64     `json:"id"`
	Category string    `json:"category"`
	Limit    moneyJSON `json:"limit"`
	Month    string    `json:"month"`
}

type budgetStatusJSON struct {
	budgetJSON
	Spent     moneyJSON `json:"spent"`
	Remaining moneyJSON `json:"remaining"`
	OverLimit bool      `json:"over_limit"`
	Exhausted bool      `json:"exhausted"`
}

type budgetSummaryJSON struct {
	Month           string             `json:"month"`
	Income          moneyJSON          `json:"income"`
	Budgeted        moneyJSON          `json:"budgeted"`
	Spent           moneyJSON          `json:"spent"`
	Utilization     float64            `json:"utilization"`
	RemainingIncome moneyJSON          `json:"remaining_income"`
	Budgets         []budgetStatusJSON `json:"budgets"`
	Available       []string           `json:"available_categories"`
}

type categoryAmountJSON struct {
	Name    string    `json:"name"`
	Amount  moneyJSON `json:"amount"`
	Percent float64   `json:"percent"`
}

type breakdownJSON struct {
	Kind       string               `json:"kind"`
	From       string               `json:"from"`
	To         string               `json:"to"`
	Total      moneyJSON            `json:"total"`
	ByCategory []categoryAmountJSON `json:"by_category"`
}

type balanceJSON struct {
	From    string    `json:"from"`
	To      string    `json:"to"`
	Income  moneyJSON `json:"income"`
	Expense moneyJSON `json:"expense"`
	Net     moneyJSON `json:"net"`
}

type overviewJSON struct {
	Year       int                  `json:"year"`
	Month      int                  `json:"month"`
	Total      moneyJSON            `json:"total"`
	ByCategory []categoryAmountJSON `json:"by_category"`
}

type debtRequest struct {
	Direction     string `json:"direction"`
	Counterparty  string `json:"counterparty"`
	Description   string `json:"description"`
	Amount        string `json:"amount"`
	RepaymentDate string `json:"repayment_date"`
}

type debtJSON struct {
	ID            int64     `json:"id"`
	Direction     string    `json:"direction"`
	Counterparty  string    `json:"counterparty"`
	Description   string    `json:"description,omitempty"`
	Amount        moneyJSON `json:"amount"`
	RepaymentDate string    `json:"repayment_date"`
	Reminded      bool      `json:"reminded"`
}

type debtSummaryJSON struct {
	Debts       []debtJSON `json:"debts"`
	Credits     []debtJSON `json:"credits"`
	TotalDebt   moneyJSON  `json:"total_debt"`
	TotalCredit moneyJSON  `json:"total_credit"`
}

// views renders domain values with one currency symbol.
type views struct {
	currency string
}

func (v views) money(m core.Money) moneyJSON {
	return moneyJSON{Amount: m.String(), Cents: m.Cents, Display: m.Format(v.currency)}
}

func (v views) transaction(t core.Transaction) transactionJSON {
	return transactionJSON{
		ID:       t.ID,
		Kind:     string(t.Kind),
		Account:  string(t.Account),
		Category: t.Category,
		Amount:   v.money(t.Amount),
		Date:     t.Date.String(),
		Notes:    t.Notes,
	}
}

func (v views) transactions(txs []core.Transaction) []transactionJSON {
	out := make([]transactionJSON, 0, len(txs))
	for _, t := range txs {
		out = append(out, v.transaction(t))
	}
	return out
}

func (v views) budget(b core.Budget) budgetJSON {
	return budgetJSON{ID: b.ID, Category: b.Category, Limit: v.money(b.Limit), Month: b.Month.String()}
}

func (v views) budgetSummary(s core.BudgetSummary) budgetSummaryJSON {
	rows := make([]budgetStatusJSON, 0, len(s.Budgets))
	for _, st := range s.Budgets {
		rows = append(rows, budgetStatusJSON{
			budgetJSON: v.budget(st.Budget),
			Spent:      v.money(st.Spent),
			Remaining:  v.money(st.Remaining),
			OverLimit:  st.OverLimit,
			Exhausted:  st.Exhausted(),
		})
	}
	available := s.Available
	if available == nil {
		available = []string{}
	}
	return budgetSummaryJSON{
		Month:           s.Month.String(),
		Income:          v.money(s.Income),
		Budgeted:        v.money(s.Budgeted),
		Spent:           v.money(s.Spent),
		Utilization:     s.Utilization,
		RemainingIncome: v.money(s.RemainingIncome),
		Budgets:         rows,
		Available:       available,
	}
}

func (v views) categoryAmounts(rows []core.CategoryAmount) []categoryAmountJSON {
	out := make([]categoryAmountJSON, 0, len(rows))
	for _, c := range rows {
		out = append(out, categoryAmountJSON{Name: c.Name, Amount: v.money(c.Amount), Percent: c.Percent})
	}
	return out
}

func (v views) breakdown(b core.Breakdown) breakdownJSON {
	return breakdownJSON{
		Kind:       string(b.Kind),
		From:       b.Range.From.String(),
		To:         b.Range.To.String(),
		Total:      v.money(b.Total),
		ByCategory: v.categoryAmounts(b.ByCategory),
	}
}

func (v views) balance(b core.Balance) balanceJSON {
	return balanceJSON{
		From:    b.Range.From.String(),
		To:      b.Range.To.String(),
		Income:  v.money(b.Income),
		Expense: v.money(b.Expense),
		Net:     v.money(b.Net),
	}
}

func (v views) overview(o core.MonthOverview) overviewJSON {
	return overviewJSON{Year: o.Year, Month: o.Month, Total: v.money(o.Total), ByCategory: v.categoryAmounts(o.ByCategory)}
}

func (v views) debt(d core.Debt) debtJSON {
	return debtJSON{
		ID:            d.ID,
		Direction:     string(d.Direction),
		Counterparty:  d.Counterparty,
		Description:   d.Description,
		Amount:        v.money(d.Amount),
		RepaymentDate: d.RepaymentDate.String(),
		Reminded:      d.Reminded(),
	}
}

func (v views) debts(ds []core.Debt) []debtJSON {
	out := make([]debtJSON, 0, len(ds))
	for _, d := range ds {
		out = append(out, v.debt(d))
	}
	return out
}

func (v views) debtSummary(s core.DebtSummary) debtSummaryJSON {
	return debtSummaryJSON{
		Debts:       v.debts(s.Debts),
		Credits:     v.debts(s.Credits),
		TotalDebt:   v.money(s.TotalDebt),
		TotalCredit: v.money(s.TotalCredit),
	}
}
