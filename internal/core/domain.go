package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"

	Card    AccountType = "Card"
	Cash    AccountType = "Cash"
	Savings AccountType = "Savings"

	// OwedByMe is money the user has to give back (a debt).
	OwedByMe Direction = "owed_by_me"
	// OwedToMe is money the user lent out (a credit).
	OwedToMe Direction = "owed_to_me"
)

const (
	maxCategoryLen     = 64
	maxNotesLen        = 200
	maxCounterpartyLen = 100
)

type (
	Kind        string
	AccountType string
	Direction   string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Transaction struct {
		ID       int64
		Kind     Kind
		Account  AccountType
		Category string
		Amount   Money
		Date     Date
		Notes    string
	}

	Budget struct {
		ID       int64
		Category string
		Limit    Money
		Month    YearMonth
	}

	Debt struct {
		ID            int64
		Direction     Direction
		Counterparty  string // who the money goes to or comes from
		Description   string
		Amount        Money
		RepaymentDate Date
		RemindedAt    time.Time // zero until a reminder was sent
	}
)

var (
	ErrInvalidDay         = errors.New("invalid day")
	ErrInvalidMonth       = errors.New("invalid month")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidKind        = errors.New("invalid transaction kind")
	ErrInvalidAccount     = errors.New("invalid account type")
	ErrInvalidDirection   = errors.New("invalid debt direction")
	ErrInvalidPeriod      = errors.New("invalid period")
	ErrEmptyCategory      = errors.New("empty category")
	ErrUnknownCategory    = errors.New("unknown category")
	ErrEmptyCounterparty  = errors.New("empty counterparty")
	ErrNotFound           = errors.New("not found")
	ErrBudgetExists       = errors.New("budget already set for this category and month")
	ErrInsufficientIncome = errors.New("income is insufficient to cover the budget")
)

// NewDate creates a Date at UTC midnight.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

func (d Date) String() string { return d.Format("2006-01-02") }

func (d Date) Day() int   { return d.Time.Day() }
func (d Date) Month() int { return int(d.Time.Month()) }
func (d Date) Year() int  { return d.Time.Year() }

// AddDays returns the date n calendar days later.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// YearMonth returns the month d falls in.
func (d Date) YearMonth() YearMonth {
	return YearMonth{Year: d.Year(), Month: time.Month(d.Month())}
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }
func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }

func (k Kind) Validate() error {
	switch k {
	case Income, Expense:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidKind, string(k))
}

func (a AccountType) Validate() error {
	switch a {
	case Card, Cash, Savings:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidAccount, string(a))
}

// ParseAccountType accepts account names case-insensitively.
func ParseAccountType(s string) (AccountType, error) {
	for _, a := range []AccountType{Card, Cash, Savings} {
		if strings.EqualFold(strings.TrimSpace(s), string(a)) {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidAccount, s)
}

func (d Direction) Validate() error {
	switch d {
	case OwedByMe, OwedToMe:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidDirection, string(d))
}

func validateCategory(c string) error {
	if strings.TrimSpace(c) == "" {
		return ErrEmptyCategory
	}
	if len(c) > maxCategoryLen {
		return fmt.Errorf("category too long (max %d characters)", maxCategoryLen)
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := t.Kind.Validate(); err != nil {
		return err
	}
	if err := t.Account.Validate(); err != nil {
		return err
	}
	if err := validateCategory(t.Category); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if len(t.Notes) > maxNotesLen {
		return fmt.Errorf("notes too long (max %d characters)", maxNotesLen)
	}
	return nil
}

func (b Budget) Validate() error {
	if err := validateCategory(b.Category); err != nil {
		return err
	}
	if err := b.Limit.Validate(); err != nil {
		return err
	}
	return b.Month.Validate()
}

func (d Debt) Validate() error {
	if err := d.Direction.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(d.Counterparty) == "" {
		return ErrEmptyCounterparty
	}
	if len(d.Counterparty) > maxCounterpartyLen {
		return fmt.Errorf("counterparty too long (max %d characters)", maxCounterpartyLen)
	}
	if len(d.Description) > maxNotesLen {
		return fmt.Errorf("description too long (max %d characters)", maxNotesLen)
	}
	if err := d.Amount.Validate(); err != nil {
		return err
	}
	if err := d.RepaymentDate.Validate(); err != nil {
		return fmt.Errorf("invalid repayment date: %w", err)
	}
	return nil
}

// IsDebt reports whether the user owes the money.
func (d Debt) IsDebt() bool { return d.Direction == OwedByMe }

// Reminded reports whether a repayment reminder was already sent.
func (d Debt) Reminded() bool { return !d.RemindedAt.IsZero() }
