package services

import (
	"fmt"
	"time"

	"fintrack/internal/core"
)

// ReminderPolicy decides when a debt's repayment reminder is due.
type ReminderPolicy interface {
	IsDue(d core.Debt, now time.Time) bool
}

// OnDay is due from the start of the repayment day.
type OnDay struct{}

func (OnDay) IsDue(d core.Debt, now time.Time) bool {
	return !core.DateOf(now).Before(d.RepaymentDate.Time)
}

// DaysBefore is due N calendar days ahead of the repayment day.
type DaysBefore struct {
	N int
}

func (p DaysBefore) IsDue(d core.Debt, now time.Time) bool {
	return !core.DateOf(now).Before(d.RepaymentDate.AddDays(-p.N).Time)
}

// PolicyFactory builds a policy from the configured lead time in days.
type PolicyFactory func(leadDays int) ReminderPolicy

const (
	PolicyOnDay      = "on_day"
	PolicyDaysBefore = "days_before"
)

var reminderPolicies = map[string]PolicyFactory{
	PolicyOnDay:      func(int) ReminderPolicy { return OnDay{} },
	PolicyDaysBefore: func(n int) ReminderPolicy { return DaysBefore{N: n} },
}

// GetReminderPolicy returns the named policy built for leadDays.
func GetReminderPolicy(name string, leadDays int) (ReminderPolicy, error) {
	factory, ok := reminderPolicies[name]
	if !ok {
		return nil, fmt.Errorf("unknown reminder policy: %s", name)
	}
	return factory(leadDays), nil
}

// RegisterReminderPolicy adds or replaces a named policy.
func RegisterReminderPolicy(name string, factory PolicyFactory) {
	reminderPolicies[name] = factory
}

// PolicyForLeadDays picks OnDay when leadDays is zero, else DaysBefore.
func PolicyForLeadDays(leadDays int) ReminderPolicy {
	name := PolicyOnDay
	if leadDays > 0 {
		name = PolicyDaysBefore
	}
	p, _ := GetReminderPolicy(name, leadDays)
	return p
}
