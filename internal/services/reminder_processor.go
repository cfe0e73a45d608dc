package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/ports"
)

// ReminderSender delivers a due reminder. amqp.Publisher implements it.
type ReminderSender interface {
	DebtDue(ctx context.Context, d core.Debt) error
}

// ReminderProcessor sends one reminder per debt once its policy says so.
type ReminderProcessor struct {
	store  ports.DebtStore
	sender ReminderSender
	policy ReminderPolicy
}

func NewReminderProcessor(store ports.DebtStore, sender ReminderSender, policy ReminderPolicy) *ReminderProcessor {
	if policy == nil {
		policy = OnDay{}
	}
	return &ReminderProcessor{
		store:  store,
		sender: sender,
		policy: policy,
	}
}

// ProcessDue sends the reminders due at now and returns how many were sent.
// A failed send is logged and retried on the next pass.
func (p *ReminderProcessor) ProcessDue(ctx context.Context, now time.Time) (int, error) {
	if p.store == nil || p.sender == nil {
		return 0, errors.New("reminder processor not properly initialized")
	}

	debts, err := p.store.ListDebts(ctx)
	if err != nil {
		return 0, fmt.Errorf("list debts: %w", err)
	}

	sent := 0
	for _, d := range debts {
		if d.Reminded() || !p.policy.IsDue(d, now) {
			continue
		}

		if err := p.sender.DebtDue(ctx, d); err != nil {
			slog.ErrorContext(ctx, "Failed to send debt reminder",
				"debt_id", d.ID,
				"counterparty", d.Counterparty,
				"error", err)
			continue
		}

		if err := p.store.MarkReminded(ctx, d.ID, now); err != nil {
			// Sent but not recorded: the next pass sends it again.
			slog.ErrorContext(ctx, "Failed to mark debt reminded",
				"debt_id", d.ID,
				"error", err)
			continue
		}

		sent++
		slog.InfoContext(ctx, "Sent debt reminder",
			"debt_id", d.ID,
			"direction", d.Direction,
			"counterparty", d.Counterparty,
			"amount_cents", d.Amount.Cents,
			"repayment_date", d.RepaymentDate.String())
	}

	slog.InfoContext(ctx, "Reminder processing complete",
		"sent", sent,
		"total_checked", len(debts))

	return sent, nil
}
