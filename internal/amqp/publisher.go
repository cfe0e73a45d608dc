package amqp

import (
	"context"
	"time"

	"fintrack/internal/core"
)

// Publisher routes domain notifications to their queues.
type Publisher struct {
	client            *Client
	transactionsQueue string
	remindersQueue    string
}

func NewPublisher(client *Client, transactionsQueue, remindersQueue string) *Publisher {
	return &Publisher{
		client:            client,
		transactionsQueue: transactionsQueue,
		remindersQueue:    remindersQueue,
	}
}

// TransactionChanged publishes a TransactionEvent.
func (p *Publisher) TransactionChanged(ctx context.Context, id int64, action string) error {
	return p.client.PublishTransactionEvent(ctx, p.transactionsQueue, id, action)
}

// DebtDue publishes a DebtReminder for d.
func (p *Publisher) DebtDue(ctx context.Context, d core.Debt) error {
	return p.client.PublishDebtReminder(ctx, p.remindersQueue, NewDebtReminder(d))
}

func NewDebtReminder(d core.Debt) *DebtReminder {
	return &DebtReminder{
		DebtID:        d.ID,
		Direction:     string(d.Direction),
		Counterparty:  d.Counterparty,
		Description:   d.Description,
		AmountCents:   d.Amount.Cents,
		RepaymentDate: d.RepaymentDate.String(),
		Timestamp:     time.Now(),
	}
}
