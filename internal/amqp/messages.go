package amqp

import (
	"encoding/json"
	"time"
)

// Transaction event actions.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// TransactionEvent announces a change to a stored transaction. It carries
// only the ID; consumers read the current row from the store.
type TransactionEvent struct {
	ID        int64     `json:"id"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

func NewTransactionEvent(id int64, action string) *TransactionEvent {
	return &TransactionEvent{
		ID:        id,
		Action:    action,
		Timestamp: time.Now(),
	}
}

func (m *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var msg TransactionEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// DebtReminder is emitted when a debt or credit reaches its repayment
// reminder. Delivering it to the user is up to the consumer.
type DebtReminder struct {
	DebtID        int64     `json:"debt_id"`
	Direction     string    `json:"direction"`
	Counterparty  string    `json:"counterparty"`
	Description   string    `json:"description,omitempty"`
	AmountCents   int64     `json:"amount_cents"`
	RepaymentDate string    `json:"repayment_date"` // YYYY-MM-DD
	Timestamp     time.Time `json:"timestamp"`
}

func (m *DebtReminder) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func DebtReminderFromJSON(data []byte) (*DebtReminder, error) {
	var msg DebtReminder
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
