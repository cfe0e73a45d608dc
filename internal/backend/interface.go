// Package backend builds the configured store and its optional message
// publisher.
package backend

import (
	"context"

	"fintrack/internal/amqp"
	"fintrack/internal/ports"
	"fintrack/internal/services"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the store, the publisher when AMQP is reachable
// and a cleanup function releasing both.
type BackendResult struct {
	Store     ports.Store
	Publisher *amqp.Publisher
	Cleanup   CleanupFunc
}

// TransactionPublisher returns the publisher as the service interface. It
// is a nil interface, not a nil pointer, when there is no publisher.
func (r *BackendResult) TransactionPublisher() services.TransactionPublisher {
	if r.Publisher == nil {
		return nil
	}
	return r.Publisher
}

// ReminderSender is TransactionPublisher's counterpart for debt reminders.
func (r *BackendResult) ReminderSender() services.ReminderSender {
	if r.Publisher == nil {
		return nil
	}
	return r.Publisher
}

// Close runs Cleanup if set.
func (r *BackendResult) Close() error {
	if r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	SQLiteDBPath string

	// AMQP is optional for both backends.
	AMQPURL               string
	AMQPExchange          string
	AMQPTransactionsQueue string
	AMQPRemindersQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
