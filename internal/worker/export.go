// Package worker runs the background jobs: exporting transactions to the
// external sheet and sending debt reminders.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/ports"
)

// ExportStore is what the export worker reads from the database.
type ExportStore interface {
	GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
	ports.SyncTracker
}

// ExportWorker mirrors stored transactions to an Exporter. Events are the
// fast path; the sync queue sweep recovers anything they missed.
type ExportWorker struct {
	store     ExportStore
	exporter  ports.Exporter
	batchSize int
}

func NewExportWorker(store ExportStore, exporter ports.Exporter, batchSize int) *ExportWorker {
	if batchSize < 1 {
		batchSize = 10
	}
	return &ExportWorker{
		store:     store,
		exporter:  exporter,
		batchSize: batchSize,
	}
}

// HandleEvent exports the change announced by ev. Returning an error
// requeues the message.
func (w *ExportWorker) HandleEvent(ctx context.Context, ev *amqp.TransactionEvent) error {
	slog.InfoContext(ctx, "Processing transaction event",
		"id", ev.ID,
		"action", ev.Action)

	var op ports.SyncOp
	switch ev.Action {
	case amqp.ActionCreated, amqp.ActionUpdated:
		op = ports.SyncUpsert
	case amqp.ActionDeleted:
		op = ports.SyncDelete
	default:
		slog.WarnContext(ctx, "Ignoring transaction event with unknown action",
			"id", ev.ID,
			"action", ev.Action)
		return nil
	}

	since := ev.Timestamp
	if since.IsZero() {
		since = time.Now()
	}
	return w.export(ctx, ports.PendingSync{TransactionID: ev.ID, Op: op, Since: since})
}

// ProcessPending exports one batch from the sync queue.
func (w *ExportWorker) ProcessPending(ctx context.Context) error {
	_, _, err := w.sweep(ctx, w.batchSize)
	return err
}

// StartupSyncCheck drains a larger batch at start-up to recover from
// worker downtime.
func (w *ExportWorker) StartupSyncCheck(ctx context.Context) error {
	synced, failed, err := w.sweep(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("startup sync check: %w", err)
	}
	if synced+failed == 0 {
		slog.InfoContext(ctx, "No pending transactions found on startup")
		return nil
	}
	slog.InfoContext(ctx, "Startup sync completed",
		"total", synced+failed,
		"synced", synced,
		"errors", failed)
	return nil
}

func (w *ExportWorker) sweep(ctx context.Context, limit int) (synced, failed int, err error) {
	pending, err := w.store.PendingSync(ctx, limit)
	if err != nil {
		return 0, 0, fmt.Errorf("get pending sync: %w", err)
	}
	if len(pending) > 0 {
		slog.InfoContext(ctx, "Processing pending transactions", "count", len(pending))
	}

	for _, p := range pending {
		if ctx.Err() != nil {
			return synced, failed, ctx.Err()
		}
		if err := w.export(ctx, p); err != nil {
			slog.ErrorContext(ctx, "Failed to export transaction", "id", p.TransactionID, "op", p.Op, "error", err)
			failed++
			continue
		}
		synced++
	}
	return synced, failed, nil
}

// export applies p to the exporter and settles the sync queue entry.
func (w *ExportWorker) export(ctx context.Context, p ports.PendingSync) error {
	var err error
	switch p.Op {
	case ports.SyncUpsert:
		err = w.upsert(ctx, p.TransactionID)
	case ports.SyncDelete:
		err = w.exporter.DeleteTransaction(ctx, p.TransactionID)
	default:
		err = fmt.Errorf("unknown sync operation: %s", p.Op)
	}

	if err != nil {
		if markErr := w.store.MarkSyncError(ctx, p, err); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", p.TransactionID, "error", markErr)
		}
		return err
	}

	if err := w.store.MarkSynced(ctx, p); err != nil {
		// The export happened; a later sweep repeats it harmlessly.
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", p.TransactionID, "error", err)
	}
	return nil
}

func (w *ExportWorker) upsert(ctx context.Context, id int64) error {
	t, err := w.store.GetTransaction(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		// Deleted after the event; the delete entry removes the row.
		slog.InfoContext(ctx, "Transaction gone before export, skipping", "id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}
	if err := w.exporter.UpsertTransaction(ctx, t); err != nil {
		return fmt.Errorf("export transaction: %w", err)
	}
	slog.InfoContext(ctx, "Successfully exported transaction",
		"id", id,
		"kind", t.Kind,
		"category", t.Category,
		"amount_cents", t.Amount.Cents)
	return nil
}
