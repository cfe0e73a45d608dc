// Package storage is the SQLite backend.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"fintrack/internal/core"
	"fintrack/internal/ports"
)

const dateLayout = "2006-01-02"

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

var _ ports.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// withTx runs fn inside a transaction, committing when it returns nil.
func (r *SQLiteRepository) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) enqueueSync(ctx context.Context, tx *sql.Tx, id int64, op ports.SyncOp) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO sync_queue (transaction_id, op, since_ns, attempts, last_error)
		VALUES (?, ?, ?, 0, NULL)
		ON CONFLICT (transaction_id) DO UPDATE SET
			op = excluded.op, since_ns = excluded.since_ns, attempts = 0, last_error = NULL`,
		id, string(op), r.now().UnixNano())
	if err != nil {
		return fmt.Errorf("enqueue sync: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO transactions (kind, account, category, amount_cents, date, notes)
			VALUES (?, ?, ?, ?, ?, ?)`,
			string(t.Kind), string(t.Account), t.Category, t.Amount.Cents, t.Date.Format(dateLayout), t.Notes)
		if err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
		if t.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("read transaction id: %w", err)
		}
		return r.enqueueSync(ctx, tx, t.ID, ports.SyncUpsert)
	})
	if err != nil {
		return core.Transaction{}, err
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", t.ID,
		"kind", t.Kind,
		"category", t.Category,
		"amount_cents", t.Amount.Cents,
		"date", t.Date.String())
	return t, nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	return r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE transactions
			SET kind = ?, account = ?, category = ?, amount_cents = ?, date = ?, notes = ?,
			    updated_at = CURRENT_TIMESTAMP
			WHERE id = ?`,
			string(t.Kind), string(t.Account), t.Category, t.Amount.Cents, t.Date.Format(dateLayout), t.Notes, t.ID)
		if err != nil {
			return fmt.Errorf("update transaction: %w", err)
		}
		if err := requireOneRow(res, "transaction", t.ID); err != nil {
			return err
		}
		return r.enqueueSync(ctx, tx, t.ID, ports.SyncUpsert)
	})
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete transaction: %w", err)
		}
		if err := requireOneRow(res, "transaction", id); err != nil {
			return err
		}
		return r.enqueueSync(ctx, tx, id, ports.SyncDelete)
	})
}

const transactionColumns = `id, kind, account, category, amount_cents, date, notes`

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, f ports.TransactionFilter) ([]core.Transaction, error) {
	var (
		where []string
		args  []any
	)
	if !f.From.IsZero() {
		where = append(where, "date >= ?")
		args = append(args, f.From.Format(dateLayout))
	}
	if !f.To.IsZero() {
		where = append(where, "date <= ?")
		args = append(args, f.To.Format(dateLayout))
	}
	if f.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(f.Kind))
	}
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}
	q := `SELECT ` + transactionColumns + ` FROM transactions`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY date DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s scanner) (core.Transaction, error) {
	var (
		t                   core.Transaction
		kind, account, date string
	)
	if err := s.Scan(&t.ID, &kind, &account, &t.Category, &t.Amount.Cents, &date, &t.Notes); err != nil {
		return core.Transaction{}, err
	}
	t.Kind = core.Kind(kind)
	t.Account = core.AccountType(account)
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Transaction{}, err
	}
	t.Date = d
	return t, nil
}

func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO budgets (category, limit_cents, year, month) VALUES (?, ?, ?, ?)`,
		b.Category, b.Limit.Cents, b.Month.Year, int(b.Month.Month))
	if err != nil {
		if isUniqueViolation(err) {
			return core.Budget{}, fmt.Errorf("%s %s: %w", b.Category, b.Month, core.ErrBudgetExists)
		}
		return core.Budget{}, fmt.Errorf("insert budget: %w", err)
	}
	if b.ID, err = res.LastInsertId(); err != nil {
		return core.Budget{}, fmt.Errorf("read budget id: %w", err)
	}
	return b, nil
}

func (r *SQLiteRepository) UpdateBudget(ctx context.Context, b core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE budgets SET category = ?, limit_cents = ?, year = ?, month = ? WHERE id = ?`,
		b.Category, b.Limit.Cents, b.Month.Year, int(b.Month.Month), b.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%s %s: %w", b.Category, b.Month, core.ErrBudgetExists)
		}
		return fmt.Errorf("update budget: %w", err)
	}
	return requireOneRow(res, "budget", b.ID)
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return requireOneRow(res, "budget", id)
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, id int64) (core.Budget, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, category, limit_cents, year, month FROM budgets WHERE id = ?`, id)
	b, err := scanBudget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, fmt.Errorf("budget %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	return b, nil
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context, month core.YearMonth) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, category, limit_cents, year, month FROM budgets
		WHERE year = ? AND month = ? ORDER BY category`,
		month.Year, int(month.Month))
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func scanBudget(s scanner) (core.Budget, error) {
	var (
		b     core.Budget
		month int
	)
	if err := s.Scan(&b.ID, &b.Category, &b.Limit.Cents, &b.Month.Year, &month); err != nil {
		return core.Budget{}, err
	}
	b.Month.Month = time.Month(month)
	return b, nil
}

func (r *SQLiteRepository) CreateDebt(ctx context.Context, d core.Debt) (core.Debt, error) {
	if err := d.Validate(); err != nil {
		return core.Debt{}, err
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO debts (direction, counterparty, description, amount_cents, repayment_date)
		VALUES (?, ?, ?, ?, ?)`,
		string(d.Direction), d.Counterparty, d.Description, d.Amount.Cents, d.RepaymentDate.Format(dateLayout))
	if err != nil {
		return core.Debt{}, fmt.Errorf("insert debt: %w", err)
	}
	if d.ID, err = res.LastInsertId(); err != nil {
		return core.Debt{}, fmt.Errorf("read debt id: %w", err)
	}
	return d, nil
}

func (r *SQLiteRepository) DeleteDebt(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM debts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete debt: %w", err)
	}
	return requireOneRow(res, "debt", id)
}

const debtColumns = `id, direction, counterparty, description, amount_cents, repayment_date, reminded_at`

func (r *SQLiteRepository) GetDebt(ctx context.Context, id int64) (core.Debt, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+debtColumns+` FROM debts WHERE id = ?`, id)
	d, err := scanDebt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Debt{}, fmt.Errorf("debt %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Debt{}, fmt.Errorf("get debt: %w", err)
	}
	return d, nil
}

func (r *SQLiteRepository) ListDebts(ctx context.Context) ([]core.Debt, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+debtColumns+` FROM debts ORDER BY repayment_date, id`)
	if err != nil {
		return nil, fmt.Errorf("list debts: %w", err)
	}
	defer rows.Close()

	var out []core.Debt
	for rows.Next() {
		d, err := scanDebt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan debt: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) MarkReminded(ctx context.Context, id int64, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE debts SET reminded_at = ? WHERE id = ?`, at.UnixNano(), id)
	if err != nil {
		return fmt.Errorf("mark debt reminded: %w", err)
	}
	return requireOneRow(res, "debt", id)
}

func scanDebt(s scanner) (core.Debt, error) {
	var (
		d                    core.Debt
		direction, repayment string
		reminded             sql.NullInt64
	)
	if err := s.Scan(&d.ID, &direction, &d.Counterparty, &d.Description, &d.Amount.Cents, &repayment, &reminded); err != nil {
		return core.Debt{}, err
	}
	d.Direction = core.Direction(direction)
	date, err := core.ParseDate(repayment)
	if err != nil {
		return core.Debt{}, err
	}
	d.RepaymentDate = date
	if reminded.Valid {
		d.RemindedAt = time.Unix(0, reminded.Int64).UTC()
	}
	return d, nil
}

// PendingSync returns queued exports, oldest first.
func (r *SQLiteRepository) PendingSync(ctx context.Context, limit int) ([]ports.PendingSync, error) {
	if limit <= 0 {
		limit = -1 // no limit
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT transaction_id, op, since_ns FROM sync_queue
		ORDER BY since_ns, transaction_id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync: %w", err)
	}
	defer rows.Close()

	var out []ports.PendingSync
	for rows.Next() {
		var (
			p     ports.PendingSync
			op    string
			since int64
		)
		if err := rows.Scan(&p.TransactionID, &op, &since); err != nil {
			return nil, fmt.Errorf("scan pending sync: %w", err)
		}
		p.Op = ports.SyncOp(op)
		p.Since = time.Unix(0, since)
		out = append(out, p)
	}
	return out, rows.Err()
}

// MarkSynced dequeues p unless a newer change was queued since.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, p ports.PendingSync) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM sync_queue WHERE transaction_id = ? AND op = ? AND since_ns <= ?`,
		p.TransactionID, string(p.Op), p.Since.UnixNano())
	if err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}
	slog.InfoContext(ctx, "Transaction marked as synced", "id", p.TransactionID, "op", p.Op)
	return nil
}

// MarkSyncError records the failure and leaves p queued for a retry.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, p ports.PendingSync, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	_, err := r.db.ExecContext(ctx, `
		UPDATE sync_queue SET attempts = attempts + 1, last_error = ? WHERE transaction_id = ?`,
		msg, p.TransactionID)
	if err != nil {
		return fmt.Errorf("mark sync error: %w", err)
	}
	slog.WarnContext(ctx, "Transaction marked with sync error", "id", p.TransactionID, "error", msg)
	return nil
}

func requireOneRow(res sql.Result, what string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", what, id, core.ErrNotFound)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
