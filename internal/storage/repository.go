package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"rentledger/internal/core"
)

// Repository is the SQL persistence gateway. Every error it returns is a
// core.PersistenceError, apart from core.ErrNotFound from the Get methods.
type Repository struct {
	db      *sql.DB
	dialect Dialect

	now   func() time.Time
	newID func() string
}

// NewSQLiteRepository opens (creating if needed) the sqlite database at
// dbPath and applies migrations.
func NewSQLiteRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	return open(DialectSQLite, sqliteDSN(dbPath))
}

// NewPostgresRepository connects to the postgres database at dsn and applies migrations.
func NewPostgresRepository(dsn string) (*Repository, error) {
	return open(DialectPostgres, dsn)
}

func open(dialect Dialect, dsn string) (*Repository, error) {
	driverName, err := dialect.driverName()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dialect, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{
		db:      db,
		dialect: dialect,
		now:     time.Now,
		newID:   uuid.NewString,
	}, nil
}

// sqliteDSN makes concurrent readers wait on a writer instead of failing with SQLITE_BUSY.
func sqliteDSN(path string) string {
	return path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return core.Persistence("ping", r.db.PingContext(ctx))
}

func (r *Repository) Dialect() Dialect {
	return r.dialect
}

func (r *Repository) query(ctx context.Context, q string, args ...any) (*sql.Rows, error) {
	return r.db.QueryContext(ctx, r.dialect.rebind(q), args...)
}

func (r *Repository) queryRow(ctx context.Context, q string, args ...any) *sql.Row {
	return r.db.QueryRowContext(ctx, r.dialect.rebind(q), args...)
}

func (r *Repository) exec(ctx context.Context, q string, args ...any) (sql.Result, error) {
	return r.db.ExecContext(ctx, r.dialect.rebind(q), args...)
}

// collect drains rows through scan.
func collect[T any](rows *sql.Rows, scan func(scanner) (T, error)) ([]T, error) {
	defer rows.Close()
	out := make([]T, 0)
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// execAffected runs a write and reports whether it touched a row.
func (r *Repository) execAffected(ctx context.Context, q string, args ...any) (bool, error) {
	res, err := r.exec(ctx, q, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Incomes

func (r *Repository) ListIncomesByMonth(ctx context.Context, key core.MonthKey) ([]core.Income, error) {
	rows, err := r.query(ctx, "SELECT "+incomeColumns+" FROM incomes WHERE monthyear = ?", string(key))
	if err != nil {
		return nil, core.Persistence("list incomes", err)
	}
	out, err := collect(rows, scanIncome)
	return out, core.Persistence("list incomes", err)
}

func (r *Repository) ListIncomes(ctx context.Context) ([]core.Income, error) {
	rows, err := r.query(ctx, "SELECT "+incomeColumns+" FROM incomes")
	if err != nil {
		return nil, core.Persistence("list incomes", err)
	}
	out, err := collect(rows, scanIncome)
	return out, core.Persistence("list incomes", err)
}

func (r *Repository) GetIncome(ctx context.Context, id string) (core.Income, error) {
	in, err := scanIncome(r.queryRow(ctx, "SELECT "+incomeColumns+" FROM incomes WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Income{}, core.ErrNotFound
	}
	return in, core.Persistence("get income", err)
}

func (r *Repository) CreateIncome(ctx context.Context, in core.NewIncome, actor string) (core.Income, error) {
	rec := in.Build(r.newID(), actor, r.now())
	_, err := r.exec(ctx,
		"INSERT INTO incomes ("+incomeColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		incomeArgs(rec)...)
	if err != nil {
		return core.Income{}, core.Persistence("create income", err)
	}

	slog.InfoContext(ctx, "Income saved",
		"id", rec.ID,
		"month", rec.MonthKey,
		"primary_amount", rec.PrimaryAmount.Minor,
		"actor", actor)

	return rec, nil
}

// UpdateIncome reads the row, applies the patch and writes every column back.
// Concurrent edits resolve as last write wins.
func (r *Repository) UpdateIncome(ctx context.Context, id string, p core.IncomePatch, actor string) (core.Income, bool, error) {
	rec, err := r.GetIncome(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return core.Income{}, false, nil
	}
	if err != nil {
		return core.Income{}, false, err
	}

	p.ApplyTo(&rec, actor, r.now())
	found, err := r.execAffected(ctx,
		`UPDATE incomes SET date = ?, clientname = ?, broughtby = ?, primaryamount = ?, cautionfee = ?,
			commission = ?, netincome = ?, monthyear = ?, updatedat = ?, updatedby = ?
		WHERE id = ?`,
		rec.Date.String(), rec.ClientName, rec.BroughtBy, rec.PrimaryAmount.Minor, nullMoney(rec.CautionFee),
		rec.Commission.Minor, rec.NetIncome.Minor, string(rec.MonthKey), rec.UpdatedAt, rec.UpdatedBy, id)
	if err != nil {
		return core.Income{}, false, core.Persistence("update income", err)
	}
	if !found {
		return core.Income{}, false, nil
	}
	return rec, true, nil
}

func (r *Repository) DeleteIncome(ctx context.Context, id string, actor string) (bool, error) {
	removed, err := r.execAffected(ctx, "DELETE FROM incomes WHERE id = ?", id)
	if err != nil {
		return false, core.Persistence("delete income", err)
	}
	if removed {
		slog.InfoContext(ctx, "Income deleted", "id", id, "actor", actor)
	}
	return removed, nil
}

// Expenses

func (r *Repository) ListExpensesByMonth(ctx context.Context, key core.MonthKey) ([]core.Expense, error) {
	rows, err := r.query(ctx, "SELECT "+expenseColumns+" FROM expenses WHERE monthyear = ?", string(key))
	if err != nil {
		return nil, core.Persistence("list expenses", err)
	}
	out, err := collect(rows, scanExpense)
	return out, core.Persistence("list expenses", err)
}

func (r *Repository) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	rows, err := r.query(ctx, "SELECT "+expenseColumns+" FROM expenses")
	if err != nil {
		return nil, core.Persistence("list expenses", err)
	}
	out, err := collect(rows, scanExpense)
	return out, core.Persistence("list expenses", err)
}

func (r *Repository) GetExpense(ctx context.Context, id string) (core.Expense, error) {
	e, err := scanExpense(r.queryRow(ctx, "SELECT "+expenseColumns+" FROM expenses WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, core.ErrNotFound
	}
	return e, core.Persistence("get expense", err)
}

func (r *Repository) CreateExpense(ctx context.Context, in core.NewExpense, actor string) (core.Expense, error) {
	rec := in.Build(r.newID(), actor, r.now())
	_, err := r.exec(ctx,
		"INSERT INTO expenses ("+expenseColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		expenseArgs(rec)...)
	if err != nil {
		return core.Expense{}, core.Persistence("create expense", err)
	}

	slog.InfoContext(ctx, "Expense saved",
		"id", rec.ID,
		"month", rec.MonthKey,
		"category", rec.Category,
		"amount", rec.Amount.Minor,
		"actor", actor)

	return rec, nil
}

func (r *Repository) UpdateExpense(ctx context.Context, id string, p core.ExpensePatch, actor string) (core.Expense, bool, error) {
	rec, err := r.GetExpense(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return core.Expense{}, false, nil
	}
	if err != nil {
		return core.Expense{}, false, err
	}

	p.ApplyTo(&rec, actor, r.now())
	found, err := r.execAffected(ctx,
		`UPDATE expenses SET date = ?, name = ?, category = ?, amount = ?, notes = ?,
			monthyear = ?, updatedat = ?, updatedby = ?
		WHERE id = ?`,
		rec.Date.String(), rec.Name, string(rec.Category), rec.Amount.Minor, nullString(rec.Notes),
		string(rec.MonthKey), rec.UpdatedAt, rec.UpdatedBy, id)
	if err != nil {
		return core.Expense{}, false, core.Persistence("update expense", err)
	}
	if !found {
		return core.Expense{}, false, nil
	}
	return rec, true, nil
}

func (r *Repository) DeleteExpense(ctx context.Context, id string, actor string) (bool, error) {
	removed, err := r.execAffected(ctx, "DELETE FROM expenses WHERE id = ?", id)
	if err != nil {
		return false, core.Persistence("delete expense", err)
	}
	if removed {
		slog.InfoContext(ctx, "Expense deleted", "id", id, "actor", actor)
	}
	return removed, nil
}

// Withdrawals

func (r *Repository) ListWithdrawalsByMonth(ctx context.Context, key core.MonthKey) ([]core.Withdrawal, error) {
	rows, err := r.query(ctx, "SELECT "+withdrawalColumns+" FROM withdrawals WHERE monthyear = ?", string(key))
	if err != nil {
		return nil, core.Persistence("list withdrawals", err)
	}
	out, err := collect(rows, scanWithdrawal)
	return out, core.Persistence("list withdrawals", err)
}

func (r *Repository) ListWithdrawals(ctx context.Context) ([]core.Withdrawal, error) {
	rows, err := r.query(ctx, "SELECT "+withdrawalColumns+" FROM withdrawals")
	if err != nil {
		return nil, core.Persistence("list withdrawals", err)
	}
	out, err := collect(rows, scanWithdrawal)
	return out, core.Persistence("list withdrawals", err)
}

func (r *Repository) GetWithdrawal(ctx context.Context, id string) (core.Withdrawal, error) {
	w, err := scanWithdrawal(r.queryRow(ctx, "SELECT "+withdrawalColumns+" FROM withdrawals WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Withdrawal{}, core.ErrNotFound
	}
	return w, core.Persistence("get withdrawal", err)
}

func (r *Repository) CreateWithdrawal(ctx context.Context, in core.NewWithdrawal, actor string) (core.Withdrawal, error) {
	rec := in.Build(r.newID(), actor, r.now())
	_, err := r.exec(ctx,
		"INSERT INTO withdrawals ("+withdrawalColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		withdrawalArgs(rec)...)
	if err != nil {
		return core.Withdrawal{}, core.Persistence("create withdrawal", err)
	}

	slog.InfoContext(ctx, "Withdrawal saved",
		"id", rec.ID,
		"month", rec.MonthKey,
		"recipient", rec.Recipient,
		"amount", rec.Amount.Minor,
		"actor", actor)

	return rec, nil
}

func (r *Repository) UpdateWithdrawal(ctx context.Context, id string, p core.WithdrawalPatch, actor string) (core.Withdrawal, bool, error) {
	rec, err := r.GetWithdrawal(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return core.Withdrawal{}, false, nil
	}
	if err != nil {
		return core.Withdrawal{}, false, err
	}

	p.ApplyTo(&rec, actor, r.now())
	found, err := r.execAffected(ctx,
		`UPDATE withdrawals SET date = ?, amount = ?, recipient = ?, description = ?,
			monthyear = ?, updatedat = ?, updatedby = ?
		WHERE id = ?`,
		rec.Date.String(), rec.Amount.Minor, rec.Recipient, nullString(rec.Description),
		string(rec.MonthKey), rec.UpdatedAt, rec.UpdatedBy, id)
	if err != nil {
		return core.Withdrawal{}, false, core.Persistence("update withdrawal", err)
	}
	if !found {
		return core.Withdrawal{}, false, nil
	}
	return rec, true, nil
}

func (r *Repository) DeleteWithdrawal(ctx context.Context, id string, actor string) (bool, error) {
	removed, err := r.execAffected(ctx, "DELETE FROM withdrawals WHERE id = ?", id)
	if err != nil {
		return false, core.Persistence("delete withdrawal", err)
	}
	if removed {
		slog.InfoContext(ctx, "Withdrawal deleted", "id", id, "actor", actor)
	}
	return removed, nil
}

// Withdrawal totals are summed by the database.

const sumWithdrawals = "SELECT CAST(COALESCE(SUM(amount), 0) AS BIGINT) FROM withdrawals"

func (r *Repository) TotalWithdrawals(ctx context.Context) (core.Money, error) {
	return r.sum(ctx, "total withdrawals", sumWithdrawals)
}

func (r *Repository) TotalWithdrawalsByMonth(ctx context.Context, key core.MonthKey) (core.Money, error) {
	return r.sum(ctx, "total withdrawals by month", sumWithdrawals+" WHERE monthyear = ?", string(key))
}

func (r *Repository) TotalWithdrawalsByPartner(ctx context.Context, name string) (core.Money, error) {
	return r.sum(ctx, "total withdrawals by partner", sumWithdrawals+" WHERE recipient = ?", name)
}

func (r *Repository) sum(ctx context.Context, op, q string, args ...any) (core.Money, error) {
	var minor int64
	if err := r.queryRow(ctx, q, args...).Scan(&minor); err != nil {
		return core.Money{}, core.Persistence(op, err)
	}
	return core.Money{Minor: minor}, nil
}
