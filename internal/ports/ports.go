// Package ports declares the persistence contracts the services depend on.
package ports

import (
	"context"

	"rentledger/internal/core"
)

// Ports for the persistence gateway. Every error returned by an implementation
// matches core.ErrPersistence, except Get which reports absence as core.ErrNotFound.
// Update and Delete report absence through their bool result instead.
type (
	IncomeStore interface {
		ListIncomesByMonth(ctx context.Context, key core.MonthKey) ([]core.Income, error)
		ListIncomes(ctx context.Context) ([]core.Income, error)
		GetIncome(ctx context.Context, id string) (core.Income, error)
		CreateIncome(ctx context.Context, in core.NewIncome, actor string) (core.Income, error)
		UpdateIncome(ctx context.Context, id string, p core.IncomePatch, actor string) (core.Income, bool, error)
		DeleteIncome(ctx context.Context, id string, actor string) (bool, error)
	}

	ExpenseStore interface {
		ListExpensesByMonth(ctx context.Context, key core.MonthKey) ([]core.Expense, error)
		ListExpenses(ctx context.Context) ([]core.Expense, error)
		GetExpense(ctx context.Context, id string) (core.Expense, error)
		CreateExpense(ctx context.Context, in core.NewExpense, actor string) (core.Expense, error)
		UpdateExpense(ctx context.Context, id string, p core.ExpensePatch, actor string) (core.Expense, bool, error)
		DeleteExpense(ctx context.Context, id string, actor string) (bool, error)
	}

	WithdrawalStore interface {
		ListWithdrawalsByMonth(ctx context.Context, key core.MonthKey) ([]core.Withdrawal, error)
		ListWithdrawals(ctx context.Context) ([]core.Withdrawal, error)
		GetWithdrawal(ctx context.Context, id string) (core.Withdrawal, error)
		CreateWithdrawal(ctx context.Context, in core.NewWithdrawal, actor string) (core.Withdrawal, error)
		UpdateWithdrawal(ctx context.Context, id string, p core.WithdrawalPatch, actor string) (core.Withdrawal, bool, error)
		DeleteWithdrawal(ctx context.Context, id string, actor string) (bool, error)
	}

	// WithdrawalTotals are aggregate reads a backend may push down to the store.
	WithdrawalTotals interface {
		TotalWithdrawals(ctx context.Context) (core.Money, error)
		TotalWithdrawalsByMonth(ctx context.Context, key core.MonthKey) (core.Money, error)
		TotalWithdrawalsByPartner(ctx context.Context, name string) (core.Money, error)
	}

	// Gateway is the full persistence surface.
	Gateway interface {
		IncomeStore
		ExpenseStore
		WithdrawalStore
		WithdrawalTotals
		Close() error
	}
)
