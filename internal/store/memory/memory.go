// Package memory is an in-process persistence gateway. It backs the memory
// data backend and the service tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"rentledger/internal/core"
)

// Store keeps records in maps keyed by id, guarded by a single mutex.
type Store struct {
	mu          sync.Mutex
	incomes     map[string]core.Income
	expenses    map[string]core.Expense
	withdrawals map[string]core.Withdrawal

	now   func() time.Time
	newID func() string
}

// Option customises a Store.
type Option func(*Store)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDs overrides the id generator.
func WithIDs(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

func New(opts ...Option) *Store {
	s := &Store{
		incomes:     make(map[string]core.Income),
		expenses:    make(map[string]core.Expense),
		withdrawals: make(map[string]core.Withdrawal),
		now:         time.Now,
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Close() error { return nil }

// Incomes

func (s *Store) ListIncomesByMonth(ctx context.Context, key core.MonthKey) ([]core.Income, error) {
	if err := ctx.Err(); err != nil {
		return nil, core.Persistence("list incomes", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Income, 0)
	for _, in := range s.incomes {
		if in.MonthKey == key {
			out = append(out, in)
		}
	}
	return out, nil
}

func (s *Store) ListIncomes(ctx context.Context) ([]core.Income, error) {
	if err := ctx.Err(); err != nil {
		return nil, core.Persistence("list incomes", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Income, 0, len(s.incomes))
	for _, in := range s.incomes {
		out = append(out, in)
	}
	return out, nil
}

func (s *Store) GetIncome(ctx context.Context, id string) (core.Income, error) {
	if err := ctx.Err(); err != nil {
		return core.Income{}, core.Persistence("get income", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	in, ok := s.incomes[id]
	if !ok {
		return core.Income{}, core.ErrNotFound
	}
	return in, nil
}

func (s *Store) CreateIncome(ctx context.Context, in core.NewIncome, actor string) (core.Income, error) {
	if err := ctx.Err(); err != nil {
		return core.Income{}, core.Persistence("create income", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := in.Build(s.newID(), actor, s.now())
	s.incomes[rec.ID] = rec
	return rec, nil
}

func (s *Store) UpdateIncome(ctx context.Context, id string, p core.IncomePatch, actor string) (core.Income, bool, error) {
	if err := ctx.Err(); err != nil {
		return core.Income{}, false, core.Persistence("update income", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.incomes[id]
	if !ok {
		return core.Income{}, false, nil
	}
	p.ApplyTo(&rec, actor, s.now())
	s.incomes[id] = rec
	return rec, true, nil
}

func (s *Store) DeleteIncome(ctx context.Context, id string, _ string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, core.Persistence("delete income", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.incomes[id]; !ok {
		return false, nil
	}
	delete(s.incomes, id)
	return true, nil
}

// Expenses

func (s *Store) ListExpensesByMonth(ctx context.Context, key core.MonthKey) ([]core.Expense, error) {
	if err := ctx.Err(); err != nil {
		return nil, core.Persistence("list expenses", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Expense, 0)
	for _, e := range s.expenses {
		if e.MonthKey == key {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Store) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	if err := ctx.Err(); err != nil {
		return nil, core.Persistence("list expenses", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Expense, 0, len(s.expenses))
	for _, e := range s.expenses {
		out = append(out, e)
	}
	return out, nil
}

func (s *Store) GetExpense(ctx context.Context, id string) (core.Expense, error) {
	if err := ctx.Err(); err != nil {
		return core.Expense{}, core.Persistence("get expense", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.expenses[id]
	if !ok {
		return core.Expense{}, core.ErrNotFound
	}
	return e, nil
}

func (s *Store) CreateExpense(ctx context.Context, in core.NewExpense, actor string) (core.Expense, error) {
	if err := ctx.Err(); err != nil {
		return core.Expense{}, core.Persistence("create expense", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := in.Build(s.newID(), actor, s.now())
	s.expenses[rec.ID] = rec
	return rec, nil
}

func (s *Store) UpdateExpense(ctx context.Context, id string, p core.ExpensePatch, actor string) (core.Expense, bool, error) {
	if err := ctx.Err(); err != nil {
		return core.Expense{}, false, core.Persistence("update expense", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.expenses[id]
	if !ok {
		return core.Expense{}, false, nil
	}
	p.ApplyTo(&rec, actor, s.now())
	s.expenses[id] = rec
	return rec, true, nil
}

func (s *Store) DeleteExpense(ctx context.Context, id string, _ string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, core.Persistence("delete expense", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.expenses[id]; !ok {
		return false, nil
	}
	delete(s.expenses, id)
	return true, nil
}

// Withdrawals

func (s *Store) ListWithdrawalsByMonth(ctx context.Context, key core.MonthKey) ([]core.Withdrawal, error) {
	if err := ctx.Err(); err != nil {
		return nil, core.Persistence("list withdrawals", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Withdrawal, 0)
	for _, w := range s.withdrawals {
		if w.MonthKey == key {
			out = append(out, w)
		}
	}
	return out, nil
}

func (s *Store) ListWithdrawals(ctx context.Context) ([]core.Withdrawal, error) {
	if err := ctx.Err(); err != nil {
		return nil, core.Persistence("list withdrawals", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Withdrawal, 0, len(s.withdrawals))
	for _, w := range s.withdrawals {
		out = append(out, w)
	}
	return out, nil
}

func (s *Store) GetWithdrawal(ctx context.Context, id string) (core.Withdrawal, error) {
	if err := ctx.Err(); err != nil {
		return core.Withdrawal{}, core.Persistence("get withdrawal", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.withdrawals[id]
	if !ok {
		return core.Withdrawal{}, core.ErrNotFound
	}
	return w, nil
}

func (s *Store) CreateWithdrawal(ctx context.Context, in core.NewWithdrawal, actor string) (core.Withdrawal, error) {
	if err := ctx.Err(); err != nil {
		return core.Withdrawal{}, core.Persistence("create withdrawal", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := in.Build(s.newID(), actor, s.now())
	s.withdrawals[rec.ID] = rec
	return rec, nil
}

func (s *Store) UpdateWithdrawal(ctx context.Context, id string, p core.WithdrawalPatch, actor string) (core.Withdrawal, bool, error) {
	if err := ctx.Err(); err != nil {
		return core.Withdrawal{}, false, core.Persistence("update withdrawal", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.withdrawals[id]
	if !ok {
		return core.Withdrawal{}, false, nil
	}
	p.ApplyTo(&rec, actor, s.now())
	s.withdrawals[id] = rec
	return rec, true, nil
}

func (s *Store) DeleteWithdrawal(ctx context.Context, id string, _ string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, core.Persistence("delete withdrawal", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.withdrawals[id]; !ok {
		return false, nil
	}
	delete(s.withdrawals, id)
	return true, nil
}

// Withdrawal totals are computed over the stored rows.

func (s *Store) TotalWithdrawals(ctx context.Context) (core.Money, error) {
	return s.sumWithdrawals(ctx, func(core.Withdrawal) bool { return true })
}

func (s *Store) TotalWithdrawalsByMonth(ctx context.Context, key core.MonthKey) (core.Money, error) {
	return s.sumWithdrawals(ctx, func(w core.Withdrawal) bool { return w.MonthKey == key })
}

func (s *Store) TotalWithdrawalsByPartner(ctx context.Context, name string) (core.Money, error) {
	return s.sumWithdrawals(ctx, func(w core.Withdrawal) bool { return w.Recipient == name })
}

func (s *Store) sumWithdrawals(ctx context.Context, match func(core.Withdrawal) bool) (core.Money, error) {
	if err := ctx.Err(); err != nil {
		return core.Money{}, core.Persistence("sum withdrawals", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var total core.Money
	for _, w := range s.withdrawals {
		if match(w) {
			total = total.Add(w.Amount)
		}
	}
	return total, nil
}
