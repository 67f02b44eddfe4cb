package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"rentledger/internal/amqp"
	"rentledger/internal/cache"
	"rentledger/internal/core"
	"rentledger/internal/ledger"
	"rentledger/internal/partners"
	"rentledger/internal/ports"
)

// ErrNoActor is returned by writes made without an authenticated identity.
var ErrNoActor = errors.New("authenticated actor required")

// EventPublisher announces ledger changes to other processes.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, ev *amqp.LedgerEvent) error
}

// LedgerService validates writes, persists them through the gateway and
// serves the computed views. Month summaries are cached per month key and
// invalidated by every write touching that month.
type LedgerService struct {
	store     ports.Gateway
	engine    *ledger.Engine
	publisher EventPublisher
	summaries cache.Cache[core.MonthKey, ledger.MonthSummary]

	// generations counts invalidations per month. A summary computed from reads
	// that started before an invalidation is not cached.
	genMu       sync.Mutex
	generations map[core.MonthKey]uint64
}

type Option func(*LedgerService)

// WithPublisher publishes a change event after every successful write.
func WithPublisher(p EventPublisher) Option {
	return func(s *LedgerService) { s.publisher = p }
}

// WithSummaryCache caches month summaries.
func WithSummaryCache(c cache.Cache[core.MonthKey, ledger.MonthSummary]) Option {
	return func(s *LedgerService) { s.summaries = c }
}

func NewLedgerService(store ports.Gateway, engine *ledger.Engine, opts ...Option) *LedgerService {
	s := &LedgerService{
		store:       store,
		engine:      engine,
		generations: make(map[core.MonthKey]uint64),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *LedgerService) Partners() partners.Config {
	return s.engine.Partners()
}

// Ready pings the store when it supports it.
func (s *LedgerService) Ready(ctx context.Context) error {
	if p, ok := s.store.(interface{ Ping(context.Context) error }); ok {
		if err := p.Ping(ctx); err != nil {
			return core.Persistence("ping", err)
		}
	}
	return ctx.Err()
}

// Incomes

func (s *LedgerService) ListIncomes(ctx context.Context, key core.MonthKey) ([]core.Income, error) {
	return s.store.ListIncomesByMonth(ctx, key)
}

func (s *LedgerService) CreateIncome(ctx context.Context, in core.NewIncome, actor string) (core.Income, error) {
	if err := requireActor(actor); err != nil {
		return core.Income{}, err
	}
	if err := in.Validate(); err != nil {
		return core.Income{}, err
	}
	rec, err := s.store.CreateIncome(ctx, in, actor)
	if err != nil {
		return core.Income{}, fmt.Errorf("save income: %w", err)
	}
	s.changed(ctx, amqp.KindIncome, amqp.OpCreated, rec.ID, actor, rec.MonthKey)
	return rec, nil
}

func (s *LedgerService) UpdateIncome(ctx context.Context, id string, p core.IncomePatch, actor string) (core.Income, bool, error) {
	if err := requireActor(actor); err != nil {
		return core.Income{}, false, err
	}
	if err := p.Validate(); err != nil {
		return core.Income{}, false, err
	}
	prev, err := s.store.GetIncome(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return core.Income{}, false, nil
	}
	if err != nil {
		return core.Income{}, false, fmt.Errorf("load income: %w", err)
	}
	rec, found, err := s.store.UpdateIncome(ctx, id, p, actor)
	if err != nil {
		return core.Income{}, false, fmt.Errorf("update income: %w", err)
	}
	if !found {
		return core.Income{}, false, nil
	}
	s.changed(ctx, amqp.KindIncome, amqp.OpUpdated, id, actor, prev.MonthKey, rec.MonthKey)
	return rec, true, nil
}

func (s *LedgerService) DeleteIncome(ctx context.Context, id string, actor string) (bool, error) {
	if err := requireActor(actor); err != nil {
		return false, err
	}
	prev, err := s.store.GetIncome(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load income: %w", err)
	}
	removed, err := s.store.DeleteIncome(ctx, id, actor)
	if err != nil {
		return false, fmt.Errorf("delete income: %w", err)
	}
	if removed {
		s.changed(ctx, amqp.KindIncome, amqp.OpDeleted, id, actor, prev.MonthKey)
	}
	return removed, nil
}

// Expenses

func (s *LedgerService) ListExpenses(ctx context.Context, key core.MonthKey) ([]core.Expense, error) {
	return s.store.ListExpensesByMonth(ctx, key)
}

func (s *LedgerService) CreateExpense(ctx context.Context, in core.NewExpense, actor string) (core.Expense, error) {
	if err := requireActor(actor); err != nil {
		return core.Expense{}, err
	}
	if err := in.Validate(); err != nil {
		return core.Expense{}, err
	}
	rec, err := s.store.CreateExpense(ctx, in, actor)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}
	s.changed(ctx, amqp.KindExpense, amqp.OpCreated, rec.ID, actor, rec.MonthKey)
	return rec, nil
}

func (s *LedgerService) UpdateExpense(ctx context.Context, id string, p core.ExpensePatch, actor string) (core.Expense, bool, error) {
	if err := requireActor(actor); err != nil {
		return core.Expense{}, false, err
	}
	if err := p.Validate(); err != nil {
		return core.Expense{}, false, err
	}
	prev, err := s.store.GetExpense(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return core.Expense{}, false, nil
	}
	if err != nil {
		return core.Expense{}, false, fmt.Errorf("load expense: %w", err)
	}
	rec, found, err := s.store.UpdateExpense(ctx, id, p, actor)
	if err != nil {
		return core.Expense{}, false, fmt.Errorf("update expense: %w", err)
	}
	if !found {
		return core.Expense{}, false, nil
	}
	s.changed(ctx, amqp.KindExpense, amqp.OpUpdated, id, actor, prev.MonthKey, rec.MonthKey)
	return rec, true, nil
}

func (s *LedgerService) DeleteExpense(ctx context.Context, id string, actor string) (bool, error) {
	if err := requireActor(actor); err != nil {
		return false, err
	}
	prev, err := s.store.GetExpense(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load expense: %w", err)
	}
	removed, err := s.store.DeleteExpense(ctx, id, actor)
	if err != nil {
		return false, fmt.Errorf("delete expense: %w", err)
	}
	if removed {
		s.changed(ctx, amqp.KindExpense, amqp.OpDeleted, id, actor, prev.MonthKey)
	}
	return removed, nil
}

// Withdrawals

func (s *LedgerService) ListWithdrawals(ctx context.Context, key core.MonthKey) ([]core.Withdrawal, error) {
	return s.store.ListWithdrawalsByMonth(ctx, key)
}

func (s *LedgerService) CreateWithdrawal(ctx context.Context, in core.NewWithdrawal, actor string) (core.Withdrawal, error) {
	if err := requireActor(actor); err != nil {
		return core.Withdrawal{}, err
	}
	if err := in.Validate(); err != nil {
		return core.Withdrawal{}, err
	}
	if err := s.checkRecipient(in.Recipient); err != nil {
		return core.Withdrawal{}, err
	}
	rec, err := s.store.CreateWithdrawal(ctx, in, actor)
	if err != nil {
		return core.Withdrawal{}, fmt.Errorf("save withdrawal: %w", err)
	}
	s.changed(ctx, amqp.KindWithdrawal, amqp.OpCreated, rec.ID, actor, rec.MonthKey)
	return rec, nil
}

func (s *LedgerService) UpdateWithdrawal(ctx context.Context, id string, p core.WithdrawalPatch, actor string) (core.Withdrawal, bool, error) {
	if err := requireActor(actor); err != nil {
		return core.Withdrawal{}, false, err
	}
	if err := p.Validate(); err != nil {
		return core.Withdrawal{}, false, err
	}
	if p.Recipient != nil {
		if err := s.checkRecipient(*p.Recipient); err != nil {
			return core.Withdrawal{}, false, err
		}
	}
	prev, err := s.store.GetWithdrawal(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return core.Withdrawal{}, false, nil
	}
	if err != nil {
		return core.Withdrawal{}, false, fmt.Errorf("load withdrawal: %w", err)
	}
	rec, found, err := s.store.UpdateWithdrawal(ctx, id, p, actor)
	if err != nil {
		return core.Withdrawal{}, false, fmt.Errorf("update withdrawal: %w", err)
	}
	if !found {
		return core.Withdrawal{}, false, nil
	}
	s.changed(ctx, amqp.KindWithdrawal, amqp.OpUpdated, id, actor, prev.MonthKey, rec.MonthKey)
	return rec, true, nil
}

func (s *LedgerService) DeleteWithdrawal(ctx context.Context, id string, actor string) (bool, error) {
	if err := requireActor(actor); err != nil {
		return false, err
	}
	prev, err := s.store.GetWithdrawal(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load withdrawal: %w", err)
	}
	removed, err := s.store.DeleteWithdrawal(ctx, id, actor)
	if err != nil {
		return false, fmt.Errorf("delete withdrawal: %w", err)
	}
	if removed {
		s.changed(ctx, amqp.KindWithdrawal, amqp.OpDeleted, id, actor, prev.MonthKey)
	}
	return removed, nil
}

// checkRecipient requires the recipient to name a configured partner exactly.
func (s *LedgerService) checkRecipient(name string) error {
	cfg := s.engine.Partners()
	if _, ok := cfg.Lookup(name); ok {
		return nil
	}
	return core.NewValidationError("recipient", "must be one of: "+strings.Join(cfg.Names(), ", "))
}

// Views

// MonthSummary returns the dashboard for key. The three month-scoped reads
// run concurrently; the first failure cancels the others.
func (s *LedgerService) MonthSummary(ctx context.Context, key core.MonthKey) (ledger.MonthSummary, error) {
	if s.summaries != nil {
		if cached, ok := s.summaries.Get(key); ok {
			return cached, nil
		}
	}
	gen := s.generation(key)

	var (
		incomes     []core.Income
		expenses    []core.Expense
		withdrawals []core.Withdrawal
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		incomes, err = s.store.ListIncomesByMonth(gctx, key)
		return err
	})
	g.Go(func() (err error) {
		expenses, err = s.store.ListExpensesByMonth(gctx, key)
		return err
	})
	g.Go(func() (err error) {
		withdrawals, err = s.store.ListWithdrawalsByMonth(gctx, key)
		return err
	})
	if err := g.Wait(); err != nil {
		return ledger.MonthSummary{}, fmt.Errorf("month summary %s: %w", key, err)
	}

	summary := s.engine.MonthSummary(key, incomes, expenses, withdrawals)
	if len(summary.NetIncomeMismatches) > 0 {
		slog.WarnContext(ctx, "Stored net income disagrees with recomputation",
			"month", key,
			"ids", summary.NetIncomeMismatches)
	}
	s.cacheSummary(key, gen, summary)
	return summary, nil
}

// PartnerBalances computes every partner's position over the whole ledger.
func (s *LedgerService) PartnerBalances(ctx context.Context) (ledger.PartnerBalances, error) {
	var (
		incomes     []core.Income
		expenses    []core.Expense
		withdrawals []core.Withdrawal
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		incomes, err = s.store.ListIncomes(gctx)
		return err
	})
	g.Go(func() (err error) {
		expenses, err = s.store.ListExpenses(gctx)
		return err
	})
	g.Go(func() (err error) {
		withdrawals, err = s.store.ListWithdrawals(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return ledger.PartnerBalances{}, fmt.Errorf("partner balances: %w", err)
	}
	return s.engine.PartnerBalances(incomes, expenses, withdrawals), nil
}

// WithdrawalOverview returns the ledger-wide available balance alongside the
// withdrawals made in key. Withdrawal sums are pushed down to the store.
func (s *LedgerService) WithdrawalOverview(ctx context.Context, key core.MonthKey) (ledger.WithdrawalOverview, error) {
	var (
		incomes        []core.Income
		expenses       []core.Expense
		total, inMonth core.Money
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		incomes, err = s.store.ListIncomes(gctx)
		return err
	})
	g.Go(func() (err error) {
		expenses, err = s.store.ListExpenses(gctx)
		return err
	})
	g.Go(func() (err error) {
		total, err = s.store.TotalWithdrawals(gctx)
		return err
	})
	g.Go(func() (err error) {
		inMonth, err = s.store.TotalWithdrawalsByMonth(gctx, key)
		return err
	})
	if err := g.Wait(); err != nil {
		return ledger.WithdrawalOverview{}, fmt.Errorf("withdrawal overview %s: %w", key, err)
	}
	return s.engine.WithdrawalOverview(key, incomes, expenses, total, inMonth), nil
}

// TotalWithdrawalsByPartner sums the withdrawals recorded for a partner name.
func (s *LedgerService) TotalWithdrawalsByPartner(ctx context.Context, name string) (core.Money, error) {
	return s.store.TotalWithdrawalsByPartner(ctx, name)
}

// InvalidateMonths drops cached summaries, e.g. after an out-of-band change.
func (s *LedgerService) InvalidateMonths(keys ...core.MonthKey) {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	for _, k := range keys {
		s.generations[k]++
	}
	if s.summaries != nil {
		s.summaries.Delete(keys...)
	}
}

func (s *LedgerService) generation(key core.MonthKey) uint64 {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	return s.generations[key]
}

// cacheSummary stores summary unless key was invalidated since gen was read.
func (s *LedgerService) cacheSummary(key core.MonthKey, gen uint64, summary ledger.MonthSummary) {
	if s.summaries == nil {
		return
	}
	s.genMu.Lock()
	defer s.genMu.Unlock()
	if s.generations[key] != gen {
		slog.Debug("Skipping cache fill, month changed during read", "month", key)
		return
	}
	s.summaries.Set(key, summary)
}

// changed invalidates the cached summaries of keys and publishes an event.
// Publishing failures are logged; the write already succeeded.
func (s *LedgerService) changed(ctx context.Context, kind, op, id, actor string, keys ...core.MonthKey) {
	s.InvalidateMonths(keys...)

	if s.publisher == nil {
		slog.DebugContext(ctx, "No event publisher configured, skipping change event", "kind", kind, "op", op)
		return
	}
	ev := amqp.NewLedgerEvent(kind, op, id, actor, keys...)
	if err := s.publisher.PublishLedgerEvent(ctx, ev); err != nil {
		slog.ErrorContext(ctx, "Failed to publish change event",
			"kind", kind,
			"op", op,
			"id", id,
			"error", err)
	}
}

func requireActor(actor string) error {
	if strings.TrimSpace(actor) == "" {
		return ErrNoActor
	}
	return nil
}

// Close closes the store and, when it supports it, the publisher.
func (s *LedgerService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if c, ok := s.publisher.(io.Closer); ok && c != nil {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %w", errors.Join(errs...))
	}
	return nil
}
