package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"rentledger/internal/amqp"
	"rentledger/internal/cache"
	"rentledger/internal/core"
	"rentledger/internal/ledger"
	"rentledger/internal/partners"
	"rentledger/internal/store/memory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*amqp.LedgerEvent
	err    error
}

func (p *recordingPublisher) PublishLedgerEvent(_ context.Context, ev *amqp.LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) last() *amqp.LedgerEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.events) == 0 {
		return nil
	}
	return p.events[len(p.events)-1]
}

// failingStore breaks the month-scoped expense read.
type failingStore struct {
	*memory.Store
}

func (f failingStore) ListExpensesByMonth(context.Context, core.MonthKey) ([]core.Expense, error) {
	return nil, core.Persistence("list expenses", errors.New("connection refused"))
}

func newTestService(t *testing.T, opts ...Option) (*LedgerService, *recordingPublisher) {
	t.Helper()
	engine, err := ledger.NewEngine(partners.Default())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	pub := &recordingPublisher{}
	opts = append([]Option{
		WithPublisher(pub),
		WithSummaryCache(cache.NewLRU[core.MonthKey, ledger.MonthSummary](16, time.Minute)),
	}, opts...)
	return NewLedgerService(memory.New(), engine, opts...), pub
}

func income(day int, primary, commission int64) core.NewIncome {
	return core.NewIncome{
		Date:          core.NewDate(2024, 3, day),
		ClientName:    "Mrs Okafor",
		BroughtBy:     "Daniel",
		PrimaryAmount: core.Major(primary),
		Commission:    core.Major(commission),
	}
}

func TestCreateIncomeInvalidatesSummaryAndPublishes(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()
	key := core.MonthKey("2024-03")

	before, err := svc.MonthSummary(ctx, key)
	if err != nil {
		t.Fatalf("MonthSummary: %v", err)
	}
	if before.IncomeCount != 0 {
		t.Fatalf("expected empty month, got %d incomes", before.IncomeCount)
	}

	rec, err := svc.CreateIncome(ctx, income(5, 200000, 20000), "daniel")
	if err != nil {
		t.Fatalf("CreateIncome: %v", err)
	}
	if rec.NetIncome != core.Major(180000) {
		t.Fatalf("net income = %s, want 180000.00", rec.NetIncome)
	}

	after, err := svc.MonthSummary(ctx, key)
	if err != nil {
		t.Fatalf("MonthSummary: %v", err)
	}
	if after.IncomeCount != 1 || after.TotalNetIncome != core.Major(180000) {
		t.Fatalf("stale summary after write: %+v", after)
	}

	ev := pub.last()
	if ev == nil {
		t.Fatal("expected a published event")
	}
	if ev.Kind != amqp.KindIncome || ev.Op != amqp.OpCreated || ev.ID != rec.ID {
		t.Fatalf("unexpected event %+v", ev)
	}
	if len(ev.MonthKeys) != 1 || ev.MonthKeys[0] != key {
		t.Fatalf("event months = %v, want [%s]", ev.MonthKeys, key)
	}
}

func TestWritesRequireActor(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()

	if _, err := svc.CreateIncome(ctx, income(1, 1000, 0), " "); !errors.Is(err, ErrNoActor) {
		t.Fatalf("CreateIncome without actor: got %v", err)
	}
	if _, err := svc.DeleteExpense(ctx, "missing", ""); !errors.Is(err, ErrNoActor) {
		t.Fatalf("DeleteExpense without actor: got %v", err)
	}
	if pub.last() != nil {
		t.Fatal("no event expected for rejected writes")
	}
}

func TestCreateWithdrawalChecksRecipient(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		recipient string
		wantErr   bool
	}{
		{"configured partner", "Daniel", false},
		{"second partner", "Benjamin", false},
		{"unknown name", "Chidi", true},
		{"case mismatch", "daniel", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateWithdrawal(ctx, core.NewWithdrawal{
				Date:      core.NewDate(2024, 3, 10),
				Amount:    core.Major(5000),
				Recipient: tt.recipient,
			}, "benjamin")
			if tt.wantErr {
				var verr *core.ValidationError
				if !errors.As(err, &verr) {
					t.Fatalf("expected validation error, got %v", err)
				}
				if _, ok := verr.Fields["recipient"]; !ok {
					t.Fatalf("expected recipient field error, got %v", verr.Fields)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestUpdateAcrossMonthsInvalidatesBoth(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()

	rec, err := svc.CreateExpense(ctx, core.NewExpense{
		Date:     core.NewDate(2024, 3, 31),
		Name:     "Generator diesel",
		Category: core.Utilities,
		Amount:   core.Major(30000),
	}, "daniel")
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}

	march, _ := svc.MonthSummary(ctx, "2024-03")
	april, _ := svc.MonthSummary(ctx, "2024-04")
	if march.ExpenseCount != 1 || april.ExpenseCount != 0 {
		t.Fatalf("unexpected counts before move: %d %d", march.ExpenseCount, april.ExpenseCount)
	}

	moved := core.NewDate(2024, 4, 1)
	updated, found, err := svc.UpdateExpense(ctx, rec.ID, core.ExpensePatch{Date: &moved}, "benjamin")
	if err != nil || !found {
		t.Fatalf("UpdateExpense: found=%v err=%v", found, err)
	}
	if updated.MonthKey != "2024-04" || updated.UpdatedBy != "benjamin" {
		t.Fatalf("unexpected updated record %+v", updated)
	}

	march, _ = svc.MonthSummary(ctx, "2024-03")
	april, _ = svc.MonthSummary(ctx, "2024-04")
	if march.ExpenseCount != 0 || april.ExpenseCount != 1 {
		t.Fatalf("stale counts after move: %d %d", march.ExpenseCount, april.ExpenseCount)
	}

	ev := pub.last()
	if ev == nil || ev.Op != amqp.OpUpdated || len(ev.MonthKeys) != 2 {
		t.Fatalf("expected update event for both months, got %+v", ev)
	}
}

func TestMissingRecordsReportNotFound(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()

	amount := core.Major(100)
	if _, found, err := svc.UpdateWithdrawal(ctx, "nope", core.WithdrawalPatch{Amount: &amount}, "daniel"); err != nil || found {
		t.Fatalf("UpdateWithdrawal: found=%v err=%v", found, err)
	}
	if removed, err := svc.DeleteIncome(ctx, "nope", "daniel"); err != nil || removed {
		t.Fatalf("DeleteIncome: removed=%v err=%v", removed, err)
	}
	if pub.last() != nil {
		t.Fatal("no event expected for missing records")
	}
}

func TestDeleteIncome(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()

	rec, err := svc.CreateIncome(ctx, income(2, 50000, 5000), "daniel")
	if err != nil {
		t.Fatalf("CreateIncome: %v", err)
	}
	removed, err := svc.DeleteIncome(ctx, rec.ID, "daniel")
	if err != nil || !removed {
		t.Fatalf("DeleteIncome: removed=%v err=%v", removed, err)
	}
	list, err := svc.ListIncomes(ctx, "2024-03")
	if err != nil {
		t.Fatalf("ListIncomes: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected no incomes, got %d", len(list))
	}
	if ev := pub.last(); ev == nil || ev.Op != amqp.OpDeleted {
		t.Fatalf("expected delete event, got %+v", ev)
	}
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	svc, pub := newTestService(t)
	pub.err = errors.New("broker down")

	if _, err := svc.CreateIncome(context.Background(), income(3, 1000, 0), "daniel"); err != nil {
		t.Fatalf("write should succeed when publishing fails: %v", err)
	}
}

func TestViewsWithoutPublisherOrCache(t *testing.T) {
	engine, err := ledger.NewEngine(partners.Default())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	svc := NewLedgerService(memory.New(), engine)
	ctx := context.Background()

	if _, err := svc.CreateIncome(ctx, income(1, 200000, 20000), "daniel"); err != nil {
		t.Fatalf("CreateIncome: %v", err)
	}
	if _, err := svc.CreateExpense(ctx, core.NewExpense{
		Date: core.NewDate(2024, 3, 4), Name: "Cleaner", Category: core.StaffSalary, Amount: core.Major(30000),
	}, "daniel"); err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}
	if _, err := svc.CreateWithdrawal(ctx, core.NewWithdrawal{
		Date: core.NewDate(2024, 3, 20), Amount: core.Major(25000), Recipient: "Daniel",
	}, "daniel"); err != nil {
		t.Fatalf("CreateWithdrawal: %v", err)
	}

	balances, err := svc.PartnerBalances(ctx)
	if err != nil {
		t.Fatalf("PartnerBalances: %v", err)
	}
	if balances.NetOperatingProfit != core.Major(150000) {
		t.Fatalf("profit = %s, want 150000.00", balances.NetOperatingProfit)
	}
	if balances.TotalAvailableBalance != core.Major(125000) {
		t.Fatalf("available = %s, want 125000.00", balances.TotalAvailableBalance)
	}
	want := map[string]core.Money{"Daniel": core.Major(50000), "Benjamin": core.Major(75000)}
	for _, pos := range balances.Partners {
		if pos.Balance != want[pos.Partner.Name] {
			t.Errorf("%s balance = %s, want %s", pos.Partner.Name, pos.Balance, want[pos.Partner.Name])
		}
	}

	overview, err := svc.WithdrawalOverview(ctx, "2024-03")
	if err != nil {
		t.Fatalf("WithdrawalOverview: %v", err)
	}
	if overview.WithdrawalsThisMonth != core.Major(25000) || overview.RemainingBalance != core.Major(125000) {
		t.Fatalf("unexpected overview %+v", overview)
	}

	total, err := svc.TotalWithdrawalsByPartner(ctx, "Daniel")
	if err != nil || total != core.Major(25000) {
		t.Fatalf("TotalWithdrawalsByPartner = %s, %v", total, err)
	}
}

func TestMonthSummaryPropagatesStoreFailure(t *testing.T) {
	engine, err := ledger.NewEngine(partners.Default())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	svc := NewLedgerService(failingStore{memory.New()}, engine)

	_, err = svc.MonthSummary(context.Background(), "2024-03")
	if !errors.Is(err, core.ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
}

func TestLedgerServiceClose(t *testing.T) {
	svc, _ := newTestService(t)
	if err := svc.Close(); err != nil {
		t.Fatalf("Close should not return error: %v", err)
	}
}

// pausingStore blocks the first month-scoped income read until released.
type pausingStore struct {
	*memory.Store
	once    sync.Once
	reached chan struct{}
	release chan struct{}
}

func (p *pausingStore) ListIncomesByMonth(ctx context.Context, key core.MonthKey) ([]core.Income, error) {
	out, err := p.Store.ListIncomesByMonth(ctx, key)
	p.once.Do(func() {
		close(p.reached)
		<-p.release
	})
	return out, err
}

func TestMonthSummaryDoesNotCacheAcrossConcurrentWrite(t *testing.T) {
	engine, err := ledger.NewEngine(partners.Default())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	store := &pausingStore{
		Store:   memory.New(),
		reached: make(chan struct{}),
		release: make(chan struct{}),
	}
	svc := NewLedgerService(store, engine,
		WithSummaryCache(cache.NewLRU[core.MonthKey, ledger.MonthSummary](16, time.Minute)))
	ctx := context.Background()
	key := core.MonthKey("2024-03")

	done := make(chan error, 1)
	go func() {
		_, err := svc.MonthSummary(ctx, key)
		done <- err
	}()

	<-store.reached
	if _, err := svc.CreateIncome(ctx, income(2, 200000, 20000), "daniel"); err != nil {
		t.Fatalf("CreateIncome: %v", err)
	}
	close(store.release)
	if err := <-done; err != nil {
		t.Fatalf("first MonthSummary: %v", err)
	}

	got, err := svc.MonthSummary(ctx, key)
	if err != nil {
		t.Fatalf("MonthSummary: %v", err)
	}
	if got.IncomeCount != 1 || got.TotalIncome != core.Major(200000) {
		t.Fatalf("expected the new income after the write, got count=%d total=%s", got.IncomeCount, got.TotalIncome)
	}
}
