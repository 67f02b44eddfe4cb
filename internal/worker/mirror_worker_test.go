package worker

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"rentledger/internal/amqp"
	"rentledger/internal/cache"
	"rentledger/internal/core"
	"rentledger/internal/ledger"
	"rentledger/internal/partners"
	"rentledger/internal/services"
	sheetsmem "rentledger/internal/sheets/memory"
	"rentledger/internal/store/memory"
)

type failingWriter struct{}

func (failingWriter) UpsertMonthSummary(context.Context, ledger.MonthSummary) error {
	return errors.New("quota exceeded")
}

// droppingMirror accepts upserts but never shows the row when read back.
type droppingMirror struct{}

func (droppingMirror) UpsertMonthSummary(context.Context, ledger.MonthSummary) error { return nil }

func (droppingMirror) ReadMonthRow(context.Context, core.MonthKey) ([]string, bool, error) {
	return nil, false, nil
}

func newService(t *testing.T) *services.LedgerService {
	t.Helper()
	engine, err := ledger.NewEngine(partners.Default())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return services.NewLedgerService(memory.New(), engine,
		services.WithSummaryCache(cache.NewLRU[core.MonthKey, ledger.MonthSummary](8, time.Hour)))
}

func fixedNow() time.Time {
	return time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
}

func TestHandleLedgerEventMirrorsEveryMonth(t *testing.T) {
	svc := newService(t)
	mirror := sheetsmem.New()
	w := NewMirrorWorker(svc, mirror, MirrorConfig{Now: fixedNow})
	ctx := context.Background()

	// Warm the cache so the event has to invalidate it.
	if _, err := svc.MonthSummary(ctx, "2024-01"); err != nil {
		t.Fatalf("MonthSummary: %v", err)
	}
	if _, err := svc.CreateIncome(ctx, core.NewIncome{
		Date:          core.NewDate(2024, 1, 3),
		ClientName:    "Tunde",
		BroughtBy:     "Benjamin",
		PrimaryAmount: core.Major(120000),
		Commission:    core.Major(12000),
	}, "benjamin"); err != nil {
		t.Fatalf("CreateIncome: %v", err)
	}

	ev := amqp.NewLedgerEvent(amqp.KindIncome, amqp.OpUpdated, "x", "benjamin", "2023-12", "2024-01")
	if err := w.HandleLedgerEvent(ctx, ev); err != nil {
		t.Fatalf("HandleLedgerEvent: %v", err)
	}

	months := mirror.Months()
	if len(months) != 2 || months[0] != "2023-12" || months[1] != "2024-01" {
		t.Fatalf("mirrored months = %v", months)
	}
	jan, _ := mirror.Summary("2024-01")
	if jan.IncomeCount != 1 || jan.TotalNetIncome != core.Major(108000) {
		t.Fatalf("unexpected January row %+v", jan)
	}
}

func TestHandleLedgerEventReportsWriterFailure(t *testing.T) {
	w := NewMirrorWorker(newService(t), failingWriter{}, MirrorConfig{Now: fixedNow})
	ev := amqp.NewLedgerEvent(amqp.KindExpense, amqp.OpCreated, "x", "daniel", "2024-01")
	if err := w.HandleLedgerEvent(context.Background(), ev); err == nil {
		t.Fatal("expected error so the event is requeued")
	}
}

func TestResyncWritesCurrentAndPreviousMonth(t *testing.T) {
	mirror := sheetsmem.New()
	w := NewMirrorWorker(newService(t), mirror, MirrorConfig{Now: fixedNow})

	if err := w.Resync(context.Background()); err != nil {
		t.Fatalf("Resync: %v", err)
	}
	months := mirror.Months()
	if len(months) != 2 || months[0] != "2023-12" || months[1] != "2024-01" {
		t.Fatalf("resynced months = %v, want [2023-12 2024-01]", months)
	}
}

func TestStartStop(t *testing.T) {
	mirror := sheetsmem.New()
	w := NewMirrorWorker(newService(t), mirror, MirrorConfig{ResyncInterval: time.Hour, Now: fixedNow})
	ctx := context.Background()

	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !w.IsRunning() {
		t.Fatal("worker should be running")
	}
	if err := w.Start(ctx); err == nil {
		t.Fatal("second Start should fail")
	}

	deadline := time.Now().Add(2 * time.Second)
	for mirror.Writes() < 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if mirror.Writes() < 2 {
		t.Fatalf("initial resync did not run, writes = %d", mirror.Writes())
	}

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := w.Stop(stopCtx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if w.IsRunning() {
		t.Fatal("worker should be stopped")
	}
}

func TestResyncVerifiesMirroredRows(t *testing.T) {
	ctx := context.Background()

	w := NewMirrorWorker(newService(t), sheetsmem.New(), MirrorConfig{Now: fixedNow})
	if err := w.Resync(ctx); err != nil {
		t.Fatalf("Resync with readable mirror: %v", err)
	}

	w = NewMirrorWorker(newService(t), droppingMirror{}, MirrorConfig{Now: fixedNow})
	err := w.Resync(ctx)
	if err == nil {
		t.Fatal("expected Resync to report rows missing after upsert")
	}
	if !strings.Contains(err.Error(), "2024-01") || !strings.Contains(err.Error(), "2023-12") {
		t.Fatalf("expected both months in error, got %v", err)
	}
}
