package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"rentledger/internal/amqp"
	"rentledger/internal/core"
	"rentledger/internal/ledger"
	"rentledger/internal/sheets"
)

// SummarySource computes month summaries from storage.
type SummarySource interface {
	MonthSummary(ctx context.Context, key core.MonthKey) (ledger.MonthSummary, error)
	InvalidateMonths(keys ...core.MonthKey)
}

// MirrorConfig holds configuration for the mirror worker
type MirrorConfig struct {
	// ResyncInterval is how often the current and previous month are rewritten (default: 15m)
	ResyncInterval time.Duration

	// Now returns the current time; used to pick the months to resync.
	Now func() time.Time
}

// DefaultMirrorConfig returns sensible defaults
func DefaultMirrorConfig() MirrorConfig {
	return MirrorConfig{
		ResyncInterval: 15 * time.Minute,
		Now:            time.Now,
	}
}

// MirrorWorker keeps one spreadsheet row per month in step with the ledger.
// Events name the months that changed; the worker recomputes them from
// storage rather than trusting the event payload.
type MirrorWorker struct {
	source SummarySource
	sheets sheets.SummaryWriter
	config MirrorConfig

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewMirrorWorker(source SummarySource, writer sheets.SummaryWriter, config MirrorConfig) *MirrorWorker {
	if config.ResyncInterval <= 0 {
		config.ResyncInterval = DefaultMirrorConfig().ResyncInterval
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &MirrorWorker{
		source: source,
		sheets: writer,
		config: config,
	}
}

// HandleLedgerEvent rewrites the rows of every month the event names.
// A returned error makes the consumer requeue the message.
func (w *MirrorWorker) HandleLedgerEvent(ctx context.Context, ev *amqp.LedgerEvent) error {
	slog.InfoContext(ctx, "Processing ledger event",
		"kind", ev.Kind,
		"op", ev.Op,
		"id", ev.ID,
		"months", ev.MonthKeys)

	// Another process made the change; our cached summaries are stale.
	w.source.InvalidateMonths(ev.MonthKeys...)

	var errs []error
	for _, key := range ev.MonthKeys {
		if err := w.mirrorMonth(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Resync rewrites the current and previous month.
func (w *MirrorWorker) Resync(ctx context.Context) error {
	current := core.CurrentMonthKey(w.config.Now().UTC())
	keys := []core.MonthKey{current.Prev(), current}
	w.source.InvalidateMonths(keys...)

	var errs []error
	for _, key := range keys {
		if err := w.mirrorMonth(ctx, key); err != nil {
			errs = append(errs, err)
			continue
		}
		if err := w.verifyMonth(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("resync: %w", err)
	}
	slog.InfoContext(ctx, "Resync completed", "months", keys)
	return nil
}

func (w *MirrorWorker) mirrorMonth(ctx context.Context, key core.MonthKey) error {
	summary, err := w.source.MonthSummary(ctx, key)
	if err != nil {
		return fmt.Errorf("compute summary %s: %w", key, err)
	}
	if err := w.sheets.UpsertMonthSummary(ctx, summary); err != nil {
		slog.ErrorContext(ctx, "Failed to mirror month summary",
			"month", key,
			"error", err)
		return fmt.Errorf("upsert summary %s: %w", key, err)
	}
	slog.InfoContext(ctx, "Mirrored month summary",
		"month", key,
		"net_operating_profit", summary.NetOperatingProfit.String(),
		"incomes", summary.IncomeCount,
		"expenses", summary.ExpenseCount)
	return nil
}

// verifyMonth reads back the row of key when the mirror can be read.
func (w *MirrorWorker) verifyMonth(ctx context.Context, key core.MonthKey) error {
	reader, ok := w.sheets.(sheets.SummaryReader)
	if !ok {
		return nil
	}
	row, found, err := reader.ReadMonthRow(ctx, key)
	if err != nil {
		return fmt.Errorf("read back %s: %w", key, err)
	}
	if !found || len(row) == 0 || row[0] != string(key) {
		slog.WarnContext(ctx, "Mirrored row missing after upsert", "month", key, "row", row)
		return fmt.Errorf("row for %s missing after upsert", key)
	}
	return nil
}

// Start runs Resync immediately and then every ResyncInterval until Stop or
// ctx cancellation. Returns an error if already running.
func (w *MirrorWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("mirror worker is already running")
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	go w.runLoop(ctx)

	slog.InfoContext(ctx, "Mirror worker started", "resync_interval", w.config.ResyncInterval)
	return nil
}

// Stop signals the loop and waits for it to finish or ctx to expire.
func (w *MirrorWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	stopCh, doneCh := w.stopCh, w.doneCh
	w.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Mirror worker stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Mirror worker stop timed out")
		return ctx.Err()
	}

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()
	return nil
}

func (w *MirrorWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *MirrorWorker) runLoop(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.config.ResyncInterval)
	defer ticker.Stop()

	w.resyncLogged(ctx)

	for {
		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.resyncLogged(ctx)
		}
	}
}

func (w *MirrorWorker) resyncLogged(ctx context.Context) {
	if err := w.Resync(ctx); err != nil {
		slog.ErrorContext(ctx, "Periodic resync failed", "error", err)
	}
}
