// Package sheets declares the outbound spreadsheet mirror.
package sheets

import (
	"context"

	"rentledger/internal/core"
	"rentledger/internal/ledger"
)

// Ports for outbound adapters.
type (
	// SummaryWriter mirrors one row per month.
	SummaryWriter interface {
		// UpsertMonthSummary overwrites the row of s.MonthKey, appending it when absent.
		UpsertMonthSummary(ctx context.Context, s ledger.MonthSummary) error
	}

	// SummaryReader returns what the mirror currently holds for a month.
	SummaryReader interface {
		ReadMonthRow(ctx context.Context, key core.MonthKey) ([]string, bool, error)
	}
)
