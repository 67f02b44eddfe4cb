package google

import (
	"fmt"
	"strings"
	"time"

	"rentledger/internal/core"
	"rentledger/internal/ledger"
)

const (
	headerRow  = 1
	lastColumn = "N"
)

func summaryHeader() []any {
	return []any{
		"Month", "Total Income", "Caution Fees", "Commission", "Net Income", "Expenses",
		"Net Operating Profit", "Manager Commission", "Withdrawals",
		"Incomes", "Expenses Count", "Withdrawals Count", "Stale Net Income", "Updated At",
	}
}

// summaryRow renders s in header order. Amounts are written in major units
// with two decimals so the sheet parses them as numbers.
func summaryRow(s ledger.MonthSummary, now time.Time) []any {
	return []any{
		string(s.MonthKey),
		s.TotalIncome.String(),
		s.TotalCautionFees.String(),
		s.TotalCommission.String(),
		s.TotalNetIncome.String(),
		s.TotalExpenses.String(),
		s.NetOperatingProfit.String(),
		s.ManagerCommission.String(),
		s.TotalWithdrawals.String(),
		s.IncomeCount,
		s.ExpenseCount,
		s.WithdrawalCount,
		len(s.NetIncomeMismatches),
		now.UTC().Format(time.RFC3339),
	}
}

// indexRows maps month keys found in column A to their 1-based row and
// returns the number of used rows. Cells that are not month keys, such as
// the header, are skipped.
func indexRows(values [][]any) (map[core.MonthKey]int, int) {
	index := make(map[core.MonthKey]int, len(values))
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		key, err := core.ParseMonthKey(strings.TrimSpace(fmt.Sprint(row[0])))
		if err != nil {
			continue
		}
		if _, dup := index[key]; !dup {
			index[key] = i + 1
		}
	}
	return index, len(values)
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}
