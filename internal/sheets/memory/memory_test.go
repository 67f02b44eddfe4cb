package memory

import (
	"context"
	"reflect"
	"testing"

	"rentledger/internal/core"
	"rentledger/internal/ledger"
)

func TestUpsertOverwritesMonth(t *testing.T) {
	ctx := context.Background()
	s := New()
	_ = s.UpsertMonthSummary(ctx, ledger.MonthSummary{MonthKey: "2024-03", TotalIncome: core.Major(1)})
	_ = s.UpsertMonthSummary(ctx, ledger.MonthSummary{MonthKey: "2024-01"})
	_ = s.UpsertMonthSummary(ctx, ledger.MonthSummary{MonthKey: "2024-03", TotalIncome: core.Major(2)})

	if got := s.Months(); !reflect.DeepEqual(got, []core.MonthKey{"2024-01", "2024-03"}) {
		t.Fatalf("unexpected months %v", got)
	}
	if s.Writes() != 3 {
		t.Fatalf("writes = %d", s.Writes())
	}
	row, ok, err := s.ReadMonthRow(ctx, "2024-03")
	if err != nil || !ok || row[1] != "2.00" {
		t.Fatalf("unexpected row %v ok=%v err=%v", row, ok, err)
	}
	if _, ok, _ := s.ReadMonthRow(ctx, "2023-12"); ok {
		t.Fatalf("unexpected row for missing month")
	}
}
