package ledger

import (
	"testing"

	"github.com/shopspring/decimal"

	"rentledger/internal/core"
)

func income(id string, key core.MonthKey, primary, fee, commission int64) core.Income {
	in := core.Income{
		ID:            id,
		PrimaryAmount: core.Major(primary),
		CautionFee:    core.Major(fee),
		Commission:    core.Major(commission),
		MonthKey:      key,
	}
	in.NetIncome = NetIncomeOf(in)
	return in
}

func expense(category core.ExpenseCategory, amount int64) core.Expense {
	return core.Expense{Category: category, Amount: core.Major(amount)}
}

func TestNetIncomeOf(t *testing.T) {
	// Scenario A.
	in := income("a", "2024-03", 100000, 20000, 10000)
	if got := NetIncomeOf(in); got != core.Major(110000) {
		t.Fatalf("net income = %s, want 110000", got)
	}

	noFee := core.Income{PrimaryAmount: core.Major(5000), Commission: core.Major(500)}
	if got := NetIncomeOf(noFee); got != core.Major(4500) {
		t.Fatalf("missing caution fee counts as zero, got %s", got)
	}

	over := core.Income{PrimaryAmount: core.Major(100), Commission: core.Major(300)}
	if got := NetIncomeOf(over); got != core.Major(-200) {
		t.Fatalf("difference must not be clamped per record, got %s", got)
	}
}

func TestTotalsOverEmptyLists(t *testing.T) {
	if !TotalIncome(nil).IsZero() || !TotalCommission(nil).IsZero() ||
		!TotalExpenses(nil).IsZero() || !TotalWithdrawals(nil).IsZero() {
		t.Fatalf("totals over empty lists must be zero")
	}
	if !NetOperatingProfit(nil, nil).IsZero() {
		t.Fatalf("profit over empty lists must be zero")
	}
	if got := ExpensesByCategory(nil); len(got) != 0 {
		t.Fatalf("expected no categories, got %v", got)
	}
}

func TestTotals(t *testing.T) {
	incomes := []core.Income{
		income("1", "2024-03", 100000, 20000, 10000),
		income("2", "2024-03", 50000, 0, 5000),
		income("3", "2024-04", 25000, 5000, 2500),
	}
	if got := TotalIncome(incomes); got != core.Major(175000) {
		t.Fatalf("total income = %s", got)
	}
	if got := TotalCommission(incomes); got != core.Major(17500) {
		t.Fatalf("total commission = %s", got)
	}
	if got := TotalCautionFees(incomes); got != core.Major(25000) {
		t.Fatalf("total caution fees = %s", got)
	}
	if got := ManagerCommission(incomes, "2024-03"); got != core.Major(15000) {
		t.Fatalf("manager commission = %s", got)
	}
	if got := ManagerCommission(incomes, "2023-01"); !got.IsZero() {
		t.Fatalf("manager commission for empty month = %s", got)
	}
}

func TestNetOperatingProfitUsesRecomputedNetIncome(t *testing.T) {
	stale := income("1", "2024-03", 1000, 0, 100)
	stale.NetIncome = core.Major(5) // written under an older formula
	got := NetOperatingProfit([]core.Income{stale}, nil)
	if got != core.Major(900) {
		t.Fatalf("profit = %s, want 900", got)
	}
	if ids := NetIncomeMismatches([]core.Income{stale, income("2", "2024-03", 1, 0, 0)}); len(ids) != 1 || ids[0] != "1" {
		t.Fatalf("unexpected mismatches %v", ids)
	}
}

func TestNetOperatingProfitClamps(t *testing.T) {
	cases := []struct {
		incomes  []core.Income
		expenses []core.Expense
		want     core.Money
	}{
		{nil, []core.Expense{expense(core.Rent, 10)}, core.Money{}},
		{[]core.Income{income("1", "", 100, 0, 0)}, []core.Expense{expense(core.Rent, 100)}, core.Money{}},
		{[]core.Income{income("1", "", 100, 0, 0)}, []core.Expense{expense(core.Rent, 101)}, core.Money{}},
		{[]core.Income{income("1", "", 100, 0, 200)}, nil, core.Money{}},
		{[]core.Income{income("1", "", 100, 0, 0)}, []core.Expense{expense(core.Rent, 40)}, core.Major(60)},
	}
	for i, tc := range cases {
		got := NetOperatingProfit(tc.incomes, tc.expenses)
		if got.IsNegative() {
			t.Fatalf("case %d: profit negative: %s", i, got)
		}
		if got != tc.want {
			t.Fatalf("case %d: got %s want %s", i, got, tc.want)
		}
	}
}

func TestScenarioB(t *testing.T) {
	incomes := []core.Income{
		income("1", "2024-03", 300000, 20000, 20000),
		income("2", "2024-03", 200000, 0, 0),
	}
	expenses := []core.Expense{
		expense(core.Utilities, 120000),
		expense(core.StaffSalary, 80000),
	}
	if got := TotalNetIncome(incomes); got != core.Major(500000) {
		t.Fatalf("fixture net income = %s", got)
	}

	profit := NetOperatingProfit(incomes, expenses)
	if profit != core.Major(300000) {
		t.Fatalf("profit = %s, want 300000", profit)
	}

	half := decimal.NewFromInt(50)
	if got := PartnerShare(profit, half); got != core.Major(150000) {
		t.Fatalf("share = %s, want 150000", got)
	}
	if got := PartnerBalance(profit, half, core.Major(200000)); !got.IsZero() {
		t.Fatalf("partner A balance = %s, want 0", got)
	}
	if got := PartnerBalance(profit, half, core.Major(50000)); got != core.Major(100000) {
		t.Fatalf("partner B balance = %s, want 100000", got)
	}
}

func TestPartnerBalanceNeverNegative(t *testing.T) {
	profit := core.Major(1000)
	pct := decimal.NewFromInt(40)
	share := PartnerShare(profit, pct)
	for _, withdrawn := range []core.Money{share, share.Add(core.Money{Minor: 1}), core.Major(1_000_000)} {
		if got := PartnerBalance(profit, pct, withdrawn); !got.IsZero() {
			t.Fatalf("withdrawn %s >= share %s must give zero, got %s", withdrawn, share, got)
		}
	}
	if got := PartnerBalance(profit, pct, core.Money{}); got != share {
		t.Fatalf("no withdrawals should leave the full share, got %s", got)
	}
}

func TestPartnerShareRounding(t *testing.T) {
	third := decimal.RequireFromString("33.33")
	// 0.01 * 33.33% = 0.0033 minor units -> 0
	if got := PartnerShare(core.Money{Minor: 1}, third); !got.IsZero() {
		t.Fatalf("got %d", got.Minor)
	}
	// 3 minor units * 50% = 1.5 -> 2 (half up)
	if got := PartnerShare(core.Money{Minor: 3}, decimal.NewFromInt(50)); got.Minor != 2 {
		t.Fatalf("got %d", got.Minor)
	}
	if got := PartnerShare(core.Major(100), decimal.Zero); !got.IsZero() {
		t.Fatalf("zero share should give zero, got %s", got)
	}
}

func TestTotalAvailableBalance(t *testing.T) {
	cases := []struct{ profit, withdrawals, want int64 }{
		{1000, 400, 600},
		{1000, 1000, 0},
		{1000, 1500, 0},
		{0, 0, 0},
	}
	for _, tc := range cases {
		got := TotalAvailableBalance(core.Major(tc.profit), core.Major(tc.withdrawals))
		if got != core.Major(tc.want) {
			t.Fatalf("available(%d, %d) = %s, want %d", tc.profit, tc.withdrawals, got, tc.want)
		}
	}
}

func TestWithdrawalsByRecipient(t *testing.T) {
	ws := []core.Withdrawal{
		{Recipient: "Daniel", Amount: core.Major(100)},
		{Recipient: "Benjamin", Amount: core.Major(50)},
		{Recipient: "Daniel", Amount: core.Major(25)},
	}
	got := WithdrawalsByRecipient(ws)
	if got["Daniel"] != core.Major(125) || got["Benjamin"] != core.Major(50) {
		t.Fatalf("unexpected totals %v", got)
	}
	if got := TotalWithdrawals(ws); got != core.Major(175) {
		t.Fatalf("total = %s", got)
	}
}

func TestExpensesByCategoryOrder(t *testing.T) {
	expenses := []core.Expense{
		expense(core.Other, 5),
		expense(core.Utilities, 10),
		expense(core.Repairs, 20),
		expense(core.Utilities, 15),
		expense("Legacy", 1),
	}
	got := ExpensesByCategory(expenses)
	want := []core.CategoryAmount{
		{Category: core.Utilities, Amount: core.Major(25)},
		{Category: core.Repairs, Amount: core.Major(20)},
		{Category: core.Other, Amount: core.Major(5)},
		{Category: "Legacy", Amount: core.Major(1)},
	}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("row %d: got %+v want %+v", i, got[i], want[i])
		}
	}
}
