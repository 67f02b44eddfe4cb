package http

import (
	"rentledger/internal/core"
	"rentledger/internal/ledger"
)

// Views wrap engine results with "formatted" siblings holding the
// zero-decimal display strings, e.g. "₦150,000".

type monthSummaryView struct {
	ledger.MonthSummary
	ExpensesByCategory []categoryView    `json:"expensesByCategory"`
	Formatted          map[string]string `json:"formatted"`
}

type categoryView struct {
	core.CategoryAmount
	Formatted string `json:"formatted"`
}

type partnerPositionView struct {
	ledger.PartnerPosition
	Formatted map[string]string `json:"formatted"`
}

type partnerBalancesView struct {
	ledger.PartnerBalances
	Partners  []partnerPositionView `json:"partners"`
	Formatted map[string]string     `json:"formatted"`
}

type withdrawalOverviewView struct {
	ledger.WithdrawalOverview
	Formatted map[string]string `json:"formatted"`
}

type listView[T any] struct {
	Month core.MonthKey `json:"month"`
	Count int           `json:"count"`
	Items []T           `json:"items"`
}

type monthView struct {
	Month core.MonthKey `json:"month"`
}

func newMonthSummaryView(s ledger.MonthSummary) monthSummaryView {
	categories := make([]categoryView, len(s.ExpensesByCategory))
	for i, c := range s.ExpensesByCategory {
		categories[i] = categoryView{CategoryAmount: c, Formatted: c.Amount.Format()}
	}
	return monthSummaryView{
		MonthSummary:       s,
		ExpensesByCategory: categories,
		Formatted: map[string]string{
			"totalIncome":        s.TotalIncome.Format(),
			"totalCautionFees":   s.TotalCautionFees.Format(),
			"totalCommission":    s.TotalCommission.Format(),
			"totalNetIncome":     s.TotalNetIncome.Format(),
			"totalExpenses":      s.TotalExpenses.Format(),
			"netOperatingProfit": s.NetOperatingProfit.Format(),
			"managerCommission":  s.ManagerCommission.Format(),
			"totalWithdrawals":   s.TotalWithdrawals.Format(),
		},
	}
}

func newPartnerBalancesView(b ledger.PartnerBalances) partnerBalancesView {
	positions := make([]partnerPositionView, len(b.Partners))
	for i, p := range b.Partners {
		positions[i] = partnerPositionView{
			PartnerPosition: p,
			Formatted: map[string]string{
				"share":     p.Share.Format(),
				"withdrawn": p.Withdrawn.Format(),
				"balance":   p.Balance.Format(),
			},
		}
	}
	return partnerBalancesView{
		PartnerBalances: b,
		Partners:        positions,
		Formatted: map[string]string{
			"netOperatingProfit":    b.NetOperatingProfit.Format(),
			"totalWithdrawals":      b.TotalWithdrawals.Format(),
			"totalAvailableBalance": b.TotalAvailableBalance.Format(),
			"unallocated":           b.Unallocated.Format(),
		},
	}
}

func newWithdrawalOverviewView(o ledger.WithdrawalOverview) withdrawalOverviewView {
	return withdrawalOverviewView{
		WithdrawalOverview: o,
		Formatted: map[string]string{
			"totalAvailableBalance": o.TotalAvailableBalance.Format(),
			"withdrawalsThisMonth":  o.WithdrawalsThisMonth.Format(),
			"remainingBalance":      o.RemainingBalance.Format(),
		},
	}
}
