package ledger

import (
	"fmt"

	"rentledger/internal/core"
	"rentledger/internal/partners"
)

// Engine binds the pure calculations to a partner table.
type Engine struct {
	partners partners.Config
}

// NewEngine validates cfg and returns an engine using it.
func NewEngine(cfg partners.Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("new engine: %w", err)
	}
	return &Engine{partners: cfg}, nil
}

func (e *Engine) Partners() partners.Config {
	return e.partners
}

// MonthSummary is the dashboard view of one month.
type MonthSummary struct {
	MonthKey           core.MonthKey         `json:"monthKey"`
	TotalIncome        core.Money            `json:"totalIncome"`
	TotalCautionFees   core.Money            `json:"totalCautionFees"`
	TotalCommission    core.Money            `json:"totalCommission"`
	TotalNetIncome     core.Money            `json:"totalNetIncome"`
	TotalExpenses      core.Money            `json:"totalExpenses"`
	NetOperatingProfit core.Money            `json:"netOperatingProfit"`
	ManagerCommission  core.Money            `json:"managerCommission"`
	TotalWithdrawals   core.Money            `json:"totalWithdrawals"`
	ExpensesByCategory []core.CategoryAmount `json:"expensesByCategory"`
	IncomeCount        int                   `json:"incomeCount"`
	ExpenseCount       int                   `json:"expenseCount"`
	WithdrawalCount    int                   `json:"withdrawalCount"`
	// NetIncomeMismatches lists incomes whose stored net income is stale.
	NetIncomeMismatches []string `json:"netIncomeMismatches,omitempty"`
}

// PartnerPosition is one partner's standing against the profit to date.
type PartnerPosition struct {
	Partner   core.Partner `json:"partner"`
	Share     core.Money   `json:"share"`
	Withdrawn core.Money   `json:"withdrawn"`
	Balance   core.Money   `json:"balance"`
}

// PartnerBalances is the partner page view over the whole ledger.
type PartnerBalances struct {
	NetOperatingProfit    core.Money        `json:"netOperatingProfit"`
	TotalWithdrawals      core.Money        `json:"totalWithdrawals"`
	TotalAvailableBalance core.Money        `json:"totalAvailableBalance"`
	Partners              []PartnerPosition `json:"partners"`
	// Unallocated sums withdrawals whose recipient is not a configured partner.
	Unallocated core.Money `json:"unallocated"`
}

// WithdrawalOverview is the withdrawals page header for one month.
type WithdrawalOverview struct {
	MonthKey              core.MonthKey `json:"monthKey"`
	TotalAvailableBalance core.Money    `json:"totalAvailableBalance"`
	WithdrawalsThisMonth  core.Money    `json:"withdrawalsThisMonth"`
	// RemainingBalance equals TotalAvailableBalance, which already nets out
	// every withdrawal including this month's.
	RemainingBalance core.Money `json:"remainingBalance"`
}

// MonthSummary computes the dashboard for key. Records outside key are
// counted as given; callers pass month-scoped lists.
func (e *Engine) MonthSummary(key core.MonthKey, incomes []core.Income, expenses []core.Expense, withdrawals []core.Withdrawal) MonthSummary {
	return MonthSummary{
		MonthKey:            key,
		TotalIncome:         TotalIncome(incomes),
		TotalCautionFees:    TotalCautionFees(incomes),
		TotalCommission:     TotalCommission(incomes),
		TotalNetIncome:      TotalNetIncome(incomes),
		TotalExpenses:       TotalExpenses(expenses),
		NetOperatingProfit:  NetOperatingProfit(incomes, expenses),
		ManagerCommission:   ManagerCommission(incomes, key),
		TotalWithdrawals:    TotalWithdrawals(withdrawals),
		ExpensesByCategory:  ExpensesByCategory(expenses),
		IncomeCount:         len(incomes),
		ExpenseCount:        len(expenses),
		WithdrawalCount:     len(withdrawals),
		NetIncomeMismatches: NetIncomeMismatches(incomes),
	}
}

// PartnerBalances computes every partner's share and balance from the full ledger.
func (e *Engine) PartnerBalances(incomes []core.Income, expenses []core.Expense, withdrawals []core.Withdrawal) PartnerBalances {
	profit := NetOperatingProfit(incomes, expenses)
	byRecipient := WithdrawalsByRecipient(withdrawals)
	total := TotalWithdrawals(withdrawals)

	out := PartnerBalances{
		NetOperatingProfit:    profit,
		TotalWithdrawals:      total,
		TotalAvailableBalance: TotalAvailableBalance(profit, total),
		Partners:              make([]PartnerPosition, 0, len(e.partners.Partners)),
	}
	allocated := core.Money{}
	for _, p := range e.partners.Partners {
		withdrawn := byRecipient[p.Name]
		allocated = allocated.Add(withdrawn)
		out.Partners = append(out.Partners, PartnerPosition{
			Partner:   p,
			Share:     PartnerShare(profit, p.SharePercentage),
			Withdrawn: withdrawn,
			Balance:   PartnerBalance(profit, p.SharePercentage, withdrawn),
		})
	}
	out.Unallocated = total.Sub(allocated)
	return out
}

// WithdrawalOverview combines the ledger-wide available balance with the
// withdrawals made in key.
func (e *Engine) WithdrawalOverview(key core.MonthKey, incomes []core.Income, expenses []core.Expense, allWithdrawals core.Money, monthWithdrawals core.Money) WithdrawalOverview {
	available := TotalAvailableBalance(NetOperatingProfit(incomes, expenses), allWithdrawals)
	return WithdrawalOverview{
		MonthKey:              key,
		TotalAvailableBalance: available,
		WithdrawalsThisMonth:  monthWithdrawals,
		RemainingBalance:      available,
	}
}
