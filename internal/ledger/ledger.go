// Package ledger computes the derived financial figures of the business from
// record lists already fetched from storage. Nothing here performs I/O or fails.
package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"rentledger/internal/core"
)

var hundred = decimal.NewFromInt(100)

// NetIncomeOf recomputes an income's net income from its inputs. The result
// is negative when the commission exceeds primary amount plus caution fee.
func NetIncomeOf(in core.Income) core.Money {
	return core.NetIncome(in.PrimaryAmount, in.CautionFee, in.Commission)
}

// TotalIncome sums primary amounts. Caution fees and commission are reported separately.
func TotalIncome(incomes []core.Income) core.Money {
	var total core.Money
	for _, in := range incomes {
		total = total.Add(in.PrimaryAmount)
	}
	return total
}

func TotalCommission(incomes []core.Income) core.Money {
	var total core.Money
	for _, in := range incomes {
		total = total.Add(in.Commission)
	}
	return total
}

func TotalCautionFees(incomes []core.Income) core.Money {
	var total core.Money
	for _, in := range incomes {
		total = total.Add(in.CautionFee)
	}
	return total
}

func TotalExpenses(expenses []core.Expense) core.Money {
	var total core.Money
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return total
}

// TotalNetIncome sums recomputed net income; the stored field is ignored.
func TotalNetIncome(incomes []core.Income) core.Money {
	var total core.Money
	for _, in := range incomes {
		total = total.Add(NetIncomeOf(in))
	}
	return total
}

// NetOperatingProfit is total net income minus total expenses, clamped at zero.
func NetOperatingProfit(incomes []core.Income, expenses []core.Expense) core.Money {
	return TotalNetIncome(incomes).Sub(TotalExpenses(expenses)).NonNegative()
}

// ManagerCommission sums the commission of incomes in month key.
func ManagerCommission(incomes []core.Income, key core.MonthKey) core.Money {
	var total core.Money
	for _, in := range incomes {
		if in.MonthKey == key {
			total = total.Add(in.Commission)
		}
	}
	return total
}

// PartnerShare is profit * pct / 100, rounded half away from zero to whole minor units.
func PartnerShare(profit core.Money, pct decimal.Decimal) core.Money {
	share := decimal.NewFromInt(profit.Minor).Mul(pct).Div(hundred)
	return core.Money{Minor: share.Round(0).IntPart()}
}

// PartnerBalance is the partner's share minus what they withdrew, clamped at zero.
func PartnerBalance(profit core.Money, pct decimal.Decimal, withdrawn core.Money) core.Money {
	return PartnerShare(profit, pct).Sub(withdrawn).NonNegative()
}

// TotalAvailableBalance is profit minus all withdrawals, clamped at zero.
func TotalAvailableBalance(profit, withdrawals core.Money) core.Money {
	return profit.Sub(withdrawals).NonNegative()
}

func TotalWithdrawals(withdrawals []core.Withdrawal) core.Money {
	var total core.Money
	for _, w := range withdrawals {
		total = total.Add(w.Amount)
	}
	return total
}

// WithdrawalsByRecipient sums withdrawals per recipient name.
func WithdrawalsByRecipient(withdrawals []core.Withdrawal) map[string]core.Money {
	out := make(map[string]core.Money)
	for _, w := range withdrawals {
		out[w.Recipient] = out[w.Recipient].Add(w.Amount)
	}
	return out
}

// ExpensesByCategory totals expenses per category in the fixed category
// order. Categories without expenses are omitted.
func ExpensesByCategory(expenses []core.Expense) []core.CategoryAmount {
	totals := make(map[core.ExpenseCategory]core.Money)
	for _, e := range expenses {
		totals[e.Category] = totals[e.Category].Add(e.Amount)
	}

	out := make([]core.CategoryAmount, 0, len(totals))
	for _, c := range core.ExpenseCategories {
		if amt, ok := totals[c]; ok {
			out = append(out, core.CategoryAmount{Category: c, Amount: amt})
			delete(totals, c)
		}
	}
	// Rows written under an older category set still show up, after the known ones.
	rest := make([]core.ExpenseCategory, 0, len(totals))
	for c := range totals {
		rest = append(rest, c)
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i] < rest[j] })
	for _, c := range rest {
		out = append(out, core.CategoryAmount{Category: c, Amount: totals[c]})
	}
	return out
}

// NetIncomeMismatches returns the ids of incomes whose stored net income
// disagrees with NetIncomeOf, in input order.
func NetIncomeMismatches(incomes []core.Income) []string {
	var ids []string
	for _, in := range incomes {
		if in.NetIncome != NetIncomeOf(in) {
			ids = append(ids, in.ID)
		}
	}
	return ids
}
