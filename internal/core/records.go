package core

import "time"

// NetIncome is primary + caution fee - commission.
func NetIncome(primary, cautionFee, commission Money) Money {
	return primary.Add(cautionFee).Sub(commission)
}

func newAudit(actor string, now time.Time) Audit {
	now = now.UTC()
	return Audit{CreatedAt: now, UpdatedAt: now, CreatedBy: actor, UpdatedBy: actor}
}

func (a *Audit) touch(actor string, now time.Time) {
	a.UpdatedAt = now.UTC()
	a.UpdatedBy = actor
}

// Build turns a validated input into the stored record. The month key always
// derives from the date and net income from its inputs.
func (in NewIncome) Build(id, actor string, now time.Time) Income {
	return Income{
		ID:            id,
		Date:          in.Date,
		ClientName:    in.ClientName,
		BroughtBy:     in.BroughtBy,
		PrimaryAmount: in.PrimaryAmount,
		CautionFee:    in.CautionFee,
		Commission:    in.Commission,
		NetIncome:     NetIncome(in.PrimaryAmount, in.CautionFee, in.Commission),
		MonthKey:      in.Date.MonthKey(),
		Audit:         newAudit(actor, now),
	}
}

// ApplyTo overwrites the fields set in p, then re-derives month key and net income.
func (p IncomePatch) ApplyTo(rec *Income, actor string, now time.Time) {
	if p.Date != nil {
		rec.Date = *p.Date
	}
	if p.ClientName != nil {
		rec.ClientName = *p.ClientName
	}
	if p.BroughtBy != nil {
		rec.BroughtBy = *p.BroughtBy
	}
	if p.PrimaryAmount != nil {
		rec.PrimaryAmount = *p.PrimaryAmount
	}
	if p.CautionFee != nil {
		rec.CautionFee = *p.CautionFee
	}
	if p.Commission != nil {
		rec.Commission = *p.Commission
	}
	rec.MonthKey = rec.Date.MonthKey()
	if p.TouchesNetIncome() {
		rec.NetIncome = NetIncome(rec.PrimaryAmount, rec.CautionFee, rec.Commission)
	}
	rec.touch(actor, now)
}

func (in NewExpense) Build(id, actor string, now time.Time) Expense {
	return Expense{
		ID:       id,
		Date:     in.Date,
		Name:     in.Name,
		Category: in.Category,
		Amount:   in.Amount,
		Notes:    in.Notes,
		MonthKey: in.Date.MonthKey(),
		Audit:    newAudit(actor, now),
	}
}

func (p ExpensePatch) ApplyTo(rec *Expense, actor string, now time.Time) {
	if p.Date != nil {
		rec.Date = *p.Date
	}
	if p.Name != nil {
		rec.Name = *p.Name
	}
	if p.Category != nil {
		rec.Category = *p.Category
	}
	if p.Amount != nil {
		rec.Amount = *p.Amount
	}
	if p.Notes != nil {
		rec.Notes = *p.Notes
	}
	rec.MonthKey = rec.Date.MonthKey()
	rec.touch(actor, now)
}

func (in NewWithdrawal) Build(id, actor string, now time.Time) Withdrawal {
	return Withdrawal{
		ID:          id,
		Date:        in.Date,
		Amount:      in.Amount,
		Recipient:   in.Recipient,
		Description: in.Description,
		MonthKey:    in.Date.MonthKey(),
		Audit:       newAudit(actor, now),
	}
}

func (p WithdrawalPatch) ApplyTo(rec *Withdrawal, actor string, now time.Time) {
	if p.Date != nil {
		rec.Date = *p.Date
	}
	if p.Amount != nil {
		rec.Amount = *p.Amount
	}
	if p.Recipient != nil {
		rec.Recipient = *p.Recipient
	}
	if p.Description != nil {
		rec.Description = *p.Description
	}
	rec.MonthKey = rec.Date.MonthKey()
	rec.touch(actor, now)
}
