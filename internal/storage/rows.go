package storage

import (
	"database/sql"
	"fmt"
	"time"

	"rentledger/internal/core"
)

// Storage rows use the flattened lower-case column names. Nothing outside
// this file sees them; every row maps to a core record in both directions.
type (
	incomeRow struct {
		ID            string
		Date          dateColumn
		ClientName    string
		BroughtBy     string
		PrimaryAmount int64
		CautionFee    sql.NullInt64
		Commission    int64
		NetIncome     int64
		MonthYear     string
		CreatedAt     timeColumn
		UpdatedAt     timeColumn
		CreatedBy     string
		UpdatedBy     string
	}

	expenseRow struct {
		ID        string
		Date      dateColumn
		Name      string
		Category  string
		Amount    int64
		Notes     sql.NullString
		MonthYear string
		CreatedAt timeColumn
		UpdatedAt timeColumn
		CreatedBy string
		UpdatedBy string
	}

	withdrawalRow struct {
		ID          string
		Date        dateColumn
		Amount      int64
		Recipient   string
		Description sql.NullString
		MonthYear   string
		CreatedAt   timeColumn
		UpdatedAt   timeColumn
		CreatedBy   string
		UpdatedBy   string
	}
)

const (
	incomeColumns     = "id, date, clientname, broughtby, primaryamount, cautionfee, commission, netincome, monthyear, createdat, updatedat, createdby, updatedby"
	expenseColumns    = "id, date, name, category, amount, notes, monthyear, createdat, updatedat, createdby, updatedby"
	withdrawalColumns = "id, date, amount, recipient, description, monthyear, createdat, updatedat, createdby, updatedby"
)

type scanner interface {
	Scan(dest ...any) error
}

func scanIncome(s scanner) (core.Income, error) {
	var r incomeRow
	err := s.Scan(&r.ID, &r.Date, &r.ClientName, &r.BroughtBy, &r.PrimaryAmount, &r.CautionFee,
		&r.Commission, &r.NetIncome, &r.MonthYear, &r.CreatedAt, &r.UpdatedAt, &r.CreatedBy, &r.UpdatedBy)
	if err != nil {
		return core.Income{}, err
	}
	return r.toCore(), nil
}

func (r incomeRow) toCore() core.Income {
	return core.Income{
		ID:            r.ID,
		Date:          core.Date(r.Date),
		ClientName:    r.ClientName,
		BroughtBy:     r.BroughtBy,
		PrimaryAmount: core.Money{Minor: r.PrimaryAmount},
		CautionFee:    core.Money{Minor: r.CautionFee.Int64},
		Commission:    core.Money{Minor: r.Commission},
		NetIncome:     core.Money{Minor: r.NetIncome},
		MonthKey:      core.MonthKey(r.MonthYear),
		Audit:         audit(r.CreatedAt, r.UpdatedAt, r.CreatedBy, r.UpdatedBy),
	}
}

// incomeArgs returns the column values of in, in incomeColumns order.
func incomeArgs(in core.Income) []any {
	return []any{
		in.ID, in.Date.String(), in.ClientName, in.BroughtBy, in.PrimaryAmount.Minor,
		nullMoney(in.CautionFee), in.Commission.Minor, in.NetIncome.Minor, string(in.MonthKey),
		in.CreatedAt.UTC(), in.UpdatedAt.UTC(), in.CreatedBy, in.UpdatedBy,
	}
}

func scanExpense(s scanner) (core.Expense, error) {
	var r expenseRow
	err := s.Scan(&r.ID, &r.Date, &r.Name, &r.Category, &r.Amount, &r.Notes,
		&r.MonthYear, &r.CreatedAt, &r.UpdatedAt, &r.CreatedBy, &r.UpdatedBy)
	if err != nil {
		return core.Expense{}, err
	}
	return r.toCore(), nil
}

func (r expenseRow) toCore() core.Expense {
	return core.Expense{
		ID:       r.ID,
		Date:     core.Date(r.Date),
		Name:     r.Name,
		Category: core.ExpenseCategory(r.Category),
		Amount:   core.Money{Minor: r.Amount},
		Notes:    r.Notes.String,
		MonthKey: core.MonthKey(r.MonthYear),
		Audit:    audit(r.CreatedAt, r.UpdatedAt, r.CreatedBy, r.UpdatedBy),
	}
}

func expenseArgs(e core.Expense) []any {
	return []any{
		e.ID, e.Date.String(), e.Name, string(e.Category), e.Amount.Minor, nullString(e.Notes),
		string(e.MonthKey), e.CreatedAt.UTC(), e.UpdatedAt.UTC(), e.CreatedBy, e.UpdatedBy,
	}
}

func scanWithdrawal(s scanner) (core.Withdrawal, error) {
	var r withdrawalRow
	err := s.Scan(&r.ID, &r.Date, &r.Amount, &r.Recipient, &r.Description,
		&r.MonthYear, &r.CreatedAt, &r.UpdatedAt, &r.CreatedBy, &r.UpdatedBy)
	if err != nil {
		return core.Withdrawal{}, err
	}
	return r.toCore(), nil
}

func (r withdrawalRow) toCore() core.Withdrawal {
	return core.Withdrawal{
		ID:          r.ID,
		Date:        core.Date(r.Date),
		Amount:      core.Money{Minor: r.Amount},
		Recipient:   r.Recipient,
		Description: r.Description.String,
		MonthKey:    core.MonthKey(r.MonthYear),
		Audit:       audit(r.CreatedAt, r.UpdatedAt, r.CreatedBy, r.UpdatedBy),
	}
}

func withdrawalArgs(w core.Withdrawal) []any {
	return []any{
		w.ID, w.Date.String(), w.Amount.Minor, w.Recipient, nullString(w.Description),
		string(w.MonthKey), w.CreatedAt.UTC(), w.UpdatedAt.UTC(), w.CreatedBy, w.UpdatedBy,
	}
}

func audit(created, updated timeColumn, createdBy, updatedBy string) core.Audit {
	return core.Audit{
		CreatedAt: time.Time(created),
		UpdatedAt: time.Time(updated),
		CreatedBy: createdBy,
		UpdatedBy: updatedBy,
	}
}

// A zero caution fee is stored as NULL, matching rows that never had one.
func nullMoney(m core.Money) sql.NullInt64 {
	return sql.NullInt64{Int64: m.Minor, Valid: !m.IsZero()}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// dateColumn scans a calendar date stored as DATE (postgres) or TEXT (sqlite).
type dateColumn core.Date

func (d *dateColumn) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d = dateColumn(core.DateOf(v.UTC()))
		return nil
	case string:
		return d.parse(v)
	case []byte:
		return d.parse(string(v))
	default:
		return fmt.Errorf("scan date: unsupported type %T", src)
	}
}

func (d *dateColumn) parse(s string) error {
	if len(s) > 10 {
		s = s[:10]
	}
	parsed, err := core.ParseDate(s)
	if err != nil {
		return fmt.Errorf("scan date %q: %w", s, err)
	}
	*d = dateColumn(parsed)
	return nil
}

// timeColumn scans a timestamp returned either as time.Time or as text.
type timeColumn time.Time

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
}

func (t *timeColumn) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*t = timeColumn(v.UTC())
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	case nil:
		*t = timeColumn{}
		return nil
	default:
		return fmt.Errorf("scan timestamp: unsupported type %T", src)
	}
}

func (t *timeColumn) parse(s string) error {
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			*t = timeColumn(parsed.UTC())
			return nil
		}
	}
	return fmt.Errorf("scan timestamp: unrecognised format %q", s)
}
