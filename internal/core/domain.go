package core

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	Utilities   ExpenseCategory = "Utilities"
	Maintenance ExpenseCategory = "Maintenance"
	Repairs     ExpenseCategory = "Repairs"
	Supplies    ExpenseCategory = "Supplies"
	StaffSalary ExpenseCategory = "Staff Salary"
	Rent        ExpenseCategory = "Rent"
	Taxes       ExpenseCategory = "Taxes"
	Insurance   ExpenseCategory = "Insurance"
	Marketing   ExpenseCategory = "Marketing"
	Other       ExpenseCategory = "Other"
)

type (
	ExpenseCategory string

	Date struct {
		time.Time
	}

	// Money is an amount in minor units of the display currency.
	Money struct {
		Minor int64
	}

	// Audit carries the timestamps and actor identities stamped by the gateway.
	Audit struct {
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
		CreatedBy string    `json:"createdBy,omitempty"`
		UpdatedBy string    `json:"updatedBy,omitempty"`
	}

	Income struct {
		ID            string   `json:"id"`
		Date          Date     `json:"date"`
		ClientName    string   `json:"clientName"`
		BroughtBy     string   `json:"broughtBy"`
		PrimaryAmount Money    `json:"primaryAmount"`
		CautionFee    Money    `json:"cautionFee"` // refundable deposit, zero when absent
		Commission    Money    `json:"commission"`
		NetIncome     Money    `json:"netIncome"`
		MonthKey      MonthKey `json:"monthKey"`
		Audit
	}

	Expense struct {
		ID       string          `json:"id"`
		Date     Date            `json:"date"`
		Name     string          `json:"name"`
		Category ExpenseCategory `json:"category"`
		Amount   Money           `json:"amount"`
		Notes    string          `json:"notes,omitempty"`
		MonthKey MonthKey        `json:"monthKey"`
		Audit
	}

	Withdrawal struct {
		ID          string   `json:"id"`
		Date        Date     `json:"date"`
		Amount      Money    `json:"amount"`
		Recipient   string   `json:"recipient"` // partner name
		Description string   `json:"description,omitempty"`
		MonthKey    MonthKey `json:"monthKey"`
		Audit
	}

	// Partner is a profit-share participant. Balance and withdrawals are derived.
	Partner struct {
		ID              string          `json:"id"`
		Name            string          `json:"name"`
		SharePercentage decimal.Decimal `json:"sharePercentage"`
	}
)

// ExpenseCategories lists the fixed categories in display order.
var ExpenseCategories = []ExpenseCategory{
	Utilities, Maintenance, Repairs, Supplies, StaffSalary,
	Rent, Taxes, Insurance, Marketing, Other,
}

// Valid reports whether c is one of the fixed categories.
func (c ExpenseCategory) Valid() bool {
	for _, known := range ExpenseCategories {
		if c == known {
			return true
		}
	}
	return false
}

func (c ExpenseCategory) String() string {
	return string(c)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date, keeping the date as seen in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a date string in YYYY-MM-DD format.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// MonthKey returns the month bucket the date belongs to.
func (d Date) MonthKey() MonthKey {
	return MonthKeyOf(d.Time)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" || s == `""` {
		*d = Date{}
		return nil
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return ErrInvalidDate
	}
	s = s[1 : len(s)-1]
	// Accept full timestamps as sent by browser date pickers.
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		*d = DateOf(t)
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

const dateLayout = "2006-01-02"
