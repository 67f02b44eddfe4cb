package core

import (
	"errors"
	"testing"
)

func validIncome() NewIncome {
	return NewIncome{
		Date:          NewDate(2024, 3, 10),
		ClientName:    "Ada",
		BroughtBy:     "Tunde",
		PrimaryAmount: Major(100000),
		CautionFee:    Major(20000),
		Commission:    Major(10000),
	}
}

func TestNewIncomeValidate(t *testing.T) {
	if err := validIncome().Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := map[string]func(*NewIncome){
		"date":          func(in *NewIncome) { in.Date = Date{} },
		"clientName":    func(in *NewIncome) { in.ClientName = "  " },
		"broughtBy":     func(in *NewIncome) { in.BroughtBy = "" },
		"primaryAmount": func(in *NewIncome) { in.PrimaryAmount = Money{} },
		"commission":    func(in *NewIncome) { in.Commission = Money{Minor: -1} },
		"cautionFee":    func(in *NewIncome) { in.CautionFee = Money{Minor: -1} },
		"monthKey":      func(in *NewIncome) { in.MonthKey = "2024-04" },
	}
	for field, mutate := range cases {
		in := validIncome()
		mutate(&in)
		err := in.Validate()
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("%s: expected ValidationError, got %v", field, err)
		}
		if _, ok := verr.Fields[field]; !ok {
			t.Fatalf("%s: missing field in %v", field, verr.Fields)
		}
	}

	in := validIncome()
	in.MonthKey = "2024-03"
	if err := in.Validate(); err != nil {
		t.Fatalf("matching month key should pass: %v", err)
	}
}

func TestNewExpenseValidate(t *testing.T) {
	good := NewExpense{Date: NewDate(2024, 3, 1), Name: "Diesel", Category: Utilities, Amount: Major(5000)}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	staff := good
	staff.Category = StaffSalary
	if err := staff.Validate(); err != nil {
		t.Fatalf("category with a space should pass: %v", err)
	}

	bads := []NewExpense{
		{Date: NewDate(2024, 3, 1), Name: "", Category: Utilities, Amount: Major(1)},
		{Date: NewDate(2024, 3, 1), Name: "x", Category: "Food", Amount: Major(1)},
		{Date: NewDate(2024, 3, 1), Name: "x", Category: Utilities, Amount: Money{}},
		{Name: "x", Category: Utilities, Amount: Major(1)},
	}
	for i, e := range bads {
		if err := e.Validate(); !errors.Is(err, ErrValidation) {
			t.Fatalf("case %d expected validation error, got %v", i, err)
		}
	}
}

func TestNewWithdrawalValidate(t *testing.T) {
	good := NewWithdrawal{Date: NewDate(2024, 3, 1), Amount: Major(1), Recipient: "Daniel"}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	empty := good
	empty.Recipient = ""
	if err := empty.Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("empty recipient must fail, got %v", err)
	}
	zero := good
	zero.Amount = Money{}
	if err := zero.Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("zero amount must fail, got %v", err)
	}
}

func TestPatchValidate(t *testing.T) {
	if err := (ExpensePatch{}).Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("empty patch must fail, got %v", err)
	}

	amount := Major(10)
	if err := (ExpensePatch{Amount: &amount}).Validate(); err != nil {
		t.Fatalf("amount-only patch should pass: %v", err)
	}

	zero := Money{}
	if err := (ExpensePatch{Amount: &zero}).Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("zero amount patch must fail, got %v", err)
	}

	blank := " "
	if err := (IncomePatch{ClientName: &blank}).Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("blank client name must fail, got %v", err)
	}

	var noDate Date
	if err := (WithdrawalPatch{Date: &noDate}).Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("zero date patch must fail, got %v", err)
	}

	bad := ExpenseCategory("Food")
	if err := (ExpensePatch{Category: &bad}).Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("unknown category patch must fail, got %v", err)
	}

	fee := Money{}
	p := IncomePatch{CautionFee: &fee}
	if err := p.Validate(); err != nil {
		t.Fatalf("zero caution fee is allowed: %v", err)
	}
	if !p.TouchesNetIncome() {
		t.Fatalf("caution fee patch touches net income")
	}
}
