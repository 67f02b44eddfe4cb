package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestDateJSON(t *testing.T) {
	var d Date
	if err := json.Unmarshal([]byte(`"2024-03-15"`), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if d.String() != "2024-03-15" {
		t.Fatalf("unexpected date %s", d)
	}
	if err := json.Unmarshal([]byte(`"2024-03-31T23:30:00Z"`), &d); err != nil {
		t.Fatalf("unmarshal timestamp: %v", err)
	}
	if d.String() != "2024-03-31" {
		t.Fatalf("timestamp should truncate to its date, got %s", d)
	}
	b, err := json.Marshal(NewDate(2024, 1, 2))
	if err != nil || string(b) != `"2024-01-02"` {
		t.Fatalf("marshal: %s %v", b, err)
	}
	if err := json.Unmarshal([]byte(`"15/03/2024"`), &d); err == nil {
		t.Fatalf("expected error for unsupported layout")
	}
}

func TestExpenseCategoryValid(t *testing.T) {
	for _, c := range ExpenseCategories {
		if !c.Valid() {
			t.Fatalf("%q should be valid", c)
		}
	}
	if len(ExpenseCategories) != 10 {
		t.Fatalf("expected 10 categories, got %d", len(ExpenseCategories))
	}
	if ExpenseCategory("Groceries").Valid() {
		t.Fatalf("unknown category accepted")
	}
	if ExpenseCategory("staff salary").Valid() {
		t.Fatalf("category match must be exact")
	}
}

func TestErrorTaxonomy(t *testing.T) {
	cause := errors.New("connection refused")
	err := Persistence("list incomes", cause)
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("persistence error should unwrap to its cause")
	}
	if errors.Is(err, ErrValidation) {
		t.Fatalf("persistence error must not match validation")
	}
	if Persistence("noop", nil) != nil {
		t.Fatalf("nil cause must stay nil")
	}
	if again := Persistence("outer", err); again != err {
		t.Fatalf("already wrapped errors should pass through")
	}

	verr := NewValidationError("amount", "must be greater than 0")
	if !errors.Is(verr, ErrValidation) {
		t.Fatalf("expected ErrValidation")
	}
	if verr.Error() != "validation failed: amount must be greater than 0" {
		t.Fatalf("unexpected message %q", verr.Error())
	}
}
