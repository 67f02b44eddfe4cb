package core

import (
	"errors"
	"testing"
	"time"
)

func TestMonthKeyOf(t *testing.T) {
	cases := []struct {
		t    time.Time
		want MonthKey
	}{
		{time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), "2024-03"},
		{time.Date(2024, 3, 31, 23, 59, 59, 0, time.UTC), "2024-03"},
		{time.Date(2024, 12, 15, 12, 0, 0, 0, time.UTC), "2024-12"},
		{time.Date(987, 1, 1, 0, 0, 0, 0, time.UTC), "0987-01"},
	}
	for _, tc := range cases {
		if got := MonthKeyOf(tc.t); got != tc.want {
			t.Errorf("MonthKeyOf(%v) = %s, want %s", tc.t, got, tc.want)
		}
	}
}

func TestMonthKeyStability(t *testing.T) {
	d := NewDate(2024, 7, 9)
	if d.MonthKey() != d.MonthKey() {
		t.Fatalf("month key must be deterministic")
	}
	if NewDate(2024, 7, 1).MonthKey() != NewDate(2024, 7, 31).MonthKey() {
		t.Fatalf("same month must share a key")
	}
	if NewDate(2024, 7, 31).MonthKey() == NewDate(2024, 8, 1).MonthKey() {
		t.Fatalf("adjacent months must differ")
	}
}

func TestMonthKeyNavigation(t *testing.T) {
	// December navigated forward wraps into January of the next year.
	dec := NewDate(2024, 12, 25).MonthKey()
	if got := dec.Next(); got != "2025-01" {
		t.Fatalf("Next(%s) = %s", dec, got)
	}
	if got := MonthKey("2025-01").Prev(); got != "2024-12" {
		t.Fatalf("Prev wrap = %s", got)
	}
	if got := MonthKey("2024-03").Next(); got != "2024-04" {
		t.Fatalf("Next = %s", got)
	}
	if got := MonthKey("2024-03").Prev().Next(); got != "2024-03" {
		t.Fatalf("Prev then Next should round trip, got %s", got)
	}
	k := MonthKey("2024-03")
	if k.Year() != 2024 || k.Month() != 3 {
		t.Fatalf("components: %d %d", k.Year(), k.Month())
	}
	if !k.Start().Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("start: %v", k.Start())
	}
}

func TestParseMonthKey(t *testing.T) {
	good := []string{"2024-01", "2024-12", "1999-07"}
	for _, s := range good {
		k, err := ParseMonthKey(s)
		if err != nil || string(k) != s {
			t.Fatalf("%q: got %q err=%v", s, k, err)
		}
	}
	bad := []string{"", "2024", "2024-1", "2024-13", "2024-00", "24-01-01", "abcd-01", "2024/01", "+202-03", "2024-+3", "-999-01", " 2024-1"}
	for _, s := range bad {
		if _, err := ParseMonthKey(s); !errors.Is(err, ErrInvalidMonthKey) {
			t.Fatalf("%q: expected ErrInvalidMonthKey, got %v", s, err)
		}
	}
}
