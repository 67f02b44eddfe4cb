package core

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"0", 0, true},
		{"150000", 15000000, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{"99999999999999999999", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.Minor != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got.Minor, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestMoneyFormat(t *testing.T) {
	cases := []struct {
		m    Money
		want string
	}{
		{Money{}, "₦0"},
		{Major(999), "₦999"},
		{Major(1000), "₦1,000"},
		{Major(150000), "₦150,000"},
		{Major(1234567), "₦1,234,567"},
		{Money{Minor: 149}, "₦1"},
		{Money{Minor: 150}, "₦2"}, // half-up
		{Major(-2500), "-₦2,500"},
	}
	for _, tc := range cases {
		if got := tc.m.Format(); got != tc.want {
			t.Errorf("Format(%d) = %q, want %q", tc.m.Minor, got, tc.want)
		}
	}
}

func TestMoneyArithmetic(t *testing.T) {
	a, b := Major(100), Major(250)
	if got := a.Sub(b); !got.IsNegative() || got.Minor != -15000 {
		t.Fatalf("unexpected difference %d", got.Minor)
	}
	if got := a.Sub(b).NonNegative(); !got.IsZero() {
		t.Fatalf("clamp should give zero, got %d", got.Minor)
	}
	if got := a.Add(b); got != Major(350) {
		t.Fatalf("unexpected sum %d", got.Minor)
	}
}

func TestMoneyJSON(t *testing.T) {
	b, err := json.Marshal(Money{Minor: 150050})
	if err != nil || string(b) != "1500.5" {
		t.Fatalf("marshal: %s %v", b, err)
	}
	for in, want := range map[string]int64{
		`1500.5`:   150050,
		`"1500.5"`: 150050,
		`100000`:   10000000,
		`null`:     0,
	} {
		var m Money
		if err := json.Unmarshal([]byte(in), &m); err != nil || m.Minor != want {
			t.Fatalf("unmarshal %s: got %d err=%v", in, m.Minor, err)
		}
	}
	for _, in := range []string{`"abc"`, `184467440737095516.17`, `-184467440737095516.17`, `1e30`} {
		var m Money
		if err := json.Unmarshal([]byte(in), &m); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("unmarshal %s: expected ErrInvalidAmount, got %d err=%v", in, m.Minor, err)
		}
	}

	var in NewIncome
	err = json.Unmarshal([]byte(`{"date":"2024-03-01","clientName":"A","broughtBy":"B","primaryAmount":184467440737095516.17}`), &in)
	if !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("oversized primaryAmount: expected ErrInvalidAmount, got %v (minor=%d)", err, in.PrimaryAmount.Minor)
	}
}
