// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from strings
// and converting between minor units and the zero-decimal display format.
package core

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// MinorPerMajor is the number of minor units in one unit of the display currency.
	MinorPerMajor = 100
	// CurrencySymbol prefixes every formatted amount (Nigerian naira).
	CurrencySymbol = "₦"
)

var hundred = decimal.NewFromInt(MinorPerMajor)

// Major builds a Money from a whole number of currency units.
func Major(units int64) Money {
	return Money{Minor: units * MinorPerMajor}
}

// MoneyFromDecimal converts a major-unit decimal to Money, rounding half away
// from zero on the third decimal place.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money{Minor: d.Mul(hundred).Round(0).IntPart()}
}

// ParseAmount converts a decimal string to Money with proper rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and rejects
// negative values. Zero is accepted; callers decide whether zero is meaningful.
//
// Examples:
//
//	ParseAmount("12.34")  -> Money{Minor: 1234}
//	ParseAmount("12,345") -> Money{Minor: 1235} (half-up)
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	if !inRange(d) {
		return Money{}, ErrInvalidAmount
	}
	return MoneyFromDecimal(d), nil
}

const maxMajor = (1<<63 - 1) / MinorPerMajor

var maxMajorDecimal = decimal.NewFromInt(maxMajor)

// inRange reports whether d scales to minor units without overflowing int64.
func inRange(d decimal.Decimal) bool {
	return !d.Abs().GreaterThan(maxMajorDecimal)
}

func (m Money) Add(o Money) Money { return Money{Minor: m.Minor + o.Minor} }

func (m Money) Sub(o Money) Money { return Money{Minor: m.Minor - o.Minor} }

func (m Money) IsZero() bool { return m.Minor == 0 }

func (m Money) IsNegative() bool { return m.Minor < 0 }

// NonNegative clamps m to zero.
func (m Money) NonNegative() Money {
	if m.Minor < 0 {
		return Money{}
	}
	return m
}

// Decimal returns the amount in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Minor, -2)
}

// RoundedMajor returns the amount rounded half away from zero to whole units,
// which is what the zero-decimal display shows.
func (m Money) RoundedMajor() int64 {
	return m.Decimal().Round(0).IntPart()
}

// Format renders the amount as the zero-decimal display string, e.g. "₦150,000".
func (m Money) Format() string {
	units := m.RoundedMajor()
	neg := units < 0
	if neg {
		units = -units
	}

	s := strconv.FormatInt(units, 10)
	var b strings.Builder
	b.Grow(len(s) + len(s)/3 + 4)
	if neg {
		b.WriteByte('-')
	}
	b.WriteString(CurrencySymbol)

	rem := len(s) % 3
	if rem == 0 {
		rem = 3
	}
	b.WriteString(s[:rem])
	for i := rem; i < len(s); i += 3 {
		b.WriteByte(',')
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// MarshalJSON encodes the amount as a JSON number in major units.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal().String()), nil
}

// UnmarshalJSON accepts a JSON number or numeric string in major units.
func (m *Money) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*m = Money{}
		return nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil || !inRange(d) {
		return ErrInvalidAmount
	}
	*m = MoneyFromDecimal(d)
	return nil
}
