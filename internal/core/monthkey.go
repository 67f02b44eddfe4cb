package core

import (
	"fmt"
	"strconv"
	"time"
)

// MonthKey is the canonical "YYYY-MM" bucket every record is partitioned by.
type MonthKey string

// MonthKeyOf returns the month bucket of t. Only the year and month of t, as
// seen in t's own location, are used.
func MonthKeyOf(t time.Time) MonthKey {
	return monthKey(t.Year(), int(t.Month()))
}

// CurrentMonthKey returns the bucket for now.
func CurrentMonthKey(now time.Time) MonthKey {
	return MonthKeyOf(now)
}

// ParseMonthKey validates a public month filter parameter.
func ParseMonthKey(s string) (MonthKey, error) {
	if len(s) != 7 || s[4] != '-' || !digits(s[:4]) || !digits(s[5:]) {
		return "", fmt.Errorf("%w: %q", ErrInvalidMonthKey, s)
	}
	year, err := strconv.Atoi(s[:4])
	if err != nil || year < 1 {
		return "", fmt.Errorf("%w: %q", ErrInvalidMonthKey, s)
	}
	month, err := strconv.Atoi(s[5:])
	if err != nil || month < 1 || month > 12 {
		return "", fmt.Errorf("%w: %q", ErrInvalidMonthKey, s)
	}
	return monthKey(year, month), nil
}

func digits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Year returns the year component. The key must be well formed.
func (k MonthKey) Year() int {
	y, _ := strconv.Atoi(string(k[:4]))
	return y
}

// Month returns the month component (1-12). The key must be well formed.
func (k MonthKey) Month() int {
	m, _ := strconv.Atoi(string(k[5:]))
	return m
}

// Start returns midnight UTC on the first day of the month.
func (k MonthKey) Start() time.Time {
	return time.Date(k.Year(), time.Month(k.Month()), 1, 0, 0, 0, 0, time.UTC)
}

// Next returns the following month, wrapping December into January.
func (k MonthKey) Next() MonthKey {
	year, month := k.Year(), k.Month()+1
	if month > 12 {
		month = 1
		year++
	}
	return monthKey(year, month)
}

// Prev returns the preceding month, wrapping January into December.
func (k MonthKey) Prev() MonthKey {
	year, month := k.Year(), k.Month()-1
	if month < 1 {
		month = 12
		year--
	}
	return monthKey(year, month)
}

func (k MonthKey) String() string {
	return string(k)
}

func monthKey(year, month int) MonthKey {
	return MonthKey(fmt.Sprintf("%04d-%02d", year, month))
}
