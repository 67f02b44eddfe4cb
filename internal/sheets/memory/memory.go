// Package memory is an in-process summary mirror, used when no spreadsheet
// is configured and by tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"rentledger/internal/core"
	"rentledger/internal/ledger"
	ports "rentledger/internal/sheets"
)

type Store struct {
	mu     sync.Mutex
	rows   map[core.MonthKey]ledger.MonthSummary
	writes int
}

var (
	_ ports.SummaryWriter = (*Store)(nil)
	_ ports.SummaryReader = (*Store)(nil)
)

func New() *Store {
	return &Store{rows: make(map[core.MonthKey]ledger.MonthSummary)}
}

func (s *Store) UpsertMonthSummary(ctx context.Context, sum ledger.MonthSummary) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[sum.MonthKey] = sum
	s.writes++
	return nil
}

// ReadMonthRow returns the month key and formatted figures of the stored row.
func (s *Store) ReadMonthRow(_ context.Context, key core.MonthKey) ([]string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum, ok := s.rows[key]
	if !ok {
		return nil, false, nil
	}
	return []string{
		string(sum.MonthKey),
		sum.TotalIncome.String(),
		sum.TotalExpenses.String(),
		sum.NetOperatingProfit.String(),
	}, true, nil
}

// Summary returns the stored summary for key.
func (s *Store) Summary(key core.MonthKey) (ledger.MonthSummary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum, ok := s.rows[key]
	return sum, ok
}

// Months returns the mirrored month keys in ascending order.
func (s *Store) Months() []core.MonthKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.MonthKey, 0, len(s.rows))
	for k := range s.rows {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Writes counts upserts, including overwrites.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
