package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"rentledger/internal/core"
)

// Record kinds carried by ledger events.
const (
	KindIncome     = "income"
	KindExpense    = "expense"
	KindWithdrawal = "withdrawal"
)

// Operations carried by ledger events. OpResync asks consumers to rebuild
// the listed months without a specific record change.
const (
	OpCreated = "created"
	OpUpdated = "updated"
	OpDeleted = "deleted"
	OpResync  = "resync"
)

// LedgerEvent announces that the months in MonthKeys changed. Consumers
// recompute from storage rather than trusting a payload.
type LedgerEvent struct {
	Kind      string          `json:"kind"`
	Op        string          `json:"op"`
	ID        string          `json:"id,omitempty"`
	MonthKeys []core.MonthKey `json:"monthKeys"`
	Actor     string          `json:"actor,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewLedgerEvent builds an event for the given months, dropping empty and duplicate keys.
func NewLedgerEvent(kind, op, id, actor string, keys ...core.MonthKey) *LedgerEvent {
	return &LedgerEvent{
		Kind:      kind,
		Op:        op,
		ID:        id,
		MonthKeys: uniqueKeys(keys),
		Actor:     actor,
		Timestamp: time.Now().UTC(),
	}
}

func uniqueKeys(keys []core.MonthKey) []core.MonthKey {
	out := make([]core.MonthKey, 0, len(keys))
	seen := make(map[core.MonthKey]bool, len(keys))
	for _, k := range keys {
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}

// Validate rejects events a consumer cannot act on.
func (e *LedgerEvent) Validate() error {
	switch e.Kind {
	case KindIncome, KindExpense, KindWithdrawal:
	default:
		return fmt.Errorf("unknown kind %q", e.Kind)
	}
	switch e.Op {
	case OpCreated, OpUpdated, OpDeleted, OpResync:
	default:
		return fmt.Errorf("unknown op %q", e.Op)
	}
	if len(e.MonthKeys) == 0 {
		return errors.New("event has no month keys")
	}
	for _, k := range e.MonthKeys {
		if _, err := core.ParseMonthKey(string(k)); err != nil {
			return err
		}
	}
	return nil
}

func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON decodes and validates an event.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ledger event: %w", err)
	}
	return &e, nil
}
