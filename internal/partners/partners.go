// Package partners holds the partner configuration table: the named partners
// and their share of net operating profit.
package partners

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"rentledger/internal/core"
)

// ErrInvalidConfig is returned when a partner table cannot be parsed or does not validate.
var ErrInvalidConfig = errors.New("invalid partner configuration")

var hundred = decimal.NewFromInt(100)

// Config is an ordered partner table. Order is preserved in every view.
type Config struct {
	Partners []core.Partner
}

// Default returns the two equal partners the business started with.
func Default() Config {
	return Config{Partners: []core.Partner{
		{ID: "1", Name: "Daniel", SharePercentage: decimal.NewFromInt(50)},
		{ID: "2", Name: "Benjamin", SharePercentage: decimal.NewFromInt(50)},
	}}
}

// Parse reads a table written as "Name:Share,Name:Share", e.g. "Daniel:50,Benjamin:50".
// Shares may carry decimals ("Ada:33.34"). The parsed table is validated.
func Parse(s string) (Config, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Config{}, fmt.Errorf("%w: empty", ErrInvalidConfig)
	}

	var cfg Config
	for i, entry := range strings.Split(s, ",") {
		name, share, ok := strings.Cut(entry, ":")
		if !ok {
			return Config{}, fmt.Errorf("%w: entry %q must be name:share", ErrInvalidConfig, strings.TrimSpace(entry))
		}
		pct, err := decimal.NewFromString(strings.TrimSpace(share))
		if err != nil {
			return Config{}, fmt.Errorf("%w: share of %q: %v", ErrInvalidConfig, strings.TrimSpace(name), err)
		}
		cfg.Partners = append(cfg.Partners, core.Partner{
			ID:              strconv.Itoa(i + 1),
			Name:            strings.TrimSpace(name),
			SharePercentage: pct,
		})
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate requires at least one partner, unique non-empty names, shares
// within [0,100] and a total of exactly 100.
func (c Config) Validate() error {
	if len(c.Partners) == 0 {
		return fmt.Errorf("%w: no partners", ErrInvalidConfig)
	}

	seen := make(map[string]bool, len(c.Partners))
	total := decimal.Zero
	for _, p := range c.Partners {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("%w: partner %s has no name", ErrInvalidConfig, p.ID)
		}
		if seen[p.Name] {
			return fmt.Errorf("%w: duplicate partner %q", ErrInvalidConfig, p.Name)
		}
		seen[p.Name] = true

		if p.SharePercentage.IsNegative() || p.SharePercentage.GreaterThan(hundred) {
			return fmt.Errorf("%w: share of %q must be between 0 and 100", ErrInvalidConfig, p.Name)
		}
		total = total.Add(p.SharePercentage)
	}

	if !total.Equal(hundred) {
		return fmt.Errorf("%w: shares sum to %s, want 100", ErrInvalidConfig, total.String())
	}
	return nil
}

// Lookup finds a partner by exact name.
func (c Config) Lookup(name string) (core.Partner, bool) {
	for _, p := range c.Partners {
		if p.Name == name {
			return p, true
		}
	}
	return core.Partner{}, false
}

func (c Config) Names() []string {
	names := make([]string, len(c.Partners))
	for i, p := range c.Partners {
		names[i] = p.Name
	}
	return names
}

// String renders the table in the form Parse accepts.
func (c Config) String() string {
	parts := make([]string, len(c.Partners))
	for i, p := range c.Partners {
		parts[i] = p.Name + ":" + p.SharePercentage.String()
	}
	return strings.Join(parts, ",")
}
