// Package google mirrors monthly ledger summaries into a Google Sheets tab.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"rentledger/internal/core"
	"rentledger/internal/ledger"
	ports "rentledger/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Client writes one row per month into the summary sheet. Column A holds
// the month key and locates the row.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string

	// Row index cache: month key -> 1-based row, plus the used row count.
	mu                 sync.Mutex
	rowIndex           map[core.MonthKey]int
	cachedRowCount     int
	cacheExpiresAt     time.Time
	cacheValidDuration time.Duration
}

var (
	_ ports.SummaryWriter = (*Client)(nil)
	_ ports.SummaryReader = (*Client)(nil)
)

// Options configures New.
type Options struct {
	SpreadsheetID string
	SheetName     string
	// CredentialsJSON takes precedence over CredentialsFile.
	CredentialsJSON string
	CredentialsFile string
}

const defaultSheetName = "Monthly Summary"

// New creates a Sheets client authenticated with service account credentials.
func New(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	sheetName := strings.TrimSpace(opts.SheetName)
	if sheetName == "" {
		sheetName = defaultSheetName
	}

	svc, err := newSheetsService(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:                svc,
		spreadsheetID:      strings.TrimSpace(opts.SpreadsheetID),
		sheetName:          sheetName,
		cacheValidDuration: 5 * time.Minute,
	}, nil
}

func credentials(opts Options) ([]byte, error) {
	switch {
	case strings.TrimSpace(opts.CredentialsJSON) != "":
		return []byte(opts.CredentialsJSON), nil
	case strings.TrimSpace(opts.CredentialsFile) != "":
		b, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials")
	}
}

func newSheetsService(ctx context.Context, opts Options) (*gsheet.Service, error) {
	credentialsJSON, err := credentials(opts)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Creating Google Sheets service with Service Account",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsScope)

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// UpsertMonthSummary writes s into the row holding its month key, appending
// a row (and the header, on an empty sheet) when the month is new.
func (c *Client) UpsertMonthSummary(ctx context.Context, s ledger.MonthSummary) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	row, err := c.rowFor(ctx, s.MonthKey)
	if err != nil {
		return err
	}

	if row == headerRow+1 && c.needsHeader() {
		rng := fmt.Sprintf("%s!A%d:%s%d", c.sheetName, headerRow, lastColumn, headerRow)
		vr := &gsheet.ValueRange{Values: [][]any{summaryHeader()}}
		if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
			ValueInputOption("RAW").Context(ctx).Do(); err != nil {
			c.invalidateRowCache()
			return fmt.Errorf("write header in sheet %s: %w", c.sheetName, err)
		}
	}

	rng := fmt.Sprintf("%s!A%d:%s%d", c.sheetName, row, lastColumn, row)
	vr := &gsheet.ValueRange{Values: [][]any{summaryRow(s, time.Now())}}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		c.invalidateRowCache()
		return fmt.Errorf("update %s: %w", rng, err)
	}

	c.remember(s.MonthKey, row)
	slog.InfoContext(ctx, "Mirrored month summary", "month", s.MonthKey, "sheet", c.sheetName, "row", row)
	return nil
}

// ReadMonthRow returns the mirrored cells for key, if present.
func (c *Client) ReadMonthRow(ctx context.Context, key core.MonthKey) ([]string, bool, error) {
	if c.svc == nil {
		return nil, false, errors.New("sheets service not initialized")
	}
	index, _, err := c.loadIndex(ctx)
	if err != nil {
		return nil, false, err
	}
	row, ok := index[key]
	if !ok {
		return nil, false, nil
	}
	rng := fmt.Sprintf("%s!A%d:%s%d", c.sheetName, row, lastColumn, row)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", rng, err)
	}
	if len(resp.Values) == 0 {
		return nil, false, nil
	}
	return toStrings(resp.Values[0]), true, nil
}

// rowFor returns the row of key, or the next free row when key is absent.
func (c *Client) rowFor(ctx context.Context, key core.MonthKey) (int, error) {
	index, used, err := c.loadIndex(ctx)
	if err != nil {
		return 0, err
	}
	if row, ok := index[key]; ok {
		return row, nil
	}
	if used < headerRow {
		used = headerRow
	}
	return used + 1, nil
}

func (c *Client) loadIndex(ctx context.Context) (map[core.MonthKey]int, int, error) {
	c.mu.Lock()
	if c.rowIndex != nil && time.Now().Before(c.cacheExpiresAt) {
		index, used := c.rowIndex, c.cachedRowCount
		c.mu.Unlock()
		return index, used, nil
	}
	c.mu.Unlock()

	rng := fmt.Sprintf("%s!A:A", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, 0, fmt.Errorf("read %s: %w", rng, err)
	}
	index, used := indexRows(resp.Values)

	c.mu.Lock()
	c.rowIndex = index
	c.cachedRowCount = used
	c.cacheExpiresAt = time.Now().Add(c.cacheValidDuration)
	c.mu.Unlock()
	return index, used, nil
}

func (c *Client) needsHeader() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cachedRowCount == 0
}

func (c *Client) remember(key core.MonthKey, row int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rowIndex == nil {
		return
	}
	// Copy on write: readers may hold the previous map.
	next := make(map[core.MonthKey]int, len(c.rowIndex)+1)
	for k, v := range c.rowIndex {
		next[k] = v
	}
	next[key] = row
	c.rowIndex = next
	if row > c.cachedRowCount {
		c.cachedRowCount = row
	}
}

func (c *Client) invalidateRowCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rowIndex = nil
	c.cachedRowCount = 0
	c.cacheExpiresAt = time.Time{}
}
