// Package google mirrors closing ledgers into a Google Sheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"salao/internal/core"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// New creates a Sheets client authenticated with a service account.
// Credentials come from GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE
// or GOOGLE_APPLICATION_CREDENTIALS, in that order. Each fortnight gets its
// own tab named after sheetBase, see SheetName.
func New(ctx context.Context, spreadsheetID, sheetBase string) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	creds, err := credentialsFromEnv(ctx)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewWithService(svc, spreadsheetID, sheetBase), nil
}

// NewWithService wraps an existing Sheets service.
func NewWithService(svc *gsheet.Service, spreadsheetID, sheetBase string) *Client {
	if strings.TrimSpace(sheetBase) == "" {
		sheetBase = "Fechamentos"
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetName: strings.TrimSpace(sheetBase)}
}

func credentialsFromEnv(ctx context.Context) ([]byte, error) {
	inline := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	file := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		slog.InfoContext(ctx, "Using inline service account credentials")
		return []byte(inline), nil
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	}
	return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
}

// SheetName returns the tab holding the ledger of a fortnight, e.g.
// "Fechamentos 2025-03 Q1".
func (c *Client) SheetName(p core.FortnightPeriod) string {
	return fmt.Sprintf("%s %04d-%02d Q%d", c.sheetName, p.Year, p.Month, p.Half)
}

// UpsertLedger writes the report's ledger to the tab of its period, creating
// the tab on first use and replacing whatever it held before. Cells are sent
// RAW so service names are never evaluated as formulas.
func (c *Client) UpsertLedger(ctx context.Context, r core.Report) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	title := c.SheetName(r.Period)
	if err := c.ensureSheet(ctx, title); err != nil {
		return "", err
	}

	rng := a1Range(title, "A:D")
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("clear %s: %w", rng, err)
	}

	vr := &gsheet.ValueRange{Values: LedgerRows(r)}
	resp, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, a1Range(title, "A1"), vr).
		ValueInputOption("RAW").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("write ledger to %s: %w", rng, err)
	}
	if resp.UpdatedRange == "" {
		return rng, nil
	}
	return resp.UpdatedRange, nil
}

func (c *Client) ensureSheet(ctx context.Context, title string) error {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("list sheets: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == title {
			return nil
		}
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
		AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: title}},
	}}}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %q: %w", title, err)
	}
	return nil
}

// a1Range quotes a tab title for A1 notation.
func a1Range(title, cells string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'!" + cells
}

// LedgerRows lays the ledger out as sheet rows. Quantities and amounts are
// numbers so the sheet can sum them in any locale:
//
//	Fechamento | 01/03/2025 a 15/03/2025
//	03/03/2025 | 2 | Penteados | 180
//	TOTAL      |   |           | 180
func LedgerRows(r core.Report) [][]any {
	rows := [][]any{{"Fechamento", r.Period.Label(), "", ""}}
	for _, b := range r.Buckets {
		date := b.Date
		if d, ok := core.ParseCalendarDate(b.Date); ok {
			date = d.LongLabel()
		}
		for _, g := range b.ServiceGroups() {
			rows = append(rows, []any{date, g.Quantity, g.DisplayName(), g.Subtotal.Decimal().InexactFloat64()})
		}
	}
	return append(rows, []any{"TOTAL", "", "", r.GrandTotal.Decimal().InexactFloat64()})
}
