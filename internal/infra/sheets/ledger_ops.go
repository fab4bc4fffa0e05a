package sheets

import (
	"context"
	"fmt"

	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/dvloznov/ledger-assistant/internal/domain"
	"github.com/dvloznov/ledger-assistant/internal/logger"
	ledgersheets "github.com/dvloznov/ledger-assistant/internal/sheets"
)

// AppendRecord appends rec as one row to the monthly tab of the ledger,
// creating the tab with a header row first if it does not exist. A single
// values.append call writes the whole row, so a failed call leaves nothing
// behind and the caller may retry.
func (c *Client) AppendRecord(ctx context.Context, spreadsheetID, monthTab string, rec *domain.TransactionRecord) error {
	if err := c.ensureMonthTab(ctx, spreadsheetID, monthTab); err != nil {
		return err
	}

	body := &sheetsapi.ValueRange{Values: [][]interface{}{ledgersheets.RecordToRow(rec)}}

	_, err := c.svc.Spreadsheets.Values.Append(spreadsheetID, monthTab+"!"+appendAnchor, body).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append record to %s!%s: %w", spreadsheetID, monthTab, err)
	}
	return nil
}

// ReadMonth returns all parseable records in a monthly tab. A tab that does
// not exist yet yields an empty slice. Malformed rows (hand-edited cells) are
// logged and skipped rather than failing the whole read.
func (c *Client) ReadMonth(ctx context.Context, spreadsheetID, monthTab string) ([]*domain.TransactionRecord, error) {
	readRange := fmt.Sprintf("%s!A2:G", monthTab)
	resp, err := c.svc.Spreadsheets.Values.Get(spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		if isMissingRange(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s!%s: %w", spreadsheetID, monthTab, err)
	}

	log := logger.FromContext(ctx)
	records := make([]*domain.TransactionRecord, 0, len(resp.Values))
	for i, row := range resp.Values {
		rec, err := ledgersheets.RowToRecord(row)
		if err != nil {
			log.Warn().
				Err(err).
				Str("spreadsheet_id", spreadsheetID).
				Str("tab", monthTab).
				Int("row", i+2).
				Msg("Skipping malformed ledger row")
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// ListMonthTabs returns the titles of all YYYY-MM tabs in the ledger.
func (c *Client) ListMonthTabs(ctx context.Context, spreadsheetID string) ([]string, error) {
	meta, err := c.svc.Spreadsheets.Get(spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get spreadsheet metadata %s: %w", spreadsheetID, err)
	}

	var tabs []string
	for _, sh := range meta.Sheets {
		if sh.Properties != nil && ledgersheets.IsMonthTab(sh.Properties.Title) {
			tabs = append(tabs, sh.Properties.Title)
		}
	}
	return tabs, nil
}

// ensureMonthTab creates the monthly tab with its header row if missing.
func (c *Client) ensureMonthTab(ctx context.Context, spreadsheetID, monthTab string) error {
	meta, err := c.svc.Spreadsheets.Get(spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet metadata %s: %w", spreadsheetID, err)
	}

	for _, sh := range meta.Sheets {
		if sh.Properties != nil && sh.Properties.Title == monthTab {
			return nil
		}
	}

	req := &sheetsapi.BatchUpdateSpreadsheetRequest{
		Requests: []*sheetsapi.Request{{
			AddSheet: &sheetsapi.AddSheetRequest{
				Properties: &sheetsapi.SheetProperties{Title: monthTab},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("create tab %s in %s: %w", monthTab, spreadsheetID, err)
	}

	header := make([]interface{}, len(ledgersheets.HeaderRow))
	for i, h := range ledgersheets.HeaderRow {
		header[i] = h
	}
	body := &sheetsapi.ValueRange{Values: [][]interface{}{header}}
	_, err = c.svc.Spreadsheets.Values.Update(spreadsheetID, monthTab+"!"+appendAnchor, body).
		ValueInputOption("RAW").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write header for tab %s in %s: %w", monthTab, spreadsheetID, err)
	}

	logger.FromContext(ctx).Info().
		Str("spreadsheet_id", spreadsheetID).
		Str("tab", monthTab).
		Msg("Created monthly ledger tab")
	return nil
}
