package sheets

import (
	"context"
	"fmt"

	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/dvloznov/ledger-assistant/internal/domain"
	"github.com/dvloznov/ledger-assistant/internal/logger"
)

// LookupLedger scans the master registry for userID and returns the mapped
// ledger spreadsheet ID, or "" when the user has no ledger yet.
func (c *Client) LookupLedger(ctx context.Context, userID string) (string, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.master, masterRange).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("%w: read master sheet: %v", domain.ErrRegistryUnavailable, err)
	}

	for _, row := range resp.Values {
		if len(row) >= 2 && fmt.Sprint(row[0]) == userID {
			return fmt.Sprint(row[1]), nil
		}
	}
	return "", nil
}

// RegisterLedger appends the userID -> spreadsheetID mapping to the master
// registry.
func (c *Client) RegisterLedger(ctx context.Context, userID, spreadsheetID string) error {
	body := &sheetsapi.ValueRange{Values: [][]interface{}{{userID, spreadsheetID}}}

	_, err := c.svc.Spreadsheets.Values.Append(c.master, appendAnchor, body).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%w: register ledger for user %s: %v", domain.ErrRegistryUnavailable, userID, err)
	}

	logger.FromContext(ctx).Info().
		Str("user_id", userID).
		Str("spreadsheet_id", spreadsheetID).
		Msg("Registered ledger in master sheet")
	return nil
}

// CreateLedgerSpreadsheet provisions a new, empty ledger spreadsheet.
func (c *Client) CreateLedgerSpreadsheet(ctx context.Context, title string) (string, error) {
	ss := &sheetsapi.Spreadsheet{
		Properties: &sheetsapi.SpreadsheetProperties{Title: title},
	}

	created, err := c.svc.Spreadsheets.Create(ss).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("%w: create ledger spreadsheet: %v", domain.ErrRegistryUnavailable, err)
	}

	logger.FromContext(ctx).Info().
		Str("spreadsheet_id", created.SpreadsheetId).
		Str("title", title).
		Msg("Provisioned ledger spreadsheet")
	return created.SpreadsheetId, nil
}
