// Package sheets implements the spreadsheet backend on the Google Sheets API.
// One shared master spreadsheet holds the user -> ledger mapping (column A:
// user identity, column B: ledger spreadsheet ID); each user ledger is its own
// spreadsheet with monthly tabs named YYYY-MM.
package sheets

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	ledgersheets "github.com/dvloznov/ledger-assistant/internal/sheets"
)

const (
	// masterRange covers the user identity and spreadsheet ID columns of
	// the master registry's first visible sheet.
	masterRange = "A:B"

	// appendAnchor tells the Sheets API to append after the last row of
	// the table starting at A1.
	appendAnchor = "A1"
)

// Client talks to the Google Sheets API under a service credential. It
// implements sheets.LedgerBackend.
type Client struct {
	svc    *sheetsapi.Service
	master string
}

var _ ledgersheets.LedgerBackend = (*Client)(nil)

// NewClient builds a Sheets client for the given master registry spreadsheet.
// credentialsFile may be empty, in which case Application Default Credentials
// are used.
func NewClient(ctx context.Context, masterSpreadsheetID, credentialsFile string) (*Client, error) {
	if masterSpreadsheetID == "" {
		return nil, fmt.Errorf("sheets: master spreadsheet ID is required")
	}

	opts := []option.ClientOption{option.WithScopes(sheetsapi.SpreadsheetsScope)}
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	svc, err := sheetsapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets: create service: %w", err)
	}

	return &Client{svc: svc, master: masterSpreadsheetID}, nil
}

// isMissingRange reports whether err is the API's answer to reading a range
// on a tab that does not exist yet.
func isMissingRange(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == 400 || gerr.Code == 404
	}
	return false
}
