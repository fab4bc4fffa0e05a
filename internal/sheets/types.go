// Package sheets defines the contracts for the spreadsheet backend: the
// shared master registry store and the per-user ledger spreadsheets. The
// Google Sheets implementation lives in internal/infra/sheets.
package sheets

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/ledger-assistant/internal/domain"
)

// SchemaVersion is written into every provisioned ledger and bumped whenever
// the row layout changes.
const SchemaVersion = 1

// HeaderRow is the first row of every monthly tab in a user ledger.
var HeaderRow = []string{"Date", "Amount", "Direction", "Category", "Description", "Key", "Confidence"}

// monthTabPattern matches the monthly tab naming scheme.
var monthTabPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

// IsMonthTab reports whether title names a monthly ledger tab (YYYY-MM).
func IsMonthTab(title string) bool {
	return monthTabPattern.MatchString(title)
}

// MonthTab returns the tab name holding records for d's month.
func MonthTab(d civil.Date) string {
	return fmt.Sprintf("%04d-%02d", d.Year, d.Month)
}

// LedgerBackend exposes the spreadsheet operations the registry, writer and
// report engine need. Implementations must be safe for concurrent use.
type LedgerBackend interface {
	// LookupLedger returns the spreadsheet ID mapped to userID in the
	// master registry, or "" when no mapping exists.
	LookupLedger(ctx context.Context, userID string) (string, error)

	// RegisterLedger appends the userID -> spreadsheetID mapping to the
	// master registry.
	RegisterLedger(ctx context.Context, userID, spreadsheetID string) error

	// CreateLedgerSpreadsheet provisions a new, empty ledger spreadsheet
	// and returns its ID. The mapping is NOT registered; callers must
	// re-check the registry and call RegisterLedger themselves.
	CreateLedgerSpreadsheet(ctx context.Context, title string) (string, error)

	// AppendRecord appends rec as a single row to the monthly tab,
	// creating the tab with a header row first if needed. The append is
	// atomic: on error no row is left behind.
	AppendRecord(ctx context.Context, spreadsheetID, monthTab string, rec *domain.TransactionRecord) error

	// ReadMonth returns all records in the given monthly tab. A missing
	// tab yields an empty slice, not an error.
	ReadMonth(ctx context.Context, spreadsheetID, monthTab string) ([]*domain.TransactionRecord, error)

	// ListMonthTabs returns the titles of all monthly tabs in the ledger.
	ListMonthTabs(ctx context.Context, spreadsheetID string) ([]string, error)
}

// RecordToRow converts a record to the sheet value layout of HeaderRow.
func RecordToRow(rec *domain.TransactionRecord) []interface{} {
	return []interface{}{
		rec.OccurredOn.String(),
		strconv.FormatInt(rec.Amount, 10),
		string(rec.Direction),
		rec.Category,
		rec.Description,
		rec.Key,
		strconv.FormatFloat(rec.Confidence, 'f', 2, 64),
	}
}

// RowToRecord parses one sheet row back into a record. Rows that do not parse
// are reported as errors so callers can decide to skip or fail; rows shorter
// than the header are padded with empty cells.
func RowToRecord(row []interface{}) (*domain.TransactionRecord, error) {
	cells := make([]string, len(HeaderRow))
	for i := range cells {
		if i < len(row) {
			cells[i] = strings.TrimSpace(fmt.Sprint(row[i]))
		}
	}

	occurred, err := civil.ParseDate(cells[0])
	if err != nil {
		return nil, fmt.Errorf("parse date %q: %w", cells[0], err)
	}

	amount, err := strconv.ParseInt(cells[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", cells[1], err)
	}

	dir := domain.Direction(cells[2])
	if !dir.Valid() {
		return nil, fmt.Errorf("unknown direction %q", cells[2])
	}

	confidence := 0.0
	if cells[6] != "" {
		confidence, err = strconv.ParseFloat(cells[6], 64)
		if err != nil {
			return nil, fmt.Errorf("parse confidence %q: %w", cells[6], err)
		}
	}

	return &domain.TransactionRecord{
		OccurredOn:  occurred,
		Amount:      amount,
		Direction:   dir,
		Category:    cells[3],
		Description: cells[4],
		Key:         cells[5],
		Confidence:  confidence,
	}, nil
}
