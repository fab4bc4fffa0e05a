// Package ledger implements writes to and aggregate reads over a user's
// append-only transaction ledger.
package ledger

import (
	"context"
	"fmt"

	"github.com/dvloznov/ledger-assistant/internal/domain"
	"github.com/dvloznov/ledger-assistant/internal/logger"
	"github.com/dvloznov/ledger-assistant/internal/sheets"
)

// Writer appends normalized records to a ledger, enforcing idempotency.
type Writer struct {
	backend sheets.LedgerBackend
}

// NewWriter creates a writer over the given spreadsheet backend.
func NewWriter(backend sheets.LedgerBackend) *Writer {
	return &Writer{backend: backend}
}

// Write appends rec to the ledger unless a record with the same idempotency
// key already exists. The duplicate check is bounded to the monthly tab that
// rec.OccurredOn resolves to: a resend whose date resolution lands in a
// different month falls outside the scan window and is committed again. A
// failed append leaves no partial row and the same call may be safely
// retried.
func (w *Writer) Write(ctx context.Context, ref domain.LedgerRef, rec *domain.TransactionRecord) (domain.WriteOutcome, error) {
	if rec.Key == "" {
		return "", fmt.Errorf("ledger: record has no idempotency key")
	}
	if rec.Amount <= 0 {
		return "", fmt.Errorf("ledger: record amount must be a positive magnitude, got %d", rec.Amount)
	}

	tab := sheets.MonthTab(rec.OccurredOn)

	existing, err := w.backend.ReadMonth(ctx, ref.SpreadsheetID, tab)
	if err != nil {
		return "", fmt.Errorf("ledger: duplicate check: %w", err)
	}
	for _, prev := range existing {
		if prev.Key == rec.Key {
			logger.FromContext(ctx).Info().
				Str("spreadsheet_id", ref.SpreadsheetID).
				Str("key", rec.Key).
				Msg("Duplicate write suppressed")
			return domain.WriteAlreadyExists, nil
		}
	}

	if err := w.backend.AppendRecord(ctx, ref.SpreadsheetID, tab, rec); err != nil {
		return "", fmt.Errorf("ledger: append: %w", err)
	}

	logger.FromContext(ctx).Info().
		Str("spreadsheet_id", ref.SpreadsheetID).
		Str("tab", tab).
		Str("key", rec.Key).
		Int64("amount", rec.SignedAmount()).
		Str("category", rec.Category).
		Msg("Committed transaction record")
	return domain.WriteCommitted, nil
}
