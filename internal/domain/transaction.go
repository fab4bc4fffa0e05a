package domain

import (
	"time"

	"cloud.google.com/go/civil"
)

// Direction indicates whether a transaction moves money out of or into the
// user's pocket.
type Direction string

const (
	DirectionExpense Direction = "expense"
	DirectionIncome  Direction = "income"
)

// Valid reports whether d is one of the two known directions.
func (d Direction) Valid() bool {
	return d == DirectionExpense || d == DirectionIncome
}

// Sign returns -1 for expenses and +1 for income.
func (d Direction) Sign() int64 {
	if d == DirectionExpense {
		return -1
	}
	return 1
}

// LedgerRef identifies one user's persistent transaction store.
// The registry is the sole writer of the user -> LedgerRef mapping.
type LedgerRef struct {
	SpreadsheetID string
	CreatedAt     time.Time
	SchemaVersion int
}

// TransactionRecord is the unit of ledger storage. Records are immutable once
// written; corrections are modeled as new offsetting records.
type TransactionRecord struct {
	// Key is the idempotency key, derived deterministically from the user
	// identity and message identifier (or a content hash fallback). Unique
	// within a ledger; a write with a duplicate key is a no-op.
	Key string

	// Amount is a positive magnitude in the smallest currency unit.
	// The sign is carried by Direction, never by Amount.
	Amount    int64
	Direction Direction

	// Category after normalization; never empty ("uncategorized" fallback).
	Category    string
	Description string

	// OccurredOn is the calendar date the transaction happened, defaulting
	// to the ingestion date when the source text does not say.
	OccurredOn civil.Date

	// RawText is the original message text, retained for audit and
	// re-extraction.
	RawText    string
	Confidence float64

	RecordedAt time.Time
}

// SignedAmount returns the amount with the sign implied by the direction.
func (r *TransactionRecord) SignedAmount() int64 {
	return r.Direction.Sign() * r.Amount
}

// WriteOutcome is the result of a ledger append.
type WriteOutcome string

const (
	// WriteCommitted means a new row was appended.
	WriteCommitted WriteOutcome = "committed"
	// WriteAlreadyExists means a row with the same idempotency key was
	// already present and nothing was written.
	WriteAlreadyExists WriteOutcome = "already_exists"
)
