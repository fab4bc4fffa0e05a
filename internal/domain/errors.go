package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the ingestion pipeline. Callers classify failures with
// errors.Is; everything else is wrapped with fmt.Errorf("%w").
var (
	// ErrRegistryUnavailable means the master registry store could not be
	// reached. No state changed; the request is safe to retry.
	ErrRegistryUnavailable = errors.New("ledger registry unavailable")

	// ErrExtractionTransport means the language-model service could not be
	// reached after bounded retries. Distinct from an unparseable or
	// low-confidence extraction, which is a normal result, not an error.
	ErrExtractionTransport = errors.New("extraction service unreachable")
)

// NormalizationError reports why a candidate transaction could not be turned
// into a TransactionRecord. Terminal for the message; surfaced to the user as
// a clarification request.
type NormalizationError struct {
	Reason NormalizationReason
	Detail string
}

// NormalizationReason enumerates normalization failure classes.
type NormalizationReason string

const (
	// ReasonMissingAmount: the candidate carried no amount. Category
	// absence is tolerated, amount absence is not.
	ReasonMissingAmount NormalizationReason = "missing_amount"
	// ReasonZeroAmount: the amount rounded to zero in minor units.
	ReasonZeroAmount NormalizationReason = "zero_amount"
	// ReasonBadDate: the candidate date did not parse.
	ReasonBadDate NormalizationReason = "bad_date"
)

func (e *NormalizationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("normalize: %s", e.Reason)
	}
	return fmt.Sprintf("normalize: %s: %s", e.Reason, e.Detail)
}

// AsNormalizationError unwraps err into a *NormalizationError if it is one.
func AsNormalizationError(err error) (*NormalizationError, bool) {
	var ne *NormalizationError
	if errors.As(err, &ne) {
		return ne, true
	}
	return nil, false
}
