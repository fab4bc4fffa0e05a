package pipeline

import (
	"context"
	"time"

	"github.com/dvloznov/ledger-assistant/internal/domain"
	"github.com/dvloznov/ledger-assistant/internal/jobs"
)

// Candidate is the structured transaction the model proposed for a message.
// Every field is independently present-or-absent; normalization decides what
// is acceptable.
type Candidate struct {
	IsTransaction bool

	Amount      *float64
	Direction   *string
	Category    *string
	Description *string
	Date        *string
	Confidence  *float64

	// Raw is the cleaned model payload, retained for the audit archive.
	Raw []byte
}

// Extractor turns raw message text into a candidate transaction plus a
// confidence signal. recent carries prior messages for disambiguation and may
// be empty. A nil candidate with zero confidence is the normal result for
// unparseable model output; errors are reserved for transport failures.
type Extractor interface {
	Extract(ctx context.Context, rawText string, receivedAt time.Time, recent []string) (*Candidate, float64, error)
}

// Resolver maps a user identity to their ledger reference.
type Resolver interface {
	Resolve(ctx context.Context, userID string) (domain.LedgerRef, error)
}

// RecordWriter commits a record to a ledger with idempotency.
type RecordWriter interface {
	Write(ctx context.Context, ref domain.LedgerRef, rec *domain.TransactionRecord) (domain.WriteOutcome, error)
}

// ArchivePublisher enqueues raw extraction payloads for asynchronous
// archiving. May be nil on the Ingestor, in which case archiving is skipped.
type ArchivePublisher interface {
	PublishArchiveExtraction(ctx context.Context, job *jobs.ArchiveExtractionJob) error
}
