// Package pipeline implements the message ingestion pipeline: resolve the
// user's ledger, extract a candidate transaction with the language model,
// normalize it, and commit it to the ledger with idempotency.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dvloznov/ledger-assistant/internal/domain"
	"github.com/dvloznov/ledger-assistant/internal/jobs"
	"github.com/dvloznov/ledger-assistant/internal/logger"
)

// Status is the terminal outcome of ingesting one message.
type Status string

const (
	// StatusCommitted: a new record was written to the ledger.
	StatusCommitted Status = "committed"
	// StatusDuplicate: the record already existed; nothing was written.
	StatusDuplicate Status = "duplicate"
	// StatusNeedsClarification: the message could not be safely converted
	// to a transaction and the user must rephrase or confirm.
	StatusNeedsClarification Status = "needs_clarification"
	// StatusFailed: a backend failure; safe for the user to resend.
	StatusFailed Status = "failed"
)

// Outcome is the acknowledgment returned to the chat transport.
type Outcome struct {
	Status Status                    `json:"status"`
	Reason string                    `json:"reason,omitempty"`
	Record *domain.TransactionRecord `json:"record,omitempty"`
}

// Config carries the tunables of the ingestion pipeline.
type Config struct {
	// ConfidenceThreshold below which ingestion asks for clarification.
	// nil means the default; an explicit 0 disables the gate.
	ConfidenceThreshold *float64

	Timezone          *time.Location
	FallbackKeyPolicy KeyPolicy
	ExtractionTimeout time.Duration
	BackendTimeout    time.Duration
}

func (c Config) withDefaults() Config {
	if c.ConfidenceThreshold == nil {
		v := DefaultConfidenceThreshold
		c.ConfidenceThreshold = &v
	}
	if c.Timezone == nil {
		c.Timezone = time.UTC
	}
	if c.FallbackKeyPolicy == "" {
		c.FallbackKeyPolicy = KeyPolicyCollapse
	}
	if c.ExtractionTimeout == 0 {
		c.ExtractionTimeout = DefaultExtractionTimeout
	}
	if c.BackendTimeout == 0 {
		c.BackendTimeout = DefaultBackendTimeout
	}
	return c
}

// Ingestor sequences one message through the pipeline. There is no retry
// loop here: retries belong to the component calls (extraction transport) or
// to the user resending a message, which the idempotency key makes safe.
type Ingestor struct {
	registry  Resolver
	extractor Extractor
	writer    RecordWriter
	archive   ArchivePublisher // optional, may be nil
	cfg       Config
}

// NewIngestor wires the pipeline components. archive may be nil to disable
// the audit archive.
func NewIngestor(registry Resolver, extractor Extractor, writer RecordWriter, archive ArchivePublisher, cfg Config) *Ingestor {
	return &Ingestor{
		registry:  registry,
		extractor: extractor,
		writer:    writer,
		archive:   archive,
		cfg:       cfg.withDefaults(),
	}
}

// Ingest processes one message end to end and returns a terminal outcome.
// The returned error is non-nil only for invalid input; backend failures are
// reported inside the outcome so the transport can render them.
func (in *Ingestor) Ingest(ctx context.Context, msg Message, recent []string) (*Outcome, error) {
	if msg.UserID == "" {
		return nil, fmt.Errorf("ingest: empty user identity")
	}
	if msg.Text == "" {
		return nil, fmt.Errorf("ingest: empty message text")
	}
	if msg.ReceivedAt.IsZero() {
		msg.ReceivedAt = time.Now()
	}

	log := logger.FromContext(ctx).With().Str("user_id", msg.UserID).Logger()
	ctx = logger.WithContext(ctx, log)

	// 1. Resolve the user's ledger. Never write anywhere on failure.
	resolveCtx, cancel := context.WithTimeout(ctx, in.cfg.BackendTimeout)
	ref, err := in.registry.Resolve(resolveCtx, msg.UserID)
	cancel()
	if err != nil {
		log.Error().Err(err).Msg("Ledger resolution failed")
		reason := "registry_error"
		if errors.Is(err, domain.ErrRegistryUnavailable) || errors.Is(err, context.DeadlineExceeded) {
			reason = "registry_unavailable"
		}
		return &Outcome{Status: StatusFailed, Reason: reason}, nil
	}

	// 2. Extract a candidate transaction.
	extractCtx, cancel := context.WithTimeout(ctx, in.cfg.ExtractionTimeout)
	cand, confidence, err := in.extractor.Extract(extractCtx, msg.Text, msg.ReceivedAt, recent)
	cancel()
	if err != nil {
		log.Error().Err(err).Msg("Extraction transport failed")
		reason := "extraction_unavailable"
		if errors.Is(err, context.DeadlineExceeded) {
			reason = "timeout"
		}
		return &Outcome{Status: StatusFailed, Reason: reason}, nil
	}

	if cand != nil && in.archive != nil {
		in.publishArchive(ctx, msg, cand)
	}

	// 3. Confidence gate: unparseable, non-transactional or uncertain
	// extractions short-circuit to a clarification request, skipping the
	// write entirely.
	if cand == nil || !cand.IsTransaction {
		return &Outcome{Status: StatusNeedsClarification, Reason: "not_understood"}, nil
	}
	if confidence < *in.cfg.ConfidenceThreshold {
		log.Info().Float64("confidence", confidence).Msg("Extraction below confidence threshold")
		return &Outcome{Status: StatusNeedsClarification, Reason: "low_confidence"}, nil
	}

	// 4. Normalize.
	rec, err := Normalize(cand, msg, confidence, in.cfg.Timezone, in.cfg.FallbackKeyPolicy)
	if err != nil {
		if ne, ok := domain.AsNormalizationError(err); ok {
			log.Info().Str("reason", string(ne.Reason)).Msg("Candidate rejected during normalization")
			return &Outcome{Status: StatusNeedsClarification, Reason: string(ne.Reason)}, nil
		}
		return &Outcome{Status: StatusFailed, Reason: "normalization_error"}, nil
	}

	// 5. Commit. The write runs on a detached context so an abandoning
	// caller cannot cancel it halfway and leave ambiguous state; its own
	// deadline still bounds it.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), in.cfg.BackendTimeout)
	outcome, err := in.writer.Write(writeCtx, ref, rec)
	cancel()
	if err != nil {
		log.Error().Err(err).Str("key", rec.Key).Msg("Ledger write failed")
		reason := "write_failed"
		if errors.Is(err, context.DeadlineExceeded) {
			reason = "timeout"
		}
		return &Outcome{Status: StatusFailed, Reason: reason}, nil
	}

	if outcome == domain.WriteAlreadyExists {
		return &Outcome{Status: StatusDuplicate, Record: rec}, nil
	}
	return &Outcome{Status: StatusCommitted, Record: rec}, nil
}

// publishArchive enqueues the raw model payload for the audit archive.
// Best effort: a full queue or closed publisher never fails the ingestion.
func (in *Ingestor) publishArchive(ctx context.Context, msg Message, cand *Candidate) {
	job := &jobs.ArchiveExtractionJob{
		UserID:         msg.UserID,
		IdempotencyKey: IdempotencyKey(msg, in.cfg.FallbackKeyPolicy),
		Payload:        cand.Raw,
	}
	if err := in.archive.PublishArchiveExtraction(ctx, job); err != nil {
		logger.FromContext(ctx).Warn().Err(err).Msg("Failed to enqueue extraction archive job")
	}
}
