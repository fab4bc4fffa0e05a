package pipeline

import "time"

// Defaults for the ingestion pipeline. Overridable via configuration.
const (
	// DefaultModelName is the Gemini model used for extraction.
	DefaultModelName = "gemini-2.5-flash"

	// DefaultConfidenceThreshold is the minimum extraction confidence
	// below which the orchestrator asks the user to clarify instead of
	// writing a record.
	DefaultConfidenceThreshold = 0.5

	// DefaultExtractionTimeout bounds one model call including retries.
	DefaultExtractionTimeout = 45 * time.Second

	// DefaultBackendTimeout bounds one spreadsheet backend call.
	DefaultBackendTimeout = 30 * time.Second

	// maxExtractionAttempts bounds transport retries to the model service.
	// Content-level failures (unparseable, low confidence) are never
	// retried.
	maxExtractionAttempts = 3

	// FallbackCategory is assigned when the model reports no category.
	FallbackCategory = "uncategorized"
)
