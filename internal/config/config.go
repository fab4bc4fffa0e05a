// Package config loads process-level configuration from the environment at
// startup. Values are read once; nothing is re-read per request.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the full configuration surface of the assistant.
type Config struct {
	// MasterSpreadsheetID identifies the shared master registry store.
	MasterSpreadsheetID string

	// CredentialsFile is the service account key file for the Sheets API.
	// Empty means Application Default Credentials.
	CredentialsFile string

	// ArchiveBucket is the GCS bucket for the raw-extraction audit
	// archive. Empty disables archiving.
	ArchiveBucket string

	// ModelName is the Gemini model used for extraction.
	ModelName string

	// ConfidenceThreshold below which ingestion asks for clarification.
	// nil when the variable is unset (the pipeline default applies); an
	// explicit 0 disables the gate.
	ConfidenceThreshold *float64

	// Timezone used to resolve dates in user messages.
	Timezone *time.Location

	// FallbackKeyPolicy is "collapse" or "separate"; see the normalizer.
	FallbackKeyPolicy string

	ExtractionTimeout time.Duration
	BackendTimeout    time.Duration

	// Notion export settings, only needed by cmd/export-notion.
	NotionToken      string
	NotionDatabaseID string
}

// Load reads configuration from a .env file (if present) and the
// environment.
func Load() (*Config, error) {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{
		MasterSpreadsheetID: os.Getenv("MASTER_SPREADSHEET_ID"),
		CredentialsFile:     os.Getenv("GOOGLE_CREDENTIALS_FILE"),
		ArchiveBucket:       os.Getenv("ARCHIVE_BUCKET"),
		ModelName:           os.Getenv("GEMINI_MODEL"),
		FallbackKeyPolicy:   os.Getenv("FALLBACK_KEY_POLICY"),
		NotionToken:         os.Getenv("NOTION_TOKEN"),
		NotionDatabaseID:    os.Getenv("NOTION_DATABASE_ID"),
		Timezone:            time.UTC,
		ExtractionTimeout:   45 * time.Second,
		BackendTimeout:      30 * time.Second,
	}

	if cfg.MasterSpreadsheetID == "" {
		return nil, fmt.Errorf("config: MASTER_SPREADSHEET_ID is required")
	}

	if v := os.Getenv("CONFIDENCE_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 || f > 1 {
			return nil, fmt.Errorf("config: invalid CONFIDENCE_THRESHOLD %q", v)
		}
		cfg.ConfidenceThreshold = &f
	}

	if v := os.Getenv("TIMEZONE"); v != "" {
		loc, err := time.LoadLocation(v)
		if err != nil {
			return nil, fmt.Errorf("config: invalid TIMEZONE %q: %w", v, err)
		}
		cfg.Timezone = loc
	}

	if v := os.Getenv("EXTRACTION_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("config: invalid EXTRACTION_TIMEOUT %q: %w", v, err)
		}
		cfg.ExtractionTimeout = d
	}

	if v := os.Getenv("BACKEND_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("config: invalid BACKEND_TIMEOUT %q: %w", v, err)
		}
		cfg.BackendTimeout = d
	}

	return cfg, nil
}
