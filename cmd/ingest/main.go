package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dvloznov/ledger-assistant/internal/config"
	infraSheets "github.com/dvloznov/ledger-assistant/internal/infra/sheets"
	"github.com/dvloznov/ledger-assistant/internal/ledger"
	"github.com/dvloznov/ledger-assistant/internal/logger"
	"github.com/dvloznov/ledger-assistant/internal/pipeline"
	"github.com/dvloznov/ledger-assistant/internal/registry"
)

func main() {
	log := logger.New("ingest")

	userID := flag.String("user", "", "User identity (required)")
	text := flag.String("text", "", "Message text (required)")
	messageID := flag.String("message-id", "", "Transport message ID, empty for content-hash fallback")
	flag.Parse()

	if *userID == "" {
		log.Fatal().Msg("Error: --user is required")
	}
	if *text == "" {
		log.Fatal().Msg("Error: --text is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	backend, err := infraSheets.NewClient(ctx, cfg.MasterSpreadsheetID, cfg.CredentialsFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create spreadsheet backend")
	}

	extractor, err := pipeline.NewGeminiExtractor(ctx, cfg.ModelName)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create extractor")
	}

	keyPolicy, err := pipeline.ParseKeyPolicy(cfg.FallbackKeyPolicy)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid fallback key policy")
	}

	ingestor := pipeline.NewIngestor(
		registry.New(backend),
		extractor,
		ledger.NewWriter(backend),
		nil, // no audit archive for one-shot runs
		pipeline.Config{
			ConfidenceThreshold: cfg.ConfidenceThreshold,
			Timezone:            cfg.Timezone,
			FallbackKeyPolicy:   keyPolicy,
			ExtractionTimeout:   cfg.ExtractionTimeout,
			BackendTimeout:      cfg.BackendTimeout,
		},
	)

	msg := pipeline.Message{
		UserID:     *userID,
		MessageID:  *messageID,
		Text:       *text,
		ReceivedAt: time.Now(),
	}

	outcome, err := ingestor.Ingest(ctx, msg, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("Ingestion failed")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(outcome); err != nil {
		log.Fatal().Err(err).Msg("Failed to render outcome")
	}

	if outcome.Status == pipeline.StatusFailed {
		fmt.Fprintln(os.Stderr, "Ingestion did not commit; safe to resend the message.")
		os.Exit(1)
	}
}
