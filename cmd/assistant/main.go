package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dvloznov/ledger-assistant/internal/api/handlers"
	"github.com/dvloznov/ledger-assistant/internal/api/middleware"
	"github.com/dvloznov/ledger-assistant/internal/config"
	"github.com/dvloznov/ledger-assistant/internal/gcsarchive"
	infraSheets "github.com/dvloznov/ledger-assistant/internal/infra/sheets"
	"github.com/dvloznov/ledger-assistant/internal/jobs"
	"github.com/dvloznov/ledger-assistant/internal/jobs/inmemory"
	"github.com/dvloznov/ledger-assistant/internal/ledger"
	"github.com/dvloznov/ledger-assistant/internal/logger"
	"github.com/dvloznov/ledger-assistant/internal/pipeline"
	"github.com/dvloznov/ledger-assistant/internal/registry"
)

func main() {
	var (
		port = flag.String("port", "8080", "HTTP server port")
	)
	flag.Parse()

	log := logger.New("assistant")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx := logger.WithContext(context.Background(), log)

	// Spreadsheet backend serves both the master registry and the per-user
	// ledgers.
	backend, err := infraSheets.NewClient(ctx, cfg.MasterSpreadsheetID, cfg.CredentialsFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create spreadsheet backend")
	}

	reg := registry.New(backend)
	writer := ledger.NewWriter(backend)
	reporter := ledger.NewReporter(backend)

	extractor, err := pipeline.NewGeminiExtractor(ctx, cfg.ModelName)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create extractor")
	}

	keyPolicy, err := pipeline.ParseKeyPolicy(cfg.FallbackKeyPolicy)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid fallback key policy")
	}

	// Job infrastructure for the audit archive.
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, 2, jobStore)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	var publisher jobs.Publisher
	if cfg.ArchiveBucket != "" {
		archiver := gcsarchive.New(cfg.ArchiveBucket)

		jobHandler := func(ctx context.Context, job jobs.Job) error {
			archiveJob, ok := job.(*jobs.ArchiveExtractionJob)
			if !ok {
				return fmt.Errorf("unexpected job type: %T", job)
			}

			objectName := gcsarchive.ObjectName(archiveJob.UserID, archiveJob.IdempotencyKey, archiveJob.CreatedAt)
			if err := archiver.Archive(ctx, objectName, archiveJob.Payload); err != nil {
				log.Error().
					Err(err).
					Str("job_id", archiveJob.JobID).
					Str("object", objectName).
					Msg("Archive job failed")
				return err
			}

			log.Info().
				Str("job_id", archiveJob.JobID).
				Str("object", objectName).
				Msg("Extraction payload archived")
			return nil
		}

		if err := jobQueue.Start(workerCtx, jobHandler); err != nil {
			log.Fatal().Err(err).Msg("Failed to start archive workers")
		}
		publisher = jobQueue
	} else {
		log.Warn().Msg("No archive bucket configured - extraction audit archive disabled")
	}

	ingestor := pipeline.NewIngestor(reg, extractor, writer, publisher, pipeline.Config{
		ConfidenceThreshold: cfg.ConfidenceThreshold,
		Timezone:            cfg.Timezone,
		FallbackKeyPolicy:   keyPolicy,
		ExtractionTimeout:   cfg.ExtractionTimeout,
		BackendTimeout:      cfg.BackendTimeout,
	})

	messagesHandler := handlers.NewMessagesHandler(ingestor, log)
	reportsHandler := handlers.NewReportsHandler(reg, reporter, log)
	jobsHandler := handlers.NewJobsHandler(jobStore, log)

	mux := http.NewServeMux()

	mux.HandleFunc("/api/messages", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			messagesHandler.IngestMessage(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/reports", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			reportsHandler.GetReport(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobsHandler.ListJobs(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
			if jobID == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
				return
			}
			jobsHandler.GetJob(w, r, jobID)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	handler := middleware.Recovery(log)(
		middleware.RequestID(
			middleware.Logger(log)(
				middleware.CORS(mux),
			),
		),
	)

	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second, // ingestion is synchronous and waits on the model
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", *port).Msg("Starting assistant server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Drain in-flight archive jobs before exiting.
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}
	cancelWorker()

	log.Info().Msg("Server exited")
}
