package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"github.com/dvloznov/ledger-assistant/internal/api/middleware"
	"github.com/dvloznov/ledger-assistant/internal/domain"
	"github.com/dvloznov/ledger-assistant/internal/jobs"
	"github.com/dvloznov/ledger-assistant/internal/ledger"
	"github.com/dvloznov/ledger-assistant/internal/pipeline"
	"github.com/dvloznov/ledger-assistant/internal/registry"
)

// MessagesHandler handles message ingestion endpoints.
type MessagesHandler struct {
	ingestor *pipeline.Ingestor
	log      zerolog.Logger
}

// NewMessagesHandler creates a new messages handler.
func NewMessagesHandler(ingestor *pipeline.Ingestor, log zerolog.Logger) *MessagesHandler {
	return &MessagesHandler{
		ingestor: ingestor,
		log:      log,
	}
}

// IngestMessage handles POST /api/messages
//
// Ingestion is synchronous: the response carries the terminal outcome so the
// chat transport can acknowledge the user in one round trip.
func (h *MessagesHandler) IngestMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID     string    `json:"user_id"`
		MessageID  string    `json:"message_id"`
		Text       string    `json:"text"`
		ReceivedAt time.Time `json:"received_at"`
		Recent     []string  `json:"recent,omitempty"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.UserID == "" || req.Text == "" {
		middleware.WriteError(w, http.StatusBadRequest, "user_id and text are required")
		return
	}

	msg := pipeline.Message{
		UserID:     req.UserID,
		MessageID:  req.MessageID,
		Text:       req.Text,
		ReceivedAt: req.ReceivedAt,
	}

	outcome, err := h.ingestor.Ingest(r.Context(), msg, req.Recent)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", req.UserID).Msg("Message rejected")
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	status := http.StatusOK
	if outcome.Status == pipeline.StatusFailed {
		status = http.StatusBadGateway
	}
	middleware.WriteJSON(w, status, outcome)
}

// ReportsHandler handles aggregate query endpoints.
type ReportsHandler struct {
	registry *registry.Registry
	reporter *ledger.Reporter
	log      zerolog.Logger
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(reg *registry.Registry, reporter *ledger.Reporter, log zerolog.Logger) *ReportsHandler {
	return &ReportsHandler{
		registry: reg,
		reporter: reporter,
		log:      log,
	}
}

// GetReport handles GET /api/reports
func (h *ReportsHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	userID := query.Get("user_id")
	if userID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	filter := domain.ReportFilter{
		Category: query.Get("category"),
		GroupBy:  domain.GroupByCategory,
	}

	if fromStr := query.Get("from"); fromStr != "" {
		from, err := civil.ParseDate(fromStr)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid from date, expected YYYY-MM-DD")
			return
		}
		filter.From = from
	}

	if toStr := query.Get("to"); toStr != "" {
		to, err := civil.ParseDate(toStr)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid to date, expected YYYY-MM-DD")
			return
		}
		filter.To = to
	}

	if groupBy := query.Get("group_by"); groupBy != "" {
		switch domain.GroupBy(groupBy) {
		case domain.GroupByCategory, domain.GroupByMonth:
			filter.GroupBy = domain.GroupBy(groupBy)
		default:
			middleware.WriteError(w, http.StatusBadRequest, "Invalid group_by, expected category or month")
			return
		}
	}

	if dir := query.Get("direction"); dir != "" {
		d := domain.Direction(dir)
		if !d.Valid() {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid direction, expected expense or income")
			return
		}
		filter.Direction = d
	}

	ref, err := h.registry.Resolve(ctx, userID)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to resolve ledger")
		middleware.WriteError(w, http.StatusBadGateway, "Ledger unavailable")
		return
	}

	result, err := h.reporter.Aggregate(ctx, ref, filter)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to run aggregate query")
		middleware.WriteError(w, http.StatusBadGateway, "Failed to run aggregate query")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"totals": result.Totals,
		"net":    result.Net(),
		"count":  result.Count,
		"from":   result.From.String(),
		"to":     result.To.String(),
	})
}

// JobsHandler handles archive job status endpoints.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{
		store: store,
		log:   log,
	}
}

// GetJob handles GET /api/jobs/{id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	ctx := r.Context()

	job, err := h.store.GetJob(ctx, jobID)
	if err != nil {
		h.log.Error().Err(err).Str("job_id", jobID).Msg("Failed to get job")
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query()
	filter := jobs.JobFilter{
		UserID: query.Get("user_id"),
		Status: jobs.JobStatus(query.Get("status")),
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}

	jobsList, err := h.store.ListJobs(ctx, filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}
