package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/ledger-assistant/internal/domain"
	"github.com/dvloznov/ledger-assistant/internal/jobs"
	"github.com/dvloznov/ledger-assistant/internal/jobs/inmemory"
	"github.com/dvloznov/ledger-assistant/internal/pipeline"
)

type stubResolver struct{}

func (stubResolver) Resolve(ctx context.Context, userID string) (domain.LedgerRef, error) {
	return domain.LedgerRef{SpreadsheetID: "sheet-1"}, nil
}

type stubExtractor struct {
	cand       *pipeline.Candidate
	confidence float64
}

func (s stubExtractor) Extract(ctx context.Context, rawText string, receivedAt time.Time, recent []string) (*pipeline.Candidate, float64, error) {
	return s.cand, s.confidence, nil
}

type stubWriter struct {
	outcome domain.WriteOutcome
}

func (s stubWriter) Write(ctx context.Context, ref domain.LedgerRef, rec *domain.TransactionRecord) (domain.WriteOutcome, error) {
	return s.outcome, nil
}

func testIngestor(cand *pipeline.Candidate, confidence float64, outcome domain.WriteOutcome) *pipeline.Ingestor {
	return pipeline.NewIngestor(
		stubResolver{},
		stubExtractor{cand: cand, confidence: confidence},
		stubWriter{outcome: outcome},
		nil,
		pipeline.Config{},
	)
}

func transactionCandidate() *pipeline.Candidate {
	amount := 45000.0
	direction := "expense"
	category := "lunch"
	return &pipeline.Candidate{
		IsTransaction: true,
		Amount:        &amount,
		Direction:     &direction,
		Category:      &category,
	}
}

func TestIngestMessageCommitted(t *testing.T) {
	h := NewMessagesHandler(testIngestor(transactionCandidate(), 0.9, domain.WriteCommitted), zerolog.Nop())

	body := `{"user_id": "user-1", "message_id": "m1", "text": "lunch 450"}`
	req := httptest.NewRequest(http.MethodPost, "/api/messages", strings.NewReader(body))
	rr := httptest.NewRecorder()

	h.IngestMessage(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rr.Code, rr.Body.String())
	}

	var out pipeline.Outcome
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("response is not a valid outcome: %v", err)
	}
	if out.Status != pipeline.StatusCommitted {
		t.Errorf("Status = %q, want committed", out.Status)
	}
	if out.Record == nil || out.Record.Amount != 45000 {
		t.Errorf("Record = %+v, want amount 45000", out.Record)
	}
}

func TestIngestMessageValidation(t *testing.T) {
	h := NewMessagesHandler(testIngestor(transactionCandidate(), 0.9, domain.WriteCommitted), zerolog.Nop())

	tests := []struct {
		name string
		body string
	}{
		{"not json", "not json at all"},
		{"missing user", `{"text": "lunch 450"}`},
		{"missing text", `{"user_id": "user-1"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/messages", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			h.IngestMessage(rr, req)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rr.Code)
			}
		})
	}
}

func TestIngestMessageClarification(t *testing.T) {
	// Unparseable extraction still answers 200; the outcome carries the ask.
	h := NewMessagesHandler(testIngestor(nil, 0, domain.WriteCommitted), zerolog.Nop())

	body := `{"user_id": "user-1", "text": "hello there"}`
	req := httptest.NewRequest(http.MethodPost, "/api/messages", strings.NewReader(body))
	rr := httptest.NewRecorder()

	h.IngestMessage(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var out pipeline.Outcome
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Status != pipeline.StatusNeedsClarification {
		t.Errorf("Status = %q, want needs_clarification", out.Status)
	}
}

func TestGetReportParamValidation(t *testing.T) {
	h := NewReportsHandler(nil, nil, zerolog.Nop())

	tests := []struct {
		name  string
		query string
	}{
		{"missing user", ""},
		{"bad from", "user_id=u1&from=15-08-2026"},
		{"bad to", "user_id=u1&to=August"},
		{"bad group_by", "user_id=u1&group_by=week"},
		{"bad direction", "user_id=u1&direction=sideways"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/reports?"+tt.query, nil)
			rr := httptest.NewRecorder()
			h.GetReport(rr, req)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rr.Code)
			}
		})
	}
}

func TestJobsHandler(t *testing.T) {
	store := inmemory.NewStore()
	ctx := context.Background()
	job := &jobs.ArchiveExtractionJob{
		JobID:     "job-1",
		UserID:    "user-1",
		Status:    jobs.JobStatusCompleted,
		CreatedAt: time.Now(),
	}
	if err := store.SaveJob(ctx, job); err != nil {
		t.Fatal(err)
	}

	h := NewJobsHandler(store, zerolog.Nop())

	t.Run("get existing", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/jobs/job-1", nil)
		rr := httptest.NewRecorder()
		h.GetJob(rr, req, "job-1")
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rr.Code)
		}
		var got jobs.ArchiveExtractionJob
		if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
			t.Fatal(err)
		}
		if got.JobID != "job-1" || got.Status != jobs.JobStatusCompleted {
			t.Errorf("job = %+v", got)
		}
	})

	t.Run("get missing", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/jobs/nope", nil)
		rr := httptest.NewRecorder()
		h.GetJob(rr, req, "nope")
		if rr.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rr.Code)
		}
	})

	t.Run("list filtered", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/jobs?user_id=user-1", nil)
		rr := httptest.NewRecorder()
		h.ListJobs(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rr.Code)
		}
		var resp struct {
			Count int `json:"count"`
		}
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if resp.Count != 1 {
			t.Errorf("count = %d, want 1", resp.Count)
		}
	})
}
