package jobs

import (
	"context"
	"time"
)

// JobType represents the type of job to be executed.
type JobType string

const (
	// JobTypeArchiveExtraction archives a raw model extraction payload to
	// the audit bucket.
	JobTypeArchiveExtraction JobType = "archive_extraction"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusRetrying  JobStatus = "retrying"
)

// ArchiveExtractionJob carries one raw model payload to the audit archive.
type ArchiveExtractionJob struct {
	// JobID is the unique identifier for this job.
	JobID string `json:"job_id"`

	// UserID is the requesting user's opaque identity.
	UserID string `json:"user_id"`

	// IdempotencyKey links the archived payload to the ledger record it
	// produced (or would have produced).
	IdempotencyKey string `json:"idempotency_key"`

	// Payload is the cleaned model response to archive.
	Payload []byte `json:"payload"`

	Status    JobStatus  `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	StartedAt *time.Time `json:"started_at,omitempty"`

	// CompletedAt is when the job completed (success or failure).
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Error contains error details if the job failed.
	Error string `json:"error,omitempty"`

	RetryCount int `json:"retry_count"`
	MaxRetries int `json:"max_retries"`
}

// Job is a generic interface for all job types.
type Job interface {
	GetID() string
	GetType() JobType
	GetStatus() JobStatus
}

// GetID implements the Job interface.
func (j *ArchiveExtractionJob) GetID() string { return j.JobID }

// GetType implements the Job interface.
func (j *ArchiveExtractionJob) GetType() JobType { return JobTypeArchiveExtraction }

// GetStatus implements the Job interface.
func (j *ArchiveExtractionJob) GetStatus() JobStatus { return j.Status }

// JobHandler processes a single job.
type JobHandler func(ctx context.Context, job Job) error

// Publisher enqueues jobs for asynchronous processing.
type Publisher interface {
	PublishArchiveExtraction(ctx context.Context, job *ArchiveExtractionJob) error
}

// Consumer processes jobs from a queue.
type Consumer interface {
	Start(ctx context.Context, handler JobHandler) error
	Stop(ctx context.Context) error
}

// JobStore persists job state for status queries.
type JobStore interface {
	SaveJob(ctx context.Context, job *ArchiveExtractionJob) error
	GetJob(ctx context.Context, jobID string) (*ArchiveExtractionJob, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]*ArchiveExtractionJob, error)
}

// JobFilter narrows ListJobs results. Zero fields match everything.
type JobFilter struct {
	UserID string
	Status JobStatus
	Limit  int
}
