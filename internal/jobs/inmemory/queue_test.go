package inmemory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dvloznov/ledger-assistant/internal/jobs"
)

func TestQueueProcessesJob(t *testing.T) {
	store := NewStore()
	q := NewQueue(10, 2, store)

	var mu sync.Mutex
	var handled []string
	handler := func(ctx context.Context, job jobs.Job) error {
		mu.Lock()
		handled = append(handled, job.GetID())
		mu.Unlock()
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, q.Start(ctx, handler))

	job := &jobs.ArchiveExtractionJob{UserID: "user-1", IdempotencyKey: "key-1", Payload: []byte("{}")}
	require.NoError(t, q.PublishArchiveExtraction(ctx, job))
	require.NotEmpty(t, job.JobID, "publish assigns a job ID")

	require.Eventually(t, func() bool {
		saved, err := store.GetJob(ctx, job.JobID)
		return err == nil && saved.Status == jobs.JobStatusCompleted
	}, 3*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{job.JobID}, handled)
}

func TestQueueRetriesFailedJob(t *testing.T) {
	store := NewStore()
	q := NewQueue(10, 1, store)

	var mu sync.Mutex
	attempts := 0
	handler := func(ctx context.Context, job jobs.Job) error {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if attempts == 1 {
			return errors.New("bucket unreachable")
		}
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, q.Start(ctx, handler))

	job := &jobs.ArchiveExtractionJob{UserID: "user-1", Payload: []byte("{}")}
	require.NoError(t, q.PublishArchiveExtraction(ctx, job))

	require.Eventually(t, func() bool {
		saved, err := store.GetJob(ctx, job.JobID)
		return err == nil && saved.Status == jobs.JobStatusCompleted
	}, 5*time.Second, 20*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 2, attempts)

	saved, err := store.GetJob(ctx, job.JobID)
	require.NoError(t, err)
	require.Equal(t, 1, saved.RetryCount)
	require.Empty(t, saved.Error, "a successful retry clears the error")
}

func TestQueueExhaustsRetries(t *testing.T) {
	store := NewStore()
	q := NewQueue(10, 1, store)

	handler := func(ctx context.Context, job jobs.Job) error {
		return errors.New("permanent failure")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, q.Start(ctx, handler))

	job := &jobs.ArchiveExtractionJob{UserID: "user-1", Payload: []byte("{}"), MaxRetries: 1}
	require.NoError(t, q.PublishArchiveExtraction(ctx, job))

	require.Eventually(t, func() bool {
		saved, err := store.GetJob(ctx, job.JobID)
		return err == nil && saved.Status == jobs.JobStatusFailed
	}, 5*time.Second, 20*time.Millisecond)

	saved, err := store.GetJob(ctx, job.JobID)
	require.NoError(t, err)
	require.Equal(t, "permanent failure", saved.Error)
}

func TestQueueRejectsAfterStop(t *testing.T) {
	q := NewQueue(10, 1, NewStore())

	ctx := context.Background()
	require.NoError(t, q.Start(ctx, func(ctx context.Context, job jobs.Job) error { return nil }))
	require.NoError(t, q.Stop(ctx))

	err := q.PublishArchiveExtraction(ctx, &jobs.ArchiveExtractionJob{UserID: "user-1"})
	require.Error(t, err)

	// Stop is idempotent.
	require.NoError(t, q.Stop(ctx))
}

func TestStoreListJobs(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	base := time.Now()
	seed := []*jobs.ArchiveExtractionJob{
		{JobID: "a", UserID: "user-1", Status: jobs.JobStatusCompleted, CreatedAt: base},
		{JobID: "b", UserID: "user-2", Status: jobs.JobStatusFailed, CreatedAt: base.Add(time.Second)},
		{JobID: "c", UserID: "user-1", Status: jobs.JobStatusCompleted, CreatedAt: base.Add(2 * time.Second)},
	}
	for _, j := range seed {
		require.NoError(t, store.SaveJob(ctx, j))
	}

	t.Run("newest first", func(t *testing.T) {
		all, err := store.ListJobs(ctx, jobs.JobFilter{})
		require.NoError(t, err)
		require.Len(t, all, 3)
		require.Equal(t, "c", all[0].JobID)
		require.Equal(t, "a", all[2].JobID)
	})

	t.Run("by user", func(t *testing.T) {
		got, err := store.ListJobs(ctx, jobs.JobFilter{UserID: "user-1"})
		require.NoError(t, err)
		require.Len(t, got, 2)
	})

	t.Run("by status with limit", func(t *testing.T) {
		got, err := store.ListJobs(ctx, jobs.JobFilter{Status: jobs.JobStatusCompleted, Limit: 1})
		require.NoError(t, err)
		require.Len(t, got, 1)
		require.Equal(t, "c", got[0].JobID)
	})

	t.Run("unknown job", func(t *testing.T) {
		_, err := store.GetJob(ctx, "missing")
		require.Error(t, err)
	})
}
