// Package gcsarchive stores raw model extraction payloads in a GCS bucket
// for audit and later re-extraction. Objects are keyed by user identity and
// idempotency key, so retried archive jobs overwrite the same object instead
// of piling up copies.
package gcsarchive

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/storage"

	"github.com/dvloznov/ledger-assistant/internal/logger"
)

// Archiver writes extraction payloads to one bucket. It assumes Application
// Default Credentials are configured.
type Archiver struct {
	bucket string
}

// New creates an archiver for the given bucket.
func New(bucket string) *Archiver {
	return &Archiver{bucket: bucket}
}

// ObjectName builds the object path for one extraction payload.
func ObjectName(userID, idempotencyKey string, createdAt time.Time) string {
	return fmt.Sprintf("extractions/%s/%s/%s.json", userID, createdAt.Format("2006/01/02"), idempotencyKey)
}

// Archive uploads one payload. The upload either fully completes or leaves
// no object behind; callers may retry with the same object name.
func (a *Archiver) Archive(ctx context.Context, objectName string, payload []byte) error {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("gcsarchive: create storage client: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := client.Bucket(a.bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = "application/json"

	if _, err := w.Write(payload); err != nil {
		_ = w.Close()
		return fmt.Errorf("gcsarchive: write object %s: %w", objectName, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("gcsarchive: finalize object %s: %w", objectName, err)
	}

	logger.FromContext(ctx).Debug().
		Str("bucket", a.bucket).
		Str("object", objectName).
		Int("bytes", len(payload)).
		Msg("Archived extraction payload")
	return nil
}
