// Package registry maps opaque user identities to their ledger, provisioning
// a new ledger spreadsheet on first contact. The master registry store is the
// only authoritative copy of the mapping; nothing is cached across calls.
package registry

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dvloznov/ledger-assistant/internal/domain"
	"github.com/dvloznov/ledger-assistant/internal/logger"
	"github.com/dvloznov/ledger-assistant/internal/sheets"
)

// Registry resolves user identities to ledger references. Safe for
// concurrent use; provisioning is serialized per user identity.
type Registry struct {
	backend sheets.LedgerBackend

	// group collapses concurrent first-contact resolutions for the same
	// user into a single provisioning attempt within this process.
	// Cross-process races are handled by the recheck in provision.
	group singleflight.Group
}

// New creates a registry over the given spreadsheet backend.
func New(backend sheets.LedgerBackend) *Registry {
	return &Registry{backend: backend}
}

// Resolve returns the ledger reference for userID, provisioning a new ledger
// on first contact. Fails with domain.ErrRegistryUnavailable when the master
// store cannot be reached; callers must not write anywhere on that error.
func (r *Registry) Resolve(ctx context.Context, userID string) (domain.LedgerRef, error) {
	if userID == "" {
		return domain.LedgerRef{}, fmt.Errorf("registry: empty user identity")
	}

	spreadsheetID, err := r.backend.LookupLedger(ctx, userID)
	if err != nil {
		return domain.LedgerRef{}, err
	}
	if spreadsheetID != "" {
		return domain.LedgerRef{SpreadsheetID: spreadsheetID, SchemaVersion: sheets.SchemaVersion}, nil
	}

	v, err, _ := r.group.Do(userID, func() (interface{}, error) {
		return r.provision(ctx, userID)
	})
	if err != nil {
		return domain.LedgerRef{}, err
	}
	return v.(domain.LedgerRef), nil
}

// provision creates a ledger spreadsheet for userID and registers the mapping,
// using a create-then-recheck pattern: if another process registered a mapping
// while we were creating, our half-created ledger is discarded and the
// winner's reference is returned.
func (r *Registry) provision(ctx context.Context, userID string) (domain.LedgerRef, error) {
	log := logger.FromContext(ctx)

	createdID, err := r.backend.CreateLedgerSpreadsheet(ctx, ledgerTitle(userID))
	if err != nil {
		return domain.LedgerRef{}, err
	}

	// Recheck: the lookup above ran before we held the per-key slot, and
	// another instance may have provisioned concurrently.
	existingID, err := r.backend.LookupLedger(ctx, userID)
	if err != nil {
		return domain.LedgerRef{}, err
	}
	if existingID != "" {
		log.Info().
			Str("user_id", userID).
			Str("discarded_spreadsheet_id", createdID).
			Str("spreadsheet_id", existingID).
			Msg("Lost provisioning race, using existing ledger")
		return domain.LedgerRef{SpreadsheetID: existingID, SchemaVersion: sheets.SchemaVersion}, nil
	}

	if err := r.backend.RegisterLedger(ctx, userID, createdID); err != nil {
		return domain.LedgerRef{}, err
	}

	return domain.LedgerRef{
		SpreadsheetID: createdID,
		CreatedAt:     time.Now(),
		SchemaVersion: sheets.SchemaVersion,
	}, nil
}

func ledgerTitle(userID string) string {
	return fmt.Sprintf("Ledger %s", userID)
}
