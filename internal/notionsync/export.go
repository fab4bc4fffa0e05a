// Package notionsync exports aggregate ledger reports to a Notion database,
// one page per grouping key. Exports are idempotent: rerunning for the same
// window updates the existing pages instead of duplicating them.
package notionsync

import (
	"context"
	"fmt"
	"sort"

	"github.com/jomei/notionapi"

	"github.com/dvloznov/ledger-assistant/internal/domain"
	"github.com/dvloznov/ledger-assistant/internal/logger"
)

// ExportReport writes one aggregate report to the Notion database. The window
// label identifies the report (for example "2026-08" or "2026-08-01..2026-09-01")
// and keys the upsert together with the grouping key.
func ExportReport(ctx context.Context, client NotionService, notionDBID, userID, window string, result *domain.ReportResult, dryRun bool) error {
	log := logger.FromContext(ctx)

	log.Info().
		Str("user_id", userID).
		Str("window", window).
		Int("groups", len(result.Totals)).
		Bool("dry_run", dryRun).
		Msg("Starting report export to Notion")

	existing, err := queryExistingPages(ctx, client, notionDBID)
	if err != nil {
		return fmt.Errorf("failed to query Notion pages: %w", err)
	}

	log.Info().Int("notion_page_count", len(existing)).Msg("Retrieved existing Notion pages")

	groups := make([]string, 0, len(result.Totals))
	for g := range result.Totals {
		groups = append(groups, g)
	}
	sort.Strings(groups)

	var created, updated int
	for _, group := range groups {
		row := ReportRow{
			RowID:  RowID(userID, window, group),
			UserID: userID,
			Window: window,
			Group:  group,
			Total:  result.Totals[group],
		}

		pageID, exists := existing[row.RowID]

		if dryRun {
			log.Info().
				Str("row_id", row.RowID).
				Bool("exists", exists).
				Int64("total", row.Total).
				Msg("[DRY RUN] Would export report row")
			continue
		}

		if exists {
			if _, err := client.UpdatePage(ctx, pageID, ReportRowToProperties(row)); err != nil {
				return fmt.Errorf("failed to update page for %s: %w", row.RowID, err)
			}
			updated++
		} else {
			if _, err := client.CreatePage(ctx, notionDBID, ReportRowToProperties(row)); err != nil {
				return fmt.Errorf("failed to create page for %s: %w", row.RowID, err)
			}
			created++
		}
	}

	log.Info().
		Int("created", created).
		Int("updated", updated).
		Msg("Report export completed")

	return nil
}

// queryExistingPages returns a map of row ID to Notion page ID for every page
// in the database, following pagination cursors.
func queryExistingPages(ctx context.Context, client NotionService, notionDBID string) (map[string]string, error) {
	pages := make(map[string]string)

	var cursor notionapi.Cursor
	for {
		req := &notionapi.DatabaseQueryRequest{
			PageSize:    100,
			StartCursor: cursor,
		}

		resp, err := client.QueryDatabase(ctx, notionDBID, req)
		if err != nil {
			return nil, err
		}

		for _, page := range resp.Results {
			if rowID := extractRowID(page); rowID != "" {
				pages[rowID] = string(page.ID)
			}
		}

		if !resp.HasMore {
			return pages, nil
		}
		cursor = resp.NextCursor
	}
}
