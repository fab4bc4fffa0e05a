package ledger

import (
	"context"
	"fmt"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/ledger-assistant/internal/domain"
	"github.com/dvloznov/ledger-assistant/internal/sheets"
)

// Reporter runs aggregate queries over a ledger. Read-only.
type Reporter struct {
	backend sheets.LedgerBackend
}

// NewReporter creates a reporter over the given spreadsheet backend.
func NewReporter(backend sheets.LedgerBackend) *Reporter {
	return &Reporter{backend: backend}
}

// Aggregate sums signed amounts of in-window records grouped by the filter's
// grouping key. All arithmetic is on int64 minor units. A window with no
// matching records returns an empty result, not an error.
func (r *Reporter) Aggregate(ctx context.Context, ref domain.LedgerRef, filter domain.ReportFilter) (*domain.ReportResult, error) {
	tabs, err := r.backend.ListMonthTabs(ctx, ref.SpreadsheetID)
	if err != nil {
		return nil, fmt.Errorf("report: list tabs: %w", err)
	}

	result := &domain.ReportResult{
		Totals: make(map[string]int64),
		From:   filter.From,
		To:     filter.To,
	}

	for _, tab := range tabs {
		if !tabOverlapsWindow(tab, filter) {
			continue
		}

		records, err := r.backend.ReadMonth(ctx, ref.SpreadsheetID, tab)
		if err != nil {
			return nil, fmt.Errorf("report: read tab %s: %w", tab, err)
		}

		for _, rec := range records {
			if !filter.Contains(rec.OccurredOn) {
				continue
			}
			if filter.Category != "" && rec.Category != filter.Category {
				continue
			}
			if filter.Direction != "" && rec.Direction != filter.Direction {
				continue
			}

			result.Totals[groupKey(rec, filter.GroupBy)] += rec.SignedAmount()
			result.Count++
		}
	}

	return result, nil
}

func groupKey(rec *domain.TransactionRecord, by domain.GroupBy) string {
	if by == domain.GroupByMonth {
		return sheets.MonthTab(rec.OccurredOn)
	}
	return rec.Category
}

// tabOverlapsWindow prunes monthly tabs that cannot contain in-window records.
// Tabs with unexpected names are kept; the per-record filter still applies.
func tabOverlapsWindow(tab string, filter domain.ReportFilter) bool {
	first, err := civil.ParseDate(tab + "-01")
	if err != nil {
		return true
	}
	last := first.AddDays(daysInMonth(first) - 1)

	if filter.From.IsValid() && last.Before(filter.From) {
		return false
	}
	if filter.To.IsValid() && !first.Before(filter.To) {
		return false
	}
	return true
}

func daysInMonth(d civil.Date) int {
	next := civil.Date{Year: d.Year, Month: d.Month, Day: 1}.AddDays(31)
	firstOfNext := civil.Date{Year: next.Year, Month: next.Month, Day: 1}
	return firstOfNext.DaysSince(civil.Date{Year: d.Year, Month: d.Month, Day: 1})
}
