package domain

import "cloud.google.com/go/civil"

// GroupBy selects the grouping key for an aggregate query.
type GroupBy string

const (
	GroupByCategory GroupBy = "category"
	GroupByMonth    GroupBy = "month"
)

// ReportFilter constrains an aggregate query. From is inclusive, To exclusive.
// Zero Category/Direction mean "any".
type ReportFilter struct {
	From      civil.Date
	To        civil.Date
	Category  string
	Direction Direction
	GroupBy   GroupBy
}

// Contains reports whether d falls inside the filter window.
func (f ReportFilter) Contains(d civil.Date) bool {
	if f.From.IsValid() && d.Before(f.From) {
		return false
	}
	if f.To.IsValid() && !d.Before(f.To) {
		return false
	}
	return true
}

// ReportResult is an ephemeral aggregation over a ledger: summed signed
// amounts per grouping key. Recomputed on every query, never persisted.
type ReportResult struct {
	Totals map[string]int64
	Count  int
	From   civil.Date
	To     civil.Date
}

// Net returns the sum of all group totals.
func (r *ReportResult) Net() int64 {
	var n int64
	for _, v := range r.Totals {
		n += v
	}
	return n
}
