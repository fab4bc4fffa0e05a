package notionsync

import (
	"context"
	"fmt"
	"testing"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/ledger-assistant/internal/domain"
)

// fakeNotion records pages in memory and answers queries from them.
type fakeNotion struct {
	pages   map[string]notionapi.Properties // page ID -> properties
	creates int
	updates int
}

func newFakeNotion() *fakeNotion {
	return &fakeNotion{pages: make(map[string]notionapi.Properties)}
}

func (f *fakeNotion) CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error) {
	f.creates++
	id := fmt.Sprintf("page-%d", f.creates)
	f.pages[id] = properties
	return &notionapi.Page{ID: notionapi.ObjectID(id)}, nil
}

func (f *fakeNotion) UpdatePage(ctx context.Context, pageID string, properties notionapi.Properties) (*notionapi.Page, error) {
	if _, ok := f.pages[pageID]; !ok {
		return nil, fmt.Errorf("no such page %s", pageID)
	}
	f.updates++
	f.pages[pageID] = properties
	return &notionapi.Page{ID: notionapi.ObjectID(pageID)}, nil
}

func (f *fakeNotion) QueryDatabase(ctx context.Context, databaseID string, filter *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	resp := &notionapi.DatabaseQueryResponse{}
	for id, props := range f.pages {
		title := props["Row ID"].(notionapi.TitleProperty)
		page := notionapi.Page{
			ID: notionapi.ObjectID(id),
			Properties: notionapi.Properties{
				"Row ID": &notionapi.TitleProperty{
					Title: []notionapi.RichText{{PlainText: title.Title[0].Text.Content}},
				},
			},
		}
		resp.Results = append(resp.Results, page)
	}
	return resp, nil
}

func sampleResult() *domain.ReportResult {
	return &domain.ReportResult{
		Totals: map[string]int64{
			"food":   -75000,
			"salary": 500000,
		},
		Count: 3,
	}
}

func TestExportReportCreatesPages(t *testing.T) {
	notion := newFakeNotion()

	err := ExportReport(context.Background(), notion, "db-1", "user-1", "2026-07", sampleResult(), false)
	require.NoError(t, err)
	require.Equal(t, 2, notion.creates)
	require.Zero(t, notion.updates)
}

func TestExportReportRerunUpdates(t *testing.T) {
	notion := newFakeNotion()

	require.NoError(t, ExportReport(context.Background(), notion, "db-1", "user-1", "2026-07", sampleResult(), false))

	// Second export of the same window must not duplicate pages.
	updated := sampleResult()
	updated.Totals["food"] = -80000
	require.NoError(t, ExportReport(context.Background(), notion, "db-1", "user-1", "2026-07", updated, false))

	require.Equal(t, 2, notion.creates)
	require.Equal(t, 2, notion.updates)
	require.Len(t, notion.pages, 2)
}

func TestExportReportDistinctWindowsDoNotCollide(t *testing.T) {
	notion := newFakeNotion()

	require.NoError(t, ExportReport(context.Background(), notion, "db-1", "user-1", "2026-07", sampleResult(), false))
	require.NoError(t, ExportReport(context.Background(), notion, "db-1", "user-1", "2026-08", sampleResult(), false))

	require.Equal(t, 4, notion.creates)
	require.Zero(t, notion.updates)
}

func TestExportReportDryRun(t *testing.T) {
	notion := newFakeNotion()

	require.NoError(t, ExportReport(context.Background(), notion, "db-1", "user-1", "2026-07", sampleResult(), true))
	require.Zero(t, notion.creates)
	require.Zero(t, notion.updates)
}
