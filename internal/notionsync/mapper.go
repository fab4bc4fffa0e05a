package notionsync

import (
	"fmt"

	"github.com/jomei/notionapi"
)

// ReportRow is one exported line of an aggregate report: a grouping key and
// its signed total in minor units.
type ReportRow struct {
	// RowID uniquely identifies the row inside the report window and is used
	// for upsert deduplication in Notion.
	RowID  string
	UserID string
	Window string
	Group  string
	Total  int64
}

// ReportRowToProperties converts a report row to Notion page properties.
func ReportRowToProperties(row ReportRow) notionapi.Properties {
	props := notionapi.Properties{
		"Row ID": notionapi.TitleProperty{
			Title: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: row.RowID,
					},
				},
			},
		},
		"Total": notionapi.NumberProperty{
			// Notion has no integer column type; minor units survive the
			// float64 round trip for any realistic ledger total.
			Number: float64(row.Total),
		},
	}

	if row.UserID != "" {
		props["User"] = notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: row.UserID,
					},
				},
			},
		}
	}

	if row.Window != "" {
		props["Window"] = notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: row.Window,
			},
		}
	}

	if row.Group != "" {
		props["Group"] = notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: row.Group,
			},
		}
	}

	return props
}

// RowID builds the deduplication key for one report row.
func RowID(userID, window, group string) string {
	return fmt.Sprintf("%s/%s/%s", userID, window, group)
}

// extractRowID pulls the Row ID title property out of a Notion page.
func extractRowID(page notionapi.Page) string {
	prop, ok := page.Properties["Row ID"]
	if !ok {
		return ""
	}

	title, ok := prop.(*notionapi.TitleProperty)
	if !ok || len(title.Title) == 0 {
		return ""
	}

	return title.Title[0].PlainText
}
