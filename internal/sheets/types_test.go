package sheets

import (
	"testing"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/ledger-assistant/internal/domain"
)

func TestMonthTab(t *testing.T) {
	tests := []struct {
		d    civil.Date
		want string
	}{
		{civil.Date{Year: 2026, Month: 8, Day: 15}, "2026-08"},
		{civil.Date{Year: 2026, Month: 12, Day: 1}, "2026-12"},
		{civil.Date{Year: 999, Month: 1, Day: 31}, "0999-01"},
	}
	for _, tt := range tests {
		if got := MonthTab(tt.d); got != tt.want {
			t.Errorf("MonthTab(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestIsMonthTab(t *testing.T) {
	valid := []string{"2026-08", "1999-12", "0001-01"}
	invalid := []string{"2026-8", "2026-08-15", "August", "Sheet1", "", "2026_08"}

	for _, s := range valid {
		if !IsMonthTab(s) {
			t.Errorf("IsMonthTab(%q) = false, want true", s)
		}
	}
	for _, s := range invalid {
		if IsMonthTab(s) {
			t.Errorf("IsMonthTab(%q) = true, want false", s)
		}
	}
}

func TestRecordRowRoundTrip(t *testing.T) {
	rec := &domain.TransactionRecord{
		Key:         "abc123",
		Amount:      45000,
		Direction:   domain.DirectionExpense,
		Category:    "food",
		Description: "lunch with team",
		OccurredOn:  civil.Date{Year: 2026, Month: 8, Day: 15},
		Confidence:  0.92,
	}

	row := RecordToRow(rec)
	if len(row) != len(HeaderRow) {
		t.Fatalf("RecordToRow() produced %d cells, header has %d", len(row), len(HeaderRow))
	}

	got, err := RowToRecord(row)
	if err != nil {
		t.Fatalf("RowToRecord() unexpected error: %v", err)
	}
	if got.Key != rec.Key || got.Amount != rec.Amount || got.Direction != rec.Direction {
		t.Errorf("round trip lost identity fields: %+v", got)
	}
	if got.Category != rec.Category || got.Description != rec.Description {
		t.Errorf("round trip lost text fields: %+v", got)
	}
	if got.OccurredOn != rec.OccurredOn {
		t.Errorf("OccurredOn = %v, want %v", got.OccurredOn, rec.OccurredOn)
	}
	if got.Confidence != rec.Confidence {
		t.Errorf("Confidence = %v, want %v", got.Confidence, rec.Confidence)
	}
}

func TestRowToRecordMalformed(t *testing.T) {
	tests := []struct {
		name string
		row  []interface{}
	}{
		{"bad date", []interface{}{"August 15", "100", "expense", "food", "", "k", "0.5"}},
		{"bad amount", []interface{}{"2026-08-15", "4.50", "expense", "food", "", "k", "0.5"}},
		{"bad direction", []interface{}{"2026-08-15", "100", "transfer", "food", "", "k", "0.5"}},
		{"bad confidence", []interface{}{"2026-08-15", "100", "expense", "food", "", "k", "high"}},
		{"empty row", []interface{}{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := RowToRecord(tt.row); err == nil {
				t.Errorf("RowToRecord(%v) succeeded, want error", tt.row)
			}
		})
	}
}

func TestRowToRecordShortRowPadded(t *testing.T) {
	// Sheets drops trailing empty cells; a row without description, key and
	// confidence still parses.
	got, err := RowToRecord([]interface{}{"2026-08-15", "100", "income", "salary"})
	if err != nil {
		t.Fatalf("RowToRecord() unexpected error: %v", err)
	}
	if got.Description != "" || got.Key != "" || got.Confidence != 0 {
		t.Errorf("padded cells should be zero values, got %+v", got)
	}
}
