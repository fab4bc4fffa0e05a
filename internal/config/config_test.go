package config

import (
	"testing"
	"time"
)

func TestLoadRequiresMasterSpreadsheet(t *testing.T) {
	t.Setenv("MASTER_SPREADSHEET_ID", "")
	if _, err := Load(); err == nil {
		t.Fatal("Load() without MASTER_SPREADSHEET_ID should fail")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MASTER_SPREADSHEET_ID", "master-1")
	t.Setenv("CONFIDENCE_THRESHOLD", "")
	t.Setenv("TIMEZONE", "")
	t.Setenv("EXTRACTION_TIMEOUT", "")
	t.Setenv("BACKEND_TIMEOUT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.MasterSpreadsheetID != "master-1" {
		t.Errorf("MasterSpreadsheetID = %q", cfg.MasterSpreadsheetID)
	}
	if cfg.ConfidenceThreshold != nil {
		t.Errorf("ConfidenceThreshold = %v, want nil when unset", *cfg.ConfidenceThreshold)
	}
	if cfg.Timezone != time.UTC {
		t.Errorf("Timezone = %v, want UTC", cfg.Timezone)
	}
	if cfg.ExtractionTimeout != 45*time.Second {
		t.Errorf("ExtractionTimeout = %v", cfg.ExtractionTimeout)
	}
	if cfg.BackendTimeout != 30*time.Second {
		t.Errorf("BackendTimeout = %v", cfg.BackendTimeout)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MASTER_SPREADSHEET_ID", "master-1")
	t.Setenv("CONFIDENCE_THRESHOLD", "0.75")
	t.Setenv("EXTRACTION_TIMEOUT", "10s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.ConfidenceThreshold == nil || *cfg.ConfidenceThreshold != 0.75 {
		t.Errorf("ConfidenceThreshold = %v, want 0.75", cfg.ConfidenceThreshold)
	}
	if cfg.ExtractionTimeout != 10*time.Second {
		t.Errorf("ExtractionTimeout = %v, want 10s", cfg.ExtractionTimeout)
	}
}

func TestLoadZeroThreshold(t *testing.T) {
	t.Setenv("MASTER_SPREADSHEET_ID", "master-1")
	t.Setenv("CONFIDENCE_THRESHOLD", "0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	// An explicit 0 is a setting, not an unset variable.
	if cfg.ConfidenceThreshold == nil || *cfg.ConfidenceThreshold != 0 {
		t.Errorf("ConfidenceThreshold = %v, want explicit 0", cfg.ConfidenceThreshold)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"CONFIDENCE_THRESHOLD", "1.5"},
		{"CONFIDENCE_THRESHOLD", "high"},
		{"TIMEZONE", "Mars/Olympus_Mons"},
		{"EXTRACTION_TIMEOUT", "soon"},
		{"BACKEND_TIMEOUT", "-"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv("MASTER_SPREADSHEET_ID", "master-1")
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("Load() with %s=%s should fail", tt.key, tt.value)
			}
		})
	}
}
