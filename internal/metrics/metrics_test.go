package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewMetrics_IndependentRegistries(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()

	a.AddRecords("parsed", 3)

	if got := a.Records("parsed"); got != 3 {
		t.Errorf("expected 3, got %v", got)
	}
	if got := b.Records("parsed"); got != 0 {
		t.Errorf("expected registries to be independent, got %v", got)
	}
}

func TestCounters(t *testing.T) {
	m := NewMetrics()

	m.AddSkipped("field_count", 2)
	m.AddSkipped("field_count", 1)
	m.AddEnrichment("matched", 4)
	m.AddEnrichment("no_digits", 1)
	m.IncrExternalError("catalog")

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"skipped field_count", m.Skipped("field_count"), 3},
		{"skipped other", m.Skipped("invalid_quantity"), 0},
		{"enrichment matched", m.Enrichment("matched"), 4},
		{"enrichment no_digits", m.Enrichment("no_digits"), 1},
		{"external errors", m.ExternalErrors("catalog"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, tt.got)
			}
		})
	}
}

func TestWriteToTextfile(t *testing.T) {
	m := NewMetrics()
	m.AddRecords("read", 10)
	m.RecordStageDuration("parse", 15*time.Millisecond)

	path := filepath.Join(t.TempDir(), "run.prom")
	if err := m.WriteToTextfile(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read textfile: %v", err)
	}
	content := string(data)

	for _, want := range []string{
		`sales_analyzer_records_total{state="read"} 10`,
		`sales_analyzer_stage_duration_seconds_count{stage="parse"} 1`,
	} {
		if !strings.Contains(content, want) {
			t.Errorf("expected textfile to contain %q", want)
		}
	}
}
