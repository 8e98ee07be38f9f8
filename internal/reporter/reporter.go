// Package reporter renders the results of an analyzer run.
//
// The report is assembled from a SalesAnalysis and, when enrichment ran,
// the EnrichmentStats of the run. Three output formats are supported:
//   - Text: the fixed-width human-readable report
//   - JSON: structured data for programmatic consumption
//   - YAML: the same document as JSON, for config-style tooling
//
// Example usage:
//
//	generator, err := reporter.NewReportGenerator(reporter.DefaultReportConfig())
//	err = generator.GenerateReport(&reporter.ReportData{
//		RunID:    runID,
//		Analysis: analysis,
//	}, os.Stdout)
package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"golang-sales-analytics/internal/models"
)

// OutputFormat represents the supported report output formats.
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
	FormatYAML OutputFormat = "yaml"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatText, FormatJSON, FormatYAML:
		return true
	default:
		return false
	}
}

// ReportConfig holds configuration options for report generation
type ReportConfig struct {
	Format OutputFormat `json:"format"`

	// Text formatting options
	CurrencySymbol string `json:"currency_symbol"`
	TopProducts    int    `json:"top_products"`
	TopCustomers   int    `json:"top_customers"`
	RuleWidth      int    `json:"rule_width"`
}

// DefaultReportConfig returns a default report configuration
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:         FormatText,
		CurrencySymbol: "₹",
		TopProducts:    5,
		TopCustomers:   5,
		RuleWidth:      55,
	}
}

// Validate validates the report configuration
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}
	if c.TopProducts < 1 {
		return fmt.Errorf("top products must be at least 1, got %d", c.TopProducts)
	}
	if c.TopCustomers < 1 {
		return fmt.Errorf("top customers must be at least 1, got %d", c.TopCustomers)
	}
	if c.RuleWidth < 20 {
		return fmt.Errorf("rule width must be at least 20 characters, got %d", c.RuleWidth)
	}
	return nil
}

// ReportData is everything a report is rendered from
type ReportData struct {
	RunID      string
	Analysis   *models.SalesAnalysis
	Validation *models.ValidationSummary
	// Enrichment is nil when the run skipped enrichment
	Enrichment *models.EnrichmentStats
}

// Document is the structured form of the report used by JSON and YAML output
type Document struct {
	Title            string                    `json:"title" yaml:"title"`
	RunID            string                    `json:"run_id" yaml:"run_id"`
	GeneratedAt      time.Time                 `json:"generated_at" yaml:"generated_at"`
	RecordsProcessed int                       `json:"records_processed" yaml:"records_processed"`
	Validation       *models.ValidationSummary `json:"validation,omitempty" yaml:"validation,omitempty"`
	Analysis         *models.SalesAnalysis     `json:"analysis" yaml:"analysis"`
	Enrichment       *models.EnrichmentStats   `json:"enrichment,omitempty" yaml:"enrichment,omitempty"`
}

// ReportTitle heads every report
const ReportTitle = "SALES ANALYTICS REPORT"

// ReportGenerator generates sales reports in various formats
type ReportGenerator struct {
	config *ReportConfig
	now    func() time.Time
}

// NewReportGenerator creates a new report generator with the specified configuration
func NewReportGenerator(config *ReportConfig) (*ReportGenerator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report configuration: %w", err)
	}

	return &ReportGenerator{
		config: config,
		now:    time.Now,
	}, nil
}

// WithClock replaces the clock used for the generated timestamp
func (rg *ReportGenerator) WithClock(now func() time.Time) *ReportGenerator {
	rg.now = now
	return rg
}

// GenerateReport renders data and writes it to the provided writer
func (rg *ReportGenerator) GenerateReport(data *ReportData, writer io.Writer) error {
	if data == nil || data.Analysis == nil {
		return fmt.Errorf("report data must include an analysis")
	}

	switch rg.config.Format {
	case FormatText:
		return rg.generateTextReport(data, writer)
	case FormatJSON:
		return rg.generateJSONReport(data, writer)
	case FormatYAML:
		return rg.generateYAMLReport(data, writer)
	default:
		return fmt.Errorf("unsupported output format: %s", rg.config.Format)
	}
}

// BuildDocument assembles the structured report
func (rg *ReportGenerator) BuildDocument(data *ReportData) *Document {
	return &Document{
		Title:            ReportTitle,
		RunID:            data.RunID,
		GeneratedAt:      rg.now(),
		RecordsProcessed: data.Analysis.TransactionCount,
		Validation:       data.Validation,
		Analysis:         data.Analysis,
		Enrichment:       data.Enrichment,
	}
}

// generateJSONReport generates a structured JSON report
func (rg *ReportGenerator) generateJSONReport(data *ReportData, writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)

	return encoder.Encode(rg.BuildDocument(data))
}

// generateYAMLReport generates a structured YAML report
func (rg *ReportGenerator) generateYAMLReport(data *ReportData, writer io.Writer) error {
	encoder := yaml.NewEncoder(writer)
	encoder.SetIndent(2)

	if err := encoder.Encode(rg.BuildDocument(data)); err != nil {
		return fmt.Errorf("failed to encode YAML report: %w", err)
	}
	return encoder.Close()
}

// GetConfiguration returns the current configuration
func (rg *ReportGenerator) GetConfiguration() *ReportConfig {
	return rg.config
}
