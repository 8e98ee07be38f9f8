package pipeline

import (
	"fmt"
	"path/filepath"
	"time"

	"golang-sales-analytics/internal/models"
	"golang-sales-analytics/internal/parsers"
	"golang-sales-analytics/internal/processor"
	"golang-sales-analytics/pkg/errors"
)

// Request describes one analyzer run
type Request struct {
	InputFile    string
	EnrichedFile string
	ReportFile   string
	// Optional outputs; empty disables them
	XLSXFile    string
	MetricsFile string

	Filter         models.FilterOptions
	SkipEnrichment bool
}

// Validate checks that the request names distinct, non-empty paths. The
// returned error is always a configuration *errors.AnalyticsError.
func (r *Request) Validate() error {
	if r.InputFile == "" {
		return errors.ConfigurationError(errors.CodeMissingConfig, "input-file", nil, nil)
	}
	if r.ReportFile == "" {
		return errors.ConfigurationError(errors.CodeMissingConfig, "report-file", nil, nil)
	}
	if !r.SkipEnrichment && r.EnrichedFile == "" {
		return errors.ConfigurationError(errors.CodeMissingConfig, "enriched-file", nil, nil).
			WithSuggestion("Set --enriched-file or pass --skip-enrichment")
	}

	input := filepath.Clean(r.InputFile)
	for name, path := range map[string]string{
		"report":   r.ReportFile,
		"enriched": r.EnrichedFile,
		"xlsx":     r.XLSXFile,
		"metrics":  r.MetricsFile,
	} {
		if path != "" && filepath.Clean(path) == input {
			cause := fmt.Errorf("%s file would overwrite the input file %s", name, r.InputFile)
			return errors.ConfigurationError(errors.CodeConfigConflict, name+"-file", path, cause).
				WithSuggestion("Use distinct input and output paths")
		}
	}

	f := r.Filter
	if f.MinAmount.Valid && f.MaxAmount.Valid && f.MinAmount.Decimal.GreaterThan(f.MaxAmount.Decimal) {
		cause := fmt.Errorf("min amount %s is greater than max amount %s", f.MinAmount.Decimal, f.MaxAmount.Decimal)
		return errors.ConfigurationError(errors.CodeConfigConflict, "min-amount", f.MinAmount.Decimal.String(), cause).
			WithSuggestion("Use a min amount no greater than the max amount")
	}
	return nil
}

// FilterProvider chooses the filter for a run after seeing what the parsed
// data offers. It replaces Request.Filter when set.
type FilterProvider func(overview processor.FilterOverview) (models.FilterOptions, error)

// Result is everything a run produced
type Result struct {
	RunID string

	Source     *parsers.SourceResult
	ParseStats *parsers.ParseStats
	Overview   processor.FilterOverview
	Filter     models.FilterOptions
	Validation models.ValidationSummary

	// Transactions is the validated, filtered set every later stage reads
	Transactions []models.Transaction
	Analysis     *models.SalesAnalysis

	CatalogSize     int
	Enriched        []models.EnrichedTransaction
	EnrichmentStats *models.EnrichmentStats

	// Paths actually written
	EnrichedFile string
	XLSXFile     string
	ReportFile   string
	MetricsFile  string

	Warnings []string
	Duration time.Duration
}
