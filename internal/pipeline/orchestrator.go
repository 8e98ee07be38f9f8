// Package pipeline coordinates a complete analyzer run.
//
// The orchestrator drives every stage in order:
//   - Reading the sales file and parsing it into transactions
//   - Offering filter options and validating/filtering the records
//   - Aggregating the filtered set while the product catalog is fetched
//   - Enriching the filtered set and persisting the enriched rows
//   - Rendering the report and, optionally, the run metrics
//
// Analysis and catalog retrieval only read the filtered set, so they run
// concurrently. Progress is reported through ProgressCallback; the pipeline
// itself never prints.
//
// Example usage:
//
//	orchestrator, err := pipeline.NewOrchestrator(pipeline.DefaultConfig())
//	orchestrator.AddProgressCallback(func(e pipeline.ProgressEvent) {
//		fmt.Printf("[%d/%d] %s\n", e.Step, e.TotalSteps, e.Name)
//	})
//
//	result, err := orchestrator.Run(ctx, &pipeline.Request{
//		InputFile:    "data/sales_data.txt",
//		EnrichedFile: "data/enriched_sales_data.txt",
//		ReportFile:   "output/sales_report.txt",
//	})
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"golang-sales-analytics/internal/analytics"
	"golang-sales-analytics/internal/enrichment"
	"golang-sales-analytics/internal/metrics"
	"golang-sales-analytics/internal/models"
	"golang-sales-analytics/internal/parsers"
	"golang-sales-analytics/internal/processor"
	"golang-sales-analytics/internal/reporter"
	"golang-sales-analytics/pkg/errors"
	"golang-sales-analytics/pkg/logger"
)

const catalogService = "product_catalog"

// CatalogFetcher retrieves the external product catalog
type CatalogFetcher interface {
	FetchProducts(ctx context.Context) ([]models.ProductCatalogEntry, error)
}

// Config bundles the configuration of every stage
type Config struct {
	Source  *parsers.SourceConfig
	Parser  *parsers.ParserConfig
	Engine  *analytics.Config
	Catalog *enrichment.CatalogConfig
	Report  *reporter.ReportConfig
}

// DefaultConfig returns the default configuration of every stage
func DefaultConfig() *Config {
	return &Config{
		Source:  parsers.DefaultSourceConfig(),
		Parser:  parsers.DefaultParserConfig(),
		Engine:  analytics.DefaultConfig(),
		Catalog: enrichment.DefaultCatalogConfig(),
		Report:  reporter.DefaultReportConfig(),
	}
}

// Orchestrator runs the analyzer stages and reports progress
type Orchestrator struct {
	config    *Config
	source    *parsers.LineSource
	parser    *parsers.TransactionParser
	validator *processor.Validator
	engine    *analytics.Engine
	catalog   CatalogFetcher
	reports   *reporter.SafeReportGenerator
	metrics   *metrics.Metrics

	filterProvider    FilterProvider
	progressCallbacks []ProgressCallback
	progressMutex     sync.Mutex
	startTime         time.Time
}

// NewOrchestrator builds every stage from config. Any invalid stage
// configuration is returned as a configuration error.
func NewOrchestrator(config *Config) (*Orchestrator, error) {
	if config == nil {
		config = DefaultConfig()
	}

	log := logger.GetGlobalLogger().WithComponent("pipeline")

	source, err := parsers.NewLineSource(config.Source)
	if err != nil {
		return nil, err
	}
	parser, err := parsers.NewTransactionParser(config.Parser)
	if err != nil {
		return nil, err
	}
	engine, err := analytics.NewEngine(config.Engine)
	if err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "analytics", config.Engine, err)
	}
	catalog, err := enrichment.NewCatalogClient(config.Catalog, nil)
	if err != nil {
		return nil, err
	}
	reports, err := reporter.NewSafeReportGenerator(config.Report, log)
	if err != nil {
		return nil, err
	}

	log.Debug("Pipeline orchestrator created")

	return &Orchestrator{
		config:    config,
		source:    source,
		parser:    parser,
		validator: processor.NewValidator(),
		engine:    engine,
		catalog:   catalog,
		reports:   reports,
		metrics:   metrics.NewMetrics(),
	}, nil
}

// AddProgressCallback adds a progress callback function
func (o *Orchestrator) AddProgressCallback(callback ProgressCallback) {
	o.progressCallbacks = append(o.progressCallbacks, callback)
}

// SetFilterProvider installs a provider consulted after parsing
func (o *Orchestrator) SetFilterProvider(provider FilterProvider) {
	o.filterProvider = provider
}

// SetCatalogFetcher replaces the HTTP catalog client
func (o *Orchestrator) SetCatalogFetcher(fetcher CatalogFetcher) {
	o.catalog = fetcher
}

// ReportGenerator exposes the report generator, e.g. to pin its clock
func (o *Orchestrator) ReportGenerator() *reporter.SafeReportGenerator {
	return o.reports
}

// Metrics returns the metrics of the most recent run
func (o *Orchestrator) Metrics() *metrics.Metrics {
	return o.metrics
}

// Run executes a complete pipeline run. Every returned error is an
// *errors.AnalyticsError.
func (o *Orchestrator) Run(ctx context.Context, request *Request) (*Result, error) {
	if request == nil {
		return nil, errors.ValidationError(errors.CodeMissingField, "request", nil, nil)
	}
	if err := request.Validate(); err != nil {
		return nil, err
	}

	result := &Result{RunID: uuid.NewString()}
	log := logger.WithRunID(result.RunID).WithComponent("pipeline")
	o.metrics = metrics.NewMetrics()
	o.startTime = time.Now()

	log.WithFields(logger.Fields{
		"input_file":      request.InputFile,
		"skip_enrichment": request.SkipEnrichment,
	}).Info("Starting sales analysis run")

	if err := o.run(ctx, request, result, log); err != nil {
		appErr := errors.WrapIfNeeded(err, errors.CategoryInternal, errors.CodeUnexpectedError, "sales analysis run failed")
		log.WithError(appErr).Error("Sales analysis run failed")
		return result, appErr
	}

	result.Duration = time.Since(o.startTime)
	o.emit(StepComplete, fmt.Sprintf("finished in %s", result.Duration.Round(time.Millisecond)))
	log.WithField("elapsed_time", result.Duration).Info("Sales analysis run completed")
	return result, nil
}

func (o *Orchestrator) run(ctx context.Context, request *Request, result *Result, log logger.Logger) error {
	// Step 1: read
	op := o.stage("read", log)
	source, err := o.source.ReadLines(request.InputFile)
	if err != nil {
		op.Error(err, "Failed to read sales data")
		return err
	}
	result.Source = source
	if source.Missing {
		missing := errors.FileError(errors.CodeFileNotFound, request.InputFile, nil)
		result.Warnings = append(result.Warnings, missing.Message+"; continuing with no records")
	}
	o.metrics.AddRecords("read", len(source.Lines))
	o.finish(op, "read")
	o.emit(StepRead, fmt.Sprintf("%d lines (%s)", len(source.Lines), encodingLabel(source)))

	// Step 2: parse
	op = o.stage("parse", log)
	parsed, stats := o.parser.ParseLines(source.Lines)
	result.ParseStats = stats
	o.metrics.AddRecords("parsed", stats.RecordsParsed)
	for reason, n := range stats.SkipsByReason {
		o.metrics.AddSkipped(string(reason), n)
	}
	o.finish(op.WithField("skipped", stats.Skipped), "parse")
	o.emit(StepParse, stats.String())

	// Step 3: filter options
	result.Overview = processor.BuildFilterOverview(parsed)
	result.Filter = request.Filter
	if o.filterProvider != nil {
		filter, err := o.filterProvider(result.Overview)
		if err != nil {
			return err
		}
		result.Filter = filter
	}
	o.emit(StepFilterOptions, describeFilter(result.Filter))

	// Step 4: validate and filter
	op = o.stage("validate", log)
	filtered, invalid, summary := o.validator.ValidateAndFilter(parsed, result.Filter)
	result.Transactions = filtered
	result.Validation = summary
	o.metrics.AddRecords("invalid", invalid)
	o.metrics.AddRecords("filtered", summary.FinalCount)
	o.finish(op.WithField("invalid", invalid), "validate")
	o.emit(StepValidate, fmt.Sprintf("%d valid, %d invalid, %d after filters", summary.Valid, invalid, summary.FinalCount))

	// Steps 5 and 6: analysis and catalog retrieval share the filtered set
	var (
		mapping    models.ProductMapping
		catalogErr *errors.AnalyticsError
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		op := o.stage("analyze", log)
		result.Analysis = o.engine.Analyze(filtered)
		o.finish(op, "analyze")
		return nil
	})
	if !request.SkipEnrichment {
		g.Go(func() error {
			op := o.stage("fetch_catalog", log)
			mapping, catalogErr = o.fetchMapping(gctx, op)
			o.finish(op, "fetch_catalog")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return errors.ProcessingError(errors.CodeAggregationFailed, "analyze", err)
	}

	o.emit(StepAnalyze, fmt.Sprintf("revenue %s across %d transactions",
		result.Analysis.TotalRevenue.StringFixed(2), result.Analysis.TransactionCount))

	if request.SkipEnrichment {
		o.emit(StepFetchCatalog, "skipped")
		o.emit(StepEnrich, "skipped")
		o.emit(StepSaveEnriched, "skipped")
	} else {
		result.CatalogSize = len(mapping)
		switch {
		case catalogErr != nil:
			result.Warnings = append(result.Warnings, catalogErr.Message+"; no transaction will match")
		case len(mapping) == 0:
			result.Warnings = append(result.Warnings, "product catalog is empty; no transaction will match")
		}
		o.emit(StepFetchCatalog, fmt.Sprintf("%d catalog products", len(mapping)))

		// Step 7: enrich
		result.Enriched = enrichment.Enrich(filtered, mapping)
		stats := enrichment.ComputeStats(result.Enriched)
		result.EnrichmentStats = &stats
		for status, n := range enrichment.CountByStatus(result.Enriched) {
			o.metrics.AddEnrichment(string(status), n)
		}
		o.emit(StepEnrich, fmt.Sprintf("%d of %d matched (%s%%)", stats.Matched, stats.Total, stats.SuccessRate.StringFixed(2)))

		// Step 8: save enriched
		if err := o.saveEnriched(request, result, log); err != nil {
			return err
		}
		o.emit(StepSaveEnriched, result.EnrichedFile)
	}

	// Step 9: report
	op = o.stage("report", log)
	written, err := o.reports.WriteReportFile(&reporter.ReportData{
		RunID:      result.RunID,
		Analysis:   result.Analysis,
		Validation: &result.Validation,
		Enrichment: result.EnrichmentStats,
	}, request.ReportFile)
	if err != nil {
		op.Error(err, "Failed to write report")
		return err
	}
	result.ReportFile = written
	if written != request.ReportFile {
		result.Warnings = append(result.Warnings, fmt.Sprintf("report written to backup location %s", written))
	}
	o.finish(op, "report")

	if request.MetricsFile != "" {
		if err := o.metrics.WriteToTextfile(request.MetricsFile); err != nil {
			return errors.FileError(errors.CodeFileWrite, request.MetricsFile, err)
		}
		result.MetricsFile = request.MetricsFile
	}
	o.emit(StepReport, result.ReportFile)

	return nil
}

// fetchMapping retrieves the catalog, degrading to an empty mapping on
// failure. The returned error is informational; the run carries on.
func (o *Orchestrator) fetchMapping(ctx context.Context, op *logger.OperationLogger) (models.ProductMapping, *errors.AnalyticsError) {
	products, err := o.catalog.FetchProducts(ctx)
	if err != nil {
		o.metrics.IncrExternalError(catalogService)
		failed := errors.ProcessingError(errors.CodeEnrichmentFailed, "fetch_catalog", err)
		op.WithField("error", failed.Error()).Warning("Product catalog unavailable, continuing without enrichment data")
		return models.ProductMapping{}, failed
	}
	return enrichment.CreateProductMapping(products), nil
}

func (o *Orchestrator) saveEnriched(request *Request, result *Result, log logger.Logger) error {
	op := o.stage("save_enriched", log)
	if err := enrichment.SaveEnrichedFile(request.EnrichedFile, result.Enriched, o.config.Parser.Delimiter); err != nil {
		op.Error(err, "Failed to save enriched data")
		return err
	}
	result.EnrichedFile = request.EnrichedFile

	if request.XLSXFile != "" {
		if err := enrichment.SaveEnrichedXLSX(request.XLSXFile, result.Enriched); err != nil {
			op.Error(err, "Failed to save enriched spreadsheet")
			return err
		}
		result.XLSXFile = request.XLSXFile
	}
	o.finish(op.WithField("rows", len(result.Enriched)), "save_enriched")
	return nil
}

func (o *Orchestrator) stage(name string, log logger.Logger) *logger.OperationLogger {
	return logger.NewOperationLogger(name, log)
}

func (o *Orchestrator) finish(op *logger.OperationLogger, stage string) {
	o.metrics.RecordStageDuration(stage, op.Elapsed())
	op.Success("Stage completed")
}

func (o *Orchestrator) emit(step int, detail string) {
	o.progressMutex.Lock()
	defer o.progressMutex.Unlock()

	event := ProgressEvent{
		Step:       step,
		TotalSteps: TotalSteps,
		Name:       StepName(step),
		Detail:     detail,
		Elapsed:    time.Since(o.startTime),
	}
	for _, callback := range o.progressCallbacks {
		callback(event)
	}
}

func encodingLabel(source *parsers.SourceResult) string {
	if source.Missing {
		return "file missing"
	}
	if source.Encoding == "" {
		return "empty"
	}
	return source.Encoding
}

func describeFilter(f models.FilterOptions) string {
	if f.IsEmpty() {
		return "no filters"
	}
	desc := ""
	if f.Region != "" {
		desc += "region=" + f.Region + " "
	}
	if f.MinAmount.Valid {
		desc += "min=" + f.MinAmount.Decimal.String() + " "
	}
	if f.MaxAmount.Valid {
		desc += "max=" + f.MaxAmount.Decimal.String() + " "
	}
	return desc[:len(desc)-1]
}
