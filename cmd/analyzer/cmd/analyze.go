package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"golang-sales-analytics/cmd/analyzer/config"
	"golang-sales-analytics/internal/pipeline"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a sales transaction file",
	Long: `Analyze runs the whole pipeline over one pipe-delimited sales file:

  1. read the file (UTF-8, then ISO-8859-1, then Windows-1252)
  2. parse lines, skipping malformed ones
  3. show the filter options (regions and amount range)
  4. validate records and apply the region / amount filters
  5. compute revenue, region, product, customer and daily aggregations
  6. fetch the product catalog (runs alongside step 5)
  7. enrich every sale with catalog metadata
  8. save the enriched file (and optional XLSX copy)
  9. write the report
 10. done

A missing input file or an unreachable catalog does not fail the run; both
are reported as warnings.

Examples:
  # Default paths
  analyzer analyze

  # Filter to one region and an amount window
  analyzer analyze --region North --min-amount 1000 --max-amount 50000

  # Ask for the filter after seeing what the data contains
  analyzer analyze --interactive

  # Machine-readable report, spreadsheet export and metrics
  analyzer analyze --report-format json --report-file output/report.json \
    --xlsx-file output/enriched.xlsx --metrics-file output/analyzer.prom

  # Offline run
  analyzer analyze --skip-enrichment --progress`,

	PreRunE: validateAnalyzeFlags,
	RunE:    runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	flags := analyzeCmd.Flags()

	// File flags
	flags.StringP(config.KeyInputFile, "i", "data/sales_data.txt", "path to the pipe-delimited sales file")
	flags.StringP(config.KeyEnrichedFile, "e", "data/enriched_sales_data.txt", "path of the enriched output file")
	flags.StringP(config.KeyReportFile, "o", "output/sales_report.txt", "path of the report file")
	flags.StringP(config.KeyReportFormat, "f", "text", "report format: text, json, yaml")
	flags.String(config.KeyXLSXFile, "", "also write the enriched rows to this XLSX file")
	flags.String(config.KeyMetricsFile, "", "write pipeline metrics in Prometheus text format to this file")

	// Filter flags
	flags.StringP(config.KeyRegion, "r", "", "keep only sales from this region (exact match)")
	flags.String(config.KeyMinAmount, "", "keep only sales with amount >= this value")
	flags.String(config.KeyMaxAmount, "", "keep only sales with amount <= this value")
	flags.Bool(config.KeyInteractive, false, "prompt for the filter after parsing")

	// Analytics flags
	flags.Int(config.KeyTopN, 5, "number of top products to rank")
	flags.Int(config.KeyLowThreshold, 10, "products selling fewer units than this are low performers")
	flags.Int(config.KeyTopCustomers, 5, "number of customers listed in the text report")

	// Catalog flags
	flags.String(config.KeyCatalogURL, "https://dummyjson.com/products", "product catalog endpoint")
	flags.Int(config.KeyCatalogLimit, 100, "number of catalog products to request")
	flags.Duration(config.KeyCatalogTimeout, 10*time.Second, "catalog request timeout")
	flags.Int(config.KeyCatalogRetries, 2, "catalog retries after the first attempt")
	flags.Bool(config.KeySkipEnrichment, false, "do not fetch the catalog or write the enriched file")

	// Output flags
	flags.String(config.KeyCurrencySymbol, "₹", "currency symbol used in the text report")
	flags.String(config.KeyDelimiter, "|", "field delimiter of the input and enriched files")
	flags.Bool(config.KeyProgress, false, "show progress for each pipeline step")

	// Bind flags to viper (config file and ANALYZER_* variables can override)
	for _, key := range []string{
		config.KeyInputFile, config.KeyEnrichedFile, config.KeyReportFile, config.KeyReportFormat,
		config.KeyXLSXFile, config.KeyMetricsFile, config.KeyRegion, config.KeyMinAmount,
		config.KeyMaxAmount, config.KeyInteractive, config.KeyTopN, config.KeyLowThreshold,
		config.KeyTopCustomers, config.KeyCatalogURL, config.KeyCatalogLimit, config.KeyCatalogTimeout,
		config.KeyCatalogRetries, config.KeySkipEnrichment, config.KeyCurrencySymbol,
		config.KeyDelimiter, config.KeyProgress,
	} {
		viper.BindPFlag(key, flags.Lookup(key))
	}
}

// analyzeInputs is the validated form of the analyze settings
type analyzeInputs struct {
	settings *config.Settings
	config   *pipeline.Config
	request  *pipeline.Request
}

func loadAnalyzeInputs(v *viper.Viper) (*analyzeInputs, error) {
	settings := config.LoadSettings(v)

	pipelineConfig, err := config.CreatePipelineConfig(settings)
	if err != nil {
		return nil, err
	}

	request, err := config.CreateRequest(settings)
	if err != nil {
		return nil, err
	}
	if err := request.Validate(); err != nil {
		return nil, err
	}

	return &analyzeInputs{settings: settings, config: pipelineConfig, request: request}, nil
}

func validateAnalyzeFlags(cmd *cobra.Command, args []string) error {
	_, err := loadAnalyzeInputs(viper.GetViper())
	return err
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	return executeAnalyze(cmd, viper.GetViper())
}

func executeAnalyze(cmd *cobra.Command, v *viper.Viper) error {
	inputs, err := loadAnalyzeInputs(v)
	if err != nil {
		return err
	}

	orchestrator, err := pipeline.NewOrchestrator(inputs.config)
	if err != nil {
		return err
	}

	if inputs.settings.Progress {
		orchestrator.AddProgressCallback(newProgressPrinter(cmd.ErrOrStderr()))
	}
	if inputs.settings.Interactive {
		prompt := NewFilterPrompt(cmd.InOrStdin(), cmd.ErrOrStderr(), inputs.config.Report.CurrencySymbol)
		orchestrator.SetFilterProvider(prompt.Ask)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	result, err := orchestrator.Run(ctx, inputs.request)
	if err != nil {
		return err
	}

	printSummary(cmd.OutOrStdout(), result, inputs.config.Report.CurrencySymbol)
	return nil
}

// newProgressPrinter writes one line per finished pipeline step
func newProgressPrinter(w io.Writer) pipeline.ProgressCallback {
	return func(event pipeline.ProgressEvent) {
		line := fmt.Sprintf("[%2d/%d] %-20s", event.Step, event.TotalSteps, event.Name)
		if event.Detail != "" {
			line += " " + event.Detail
		}
		fmt.Fprintf(w, "%s (%.0f%%)\n", line, event.PercentComplete())
	}
}

func printSummary(w io.Writer, result *pipeline.Result, currency string) {
	fmt.Fprintf(w, "Sales analysis completed (run %s)\n", result.RunID)
	if result.ParseStats != nil {
		fmt.Fprintf(w, "  Records parsed:   %d (skipped %d)\n", result.ParseStats.RecordsParsed, result.ParseStats.Skipped)
	}
	fmt.Fprintf(w, "  Valid records:    %d (invalid %d)\n", result.Validation.Valid, result.Validation.Invalid)
	fmt.Fprintf(w, "  After filters:    %d\n", result.Validation.FinalCount)
	if result.Analysis != nil {
		fmt.Fprintf(w, "  Total revenue:    %s%s\n", currency, result.Analysis.TotalRevenue.StringFixed(2))
	}

	if stats := result.EnrichmentStats; stats != nil {
		fmt.Fprintf(w, "  Enrichment:       %d/%d matched (%s%%)\n", stats.Matched, stats.Total, stats.SuccessRate.StringFixed(2))
	} else {
		fmt.Fprintf(w, "  Enrichment:       skipped\n")
	}

	for _, output := range []struct{ label, path string }{
		{"Enriched file:", result.EnrichedFile},
		{"XLSX file:", result.XLSXFile},
		{"Report file:", result.ReportFile},
		{"Metrics file:", result.MetricsFile},
	} {
		if output.path != "" {
			fmt.Fprintf(w, "  %-17s %s\n", output.label, output.path)
		}
	}
	fmt.Fprintf(w, "  Duration:         %s\n", result.Duration.Round(time.Millisecond))

	if len(result.Warnings) > 0 {
		fmt.Fprintf(w, "\nWarnings:\n")
		for _, warning := range result.Warnings {
			fmt.Fprintf(w, "  - %s\n", warning)
		}
	}
}
