package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"golang-sales-analytics/internal/analytics"
	"golang-sales-analytics/internal/enrichment"
	"golang-sales-analytics/internal/models"
	"golang-sales-analytics/internal/parsers"
	"golang-sales-analytics/internal/pipeline"
	"golang-sales-analytics/internal/reporter"
	"golang-sales-analytics/pkg/errors"
	"golang-sales-analytics/pkg/logger"
)

// Configuration keys shared by flags, config files and ANALYZER_* variables
const (
	KeyInputFile      = "input-file"
	KeyEnrichedFile   = "enriched-file"
	KeyReportFile     = "report-file"
	KeyReportFormat   = "report-format"
	KeyXLSXFile       = "xlsx-file"
	KeyMetricsFile    = "metrics-file"
	KeyRegion         = "region"
	KeyMinAmount      = "min-amount"
	KeyMaxAmount      = "max-amount"
	KeyInteractive    = "interactive"
	KeyTopN           = "top-n"
	KeyLowThreshold   = "low-threshold"
	KeyTopCustomers   = "top-customers"
	KeyCatalogURL     = "catalog-url"
	KeyCatalogLimit   = "catalog-limit"
	KeyCatalogTimeout = "catalog-timeout"
	KeyCatalogRetries = "catalog-retries"
	KeySkipEnrichment = "skip-enrichment"
	KeyCurrencySymbol = "currency-symbol"
	KeyDelimiter      = "delimiter"
	KeyProgress       = "progress"
	KeyLogLevel       = "log-level"
	KeyLogFormat      = "log-format"
	KeyVerbose        = "verbose"
)

// Settings is the flat view of every analyze option
type Settings struct {
	InputFile    string
	EnrichedFile string
	ReportFile   string
	ReportFormat string
	XLSXFile     string
	MetricsFile  string

	Region    string
	MinAmount string
	MaxAmount string

	Interactive    bool
	SkipEnrichment bool
	Progress       bool

	TopN         int
	LowThreshold int
	TopCustomers int

	CatalogURL     string
	CatalogLimit   int
	CatalogTimeout time.Duration
	CatalogRetries int

	CurrencySymbol string
	Delimiter      string
}

// LoadSettings reads the analyze options from v
func LoadSettings(v *viper.Viper) *Settings {
	return &Settings{
		InputFile:      v.GetString(KeyInputFile),
		EnrichedFile:   v.GetString(KeyEnrichedFile),
		ReportFile:     v.GetString(KeyReportFile),
		ReportFormat:   strings.ToLower(v.GetString(KeyReportFormat)),
		XLSXFile:       v.GetString(KeyXLSXFile),
		MetricsFile:    v.GetString(KeyMetricsFile),
		Region:         strings.TrimSpace(v.GetString(KeyRegion)),
		MinAmount:      strings.TrimSpace(v.GetString(KeyMinAmount)),
		MaxAmount:      strings.TrimSpace(v.GetString(KeyMaxAmount)),
		Interactive:    v.GetBool(KeyInteractive),
		SkipEnrichment: v.GetBool(KeySkipEnrichment),
		Progress:       v.GetBool(KeyProgress),
		TopN:           v.GetInt(KeyTopN),
		LowThreshold:   v.GetInt(KeyLowThreshold),
		TopCustomers:   v.GetInt(KeyTopCustomers),
		CatalogURL:     v.GetString(KeyCatalogURL),
		CatalogLimit:   v.GetInt(KeyCatalogLimit),
		CatalogTimeout: v.GetDuration(KeyCatalogTimeout),
		CatalogRetries: v.GetInt(KeyCatalogRetries),
		CurrencySymbol: v.GetString(KeyCurrencySymbol),
		Delimiter:      v.GetString(KeyDelimiter),
	}
}

// ParseAmount parses an optional amount. Blank input means no constraint.
func ParseAmount(field, raw string) (decimal.NullDecimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.NullDecimal{}, nil
	}

	d, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", ""))
	if err != nil {
		return decimal.NullDecimal{}, errors.ValidationError(errors.CodeInvalidAmount, field, raw, err).
			WithSuggestion("Enter a plain number such as 1500 or 1500.50")
	}
	return decimal.NewNullDecimal(d), nil
}

// Filter builds the filter options from the region and amount settings
func (s *Settings) Filter() (models.FilterOptions, error) {
	minAmount, err := ParseAmount(KeyMinAmount, s.MinAmount)
	if err != nil {
		return models.FilterOptions{}, err
	}
	maxAmount, err := ParseAmount(KeyMaxAmount, s.MaxAmount)
	if err != nil {
		return models.FilterOptions{}, err
	}
	return models.FilterOptions{Region: s.Region, MinAmount: minAmount, MaxAmount: maxAmount}, nil
}

// CreateRequest builds the pipeline request
func CreateRequest(s *Settings) (*pipeline.Request, error) {
	filter, err := s.Filter()
	if err != nil {
		return nil, err
	}

	return &pipeline.Request{
		InputFile:      s.InputFile,
		EnrichedFile:   s.EnrichedFile,
		ReportFile:     s.ReportFile,
		XLSXFile:       s.XLSXFile,
		MetricsFile:    s.MetricsFile,
		Filter:         filter,
		SkipEnrichment: s.SkipEnrichment,
	}, nil
}

// CreatePipelineConfig builds every stage configuration, applying the
// settings over the stage defaults
func CreatePipelineConfig(s *Settings) (*pipeline.Config, error) {
	parserConfig := parsers.DefaultParserConfig()
	if s.Delimiter != "" {
		parserConfig.Delimiter = s.Delimiter
	}

	engineConfig := analytics.DefaultConfig()
	engineConfig.TopProducts = s.TopN
	engineConfig.LowThreshold = s.LowThreshold

	catalogConfig := enrichment.DefaultCatalogConfig()
	if s.CatalogURL != "" {
		catalogConfig.URL = s.CatalogURL
	}
	catalogConfig.Limit = s.CatalogLimit
	catalogConfig.Timeout = s.CatalogTimeout
	catalogConfig.MaxRetries = s.CatalogRetries

	reportConfig := CreateReportConfig(s.ReportFormat)
	reportConfig.TopProducts = s.TopN
	reportConfig.TopCustomers = s.TopCustomers
	if s.CurrencySymbol != "" {
		reportConfig.CurrencySymbol = s.CurrencySymbol
	}

	config := &pipeline.Config{
		Source:  parsers.DefaultSourceConfig(),
		Parser:  parserConfig,
		Engine:  engineConfig,
		Catalog: catalogConfig,
		Report:  reportConfig,
	}
	if err := ValidateConfig(config); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "analyze", err.Error(), err).
			WithSuggestion("Use 'analyzer analyze --help' to see valid option values")
	}
	return config, nil
}

// CreateReportConfig creates a report configuration for the specified output format
func CreateReportConfig(format string) *reporter.ReportConfig {
	config := reporter.DefaultReportConfig()
	if format != "" {
		config.Format = reporter.OutputFormat(format)
	}
	return config
}

// CreateLoggerConfig builds the logger configuration. verbose forces debug.
func CreateLoggerConfig(level, format string, verbose bool) (*logger.Config, error) {
	config := logger.DefaultConfig()
	if level != "" {
		parsed, err := logger.ParseLevel(level)
		if err != nil {
			return nil, errors.ConfigurationError(errors.CodeInvalidConfig, KeyLogLevel, level, err)
		}
		config.Level = parsed
	}
	if format != "" {
		config.Format = logger.Format(strings.ToLower(format))
	}
	if verbose {
		config.Level = logger.DebugLevel
	}

	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "log", level+"/"+format, err)
	}
	return config, nil
}

// ValidateConfig validates that all stage configurations are valid
func ValidateConfig(config *pipeline.Config) error {
	if err := config.Source.Validate(); err != nil {
		return fmt.Errorf("invalid source config: %w", err)
	}
	if err := config.Parser.Validate(); err != nil {
		return fmt.Errorf("invalid parser config: %w", err)
	}
	if err := config.Engine.Validate(); err != nil {
		return fmt.Errorf("invalid analytics config: %w", err)
	}
	if err := config.Catalog.Validate(); err != nil {
		return fmt.Errorf("invalid catalog config: %w", err)
	}
	if err := config.Report.Validate(); err != nil {
		return fmt.Errorf("invalid report config: %w", err)
	}
	return nil
}
