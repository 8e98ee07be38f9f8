package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"golang-sales-analytics/internal/reporter"
	"golang-sales-analytics/pkg/errors"
	"golang-sales-analytics/pkg/logger"
)

func newTestViper() *viper.Viper {
	v := viper.New()
	v.Set(KeyInputFile, "data/sales_data.txt")
	v.Set(KeyEnrichedFile, "data/enriched_sales_data.txt")
	v.Set(KeyReportFile, "output/sales_report.txt")
	v.Set(KeyReportFormat, "text")
	v.Set(KeyTopN, 5)
	v.Set(KeyLowThreshold, 10)
	v.Set(KeyTopCustomers, 5)
	v.Set(KeyCatalogURL, "https://dummyjson.com/products")
	v.Set(KeyCatalogLimit, 100)
	v.Set(KeyCatalogTimeout, "10s")
	v.Set(KeyCatalogRetries, 2)
	v.Set(KeyCurrencySymbol, "₹")
	v.Set(KeyDelimiter, "|")
	return v
}

func TestLoadSettings(t *testing.T) {
	v := newTestViper()
	v.Set(KeyRegion, "  North ")
	v.Set(KeyReportFormat, "JSON")

	s := LoadSettings(v)

	if s.Region != "North" {
		t.Errorf("expected trimmed region, got %q", s.Region)
	}
	if s.ReportFormat != "json" {
		t.Errorf("expected lower-cased format, got %q", s.ReportFormat)
	}
	if s.CatalogTimeout != 10*time.Second {
		t.Errorf("expected 10s timeout, got %s", s.CatalogTimeout)
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantValid bool
		want      string
		wantErr   bool
	}{
		{"blank", "", false, "", false},
		{"spaces", "   ", false, "", false},
		{"integer", "1500", true, "1500", false},
		{"decimal", "99.95", true, "99.95", false},
		{"grouped", "1,200.50", true, "1200.5", false},
		{"garbage", "abc", false, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(KeyMinAmount, tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAmount() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if appErr, ok := errors.AsAnalyticsError(err); !ok || appErr.Category != errors.CategoryValidation {
					t.Errorf("expected validation error, got %v", err)
				}
				return
			}
			if got.Valid != tt.wantValid {
				t.Errorf("expected Valid=%v, got %v", tt.wantValid, got.Valid)
			}
			if tt.wantValid && !got.Decimal.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("expected %s, got %s", tt.want, got.Decimal)
			}
		})
	}
}

func TestCreateRequest(t *testing.T) {
	v := newTestViper()
	v.Set(KeyRegion, "South")
	v.Set(KeyMinAmount, "100")
	v.Set(KeySkipEnrichment, true)

	request, err := CreateRequest(LoadSettings(v))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if request.Filter.Region != "South" || !request.Filter.MinAmount.Valid || request.Filter.MaxAmount.Valid {
		t.Errorf("unexpected filter: %+v", request.Filter)
	}
	if !request.SkipEnrichment {
		t.Error("expected enrichment to be skipped")
	}
	if err := request.Validate(); err != nil {
		t.Errorf("request should be valid: %v", err)
	}

	v.Set(KeyMaxAmount, "ten")
	if _, err := CreateRequest(LoadSettings(v)); err == nil {
		t.Error("expected error for unparsable max amount")
	}
}

func TestCreatePipelineConfig(t *testing.T) {
	v := newTestViper()
	v.Set(KeyTopN, 3)
	v.Set(KeyLowThreshold, 4)
	v.Set(KeyReportFormat, "yaml")
	v.Set(KeyCurrencySymbol, "$")

	config, err := CreatePipelineConfig(LoadSettings(v))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if config.Engine.TopProducts != 3 || config.Engine.LowThreshold != 4 {
		t.Errorf("unexpected engine config: %+v", config.Engine)
	}
	if config.Report.Format != reporter.FormatYAML || config.Report.TopProducts != 3 || config.Report.CurrencySymbol != "$" {
		t.Errorf("unexpected report config: %+v", config.Report)
	}
	if config.Catalog.Limit != 100 || config.Catalog.MaxRetries != 2 {
		t.Errorf("unexpected catalog config: %+v", config.Catalog)
	}
	if config.Parser.Delimiter != "|" {
		t.Errorf("unexpected delimiter %q", config.Parser.Delimiter)
	}
}

func TestCreatePipelineConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  interface{}
	}{
		{"unknown report format", KeyReportFormat, "pdf"},
		{"zero top-n", KeyTopN, 0},
		{"negative threshold", KeyLowThreshold, -1},
		{"relative catalog url", KeyCatalogURL, "products"},
		{"zero timeout", KeyCatalogTimeout, "0s"},
		{"delimiter equals thousands separator", KeyDelimiter, ","},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newTestViper()
			v.Set(tt.key, tt.val)

			_, err := CreatePipelineConfig(LoadSettings(v))
			appErr, ok := errors.AsAnalyticsError(err)
			if !ok || appErr.Category != errors.CategoryConfiguration {
				t.Errorf("expected configuration error, got %v", err)
			}
		})
	}
}

func TestCreateLoggerConfig(t *testing.T) {
	config, err := CreateLoggerConfig("INFO", "json", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.Level != logger.InfoLevel || config.Format != logger.JSONFormat {
		t.Errorf("unexpected config: %+v", config)
	}

	config, _ = CreateLoggerConfig("error", "", true)
	if config.Level != logger.DebugLevel {
		t.Errorf("verbose should force debug, got %s", config.Level)
	}

	if _, err := CreateLoggerConfig("loud", "", false); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestSampleConfigFile(t *testing.T) {
	v := viper.New()
	v.SetConfigFile("../../../testdata/analyzer.yaml")
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("ReadInConfig() error = %v", err)
	}
	// Flag defaults the sample file leaves out
	v.SetDefault(KeyDelimiter, "|")

	settings := LoadSettings(v)
	if settings.InputFile != "testdata/sales_data.txt" || settings.XLSXFile == "" || settings.MetricsFile == "" {
		t.Errorf("unexpected file settings: %+v", settings)
	}

	config, err := CreatePipelineConfig(settings)
	if err != nil {
		t.Fatalf("CreatePipelineConfig() error = %v", err)
	}
	if config.Catalog.Timeout != 10*time.Second || config.Report.CurrencySymbol != "₹" {
		t.Errorf("unexpected stage config: catalog %+v, report %+v", config.Catalog, config.Report)
	}
}
