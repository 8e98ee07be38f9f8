package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"golang-sales-analytics/cmd/analyzer/config"
	"golang-sales-analytics/internal/pipeline"
	"golang-sales-analytics/internal/processor"
	"golang-sales-analytics/pkg/errors"
	"golang-sales-analytics/pkg/logger"
)

const salesFile = `TransactionID|Date|ProductID|ProductName|Quantity|UnitPrice|CustomerID|Region
T001|2024-12-01|P101|Laptop|2|45,000|C001|North
T002|2024-12-01|P102|Mouse|5|500|C002|South
T003|2024-12-02|P101|Laptop|1|45000|C003|North
BAD|LINE
T004|2024-12-02|P103|Keyboard|0|1500|C001|East
`

func newAnalyzeViper(dir string) *viper.Viper {
	v := viper.New()
	v.Set(config.KeyInputFile, filepath.Join(dir, "sales_data.txt"))
	v.Set(config.KeyEnrichedFile, filepath.Join(dir, "enriched_sales_data.txt"))
	v.Set(config.KeyReportFile, filepath.Join(dir, "output", "sales_report.txt"))
	v.Set(config.KeyReportFormat, "text")
	v.Set(config.KeyTopN, 5)
	v.Set(config.KeyLowThreshold, 10)
	v.Set(config.KeyTopCustomers, 5)
	v.Set(config.KeyCatalogURL, "https://dummyjson.com/products")
	v.Set(config.KeyCatalogLimit, 100)
	v.Set(config.KeyCatalogTimeout, "10s")
	v.Set(config.KeyCatalogRetries, 2)
	v.Set(config.KeyCurrencySymbol, "₹")
	v.Set(config.KeyDelimiter, "|")
	v.Set(config.KeySkipEnrichment, true)
	return v
}

func newTestCommand(in string) (*cobra.Command, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	c := &cobra.Command{}
	c.SetContext(context.Background())
	c.SetIn(strings.NewReader(in))
	c.SetOut(&stdout)
	c.SetErr(&stderr)
	return c, &stdout, &stderr
}

func TestExecuteAnalyze_SkipEnrichment(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "sales_data.txt"), []byte(salesFile), 0644); err != nil {
		t.Fatalf("failed to write input: %v", err)
	}

	v := newAnalyzeViper(dir)
	v.Set(config.KeyProgress, true)

	c, stdout, stderr := newTestCommand("")
	if err := executeAnalyze(c, v); err != nil {
		t.Fatalf("executeAnalyze() error = %v", err)
	}

	out := stdout.String()
	for _, want := range []string{
		"Records parsed:   4 (skipped 1)",
		"Valid records:    3 (invalid 1)",
		"Total revenue:    ₹137500.00",
		"Enrichment:       skipped",
		"Report file:",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}

	progress := stderr.String()
	if !strings.Contains(progress, "[ 1/10]") || !strings.Contains(progress, "[10/10]") {
		t.Errorf("expected progress for every step, got:\n%s", progress)
	}

	report, err := os.ReadFile(filepath.Join(dir, "output", "sales_report.txt"))
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}
	if !strings.Contains(string(report), "SALES ANALYTICS REPORT") {
		t.Error("report is missing its title")
	}
}

func TestExecuteAnalyze_Interactive(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "sales_data.txt"), []byte(salesFile), 0644); err != nil {
		t.Fatalf("failed to write input: %v", err)
	}

	v := newAnalyzeViper(dir)
	v.Set(config.KeyInteractive, true)

	c, stdout, stderr := newTestCommand("y\nNorth\n\n\n")
	if err := executeAnalyze(c, v); err != nil {
		t.Fatalf("executeAnalyze() error = %v", err)
	}

	if !strings.Contains(stderr.String(), "Regions: East, North, South") {
		t.Errorf("prompt should list regions, got:\n%s", stderr.String())
	}
	if !strings.Contains(stdout.String(), "After filters:    2") {
		t.Errorf("expected the North filter to keep 2 records:\n%s", stdout.String())
	}
}

func TestLoadAnalyzeInputs_Errors(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(v *viper.Viper)
		category errors.ErrorCategory
	}{
		{
			name:     "bad report format",
			mutate:   func(v *viper.Viper) { v.Set(config.KeyReportFormat, "html") },
			category: errors.CategoryConfiguration,
		},
		{
			name:     "bad min amount",
			mutate:   func(v *viper.Viper) { v.Set(config.KeyMinAmount, "lots") },
			category: errors.CategoryValidation,
		},
		{
			name:     "report overwrites input",
			mutate:   func(v *viper.Viper) { v.Set(config.KeyReportFile, v.GetString(config.KeyInputFile)) },
			category: errors.CategoryConfiguration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newAnalyzeViper(t.TempDir())
			tt.mutate(v)

			_, err := loadAnalyzeInputs(v)
			appErr, ok := errors.AsAnalyticsError(err)
			if !ok {
				t.Fatalf("expected AnalyticsError, got %v", err)
			}
			if appErr.Category != tt.category {
				t.Errorf("expected category %s, got %s", tt.category, appErr.Category)
			}
		})
	}
}

func TestLoadAnalyzeInputs_MinAboveMax(t *testing.T) {
	v := newAnalyzeViper(t.TempDir())
	v.Set(config.KeyMinAmount, "500")
	v.Set(config.KeyMaxAmount, "100")

	_, err := loadAnalyzeInputs(v)
	appErr, ok := errors.AsAnalyticsError(err)
	if !ok || appErr.Code != errors.CodeConfigConflict {
		t.Errorf("expected config conflict, got %v", err)
	}
}

func TestFilterPrompt(t *testing.T) {
	overview := processor.FilterOverview{
		Regions:   []string{"East", "North"},
		MinAmount: decimal.NewFromInt(500),
		MaxAmount: decimal.NewFromInt(90000),
		HasAmount: true,
	}

	tests := []struct {
		name       string
		input      string
		wantRegion string
		wantMin    string
		wantMax    string
		wantErr    bool
		wantCode   errors.ErrorCode
	}{
		{name: "decline", input: "n\n"},
		{name: "empty input", input: ""},
		{name: "region only", input: "y\nNorth\n\n\n", wantRegion: "North"},
		{name: "amounts only", input: "yes\n\n1000\n50,000\n", wantMin: "1000", wantMax: "50000"},
		{name: "no trailing newline", input: "Y\nEast\n10", wantRegion: "East", wantMin: "10"},
		{name: "unparsable amount", input: "y\n\nabc\n", wantErr: true, wantCode: errors.CodeInvalidAmount},
		{name: "min above max", input: "y\n\n500\n100\n", wantErr: true, wantCode: errors.CodeOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			prompt := NewFilterPrompt(strings.NewReader(tt.input), &out, "₹")

			filter, err := prompt.Ask(overview)
			if tt.wantErr {
				appErr, ok := errors.AsAnalyticsError(err)
				if !ok || appErr.Code != tt.wantCode {
					t.Fatalf("expected %s error, got %v", tt.wantCode, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if filter.Region != tt.wantRegion {
				t.Errorf("expected region %q, got %q", tt.wantRegion, filter.Region)
			}
			checkAmount(t, "min", filter.MinAmount, tt.wantMin)
			checkAmount(t, "max", filter.MaxAmount, tt.wantMax)

			if !strings.Contains(out.String(), "Amount range: ₹500.00 - ₹90000.00") {
				t.Errorf("prompt should show the amount range, got:\n%s", out.String())
			}
		})
	}
}

type brokenReader struct{}

func (brokenReader) Read([]byte) (int, error) {
	return 0, fmt.Errorf("terminal detached")
}

func TestFilterPrompt_ReadFailure(t *testing.T) {
	var out bytes.Buffer
	prompt := NewFilterPrompt(brokenReader{}, &out, "₹")

	_, err := prompt.Ask(processor.FilterOverview{})
	appErr, ok := errors.AsAnalyticsError(err)
	if !ok || appErr.Category != errors.CategoryInternal || appErr.GetExitCode() != 5 {
		t.Fatalf("expected internal error, got %v", err)
	}
	if !strings.Contains(appErr.Cause.Error(), "terminal detached") {
		t.Errorf("expected the read failure as cause, got %v", appErr.Cause)
	}
}

func checkAmount(t *testing.T, name string, got decimal.NullDecimal, want string) {
	t.Helper()
	if want == "" {
		if got.Valid {
			t.Errorf("expected no %s amount, got %s", name, got.Decimal)
		}
		return
	}
	if !got.Valid || !got.Decimal.Equal(decimal.RequireFromString(want)) {
		t.Errorf("expected %s amount %s, got %+v", name, want, got)
	}
}

func TestProgressPrinter(t *testing.T) {
	var out bytes.Buffer
	printer := newProgressPrinter(&out)

	printer(pipeline.ProgressEvent{Step: 5, TotalSteps: 10, Name: "Analyze", Detail: "3 records"})
	printer(pipeline.ProgressEvent{Step: 10, TotalSteps: 10, Name: "Complete"})

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), out.String())
	}
	if !strings.HasPrefix(lines[0], "[ 5/10] Analyze") || !strings.HasSuffix(lines[0], "3 records (50%)") {
		t.Errorf("unexpected first line %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], "(100%)") {
		t.Errorf("unexpected last line %q", lines[1])
	}
}

func TestCLIErrorHandler(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantText []string
	}{
		{
			name:     "nil",
			err:      nil,
			wantCode: 0,
		},
		{
			name:     "file error",
			err:      errors.FileError(errors.CodeFileWrite, "/out/report.txt", fmt.Errorf("read-only")),
			wantCode: 2,
			wantText: []string{"Error:", "File error help", "file_path: /out/report.txt"},
		},
		{
			name:     "validation error",
			err:      errors.ValidationError(errors.CodeInvalidAmount, "min-amount", "abc", nil),
			wantCode: 3,
			wantText: []string{"Validation error help"},
		},
		{
			name:     "configuration error",
			err:      errors.ConfigurationError(errors.CodeInvalidConfig, "report-format", "pdf", nil),
			wantCode: 4,
			wantText: []string{"Configuration error help", "Suggestion:"},
		},
		{
			name:     "network error",
			err:      errors.NetworkError(errors.CodeTimeout, "https://catalog", nil),
			wantCode: 6,
			wantText: []string{"--skip-enrichment"},
		},
		{
			name:     "wrapped not-exist",
			err:      fmt.Errorf("open data: %w", os.ErrNotExist),
			wantCode: 2,
			wantText: []string{"File not found"},
		},
		{
			name:     "wrapped permission",
			err:      fmt.Errorf("open data: %w", fs.ErrPermission),
			wantCode: 2,
			wantText: []string{"Permission denied"},
		},
		{
			name:     "unknown flag",
			err:      fmt.Errorf("unknown flag: --colour"),
			wantCode: 1,
			wantText: []string{"unknown flag: --colour", "analyzer --help"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			code := newCLIErrorHandler(&out, false).HandleError(tt.err)

			if code != tt.wantCode {
				t.Errorf("expected exit code %d, got %d", tt.wantCode, code)
			}
			for _, want := range tt.wantText {
				if !strings.Contains(out.String(), want) {
					t.Errorf("output missing %q:\n%s", want, out.String())
				}
			}
		})
	}
}

func TestCLIErrorHandler_VerboseShowsCause(t *testing.T) {
	var out bytes.Buffer
	err := errors.ProcessingError(errors.CodeReportFailed, "report", fmt.Errorf("disk quota"))

	newCLIErrorHandler(&out, true).HandleError(err)

	if !strings.Contains(out.String(), "Underlying error: disk quota") {
		t.Errorf("verbose output should include the cause:\n%s", out.String())
	}
}

func TestBuildGeneratorConfig(t *testing.T) {
	genStartDate, genEndDate = "2024-01-01", "2024-01-31"
	genCount, genSeed, genPattern = 10, 7, "end-of-month"
	genMalformedRatio, genInvalidRatio, genCustomers = 0, 0, 3

	cfg, err := buildGeneratorConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.StartDate.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) || cfg.Count != 10 {
		t.Errorf("unexpected config: %+v", cfg)
	}

	genEndDate = "31/01/2024"
	if _, err := buildGeneratorConfig(); err == nil {
		t.Error("expected error for a non-ISO end date")
	}
}

func TestRunGenerate(t *testing.T) {
	genOutput = filepath.Join(t.TempDir(), "data", "sales_data.txt")
	genStartDate, genEndDate = "2024-12-01", "2024-12-31"
	genCount, genSeed, genPattern = 25, 42, "random"
	genMalformedRatio, genInvalidRatio, genCustomers = 0.1, 0.1, 5

	c, stdout, _ := newTestCommand("")
	if err := runGenerate(c, nil); err != nil {
		t.Fatalf("runGenerate() error = %v", err)
	}

	if !strings.Contains(stdout.String(), "Generated 25 sales lines") {
		t.Errorf("unexpected output:\n%s", stdout.String())
	}
	if _, err := os.Stat(genOutput); err != nil {
		t.Errorf("generated file missing: %v", err)
	}
}

func TestRunGenerate_LogsTimedOperation(t *testing.T) {
	previous := logger.GetGlobalLogger()
	t.Cleanup(func() { logger.SetGlobalLogger(previous) })

	var logs bytes.Buffer
	log, err := logger.NewLogger(&logger.Config{
		Level:            logger.InfoLevel,
		Format:           logger.JSONFormat,
		Output:           logger.StdoutOutput,
		DisableTimestamp: true,
		Writer:           &logs,
	})
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	logger.SetGlobalLogger(log)

	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	genOutput = filepath.Join(blocker, "sales_data.txt")
	genStartDate, genEndDate = "2024-12-01", "2024-12-31"
	genCount, genSeed, genPattern = 5, 7, "random"
	genMalformedRatio, genInvalidRatio, genCustomers = 0, 0, 5

	c, _, _ := newTestCommand("")
	if err := runGenerate(c, nil); err == nil {
		t.Fatal("expected an error writing below a regular file")
	}

	var entry map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(logs.Bytes()), &entry); err != nil {
		t.Fatalf("invalid JSON log line %q: %v", logs.String(), err)
	}
	if entry[logger.FieldOperation] != "generate" || entry[logger.FieldComponent] != "generator" {
		t.Errorf("unexpected log fields: %v", entry)
	}
	if entry["status"] != "error" || entry["output"] != genOutput {
		t.Errorf("expected a failed generate entry for %s, got %v", genOutput, entry)
	}
}
