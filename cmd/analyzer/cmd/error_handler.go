package cmd

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/viper"

	"golang-sales-analytics/cmd/analyzer/config"
	"golang-sales-analytics/pkg/errors"
	"golang-sales-analytics/pkg/logger"
)

// CLIErrorHandler provides user-friendly error handling for CLI operations
type CLIErrorHandler struct {
	logger  logger.Logger
	out     io.Writer
	verbose bool
}

// NewCLIErrorHandler creates a new CLI error handler writing to stderr
func NewCLIErrorHandler() *CLIErrorHandler {
	return newCLIErrorHandler(os.Stderr, viper.GetBool(config.KeyVerbose))
}

func newCLIErrorHandler(out io.Writer, verbose bool) *CLIErrorHandler {
	return &CLIErrorHandler{
		logger:  logger.GetGlobalLogger().WithComponent("cli"),
		out:     out,
		verbose: verbose,
	}
}

// HandleError prints err and returns the process exit code
func (h *CLIErrorHandler) HandleError(err error) int {
	if err == nil {
		return 0
	}

	h.logger.WithError(err).Debug("Command failed")

	if appErr, ok := errors.AsAnalyticsError(err); ok {
		return h.handleAnalyticsError(appErr)
	}
	return h.handleGenericError(err)
}

// handleAnalyticsError handles AnalyticsError with detailed context
func (h *CLIErrorHandler) handleAnalyticsError(err *errors.AnalyticsError) int {
	fmt.Fprintf(h.out, "Error: %s\n", err.Message)

	if len(err.Context) > 0 {
		keys := make([]string, 0, len(err.Context))
		for key := range err.Context {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		fmt.Fprintf(h.out, "\nContext:\n")
		for _, key := range keys {
			fmt.Fprintf(h.out, "  %s: %v\n", key, err.Context[key])
		}
	}

	if err.Suggestion != "" {
		fmt.Fprintf(h.out, "\nSuggestion: %s\n", err.Suggestion)
	}

	fmt.Fprintf(h.out, "\n%s\n", getCategoryHelp(err.Category))

	if h.verbose && err.Cause != nil {
		fmt.Fprintf(h.out, "\nUnderlying error: %v\n", err.Cause)
	}

	return err.GetExitCode()
}

// handleGenericError handles errors that were never classified, mostly
// cobra flag parsing failures
func (h *CLIErrorHandler) handleGenericError(err error) int {
	switch {
	case isFileNotFoundError(err):
		fmt.Fprintf(h.out, "Error: File not found\n")
		fmt.Fprintf(h.out, "Suggestion: Check if the file path is correct and the file exists\n")
		return 2
	case isPermissionError(err):
		fmt.Fprintf(h.out, "Error: Permission denied\n")
		fmt.Fprintf(h.out, "Suggestion: Check file permissions and ensure you have read access\n")
		return 2
	case isDiskFullError(err):
		fmt.Fprintf(h.out, "Error: Insufficient disk space\n")
		fmt.Fprintf(h.out, "Suggestion: Free up disk space and try again\n")
		return 2
	}

	fmt.Fprintf(h.out, "Error: %v\n", err)
	fmt.Fprintf(h.out, "Run 'analyzer --help' for usage.\n")
	return 1
}

// getCategoryHelp returns category-specific help text
func getCategoryHelp(category errors.ErrorCategory) string {
	switch category {
	case errors.CategoryFile:
		return `File error help:
• Check if the file exists and is readable
• Verify the output directories are writable
• Use absolute paths if relative ones resolve unexpectedly`

	case errors.CategoryParse:
		return `Parse error help:
• Lines must have 8 pipe-separated fields
• Quantity must be an integer and UnitPrice a decimal number
• Files may be UTF-8, ISO-8859-1 or Windows-1252 encoded`

	case errors.CategoryValidation:
		return `Validation error help:
• Amounts are plain numbers such as 1500 or 1500.50
• Leave an amount blank to apply no limit`

	case errors.CategoryConfiguration:
		return `Configuration error help:
• Check your command-line flags and ANALYZER_* environment variables
• Verify configuration file syntax if using --config
• Use 'analyzer analyze --help' to see all available options`

	case errors.CategoryNetwork:
		return `Network error help:
• Check connectivity to the catalog URL (--catalog-url)
• Increase --catalog-timeout or --catalog-retries
• Use --skip-enrichment to run offline`

	case errors.CategoryProcessing:
		return `Processing error help:
• Check the report and enriched file settings
• Run with --verbose to see which stage failed`

	default:
		return `For more help:
• Use 'analyzer --help' for general help
• Use 'analyzer analyze --help' for command-specific help
• Run with --verbose for the underlying error`
	}
}

// Error detection helpers

func isFileNotFoundError(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || strings.Contains(err.Error(), "no such file or directory")
}

func isPermissionError(err error) bool {
	return errors.Is(err, fs.ErrPermission) ||
		strings.Contains(err.Error(), "permission denied") ||
		strings.Contains(err.Error(), "access denied")
}

func isDiskFullError(err error) bool {
	if errors.Is(err, syscall.ENOSPC) {
		return true
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "no space left") ||
		strings.Contains(errStr, "disk full") ||
		strings.Contains(errStr, "device full")
}
