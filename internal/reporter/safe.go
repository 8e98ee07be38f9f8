package reporter

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang-sales-analytics/pkg/errors"
	"golang-sales-analytics/pkg/logger"
)

// SafeReportGenerator wraps ReportGenerator with input validation, typed
// errors and a backup location for the report file
type SafeReportGenerator struct {
	*ReportGenerator
	logger logger.Logger
}

// NewSafeReportGenerator creates a new safe report generator with error handling
func NewSafeReportGenerator(config *ReportConfig, log logger.Logger) (*SafeReportGenerator, error) {
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	generator, err := NewReportGenerator(config)
	if err != nil {
		return nil, errors.ConfigurationError(
			errors.CodeInvalidConfig,
			"report_config",
			config,
			err,
		).WithSuggestion("Check the report format and section sizes")
	}

	return &SafeReportGenerator{
		ReportGenerator: generator,
		logger:          log.WithComponent("reporter"),
	}, nil
}

// GenerateReportSafely renders the report to writer, returning typed errors
func (srg *SafeReportGenerator) GenerateReportSafely(data *ReportData, writer io.Writer) error {
	if err := srg.validateInputs(data, writer); err != nil {
		srg.logger.WithError(err).Error("Report generation failed: input validation")
		return err
	}

	if err := srg.GenerateReport(data, writer); err != nil {
		wrapped := errors.ProcessingError(errors.CodeReportFailed, "report", err)
		srg.logger.WithError(wrapped).Error("Report generation failed")
		return wrapped
	}
	return nil
}

// WriteReportFile renders the report and writes it to path, creating parent
// directories. When path cannot be written, the report goes to a backup file
// in the system temp directory and that path is returned.
func (srg *SafeReportGenerator) WriteReportFile(data *ReportData, path string) (string, error) {
	var buf bytes.Buffer
	if err := srg.GenerateReportSafely(data, &buf); err != nil {
		return "", err
	}

	log := srg.logger.WithFields(logger.Fields{
		"format":    srg.config.Format,
		"file_path": path,
	})

	primaryErr := writeFile(path, buf.Bytes())
	if primaryErr == nil {
		log.Info("Report written")
		return path, nil
	}

	if !isFileError(primaryErr) {
		return "", errors.FileError(errors.CodeFileWrite, path, primaryErr)
	}

	backupPath := generateBackupPath(path)
	log.WithError(primaryErr).WithField("backup_file", backupPath).Warn("Could not write report, attempting backup location")

	if err := writeFile(backupPath, buf.Bytes()); err != nil {
		return "", errors.FileError(
			errors.CodeFileWrite,
			path,
			fmt.Errorf("both primary and backup output failed: primary=%v, backup=%v", primaryErr, err),
		)
	}
	return backupPath, nil
}

// validateInputs validates the inputs for report generation
func (srg *SafeReportGenerator) validateInputs(data *ReportData, writer io.Writer) error {
	if data == nil || data.Analysis == nil {
		return errors.ValidationError(
			errors.CodeMissingField,
			"analysis",
			nil,
			nil,
		).WithSuggestion("Run the analysis before generating a report")
	}

	if writer == nil {
		return errors.ValidationError(
			errors.CodeMissingField,
			"writer",
			nil,
			nil,
		).WithSuggestion("Provide a valid output writer")
	}

	return nil
}

func writeFile(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, content, 0o644)
}

// isFileError checks if the error is one a different location may avoid
func isFileError(err error) bool {
	return os.IsPermission(err) || os.IsNotExist(err) || os.IsExist(err)
}

// generateBackupPath creates a backup file path
func generateBackupPath(originalPath string) string {
	base := filepath.Base(originalPath)
	ext := filepath.Ext(base)
	name := base[:len(base)-len(ext)]

	return filepath.Join(os.TempDir(), fmt.Sprintf("%s_backup%s", name, ext))
}
