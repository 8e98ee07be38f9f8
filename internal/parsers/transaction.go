// Package parsers turns the raw pipe-delimited sales log into typed
// transactions.
//
// Reading and parsing are separate steps. LineSource reads the file, trying a
// list of encodings and dropping the header and blank lines. TransactionParser
// converts each line into either a Transaction or a skip reason; malformed
// lines never abort a run, they are counted in ParseStats.
//
// Example usage:
//
//	source, _ := NewLineSource(nil)
//	read, err := source.ReadLines("data/sales_data.txt")
//	parser, _ := NewTransactionParser(nil)
//	transactions, stats := parser.ParseLines(read.Lines)
package parsers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"golang-sales-analytics/internal/models"
	"golang-sales-analytics/pkg/errors"
	"golang-sales-analytics/pkg/logger"
)

// SkipReason explains why a line produced no transaction
type SkipReason string

const (
	SkipNone             SkipReason = ""
	SkipFieldCount       SkipReason = "field_count"
	SkipInvalidQuantity  SkipReason = "invalid_quantity"
	SkipInvalidUnitPrice SkipReason = "invalid_unit_price"
)

// ParseOutcome is the result of parsing a single line: either a
// Transaction or a skip reason, never both.
type ParseOutcome struct {
	Line        int
	Transaction *models.Transaction
	Skip        SkipReason
	Detail      string
}

// OK reports whether the line produced a transaction
func (o ParseOutcome) OK() bool {
	return o.Skip == SkipNone && o.Transaction != nil
}

// ParseStats holds statistics about a parsing run
type ParseStats struct {
	TotalLines    int
	RecordsParsed int
	Skipped       int
	SkipsByReason map[SkipReason]int
	Samples       []ParseOutcome
}

const maxSkipSamples = 5

// NewParseStats creates a new ParseStats instance
func NewParseStats() *ParseStats {
	return &ParseStats{SkipsByReason: make(map[SkipReason]int)}
}

func (ps *ParseStats) record(outcome ParseOutcome) {
	ps.TotalLines++
	if outcome.OK() {
		ps.RecordsParsed++
		return
	}
	ps.Skipped++
	ps.SkipsByReason[outcome.Skip]++
	if len(ps.Samples) < maxSkipSamples {
		ps.Samples = append(ps.Samples, outcome)
	}
}

// String returns a human-readable summary of parsing statistics
func (ps *ParseStats) String() string {
	return fmt.Sprintf("Parsed %d lines, %d records, %d skipped",
		ps.TotalLines, ps.RecordsParsed, ps.Skipped)
}

// TransactionParser converts delimited lines into transactions
type TransactionParser struct {
	config *ParserConfig
	logger logger.Logger
}

// NewTransactionParser creates a new TransactionParser with the given configuration
func NewTransactionParser(config *ParserConfig) (*TransactionParser, error) {
	if config == nil {
		config = DefaultParserConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(
			errors.CodeInvalidConfig,
			"parser",
			config.Delimiter,
			err,
		).WithSuggestion("Use a single-character delimiter such as '|'")
	}

	return &TransactionParser{
		config: config,
		logger: logger.WithComponent("transaction_parser"),
	}, nil
}

// ParseLines parses every line in order. Output order follows input order;
// skipped lines are only counted.
func (tp *TransactionParser) ParseLines(lines []string) ([]models.Transaction, *ParseStats) {
	stats := NewParseStats()
	transactions := make([]models.Transaction, 0, len(lines))

	for i, line := range lines {
		outcome := tp.ParseLine(line)
		outcome.Line = i + 1
		stats.record(outcome)

		if !outcome.OK() {
			tp.logger.WithFields(logger.Fields{
				"line":   outcome.Line,
				"reason": outcome.Skip,
				"detail": outcome.Detail,
			}).Debug("Skipping malformed line")
			continue
		}
		transactions = append(transactions, *outcome.Transaction)
	}

	tp.logger.WithFields(logger.Fields{
		"total_lines":    stats.TotalLines,
		"records_parsed": stats.RecordsParsed,
		"skipped":        stats.Skipped,
	}).Info("Transaction parsing completed")

	return transactions, stats
}

// ParseLine parses a single line
func (tp *TransactionParser) ParseLine(line string) ParseOutcome {
	parts := strings.Split(line, tp.config.Delimiter)
	if len(parts) != tp.config.FieldCount {
		return ParseOutcome{
			Skip:   SkipFieldCount,
			Detail: fmt.Sprintf("expected %d fields, got %d", tp.config.FieldCount, len(parts)),
		}
	}

	quantityStr := tp.stripSeparators(parts[4])
	quantity, err := strconv.Atoi(quantityStr)
	if err != nil {
		return ParseOutcome{Skip: SkipInvalidQuantity, Detail: fmt.Sprintf("quantity %q", quantityStr)}
	}

	priceStr := tp.stripSeparators(parts[5])
	unitPrice, err := decimal.NewFromString(priceStr)
	if err != nil {
		return ParseOutcome{Skip: SkipInvalidUnitPrice, Detail: fmt.Sprintf("unit price %q", priceStr)}
	}

	return ParseOutcome{
		Transaction: &models.Transaction{
			TransactionID: strings.TrimSpace(parts[0]),
			Date:          strings.TrimSpace(parts[1]),
			ProductID:     strings.TrimSpace(parts[2]),
			ProductName:   tp.stripSeparators(parts[3]),
			Quantity:      quantity,
			UnitPrice:     unitPrice,
			CustomerID:    strings.TrimSpace(parts[6]),
			Region:        strings.TrimSpace(parts[7]),
		},
	}
}

func (tp *TransactionParser) stripSeparators(field string) string {
	if tp.config.ThousandsSeparator != "" {
		field = strings.ReplaceAll(field, tp.config.ThousandsSeparator, "")
	}
	return strings.TrimSpace(field)
}
