package parsers

import (
	"fmt"

	"golang-sales-analytics/internal/models"
)

// ParserConfig holds configuration for parsing transaction lines
type ParserConfig struct {
	// Delimiter separates the fields of one line
	Delimiter string `json:"delimiter" mapstructure:"delimiter"`
	// FieldCount is the exact number of fields a line must split into
	FieldCount int `json:"field_count" mapstructure:"field_count"`
	// ThousandsSeparator is stripped from numeric fields and product names
	ThousandsSeparator string `json:"thousands_separator" mapstructure:"thousands_separator"`
}

// DefaultParserConfig returns the configuration for the pipe-delimited sales log
func DefaultParserConfig() *ParserConfig {
	return &ParserConfig{
		Delimiter:          "|",
		FieldCount:         models.FieldCount,
		ThousandsSeparator: ",",
	}
}

// Validate checks if the parser configuration is valid
func (c *ParserConfig) Validate() error {
	if c.Delimiter == "" {
		return fmt.Errorf("delimiter cannot be empty")
	}
	if c.FieldCount != models.FieldCount {
		return fmt.Errorf("field count must be %d, got %d", models.FieldCount, c.FieldCount)
	}
	if c.ThousandsSeparator == c.Delimiter {
		return fmt.Errorf("thousands separator cannot equal the delimiter %q", c.Delimiter)
	}
	return nil
}

// SourceConfig holds configuration for reading the raw sales file
type SourceConfig struct {
	// HasHeader drops the first line of the file
	HasHeader bool `json:"has_header" mapstructure:"has_header"`
	// Encodings are tried in order until one decodes the file
	Encodings []string `json:"encodings" mapstructure:"encodings"`
}

// DefaultSourceConfig returns the reader configuration used by the CLI
func DefaultSourceConfig() *SourceConfig {
	return &SourceConfig{
		HasHeader: true,
		Encodings: []string{EncodingUTF8, EncodingLatin1, EncodingWindows1252},
	}
}

// Validate checks if the source configuration is valid
func (c *SourceConfig) Validate() error {
	if len(c.Encodings) == 0 {
		return fmt.Errorf("at least one encoding is required")
	}
	for _, enc := range c.Encodings {
		if _, ok := decoders[enc]; !ok {
			return fmt.Errorf("unsupported encoding %q", enc)
		}
	}
	return nil
}
