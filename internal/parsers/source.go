package parsers

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"golang-sales-analytics/pkg/errors"
	"golang-sales-analytics/pkg/logger"
)

// Supported file encodings
const (
	EncodingUTF8        = "utf-8"
	EncodingLatin1      = "latin-1"
	EncodingWindows1252 = "cp1252"
)

type decodeFunc func([]byte) (string, error)

var decoders = map[string]decodeFunc{
	EncodingUTF8: func(b []byte) (string, error) {
		if !utf8.Valid(b) {
			return "", fmt.Errorf("invalid UTF-8 byte sequence")
		}
		return string(b), nil
	},
	EncodingLatin1: func(b []byte) (string, error) {
		out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
		return string(out), err
	},
	EncodingWindows1252: func(b []byte) (string, error) {
		out, err := charmap.Windows1252.NewDecoder().Bytes(b)
		return string(out), err
	},
}

// SourceResult describes what was read from the sales file
type SourceResult struct {
	Lines    []string
	Encoding string
	Missing  bool
}

// LineSource reads raw transaction lines from a flat file
type LineSource struct {
	config *SourceConfig
	logger logger.Logger
}

// NewLineSource creates a LineSource with the given configuration
func NewLineSource(config *SourceConfig) (*LineSource, error) {
	if config == nil {
		config = DefaultSourceConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "source", config.Encodings, err)
	}
	return &LineSource{
		config: config,
		logger: logger.WithComponent("line_source"),
	}, nil
}

// ReadLines returns the trimmed, non-blank data lines of the file.
// A missing file yields an empty result rather than an error.
func (s *LineSource) ReadLines(path string) (*SourceResult, error) {
	log := s.logger.WithField("file_path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn("Sales file not found, continuing with no input")
			return &SourceResult{Lines: []string{}, Missing: true}, nil
		}
		if os.IsPermission(err) {
			return nil, errors.FileError(errors.CodeFilePermission, path, err)
		}
		return nil, errors.FileError(errors.CodeDirectoryError, path, err)
	}

	for _, enc := range s.config.Encodings {
		text, decodeErr := decoders[enc](data)
		if decodeErr != nil {
			log.WithField("encoding", enc).Debug("Decoding failed, trying next encoding")
			continue
		}

		lines := SplitLines(text, s.config.HasHeader)
		log.WithFields(logger.Fields{
			"encoding": enc,
			"lines":    len(lines),
		}).Debug("Read sales file")
		return &SourceResult{Lines: lines, Encoding: enc}, nil
	}

	return nil, errors.ParseError(errors.CodeEncodingError, path, 0, "", nil)
}

// lineBreaks folds CRLF and bare CR line endings into LF
var lineBreaks = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// SplitLines splits decoded text into trimmed lines, dropping the header
// (when present) and every blank line. LF, CRLF and bare CR all end a line.
func SplitLines(text string, hasHeader bool) []string {
	raw := strings.Split(lineBreaks.Replace(text), "\n")
	if hasHeader && len(raw) > 0 {
		raw = raw[1:]
	}

	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
