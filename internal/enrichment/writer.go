package enrichment

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang-sales-analytics/internal/models"
	"golang-sales-analytics/pkg/errors"
)

// EnrichedHeader is the fixed column order of the enriched output file
var EnrichedHeader = []string{
	"TransactionID", "Date", "ProductID", "ProductName",
	"Quantity", "UnitPrice", "CustomerID", "Region",
	"API_Category", "API_Brand", "API_Rating", "API_Match",
}

// FormatRow renders the columns of one enriched row. Absent catalog fields
// render as empty strings.
func FormatRow(row *models.EnrichedTransaction) []string {
	return []string{
		row.TransactionID,
		row.Date,
		row.ProductID,
		row.ProductName,
		strconv.Itoa(row.Quantity),
		row.UnitPrice.String(),
		row.CustomerID,
		row.Region,
		stringOrEmpty(row.APICategory),
		stringOrEmpty(row.APIBrand),
		ratingOrEmpty(row.APIRating),
		strconv.FormatBool(row.APIMatch),
	}
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func ratingOrEmpty(r *float64) string {
	if r == nil {
		return ""
	}
	return strconv.FormatFloat(*r, 'f', -1, 64)
}

// WriteEnriched writes the header and one delimited line per row
func WriteEnriched(w io.Writer, rows []models.EnrichedTransaction, delimiter string) error {
	bw := bufio.NewWriter(w)

	if _, err := bw.WriteString(strings.Join(EnrichedHeader, delimiter) + "\n"); err != nil {
		return err
	}
	for i := range rows {
		if _, err := bw.WriteString(strings.Join(FormatRow(&rows[i]), delimiter) + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// SaveEnrichedFile writes the enriched rows to path, replacing any existing
// file and creating parent directories as needed.
func SaveEnrichedFile(path string, rows []models.EnrichedTransaction, delimiter string) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return errors.FileError(errors.CodeFileWrite, path, err)
	}

	if err := WriteEnriched(file, rows, delimiter); err != nil {
		file.Close()
		return errors.FileError(errors.CodeFileWrite, path, err)
	}
	if err := file.Close(); err != nil {
		return errors.FileError(errors.CodeFileWrite, path, err)
	}
	return nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.FileError(errors.CodeDirectoryError, dir, err)
	}
	return nil
}
