package enrichment

import (
	"github.com/xuri/excelize/v2"

	"golang-sales-analytics/internal/models"
	"golang-sales-analytics/pkg/errors"
)

// XLSXSheetName is the worksheet the enriched rows are written to
const XLSXSheetName = "Enriched Sales"

// SaveEnrichedXLSX writes the enriched rows as a spreadsheet. Numeric
// columns are stored as numbers; absent catalog fields are left blank.
func SaveEnrichedXLSX(path string, rows []models.EnrichedTransaction) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), XLSXSheetName); err != nil {
		return errors.FileError(errors.CodeFileWrite, path, err)
	}

	header := make([]interface{}, len(EnrichedHeader))
	for i, h := range EnrichedHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(XLSXSheetName, "A1", &header); err != nil {
		return errors.FileError(errors.CodeFileWrite, path, err)
	}

	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.FileError(errors.CodeFileWrite, path, err)
		}
		values := xlsxRow(&rows[i])
		if err := f.SetSheetRow(XLSXSheetName, cell, &values); err != nil {
			return errors.FileError(errors.CodeFileWrite, path, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return errors.FileError(errors.CodeFileWrite, path, err)
	}
	return nil
}

func xlsxRow(row *models.EnrichedTransaction) []interface{} {
	price, _ := row.UnitPrice.Float64()

	values := []interface{}{
		row.TransactionID,
		row.Date,
		row.ProductID,
		row.ProductName,
		row.Quantity,
		price,
		row.CustomerID,
		row.Region,
		nil,
		nil,
		nil,
		row.APIMatch,
	}
	if row.APICategory != nil {
		values[8] = *row.APICategory
	}
	if row.APIBrand != nil {
		values[9] = *row.APIBrand
	}
	if row.APIRating != nil {
		values[10] = *row.APIRating
	}
	return values
}
