// Package processor cleans parsed transactions: it drops records that break
// business rules, attaches the derived Amount, and applies the optional
// region and amount filters supplied by the user.
package processor

import (
	"golang-sales-analytics/internal/models"
	"golang-sales-analytics/pkg/logger"
)

// Validator validates and filters parsed transactions
type Validator struct {
	logger logger.Logger
}

// NewValidator creates a new Validator
func NewValidator() *Validator {
	return &Validator{logger: logger.WithComponent("validator")}
}

// ValidateAndFilter drops invalid records, attaches Amount to the valid ones
// and then applies the filters in order: region, minimum amount, maximum
// amount. The invalid count reflects validation only. The input slice is
// not modified.
func (v *Validator) ValidateAndFilter(transactions []models.Transaction, filter models.FilterOptions) ([]models.Transaction, int, models.ValidationSummary) {
	valid := make([]models.Transaction, 0, len(transactions))
	invalid := 0

	for _, tx := range transactions {
		if err := tx.Validate(); err != nil {
			invalid++
			v.logger.WithError(err).Debug("Dropping invalid transaction")
			continue
		}
		tx.Amount = tx.LineTotal()
		valid = append(valid, tx)
	}

	filtered := ApplyFilters(valid, filter)

	summary := models.ValidationSummary{
		TotalInput: len(transactions),
		Invalid:    invalid,
		Valid:      len(valid),
		FinalCount: len(filtered),
	}

	v.logger.WithFields(logger.Fields{
		"total_input": summary.TotalInput,
		"invalid":     summary.Invalid,
		"valid":       summary.Valid,
		"final_count": summary.FinalCount,
		"filtered":    !filter.IsEmpty(),
	}).Info("Validation completed")

	return filtered, invalid, summary
}

// ApplyFilters keeps the records that satisfy every set constraint.
// Records must already carry Amount.
func ApplyFilters(transactions []models.Transaction, filter models.FilterOptions) []models.Transaction {
	filtered := make([]models.Transaction, 0, len(transactions))

	for _, tx := range transactions {
		if filter.Region != "" && tx.Region != filter.Region {
			continue
		}
		if filter.MinAmount.Valid && tx.Amount.LessThan(filter.MinAmount.Decimal) {
			continue
		}
		if filter.MaxAmount.Valid && tx.Amount.GreaterThan(filter.MaxAmount.Decimal) {
			continue
		}
		filtered = append(filtered, tx)
	}

	return filtered
}
