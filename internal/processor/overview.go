package processor

import (
	"sort"

	"github.com/shopspring/decimal"

	"golang-sales-analytics/internal/models"
)

// FilterOverview lists what a user can filter on before validation runs
type FilterOverview struct {
	Regions   []string
	MinAmount decimal.Decimal
	MaxAmount decimal.Decimal
	HasAmount bool
}

// BuildFilterOverview collects the sorted distinct regions and the
// Quantity × UnitPrice range over parsed (not yet validated) records.
func BuildFilterOverview(transactions []models.Transaction) FilterOverview {
	seen := make(map[string]struct{})
	overview := FilterOverview{Regions: []string{}}

	for i := range transactions {
		tx := &transactions[i]
		if _, ok := seen[tx.Region]; !ok {
			seen[tx.Region] = struct{}{}
			overview.Regions = append(overview.Regions, tx.Region)
		}

		amount := tx.LineTotal()
		if !overview.HasAmount {
			overview.MinAmount, overview.MaxAmount, overview.HasAmount = amount, amount, true
			continue
		}
		if amount.LessThan(overview.MinAmount) {
			overview.MinAmount = amount
		}
		if amount.GreaterThan(overview.MaxAmount) {
			overview.MaxAmount = amount
		}
	}

	sort.Strings(overview.Regions)
	return overview
}
