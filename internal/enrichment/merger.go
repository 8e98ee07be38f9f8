// Package enrichment joins filtered transactions to the external product
// catalog. A transaction's ProductID carries an embedded number; every digit
// is concatenated and the resulting integer is looked up in a ProductMapping.
//
// Lookup failures never abort a run. A ProductID without digits, an id that
// does not fit an int and an id absent from the catalog all degrade to a
// no-match row with empty catalog fields, and the reason is kept in
// EnrichedTransaction.Status so it can be counted.
package enrichment

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"golang-sales-analytics/internal/models"
)

// ExtractNumericID concatenates the decimal digits of productID in order and
// parses them as an int. Any Unicode decimal digit counts, so "P١٠١" yields
// 101. The status is MatchFound when an id was extracted, otherwise it names
// the reason no id is available.
func ExtractNumericID(productID string) (int, models.MatchStatus) {
	var digits strings.Builder
	for _, r := range productID {
		if unicode.IsDigit(r) {
			digits.WriteByte(byte('0' + digitValue(r)))
		}
	}
	if digits.Len() == 0 {
		return 0, models.MatchNoDigits
	}

	id, err := strconv.Atoi(digits.String())
	if err != nil {
		return 0, models.MatchInvalidID
	}
	return id, models.MatchFound
}

// digitValue returns the value of a decimal digit rune. Decimal digits are
// encoded in contiguous blocks of ten starting at zero, so the value is the
// offset from the start of the enclosing run of digit code points.
func digitValue(r rune) int {
	start := r
	for start > 0 && unicode.IsDigit(start-1) {
		start--
	}
	return int(r-start) % 10
}

// CreateProductMapping indexes catalog entries by id. Entries without an id
// are ignored; when an id repeats, the last entry wins.
func CreateProductMapping(entries []models.ProductCatalogEntry) models.ProductMapping {
	mapping := make(models.ProductMapping, len(entries))
	for _, entry := range entries {
		if entry.ID == nil {
			continue
		}
		mapping[*entry.ID] = models.CatalogProduct{
			Title:    entry.Title,
			Category: entry.Category,
			Brand:    entry.Brand,
			Rating:   entry.Rating,
		}
	}
	return mapping
}

// EnrichTransaction returns a copy of tx with the catalog fields attached.
// A nil mapping behaves like an empty one.
func EnrichTransaction(tx models.Transaction, mapping models.ProductMapping) models.EnrichedTransaction {
	enriched := models.EnrichedTransaction{Transaction: tx}

	id, status := ExtractNumericID(tx.ProductID)
	if status != models.MatchFound {
		enriched.Status = status
		return enriched
	}

	product, ok := mapping[id]
	if !ok {
		enriched.Status = models.MatchNotInCatalog
		return enriched
	}

	enriched.APICategory = product.Category
	enriched.APIBrand = product.Brand
	enriched.APIRating = product.Rating
	enriched.APIMatch = true
	enriched.Status = models.MatchFound
	return enriched
}

// Enrich enriches every transaction. The output has exactly one row per
// input record, in input order.
func Enrich(transactions []models.Transaction, mapping models.ProductMapping) []models.EnrichedTransaction {
	enriched := make([]models.EnrichedTransaction, len(transactions))
	for i := range transactions {
		enriched[i] = EnrichTransaction(transactions[i], mapping)
	}
	return enriched
}

// ComputeStats summarises an enrichment run. SuccessRate is a percentage
// rounded to 2 places; FailedProducts lists each unmatched product name once,
// in first-seen order.
func ComputeStats(enriched []models.EnrichedTransaction) models.EnrichmentStats {
	stats := models.EnrichmentStats{
		Total:          len(enriched),
		SuccessRate:    decimal.Zero,
		FailedProducts: []string{},
	}

	seen := make(map[string]struct{})
	for i := range enriched {
		row := &enriched[i]
		if row.APIMatch {
			stats.Matched++
			continue
		}
		if _, ok := seen[row.ProductName]; !ok {
			seen[row.ProductName] = struct{}{}
			stats.FailedProducts = append(stats.FailedProducts, row.ProductName)
		}
	}

	if stats.Total > 0 {
		stats.SuccessRate = decimal.NewFromInt(int64(stats.Matched)).
			Mul(decimal.NewFromInt(100)).
			Div(decimal.NewFromInt(int64(stats.Total))).
			Round(2)
	}
	return stats
}

// CountByStatus tallies enriched rows by match status
func CountByStatus(enriched []models.EnrichedTransaction) map[models.MatchStatus]int {
	counts := make(map[models.MatchStatus]int)
	for i := range enriched {
		counts[enriched[i].Status]++
	}
	return counts
}
