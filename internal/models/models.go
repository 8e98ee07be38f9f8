// Package models holds the data types shared by every stage of the sales
// analytics pipeline: parsed transactions, catalog entries, enriched rows and
// the aggregation results computed from a filtered transaction set.
package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// TransactionIDPrefix is the literal prefix every valid transaction ID carries
const TransactionIDPrefix = "T"

// DateLayout is the YYYY-MM-DD layout of transaction dates
const DateLayout = "2006-01-02"

// FieldCount is the number of delimited fields in one raw transaction line
const FieldCount = 8

// Transaction represents one sales record from the transaction log
type Transaction struct {
	TransactionID string          `json:"transaction_id" yaml:"transaction_id"`
	Date          string          `json:"date" yaml:"date"`
	ProductID     string          `json:"product_id" yaml:"product_id"`
	ProductName   string          `json:"product_name" yaml:"product_name"`
	Quantity      int             `json:"quantity" yaml:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price" yaml:"unit_price"`
	CustomerID    string          `json:"customer_id" yaml:"customer_id"`
	Region        string          `json:"region" yaml:"region"`

	// Amount is Quantity × UnitPrice, attached once the record passes
	// validation. Aggregations read it and never recompute it.
	Amount decimal.Decimal `json:"amount" yaml:"amount"`
}

// LineTotal computes Quantity × UnitPrice from the raw fields
func (t *Transaction) LineTotal() decimal.Decimal {
	return t.UnitPrice.Mul(decimal.NewFromInt(int64(t.Quantity)))
}

// Validate checks the business rules a record must satisfy to be analysed
func (t *Transaction) Validate() error {
	var problems []string

	if t.CustomerID == "" {
		problems = append(problems, "customer ID is empty")
	}
	if t.Region == "" {
		problems = append(problems, "region is empty")
	}
	if t.Quantity <= 0 {
		problems = append(problems, fmt.Sprintf("quantity %d is not positive", t.Quantity))
	}
	if !t.UnitPrice.IsPositive() {
		problems = append(problems, fmt.Sprintf("unit price %s is not positive", t.UnitPrice))
	}
	if !strings.HasPrefix(t.TransactionID, TransactionIDPrefix) {
		problems = append(problems, fmt.Sprintf("transaction ID %q does not start with %q", t.TransactionID, TransactionIDPrefix))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid transaction %s: %s", t.TransactionID, strings.Join(problems, "; "))
	}
	return nil
}

// String returns a string representation of the Transaction
func (t *Transaction) String() string {
	return fmt.Sprintf("Transaction{ID: %s, Date: %s, Product: %s, Qty: %d, Price: %s, Customer: %s, Region: %s}",
		t.TransactionID, t.Date, t.ProductID, t.Quantity, t.UnitPrice, t.CustomerID, t.Region)
}

// ProductCatalogEntry is one product as returned by the external catalog.
// Every field is optional on the wire; entries without an id are unusable.
type ProductCatalogEntry struct {
	ID       *int     `json:"id"`
	Title    *string  `json:"title"`
	Category *string  `json:"category"`
	Brand    *string  `json:"brand"`
	Rating   *float64 `json:"rating"`
}

// CatalogProduct is the subset of catalog data the merger copies
type CatalogProduct struct {
	Title    *string
	Category *string
	Brand    *string
	Rating   *float64
}

// ProductMapping maps a numeric product id to its catalog data
type ProductMapping map[int]CatalogProduct

// MatchStatus records why enrichment did or did not find a catalog entry
type MatchStatus string

const (
	MatchFound        MatchStatus = "matched"
	MatchNoDigits     MatchStatus = "no_digits"
	MatchInvalidID    MatchStatus = "invalid_id"
	MatchNotInCatalog MatchStatus = "not_in_catalog"
)

// EnrichedTransaction is a Transaction plus the catalog fields joined onto it
type EnrichedTransaction struct {
	Transaction

	APICategory *string  `json:"api_category" yaml:"api_category"`
	APIBrand    *string  `json:"api_brand" yaml:"api_brand"`
	APIRating   *float64 `json:"api_rating" yaml:"api_rating"`
	APIMatch    bool     `json:"api_match" yaml:"api_match"`

	Status MatchStatus `json:"-" yaml:"-"`
}

// FilterOptions are the optional user constraints applied after validation.
// An empty Region and invalid NullDecimals mean "no constraint".
type FilterOptions struct {
	Region    string
	MinAmount decimal.NullDecimal
	MaxAmount decimal.NullDecimal
}

// IsEmpty reports whether no constraint is set
func (f FilterOptions) IsEmpty() bool {
	return f.Region == "" && !f.MinAmount.Valid && !f.MaxAmount.Valid
}

// ValidationSummary carries the counts produced by validation and filtering
type ValidationSummary struct {
	TotalInput int `json:"total_input" yaml:"total_input"`
	Invalid    int `json:"invalid" yaml:"invalid"`
	Valid      int `json:"valid" yaml:"valid"`
	FinalCount int `json:"final_count" yaml:"final_count"`
}

// RegionSummary is the revenue share of one region
type RegionSummary struct {
	Region           string          `json:"region" yaml:"region"`
	TotalSales       decimal.Decimal `json:"total_sales" yaml:"total_sales"`
	TransactionCount int             `json:"transaction_count" yaml:"transaction_count"`
	Percentage       decimal.Decimal `json:"percentage" yaml:"percentage"`
}

// ProductRanking is the sold volume and revenue of one product name
type ProductRanking struct {
	Name     string          `json:"name" yaml:"name"`
	Quantity int             `json:"quantity" yaml:"quantity"`
	Revenue  decimal.Decimal `json:"revenue" yaml:"revenue"`
}

// CustomerSummary aggregates the purchases of one customer
type CustomerSummary struct {
	CustomerID       string          `json:"customer_id" yaml:"customer_id"`
	TotalSpent       decimal.Decimal `json:"total_spent" yaml:"total_spent"`
	PurchaseCount    int             `json:"purchase_count" yaml:"purchase_count"`
	AvgOrderValue    decimal.Decimal `json:"avg_order_value" yaml:"avg_order_value"`
	DistinctProducts []string        `json:"distinct_products" yaml:"distinct_products"`
}

// DailyTrend aggregates the sales of one date
type DailyTrend struct {
	Date             string          `json:"date" yaml:"date"`
	Revenue          decimal.Decimal `json:"revenue" yaml:"revenue"`
	TransactionCount int             `json:"transaction_count" yaml:"transaction_count"`
	UniqueCustomers  int             `json:"unique_customers" yaml:"unique_customers"`
}

// PeakDay is the date with the highest revenue
type PeakDay struct {
	Date             string          `json:"date" yaml:"date"`
	Revenue          decimal.Decimal `json:"revenue" yaml:"revenue"`
	TransactionCount int             `json:"transaction_count" yaml:"transaction_count"`
}

// DateRange is the lexicographic span of transaction dates
type DateRange struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

// String renders the range, or N/A when empty
func (r *DateRange) String() string {
	if r == nil {
		return "N/A"
	}
	return fmt.Sprintf("%s to %s", r.From, r.To)
}

// SalesAnalysis bundles every aggregation computed for one filtered set
type SalesAnalysis struct {
	TotalRevenue      decimal.Decimal   `json:"total_revenue" yaml:"total_revenue"`
	TransactionCount  int               `json:"transaction_count" yaml:"transaction_count"`
	AverageOrderValue decimal.Decimal   `json:"average_order_value" yaml:"average_order_value"`
	DateRange         *DateRange        `json:"date_range,omitempty" yaml:"date_range,omitempty"`
	Regions           []RegionSummary   `json:"regions" yaml:"regions"`
	TopProducts       []ProductRanking  `json:"top_products" yaml:"top_products"`
	Customers         []CustomerSummary `json:"customers" yaml:"customers"`
	DailyTrend        []DailyTrend      `json:"daily_trend" yaml:"daily_trend"`
	PeakDay           *PeakDay          `json:"peak_day,omitempty" yaml:"peak_day,omitempty"`
	LowPerformers     []ProductRanking  `json:"low_performers" yaml:"low_performers"`
}

// EnrichmentStats summarises how many rows matched the catalog
type EnrichmentStats struct {
	Total          int             `json:"total" yaml:"total"`
	Matched        int             `json:"matched" yaml:"matched"`
	SuccessRate    decimal.Decimal `json:"success_rate" yaml:"success_rate"`
	FailedProducts []string        `json:"failed_products" yaml:"failed_products"`
}
