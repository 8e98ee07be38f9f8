// Package analytics computes the sales aggregations: revenue totals, region
// shares, product and customer rankings, daily trends, the peak day and low
// performers.
//
// Every function is a pure computation over a filtered transaction set. The
// input is never modified and the derived Amount of each record is reused
// rather than recomputed. Groupings are built with OrderedGroups, so any
// output that is not explicitly sorted follows the first-seen order of its
// group key.
package analytics

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"golang-sales-analytics/internal/models"
	"golang-sales-analytics/pkg/logger"
)

var hundred = decimal.NewFromInt(100)

// Config holds the ranking parameters of the engine
type Config struct {
	TopProducts  int `json:"top_products" mapstructure:"top_products"`
	LowThreshold int `json:"low_threshold" mapstructure:"low_threshold"`
}

// DefaultConfig returns the default ranking parameters
func DefaultConfig() *Config {
	return &Config{
		TopProducts:  5,
		LowThreshold: 10,
	}
}

// Validate validates the engine configuration
func (c *Config) Validate() error {
	if c.TopProducts < 1 {
		return fmt.Errorf("top products must be at least 1, got %d", c.TopProducts)
	}
	if c.LowThreshold < 0 {
		return fmt.Errorf("low-performer threshold cannot be negative, got %d", c.LowThreshold)
	}
	return nil
}

// Engine runs every aggregation over one filtered set
type Engine struct {
	config *Config
	logger logger.Logger
}

// NewEngine creates a new Engine
func NewEngine(config *Config) (*Engine, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		config: config,
		logger: logger.WithComponent("analytics"),
	}, nil
}

// Analyze computes the full SalesAnalysis for the given records
func (e *Engine) Analyze(transactions []models.Transaction) *models.SalesAnalysis {
	total := TotalRevenue(transactions)

	analysis := &models.SalesAnalysis{
		TotalRevenue:      total,
		TransactionCount:  len(transactions),
		AverageOrderValue: decimal.Zero,
		DateRange:         DateRangeOf(transactions),
		Regions:           RegionWiseSales(transactions),
		TopProducts:       TopSellingProducts(transactions, e.config.TopProducts),
		Customers:         CustomerAnalysis(transactions),
		DailyTrend:        DailySalesTrend(transactions),
		LowPerformers:     LowPerformingProducts(transactions, e.config.LowThreshold),
	}
	if len(transactions) > 0 {
		analysis.AverageOrderValue = total.Div(decimal.NewFromInt(int64(len(transactions))))
	}
	if peak, ok := FindPeakSalesDay(transactions); ok {
		analysis.PeakDay = &peak
	}

	e.logger.WithFields(logger.Fields{
		"transactions":   analysis.TransactionCount,
		"total_revenue":  total.StringFixed(2),
		"regions":        len(analysis.Regions),
		"customers":      len(analysis.Customers),
		"days":           len(analysis.DailyTrend),
		"low_performers": len(analysis.LowPerformers),
	}).Info("Analysis completed")

	return analysis
}

// TotalRevenue sums Amount over all records
func TotalRevenue(transactions []models.Transaction) decimal.Decimal {
	total := decimal.Zero
	for i := range transactions {
		total = total.Add(transactions[i].Amount)
	}
	return total
}

type regionAcc struct {
	sales decimal.Decimal
	count int
}

// RegionWiseSales groups revenue by region in first-seen order. Percentage
// is the region's share of total revenue rounded to 2 places, or 0 when
// total revenue is 0.
func RegionWiseSales(transactions []models.Transaction) []models.RegionSummary {
	total := TotalRevenue(transactions)
	groups := NewOrderedGroups[regionAcc]()

	for i := range transactions {
		tx := &transactions[i]
		acc := groups.Upsert(tx.Region, func() regionAcc { return regionAcc{sales: decimal.Zero} })
		acc.sales = acc.sales.Add(tx.Amount)
		acc.count++
	}

	result := make([]models.RegionSummary, 0, groups.Len())
	groups.Each(func(region string, acc *regionAcc) {
		percentage := decimal.Zero
		if !total.IsZero() {
			percentage = acc.sales.Mul(hundred).Div(total).Round(2)
		}
		result = append(result, models.RegionSummary{
			Region:           region,
			TotalSales:       acc.sales,
			TransactionCount: acc.count,
			Percentage:       percentage,
		})
	})
	return result
}

func groupProducts(transactions []models.Transaction) []models.ProductRanking {
	groups := NewOrderedGroups[models.ProductRanking]()

	for i := range transactions {
		tx := &transactions[i]
		acc := groups.Upsert(tx.ProductName, func() models.ProductRanking {
			return models.ProductRanking{Name: tx.ProductName, Revenue: decimal.Zero}
		})
		acc.Quantity += tx.Quantity
		acc.Revenue = acc.Revenue.Add(tx.Amount)
	}

	products := make([]models.ProductRanking, 0, groups.Len())
	groups.Each(func(_ string, acc *models.ProductRanking) {
		products = append(products, *acc)
	})
	return products
}

// TopSellingProducts ranks products by total quantity sold, descending.
// Revenue plays no part in the order; ties keep first-seen order.
func TopSellingProducts(transactions []models.Transaction, n int) []models.ProductRanking {
	products := groupProducts(transactions)

	sort.SliceStable(products, func(i, j int) bool {
		return products[i].Quantity > products[j].Quantity
	})

	if n < 0 {
		n = 0
	}
	if n < len(products) {
		products = products[:n]
	}
	return products
}

// LowPerformingProducts returns products whose total quantity is strictly
// below threshold, in first-seen order.
func LowPerformingProducts(transactions []models.Transaction, threshold int) []models.ProductRanking {
	low := []models.ProductRanking{}
	for _, product := range groupProducts(transactions) {
		if product.Quantity < threshold {
			low = append(low, product)
		}
	}
	return low
}

type customerAcc struct {
	spent    decimal.Decimal
	count    int
	products []string
	seen     map[string]struct{}
}

// CustomerAnalysis groups purchases by customer and sorts the result by
// total spent, descending. Customers with equal spend keep first-seen order.
func CustomerAnalysis(transactions []models.Transaction) []models.CustomerSummary {
	groups := NewOrderedGroups[customerAcc]()

	for i := range transactions {
		tx := &transactions[i]
		acc := groups.Upsert(tx.CustomerID, func() customerAcc {
			return customerAcc{spent: decimal.Zero, seen: make(map[string]struct{})}
		})
		acc.spent = acc.spent.Add(tx.Amount)
		acc.count++
		if _, ok := acc.seen[tx.ProductName]; !ok {
			acc.seen[tx.ProductName] = struct{}{}
			acc.products = append(acc.products, tx.ProductName)
		}
	}

	result := make([]models.CustomerSummary, 0, groups.Len())
	groups.Each(func(id string, acc *customerAcc) {
		result = append(result, models.CustomerSummary{
			CustomerID:       id,
			TotalSpent:       acc.spent,
			PurchaseCount:    acc.count,
			AvgOrderValue:    acc.spent.Div(decimal.NewFromInt(int64(acc.count))).Round(2),
			DistinctProducts: acc.products,
		})
	})

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].TotalSpent.GreaterThan(result[j].TotalSpent)
	})
	return result
}

type dayAcc struct {
	revenue   decimal.Decimal
	count     int
	customers map[string]struct{}
}

// DailySalesTrend groups revenue by date in first-seen order, which is not
// necessarily chronological.
func DailySalesTrend(transactions []models.Transaction) []models.DailyTrend {
	groups := NewOrderedGroups[dayAcc]()

	for i := range transactions {
		tx := &transactions[i]
		acc := groups.Upsert(tx.Date, func() dayAcc {
			return dayAcc{revenue: decimal.Zero, customers: make(map[string]struct{})}
		})
		acc.revenue = acc.revenue.Add(tx.Amount)
		acc.count++
		acc.customers[tx.CustomerID] = struct{}{}
	}

	result := make([]models.DailyTrend, 0, groups.Len())
	groups.Each(func(date string, acc *dayAcc) {
		result = append(result, models.DailyTrend{
			Date:             date,
			Revenue:          acc.revenue,
			TransactionCount: acc.count,
			UniqueCustomers:  len(acc.customers),
		})
	})
	return result
}

// FindPeakSalesDay returns the date with the highest revenue. When several
// dates share the maximum, the lexicographically smallest date wins. The
// second return value is false for an empty set.
func FindPeakSalesDay(transactions []models.Transaction) (models.PeakDay, bool) {
	daily := DailySalesTrend(transactions)
	if len(daily) == 0 {
		return models.PeakDay{}, false
	}

	best := daily[0]
	for _, day := range daily[1:] {
		cmp := day.Revenue.Cmp(best.Revenue)
		if cmp > 0 || (cmp == 0 && day.Date < best.Date) {
			best = day
		}
	}

	return models.PeakDay{
		Date:             best.Date,
		Revenue:          best.Revenue,
		TransactionCount: best.TransactionCount,
	}, true
}

// DateRangeOf returns the smallest and largest date key, or nil for an
// empty set.
func DateRangeOf(transactions []models.Transaction) *models.DateRange {
	if len(transactions) == 0 {
		return nil
	}

	r := &models.DateRange{From: transactions[0].Date, To: transactions[0].Date}
	for i := range transactions[1:] {
		date := transactions[i+1].Date
		if date < r.From {
			r.From = date
		}
		if date > r.To {
			r.To = date
		}
	}
	return r
}
