package reporter

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"golang-sales-analytics/internal/models"
)

const timestampLayout = "2006-01-02 15:04:05"

// textWriter keeps the first write error so the section printers stay flat
type textWriter struct {
	w       *bufio.Writer
	printer *message.Printer
	err     error
}

func (t *textWriter) printf(format string, args ...interface{}) {
	if t.err != nil {
		return
	}
	_, t.err = fmt.Fprintf(t.w, format, args...)
}

// money renders an amount with thousands grouping and the given decimals.
// The float conversion is for display only.
func (t *textWriter) money(d decimal.Decimal, decimals int) string {
	if decimals == 0 {
		return t.printer.Sprintf("%.0f", d.InexactFloat64())
	}
	return t.printer.Sprintf("%.2f", d.InexactFloat64())
}

// generateTextReport generates the fixed-width human-readable report
func (rg *ReportGenerator) generateTextReport(data *ReportData, writer io.Writer) error {
	t := &textWriter{
		w:       bufio.NewWriter(writer),
		printer: message.NewPrinter(language.English),
	}

	rg.printHeader(t, data)
	rg.printOverallSummary(t, data.Analysis)
	rg.printRegions(t, data.Analysis.Regions)
	rg.printTopProducts(t, data.Analysis.TopProducts)
	rg.printTopCustomers(t, data.Analysis.Customers)
	rg.printDailyTrend(t, data.Analysis.DailyTrend)
	rg.printProductPerformance(t, data.Analysis)
	rg.printEnrichment(t, data.Enrichment)

	if t.err != nil {
		return t.err
	}
	return t.w.Flush()
}

func (rg *ReportGenerator) section(t *textWriter, title string) {
	t.printf("%s\n%s\n", title, strings.Repeat("-", rg.config.RuleWidth))
}

func (rg *ReportGenerator) printHeader(t *textWriter, data *ReportData) {
	rule := strings.Repeat("=", rg.config.RuleWidth)
	t.printf("%s\n%s\n", rule, ReportTitle)
	t.printf("Generated: %s\n", rg.now().Format(timestampLayout))
	t.printf("Records Processed: %d\n", data.Analysis.TransactionCount)
	if data.RunID != "" {
		t.printf("Run ID: %s\n", data.RunID)
	}
	t.printf("%s\n\n", rule)
}

func (rg *ReportGenerator) printOverallSummary(t *textWriter, a *models.SalesAnalysis) {
	cur := rg.config.CurrencySymbol

	rg.section(t, "OVERALL SUMMARY")
	t.printf("Total Revenue: %s%s\n", cur, t.money(a.TotalRevenue, 2))
	t.printf("Total Transactions: %d\n", a.TransactionCount)
	t.printf("Average Order Value: %s%s\n", cur, t.money(a.AverageOrderValue, 2))
	t.printf("Date Range: %s\n\n", a.DateRange.String())
}

func (rg *ReportGenerator) printRegions(t *textWriter, regions []models.RegionSummary) {
	cur := rg.config.CurrencySymbol

	rg.section(t, "REGION-WISE PERFORMANCE")
	t.printf("%-10s%15s%15s%10s\n", "Region", "Sales", "% of Total", "Txns")
	for _, r := range regions {
		t.printf("%-10s%s%14s%14s%%%10d\n",
			r.Region, cur, t.money(r.TotalSales, 0), r.Percentage.StringFixed(2), r.TransactionCount)
	}
	t.printf("\n")
}

func (rg *ReportGenerator) printTopProducts(t *textWriter, products []models.ProductRanking) {
	cur := rg.config.CurrencySymbol

	rg.section(t, fmt.Sprintf("TOP %d PRODUCTS", rg.config.TopProducts))
	t.printf("%-6s%-20s%8s%15s\n", "Rank", "Product", "Qty", "Revenue")
	for i, p := range products {
		if i == rg.config.TopProducts {
			break
		}
		t.printf("%-6d%-20s%8d%s%14s\n", i+1, p.Name, p.Quantity, cur, t.money(p.Revenue, 0))
	}
	t.printf("\n")
}

func (rg *ReportGenerator) printTopCustomers(t *textWriter, customers []models.CustomerSummary) {
	cur := rg.config.CurrencySymbol

	rg.section(t, fmt.Sprintf("TOP %d CUSTOMERS", rg.config.TopCustomers))
	t.printf("%-6s%-15s%15s%10s\n", "Rank", "Customer", "Spent", "Orders")
	for i, c := range customers {
		if i == rg.config.TopCustomers {
			break
		}
		t.printf("%-6d%-15s%s%14s%10d\n", i+1, c.CustomerID, cur, t.money(c.TotalSpent, 0), c.PurchaseCount)
	}
	t.printf("\n")
}

func (rg *ReportGenerator) printDailyTrend(t *textWriter, days []models.DailyTrend) {
	cur := rg.config.CurrencySymbol

	rg.section(t, "DAILY SALES TREND")
	t.printf("%-12s%15s%10s%12s\n", "Date", "Revenue", "Txns", "Customers")
	for _, d := range days {
		t.printf("%-12s%s%14s%10d%12d\n", d.Date, cur, t.money(d.Revenue, 0), d.TransactionCount, d.UniqueCustomers)
	}
	t.printf("\n")
}

func (rg *ReportGenerator) printProductPerformance(t *textWriter, a *models.SalesAnalysis) {
	cur := rg.config.CurrencySymbol

	rg.section(t, "PRODUCT PERFORMANCE ANALYSIS")
	if a.PeakDay != nil {
		t.printf("Best Selling Day: %s (%s%s, %d transactions)\n",
			a.PeakDay.Date, cur, t.money(a.PeakDay.Revenue, 0), a.PeakDay.TransactionCount)
	} else {
		t.printf("Best Selling Day: N/A\n")
	}

	if len(a.LowPerformers) == 0 {
		t.printf("Low Performing Products: None\n\n")
		return
	}
	t.printf("Low Performing Products:\n")
	for _, p := range a.LowPerformers {
		t.printf(" - %s (Qty: %d, Revenue: %s%s)\n", p.Name, p.Quantity, cur, t.money(p.Revenue, 0))
	}
	t.printf("\n")
}

func (rg *ReportGenerator) printEnrichment(t *textWriter, stats *models.EnrichmentStats) {
	rg.section(t, "API ENRICHMENT SUMMARY")
	if stats == nil {
		t.printf("Enrichment skipped\n")
		return
	}

	t.printf("Products Enriched: %d\n", stats.Matched)
	t.printf("Success Rate: %s%%\n", stats.SuccessRate.StringFixed(2))
	if len(stats.FailedProducts) == 0 {
		t.printf("Failed Products: None\n")
		return
	}
	t.printf("Failed Products:\n")
	for _, name := range stats.FailedProducts {
		t.printf(" - %s\n", name)
	}
}
