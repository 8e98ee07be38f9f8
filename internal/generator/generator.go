// Package generator produces synthetic pipe-delimited sales files for demos
// and load tests. A configurable share of lines is malformed (rejected by the
// parser) or invalid (parsed but rejected by validation).
package generator

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"golang-sales-analytics/internal/models"
	"golang-sales-analytics/pkg/errors"
)

// Header is the first line of every generated file
var Header = strings.Join([]string{
	"TransactionID", "Date", "ProductID", "ProductName", "Quantity", "UnitPrice", "CustomerID", "Region",
}, "|")

// Pattern controls how sale dates are distributed over the date range
type Pattern string

const (
	PatternRandom     Pattern = "random"
	PatternEndOfMonth Pattern = "end-of-month"
)

// LineKind classifies a generated line
type LineKind string

const (
	KindValid     LineKind = "valid"
	KindMalformed LineKind = "malformed"
	KindInvalid   LineKind = "invalid"
)

type product struct {
	id    string
	name  string
	price int64
}

// Product IDs mix catalog hits (small numeric ids) with ids no catalog carries
var products = []product{
	{"P001", "Laptop", 45000},
	{"P002", "Smartphone", 28000},
	{"P005", "Mouse", 500},
	{"P007", "Keyboard", 1500},
	{"P010", "Monitor", 12000},
	{"P012", "Headphones", 2500},
	{"P015", "Webcam", 3200},
	{"P020", "External HDD", 5500},
	{"P501", "USB Cable", 250},
	{"P777", "Laptop Bag", 1800},
}

var regions = []string{"North", "South", "East", "West"}

// Config holds configuration for sales file generation
type Config struct {
	Count          int       `json:"count" mapstructure:"count"`
	StartDate      time.Time `json:"start_date" mapstructure:"start_date"`
	EndDate        time.Time `json:"end_date" mapstructure:"end_date"`
	Seed           int64     `json:"seed" mapstructure:"seed"`
	Pattern        Pattern   `json:"pattern" mapstructure:"pattern"`
	MalformedRatio float64   `json:"malformed_ratio" mapstructure:"malformed_ratio"`
	InvalidRatio   float64   `json:"invalid_ratio" mapstructure:"invalid_ratio"`
	Customers      int       `json:"customers" mapstructure:"customers"`
}

// DefaultConfig returns a generator configuration for one month of sales
func DefaultConfig() *Config {
	return &Config{
		Count:          100,
		StartDate:      time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
		EndDate:        time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
		Seed:           1,
		Pattern:        PatternRandom,
		MalformedRatio: 0.05,
		InvalidRatio:   0.05,
		Customers:      20,
	}
}

// Validate checks if the generator configuration is valid
func (c *Config) Validate() error {
	if c.Count < 1 {
		return fmt.Errorf("count must be at least 1, got %d", c.Count)
	}
	if c.EndDate.Before(c.StartDate) {
		return fmt.Errorf("end date %s is before start date %s",
			c.EndDate.Format(models.DateLayout), c.StartDate.Format(models.DateLayout))
	}
	if c.Pattern != PatternRandom && c.Pattern != PatternEndOfMonth {
		return fmt.Errorf("unknown pattern %q", c.Pattern)
	}
	if c.MalformedRatio < 0 || c.InvalidRatio < 0 || c.MalformedRatio+c.InvalidRatio > 1 {
		return fmt.Errorf("malformed (%.2f) and invalid (%.2f) ratios must be non-negative and sum to at most 1",
			c.MalformedRatio, c.InvalidRatio)
	}
	if c.Customers < 1 {
		return fmt.Errorf("customers must be at least 1, got %d", c.Customers)
	}
	return nil
}

// Summary counts the lines written by one generation run
type Summary struct {
	Lines     int `json:"lines"`
	Valid     int `json:"valid"`
	Malformed int `json:"malformed"`
	Invalid   int `json:"invalid"`
}

func (s *Summary) add(kind LineKind) {
	s.Lines++
	switch kind {
	case KindMalformed:
		s.Malformed++
	case KindInvalid:
		s.Invalid++
	default:
		s.Valid++
	}
}

// Line is one generated data line
type Line struct {
	Text string
	Kind LineKind
}

// Generator creates synthetic sales lines. It is not safe for concurrent use.
type Generator struct {
	config *Config
	rng    *rand.Rand
}

// NewGenerator creates a generator seeded from config.Seed
func NewGenerator(config *Config) (*Generator, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "generator", config.Pattern, err)
	}

	return &Generator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}, nil
}

// Generate returns config.Count data lines, without the header
func (g *Generator) Generate() []Line {
	lines := make([]Line, 0, g.config.Count)
	for i := 0; i < g.config.Count; i++ {
		lines = append(lines, g.line(i+1))
	}
	return lines
}

// WriteLines writes the header and all generated lines to w
func (g *Generator) WriteLines(w io.Writer) (Summary, error) {
	var summary Summary

	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(Header + "\n"); err != nil {
		return summary, err
	}
	for _, line := range g.Generate() {
		if _, err := bw.WriteString(line.Text + "\n"); err != nil {
			return summary, err
		}
		summary.add(line.Kind)
	}
	return summary, bw.Flush()
}

// WriteFile writes a generated sales file, creating parent directories
func (g *Generator) WriteFile(path string) (Summary, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return Summary{}, errors.FileError(errors.CodeDirectoryError, dir, err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return Summary{}, errors.FileError(errors.CodeFileWrite, path, err)
	}
	defer file.Close()

	summary, err := g.WriteLines(file)
	if err != nil {
		return summary, errors.FileError(errors.CodeFileWrite, path, err)
	}
	return summary, nil
}

func (g *Generator) line(seq int) Line {
	p := products[g.rng.Intn(len(products))]
	fields := []string{
		fmt.Sprintf("T%05d", seq),
		g.date().Format(models.DateLayout),
		p.id,
		p.name,
		strconv.Itoa(1 + g.rng.Intn(10)),
		g.price(p.price),
		fmt.Sprintf("C%03d", 1+g.rng.Intn(g.config.Customers)),
		regions[g.rng.Intn(len(regions))],
	}

	kind := g.kind()
	switch kind {
	case KindMalformed:
		fields = g.malform(fields)
	case KindInvalid:
		g.invalidate(fields)
	}
	return Line{Text: strings.Join(fields, "|"), Kind: kind}
}

func (g *Generator) kind() LineKind {
	r := g.rng.Float64()
	switch {
	case r < g.config.MalformedRatio:
		return KindMalformed
	case r < g.config.MalformedRatio+g.config.InvalidRatio:
		return KindInvalid
	default:
		return KindValid
	}
}

// malform breaks the line so the parser must skip it
func (g *Generator) malform(fields []string) []string {
	switch g.rng.Intn(3) {
	case 0:
		return fields[:len(fields)-1]
	case 1:
		fields[4] = "two"
		return fields
	default:
		return append(fields, "EXTRA")
	}
}

// invalidate keeps the line parseable but breaks one business rule
func (g *Generator) invalidate(fields []string) {
	switch g.rng.Intn(5) {
	case 0:
		fields[4] = "0"
	case 1:
		fields[5] = "-" + fields[5]
	case 2:
		fields[6] = ""
	case 3:
		fields[7] = ""
	default:
		fields[0] = "X" + strings.TrimPrefix(fields[0], models.TransactionIDPrefix)
	}
}

// price varies the list price by up to 10% and sometimes groups thousands
func (g *Generator) price(list int64) string {
	delta := list / 10
	p := list
	if delta > 0 {
		p += g.rng.Int63n(2*delta+1) - delta
	}

	if p >= 1000 && g.rng.Intn(2) == 0 {
		return groupThousands(p)
	}
	return decimal.NewFromInt(p).String()
}

func (g *Generator) date() time.Time {
	start, end := g.config.StartDate, g.config.EndDate
	days := int(end.Sub(start).Hours() / 24)

	if g.config.Pattern == PatternEndOfMonth {
		// Month-end rush: the last five days of a random month in range
		months := (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
		month := start.AddDate(0, g.rng.Intn(months+1), 0)
		lastDay := time.Date(month.Year(), month.Month()+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
		d := lastDay.AddDate(0, 0, -g.rng.Intn(5))
		if !d.Before(start) && !d.After(end) {
			return d
		}
	}

	return start.AddDate(0, 0, g.rng.Intn(days+1))
}

func groupThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}
