package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"golang-sales-analytics/cmd/analyzer/config"
	"golang-sales-analytics/internal/models"
	"golang-sales-analytics/internal/processor"
	"golang-sales-analytics/pkg/errors"
)

// FilterPrompt asks the user for the region and amount filter once the
// parsed data is known. End of input counts as a blank answer.
type FilterPrompt struct {
	in       *bufio.Reader
	out      io.Writer
	currency string
}

// NewFilterPrompt creates a prompt reading answers from in and writing questions to out
func NewFilterPrompt(in io.Reader, out io.Writer, currency string) *FilterPrompt {
	return &FilterPrompt{in: bufio.NewReader(in), out: out, currency: currency}
}

// Ask shows the available filter options and reads the user's choice.
// It satisfies pipeline.FilterProvider.
func (p *FilterPrompt) Ask(overview processor.FilterOverview) (models.FilterOptions, error) {
	fmt.Fprintln(p.out, "Filter options:")
	if len(overview.Regions) > 0 {
		fmt.Fprintf(p.out, "  Regions: %s\n", strings.Join(overview.Regions, ", "))
	} else {
		fmt.Fprintln(p.out, "  Regions: none")
	}
	if overview.HasAmount {
		fmt.Fprintf(p.out, "  Amount range: %s%s - %s%s\n",
			p.currency, overview.MinAmount.StringFixed(2), p.currency, overview.MaxAmount.StringFixed(2))
	}

	answer, err := p.question("Do you want to filter the data? (y/n): ")
	if err != nil {
		return models.FilterOptions{}, err
	}
	if a := strings.ToLower(answer); a != "y" && a != "yes" {
		return models.FilterOptions{}, nil
	}

	region, err := p.question("Region (blank for all): ")
	if err != nil {
		return models.FilterOptions{}, err
	}

	minRaw, err := p.question("Minimum amount (blank for none): ")
	if err != nil {
		return models.FilterOptions{}, err
	}
	minAmount, err := config.ParseAmount(config.KeyMinAmount, minRaw)
	if err != nil {
		return models.FilterOptions{}, err
	}

	maxRaw, err := p.question("Maximum amount (blank for none): ")
	if err != nil {
		return models.FilterOptions{}, err
	}
	maxAmount, err := config.ParseAmount(config.KeyMaxAmount, maxRaw)
	if err != nil {
		return models.FilterOptions{}, err
	}

	if minAmount.Valid && maxAmount.Valid && minAmount.Decimal.GreaterThan(maxAmount.Decimal) {
		return models.FilterOptions{}, errors.ValidationError(errors.CodeOutOfRange, config.KeyMinAmount, minRaw, nil).
			WithSuggestion("The minimum amount cannot exceed the maximum amount")
	}

	return models.FilterOptions{Region: region, MinAmount: minAmount, MaxAmount: maxAmount}, nil
}

func (p *FilterPrompt) question(text string) (string, error) {
	fmt.Fprint(p.out, text)

	line, err := p.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", errors.InternalError(errors.CodeUnexpectedError, "read answer", err)
	}
	return strings.TrimSpace(line), nil
}
