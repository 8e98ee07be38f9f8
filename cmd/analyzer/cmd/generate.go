package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"golang-sales-analytics/internal/generator"
	"golang-sales-analytics/internal/models"
	"golang-sales-analytics/pkg/errors"
	"golang-sales-analytics/pkg/logger"
)

// Flags for the generate command
var (
	genOutput         string
	genCount          int
	genStartDate      string
	genEndDate        string
	genSeed           int64
	genPattern        string
	genMalformedRatio float64
	genInvalidRatio   float64
	genCustomers      int
)

// generateCmd represents the generate command
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a synthetic sales file",
	Long: `Generate writes a pipe-delimited sales file with a header line. A share
of the lines is deliberately malformed (wrong field count or a non-numeric
quantity) or invalid (zero quantity, negative price, missing customer or
region, bad transaction ID), so the file exercises every skip path.

Examples:
  analyzer generate --count 1000 --output data/sales_data.txt
  analyzer generate --pattern end-of-month --start-date 2024-01-01 --end-date 2024-06-30
  analyzer generate --malformed-ratio 0 --invalid-ratio 0 --seed 42`,

	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	defaults := generator.DefaultConfig()
	generateCmd.Flags().StringVarP(&genOutput, "output", "o", "data/sales_data.txt", "output file path")
	generateCmd.Flags().IntVarP(&genCount, "count", "n", defaults.Count, "number of data lines to generate")
	generateCmd.Flags().StringVar(&genStartDate, "start-date", defaults.StartDate.Format(models.DateLayout), "first sale date (YYYY-MM-DD)")
	generateCmd.Flags().StringVar(&genEndDate, "end-date", defaults.EndDate.Format(models.DateLayout), "last sale date (YYYY-MM-DD)")
	generateCmd.Flags().Int64Var(&genSeed, "seed", time.Now().UnixNano(), "random seed for reproducible generation")
	generateCmd.Flags().StringVar(&genPattern, "pattern", string(defaults.Pattern), "date pattern: random, end-of-month")
	generateCmd.Flags().Float64Var(&genMalformedRatio, "malformed-ratio", defaults.MalformedRatio, "share of lines the parser must skip")
	generateCmd.Flags().Float64Var(&genInvalidRatio, "invalid-ratio", defaults.InvalidRatio, "share of lines validation must reject")
	generateCmd.Flags().IntVar(&genCustomers, "customers", defaults.Customers, "number of distinct customers")
}

func buildGeneratorConfig() (*generator.Config, error) {
	start, err := time.Parse(models.DateLayout, genStartDate)
	if err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "start-date", genStartDate, err).
			WithSuggestion("Use the YYYY-MM-DD format")
	}
	end, err := time.Parse(models.DateLayout, genEndDate)
	if err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "end-date", genEndDate, err).
			WithSuggestion("Use the YYYY-MM-DD format")
	}

	return &generator.Config{
		Count:          genCount,
		StartDate:      start,
		EndDate:        end,
		Seed:           genSeed,
		Pattern:        generator.Pattern(genPattern),
		MalformedRatio: genMalformedRatio,
		InvalidRatio:   genInvalidRatio,
		Customers:      genCustomers,
	}, nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	genConfig, err := buildGeneratorConfig()
	if err != nil {
		return err
	}

	gen, err := generator.NewGenerator(genConfig)
	if err != nil {
		return err
	}

	log := logger.WithComponent("generator").WithFields(logger.Fields{
		"output": genOutput,
		"seed":   genSeed,
	})

	var summary generator.Summary
	err = logger.TimedOperation("generate", log, func() error {
		var writeErr error
		summary, writeErr = gen.WriteFile(genOutput)
		return writeErr
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Generated %d sales lines in %s\n", summary.Lines, genOutput)
	fmt.Fprintf(out, "  Valid: %d, malformed: %d, invalid: %d\n", summary.Valid, summary.Malformed, summary.Invalid)
	fmt.Fprintf(out, "  Date range: %s to %s (%s)\n", genStartDate, genEndDate, genPattern)
	fmt.Fprintf(out, "  Seed used: %d\n", genSeed)
	return nil
}
