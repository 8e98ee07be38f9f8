package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"golang-sales-analytics/cmd/analyzer/config"
	"golang-sales-analytics/pkg/errors"
	"golang-sales-analytics/pkg/logger"
)

var (
	cfgFile   string
	cfgErr    error
	verbose   bool
	logLevel  string
	logFormat string
	version   = "dev"
	commit    = "unknown"
	date      = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "analyzer",
	Short: "Sales transaction analytics tool",
	Long: `Analyzer reads a pipe-delimited sales log, drops malformed and invalid
records, computes revenue, region, product, customer and daily aggregations,
enriches each sale with product metadata from an external catalog, and writes
an enriched data file and a report.

Examples:
  analyzer analyze --input-file data/sales_data.txt
  analyzer analyze --region North --min-amount 1000 --report-format json
  analyzer analyze --interactive --progress
  analyzer generate --count 500 --output data/sales_data.txt
  analyzer --version`,
	Version:           getVersionString(),
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file, YAML/TOML/JSON (optional)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (forces debug logging)")
	rootCmd.PersistentFlags().StringVar(&logLevel, config.KeyLogLevel, "warn", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, config.KeyLogFormat, "text", "log format: text, json")

	// Bind flags to viper
	viper.BindPFlag(config.KeyVerbose, rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag(config.KeyLogLevel, rootCmd.PersistentFlags().Lookup(config.KeyLogLevel))
	viper.BindPFlag(config.KeyLogFormat, rootCmd.PersistentFlags().Lookup(config.KeyLogFormat))
}

// initConfig reads in config file and ENV variables.
func initConfig() {
	// ANALYZER_INPUT_FILE overrides input-file, and so on
	viper.SetEnvPrefix("ANALYZER")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if cfgFile == "" {
		return
	}

	viper.SetConfigFile(cfgFile)
	if err := viper.ReadInConfig(); err != nil {
		// Reported from setupLogging so the error handler sets the exit code
		cfgErr = errors.ConfigurationError(errors.CodeInvalidConfig, "config", cfgFile, err).
			WithSuggestion("Check the config file path and its YAML/TOML/JSON syntax")
	}
}

// setupLogging installs the global logger before any command runs
func setupLogging(cmd *cobra.Command, args []string) error {
	if cfgErr != nil {
		return cfgErr
	}

	loggerConfig, err := config.CreateLoggerConfig(
		viper.GetString(config.KeyLogLevel),
		viper.GetString(config.KeyLogFormat),
		viper.GetBool(config.KeyVerbose),
	)
	if err != nil {
		return err
	}

	log, err := logger.NewLogger(loggerConfig)
	if err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "log", loggerConfig.Output, err)
	}
	logger.SetGlobalLogger(log)

	if cfgFile != "" {
		log.WithField("config_file", viper.ConfigFileUsed()).Debug("Using config file")
	}
	return nil
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = getVersionString()
}

func getVersionString() string {
	if version == "dev" {
		return fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
	}
	return version
}
