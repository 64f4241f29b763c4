package main

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/input-output-hk/catalyst-forge-pipeline/config"
)

var (
	cfgFile   string
	logLevel  string
	logPretty bool
)

var rootCmd = &cobra.Command{
	Use:   "forge-pipeline",
	Short: "run release pipelines",
	Long: `forge-pipeline executes declarative release pipelines: a DAG of gated
stages covering tests, coverage checks, artifact builds, security scans, and
deployment verification. Completed runs are reported to the open change
request for the commit, and a successful CI run triggers the CD pipeline
with the same ref and commit.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"pipeline definition file (built-in definition when omitted)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logPretty, "log-pretty", false,
		"human-readable log output instead of JSON")
}

// initConfig wires environment variables: FORGE_REGISTRY_USERNAME maps to
// registry.username and so on.
func initConfig() {
	viper.SetEnvPrefix("FORGE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

// newLogger builds the process logger from the root flags.
func newLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	logger := zerolog.New(os.Stderr)
	if logPretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	return logger.Level(level).With().Timestamp().Logger()
}

// loadDefinition loads the definition file named by --config, or the built-in
// definition when the flag is unset.
func loadDefinition() (*config.File, error) {
	if cfgFile == "" {
		return config.Default(), nil
	}
	return config.Load(cfgFile)
}
