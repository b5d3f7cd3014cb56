package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/rustyeddy/signaltrader/config"
	"github.com/rustyeddy/signaltrader/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:   "trader",
	Short: "Indicator driven FX signal trader with a durable trade ledger",
	Long: `Trader turns a stream of price bars into indicator snapshots and trade
signals, sizes orders under a daily risk budget and records every decision
in a ledger that survives storage failures.

It provides tools for:
  - Running the live loop against a paper provider
  - Backtesting the crossover and mean reversion strategies
  - Querying the trade ledger and daily rollups
  - Serving the read-only reporting API

Settings come from a YAML or JSON config file, overridden by TRADER_*
environment variables (a .env file in the working directory is loaded
first).`,
	SilenceUsage: true,
}

var (
	cfgFile  string
	logLevel string
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (YAML or JSON); defaults are used when empty")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log.level (debug, info, warn, error)")
}

// loadConfig reads the config file or defaults, applies the environment
// and the --log-level flag, then validates.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if cfgFile != "" {
		cfg, err = config.LoadFromFile(cfgFile)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = config.Default()
	}

	if err := config.ApplyEnv(viper.New(), cfg); err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// setup loads the configuration and installs the process logger.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(logOptions(cfg.Log))
	if err != nil {
		return nil, nil, err
	}
	zap.ReplaceGlobals(log)
	return cfg, log, nil
}

func logOptions(c config.LogConfig) logger.Options {
	return logger.Options{
		Level:      c.Level,
		FilePath:   c.FilePath,
		MaxSize:    c.MaxSize,
		MaxBackups: c.MaxBackups,
		MaxAge:     c.MaxAge,
		Compress:   c.Compress,
	}
}
