// Package config holds the validated runtime configuration of the trader.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/signaltrader/backtest"
	"github.com/rustyeddy/signaltrader/indicators"
	"github.com/rustyeddy/signaltrader/market"
	"github.com/rustyeddy/signaltrader/risk"
	"github.com/rustyeddy/signaltrader/signals"
)

const DefaultSymbol = "EURUSD"

// Config represents the complete trader configuration
type Config struct {
	Account    AccountConfig         `json:"account" yaml:"account"`
	Instrument market.InstrumentMeta `json:"instrument" yaml:"instrument"`
	Indicators indicators.Params     `json:"indicators" yaml:"indicators"`
	Signals    signals.Params        `json:"signals" yaml:"signals"`
	Risk       risk.Policy           `json:"risk" yaml:"risk"`
	Loop       LoopConfig            `json:"loop" yaml:"loop"`
	Ledger     LedgerConfig          `json:"ledger" yaml:"ledger"`
	Backtest   BacktestConfig        `json:"backtest" yaml:"backtest"`
	Log        LogConfig             `json:"log" yaml:"log"`
	Redis      RedisConfig           `json:"redis" yaml:"redis"`
	Kafka      KafkaConfig           `json:"kafka" yaml:"kafka"`
	API        APIConfig             `json:"api" yaml:"api"`
}

// AccountConfig contains the paper account parameters
type AccountConfig struct {
	ID       string  `json:"id" yaml:"id"`
	Currency string  `json:"currency" yaml:"currency"`
	Balance  float64 `json:"balance" yaml:"balance"`
}

// LoopConfig drives the live polling loop
type LoopConfig struct {
	Timeframe       string        `json:"timeframe" yaml:"timeframe"`
	Bars            int           `json:"bars" yaml:"bars"`
	PollInterval    time.Duration `json:"poll_interval" yaml:"poll_interval"`
	ErrorBackoff    time.Duration `json:"error_backoff" yaml:"error_backoff"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
	Strategy        string        `json:"strategy" yaml:"strategy"`
	// Data is the bar CSV replayed by the paper provider.
	Data       string  `json:"data,omitempty" yaml:"data,omitempty"`
	SpreadPips float64 `json:"spread_pips" yaml:"spread_pips"`
}

// LedgerConfig names the files of the three ledger tiers
type LedgerConfig struct {
	DBName       string   `json:"db_name" yaml:"db_name"`
	DBCandidates []string `json:"db_candidates,omitempty" yaml:"db_candidates,omitempty"`
	BackupPath   string   `json:"backup_path" yaml:"backup_path"`
	FallbackLog  string   `json:"fallback_log" yaml:"fallback_log"`
}

// BacktestConfig contains backtest parameters
type BacktestConfig struct {
	InitialBalance float64 `json:"initial_balance" yaml:"initial_balance"`
	RiskFreeRate   float64 `json:"risk_free_rate" yaml:"risk_free_rate"`
	// Strategy is a strategy name or "all".
	Strategy   string `json:"strategy" yaml:"strategy"`
	Data       string `json:"data,omitempty" yaml:"data,omitempty"`
	ResultsCSV string `json:"results_csv,omitempty" yaml:"results_csv,omitempty"`
}

// LogConfig controls the console logger and the optional rotated file.
type LogConfig struct {
	Level      string `json:"level" yaml:"level"`
	FilePath   string `json:"file_path,omitempty" yaml:"file_path,omitempty"`
	MaxSize    int    `json:"max_size" yaml:"max_size"`       // MB
	MaxBackups int    `json:"max_backups" yaml:"max_backups"` // files
	MaxAge     int    `json:"max_age" yaml:"max_age"`         // days
	Compress   bool   `json:"compress" yaml:"compress"`
}

type RedisConfig struct {
	Enabled  bool   `json:"enabled" yaml:"enabled"`
	Addr     string `json:"addr" yaml:"addr"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	DB       int    `json:"db" yaml:"db"`
	Prefix   string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
}

type KafkaConfig struct {
	Enabled bool     `json:"enabled" yaml:"enabled"`
	Brokers []string `json:"brokers" yaml:"brokers"`
	Topic   string   `json:"topic" yaml:"topic"`
}

type APIConfig struct {
	Addr string `json:"addr" yaml:"addr"`
}

// LoadFromFile loads configuration from a file (JSON or YAML). Fields the
// file leaves out keep their Default values.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := blank()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		cfg = blank()
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}
	if cfg.Instrument.Symbol == "" {
		cfg.Instrument.Symbol = DefaultSymbol
	}
	cfg.FillInstrument()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// blank is Default without an instrument so a file naming only a symbol
// takes that symbol's contract, not the default one.
func blank() *Config {
	c := Default()
	c.Instrument = market.InstrumentMeta{}
	return c
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// FillInstrument normalises the instrument symbol and fills any unset
// contract field from the built in instrument table.
func (c *Config) FillInstrument() {
	c.Instrument.Symbol = market.NormalizeSymbol(c.Instrument.Symbol)
	known, ok := market.LookupInstrument(c.Instrument.Symbol)
	if !ok {
		return
	}
	if c.Instrument.PipSize == 0 {
		c.Instrument.PipSize = known.PipSize
	}
	if c.Instrument.PipValue == 0 {
		c.Instrument.PipValue = known.PipValue
	}
	if c.Instrument.LotStep == 0 {
		c.Instrument.LotStep = known.LotStep
	}
	if c.Instrument.MinLot == 0 {
		c.Instrument.MinLot = known.MinLot
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Account.Currency == "" {
		return fmt.Errorf("account.currency is required")
	}
	if c.Account.Balance <= 0 {
		return fmt.Errorf("account.balance must be positive")
	}

	if c.Instrument.Symbol == "" {
		return fmt.Errorf("instrument.symbol is required")
	}
	if c.Instrument.PipSize <= 0 {
		return fmt.Errorf("instrument.pip_size must be positive for %s", c.Instrument.Symbol)
	}
	if c.Instrument.PipValue < 0 {
		return fmt.Errorf("instrument.pip_value must not be negative")
	}
	if c.Instrument.LotStep <= 0 || c.Instrument.MinLot <= 0 {
		return fmt.Errorf("instrument.lot_step and instrument.min_lot must be positive")
	}

	if err := c.Indicators.Validate(); err != nil {
		return fmt.Errorf("indicators: %w", err)
	}
	if err := c.Signals.Validate(); err != nil {
		return fmt.Errorf("signals: %w", err)
	}
	if err := c.Risk.Validate(); err != nil {
		return err
	}

	if _, err := market.ParseTimeframe(c.Loop.Timeframe); err != nil {
		return fmt.Errorf("loop.timeframe: %w", err)
	}
	if need := c.WarmupBars() + 1; c.Loop.Bars < need {
		return fmt.Errorf("loop.bars must be at least %d to warm up every indicator, got %d", need, c.Loop.Bars)
	}
	if c.Loop.PollInterval <= 0 {
		return fmt.Errorf("loop.poll_interval must be positive")
	}
	if c.Loop.ErrorBackoff <= 0 {
		return fmt.Errorf("loop.error_backoff must be positive")
	}
	if c.Loop.ShutdownTimeout < 0 {
		return fmt.Errorf("loop.shutdown_timeout must not be negative")
	}
	if c.Loop.SpreadPips < 0 {
		return fmt.Errorf("loop.spread_pips must not be negative")
	}
	if _, err := backtest.ParseStrategy(c.Loop.Strategy); err != nil {
		return fmt.Errorf("loop.strategy: %w", err)
	}

	if c.Ledger.BackupPath == "" || c.Ledger.FallbackLog == "" {
		return fmt.Errorf("ledger.backup_path and ledger.fallback_log are required")
	}
	if c.Ledger.DBName == "" && len(c.Ledger.DBCandidates) == 0 {
		return fmt.Errorf("ledger.db_name or ledger.db_candidates is required")
	}

	if c.Backtest.InitialBalance <= 0 {
		return fmt.Errorf("backtest.initial_balance must be positive")
	}
	if c.Backtest.RiskFreeRate < 0 {
		return fmt.Errorf("backtest.risk_free_rate must not be negative")
	}
	if _, err := c.BacktestStrategies(); err != nil {
		return fmt.Errorf("backtest.strategy: %w", err)
	}

	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when redis is enabled")
	}
	if c.Kafka.Enabled && (len(c.Kafka.Brokers) == 0 || c.Kafka.Topic == "") {
		return fmt.Errorf("kafka.brokers and kafka.topic are required when kafka is enabled")
	}
	if c.API.Addr == "" {
		return fmt.Errorf("api.addr is required")
	}
	return nil
}

// WarmupBars is the number of bars before every configured indicator is
// ready.
func (c *Config) WarmupBars() int {
	e, err := indicators.NewEngine(c.Indicators)
	if err != nil {
		return 0
	}
	return e.Warmup()
}

// BacktestStrategies resolves backtest.strategy; "all" or empty selects
// every strategy.
func (c *Config) BacktestStrategies() ([]backtest.Strategy, error) {
	s := strings.TrimSpace(c.Backtest.Strategy)
	if s == "" || strings.EqualFold(s, "all") {
		return backtest.Strategies, nil
	}
	st, err := backtest.ParseStrategy(s)
	if err != nil {
		return nil, err
	}
	return []backtest.Strategy{st}, nil
}

// BacktestOptions builds backtest options from the configuration.
func (c *Config) BacktestOptions() backtest.Options {
	return backtest.Options{
		InitialBalance: c.Backtest.InitialBalance,
		RiskFreeRate:   c.Backtest.RiskFreeRate,
		Indicators:     c.Indicators,
		Signals:        c.Signals,
		Symbol:         c.Instrument.Symbol,
		Timeframe:      c.Loop.Timeframe,
		Dataset:        c.Backtest.Data,
	}
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	inst := market.Instruments[DefaultSymbol]
	return &Config{
		Account: AccountConfig{
			ID:       "PAPER-001",
			Currency: "USD",
			Balance:  10000,
		},
		Instrument: inst,
		Indicators: indicators.DefaultParams(),
		Signals:    signals.DefaultParams(),
		Risk:       risk.DefaultPolicy(),
		Loop: LoopConfig{
			Timeframe:       "H1",
			Bars:            100,
			PollInterval:    60 * time.Second,
			ErrorBackoff:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Strategy:        string(backtest.MACrossover),
			SpreadPips:      1.5,
		},
		Ledger: LedgerConfig{
			DBName:      "trading_data.db",
			BackupPath:  "trades_backup.json",
			FallbackLog: "trades_fallback.log",
		},
		Backtest: BacktestConfig{
			InitialBalance: 10000,
			RiskFreeRate:   0.02,
			Strategy:       "all",
		},
		Log: LogConfig{
			Level:      "info",
			MaxSize:    100,
			MaxBackups: 7,
			MaxAge:     30,
		},
		Redis: RedisConfig{
			Addr:   "localhost:6379",
			Prefix: "signaltrader:risk:",
		},
		Kafka: KafkaConfig{
			Brokers: []string{"localhost:9092"},
			Topic:   "trade-events",
		},
		API: APIConfig{
			Addr: ":8080",
		},
	}
}
