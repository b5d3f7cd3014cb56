package config

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/rustyeddy/signaltrader/market"
)

// EnvPrefix prefixes every environment override, e.g. TRADER_REDIS_ADDR.
const EnvPrefix = "TRADER"

// envOverrides lists the settings the environment may override. Nil
// fields were not set.
type envOverrides struct {
	Account struct {
		ID       *string  `mapstructure:"id"`
		Currency *string  `mapstructure:"currency"`
		Balance  *float64 `mapstructure:"balance"`
	} `mapstructure:"account"`
	Loop struct {
		Symbol       *string        `mapstructure:"symbol"`
		Timeframe    *string        `mapstructure:"timeframe"`
		Strategy     *string        `mapstructure:"strategy"`
		Data         *string        `mapstructure:"data"`
		Bars         *int           `mapstructure:"bars"`
		PollInterval *time.Duration `mapstructure:"poll_interval"`
		ErrorBackoff *time.Duration `mapstructure:"error_backoff"`
	} `mapstructure:"loop"`
	Ledger struct {
		DBName       *string  `mapstructure:"db_name"`
		DBCandidates []string `mapstructure:"db_candidates"`
		BackupPath   *string  `mapstructure:"backup_path"`
		FallbackLog  *string  `mapstructure:"fallback_log"`
	} `mapstructure:"ledger"`
	Backtest struct {
		Strategy *string `mapstructure:"strategy"`
		Data     *string `mapstructure:"data"`
	} `mapstructure:"backtest"`
	Risk struct {
		RiskPerTrade    *float64 `mapstructure:"risk_per_trade"`
		MaxTradesPerDay *int     `mapstructure:"max_trades_per_day"`
		DailyLossLimit  *float64 `mapstructure:"daily_loss_limit"`
		Timezone        *string  `mapstructure:"timezone"`
	} `mapstructure:"risk"`
	Log struct {
		Level    *string `mapstructure:"level"`
		FilePath *string `mapstructure:"file_path"`
	} `mapstructure:"log"`
	Redis struct {
		Enabled  *bool   `mapstructure:"enabled"`
		Addr     *string `mapstructure:"addr"`
		Password *string `mapstructure:"password"`
		DB       *int    `mapstructure:"db"`
	} `mapstructure:"redis"`
	Kafka struct {
		Enabled *bool    `mapstructure:"enabled"`
		Brokers []string `mapstructure:"brokers"`
		Topic   *string  `mapstructure:"topic"`
	} `mapstructure:"kafka"`
	API struct {
		Addr *string `mapstructure:"addr"`
	} `mapstructure:"api"`
}

// envKeys returns the dotted keys of envOverrides, e.g. "risk.max_trades_per_day".
func envKeys() []string {
	var keys []string
	top := reflect.TypeOf(envOverrides{})
	for i := 0; i < top.NumField(); i++ {
		section := top.Field(i)
		for j := 0; j < section.Type.NumField(); j++ {
			keys = append(keys, section.Tag.Get("mapstructure")+"."+section.Type.Field(j).Tag.Get("mapstructure"))
		}
	}
	return keys
}

// ApplyEnv overrides c with any TRADER_* environment variables set. Keys
// follow the yaml paths with dots replaced by underscores, so
// risk.max_trades_per_day is TRADER_RISK_MAX_TRADES_PER_DAY. List values
// are comma separated. If any value fails to decode c is left untouched.
// A nil v uses a fresh viper instance.
func ApplyEnv(v *viper.Viper, c *Config) error {
	if v == nil {
		v = viper.New()
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range envKeys() {
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("environment: bind %s: %w", key, err)
		}
	}

	var env envOverrides
	if err := v.Unmarshal(&env); err != nil {
		return fmt.Errorf("environment (%s_*): %w", EnvPrefix, err)
	}

	set(&c.Account.ID, env.Account.ID)
	set(&c.Account.Currency, env.Account.Currency)
	set(&c.Account.Balance, env.Account.Balance)

	if env.Loop.Symbol != nil {
		// a new symbol takes its contract from the instrument table
		c.Instrument = market.InstrumentMeta{Symbol: *env.Loop.Symbol}
	}
	set(&c.Loop.Timeframe, env.Loop.Timeframe)
	set(&c.Loop.Strategy, env.Loop.Strategy)
	set(&c.Loop.Data, env.Loop.Data)
	set(&c.Loop.Bars, env.Loop.Bars)
	set(&c.Loop.PollInterval, env.Loop.PollInterval)
	set(&c.Loop.ErrorBackoff, env.Loop.ErrorBackoff)

	set(&c.Ledger.DBName, env.Ledger.DBName)
	set(&c.Ledger.BackupPath, env.Ledger.BackupPath)
	set(&c.Ledger.FallbackLog, env.Ledger.FallbackLog)
	setList(&c.Ledger.DBCandidates, env.Ledger.DBCandidates)

	set(&c.Backtest.Strategy, env.Backtest.Strategy)
	set(&c.Backtest.Data, env.Backtest.Data)

	set(&c.Risk.RiskPerTrade, env.Risk.RiskPerTrade)
	set(&c.Risk.MaxTradesPerDay, env.Risk.MaxTradesPerDay)
	set(&c.Risk.DailyLossLimit, env.Risk.DailyLossLimit)
	set(&c.Risk.Timezone, env.Risk.Timezone)

	set(&c.Log.Level, env.Log.Level)
	set(&c.Log.FilePath, env.Log.FilePath)

	set(&c.Redis.Enabled, env.Redis.Enabled)
	set(&c.Redis.Addr, env.Redis.Addr)
	set(&c.Redis.Password, env.Redis.Password)
	set(&c.Redis.DB, env.Redis.DB)

	set(&c.Kafka.Enabled, env.Kafka.Enabled)
	set(&c.Kafka.Topic, env.Kafka.Topic)
	setList(&c.Kafka.Brokers, env.Kafka.Brokers)

	set(&c.API.Addr, env.API.Addr)

	c.FillInstrument()
	return nil
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// setList trims the comma split items and drops empty ones.
func setList(dst *[]string, src []string) {
	if src == nil {
		return
	}
	var out []string
	for _, s := range src {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	*dst = out
}
