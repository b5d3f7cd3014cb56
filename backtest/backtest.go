// Package backtest replays historical candles through the same indicator
// and signal code the live loop uses and reports performance metrics.
package backtest

import (
	"fmt"
	"strings"
	"time"

	"github.com/rustyeddy/signaltrader/indicators"
	"github.com/rustyeddy/signaltrader/market"
	"github.com/rustyeddy/signaltrader/pkg/id"
	"github.com/rustyeddy/signaltrader/signals"
)

type Strategy string

const (
	MACrossover   Strategy = "ma_crossover"
	MeanReversion Strategy = "mean_reversion"
)

// Strategies lists every supported strategy in report order.
var Strategies = []Strategy{MACrossover, MeanReversion}

func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ma_crossover", "ma-crossover", "ma":
		return MACrossover, nil
	case "mean_reversion", "mean-reversion", "mr":
		return MeanReversion, nil
	}
	return "", fmt.Errorf("unknown strategy %q (supported: ma_crossover, mean_reversion)", s)
}

type Options struct {
	InitialBalance float64
	RiskFreeRate   float64 // annual
	Indicators     indicators.Params
	Signals        signals.Params

	Symbol    string
	Timeframe string
	Dataset   string
}

func DefaultOptions() Options {
	return Options{
		InitialBalance: 10000,
		RiskFreeRate:   0.02,
		Indicators:     indicators.DefaultParams(),
		Signals:        signals.DefaultParams(),
	}
}

// Report is the outcome of one strategy over one candle series.
type Report struct {
	RunID     string    `json:"run_id"`
	Created   time.Time `json:"created"`
	Strategy  Strategy  `json:"strategy"`
	Symbol    string    `json:"symbol"`
	Timeframe string    `json:"timeframe"`
	Dataset   string    `json:"dataset"`

	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Bars  int       `json:"bars"`

	InitialBalance float64 `json:"initial_balance"`
	FinalEquity    float64 `json:"final_equity"`
	TotalReturn    float64 `json:"total_return"`
	Sharpe         float64 `json:"sharpe_ratio"`
	MaxDrawdown    float64 `json:"max_drawdown"`
	WinRate        float64 `json:"win_rate"`
	Trades         int     `json:"total_trades"`
}

// Evaluate runs strat over bars. Bars must be in strictly increasing time
// order.
func Evaluate(bars []market.Candle, strat Strategy, opts Options) (Report, error) {
	if opts.InitialBalance <= 0 {
		return Report{}, fmt.Errorf("backtest: initial balance must be > 0, got %g", opts.InitialBalance)
	}
	if err := opts.Signals.Validate(); err != nil {
		return Report{}, err
	}
	if len(bars) == 0 {
		return Report{}, fmt.Errorf("backtest: no bars")
	}

	snaps, err := indicators.Series(bars, opts.Indicators)
	if err != nil {
		return Report{}, fmt.Errorf("backtest: %w", err)
	}
	positions, err := Positions(snaps, strat, opts.Signals)
	if err != nil {
		return Report{}, err
	}

	returns := Returns(market.Closes(bars), positions)
	equity := EquityCurve(opts.InitialBalance, returns)
	final := equity[len(equity)-1]

	return Report{
		RunID:          id.New(),
		Created:        time.Now().UTC(),
		Strategy:       strat,
		Symbol:         opts.Symbol,
		Timeframe:      opts.Timeframe,
		Dataset:        opts.Dataset,
		Start:          bars[0].Time,
		End:            bars[len(bars)-1].Time,
		Bars:           len(bars),
		InitialBalance: opts.InitialBalance,
		FinalEquity:    final,
		TotalReturn:    (final - opts.InitialBalance) / opts.InitialBalance,
		Sharpe:         Sharpe(returns, opts.RiskFreeRate),
		MaxDrawdown:    MaxDrawdown(equity),
		WinRate:        WinRate(returns),
		Trades:         TradeCount(positions),
	}, nil
}

// EvaluateAll runs every strategy over the same bars.
func EvaluateAll(bars []market.Candle, opts Options) ([]Report, error) {
	out := make([]Report, 0, len(Strategies))
	for _, s := range Strategies {
		r, err := Evaluate(bars, s, opts)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s, err)
		}
		out = append(out, r)
	}
	return out, nil
}

// Positions maps each snapshot to a position: 1 long, -1 short, 0 flat.
// The crossover strategy is long while the fast average is above the slow
// one; mean reversion follows the Bollinger/RSI extremes.
func Positions(snaps []indicators.Snapshot, strat Strategy, p signals.Params) ([]float64, error) {
	out := make([]float64, len(snaps))
	switch strat {
	case MACrossover:
		for i, s := range snaps {
			if s.SMAFast.Ready && s.SMASlow.Ready && s.SMAFast.Value > s.SMASlow.Value {
				out[i] = 1
			}
		}
	case MeanReversion:
		for i, s := range snaps {
			sig, ok := signals.MeanReversion(s, p)
			if !ok {
				continue
			}
			if sig.Direction == signals.Buy {
				out[i] = 1
			} else {
				out[i] = -1
			}
		}
	default:
		return nil, fmt.Errorf("backtest: unknown strategy %q", strat)
	}
	return out, nil
}
