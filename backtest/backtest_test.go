package backtest

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/signaltrader/indicators"
	"github.com/rustyeddy/signaltrader/market"
)

var start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func barsFrom(closes []float64) []market.Candle {
	out := make([]market.Candle, len(closes))
	for i, c := range closes {
		out[i] = market.Candle{
			Time:  start.Add(time.Duration(i) * time.Hour),
			Open:  c,
			High:  c * 1.001,
			Low:   c * 0.999,
			Close: c,
		}
	}
	return out
}

func TestConstantPriceSeries(t *testing.T) {
	t.Parallel()
	closes := make([]float64, 120)
	for i := range closes {
		closes[i] = 1.1
	}

	for _, s := range Strategies {
		s := s
		t.Run(string(s), func(t *testing.T) {
			t.Parallel()
			r, err := Evaluate(barsFrom(closes), s, DefaultOptions())
			require.NoError(t, err)
			assert.Equal(t, 0.0, r.TotalReturn)
			assert.Equal(t, 0.0, r.Sharpe)
			assert.False(t, math.IsNaN(r.Sharpe))
			assert.Equal(t, 0.0, r.MaxDrawdown)
			assert.Equal(t, 0.0, r.WinRate)
			assert.Equal(t, 0, r.Trades)
			assert.Equal(t, 10000.0, r.FinalEquity)
			assert.Equal(t, 120, r.Bars)
			assert.NotEmpty(t, r.RunID)
		})
	}
}

func TestMaxDrawdown(t *testing.T) {
	t.Parallel()
	dd := MaxDrawdown([]float64{10000, 11000, 9000, 9500})
	assert.InDelta(t, (9000.0-11000.0)/11000.0, dd, 1e-12)
	assert.InDelta(t, -0.1818, dd, 1e-4)

	assert.Equal(t, 0.0, MaxDrawdown(nil))
	assert.Equal(t, 0.0, MaxDrawdown([]float64{1, 2, 3}))
}

func TestReturnsAndEquity(t *testing.T) {
	t.Parallel()

	r := Returns([]float64{100, 110, 99, 0, 50}, []float64{1, 1, -1, 1, 0})
	require.Len(t, r, 4)
	assert.InDelta(t, 0.1, r[0], 1e-12)
	assert.InDelta(t, -0.1, r[1], 1e-12)
	assert.InDelta(t, 1.0, r[2], 1e-12, "short through a fall to zero")
	assert.Equal(t, 0.0, r[3], "zero previous close yields no change")

	assert.Nil(t, Returns([]float64{1}, []float64{1}))

	eq := EquityCurve(100, []float64{0.1, -0.1})
	require.Len(t, eq, 3)
	assert.InDelta(t, 110, eq[1], 1e-9)
	assert.InDelta(t, 99, eq[2], 1e-9, "returns compound")
}

func TestSharpe(t *testing.T) {
	t.Parallel()

	returns := []float64{0.01, -0.01, 0.02}
	mean := 0.02 / 3
	ss := 0.0
	for _, x := range returns {
		ss += (x - mean) * (x - mean)
	}
	std := math.Sqrt(ss / 2)
	want := math.Sqrt(252) * (mean - 0.02/252) / std
	assert.InDelta(t, want, Sharpe(returns, 0.02), 1e-12)

	assert.Equal(t, 0.0, Sharpe([]float64{0.01}, 0.02))
	assert.Equal(t, 0.0, Sharpe([]float64{0.01, 0.01, 0.01}, 0.02))
	assert.Equal(t, 0.0, Sharpe(nil, 0.02))
}

func TestWinRateAndTrades(t *testing.T) {
	t.Parallel()
	assert.InDelta(t, 2.0/3, WinRate([]float64{0, 0.1, -0.05, 0.02}), 1e-12)
	assert.Equal(t, 0.0, WinRate([]float64{0, 0}))

	assert.Equal(t, 2, TradeCount([]float64{0, 1, 1, 0, 0, 1, 0}))
	assert.Equal(t, 1, TradeCount([]float64{0, 1, -1}))
	assert.Equal(t, 0, TradeCount([]float64{0, 1}))
}

func TestPositions(t *testing.T) {
	t.Parallel()
	ready := func(v float64) indicators.Reading { return indicators.Reading{Value: v, Ready: true} }

	snaps := []indicators.Snapshot{
		{Price: 1.0},
		{Price: 1.0, SMAFast: ready(1.1), SMASlow: ready(1.0), RSI: ready(50)},
		{Price: 0.90, SMAFast: ready(0.9), SMASlow: ready(1.0), RSI: ready(20),
			BBUpper: ready(1.1), BBMid: ready(1.0), BBLower: ready(0.95)},
		{Price: 1.20, SMAFast: ready(1.0), SMASlow: ready(1.0), RSI: ready(80),
			BBUpper: ready(1.1), BBMid: ready(1.0), BBLower: ready(0.95)},
	}
	opts := DefaultOptions()

	pos, err := Positions(snaps, MACrossover, opts.Signals)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 0, 0}, pos)

	pos, err = Positions(snaps, MeanReversion, opts.Signals)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 1, -1}, pos)

	_, err = Positions(snaps, Strategy("martingale"), opts.Signals)
	assert.Error(t, err)
}

func TestEvaluateTrend(t *testing.T) {
	t.Parallel()
	closes := make([]float64, 200)
	for i := range closes {
		closes[i] = 1.0 + 0.001*float64(i)
	}
	opts := DefaultOptions()
	opts.Symbol = "EURUSD"
	opts.Timeframe = "H1"

	r, err := Evaluate(barsFrom(closes), MACrossover, opts)
	require.NoError(t, err)
	assert.Greater(t, r.TotalReturn, 0.0)
	assert.Greater(t, r.Sharpe, 0.0)
	assert.Equal(t, 0.0, r.MaxDrawdown)
	assert.Equal(t, 1.0, r.WinRate)
	assert.Equal(t, 0, r.Trades, "a single entry is half a round trip")
	assert.Equal(t, start, r.Start)
	assert.Equal(t, start.Add(199*time.Hour), r.End)
	assert.InDelta(t, r.FinalEquity, opts.InitialBalance*(1+r.TotalReturn), 1e-6)

	reports, err := EvaluateAll(barsFrom(closes), opts)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, MACrossover, reports[0].Strategy)
	assert.Equal(t, MeanReversion, reports[1].Strategy)
	assert.NotEqual(t, reports[0].RunID, reports[1].RunID)
}

func TestEvaluateErrors(t *testing.T) {
	t.Parallel()
	opts := DefaultOptions()

	_, err := Evaluate(nil, MACrossover, opts)
	assert.Error(t, err)

	bad := opts
	bad.InitialBalance = 0
	_, err = Evaluate(barsFrom([]float64{1, 2}), MACrossover, bad)
	assert.Error(t, err)

	bars := barsFrom([]float64{1, 2, 3})
	bars[2].Time = bars[0].Time
	_, err = Evaluate(bars, MACrossover, opts)
	assert.ErrorIs(t, err, indicators.ErrOutOfOrder)
}

func TestParseStrategy(t *testing.T) {
	t.Parallel()
	s, err := ParseStrategy("MA-Crossover")
	require.NoError(t, err)
	assert.Equal(t, MACrossover, s)
	s, err = ParseStrategy("mean_reversion")
	require.NoError(t, err)
	assert.Equal(t, MeanReversion, s)
	_, err = ParseStrategy("grid")
	assert.Error(t, err)
}
