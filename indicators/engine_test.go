package indicators

import (
	"errors"
	"testing"
	"time"

	"github.com/rustyeddy/signaltrader/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trendCandles(n int) []market.Candle {
	out := make([]market.Candle, n)
	for i := range out {
		c := 1.10 + 0.0005*float64(i)
		out[i] = market.Candle{
			Time:  baseTime.Add(time.Duration(i) * time.Hour),
			Open:  c - 0.0002,
			High:  c + 0.0004,
			Low:   c - 0.0004,
			Close: c,
		}
	}
	return out
}

func TestParamsValidate(t *testing.T) {
	require.NoError(t, DefaultParams().Validate())

	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"zero fast", func(p *Params) { p.SMAFast = 0 }},
		{"fast not below slow", func(p *Params) { p.SMAFast = 50 }},
		{"ema order", func(p *Params) { p.EMAFast = 30 }},
		{"bollinger period", func(p *Params) { p.BollingerPeriod = 1 }},
		{"bollinger k", func(p *Params) { p.BollingerK = 0 }},
		{"atr", func(p *Params) { p.ATRPeriod = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			assert.Error(t, p.Validate())
			_, err := NewEngine(p)
			assert.Error(t, err)
		})
	}
}

func TestEngineReadiness(t *testing.T) {
	e, err := NewEngine(DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, 50, e.Warmup())

	_, ok := e.Snapshot()
	assert.False(t, ok)

	var s Snapshot
	for i, c := range trendCandles(60) {
		s, err = e.Update(c)
		require.NoError(t, err)

		assert.True(t, s.EMAFast.Ready)
		assert.True(t, s.MACD.Ready)
		assert.Equal(t, i >= 19, s.SMAFast.Ready, "bar %d", i)
		assert.Equal(t, i >= 49, s.SMASlow.Ready, "bar %d", i)
		assert.Equal(t, i >= 14, s.RSI.Ready, "bar %d", i)
		assert.Equal(t, i >= 13, s.ATR.Ready, "bar %d", i)
		assert.Equal(t, i >= 19, s.BBMid.Ready, "bar %d", i)
	}

	assert.Equal(t, 60, e.Bars())
	assert.Greater(t, s.SMAFast.Value, s.SMASlow.Value)
	assert.Equal(t, 100.0, s.RSI.Value)
	assert.Greater(t, s.BBUpper.Value, s.BBMid.Value)
	assert.Less(t, s.BBLower.Value, s.BBMid.Value)

	last, ok := e.Snapshot()
	assert.True(t, ok)
	assert.Equal(t, s, last)
}

func TestEngineRejectsOutOfOrder(t *testing.T) {
	e, err := NewEngine(DefaultParams())
	require.NoError(t, err)

	candles := trendCandles(3)
	_, err = e.Update(candles[0])
	require.NoError(t, err)
	_, err = e.Update(candles[1])
	require.NoError(t, err)

	_, err = e.Update(candles[1])
	assert.True(t, errors.Is(err, ErrOutOfOrder))
	_, err = e.Update(candles[0])
	assert.True(t, errors.Is(err, ErrOutOfOrder))
	assert.Equal(t, 2, e.Bars(), "rejected candles are not consumed")
	assert.Equal(t, candles[1].Time, e.LastTime())

	e.Reset()
	assert.Equal(t, 0, e.Bars())
	_, err = e.Update(candles[0])
	assert.NoError(t, err)
}

func TestSeriesMatchesIncremental(t *testing.T) {
	candles := trendCandles(80)
	series, err := Series(candles, DefaultParams())
	require.NoError(t, err)
	require.Len(t, series, len(candles))

	e, err := NewEngine(DefaultParams())
	require.NoError(t, err)
	for i, c := range candles {
		s, err := e.Update(c)
		require.NoError(t, err)
		assert.Equal(t, s, series[i])
	}

	bad := append([]market.Candle{}, candles[:5]...)
	bad[3].Time = bad[1].Time
	_, err = Series(bad, DefaultParams())
	assert.ErrorIs(t, err, ErrOutOfOrder)
}
