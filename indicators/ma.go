package indicators

import (
	"fmt"

	"github.com/rustyeddy/signaltrader/market"
)

// MA calculates the Simple Moving Average of the last period closes.
func MA(candles []market.Candle, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("period must be positive, got %d", period)
	}
	if len(candles) < period {
		return 0, fmt.Errorf("not enough candles: need %d, got %d", period, len(candles))
	}

	sum := 0.0
	for i := len(candles) - period; i < len(candles); i++ {
		sum += candles[i].Close
	}
	return sum / float64(period), nil
}

// EMA calculates the Exponential Moving Average with span period over all
// candles, seeded by the first close.
func EMA(candles []market.Candle, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("period must be positive, got %d", period)
	}
	if len(candles) == 0 {
		return 0, fmt.Errorf("not enough candles: need 1, got 0")
	}

	e := NewEMA(period)
	for _, c := range candles {
		e.Update(c)
	}
	return e.Value(), nil
}
