package indicators

import (
	"fmt"

	"github.com/rustyeddy/signaltrader/market"
)

// MACD is EMA(fast) minus EMA(slow), with a signal line that is an EMA of
// the MACD values themselves.
type MACD struct {
	fast, slow *ExponentialMA
	signal     *ExponentialMA
}

// NewMACD creates a MACD indicator, typically NewMACD(12, 26, 9).
func NewMACD(fast, slow, signal int) *MACD {
	return &MACD{
		fast:   NewEMA(fast),
		slow:   NewEMA(slow),
		signal: NewEMA(signal),
	}
}

func (m *MACD) Name() string {
	return fmt.Sprintf("MACD(%d,%d,%d)", m.fast.period, m.slow.period, m.signal.period)
}

func (m *MACD) Warmup() int {
	return 1
}

func (m *MACD) Reset() {
	m.fast.Reset()
	m.slow.Reset()
	m.signal.Reset()
}

func (m *MACD) Update(c market.Candle) {
	m.fast.Update(c)
	m.slow.Update(c)
	m.signal.push(m.fast.Value() - m.slow.Value())
}

func (m *MACD) Ready() bool {
	return m.fast.Ready() && m.slow.Ready()
}

func (m *MACD) Value() float64 {
	if !m.Ready() {
		return 0
	}
	return m.fast.Value() - m.slow.Value()
}

// Signal returns the signal line value.
func (m *MACD) Signal() float64 {
	return m.signal.Value()
}

// Histogram returns MACD minus its signal line.
func (m *MACD) Histogram() float64 {
	return m.Value() - m.Signal()
}
