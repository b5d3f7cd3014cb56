package indicators

import (
	"fmt"

	"github.com/rustyeddy/signaltrader/market"
)

// SimpleMA is a streaming Simple Moving Average indicator
type SimpleMA struct {
	period int
	closes *window
}

// NewMA creates a new Simple Moving Average indicator with the given period
func NewMA(period int) *SimpleMA {
	return &SimpleMA{
		period: period,
		closes: newWindow(period),
	}
}

func (m *SimpleMA) Name() string {
	return fmt.Sprintf("MA(%d)", m.period)
}

func (m *SimpleMA) Warmup() int {
	return m.period
}

func (m *SimpleMA) Reset() {
	m.closes.reset()
}

func (m *SimpleMA) Update(c market.Candle) {
	m.closes.push(c.Close)
}

func (m *SimpleMA) Ready() bool {
	return m.closes.full()
}

// Value sums the window on every call instead of keeping a running total so
// that long streams do not accumulate floating point drift.
func (m *SimpleMA) Value() float64 {
	if !m.Ready() {
		return 0
	}
	return m.closes.mean()
}

// ExponentialMA is a streaming Exponential Moving Average indicator.
// It is seeded by the first close and then follows
// ema = alpha*close + (1-alpha)*ema with alpha = 2/(span+1).
type ExponentialMA struct {
	period int
	alpha  float64
	ema    float64
	count  int
}

// NewEMA creates a new Exponential Moving Average indicator with the given span
func NewEMA(period int) *ExponentialMA {
	return &ExponentialMA{
		period: period,
		alpha:  2.0 / float64(period+1),
	}
}

func (e *ExponentialMA) Name() string {
	return fmt.Sprintf("EMA(%d)", e.period)
}

func (e *ExponentialMA) Warmup() int {
	return 1
}

func (e *ExponentialMA) Reset() {
	e.ema = 0
	e.count = 0
}

func (e *ExponentialMA) Update(c market.Candle) {
	e.push(c.Close)
}

func (e *ExponentialMA) push(v float64) {
	if e.count == 0 {
		e.ema = v
	} else {
		e.ema = e.alpha*v + (1-e.alpha)*e.ema
	}
	e.count++
}

func (e *ExponentialMA) Ready() bool {
	return e.count > 0
}

func (e *ExponentialMA) Value() float64 {
	if !e.Ready() {
		return 0
	}
	return e.ema
}
