package indicators

import (
	"fmt"
	"math"

	"github.com/rustyeddy/signaltrader/market"
)

// Bollinger holds Bollinger Bands: the period mean of closes plus and minus
// k sample standard deviations.
type Bollinger struct {
	period int
	k      float64
	closes *window
}

// NewBollinger creates Bollinger Bands, typically NewBollinger(20, 2).
func NewBollinger(period int, k float64) *Bollinger {
	return &Bollinger{
		period: period,
		k:      k,
		closes: newWindow(period),
	}
}

func (b *Bollinger) Name() string {
	return fmt.Sprintf("BB(%d,%g)", b.period, b.k)
}

func (b *Bollinger) Warmup() int {
	return b.period
}

func (b *Bollinger) Reset() {
	b.closes.reset()
}

func (b *Bollinger) Update(c market.Candle) {
	b.closes.push(c.Close)
}

func (b *Bollinger) Ready() bool {
	return b.closes.full()
}

// Value returns the middle band.
func (b *Bollinger) Value() float64 {
	return b.Mid()
}

func (b *Bollinger) Mid() float64 {
	if !b.Ready() {
		return 0
	}
	return b.closes.mean()
}

func (b *Bollinger) Upper() float64 {
	if !b.Ready() {
		return 0
	}
	return b.Mid() + b.k*b.stddev()
}

func (b *Bollinger) Lower() float64 {
	if !b.Ready() {
		return 0
	}
	return b.Mid() - b.k*b.stddev()
}

// stddev uses the n-1 denominator.
func (b *Bollinger) stddev() float64 {
	n := len(b.closes.vals)
	if n < 2 {
		return 0
	}
	mean := b.closes.mean()
	ss := 0.0
	for _, v := range b.closes.vals {
		ss += (v - mean) * (v - mean)
	}
	return math.Sqrt(ss / float64(n-1))
}
