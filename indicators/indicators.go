// Package indicators provides streaming technical analysis indicators.
//
// Every indicator consumes closed candles one at a time and only ever looks at
// data at or before the latest candle, so live trading and backtests that feed
// the same candles get bit-identical values.
package indicators

import "github.com/rustyeddy/signaltrader/market"

// Indicator computes a single streaming value from candles.
type Indicator interface {
	// Name returns a stable identifier like "EMA(20)" or "RSI(14)".
	Name() string

	// Warmup returns how many updates are needed before Ready() can be true.
	Warmup() int

	// Reset clears all internal state.
	Reset()

	// Update consumes the next *closed* candle and updates internal state.
	Update(c market.Candle)

	// Ready reports whether Value() is meaningful (warmup completed).
	Ready() bool

	// Value returns the current value, or 0 while !Ready().
	Value() float64
}

// Reading is an indicator value together with its readiness. A Reading that
// is not Ready is the "undefined" value; Value is 0 in that case.
type Reading struct {
	Value float64 `json:"value"`
	Ready bool    `json:"ready"`
}

func read(ind Indicator) Reading {
	if !ind.Ready() {
		return Reading{}
	}
	return Reading{Value: ind.Value(), Ready: true}
}

// window is a fixed-capacity FIFO of float64 values.
type window struct {
	size int
	vals []float64
}

func newWindow(size int) *window {
	return &window{size: size, vals: make([]float64, 0, size)}
}

func (w *window) push(v float64) {
	if len(w.vals) == w.size {
		copy(w.vals, w.vals[1:])
		w.vals = w.vals[:w.size-1]
	}
	w.vals = append(w.vals, v)
}

func (w *window) full() bool { return len(w.vals) == w.size }

func (w *window) reset() { w.vals = w.vals[:0] }

func (w *window) mean() float64 {
	if len(w.vals) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range w.vals {
		sum += v
	}
	return sum / float64(len(w.vals))
}
