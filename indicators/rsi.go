package indicators

import (
	"fmt"

	"github.com/rustyeddy/signaltrader/market"
)

// RSI is a streaming Relative Strength Index using simple rolling means of
// the last period gains and losses. It needs period+1 closes.
type RSI struct {
	period    int
	deltas    *window
	prevClose float64
	hasPrev   bool
}

// NewRSI creates a new RSI indicator with the given period
func NewRSI(period int) *RSI {
	return &RSI{
		period: period,
		deltas: newWindow(period),
	}
}

func (r *RSI) Name() string {
	return fmt.Sprintf("RSI(%d)", r.period)
}

func (r *RSI) Warmup() int {
	return r.period + 1
}

func (r *RSI) Reset() {
	r.deltas.reset()
	r.prevClose = 0
	r.hasPrev = false
}

func (r *RSI) Update(c market.Candle) {
	if r.hasPrev {
		r.deltas.push(c.Close - r.prevClose)
	}
	r.prevClose = c.Close
	r.hasPrev = true
}

func (r *RSI) Ready() bool {
	return r.deltas.full()
}

// Value is in [0, 100]. A window with no losses reads 100.
func (r *RSI) Value() float64 {
	if !r.Ready() {
		return 0
	}

	var gain, loss float64
	for _, d := range r.deltas.vals {
		if d > 0 {
			gain += d
		} else {
			loss -= d
		}
	}
	if loss == 0 {
		return 100
	}
	avgGain := gain / float64(r.period)
	avgLoss := loss / float64(r.period)
	return 100 - 100/(1+avgGain/avgLoss)
}
