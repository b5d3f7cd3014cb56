package indicators

import (
	"fmt"
	"math"

	"github.com/rustyeddy/signaltrader/market"
)

func trueRange(curr market.Candle, prevClose float64) float64 {
	a := curr.High - curr.Low
	b := math.Abs(curr.High - prevClose)
	c := math.Abs(curr.Low - prevClose)
	return math.Max(a, math.Max(b, c))
}

// ATR is a streaming Average True Range indicator. The value is the simple
// mean of the last period true ranges; the very first candle has no previous
// close so its true range is high minus low.
type ATR struct {
	period      int
	ranges      *window
	prevClose   float64
	hasPrevious bool
}

// NewATR creates a new Average True Range indicator with the given period
func NewATR(period int) *ATR {
	return &ATR{
		period: period,
		ranges: newWindow(period),
	}
}

func (a *ATR) Name() string {
	return fmt.Sprintf("ATR(%d)", a.period)
}

func (a *ATR) Warmup() int {
	return a.period
}

func (a *ATR) Reset() {
	a.ranges.reset()
	a.prevClose = 0
	a.hasPrevious = false
}

func (a *ATR) Update(c market.Candle) {
	tr := c.High - c.Low
	if a.hasPrevious {
		tr = trueRange(c, a.prevClose)
	}
	a.ranges.push(tr)
	a.prevClose = c.Close
	a.hasPrevious = true
}

func (a *ATR) Ready() bool {
	return a.ranges.full()
}

func (a *ATR) Value() float64 {
	if !a.Ready() {
		return 0
	}
	return a.ranges.mean()
}
