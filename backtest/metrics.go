package backtest

import "math"

const tradingDays = 252

// Returns computes per-bar strategy returns for bars 1..n-1: the close to
// close change times the position held over the previous bar. A zero
// previous close yields a zero change.
func Returns(closes, positions []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	out := make([]float64, len(closes)-1)
	for t := 1; t < len(closes); t++ {
		if closes[t-1] == 0 {
			continue
		}
		change := (closes[t] - closes[t-1]) / closes[t-1]
		out[t-1] = change * positions[t-1]
	}
	return out
}

// EquityCurve compounds returns from initial. It has one more point than
// returns.
func EquityCurve(initial float64, returns []float64) []float64 {
	eq := make([]float64, len(returns)+1)
	eq[0] = initial
	for i, r := range returns {
		eq[i+1] = eq[i] * (1 + r)
	}
	return eq
}

// Sharpe is sqrt(252) * mean(r - rf/252) / stddev(r) using the sample
// standard deviation. It is 0 when there are fewer than two returns or no
// variation.
func Sharpe(returns []float64, annualRiskFree float64) float64 {
	n := len(returns)
	if n < 2 {
		return 0
	}
	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(n)

	ss := 0.0
	for _, r := range returns {
		ss += (r - mean) * (r - mean)
	}
	std := math.Sqrt(ss / float64(n-1))
	if std == 0 {
		return 0
	}
	excess := mean - annualRiskFree/tradingDays
	return math.Sqrt(tradingDays) * excess / std
}

// MaxDrawdown is the most negative (equity - running max) / running max.
func MaxDrawdown(equity []float64) float64 {
	dd := 0.0
	peak := math.Inf(-1)
	for _, e := range equity {
		if e > peak {
			peak = e
		}
		if peak <= 0 {
			continue
		}
		if d := (e - peak) / peak; d < dd {
			dd = d
		}
	}
	return dd
}

// WinRate is the fraction of non-zero returns that are positive.
func WinRate(returns []float64) float64 {
	var wins, nonZero int
	for _, r := range returns {
		if r == 0 {
			continue
		}
		nonZero++
		if r > 0 {
			wins++
		}
	}
	if nonZero == 0 {
		return 0
	}
	return float64(wins) / float64(nonZero)
}

// TradeCount counts position changes and halves them so a round trip
// counts once.
func TradeCount(positions []float64) int {
	changes := 0
	for t := 1; t < len(positions); t++ {
		if positions[t] != positions[t-1] {
			changes++
		}
	}
	return changes / 2
}
