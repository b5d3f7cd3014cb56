package signals

import "github.com/rustyeddy/signaltrader/indicators"

// Evaluate applies the crossover and RSI rules to two consecutive snapshots
// in priority order; the first rule that matches wins. A rule whose inputs
// are not ready never matches.
func Evaluate(prev, curr indicators.Snapshot, p Params) (Signal, bool) {
	crossReady := prev.SMAFast.Ready && prev.SMASlow.Ready &&
		curr.SMAFast.Ready && curr.SMASlow.Ready

	if crossReady {
		if curr.SMAFast.Value > curr.SMASlow.Value && prev.SMAFast.Value <= prev.SMASlow.Value {
			return newSignal(Buy, GoldenCross, curr.Time, curr.Price, p), true
		}
		if curr.SMAFast.Value < curr.SMASlow.Value && prev.SMAFast.Value >= prev.SMASlow.Value {
			return newSignal(Sell, DeathCross, curr.Time, curr.Price, p), true
		}
	}

	if curr.RSI.Ready && curr.SMAFast.Ready {
		if curr.RSI.Value < p.RSIOversold && curr.Price > curr.SMAFast.Value {
			return newSignal(Buy, OversoldBounce, curr.Time, curr.Price, p), true
		}
		if curr.RSI.Value > p.RSIOverbought && curr.Price < curr.SMAFast.Value {
			return newSignal(Sell, OverboughtDrop, curr.Time, curr.Price, p), true
		}
	}
	return Signal{}, false
}

// MeanReversion fires when price closes outside a Bollinger band with RSI
// confirming the extreme.
func MeanReversion(curr indicators.Snapshot, p Params) (Signal, bool) {
	if !curr.BBLower.Ready || !curr.RSI.Ready {
		return Signal{}, false
	}
	if curr.Price < curr.BBLower.Value && curr.RSI.Value < p.RSIOversold {
		return newSignal(Buy, BollingerOversold, curr.Time, curr.Price, p), true
	}
	if curr.Price > curr.BBUpper.Value && curr.RSI.Value > p.RSIOverbought {
		return newSignal(Sell, BollingerOverbought, curr.Time, curr.Price, p), true
	}
	return Signal{}, false
}
