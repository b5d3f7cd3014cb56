package risk

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/signaltrader/market"
)

// RR is the reward to risk ratio of a planned trade.
func RR(entry, stop, takeProfit float64) float64 {
	risk := math.Abs(entry - stop)
	reward := math.Abs(takeProfit - entry)
	if risk == 0 {
		return 0
	}
	return reward / risk
}

// StopPips is the entry to stop distance measured in pips.
func StopPips(entry, stop, pipSize float64) float64 {
	if pipSize <= 0 {
		return 0
	}
	d := decimal.NewFromFloat(entry).Sub(decimal.NewFromFloat(stop)).Abs()
	pips, _ := d.Div(decimal.NewFromFloat(pipSize)).Float64()
	return pips
}

type SizeInputs struct {
	Equity     decimal.Decimal
	EntryPrice float64
	StopPrice  float64
	Instrument market.InstrumentMeta
}

type SizeResult struct {
	Lots       decimal.Decimal
	StopPips   float64
	RiskAmount decimal.Decimal
	// Fallback is set when the pip value could not be resolved and the
	// policy default lot size was used instead.
	Fallback bool
}

// RoundToStep rounds lots to the nearest multiple of step.
func RoundToStep(lots decimal.Decimal, step float64) decimal.Decimal {
	if step <= 0 {
		return lots
	}
	s := decimal.NewFromFloat(step)
	return lots.Div(s).Round(0).Mul(s)
}

// Size computes lots = equity*risk / (stop_pips*pip_value), capped at the
// policy lot cap and rounded to the instrument lot step.
func Size(p Policy, in SizeInputs) (SizeResult, error) {
	res := SizeResult{
		RiskAmount: in.Equity.Mul(decimal.NewFromFloat(p.RiskPerTrade)),
	}

	inst := in.Instrument
	if inst.PipSize <= 0 || inst.PipValue <= 0 {
		res.Lots = RoundToStep(decimal.NewFromFloat(p.DefaultLots), inst.LotStep)
		res.Fallback = true
		return res, nil
	}

	res.StopPips = StopPips(in.EntryPrice, in.StopPrice, inst.PipSize)
	if res.StopPips == 0 {
		return res, fmt.Errorf("stop %.5f equals entry %.5f", in.StopPrice, in.EntryPrice)
	}

	perLot := decimal.NewFromFloat(res.StopPips).Mul(decimal.NewFromFloat(inst.PipValue))
	lots := res.RiskAmount.Div(perLot)
	if limit := decimal.NewFromFloat(p.LotCap); lots.GreaterThan(limit) {
		lots = limit
	}
	res.Lots = RoundToStep(lots, inst.LotStep)
	return res, nil
}
