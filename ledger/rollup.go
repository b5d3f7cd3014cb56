package ledger

import (
	"sort"
	"time"
)

// Rollup aggregates the records entered on date. It is a pure function of
// its inputs so recomputing a day from the same records always yields the
// same row. Open and pending trades count towards TotalTrades only.
func Rollup(date string, recs []TradeRecord) DailyPerformance {
	p := DailyPerformance{Date: date, TotalTrades: len(recs)}

	closed := make([]TradeRecord, 0, len(recs))
	var grossProfit, grossLoss float64
	for _, r := range recs {
		if r.Status != StatusClosed {
			continue
		}
		closed = append(closed, r)
		p.TotalProfit += r.Profit
		switch {
		case r.Profit > 0:
			p.WinningTrades++
			grossProfit += r.Profit
		case r.Profit < 0:
			p.LosingTrades++
			grossLoss -= r.Profit
		}
	}

	if p.TotalTrades > 0 {
		p.WinRate = float64(p.WinningTrades) / float64(p.TotalTrades)
	}
	p.ProfitFactor = profitFactor(grossProfit, grossLoss)
	p.MaxDrawdown = realisedDrawdown(closed)
	return p
}

// realisedDrawdown is the largest peak to trough fall of cumulative
// realised profit, in account currency, walking trades in close order.
func realisedDrawdown(closed []TradeRecord) float64 {
	sorted := append([]TradeRecord(nil), closed...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return closedAt(sorted[i]).Before(closedAt(sorted[j]))
	})

	var cum, peak, dd float64
	for _, r := range sorted {
		cum += r.Profit
		if cum > peak {
			peak = cum
		}
		if peak-cum > dd {
			dd = peak - cum
		}
	}
	return dd
}

func closedAt(r TradeRecord) time.Time {
	if r.CloseTime.IsZero() {
		return r.Time
	}
	return r.CloseTime
}

// profitFactor is gross profit over gross loss; 0 when there were no losses.
func profitFactor(grossProfit, grossLoss float64) float64 {
	if grossLoss == 0 {
		return 0
	}
	return grossProfit / grossLoss
}

// Summarise computes Statistics over recs for a window of days.
func Summarise(days int, recs []TradeRecord) Statistics {
	s := Statistics{PeriodDays: days, TotalTrades: len(recs)}

	var grossProfit, grossLoss float64
	for _, r := range recs {
		s.TotalProfit += r.Profit
		switch {
		case r.Profit > 0:
			s.WinningTrades++
			grossProfit += r.Profit
			if r.Profit > s.LargestWin {
				s.LargestWin = r.Profit
			}
		case r.Profit < 0:
			s.LosingTrades++
			grossLoss -= r.Profit
			if r.Profit < s.LargestLoss {
				s.LargestLoss = r.Profit
			}
		}
	}

	if s.TotalTrades > 0 {
		s.WinRate = float64(s.WinningTrades) / float64(s.TotalTrades)
	}
	if s.WinningTrades > 0 {
		s.AvgWin = grossProfit / float64(s.WinningTrades)
	}
	if s.LosingTrades > 0 {
		s.AvgLoss = -grossLoss / float64(s.LosingTrades)
	}
	s.ProfitFactor = profitFactor(grossProfit, grossLoss)
	return s
}
