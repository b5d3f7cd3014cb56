package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func closed(ticket string, entry time.Time, profit float64, closeAt time.Time) TradeRecord {
	r := sampleTrade(ticket, entry)
	r.applyExit(Exit{Price: 1.2, Profit: profit, Time: closeAt})
	return r
}

func TestRollup(t *testing.T) {
	t.Parallel()
	day := time.Date(2024, 5, 6, 8, 0, 0, 0, time.UTC)

	recs := []TradeRecord{
		closed("a", day, 40, day.Add(4*time.Hour)),
		closed("b", day.Add(time.Hour), -30, day.Add(2*time.Hour)),
		closed("c", day.Add(2*time.Hour), -20, day.Add(3*time.Hour)),
		closed("d", day.Add(3*time.Hour), 0, day.Add(5*time.Hour)),
		sampleTrade("e", day.Add(4*time.Hour)),
	}

	p := Rollup("2024-05-06", recs)
	assert.Equal(t, "2024-05-06", p.Date)
	assert.Equal(t, 5, p.TotalTrades)
	assert.Equal(t, 1, p.WinningTrades)
	assert.Equal(t, 2, p.LosingTrades)
	assert.InDelta(t, -10, p.TotalProfit, 1e-9)
	assert.InDelta(t, 0.2, p.WinRate, 1e-12)
	assert.InDelta(t, 40.0/50, p.ProfitFactor, 1e-12)
	// close order: -30, -20, +40, 0
	assert.InDelta(t, 50, p.MaxDrawdown, 1e-9)

	assert.Equal(t, p, Rollup("2024-05-06", recs), "recomputing is idempotent")
}

func TestRollupEmptyAndNoLosses(t *testing.T) {
	t.Parallel()
	assert.Equal(t, DailyPerformance{Date: "2024-01-01"}, Rollup("2024-01-01", nil))

	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	p := Rollup("2024-01-01", []TradeRecord{closed("a", day, 10, day)})
	assert.Equal(t, 0.0, p.ProfitFactor)
	assert.Equal(t, 1.0, p.WinRate)
	assert.Equal(t, 0.0, p.MaxDrawdown)
}

func TestSummariseEmpty(t *testing.T) {
	t.Parallel()
	s := Summarise(30, nil)
	assert.Equal(t, Statistics{PeriodDays: 30}, s)
}
