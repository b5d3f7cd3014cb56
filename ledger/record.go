// Package ledger durably records trades and derives daily performance
// rollups. Writes go to a structured SQLite store, a JSON backup file that
// mirrors every record, and a plain text log used only when the backup
// cannot be written.
package ledger

import (
	"time"
)

type Status string

const (
	StatusOpen    Status = "OPEN"
	StatusClosed  Status = "CLOSED"
	StatusPending Status = "PENDING"
)

// TradeRecord is one trade from submission to close. Records are never
// deleted; closing mutates the record in place.
type TradeRecord struct {
	ID          int64     `json:"id,omitempty"`
	Ticket      string    `json:"ticket"`
	Time        time.Time `json:"timestamp"`
	Direction   string    `json:"type"`
	Symbol      string    `json:"symbol"`
	Lots        float64   `json:"lots"`
	EntryPrice  float64   `json:"entry_price"`
	ExitPrice   float64   `json:"exit_price,omitempty"`
	StopLoss    float64   `json:"sl"`
	TakeProfit  float64   `json:"tp"`
	Profit      float64   `json:"profit"`
	Strategy    string    `json:"strategy"`
	Reason      string    `json:"reason"`
	Balance     float64   `json:"balance"`
	Status      Status    `json:"status"`
	CloseTime   time.Time `json:"close_time,omitempty"`
	CloseReason string    `json:"close_reason,omitempty"`
}

// Exit describes how a position was closed.
type Exit struct {
	Price  float64
	Profit float64
	Time   time.Time
	Reason string
}

// statusOrOpen reads an unset status as a freshly submitted trade.
func (r TradeRecord) statusOrOpen() Status {
	if r.Status == "" {
		return StatusOpen
	}
	return r.Status
}

func (r *TradeRecord) applyExit(e Exit) {
	r.Status = StatusClosed
	r.ExitPrice = e.Price
	r.Profit = e.Profit
	r.CloseTime = e.Time
	r.CloseReason = e.Reason
}

// DailyPerformance is the rollup of every trade entered on Date.
type DailyPerformance struct {
	Date          string  `json:"date"`
	TotalTrades   int     `json:"total_trades"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
	TotalProfit   float64 `json:"total_profit"`
	WinRate       float64 `json:"win_rate"`
	ProfitFactor  float64 `json:"profit_factor"`
	MaxDrawdown   float64 `json:"max_drawdown"`
}

// Statistics summarises the trades of a trailing window.
type Statistics struct {
	PeriodDays    int     `json:"period_days"`
	TotalTrades   int     `json:"total_trades"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
	WinRate       float64 `json:"win_rate"`
	TotalProfit   float64 `json:"total_profit"`
	AvgWin        float64 `json:"avg_win"`
	AvgLoss       float64 `json:"avg_loss"`
	ProfitFactor  float64 `json:"profit_factor"`
	LargestWin    float64 `json:"largest_win"`
	LargestLoss   float64 `json:"largest_loss"`
}

// MarketData is one row of the indicator audit trail.
type MarketData struct {
	Time       time.Time `json:"timestamp"`
	Symbol     string    `json:"symbol"`
	Bid        float64   `json:"bid"`
	Ask        float64   `json:"ask"`
	Price      float64   `json:"price"`
	SMAFast    float64   `json:"sma_fast"`
	SMASlow    float64   `json:"sma_slow"`
	RSI        float64   `json:"rsi"`
	MACD       float64   `json:"macd"`
	MACDSignal float64   `json:"macd_signal"`
	BBUpper    float64   `json:"bb_upper"`
	BBLower    float64   `json:"bb_lower"`
	ATR        float64   `json:"atr"`
}
