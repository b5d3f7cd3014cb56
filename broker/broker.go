// Package broker is the boundary to the market data and order execution
// venue. The live loop only talks to a Provider.
package broker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/signaltrader/market"
	"github.com/rustyeddy/signaltrader/signals"
)

// Provider supplies quotes, bars and account equity and accepts orders.
type Provider interface {
	LatestTick(ctx context.Context, symbol string) (market.Tick, error)
	RecentBars(ctx context.Context, symbol, timeframe string, count int) ([]market.Candle, error)
	AccountEquity(ctx context.Context) (decimal.Decimal, error)
	SubmitOrder(ctx context.Context, req OrderRequest) (OrderResult, error)
}

// ClosureSource is implemented by providers that close positions on their
// own, for example when a stop loss or take profit is hit.
type ClosureSource interface {
	Closures(ctx context.Context) ([]Closure, error)
}

type OrderRequest struct {
	Direction  signals.Direction
	Symbol     string
	Lots       decimal.Decimal
	Price      float64
	StopLoss   float64
	TakeProfit float64
	Comment    string
}

type OrderStatus string

const (
	StatusFilled  OrderStatus = "FILLED"
	StatusPending OrderStatus = "PENDING"
)

type OrderResult struct {
	Ticket      string
	Status      OrderStatus
	FilledPrice float64
	Time        time.Time
}

// Closure reports a position the venue closed.
type Closure struct {
	Ticket    string
	Symbol    string
	Direction signals.Direction
	Lots      decimal.Decimal
	ExitPrice float64
	Profit    decimal.Decimal
	Time      time.Time
	Reason    string
}

// Close reasons reported in Closure.Reason.
const (
	CloseStopLoss   = "stop_loss"
	CloseTakeProfit = "take_profit"
)

// RejectedError is returned by SubmitOrder when the venue refuses an order.
// It is an order outcome, not a transport failure.
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string {
	return "order rejected: " + e.Reason
}

// Rejected returns a RejectedError with a formatted reason.
func Rejected(format string, args ...any) error {
	return &RejectedError{Reason: fmt.Sprintf(format, args...)}
}

// AsRejected reports whether err is, or wraps, a RejectedError.
func AsRejected(err error) (*RejectedError, bool) {
	var re *RejectedError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}
