package ledger

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a ticket or date has no row.
var ErrNotFound = errors.New("ledger: not found")

// Store is the structured, indexed tier.
type Store interface {
	InsertTrade(ctx context.Context, rec TradeRecord) (int64, error)
	// CloseTrade marks the most recent record for ticket closed and returns it.
	CloseTrade(ctx context.Context, ticket string, exit Exit) (TradeRecord, error)
	// TradesBetween returns records entered in [start, end), oldest first.
	// An empty symbol matches every symbol.
	TradesBetween(ctx context.Context, start, end time.Time, symbol string) ([]TradeRecord, error)
	UpsertDailyPerformance(ctx context.Context, p DailyPerformance) error
	DailyPerformance(ctx context.Context, date string) (DailyPerformance, error)
	InsertMarketData(ctx context.Context, md MarketData) error
	Close() error
}
