package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const MemoryPath = ":memory:"

type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLite opens (or creates) the database at path and applies Schema.
func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// one connection: a second one would see a different :memory: database
	// and file writes are serialised by SQLite anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema to %s: %w", path, err)
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// Path returns the database location, MemoryPath for an ephemeral store.
func (s *SQLiteStore) Path() string { return s.path }

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}

func (s *SQLiteStore) InsertTrade(ctx context.Context, r TradeRecord) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO trades
		(timestamp, ticket, type, symbol, lots, entry_price, exit_price, sl, tp, profit,
		 strategy, reason, balance, status, close_time, close_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Time.UTC(), r.Ticket, r.Direction, r.Symbol, r.Lots, r.EntryPrice, r.ExitPrice,
		r.StopLoss, r.TakeProfit, r.Profit, r.Strategy, r.Reason, r.Balance, string(r.statusOrOpen()),
		nullTime(r.CloseTime), r.CloseReason,
	)
	if err != nil {
		return 0, fmt.Errorf("insert trade %s: %w", r.Ticket, err)
	}
	return res.LastInsertId()
}

const tradeColumns = `id, timestamp, ticket, type, symbol, lots, entry_price, exit_price, sl, tp, profit,
	strategy, reason, balance, status, close_time, close_reason`

type scanner interface {
	Scan(dest ...any) error
}

func scanTrade(row scanner) (TradeRecord, error) {
	var (
		r         TradeRecord
		status    string
		closeTime sql.NullTime
	)
	err := row.Scan(
		&r.ID, &r.Time, &r.Ticket, &r.Direction, &r.Symbol, &r.Lots, &r.EntryPrice, &r.ExitPrice,
		&r.StopLoss, &r.TakeProfit, &r.Profit, &r.Strategy, &r.Reason, &r.Balance, &status,
		&closeTime, &r.CloseReason,
	)
	if err != nil {
		return TradeRecord{}, err
	}
	r.Status = Status(status)
	if closeTime.Valid {
		r.CloseTime = closeTime.Time
	}
	return r, nil
}

// GetTrade returns the most recent record for ticket.
func (s *SQLiteStore) GetTrade(ctx context.Context, ticket string) (TradeRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+tradeColumns+`
		FROM trades
		WHERE ticket = ?
		ORDER BY id DESC LIMIT 1`, ticket)

	rec, err := scanTrade(row)
	if errors.Is(err, sql.ErrNoRows) {
		return TradeRecord{}, fmt.Errorf("trade %q: %w", ticket, ErrNotFound)
	}
	return rec, err
}

func (s *SQLiteStore) CloseTrade(ctx context.Context, ticket string, e Exit) (TradeRecord, error) {
	rec, err := s.GetTrade(ctx, ticket)
	if err != nil {
		return TradeRecord{}, err
	}
	rec.applyExit(e)

	_, err = s.db.ExecContext(ctx, `
		UPDATE trades
		SET exit_price = ?, profit = ?, status = ?, close_time = ?, close_reason = ?
		WHERE id = ?`,
		rec.ExitPrice, rec.Profit, string(rec.Status), nullTime(rec.CloseTime), rec.CloseReason, rec.ID,
	)
	if err != nil {
		return TradeRecord{}, fmt.Errorf("close trade %s: %w", ticket, err)
	}
	return rec, nil
}

func (s *SQLiteStore) TradesBetween(ctx context.Context, start, end time.Time, symbol string) ([]TradeRecord, error) {
	q := `SELECT ` + tradeColumns + `
		FROM trades
		WHERE timestamp >= ? AND timestamp < ?`
	args := []any{start.UTC(), end.UTC()}
	if symbol != "" {
		q += ` AND symbol = ?`
		args = append(args, symbol)
	}
	q += ` ORDER BY timestamp ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		rec, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLiteStore) UpsertDailyPerformance(ctx context.Context, p DailyPerformance) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO performance
		(date, total_trades, winning_trades, losing_trades, total_profit, win_rate, profit_factor, max_drawdown)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Date, p.TotalTrades, p.WinningTrades, p.LosingTrades, p.TotalProfit,
		p.WinRate, p.ProfitFactor, p.MaxDrawdown,
	)
	if err != nil {
		return fmt.Errorf("upsert performance %s: %w", p.Date, err)
	}
	return nil
}

func (s *SQLiteStore) DailyPerformance(ctx context.Context, date string) (DailyPerformance, error) {
	var p DailyPerformance
	err := s.db.QueryRowContext(ctx, `
		SELECT date, total_trades, winning_trades, losing_trades, total_profit, win_rate, profit_factor, max_drawdown
		FROM performance
		WHERE date = ?`, date).Scan(
		&p.Date, &p.TotalTrades, &p.WinningTrades, &p.LosingTrades, &p.TotalProfit,
		&p.WinRate, &p.ProfitFactor, &p.MaxDrawdown,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return DailyPerformance{}, fmt.Errorf("performance %s: %w", date, ErrNotFound)
	}
	return p, err
}

func (s *SQLiteStore) InsertMarketData(ctx context.Context, md MarketData) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO market_data
		(timestamp, symbol, bid, ask, price, sma_fast, sma_slow, rsi, macd, macd_signal, bb_upper, bb_lower, atr)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		md.Time.UTC(), md.Symbol, md.Bid, md.Ask, md.Price, md.SMAFast, md.SMASlow, md.RSI,
		md.MACD, md.MACDSignal, md.BBUpper, md.BBLower, md.ATR,
	)
	if err != nil {
		return fmt.Errorf("insert market data: %w", err)
	}
	return nil
}

// CountMarketData returns the number of market_data rows for symbol.
func (s *SQLiteStore) CountMarketData(ctx context.Context, symbol string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM market_data WHERE symbol = ?`, symbol).Scan(&n)
	return n, err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
