package ledger

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) (*SQLiteStore, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLite(path)
	require.NoError(t, err)
	return s, path
}

func TestSQLiteSchemaCreated(t *testing.T) {
	t.Parallel()

	s, path := newTestSQLite(t)
	assert.Equal(t, path, s.Path())
	require.NoError(t, s.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type IN ('table','index')`)
	require.NoError(t, err)
	defer rows.Close()

	found := map[string]bool{}
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		found[name] = true
	}
	require.NoError(t, rows.Err())

	for _, name := range []string{
		"trades", "performance", "market_data",
		"idx_trades_timestamp", "idx_trades_symbol", "idx_trades_status",
	} {
		assert.True(t, found[name], name)
	}
}

func TestSQLiteInsertAndClose(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _ := newTestSQLite(t)
	t.Cleanup(func() { s.Close() })

	open := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	id, err := s.InsertTrade(ctx, sampleTrade("T1", open))
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	got, err := s.GetTrade(ctx, "T1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ID)
	assert.True(t, got.Time.Equal(open))
	assert.Equal(t, "BUY", got.Direction)
	assert.InDelta(t, 0.1, got.Lots, 1e-12)
	assert.InDelta(t, 1.1940, got.StopLoss, 1e-12)
	assert.Equal(t, StatusOpen, got.Status)
	assert.True(t, got.CloseTime.IsZero())

	closeAt := open.Add(time.Hour)
	rec, err := s.CloseTrade(ctx, "T1", Exit{Price: 1.2120, Profit: 120, Time: closeAt, Reason: "take_profit"})
	require.NoError(t, err)
	assert.Equal(t, StatusClosed, rec.Status)

	got, err = s.GetTrade(ctx, "T1")
	require.NoError(t, err)
	assert.Equal(t, StatusClosed, got.Status)
	assert.InDelta(t, 120, got.Profit, 1e-12)
	assert.True(t, got.CloseTime.Equal(closeAt))
	assert.Equal(t, "take_profit", got.CloseReason)

	_, err = s.GetTrade(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.CloseTrade(ctx, "missing", Exit{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteRejectsBadDirection(t *testing.T) {
	t.Parallel()
	s, _ := newTestSQLite(t)
	t.Cleanup(func() { s.Close() })

	rec := sampleTrade("X", time.Now())
	rec.Direction = "HOLD"
	_, err := s.InsertTrade(context.Background(), rec)
	assert.Error(t, err)
}

func TestSQLiteInsertDefaultsStatus(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _ := newTestSQLite(t)
	t.Cleanup(func() { s.Close() })

	unset := sampleTrade("U", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	require.Empty(t, unset.Status)
	_, err := s.InsertTrade(ctx, unset)
	require.NoError(t, err)

	pending := sampleTrade("P", time.Date(2024, 1, 2, 1, 0, 0, 0, time.UTC))
	pending.Status = StatusPending
	_, err = s.InsertTrade(ctx, pending)
	require.NoError(t, err)

	got, err := s.GetTrade(ctx, "U")
	require.NoError(t, err)
	assert.Equal(t, StatusOpen, got.Status)
	got, err = s.GetTrade(ctx, "P")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)

	bad := sampleTrade("B", time.Date(2024, 1, 2, 2, 0, 0, 0, time.UTC))
	bad.Status = "LOST"
	_, err = s.InsertTrade(ctx, bad)
	assert.Error(t, err, "the status check still applies to explicit values")
}

func TestSQLiteTradesBetween(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _ := newTestSQLite(t)
	t.Cleanup(func() { s.Close() })

	base := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	for i, sym := range []string{"EURUSD", "GBPUSD", "EURUSD", "EURUSD"} {
		r := sampleTrade(string(rune('A'+i)), base.Add(time.Duration(i)*12*time.Hour))
		r.Symbol = sym
		_, err := s.InsertTrade(ctx, r)
		require.NoError(t, err)
	}

	recs, err := s.TradesBetween(ctx, base, base.Add(24*time.Hour), "")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "A", recs[0].Ticket)
	assert.Equal(t, "B", recs[1].Ticket)

	recs, err = s.TradesBetween(ctx, base, base.Add(48*time.Hour), "EURUSD")
	require.NoError(t, err)
	require.Len(t, recs, 3)
	for _, r := range recs {
		assert.Equal(t, "EURUSD", r.Symbol)
	}
}

func TestSQLitePerformanceUpsert(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _ := newTestSQLite(t)
	t.Cleanup(func() { s.Close() })

	p := DailyPerformance{Date: "2024-02-01", TotalTrades: 1, WinningTrades: 1, TotalProfit: 10, WinRate: 1}
	require.NoError(t, s.UpsertDailyPerformance(ctx, p))
	p.TotalTrades = 2
	p.LosingTrades = 1
	p.TotalProfit = 4
	p.WinRate = 0.5
	p.ProfitFactor = 10.0 / 6
	require.NoError(t, s.UpsertDailyPerformance(ctx, p))

	got, err := s.DailyPerformance(ctx, "2024-02-01")
	require.NoError(t, err)
	assert.Equal(t, p, got, "one row per date, replaced wholesale")

	_, err = s.DailyPerformance(ctx, "2024-02-02")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteMemory(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, err := NewSQLite(MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	_, err = s.InsertTrade(ctx, sampleTrade("M", time.Now()))
	require.NoError(t, err)
	_, err = s.GetTrade(ctx, "M")
	assert.NoError(t, err, "every query sees the same in-memory database")
}
