package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var testNow = time.Date(2024, 5, 6, 12, 0, 0, 0, time.UTC)

type testLedger struct {
	*Ledger
	store *SQLiteStore
	fs    afero.Fs
}

func newTestLedger(t *testing.T) testLedger {
	t.Helper()
	store, err := NewSQLite(MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	fs := afero.NewMemMapFs()
	l := New(Options{
		Store:    store,
		Backup:   NewBackup(fs, "/data/trades_backup.json"),
		Text:     NewTextLog(fs, "/data/trades_simple.log"),
		Location: time.UTC,
		Logger:   zaptest.NewLogger(t),
		Now:      func() time.Time { return testNow },
	})
	return testLedger{Ledger: l, store: store, fs: fs}
}

func sampleTrade(ticket string, at time.Time) TradeRecord {
	return TradeRecord{
		Ticket:     ticket,
		Time:       at,
		Direction:  "BUY",
		Symbol:     "EURUSD",
		Lots:       0.1,
		EntryPrice: 1.2000,
		StopLoss:   1.1940,
		TakeProfit: 1.2120,
		Strategy:   "ma_crossover",
		Reason:     "golden_cross",
		Balance:    10000,
	}
}

// failingStore fails every call.
type failingStore struct{}

var errDown = errors.New("store down")

func (failingStore) InsertTrade(context.Context, TradeRecord) (int64, error) { return 0, errDown }
func (failingStore) CloseTrade(context.Context, string, Exit) (TradeRecord, error) {
	return TradeRecord{}, errDown
}
func (failingStore) TradesBetween(context.Context, time.Time, time.Time, string) ([]TradeRecord, error) {
	return nil, errDown
}
func (failingStore) UpsertDailyPerformance(context.Context, DailyPerformance) error { return errDown }
func (failingStore) DailyPerformance(context.Context, string) (DailyPerformance, error) {
	return DailyPerformance{}, errDown
}
func (failingStore) InsertMarketData(context.Context, MarketData) error { return errDown }
func (failingStore) Close() error                                       { return nil }

func TestLogWritesStoreAndBackup(t *testing.T) {
	tl := newTestLedger(t)
	ctx := context.Background()

	tier := tl.Log(ctx, sampleTrade("T1", testNow.Add(-time.Hour)))
	assert.Equal(t, TierStore, tier)

	rec, err := tl.store.GetTrade(ctx, "T1")
	require.NoError(t, err)
	assert.Equal(t, StatusOpen, rec.Status)
	assert.Equal(t, "EURUSD", rec.Symbol)
	assert.True(t, rec.Time.Equal(testNow.Add(-time.Hour)))

	backup, err := tl.backup.Load()
	require.NoError(t, err)
	require.Len(t, backup, 1)
	assert.Equal(t, "T1", backup[0].Ticket)

	exists, err := afero.Exists(tl.fs, "/data/trades_simple.log")
	require.NoError(t, err)
	assert.False(t, exists, "text log is only used when the backup fails")

	perf, err := tl.DailyPerformance(ctx, "2024-05-06")
	require.NoError(t, err)
	assert.Equal(t, 1, perf.TotalTrades)
}

func TestLogNeverFailsWhenStoreAndBackupFail(t *testing.T) {
	mem := afero.NewMemMapFs()
	textFs := afero.NewMemMapFs()
	l := New(Options{
		Store:    failingStore{},
		Backup:   NewBackup(afero.NewReadOnlyFs(mem), "/data/trades_backup.json"),
		Text:     NewTextLog(textFs, "/data/trades_simple.log"),
		Location: time.UTC,
		Logger:   zaptest.NewLogger(t),
		Now:      func() time.Time { return testNow },
	})

	var tier Tier
	assert.NotPanics(t, func() {
		tier = l.Log(context.Background(), sampleTrade("T-FAIL", testNow))
	})
	assert.Equal(t, TierText, tier)

	raw, err := afero.ReadFile(textFs, "/data/trades_simple.log")
	require.NoError(t, err)
	assert.Contains(t, string(raw), "ticket=T-FAIL")
	assert.Contains(t, string(raw), "OPEN")

	tier = l.LogClose(context.Background(), "T-FAIL", Exit{Price: 1.21, Profit: 100, Time: testNow, Reason: "tp"})
	assert.Equal(t, TierText, tier)
	raw, err = afero.ReadFile(textFs, "/data/trades_simple.log")
	require.NoError(t, err)
	assert.Contains(t, string(raw), "CLOSE ticket=T-FAIL")
}

func TestLogWithNothingWritable(t *testing.T) {
	ro := afero.NewReadOnlyFs(afero.NewMemMapFs())
	l := New(Options{
		Store:  failingStore{},
		Backup: NewBackup(ro, "/b.json"),
		Text:   NewTextLog(ro, "/t.log"),
		Logger: zaptest.NewLogger(t),
	})
	assert.Equal(t, TierNone, l.Log(context.Background(), sampleTrade("T", testNow)))
}

func TestStoreDownServesFromBackup(t *testing.T) {
	fs := afero.NewMemMapFs()
	l := New(Options{
		Store:    failingStore{},
		Backup:   NewBackup(fs, "/data/trades_backup.json"),
		Text:     NewTextLog(fs, "/data/trades_simple.log"),
		Location: time.UTC,
		Logger:   zaptest.NewLogger(t),
		Now:      func() time.Time { return testNow },
	})
	ctx := context.Background()

	assert.Equal(t, TierBackup, l.Log(ctx, sampleTrade("A", testNow.Add(-2*time.Hour))))
	other := sampleTrade("B", testNow.Add(-time.Hour))
	other.Symbol = "GBPUSD"
	assert.Equal(t, TierBackup, l.Log(ctx, other))
	assert.Equal(t, TierBackup, l.LogClose(ctx, "A", Exit{Price: 1.205, Profit: 50, Time: testNow, Reason: "tp"}))

	recs, err := l.GetRecentTrades(ctx, 7, "")
	require.NoError(t, err)
	require.Len(t, recs, 2, "versions are folded by ticket")
	assert.Equal(t, "B", recs[0].Ticket, "newest first")
	assert.Equal(t, StatusClosed, recs[1].Status)
	assert.Equal(t, 50.0, recs[1].Profit)
	assert.Equal(t, "EURUSD", recs[1].Symbol, "close keeps the original entry fields")

	recs, err = l.GetRecentTrades(ctx, 7, "GBPUSD")
	require.NoError(t, err)
	require.Len(t, recs, 1)

	perf, err := l.DailyPerformance(ctx, "2024-05-06")
	require.NoError(t, err)
	assert.Equal(t, 2, perf.TotalTrades)
	assert.Equal(t, 1, perf.WinningTrades)
	assert.Equal(t, 50.0, perf.TotalProfit)
}

func TestLogCloseRecomputesEntryDateRollup(t *testing.T) {
	tl := newTestLedger(t)
	ctx := context.Background()
	day := time.Date(2024, 5, 5, 9, 0, 0, 0, time.UTC)

	tl.Log(ctx, sampleTrade("W", day))
	tl.Log(ctx, sampleTrade("L", day.Add(time.Hour)))
	tl.Log(ctx, sampleTrade("O", day.Add(2*time.Hour)))

	// the winner closes first, the loser the next day
	assert.Equal(t, TierStore, tl.LogClose(ctx, "W", Exit{Price: 1.205, Profit: 50, Time: day.Add(3 * time.Hour), Reason: "tp"}))
	assert.Equal(t, TierStore, tl.LogClose(ctx, "L", Exit{Price: 1.198, Profit: -20, Time: day.Add(26 * time.Hour), Reason: "sl"}))

	perf, err := tl.DailyPerformance(ctx, "2024-05-05")
	require.NoError(t, err)
	assert.Equal(t, DailyPerformance{
		Date:          "2024-05-05",
		TotalTrades:   3,
		WinningTrades: 1,
		LosingTrades:  1,
		TotalProfit:   30,
		WinRate:       1.0 / 3,
		ProfitFactor:  2.5,
		MaxDrawdown:   20,
	}, perf)

	_, err = tl.store.DailyPerformance(ctx, "2024-05-06")
	assert.ErrorIs(t, err, ErrNotFound, "closing on a later day does not create a row for that day")
}

func TestLogSurvivesCancelledContext(t *testing.T) {
	tl := newTestLedger(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Equal(t, TierStore, tl.Log(ctx, sampleTrade("C", testNow)))
	assert.Equal(t, TierStore, tl.LogClose(ctx, "C", Exit{Price: 1.21, Profit: 10, Time: testNow}))
}

func TestLogDefaults(t *testing.T) {
	tl := newTestLedger(t)
	ctx := context.Background()

	rec := sampleTrade("D", time.Time{})
	tl.Log(ctx, rec)

	got, err := tl.store.GetTrade(ctx, "D")
	require.NoError(t, err)
	assert.True(t, got.Time.Equal(testNow))
	assert.Equal(t, StatusOpen, got.Status)
}

func TestGetStatistics(t *testing.T) {
	tl := newTestLedger(t)
	ctx := context.Background()

	profits := []float64{100, -40, 60, -10}
	for i, p := range profits {
		ticket := string(rune('a' + i))
		tl.Log(ctx, sampleTrade(ticket, testNow.Add(-time.Duration(i+1)*time.Hour)))
		tl.LogClose(ctx, ticket, Exit{Price: 1.2, Profit: p, Time: testNow})
	}
	// outside the window
	tl.Log(ctx, sampleTrade("old", testNow.AddDate(0, 0, -40)))

	stats, err := tl.GetStatistics(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, 30, stats.PeriodDays)
	assert.Equal(t, 4, stats.TotalTrades)
	assert.Equal(t, 2, stats.WinningTrades)
	assert.Equal(t, 2, stats.LosingTrades)
	assert.InDelta(t, 0.5, stats.WinRate, 1e-12)
	assert.InDelta(t, 110, stats.TotalProfit, 1e-9)
	assert.InDelta(t, 80, stats.AvgWin, 1e-9)
	assert.InDelta(t, -25, stats.AvgLoss, 1e-9)
	assert.InDelta(t, 160.0/50, stats.ProfitFactor, 1e-9)
	assert.Equal(t, 100.0, stats.LargestWin)
	assert.Equal(t, -40.0, stats.LargestLoss)

	_, err = tl.GetStatistics(ctx, 0)
	assert.Error(t, err)
}

func TestRecordMarketDataBestEffort(t *testing.T) {
	tl := newTestLedger(t)
	ctx := context.Background()

	tl.RecordMarketData(ctx, MarketData{Time: testNow, Symbol: "EURUSD", Price: 1.2, RSI: 55})
	n, err := tl.store.CountMarketData(ctx, "EURUSD")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	l := New(Options{Store: failingStore{}, Logger: zaptest.NewLogger(t)})
	assert.NotPanics(t, func() { l.RecordMarketData(ctx, MarketData{Symbol: "EURUSD"}) })
}

func TestLogRejected(t *testing.T) {
	tl := newTestLedger(t)
	tl.LogRejected(testNow, "EURUSD", "BUY", "market closed")

	raw, err := afero.ReadFile(tl.fs, "/data/trades_simple.log")
	require.NoError(t, err)
	assert.Contains(t, string(raw), `REJECTED BUY EURUSD reason="market closed"`)
}

func TestTierString(t *testing.T) {
	assert.Equal(t, "store", TierStore.String())
	assert.Equal(t, "backup", TierBackup.String())
	assert.Equal(t, "text", TierText.String())
	assert.Equal(t, "none", TierNone.String())
}
