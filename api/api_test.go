package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rustyeddy/signaltrader/ledger"
	"github.com/rustyeddy/signaltrader/risk"
)

type fakeReader struct {
	trades  []ledger.TradeRecord
	stats   ledger.Statistics
	perf    ledger.DailyPerformance
	err     error
	days    int
	symbol  string
	perfDay string
}

func (f *fakeReader) GetRecentTrades(_ context.Context, days int, symbol string) ([]ledger.TradeRecord, error) {
	f.days, f.symbol = days, symbol
	return f.trades, f.err
}

func (f *fakeReader) GetStatistics(_ context.Context, days int) (ledger.Statistics, error) {
	f.days = days
	f.stats.PeriodDays = days
	return f.stats, f.err
}

func (f *fakeReader) DailyPerformance(_ context.Context, date string) (ledger.DailyPerformance, error) {
	f.perfDay = date
	f.perf.Date = date
	return f.perf, f.err
}

type fixedRisk risk.State

func (f fixedRisk) State() risk.State { return risk.State(f) }

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	t.Parallel()
	r := NewRouter(NewHandler(&fakeReader{}, nil, nil))
	rec := get(t, r, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestGetTrades(t *testing.T) {
	t.Parallel()
	f := &fakeReader{trades: []ledger.TradeRecord{{Ticket: "T1", Symbol: "EURUSD", Direction: "BUY"}}}
	r := NewRouter(NewHandler(f, nil, zaptest.NewLogger(t)))

	rec := get(t, r, "/api/trades?days=3&symbol=EURUSD")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, f.days)
	assert.Equal(t, "EURUSD", f.symbol)

	var got []ledger.TradeRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "T1", got[0].Ticket)

	rec = get(t, r, "/api/trades")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 7, f.days, "default window")
}

func TestGetTradesEmptyIsArray(t *testing.T) {
	t.Parallel()
	r := NewRouter(NewHandler(&fakeReader{}, nil, nil))
	rec := get(t, r, "/api/trades?days=1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestBadDays(t *testing.T) {
	t.Parallel()
	r := NewRouter(NewHandler(&fakeReader{}, nil, nil))
	for _, q := range []string{"0", "-2", "abc", "1000"} {
		rec := get(t, r, "/api/statistics?days="+q)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestGetStatistics(t *testing.T) {
	t.Parallel()
	f := &fakeReader{stats: ledger.Statistics{TotalTrades: 4, WinRate: 0.5}}
	r := NewRouter(NewHandler(f, nil, nil))

	rec := get(t, r, "/api/statistics?days=30")
	require.Equal(t, http.StatusOK, rec.Code)
	var got ledger.Statistics
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 30, got.PeriodDays)
	assert.Equal(t, 4, got.TotalTrades)
	assert.Equal(t, 0.5, got.WinRate)
}

func TestGetPerformance(t *testing.T) {
	t.Parallel()
	f := &fakeReader{perf: ledger.DailyPerformance{TotalTrades: 2, TotalProfit: 12.5}}
	r := NewRouter(NewHandler(f, nil, nil))

	rec := get(t, r, "/api/performance/2024-03-04")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2024-03-04", f.perfDay)
	var got ledger.DailyPerformance
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 2, got.TotalTrades)

	rec = get(t, r, "/api/performance/yesterday")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReaderErrorIs500(t *testing.T) {
	t.Parallel()
	r := NewRouter(NewHandler(&fakeReader{err: errors.New("backup unreadable")}, nil, zaptest.NewLogger(t)))
	rec := get(t, r, "/api/trades?days=1")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "backup unreadable")
}

func TestGetRisk(t *testing.T) {
	t.Parallel()
	state := fixedRisk{Date: "2024-03-04", TradesToday: 2, TradingAllowed: true, DayStartEquity: decimal.NewFromInt(10000)}

	rec := get(t, NewRouter(NewHandler(&fakeReader{}, state, nil)), "/api/risk")
	require.Equal(t, http.StatusOK, rec.Code)
	var got risk.State
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 2, got.TradesToday)
	assert.True(t, got.DayStartEquity.Equal(decimal.NewFromInt(10000)))

	rec = get(t, NewRouter(NewHandler(&fakeReader{}, nil, nil)), "/api/risk")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	t.Parallel()
	r := NewRouter(NewHandler(&fakeReader{}, nil, nil))

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodPost, "/api/trades", http.StatusMethodNotAllowed},
		{http.MethodDelete, "/api/statistics", http.StatusMethodNotAllowed},
		{http.MethodPut, "/api/performance/2024-03-04", http.StatusMethodNotAllowed},
		{http.MethodPost, "/api/risk", http.StatusMethodNotAllowed},
		{http.MethodPost, "/health", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/orders", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestAgainstLedger(t *testing.T) {
	t.Parallel()
	store, err := ledger.NewSQLite(ledger.MemoryPath)
	require.NoError(t, err)
	fs := afero.NewMemMapFs()
	now := time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)
	l := ledger.New(ledger.Options{
		Store:    store,
		Backup:   ledger.NewBackup(fs, "trades_backup.json"),
		Text:     ledger.NewTextLog(fs, "trades_fallback.log"),
		Location: time.UTC,
		Now:      func() time.Time { return now },
	})
	t.Cleanup(func() { l.Close() })

	ctx := context.Background()
	tier := l.Log(ctx, ledger.TradeRecord{
		Ticket: "T1", Time: now.Add(-time.Hour), Direction: "BUY", Symbol: "EURUSD",
		Lots: 0.1, EntryPrice: 1.1, StopLoss: 1.09, TakeProfit: 1.12, Strategy: "ma_crossover",
	})
	require.Equal(t, ledger.TierStore, tier)
	l.LogClose(ctx, "T1", ledger.Exit{Price: 1.12, Profit: 200, Time: now, Reason: "take_profit"})

	r := NewRouter(NewHandler(l, nil, nil))

	rec := get(t, r, "/api/trades?days=1")
	require.Equal(t, http.StatusOK, rec.Code)
	var trades []ledger.TradeRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &trades))
	require.Len(t, trades, 1)
	assert.Equal(t, ledger.StatusClosed, trades[0].Status)

	rec = get(t, r, "/api/performance/2024-03-04")
	require.Equal(t, http.StatusOK, rec.Code)
	var perf ledger.DailyPerformance
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &perf))
	assert.Equal(t, 1, perf.TotalTrades)
	assert.Equal(t, 200.0, perf.TotalProfit)
}

func TestServeStopsOnCancel(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, "127.0.0.1:0", NewRouter(NewHandler(&fakeReader{}, nil, nil)), time.Second, zaptest.NewLogger(t))
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServeBadAddr(t *testing.T) {
	t.Parallel()
	err := Serve(context.Background(), "not-an-addr", http.NotFoundHandler(), time.Second, nil)
	assert.Error(t, err)
}
