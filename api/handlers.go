// Package api serves the ledger read queries to the dashboard layer.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/rustyeddy/signaltrader/ledger"
	"github.com/rustyeddy/signaltrader/risk"
)

// TradeReader is the read side of the ledger.
type TradeReader interface {
	GetRecentTrades(ctx context.Context, days int, symbol string) ([]ledger.TradeRecord, error)
	GetStatistics(ctx context.Context, days int) (ledger.Statistics, error)
	DailyPerformance(ctx context.Context, date string) (ledger.DailyPerformance, error)
}

// RiskReader exposes the governor state.
type RiskReader interface {
	State() risk.State
}

const (
	defaultDays = 7
	maxDays     = 366
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	trades TradeReader
	risk   RiskReader
	logger *zap.Logger
}

// NewHandler creates a new Handler. rr may be nil.
func NewHandler(trades TradeReader, rr RiskReader, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{trades: trades, risk: rr, logger: logger}
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetTrades handles GET /api/trades?days=&symbol=
func (h *Handler) GetTrades(w http.ResponseWriter, r *http.Request) {
	days, ok := daysParam(w, r)
	if !ok {
		return
	}
	symbol := r.URL.Query().Get("symbol")

	trades, err := h.trades.GetRecentTrades(r.Context(), days, symbol)
	if err != nil {
		h.fail(w, "trades query failed", err)
		return
	}
	if trades == nil {
		trades = []ledger.TradeRecord{}
	}
	respondJSON(w, http.StatusOK, trades)
}

// GetStatistics handles GET /api/statistics?days=
func (h *Handler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	days, ok := daysParam(w, r)
	if !ok {
		return
	}
	stats, err := h.trades.GetStatistics(r.Context(), days)
	if err != nil {
		h.fail(w, "statistics query failed", err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// GetPerformance handles GET /api/performance/{date}
func (h *Handler) GetPerformance(w http.ResponseWriter, r *http.Request) {
	date := mux.Vars(r)["date"]
	if _, err := time.Parse("2006-01-02", date); err != nil {
		http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	perf, err := h.trades.DailyPerformance(r.Context(), date)
	if err != nil {
		h.fail(w, "performance query failed", err)
		return
	}
	respondJSON(w, http.StatusOK, perf)
}

// GetRisk handles GET /api/risk
func (h *Handler) GetRisk(w http.ResponseWriter, r *http.Request) {
	if h.risk == nil {
		http.Error(w, "risk state not available", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, h.risk.State())
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	h.logger.Error(msg, zap.Error(err))
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func daysParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("days")
	if raw == "" {
		return defaultDays, true
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days <= 0 || days > maxDays {
		http.Error(w, "days must be an integer between 1 and 366", http.StatusBadRequest)
		return 0, false
	}
	return days, true
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
