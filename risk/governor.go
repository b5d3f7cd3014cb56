package risk

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rustyeddy/signaltrader/market"
	"github.com/rustyeddy/signaltrader/signals"
)

const dateLayout = "2006-01-02"

// State is the per-day risk state. TradingAllowed only ever goes from true
// to false within a day.
type State struct {
	Date             string          `json:"date"`
	TradesToday      int             `json:"trades_today"`
	DailyPnLFraction float64         `json:"daily_pnl_fraction"`
	TradingAllowed   bool            `json:"trading_allowed"`
	DayStartEquity   decimal.Decimal `json:"day_start_equity"`
}

// Governor enforces the daily limits for one instrument.
type Governor struct {
	policy     Policy
	instrument market.InstrumentMeta
	loc        *time.Location
	store      StateStore
	logger     *zap.Logger

	mu    sync.Mutex
	state State
}

// NewGovernor validates the policy. A nil store keeps state in memory only.
func NewGovernor(p Policy, inst market.InstrumentMeta, store StateStore, logger *zap.Logger) (*Governor, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	loc, err := p.Location()
	if err != nil {
		return nil, err
	}
	if store == nil {
		store = NewMemoryStore()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Governor{
		policy:     p,
		instrument: inst,
		loc:        loc,
		store:      store,
		logger:     logger,
		state:      State{TradingAllowed: true},
	}, nil
}

func (g *Governor) Policy() Policy { return g.policy }

// State returns a copy of the current state.
func (g *Governor) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Restore loads persisted state so a restart within the same day keeps the
// trade count and any tripped kill switch.
func (g *Governor) Restore(ctx context.Context) error {
	s, ok, err := g.store.Load(ctx, g.instrument.Symbol)
	if err != nil {
		return fmt.Errorf("restore risk state: %w", err)
	}
	if !ok {
		return nil
	}
	g.mu.Lock()
	g.state = s
	g.mu.Unlock()
	g.logger.Info("risk state restored",
		zap.String("symbol", g.instrument.Symbol),
		zap.String("date", s.Date),
		zap.Int("trades_today", s.TradesToday),
		zap.Bool("trading_allowed", s.TradingAllowed))
	return nil
}

// Rollover resets the state at the first call on a new local calendar date.
// Calling it again on the same date is a no-op; it reports whether a reset
// happened.
func (g *Governor) Rollover(ctx context.Context, now time.Time) bool {
	g.mu.Lock()
	reset := g.rollover(now)
	s := g.state
	g.mu.Unlock()

	if reset {
		g.persist(ctx, s)
	}
	return reset
}

func (g *Governor) rollover(now time.Time) bool {
	today := now.In(g.loc).Format(dateLayout)
	if g.state.Date == today {
		return false
	}
	g.state = State{
		Date:           today,
		TradingAllowed: true,
	}
	g.logger.Info("risk day rollover",
		zap.String("symbol", g.instrument.Symbol),
		zap.String("date", today))
	return true
}

// ObserveEquity updates the daily P&L fraction against the equity seen at
// the start of the day and trips the kill switch at the loss limit. Once
// tripped, recovery later in the same day does not re-enable trading.
func (g *Governor) ObserveEquity(ctx context.Context, now time.Time, equity decimal.Decimal) State {
	g.mu.Lock()
	g.rollover(now)
	if g.state.DayStartEquity.IsZero() {
		g.state.DayStartEquity = equity
	}
	if start := g.state.DayStartEquity; start.IsPositive() {
		g.state.DailyPnLFraction, _ = equity.Sub(start).Div(start).Float64()
	}
	if g.state.TradingAllowed && g.state.DailyPnLFraction <= g.policy.DailyLossLimit {
		g.state.TradingAllowed = false
		g.logger.Warn("daily loss limit reached, trading halted for the day",
			zap.String("symbol", g.instrument.Symbol),
			zap.Float64("daily_pnl_fraction", g.state.DailyPnLFraction),
			zap.Float64("limit", g.policy.DailyLossLimit))
	}
	s := g.state
	g.mu.Unlock()

	g.persist(ctx, s)
	return s
}

// RecordTrade counts a submitted order against today's limit.
func (g *Governor) RecordTrade(ctx context.Context, now time.Time) State {
	g.mu.Lock()
	g.rollover(now)
	g.state.TradesToday++
	s := g.state
	g.mu.Unlock()

	g.persist(ctx, s)
	return s
}

// Evaluate decides whether sig may be traded now and, if so, at what size.
// A rejection is a normal outcome carried in the Decision's violations.
func (g *Governor) Evaluate(ctx context.Context, now time.Time, sig signals.Signal, equity decimal.Decimal) Decision {
	g.Rollover(ctx, now)
	s := g.State()

	d := Decision{Allowed: true}
	if !s.TradingAllowed {
		d.add(CodeTradingHalted,
			fmt.Sprintf("daily pnl %.2f%% hit limit %.2f%%", 100*s.DailyPnLFraction, 100*g.policy.DailyLossLimit))
	}
	if s.TradesToday >= g.policy.MaxTradesPerDay {
		d.add(CodeMaxTrades,
			fmt.Sprintf("trades today %d >= max %d", s.TradesToday, g.policy.MaxTradesPerDay))
	}
	if !d.Allowed {
		return d
	}

	if sig.Price == 0 || sig.StopLoss == 0 {
		d.add(CodeNoStopOrEntry, "entry/stop must be set")
		return d
	}
	if !equity.IsPositive() {
		d.add(CodeNoEquity, fmt.Sprintf("account equity %s is not positive", equity.String()))
		return d
	}

	d.PlannedRR = RR(sig.Price, sig.StopLoss, sig.TakeProfit)

	res, err := Size(g.policy, SizeInputs{
		Equity:     equity,
		EntryPrice: sig.Price,
		StopPrice:  sig.StopLoss,
		Instrument: g.instrument,
	})
	if err != nil {
		d.add(CodeNoStopOrEntry, err.Error())
		return d
	}
	d.Lots = res.Lots
	d.StopPips = res.StopPips
	d.RiskAmount = res.RiskAmount
	d.SizingFallback = res.Fallback
	if res.Fallback {
		g.logger.Warn("pip value unresolved, using default lot size",
			zap.String("symbol", g.instrument.Symbol),
			zap.Float64("default_lots", g.policy.DefaultLots))
	}

	if minLot := decimal.NewFromFloat(g.instrument.MinLot); d.Lots.LessThan(minLot) || !d.Lots.IsPositive() {
		d.add(CodeSizeTooSmall,
			fmt.Sprintf("size %s below minimum lot %g", d.Lots.String(), g.instrument.MinLot))
	}
	return d
}

func (g *Governor) persist(ctx context.Context, s State) {
	if err := g.store.Save(ctx, g.instrument.Symbol, s); err != nil {
		g.logger.Warn("risk state not persisted",
			zap.String("symbol", g.instrument.Symbol),
			zap.Error(err))
	}
}
