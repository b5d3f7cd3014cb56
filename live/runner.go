// Package live runs the polling loop that turns market data into orders:
// one evaluate, decide and log cycle per poll interval, never overlapping.
package live

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rustyeddy/signaltrader/backtest"
	"github.com/rustyeddy/signaltrader/broker"
	"github.com/rustyeddy/signaltrader/events"
	"github.com/rustyeddy/signaltrader/indicators"
	"github.com/rustyeddy/signaltrader/ledger"
	"github.com/rustyeddy/signaltrader/market"
	"github.com/rustyeddy/signaltrader/risk"
	"github.com/rustyeddy/signaltrader/signals"
)

const publishTimeout = 5 * time.Second

type Options struct {
	Instrument   market.InstrumentMeta
	Timeframe    string
	Bars         int
	PollInterval time.Duration
	ErrorBackoff time.Duration
	Strategy     backtest.Strategy
	Indicators   indicators.Params
	Signals      signals.Params
}

// Deps are the collaborators of a Runner. Publisher and Logger are
// optional.
type Deps struct {
	Provider  broker.Provider
	Governor  *risk.Governor
	Ledger    *ledger.Ledger
	Publisher events.Publisher
	Logger    *zap.Logger
}

// Stats counts cycle outcomes since the runner started.
type Stats struct {
	Cycles     int `json:"cycles"`
	Failures   int `json:"failures"`
	Signals    int `json:"signals"`
	Suppressed int `json:"suppressed"`
	Orders     int `json:"orders"`
	Rejected   int `json:"rejected"`
	Closed     int `json:"closed"`
}

// signalSource yields at most one signal per snapshot.
type signalSource interface {
	Next(curr indicators.Snapshot) (signals.Signal, bool)
	Reset()
}

type meanReversion struct {
	params signals.Params
}

func (m meanReversion) Next(curr indicators.Snapshot) (signals.Signal, bool) {
	return signals.MeanReversion(curr, m.params)
}

func (meanReversion) Reset() {}

type Runner struct {
	opts      Options
	provider  broker.Provider
	governor  *risk.Governor
	ledger    *ledger.Ledger
	publisher events.Publisher
	logger    *zap.Logger

	engine     *indicators.Engine
	source     signalSource
	lastBar    time.Time
	haltedDate string
	stats      Stats
}

// New validates opts and deps. Configuration mistakes fail here, before
// the loop starts.
func New(opts Options, deps Deps) (*Runner, error) {
	if deps.Provider == nil || deps.Governor == nil || deps.Ledger == nil {
		return nil, fmt.Errorf("live: provider, governor and ledger are required")
	}
	if opts.Instrument.Symbol == "" {
		return nil, fmt.Errorf("live: instrument symbol is required")
	}
	if opts.Bars <= 0 {
		return nil, fmt.Errorf("live: bars must be > 0, got %d", opts.Bars)
	}
	if opts.PollInterval <= 0 || opts.ErrorBackoff <= 0 {
		return nil, fmt.Errorf("live: poll interval and error backoff must be positive")
	}
	if err := opts.Signals.Validate(); err != nil {
		return nil, err
	}
	engine, err := indicators.NewEngine(opts.Indicators)
	if err != nil {
		return nil, err
	}

	var source signalSource
	switch opts.Strategy {
	case backtest.MACrossover, "":
		gen, err := signals.NewGenerator(opts.Signals)
		if err != nil {
			return nil, err
		}
		source = gen
	case backtest.MeanReversion:
		source = meanReversion{params: opts.Signals}
	default:
		return nil, fmt.Errorf("live: unknown strategy %q", opts.Strategy)
	}
	if opts.Strategy == "" {
		opts.Strategy = backtest.MACrossover
	}

	if deps.Publisher == nil {
		deps.Publisher = events.Nop{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Runner{
		opts:      opts,
		provider:  deps.Provider,
		governor:  deps.Governor,
		ledger:    deps.Ledger,
		publisher: deps.Publisher,
		logger:    deps.Logger.With(zap.String("symbol", opts.Instrument.Symbol)),
		engine:    engine,
		source:    source,
	}, nil
}

// Stats returns a copy of the counters. It must not be called concurrently
// with Run.
func (r *Runner) Stats() Stats { return r.stats }

// Run cycles until ctx is cancelled, a cycle fails fatally or a replay
// provider runs out of bars. A cycle in flight when ctx is cancelled still
// finishes its ledger writes.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.governor.Restore(ctx); err != nil {
		r.logger.Warn("starting with fresh risk state", zap.Error(err))
	}
	r.logger.Info("live loop started",
		zap.String("strategy", string(r.opts.Strategy)),
		zap.String("timeframe", r.opts.Timeframe),
		zap.Duration("poll_interval", r.opts.PollInterval))

	for {
		kind, err := r.Cycle(ctx)

		wait := r.opts.PollInterval
		switch {
		case errors.Is(err, broker.ErrExhausted):
			r.logger.Info("replay finished", zap.Any("stats", r.stats))
			return nil
		case ctx.Err() != nil:
			r.logger.Info("live loop stopped", zap.Any("stats", r.stats))
			return nil
		case kind == KindFatal:
			r.logger.Error("fatal cycle error, stopping", zap.Error(err))
			return err
		case kind == KindTransient:
			r.logger.Warn("cycle failed, backing off",
				zap.Error(err), zap.Duration("backoff", r.opts.ErrorBackoff))
			wait = r.opts.ErrorBackoff
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			r.logger.Info("live loop stopped", zap.Any("stats", r.stats))
			return nil
		case <-timer.C:
		}
	}
}

// Cycle runs one evaluate, decide and log pass.
func (r *Runner) Cycle(ctx context.Context) (Kind, error) {
	r.stats.Cycles++
	kind, err := r.cycle(ctx)
	if kind != KindOK {
		r.stats.Failures++
	}
	return kind, err
}

func (r *Runner) cycle(ctx context.Context) (Kind, error) {
	symbol := r.opts.Instrument.Symbol
	// writes that must complete even when ctx is cancelled mid cycle
	wctx := context.WithoutCancel(ctx)

	tick, err := r.provider.LatestTick(ctx, symbol)
	if err != nil {
		return Classify(err), fmt.Errorf("latest tick: %w", err)
	}
	now := tick.Time
	if now.IsZero() {
		now = time.Now()
	}

	if err := r.settleClosures(ctx, wctx); err != nil {
		return Classify(err), err
	}

	equity, err := r.provider.AccountEquity(ctx)
	if err != nil {
		return Classify(err), fmt.Errorf("account equity: %w", err)
	}
	state := r.governor.ObserveEquity(wctx, now, equity)
	if !state.TradingAllowed && r.haltedDate != state.Date {
		r.haltedDate = state.Date
		r.publish(wctx, events.TradeEvent{
			EventType: events.TradingHalted,
			Symbol:    symbol,
			Reason:    fmt.Sprintf("daily pnl %.2f%% reached limit", 100*state.DailyPnLFraction),
			Timestamp: now,
		})
	}

	bars, err := r.provider.RecentBars(ctx, symbol, r.opts.Timeframe, r.opts.Bars)
	if err != nil {
		return Classify(err), fmt.Errorf("recent bars: %w", err)
	}

	snap, sig, fired, fresh, err := r.consume(bars)
	if err != nil {
		return Classify(err), err
	}
	if !fresh {
		return KindOK, nil
	}

	r.ledger.RecordMarketData(wctx, marketData(symbol, tick, snap))

	if !fired {
		return KindOK, nil
	}
	r.stats.Signals++
	log := r.logger.With(zap.String("signal", sig.String()))

	if !r.opts.Signals.Actionable(sig) {
		log.Debug("signal below confidence gate", zap.Float64("min_confidence", r.opts.Signals.MinConfidence))
		return KindOK, nil
	}

	decision := r.governor.Evaluate(wctx, now, sig, equity)
	if !decision.Allowed {
		r.stats.Suppressed++
		log.Info("signal suppressed by risk", zap.String("reason", decision.Reason()))
		return KindOK, nil
	}

	return r.submit(ctx, wctx, now, sig, decision, equity)
}

// consume feeds bars newer than the last seen one through the indicator
// engine and the signal source. Only a signal on the newest bar counts;
// earlier bars only advance state.
func (r *Runner) consume(bars []market.Candle) (indicators.Snapshot, signals.Signal, bool, bool, error) {
	var (
		snap  indicators.Snapshot
		sig   signals.Signal
		fired bool
		fresh bool
	)
	for _, b := range bars {
		if !b.Time.After(r.lastBar) {
			continue
		}
		s, err := r.engine.Update(b)
		if err != nil {
			return snap, sig, false, false, fmt.Errorf("indicators: %w", err)
		}
		r.lastBar = b.Time
		snap, fresh = s, true
		sig, fired = r.source.Next(s)
	}
	return snap, sig, fired, fresh, nil
}

func (r *Runner) submit(ctx, wctx context.Context, now time.Time, sig signals.Signal, d risk.Decision, equity decimal.Decimal) (Kind, error) {
	symbol := r.opts.Instrument.Symbol
	req := broker.OrderRequest{
		Direction:  sig.Direction,
		Symbol:     symbol,
		Lots:       d.Lots,
		Price:      sig.Price,
		StopLoss:   sig.StopLoss,
		TakeProfit: sig.TakeProfit,
		Comment:    string(sig.Reason),
	}

	res, err := r.provider.SubmitOrder(ctx, req)
	if rej, ok := broker.AsRejected(err); ok {
		r.stats.Rejected++
		r.logger.Warn("order rejected",
			zap.String("direction", sig.Direction.String()),
			zap.String("lots", d.Lots.String()),
			zap.String("reason", rej.Reason))
		r.ledger.LogRejected(now, symbol, sig.Direction.String(), rej.Reason)
		r.publish(wctx, events.TradeEvent{
			EventType: events.OrderRejected,
			Symbol:    symbol,
			Direction: sig.Direction.String(),
			Lots:      d.Lots.InexactFloat64(),
			Price:     sig.Price,
			Reason:    rej.Reason,
			Timestamp: now,
		})
		return KindOK, nil
	}
	if err != nil {
		return Classify(err), fmt.Errorf("submit order: %w", err)
	}

	r.stats.Orders++
	r.governor.RecordTrade(wctx, now)

	status := ledger.StatusOpen
	if res.Status == broker.StatusPending {
		status = ledger.StatusPending
	}
	entryTime := res.Time
	if entryTime.IsZero() {
		entryTime = now
	}
	fill := res.FilledPrice
	if fill == 0 {
		fill = sig.Price
	}
	rec := ledger.TradeRecord{
		Ticket:     res.Ticket,
		Time:       entryTime,
		Direction:  sig.Direction.String(),
		Symbol:     symbol,
		Lots:       d.Lots.InexactFloat64(),
		EntryPrice: fill,
		StopLoss:   sig.StopLoss,
		TakeProfit: sig.TakeProfit,
		Strategy:   string(r.opts.Strategy),
		Reason:     string(sig.Reason),
		Balance:    equity.InexactFloat64(),
		Status:     status,
	}
	tier := r.ledger.Log(wctx, rec)

	fields := []zap.Field{
		zap.String("ticket", res.Ticket),
		zap.String("direction", rec.Direction),
		zap.String("lots", d.Lots.String()),
		zap.Float64("entry", fill),
		zap.String("tier", tier.String()),
	}
	if d.SizingFallback {
		fields = append(fields, zap.Bool("sizing_fallback", true))
	}
	r.logger.Info("order placed", fields...)

	r.publish(wctx, events.TradeEvent{
		EventType:  events.TradeOpened,
		Symbol:     symbol,
		Ticket:     res.Ticket,
		Direction:  rec.Direction,
		Lots:       rec.Lots,
		Price:      fill,
		StopLoss:   sig.StopLoss,
		TakeProfit: sig.TakeProfit,
		Reason:     rec.Reason,
		Timestamp:  entryTime,
	})
	return KindOK, nil
}

// settleClosures logs positions the provider closed since the last cycle.
func (r *Runner) settleClosures(ctx, wctx context.Context) error {
	cs, ok := r.provider.(broker.ClosureSource)
	if !ok {
		return nil
	}
	closures, err := cs.Closures(ctx)
	if err != nil {
		return fmt.Errorf("closures: %w", err)
	}
	for _, c := range closures {
		profit := c.Profit.InexactFloat64()
		tier := r.ledger.LogClose(wctx, c.Ticket, ledger.Exit{
			Price:  c.ExitPrice,
			Profit: profit,
			Time:   c.Time,
			Reason: c.Reason,
		})
		r.stats.Closed++
		r.logger.Info("position closed",
			zap.String("ticket", c.Ticket),
			zap.String("reason", c.Reason),
			zap.Float64("exit", c.ExitPrice),
			zap.String("profit", c.Profit.String()),
			zap.String("tier", tier.String()))
		r.publish(wctx, events.TradeEvent{
			EventType: events.TradeClosed,
			Symbol:    c.Symbol,
			Ticket:    c.Ticket,
			Direction: c.Direction.String(),
			Lots:      c.Lots.InexactFloat64(),
			Price:     c.ExitPrice,
			Profit:    profit,
			Reason:    c.Reason,
			Timestamp: c.Time,
		})
	}
	return nil
}

func (r *Runner) publish(ctx context.Context, e events.TradeEvent) {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := r.publisher.Publish(ctx, e); err != nil {
		r.logger.Warn("event not published",
			zap.String("event", string(e.EventType)),
			zap.Error(err))
	}
}

func marketData(symbol string, tick market.Tick, s indicators.Snapshot) ledger.MarketData {
	return ledger.MarketData{
		Time:       s.Time,
		Symbol:     symbol,
		Bid:        tick.Bid,
		Ask:        tick.Ask,
		Price:      s.Price,
		SMAFast:    s.SMAFast.Value,
		SMASlow:    s.SMASlow.Value,
		RSI:        s.RSI.Value,
		MACD:       s.MACD.Value,
		MACDSignal: s.MACDSignal.Value,
		BBUpper:    s.BBUpper.Value,
		BBLower:    s.BBLower.Value,
		ATR:        s.ATR.Value,
	}
}
