package broker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/signaltrader/market"
	"github.com/rustyeddy/signaltrader/pkg/id"
	"github.com/rustyeddy/signaltrader/signals"
)

var (
	// ErrExhausted is returned once a replay has no more bars.
	ErrExhausted = errors.New("broker: replay exhausted")
	ErrNoData    = errors.New("broker: no bars available yet")
)

const defaultContractSize = 100000

type PaperOptions struct {
	Instrument market.InstrumentMeta
	Balance    decimal.Decimal
	SpreadPips float64
	// ContractSize is units per lot, used for P&L when the instrument has
	// no pip value. Default 100000.
	ContractSize float64
	// Warmup is the number of bars visible before the first tick. Default 1.
	Warmup int
	// StepOnTick reveals one more bar on every LatestTick call after the
	// first, so each polling cycle sees a new bar.
	StepOnTick bool
}

type paperPosition struct {
	ticket string
	dir    signals.Direction
	lots   decimal.Decimal
	entry  float64
	stop   float64
	take   float64
}

// Paper is a simulated venue replaying historical bars. Orders fill at the
// current bid/ask and positions close when a later bar trades through the
// stop loss or take profit; the stop wins when a bar touches both.
type Paper struct {
	mu      sync.Mutex
	opts    PaperOptions
	bars    []market.Candle
	shown   int
	ticked  bool
	balance decimal.Decimal
	open    []*paperPosition
	closed  []Closure
	ids     *id.Generator
}

func NewPaper(bars []market.Candle, opts PaperOptions) (*Paper, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("paper: no bars")
	}
	if opts.Instrument.Symbol == "" || opts.Instrument.PipSize <= 0 {
		return nil, fmt.Errorf("paper: instrument symbol and pip size are required")
	}
	if !opts.Balance.IsPositive() {
		return nil, fmt.Errorf("paper: starting balance must be > 0, got %s", opts.Balance)
	}
	if opts.ContractSize <= 0 {
		opts.ContractSize = defaultContractSize
	}
	if opts.Warmup <= 0 {
		opts.Warmup = 1
	}
	if opts.Warmup > len(bars) {
		opts.Warmup = len(bars)
	}
	for i := 1; i < len(bars); i++ {
		if !bars[i].Time.After(bars[i-1].Time) {
			return nil, fmt.Errorf("paper: bar %d at %s is not after %s", i, bars[i].Time, bars[i-1].Time)
		}
	}

	p := &Paper{
		opts:    opts,
		bars:    bars,
		shown:   opts.Warmup,
		balance: opts.Balance,
	}
	// tickets carry market time, not wall time
	p.ids = id.NewGenerator(func() time.Time { return p.bars[p.shown-1].Time })
	return p, nil
}

// Advance reveals the next bar and settles any stop or target it hits. It
// returns false when the replay is exhausted.
func (p *Paper) Advance() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.advanceLocked()
}

func (p *Paper) advanceLocked() bool {
	if p.shown >= len(p.bars) {
		return false
	}
	p.shown++
	p.settleLocked(p.bars[p.shown-1])
	return true
}

func (p *Paper) settleLocked(bar market.Candle) {
	keep := p.open[:0]
	for _, pos := range p.open {
		exit, reason, hit := triggered(pos, bar)
		if !hit {
			keep = append(keep, pos)
			continue
		}
		profit := p.profit(pos, exit)
		p.balance = p.balance.Add(profit)
		p.closed = append(p.closed, Closure{
			Ticket:    pos.ticket,
			Symbol:    p.opts.Instrument.Symbol,
			Direction: pos.dir,
			Lots:      pos.lots,
			ExitPrice: exit,
			Profit:    profit,
			Time:      bar.Time,
			Reason:    reason,
		})
	}
	p.open = keep
}

func triggered(pos *paperPosition, bar market.Candle) (float64, string, bool) {
	if pos.dir == signals.Buy {
		if pos.stop > 0 && bar.Low <= pos.stop {
			return pos.stop, CloseStopLoss, true
		}
		if pos.take > 0 && bar.High >= pos.take {
			return pos.take, CloseTakeProfit, true
		}
		return 0, "", false
	}
	if pos.stop > 0 && bar.High >= pos.stop {
		return pos.stop, CloseStopLoss, true
	}
	if pos.take > 0 && bar.Low <= pos.take {
		return pos.take, CloseTakeProfit, true
	}
	return 0, "", false
}

// profit is in account currency, rounded to cents.
func (p *Paper) profit(pos *paperPosition, exit float64) decimal.Decimal {
	diff := exit - pos.entry
	if pos.dir == signals.Sell {
		diff = -diff
	}
	inst := p.opts.Instrument
	if inst.PipValue > 0 {
		pips := decimal.NewFromFloat(diff / inst.PipSize)
		return pips.Mul(decimal.NewFromFloat(inst.PipValue)).Mul(pos.lots).Round(2)
	}
	if exit == 0 {
		return decimal.Zero
	}
	units := pos.lots.Mul(decimal.NewFromFloat(p.opts.ContractSize))
	return units.Mul(decimal.NewFromFloat(diff / exit)).Round(2)
}

func (p *Paper) checkSymbol(symbol string) error {
	if market.NormalizeSymbol(symbol) != p.opts.Instrument.Symbol {
		return fmt.Errorf("paper: unknown symbol %q", symbol)
	}
	return nil
}

func (p *Paper) tickLocked() market.Tick {
	bar := p.bars[p.shown-1]
	half := p.opts.SpreadPips * p.opts.Instrument.PipSize / 2
	return market.Tick{
		Symbol: p.opts.Instrument.Symbol,
		Bid:    bar.Close - half,
		Ask:    bar.Close + half,
		Time:   bar.Time,
	}
}

func (p *Paper) LatestTick(ctx context.Context, symbol string) (market.Tick, error) {
	if err := ctx.Err(); err != nil {
		return market.Tick{}, err
	}
	if err := p.checkSymbol(symbol); err != nil {
		return market.Tick{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.opts.StepOnTick && p.ticked {
		if !p.advanceLocked() {
			return market.Tick{}, ErrExhausted
		}
	}
	p.ticked = true
	return p.tickLocked(), nil
}

// RecentBars returns up to count of the most recent visible bars, oldest
// first. The timeframe is validated but the replay serves whatever
// interval it was loaded with.
func (p *Paper) RecentBars(ctx context.Context, symbol, timeframe string, count int) ([]market.Candle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := p.checkSymbol(symbol); err != nil {
		return nil, err
	}
	if timeframe != "" {
		if _, err := market.ParseTimeframe(timeframe); err != nil {
			return nil, err
		}
	}
	if count <= 0 {
		return nil, fmt.Errorf("paper: bar count must be > 0, got %d", count)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	from := p.shown - count
	if from < 0 {
		from = 0
	}
	out := make([]market.Candle, p.shown-from)
	copy(out, p.bars[from:p.shown])
	return out, nil
}

// AccountEquity is the balance plus open P&L marked at the closing side of
// the current quote.
func (p *Paper) AccountEquity(ctx context.Context) (decimal.Decimal, error) {
	if err := ctx.Err(); err != nil {
		return decimal.Zero, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	eq := p.balance
	tick := p.tickLocked()
	for _, pos := range p.open {
		mark := tick.Bid
		if pos.dir == signals.Sell {
			mark = tick.Ask
		}
		eq = eq.Add(p.profit(pos, mark))
	}
	return eq, nil
}

func (p *Paper) SubmitOrder(ctx context.Context, req OrderRequest) (OrderResult, error) {
	if err := ctx.Err(); err != nil {
		return OrderResult{}, err
	}
	if err := p.checkSymbol(req.Symbol); err != nil {
		return OrderResult{}, Rejected("unknown symbol %s", req.Symbol)
	}
	if !req.Lots.IsPositive() {
		return OrderResult{}, Rejected("invalid volume %s", req.Lots)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	tick := p.tickLocked()
	var fill float64
	switch req.Direction {
	case signals.Buy:
		fill = tick.Ask
		if (req.StopLoss > 0 && req.StopLoss >= fill) || (req.TakeProfit > 0 && req.TakeProfit <= fill) {
			return OrderResult{}, Rejected("invalid stops sl=%.5f tp=%.5f for buy at %.5f", req.StopLoss, req.TakeProfit, fill)
		}
	case signals.Sell:
		fill = tick.Bid
		if (req.StopLoss > 0 && req.StopLoss <= fill) || (req.TakeProfit > 0 && req.TakeProfit >= fill) {
			return OrderResult{}, Rejected("invalid stops sl=%.5f tp=%.5f for sell at %.5f", req.StopLoss, req.TakeProfit, fill)
		}
	default:
		return OrderResult{}, Rejected("invalid direction %v", req.Direction)
	}

	ticket := p.ids.New()
	p.open = append(p.open, &paperPosition{
		ticket: ticket,
		dir:    req.Direction,
		lots:   req.Lots,
		entry:  fill,
		stop:   req.StopLoss,
		take:   req.TakeProfit,
	})
	return OrderResult{
		Ticket:      ticket,
		Status:      StatusFilled,
		FilledPrice: fill,
		Time:        tick.Time,
	}, nil
}

// Closures drains the positions closed since the last call.
func (p *Paper) Closures(ctx context.Context) ([]Closure, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.closed
	p.closed = nil
	return out, nil
}

// OpenPositions returns the number of positions still open.
func (p *Paper) OpenPositions() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.open)
}

func (p *Paper) Balance() decimal.Decimal {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.balance
}

// Remaining is the number of bars not yet revealed.
func (p *Paper) Remaining() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.bars) - p.shown
}

var (
	_ Provider      = (*Paper)(nil)
	_ ClosureSource = (*Paper)(nil)
)
