package indicators

import (
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/signaltrader/market"
)

// ErrOutOfOrder is returned when a candle does not advance the engine clock.
var ErrOutOfOrder = errors.New("indicators: candle timestamp not strictly increasing")

// Params configures the lookback periods used by the Engine.
type Params struct {
	SMAFast         int     `yaml:"sma_fast" json:"sma_fast"`
	SMASlow         int     `yaml:"sma_slow" json:"sma_slow"`
	EMAFast         int     `yaml:"ema_fast" json:"ema_fast"`
	EMASlow         int     `yaml:"ema_slow" json:"ema_slow"`
	RSIPeriod       int     `yaml:"rsi_period" json:"rsi_period"`
	MACDSignal      int     `yaml:"macd_signal" json:"macd_signal"`
	BollingerPeriod int     `yaml:"bollinger_period" json:"bollinger_period"`
	BollingerK      float64 `yaml:"bollinger_k" json:"bollinger_k"`
	ATRPeriod       int     `yaml:"atr_period" json:"atr_period"`
}

// DefaultParams returns the standard 20/50 SMA, 12/26/9 MACD, RSI(14),
// BB(20,2) and ATR(14) setup.
func DefaultParams() Params {
	return Params{
		SMAFast:         20,
		SMASlow:         50,
		EMAFast:         12,
		EMASlow:         26,
		RSIPeriod:       14,
		MACDSignal:      9,
		BollingerPeriod: 20,
		BollingerK:      2,
		ATRPeriod:       14,
	}
}

// Validate checks that every period is usable.
func (p Params) Validate() error {
	periods := []struct {
		name string
		v    int
	}{
		{"sma_fast", p.SMAFast},
		{"sma_slow", p.SMASlow},
		{"ema_fast", p.EMAFast},
		{"ema_slow", p.EMASlow},
		{"rsi_period", p.RSIPeriod},
		{"macd_signal", p.MACDSignal},
		{"atr_period", p.ATRPeriod},
	}
	for _, pp := range periods {
		if pp.v <= 0 {
			return fmt.Errorf("indicators.%s must be > 0, got %d", pp.name, pp.v)
		}
	}
	if p.SMAFast >= p.SMASlow {
		return fmt.Errorf("indicators.sma_fast (%d) must be < sma_slow (%d)", p.SMAFast, p.SMASlow)
	}
	if p.EMAFast >= p.EMASlow {
		return fmt.Errorf("indicators.ema_fast (%d) must be < ema_slow (%d)", p.EMAFast, p.EMASlow)
	}
	if p.BollingerPeriod < 2 {
		return fmt.Errorf("indicators.bollinger_period must be >= 2, got %d", p.BollingerPeriod)
	}
	if p.BollingerK <= 0 {
		return fmt.Errorf("indicators.bollinger_k must be > 0, got %g", p.BollingerK)
	}
	return nil
}

// Snapshot is every indicator reading at one bar boundary, plus the close
// that produced it.
type Snapshot struct {
	Time       time.Time `json:"time"`
	Price      float64   `json:"price"`
	SMAFast    Reading   `json:"sma_fast"`
	SMASlow    Reading   `json:"sma_slow"`
	EMAFast    Reading   `json:"ema_fast"`
	EMASlow    Reading   `json:"ema_slow"`
	RSI        Reading   `json:"rsi"`
	MACD       Reading   `json:"macd"`
	MACDSignal Reading   `json:"macd_signal"`
	BBUpper    Reading   `json:"bb_upper"`
	BBMid      Reading   `json:"bb_mid"`
	BBLower    Reading   `json:"bb_lower"`
	ATR        Reading   `json:"atr"`
}

// Engine feeds each candle to the full indicator set. It keeps only
// bounded rolling windows, never the full history.
type Engine struct {
	params Params

	smaFast, smaSlow *SimpleMA
	emaFast, emaSlow *ExponentialMA
	rsi              *RSI
	macd             *MACD
	bb               *Bollinger
	atr              *ATR

	last    time.Time
	bars    int
	current Snapshot
}

// NewEngine validates p and returns an empty engine.
func NewEngine(p Params) (*Engine, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		params:  p,
		smaFast: NewMA(p.SMAFast),
		smaSlow: NewMA(p.SMASlow),
		emaFast: NewEMA(p.EMAFast),
		emaSlow: NewEMA(p.EMASlow),
		rsi:     NewRSI(p.RSIPeriod),
		macd:    NewMACD(p.EMAFast, p.EMASlow, p.MACDSignal),
		bb:      NewBollinger(p.BollingerPeriod, p.BollingerK),
		atr:     NewATR(p.ATRPeriod),
	}, nil
}

func (e *Engine) all() []Indicator {
	return []Indicator{e.smaFast, e.smaSlow, e.emaFast, e.emaSlow, e.rsi, e.macd, e.bb, e.atr}
}

// Params returns the engine configuration.
func (e *Engine) Params() Params { return e.params }

// Bars returns how many candles have been consumed.
func (e *Engine) Bars() int { return e.bars }

// LastTime returns the timestamp of the last consumed candle.
func (e *Engine) LastTime() time.Time { return e.last }

// Warmup is the number of candles after which every reading is ready.
func (e *Engine) Warmup() int {
	w := 0
	for _, ind := range e.all() {
		if ind.Warmup() > w {
			w = ind.Warmup()
		}
	}
	return w
}

// Reset clears every indicator.
func (e *Engine) Reset() {
	for _, ind := range e.all() {
		ind.Reset()
	}
	e.last = time.Time{}
	e.bars = 0
	e.current = Snapshot{}
}

// Update consumes the next closed candle and returns the snapshot for it.
// Candles must arrive with strictly increasing timestamps; anything else is
// rejected with ErrOutOfOrder and leaves the engine untouched.
func (e *Engine) Update(c market.Candle) (Snapshot, error) {
	if e.bars > 0 && !c.Time.After(e.last) {
		return Snapshot{}, fmt.Errorf("%w: %s after %s", ErrOutOfOrder,
			c.Time.Format(time.RFC3339), e.last.Format(time.RFC3339))
	}

	for _, ind := range e.all() {
		ind.Update(c)
	}
	e.last = c.Time
	e.bars++

	s := Snapshot{
		Time:    c.Time,
		Price:   c.Close,
		SMAFast: read(e.smaFast),
		SMASlow: read(e.smaSlow),
		EMAFast: read(e.emaFast),
		EMASlow: read(e.emaSlow),
		RSI:     read(e.rsi),
		MACD:    read(e.macd),
		ATR:     read(e.atr),
	}
	if e.macd.Ready() {
		s.MACDSignal = Reading{Value: e.macd.Signal(), Ready: true}
	}
	if e.bb.Ready() {
		s.BBUpper = Reading{Value: e.bb.Upper(), Ready: true}
		s.BBMid = Reading{Value: e.bb.Mid(), Ready: true}
		s.BBLower = Reading{Value: e.bb.Lower(), Ready: true}
	}
	e.current = s
	return s, nil
}

// Snapshot returns the most recent snapshot, false before the first candle.
func (e *Engine) Snapshot() (Snapshot, bool) {
	return e.current, e.bars > 0
}

// Series runs a fresh engine over candles and returns one snapshot per candle.
func Series(candles []market.Candle, p Params) ([]Snapshot, error) {
	e, err := NewEngine(p)
	if err != nil {
		return nil, err
	}
	out := make([]Snapshot, 0, len(candles))
	for i, c := range candles {
		s, err := e.Update(c)
		if err != nil {
			return nil, fmt.Errorf("candle %d: %w", i, err)
		}
		out = append(out, s)
	}
	return out, nil
}
