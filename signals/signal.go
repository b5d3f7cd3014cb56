// Package signals turns consecutive indicator snapshots into trade signals.
package signals

import (
	"fmt"
	"time"
)

// Direction is the side of a signal.
type Direction int

const (
	Buy Direction = iota + 1
	Sell
)

func (d Direction) String() string {
	switch d {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// ParseDirection accepts "buy"/"sell" in any case.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "BUY", "buy", "Buy":
		return Buy, nil
	case "SELL", "sell", "Sell":
		return Sell, nil
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

// Reason names the rule that produced a signal.
type Reason string

const (
	GoldenCross         Reason = "golden_cross"
	DeathCross          Reason = "death_cross"
	OversoldBounce      Reason = "oversold_bounce"
	OverboughtDrop      Reason = "overbought_drop"
	BollingerOversold   Reason = "bollinger_oversold"
	BollingerOverbought Reason = "bollinger_overbought"
)

// Signal is produced at most once per evaluation and consumed immediately.
type Signal struct {
	Time       time.Time `json:"time"`
	Direction  Direction `json:"direction"`
	Reason     Reason    `json:"reason"`
	Confidence float64   `json:"confidence"`
	Price      float64   `json:"price"`
	StopLoss   float64   `json:"stop_loss"`
	TakeProfit float64   `json:"take_profit"`
}

func (s Signal) String() string {
	return fmt.Sprintf("%s %s @ %.5f sl=%.5f tp=%.5f conf=%.2f",
		s.Direction, s.Reason, s.Price, s.StopLoss, s.TakeProfit, s.Confidence)
}

// Params are the thresholds shared by every rule.
type Params struct {
	RSIOversold   float64 `yaml:"rsi_oversold" json:"rsi_oversold"`
	RSIOverbought float64 `yaml:"rsi_overbought" json:"rsi_overbought"`
	StopLossPct   float64 `yaml:"stop_loss_pct" json:"stop_loss_pct"`
	TakeProfitPct float64 `yaml:"take_profit_pct" json:"take_profit_pct"`
	Confidence    float64 `yaml:"confidence" json:"confidence"`
	MinConfidence float64 `yaml:"min_confidence" json:"min_confidence"`
}

func DefaultParams() Params {
	return Params{
		RSIOversold:   30,
		RSIOverbought: 70,
		StopLossPct:   0.005,
		TakeProfitPct: 0.01,
		Confidence:    0.7,
		MinConfidence: 0.6,
	}
}

func (p Params) Validate() error {
	if p.RSIOversold <= 0 || p.RSIOverbought >= 100 || p.RSIOversold >= p.RSIOverbought {
		return fmt.Errorf("signals: rsi thresholds must satisfy 0 < oversold < overbought < 100, got %g/%g",
			p.RSIOversold, p.RSIOverbought)
	}
	if p.StopLossPct <= 0 || p.StopLossPct >= 1 {
		return fmt.Errorf("signals.stop_loss_pct must be in (0,1), got %g", p.StopLossPct)
	}
	if p.TakeProfitPct <= 0 || p.TakeProfitPct >= 1 {
		return fmt.Errorf("signals.take_profit_pct must be in (0,1), got %g", p.TakeProfitPct)
	}
	if p.Confidence < 0 || p.Confidence > 1 {
		return fmt.Errorf("signals.confidence must be in [0,1], got %g", p.Confidence)
	}
	if p.MinConfidence < 0 || p.MinConfidence > 1 {
		return fmt.Errorf("signals.min_confidence must be in [0,1], got %g", p.MinConfidence)
	}
	return nil
}

// Actionable reports whether the signal clears the confidence gate.
func (p Params) Actionable(s Signal) bool {
	return s.Confidence >= p.MinConfidence
}

// Stops returns the stop-loss and take-profit for an entry at price.
func Stops(dir Direction, price float64, p Params) (stop, take float64) {
	if dir == Buy {
		return price * (1 - p.StopLossPct), price * (1 + p.TakeProfitPct)
	}
	return price * (1 + p.StopLossPct), price * (1 - p.TakeProfitPct)
}

func newSignal(dir Direction, reason Reason, t time.Time, price float64, p Params) Signal {
	sl, tp := Stops(dir, price, p)
	return Signal{
		Time:       t,
		Direction:  dir,
		Reason:     reason,
		Confidence: p.Confidence,
		Price:      price,
		StopLoss:   sl,
		TakeProfit: tp,
	}
}
