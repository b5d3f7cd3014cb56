package risk

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	CodeTradingHalted = "TRADING_HALTED"
	CodeMaxTrades     = "MAX_TRADES_PER_DAY"
	CodeNoStopOrEntry = "NO_STOP_OR_ENTRY"
	CodeSizeTooSmall  = "SIZE_TOO_SMALL"
	CodeNoEquity      = "NO_EQUITY"
)

type Violation struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

type Decision struct {
	Allowed    bool        `json:"allowed"`
	Violations []Violation `json:"violations,omitempty"`

	Lots           decimal.Decimal `json:"lots"`
	StopPips       float64         `json:"stop_pips"`
	RiskAmount     decimal.Decimal `json:"risk_amount"`
	PlannedRR      float64         `json:"planned_rr"`
	SizingFallback bool            `json:"sizing_fallback"`
}

func (d *Decision) add(code, msg string) {
	d.Violations = append(d.Violations, Violation{Code: code, Msg: msg})
	d.Allowed = false
}

// Has reports whether the decision carries a violation with code.
func (d Decision) Has(code string) bool {
	for _, v := range d.Violations {
		if v.Code == code {
			return true
		}
	}
	return false
}

// Reason joins the violation messages.
func (d Decision) Reason() string {
	msgs := make([]string, 0, len(d.Violations))
	for _, v := range d.Violations {
		msgs = append(msgs, v.Code+": "+v.Msg)
	}
	return strings.Join(msgs, "; ")
}
