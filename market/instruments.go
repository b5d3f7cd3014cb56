// market/instruments.go
package market

import "strings"

// InstrumentMeta describes the contract of a tradable symbol.
//
// PipSize is the smallest quoted price increment used for risk math and
// PipValue is the account-currency value of one pip move for one lot.
// A zero PipValue means the value is unknown.
type InstrumentMeta struct {
	Symbol   string  `yaml:"symbol" json:"symbol"`
	PipSize  float64 `yaml:"pip_size" json:"pip_size"`
	PipValue float64 `yaml:"pip_value" json:"pip_value"`
	LotStep  float64 `yaml:"lot_step" json:"lot_step"`
	MinLot   float64 `yaml:"min_lot" json:"min_lot"`
}

var Instruments = map[string]InstrumentMeta{
	"EURUSD": {
		Symbol:   "EURUSD",
		PipSize:  0.0001,
		PipValue: 10,
		LotStep:  0.01,
		MinLot:   0.01,
	},
	"GBPUSD": {
		Symbol:   "GBPUSD",
		PipSize:  0.0001,
		PipValue: 10,
		LotStep:  0.01,
		MinLot:   0.01,
	},
	"USDJPY": {
		Symbol:   "USDJPY",
		PipSize:  0.01,
		PipValue: 6.7,
		LotStep:  0.01,
		MinLot:   0.01,
	},
	"XAUUSD": {
		Symbol:   "XAUUSD",
		PipSize:  0.01,
		PipValue: 1,
		LotStep:  0.01,
		MinLot:   0.01,
	},
	// Exotic crypto/UGX cross; venues rarely publish a pip value for it.
	"USDTUGX": {
		Symbol:  "USDTUGX",
		PipSize: 0.01,
		LotStep: 0.01,
		MinLot:  0.01,
	},
}

// NormalizeSymbol maps "EUR_USD", "eur/usd" and "EURUSD" to "EURUSD".
func NormalizeSymbol(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "_", "")
	return strings.ReplaceAll(s, "/", "")
}

// LookupInstrument returns the metadata for symbol, if known.
func LookupInstrument(symbol string) (InstrumentMeta, bool) {
	m, ok := Instruments[NormalizeSymbol(symbol)]
	return m, ok
}
