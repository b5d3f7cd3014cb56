package ledger

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"
)

var csvHeader = []string{
	"id", "ticket", "timestamp", "type", "symbol", "lots", "entry_price", "exit_price",
	"sl", "tp", "profit", "strategy", "reason", "balance", "status", "close_time", "close_reason",
}

// WriteTradesCSV writes recs with a header row.
func WriteTradesCSV(w io.Writer, recs []TradeRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range recs {
		closeTime := ""
		if !r.CloseTime.IsZero() {
			closeTime = r.CloseTime.UTC().Format(time.RFC3339)
		}
		if err := cw.Write([]string{
			strconv.FormatInt(r.ID, 10),
			r.Ticket,
			r.Time.UTC().Format(time.RFC3339),
			r.Direction,
			r.Symbol,
			f(r.Lots),
			f(r.EntryPrice),
			f(r.ExitPrice),
			f(r.StopLoss),
			f(r.TakeProfit),
			f(r.Profit),
			r.Strategy,
			r.Reason,
			f(r.Balance),
			string(r.statusOrOpen()),
			closeTime,
			r.CloseReason,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
