package ledger

import (
	"fmt"
	"strings"
	"time"
)

// FormatTradeOrg renders a TradeRecord as an Org-mode block suitable for pasting into a journal.
// Structured facts live in a PROPERTIES drawer for easy search.
func FormatTradeOrg(t TradeRecord) string {
	heading := fmt.Sprintf("** Trade: %s %s (%s)", t.Direction, t.Symbol, shortID(t.Ticket))

	var b strings.Builder
	b.WriteString(heading)
	b.WriteString("\n")
	b.WriteString(":PROPERTIES:\n")
	b.WriteString(fmt.Sprintf(":TICKET: %s\n", t.Ticket))
	b.WriteString(fmt.Sprintf(":SYMBOL: %s\n", t.Symbol))
	b.WriteString(fmt.Sprintf(":TYPE: %s\n", t.Direction))
	b.WriteString(fmt.Sprintf(":LOTS: %.2f\n", t.Lots))
	b.WriteString(fmt.Sprintf(":ENTRY_PRICE: %.5f\n", t.EntryPrice))
	b.WriteString(fmt.Sprintf(":STOP_LOSS: %.5f\n", t.StopLoss))
	b.WriteString(fmt.Sprintf(":TAKE_PROFIT: %.5f\n", t.TakeProfit))
	b.WriteString(fmt.Sprintf(":OPEN_TIME: %s\n", t.Time.UTC().Format(time.RFC3339)))
	b.WriteString(fmt.Sprintf(":STATUS: %s\n", t.Status))
	if t.Status == StatusClosed {
		b.WriteString(fmt.Sprintf(":EXIT_PRICE: %.5f\n", t.ExitPrice))
		b.WriteString(fmt.Sprintf(":CLOSE_TIME: %s\n", t.CloseTime.UTC().Format(time.RFC3339)))
		b.WriteString(fmt.Sprintf(":PROFIT: %.2f\n", t.Profit))
		b.WriteString(fmt.Sprintf(":CLOSE_REASON: %s\n", t.CloseReason))
	}
	b.WriteString(fmt.Sprintf(":STRATEGY: %s\n", t.Strategy))
	b.WriteString(fmt.Sprintf(":REASON: %s\n", t.Reason))
	b.WriteString(":END:\n")
	b.WriteString("\n")
	b.WriteString("*** Thesis\n- \n\n")
	b.WriteString("*** Review\n- \n")

	return b.String()
}

// FormatTradesOrg renders multiple trades separated by blank lines.
func FormatTradesOrg(trades []TradeRecord) string {
	var b strings.Builder
	for i, t := range trades {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(FormatTradeOrg(t))
	}
	return b.String()
}

// FormatPerformanceOrg renders a daily rollup as an Org table.
func FormatPerformanceOrg(p DailyPerformance) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("* Performance %s\n", p.Date))
	b.WriteString("| trades | wins | losses | profit | win rate | profit factor | max drawdown |\n")
	b.WriteString("|--------+------+--------+--------+----------+---------------+--------------|\n")
	b.WriteString(fmt.Sprintf("| %d | %d | %d | %.2f | %.1f%% | %.2f | %.2f |\n",
		p.TotalTrades, p.WinningTrades, p.LosingTrades, p.TotalProfit,
		100*p.WinRate, p.ProfitFactor, p.MaxDrawdown))
	return b.String()
}

func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[:8]
}
