package backtest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

// PrintReport writes a human readable report.
func PrintReport(w io.Writer, r Report) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Backtest Result")
	fmt.Fprintln(w, "==================================================")

	fmt.Fprintf(w, "Run ID:        %s\n", r.RunID)
	fmt.Fprintf(w, "Created:       %s\n", r.Created.Format(time.RFC3339))
	fmt.Fprintf(w, "Strategy:      %s\n", r.Strategy)
	fmt.Fprintf(w, "Symbol:        %s\n", r.Symbol)
	fmt.Fprintf(w, "Timeframe:     %s\n", r.Timeframe)
	if r.Dataset != "" {
		fmt.Fprintf(w, "Dataset:       %s\n", r.Dataset)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Period")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Start:         %s\n", r.Start.Format(time.RFC3339))
	fmt.Fprintf(w, "End:           %s\n", r.End.Format(time.RFC3339))
	fmt.Fprintf(w, "Bars:          %d\n", r.Bars)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trade Statistics")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Trades:        %d\n", r.Trades)
	fmt.Fprintf(w, "Win Rate:      %.2f%%\n", 100*r.WinRate)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Account Performance")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Start Balance: %.2f\n", r.InitialBalance)
	fmt.Fprintf(w, "Final Equity:  %.2f\n", r.FinalEquity)
	fmt.Fprintf(w, "Return:        %.2f%%\n", 100*r.TotalReturn)
	fmt.Fprintf(w, "Sharpe:        %.3f\n", r.Sharpe)
	fmt.Fprintf(w, "Max Drawdown:  %.2f%%\n", 100*r.MaxDrawdown)
	fmt.Fprintln(w)
}

var resultsHeader = []string{
	"run_id", "strategy", "symbol", "timeframe", "start", "end", "bars",
	"total_return", "sharpe_ratio", "max_drawdown", "win_rate", "total_trades", "final_equity",
}

// WriteResultsCSV writes one row per report.
func WriteResultsCSV(w io.Writer, reports []Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(resultsHeader); err != nil {
		return err
	}
	for _, r := range reports {
		if err := cw.Write([]string{
			r.RunID,
			string(r.Strategy),
			r.Symbol,
			r.Timeframe,
			r.Start.UTC().Format(time.RFC3339),
			r.End.UTC().Format(time.RFC3339),
			strconv.Itoa(r.Bars),
			ff(r.TotalReturn),
			ff(r.Sharpe),
			ff(r.MaxDrawdown),
			ff(r.WinRate),
			strconv.Itoa(r.Trades),
			strconv.FormatFloat(r.FinalEquity, 'f', 2, 64),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func ff(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
