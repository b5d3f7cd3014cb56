package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/signaltrader/backtest"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Evaluate strategies against historical bars",
	Long: `Backtest replays a bar CSV (time,open,high,low,close[,volume]) through the
same indicator and signal code the live loop uses and reports total return,
Sharpe ratio, maximum drawdown, win rate and trade count.

Supported strategies:
  - ma_crossover: long after a golden cross, short after a death cross
  - mean_reversion: fade closes outside the Bollinger bands confirmed by RSI
  - all: both of the above

Example:
  trader backtest --data data/eurusd_h1.csv --results results.csv`,
	Args: cobra.NoArgs,
	RunE: runBacktest,
}

var (
	btData     string
	btStrategy string
	btFrom     string
	btTo       string
	btResults  string
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringVarP(&btData, "data", "d", "", "bar CSV path (overrides backtest.data)")
	backtestCmd.Flags().StringVarP(&btStrategy, "strategy", "s", "", "strategy name or all (overrides backtest.strategy)")
	backtestCmd.Flags().StringVar(&btFrom, "from", "", "first day to include (YYYY-MM-DD)")
	backtestCmd.Flags().StringVar(&btTo, "to", "", "last day to include (YYYY-MM-DD)")
	backtestCmd.Flags().StringVarP(&btResults, "results", "r", "", "write a results CSV (overrides backtest.results_csv)")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	if btData != "" {
		cfg.Backtest.Data = btData
	}
	if btStrategy != "" {
		cfg.Backtest.Strategy = btStrategy
	}
	if btResults != "" {
		cfg.Backtest.ResultsCSV = btResults
	}
	if cfg.Backtest.Data == "" {
		return fmt.Errorf("backtest: no bar data, set backtest.data or --data")
	}

	from, to, err := dateRange(btFrom, btTo)
	if err != nil {
		return err
	}
	strategies, err := cfg.BacktestStrategies()
	if err != nil {
		return err
	}

	bars, err := backtest.LoadBarsCSV(cfg.Backtest.Data, from, to)
	if err != nil {
		return fmt.Errorf("load bars: %w", err)
	}
	log.Info("bars loaded", zap.String("path", cfg.Backtest.Data), zap.Int("bars", len(bars)))

	opts := cfg.BacktestOptions()
	reports := make([]backtest.Report, 0, len(strategies))
	for _, s := range strategies {
		r, err := backtest.Evaluate(bars, s, opts)
		if err != nil {
			return fmt.Errorf("backtest %s: %w", s, err)
		}
		backtest.PrintReport(cmd.OutOrStdout(), r)
		reports = append(reports, r)
	}

	if cfg.Backtest.ResultsCSV != "" {
		if err := writeResults(cfg.Backtest.ResultsCSV, reports); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Results written to %s\n", cfg.Backtest.ResultsCSV)
	}
	return nil
}

func writeResults(path string, reports []backtest.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create results: %w", err)
	}
	if err := backtest.WriteResultsCSV(f, reports); err != nil {
		f.Close()
		return fmt.Errorf("write results: %w", err)
	}
	return f.Close()
}

// dateRange parses optional YYYY-MM-DD bounds in UTC. The returned end is
// exclusive, so --to includes the whole of its day.
func dateRange(from, to string) (time.Time, time.Time, error) {
	var start, end time.Time
	if from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			return start, end, fmt.Errorf("bad --from %q: %w", from, err)
		}
		start = t
	}
	if to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			return start, end, fmt.Errorf("bad --to %q: %w", to, err)
		}
		end = t.AddDate(0, 0, 1)
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return start, end, fmt.Errorf("--to %s is before --from %s", to, from)
	}
	return start, end, nil
}
