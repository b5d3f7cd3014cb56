package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/signaltrader/ledger"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Query the trade ledger",
	Long: `Query trade records and daily rollups. Reads go to the SQLite store
and fall back to the JSON backup when the store is unavailable.

Subcommands:
  trades  - List recent trades as Org entries
  stats   - Aggregate statistics over recent days
  day     - Daily performance rollup (default today)
  export  - Write recent trades as CSV

Examples:
  trader ledger trades --days 3 --symbol EURUSD
  trader ledger day 2024-01-15
  trader ledger export --days 30 -o trades.csv`,
}

var ledgerTradesCmd = &cobra.Command{
	Use:   "trades",
	Short: "List recent trades",
	Args:  cobra.NoArgs,
	RunE:  runLedgerTrades,
}

var ledgerStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show statistics over recent days",
	Args:  cobra.NoArgs,
	RunE:  runLedgerStats,
}

var ledgerDayCmd = &cobra.Command{
	Use:   "day [YYYY-MM-DD]",
	Short: "Show the performance rollup of one day",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLedgerDay,
}

var ledgerExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export recent trades as CSV",
	Args:  cobra.NoArgs,
	RunE:  runLedgerExport,
}

var (
	ledgerDays   int
	ledgerSymbol string
	ledgerOutput string
)

func init() {
	rootCmd.AddCommand(ledgerCmd)
	ledgerCmd.AddCommand(ledgerTradesCmd)
	ledgerCmd.AddCommand(ledgerStatsCmd)
	ledgerCmd.AddCommand(ledgerDayCmd)
	ledgerCmd.AddCommand(ledgerExportCmd)

	ledgerCmd.PersistentFlags().IntVar(&ledgerDays, "days", 7, "number of days to look back")
	ledgerCmd.PersistentFlags().StringVar(&ledgerSymbol, "symbol", "", "only trades in this symbol")
	ledgerExportCmd.Flags().StringVarP(&ledgerOutput, "output", "o", "-", "CSV output path, - for stdout")
}

// withLedger opens the configured ledger for a read-only command.
func withLedger(fn func(ctx context.Context, l *ledger.Ledger) error) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	l, err := openLedger(afero.NewOsFs(), cfg, log)
	if err != nil {
		return err
	}
	defer l.Close()
	return fn(context.Background(), l)
}

func runLedgerTrades(cmd *cobra.Command, args []string) error {
	return withLedger(func(ctx context.Context, l *ledger.Ledger) error {
		recs, err := l.GetRecentTrades(ctx, ledgerDays, ledgerSymbol)
		if err != nil {
			return fmt.Errorf("query trades: %w", err)
		}
		if len(recs) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No trades in the last %d days\n", ledgerDays)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), ledger.FormatTradesOrg(recs))
		return nil
	})
}

func runLedgerStats(cmd *cobra.Command, args []string) error {
	return withLedger(func(ctx context.Context, l *ledger.Ledger) error {
		s, err := l.GetStatistics(ctx, ledgerDays)
		if err != nil {
			return fmt.Errorf("statistics: %w", err)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Statistics, last %d days\n", s.PeriodDays)
		fmt.Fprintf(out, "  Trades:        %d (%d won, %d lost)\n", s.TotalTrades, s.WinningTrades, s.LosingTrades)
		fmt.Fprintf(out, "  Win rate:      %.1f%%\n", 100*s.WinRate)
		fmt.Fprintf(out, "  Total profit:  %.2f\n", s.TotalProfit)
		fmt.Fprintf(out, "  Avg win/loss:  %.2f / %.2f\n", s.AvgWin, s.AvgLoss)
		fmt.Fprintf(out, "  Profit factor: %.2f\n", s.ProfitFactor)
		fmt.Fprintf(out, "  Largest:       %.2f / %.2f\n", s.LargestWin, s.LargestLoss)
		return nil
	})
}

func runLedgerDay(cmd *cobra.Command, args []string) error {
	return withLedger(func(ctx context.Context, l *ledger.Ledger) error {
		date := l.DateOf(time.Now())
		if len(args) == 1 {
			date = args[0]
		}
		p, err := l.DailyPerformance(ctx, date)
		if err != nil {
			return fmt.Errorf("performance %s: %w", date, err)
		}
		fmt.Fprint(cmd.OutOrStdout(), ledger.FormatPerformanceOrg(p))
		return nil
	})
}

func runLedgerExport(cmd *cobra.Command, args []string) error {
	return withLedger(func(ctx context.Context, l *ledger.Ledger) error {
		recs, err := l.GetRecentTrades(ctx, ledgerDays, ledgerSymbol)
		if err != nil {
			return fmt.Errorf("query trades: %w", err)
		}

		var w io.Writer = cmd.OutOrStdout()
		if ledgerOutput != "-" {
			f, err := os.Create(ledgerOutput)
			if err != nil {
				return fmt.Errorf("create %s: %w", ledgerOutput, err)
			}
			defer f.Close()
			w = f
		}
		if err := ledger.WriteTradesCSV(w, recs); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
		return nil
	})
}
