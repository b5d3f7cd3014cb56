package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/signaltrader/api"
	"github.com/rustyeddy/signaltrader/backtest"
	"github.com/rustyeddy/signaltrader/broker"
	"github.com/rustyeddy/signaltrader/live"
	"github.com/rustyeddy/signaltrader/risk"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the live loop against the paper provider",
	Long: `Run polls the market provider once per loop.poll_interval, updates the
indicators, evaluates the configured strategy, applies the risk governor and
submits orders. Every order, close and rejection is written to the ledger.

The provider is a paper account replaying a bar CSV: each cycle reveals one
more bar, and stops and targets are settled against bar highs and lows.

Example:
  trader run -c trader.yaml --data data/eurusd_h1.csv --serve`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

var (
	runData  string
	runServe bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runData, "data", "d", "", "bar CSV replayed by the paper provider (overrides loop.data)")
	runCmd.Flags().BoolVar(&runServe, "serve", false, "serve the reporting API on api.addr while running")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	if runData != "" {
		cfg.Loop.Data = runData
	}
	if cfg.Loop.Data == "" {
		return fmt.Errorf("run: no bar data, set loop.data or --data")
	}
	strategy, err := backtest.ParseStrategy(cfg.Loop.Strategy)
	if err != nil {
		return err
	}

	bars, err := backtest.LoadBarsCSV(cfg.Loop.Data, time.Time{}, time.Time{})
	if err != nil {
		return fmt.Errorf("load bars: %w", err)
	}
	provider, err := broker.NewPaper(bars, broker.PaperOptions{
		Instrument: cfg.Instrument,
		Balance:    decimal.NewFromFloat(cfg.Account.Balance),
		SpreadPips: cfg.Loop.SpreadPips,
		Warmup:     cfg.Loop.Bars,
		StepOnTick: true,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore := riskStore(ctx, cfg, log)
	defer closeStore()
	governor, err := risk.NewGovernor(cfg.Risk, cfg.Instrument, store, log)
	if err != nil {
		return err
	}

	l, err := openLedger(afero.NewOsFs(), cfg, log)
	if err != nil {
		return err
	}
	defer l.Close()

	pub := publisher(cfg, log)
	defer pub.Close()

	runner, err := live.New(live.Options{
		Instrument:   cfg.Instrument,
		Timeframe:    cfg.Loop.Timeframe,
		Bars:         cfg.Loop.Bars,
		PollInterval: cfg.Loop.PollInterval,
		ErrorBackoff: cfg.Loop.ErrorBackoff,
		Strategy:     strategy,
		Indicators:   cfg.Indicators,
		Signals:      cfg.Signals,
	}, live.Deps{
		Provider:  provider,
		Governor:  governor,
		Ledger:    l,
		Publisher: pub,
		Logger:    log,
	})
	if err != nil {
		return err
	}

	apiErr := make(chan error, 1)
	if runServe {
		router := api.NewRouter(api.NewHandler(l, governor, log))
		go func() {
			apiErr <- api.Serve(ctx, cfg.API.Addr, router, cfg.Loop.ShutdownTimeout, log)
		}()
	}

	err = runner.Run(ctx)

	stats := runner.Stats()
	fmt.Fprintf(cmd.OutOrStdout(), "Cycles: %d  Failures: %d  Signals: %d  Orders: %d  Rejected: %d  Closed: %d\n",
		stats.Cycles, stats.Failures, stats.Signals, stats.Orders, stats.Rejected, stats.Closed)
	fmt.Fprintf(cmd.OutOrStdout(), "Balance: %s\n", provider.Balance().StringFixed(2))

	if runServe {
		if err == nil {
			// a finished replay keeps the API up until interrupted
			log.Info("loop finished, api still serving")
		} else {
			stop()
		}
		var serr error
		select {
		case serr = <-apiErr:
		case <-ctx.Done():
			serr = <-apiErr
		}
		if serr != nil {
			log.Error("api server", zap.Error(serr))
			err = errors.Join(err, serr)
		}
	}
	return err
}
