package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/signaltrader/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the read-only reporting API",
	Long: `Serve exposes the ledger over HTTP:

  GET /health
  GET /api/trades?days=7&symbol=EURUSD
  GET /api/statistics?days=30
  GET /api/performance/{YYYY-MM-DD}

Risk state is only available while the live loop runs (trader run --serve).`,
	Args: cobra.NoArgs,
	RunE: runServeCmd,
}

var serveAddr string

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "", "listen address (overrides api.addr)")
}

func runServeCmd(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	if serveAddr != "" {
		cfg.API.Addr = serveAddr
	}

	l, err := openLedger(afero.NewOsFs(), cfg, log)
	if err != nil {
		return err
	}
	defer l.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	router := api.NewRouter(api.NewHandler(l, nil, log))
	return api.Serve(ctx, cfg.API.Addr, router, cfg.Loop.ShutdownTimeout, log)
}
