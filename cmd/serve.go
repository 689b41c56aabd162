package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/arcanaland/boosterpack/internal/api"
	"github.com/arcanaland/boosterpack/internal/history"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the catalog over HTTP with live pack reveals",
	Long: `Serve starts an HTTP server for the catalog.

  GET  /health                        liveness check
  GET  /api/catalog                   catalog summary
  GET  /api/expansions                openable expansions
  GET  /api/expansions/{id}           one expansion
  POST /api/expansions/{id}/packs     open a pack without a reveal
  GET  /api/expansions/{id}/open      websocket reveal session
  GET  /api/history?limit=N           recently opened packs
  GET  /api/history/counts            pull counts, optionally ?expansion=id`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = cfg.Server.Addr
		}

		c, err := loadCatalog()
		if err != nil {
			return err
		}
		gen, err := newGenerator(0)
		if err != nil {
			return err
		}
		store, err := history.New(cfg.HistoryPath())
		if err != nil {
			return err
		}
		defer store.Close()

		srv := &http.Server{
			Addr: addr,
			Handler: api.New(api.Config{
				Catalog:        c,
				Generator:      gen,
				History:        store,
				Timings:        cfg.RevealTimings(),
				AllowedOrigins: cfg.Server.AllowedOrigins,
				Logger:         &logger,
			}),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			logger.Info().Str("addr", addr).Str("catalog", c.ID).Msg("server listening")
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
		}

		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	RootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Listen address (defaults to server.addr from the config)")
}
