package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/orderdesk/orderdesk/internal/logging"
	"github.com/orderdesk/orderdesk/internal/services"
	"github.com/spf13/cobra"
)

const initTimeout = 30 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var host string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the live update feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := logging.Initialize(a.cfg.Logging); err != nil {
				return err
			}
			defer logging.Shutdown()

			mgr := services.NewManager(a.cfg, services.Options{Serve: true, ListenHost: host}, slog.Default())

			initCtx, cancel := context.WithTimeout(cmd.Context(), initTimeout)
			defer cancel()
			if err := mgr.Init(initCtx); err != nil {
				return err
			}

			bgCtx, bgCancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer bgCancel()

			slog.Info("Starting orderdesk", "host", a.cfg.Server.Host, "port", a.cfg.Server.HTTPPort)
			mgr.Start(bgCtx)

			<-bgCtx.Done()
			slog.Info("Shutting down")

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
			defer shutdownCancel()
			mgr.Shutdown(shutdownCtx)

			slog.Info("All services stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "listen host, overrides server.host")
	return cmd
}
