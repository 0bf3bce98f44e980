package main

import (
	"context"
	"log/slog"

	"github.com/orderdesk/orderdesk/internal/config"
	"github.com/orderdesk/orderdesk/internal/logging"
	"github.com/orderdesk/orderdesk/internal/services"
	"github.com/spf13/cobra"
)

// app carries state shared by every subcommand.
type app struct {
	configDir string
	verbose   bool
	cfg       *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "orderdesk",
		Short:         "Order record browser and spreadsheet importer",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig(a.configDir)
			if err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.configDir, "config", config.DefaultDir, "directory holding config.yml")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log at debug level on stderr")

	root.AddCommand(
		newServeCmd(a),
		newImportCmd(a),
		newListCmd(a),
		newIndexesCmd(a),
	)
	return root
}

// cliLogger logs to the command's stderr only. One-shot commands do not
// write log files.
func (a *app) cliLogger(cmd *cobra.Command) *slog.Logger {
	cfg := a.cfg.Logging
	cfg.File.Enabled = false
	cfg.Console.Enabled = true
	cfg.Console.Level = "warn"
	if a.verbose {
		cfg.Console.Level = "debug"
	}
	logger, err := logging.NewLoggerTo(cfg, cmd.ErrOrStderr())
	if err != nil {
		return slog.Default()
	}
	return logger
}

// withManager opens the domain components, runs fn and releases them.
func (a *app) withManager(cmd *cobra.Command, fn func(ctx context.Context, m *services.Manager) error) error {
	ctx := cmd.Context()
	m := services.NewManager(a.cfg, services.Options{}, a.cliLogger(cmd))
	if err := m.Init(ctx); err != nil {
		return err
	}
	defer m.Shutdown(context.WithoutCancel(ctx))
	return fn(ctx, m)
}
