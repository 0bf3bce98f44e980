package main

import (
	"context"
	"fmt"

	"github.com/orderdesk/orderdesk/internal/services"
	"github.com/spf13/cobra"
)

func newIndexesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "indexes",
		Short: "Manage the order store indexes",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "ensure",
		Short: "Create the indexes listed under storage.indexes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withManager(cmd, func(ctx context.Context, m *services.Manager) error {
				if err := m.Store().EnsureIndexes(ctx); err != nil {
					return fmt.Errorf("ensure indexes: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Indexes ensured on %s backend: %v\n", a.cfg.Storage.Backend, a.cfg.Storage.Indexes)
				return nil
			})
		},
	})
	return cmd
}
