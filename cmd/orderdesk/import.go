package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/orderdesk/orderdesk/internal/ingest"
	"github.com/orderdesk/orderdesk/internal/pagination"
	"github.com/orderdesk/orderdesk/internal/services"
	"github.com/orderdesk/orderdesk/pkg/model"
	"github.com/spf13/cobra"
)

func newImportCmd(a *app) *cobra.Command {
	var (
		file   string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import an XLSX or CSV spreadsheet into the order store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read %s: %w", file, err)
			}
			if limit := a.cfg.Ingest.MaxUploadBytes; limit > 0 && int64(len(data)) > limit {
				return fmt.Errorf("%s is %d bytes; the limit is %d", file, len(data), limit)
			}

			return a.withManager(cmd, func(ctx context.Context, m *services.Manager) error {
				res, err := m.Pipeline().Ingest(ctx, data, filepath.Base(file))
				if err != nil {
					return err
				}
				page, err := m.Engine().FetchPage(ctx, 1, nil, model.BrowseQuery())
				if err != nil {
					return fmt.Errorf("imported batch %s but could not refresh: %w", res.BatchID, err)
				}

				out := cmd.OutOrStdout()
				if asJSON {
					return json.NewEncoder(out).Encode(struct {
						*ingest.Result
						FirstPage pagination.Page `json:"firstPage"`
					}{res, page})
				}
				fmt.Fprintf(out, "Imported %d orders (%d rows skipped)\n", res.Accepted, res.Skipped)
				if res.Written < res.Accepted {
					fmt.Fprintf(out, "%d rows repeated a Code; %d distinct orders written\n", res.Accepted-res.Written, res.Written)
				}
				fmt.Fprintf(out, "Batch %s, blake3 %s\n\n", res.BatchID, res.Fingerprint)
				return printPage(out, page.Number, page.Records)
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "spreadsheet to import (required)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
