package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/orderdesk/orderdesk/internal/pagination"
	"github.com/orderdesk/orderdesk/internal/services"
	"github.com/orderdesk/orderdesk/pkg/model"
	"github.com/spf13/cobra"
)

var listColumns = []model.Field{
	model.FieldCode,
	model.FieldOrderDate,
	model.FieldOrderNumber,
	model.FieldMaterialNumber,
	model.FieldSalesDocument,
	model.FieldOrderType,
	model.FieldStatus,
}

func newListCmd(a *app) *cobra.Command {
	var (
		field  string
		value  string
		pages  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print orders newest first, or the matches of an exact search",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q := model.BrowseQuery()
			if field != "" || value != "" {
				f, ok := model.ParseField(field)
				if !ok {
					return fmt.Errorf("%w: unknown field %q", model.ErrInvalidSearch, field)
				}
				var err error
				if q, err = model.SearchQuery(f, value); err != nil {
					return err
				}
			}
			if pages < 1 {
				return fmt.Errorf("--pages must be at least 1")
			}

			return a.withManager(cmd, func(ctx context.Context, m *services.Manager) error {
				out := cmd.OutOrStdout()
				return walkPages(ctx, m.Sessions(), q, pages, func(s pagination.Session) error {
					return writePage(out, asJSON, s)
				})
			})
		},
	}
	cmd.Flags().StringVar(&field, "field", "", "search field, e.g. \"Order Number\"")
	cmd.Flags().StringVar(&value, "value", "", "exact value to search for")
	cmd.Flags().IntVar(&pages, "pages", 1, "number of pages to walk")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print one JSON page per line")
	cmd.MarkFlagsRequiredTogether("field", "value")
	return cmd
}

// walkPages opens a session for q and hands each page to fn, stopping after
// pages pages or at the last one.
func walkPages(ctx context.Context, sessions *pagination.Manager, q model.Query, pages int, fn func(pagination.Session) error) error {
	s, err := sessions.Open(ctx, q)
	if s.ID != "" {
		defer sessions.Discard(context.WithoutCancel(ctx), s.ID)
	}
	if err != nil {
		return err
	}

	for {
		if err := fn(s); err != nil {
			return err
		}
		if s.Page >= pages || !s.HasNext {
			return nil
		}
		if s, err = sessions.GoTo(ctx, s.ID, s.Page+1); err != nil {
			return err
		}
	}
}

func writePage(w io.Writer, asJSON bool, s pagination.Session) error {
	if asJSON {
		return json.NewEncoder(w).Encode(pagination.Page{
			Number:  s.Page,
			Records: s.Records,
			HasNext: s.HasNext,
		})
	}
	return printPage(w, s.Page, s.Records)
}

func printPage(w io.Writer, number int, records []model.OrderRecord) error {
	fmt.Fprintf(w, "Page %d (%d orders)\n", number, len(records))
	if len(records) == 0 {
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, f := range listColumns {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, f.Label())
	}
	fmt.Fprintln(tw)
	for _, r := range records {
		for i, f := range listColumns {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, r.Value(f))
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}
