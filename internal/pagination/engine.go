// Package pagination walks the order collection page by page with keyset
// cursors and tracks where a caller is in that walk.
package pagination

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/orderdesk/orderdesk/internal/metrics"
	"github.com/orderdesk/orderdesk/internal/storage"
	"github.com/orderdesk/orderdesk/pkg/model"
)

// Page is one fetched page, newest record first.
type Page struct {
	Number     int                 `json:"number"`
	Records    []model.OrderRecord `json:"records"`
	HasNext    bool                `json:"hasNext"`
	NextCursor *model.Cursor       `json:"nextCursor,omitempty"`
}

// Engine fetches pages from an OrderStore.
type Engine struct {
	store  storage.OrderStore
	cfg    Config
	logger *slog.Logger
}

// NewEngine creates an engine. cfg zero values fall back to defaults.
func NewEngine(store storage.OrderStore, cfg Config, logger *slog.Logger) *Engine {
	cfg.ApplyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:  store,
		cfg:    cfg,
		logger: logger.With("component", "pagination"),
	}
}

// PageSize returns the page size used for q.
func (e *Engine) PageSize(q model.Query) int {
	if q.Mode == model.ModeSearch {
		return e.cfg.SearchPageSize
	}
	return e.cfg.BrowsePageSize
}

// FetchPage loads page number pageNumber of q. Page 1 takes a nil cursor;
// later pages take the cursor registered for them by the previous page.
//
// The range read is inclusive at the cursor, so one extra record is asked
// for and the boundary record is dropped locally. If the boundary record
// has gone missing the page is trimmed to the page size instead.
func (e *Engine) FetchPage(ctx context.Context, pageNumber int, cursor *model.Cursor, q model.Query) (Page, error) {
	started := time.Now()
	if err := q.Validate(); err != nil {
		return Page{}, err
	}

	size := e.PageSize(q)
	rq := storage.RangeQuery{
		OrderBy:     q.OrderField,
		Equal:       q.Filter,
		LimitToLast: size,
	}
	if cursor != nil {
		c := *cursor
		rq.EndAt = &c
		rq.LimitToLast = size + 1
	}

	fetchCtx := ctx
	if e.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, e.cfg.FetchTimeout)
		defer cancel()
	}

	records, err := e.store.Range(fetchCtx, rq)
	if err != nil {
		err = e.classify(ctx, err)
		metrics.ObserveFetch(string(q.Mode), outcomeOf(err), started)
		e.logger.Warn("Page fetch failed", "mode", q.Mode, "page", pageNumber, "field", q.OrderField, "error", err)
		return Page{}, err
	}

	slices.SortStableFunc(records, func(a, b model.OrderRecord) int {
		return model.CompareRecords(b, a, q.OrderField)
	})

	if cursor != nil {
		if i := slices.IndexFunc(records, func(r model.OrderRecord) bool { return r.Code == cursor.Key }); i >= 0 {
			records = slices.Delete(records, i, i+1)
		}
	}
	if len(records) > size {
		records = records[:size]
	}

	page := Page{
		Number:  pageNumber,
		Records: records,
		HasNext: len(records) > 0 && len(records) >= size,
	}
	if len(records) > 0 {
		last := records[len(records)-1]
		page.NextCursor = &model.Cursor{Value: last.Value(q.OrderField), Key: last.Code}
	}

	metrics.ObserveFetch(string(q.Mode), "ok", started)
	e.logger.Debug("Page fetched", "mode", q.Mode, "page", pageNumber, "count", len(records), "has_next", page.HasNext)
	return page, nil
}

// classify maps a store failure onto the pagination error taxonomy.
func (e *Engine) classify(parent context.Context, err error) error {
	if model.IsMissingIndex(err) {
		return err
	}
	if parent.Err() != nil || errors.Is(err, context.Canceled) {
		return model.ErrCanceled
	}
	return &model.RetrievalError{Message: err.Error(), Err: err}
}

func outcomeOf(err error) string {
	switch {
	case model.IsMissingIndex(err):
		return "missing_index"
	case errors.Is(err, model.ErrCanceled):
		return "canceled"
	default:
		return "error"
	}
}
