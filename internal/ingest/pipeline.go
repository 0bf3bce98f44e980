// Package ingest turns uploaded spreadsheets into order records and upserts
// them into the order store in one batch.
package ingest

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/orderdesk/orderdesk/internal/metrics"
	"github.com/orderdesk/orderdesk/internal/notify"
	"github.com/orderdesk/orderdesk/internal/storage"
	"github.com/orderdesk/orderdesk/pkg/model"
	"github.com/zeebo/blake3"
)

// Result summarizes one ingested file. Accepted plus Skipped is the number of
// data rows. Written is the number of distinct records upserted; it is below
// Accepted when rows repeat a Code.
type Result struct {
	Accepted    int    `json:"accepted"`
	Skipped     int    `json:"skipped"`
	Written     int    `json:"written"`
	BatchID     string `json:"batchId"`
	Fingerprint string `json:"fingerprint"`
}

// Pipeline decodes, validates and writes spreadsheets.
type Pipeline struct {
	store     storage.OrderStore
	decoder   Decoder
	publisher notify.Publisher
	rule      *AcceptRule
	cfg       Config
	logger    *slog.Logger
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithDecoder replaces the default spreadsheet decoder.
func WithDecoder(d Decoder) Option {
	return func(p *Pipeline) { p.decoder = d }
}

// WithPublisher announces every written batch on notify.SubjectIngested.
func WithPublisher(pub notify.Publisher) Option {
	return func(p *Pipeline) { p.publisher = pub }
}

// NewPipeline creates a pipeline writing to store. It fails when the
// configured accept rule does not compile.
func NewPipeline(store storage.OrderStore, cfg Config, logger *slog.Logger, opts ...Option) (*Pipeline, error) {
	cfg.ApplyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pipeline{
		store:   store,
		decoder: SpreadsheetDecoder{},
		cfg:     cfg,
		logger:  logger.With("component", "ingest"),
	}
	if strings.TrimSpace(cfg.AcceptRule) != "" {
		rule, err := NewAcceptRule(cfg.AcceptRule)
		if err != nil {
			return nil, fmt.Errorf("invalid accept rule: %w", err)
		}
		p.rule = rule
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Fingerprint returns the hex BLAKE3 digest of data.
func Fingerprint(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Ingest parses data, keeps the rows that pass validation and upserts them
// keyed by Code. Later rows replace earlier rows with the same Code. When no
// row survives, ErrNoValidRecords is returned and the store is not touched.
func (p *Pipeline) Ingest(ctx context.Context, data []byte, source string) (*Result, error) {
	started := time.Now()
	res, err := p.ingest(ctx, data, source)
	if err != nil {
		metrics.ObserveIngest(ingestOutcome(err), 0, 0, started)
		return nil, err
	}
	metrics.ObserveIngest("ok", res.Accepted, res.Skipped, started)
	return res, nil
}

func (p *Pipeline) ingest(ctx context.Context, data []byte, source string) (*Result, error) {
	if p.cfg.MaxUploadBytes > 0 && int64(len(data)) > p.cfg.MaxUploadBytes {
		return nil, &model.ParseError{
			Reason: fmt.Sprintf("file is %d bytes, limit is %d", len(data), p.cfg.MaxUploadBytes),
		}
	}

	sheet, err := p.decoder.Decode(data)
	if err != nil {
		return nil, err
	}
	rows, err := DecodeRows(sheet)
	if err != nil {
		return nil, err
	}

	batch := make(map[string]model.OrderRecord, len(rows))
	accepted, skipped := 0, 0
	for _, row := range rows {
		rec, skip := p.accept(row)
		if skip != nil {
			skipped++
			p.logger.Debug("Row skipped", "row", skip.RowIndex, "reason", skip.Reason)
			continue
		}
		accepted++
		batch[storage.RecordPath(rec.Code)] = rec
	}

	if len(batch) == 0 {
		p.logger.Warn("Upload had no valid rows", "source", source, "rows", len(rows), "skipped", skipped)
		return nil, model.ErrNoValidRecords
	}

	if err := p.store.Update(ctx, batch); err != nil {
		if model.IsCanceled(err) {
			return nil, model.ErrCanceled
		}
		return nil, &model.WriteError{Message: err.Error(), Err: err}
	}

	res := &Result{
		Accepted:    accepted,
		Skipped:     skipped,
		Written:     len(batch),
		BatchID:     uuid.NewString(),
		Fingerprint: Fingerprint(data),
	}
	p.logger.Info("Orders ingested",
		"batch_id", res.BatchID,
		"source", source,
		"accepted", res.Accepted,
		"skipped", res.Skipped,
		"written", res.Written,
	)
	p.announce(ctx, res, source)
	return res, nil
}

// accept normalizes row and returns the record, or why it was skipped.
func (p *Pipeline) accept(row Row) (model.OrderRecord, *model.ValidationSkipped) {
	rec := row.Record
	rec.Normalize(p.cfg.DefaultOrderType)

	if rec.Code == "" {
		return rec, &model.ValidationSkipped{RowIndex: row.Number, Reason: "empty Code"}
	}
	if err := rec.Validate(); err != nil {
		return rec, &model.ValidationSkipped{RowIndex: row.Number, Reason: "Code is not a valid storage key"}
	}
	if p.rule != nil {
		ok, err := p.rule.Accept(rec)
		if err != nil {
			return rec, &model.ValidationSkipped{RowIndex: row.Number, Reason: err.Error()}
		}
		if !ok {
			return rec, &model.ValidationSkipped{RowIndex: row.Number, Reason: "rejected by " + p.rule.String()}
		}
	}
	return rec, nil
}

func (p *Pipeline) announce(ctx context.Context, res *Result, source string) {
	if p.publisher == nil {
		return
	}
	evt := notify.IngestedEvent{
		BatchID:     res.BatchID,
		Accepted:    res.Accepted,
		Skipped:     res.Skipped,
		Fingerprint: res.Fingerprint,
		Source:      source,
		At:          time.Now().UTC(),
	}
	if err := notify.PublishIngested(context.WithoutCancel(ctx), p.publisher, evt); err != nil {
		p.logger.Warn("Failed to publish ingestion notification", "batch_id", res.BatchID, "error", err)
	}
}

func ingestOutcome(err error) string {
	var (
		parseErr  *model.ParseError
		decodeErr *model.DecodeError
		writeErr  *model.WriteError
	)
	switch {
	case errors.As(err, &parseErr):
		return "parse_error"
	case errors.As(err, &decodeErr):
		return "decode_error"
	case errors.As(err, &writeErr):
		return "write_error"
	case errors.Is(err, model.ErrNoValidRecords):
		return "no_valid_records"
	case errors.Is(err, model.ErrCanceled):
		return "canceled"
	}
	return "error"
}
