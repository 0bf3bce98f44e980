// Package memory provides an in-process OrderStore backed by btree indexes.
// It serves local development and tests with the same ordering and
// missing-index behavior as the remote store.
package memory

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/orderdesk/orderdesk/internal/storage"
	"github.com/orderdesk/orderdesk/pkg/model"
)

var errClosed = errors.New("memory store closed")

type Store struct {
	mu      sync.RWMutex
	records map[string]model.OrderRecord
	indexes map[model.Field]*fieldIndex
	closed  bool
}

var _ storage.OrderStore = (*Store)(nil)

// New returns an empty store with an index on each of fields.
func New(fields ...model.Field) *Store {
	s := &Store{
		records: make(map[string]model.OrderRecord),
		indexes: make(map[model.Field]*fieldIndex, len(fields)),
	}
	for _, f := range fields {
		s.indexes[f] = newFieldIndex()
	}
	return s
}

// AddIndex indexes field over every stored record. Adding an existing index is a no-op.
func (s *Store) AddIndex(field model.Field) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.indexes[field]; ok {
		return
	}
	idx := newFieldIndex()
	for code, rec := range s.records {
		idx.upsert(code, rec.Value(field))
	}
	s.indexes[field] = idx
}

func (s *Store) Range(ctx context.Context, q storage.RangeQuery) ([]model.OrderRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, errClosed
	}
	for _, f := range q.IndexedFields() {
		if _, ok := s.indexes[f]; !ok {
			return nil, &model.MissingIndexError{Field: f.Label()}
		}
	}
	idx := s.indexes[q.OrderBy]

	var (
		pivot    *indexItem
		equalKey string
	)
	sameField := q.Equal != nil && q.Equal.Field == q.OrderBy
	if sameField {
		equalKey = model.SortKey(q.Equal.Value)
	}
	switch {
	case q.EndAt != nil:
		pivot = &indexItem{value: model.SortKey(q.EndAt.Value), code: q.EndAt.Key}
	case sameField:
		// Every (key, code) pair sorts at or below (key+"\x00", "").
		pivot = &indexItem{value: equalKey + "\x00"}
	}

	var out []model.OrderRecord
	idx.descend(pivot, func(item indexItem) bool {
		if sameField {
			if item.value > equalKey {
				return true
			}
			if item.value < equalKey {
				return false
			}
		}
		rec := s.records[item.code]
		// Distinct values can share a sort key ("1" and "1.0").
		if q.Equal != nil && rec.Value(q.Equal.Field) != q.Equal.Value {
			return true
		}
		out = append(out, rec)
		return q.LimitToLast <= 0 || len(out) < q.LimitToLast
	})

	// limitToLast semantics: ascending order, newest last.
	slices.Reverse(out)
	return out, nil
}

func (s *Store) Update(ctx context.Context, records map[string]model.OrderRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	staged := make(map[string]model.OrderRecord, len(records))
	for path, rec := range records {
		code, err := storage.CodeFromPath(path)
		if err != nil {
			return err
		}
		if rec.Code != code {
			return fmt.Errorf("record code %q does not match path %q", rec.Code, path)
		}
		staged[code] = rec
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errClosed
	}
	for code, rec := range staged {
		s.records[code] = rec
		for f, idx := range s.indexes {
			idx.upsert(code, rec.Value(f))
		}
	}
	return nil
}

// EnsureIndexes is a no-op; indexes are declared when the store is built.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	return ctx.Err()
}

// Get returns the record stored under code.
func (s *Store) Get(code string) (model.OrderRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[code]
	if !ok {
		return model.OrderRecord{}, model.ErrNotFound
	}
	return rec, nil
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *Store) Close(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
