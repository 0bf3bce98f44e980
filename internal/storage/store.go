package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/orderdesk/orderdesk/pkg/model"
)

// CollectionPath is the collection every order record lives under.
const CollectionPath = "orders"

// RangeQuery selects the last LimitToLast entries of the (OrderBy, Code)
// ordering, optionally bounded above by EndAt (inclusive) and restricted to
// entries whose Equal.Field matches Equal.Value.
type RangeQuery struct {
	OrderBy     model.Field
	EndAt       *model.Cursor
	Equal       *model.Filter
	LimitToLast int
}

// IndexedFields returns the fields the store must have indexed to serve q.
func (q RangeQuery) IndexedFields() []model.Field {
	fields := []model.Field{q.OrderBy}
	if q.Equal != nil && q.Equal.Field != q.OrderBy {
		fields = append(fields, q.Equal.Field)
	}
	return fields
}

// OrderStore is the ordered key-value collaborator holding order records.
type OrderStore interface {
	// Range returns the matching entries. The direction of the returned
	// slice is not guaranteed; callers sort locally.
	// A query on a field with no index fails with *model.MissingIndexError.
	Range(ctx context.Context, q RangeQuery) ([]model.OrderRecord, error)

	// Update upserts every record at its path in one atomic write.
	// Paths have the form "orders/<Code>".
	Update(ctx context.Context, records map[string]model.OrderRecord) error

	// EnsureIndexes provisions the indexes declared in configuration.
	EnsureIndexes(ctx context.Context) error

	Close(ctx context.Context) error
}

// RecordPath returns the storage path for code.
func RecordPath(code string) string {
	return CollectionPath + "/" + code
}

// CodeFromPath extracts the record key from a path produced by RecordPath.
func CodeFromPath(path string) (string, error) {
	code, ok := strings.CutPrefix(path, CollectionPath+"/")
	if !ok || !model.CheckStorageKey(code) {
		return "", fmt.Errorf("invalid order path %q", path)
	}
	return code, nil
}
