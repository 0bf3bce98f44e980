package memory

import (
	"context"
	"fmt"
	"testing"

	"github.com/orderdesk/orderdesk/internal/storage"
	"github.com/orderdesk/orderdesk/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func codes(recs []model.OrderRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Code
	}
	return out
}

func seed(t *testing.T, s *Store, recs ...model.OrderRecord) {
	t.Helper()
	batch := make(map[string]model.OrderRecord, len(recs))
	for _, r := range recs {
		batch[storage.RecordPath(r.Code)] = r
	}
	require.NoError(t, s.Update(context.Background(), batch))
}

func TestStore_RangeLimitToLast(t *testing.T) {
	s := New(model.FieldOrderDate)
	seed(t, s,
		model.OrderRecord{Code: "A", OrderDate: "2024-01-01"},
		model.OrderRecord{Code: "B", OrderDate: "2024-02-01"},
		model.OrderRecord{Code: "C", OrderDate: "2024-03-01"},
		model.OrderRecord{Code: "D", OrderDate: "2024-03-01"},
	)

	got, err := s.Range(context.Background(), storage.RangeQuery{OrderBy: model.FieldOrderDate, LimitToLast: 3})
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "C", "D"}, codes(got))

	all, err := s.Range(context.Background(), storage.RangeQuery{OrderBy: model.FieldOrderDate})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C", "D"}, codes(all))
}

func TestStore_RangeEndAtInclusive(t *testing.T) {
	s := New(model.FieldOrderDate)
	seed(t, s,
		model.OrderRecord{Code: "A", OrderDate: "2024-01-01"},
		model.OrderRecord{Code: "B", OrderDate: "2024-02-01"},
		model.OrderRecord{Code: "C", OrderDate: "2024-03-01"},
		model.OrderRecord{Code: "D", OrderDate: "2024-03-01"},
	)

	got, err := s.Range(context.Background(), storage.RangeQuery{
		OrderBy:     model.FieldOrderDate,
		EndAt:       &model.Cursor{Value: "2024-03-01", Key: "C"},
		LimitToLast: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "C"}, codes(got))
}

func TestStore_RangeEqualOnOrderField(t *testing.T) {
	s := New(model.FieldOrderNumber)
	seed(t, s,
		model.OrderRecord{Code: "A", OrderNumber: "SO-1000"},
		model.OrderRecord{Code: "B", OrderNumber: "SO-1001"},
		model.OrderRecord{Code: "C", OrderNumber: "SO-1001"},
		model.OrderRecord{Code: "D", OrderNumber: "SO-1001"},
		model.OrderRecord{Code: "E", OrderNumber: "SO-1002"},
	)
	eq := &model.Filter{Field: model.FieldOrderNumber, Value: "SO-1001"}

	got, err := s.Range(context.Background(), storage.RangeQuery{OrderBy: model.FieldOrderNumber, Equal: eq, LimitToLast: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "C", "D"}, codes(got))

	got, err = s.Range(context.Background(), storage.RangeQuery{
		OrderBy:     model.FieldOrderNumber,
		Equal:       eq,
		EndAt:       &model.Cursor{Value: "SO-1001", Key: "C"},
		LimitToLast: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "C"}, codes(got))
}

func TestStore_RangeOrdersBySortKey(t *testing.T) {
	s := New(model.FieldOrderDate, model.FieldSalesDocument)
	seed(t, s,
		model.OrderRecord{Code: "A", OrderDate: "2024-05-01", SalesDocument: "1"},
		model.OrderRecord{Code: "B", OrderDate: "TBD", SalesDocument: "1.0"},
		model.OrderRecord{Code: "C", OrderDate: "2024-04-01", SalesDocument: "10"},
	)

	got, err := s.Range(context.Background(), storage.RangeQuery{OrderBy: model.FieldOrderDate})
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "C", "A"}, codes(got), "text below dates")

	got, err = s.Range(context.Background(), storage.RangeQuery{
		OrderBy:     model.FieldOrderDate,
		EndAt:       &model.Cursor{Value: "2024-04-01", Key: "C"},
		LimitToLast: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "C"}, codes(got))

	got, err = s.Range(context.Background(), storage.RangeQuery{
		OrderBy: model.FieldSalesDocument,
		Equal:   &model.Filter{Field: model.FieldSalesDocument, Value: "1"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, codes(got), "equal sort keys, different values")
}

func TestStore_RangeEqualOnOtherField(t *testing.T) {
	s := New(model.FieldOrderDate, model.FieldMaterialNumber)
	seed(t, s,
		model.OrderRecord{Code: "A", OrderDate: "2024-01-01", MaterialNumber: "M-1"},
		model.OrderRecord{Code: "B", OrderDate: "2024-02-01", MaterialNumber: "M-2"},
		model.OrderRecord{Code: "C", OrderDate: "2024-03-01", MaterialNumber: "M-1"},
	)

	got, err := s.Range(context.Background(), storage.RangeQuery{
		OrderBy: model.FieldOrderDate,
		Equal:   &model.Filter{Field: model.FieldMaterialNumber, Value: "M-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "C"}, codes(got))
}

func TestStore_MissingIndex(t *testing.T) {
	s := New(model.FieldOrderDate)

	_, err := s.Range(context.Background(), storage.RangeQuery{
		OrderBy:     model.FieldMaterialNumber,
		Equal:       &model.Filter{Field: model.FieldMaterialNumber, Value: "M-1"},
		LimitToLast: 50,
	})
	require.Error(t, err)

	var mi *model.MissingIndexError
	require.ErrorAs(t, err, &mi)
	assert.Equal(t, "Material Number", mi.Field)
	assert.Contains(t, err.Error(), "Material Number")

	s.AddIndex(model.FieldMaterialNumber)
	_, err = s.Range(context.Background(), storage.RangeQuery{OrderBy: model.FieldMaterialNumber})
	assert.NoError(t, err)
}

func TestStore_UpdateIsUpsert(t *testing.T) {
	s := New(model.FieldOrderDate)
	seed(t, s, model.OrderRecord{Code: "A", OrderDate: "2024-01-01", Status: "Open"})
	seed(t, s, model.OrderRecord{Code: "A", OrderDate: "2024-05-01", Status: "Shipped"})

	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 1, s.indexes[model.FieldOrderDate].len())

	rec, err := s.Get("A")
	require.NoError(t, err)
	assert.Equal(t, "Shipped", rec.Status)

	got, err := s.Range(context.Background(), storage.RangeQuery{OrderBy: model.FieldOrderDate})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2024-05-01", got[0].OrderDate)

	_, err = s.Get("missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestStore_UpdateRejectsWholeBatch(t *testing.T) {
	s := New(model.FieldOrderDate)

	err := s.Update(context.Background(), map[string]model.OrderRecord{
		"orders/A":   {Code: "A"},
		"orders/a.b": {Code: "a.b"},
	})
	require.Error(t, err)
	assert.Equal(t, 0, s.Len())

	err = s.Update(context.Background(), map[string]model.OrderRecord{"orders/A": {Code: "B"}})
	assert.Error(t, err)
	assert.Equal(t, 0, s.Len())
}

func TestStore_CanceledAndClosed(t *testing.T) {
	s := New(model.FieldOrderDate)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Range(ctx, storage.RangeQuery{OrderBy: model.FieldOrderDate})
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, s.Update(ctx, nil), context.Canceled)

	require.NoError(t, s.EnsureIndexes(context.Background()))
	require.NoError(t, s.Close(context.Background()))
	_, err = s.Range(context.Background(), storage.RangeQuery{OrderBy: model.FieldOrderDate})
	assert.Error(t, err)
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := New(model.FieldOrderDate)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			code := fmt.Sprintf("C%03d", i)
			_ = s.Update(context.Background(), map[string]model.OrderRecord{
				storage.RecordPath(code): {Code: code, OrderDate: "2024-01-01"},
			})
		}
	}()
	for i := 0; i < 100; i++ {
		_, err := s.Range(context.Background(), storage.RangeQuery{OrderBy: model.FieldOrderDate, LimitToLast: 10})
		require.NoError(t, err)
	}
	<-done
	assert.Equal(t, 100, s.Len())
}
