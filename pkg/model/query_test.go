package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrowseQuery(t *testing.T) {
	q := BrowseQuery()
	assert.Equal(t, ModeBrowse, q.Mode)
	assert.Equal(t, FieldOrderDate, q.OrderField)
	assert.Nil(t, q.Filter)
	assert.NoError(t, q.Validate())
}

func TestSearchQuery(t *testing.T) {
	q, err := SearchQuery(FieldOrderNumber, "  SO-1001 ")
	require.NoError(t, err)
	assert.Equal(t, ModeSearch, q.Mode)
	assert.Equal(t, FieldOrderNumber, q.OrderField)
	require.NotNil(t, q.Filter)
	assert.Equal(t, Filter{Field: FieldOrderNumber, Value: "SO-1001"}, *q.Filter)
	assert.NoError(t, q.Validate())

	_, err = SearchQuery(FieldOrderNumber, "   ")
	assert.ErrorIs(t, err, ErrInvalidSearch)

	_, err = SearchQuery(FieldStatus, "Shipped")
	assert.ErrorIs(t, err, ErrInvalidSearch)
	assert.Contains(t, err.Error(), "Status")
}

func TestQuery_Equal(t *testing.T) {
	a, _ := SearchQuery(FieldMaterialNumber, "M-1")
	b, _ := SearchQuery(FieldMaterialNumber, "M-1")
	c, _ := SearchQuery(FieldMaterialNumber, "M-2")

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(BrowseQuery()))
	assert.True(t, BrowseQuery().Equal(BrowseQuery()))
}

func TestQuery_Validate(t *testing.T) {
	tests := []struct {
		name string
		q    Query
	}{
		{"unknown mode", Query{Mode: "scan", OrderField: FieldOrderDate}},
		{"browse with filter", Query{Mode: ModeBrowse, OrderField: FieldOrderDate, Filter: &Filter{Field: FieldOrderNumber, Value: "x"}}},
		{"search without filter", Query{Mode: ModeSearch, OrderField: FieldOrderNumber}},
		{"search on payload field", Query{Mode: ModeSearch, OrderField: FieldOrderNumber, Filter: &Filter{Field: FieldStatus, Value: "x"}}},
		{"unorderable", Query{Mode: ModeBrowse, OrderField: FieldClubName}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.q.Validate(), ErrInvalidQuery)
		})
	}
}

func TestCursorTable_Immutable(t *testing.T) {
	empty := NewCursorTable()
	c2 := Cursor{Value: "2024-05-01", Key: "A"}

	t2 := empty.With(2, c2)
	assert.Equal(t, 0, empty.Len())
	assert.False(t, empty.Has(2))

	got, ok := t2.Get(2)
	require.True(t, ok)
	assert.Equal(t, c2, got)

	t3 := t2.With(3, Cursor{Value: "2024-04-01", Key: "B"})
	assert.Equal(t, 1, t2.Len())
	assert.Equal(t, 2, t3.Len())

	assert.Equal(t, t3, t3.With(1, Cursor{Value: "x", Key: "y"}))

	entries := t3.Entries()
	entries[9] = Cursor{}
	assert.False(t, t3.Has(9))

	assert.Equal(t, t3.Entries(), CursorTableFrom(t3.Entries()).Entries())
}

func TestCursorTable_JSON(t *testing.T) {
	table := NewCursorTable().With(2, Cursor{Value: "2024-05-01", Key: "A"}).With(3, Cursor{Value: "2024-04-01", Key: "B"})

	data, err := json.Marshal(table)
	require.NoError(t, err)
	assert.JSONEq(t, `{"2":{"value":"2024-05-01","key":"A"},"3":{"value":"2024-04-01","key":"B"}}`, string(data))

	var decoded CursorTable
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, table.Entries(), decoded.Entries())

	empty, err := json.Marshal(NewCursorTable())
	require.NoError(t, err)
	assert.Equal(t, "{}", string(empty))
}
