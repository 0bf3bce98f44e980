package rest

import (
	"testing"

	"github.com/orderdesk/orderdesk/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorToken_RoundTrip(t *testing.T) {
	q, err := model.SearchQuery(model.FieldSalesDocument, "SD-1")
	require.NoError(t, err)

	tok := encodeCursor(q, 3, model.Cursor{Value: "SD-1", Key: "K-9"})
	c, page, err := decodeCursor(tok, q)
	require.NoError(t, err)
	assert.Equal(t, 3, page)
	assert.Equal(t, model.Cursor{Value: "SD-1", Key: "K-9"}, *c)

	other, _ := model.SearchQuery(model.FieldSalesDocument, "SD-2")
	_, _, err = decodeCursor(tok, other)
	assert.ErrorIs(t, err, errBadCursor)

	_, _, err = decodeCursor(tok, model.BrowseQuery())
	assert.ErrorIs(t, err, errBadCursor)
}

func TestCursorToken_RejectsPageOne(t *testing.T) {
	q := model.BrowseQuery()
	tok := encodeCursor(q, 1, model.Cursor{Value: "2024-01-01", Key: "A"})
	_, _, err := decodeCursor(tok, q)
	assert.ErrorIs(t, err, errBadCursor)
}

func TestValidateStruct(t *testing.T) {
	assert.NoError(t, validateStruct(ListParams{}))
	assert.EqualError(t, validateStruct(ListParams{Field: "orderNumber"}), "value is required")
	assert.EqualError(t, validateStruct(ListParams{Page: -1}), "page must be at least 1")
	assert.NoError(t, validateStruct(OpenSessionRequest{}))
	assert.EqualError(t, validateStruct(SearchRequest{Field: "orderNumber"}), "text is required")
}
