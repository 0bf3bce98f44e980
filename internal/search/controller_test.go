package search

import (
	"context"
	"testing"

	"github.com/orderdesk/orderdesk/internal/pagination"
	"github.com/orderdesk/orderdesk/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockResetter struct {
	mock.Mock
}

func (m *MockResetter) Reset(ctx context.Context, id string, q model.Query) (pagination.Session, error) {
	args := m.Called(ctx, id, q)
	return args.Get(0).(pagination.Session), args.Error(1)
}

func TestController_Submit(t *testing.T) {
	r := new(MockResetter)
	c := NewController(r, nil)

	want, _ := model.SearchQuery(model.FieldOrderNumber, "SO-1001")
	r.On("Reset", mock.Anything, "s1", want).Return(pagination.Session{ID: "s1", Query: want, Page: 1}, nil).Once()

	s, err := c.Submit(context.Background(), "s1", model.FieldOrderNumber, "  SO-1001  ")
	require.NoError(t, err)
	assert.Equal(t, 1, s.Page)
	r.AssertExpectations(t)
}

func TestController_SubmitRejectsInvalid(t *testing.T) {
	r := new(MockResetter)
	c := NewController(r, nil)

	_, err := c.Submit(context.Background(), "s1", model.FieldOrderNumber, "   ")
	assert.ErrorIs(t, err, model.ErrInvalidSearch)

	_, err = c.Submit(context.Background(), "s1", model.FieldClubName, "Eagles")
	assert.ErrorIs(t, err, model.ErrInvalidSearch)

	r.AssertNotCalled(t, "Reset", mock.Anything, mock.Anything, mock.Anything)
}

func TestController_Clear(t *testing.T) {
	r := new(MockResetter)
	c := NewController(r, nil)
	r.On("Reset", mock.Anything, "s1", model.BrowseQuery()).Return(pagination.Session{ID: "s1", Query: model.BrowseQuery()}, nil).Once()

	s, err := c.Clear(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, model.ModeBrowse, s.Query.Mode)
	r.AssertExpectations(t)
}

// A browse session on page 5 switches to an order-number search: page and
// cursors reset together with the descriptor.
func TestSubmitLocal_ResetsPagination(t *testing.T) {
	s := pagination.NewSession("local", model.BrowseQuery())
	for page := 1; page <= 5; page++ {
		next, req, err := s.BeginPage(page)
		require.NoError(t, err)
		s, err = next.Apply(req, pagination.Page{
			Number:     page,
			Records:    []model.OrderRecord{{Code: "C", OrderDate: "2024-01-01"}},
			HasNext:    true,
			NextCursor: &model.Cursor{Value: "2024-01-01", Key: "C"},
		}, nil)
		require.NoError(t, err)
	}
	require.Equal(t, 5, s.Page)

	searched, err := SubmitLocal(s, model.FieldOrderNumber, "SO-1001")
	require.NoError(t, err)
	assert.Equal(t, 1, searched.Page)
	assert.Equal(t, 0, searched.Cursors.Len())
	assert.Equal(t, model.ModeSearch, searched.Query.Mode)
	assert.Equal(t, model.FieldOrderNumber, searched.Query.OrderField)

	unchanged, err := SubmitLocal(s, model.FieldOrderNumber, "")
	assert.ErrorIs(t, err, model.ErrInvalidSearch)
	assert.Equal(t, 5, unchanged.Page)

	cleared := ClearLocal(searched)
	assert.Equal(t, model.ModeBrowse, cleared.Query.Mode)
	assert.Equal(t, 1, cleared.Page)
	assert.Greater(t, cleared.Generation, searched.Generation)
}
