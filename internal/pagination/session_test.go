package pagination

import (
	"errors"
	"testing"

	"github.com/orderdesk/orderdesk/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullPage(n int, hasNext bool, lastKey string) Page {
	recs := make([]model.OrderRecord, 0, 1)
	if lastKey != "" {
		recs = append(recs, model.OrderRecord{Code: lastKey, OrderDate: "2024-01-01"})
	}
	p := Page{Number: n, Records: recs, HasNext: hasNext}
	if lastKey != "" {
		p.NextCursor = &model.Cursor{Value: "2024-01-01", Key: lastKey}
	}
	return p
}

// walk loads pages 1..n, each reporting a next page.
func walk(t *testing.T, s Session, n int) Session {
	t.Helper()
	for page := 1; page <= n; page++ {
		next, req, err := s.BeginPage(page)
		require.NoError(t, err)
		s, err = next.Apply(req, fullPage(page, true, "K"+string(rune('0'+page))), nil)
		require.NoError(t, err)
	}
	return s
}

func TestSession_InitialState(t *testing.T) {
	s := NewSession("s1", model.BrowseQuery())
	assert.Equal(t, StatusIdle, s.Status)
	assert.Equal(t, 1, s.Page)
	assert.Equal(t, 0, s.Cursors.Len())
	assert.NoError(t, s.CanGoTo(1))
	assert.ErrorIs(t, s.CanGoTo(2), model.ErrPageUnreachable)
	assert.ErrorIs(t, s.CanGoTo(0), model.ErrPageUnreachable)
}

func TestSession_PageOneNeedsNoCursor(t *testing.T) {
	s := NewSession("s1", model.BrowseQuery())
	next, req, err := s.BeginPage(1)
	require.NoError(t, err)
	assert.Nil(t, req.Cursor)
	assert.Equal(t, StatusLoading, next.Status)
	assert.Equal(t, uint64(1), req.Generation)
	assert.Equal(t, StatusIdle, s.Status, "receiver must not change")
}

func TestSession_ApplyRegistersNextCursor(t *testing.T) {
	s := NewSession("s1", model.BrowseQuery())
	next, req, err := s.BeginPage(1)
	require.NoError(t, err)

	loaded, err := next.Apply(req, fullPage(1, true, "LAST"), nil)
	require.NoError(t, err)
	assert.Equal(t, StatusLoaded, loaded.Status)
	assert.True(t, loaded.HasNext)
	c, ok := loaded.Cursors.Get(2)
	require.True(t, ok)
	assert.Equal(t, "LAST", c.Key)
	assert.Equal(t, 0, next.Cursors.Len(), "previous snapshot untouched")

	assert.NoError(t, loaded.CanGoTo(2))
	assert.True(t, loaded.CanGoNext())
	assert.ErrorIs(t, loaded.CanGoTo(3), model.ErrPageUnreachable)

	_, req2, err := loaded.BeginPage(2)
	require.NoError(t, err)
	require.NotNil(t, req2.Cursor)
	assert.Equal(t, "LAST", req2.Cursor.Key)
}

func TestSession_LastPageClosesFrontier(t *testing.T) {
	s := walk(t, NewSession("s1", model.BrowseQuery()), 2)

	next, req, err := s.BeginPage(3)
	require.NoError(t, err)
	s, err = next.Apply(req, fullPage(3, false, "END"), nil)
	require.NoError(t, err)

	assert.False(t, s.HasNext)
	assert.True(t, s.Cursors.Has(4))
	assert.ErrorIs(t, s.CanGoTo(4), model.ErrPageUnreachable)
	assert.False(t, s.CanGoNext())
	assert.True(t, s.CanGoPrevious())
}

func TestSession_RevisitUsesStoredCursor(t *testing.T) {
	s := walk(t, NewSession("s1", model.BrowseQuery()), 4)
	stored, _ := s.Cursors.Get(3)

	_, req, err := s.BeginPage(3)
	require.NoError(t, err)
	assert.Equal(t, stored, *req.Cursor)

	_, req, err = s.BeginPage(1)
	require.NoError(t, err)
	assert.Nil(t, req.Cursor)
}

func TestSession_FailureKeepsCursorTable(t *testing.T) {
	s := walk(t, NewSession("s1", model.BrowseQuery()), 2)
	before := s.Cursors.Entries()

	next, req, err := s.BeginPage(3)
	require.NoError(t, err)
	failed, err := next.Apply(req, Page{}, &model.RetrievalError{Message: "boom"})
	require.NoError(t, err)

	assert.Equal(t, StatusErrored, failed.Status)
	assert.Contains(t, failed.ErrorMsg, "boom")
	assert.Equal(t, before, failed.Cursors.Entries())
	assert.Equal(t, 2, failed.MaxVisited)

	retry, req, err := failed.BeginPage(3)
	require.NoError(t, err)
	assert.Empty(t, retry.ErrorMsg)
	assert.Equal(t, 3, req.Page)
}

func TestSession_StaleResultDiscarded(t *testing.T) {
	s := walk(t, NewSession("s1", model.BrowseQuery()), 1)

	slow, slowReq, err := s.BeginPage(2)
	require.NoError(t, err)
	fast, fastReq, err := slow.BeginPage(1)
	require.NoError(t, err)

	fast, err = fast.Apply(fastReq, fullPage(1, true, "P1"), nil)
	require.NoError(t, err)

	after, err := fast.Apply(slowReq, fullPage(2, true, "P2"), nil)
	assert.ErrorIs(t, err, model.ErrSuperseded)
	assert.Equal(t, fast, after)
	assert.Equal(t, 1, after.Page)
}

func TestSession_WithQueryResets(t *testing.T) {
	s := walk(t, NewSession("s1", model.BrowseQuery()), 5)
	require.Equal(t, 5, s.Page)
	require.Equal(t, 5, s.Cursors.Len())

	// A fetch for page 5 is still in flight when the search is submitted.
	loading, oldReq, err := s.BeginPage(5)
	require.NoError(t, err)

	q, err := model.SearchQuery(model.FieldOrderNumber, "SO-1001")
	require.NoError(t, err)
	reset := loading.WithQuery(q)

	assert.Equal(t, 1, reset.Page)
	assert.Equal(t, StatusIdle, reset.Status)
	assert.Equal(t, 0, reset.Cursors.Len())
	assert.Equal(t, 0, reset.MaxVisited)
	assert.Empty(t, reset.Records)
	assert.True(t, reset.Query.Equal(q))
	assert.Greater(t, reset.Generation, loading.Generation)
	assert.Equal(t, "s1", reset.ID)
	assert.ErrorIs(t, reset.CanGoTo(2), model.ErrPageUnreachable)

	_, err = reset.Apply(oldReq, fullPage(5, true, "OLD"), nil)
	assert.True(t, errors.Is(err, model.ErrSuperseded))
}
