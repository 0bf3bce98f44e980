// Package search switches a pagination session between browsing and an
// exact-match search on one indexed field.
package search

import (
	"context"
	"log/slog"

	"github.com/orderdesk/orderdesk/internal/pagination"
	"github.com/orderdesk/orderdesk/pkg/model"
)

// Resetter installs a new query on a stored session and loads page 1.
type Resetter interface {
	Reset(ctx context.Context, id string, q model.Query) (pagination.Session, error)
}

// Controller owns the query descriptor of server-side sessions.
type Controller struct {
	sessions Resetter
	logger   *slog.Logger
}

func NewController(sessions Resetter, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{sessions: sessions, logger: logger.With("component", "search")}
}

// Submit validates the search and, if valid, replaces the session's query
// with it. Page, cursor table and query change together, then page 1 loads.
// An invalid search leaves the session untouched.
func (c *Controller) Submit(ctx context.Context, id string, field model.Field, text string) (pagination.Session, error) {
	q, err := model.SearchQuery(field, text)
	if err != nil {
		return pagination.Session{}, err
	}
	c.logger.Debug("Search submitted", "session", id, "field", field, "text", q.Filter.Value)
	return c.sessions.Reset(ctx, id, q)
}

// Clear returns the session to browse mode on page 1.
func (c *Controller) Clear(ctx context.Context, id string) (pagination.Session, error) {
	c.logger.Debug("Search cleared", "session", id)
	return c.sessions.Reset(ctx, id, model.BrowseQuery())
}

// SubmitLocal applies a search to a caller-held snapshot. The returned
// session is idle on page 1; the caller loads it with BeginPage(1).
func SubmitLocal(s pagination.Session, field model.Field, text string) (pagination.Session, error) {
	q, err := model.SearchQuery(field, text)
	if err != nil {
		return s, err
	}
	return s.WithQuery(q), nil
}

// ClearLocal returns a caller-held snapshot to browse mode on page 1.
func ClearLocal(s pagination.Session) pagination.Session {
	return s.WithQuery(model.BrowseQuery())
}
