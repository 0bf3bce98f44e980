package pagination

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/orderdesk/orderdesk/internal/metrics"
	"github.com/orderdesk/orderdesk/pkg/model"
)

// SessionStore persists session snapshots between requests.
type SessionStore interface {
	Create(ctx context.Context, s Session) error
	Get(ctx context.Context, id string) (Session, error)
	// Update applies fn to the stored snapshot atomically. If fn returns an
	// error nothing is written and the error is returned with the snapshot
	// fn was given.
	Update(ctx context.Context, id string, fn func(Session) (Session, error)) (Session, error)
	Delete(ctx context.Context, id string) error
}

// Manager drives server-side sessions: it starts fetches under the store's
// update, runs them without holding anything, and folds the results back in.
type Manager struct {
	engine *Engine
	store  SessionStore
	logger *slog.Logger
}

func NewManager(engine *Engine, store SessionStore, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		engine: engine,
		store:  store,
		logger: logger.With("component", "sessions"),
	}
}

// Engine returns the engine the manager fetches with.
func (m *Manager) Engine() *Engine {
	return m.engine
}

// Open creates a session on q and loads its first page.
func (m *Manager) Open(ctx context.Context, q model.Query) (Session, error) {
	if err := q.Validate(); err != nil {
		return Session{}, err
	}
	s := NewSession(uuid.NewString(), q)
	if err := m.store.Create(ctx, s); err != nil {
		return Session{}, err
	}
	m.logger.Debug("Session opened", "session", s.ID, "mode", q.Mode)
	return m.GoTo(ctx, s.ID, 1)
}

// Get returns the current snapshot of session id.
func (m *Manager) Get(ctx context.Context, id string) (Session, error) {
	return m.store.Get(ctx, id)
}

// GoTo loads page n of session id. The returned error is the fetch error,
// ErrPageUnreachable, or ErrSuperseded when a newer request overtook this
// one; the returned snapshot is always the latest stored one.
func (m *Manager) GoTo(ctx context.Context, id string, n int) (Session, error) {
	var req Request
	s, err := m.store.Update(ctx, id, func(cur Session) (Session, error) {
		next, r, err := cur.BeginPage(n)
		req = r
		return next, err
	})
	if err != nil {
		return s, err
	}
	return m.run(ctx, req)
}

// Reset installs q on session id and loads page 1.
func (m *Manager) Reset(ctx context.Context, id string, q model.Query) (Session, error) {
	if err := q.Validate(); err != nil {
		return Session{}, err
	}
	var req Request
	s, err := m.store.Update(ctx, id, func(cur Session) (Session, error) {
		next, r, err := cur.WithQuery(q).BeginPage(1)
		req = r
		return next, err
	})
	if err != nil {
		return s, err
	}
	return m.run(ctx, req)
}

// Discard deletes session id.
func (m *Manager) Discard(ctx context.Context, id string) error {
	return m.store.Delete(ctx, id)
}

func (m *Manager) run(ctx context.Context, req Request) (Session, error) {
	page, fetchErr := m.engine.FetchPage(ctx, req.Page, req.Cursor, req.Query)

	// The result is folded in even if the caller went away, so a canceled
	// request leaves the session Errored rather than stuck in Loading.
	s, err := m.store.Update(context.WithoutCancel(ctx), req.SessionID, func(cur Session) (Session, error) {
		return cur.Apply(req, page, fetchErr)
	})
	if err != nil {
		if errors.Is(err, model.ErrSuperseded) {
			metrics.StaleResults.Inc()
			m.logger.Debug("Discarded stale page", "session", req.SessionID, "page", req.Page, "generation", req.Generation)
		}
		return s, err
	}
	return s, s.Err
}
