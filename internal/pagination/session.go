package pagination

import (
	"fmt"

	"github.com/orderdesk/orderdesk/pkg/model"
)

// Status is the load state of a session.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusLoaded  Status = "loaded"
	StatusErrored Status = "errored"
)

// Session is an immutable snapshot of one caller's walk through the order
// collection. Every transition returns a new snapshot; the receiver is
// never modified.
type Session struct {
	ID         string              `json:"id"`
	Query      model.Query         `json:"query"`
	Page       int                 `json:"page"`
	Status     Status              `json:"status"`
	Records    []model.OrderRecord `json:"records"`
	HasNext    bool                `json:"hasNext"`
	Cursors    model.CursorTable   `json:"cursors"`
	Generation uint64              `json:"generation"`

	// MaxVisited is the furthest page loaded successfully; FrontierOpen is
	// the hasNext flag that page reported.
	MaxVisited   int  `json:"maxVisited"`
	FrontierOpen bool `json:"frontierOpen"`

	Err      error  `json:"-"`
	ErrorMsg string `json:"error,omitempty"`
}

// Request is one in-flight fetch issued by BeginPage.
type Request struct {
	SessionID  string
	Generation uint64
	Page       int
	Cursor     *model.Cursor
	Query      model.Query
}

// NewSession returns an idle session positioned before page 1 of q.
func NewSession(id string, q model.Query) Session {
	return Session{
		ID:      id,
		Query:   q,
		Page:    1,
		Status:  StatusIdle,
		Cursors: model.NewCursorTable(),
	}
}

// CanGoTo reports whether page n can be requested. Page 1 always can;
// visited pages can through their stored cursor; the page after the furthest
// visited one can only if that page reported a next page.
func (s Session) CanGoTo(n int) error {
	switch {
	case n == 1:
		return nil
	case n < 1:
		return fmt.Errorf("%w: page %d", model.ErrPageUnreachable, n)
	case !s.Cursors.Has(n):
		return fmt.Errorf("%w: page %d has no cursor", model.ErrPageUnreachable, n)
	case n <= s.MaxVisited:
		return nil
	case n == s.MaxVisited+1 && s.FrontierOpen:
		return nil
	}
	return fmt.Errorf("%w: page %d", model.ErrPageUnreachable, n)
}

// BeginPage moves the session to Loading for page n and returns the fetch
// to perform. Starting a new fetch supersedes any fetch still in flight.
func (s Session) BeginPage(n int) (Session, Request, error) {
	if err := s.CanGoTo(n); err != nil {
		return s, Request{}, err
	}

	next := s
	next.Page = n
	next.Status = StatusLoading
	next.Generation = s.Generation + 1
	next.Err = nil
	next.ErrorMsg = ""

	req := Request{
		SessionID:  s.ID,
		Generation: next.Generation,
		Page:       n,
		Query:      s.Query,
	}
	if c, ok := s.Cursors.Get(n); ok && n > 1 {
		req.Cursor = &c
	}
	return next, req, nil
}

// Apply folds the outcome of req into the session. A result for any
// generation but the current one is discarded with ErrSuperseded. A failed
// fetch leaves the cursor table untouched.
func (s Session) Apply(req Request, page Page, fetchErr error) (Session, error) {
	if req.Generation != s.Generation {
		return s, fmt.Errorf("%w: generation %d, current %d", model.ErrSuperseded, req.Generation, s.Generation)
	}

	next := s
	next.Page = req.Page
	if fetchErr != nil {
		next.Status = StatusErrored
		next.Err = fetchErr
		next.ErrorMsg = fetchErr.Error()
		return next, nil
	}

	next.Status = StatusLoaded
	next.Records = page.Records
	next.HasNext = page.HasNext
	next.Err = nil
	next.ErrorMsg = ""
	if page.NextCursor != nil {
		next.Cursors = s.Cursors.With(req.Page+1, *page.NextCursor)
	}
	switch {
	case req.Page > s.MaxVisited:
		next.MaxVisited = req.Page
		next.FrontierOpen = page.HasNext
	case req.Page == s.MaxVisited:
		next.FrontierOpen = page.HasNext
	}
	return next, nil
}

// WithQuery installs q and resets the walk to an idle page 1 with an empty
// cursor table. The generation moves on so fetches for the old query are
// discarded when they land.
func (s Session) WithQuery(q model.Query) Session {
	return Session{
		ID:         s.ID,
		Query:      q,
		Page:       1,
		Status:     StatusIdle,
		Cursors:    model.NewCursorTable(),
		Generation: s.Generation + 1,
	}
}

// CanGoNext reports whether the page after the current one is reachable.
func (s Session) CanGoNext() bool {
	return s.Status == StatusLoaded && s.CanGoTo(s.Page+1) == nil
}

// CanGoPrevious reports whether the page before the current one is reachable.
func (s Session) CanGoPrevious() bool {
	return s.Page > 1 && s.CanGoTo(s.Page-1) == nil
}
