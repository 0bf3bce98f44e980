package rest

import (
	"encoding/base64"
	"encoding/json"
	"errors"

	"github.com/orderdesk/orderdesk/internal/ingest"
	"github.com/orderdesk/orderdesk/internal/pagination"
	"github.com/orderdesk/orderdesk/pkg/model"
)

// ListParams are the query parameters of GET /api/v1/orders.
type ListParams struct {
	Field  string `schema:"field" validate:"required_with=Value,max=64"`
	Value  string `schema:"value" validate:"required_with=Field,max=256"`
	Cursor string `schema:"cursor" validate:"max=2048"`
	Page   int    `schema:"page" validate:"omitempty,min=1"`
}

// PageResponse is one page of the stateless listing.
type PageResponse struct {
	Page       int                 `json:"page"`
	Records    []model.OrderRecord `json:"records"`
	HasNext    bool                `json:"hasNext"`
	NextCursor string              `json:"nextCursor,omitempty"`
}

// IngestResponse reports an upload and the refreshed first browse page.
type IngestResponse struct {
	*ingest.Result
	FirstPage *PageResponse `json:"firstPage,omitempty"`
}

// OpenSessionRequest starts a session; an empty body browses.
type OpenSessionRequest struct {
	Field string `json:"field" validate:"required_with=Text,max=64"`
	Text  string `json:"text" validate:"required_with=Field,max=256"`
}

// SearchRequest is the body of POST /api/v1/sessions/{id}/search.
type SearchRequest struct {
	Field string `json:"field" validate:"required,max=64"`
	Text  string `json:"text" validate:"required,max=256"`
}

// SessionView is the client-facing rendition of a session snapshot.
type SessionView struct {
	ID          string              `json:"id"`
	Mode        model.Mode          `json:"mode"`
	Field       model.Field         `json:"field,omitempty"`
	Text        string              `json:"text,omitempty"`
	Page        int                 `json:"page"`
	Status      pagination.Status   `json:"status"`
	Records     []model.OrderRecord `json:"records"`
	HasNext     bool                `json:"hasNext"`
	HasPrevious bool                `json:"hasPrevious"`
	Generation  uint64              `json:"generation"`
	Error       string              `json:"error,omitempty"`
}

func newSessionView(s pagination.Session) *SessionView {
	if s.ID == "" {
		return nil
	}
	v := &SessionView{
		ID:          s.ID,
		Mode:        s.Query.Mode,
		Page:        s.Page,
		Status:      s.Status,
		Records:     s.Records,
		HasNext:     s.CanGoNext(),
		HasPrevious: s.CanGoPrevious(),
		Generation:  s.Generation,
		Error:       s.ErrorMsg,
	}
	if s.Query.Filter != nil {
		v.Field = s.Query.Filter.Field
		v.Text = s.Query.Filter.Value
	}
	if v.Records == nil {
		v.Records = []model.OrderRecord{}
	}
	return v
}

var errBadCursor = errors.New("invalid cursor token")

// cursorToken is the opaque continuation handed to stateless clients. It
// pins the query it was issued for so it cannot be replayed against another.
type cursorToken struct {
	Field model.Field `json:"f"`
	Value string      `json:"q,omitempty"`
	Page  int         `json:"p"`
	Key   string      `json:"k"`
	Order string      `json:"v"`
}

func encodeCursor(q model.Query, page int, c model.Cursor) string {
	tok := cursorToken{Field: q.OrderField, Page: page, Key: c.Key, Order: c.Value}
	if q.Filter != nil {
		tok.Value = q.Filter.Value
	}
	b, _ := json.Marshal(tok)
	return base64.RawURLEncoding.EncodeToString(b)
}

// decodeCursor returns the cursor and page number carried by s for q.
func decodeCursor(s string, q model.Query) (*model.Cursor, int, error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, 0, errBadCursor
	}
	var tok cursorToken
	if err := json.Unmarshal(raw, &tok); err != nil {
		return nil, 0, errBadCursor
	}
	if tok.Page < 2 || tok.Key == "" || tok.Field != q.OrderField {
		return nil, 0, errBadCursor
	}
	if q.Filter != nil && tok.Value != q.Filter.Value {
		return nil, 0, errBadCursor
	}
	return &model.Cursor{Value: tok.Order, Key: tok.Key}, tok.Page, nil
}

func newPageResponse(q model.Query, p pagination.Page) *PageResponse {
	resp := &PageResponse{Page: p.Number, Records: p.Records, HasNext: p.HasNext}
	if resp.Records == nil {
		resp.Records = []model.OrderRecord{}
	}
	if p.HasNext && p.NextCursor != nil {
		resp.NextCursor = encodeCursor(q, p.Number+1, *p.NextCursor)
	}
	return resp
}
