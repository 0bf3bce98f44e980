package model

import (
	"fmt"
	"strings"
)

// Mode selects how the order collection is walked.
type Mode string

const (
	ModeBrowse Mode = "browse" // newest first, no filter
	ModeSearch Mode = "search" // exact match on one searchable field
)

// Filter is an exact-match predicate.
type Filter struct {
	Field Field  `json:"field"`
	Value string `json:"value"`
}

// Cursor is a pagination checkpoint: the order-field value and key of the
// last record on a page. It bounds the next page's range inclusively.
type Cursor struct {
	Value string `json:"value"`
	Key   string `json:"key"`
}

func (c Cursor) String() string {
	return fmt.Sprintf("(%q, %q)", c.Value, c.Key)
}

// Query describes which index a pagination walk uses and what it filters on.
type Query struct {
	Mode       Mode    `json:"mode"`
	OrderField Field   `json:"orderField"`
	Filter     *Filter `json:"filter,omitempty"`
}

// BrowseQuery orders by recency with no filter.
func BrowseQuery() Query {
	return Query{Mode: ModeBrowse, OrderField: FieldOrderDate}
}

// SearchQuery matches field exactly against text. The field also drives the
// order so the walk stays inside a single index.
func SearchQuery(field Field, text string) (Query, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Query{}, fmt.Errorf("%w: search text is empty", ErrInvalidSearch)
	}
	if !field.IsSearchable() {
		return Query{}, fmt.Errorf("%w: %s is not searchable", ErrInvalidSearch, field.Label())
	}
	return Query{
		Mode:       ModeSearch,
		OrderField: field,
		Filter:     &Filter{Field: field, Value: text},
	}, nil
}

// Equal reports whether q and o select the same records in the same order.
func (q Query) Equal(o Query) bool {
	if q.Mode != o.Mode || q.OrderField != o.OrderField {
		return false
	}
	if q.Filter == nil || o.Filter == nil {
		return q.Filter == nil && o.Filter == nil
	}
	return *q.Filter == *o.Filter
}

// Validate checks the descriptor is internally consistent.
func (q Query) Validate() error {
	switch q.Mode {
	case ModeBrowse:
		if q.Filter != nil {
			return fmt.Errorf("%w: browse mode takes no filter", ErrInvalidQuery)
		}
	case ModeSearch:
		if q.Filter == nil || strings.TrimSpace(q.Filter.Value) == "" {
			return fmt.Errorf("%w: search mode needs a filter value", ErrInvalidQuery)
		}
		if !q.Filter.Field.IsSearchable() {
			return fmt.Errorf("%w: %s is not searchable", ErrInvalidQuery, q.Filter.Field.Label())
		}
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidQuery, q.Mode)
	}
	if !q.OrderField.IsOrderable() {
		return fmt.Errorf("%w: cannot order by %s", ErrInvalidQuery, q.OrderField.Label())
	}
	return nil
}
