package model

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a record or session does not exist
	ErrNotFound = errors.New("not found")
	// ErrInvalidQuery is returned when a query descriptor is malformed
	ErrInvalidQuery = errors.New("invalid query")
	// ErrInvalidSearch is returned when a search submission has no text or an unsearchable field
	ErrInvalidSearch = errors.New("invalid search")
	// ErrPageUnreachable is returned when navigation targets a page with no known cursor
	ErrPageUnreachable = errors.New("page not reachable yet")
	// ErrSuperseded is returned when a fetch result arrives after a newer request started
	ErrSuperseded = errors.New("superseded by a newer request")
	// ErrNoValidRecords is returned when an upload contains no acceptable rows
	ErrNoValidRecords = errors.New("no valid records")
	// ErrCanceled is returned when the operation is canceled by the client
	ErrCanceled = errors.New("operation canceled")
)

// MissingIndexError reports that the store has no index for the field a
// query orders or filters by. Operators fix it by provisioning the index.
type MissingIndexError struct {
	Field string // operator-facing label, e.g. "Material Number"
}

func (e *MissingIndexError) Error() string {
	return fmt.Sprintf("index not defined for field %q; add it to the store's indexes", e.Field)
}

// RetrievalError wraps any other failure while reading a page.
type RetrievalError struct {
	Message string
	Err     error
}

func (e *RetrievalError) Error() string {
	return "failed to retrieve orders: " + e.Message
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// ParseError reports an upload that is not a readable spreadsheet.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	return "failed to parse file: " + e.Reason
}

func (e *ParseError) Unwrap() error { return e.Err }

// DecodeError reports rows that could not be mapped onto records.
type DecodeError struct {
	Row    int // 1-based spreadsheet row, 0 when unknown
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("failed to decode row %d: %s", e.Row, e.Reason)
	}
	return "failed to decode rows: " + e.Reason
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ValidationSkipped marks a row excluded before the write. It is counted,
// never surfaced to the caller.
type ValidationSkipped struct {
	RowIndex int
	Reason   string
}

func (e *ValidationSkipped) Error() string {
	return fmt.Sprintf("row %d skipped: %s", e.RowIndex, e.Reason)
}

// WriteError reports that the store rejected a batch upsert.
type WriteError struct {
	Message string
	Err     error
}

func (e *WriteError) Error() string {
	return "failed to write orders: " + e.Message
}

func (e *WriteError) Unwrap() error { return e.Err }

// IsMissingIndex reports whether err carries a MissingIndexError.
func IsMissingIndex(err error) bool {
	var mi *MissingIndexError
	return errors.As(err, &mi)
}

// WrapError wraps storage errors to model errors.
// It converts context.Canceled and context.DeadlineExceeded to ErrCanceled.
func WrapError(err error) error {
	if err == nil {
		return nil
	}
	if IsCanceled(err) {
		return ErrCanceled
	}
	return err
}

// IsCanceled returns true if the error is due to context cancellation or deadline exceeded.
// It checks both direct context errors and wrapped errors (e.g., from MongoDB driver).
func IsCanceled(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, ErrCanceled) {
		return true
	}
	// Check for wrapped context errors (e.g., from MongoDB driver)
	errStr := err.Error()
	return strings.Contains(errStr, "context canceled") || strings.Contains(errStr, "context deadline exceeded")
}
