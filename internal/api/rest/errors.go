package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/orderdesk/orderdesk/internal/pagination/sessionstore"
	"github.com/orderdesk/orderdesk/pkg/model"
)

// StatusClientClosedRequest is returned when the caller went away.
const StatusClientClosedRequest = 499

// APIError represents a structured error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// Session is the latest snapshot when a session operation failed.
	Session *SessionView `json:"session,omitempty"`
}

// Error codes
const (
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeConflict        = "CONFLICT"
	ErrCodeIndexNotDefined = "INDEX_NOT_DEFINED"
	ErrCodeRetrievalFailed = "RETRIEVAL_FAILED"
	ErrCodeWriteFailed     = "WRITE_FAILED"
	ErrCodeParseFailed     = "PARSE_FAILED"
	ErrCodeDecodeFailed    = "DECODE_FAILED"
	ErrCodeNoValidRecords  = "NO_VALID_RECORDS"
	ErrCodePageUnreachable = "PAGE_UNREACHABLE"
	ErrCodeSuperseded      = "SUPERSEDED"
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
	ErrCodeCanceled        = "CLIENT_CLOSED_REQUEST"
	ErrCodeInternalError   = "INTERNAL_ERROR"
)

// writeError writes a structured JSON error response
func writeError(w http.ResponseWriter, status int, code string, message string) {
	writeAPIError(w, status, APIError{Code: code, Message: message})
}

func writeAPIError(w http.ResponseWriter, status int, apiErr APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(apiErr); err != nil {
		slog.Warn("Failed to encode error response", "error", err)
	}
}

// classifyError maps the domain error taxonomy onto an HTTP status and code.
func classifyError(err error) (int, APIError) {
	var (
		missingIndex *model.MissingIndexError
		retrieval    *model.RetrievalError
		parseErr     *model.ParseError
		decodeErr    *model.DecodeError
		writeErr     *model.WriteError
		tooLarge     *http.MaxBytesError
	)
	switch {
	case errors.As(err, &missingIndex):
		return http.StatusPreconditionFailed, APIError{Code: ErrCodeIndexNotDefined, Message: missingIndex.Error()}
	case errors.As(err, &retrieval):
		return http.StatusBadGateway, APIError{Code: ErrCodeRetrievalFailed, Message: retrieval.Error()}
	case errors.As(err, &parseErr):
		return http.StatusBadRequest, APIError{Code: ErrCodeParseFailed, Message: parseErr.Error()}
	case errors.As(err, &decodeErr):
		return http.StatusUnprocessableEntity, APIError{Code: ErrCodeDecodeFailed, Message: decodeErr.Error()}
	case errors.As(err, &writeErr):
		return http.StatusBadGateway, APIError{Code: ErrCodeWriteFailed, Message: writeErr.Error()}
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, APIError{Code: ErrCodeRequestTooLarge, Message: "Request body too large"}
	case errors.Is(err, model.ErrNoValidRecords):
		return http.StatusUnprocessableEntity, APIError{Code: ErrCodeNoValidRecords, Message: "The file contains no rows with a valid Code"}
	case errors.Is(err, model.ErrPageUnreachable):
		return http.StatusConflict, APIError{Code: ErrCodePageUnreachable, Message: err.Error()}
	case errors.Is(err, model.ErrSuperseded):
		return http.StatusConflict, APIError{Code: ErrCodeSuperseded, Message: err.Error()}
	case errors.Is(err, sessionstore.ErrConflict):
		return http.StatusConflict, APIError{Code: ErrCodeConflict, Message: "Session is busy, retry"}
	case errors.Is(err, model.ErrInvalidSearch), errors.Is(err, model.ErrInvalidQuery):
		return http.StatusBadRequest, APIError{Code: ErrCodeBadRequest, Message: err.Error()}
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound, APIError{Code: ErrCodeNotFound, Message: "Session not found"}
	case errors.Is(err, model.ErrCanceled):
		return StatusClientClosedRequest, APIError{Code: ErrCodeCanceled, Message: "Request canceled"}
	}
	return http.StatusInternalServerError, APIError{Code: ErrCodeInternalError, Message: "Internal server error"}
}

// writeDomainError writes err using the taxonomy mapping.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status, apiErr := classifyError(err)
	h.logError(r, status, err)
	writeAPIError(w, status, apiErr)
}

// writeSessionError is writeDomainError with the session snapshot attached.
func (h *Handler) writeSessionError(w http.ResponseWriter, r *http.Request, view *SessionView, err error) {
	status, apiErr := classifyError(err)
	h.logError(r, status, err)
	apiErr.Session = view
	writeAPIError(w, status, apiErr)
}

func (h *Handler) logError(r *http.Request, status int, err error) {
	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.Log(r.Context(), level, "Request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"error", err,
		"request_id", getRequestID(r.Context()),
	)
}
