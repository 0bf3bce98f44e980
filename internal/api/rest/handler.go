// Package rest exposes order pages, pagination sessions and spreadsheet
// uploads over HTTP.
package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/orderdesk/orderdesk/internal/ingest"
	"github.com/orderdesk/orderdesk/internal/pagination"
	"github.com/orderdesk/orderdesk/pkg/model"
)

type contextKey string

const contextKeyRequestID contextKey = "request_id"

// PageFetcher loads one page of a query.
type PageFetcher interface {
	FetchPage(ctx context.Context, pageNumber int, cursor *model.Cursor, q model.Query) (pagination.Page, error)
}

// Sessions drives server-side pagination sessions.
type Sessions interface {
	Open(ctx context.Context, q model.Query) (pagination.Session, error)
	Get(ctx context.Context, id string) (pagination.Session, error)
	GoTo(ctx context.Context, id string, n int) (pagination.Session, error)
	Discard(ctx context.Context, id string) error
}

// Searcher switches a session between browse and search.
type Searcher interface {
	Submit(ctx context.Context, id string, field model.Field, text string) (pagination.Session, error)
	Clear(ctx context.Context, id string) (pagination.Session, error)
}

// Ingester writes uploaded spreadsheets.
type Ingester interface {
	Ingest(ctx context.Context, data []byte, source string) (*ingest.Result, error)
}

// Authenticator guards routes.
type Authenticator interface {
	RequireAdmin(next http.Handler) http.Handler
	MiddlewareOptional(next http.Handler) http.Handler
}

// Deps are the collaborators of a Handler.
type Deps struct {
	Pages    PageFetcher
	Sessions Sessions
	Search   Searcher
	Ingest   Ingester
	Auth     Authenticator
	// MaxUploadBytes bounds multipart uploads; zero means DefaultMaxUploadSize.
	MaxUploadBytes int64
	Logger         *slog.Logger
}

type Handler struct {
	pages     PageFetcher
	sessions  Sessions
	search    Searcher
	ingest    Ingester
	auth      Authenticator
	maxUpload int64
	logger    *slog.Logger
}

func NewHandler(d Deps) *Handler {
	if d.Auth == nil {
		panic("Authenticator cannot be nil")
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.MaxUploadBytes <= 0 {
		d.MaxUploadBytes = DefaultMaxUploadSize
	}
	return &Handler{
		pages:     d.Pages,
		sessions:  d.Sessions,
		search:    d.Search,
		ingest:    d.Ingest,
		auth:      d.Auth,
		maxUpload: d.MaxUploadBytes,
		logger:    d.Logger.With("component", "rest"),
	}
}

// Default body size limits
const (
	DefaultMaxBodySize   = 64 << 10 // 64KB
	DefaultMaxUploadSize = 32 << 20 // 32MB
	multipartOverhead    = 1 << 20
)

// Default request timeout
const (
	DefaultRequestTimeout = 30 * time.Second
	LongRequestTimeout    = 2 * time.Minute // uploads
)

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Stateless listing
	mux.HandleFunc("GET /api/v1/orders", withRequestID(withRecover(withTimeout(h.maybeProtected(h.handleListOrders), DefaultRequestTimeout))))
	mux.HandleFunc("POST /api/v1/orders/ingest", withRequestID(withRecover(withTimeout(maxBodySize(h.adminOnly(h.handleIngest), h.maxUpload+multipartOverhead), LongRequestTimeout))))

	// Sessions
	mux.HandleFunc("POST /api/v1/sessions", withRequestID(withRecover(withTimeout(maxBodySize(h.maybeProtected(h.handleOpenSession), DefaultMaxBodySize), DefaultRequestTimeout))))
	mux.HandleFunc("GET /api/v1/sessions/{id}", withRequestID(withRecover(withTimeout(h.maybeProtected(h.handleGetSession), DefaultRequestTimeout))))
	mux.HandleFunc("DELETE /api/v1/sessions/{id}", withRequestID(withRecover(withTimeout(h.maybeProtected(h.handleDiscardSession), DefaultRequestTimeout))))
	mux.HandleFunc("POST /api/v1/sessions/{id}/pages/{page}", withRequestID(withRecover(withTimeout(h.maybeProtected(h.handleGoToPage), DefaultRequestTimeout))))
	mux.HandleFunc("POST /api/v1/sessions/{id}/search", withRequestID(withRecover(withTimeout(maxBodySize(h.maybeProtected(h.handleSubmitSearch), DefaultMaxBodySize), DefaultRequestTimeout))))
	mux.HandleFunc("DELETE /api/v1/sessions/{id}/search", withRequestID(withRecover(withTimeout(h.maybeProtected(h.handleClearSearch), DefaultRequestTimeout))))

	// Health Check (no auth, minimal timeout)
	mux.HandleFunc("GET /health", withRequestID(withRecover(withTimeout(h.handleHealth, 5*time.Second))))
}

func (h *Handler) maybeProtected(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.auth.MiddlewareOptional(handler).ServeHTTP(w, r)
	}
}

func (h *Handler) adminOnly(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.auth.RequireAdmin(handler).ServeHTTP(w, r)
	}
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON writes a JSON response with proper error handling
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("Failed to encode JSON response", "error", err)
	}
}

// withRequestID adds a unique request ID to the context and response headers
func withRequestID(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", requestID)
		ctx := context.WithValue(r.Context(), contextKeyRequestID, requestID)
		next(w, r.WithContext(ctx))
	}
}

// getRequestID retrieves the request ID from the context
func getRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(contextKeyRequestID).(string); ok {
		return id
	}
	return ""
}

// maxBodySize wraps a handler with request body size limiting
func maxBodySize(next http.HandlerFunc, maxBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		}
		next(w, r)
	}
}

// withRecover catches panics, logs the stack trace and returns a 500.
func withRecover(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				slog.Error("Panic recovered",
					"method", r.Method,
					"path", r.URL.Path,
					"error", err,
					"stack", string(debug.Stack()),
					"request_id", getRequestID(r.Context()),
				)
				writeError(w, http.StatusInternalServerError, ErrCodeInternalError, "Internal server error")
			}
		}()
		next(w, r)
	}
}

// withTimeout wraps a handler with a context timeout
func withTimeout(next http.HandlerFunc, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		next(w, r.WithContext(ctx))
	}
}
