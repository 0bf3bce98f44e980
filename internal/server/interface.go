package server

import (
	"context"
	"net/http"
)

// Service is the network layer.
type Service interface {
	// Start starts the HTTP listener. It blocks until a fatal error occurs
	// or the context is canceled.
	Start(ctx context.Context) error

	// Stop initiates a graceful shutdown.
	// It waits for active connections to drain or for the context to expire.
	Stop(ctx context.Context) error

	// RegisterHTTPHandler registers a handler for a specific pattern.
	// This must be called BEFORE Start().
	RegisterHTTPHandler(pattern string, handler http.Handler)

	// HTTPMux returns the underlying HTTP ServeMux for direct route registration.
	// This must be called BEFORE Start().
	HTTPMux() *http.ServeMux

	// Addr returns the bound listen address once Start has run.
	Addr() string
}
