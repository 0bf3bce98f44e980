package realtime

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/orderdesk/orderdesk/internal/notify"
)

// Authenticator wraps a handler with token checks.
type Authenticator interface {
	MiddlewareOptional(next http.Handler) http.Handler
}

// Server exposes the hub over HTTP.
type Server struct {
	hub  *Hub
	sub  notify.Subscriber
	auth Authenticator
	cfg  Config
}

func NewServer(sub notify.Subscriber, auth Authenticator, cfg Config, logger *slog.Logger) *Server {
	return &Server{
		hub:  NewHub(logger),
		sub:  sub,
		auth: auth,
		cfg:  cfg,
	}
}

// Hub returns the server's hub.
func (s *Server) Hub() *Hub { return s.hub }

// HandleWS serves GET /api/v1/events.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	serve := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWs(s.hub, s.cfg, w, r)
	})
	if s.auth != nil {
		s.auth.MiddlewareOptional(serve).ServeHTTP(w, r)
		return
	}
	serve.ServeHTTP(w, r)
}

// StartBackgroundTasks starts the notification relay and the hub. They run
// until ctx is cancelled. If the subscription fails nothing is started, so
// the call can be retried.
func (s *Server) StartBackgroundTasks(ctx context.Context) error {
	if err := s.hub.Relay(ctx, s.sub); err != nil {
		return err
	}
	go s.hub.Run(ctx)
	return nil
}
