// Package services wires the order desk components together and runs
// them for the lifetime of the process.
package services

import (
	"log/slog"
	"sync"

	"github.com/orderdesk/orderdesk/internal/api/realtime"
	"github.com/orderdesk/orderdesk/internal/config"
	"github.com/orderdesk/orderdesk/internal/identity"
	"github.com/orderdesk/orderdesk/internal/ingest"
	"github.com/orderdesk/orderdesk/internal/notify"
	"github.com/orderdesk/orderdesk/internal/pagination"
	"github.com/orderdesk/orderdesk/internal/search"
	"github.com/orderdesk/orderdesk/internal/server"
	"github.com/orderdesk/orderdesk/internal/storage"
)

type Options struct {
	// Serve starts the HTTP listener and the realtime relay. One-shot CLI
	// commands leave it off and only use the domain components.
	Serve bool
	// ListenHost overrides server.host when set.
	ListenHost string
}

type Manager struct {
	cfg    *config.Config
	opts   Options
	logger *slog.Logger

	store         storage.OrderStore
	broker        notify.Broker
	closeSessions func() error

	engine   *pagination.Engine
	sessions *pagination.Manager
	search   *search.Controller
	pipeline *ingest.Pipeline
	verifier *identity.Verifier

	srv      server.Service
	rtServer *realtime.Server

	wg sync.WaitGroup
}

func NewManager(cfg *config.Config, opts Options, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		cfg:    cfg,
		opts:   opts,
		logger: logger.With("component", "services"),
	}
}

// Store returns the order store opened by Init.
func (m *Manager) Store() storage.OrderStore { return m.store }

// Engine returns the stateless page fetcher.
func (m *Manager) Engine() *pagination.Engine { return m.engine }

// Pipeline returns the ingestion pipeline.
func (m *Manager) Pipeline() *ingest.Pipeline { return m.pipeline }

// Sessions returns the pagination session manager.
func (m *Manager) Sessions() *pagination.Manager { return m.sessions }

// Verifier returns the bearer token verifier.
func (m *Manager) Verifier() *identity.Verifier { return m.verifier }

// Server returns the HTTP service, nil unless Options.Serve is set.
func (m *Manager) Server() server.Service { return m.srv }
