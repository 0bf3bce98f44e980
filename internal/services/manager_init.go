package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/orderdesk/orderdesk/internal/api/realtime"
	"github.com/orderdesk/orderdesk/internal/api/rest"
	"github.com/orderdesk/orderdesk/internal/identity"
	"github.com/orderdesk/orderdesk/internal/ingest"
	"github.com/orderdesk/orderdesk/internal/notify"
	notifyfactory "github.com/orderdesk/orderdesk/internal/notify/factory"
	"github.com/orderdesk/orderdesk/internal/pagination"
	"github.com/orderdesk/orderdesk/internal/pagination/sessionstore"
	"github.com/orderdesk/orderdesk/internal/search"
	"github.com/orderdesk/orderdesk/internal/server"
	"github.com/orderdesk/orderdesk/internal/storage"
	storageconfig "github.com/orderdesk/orderdesk/internal/storage/config"
	storagefactory "github.com/orderdesk/orderdesk/internal/storage/factory"
)

var storageFactory = func(ctx context.Context, cfg storageconfig.Config) (storage.OrderStore, error) {
	return storagefactory.Open(ctx, cfg)
}

var brokerFactory = func(cfg notify.Config, logger *slog.Logger) (notify.Broker, error) {
	return notifyfactory.Open(cfg, logger)
}

var sessionStoreFactory = func(cfg sessionstore.Config) (pagination.SessionStore, func() error, error) {
	return sessionstore.Open(cfg)
}

// Init opens every backend and builds the components. On error, whatever
// was opened is released again.
func (m *Manager) Init(ctx context.Context) (err error) {
	defer func() {
		if err != nil {
			m.release(context.WithoutCancel(ctx))
		}
	}()

	if err := m.initStorage(ctx); err != nil {
		return err
	}
	if err := m.initNotify(); err != nil {
		return err
	}
	if err := m.initPagination(); err != nil {
		return err
	}
	if err := m.initIngest(); err != nil {
		return err
	}
	if err := m.initIdentity(); err != nil {
		return err
	}
	if m.opts.Serve {
		m.initHTTP()
	}
	return nil
}

func (m *Manager) initStorage(ctx context.Context) error {
	store, err := storageFactory(ctx, m.cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to open order store: %w", err)
	}
	m.store = store
	m.logger.Info("Order store opened", "backend", m.cfg.Storage.Backend)
	return nil
}

func (m *Manager) initNotify() error {
	broker, err := brokerFactory(m.cfg.Notify, m.logger)
	if err != nil {
		return fmt.Errorf("failed to open notify broker: %w", err)
	}
	m.broker = broker
	return nil
}

func (m *Manager) initPagination() error {
	store, closeFn, err := sessionStoreFactory(m.cfg.Sessions)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	m.closeSessions = closeFn

	m.engine = pagination.NewEngine(m.store, m.cfg.Pagination, m.logger)
	m.sessions = pagination.NewManager(m.engine, store, m.logger)
	m.search = search.NewController(m.sessions, m.logger)
	return nil
}

func (m *Manager) initIngest() error {
	p, err := ingest.NewPipeline(m.store, m.cfg.Ingest, m.logger, ingest.WithPublisher(m.broker))
	if err != nil {
		return fmt.Errorf("failed to build ingest pipeline: %w", err)
	}
	m.pipeline = p
	return nil
}

func (m *Manager) initIdentity() error {
	v, err := identity.NewVerifier(m.cfg.Identity)
	if err != nil {
		return fmt.Errorf("failed to build token verifier: %w", err)
	}
	m.verifier = v
	if !v.Enabled() {
		m.logger.Warn("Identity disabled; every caller is treated as an administrator")
	}
	return nil
}

func (m *Manager) initHTTP() {
	srvCfg := m.cfg.Server
	if m.opts.ListenHost != "" {
		srvCfg.Host = m.opts.ListenHost
	}
	m.srv = server.New(srvCfg, m.logger)

	handler := rest.NewHandler(rest.Deps{
		Pages:          m.engine,
		Sessions:       m.sessions,
		Search:         m.search,
		Ingest:         m.pipeline,
		Auth:           m.verifier,
		MaxUploadBytes: m.cfg.Ingest.MaxUploadBytes,
		Logger:         m.logger,
	})
	handler.RegisterRoutes(m.srv.HTTPMux())

	m.rtServer = realtime.NewServer(m.broker, m.verifier, m.cfg.Realtime, m.logger)
	m.srv.HTTPMux().HandleFunc("GET /api/v1/events", m.rtServer.HandleWS)
}
