package services

import (
	"context"
	"time"
)

const (
	realtimeStartAttempts = 20
	realtimeRetryDelay    = 250 * time.Millisecond
)

// Start runs the HTTP listener and the realtime relay in the background.
// It returns immediately; errors from the listener are logged.
func (m *Manager) Start(bgCtx context.Context) {
	if m.srv != nil {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			if err := m.srv.Start(bgCtx); err != nil {
				m.logger.Error("HTTP server stopped with error", "error", err)
			}
		}()
	}

	if m.rtServer != nil {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			m.startRealtime(bgCtx)
		}()
	}
}

// startRealtime retries the relay subscription; a NATS broker may still be
// reconnecting when the process comes up.
func (m *Manager) startRealtime(ctx context.Context) {
	for attempt := 1; attempt <= realtimeStartAttempts; attempt++ {
		err := m.rtServer.StartBackgroundTasks(ctx)
		if err == nil {
			m.logger.Info("Realtime relay started")
			return
		}
		m.logger.Warn("Failed to start realtime relay", "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			return
		case <-time.After(realtimeRetryDelay):
		}
	}
	m.logger.Error("Realtime relay not started; live refresh disabled")
}
