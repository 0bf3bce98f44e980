package services

import "context"

// Shutdown stops the listener, waits for background work and releases
// every backend. ctx bounds the whole sequence.
func (m *Manager) Shutdown(ctx context.Context) {
	if m.srv != nil {
		m.logger.Info("Stopping HTTP server")
		if err := m.srv.Stop(ctx); err != nil {
			m.logger.Error("Error shutting down HTTP server", "error", err)
		}
	}

	m.logger.Info("Waiting for background tasks to finish")
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		m.logger.Warn("Timeout waiting for background tasks")
	}

	m.release(ctx)
}

func (m *Manager) release(ctx context.Context) {
	if m.broker != nil {
		if err := m.broker.Close(); err != nil {
			m.logger.Error("Error closing notify broker", "error", err)
		}
		m.broker = nil
	}
	if m.closeSessions != nil {
		if err := m.closeSessions(); err != nil {
			m.logger.Error("Error closing session store", "error", err)
		}
		m.closeSessions = nil
	}
	if m.store != nil {
		if err := m.store.Close(ctx); err != nil {
			m.logger.Error("Error closing order store", "error", err)
		}
		m.store = nil
	}
}
