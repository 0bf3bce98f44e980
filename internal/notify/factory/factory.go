// Package factory opens the notification broker selected by configuration.
package factory

import (
	"fmt"
	"log/slog"

	"github.com/orderdesk/orderdesk/internal/notify"
	"github.com/orderdesk/orderdesk/internal/notify/memory"
	"github.com/orderdesk/orderdesk/internal/notify/nats"
)

// Open builds the configured broker.
func Open(cfg notify.Config, logger *slog.Logger) (notify.Broker, error) {
	switch cfg.Backend {
	case notify.BackendMemory:
		return memory.New(cfg.SubjectPrefix), nil
	case notify.BackendNATS:
		b, err := nats.Connect(cfg.URL, cfg.SubjectPrefix, logger)
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unsupported notify backend %q", cfg.Backend)
	}
}
