// Package nats implements notify.Broker on core NATS subjects.
// Notifications are fire-and-forget; nothing is persisted.
package nats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/orderdesk/orderdesk/internal/notify"
)

const defaultBufSize = 64

// conn abstracts *nats.Conn for testing.
type conn interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, cb nats.MsgHandler) (*nats.Subscription, error)
	Drain() error
	Close()
}

// natsConnect is injectable for testing.
var natsConnect = func(url string, opts ...nats.Option) (conn, error) {
	return nats.Connect(url, opts...)
}

// Broker publishes and subscribes through a NATS connection.
type Broker struct {
	nc     conn
	prefix string
	logger *slog.Logger
}

var _ notify.Broker = (*Broker)(nil)

// Connect dials url. A non-empty prefix is prepended to subjects and patterns.
func Connect(url, prefix string, logger *slog.Logger) (*Broker, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "notify.nats")

	nc, err := natsConnect(url,
		nats.Name("orderdesk"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}
	return &Broker{nc: nc, prefix: prefix, logger: logger}, nil
}

func (b *Broker) Publish(ctx context.Context, subject string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full := b.qualify(subject)
	if err := b.nc.Publish(full, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", full, err)
	}
	return nil
}

// Subscribe forwards matching messages to the returned channel until ctx is
// done. Messages arriving while the channel buffer is full are dropped.
func (b *Broker) Subscribe(ctx context.Context, pattern string) (<-chan notify.Message, error) {
	out := make(chan notify.Message, defaultBufSize)
	var (
		mu     sync.Mutex
		closed bool
	)

	sub, err := b.nc.Subscribe(b.qualify(pattern), func(m *nats.Msg) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case out <- notify.Message{Subject: b.unqualify(m.Subject), Data: m.Data}:
		default:
			b.logger.Warn("Dropping notification for slow subscriber", "subject", m.Subject)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", pattern, err)
	}

	go func() {
		<-ctx.Done()
		if err := sub.Unsubscribe(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
			b.logger.Debug("Unsubscribe failed", "pattern", pattern, "error", err)
		}
		mu.Lock()
		closed = true
		close(out)
		mu.Unlock()
	}()

	return out, nil
}

// Close drains pending messages and closes the connection.
func (b *Broker) Close() error {
	if err := b.nc.Drain(); err != nil {
		b.nc.Close()
		return err
	}
	return nil
}

func (b *Broker) qualify(subject string) string {
	if b.prefix == "" {
		return subject
	}
	return b.prefix + "." + subject
}

// unqualify strips the prefix so subscribers see the subject they published.
func (b *Broker) unqualify(subject string) string {
	if b.prefix == "" {
		return subject
	}
	return strings.TrimPrefix(subject, b.prefix+".")
}
