// Package memory is an in-process notify.Broker for single-node deployments and tests.
package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/orderdesk/orderdesk/internal/notify"
)

// ErrClosed is returned after Close.
var ErrClosed = errors.New("memory broker closed")

const defaultBufSize = 64

// subscription is one Subscribe call.
type subscription struct {
	pattern string
	msgCh   chan notify.Message
	ctx     context.Context
	cancel  context.CancelFunc
}

// Broker routes messages to in-process subscribers.
type Broker struct {
	mu      sync.RWMutex
	subs    map[*subscription]struct{}
	closed  atomic.Bool
	bufSize int
	prefix  string
}

var _ notify.Broker = (*Broker)(nil)

// New returns a broker. A non-empty prefix is prepended to every published
// subject and to every subscription pattern, mirroring the NATS broker.
// Delivered messages carry the subject without the prefix.
func New(prefix string) *Broker {
	return &Broker{
		subs:    make(map[*subscription]struct{}),
		bufSize: defaultBufSize,
		prefix:  prefix,
	}
}

// Publish delivers data to every matching subscriber. A subscriber whose
// buffer is full is skipped rather than blocking the publisher.
func (b *Broker) Publish(ctx context.Context, subject string, data []byte) error {
	if b.closed.Load() {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	full := b.qualify(subject)

	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subs {
		if !notify.MatchSubject(sub.pattern, full) {
			continue
		}
		select {
		case sub.msgCh <- notify.Message{Subject: subject, Data: data}:
		case <-sub.ctx.Done():
		default:
		}
	}
	return nil
}

func (b *Broker) Subscribe(ctx context.Context, pattern string) (<-chan notify.Message, error) {
	if b.closed.Load() {
		return nil, ErrClosed
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub := &subscription{
		pattern: b.qualify(pattern),
		msgCh:   make(chan notify.Message, b.bufSize),
		ctx:     subCtx,
		cancel:  cancel,
	}

	b.mu.Lock()
	if b.subs == nil {
		b.mu.Unlock()
		cancel()
		return nil, ErrClosed
	}
	b.subs[sub] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-subCtx.Done()
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[sub]; ok {
			delete(b.subs, sub)
			close(sub.msgCh)
		}
	}()

	return sub.msgCh, nil
}

// Close ends every subscription.
func (b *Broker) Close() error {
	if b.closed.Swap(true) {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for sub := range b.subs {
		sub.cancel()
		close(sub.msgCh)
	}
	b.subs = nil
	return nil
}

func (b *Broker) qualify(subject string) string {
	if b.prefix == "" {
		return subject
	}
	return b.prefix + "." + subject
}
