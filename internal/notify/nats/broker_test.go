package nats

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/orderdesk/orderdesk/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConn records publishes and loops them back to matching handlers.
type fakeConn struct {
	mu         sync.Mutex
	handlers   map[string]nats.MsgHandler
	published  []string
	publishErr error
	drained    bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{handlers: make(map[string]nats.MsgHandler)}
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	f.mu.Lock()
	if f.publishErr != nil {
		f.mu.Unlock()
		return f.publishErr
	}
	f.published = append(f.published, subject)
	var targets []nats.MsgHandler
	for pattern, h := range f.handlers {
		if notify.MatchSubject(pattern, subject) {
			targets = append(targets, h)
		}
	}
	f.mu.Unlock()

	for _, h := range targets {
		h(&nats.Msg{Subject: subject, Data: data})
	}
	return nil
}

func (f *fakeConn) Subscribe(subject string, cb nats.MsgHandler) (*nats.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[subject] = cb
	return &nats.Subscription{Subject: subject}, nil
}

func (f *fakeConn) Drain() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.drained = true
	return nil
}

func (f *fakeConn) Close() {}

func withFakeConn(t *testing.T) *fakeConn {
	t.Helper()
	fc := newFakeConn()
	orig := natsConnect
	natsConnect = func(string, ...nats.Option) (conn, error) { return fc, nil }
	t.Cleanup(func() { natsConnect = orig })
	return fc
}

func TestBroker_PublishSubscribe(t *testing.T) {
	fc := withFakeConn(t)
	b, err := Connect("nats://fake:4222", "orderdesk", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := b.Subscribe(ctx, "orders.>")
	require.NoError(t, err)

	require.NoError(t, notify.PublishIngested(ctx, b, notify.IngestedEvent{BatchID: "b-1", Accepted: 2}))
	assert.Equal(t, []string{"orderdesk.orders.ingested"}, fc.published)

	select {
	case msg := <-ch:
		assert.Equal(t, notify.SubjectIngested, msg.Subject, "prefix stripped on delivery")
		evt, err := notify.DecodeIngested(msg.Data)
		require.NoError(t, err)
		assert.Equal(t, "b-1", evt.BatchID)
	case <-time.After(time.Second):
		t.Fatal("no message")
	}

	cancel()
	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel not closed")
	}

	require.NoError(t, b.Close())
	assert.True(t, fc.drained)
}

func TestBroker_PublishError(t *testing.T) {
	fc := withFakeConn(t)
	fc.publishErr = errors.New("nats: connection closed")
	b, err := Connect("nats://fake:4222", "", nil)
	require.NoError(t, err)

	err = b.Publish(context.Background(), "orders.ingested", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "orders.ingested")
}

func TestConnect_Error(t *testing.T) {
	orig := natsConnect
	natsConnect = func(string, ...nats.Option) (conn, error) { return nil, errors.New("no servers available") }
	defer func() { natsConnect = orig }()

	_, err := Connect("nats://nowhere:4222", "", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nats://nowhere:4222")
}
