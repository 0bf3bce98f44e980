package sessionstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/orderdesk/orderdesk/internal/pagination"
	"github.com/orderdesk/orderdesk/pkg/model"
	"github.com/redis/go-redis/v9"
)

const (
	defaultRedisPrefix = "orderdesk:session:"
	maxUpdateRetries   = 16
)

// ErrConflict is returned when an update kept losing the optimistic race.
var ErrConflict = errors.New("session update conflict")

// RedisStore keeps sessions as JSON under <prefix><id>. Updates are
// optimistic: WATCH the key, apply fn, and commit in MULTI/EXEC, retrying
// when another writer got there first.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

var _ pagination.SessionStore = (*RedisStore)(nil)

// NewRedisStore creates a Redis-backed session store. An empty prefix uses
// the default namespace.
func NewRedisStore(client redis.UniversalClient, prefix string, ttl time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if strings.TrimSpace(prefix) == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}, nil
}

func (r *RedisStore) Create(ctx context.Context, s pagination.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	ok, err := r.client.SetNX(ctx, r.key(s.ID), data, r.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("session %s already exists", s.ID)
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, id string) (pagination.Session, error) {
	return r.load(ctx, r.client, id)
}

func (r *RedisStore) Update(ctx context.Context, id string, fn func(pagination.Session) (pagination.Session, error)) (pagination.Session, error) {
	key := r.key(id)
	var result pagination.Session

	txf := func(tx *redis.Tx) error {
		cur, err := r.load(ctx, tx, id)
		if err != nil {
			return err
		}
		next, err := fn(cur)
		if err != nil {
			result = cur
			return err
		}
		data, err := json.Marshal(next)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, r.ttl)
			return nil
		})
		if err == nil {
			result = next
		}
		return err
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := r.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return result, err
	}
	return result, fmt.Errorf("session %s: %w", id, ErrConflict)
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	n, err := r.client.Del(ctx, r.key(id)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("session %s: %w", id, model.ErrNotFound)
	}
	return nil
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (r *RedisStore) load(ctx context.Context, c getter, id string) (pagination.Session, error) {
	data, err := c.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return pagination.Session{}, fmt.Errorf("session %s: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return pagination.Session{}, err
	}
	var s pagination.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return pagination.Session{}, fmt.Errorf("decode session %s: %w", id, err)
	}
	return s, nil
}

func (r *RedisStore) key(id string) string {
	return r.prefix + id
}
