package sessionstore

import (
	"fmt"

	"github.com/orderdesk/orderdesk/internal/pagination"
	"github.com/redis/go-redis/v9"
)

// Open builds the configured store. The returned close function releases
// the Redis client, if any.
func Open(cfg Config) (pagination.SessionStore, func() error, error) {
	switch cfg.Backend {
	case BackendMemory:
		return NewMemoryStore(cfg.TTL), func() error { return nil }, nil
	case BackendRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		store, err := NewRedisStore(client, cfg.KeyPrefix, cfg.TTL)
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		return store, client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported session backend %q", cfg.Backend)
	}
}
