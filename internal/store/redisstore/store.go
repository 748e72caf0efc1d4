package redisstore

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const chatContextKey = "chat:context"

// Store wraps the redis client. A nil *Store is valid and turns every
// operation into a no-op miss, so the API runs without redis configured.
type Store struct {
	rdb *redis.Client
}

func New(addr, password string, db int) *Store {
	if addr == "" {
		return nil
	}
	return &Store{rdb: redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})}
}

func (s *Store) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}

// GetChatContext returns the cached serialized chat context.
// ("", nil) means a miss.
func (s *Store) GetChatContext(ctx context.Context) (string, error) {
	if s == nil || s.rdb == nil {
		return "", nil
	}
	v, err := s.rdb.Get(ctx, chatContextKey).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

func (s *Store) SetChatContext(ctx context.Context, value string, ttl time.Duration) error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Set(ctx, chatContextKey, value, ttl).Err()
}
