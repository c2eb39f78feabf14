package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis implements Store on top of a Redis server. SET replaces the whole
// value in one command, so readers never see a partial write.
type Redis struct {
	client redis.Cmdable
}

// NewRedis wraps an existing go-redis client
func NewRedis(client redis.Cmdable) *Redis {
	return &Redis{client: client}
}

// Load implements Loader
func (r *Redis) Load(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// Save implements Saver
func (r *Redis) Save(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return r.client.Set(ctx, key, value, ttl).Err()
}
