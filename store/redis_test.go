package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestRedis_SaveLoad(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set, skipping redis store test")
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer func() { _ = rdb.Close() }()

	ctx := context.Background()
	s := NewRedis(rdb)
	key := "feedgate:test:" + time.Now().Format(time.RFC3339Nano)

	_, ok, err := s.Load(ctx, key)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Save(ctx, key, []byte("v"), time.Minute))
	v, ok, err := s.Load(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v", string(v))

	ttl, err := rdb.TTL(ctx, key).Result()
	require.NoError(t, err)
	require.Greater(t, ttl, time.Duration(0))
	_ = rdb.Del(ctx, key)
}
