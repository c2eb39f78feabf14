package stats

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestRedisSink(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close() //nolint:errcheck

	ctx := context.Background()
	prefix := "feedgate:test:" + uuid.NewString()
	s := NewRedisSink(rdb, WithRedisPrefix(prefix), WithBucketTTL(time.Minute))

	at := time.Date(2026, 10, 19, 8, 30, 0, 0, time.UTC)
	require.NoError(t, s.LogRequest(ctx, Event{Method: "GET", Path: "/rates/latest", Route: "/{source}/{action}", Status: 200, LatencyMs: 2.5, At: at}))
	require.NoError(t, s.LogRequest(ctx, Event{Method: "GET", Path: "/horoscope/sign", Route: "/{source}/{action}", Status: 502, LatencyMs: 1, At: at}))
	for _, path := range []string{"/a", "/b/c", "/.env"} {
		require.NoError(t, s.LogRequest(ctx, Event{Method: "GET", Path: path, Status: 404, At: at}))
	}

	total, err := rdb.HGetAll(ctx, prefix+":total").Result()
	require.NoError(t, err)
	require.Equal(t, "5", total["requests"])
	require.Equal(t, "1", total["errors"])
	require.Equal(t, "1", total["status:502"])

	bucket := prefix + ":minute:202610190830"
	ttl, err := rdb.TTL(ctx, bucket).Result()
	require.NoError(t, err)
	require.Greater(t, ttl, time.Duration(0))

	routes, err := rdb.HGetAll(ctx, prefix+":route").Result()
	require.NoError(t, err)
	require.Len(t, routes, 4) // requests + latency_ms per pattern
	require.Equal(t, "2", routes["GET /{source}/{action}:requests"])
	require.Equal(t, "3", routes["GET unmatched:requests"])

	rdb.Del(ctx, prefix+":total", bucket, prefix+":route")
}
