package stats

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultRedisPrefix = "feedgate:stats"

// RedisSink aggregates requests into redis hashes:
//
//	<prefix>:total                  requests, errors, latency_ms, status:<code>
//	<prefix>:minute:<YYYYMMDDhhmm>  same fields, expiring after ttl
//	<prefix>:route                  "<METHOD> <route pattern>:requests", "...:latency_ms"
type RedisSink struct {
	rdb    redis.Cmdable
	prefix string
	ttl    time.Duration
}

type RedisOption func(*RedisSink)

func WithRedisPrefix(prefix string) RedisOption {
	return func(s *RedisSink) {
		if p := strings.Trim(prefix, ":"); p != "" {
			s.prefix = p
		}
	}
}

// WithBucketTTL sets the expiry of per-minute buckets. Totals never expire.
func WithBucketTTL(d time.Duration) RedisOption {
	return func(s *RedisSink) { s.ttl = d }
}

func NewRedisSink(rdb redis.Cmdable, opts ...RedisOption) *RedisSink {
	s := &RedisSink{rdb: rdb, prefix: DefaultRedisPrefix, ttl: 24 * time.Hour}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *RedisSink) LogRequest(ctx context.Context, ev Event) error {
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}

	status := "status:" + strconv.Itoa(ev.Status)
	bump := func(pipe redis.Pipeliner, key string) {
		pipe.HIncrBy(ctx, key, "requests", 1)
		pipe.HIncrBy(ctx, key, status, 1)
		pipe.HIncrByFloat(ctx, key, "latency_ms", ev.LatencyMs)
		if ev.Status >= 500 {
			pipe.HIncrBy(ctx, key, "errors", 1)
		}
	}

	pipe := s.rdb.Pipeline()
	bump(pipe, s.prefix+":total")

	bucketKey := fmt.Sprintf("%s:minute:%s", s.prefix, at.UTC().Format("200601021504"))
	bump(pipe, bucketKey)
	if s.ttl > 0 {
		pipe.Expire(ctx, bucketKey, s.ttl)
	}

	routeKey := s.prefix + ":route"
	route := ev.route()
	pipe.HIncrBy(ctx, routeKey, route+":requests", 1)
	pipe.HIncrByFloat(ctx, routeKey, route+":latency_ms", ev.LatencyMs)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record stats: %w", err)
	}
	return nil
}
