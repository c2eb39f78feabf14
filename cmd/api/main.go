// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/briangreenhill/feedgate/cache"
	"github.com/briangreenhill/feedgate/internal/config"
	"github.com/briangreenhill/feedgate/internal/fetch"
	"github.com/briangreenhill/feedgate/internal/http/routes"
	"github.com/briangreenhill/feedgate/internal/metrics"
	"github.com/briangreenhill/feedgate/internal/stats"
	"github.com/briangreenhill/feedgate/ratelimit"
	"github.com/briangreenhill/feedgate/sources/builtin"
	"github.com/briangreenhill/feedgate/store"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close() //nolint:errcheck
	}

	// Store
	var kv store.Store
	switch cfg.Store.Backend {
	case config.StoreRedis:
		kv = store.NewRedis(rdb)
	case config.StoreFile:
		fs, err := store.NewFile(cfg.Cache.Dir)
		if err != nil {
			logger.Fatal().Err(err).Msg("open file store")
		}
		kv = fs
	default:
		mem := store.NewMemory()
		mem.StartJanitor(ctx, 5*time.Minute)
		kv = mem
	}

	m := metrics.New()

	limiter := ratelimit.New(store.WithPrefix(kv, "ratelimit:"), cfg.RateLimit.Limit, cfg.RateLimit.Window)
	limiter.FailOpen = cfg.RateLimit.FailOpen

	respCache := cache.New(store.WithPrefix(kv, "cache:"),
		cache.WithTTL(cfg.Cache.TTL),
		cache.WithLocation(cfg.TimeLocation()),
		cache.WithLogger(logger),
		cache.WithLookupHook(m.ObserveCacheLookup),
	)

	fetcher := fetch.New(
		fetch.WithTimeout(cfg.Upstream.Timeout),
		fetch.WithRateLimit(cfg.Upstream.RPS, cfg.Upstream.Burst),
		fetch.WithUserAgent(cfg.Upstream.UserAgent),
		fetch.WithResultHook(m.ObserveFetch),
	)

	// Sources
	reg, err := builtin.NewRegistry(cfg, fetcher)
	if err != nil {
		logger.Fatal().Err(err).Msg("setup sources")
	}
	if len(reg.List()) == 0 {
		logger.Warn().Msg("no sources configured; set HOROSCOPE_BASE_URL or RATES_BASE_URL")
	}

	// Stats
	var sink stats.Sink
	switch cfg.Stats.Sink {
	case config.SinkRedis:
		sink = stats.NewRedisSink(rdb, stats.WithRedisPrefix(cfg.Stats.Prefix))
	case config.SinkQueue:
		client := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer func() {
			if closeErr := client.Close(); closeErr != nil {
				logger.Warn().Err(closeErr).Msg("close asynq client")
			}
		}()
		sink = stats.NewQueueSink(client)
	case config.SinkNone:
		sink = stats.Discard
	default:
		sink = stats.LogSink{Log: logger}
	}
	recorder := stats.NewRecorder(sink, cfg.Stats.Timeout, logger)

	s := routes.New(routes.ServerOptions{
		Logger:   logger,
		Cache:    respCache,
		Sources:  reg,
		Limiter:  limiter,
		Recorder: recorder,
		Metrics:  m,
		CacheTTL: cfg.Cache.TTL,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().
			Str("addr", srv.Addr).
			Str("store", cfg.Store.Backend).
			Str("stats", cfg.Stats.Sink).
			Strs("sources", reg.List()).
			Msg("starting gateway")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	if err := recorder.Wait(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("dropped pending stats")
	}
}
