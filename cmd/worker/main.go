package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/briangreenhill/feedgate/internal/config"
	"github.com/briangreenhill/feedgate/internal/db"
	"github.com/briangreenhill/feedgate/internal/jobs"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("component", "worker").Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	if cfg.DatabaseURL == "" || cfg.Redis.Addr == "" {
		logger.Fatal().Msg("worker requires DATABASE_URL and REDIS_ADDR")
	}

	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("unable to connect to database")
	}
	defer pool.Close()
	q := db.New(pool)

	srv := asynq.NewServer(asynq.RedisClientOpt{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}, asynq.Config{
		Concurrency:    8,
		StrictPriority: false,
		Queues: map[string]int{
			jobs.QueueStats: 5,
			"default":       1,
		},
	})
	mux := asynq.NewServeMux()
	mux.HandleFunc(jobs.TaskLogRequest, logRequestHandler(q, logger))

	logger.Info().Msg("worker running")
	if err := srv.Run(mux); err != nil {
		logger.Fatal().Err(err).Msg("worker stopped")
	}
}

type statInserter interface {
	InsertRequestStat(ctx context.Context, arg db.InsertRequestStatParams) (int64, error)
}

func logRequestHandler(q statInserter, logger zerolog.Logger) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, t *asynq.Task) error {
		var p jobs.LogRequestPayload
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			logger.Warn().Err(err).Msg("bad payload, dropping")
			return fmt.Errorf("decode payload: %w", asynq.SkipRetry)
		}

		arg, err := statParams(p)
		if err != nil {
			logger.Warn().Err(err).Str("event_id", p.EventID).Msg("invalid event, dropping")
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}

		start := time.Now()
		n, err := q.InsertRequestStat(ctx, arg)
		if err != nil {
			if isRetryableError(err) {
				logger.Warn().Err(err).Str("event_id", p.EventID).Msg("retryable error")
				return err
			}
			logger.Error().Err(err).Str("event_id", p.EventID).Msg("permanent error, dropping job")
			return nil
		}
		logger.Debug().
			Str("event_id", p.EventID).
			Bool("duplicate", n == 0).
			Dur("duration", time.Since(start)).
			Msg("request stat stored")
		return nil
	}
}

func statParams(p jobs.LogRequestPayload) (db.InsertRequestStatParams, error) {
	id, err := uuid.Parse(p.EventID)
	if err != nil {
		return db.InsertRequestStatParams{}, fmt.Errorf("event id: %w", err)
	}
	at := time.Unix(p.AtUnix, 0).UTC()
	if p.AtUnix == 0 {
		at = time.Now().UTC()
	}
	return db.InsertRequestStatParams{
		EventID:    id,
		Method:     p.Method,
		Path:       p.Path,
		Status:     int32(p.Status),
		LatencyMs:  p.LatencyMs,
		Client:     pgtype.Text{String: p.Client, Valid: p.Client != ""},
		OccurredAt: pgtype.Timestamptz{Time: at, Valid: true},
	}, nil
}

// isRetryableError determines if an error should trigger a job retry
func isRetryableError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case strings.HasPrefix(pgErr.Code, "08"), // connection exception
			strings.HasPrefix(pgErr.Code, "40"), // transaction rollback
			strings.HasPrefix(pgErr.Code, "53"), // insufficient resources
			strings.HasPrefix(pgErr.Code, "57P"): // operator intervention
			return true
		}
		return false
	}

	errStr := strings.ToLower(err.Error())

	// Network/connectivity issues - should retry
	if strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "connection") ||
		strings.Contains(errStr, "network") ||
		strings.Contains(errStr, "dns") {
		return true
	}

	return false
}
