// Package config handles application configuration from environment variables
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"

	SinkLog   = "log"
	SinkRedis = "redis"
	SinkQueue = "queue"
	SinkNone  = "none"
)

// Config holds all application configuration
type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`
	Location    string `env:"LOCATION" envDefault:"UTC"`

	Store     StoreConfig     `envPrefix:"STORE_"`
	Redis     RedisConfig     `envPrefix:"REDIS_"`
	RateLimit RateLimitConfig `envPrefix:"RATE_LIMIT_"`
	Cache     CacheConfig     `envPrefix:"CACHE_"`
	Upstream  UpstreamConfig  `envPrefix:"UPSTREAM_"`
	Stats     StatsConfig     `envPrefix:"STATS_"`
	Horoscope HoroscopeConfig `envPrefix:"HOROSCOPE_"`
	Rates     RatesConfig     `envPrefix:"RATES_"`
}

type StoreConfig struct {
	Backend string `env:"BACKEND" envDefault:"memory"`
}

type RedisConfig struct {
	Addr     string `env:"ADDR"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

type RateLimitConfig struct {
	Limit    int           `env:"LIMIT" envDefault:"100"`
	Window   time.Duration `env:"WINDOW" envDefault:"60s"`
	FailOpen bool          `env:"FAIL_OPEN" envDefault:"true"`
}

// CacheConfig.Dir is only used by the file store backend
type CacheConfig struct {
	TTL time.Duration `env:"TTL" envDefault:"24h"`
	Dir string        `env:"DIR"`
}

type UpstreamConfig struct {
	Timeout   time.Duration `env:"TIMEOUT" envDefault:"10s"`
	RPS       float64       `env:"RPS" envDefault:"5"`
	Burst     int           `env:"BURST" envDefault:"5"`
	UserAgent string        `env:"USER_AGENT"`
}

type StatsConfig struct {
	Sink    string        `env:"SINK" envDefault:"log"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"2s"`
	Prefix  string        `env:"PREFIX"`
}

type HoroscopeConfig struct {
	BaseURL string `env:"BASE_URL"`
	Charset string `env:"CHARSET" envDefault:"windows-1251"`
}

type RatesConfig struct {
	BaseURL string `env:"BASE_URL"`
	APIKey  string `env:"API_KEY"`
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the gateway cannot start with
func (c *Config) Validate() error {
	var errs []error

	if c.RateLimit.Limit <= 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_LIMIT must be positive, got %d", c.RateLimit.Limit))
	}
	if c.RateLimit.Window <= 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %s", c.RateLimit.Window))
	}
	if c.Cache.TTL <= 0 {
		errs = append(errs, fmt.Errorf("CACHE_TTL must be positive, got %s", c.Cache.TTL))
	}
	if c.Upstream.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("UPSTREAM_TIMEOUT must be positive, got %s", c.Upstream.Timeout))
	}

	switch c.Store.Backend {
	case StoreMemory, StoreFile:
	case StoreRedis:
		if c.Redis.Addr == "" {
			errs = append(errs, errors.New("STORE_BACKEND=redis requires REDIS_ADDR"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_BACKEND %q", c.Store.Backend))
	}

	switch c.Stats.Sink {
	case SinkLog, SinkNone:
	case SinkRedis, SinkQueue:
		if c.Redis.Addr == "" {
			errs = append(errs, fmt.Errorf("STATS_SINK=%s requires REDIS_ADDR", c.Stats.Sink))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STATS_SINK %q", c.Stats.Sink))
	}

	if _, err := time.LoadLocation(c.Location); err != nil {
		errs = append(errs, fmt.Errorf("invalid LOCATION: %w", err))
	}

	return errors.Join(errs...)
}

// TimeLocation returns the location calendar days are computed in
func (c *Config) TimeLocation() *time.Location {
	loc, err := time.LoadLocation(c.Location)
	if err != nil {
		return time.UTC
	}
	return loc
}

// HasHoroscope returns true if the horoscope source is configured
func (c *Config) HasHoroscope() bool {
	return c.Horoscope.BaseURL != ""
}

// HasRates returns true if the rates source is configured
func (c *Config) HasRates() bool {
	return c.Rates.BaseURL != ""
}
