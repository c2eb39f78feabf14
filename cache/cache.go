// Package cache memoizes expensive upstream fetch+parse work. Keys embed the
// calendar day, so a result computed today is never served tomorrow even if
// its TTL has not run out.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/briangreenhill/feedgate/store"
)

// ErrNilEntry is returned when a ComputeFunc reports success without an entry
var ErrNilEntry = errors.New("compute returned no entry")

// DefaultTTL matches upstream pages that change once per day.
const DefaultTTL = 24 * time.Hour

// Entry represents a cached payload with metadata
type Entry struct {
	ContentType string    `json:"content_type"`
	FetchedAt   time.Time `json:"fetched_at"`
	Body        []byte    `json:"body"`
}

// JSON builds an entry holding v encoded as JSON
func JSON(v any) (*Entry, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &Entry{ContentType: "application/json;charset=utf-8", Body: b}, nil
}

// ComputeFunc produces the value for a missing key
type ComputeFunc func(ctx context.Context) (*Entry, error)

// Cache is a read-through cache over a store.Store
type Cache struct {
	store    store.Store
	ttl      time.Duration
	loc      *time.Location
	log      zerolog.Logger
	now      func() time.Time
	onLookup func(hit bool)
}

// Option configures a Cache
type Option func(*Cache)

// WithTTL sets the TTL used when GetOrCompute is called with ttl <= 0
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithLocation sets the time zone that defines the calendar day
func WithLocation(loc *time.Location) Option {
	return func(c *Cache) {
		if loc != nil {
			c.loc = loc
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Cache) { c.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithLookupHook registers a callback invoked once per lookup with the hit/miss outcome
func WithLookupHook(fn func(hit bool)) Option {
	return func(c *Cache) { c.onLookup = fn }
}

// New creates a cache over s
func New(s store.Store, opts ...Option) *Cache {
	c := &Cache{
		store: s,
		ttl:   DefaultTTL,
		loc:   time.UTC,
		log:   zerolog.Nop(),
		now:   time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// KeyFor builds the key for route/action/params on the current calendar day
func (c *Cache) KeyFor(route, action string, params map[string]string) string {
	return Key(route, action, params, c.now().In(c.loc))
}

// GetOrCompute returns the entry stored under key, or runs compute, stores
// its result for ttl and returns it. hit reports whether compute was skipped.
//
// Store failures are logged and handled as a miss. A compute error is
// returned as-is and nothing is stored. There is no lock across processes:
// concurrent misses may both compute and the last write wins.
func (c *Cache) GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute ComputeFunc) (entry *Entry, hit bool, err error) {
	if ttl <= 0 {
		ttl = c.ttl
	}

	if e, ok := c.load(ctx, key); ok {
		c.observe(true)
		return e, true, nil
	}
	c.observe(false)

	e, err := compute(ctx)
	if err != nil {
		return nil, false, err
	}
	if e == nil {
		return nil, false, ErrNilEntry
	}
	if e.FetchedAt.IsZero() {
		e.FetchedAt = c.now()
	}

	b, err := json.Marshal(e)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache encode failed")
		return e, false, nil
	}
	if err := c.store.Save(ctx, key, b, ttl); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
	return e, false, nil
}

func (c *Cache) load(ctx context.Context, key string) (*Entry, bool) {
	raw, ok, err := c.store.Load(ctx, key)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache read failed, treating as miss")
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache entry corrupt, treating as miss")
		return nil, false
	}
	return &e, true
}

func (c *Cache) observe(hit bool) {
	if c.onLookup != nil {
		c.onLookup(hit)
	}
}
