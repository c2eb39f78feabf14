// Package store provides the key-value backends shared by the rate limiter
// and the response cache. Every backend supports per-key expiry and replaces
// a value atomically from the point of view of concurrent readers.
package store

import (
	"context"
	"time"
)

// Loader defines the interface for reading stored values
type Loader interface {
	// Load returns the value stored under key.
	// ok is false when the key is absent or its TTL has elapsed.
	Load(ctx context.Context, key string) (value []byte, ok bool, err error)
}

// Saver defines the interface for writing values
type Saver interface {
	// Save replaces the value under key. A ttl <= 0 stores without expiry.
	Save(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Store combines both operations
type Store interface {
	Loader
	Saver
}

// prefixed keeps a subsystem's keys in their own namespace of a shared store.
type prefixed struct {
	next   Store
	prefix string
}

// WithPrefix returns a Store that prepends prefix to every key.
func WithPrefix(s Store, prefix string) Store {
	return &prefixed{next: s, prefix: prefix}
}

func (p *prefixed) Load(ctx context.Context, key string) ([]byte, bool, error) {
	return p.next.Load(ctx, p.prefix+key)
}

func (p *prefixed) Save(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return p.next.Save(ctx, p.prefix+key, value, ttl)
}
