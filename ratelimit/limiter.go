// Package ratelimit bounds how many requests each client identity may make
// inside a fixed window. State lives in a store.Store so every gateway
// process sharing the store enforces the same budget.
//
// The window is fixed, not sliding: a client can land up to 2x the limit in
// a short span that straddles a reset. Counter updates are load-then-save
// with no lock, so heavy concurrency for one identity may undercount.
package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/briangreenhill/feedgate/store"
)

const (
	DefaultLimit  = 100
	DefaultWindow = 60 * time.Second
)

// ErrUnavailable wraps store read failures. The Decision returned alongside
// it follows the FailOpen policy rather than the client's real usage.
var ErrUnavailable = errors.New("rate limit store unavailable")

// ClientWindow is the per-identity counter persisted in the store.
type ClientWindow struct {
	Count   int       `json:"count"`
	ResetAt time.Time `json:"reset_at"`
}

// Expired reports whether the window no longer applies at now.
func (w ClientWindow) Expired(now time.Time) bool {
	return !now.Before(w.ResetAt)
}

// Decision is the outcome of a single Check.
type Decision struct {
	Admitted  bool
	Limit     int
	Remaining int
	ResetAt   time.Time
	// RetryAfter is the time left until ResetAt, never negative.
	RetryAfter time.Duration
}

// Limiter is a fixed-window limiter keyed by client identity.
type Limiter struct {
	Store  store.Store
	Limit  int
	Window time.Duration
	// FailOpen admits requests when the store cannot be read.
	// When false such requests are rejected.
	FailOpen bool
	// Now defaults to time.Now.
	Now func() time.Time
}

// New creates a fail-open limiter. Non-positive limit or window fall back
// to DefaultLimit and DefaultWindow.
func New(s store.Store, limit int, window time.Duration) *Limiter {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Limiter{
		Store:    s,
		Limit:    limit,
		Window:   window,
		FailOpen: true,
		Now:      time.Now,
	}
}

// Check counts one request for identity and decides whether to admit it.
//
// A non-nil error means the store misbehaved. The returned Decision is still
// usable: on a load failure it follows the FailOpen policy, on a save failure
// it is the decision computed before the write.
func (l *Limiter) Check(ctx context.Context, identity string) (Decision, error) {
	now := l.now()

	raw, ok, err := l.Store.Load(ctx, identity)
	if err != nil {
		return l.unavailable(now), fmt.Errorf("%w: load window for %s: %w", ErrUnavailable, identity, err)
	}

	var w ClientWindow
	if ok {
		if err := json.Unmarshal(raw, &w); err != nil {
			ok = false // corrupt entry: start over
		}
	}

	if !ok || w.Expired(now) {
		w = ClientWindow{Count: 1, ResetAt: now.Add(l.Window)}
	} else {
		w.Count++
	}

	dec := l.decide(w, now)

	// rejected requests are persisted too so repeated rejects keep
	// reporting the same reset time
	b, _ := json.Marshal(w)
	if err := l.Store.Save(ctx, identity, b, l.Window); err != nil {
		return dec, fmt.Errorf("save window for %s: %w", identity, err)
	}
	return dec, nil
}

func (l *Limiter) decide(w ClientWindow, now time.Time) Decision {
	remaining := l.Limit - w.Count
	if remaining < 0 {
		remaining = 0
	}
	retry := w.ResetAt.Sub(now)
	if retry < 0 {
		retry = 0
	}
	return Decision{
		Admitted:   w.Count <= l.Limit,
		Limit:      l.Limit,
		Remaining:  remaining,
		ResetAt:    w.ResetAt,
		RetryAfter: retry,
	}
}

func (l *Limiter) unavailable(now time.Time) Decision {
	dec := Decision{
		Admitted:   l.FailOpen,
		Limit:      l.Limit,
		ResetAt:    now.Add(l.Window),
		RetryAfter: l.Window,
	}
	if l.FailOpen {
		dec.Remaining = l.Limit
	}
	return dec
}

func (l *Limiter) now() time.Time {
	if l.Now == nil {
		return time.Now()
	}
	return l.Now()
}
