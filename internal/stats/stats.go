// Package stats records best-effort request telemetry. Observations run off
// the request path and their failures never reach the caller.
package stats

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const DefaultTimeout = 2 * time.Second

// Event describes one completed request
type Event struct {
	Method string
	Path   string
	// Route is the matched route pattern, e.g. /{source}/{action}.
	// Empty when no route matched.
	Route     string
	Status    int
	LatencyMs float64
	Client    string
	At        time.Time
}

// route names the event by pattern, so unbounded paths share one label
func (e Event) route() string {
	pattern := e.Route
	if pattern == "" {
		pattern = "unmatched"
	}
	return e.Method + " " + pattern
}

// Sink receives completed requests
type Sink interface {
	LogRequest(ctx context.Context, ev Event) error
}

// SinkFunc adapts a function to Sink
type SinkFunc func(ctx context.Context, ev Event) error

func (f SinkFunc) LogRequest(ctx context.Context, ev Event) error { return f(ctx, ev) }

// Recorder hands events to a Sink in the background
type Recorder struct {
	sink    Sink
	timeout time.Duration
	log     zerolog.Logger
	wg      sync.WaitGroup
}

func NewRecorder(sink Sink, timeout time.Duration, log zerolog.Logger) *Recorder {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Recorder{sink: sink, timeout: timeout, log: log}
}

// Observe returns immediately. Errors and panics from the sink are logged
// and dropped.
func (r *Recorder) Observe(ev Event) {
	if r == nil || r.sink == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if p := recover(); p != nil {
				r.log.Warn().Str("panic", fmt.Sprint(p)).Str("route", ev.route()).Msg("stats sink panicked")
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		if err := r.sink.LogRequest(ctx, ev); err != nil {
			r.log.Debug().Err(err).Str("route", ev.route()).Msg("stats sink failed")
		}
	}()
}

// Wait blocks until in-flight observations finish or ctx is done
func (r *Recorder) Wait(ctx context.Context) error {
	if r == nil {
		return nil
	}
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
