package stats

import (
	"context"

	"github.com/rs/zerolog"
)

// LogSink writes one structured line per request
type LogSink struct {
	Log zerolog.Logger
}

func (s LogSink) LogRequest(_ context.Context, ev Event) error {
	s.Log.Info().
		Str("method", ev.Method).
		Str("path", ev.Path).
		Str("route", ev.Route).
		Int("status", ev.Status).
		Float64("latency_ms", ev.LatencyMs).
		Str("client", ev.Client).
		Msg("request")
	return nil
}

// Discard drops every event
var Discard Sink = SinkFunc(func(context.Context, Event) error { return nil })
