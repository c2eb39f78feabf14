package stats

import (
	"context"
	"sync"
)

type Counters struct {
	Requests  int64
	Errors    int64 // status >= 500
	LatencyMs float64
}

func (c *Counters) add(ev Event) {
	c.Requests++
	if ev.Status >= 500 {
		c.Errors++
	}
	c.LatencyMs += ev.LatencyMs
}

// MemorySink keeps counters in process. It never expires anything and is
// meant for tests and local runs.
type MemorySink struct {
	mu      sync.Mutex
	total   Counters
	byRoute map[string]Counters
	events  []Event
}

func NewMemorySink() *MemorySink {
	return &MemorySink{byRoute: make(map[string]Counters)}
}

func (s *MemorySink) LogRequest(_ context.Context, ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total.add(ev)
	c := s.byRoute[ev.route()]
	c.add(ev)
	s.byRoute[ev.route()] = c
	s.events = append(s.events, ev)
	return nil
}

func (s *MemorySink) Total() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func (s *MemorySink) ByRoute() map[string]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Counters, len(s.byRoute))
	for k, v := range s.byRoute {
		out[k] = v
	}
	return out
}

func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}
