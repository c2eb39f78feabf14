// Package sources defines the upstream data sources exposed by the gateway
package sources

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/briangreenhill/feedgate/cache"
)

var (
	// ErrUnknownAction is returned when a source does not serve an action
	ErrUnknownAction = errors.New("unknown action")
	// ErrBadParam is returned for parameters a source cannot serve
	ErrBadParam = errors.New("invalid parameter")
)

// Source defines the interface every upstream integration implements
type Source interface {
	// Name returns the route name of the source (e.g., "horoscope", "rates")
	Name() string

	// Actions lists the actions the source serves
	Actions() []string

	// Fetch retrieves and reshapes upstream data for action.
	// The result is encoded as JSON unless it is a Blob.
	Fetch(ctx context.Context, action string, params map[string]string) (any, error)
}

// TTLer is implemented by sources whose data changes more often than daily
type TTLer interface {
	TTL(action string) time.Duration
}

// ParamLister is implemented by sources that declare which query
// parameters an action reads. Other parameters are dropped before the cache
// key is built, so they cannot force extra upstream fetches.
type ParamLister interface {
	Params(action string) []string
}

// DeclaredParams returns params restricted to those s declares for action.
// Sources that are not ParamListers get params unchanged.
func DeclaredParams(s Source, action string, params map[string]string) map[string]string {
	pl, ok := s.(ParamLister)
	if !ok {
		return params
	}
	out := make(map[string]string)
	for _, name := range pl.Params(action) {
		if v, ok := params[name]; ok {
			out[name] = v
		}
	}
	return out
}

// Fetcher is the upstream client sources use
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
	GetJSON(ctx context.Context, url string, out any) error
}

// Blob is a binary payload such as an image
type Blob struct {
	ContentType string
	Data        []byte
}

// ToEntry converts a Fetch result into a cache entry
func ToEntry(v any) (*cache.Entry, error) {
	if b, ok := v.(Blob); ok {
		return &cache.Entry{ContentType: b.ContentType, Body: b.Data}, nil
	}
	return cache.JSON(v)
}

// Registry manages available sources
type Registry struct {
	sources map[string]Source
}

// NewRegistry creates a new source registry
func NewRegistry() *Registry {
	return &Registry{
		sources: make(map[string]Source),
	}
}

// Register adds a source to the registry
func (r *Registry) Register(s Source) {
	r.sources[s.Name()] = s
}

// Get retrieves a source by name
func (r *Registry) Get(name string) (Source, bool) {
	s, ok := r.sources[name]
	return s, ok
}

// List returns all registered source names, sorted
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Describe maps every source name to its actions
func (r *Registry) Describe() map[string][]string {
	out := make(map[string][]string, len(r.sources))
	for name, s := range r.sources {
		out[name] = s.Actions()
	}
	return out
}

// Supports reports whether s serves action
func Supports(s Source, action string) bool {
	for _, a := range s.Actions() {
		if a == action {
			return true
		}
	}
	return false
}
