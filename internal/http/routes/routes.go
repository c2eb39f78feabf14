package routes

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/briangreenhill/feedgate/cache"
	appmw "github.com/briangreenhill/feedgate/internal/http/middleware"
	"github.com/briangreenhill/feedgate/internal/metrics"
	"github.com/briangreenhill/feedgate/internal/stats"
	"github.com/briangreenhill/feedgate/ratelimit"
	"github.com/briangreenhill/feedgate/sources"
)

type Server struct {
	Router   *chi.Mux
	Cache    *cache.Cache
	Sources  *sources.Registry
	Metrics  *metrics.Metrics
	CacheTTL time.Duration
	now      func() time.Time
}

type ServerOptions struct {
	Logger   zerolog.Logger
	Cache    *cache.Cache
	Sources  *sources.Registry
	Limiter  *ratelimit.Limiter
	Recorder *stats.Recorder
	Metrics  *metrics.Metrics
	// CacheTTL applies to sources that do not implement sources.TTLer
	CacheTTL time.Duration
	Now      func() time.Time
}

func New(opts ServerOptions) *Server {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(hlog.NewHandler(opts.Logger))
	r.Use(hlog.RequestIDHandler("req_id", "X-Request-Id"))
	r.Use(hlog.RemoteAddrHandler("ip"))
	r.Use(appmw.Identify)
	r.Use(appmw.Stats(opts.Recorder, opts.Metrics))
	r.Use(appmw.Recover)
	if opts.Limiter != nil {
		// every response, 404s included, carries the X-RateLimit-* headers
		r.Use(appmw.RateLimit(opts.Limiter, opts.Metrics))
	}

	s := &Server{
		Router:   r,
		Cache:    opts.Cache,
		Sources:  opts.Sources,
		Metrics:  opts.Metrics,
		CacheTTL: opts.CacheTTL,
		now:      opts.Now,
	}
	if s.CacheTTL <= 0 {
		s.CacheTTL = cache.DefaultTTL
	}
	if s.now == nil {
		s.now = time.Now
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("ok")); err != nil {
			hlog.FromRequest(r).Warn().Err(err).Msg("write health check response failed")
		}
	})
	r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())

	r.Get("/sources", s.handleSources)
	r.Get("/{source}/{action}", s.handleSource)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		appmw.WriteError(w, r, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		appmw.WriteError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}

func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	appmw.WriteJSON(w, r, http.StatusOK, map[string]any{"sources": s.Sources.Describe()})
}

func (s *Server) handleSource(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "source")
	action := chi.URLParam(r, "action")
	log := hlog.FromRequest(r)

	src, ok := s.Sources.Get(name)
	if !ok || !sources.Supports(src, action) {
		appmw.WriteError(w, r, http.StatusNotFound, "unknown source or action")
		return
	}

	params := sources.DeclaredParams(src, action, queryParams(r))
	key := s.Cache.KeyFor(name, action, params)

	ttl := s.CacheTTL
	if t, ok := src.(sources.TTLer); ok {
		if d := t.TTL(action); d > 0 {
			ttl = d
		}
	}

	entry, hit, err := s.Cache.GetOrCompute(r.Context(), key, ttl, func(ctx context.Context) (*cache.Entry, error) {
		v, err := src.Fetch(ctx, action, params)
		if err != nil {
			return nil, err
		}
		return sources.ToEntry(v)
	})
	if err != nil {
		switch {
		case errors.Is(err, sources.ErrBadParam):
			appmw.WriteError(w, r, http.StatusBadRequest, err.Error())
		case errors.Is(err, sources.ErrUnknownAction):
			appmw.WriteError(w, r, http.StatusNotFound, "unknown source or action")
		default:
			log.Error().Err(err).Str("source", name).Str("action", action).Msg("upstream fetch failed")
			appmw.WriteError(w, r, http.StatusBadGateway, "failed to load")
		}
		return
	}

	h := w.Header()
	if hit {
		h.Set("X-Cache", "HIT")
		age := s.now().Sub(entry.FetchedAt)
		if age < 0 {
			age = 0
		}
		h.Set("Age", strconv.Itoa(int(age.Seconds())))
	} else {
		h.Set("X-Cache", "MISS")
	}

	contentType := entry.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(entry.Body); err != nil {
		log.Warn().Err(err).Msg("write response failed")
	}
}

// queryParams keeps the first value of each query parameter
func queryParams(r *http.Request) map[string]string {
	q := r.URL.Query()
	params := make(map[string]string, len(q))
	for k, v := range q {
		if len(v) > 0 {
			params[k] = v[0]
		}
	}
	return params
}
