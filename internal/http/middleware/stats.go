package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/briangreenhill/feedgate/internal/metrics"
	"github.com/briangreenhill/feedgate/internal/stats"
)

// Stats times each request and hands it to rec once the handler has
// returned. The observation does not delay the response.
func Stats(rec *stats.Recorder, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			elapsed := time.Since(start)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			var route string
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				route = rctx.RoutePattern()
			}
			m.ObserveRequest(route, elapsed)

			rec.Observe(stats.Event{
				Method:    r.Method,
				Path:      r.URL.Path,
				Route:     route,
				Status:    status,
				LatencyMs: float64(elapsed.Microseconds()) / 1000,
				Client:    Client(r),
				At:        start,
			})
		})
	}
}
