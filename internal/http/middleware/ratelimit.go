package middleware

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/hlog"

	"github.com/briangreenhill/feedgate/internal/metrics"
	"github.com/briangreenhill/feedgate/ratelimit"
)

// RateLimit admits or rejects each request through l. Every response,
// admitted or not, carries X-RateLimit-Limit, X-RateLimit-Remaining and
// X-RateLimit-Reset. Rejected requests never reach next.
func RateLimit(l *ratelimit.Limiter, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := Client(r)
			dec, err := l.Check(r.Context(), id)
			m.ObserveDecision(dec.Admitted, err)
			if err != nil {
				hlog.FromRequest(r).Warn().Err(err).Str("client", id).Bool("admitted", dec.Admitted).Msg("rate limit store error")
			}

			// headers must be in place before next writes the status line
			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(dec.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(dec.Remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(dec.ResetAt.Unix(), 10))

			if dec.Admitted {
				next.ServeHTTP(w, r)
				return
			}

			retry := retryAfterSeconds(dec.RetryAfter)
			h.Set("Retry-After", strconv.Itoa(retry))

			if errors.Is(err, ratelimit.ErrUnavailable) {
				WriteError(w, r, http.StatusServiceUnavailable, "Rate limiter unavailable")
				return
			}

			WriteJSON(w, r, http.StatusTooManyRequests, ErrorBody{Error: ErrorDetail{
				Message:        "Too many requests",
				Code:           http.StatusTooManyRequests,
				ResetTime:      dec.ResetAt.Unix(),
				ResetInSeconds: &retry,
			}})
		})
	}
}

func retryAfterSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}
