package middleware

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/briangreenhill/feedgate/ratelimit"
)

type contextKey string

const ClientKey contextKey = "client"

// Identify resolves the client identity once per request and stores it in
// the context and on the request logger.
func Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ratelimit.ClientIP(r)
		ctx := context.WithValue(r.Context(), ClientKey, id)
		zerolog.Ctx(ctx).UpdateContext(func(c zerolog.Context) zerolog.Context {
			return c.Str("client", id)
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Client returns the identity stored by Identify, resolving it from r when
// Identify did not run.
func Client(r *http.Request) string {
	if id, ok := r.Context().Value(ClientKey).(string); ok && id != "" {
		return id
	}
	return ratelimit.ClientIP(r)
}
