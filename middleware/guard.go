// Package middleware adapts the guard boundary to net/http. It is a thin
// integration layer: one Resolve call at route entry, the Resolution in
// the request context, and a gate helper per authorization tier. Token
// transport (which cookie or header, signing, encryption) stays the host
// application's choice via the TokenExtractor.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/guardkit/guardkit"
)

type resolutionContextKey struct{}

// ResolutionFromContext returns the Resolution stored by Guard.
func ResolutionFromContext(ctx context.Context) (guardkit.Resolution, bool) {
	res, ok := ctx.Value(resolutionContextKey{}).(guardkit.Resolution)
	return res, ok
}

// TokenExtractor pulls the opaque session token out of a request. An empty
// return means no token was presented.
type TokenExtractor func(*http.Request) string

// CookieToken extracts the token from a named cookie.
func CookieToken(name string) TokenExtractor {
	return func(r *http.Request) string {
		cookie, err := r.Cookie(name)
		if err != nil {
			return ""
		}
		return cookie.Value
	}
}

// BearerToken extracts the token from the Authorization header.
func BearerToken() TokenExtractor {
	return func(r *http.Request) string {
		const bearer = "Bearer "
		value := r.Header.Get("Authorization")
		if !strings.HasPrefix(value, bearer) {
			return ""
		}
		return value[len(bearer):]
	}
}

// Guard resolves the request's guard state and stores the Resolution in
// the context for downstream handlers, Anonymous included. Infrastructure
// failures fail closed with 503: the request is denied, not treated as
// unauthenticated.
func Guard(engine *guardkit.Engine, extract TokenExtractor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := engine.Resolve(r.Context(), extract(r))
			if err != nil {
				http.Error(w, "service unavailable", http.StatusServiceUnavailable)
				return
			}

			ctx := context.WithValue(r.Context(), resolutionContextKey{}, res)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Require rejects requests whose resolved state is below minimum. It must
// run inside Guard.
func Require(minimum guardkit.GuardState) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, ok := ResolutionFromContext(r.Context())
			if !ok || res.State < minimum {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
