// SPDX-License-Identifier: MIT
// Grounded on server/server.go's setupMiddleware chain (RequestID,
// RealIP, Logger, Recoverer, CORS, a security-headers middleware),
// trimmed to the pieces that generalize to a JSON-only control surface:
// dropped are the teacher's HTML-page concerns (urlvars resolution, URL
// normalization, path security, extension stripping) which have no
// analogue here, plus a Content-Type/bearer-token pair the teacher
// doesn't need since its admin surface is cookie-session-based.
package httpapi

import (
	"context"
	"net/http"
	"strings"
)

type contextKey int

const tokenContextKey contextKey = iota

// tokenHeader is the header name holding the bearer token, per
// spec.md §6 ("bearer token in a request header, name is
// configuration"). The daemon's default is fixed here; a future
// configuration layer may override it at router construction time.
const tokenHeader = "Authorization"

// securityHeaders sets the four defensive headers the teacher's
// chain sets unconditionally on every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "SAMEORIGIN")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// requireJSON enforces spec.md §6's "Content-Type: application/json
// required (else 415)" rule on every request carrying a body.
func requireJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 {
			ct := r.Header.Get("Content-Type")
			if !strings.HasPrefix(ct, "application/json") {
				writeJSON(w, http.StatusUnsupportedMediaType, APIResponse{OK: false, Error: "UNSUPPORTED_MEDIA_TYPE", Message: "Content-Type: application/json required"})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// extractToken pulls the bearer token (if any) off the configured
// header and stashes it in the request context; CoreFacade itself
// resolves "" to InvalidToken, so this middleware never rejects.
func extractToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		value := r.Header.Get(tokenHeader)
		value = strings.TrimPrefix(value, "Bearer ")
		ctx := context.WithValue(r.Context(), tokenContextKey, value)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func tokenFromContext(r *http.Request) string {
	v, _ := r.Context().Value(tokenContextKey).(string)
	return v
}
