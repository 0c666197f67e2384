package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/stopfinder/backend/internal/session"
)

// ctxKey is a private type so context values set here cannot collide with
// other packages.
type ctxKey int

const sessionKey ctxKey = 0

// SessionFromContext returns the verified session placed in the context by
// RequireUser. The boolean is false on routes not behind the auth gate.
func SessionFromContext(ctx context.Context) (session.Session, bool) {
	s, ok := ctx.Value(sessionKey).(session.Session)
	return s, ok
}

// NewRequireUser returns a middleware that verifies the session cookie and
// stores the session in the request context. Requests without a valid
// session get 401 with a JSON body — every route here is an API route, so
// there is no redirect branch.
func NewRequireUser(mgr *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(session.CookieName)
			if err != nil {
				unauthorized(w)
				return
			}

			sess, err := mgr.Parse(cookie.Value)
			if err != nil {
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// NewCSRFGuard returns a middleware that rejects state-changing requests
// whose X-CSRF-Token header does not match the session's stored token.
// The check runs before the handler, so a rejected request never reaches
// the store. Safe methods pass through untouched.
//
// Wire it after NewRequireUser so the session is already in the context.
func NewCSRFGuard() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			sess, ok := SessionFromContext(r.Context())
			if !ok {
				unauthorized(w)
				return
			}

			token := r.Header.Get("X-CSRF-Token")
			if token == "" || token != sess.CSRFToken {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"success": false,
					"error":   "CSRF token missing or invalid",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   "authentication required",
	})
}
