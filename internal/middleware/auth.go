package middleware

import (
	"context"
	"net/http"

	"github.com/dukerupert/taskchamp/internal/auth"
)

const SessionCookieName = "taskchamp_session"

// SessionResolver turns a session token into the signed-in identity.
type SessionResolver interface {
	Session(ctx context.Context, token string) (auth.AuthContext, error)
}

// RequireAuth validates the session cookie and populates AuthContext.
// HTMX-aware: returns HX-Redirect header instead of 303 redirect for HTMX requests.
func RequireAuth(sessions SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ac, ok := resolve(sessions, r)
			if !ok {
				redirectToLogin(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithAuth(r.Context(), ac)))
		})
	}
}

// RequireAPIAuth is RequireAuth for JSON endpoints: it answers 401 instead of redirecting.
func RequireAPIAuth(sessions SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ac, ok := resolve(sessions, r)
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithAuth(r.Context(), ac)))
		})
	}
}

// OptionalAuth populates AuthContext when a valid session cookie is present
// and passes the request through either way.
func OptionalAuth(sessions SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ac, ok := resolve(sessions, r); ok {
				r = r.WithContext(auth.WithAuth(r.Context(), ac))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func resolve(sessions SessionResolver, r *http.Request) (auth.AuthContext, bool) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return auth.AuthContext{}, false
	}
	ac, err := sessions.Session(r.Context(), cookie.Value)
	if err != nil {
		return auth.AuthContext{}, false
	}
	return ac, true
}

func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", "/login")
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
