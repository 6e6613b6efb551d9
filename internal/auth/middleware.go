package auth

import (
	"context"
	"net/http"

	"github.com/sakif/comicshelf/internal/model"
)

// contextKey is unexported so only this package can read or write the
// authenticated user in a request context.
type contextKey string

const userKey contextKey = "user"

// SessionVerifier resolves a session cookie value to its user.
// An absent, unknown, or expired session returns an error; the middleware
// treats all of those identically as anonymous.
type SessionVerifier interface {
	UserForSession(ctx context.Context, sessionID string) (*model.User, error)
}

// RequireAuth blocks requests that do not carry a valid session with a 401.
// Expired sessions are indistinguishable from missing ones — both degrade
// to anonymous, and anonymous is rejected here.
func RequireAuth(sessions SessionVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := resolveUser(r, sessions)
			if !ok {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"unauthenticated","message":"login required"}`))
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
		})
	}
}

// OptionalAuth attaches the user to the context when a valid session is
// present but never blocks the request. Used on routes like /api/me that
// answer differently for anonymous and authenticated callers.
func OptionalAuth(sessions SessionVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if user, ok := resolveUser(r, sessions); ok {
				r = r.WithContext(context.WithValue(r.Context(), userKey, user))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserFromContext returns the authenticated user, or (nil, false) for an
// anonymous request.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userKey).(*model.User)
	return user, ok && user != nil
}

func resolveUser(r *http.Request, sessions SessionVerifier) (*model.User, bool) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil, false
	}
	user, err := sessions.UserForSession(r.Context(), cookie.Value)
	if err != nil {
		return nil, false
	}
	return user, true
}
