package auth

import (
	"context"
	"net/http"
)

// contextKey is an unexported type used for context keys in this package.
// A package-private type means no other package can read or shadow the
// value by guessing the key string.
type contextKey string

const userIDKey contextKey = "userID"

// TokenCookie is the name of the HttpOnly cookie that carries the session
// token.
const TokenCookie = "token"

// RequireAuth is a middleware that enforces a valid session on protected
// routes.
//
// It reads the JWT from the TokenCookie cookie, validates it, and stores the
// user ID in the request context. Missing or invalid tokens get a 401 and
// the chain stops there.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(TokenCookie)
			if err != nil {
				unauthorized(w)
				return
			}
			userID, err := tokens.Validate(cookie.Value)
			if err != nil {
				unauthorized(w)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","message":"valid authentication required"}` + "\n"))
}

// WithUserID returns a copy of ctx carrying userID. RequireAuth uses it;
// handler tests use it to fake an authenticated request.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext retrieves the authenticated user's ID from the request
// context. Returns ("", false) if the request is anonymous.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}
