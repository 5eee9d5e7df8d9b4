package middleware

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const (
	SessionIDKey contextKey = "session_id"

	// SessionHeader identifies the shopper's cart and orders. It is not an
	// authenticated identity.
	SessionHeader = "X-Session-ID"

	maxSessionIDLength = 100
)

// SessionMiddleware lifts the session header into the request context.
// Requests without one pass through untouched; an oversized one is rejected.
func SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := strings.TrimSpace(r.Header.Get(SessionHeader))
		if sessionID == "" {
			next.ServeHTTP(w, r)
			return
		}
		if len(sessionID) > maxSessionIDLength {
			RespondWithError(w, http.StatusBadRequest, "session id is too long")
			return
		}

		ctx := context.WithValue(r.Context(), SessionIDKey, sessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetSessionID extracts the session id from the request context
func GetSessionID(ctx context.Context) (string, bool) {
	sessionID, ok := ctx.Value(SessionIDKey).(string)
	return sessionID, ok && sessionID != ""
}
