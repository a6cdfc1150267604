package mw

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/stashspark/stashspark/internal/logger"
)

// SessionCookie is the browser cookie carrying the session id.
const SessionCookie = "sessionId"

// SessionResolver maps a session id to a user id.
type SessionResolver interface {
	Resolve(ctx context.Context, id string) (int64, error)
}

type ctxKey int

const userIDKey ctxKey = iota

// UserID returns the authenticated user id stored by RequireAuth.
// Zero means the request never passed through RequireAuth.
func UserID(ctx context.Context) int64 {
	id, _ := ctx.Value(userIDKey).(int64)
	return id
}

// WithUserID injects a user id into the context. Exposed for handler
// tests that bypass the middleware.
func WithUserID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// RequireAuth rejects requests without a live session and stores the
// resolved user id in the request context.
func RequireAuth(sessions SessionResolver, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookie)
			if err != nil {
				unauthorized(w, "not logged in")
				return
			}

			userID, err := sessions.Resolve(r.Context(), cookie.Value)
			if err != nil {
				log.Debug("session rejected", logger.Error(err))
				unauthorized(w, "session expired, please login again")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
