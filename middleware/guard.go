package middleware

import (
	"context"
	"net/http"

	"github.com/authgate/authgate"
)

// SessionCookie is the cookie carrying the session handle.
const SessionCookie = "authgate_sid"

type userContextKey struct{}

// UserFromContext returns the user injected by [Guard].
func UserFromContext(ctx context.Context) (authgate.UserRecord, bool) {
	user, ok := ctx.Value(userContextKey{}).(authgate.UserRecord)
	return user, ok
}

// Guard rejects requests without a valid current session. The session handle
// is read from the [SessionCookie] cookie; a missing, expired, or superseded
// handle yields 401 without reaching the wrapped handler.
func Guard(engine *authgate.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			cookie, err := r.Cookie(SessionCookie)
			if err != nil || cookie.Value == "" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			user, err := engine.Authenticate(r.Context(), cookie.Value)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey{}, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
