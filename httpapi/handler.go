package httpapi

import (
	"context"
	"net"
	"net/http"

	"github.com/authgate/authgate"
	"github.com/authgate/authgate/middleware"
)

// Handler mounts the auth routes on a fresh mux:
//
//	POST /auth/register        {username, password} → 201
//	POST /auth/login           {username, password} → 200 + session cookie
//	POST /auth/logout          → 200, clears the cookie
//	POST /auth/forgot-password {username} → 200 + challenge session cookie
//	POST /auth/reset-password  {otp, newPassword} → 200
//	GET  /auth/dashboard       → 200 user view, session required
func Handler(engine *authgate.Engine) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/register", registerHandler(engine))
	mux.HandleFunc("POST /auth/login", loginHandler(engine))
	mux.HandleFunc("POST /auth/logout", logoutHandler(engine))
	mux.HandleFunc("POST /auth/forgot-password", forgotPasswordHandler(engine))
	mux.HandleFunc("POST /auth/reset-password", resetPasswordHandler(engine))

	dashboard := middleware.Guard(engine)(http.HandlerFunc(dashboardHandler))
	mux.Handle("GET /auth/dashboard", dashboard)

	return mux
}

func registerHandler(engine *authgate.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if !decodeJSON(w, r, &body) {
			return
		}

		if _, err := engine.Register(requestContext(r), body.Username, body.Password); err != nil {
			writeError(w, err)
			return
		}
		writeMessage(w, http.StatusCreated, "registered")
	}
}

func loginHandler(engine *authgate.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if !decodeJSON(w, r, &body) {
			return
		}

		result, err := engine.Login(requestContext(r), body.Username, body.Password)
		if err != nil {
			writeError(w, err)
			return
		}

		setSessionCookie(w, r, result.SessionID)
		writeJSON(w, http.StatusOK, map[string]string{
			"message": "logged in",
			"session": result.SessionID,
		})
	}
}

func logoutHandler(engine *authgate.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := ""
		if cookie, err := r.Cookie(middleware.SessionCookie); err == nil {
			sessionID = cookie.Value
		}

		// Logout never fails; a missing cookie is a no-op.
		_ = engine.Logout(requestContext(r), sessionID)

		clearSessionCookie(w, r)
		writeMessage(w, http.StatusOK, "logged out")
	}
}

func forgotPasswordHandler(engine *authgate.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Username string `json:"username"`
		}
		if !decodeJSON(w, r, &body) {
			return
		}

		sessionID := ""
		if cookie, err := r.Cookie(middleware.SessionCookie); err == nil {
			sessionID = cookie.Value
		}

		challenge, err := engine.RequestPasswordReset(requestContext(r), sessionID, body.Username)
		if err != nil {
			writeError(w, err)
			return
		}

		// The challenge may live on a freshly minted session; hand the caller
		// its handle so reset-password finds the pending code.
		setSessionCookie(w, r, challenge.SessionID)
		writeJSON(w, http.StatusOK, map[string]string{
			"message": "otp sent",
			"code":    challenge.Code,
		})
	}
}

func resetPasswordHandler(engine *authgate.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			OTP         string `json:"otp"`
			NewPassword string `json:"newPassword"`
		}
		if !decodeJSON(w, r, &body) {
			return
		}

		sessionID := ""
		if cookie, err := r.Cookie(middleware.SessionCookie); err == nil {
			sessionID = cookie.Value
		}

		if err := engine.ConfirmPasswordReset(requestContext(r), sessionID, body.OTP, body.NewPassword); err != nil {
			writeError(w, err)
			return
		}
		writeMessage(w, http.StatusOK, "password reset")
	}
}

func dashboardHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"username": user.Identifier,
		"user_id":  user.UserID,
	})
}

func requestContext(r *http.Request) context.Context {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return authgate.WithClientIP(r.Context(), host)
}

func setSessionCookie(w http.ResponseWriter, r *http.Request, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})
}

func clearSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})
}
