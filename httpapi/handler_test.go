package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/authgate/authgate"
	"github.com/authgate/authgate/middleware"
	"github.com/authgate/authgate/userstore"
	"github.com/redis/go-redis/v9"
)

type recordingNotifier struct {
	mu     sync.Mutex
	sent   []string
	failed bool
}

func (n *recordingNotifier) Send(_ context.Context, to, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failed {
		return fmt.Errorf("relay down")
	}
	n.sent = append(n.sent, body)
	return nil
}

func (n *recordingNotifier) bodies() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.sent...)
}

func newTestHandler(t *testing.T) (http.Handler, *recordingNotifier) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := authgate.DefaultConfig()
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1

	notifier := &recordingNotifier{}
	engine, err := authgate.New().
		WithConfig(cfg).
		WithRedis(client).
		WithUserStore(userstore.NewMemory()).
		WithNotifier(notifier).
		Build()
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}
	t.Cleanup(engine.Close)

	return Handler(engine), notifier
}

func postJSON(t *testing.T, handler http.Handler, path string, body map[string]string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookie {
			return c
		}
	}
	t.Fatal("expected a session cookie")
	return nil
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var out map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestRegister_DuplicateConflict(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec := postJSON(t, handler, "/auth/register", map[string]string{"username": "a@x.com", "password": "p1"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("first register: status = %d, want 201", rec.Code)
	}

	rec = postJSON(t, handler, "/auth/register", map[string]string{"username": "a@x.com", "password": "p2"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("duplicate register: status = %d, want 400", rec.Code)
	}

	// The original credential must still work.
	rec = postJSON(t, handler, "/auth/login", map[string]string{"username": "a@x.com", "password": "p1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login with original secret: status = %d, want 200", rec.Code)
	}
}

func TestLogin_SetsCookieAndGuardsDashboard(t *testing.T) {
	handler, _ := newTestHandler(t)

	postJSON(t, handler, "/auth/register", map[string]string{"username": "a@x.com", "password": "p1"})
	rec := postJSON(t, handler, "/auth/login", map[string]string{"username": "a@x.com", "password": "p1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: status = %d, want 200", rec.Code)
	}
	cookie := sessionCookie(t, rec)
	if !cookie.HttpOnly || cookie.SameSite != http.SameSiteStrictMode {
		t.Fatalf("cookie attributes: %+v", cookie)
	}

	req := httptest.NewRequest(http.MethodGet, "/auth/dashboard", nil)
	req.AddCookie(cookie)
	dash := httptest.NewRecorder()
	handler.ServeHTTP(dash, req)
	if dash.Code != http.StatusOK {
		t.Fatalf("dashboard: status = %d, want 200", dash.Code)
	}
	if got := decodeBody(t, dash)["username"]; got != "a@x.com" {
		t.Fatalf("dashboard username = %q", got)
	}

	noCookie := httptest.NewRecorder()
	handler.ServeHTTP(noCookie, httptest.NewRequest(http.MethodGet, "/auth/dashboard", nil))
	if noCookie.Code != http.StatusUnauthorized {
		t.Fatalf("dashboard without session: status = %d, want 401", noCookie.Code)
	}
}

func TestRelogin_SupersedesFirstSession(t *testing.T) {
	handler, _ := newTestHandler(t)

	postJSON(t, handler, "/auth/register", map[string]string{"username": "a@x.com", "password": "p1"})
	first := sessionCookie(t, postJSON(t, handler, "/auth/login", map[string]string{"username": "a@x.com", "password": "p1"}))
	postJSON(t, handler, "/auth/login", map[string]string{"username": "a@x.com", "password": "p1"})

	req := httptest.NewRequest(http.MethodGet, "/auth/dashboard", nil)
	req.AddCookie(first)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("superseded session: status = %d, want 401", rec.Code)
	}
}

func TestLogout_AlwaysSucceedsAndClearsCookie(t *testing.T) {
	handler, _ := newTestHandler(t)

	// Without any session.
	rec := postJSON(t, handler, "/auth/logout", map[string]string{})
	if rec.Code != http.StatusOK {
		t.Fatalf("logout without session: status = %d, want 200", rec.Code)
	}

	postJSON(t, handler, "/auth/register", map[string]string{"username": "a@x.com", "password": "p1"})
	cookie := sessionCookie(t, postJSON(t, handler, "/auth/login", map[string]string{"username": "a@x.com", "password": "p1"}))

	rec = postJSON(t, handler, "/auth/logout", map[string]string{}, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout: status = %d, want 200", rec.Code)
	}
	cleared := sessionCookie(t, rec)
	if cleared.Value != "" || cleared.MaxAge != -1 {
		t.Fatalf("cookie not cleared: %+v", cleared)
	}

	req := httptest.NewRequest(http.MethodGet, "/auth/dashboard", nil)
	req.AddCookie(cookie)
	dash := httptest.NewRecorder()
	handler.ServeHTTP(dash, req)
	if dash.Code != http.StatusUnauthorized {
		t.Fatalf("dashboard after logout: status = %d, want 401", dash.Code)
	}
}

func TestForgotPassword_UnknownUser(t *testing.T) {
	handler, notifier := newTestHandler(t)

	rec := postJSON(t, handler, "/auth/forgot-password", map[string]string{"username": "nobody"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if len(notifier.bodies()) != 0 {
		t.Fatal("notifier must not be called for unknown users")
	}
}

func TestForgotPassword_DeliveryFailure(t *testing.T) {
	handler, notifier := newTestHandler(t)

	postJSON(t, handler, "/auth/register", map[string]string{"username": "a@x.com", "password": "p1"})
	notifier.failed = true

	rec := postJSON(t, handler, "/auth/forgot-password", map[string]string{"username": "a@x.com"})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if got := decodeBody(t, rec)["message"]; got != "failed to send otp" {
		t.Fatalf("message = %q", got)
	}
}

// TestFullResetFlow walks the whole journey: register, login, wrong secret,
// forgot-password, reset, old secret rejected, new secret accepted.
func TestFullResetFlow(t *testing.T) {
	handler, notifier := newTestHandler(t)

	if rec := postJSON(t, handler, "/auth/register", map[string]string{"username": "a@x.com", "password": "p1"}); rec.Code != http.StatusCreated {
		t.Fatalf("register: status = %d, want 201", rec.Code)
	}

	if rec := postJSON(t, handler, "/auth/login", map[string]string{"username": "a@x.com", "password": "p1"}); rec.Code != http.StatusOK {
		t.Fatalf("login: status = %d, want 200", rec.Code)
	}

	if rec := postJSON(t, handler, "/auth/login", map[string]string{"username": "a@x.com", "password": "wrong"}); rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad login: status = %d, want 401", rec.Code)
	}

	forgot := postJSON(t, handler, "/auth/forgot-password", map[string]string{"username": "a@x.com"})
	if forgot.Code != http.StatusOK {
		t.Fatalf("forgot-password: status = %d, want 200", forgot.Code)
	}
	code := decodeBody(t, forgot)["code"]
	n, err := strconv.Atoi(code)
	if err != nil || n < 100000 || n > 999999 {
		t.Fatalf("code %q is not a 6-digit otp", code)
	}

	bodies := notifier.bodies()
	if len(bodies) != 1 {
		t.Fatalf("notifier calls = %d, want 1", len(bodies))
	}
	if !strings.Contains(bodies[0], code) {
		t.Fatalf("notifier body %q does not carry the code %q", bodies[0], code)
	}

	challengeCookie := sessionCookie(t, forgot)
	reset := postJSON(t, handler, "/auth/reset-password",
		map[string]string{"otp": code, "newPassword": "p2"}, challengeCookie)
	if reset.Code != http.StatusOK {
		t.Fatalf("reset-password: status = %d, want 200", reset.Code)
	}

	// Replaying the consumed code must fail.
	replay := postJSON(t, handler, "/auth/reset-password",
		map[string]string{"otp": code, "newPassword": "p3"}, challengeCookie)
	if replay.Code != http.StatusBadRequest {
		t.Fatalf("replay: status = %d, want 400", replay.Code)
	}

	if rec := postJSON(t, handler, "/auth/login", map[string]string{"username": "a@x.com", "password": "p1"}); rec.Code != http.StatusUnauthorized {
		t.Fatalf("old secret after reset: status = %d, want 401", rec.Code)
	}
	if rec := postJSON(t, handler, "/auth/login", map[string]string{"username": "a@x.com", "password": "p2"}); rec.Code != http.StatusOK {
		t.Fatalf("new secret after reset: status = %d, want 200", rec.Code)
	}
}

func TestResetPassword_WrongCodeLeavesCredential(t *testing.T) {
	handler, _ := newTestHandler(t)

	postJSON(t, handler, "/auth/register", map[string]string{"username": "a@x.com", "password": "p1"})
	forgot := postJSON(t, handler, "/auth/forgot-password", map[string]string{"username": "a@x.com"})
	code := decodeBody(t, forgot)["code"]
	cookie := sessionCookie(t, forgot)

	wrong := "123456"
	if wrong == code {
		wrong = "654321"
	}
	rec := postJSON(t, handler, "/auth/reset-password",
		map[string]string{"otp": wrong, "newPassword": "p2"}, cookie)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("wrong code: status = %d, want 400", rec.Code)
	}

	if rec := postJSON(t, handler, "/auth/login", map[string]string{"username": "a@x.com", "password": "p1"}); rec.Code != http.StatusOK {
		t.Fatalf("original secret must survive a failed reset, status = %d", rec.Code)
	}
}

func TestResetPassword_WithoutChallenge(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec := postJSON(t, handler, "/auth/reset-password", map[string]string{"otp": "123456", "newPassword": "p2"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
