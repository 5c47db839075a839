package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"trainerdash/internal/domain/session"
)

var testNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func restorer(sessions map[string]session.Session) SessionRestorer {
	return func(_ context.Context, id string) (session.Session, error) {
		s, ok := sessions[id]
		if !ok {
			return session.Session{}, session.ErrNotFound
		}
		return s, nil
	}
}

func withCookie(r *http.Request, value string) *http.Request {
	r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: value})
	return r
}

// TestAuth_RestoresSession verifies a known cookie puts the session in context.
func TestAuth_RestoresSession(t *testing.T) {
	want := session.Session{ID: "sid", User: session.User{ID: 3, Role: session.RoleTrainer}}
	var got session.Session
	var ok bool
	h := Auth(restorer(map[string]session.Session{"sid": want}))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = GetSessionFromContext(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), withCookie(httptest.NewRequest("GET", "/dashboard", nil), "sid"))
	if !ok || got.User.ID != 3 {
		t.Errorf("session = %+v, %v", got, ok)
	}
}

// TestAuth_UnknownCookieCleared verifies a stale cookie is removed and the request continues.
func TestAuth_UnknownCookieCleared(t *testing.T) {
	called := false
	h := Auth(restorer(nil))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if _, ok := GetSessionFromContext(r.Context()); ok {
			t.Error("unexpected session")
		}
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, withCookie(httptest.NewRequest("GET", "/login", nil), "gone"))
	if !called {
		t.Fatal("next handler not called")
	}
	cookies := rr.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 {
		t.Errorf("cookie not cleared: %+v", cookies)
	}
}

// TestAuth_StoreErrorKeepsCookie verifies a failing store does not log the user out.
func TestAuth_StoreErrorKeepsCookie(t *testing.T) {
	failing := func(context.Context, string) (session.Session, error) { return session.Session{}, errors.New("disk") }
	rr := httptest.NewRecorder()
	Auth(failing)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).
		ServeHTTP(rr, withCookie(httptest.NewRequest("GET", "/dashboard", nil), "sid"))
	if len(rr.Result().Cookies()) != 0 {
		t.Error("cookie should not be touched on a store error")
	}
}

// TestRequireAuth verifies pages redirect and API calls get 401.
func TestRequireAuth(t *testing.T) {
	h := RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	tests := []struct {
		path string
		want int
	}{
		{"/dashboard", http.StatusSeeOther},
		{"/api/routines", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest("GET", tt.path, nil))
		if rr.Code != tt.want {
			t.Errorf("%s: status = %d, want %d", tt.path, rr.Code, tt.want)
		}
	}
}

// TestRequireAdmin verifies trainers are forbidden and admins pass.
func TestRequireAdmin(t *testing.T) {
	h := RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	tests := []struct {
		role string
		want int
	}{
		{session.RoleTrainer, http.StatusForbidden},
		{session.RoleAdmin, http.StatusOK},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("GET", "/api/admin/audit", nil)
		r = r.WithContext(ContextWithSession(r.Context(), session.Session{User: session.User{Role: tt.role}}))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, r)
		if rr.Code != tt.want {
			t.Errorf("%s: status = %d, want %d", tt.role, rr.Code, tt.want)
		}
	}
}

// TestSetSessionCookie_MaxAge verifies the cookie expires with the session.
func TestSetSessionCookie_MaxAge(t *testing.T) {
	rr := httptest.NewRecorder()
	SetSessionCookie(rr, session.Session{ID: "sid", ExpiresAt: testNow.Add(2 * time.Hour)}, testNow)
	c := rr.Result().Cookies()[0]
	if c.Value != "sid" || c.MaxAge != 7200 || !c.HttpOnly {
		t.Errorf("cookie = %+v", c)
	}
}

// TestRateLimit verifies the bucket empties per client address.
func TestRateLimit(t *testing.T) {
	h := RateLimit(NewRateLimiter(2, time.Hour))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		r := httptest.NewRequest("GET", "/api/me", nil)
		r.RemoteAddr = "10.0.0.1:" + string(rune('1'+i)) + "000"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, r)
		codes = append(codes, rr.Code)
	}
	if codes[0] != 200 || codes[1] != 200 || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v", codes)
	}
}
