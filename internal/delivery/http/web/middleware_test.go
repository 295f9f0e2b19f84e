package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/okarpov/tasktrack/internal/models"
	"github.com/okarpov/tasktrack/internal/services"
)

func TestNoCache_SensitivePaths(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(NoCache())
	ok := func(c *gin.Context) { c.String(http.StatusOK, "ok") }
	r.GET("/login", ok)
	r.GET("/tasks", ok)
	r.GET("/admin-dashboard", ok)
	r.GET("/metrics", ok)

	for _, path := range []string{"/login", "/tasks", "/admin-dashboard"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		r.ServeHTTP(w, req)

		if got := w.Header().Get("Cache-Control"); got != "no-store, no-cache, must-revalidate, max-age=0" {
			t.Fatalf("%s: unexpected Cache-Control %q", path, got)
		}
		if got := w.Header().Get("Pragma"); got != "no-cache" {
			t.Fatalf("%s: unexpected Pragma %q", path, got)
		}
		if got := w.Header().Get("Expires"); got != "0" {
			t.Fatalf("%s: unexpected Expires %q", path, got)
		}
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	r.ServeHTTP(w, req)
	if w.Header().Get("Cache-Control") != "" {
		t.Fatalf("/metrics must not get the no-cache headers")
	}
}

func TestRedirectIfAuthenticated(t *testing.T) {
	h := newTestHandler(&mockAuthService{}, &mockUserService{}, &mockTaskService{})

	cases := []struct {
		name string
		user *models.User
		want string
	}{
		{"regular user to tasks", regularUser(), "/tasks"},
		{"admin to dashboard", adminUser(), "/admin-dashboard"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter(t)
			r.GET("/login", asUser(tc.user), h.RedirectIfAuthenticated, h.HandleLoginPage)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/login", nil)
			r.ServeHTTP(w, req)

			if w.Code != http.StatusFound {
				t.Fatalf("expected 302, got %d", w.Code)
			}
			if loc := w.Header().Get("Location"); loc != tc.want {
				t.Fatalf("expected redirect to %s, got %q", tc.want, loc)
			}
		})
	}
}

func TestRedirectIfAuthenticated_Anonymous(t *testing.T) {
	h := newTestHandler(&mockAuthService{}, &mockUserService{}, &mockTaskService{})

	r := newTestRouter(t)
	r.GET("/login", h.RedirectIfAuthenticated, h.HandleLoginPage)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("anonymous visitor must see the login form, got %d", w.Code)
	}
}

func TestRequireAuthenticated_RedirectsToLogin(t *testing.T) {
	h := newTestHandler(&mockAuthService{}, &mockUserService{}, &mockTaskService{})

	r := newTestRouter(t)
	r.GET("/tasks", h.RequireAuthenticated, h.HandleTaskList)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/login" {
		t.Fatalf("expected redirect to /login, got %q", loc)
	}
}

func TestRequireAdmin_NonAdminFlashedAndRedirected(t *testing.T) {
	h := newTestHandler(&mockAuthService{}, &mockUserService{}, &mockTaskService{})

	r := newTestRouter(t)
	r.GET("/admin-dashboard", asUser(regularUser()), h.RequireAdmin, h.HandleAdminDashboard)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin-dashboard", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/admin-login" {
		t.Fatalf("expected redirect to /admin-login, got %q", loc)
	}
	if !strings.Contains(w.Header().Get("Set-Cookie"), flashCookie+"=") {
		t.Fatalf("expected an admin access required flash")
	}
}

func TestHandleCurrentUser_StaleCookieCleared(t *testing.T) {
	auth := &mockAuthService{
		resolveFunc: func(ctx context.Context, token, fingerprint string) (*models.User, *models.Session, error) {
			return nil, nil, services.ErrSessionExpired
		},
	}
	h := newTestHandler(auth, &mockUserService{}, &mockTaskService{})

	r := newTestRouter(t)
	r.Use(h.HandleCurrentUser)
	r.GET("/tasks", h.RequireAuthenticated, h.HandleTaskList)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: "expired-token"})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusFound {
		t.Fatalf("expected redirect for the expired session, got %d", w.Code)
	}
	if !strings.Contains(w.Header().Get("Set-Cookie"), sessionCookie+"=;") {
		t.Fatalf("expected the stale cookie to be cleared")
	}
}
