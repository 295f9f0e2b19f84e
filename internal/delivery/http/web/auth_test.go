package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/okarpov/tasktrack/internal/models"
	"github.com/okarpov/tasktrack/internal/services"
)

func TestLogin_InvalidCredentialsUniformMessage(t *testing.T) {
	// Unknown user, wrong password and deactivated account all surface
	// through the same sentinel, so one handler test covers them.
	auth := &mockAuthService{
		authenticateFunc: func(ctx context.Context, username, password string) (*models.User, error) {
			return nil, services.ErrInvalidCredentials
		},
	}
	h := newTestHandler(auth, &mockUserService{}, &mockTaskService{})

	r := newTestRouter(t)
	r.POST("/login", h.HandleLogin)

	form := url.Values{}
	form.Set("username", "alice")
	form.Set("password", "whatever")
	w := postForm(r, "/login", form)

	if w.Code != http.StatusOK {
		t.Fatalf("expected re-rendered form, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Invalid username or password") {
		t.Fatalf("expected the uniform error message")
	}
	if !strings.Contains(w.Body.String(), `value="alice"`) {
		t.Fatalf("expected the username to be preserved")
	}
	if auth.createSessionCalls != 0 {
		t.Fatalf("no session may be created on failed login")
	}
}

func TestLogin_Success(t *testing.T) {
	auth := &mockAuthService{
		authenticateFunc: func(ctx context.Context, username, password string) (*models.User, error) {
			return regularUser(), nil
		},
	}
	h := newTestHandler(auth, &mockUserService{}, &mockTaskService{})

	r := newTestRouter(t)
	r.POST("/login", h.HandleLogin)

	form := url.Values{}
	form.Set("username", "alice")
	form.Set("password", "correct-password")
	w := postForm(r, "/login", form)

	if w.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/tasks" {
		t.Fatalf("expected redirect to /tasks, got %q", loc)
	}
	if auth.createSessionCalls != 1 {
		t.Fatalf("expected one session, got %d", auth.createSessionCalls)
	}
	if !strings.Contains(w.Header().Get("Set-Cookie"), sessionCookie+"=signed-token") {
		t.Fatalf("expected the session cookie to be set")
	}
}

func TestRegister_LogsInImmediately(t *testing.T) {
	auth := &mockAuthService{}
	users := &mockUserService{}
	h := newTestHandler(auth, users, &mockTaskService{})

	r := newTestRouter(t)
	r.POST("/register", h.HandleRegister)

	form := url.Values{}
	form.Set("username", "alice")
	form.Set("email", "alice@example.com")
	form.Set("password", "secret123")
	w := postForm(r, "/register", form)

	if w.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/tasks" {
		t.Fatalf("expected redirect to /tasks, got %q", loc)
	}
	if users.registerCalls != 1 {
		t.Fatalf("expected one register call, got %d", users.registerCalls)
	}
	if auth.createSessionCalls != 1 {
		t.Fatalf("registration must log the new user in")
	}
}

func TestRegister_InvalidEmail(t *testing.T) {
	users := &mockUserService{}
	h := newTestHandler(&mockAuthService{}, users, &mockTaskService{})

	r := newTestRouter(t)
	r.POST("/register", h.HandleRegister)

	form := url.Values{}
	form.Set("username", "alice")
	form.Set("email", "not-an-email")
	form.Set("password", "secret123")
	w := postForm(r, "/register", form)

	if w.Code != http.StatusOK {
		t.Fatalf("expected re-rendered form, got %d", w.Code)
	}
	if users.registerCalls != 0 {
		t.Fatalf("invalid email must not reach the service")
	}
	if !strings.Contains(w.Body.String(), "Enter a valid email address.") {
		t.Fatalf("expected the email field error")
	}
}

func TestLogout_DestroysSessionBeforeRedirect(t *testing.T) {
	auth := &mockAuthService{}
	h := newTestHandler(auth, &mockUserService{}, &mockTaskService{})

	r := newTestRouter(t)
	r.GET("/logout", asUser(regularUser()), h.HandleLogout)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/logout", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/login" {
		t.Fatalf("expected redirect to /login, got %q", loc)
	}
	if auth.destroyCalls != 1 {
		t.Fatalf("expected the session to be destroyed, got %d calls", auth.destroyCalls)
	}
}
