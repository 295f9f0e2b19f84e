package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/okarpov/tasktrack/internal/models"
)

const sessionCookie = "session_token"

const (
	currentUserCtxKey    = "current_user"
	currentSessionCtxKey = "current_session"
)

// noCachePaths are the sensitive pages the browser must never serve
// from cache, so the back button can't show them after logout.
var noCachePaths = []string{
	"/login",
	"/register",
	"/tasks",
	"/admin-login",
	"/admin-dashboard",
}

func NoCache() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, p := range noCachePaths {
			if strings.HasPrefix(path, p) {
				c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
				c.Header("Pragma", "no-cache")
				c.Header("Expires", "0")
				break
			}
		}
		c.Next()
	}
}

// HandleCurrentUser resolves the session cookie on every request. The
// decision is never carried over from a previous request.
func (h *handlerImpl) HandleCurrentUser(c *gin.Context) {
	token, err := c.Cookie(sessionCookie)
	if err != nil || token == "" {
		c.Next()
		return
	}

	fingerprint, err := generateFingerprint(c)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to generate fingerprint")
		c.Next()
		return
	}

	user, session, err := h.auth.ResolveSession(c, token, fingerprint)
	if err != nil {
		h.logger.Debug().
			Err(err).
			Msg("stale session cookie")
		clearSessionCookie(c)
		c.Next()
		return
	}

	c.Set(currentUserCtxKey, user)
	c.Set(currentSessionCtxKey, session)
	c.Next()
}

// RedirectIfAuthenticated keeps logged-in users away from the login and
// registration pages, sending them to their dashboard instead.
func (h *handlerImpl) RedirectIfAuthenticated(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.Next()
		return
	}

	if user.IsAdmin() {
		c.Redirect(http.StatusFound, "/admin-dashboard")
	} else {
		c.Redirect(http.StatusFound, "/tasks")
	}
	c.Abort()
}

func (h *handlerImpl) RequireAuthenticated(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		c.Redirect(http.StatusFound, "/login")
		c.Abort()
		return
	}
	c.Next()
}

// RequireAdmin composes RequireAuthenticated with the staff-or-superuser
// predicate. Failures are redirected, never answered with a bare 403.
func (h *handlerImpl) RequireAdmin(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.Redirect(http.StatusFound, "/login")
		c.Abort()
		return
	}

	if !user.IsAdmin() {
		h.logger.Warn().
			Str("user_id", user.ID).
			Str("path", c.Request.URL.Path).
			Msg("admin access denied")
		addFlash(c, flashError, "Admin access required")
		c.Redirect(http.StatusFound, "/admin-login")
		c.Abort()
		return
	}
	c.Next()
}

func currentUser(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(currentUserCtxKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok
}

func currentSession(c *gin.Context) (*models.Session, bool) {
	value, exists := c.Get(currentSessionCtxKey)
	if !exists {
		return nil, false
	}
	session, ok := value.(*models.Session)
	return session, ok
}

func generateFingerprint(c *gin.Context) (string, error) {
	fingerprintBytes, err := json.Marshal(map[string]string{
		"client_ip":  c.ClientIP(),
		"user_agent": c.Request.UserAgent(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal json: %w", err)
	}
	return string(fingerprintBytes), nil
}

func setSessionCookie(c *gin.Context, token string, maxAge time.Duration) {
	const secure, httpOnly = false, true
	c.SetCookie(sessionCookie, token, int(maxAge.Seconds()),
		"/", "", secure, httpOnly)
}

func clearSessionCookie(c *gin.Context) {
	c.SetCookie(sessionCookie, "", -1,
		"/", "", false, true)
}
