package web

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/okarpov/tasktrack/internal/models"
	"github.com/okarpov/tasktrack/internal/services"
)

type loginForm struct {
	Username string `form:"username" binding:"required,max=150"`
	Password string `form:"password" binding:"required,max=255"`
}

type registerForm struct {
	Username string `form:"username" binding:"required,max=150"`
	Email    string `form:"email" binding:"required,email,max=255"`
	Password string `form:"password" binding:"required,min=6,max=255"`
}

func (h *handlerImpl) HandleLoginPage(c *gin.Context) {
	h.render(c, http.StatusOK, "login.html", nil)
}

func (h *handlerImpl) HandleLogin(c *gin.Context) {
	var form loginForm
	err := c.ShouldBind(&form)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind login form")
		h.render(c, http.StatusOK, "login.html", gin.H{
			"errors":   formErrors(err),
			"username": form.Username,
		})
		return
	}

	user, err := h.auth.Authenticate(c, form.Username, form.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			h.render(c, http.StatusOK, "login.html", gin.H{
				"error":    "Invalid username or password",
				"username": form.Username,
			})
			return
		}

		h.logger.Error().
			Err(err).
			Msg("failed to authenticate")
		h.renderServerError(c, "login.html", gin.H{"username": form.Username})
		return
	}

	if err = h.startSession(c, user); err != nil {
		h.renderServerError(c, "login.html", gin.H{"username": form.Username})
		return
	}

	c.Redirect(http.StatusFound, "/tasks")
}

func (h *handlerImpl) HandleRegisterPage(c *gin.Context) {
	h.render(c, http.StatusOK, "register.html", nil)
}

func (h *handlerImpl) HandleRegister(c *gin.Context) {
	var form registerForm
	err := c.ShouldBind(&form)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind register form")
		h.render(c, http.StatusOK, "register.html", gin.H{
			"errors":   formErrors(err),
			"username": form.Username,
			"email":    form.Email,
		})
		return
	}

	user, err := h.users.Register(c, services.RegisterParams{
		Username: form.Username,
		Email:    form.Email,
		Password: form.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUsernameTaken):
			h.render(c, http.StatusOK, "register.html", gin.H{
				"error":    "This username is already taken",
				"username": form.Username,
				"email":    form.Email,
			})
		case errors.Is(err, services.ErrEmailTaken):
			h.render(c, http.StatusOK, "register.html", gin.H{
				"error":    "This email is already used",
				"username": form.Username,
				"email":    form.Email,
			})
		default:
			h.logger.Error().
				Err(err).
				Msg("failed to register user")
			h.renderServerError(c, "register.html", gin.H{
				"username": form.Username,
				"email":    form.Email,
			})
		}
		return
	}

	// A fresh account is logged in right away.
	if err = h.startSession(c, user); err != nil {
		c.Redirect(http.StatusFound, "/login")
		return
	}

	c.Redirect(http.StatusFound, "/tasks")
}

func (h *handlerImpl) HandleLogout(c *gin.Context) {
	h.endSession(c)
	c.Redirect(http.StatusFound, "/login")
}

func (h *handlerImpl) startSession(c *gin.Context, user *models.User) error {
	fingerprint, err := generateFingerprint(c)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to generate fingerprint")
		return err
	}

	token, err := h.auth.CreateSession(c, user, fingerprint)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("user_id", user.ID).
			Msg("failed to create session")
		return err
	}

	setSessionCookie(c, token.Token, time.Until(token.ExpiresAt))
	return nil
}

// endSession destroys the session synchronously before any redirect.
func (h *handlerImpl) endSession(c *gin.Context) {
	if session, ok := currentSession(c); ok {
		if err := h.auth.DestroySession(c, session.ID); err != nil {
			h.logger.Error().
				Err(err).
				Str("session_id", session.ID).
				Msg("failed to destroy session")
		}
	}
	clearSessionCookie(c)
}
