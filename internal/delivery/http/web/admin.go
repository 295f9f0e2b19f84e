package web

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/okarpov/tasktrack/internal/services"
)

type userEditForm struct {
	Username string `form:"username" binding:"required,max=150"`
	Email    string `form:"email" binding:"required,email,max=255"`
}

func (h *handlerImpl) HandleAdminLoginPage(c *gin.Context) {
	h.render(c, http.StatusOK, "admin_login.html", nil)
}

// HandleAdminLogin checks the admin flag before any session is created,
// so a valid non-admin credential never ends up half-authenticated.
func (h *handlerImpl) HandleAdminLogin(c *gin.Context) {
	var form loginForm
	err := c.ShouldBind(&form)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind admin login form")
		addFlash(c, flashError, "Access denied")
		c.Redirect(http.StatusFound, "/admin-login")
		return
	}

	user, err := h.auth.Authenticate(c, form.Username, form.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			addFlash(c, flashError, "Access denied")
			c.Redirect(http.StatusFound, "/admin-login")
			return
		}

		h.logger.Error().
			Err(err).
			Msg("failed to authenticate")
		h.renderServerError(c, "admin_login.html", gin.H{"username": form.Username})
		return
	}

	if !user.IsAdmin() {
		h.logger.Warn().
			Str("user_id", user.ID).
			Msg("non-admin rejected at admin login")
		addFlash(c, flashError, "Access denied")
		c.Redirect(http.StatusFound, "/admin-login")
		return
	}

	if err = h.startSession(c, user); err != nil {
		h.renderServerError(c, "admin_login.html", gin.H{"username": form.Username})
		return
	}

	c.Redirect(http.StatusFound, "/admin-dashboard")
}

func (h *handlerImpl) HandleAdminLogout(c *gin.Context) {
	h.endSession(c)
	c.Redirect(http.StatusFound, "/admin-login")
}

func (h *handlerImpl) HandleAdminDashboard(c *gin.Context) {
	search := c.Query("search_query")

	accounts, err := h.users.ListAccounts(c, search)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to list accounts")
		h.renderServerError(c, "admin_dashboard.html", nil)
		return
	}

	h.render(c, http.StatusOK, "admin_dashboard.html", gin.H{
		"accounts": accounts,
		"search":   search,
	})
}

func (h *handlerImpl) HandleAdminUserEditPage(c *gin.Context) {
	account, err := h.users.GetByID(c, c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			h.renderNotFound(c)
			return
		}

		h.logger.Error().
			Err(err).
			Msg("failed to get account")
		h.renderServerError(c, "admin_user_edit.html", nil)
		return
	}

	h.render(c, http.StatusOK, "admin_user_edit.html", gin.H{
		"account":  account,
		"username": account.Username,
		"email":    account.Email,
	})
}

func (h *handlerImpl) HandleAdminUserEdit(c *gin.Context) {
	accountID := c.Param("id")

	var form userEditForm
	err := c.ShouldBind(&form)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind user edit form")
		h.render(c, http.StatusOK, "admin_user_edit.html", gin.H{
			"errors":   formErrors(err),
			"username": form.Username,
			"email":    form.Email,
		})
		return
	}

	account, err := h.users.UpdateAccount(c, accountID, form.Username, form.Email)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			h.renderNotFound(c)
		case errors.Is(err, services.ErrEmailTaken):
			h.render(c, http.StatusOK, "admin_user_edit.html", gin.H{
				"error":    "This email is already used",
				"username": form.Username,
				"email":    form.Email,
			})
		case errors.Is(err, services.ErrUsernameTaken):
			h.render(c, http.StatusOK, "admin_user_edit.html", gin.H{
				"error":    "This username is already taken",
				"username": form.Username,
				"email":    form.Email,
			})
		default:
			h.logger.Error().
				Err(err).
				Str("user_id", accountID).
				Msg("failed to update account")
			h.renderServerError(c, "admin_user_edit.html", gin.H{
				"username": form.Username,
				"email":    form.Email,
			})
		}
		return
	}

	addFlash(c, flashSuccess, account.Username+" has been updated")
	c.Redirect(http.StatusFound, "/admin-dashboard")
}

func (h *handlerImpl) HandleToggleUserStatus(c *gin.Context) {
	account, err := h.users.ToggleActive(c, c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			h.renderNotFound(c)
			return
		}

		h.logger.Error().
			Err(err).
			Msg("failed to toggle account status")
		addFlash(c, flashError, "Could not change the account status")
		c.Redirect(http.StatusFound, "/admin-dashboard")
		return
	}

	if account.IsActive {
		addFlash(c, flashSuccess, account.Username+" has been activated")
	} else {
		addFlash(c, flashWarning, account.Username+" has been deactivated")
	}
	c.Redirect(http.StatusFound, "/admin-dashboard")
}

func (h *handlerImpl) HandleAdminRegisterUserPage(c *gin.Context) {
	h.render(c, http.StatusOK, "admin_register.html", nil)
}

// HandleAdminRegisterUser creates an account through the same service
// path as self-registration, so the staff and superuser flags are
// always false no matter what the form carried.
func (h *handlerImpl) HandleAdminRegisterUser(c *gin.Context) {
	var form registerForm
	err := c.ShouldBind(&form)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind register form")
		h.render(c, http.StatusOK, "admin_register.html", gin.H{
			"errors":   formErrors(err),
			"username": form.Username,
			"email":    form.Email,
		})
		return
	}

	account, err := h.users.Register(c, services.RegisterParams{
		Username: form.Username,
		Email:    form.Email,
		Password: form.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUsernameTaken):
			h.render(c, http.StatusOK, "admin_register.html", gin.H{
				"error":    "This username is already taken",
				"username": form.Username,
				"email":    form.Email,
			})
		case errors.Is(err, services.ErrEmailTaken):
			h.render(c, http.StatusOK, "admin_register.html", gin.H{
				"error":    "This email is already used",
				"username": form.Username,
				"email":    form.Email,
			})
		default:
			h.logger.Error().
				Err(err).
				Msg("failed to register user")
			h.renderServerError(c, "admin_register.html", gin.H{
				"username": form.Username,
				"email":    form.Email,
			})
		}
		return
	}

	addFlash(c, flashSuccess, "Created account for "+account.Username)
	c.Redirect(http.StatusFound, "/admin-dashboard")
}
