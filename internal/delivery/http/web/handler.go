package web

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/okarpov/tasktrack/internal/services"
)

type Handler interface {
	HandleCurrentUser(c *gin.Context)
	RedirectIfAuthenticated(c *gin.Context)
	RequireAuthenticated(c *gin.Context)
	RequireAdmin(c *gin.Context)

	HandleLoginPage(c *gin.Context)
	HandleLogin(c *gin.Context)
	HandleRegisterPage(c *gin.Context)
	HandleRegister(c *gin.Context)
	HandleLogout(c *gin.Context)

	HandleTaskList(c *gin.Context)
	HandleTaskDetail(c *gin.Context)
	HandleTaskCreatePage(c *gin.Context)
	HandleTaskCreate(c *gin.Context)
	HandleTaskUpdatePage(c *gin.Context)
	HandleTaskUpdate(c *gin.Context)
	HandleTaskDeletePage(c *gin.Context)
	HandleTaskDelete(c *gin.Context)

	HandleAdminLoginPage(c *gin.Context)
	HandleAdminLogin(c *gin.Context)
	HandleAdminLogout(c *gin.Context)
	HandleAdminDashboard(c *gin.Context)
	HandleAdminUserEditPage(c *gin.Context)
	HandleAdminUserEdit(c *gin.Context)
	HandleToggleUserStatus(c *gin.Context)
	HandleAdminRegisterUserPage(c *gin.Context)
	HandleAdminRegisterUser(c *gin.Context)
}

type handlerImpl struct {
	logger zerolog.Logger
	auth   services.AuthService
	users  services.UserService
	tasks  services.TaskService
}

func New(
	logger zerolog.Logger,
	authService services.AuthService,
	userService services.UserService,
	taskService services.TaskService,
) Handler {
	return &handlerImpl{
		logger: logger,
		auth:   authService,
		users:  userService,
		tasks:  taskService,
	}
}
