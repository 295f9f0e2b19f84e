package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okarpov/tasktrack/internal/config"
	"github.com/okarpov/tasktrack/internal/delivery/http/web"
	"github.com/okarpov/tasktrack/internal/metrics"
	"github.com/okarpov/tasktrack/internal/services"
)

func MustListenAndServeHTTP() {
	cfg := config.Global()
	if cfg.Env != config.EnvLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	httpCfg := cfg.HTTP

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.LoadHTMLGlob(httpCfg.TemplatesGlob)
	registerRoutes(router)

	server := &http.Server{
		Addr:    net.JoinHostPort(httpCfg.Host, httpCfg.Port),
		Handler: router,
	}

	go func() {
		globalLogger.Info().
			Str("host", httpCfg.Host).
			Str("port", httpCfg.Port).
			Msg("setting up http server")
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			globalLogger.Error().
				Err(err).
				Msg("failed to listen and serve http")
			panic(err)
		}
	}()

	// Wait for the interrupt signal to gracefully
	// shut down the server with a timeout of 5 seconds.
	quit := make(chan os.Signal, 1)
	// kill (no params) by default sends syscall.SIGTERM
	// kill -2 is syscall.SIGINT
	// kill -9 is syscall.SIGKILL but can't be caught, so don't need to add it
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	globalLogger.Info().
		Msg("shutting down http server")

	ctx, cancel := context.WithTimeout(context.Background(), httpCfg.ShutdownTimeout)
	defer cancel()

	err := server.Shutdown(ctx)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to shutdown http server")
		panic(err)
	}
	globalLogger.Info().Msg("shut down http server")
}

func registerRoutes(router *gin.Engine) {
	sessionCfg := config.Global().Session

	authService := services.NewAuthService(
		globalLogger,
		globalPostgresPool,
		sessionCfg.Issuer,
		[]byte(sessionCfg.SigningKey),
		sessionCfg.TTL,
	)
	userService := services.NewUserService(globalLogger, globalPostgresPool)
	taskService := services.NewTaskService(globalLogger, globalPostgresPool)

	handler := web.New(globalLogger, authService, userService, taskService)

	router.Use(metrics.Middleware())
	router.Use(web.NoCache())
	router.Use(handler.HandleCurrentUser)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/login", handler.RedirectIfAuthenticated, handler.HandleLoginPage)
	router.POST("/login", handler.RedirectIfAuthenticated, handler.HandleLogin)
	router.GET("/register", handler.RedirectIfAuthenticated, handler.HandleRegisterPage)
	router.POST("/register", handler.RedirectIfAuthenticated, handler.HandleRegister)
	router.GET("/logout", handler.HandleLogout)

	authed := router.Group("", handler.RequireAuthenticated)
	authed.GET("/tasks", handler.HandleTaskList)
	authed.GET("/task/:id", handler.HandleTaskDetail)
	authed.GET("/task-create", handler.HandleTaskCreatePage)
	authed.POST("/task-create", handler.HandleTaskCreate)
	authed.GET("/task-update/:id", handler.HandleTaskUpdatePage)
	authed.POST("/task-update/:id", handler.HandleTaskUpdate)
	authed.GET("/task-delete/:id", handler.HandleTaskDeletePage)
	authed.POST("/task-delete/:id", handler.HandleTaskDelete)

	router.GET("/admin-login", handler.RedirectIfAuthenticated, handler.HandleAdminLoginPage)
	router.POST("/admin-login", handler.RedirectIfAuthenticated, handler.HandleAdminLogin)
	router.GET("/admin-logout", handler.HandleAdminLogout)

	admin := router.Group("", handler.RequireAdmin)
	admin.GET("/admin-dashboard", handler.HandleAdminDashboard)
	admin.GET("/admin-user/:id/edit", handler.HandleAdminUserEditPage)
	admin.POST("/admin-user/:id/edit", handler.HandleAdminUserEdit)
	admin.GET("/toggle-user-status/:id", handler.HandleToggleUserStatus)
	admin.POST("/toggle-user-status/:id", handler.HandleToggleUserStatus)
	admin.GET("/admin-register-user", handler.HandleAdminRegisterUserPage)
	admin.POST("/admin-register-user", handler.HandleAdminRegisterUser)
}
