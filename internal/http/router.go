package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pomodoro-api/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	authH *AuthHandler,
	profileH *ProfileHandler,
	sessionH *SessionHandler,
	projectH *ProjectHandler,
	taskH *TaskHandler,
	jwtSvc *service.JWTService,
) *gin.Engine {
	r := gin.New()

	// Middlewares básicos: logging, recovery y JSON content-type.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), jsonContentTypeMiddleware())

	auth := r.Group("/auth")
	auth.POST("/register", authH.Register)
	auth.POST("/verify-otp", authH.VerifyOTP)
	auth.POST("/forgot-password", authH.ForgotPassword)
	auth.POST("/reset-password", authH.ResetPassword)
	auth.POST("/login", authH.Login)
	auth.POST("/refresh", authH.RefreshToken)
	auth.POST("/logout", authH.Logout)

	api := r.Group("", JWTAuthMiddleware(jwtSvc))
	api.GET("/me", profileH.Me)
	api.PUT("/me/profile", profileH.CompleteProfile)
	api.DELETE("/me", profileH.DeleteAccount)

	api.POST("/sessions", sessionH.CreateSession)
	api.GET("/sessions", sessionH.ListSessions)

	api.GET("/projects", projectH.ListProjects)
	api.POST("/projects", projectH.CreateProject)
	api.PUT("/projects/:id", projectH.UpdateProject)
	api.DELETE("/projects/:id", projectH.DeleteProject)

	api.GET("/tags", projectH.ListTags)
	api.POST("/tags", projectH.CreateTag)
	api.PUT("/tags/:id", projectH.UpdateTag)
	api.DELETE("/tags/:id", projectH.DeleteTag)

	api.GET("/tasks", taskH.ListTasks)
	api.GET("/tasks/:id", taskH.GetTask)
	api.POST("/tasks", taskH.CreateTask)
	api.PUT("/tasks/:id", taskH.UpdateTask)
	api.DELETE("/tasks/:id", taskH.DeleteTask)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
