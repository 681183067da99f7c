package routes

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "authsvc/docs"
	"authsvc/internal/handlers"
	"authsvc/internal/metrics"
	"authsvc/internal/middleware"
	"authsvc/internal/models"
)

// Static configures serving of the built frontend. Empty Dir disables it.
type Static struct {
	Dir string
}

func SetupRoutes(
	r *gin.Engine,
	authHandler *handlers.AuthHandler,
	healthHandler *handlers.HealthHandler,
	sessions middleware.SessionAuthenticator,
	m *metrics.Metrics,
	static Static,
) *gin.Engine {
	// ---- system
	r.GET("/healthz", healthHandler.Healthz)
	r.GET("/metrics", gin.WrapH(m.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// ---- auth
	auth := r.Group("/api/auth")
	{
		auth.POST("/signup", authHandler.Signup)
		auth.POST("/verify-email", authHandler.VerifyEmail)
		auth.POST("/login", authHandler.Login)
		auth.POST("/logout", authHandler.Logout)
		auth.POST("/forgot-password", authHandler.ForgotPassword)
		auth.POST("/reset-password/:token", authHandler.ResetPassword)
		auth.GET("/check-auth", middleware.RequireSession(sessions), authHandler.CheckAuth)
	}

	r.NoRoute(frontendFallback(static.Dir))
	return r
}

// frontendFallback serves files from dir and index.html for client-side routes.
// API paths and disabled static serving get the JSON 404.
func frontendFallback(dir string) gin.HandlerFunc {
	notFound := func(c *gin.Context) {
		c.JSON(http.StatusNotFound, models.Response{Success: false, Message: "Not found"})
	}
	if dir == "" {
		return notFound
	}
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/api/") || c.Request.Method != http.MethodGet {
			notFound(c)
			return
		}
		file := filepath.Join(dir, filepath.Clean("/"+path))
		if fi, err := os.Stat(file); err == nil && !fi.IsDir() {
			c.File(file)
			return
		}
		c.File(filepath.Join(dir, "index.html"))
	}
}
