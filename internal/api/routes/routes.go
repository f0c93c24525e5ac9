package routes

import (
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"store-admin/internal/api/handlers"
	"store-admin/internal/api/middleware"
	"store-admin/internal/models"
	"store-admin/internal/services"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, svc *services.Services, logger *slog.Logger) {
	cfg := svc.Config
	cookie := cfg.Session.CookieName

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(svc.Auth, svc.Tokens, cfg)
	userHandler := handlers.NewUserHandler(svc.Auth)
	accountHandler := handlers.NewAccountHandler(svc.Auth)
	auditHandler := handlers.NewAuditHandler(svc.Auth)
	monitoringHandler := handlers.NewMonitoringHandler(svc.Directory, svc.KV)

	// Middleware
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORSMiddleware(cfg.CORS.AllowedOrigins))

	// Public routes
	api := r.Group("/api")
	{
		api.GET("/health", monitoringHandler.Health)

		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
		}
	}

	// Protected routes
	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(svc.Auth, svc.Tokens, cookie))
	{
		protected.GET("/auth/me", authHandler.GetMe)
		protected.POST("/auth/activity", authHandler.Activity)

		account := protected.Group("/account")
		{
			account.POST("/password", accountHandler.ChangePassword)
			account.POST("/profile", accountHandler.UpdateProfile)
		}

		users := protected.Group("/admin-users", middleware.RequireRole(models.RoleSuperadmin))
		{
			users.GET("", userHandler.GetUsers)
			users.POST("", userHandler.CreateUser)
			users.PUT("/:id", userHandler.UpdateUser)
			users.POST("/:id/password", userHandler.ResetPassword)
			users.DELETE("/:id", userHandler.DeleteUser)
		}

		logs := protected.Group("/audit-logs", middleware.RequireRole(models.RoleSuperadmin))
		{
			logs.GET("", auditHandler.GetLogs)
			logs.GET("/recent", auditHandler.GetRecent)
			logs.POST("/delete-bulk", auditHandler.DeleteBulk)
		}
	}

	setupFrontend(r, svc, cfg.Server.FrontendDir)
}

// setupFrontend serves the admin SPA. Admin views pass the view guard
// before index.html is returned.
func setupFrontend(r *gin.Engine, svc *services.Services, frontendDir string) {
	r.NoRoute(middleware.ViewGuard(svc.Auth, svc.Tokens, svc.Config.Session.CookieName), func(c *gin.Context) {
		// Check if it's an API route
		p := c.Request.URL.Path
		if p == "/api" || strings.HasPrefix(p, "/api/") {
			c.JSON(404, gin.H{"error": "API endpoint not found"})
			return
		}

		if file := filepath.Join(frontendDir, filepath.FromSlash(path.Clean(p))); isFile(file) {
			c.File(file)
			return
		}

		index := filepath.Join(frontendDir, "index.html")
		if !isFile(index) {
			c.JSON(404, gin.H{"error": "Frontend not built"})
			return
		}
		// SPA fallback
		c.File(index)
	})
}

func isFile(name string) bool {
	info, err := os.Stat(name)
	return err == nil && !info.IsDir()
}
