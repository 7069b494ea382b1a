package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/flexible-healthcare/training-service/internal/models"
	"github.com/flexible-healthcare/training-service/internal/services"
	"github.com/flexible-healthcare/training-service/internal/utils"
)

const serviceName = "training-service"

type HandlerManager struct {
	authHandler         *AuthHandler
	moduleHandler       *ModuleHandler
	progressHandler     *ProgressHandler
	notificationHandler *NotificationHandler
	certificateHandler  *CertificateHandler
	profileHandler      *ProfileHandler
	learnerHandler      *LearnerHandler
	dashboardHandler    *DashboardHandler
	authMiddleware      *SessionAuthMiddleware
	authRateLimit       gin.HandlerFunc
	health              func(ctx context.Context) error
	logger              utils.Logger
}

// NewHandlerManager wires handlers to an initialized service manager. limiter may be nil.
func NewHandlerManager(serviceManager services.ServiceManager, limiter RateLimiter, logger utils.Logger) *HandlerManager {
	return &HandlerManager{
		authHandler:         NewAuthHandler(serviceManager.Auth(), logger),
		moduleHandler:       NewModuleHandler(serviceManager.Catalog(), serviceManager.Progress(), logger),
		progressHandler:     NewProgressHandler(serviceManager.Progress(), logger),
		notificationHandler: NewNotificationHandler(serviceManager.Notification(), logger),
		certificateHandler:  NewCertificateHandler(serviceManager.Certificate(), logger),
		profileHandler:      NewProfileHandler(serviceManager.Profile(), logger),
		learnerHandler:      NewLearnerHandler(serviceManager.Goal(), serviceManager.Favorite(), serviceManager.Achievement(), logger),
		dashboardHandler:    NewDashboardHandler(serviceManager.Dashboard(), logger),
		authMiddleware:      NewSessionAuthMiddleware(serviceManager.Auth(), logger),
		authRateLimit:       RateLimitMiddleware(limiter, logger),
		health:              serviceManager.Health,
		logger:              logger,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", hm.HealthCheck)

	v1 := router.Group("/api/v1")

	// Session routes read the bearer token themselves
	auth := v1.Group("/auth")
	{
		auth.POST("/signup", hm.authRateLimit, hm.authHandler.SignUp)
		auth.POST("/signin", hm.authRateLimit, hm.authHandler.SignIn)
		auth.POST("/signout", hm.authHandler.SignOut)
		auth.GET("/session", hm.authHandler.GetSession)
	}

	api := v1.Group("")
	api.Use(hm.authMiddleware.AuthMiddleware())
	{
		api.GET("/feed", hm.moduleHandler.Feed)

		modules := api.Group("/modules")
		{
			modules.GET("", hm.moduleHandler.ListModules)
			modules.GET("/:id", hm.moduleHandler.GetModule)
			modules.POST("/:id/start", hm.moduleHandler.StartModule)

			// Catalog management - Admins only
			modules.POST("", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.moduleHandler.CreateModule)
			modules.PUT("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.moduleHandler.UpdateModule)
		}

		progress := api.Group("/progress")
		{
			progress.GET("", hm.progressHandler.ListProgress)
			progress.POST("/:id/advance", hm.progressHandler.AdvanceProgress)
		}

		notifications := api.Group("/notifications")
		{
			notifications.GET("", hm.notificationHandler.ListNotifications)
			notifications.POST("/scan", hm.notificationHandler.ScanNotifications)
			notifications.GET("/unread-count", hm.notificationHandler.UnreadCount)
			notifications.POST("/read-all", hm.notificationHandler.MarkAllRead)
			notifications.POST("/:id/read", hm.notificationHandler.MarkRead)
		}

		certificates := api.Group("/certificates")
		{
			certificates.GET("", hm.certificateHandler.ListCertificates)
			certificates.GET("/export", hm.certificateHandler.ExportCertificates)
			certificates.GET("/:id/document", hm.certificateHandler.DownloadCertificate)
		}

		profile := api.Group("/profile")
		{
			profile.GET("", hm.profileHandler.GetProfile)
			profile.PUT("", hm.profileHandler.UpdateProfile)
			profile.POST("/avatar", hm.profileHandler.UploadAvatar)
		}

		goals := api.Group("/goals")
		{
			goals.GET("/current", hm.learnerHandler.GetCurrentGoal)
			goals.PUT("/current", hm.learnerHandler.SetCurrentGoal)
		}

		favorites := api.Group("/favorites")
		{
			favorites.GET("", hm.learnerHandler.ListFavorites)
			favorites.POST("/:module_id", hm.learnerHandler.AddFavorite)
			favorites.DELETE("/:module_id", hm.learnerHandler.RemoveFavorite)
		}

		api.GET("/achievements", hm.learnerHandler.ListAchievements)
		api.GET("/dashboard/summary", hm.dashboardHandler.GetSummary)
	}
}

// HealthCheck reports database and cache reachability
func (hm *HandlerManager) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if err := hm.health(ctx); err != nil {
		utils.GetLogger(c, hm.logger).Warn("Health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"service": serviceName,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   serviceName,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
