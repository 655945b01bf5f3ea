package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stemhub-africa/stemhub-service/internal/models"
	"github.com/stemhub-africa/stemhub-service/internal/services"
	"github.com/stemhub-africa/stemhub-service/internal/utils"
)

// HandlerConfig holds the HTTP-facing settings
type HandlerConfig struct {
	AppBaseURL string
	Cookie     SessionCookieConfig
}

type HandlerManager struct {
	serviceManager     services.ServiceManager
	authHandler        *AuthHandler
	adminHandler       *AdminHandler
	onboardingHandler  *OnboardingHandler
	contributorHandler *ContributorHandler
	contentHandler     *ContentHandler
	authMiddleware     *AuthMiddleware
}

func NewHandlerManager(serviceManager services.ServiceManager, logger utils.Logger, cfg HandlerConfig) *HandlerManager {
	return &HandlerManager{
		serviceManager:     serviceManager,
		authHandler:        NewAuthHandler(serviceManager.Session(), cfg.Cookie, cfg.AppBaseURL, logger),
		adminHandler:       NewAdminHandler(serviceManager.Review(), serviceManager.Invite(), logger),
		onboardingHandler:  NewOnboardingHandler(serviceManager.Onboarding(), logger),
		contributorHandler: NewContributorHandler(serviceManager.Content(), logger),
		contentHandler:     NewContentHandler(serviceManager.Content(), logger),
		authMiddleware:     NewAuthMiddleware(serviceManager.Session(), cfg.Cookie.Name, cfg.AppBaseURL, logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	api := router.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/signup", hm.authHandler.SignUp)
		auth.POST("/login", hm.authHandler.Login)
		auth.GET("/oauth/start", hm.authHandler.StartOAuth)
		auth.GET("/callback", hm.authHandler.Callback)
		auth.POST("/logout", hm.authHandler.Logout)

		auth.GET("/me", hm.authMiddleware.RequireAuth(), hm.authHandler.Me)
		auth.POST("/change-password", hm.authMiddleware.RequireAuth(), hm.authHandler.ChangePassword)
	}

	authenticated := api.Group("")
	authenticated.Use(hm.authMiddleware.RequireAuth())
	{
		// Admin routes
		admin := authenticated.Group("/admin")
		admin.Use(hm.authMiddleware.RequireRole(models.RoleAdmin))
		{
			admin.POST("/review/approve", hm.adminHandler.Approve)
			admin.POST("/review/reject", hm.adminHandler.Reject)
			admin.GET("/review/summary", hm.adminHandler.Summary)
			admin.GET("/review/:content_type", hm.adminHandler.ListQueue)
			admin.GET("/review/:content_type/export", hm.adminHandler.ExportQueue)
			admin.POST("/invite-user", hm.adminHandler.InviteUser)
		}

		// Contributor routes - Contributors and Admins
		contributor := authenticated.Group("/contributor")
		contributor.Use(hm.authMiddleware.RequireRole(models.RoleContributor))
		{
			contributor.POST("/notes", hm.contributorHandler.CreateNote)
			contributor.POST("/quizzes", hm.contributorHandler.CreateQuiz)
			contributor.POST("/past-papers", hm.contributorHandler.CreatePastPaper)
			contributor.POST("/past-papers/upload-url", hm.contributorHandler.UploadURL)
			contributor.GET("/content", hm.contributorHandler.ListOwn)
			contributor.GET("/stats", hm.contributorHandler.Stats)
		}

		// Onboarding routes - Students only
		onboarding := authenticated.Group("/onboarding")
		onboarding.Use(hm.authMiddleware.RequireRole(models.RoleStudent))
		{
			onboarding.GET("", hm.onboardingHandler.GetState)
			onboarding.POST("/:step", hm.onboardingHandler.SaveStep)
		}

		authenticated.GET("/content/:content_type", hm.contentHandler.ListPublished)
	}

	router.GET("/health", hm.health)
}

func (hm *HandlerManager) health(c *gin.Context) {
	status := http.StatusOK
	body := gin.H{
		"status":    "healthy",
		"service":   "stemhub-service",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if err := hm.serviceManager.Health(c.Request.Context()); err != nil {
		status = http.StatusServiceUnavailable
		body["status"] = "unhealthy"
		body["error"] = err.Error()
	}
	c.JSON(status, body)
}
