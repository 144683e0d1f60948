package handlers

import (
	"log/slog"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yukikurage/coaching-plans-api/internal/constants"
	apierrors "github.com/yukikurage/coaching-plans-api/internal/errors"
	"github.com/yukikurage/coaching-plans-api/internal/middleware"
	"github.com/yukikurage/coaching-plans-api/internal/services"
	"gorm.io/gorm"
)

// RouterDeps is everything the HTTP layer needs. ChatService and
// OAuthService are optional.
type RouterDeps struct {
	DB           *gorm.DB
	Logger       *slog.Logger
	SessionStore sessions.Store

	AuthService  *services.AuthService
	PlanService  *services.PlanService
	ChatService  *services.ChatService
	OAuthService *services.OAuthService

	AuthRequired      bool
	FrontendURL       string
	ChatRatePerMinute int
}

// SetupRouter builds the gin engine with all routes mounted.
func SetupRouter(deps RouterDeps) *gin.Engine {
	RegisterValidations()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := gin.New()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Metrics())
	r.Use(sessions.Sessions(constants.SessionCookieName, deps.SessionStore))

	r.NoRoute(func(c *gin.Context) {
		apierrors.NotFound(c, "Route not found")
	})

	healthHandler := NewHealthHandler(deps.DB)
	authHandler := NewAuthHandler(deps.AuthService, deps.OAuthService, deps.FrontendURL)
	planHandler := NewPlanHandler(deps.PlanService)
	chatHandler := NewChatHandler(deps.ChatService)

	r.GET("/health", healthHandler.Check)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authenticate := middleware.Authenticate(deps.AuthService, deps.AuthRequired)
	chatLimiter := middleware.NewRateLimiter(deps.ChatRatePerMinute, burstFor(deps.ChatRatePerMinute))

	api := r.Group("/api")
	{
		api.GET("/health", healthHandler.Check)

		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.GET("/me", middleware.RequireAuth(deps.AuthService), authHandler.GetCurrentUser)
			auth.GET("/google", authHandler.GoogleLogin)
			auth.GET("/google/callback", authHandler.GoogleCallback)
		}

		plans := api.Group("/plans")
		plans.Use(authenticate)
		{
			plans.GET("", planHandler.ListPlans)
			plans.POST("", planHandler.CreatePlan)
			plans.GET("/:id", planHandler.GetPlan)
			plans.PUT("/:id", planHandler.UpdatePlan)
			plans.DELETE("/:id", planHandler.DeletePlan)
			plans.PATCH("/:id/steps/:stepId", planHandler.UpdateStepCompletion)
		}

		api.POST("/chat", authenticate, chatLimiter.Middleware(), chatHandler.SendMessage)
	}

	return r
}

func burstFor(perMinute int) int {
	if perMinute < 5 {
		return 1
	}
	return perMinute / 5
}
